package archive

// File is the top-level structure of an archive: one group per owner.
//
//	- owner: alice
//	  entries:
//	    - date: "2024-01-05"
//	      content: |
//	        #work
//	        fixed bug
type File []OwnerGroup

// OwnerGroup holds every archived entry of one owner
type OwnerGroup struct {
	Owner   string        `yaml:"owner"`
	Entries []EntryRecord `yaml:"entries"`
}

// EntryRecord is one archived day
type EntryRecord struct {
	Date    string `yaml:"date"`
	Content string `yaml:"content"`
}
