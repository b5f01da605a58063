package domain

// EndOfContent marks a TagSpan that runs to the end of its entry.
const EndOfContent = -1

// TagOccurrence is one tag marker line found in an entry.
type TagOccurrence struct {
	Name string `json:"name"`
	Line int    `json:"line"` // zero-based
}

// TagSpan locates the body of one tag occurrence: the half-open line range
// [TagLine+1, NextTagLine), where NextTagLine may be EndOfContent.
type TagSpan struct {
	Date        DateKey `json:"date"`
	TagLine     int     `json:"tag_line"`
	NextTagLine int     `json:"next_tag_line"`
}

// StartLine is the first body line of the span.
func (s TagSpan) StartLine() int { return s.TagLine + 1 }

// IsLast reports whether the span runs to the end of its entry.
func (s TagSpan) IsLast() bool { return s.NextTagLine == EndOfContent }

// TagSummary describes one catalog bucket.
type TagSummary struct {
	Name        string `json:"name"`
	Occurrences int    `json:"occurrences"`
	Dates       int    `json:"dates"`
}

// CollectionItem is one resolved body segment of a tag collection.
type CollectionItem struct {
	Date      DateKey `json:"date"`
	Tag       string  `json:"tag"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	Content   string  `json:"content"`
}
