package domain

// Owner is the authenticated identity whose entries are accessed.
// The zero value means "no owner bound".
type Owner string

// Validate returns ErrNotAuthenticated for the zero owner.
func (o Owner) Validate() error {
	if o == "" {
		return ErrNotAuthenticated
	}
	return nil
}

func (o Owner) String() string { return string(o) }

// DiaryEntry is the single free-text entry of one owner for one day.
type DiaryEntry struct {
	// Date is the identity of the entry.
	Date DateKey `json:"date"`

	// Content is the full text; saves overwrite it entirely.
	Content string `json:"content"`

	// Exists is false for the placeholder returned when no entry was ever
	// saved for Date. An existing entry may still have empty Content.
	Exists bool `json:"exists"`
}

// Placeholder returns the "no entry yet" value for date.
func Placeholder(date DateKey) DiaryEntry {
	return DiaryEntry{Date: date}
}
