package archive

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/daylog/internal/domain"
)

// OwnerEntries is the import unit: the entries of one owner, oldest first
type OwnerEntries struct {
	Owner   domain.Owner
	Entries []domain.DiaryEntry
}

// Skipped describes a record the mapper dropped
type Skipped struct {
	Owner  string
	Date   string
	Reason string
}

func (s Skipped) String() string {
	return fmt.Sprintf("%s/%s: %s", s.Owner, s.Date, s.Reason)
}

// Mapper converts archive groups to domain entries
type Mapper struct{}

func NewMapper() *Mapper {
	return &Mapper{}
}

// MapEntries validates and normalizes the archive. Groups of the same owner
// are merged; when a date repeats, the last record wins. Records with a
// blank owner or a malformed date are reported in skipped.
func (m *Mapper) MapEntries(file File) (groups []OwnerEntries, skipped []Skipped) {
	byOwner := make(map[domain.Owner]map[domain.DateKey]string)
	order := make([]domain.Owner, 0, len(file))

	for _, group := range file {
		owner := domain.Owner(strings.TrimSpace(group.Owner))
		if owner.Validate() != nil {
			for _, rec := range group.Entries {
				skipped = append(skipped, Skipped{Owner: group.Owner, Date: rec.Date, Reason: "missing owner"})
			}
			continue
		}

		dates, ok := byOwner[owner]
		if !ok {
			dates = make(map[domain.DateKey]string)
			byOwner[owner] = dates
			order = append(order, owner)
		}

		for _, rec := range group.Entries {
			date, err := domain.ParseDateKey(rec.Date)
			if err != nil {
				skipped = append(skipped, Skipped{Owner: group.Owner, Date: rec.Date, Reason: "malformed date"})
				continue
			}
			dates[date] = rec.Content
		}
	}

	groups = make([]OwnerEntries, 0, len(order))
	for _, owner := range order {
		entries := make([]domain.DiaryEntry, 0, len(byOwner[owner]))
		for date, content := range byOwner[owner] {
			entries = append(entries, domain.DiaryEntry{Date: date, Content: content, Exists: true})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
		groups = append(groups, OwnerEntries{Owner: owner, Entries: entries})
	}
	return groups, skipped
}
