package index

import (
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/daylog/internal/domain"
	"github.com/MrSnakeDoc/daylog/internal/tags"
)

// Catalog maps tag names to the spans where they occur, across every date
// it has been fed. Each date's contribution is replaced as a unit, so
// rebuilding a date never leaves stale or duplicate spans behind.
type Catalog struct {
	mu          sync.RWMutex
	byTag       map[string]map[domain.DateKey][]domain.TagSpan // tag -> date -> spans
	byDate      map[domain.DateKey][]string                    // date -> tags it contributes to
	lastRebuild time.Time
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		byTag:  make(map[string]map[domain.DateKey][]domain.TagSpan),
		byDate: make(map[domain.DateKey][]string),
	}
}

// RebuildForDate re-indexes content and replaces the prior contribution of
// date in every bucket. A date without tags ends up in no bucket.
func (c *Catalog) RebuildForDate(date domain.DateKey, content string) {
	occurrences := tags.Index(content)
	spans := tags.Spans(date, occurrences)

	grouped := make(map[string][]domain.TagSpan)
	names := make([]string, 0)
	for i, occ := range occurrences {
		if _, seen := grouped[occ.Name]; !seen {
			names = append(names, occ.Name)
		}
		grouped[occ.Name] = append(grouped[occ.Name], spans[i])
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.forgetLocked(date)
	for name, tagSpans := range grouped {
		bucket := c.byTag[name]
		if bucket == nil {
			bucket = make(map[domain.DateKey][]domain.TagSpan)
			c.byTag[name] = bucket
		}
		bucket[date] = tagSpans
	}
	if len(names) > 0 {
		c.byDate[date] = names
	}
	c.lastRebuild = time.Now()
}

// Forget removes every contribution of date
func (c *Catalog) Forget(date domain.DateKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.forgetLocked(date)
}

func (c *Catalog) forgetLocked(date domain.DateKey) {
	for _, name := range c.byDate[date] {
		bucket := c.byTag[name]
		delete(bucket, date)
		if len(bucket) == 0 {
			delete(c.byTag, name)
		}
	}
	delete(c.byDate, date)
}

// SpansForTag returns a copy of the spans recorded for name, ordered by
// parsed date then line. Unknown tags yield an empty slice.
func (c *Catalog) SpansForTag(name string) []domain.TagSpan {
	c.mu.RLock()
	bucket := c.byTag[name]
	spans := make([]domain.TagSpan, 0, len(bucket))
	for _, dateSpans := range bucket {
		spans = append(spans, dateSpans...)
	}
	c.mu.RUnlock()

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Date != spans[j].Date {
			return spans[i].Date.Before(spans[j].Date)
		}
		return spans[i].TagLine < spans[j].TagLine
	})
	return spans
}

// Tags summarizes every bucket, sorted by tag name
func (c *Catalog) Tags() []domain.TagSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	summaries := make([]domain.TagSummary, 0, len(c.byTag))
	for name, bucket := range c.byTag {
		summary := domain.TagSummary{Name: name, Dates: len(bucket)}
		for _, spans := range bucket {
			summary.Occurrences += len(spans)
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries
}

// Reset drops everything, e.g. when the owner changes
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byTag = make(map[string]map[domain.DateKey][]domain.TagSpan)
	c.byDate = make(map[domain.DateKey][]string)
	c.lastRebuild = time.Time{}
}

// Count returns the number of distinct tags
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.byTag)
}

// DateCount returns the number of dates contributing at least one tag
func (c *Catalog) DateCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.byDate)
}

// GetLastRebuild returns the time of the last RebuildForDate
func (c *Catalog) GetLastRebuild() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lastRebuild
}
