package diary

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/daylog/internal/domain"
	"github.com/MrSnakeDoc/daylog/internal/logger"
	"github.com/MrSnakeDoc/daylog/internal/tags"
)

// ResolveTagCollection returns the body of every span tagged tag, oldest
// date first. The catalog only picks the dates; spans are recomputed from
// the fetched text so a save racing the resolve cannot misalign them.
func (m *Manager) ResolveTagCollection(ctx context.Context, tag string) ([]domain.CollectionItem, error) {
	if _, _, err := m.binding(); err != nil {
		return nil, err
	}

	spans := m.catalog.SpansForTag(tag)
	if len(spans) == 0 {
		return []domain.CollectionItem{}, nil
	}

	dates := make([]domain.DateKey, 0, len(spans))
	seen := make(map[domain.DateKey]struct{}, len(spans))
	for _, span := range spans {
		if _, ok := seen[span.Date]; !ok {
			seen[span.Date] = struct{}{}
			dates = append(dates, span.Date)
		}
	}

	contents, err := m.fetchAll(ctx, dates, m.FetchEntry)
	if err != nil {
		return nil, err
	}

	items := make([]domain.CollectionItem, 0, len(spans))
	for _, date := range dates {
		entry, ok := contents[date]
		if !ok || !entry.Exists {
			continue
		}
		items = append(items, collectFromEntry(entry, tag)...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Date != items[j].Date {
			return items[i].Date.Before(items[j].Date)
		}
		return items[i].StartLine < items[j].StartLine
	})
	return items, nil
}

// collectFromEntry slices every span of tag out of one entry's own text
func collectFromEntry(entry domain.DiaryEntry, tag string) []domain.CollectionItem {
	occurrences := tags.Index(entry.Content)
	spans := tags.Spans(entry.Date, occurrences)

	items := make([]domain.CollectionItem, 0, 1)
	for i, occ := range occurrences {
		if occ.Name != tag {
			continue
		}
		span := spans[i]
		items = append(items, domain.CollectionItem{
			Date:      entry.Date,
			Tag:       tag,
			StartLine: span.StartLine(),
			EndLine:   span.NextTagLine,
			Content:   tags.Slice(entry.Content, span.StartLine(), span.NextTagLine),
		})
	}
	return items
}

// SyncCatalog re-reads every date the owner has in the store so the
// catalog covers all of them, not only the ones opened so far, and picks
// up writes made by other processes. Cached dates the store no longer
// lists are re-read too, which drops them from the catalog. It returns the
// number of stored dates.
func (m *Manager) SyncCatalog(ctx context.Context) (int, error) {
	owner, _, err := m.binding()
	if err != nil {
		return 0, err
	}

	dates, err := m.store.Dates(ctx, owner)
	if err != nil {
		return 0, err
	}

	if _, err := m.fetchAll(ctx, append(m.cachedOutside(dates), dates...), m.reload); err != nil {
		return 0, err
	}

	m.log.Info("catalog synced",
		logger.String("owner", owner.String()),
		logger.Int("dates", len(dates)),
		logger.Int("tags", m.catalog.Count()))
	return len(dates), nil
}

// cachedOutside returns cached existing dates missing from listed
func (m *Manager) cachedOutside(listed []domain.DateKey) []domain.DateKey {
	in := make(map[domain.DateKey]struct{}, len(listed))
	for _, d := range listed {
		in[d] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	stale := make([]domain.DateKey, 0)
	for date, c := range m.cache {
		if _, ok := in[date]; !ok && c.exists {
			stale = append(stale, date)
		}
	}
	return stale
}

type fetchFunc func(ctx context.Context, date domain.DateKey) (domain.DiaryEntry, error)

func (m *Manager) fetchAll(ctx context.Context, dates []domain.DateKey, fetch fetchFunc) (map[domain.DateKey]domain.DiaryEntry, error) {
	var mu sync.Mutex
	out := make(map[domain.DateKey]domain.DiaryEntry, len(dates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.fanout)
	for _, date := range dates {
		date := date
		g.Go(func() error {
			entry, err := fetch(gctx, date)
			if err != nil {
				return err
			}
			mu.Lock()
			out[date] = entry
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
