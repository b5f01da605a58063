// Package diary binds an entry store, the tag catalog and an in-memory
// cache into one owner-scoped manager.
package diary

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/daylog/internal/domain"
	"github.com/MrSnakeDoc/daylog/internal/index"
	"github.com/MrSnakeDoc/daylog/internal/logger"
	"github.com/MrSnakeDoc/daylog/internal/tags"
)

// DefaultFanout bounds concurrent store reads during collection resolve
// and catalog sync.
const DefaultFanout = 8

// EntryStore is the persistence the manager needs
type EntryStore interface {
	Get(ctx context.Context, owner domain.Owner, date domain.DateKey) (*domain.DiaryEntry, error)
	Put(ctx context.Context, owner domain.Owner, date domain.DateKey, content string) error
	Dates(ctx context.Context, owner domain.Owner) ([]domain.DateKey, error)
}

// cached is a fetched entry; exists=false is a remembered miss
type cached struct {
	content string
	exists  bool
}

// Manager serves one owner at a time. SetOwner must be called before any
// fetch or save.
type Manager struct {
	store   EntryStore
	catalog *index.Catalog
	log     logger.Logger
	locks   *locker
	fanout  int

	mu    sync.RWMutex
	owner domain.Owner
	gen   uint64 // bumped on every owner change
	cache map[domain.DateKey]cached
}

// New creates a manager with no owner bound
func New(store EntryStore, catalog *index.Catalog, log logger.Logger) *Manager {
	if catalog == nil {
		catalog = index.NewCatalog()
	}
	return &Manager{
		store:   store,
		catalog: catalog,
		log:     log,
		locks:   newLocker(),
		fanout:  DefaultFanout,
		cache:   make(map[domain.DateKey]cached),
	}
}

// SetFanout changes the read concurrency limit (values < 1 mean 1)
func (m *Manager) SetFanout(n int) {
	if n < 1 {
		n = 1
	}
	m.fanout = n
}

// SetOwner rebinds the manager. Cached entries and catalog contents of the
// previous owner are dropped; in-flight reads for them are discarded.
func (m *Manager) SetOwner(owner domain.Owner) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if owner == m.owner {
		return
	}
	m.owner = owner
	m.gen++
	m.cache = make(map[domain.DateKey]cached)
	m.catalog.Reset()
}

// Owner returns the bound owner, empty when none
func (m *Manager) Owner() domain.Owner {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.owner
}

// Catalog exposes the tag catalog for listing
func (m *Manager) Catalog() *index.Catalog { return m.catalog }

func (m *Manager) binding() (domain.Owner, uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.owner.Validate(); err != nil {
		return "", 0, err
	}
	return m.owner, m.gen, nil
}

func lockKey(owner domain.Owner, date domain.DateKey) string {
	return string(owner) + "\x00" + string(date)
}

// FetchEntry returns the entry for date, from cache when possible. A date
// without an entry yields the placeholder and is remembered as a miss.
func (m *Manager) FetchEntry(ctx context.Context, date domain.DateKey) (domain.DiaryEntry, error) {
	date, err := domain.ParseDateKey(string(date))
	if err != nil {
		return domain.DiaryEntry{}, err
	}
	owner, gen, err := m.binding()
	if err != nil {
		return domain.DiaryEntry{}, err
	}

	unlock := m.locks.lock(lockKey(owner, date))
	defer unlock()

	if entry, ok := m.lookup(gen, date); ok {
		return entry, nil
	}
	return m.loadLocked(ctx, owner, gen, date)
}

// reload bypasses the cache, picking up writes made by other processes
func (m *Manager) reload(ctx context.Context, date domain.DateKey) (domain.DiaryEntry, error) {
	owner, gen, err := m.binding()
	if err != nil {
		return domain.DiaryEntry{}, err
	}

	unlock := m.locks.lock(lockKey(owner, date))
	defer unlock()

	return m.loadLocked(ctx, owner, gen, date)
}

// loadLocked reads date from the store into the cache and catalog. The
// caller holds the date lock.
func (m *Manager) loadLocked(ctx context.Context, owner domain.Owner, gen uint64, date domain.DateKey) (domain.DiaryEntry, error) {
	stored, err := m.store.Get(ctx, owner, date)
	if err != nil {
		m.log.Warn("fetch entry failed",
			logger.String("owner", owner.String()),
			logger.String("date", date.String()),
			logger.Error(err))
		return domain.DiaryEntry{}, fmt.Errorf("fetch %s: %w", date, err)
	}

	entry := domain.Placeholder(date)
	if stored != nil {
		entry = domain.DiaryEntry{Date: date, Content: stored.Content, Exists: true}
	}

	m.mu.Lock()
	if m.gen == gen {
		m.cache[date] = cached{content: entry.Content, exists: entry.Exists}
		if entry.Exists {
			m.catalog.RebuildForDate(date, entry.Content)
		} else {
			m.catalog.Forget(date)
		}
	}
	m.mu.Unlock()

	return entry, nil
}

func (m *Manager) lookup(gen uint64, date domain.DateKey) (domain.DiaryEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.gen != gen {
		return domain.DiaryEntry{}, false
	}
	c, ok := m.cache[date]
	if !ok {
		return domain.DiaryEntry{}, false
	}
	return domain.DiaryEntry{Date: date, Content: c.content, Exists: c.exists}, true
}

// SaveEntry overwrites the entry for date. When it returns nil the cache
// and the catalog already reflect content.
func (m *Manager) SaveEntry(ctx context.Context, date domain.DateKey, content string) error {
	date, err := domain.ParseDateKey(string(date))
	if err != nil {
		return err
	}
	owner, gen, err := m.binding()
	if err != nil {
		return err
	}

	unlock := m.locks.lock(lockKey(owner, date))
	defer unlock()

	if err := m.store.Put(ctx, owner, date, content); err != nil {
		m.log.Error("save entry failed",
			logger.String("owner", owner.String()),
			logger.String("date", date.String()),
			logger.Error(err))
		return fmt.Errorf("save %s: %w", date, err)
	}

	m.mu.Lock()
	if m.gen == gen {
		m.cache[date] = cached{content: content, exists: true}
		m.catalog.RebuildForDate(date, content)
	}
	m.mu.Unlock()

	m.log.Debug("entry saved",
		logger.String("owner", owner.String()),
		logger.String("date", date.String()),
		logger.Int("bytes", len(content)))
	return nil
}

// GetContentSlice returns lines [startLine, endLine) of content; endLine
// may be domain.EndOfContent.
func (m *Manager) GetContentSlice(content string, startLine, endLine int) string {
	return tags.Slice(content, startLine, endLine)
}

// CacheSize returns the number of cached dates, misses included
func (m *Manager) CacheSize() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.cache)
}
