package diary

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MrSnakeDoc/daylog/internal/domain"
	"github.com/MrSnakeDoc/daylog/internal/index"
	"github.com/MrSnakeDoc/daylog/internal/logger"
	"github.com/MrSnakeDoc/daylog/internal/store/memory"
)

// countingStore wraps the memory store, counting calls and failing on demand
type countingStore struct {
	*memory.Store
	gets atomic.Int32
	puts atomic.Int32
	fail atomic.Bool

	mu     sync.Mutex
	hidden map[domain.DateKey]bool // deleted by another process
}

var errDown = errors.New("connection refused")

func newCountingStore() *countingStore {
	return &countingStore{Store: memory.NewStore()}
}

func (s *countingStore) Get(ctx context.Context, owner domain.Owner, date domain.DateKey) (*domain.DiaryEntry, error) {
	s.gets.Add(1)
	if s.fail.Load() {
		return nil, errors.Join(domain.ErrStoreUnavailable, errDown)
	}
	if s.isHidden(date) {
		return nil, nil
	}
	return s.Store.Get(ctx, owner, date)
}

func (s *countingStore) Dates(ctx context.Context, owner domain.Owner) ([]domain.DateKey, error) {
	all, err := s.Store.Dates(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DateKey, 0, len(all))
	for _, d := range all {
		if !s.isHidden(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *countingStore) hide(date domain.DateKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hidden == nil {
		s.hidden = make(map[domain.DateKey]bool)
	}
	s.hidden[date] = true
}

func (s *countingStore) isHidden(date domain.DateKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hidden[date]
}

func (s *countingStore) Put(ctx context.Context, owner domain.Owner, date domain.DateKey, content string) error {
	s.puts.Add(1)
	if s.fail.Load() {
		return errors.Join(domain.ErrStoreUnavailable, errDown)
	}
	return s.Store.Put(ctx, owner, date, content)
}

func newTestManager(t *testing.T, owner domain.Owner) (*Manager, *countingStore) {
	t.Helper()
	st := newCountingStore()
	m := New(st, index.NewCatalog(), logger.Nop())
	if owner != "" {
		m.SetOwner(owner)
	}
	return m, st
}

const exampleEntry = "#work\nfixed bug\n#home\ncleaned"

func TestRequiresOwner(t *testing.T) {
	m, _ := newTestManager(t, "")
	ctx := context.Background()

	if _, err := m.FetchEntry(ctx, "2024-01-05"); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("FetchEntry() error = %v, want ErrNotAuthenticated", err)
	}
	if err := m.SaveEntry(ctx, "2024-01-05", "x"); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("SaveEntry() error = %v, want ErrNotAuthenticated", err)
	}
	if _, err := m.ResolveTagCollection(ctx, "work"); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("ResolveTagCollection() error = %v, want ErrNotAuthenticated", err)
	}
	if _, err := m.SyncCatalog(ctx); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("SyncCatalog() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestMalformedDate(t *testing.T) {
	m, st := newTestManager(t, "alice")
	ctx := context.Background()

	for _, raw := range []string{"", "2024-13-01", "2024-02-30", "yesterday"} {
		t.Run(raw, func(t *testing.T) {
			if _, err := m.FetchEntry(ctx, domain.DateKey(raw)); !errors.Is(err, domain.ErrMalformedDate) {
				t.Errorf("FetchEntry(%q) error = %v, want ErrMalformedDate", raw, err)
			}
			if err := m.SaveEntry(ctx, domain.DateKey(raw), "x"); !errors.Is(err, domain.ErrMalformedDate) {
				t.Errorf("SaveEntry(%q) error = %v, want ErrMalformedDate", raw, err)
			}
		})
	}
	if st.gets.Load() != 0 || st.puts.Load() != 0 {
		t.Errorf("store touched for malformed dates: gets=%d puts=%d", st.gets.Load(), st.puts.Load())
	}
}

func TestSaveThenFetch(t *testing.T) {
	tests := []struct {
		name    string
		date    domain.DateKey
		content string
	}{
		{name: "tagged entry", date: "2024-01-05", content: exampleEntry},
		{name: "empty content", date: "2024-01-06", content: ""},
		{name: "unpadded key", date: "2024-1-7", content: "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			// fresh manager on the same store proves the value hit the store
			m, st := newTestManager(t, "alice")
			if err := m.SaveEntry(ctx, tt.date, tt.content); err != nil {
				t.Fatalf("SaveEntry() error = %v", err)
			}

			got, err := m.FetchEntry(ctx, tt.date)
			if err != nil {
				t.Fatalf("FetchEntry() error = %v", err)
			}
			if got.Content != tt.content || !got.Exists {
				t.Errorf("FetchEntry() = %+v, want content %q", got, tt.content)
			}
			if st.gets.Load() != 0 {
				t.Errorf("fetch after save should hit the cache, store gets = %d", st.gets.Load())
			}

			other := New(st, index.NewCatalog(), logger.Nop())
			other.SetOwner("alice")
			got, err = other.FetchEntry(ctx, tt.date)
			if err != nil {
				t.Fatalf("FetchEntry() from store error = %v", err)
			}
			if got.Content != tt.content {
				t.Errorf("store round trip = %q, want %q", got.Content, tt.content)
			}
		})
	}
}

func TestFetchCachesMisses(t *testing.T) {
	m, st := newTestManager(t, "alice")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := m.FetchEntry(ctx, "2024-03-01")
		if err != nil {
			t.Fatalf("FetchEntry() error = %v", err)
		}
		if got.Exists {
			t.Fatalf("FetchEntry() = %+v, want placeholder", got)
		}
	}
	if n := st.gets.Load(); n != 1 {
		t.Errorf("store gets = %d, want 1 (negative result cached)", n)
	}
}

func TestFetchRebuildsCatalog(t *testing.T) {
	ctx := context.Background()
	st := newCountingStore()
	if err := st.Put(ctx, "alice", "2024-01-05", exampleEntry); err != nil {
		t.Fatalf("seed: %v", err)
	}

	m := New(st, index.NewCatalog(), logger.Nop())
	m.SetOwner("alice")

	if got := m.Catalog().SpansForTag("work"); len(got) != 0 {
		t.Fatalf("catalog should start empty, got %v", got)
	}
	if _, err := m.FetchEntry(ctx, "2024-01-05"); err != nil {
		t.Fatalf("FetchEntry() error = %v", err)
	}
	if got := m.Catalog().SpansForTag("work"); len(got) != 1 {
		t.Fatalf("SpansForTag(work) = %v, want one span", got)
	}
}

func TestStoreFailureSurfaces(t *testing.T) {
	m, st := newTestManager(t, "alice")
	ctx := context.Background()
	st.fail.Store(true)

	if _, err := m.FetchEntry(ctx, "2024-01-05"); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("FetchEntry() error = %v, want ErrStoreUnavailable", err)
	}
	if err := m.SaveEntry(ctx, "2024-01-05", "x"); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("SaveEntry() error = %v, want ErrStoreUnavailable", err)
	}
	if n := st.puts.Load(); n != 1 {
		t.Errorf("store puts = %d, want exactly 1 (no internal retry)", n)
	}
	if m.CacheSize() != 0 {
		t.Errorf("failed calls must not populate the cache, size = %d", m.CacheSize())
	}

	st.fail.Store(false)
	if err := m.SaveEntry(ctx, "2024-01-05", "x"); err != nil {
		t.Fatalf("SaveEntry() after recovery error = %v", err)
	}
}

func TestSetOwnerClearsCache(t *testing.T) {
	m, _ := newTestManager(t, "alice")
	ctx := context.Background()

	if err := m.SaveEntry(ctx, "2024-01-05", "alice secret\n#private\nbody"); err != nil {
		t.Fatalf("SaveEntry() error = %v", err)
	}

	m.SetOwner("bob")

	got, err := m.FetchEntry(ctx, "2024-01-05")
	if err != nil {
		t.Fatalf("FetchEntry() error = %v", err)
	}
	if got.Exists || got.Content != "" {
		t.Errorf("bob sees %+v, want placeholder", got)
	}
	if spans := m.Catalog().SpansForTag("private"); len(spans) != 0 {
		t.Errorf("catalog leaked alice's tags to bob: %v", spans)
	}
	if m.Owner() != "bob" {
		t.Errorf("Owner() = %q, want bob", m.Owner())
	}

	// switching back re-reads from the store, not from a stale cache
	m.SetOwner("alice")
	got, err = m.FetchEntry(ctx, "2024-01-05")
	if err != nil {
		t.Fatalf("FetchEntry() error = %v", err)
	}
	if !got.Exists {
		t.Errorf("alice lost her entry after switching back")
	}
}

func TestSaveVisibleToTagQueryImmediately(t *testing.T) {
	m, st := newTestManager(t, "alice")
	ctx := context.Background()

	if err := m.SaveEntry(ctx, "2024-01-05", exampleEntry); err != nil {
		t.Fatalf("SaveEntry() error = %v", err)
	}
	getsBefore := st.gets.Load()

	spans := m.Catalog().SpansForTag("home")
	if len(spans) != 1 || spans[0].TagLine != 2 || !spans[0].IsLast() {
		t.Fatalf("SpansForTag(home) = %+v", spans)
	}

	if err := m.SaveEntry(ctx, "2024-01-05", "#home\nmoved"); err != nil {
		t.Fatalf("SaveEntry() error = %v", err)
	}
	if spans := m.Catalog().SpansForTag("work"); len(spans) != 0 {
		t.Errorf("stale work span after edit: %v", spans)
	}
	if st.gets.Load() != getsBefore {
		t.Errorf("tag queries must not go to the store")
	}
}

func TestGetContentSlice(t *testing.T) {
	m, _ := newTestManager(t, "alice")

	tests := []struct {
		name       string
		start, end int
		want       string
	}{
		{name: "work body", start: 1, end: 2, want: "fixed bug"},
		{name: "home body to end", start: 3, end: domain.EndOfContent, want: "cleaned"},
		{name: "start beyond content", start: 10, end: domain.EndOfContent, want: ""},
		{name: "end beyond content", start: 2, end: 99, want: "#home\ncleaned"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.GetContentSlice(exampleEntry, tt.start, tt.end); got != tt.want {
				t.Errorf("GetContentSlice() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveTagCollectionExample(t *testing.T) {
	m, _ := newTestManager(t, "alice")
	ctx := context.Background()

	if err := m.SaveEntry(ctx, "2024-01-05", exampleEntry); err != nil {
		t.Fatalf("SaveEntry() error = %v", err)
	}

	tests := []struct {
		tag  string
		want string
	}{
		{tag: "work", want: "fixed bug"},
		{tag: "home", want: "cleaned"},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			items, err := m.ResolveTagCollection(ctx, tt.tag)
			if err != nil {
				t.Fatalf("ResolveTagCollection() error = %v", err)
			}
			if len(items) != 1 || items[0].Content != tt.want || items[0].Date != "2024-01-05" {
				t.Fatalf("ResolveTagCollection(%s) = %+v, want %q", tt.tag, items, tt.want)
			}
		})
	}

	items, err := m.ResolveTagCollection(ctx, "unknown")
	if err != nil {
		t.Fatalf("ResolveTagCollection(unknown) error = %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("unknown tag should yield an empty, non-nil slice, got %#v", items)
	}
}

func TestResolveTagCollectionChronological(t *testing.T) {
	m, _ := newTestManager(t, "alice")
	ctx := context.Background()

	// inserted out of order; "2024-10-01" < "2024-9-30" as strings
	saves := []struct {
		date    domain.DateKey
		content string
	}{
		{"2024-10-01", "#run\noctober"},
		{"2023-12-31", "#run\nnew year's eve\n#run\nsecond lap"},
		{"2024-9-30", "#run\nseptember"},
		{"2024-01-15", "no tags here"},
	}
	for _, s := range saves {
		if err := m.SaveEntry(ctx, s.date, s.content); err != nil {
			t.Fatalf("SaveEntry(%s) error = %v", s.date, err)
		}
	}

	items, err := m.ResolveTagCollection(ctx, "run")
	if err != nil {
		t.Fatalf("ResolveTagCollection() error = %v", err)
	}

	want := []struct {
		date    domain.DateKey
		content string
	}{
		{"2023-12-31", "new year's eve"},
		{"2023-12-31", "second lap"},
		{"2024-09-30", "september"},
		{"2024-10-01", "october"},
	}
	if len(items) != len(want) {
		t.Fatalf("ResolveTagCollection() = %+v, want %d items", items, len(want))
	}
	for i, w := range want {
		if items[i].Date != w.date || items[i].Content != w.content {
			t.Errorf("item[%d] = (%s, %q), want (%s, %q)", i, items[i].Date, items[i].Content, w.date, w.content)
		}
	}
}

func TestResolveTagCollectionFetchesEachDateOnce(t *testing.T) {
	ctx := context.Background()
	st := newCountingStore()
	for _, d := range []domain.DateKey{"2024-01-01", "2024-01-02", "2024-01-03"} {
		if err := st.Put(ctx, "alice", d, "#a\none\n#a\ntwo\n#b\nthree"); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	m := New(st, index.NewCatalog(), logger.Nop())
	m.SetOwner("alice")
	m.SetFanout(2)

	n, err := m.SyncCatalog(ctx)
	if err != nil {
		t.Fatalf("SyncCatalog() error = %v", err)
	}
	if n != 3 {
		t.Errorf("SyncCatalog() = %d, want 3", n)
	}
	if got := st.gets.Load(); got != 3 {
		t.Errorf("store gets after sync = %d, want 3", got)
	}

	items, err := m.ResolveTagCollection(ctx, "a")
	if err != nil {
		t.Fatalf("ResolveTagCollection() error = %v", err)
	}
	if len(items) != 6 {
		t.Errorf("ResolveTagCollection(a) = %d items, want 6", len(items))
	}
	if got := st.gets.Load(); got != 3 {
		t.Errorf("resolve after sync should be served from cache, gets = %d", got)
	}
}

func TestResolveTagCollectionStoreFailure(t *testing.T) {
	ctx := context.Background()
	m, st := newTestManager(t, "alice")
	if err := m.SaveEntry(ctx, "2024-01-05", exampleEntry); err != nil {
		t.Fatalf("SaveEntry() error = %v", err)
	}

	m.mu.Lock()
	delete(m.cache, "2024-01-05")
	m.mu.Unlock()
	st.fail.Store(true)

	if _, err := m.ResolveTagCollection(ctx, "work"); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("ResolveTagCollection() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestConcurrentFetchAndSave(t *testing.T) {
	m, _ := newTestManager(t, "alice")
	ctx := context.Background()

	var wg sync.WaitGroup
	dates := []domain.DateKey{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"}
	for _, d := range dates {
		d := d
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if err := m.SaveEntry(ctx, d, "#tag\nbody"); err != nil {
					t.Errorf("SaveEntry() error = %v", err)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if _, err := m.FetchEntry(ctx, d); err != nil {
					t.Errorf("FetchEntry() error = %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if spans := m.Catalog().SpansForTag("tag"); len(spans) != len(dates) {
		t.Errorf("SpansForTag(tag) = %d spans, want %d", len(spans), len(dates))
	}
}

func TestSyncCatalogPicksUpExternalWrites(t *testing.T) {
	ctx := context.Background()
	m, st := newTestManager(t, "alice")
	if err := m.SaveEntry(ctx, "2024-01-05", "#work\nold"); err != nil {
		t.Fatalf("SaveEntry() error = %v", err)
	}

	// another process rewrites the entry behind the manager's back
	if err := st.Store.Put(ctx, "alice", "2024-01-05", "#home\nnew"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.SyncCatalog(ctx); err != nil {
		t.Fatalf("SyncCatalog() error = %v", err)
	}

	if spans := m.Catalog().SpansForTag("work"); len(spans) != 0 {
		t.Errorf("stale tag still indexed: %v", spans)
	}
	items, err := m.ResolveTagCollection(ctx, "home")
	if err != nil {
		t.Fatalf("ResolveTagCollection() error = %v", err)
	}
	if len(items) != 1 || items[0].Content != "new" {
		t.Errorf("items = %+v", items)
	}
}

func TestSyncCatalogDropsExternallyDeletedDates(t *testing.T) {
	ctx := context.Background()
	m, st := newTestManager(t, "alice")
	if err := m.SaveEntry(ctx, "2024-01-05", "#work\ngone soon"); err != nil {
		t.Fatalf("SaveEntry() error = %v", err)
	}

	st.hide("2024-01-05")
	if _, err := m.SyncCatalog(ctx); err != nil {
		t.Fatalf("SyncCatalog() error = %v", err)
	}

	if spans := m.Catalog().SpansForTag("work"); len(spans) != 0 {
		t.Errorf("deleted date still indexed: %v", spans)
	}
	entry, err := m.FetchEntry(ctx, "2024-01-05")
	if err != nil {
		t.Fatalf("FetchEntry() error = %v", err)
	}
	if entry.Exists {
		t.Errorf("FetchEntry() = %+v, want placeholder after external delete", entry)
	}
}

func TestResolveTagCollectionDuringSaves(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, "alice")

	versions := []string{
		"#work\nbody-a\n#home\nchores",
		"intro\nmore\n#home\nx\n#work\nbody-b",
	}
	if err := m.SaveEntry(ctx, "2024-01-05", versions[0]); err != nil {
		t.Fatalf("SaveEntry() error = %v", err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			_ = m.SaveEntry(ctx, "2024-01-05", versions[i%2])
		}
	}()

	for i := 0; i < 5000; i++ {
		items, err := m.ResolveTagCollection(ctx, "work")
		if err != nil {
			t.Fatalf("ResolveTagCollection() error = %v", err)
		}
		for _, item := range items {
			if item.Content != "body-a" && item.Content != "body-b" {
				close(done)
				wg.Wait()
				t.Fatalf("item body = %q, want body-a or body-b", item.Content)
			}
		}
	}
	close(done)
	wg.Wait()
}
