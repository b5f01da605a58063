// Package workspace keeps one diary manager and one editing session per
// owner and gates date navigation behind the session's forced save.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/daylog/internal/diary"
	"github.com/MrSnakeDoc/daylog/internal/domain"
	"github.com/MrSnakeDoc/daylog/internal/index"
	"github.com/MrSnakeDoc/daylog/internal/logger"
	"github.com/MrSnakeDoc/daylog/internal/scheduler"
)

// StatusEvent is pushed to the editing surface on every autosave transition
type StatusEvent struct {
	Type      string         `json:"type"`
	Owner     domain.Owner   `json:"owner"`
	SessionID string         `json:"session_id"`
	Version   uint64         `json:"version"`
	Date      domain.DateKey `json:"date"`
	State     string         `json:"state"`
	Saved     bool           `json:"saved"`
	Error     string         `json:"error,omitempty"`
}

// Publisher fans events out to subscribers of owner
type Publisher interface {
	Publish(owner domain.Owner, v any)
}

// Options tune new workspaces
type Options struct {
	Cooldown   time.Duration // autosave debounce window
	SyncOnOpen bool          // warm the catalog from the store when a workspace opens
	Fanout     int           // store read concurrency, 0 keeps the default
}

// Workspace is everything bound to one owner
type Workspace struct {
	Owner   domain.Owner
	Manager *diary.Manager
	Session *scheduler.Session
}

// Registry owns the workspaces
type Registry struct {
	store     diary.EntryStore
	publisher Publisher
	logger    logger.Logger
	opts      Options

	mu       sync.Mutex
	byOwner  map[domain.Owner]*Workspace
	lastDate map[domain.Owner]domain.DateKey // session date of evicted workspaces
}

// maxReopen bounds retries of an operation that raced an eviction
const maxReopen = 3

// NewRegistry creates an empty registry. publisher may be nil.
func NewRegistry(store diary.EntryStore, publisher Publisher, log logger.Logger, opts Options) *Registry {
	if opts.Cooldown <= 0 {
		opts.Cooldown = time.Second
	}
	return &Registry{
		store:     store,
		publisher: publisher,
		logger:    log,
		opts:      opts,
		byOwner:   make(map[domain.Owner]*Workspace),
		lastDate:  make(map[domain.Owner]domain.DateKey),
	}
}

// Open returns the workspace of owner, creating it on first use. A
// workspace whose session an eviction already closed is replaced.
func (r *Registry) Open(ctx context.Context, owner domain.Owner) (*Workspace, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	ws, ok := r.byOwner[owner]
	if ok && ws.Session.Closed() {
		r.lastDate[owner] = ws.Session.Date()
		ok = false
	}
	if !ok {
		ws = r.newWorkspace(owner, r.lastDate[owner])
		r.byOwner[owner] = ws
	}
	r.mu.Unlock()

	if !ok {
		r.logger.Info("workspace opened", logger.String("owner", owner.String()))
		if r.opts.SyncOnOpen {
			if _, err := ws.Manager.SyncCatalog(ctx); err != nil {
				r.logger.Warn("initial catalog sync failed",
					logger.String("owner", owner.String()),
					logger.Error(err))
			}
		}
	}
	return ws, nil
}

// withSession runs fn on the workspace of owner, reopening it when fn lost
// a race with an eviction.
func (r *Registry) withSession(ctx context.Context, owner domain.Owner, fn func(ws *Workspace) error) (*Workspace, error) {
	for attempt := 0; ; attempt++ {
		ws, err := r.Open(ctx, owner)
		if err != nil {
			return nil, err
		}
		err = fn(ws)
		if errors.Is(err, scheduler.ErrSessionClosed) && attempt < maxReopen {
			continue
		}
		return ws, err
	}
}

func (r *Registry) newWorkspace(owner domain.Owner, date domain.DateKey) *Workspace {
	log := r.logger.With(logger.String("owner", owner.String()))

	manager := diary.New(r.store, index.NewCatalog(), log)
	if r.opts.Fanout > 0 {
		manager.SetFanout(r.opts.Fanout)
	}
	manager.SetOwner(owner)

	if date == "" {
		date = domain.Today()
	}
	session := scheduler.NewSession(manager, date, r.opts.Cooldown, log, r.statusFunc(owner))
	return &Workspace{Owner: owner, Manager: manager, Session: session}
}

func (r *Registry) statusFunc(owner domain.Owner) scheduler.StatusFunc {
	if r.publisher == nil {
		return nil
	}
	return func(st scheduler.SessionStatus) {
		r.publisher.Publish(owner, NewStatusEvent(owner, st))
	}
}

// NewStatusEvent converts a session snapshot to its wire form
func NewStatusEvent(owner domain.Owner, st scheduler.SessionStatus) StatusEvent {
	ev := StatusEvent{
		Type:      "session_status",
		Owner:     owner,
		SessionID: st.SessionID,
		Version:   st.Version,
		Date:      st.Date,
		State:     st.State.String(),
		Saved:     st.Saved,
	}
	if st.Err != nil {
		ev.Error = st.Err.Error()
	}
	return ev
}

// Navigate moves the owner's editing session to date. The previous date
// is saved and acknowledged by the store before the new entry is fetched.
func (r *Registry) Navigate(ctx context.Context, owner domain.Owner, date domain.DateKey) (domain.DiaryEntry, error) {
	date, err := domain.ParseDateKey(string(date))
	if err != nil {
		return domain.DiaryEntry{}, err
	}
	ws, err := r.withSession(ctx, owner, func(ws *Workspace) error {
		return ws.Session.Switch(ctx, date)
	})
	if err != nil {
		if ws == nil {
			return domain.DiaryEntry{}, err
		}
		return domain.DiaryEntry{}, fmt.Errorf("navigation blocked, unsaved edits: %w", err)
	}
	return ws.Manager.FetchEntry(ctx, date)
}

// Edit feeds the full current text of date to the owner's session
func (r *Registry) Edit(ctx context.Context, owner domain.Owner, date domain.DateKey, content string) (scheduler.SessionStatus, error) {
	date, err := domain.ParseDateKey(string(date))
	if err != nil {
		return scheduler.SessionStatus{}, err
	}
	ws, err := r.withSession(ctx, owner, func(ws *Workspace) error {
		return ws.Session.Edit(date, content)
	})
	if ws == nil {
		return scheduler.SessionStatus{}, err
	}
	return ws.Session.Status(), err
}

// Flush forces the owner's pending edits to the store
func (r *Registry) Flush(ctx context.Context, owner domain.Owner) (scheduler.SessionStatus, error) {
	ws, err := r.withSession(ctx, owner, func(ws *Workspace) error {
		return ws.Session.Flush(ctx)
	})
	if ws == nil {
		return scheduler.SessionStatus{}, err
	}
	return ws.Session.Status(), err
}

// Status returns the session snapshot of owner
func (r *Registry) Status(ctx context.Context, owner domain.Owner) (scheduler.SessionStatus, error) {
	ws, err := r.Open(ctx, owner)
	if err != nil {
		return scheduler.SessionStatus{}, err
	}
	return ws.Session.Status(), nil
}

// Fetch reads one entry without moving the editing session
func (r *Registry) Fetch(ctx context.Context, owner domain.Owner, date domain.DateKey) (domain.DiaryEntry, error) {
	ws, err := r.Open(ctx, owner)
	if err != nil {
		return domain.DiaryEntry{}, err
	}
	return ws.Manager.FetchEntry(ctx, date)
}

// Save writes one entry immediately, bypassing the debounce
func (r *Registry) Save(ctx context.Context, owner domain.Owner, date domain.DateKey, content string) error {
	ws, err := r.Open(ctx, owner)
	if err != nil {
		return err
	}
	return ws.Manager.SaveEntry(ctx, date, content)
}

// Collection resolves the tag collection of owner
func (r *Registry) Collection(ctx context.Context, owner domain.Owner, tag string) ([]domain.CollectionItem, error) {
	ws, err := r.Open(ctx, owner)
	if err != nil {
		return nil, err
	}
	return ws.Manager.ResolveTagCollection(ctx, tag)
}

// Tags lists the catalog buckets of owner
func (r *Registry) Tags(ctx context.Context, owner domain.Owner) ([]domain.TagSummary, error) {
	ws, err := r.Open(ctx, owner)
	if err != nil {
		return nil, err
	}
	return ws.Manager.Catalog().Tags(), nil
}

// ImportEntries saves entries through the owner's manager so its cache and
// catalog stay coherent. It stops at the first store failure.
func (r *Registry) ImportEntries(ctx context.Context, owner domain.Owner, entries []domain.DiaryEntry) (int, error) {
	ws, err := r.Open(ctx, owner)
	if err != nil {
		return 0, err
	}

	saved := 0
	for _, e := range entries {
		if err := ws.Manager.SaveEntry(ctx, e.Date, e.Content); err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}

// Export returns every stored entry of owner, oldest first
func (r *Registry) Export(ctx context.Context, owner domain.Owner) ([]domain.DiaryEntry, error) {
	ws, err := r.Open(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := ws.Session.Flush(ctx); err != nil {
		return nil, err
	}

	dates, err := r.store.Dates(ctx, owner)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.DiaryEntry, 0, len(dates))
	for _, date := range dates {
		entry, err := ws.Manager.FetchEntry(ctx, date)
		if err != nil {
			return nil, err
		}
		if entry.Exists {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Owners lists owners with an open workspace, sorted
func (r *Registry) Owners() []domain.Owner {
	r.mu.Lock()
	defer r.mu.Unlock()

	owners := make([]domain.Owner, 0, len(r.byOwner))
	for owner := range r.byOwner {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	return owners
}

func (r *Registry) get(owner domain.Owner) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.byOwner[owner]
	return ws, ok
}

// Len returns the number of open workspaces
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.byOwner)
}

// SyncAll re-syncs the catalog of every open workspace and returns the
// number of dates visited.
func (r *Registry) SyncAll(ctx context.Context) (int, error) {
	var errs []error
	total := 0
	for _, owner := range r.Owners() {
		ws, ok := r.get(owner)
		if !ok {
			continue
		}
		n, err := ws.Manager.SyncCatalog(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", owner, err))
			continue
		}
		total += n
	}
	return total, errors.Join(errs...)
}

// Evict flushes and drops the workspace of owner. A failed flush keeps it.
// Operations racing the eviction see ErrSessionClosed and reopen; the new
// workspace resumes on the evicted session's date.
func (r *Registry) Evict(ctx context.Context, owner domain.Owner) error {
	ws, ok := r.get(owner)
	if !ok {
		return nil
	}
	if err := ws.Session.Close(ctx); err != nil {
		return fmt.Errorf("evict %s: %w", owner, err)
	}

	r.mu.Lock()
	if r.byOwner[owner] == ws {
		r.lastDate[owner] = ws.Session.Date()
		delete(r.byOwner, owner)
	}
	r.mu.Unlock()

	r.logger.Info("workspace evicted", logger.String("owner", owner.String()))
	return nil
}

// EvictIdle evicts workspaces whose session was last active before cutoff
func (r *Registry) EvictIdle(ctx context.Context, cutoff time.Time) (int, error) {
	var errs []error
	evicted := 0
	for _, owner := range r.Owners() {
		ws, ok := r.get(owner)
		if !ok || !ws.Session.LastActive().Before(cutoff) {
			continue
		}
		if err := r.Evict(ctx, owner); err != nil {
			errs = append(errs, err)
			continue
		}
		evicted++
	}
	return evicted, errors.Join(errs...)
}

// CloseAll flushes every session and empties the registry
func (r *Registry) CloseAll(ctx context.Context) error {
	var errs []error
	for _, owner := range r.Owners() {
		if err := r.Evict(ctx, owner); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats aggregates the open workspaces
type Stats struct {
	Workspaces      int       `json:"workspaces"`
	PendingSessions int       `json:"pending_sessions"`
	CachedEntries   int       `json:"cached_entries"`
	Tags            int       `json:"tags"`
	TaggedDates     int       `json:"tagged_dates"`
	LastRebuild     time.Time `json:"last_rebuild"`
}

// Stats returns a snapshot over every open workspace
func (r *Registry) Stats() Stats {
	var st Stats
	for _, owner := range r.Owners() {
		ws, ok := r.get(owner)
		if !ok {
			continue
		}
		st.Workspaces++
		if !ws.Session.Saved() {
			st.PendingSessions++
		}
		catalog := ws.Manager.Catalog()
		st.CachedEntries += ws.Manager.CacheSize()
		st.Tags += catalog.Count()
		st.TaggedDates += catalog.DateCount()
		if last := catalog.GetLastRebuild(); last.After(st.LastRebuild) {
			st.LastRebuild = last
		}
	}
	return st
}
