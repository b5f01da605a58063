package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/daylog/internal/domain"
	"github.com/MrSnakeDoc/daylog/internal/logger"
)

// ErrSessionClosed is returned by edits and switches on a closed session
var ErrSessionClosed = domain.ErrSessionClosed

// SessionState is the autosave state of an editing session
type SessionState int

const (
	StateIdle SessionState = iota
	StatePending
	StateSaving
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSaving:
		return "saving"
	default:
		return "unknown"
	}
}

// Saver persists the content of one date
type Saver interface {
	SaveEntry(ctx context.Context, date domain.DateKey, content string) error
}

// SessionStatus is a snapshot published on every state transition.
// Version grows with every transition of the session.
type SessionStatus struct {
	SessionID string
	Version   uint64
	Date      domain.DateKey
	State     SessionState
	Saved     bool
	Err       error
}

// StatusFunc receives status snapshots in Version order; a snapshot older
// than one already delivered is dropped. It runs outside the session lock.
type StatusFunc func(SessionStatus)

// Session debounces the edits of one editing surface into saves.
//
// Idle -> Pending on edit, Pending -> Saving when the cooldown expires,
// Saving -> Idle on success. A failed save goes back to Pending and re-arms
// the timer. At most one save is in flight per session.
type Session struct {
	id       string
	saver    Saver
	cooldown time.Duration
	logger   logger.Logger
	notify   StatusFunc

	notifyMu sync.Mutex
	notified uint64 // Version of the last delivered snapshot

	mu         sync.Mutex
	state      SessionState
	date       domain.DateKey
	content    string
	version    uint64 // bumped on every transition
	seq        uint64 // bumped on every edit
	savedSeq   uint64 // seq covered by the last successful save
	timer      *time.Timer
	timerGen   uint64
	inflight   chan struct{} // closed when the running save returns
	lastErr    error
	lastActive time.Time
	closed     bool
}

// NewSession starts an Idle session on date
func NewSession(saver Saver, date domain.DateKey, cooldown time.Duration, log logger.Logger, notify StatusFunc) *Session {
	if notify == nil {
		notify = func(SessionStatus) {}
	}
	return &Session{
		id:         uuid.NewString(),
		saver:      saver,
		cooldown:   cooldown,
		logger:     log,
		notify:     notify,
		date:       date,
		lastActive: time.Now(),
	}
}

func (s *Session) ID() string { return s.id }

// Date returns the date edits currently apply to
func (s *Session) Date() domain.DateKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Saved reports whether every edit has reached the store
func (s *Session) Saved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.savedLocked()
}

// LastActive is the time of the last edit, flush or switch
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Status returns the current snapshot
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) savedLocked() bool {
	return s.seq == s.savedSeq && s.inflight == nil
}

// transitionLocked stamps a new Version and returns the snapshot to emit
func (s *Session) transitionLocked() SessionStatus {
	s.version++
	return s.statusLocked()
}

func (s *Session) statusLocked() SessionStatus {
	return SessionStatus{
		SessionID: s.id,
		Version:   s.version,
		Date:      s.date,
		State:     s.state,
		Saved:     s.savedLocked(),
		Err:       s.lastErr,
	}
}

func (s *Session) emit(st SessionStatus) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if st.Version <= s.notified {
		return
	}
	s.notified = st.Version
	s.notify(st)
}

// Closed reports whether Close succeeded
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Edit records the full current text of date. Only the latest text is
// saved once the cooldown passes without another edit.
func (s *Session) Edit(date domain.DateKey, content string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if date != s.date {
		s.mu.Unlock()
		return domain.ErrSessionDate
	}

	s.content = content
	s.seq++
	s.lastActive = time.Now()
	// during Saving the edit waits; finishSave starts a fresh Pending cycle
	if s.state != StateSaving {
		s.state = StatePending
		s.armLocked()
	}
	st := s.transitionLocked()
	s.mu.Unlock()

	s.emit(st)
	return nil
}

func (s *Session) armLocked() {
	s.stopTimerLocked()
	gen := s.timerGen
	s.timer = time.AfterFunc(s.cooldown, func() { s.fire(gen) })
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

func (s *Session) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.timerGen || s.state != StatePending || s.inflight != nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	date, content, seq, st := s.beginSaveLocked()
	s.mu.Unlock()

	s.emit(st)
	err := s.saver.SaveEntry(context.Background(), date, content)
	s.finishSave(seq, err)
}

func (s *Session) beginSaveLocked() (domain.DateKey, string, uint64, SessionStatus) {
	s.state = StateSaving
	s.inflight = make(chan struct{})
	return s.date, s.content, s.seq, s.transitionLocked()
}

func (s *Session) finishSave(seq uint64, err error) {
	s.mu.Lock()
	close(s.inflight)
	s.inflight = nil

	if err != nil {
		s.lastErr = err
		s.logger.Warn("autosave failed, will retry",
			logger.String("session_id", s.id),
			logger.String("date", s.date.String()),
			logger.Error(err))
	} else {
		s.lastErr = nil
		if seq > s.savedSeq {
			s.savedSeq = seq
		}
	}

	switch {
	case s.closed && err == nil:
		s.state = StateIdle
	case s.seq != s.savedSeq:
		s.state = StatePending
		if !s.closed {
			s.armLocked()
		}
	default:
		s.state = StateIdle
	}
	st := s.transitionLocked()
	s.mu.Unlock()

	s.emit(st)
}

// Flush saves pending edits right away, cancelling the timer. It waits
// for a save already in flight instead of issuing a second one, and is a
// no-op when nothing changed since the last save.
func (s *Session) Flush(ctx context.Context) error {
	for {
		s.mu.Lock()
		if ch := s.inflight; ch != nil {
			s.mu.Unlock()
			select {
			case <-ch:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		s.lastActive = time.Now()
		if s.seq == s.savedSeq {
			if s.state == StatePending {
				s.stopTimerLocked()
				s.state = StateIdle
			}
			s.mu.Unlock()
			return nil
		}

		s.stopTimerLocked()
		date, content, seq, st := s.beginSaveLocked()
		s.mu.Unlock()

		s.emit(st)
		err := s.saver.SaveEntry(ctx, date, content)
		s.finishSave(seq, err)
		if err != nil {
			return err
		}
	}
}

// Switch flushes the current date then moves the session to date. It
// returns only once the store acknowledged every edit of the old date;
// on failure the session stays on the old date. A closed session refuses
// with ErrSessionClosed.
func (s *Session) Switch(ctx context.Context, date domain.DateKey) error {
	for {
		if err := s.Flush(ctx); err != nil {
			return err
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return ErrSessionClosed
		}
		if !s.savedLocked() {
			// an edit slipped in after the flush
			s.mu.Unlock()
			continue
		}
		s.date = date
		s.content = ""
		s.state = StateIdle
		s.lastErr = nil
		s.lastActive = time.Now()
		st := s.transitionLocked()
		s.mu.Unlock()

		s.emit(st)
		return nil
	}
}

// Close flushes and stops the session. Later edits fail with
// ErrSessionClosed. If the flush fails the session stays open.
func (s *Session) Close(ctx context.Context) error {
	for {
		if err := s.Flush(ctx); err != nil {
			return err
		}

		s.mu.Lock()
		if !s.savedLocked() {
			s.mu.Unlock()
			continue
		}
		s.closed = true
		s.stopTimerLocked()
		s.mu.Unlock()
		return nil
	}
}
