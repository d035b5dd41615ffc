package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vanderheijden86/strata/pkg/debug"
	"github.com/vanderheijden86/strata/pkg/watcher"
)

// DefaultSaveDelay is how long the Saver waits for changes to settle.
const DefaultSaveDelay = 500 * time.Millisecond

// Saver batches writes to a Store. Each Schedule restarts the delay; when
// it expires every pending view is written once. Failures are logged and
// counted, never returned to the scheduling caller.
type Saver struct {
	store     *Store
	debouncer *watcher.Debouncer

	mu      sync.Mutex
	pending map[string]State
	closed  bool

	writes   atomic.Int64
	failures atomic.Int64
	lastErr  atomic.Pointer[error]
}

// NewSaver returns a Saver for st. A nil store is allowed; nothing is
// written.
func NewSaver(st *Store, delay time.Duration) *Saver {
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	return &Saver{
		store:     st,
		debouncer: watcher.NewDebouncer(delay),
		pending:   make(map[string]State),
	}
}

// Schedule queues st. Sections set in st replace the same sections queued
// earlier for the view.
func (s *Saver) Schedule(st State) {
	if s == nil || s.store == nil || st.ViewID == "" {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	cur := s.pending[st.ViewID]
	cur.ViewID = st.ViewID
	if st.Layout != nil {
		cur.Layout = st.Layout
	}
	if st.View != nil {
		cur.View = st.View
	}
	if st.Prefs != nil {
		cur.Prefs = st.Prefs
	}
	s.pending[st.ViewID] = cur
	s.mu.Unlock()

	s.debouncer.Trigger(func() {
		_ = s.Flush(context.Background())
	})
}

// Pending returns the number of views waiting to be written.
func (s *Saver) Pending() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush writes everything pending now.
func (s *Saver) Flush(ctx context.Context) error {
	if s == nil || s.store == nil {
		return nil
	}
	s.mu.Lock()
	batch := s.pending
	s.pending = make(map[string]State)
	s.mu.Unlock()

	var errs []error
	for _, st := range batch {
		if err := s.store.Save(ctx, st); err != nil {
			s.failures.Add(1)
			s.lastErr.Store(&err)
			debug.Log("store: saving %s failed: %v", st.ViewID, err)
			errs = append(errs, err)
			continue
		}
		s.writes.Add(1)
	}
	return errors.Join(errs...)
}

// Close cancels the pending delay and flushes. Later Schedules are ignored.
func (s *Saver) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.debouncer.Cancel()
	return s.Flush(context.Background())
}

// Writes returns the number of successful view writes.
func (s *Saver) Writes() int64 {
	if s == nil {
		return 0
	}
	return s.writes.Load()
}

// Failures returns the number of failed view writes.
func (s *Saver) Failures() int64 {
	if s == nil {
		return 0
	}
	return s.failures.Load()
}

// LastError returns the most recent write failure.
func (s *Saver) LastError() error {
	if s == nil {
		return nil
	}
	if p := s.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}
