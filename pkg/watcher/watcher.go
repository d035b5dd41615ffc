// Package watcher notices when a dataset file changes so the session can
// reload it. It watches the parent directory with fsnotify and falls back to
// polling on remote filesystems or when STRATA_FORCE_POLL is set.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/strata/pkg/debug"
)

// DefaultPollInterval is the default polling interval for fallback mode.
const DefaultPollInterval = 2 * time.Second

// EnvForcePoll forces polling mode when set to a true value.
const EnvForcePoll = "STRATA_FORCE_POLL"

// Common errors.
var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// Op says what an Event reports.
type Op int

const (
	OpChanged Op = iota
	OpRemoved
	OpError
)

func (o Op) String() string {
	switch o {
	case OpChanged:
		return "changed"
	case OpRemoved:
		return "removed"
	default:
		return "error"
	}
}

// Event is delivered on Events after the debounce period.
type Event struct {
	Path string
	Op   Op
	Err  error
	At   time.Time
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDuration = d
	}
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.pollInterval = d
	}
}

// WithOnChange sets a callback invoked, after debouncing, when the file
// changes. It runs before the event is queued.
func WithOnChange(fn func()) WatcherOption {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets a callback invoked on errors, including removal.
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) WatcherOption {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

// Watcher monitors one dataset file. For SQLite databases the write-ahead
// log next to it counts as the file too.
type Watcher struct {
	path             string
	names            map[string]bool
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func()
	onError          func(error)
	forcePoll        bool
	fsType           FilesystemType

	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	polling   bool
	lastMtime time.Time
	lastSize  int64

	cancel  context.CancelFunc
	started bool
	mu      sync.RWMutex
	events  chan Event
}

// NewWatcher creates a watcher for the file at path. It does not start
// watching until Start.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(absPath)
	w := &Watcher{
		path:             absPath,
		names:            map[string]bool{base: true, base + "-wal": true},
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func() {},
		onError:          func(error) {},
		events:           make(chan Event, 4),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.pollInterval <= 0 {
		w.pollInterval = DefaultPollInterval
	}
	w.debouncer = NewDebouncer(w.debounceDuration)
	return w, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	info, err := os.Stat(w.path)
	switch {
	case err == nil:
		w.lastMtime, w.lastSize = info.ModTime(), info.Size()
	case os.IsPermission(err):
		return ErrPermission
	default:
		// Not created yet; the first write is a change.
		w.lastMtime, w.lastSize = time.Time{}, 0
	}

	w.fsType = detectFilesystemTypeFunc(w.path)
	w.polling = w.forcePoll || envBool(EnvForcePoll) || isRemoteFilesystem(w.fsType)

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	if !w.polling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			// The directory, not the file, so atomic renames are seen.
			err = fsw.Add(filepath.Dir(w.path))
			if err != nil {
				fsw.Close()
			}
		}
		if err != nil {
			debug.Log("watcher: fsnotify unavailable for %s: %v", w.path, err)
			w.polling = true
		} else {
			w.fsWatcher = fsw
			go w.watchFsnotify(ctx, fsw)
		}
	}
	if w.polling {
		go w.watchPolling(ctx)
	}

	debug.Log("watcher: %s on %s filesystem, polling=%v", w.path, w.fsType, w.polling)
	w.started = true
	return nil
}

// Stop stops watching. Events is left open so a goroutine blocked on it
// stays blocked rather than seeing a zero Event.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}
	if w.cancel != nil {
		w.cancel()
	}
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// IsPolling returns true if the watcher is using polling mode.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// IsStarted returns true if the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Events delivers debounced changes and errors. Events are dropped rather
// than queued when the reader falls behind; one pending change is enough to
// trigger a reload.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Path returns the watched file path.
func (w *Watcher) Path() string {
	return w.path
}

// FilesystemType returns the classification made by Start.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fsType
}

// PollInterval returns the polling interval used when polling mode is active.
func (w *Watcher) PollInterval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pollInterval
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func (w *Watcher) watchFsnotify(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if !w.names[name] {
				continue
			}
			switch {
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && name == filepath.Base(w.path):
				// An atomic save moves the old file away and a new one in;
				// only report removal if it is still gone once things settle.
				w.debouncer.Trigger(w.checkRemoved)
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				w.debouncer.Trigger(w.notifyChange)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.notifyError(err)
		}
	}
}

func (w *Watcher) watchPolling(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			info, err := os.Stat(w.path)
			if err != nil {
				switch {
				case os.IsNotExist(err):
					w.mu.Lock()
					hadFile := !w.lastMtime.IsZero()
					w.lastMtime, w.lastSize = time.Time{}, 0
					w.mu.Unlock()
					if hadFile {
						w.notifyError(ErrFileRemoved)
					}
				case os.IsPermission(err):
					w.notifyError(ErrPermission)
				default:
					w.notifyError(err)
				}
				continue
			}

			mtime, size := info.ModTime(), info.Size()
			if wal, err := os.Stat(w.path + "-wal"); err == nil {
				if wal.ModTime().After(mtime) {
					mtime = wal.ModTime()
				}
				size += wal.Size()
			}

			w.mu.Lock()
			changed := mtime.After(w.lastMtime) || size != w.lastSize
			if changed {
				w.lastMtime, w.lastSize = mtime, size
			}
			w.mu.Unlock()

			if changed {
				w.debouncer.Trigger(w.notifyChange)
			}
		}
	}
}

func (w *Watcher) checkRemoved() {
	if _, err := os.Stat(w.path); os.IsNotExist(err) {
		w.notifyError(ErrFileRemoved)
		return
	}
	w.notifyChange()
}

func (w *Watcher) notifyChange() {
	if !w.IsStarted() {
		return
	}
	w.onChange()
	w.emit(Event{Path: w.path, Op: OpChanged, At: time.Now()})
}

func (w *Watcher) notifyError(err error) {
	if !w.IsStarted() {
		return
	}
	w.onError(err)
	op := OpError
	if errors.Is(err, ErrFileRemoved) {
		op = OpRemoved
	}
	w.emit(Event{Path: w.path, Op: op, Err: err, At: time.Now()})
}

func (w *Watcher) emit(ev Event) {
	select {
	case w.events <- ev:
	default:
		debug.Log("watcher: dropped %s event for %s", ev.Op, ev.Path)
	}
}
