package auth

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// Watcher reloads the users file when it changes on disk. It watches
// the file's directory so editors that replace the file by rename are
// still observed, and debounces bursts of events into one reload.
type Watcher struct {
	path   string
	reload func() error

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// timerMu guards the debounce timer separately so the event loop
	// never contends with Stop waiting on it.
	timerMu sync.Mutex
	timer   *time.Timer
}

// NewWatcher creates a watcher that calls reload after path changes.
func NewWatcher(path string, reload func() error) *Watcher {
	return &Watcher{
		path:   path,
		reload: reload,
	}
}

// Start launches the watch loop. It is idempotent: a second call while
// the loop is running does nothing. The loop stops when ctx is cancelled
// or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		slog.Warn("users file watcher already running", "path", w.path)
		return nil
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	if err := notifier.Add(filepath.Dir(w.path)); err != nil {
		notifier.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true

	go w.run(runCtx, notifier)

	slog.Info("users file watcher started", "path", w.path)
	return nil
}

// Stop cancels the watch loop and waits for it to exit. Safe to call
// when the watcher was never started.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.cancel()
	<-w.done
	w.running = false

	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.timerMu.Unlock()

	slog.Info("users file watcher stopped")
}

func (w *Watcher) run(ctx context.Context, notifier *fsnotify.Watcher) {
	defer close(w.done)
	defer notifier.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-notifier.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			slog.Debug("users file event", "path", event.Name, "op", event.Op.String())
			w.scheduleReload()

		case err, ok := <-notifier.Errors:
			if !ok {
				return
			}
			slog.Error("users file watcher error", "error", err)
		}
	}
}

// relevant reports whether the event concerns the users file itself.
// Chmod-only events carry no content change and are skipped.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != filepath.Base(w.path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// scheduleReload arms the debounce timer, replacing any pending one.
func (w *Watcher) scheduleReload() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(watchDebounce, func() {
		w.mu.Lock()
		running := w.running
		w.mu.Unlock()
		if !running {
			return
		}

		slog.Info("reloading users file", "path", w.path)
		if err := w.reload(); err != nil {
			slog.Error("users file reload failed", "path", w.path, "error", err)
		}
	})
}
