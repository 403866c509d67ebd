package config

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/gyaneshwarpardhi/gridcmd/internal/metrics"
)

// Loader reads the command document from a file into a Store and watches it
// for changes.
type Loader struct {
	path     string
	store    *Store
	mu       sync.Mutex
	onChange []func()
}

// NewLoader creates a Loader and performs the initial load. An unreadable
// file or an invalid document is an error at startup; on later reloads an
// invalid document is skipped and the current one stays live.
func NewLoader(path string, store *Store) (*Loader, error) {
	l := &Loader{path: path, store: store}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

// OnChange registers a callback invoked whenever the document reloads.
func (l *Loader) OnChange(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the document on file
// changes. Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("document watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("document watcher add %s: %w", l.path, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if err := l.Reload(); err != nil {
						slog.Warn("document reload failed, keeping current", "err", err)
					}
				}
			case <-w.Errors:
				// Ignore watcher errors.
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the document file.
func (l *Loader) Reload() error {
	if err := l.load(); err != nil {
		return err
	}
	l.mu.Lock()
	callbacks := make([]func(), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
	return nil
}

func (l *Loader) load() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("read document %s: %w", l.path, err)
	}
	// Replace rejects invalid bytes without touching the live document, so
	// a partially written file seen mid-reload cannot wipe the
	// configuration.
	if err := l.store.Replace(data); err != nil {
		return fmt.Errorf("document %s: %w", l.path, err)
	}
	metrics.ConfigReloads.Inc()
	return nil
}
