// Package watch reports documents dropped into a directory once their
// writes settle.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultSettle is how long a file must stay unmodified before it is reported
const DefaultSettle = 500 * time.Millisecond

// Watcher watches one directory, non-recursively
type Watcher struct {
	fw     *fsnotify.Watcher
	dir    string
	settle time.Duration
	accept func(name string) bool
	logger *logrus.Entry

	mu      sync.Mutex
	pending map[string]*settleTimer
}

// settleTimer is the pending report for one path. The map entry is the
// source of truth: a callback whose entry was replaced does nothing.
type settleTimer struct {
	timer *time.Timer
}

// New watches dir. accept filters file names; nil accepts everything.
func New(dir string, settle time.Duration, accept func(name string) bool, logger *logrus.Entry) (*Watcher, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	if accept == nil {
		accept = func(string) bool { return true }
	}
	if logger == nil {
		logger = logrus.WithField("component", "watcher")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(absDir); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		fw:      fw,
		dir:     absDir,
		settle:  settle,
		accept:  accept,
		logger:  logger,
		pending: make(map[string]*settleTimer),
	}, nil
}

// Run delivers settled file paths to onFile until ctx is done.
// onFile runs on its own goroutine per file.
func (w *Watcher) Run(ctx context.Context, onFile func(path string)) error {
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if shouldIgnore(event.Name) || !w.accept(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name, onFile)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("watch error")
		}
	}
}

// schedule (re)starts the settle timer for path
func (w *Watcher) schedule(ctx context.Context, path string, onFile func(string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scheduleLocked(ctx, path, onFile)
}

func (w *Watcher) scheduleLocked(ctx context.Context, path string, onFile func(string)) {
	// Stop fails once the timer has fired; its callback may still be
	// waiting for w.mu, so a fresh entry replaces it instead of a Reset.
	if p, ok := w.pending[path]; ok && p.timer.Stop() {
		p.timer.Reset(w.settle)
		return
	}

	p := &settleTimer{}
	p.timer = time.AfterFunc(w.settle, func() { w.fire(ctx, path, p, onFile) })
	w.pending[path] = p
}

func (w *Watcher) fire(ctx context.Context, path string, p *settleTimer, onFile func(string)) {
	w.mu.Lock()
	if w.pending[path] != p {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}
	onFile(path)
}

func (w *Watcher) stop() {
	w.mu.Lock()
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.fw.Close()
}

// shouldIgnore skips hidden files and editor swap files
func shouldIgnore(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") ||
		strings.HasSuffix(name, ".tmp")
}
