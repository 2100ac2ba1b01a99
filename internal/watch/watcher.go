// Package watch re-lints posts as they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-postlint/internal/ledger"
	"github.com/goliatone/go-postlint/internal/logging"
	"github.com/goliatone/go-postlint/pkg/interfaces"
)

// DefaultDebounce is how long the watcher waits for a burst of writes to settle.
const DefaultDebounce = 150 * time.Millisecond

// Filter decides which paths the watcher cares about. Paths are relative to the root.
type Filter interface {
	Matches(name string) bool
	Excluded(name string) bool
}

// Batch is the outcome of one debounced round of changes.
type Batch struct {
	Results []interfaces.FileResult
	Removed []string
	// Failed maps paths to errors that prevented linting them.
	Failed map[string]error
}

// Handler receives each batch.
type Handler func(ctx context.Context, batch Batch)

// Watcher observes a content root and re-lints changed posts.
type Watcher struct {
	root     string
	linter   interfaces.Linter
	filter   Filter
	handler  Handler
	ledger   ledger.Repository
	logger   interfaces.Logger
	debounce time.Duration

	fsw  *fsnotify.Watcher
	done chan struct{}
	err  error
	once sync.Once
}

// Option customises a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the watcher logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithLedger drops ledger records of deleted posts.
func WithLedger(repo ledger.Repository) Option {
	return func(w *Watcher) {
		w.ledger = repo
	}
}

// New builds a watcher over root. handler may be nil.
func New(root string, linter interfaces.Linter, filter Filter, handler Handler, opts ...Option) (*Watcher, error) {
	if linter == nil {
		return nil, errors.New("watch: linter required")
	}
	if filter == nil {
		return nil, errors.New("watch: filter required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", root, err)
	}
	w := &Watcher{
		root:     abs,
		linter:   linter,
		filter:   filter,
		handler:  handler,
		logger:   logging.NoOp(),
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run starts watching and blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	return w.Wait()
}

// Start registers every directory under the root and begins processing
// events in the background. It returns once the watches are in place.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	w.fsw = fsw
	if err := w.addTree(w.root); err != nil {
		_ = fsw.Close()
		return err
	}
	w.logger.Info("watch.start", "root", w.root, "debounce", w.debounce.String())
	go w.loop(ctx)
	return nil
}

// Wait blocks until the event loop exits.
func (w *Watcher) Wait() error {
	<-w.done
	return w.err
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(current string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if current != w.root && w.filter.Excluded(w.relative(current)) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(current); err != nil {
			return fmt.Errorf("watch: add %s: %w", current, err)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.once.Do(func() { close(w.done) })
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := map[string]struct{}{}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Info("watch.stop")
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if rel, relevant := w.track(event); relevant {
				pending[rel] = struct{}{}
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch.error", "error", err)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for rel := range pending {
				paths = append(paths, rel)
			}
			pending = map[string]struct{}{}
			sort.Strings(paths)
			w.flush(ctx, paths)
		}
	}
}

// track registers new directories and reports whether the event concerns a post.
func (w *Watcher) track(event fsnotify.Event) (string, bool) {
	rel := w.relative(event.Name)
	if rel == "" || w.filter.Excluded(rel) {
		return "", false
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("watch.add_failed", "path", rel, "error", err)
			}
			return "", false
		}
	}
	if event.Op == fsnotify.Chmod {
		return "", false
	}
	return rel, w.filter.Matches(rel)
}

func (w *Watcher) flush(ctx context.Context, paths []string) {
	batch := Batch{Failed: map[string]error{}}
	for _, rel := range paths {
		if _, err := os.Stat(filepath.Join(w.root, filepath.FromSlash(rel))); errors.Is(err, fs.ErrNotExist) {
			batch.Removed = append(batch.Removed, rel)
			w.forget(ctx, rel)
			continue
		}
		result, err := w.linter.LintFile(ctx, rel)
		if err != nil {
			batch.Failed[rel] = err
			logging.WithPostContext(w.logger, rel, "", "").Warn("watch.lint_failed", "error", err)
			continue
		}
		batch.Results = append(batch.Results, *result)
	}
	w.logger.Debug("watch.batch", "linted", len(batch.Results), "removed", len(batch.Removed), "failed", len(batch.Failed))
	if w.handler != nil {
		w.handler(ctx, batch)
	}
}

func (w *Watcher) forget(ctx context.Context, rel string) {
	if w.ledger == nil {
		return
	}
	if err := w.ledger.Delete(ctx, rel); err != nil && !errors.Is(err, ledger.ErrRecordNotFound) {
		logging.WithPostContext(w.logger, rel, "", "").Warn("watch.ledger_delete_failed", "error", err)
	}
}

func (w *Watcher) relative(name string) string {
	rel, err := filepath.Rel(w.root, name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return ""
	}
	return filepath.ToSlash(rel)
}
