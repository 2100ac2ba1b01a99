// Package postlint checks a corpus of Jekyll-style Markdown posts: front
// matter must parse with a layout and a title, tags must be a list of
// strings and every post needs a body.
package postlint

import (
	"context"

	"github.com/goliatone/go-postlint/internal/di"
	"github.com/goliatone/go-postlint/internal/ledger"
	"github.com/goliatone/go-postlint/internal/watch"
	"github.com/goliatone/go-postlint/pkg/interfaces"
)

type (
	Post        = interfaces.Post
	FrontMatter = interfaces.FrontMatter
	Issue       = interfaces.Issue
	Severity    = interfaces.Severity
	FileResult  = interfaces.FileResult
	Report      = interfaces.Report
	TagCount    = interfaces.TagCount
	LintOptions = interfaces.LintOptions
	LoadOptions = interfaces.LoadOptions

	// WatchBatch is one debounced round of watcher results.
	WatchBatch = watch.Batch
	// WatchHandler receives each WatchBatch.
	WatchHandler = watch.Handler
)

// Module is the wired postlint runtime.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Linter returns the lint service.
func (m *Module) Linter() interfaces.Linter {
	return m.container.Linter()
}

// Ledger returns the run history store.
func (m *Module) Ledger() ledger.Repository {
	return m.container.Ledger()
}

// Root is the absolute content directory posts are loaded from.
func (m *Module) Root() string {
	return m.container.Root()
}

// Lint checks every post under the content directory.
func (m *Module) Lint(ctx context.Context, opts LintOptions) (*Report, error) {
	return m.container.Linter().LintDirectory(ctx, m.container.Root(), opts)
}

// Tags aggregates tags across the content directory.
func (m *Module) Tags(ctx context.Context, opts LoadOptions) ([]TagCount, error) {
	return m.container.Linter().TagIndex(ctx, m.container.Root(), opts)
}

// Watch re-lints posts as they change until ctx is cancelled.
func (m *Module) Watch(ctx context.Context, handler WatchHandler) error {
	w, err := m.container.Watcher(handler)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// Close releases resources held by the module.
func (m *Module) Close() error {
	return m.container.Close()
}
