package lintcmd

import (
	"errors"

	"github.com/goliatone/go-postlint/internal/commands"
	"github.com/goliatone/go-postlint/internal/logging"
	"github.com/goliatone/go-postlint/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the handlers produced by Register.
type HandlerSet struct {
	Directory *LintDirectoryHandler
	Files     *LintFilesHandler
	Tags      *TagIndexHandler
}

// Sinks are the outputs the handlers write to.
type Sinks struct {
	Reports ReportSink
	Tags    TagSink
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	directoryOpts []commands.HandlerOption[LintDirectoryCommand]
	filesOpts     []commands.HandlerOption[LintFilesCommand]
	tagOpts       []commands.HandlerOption[TagIndexCommand]
}

// WithDirectoryHandlerOptions forwards options to the directory handler.
func WithDirectoryHandlerOptions(opts ...commands.HandlerOption[LintDirectoryCommand]) Option {
	return func(cfg *options) {
		cfg.directoryOpts = append(cfg.directoryOpts, opts...)
	}
}

// WithFilesHandlerOptions forwards options to the files handler.
func WithFilesHandlerOptions(opts ...commands.HandlerOption[LintFilesCommand]) Option {
	return func(cfg *options) {
		cfg.filesOpts = append(cfg.filesOpts, opts...)
	}
}

// WithTagHandlerOptions forwards options to the tag index handler.
func WithTagHandlerOptions(opts ...commands.HandlerOption[TagIndexCommand]) Option {
	return func(cfg *options) {
		cfg.tagOpts = append(cfg.tagOpts, opts...)
	}
}

// Register builds the lint handlers and registers them with reg when it is not nil.
func Register(reg CommandRegistry, linter interfaces.Linter, sinks Sinks, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if linter == nil {
		return nil, errors.New("lint command registration: linter is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := logging.CommandLogger(provider, "lint")
	set := &HandlerSet{
		Directory: NewLintDirectoryHandler(linter, sinks.Reports, logger, cfg.directoryOpts...),
		Files:     NewLintFilesHandler(linter, sinks.Reports, logger, cfg.filesOpts...),
		Tags:      NewTagIndexHandler(linter, sinks.Tags, logger, cfg.tagOpts...),
	}

	if reg != nil {
		for _, handler := range []any{set.Directory, set.Files, set.Tags} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}
