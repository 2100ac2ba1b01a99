package lintcmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	command "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-postlint/internal/commands"
	"github.com/goliatone/go-postlint/internal/logging"
	"github.com/goliatone/go-postlint/pkg/interfaces"
)

const (
	lintDirectoryOperation = "lint.directory"
	lintFilesOperation     = "lint.files"
	tagIndexOperation      = "tags.index"

	lintFailedCode = "LINT_FAILED"
)

// ErrLintFailed is returned when a run finds issues at or above the fail threshold.
var ErrLintFailed = errors.New("lint command: issues found")

var (
	_ command.Commander[LintDirectoryCommand] = (*LintDirectoryHandler)(nil)
	_ command.Commander[LintFilesCommand]     = (*LintFilesHandler)(nil)
	_ command.Commander[TagIndexCommand]      = (*TagIndexHandler)(nil)
)

// ReportSink receives finished lint reports.
type ReportSink interface {
	WriteReport(ctx context.Context, report *interfaces.Report) error
}

// TagSink receives tag index results.
type TagSink interface {
	WriteTags(ctx context.Context, tags []interfaces.TagCount) error
}

// IsLintFailed reports whether err came from a failed lint run.
func IsLintFailed(err error) bool {
	return errors.Is(err, ErrLintFailed)
}

// LintDirectoryHandler lints a directory and hands the report to a sink.
type LintDirectoryHandler struct {
	inner *commands.Handler[LintDirectoryCommand]
}

// NewLintDirectoryHandler binds the handler to a linter and report sink.
func NewLintDirectoryHandler(linter interfaces.Linter, sink ReportSink, logger interfaces.Logger, opts ...commands.HandlerOption[LintDirectoryCommand]) *LintDirectoryHandler {
	if logger == nil {
		logger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg LintDirectoryCommand) error {
		report, err := linter.LintDirectory(ctx, msg.Directory, interfaces.LintOptions{
			LoadOptions: interfaces.LoadOptions{
				Recursive: msg.Recursive,
				Pattern:   msg.Pattern,
				Exclude:   msg.Exclude,
			},
			ChangedOnly: msg.ChangedOnly,
		})
		if err != nil {
			return err
		}
		return finishRun(ctx, logger, sink, report, failThreshold(msg.FailOn))
	}

	handlerOpts := []commands.HandlerOption[LintDirectoryCommand]{
		commands.WithLogger[LintDirectoryCommand](logger),
		commands.WithOperation[LintDirectoryCommand](lintDirectoryOperation),
		commands.WithMessageFields(func(msg LintDirectoryCommand) map[string]any {
			fields := map[string]any{"directory": msg.Directory}
			if msg.ChangedOnly {
				fields["changed_only"] = true
			}
			if msg.Pattern != "" {
				fields["pattern"] = msg.Pattern
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[LintDirectoryCommand](logger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &LintDirectoryHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[LintDirectoryCommand].
func (h *LintDirectoryHandler) Execute(ctx context.Context, msg LintDirectoryCommand) error {
	return h.inner.Execute(ctx, msg)
}

// LintFilesHandler lints explicit files and reports them as one run.
type LintFilesHandler struct {
	inner *commands.Handler[LintFilesCommand]
}

// NewLintFilesHandler binds the handler to a linter and report sink.
func NewLintFilesHandler(linter interfaces.Linter, sink ReportSink, logger interfaces.Logger, opts ...commands.HandlerOption[LintFilesCommand]) *LintFilesHandler {
	if logger == nil {
		logger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg LintFilesCommand) error {
		report := &interfaces.Report{
			RunID:     uuid.New(),
			Root:      ".",
			StartedAt: time.Now(),
		}
		for _, path := range msg.Paths {
			result, err := linter.LintFile(ctx, path)
			if err != nil {
				return fmt.Errorf("lint %s: %w", path, err)
			}
			report.Files = append(report.Files, *result)
		}
		report.FinishedAt = time.Now()
		return finishRun(ctx, logger, sink, report, failThreshold(msg.FailOn))
	}

	handlerOpts := []commands.HandlerOption[LintFilesCommand]{
		commands.WithLogger[LintFilesCommand](logger),
		commands.WithOperation[LintFilesCommand](lintFilesOperation),
		commands.WithMessageFields(func(msg LintFilesCommand) map[string]any {
			return map[string]any{"file_count": len(msg.Paths)}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[LintFilesCommand](logger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &LintFilesHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[LintFilesCommand].
func (h *LintFilesHandler) Execute(ctx context.Context, msg LintFilesCommand) error {
	return h.inner.Execute(ctx, msg)
}

// TagIndexHandler builds the tag index and hands it to a sink.
type TagIndexHandler struct {
	inner *commands.Handler[TagIndexCommand]
}

// NewTagIndexHandler binds the handler to a linter and tag sink.
func NewTagIndexHandler(linter interfaces.Linter, sink TagSink, logger interfaces.Logger, opts ...commands.HandlerOption[TagIndexCommand]) *TagIndexHandler {
	if logger == nil {
		logger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg TagIndexCommand) error {
		tags, err := linter.TagIndex(ctx, msg.Directory, interfaces.LoadOptions{
			Recursive: msg.Recursive,
			Pattern:   msg.Pattern,
		})
		if err != nil {
			return err
		}
		if sink == nil {
			return nil
		}
		return sink.WriteTags(ctx, tags)
	}

	handlerOpts := []commands.HandlerOption[TagIndexCommand]{
		commands.WithLogger[TagIndexCommand](logger),
		commands.WithOperation[TagIndexCommand](tagIndexOperation),
		commands.WithMessageFields(func(msg TagIndexCommand) map[string]any {
			return map[string]any{"directory": msg.Directory}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &TagIndexHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[TagIndexCommand].
func (h *TagIndexHandler) Execute(ctx context.Context, msg TagIndexCommand) error {
	return h.inner.Execute(ctx, msg)
}

func finishRun(ctx context.Context, logger interfaces.Logger, sink ReportSink, report *interfaces.Report, threshold interfaces.Severity) error {
	if sink != nil {
		if err := sink.WriteReport(ctx, report); err != nil {
			return fmt.Errorf("lint command: write report: %w", err)
		}
	}
	logging.WithFields(logger, map[string]any{
		"run_id":   report.RunID.String(),
		"files":    len(report.Files),
		"errors":   report.Errors(),
		"warnings": report.Warnings(),
	}).Info("lint.command.completed")

	if !report.HasIssuesAtLeast(threshold) {
		return nil
	}
	return goerrors.Wrap(
		fmt.Errorf("%w: %d errors, %d warnings", ErrLintFailed, report.Errors(), report.Warnings()),
		goerrors.CategoryValidation,
		"lint run found issues",
	).WithTextCode(lintFailedCode)
}
