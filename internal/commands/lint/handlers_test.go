package lintcmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"

	"github.com/goliatone/go-postlint/pkg/interfaces"
)

type stubLinter struct {
	dirCalls  []string
	dirOpts   []interfaces.LintOptions
	fileCalls []string

	report  *interfaces.Report
	results map[string]*interfaces.FileResult
	tags    []interfaces.TagCount
	err     error
}

func (s *stubLinter) LintFile(_ context.Context, path string) (*interfaces.FileResult, error) {
	s.fileCalls = append(s.fileCalls, path)
	if s.err != nil {
		return nil, s.err
	}
	if result, ok := s.results[path]; ok {
		return result, nil
	}
	return &interfaces.FileResult{Path: path}, nil
}

func (s *stubLinter) LintDirectory(_ context.Context, dir string, opts interfaces.LintOptions) (*interfaces.Report, error) {
	s.dirCalls = append(s.dirCalls, dir)
	s.dirOpts = append(s.dirOpts, opts)
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubLinter) TagIndex(context.Context, string, interfaces.LoadOptions) ([]interfaces.TagCount, error) {
	return s.tags, s.err
}

type captureSink struct {
	reports []*interfaces.Report
	tags    [][]interfaces.TagCount
}

func (c *captureSink) WriteReport(_ context.Context, report *interfaces.Report) error {
	c.reports = append(c.reports, report)
	return nil
}

func (c *captureSink) WriteTags(_ context.Context, tags []interfaces.TagCount) error {
	c.tags = append(c.tags, tags)
	return nil
}

func warningReport() *interfaces.Report {
	return &interfaces.Report{Files: []interfaces.FileResult{{
		Path:   "_posts/a.md",
		Issues: []interfaces.Issue{{Rule: "filename.convention", Severity: interfaces.SeverityWarning}},
	}}}
}

func TestLintDirectoryHandlerPassesOptions(t *testing.T) {
	linter := &stubLinter{report: &interfaces.Report{}}
	sink := &captureSink{}
	handler := NewLintDirectoryHandler(linter, sink, nil)

	recursive := false
	err := handler.Execute(context.Background(), LintDirectoryCommand{
		Directory:   "_posts",
		Pattern:     "*.md",
		Recursive:   &recursive,
		ChangedOnly: true,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(linter.dirCalls) != 1 || linter.dirCalls[0] != "_posts" {
		t.Fatalf("unexpected calls: %v", linter.dirCalls)
	}
	opts := linter.dirOpts[0]
	if !opts.ChangedOnly || opts.Pattern != "*.md" || opts.Recursive == nil || *opts.Recursive {
		t.Fatalf("options not forwarded: %+v", opts)
	}
	if len(sink.reports) != 1 {
		t.Fatalf("expected report to reach the sink")
	}
}

func TestLintDirectoryHandlerFailThreshold(t *testing.T) {
	linter := &stubLinter{report: warningReport()}
	handler := NewLintDirectoryHandler(linter, &captureSink{}, nil)

	if err := handler.Execute(context.Background(), LintDirectoryCommand{Directory: "."}); err != nil {
		t.Fatalf("warnings should not fail the default threshold, got %v", err)
	}

	err := handler.Execute(context.Background(), LintDirectoryCommand{Directory: ".", FailOn: "warning"})
	if err == nil {
		t.Fatal("expected lint failure")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if !IsLintFailed(err) {
		t.Fatalf("expected ErrLintFailed in chain, got %v", err)
	}
}

func TestLintDirectoryHandlerValidation(t *testing.T) {
	linter := &stubLinter{}
	handler := NewLintDirectoryHandler(linter, nil, nil)

	for _, msg := range []LintDirectoryCommand{
		{Directory: "   "},
		{Directory: ".", FailOn: "fatal"},
	} {
		err := handler.Execute(context.Background(), msg)
		if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
			t.Fatalf("expected validation error for %+v, got %v", msg, err)
		}
	}
	if len(linter.dirCalls) != 0 {
		t.Fatalf("linter should not run on invalid input")
	}
}

func TestLintDirectoryHandlerWrapsLinterError(t *testing.T) {
	linter := &stubLinter{err: errors.New("disk gone")}
	handler := NewLintDirectoryHandler(linter, nil, nil)

	err := handler.Execute(context.Background(), LintDirectoryCommand{Directory: "."})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}

func TestLintFilesHandlerBuildsReport(t *testing.T) {
	linter := &stubLinter{results: map[string]*interfaces.FileResult{
		"b.md": {Path: "b.md", Issues: []interfaces.Issue{{Rule: "body.nonempty", Severity: interfaces.SeverityError}}},
	}}
	sink := &captureSink{}
	handler := NewLintFilesHandler(linter, sink, nil)

	err := handler.Execute(context.Background(), LintFilesCommand{Paths: []string{"a.md", "b.md"}})
	if !IsLintFailed(err) {
		t.Fatalf("expected lint failure, got %v", err)
	}
	if len(sink.reports) != 1 || len(sink.reports[0].Files) != 2 {
		t.Fatalf("expected one report with two files, got %+v", sink.reports)
	}
	if sink.reports[0].RunID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("expected a run id")
	}

	if err := handler.Execute(context.Background(), LintFilesCommand{}); !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error for empty paths, got %v", err)
	}
}

func TestTagIndexHandler(t *testing.T) {
	linter := &stubLinter{tags: []interfaces.TagCount{{Tag: "react", Count: 2}}}
	sink := &captureSink{}
	handler := NewTagIndexHandler(linter, sink, nil)

	if err := handler.Execute(context.Background(), TagIndexCommand{Directory: "."}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(sink.tags) != 1 || sink.tags[0][0].Tag != "react" {
		t.Fatalf("expected tags to reach the sink, got %+v", sink.tags)
	}
}

type recordingRegistry struct {
	handlers []any
}

func (r *recordingRegistry) RegisterCommand(handler any) error {
	r.handlers = append(r.handlers, handler)
	return nil
}

func TestRegisterWiresHandlers(t *testing.T) {
	reg := &recordingRegistry{}
	set, err := Register(reg, &stubLinter{}, Sinks{}, nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if set.Directory == nil || set.Files == nil || set.Tags == nil {
		t.Fatalf("expected every handler to be built: %+v", set)
	}
	if len(reg.handlers) != 3 {
		t.Fatalf("expected 3 registrations, got %d", len(reg.handlers))
	}
	if _, err := Register(nil, nil, Sinks{}, nil); err == nil {
		t.Fatal("expected error for nil linter")
	}
}

func TestDispatchLintDirectory(t *testing.T) {
	linter := &stubLinter{report: &interfaces.Report{}}
	sink := &captureSink{}
	handler := NewLintDirectoryHandler(linter, sink, nil)

	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(0))
	t.Cleanup(sub.Unsubscribe)

	if err := dispatcher.Dispatch(context.Background(), LintDirectoryCommand{Directory: "_posts"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(sink.reports) != 1 {
		t.Fatalf("expected dispatched command to produce a report")
	}
}
