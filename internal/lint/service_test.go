package lint_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-postlint/internal/ledger"
	"github.com/goliatone/go-postlint/internal/lint"
	"github.com/goliatone/go-postlint/internal/posts"
	"github.com/goliatone/go-postlint/internal/validation"
	"github.com/goliatone/go-postlint/pkg/interfaces"
)

const cleanPost = `---
layout: post
title: "Cannot find module 'react'"
tags: [react, node]
---

Install the dependency before importing it.
`

const brokenPost = `---
layout: post
tags: [react, 3]
---
`

func newCorpus() fstest.MapFS {
	return fstest.MapFS{
		"_posts/2024-01-01-cannot-find-module.md": {Data: []byte(cleanPost)},
		"_posts/2024-01-02-broken.md":             {Data: []byte(brokenPost)},
		"_posts/notes.txt":                        {Data: []byte("not a post")},
		"_site/copy.md":                           {Data: []byte(brokenPost)},
	}
}

func newService(t *testing.T, fsys fstest.MapFS, opts ...lint.Option) *lint.Service {
	t.Helper()
	rules, err := validation.NewRuleSet(validation.Config{})
	if err != nil {
		t.Fatalf("NewRuleSet: %v", err)
	}
	loader := posts.NewLoader(fsys, posts.LoaderConfig{Recursive: true})
	svc, err := lint.NewService(loader, rules, opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestLintDirectoryReport(t *testing.T) {
	runID := uuid.MustParse("6f1c2c1e-6a55-4e1b-8a8a-3c3f8f6b9a10")
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newService(t, newCorpus(),
		lint.WithIDGenerator(func() uuid.UUID { return runID }),
		lint.WithClock(func() time.Time { return clock }),
		lint.WithWorkers(2),
	)

	report, err := svc.LintDirectory(context.Background(), ".", interfaces.LintOptions{})
	if err != nil {
		t.Fatalf("LintDirectory: %v", err)
	}
	if report.RunID != runID || !report.StartedAt.Equal(clock) {
		t.Fatalf("unexpected run metadata: %+v", report)
	}
	if len(report.Files) != 2 {
		t.Fatalf("expected 2 files, got %+v", report.Files)
	}
	if report.Files[0].Path != "_posts/2024-01-01-cannot-find-module.md" || len(report.Files[0].Issues) != 0 {
		t.Fatalf("expected first file to be clean, got %+v", report.Files[0])
	}

	broken := report.Files[1]
	want := map[string]bool{
		validation.RuleFrontMatterRequired: false,
		validation.RuleFrontMatterTags:     false,
		validation.RuleBodyNonEmpty:        false,
	}
	for _, issue := range broken.Issues {
		if _, ok := want[issue.Rule]; ok {
			want[issue.Rule] = true
		}
	}
	for rule, seen := range want {
		if !seen {
			t.Fatalf("expected %s issue on broken post, got %+v", rule, broken.Issues)
		}
	}
	if !report.HasIssuesAtLeast(interfaces.SeverityError) || report.Errors() != 3 {
		t.Fatalf("expected 3 errors, got %d", report.Errors())
	}
}

func TestLintDirectoryChangedOnly(t *testing.T) {
	corpus := newCorpus()
	repo := ledger.NewMemoryRepository()
	svc := newService(t, corpus, lint.WithLedger(repo))
	ctx := context.Background()

	if _, err := svc.LintDirectory(ctx, "_posts", interfaces.LintOptions{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 ledger records, got %+v", records)
	}

	report, err := svc.LintDirectory(ctx, "_posts", interfaces.LintOptions{ChangedOnly: true})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !report.Files[0].Skipped {
		t.Fatalf("expected unchanged clean post to be skipped")
	}
	if report.Files[1].Skipped {
		t.Fatalf("expected post with issues to be checked again")
	}
	if report.Checked() != 1 {
		t.Fatalf("expected 1 checked file, got %d", report.Checked())
	}

	corpus["_posts/2024-01-01-cannot-find-module.md"] = &fstest.MapFile{Data: []byte(cleanPost + "\nMore text.\n")}
	report, err = svc.LintDirectory(ctx, "_posts", interfaces.LintOptions{ChangedOnly: true})
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if report.Files[0].Skipped {
		t.Fatalf("expected edited post to be checked")
	}
}

func TestLintFile(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	svc := newService(t, newCorpus(), lint.WithLedger(repo))

	result, err := svc.LintFile(context.Background(), "_posts/2024-01-02-broken.md")
	if err != nil {
		t.Fatalf("LintFile: %v", err)
	}
	if result.Worst() != interfaces.SeverityError {
		t.Fatalf("expected errors, got %+v", result)
	}
	record, err := repo.Get(context.Background(), "_posts/2024-01-02-broken.md")
	if err != nil {
		t.Fatalf("ledger Get: %v", err)
	}
	if record.Errors != result.Count(interfaces.SeverityError) || record.Checksum != result.Checksum {
		t.Fatalf("ledger record mismatch: %+v vs %+v", record, result)
	}

	if _, err := svc.LintFile(context.Background(), "_posts/missing.md"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTagIndex(t *testing.T) {
	fsys := fstest.MapFS{
		"a.md": {Data: []byte("---\nlayout: post\ntitle: a\ntags: [React, css]\n---\nx\n")},
		"b.md": {Data: []byte("---\nlayout: post\ntitle: b\ntags: [react, react]\n---\nx\n")},
		"c.md": {Data: []byte("---\nlayout: post\ntitle: c\ntags: [vue]\n---\nx\n")},
		"d.md": {Data: []byte("---\ntitle: [broken\n---\n")},
	}
	svc := newService(t, fsys)

	tags, err := svc.TagIndex(context.Background(), ".", interfaces.LoadOptions{})
	if err != nil {
		t.Fatalf("TagIndex: %v", err)
	}
	if len(tags) != 3 {
		t.Fatalf("expected 3 tags, got %+v", tags)
	}
	if tags[0].Tag != "React" || tags[0].Count != 2 || len(tags[0].Files) != 2 {
		t.Fatalf("unexpected top tag: %+v", tags[0])
	}
	if tags[1].Tag != "css" || tags[2].Tag != "vue" {
		t.Fatalf("expected ties sorted by name, got %+v", tags)
	}
}

func TestLintDirectoryCancelled(t *testing.T) {
	svc := newService(t, newCorpus())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.LintDirectory(ctx, ".", interfaces.LintOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewServiceRequiresRules(t *testing.T) {
	loader := posts.NewLoader(fstest.MapFS{}, posts.LoaderConfig{})
	if _, err := lint.NewService(loader, nil); !errors.Is(err, lint.ErrRulesRequired) {
		t.Fatalf("expected ErrRulesRequired, got %v", err)
	}
}

func TestLintDirectoryChangedOnlyRechecksAfterRuleChange(t *testing.T) {
	corpus := newCorpus()
	repo := ledger.NewMemoryRepository()
	ctx := context.Background()
	build := func(cfg validation.Config) *lint.Service {
		t.Helper()
		rules, err := validation.NewRuleSet(cfg)
		if err != nil {
			t.Fatalf("NewRuleSet: %v", err)
		}
		svc, err := lint.NewService(posts.NewLoader(corpus, posts.LoaderConfig{Recursive: true}), rules, lint.WithLedger(repo))
		if err != nil {
			t.Fatalf("NewService: %v", err)
		}
		return svc
	}

	if _, err := build(validation.Config{}).LintDirectory(ctx, "_posts", interfaces.LintOptions{}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	report, err := build(validation.Config{}).LintDirectory(ctx, "_posts", interfaces.LintOptions{ChangedOnly: true})
	if err != nil {
		t.Fatalf("same rules: %v", err)
	}
	if !report.Files[0].Skipped {
		t.Fatalf("expected clean post to be skipped under identical rules")
	}

	report, err = build(validation.Config{AllowedLayouts: []string{"page"}}).LintDirectory(ctx, "_posts", interfaces.LintOptions{ChangedOnly: true})
	if err != nil {
		t.Fatalf("new rules: %v", err)
	}
	clean := report.Files[0]
	if clean.Skipped {
		t.Fatalf("expected post to be checked again after the rules changed")
	}
	if len(clean.Issues) != 1 || clean.Issues[0].Rule != validation.RuleFrontMatterLayout {
		t.Fatalf("expected a layout issue under the new rules, got %+v", clean.Issues)
	}
}
