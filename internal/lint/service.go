package lint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-postlint/internal/ledger"
	"github.com/goliatone/go-postlint/internal/logging"
	"github.com/goliatone/go-postlint/pkg/interfaces"
)

// RuleFileRead is reported when a discovered file cannot be read.
const RuleFileRead = "file.read"

// ErrRulesRequired is returned when the service is built without a rule set.
var ErrRulesRequired = errors.New("lint: rule set required")

// Source discovers and loads posts.
type Source interface {
	interfaces.PostLoader
	Discover(ctx context.Context, dir string, opts interfaces.LoadOptions) ([]string, error)
}

// Checker runs rules against a single post.
type Checker interface {
	Check(ctx context.Context, post *interfaces.Post) []interfaces.Issue
}

// Fingerprinter is implemented by checkers whose configuration can change
// between runs. *validation.RuleSet implements it.
type Fingerprinter interface {
	Fingerprint() string
}

// Service implements interfaces.Linter.
type Service struct {
	source      Source
	rules       Checker
	fingerprint string
	ledger      ledger.Repository
	logger      interfaces.Logger
	now         func() time.Time
	newID       func() uuid.UUID
	workers     int
}

var _ interfaces.Linter = (*Service)(nil)

// Option customises the service.
type Option func(*Service)

// WithLedger records every checked file and enables ChangedOnly runs.
func WithLedger(repo ledger.Repository) Option {
	return func(s *Service) {
		s.ledger = repo
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides run ID generation.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithWorkers bounds how many files are linted concurrently.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewService wires a linter from a post source and a rule set, usually a
// *validation.RuleSet.
func NewService(source Source, rules Checker, opts ...Option) (*Service, error) {
	if source == nil {
		return nil, errors.New("lint: post source required")
	}
	if rules == nil {
		return nil, ErrRulesRequired
	}
	svc := &Service{
		source:  source,
		rules:   rules,
		logger:  logging.NoOp(),
		now:     time.Now,
		newID:   uuid.New,
		workers: runtime.GOMAXPROCS(0),
	}
	if fp, ok := rules.(Fingerprinter); ok {
		svc.fingerprint = fp.Fingerprint()
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// LintFile checks a single post. The result is recorded in the ledger when one is wired.
func (s *Service) LintFile(ctx context.Context, path string) (*interfaces.FileResult, error) {
	runID := s.newID()
	post, err := s.source.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	result := s.check(ctx, post)
	s.record(ctx, runID, result)
	return &result, nil
}

// LintDirectory checks every post under dir. Unreadable or malformed files
// become issues; only discovery failures and cancellation abort the run.
func (s *Service) LintDirectory(ctx context.Context, dir string, opts interfaces.LintOptions) (*interfaces.Report, error) {
	report := &interfaces.Report{
		RunID:     s.newID(),
		Root:      dir,
		StartedAt: s.now(),
	}
	logger := logging.WithPostContext(s.logger.WithContext(ctx), "", report.RunID.String(), "")

	paths, err := s.source.Discover(ctx, dir, opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("lint: discover %s: %w", dir, err)
	}
	logger.Info("lint.run.start", "root", dir, "files", len(paths), "changed_only", opts.ChangedOnly)

	results := make([]interfaces.FileResult, len(paths))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)
	for i, path := range paths {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			results[i] = s.lintPath(groupCtx, report.RunID, path, opts.ChangedOnly)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	report.Files = results
	report.FinishedAt = s.now()
	logger.Info("lint.run.finish",
		"checked", report.Checked(),
		"errors", report.Errors(),
		"warnings", report.Warnings(),
		"duration", report.FinishedAt.Sub(report.StartedAt).String(),
	)
	return report, nil
}

// TagIndex aggregates tags across the posts under dir, most used first.
// Tags are matched case-insensitively and reported in their first spelling.
func (s *Service) TagIndex(ctx context.Context, dir string, opts interfaces.LoadOptions) ([]interfaces.TagCount, error) {
	loaded, err := s.source.LoadDirectory(ctx, dir, opts)
	if err != nil {
		return nil, err
	}

	index := map[string]*interfaces.TagCount{}
	for _, post := range loaded {
		if post.ParseError != nil {
			continue
		}
		seen := map[string]struct{}{}
		for _, tag := range post.FrontMatter.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			entry, ok := index[key]
			if !ok {
				entry = &interfaces.TagCount{Tag: tag}
				index[key] = entry
			}
			entry.Count++
			entry.Files = append(entry.Files, post.FilePath)
		}
	}

	out := make([]interfaces.TagCount, 0, len(index))
	for _, entry := range index {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return strings.ToLower(out[i].Tag) < strings.ToLower(out[j].Tag)
	})
	return out, nil
}

func (s *Service) lintPath(ctx context.Context, runID uuid.UUID, path string, changedOnly bool) interfaces.FileResult {
	logger := logging.WithPostContext(s.logger, path, runID.String(), "")

	post, err := s.source.Load(ctx, path)
	if err != nil {
		logger.Warn("lint.file.read_failed", "error", err)
		return interfaces.FileResult{
			Path: path,
			Issues: []interfaces.Issue{{
				Rule:     RuleFileRead,
				Severity: interfaces.SeverityError,
				Message:  err.Error(),
			}},
		}
	}

	checksum := hex.EncodeToString(post.Checksum)
	if changedOnly && s.unchanged(ctx, post.FilePath, checksum) {
		logger.Debug("lint.file.skipped", "reason", "unchanged")
		return interfaces.FileResult{Path: post.FilePath, Checksum: checksum, Issues: []interfaces.Issue{}, Skipped: true}
	}

	result := s.check(ctx, post)
	s.record(ctx, runID, result)
	if len(result.Issues) > 0 {
		logger.Debug("lint.file.issues", "count", len(result.Issues), "worst", result.Worst().String())
	}
	return result
}

func (s *Service) check(ctx context.Context, post *interfaces.Post) interfaces.FileResult {
	issues := s.rules.Check(ctx, post)
	if issues == nil {
		issues = []interfaces.Issue{}
	}
	return interfaces.FileResult{
		Path:     post.FilePath,
		Checksum: hex.EncodeToString(post.Checksum),
		Issues:   issues,
	}
}

func (s *Service) unchanged(ctx context.Context, path, checksum string) bool {
	if s.ledger == nil || checksum == "" {
		return false
	}
	record, err := s.ledger.Get(ctx, path)
	if err != nil {
		if !errors.Is(err, ledger.ErrRecordNotFound) {
			logging.WithPostContext(s.logger, path, "", "").Warn("lint.ledger.lookup_failed", "error", err)
		}
		return false
	}
	return record.Checksum == checksum && record.Fingerprint == s.fingerprint && record.Clean()
}

func (s *Service) record(ctx context.Context, runID uuid.UUID, result interfaces.FileResult) {
	if s.ledger == nil {
		return
	}
	_, err := s.ledger.Upsert(ctx, ledger.Record{
		Path:        result.Path,
		Checksum:    result.Checksum,
		Fingerprint: s.fingerprint,
		Errors:      result.Count(interfaces.SeverityError),
		Warnings:    result.Count(interfaces.SeverityWarning),
		Issues:      len(result.Issues),
		RunID:       runID,
		CheckedAt:   s.now().UTC(),
	})
	if err != nil {
		logging.WithPostContext(s.logger, result.Path, runID.String(), "").Warn("lint.ledger.record_failed", "error", err)
	}
}
