package interfaces

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity ranks lint issues. Higher values are more severe.
type Severity int

const (
	SeverityInfo Severity = iota + 1
	SeverityWarning
	SeverityError
)

// String renders the lowercase severity label.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText keeps severities readable in JSON reports and config files.
func (s Severity) MarshalText() ([]byte, error) {
	if s < SeverityInfo || s > SeverityError {
		return nil, fmt.Errorf("severity: invalid value %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText parses a severity label.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity converts labels such as "error" or "warn" into a Severity.
func ParseSeverity(value string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "info", "notice":
		return SeverityInfo, nil
	case "warn", "warning":
		return SeverityWarning, nil
	case "error", "err":
		return SeverityError, nil
	default:
		return 0, fmt.Errorf("severity: unknown value %q", value)
	}
}

// Issue is a single finding emitted by a rule against one post.
type Issue struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Field    string   `json:"field,omitempty"`
	Line     int      `json:"line,omitempty"`
}

// FileResult groups the issues found in one post file.
type FileResult struct {
	Path     string  `json:"path"`
	Checksum string  `json:"checksum,omitempty"`
	Issues   []Issue `json:"issues"`
	// Skipped marks files left unchecked because they are unchanged since a clean run.
	Skipped bool `json:"skipped,omitempty"`
}

// Count returns the number of issues at exactly the given severity.
func (r FileResult) Count(severity Severity) int {
	total := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			total++
		}
	}
	return total
}

// Worst returns the highest severity present, or zero when the file is clean.
func (r FileResult) Worst() Severity {
	var worst Severity
	for _, issue := range r.Issues {
		if issue.Severity > worst {
			worst = issue.Severity
		}
	}
	return worst
}

// Report summarises a lint run across a directory.
type Report struct {
	RunID      uuid.UUID    `json:"run_id"`
	Root       string       `json:"root"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Files      []FileResult `json:"files"`
}

// Errors counts error-level issues across every file.
func (r *Report) Errors() int { return r.count(SeverityError) }

// Warnings counts warning-level issues across every file.
func (r *Report) Warnings() int { return r.count(SeverityWarning) }

// IssueCount returns the total number of issues.
func (r *Report) IssueCount() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, file := range r.Files {
		total += len(file.Issues)
	}
	return total
}

// Checked returns how many files were actually linted.
func (r *Report) Checked() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, file := range r.Files {
		if !file.Skipped {
			total++
		}
	}
	return total
}

// HasIssuesAtLeast reports whether any issue meets or exceeds the threshold.
func (r *Report) HasIssuesAtLeast(threshold Severity) bool {
	if r == nil {
		return false
	}
	for _, file := range r.Files {
		if worst := file.Worst(); worst != 0 && worst >= threshold {
			return true
		}
	}
	return false
}

func (r *Report) count(severity Severity) int {
	if r == nil {
		return 0
	}
	total := 0
	for _, file := range r.Files {
		total += file.Count(severity)
	}
	return total
}

// LintOptions extends LoadOptions with run-level switches.
type LintOptions struct {
	LoadOptions
	// ChangedOnly skips files whose checksum matches the last clean run.
	ChangedOnly bool
}

// TagCount is one row of the corpus tag index.
type TagCount struct {
	Tag   string   `json:"tag"`
	Count int      `json:"count"`
	Files []string `json:"files"`
}

// Linter checks posts against the configured rule set.
type Linter interface {
	LintFile(ctx context.Context, path string) (*FileResult, error)
	LintDirectory(ctx context.Context, dir string, opts LintOptions) (*Report, error)
	TagIndex(ctx context.Context, dir string, opts LoadOptions) ([]TagCount, error)
}
