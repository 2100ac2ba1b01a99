// Package report renders lint reports and tag indexes for terminals, CI
// annotations and machine consumers.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-postlint/pkg/interfaces"
)

// Format selects a renderer.
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatGitHub Format = "github"
)

// ErrUnknownFormat is returned for unsupported output formats.
var ErrUnknownFormat = errors.New("report: unknown format")

// ParseFormat validates a format name. Empty means text.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatGitHub, "github-actions":
		return FormatGitHub, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, value)
	}
}

// Writer renders reports in one format. It satisfies the lint command sinks.
type Writer struct {
	out         io.Writer
	format      Format
	showSkipped bool
	minSeverity interfaces.Severity
	pathPrefix  string
	styles      styles
}

// Option customises a Writer.
type Option func(*Writer)

// WithSkipped lists files skipped by changed-only runs in text output.
func WithSkipped(show bool) Option {
	return func(w *Writer) {
		w.showSkipped = show
	}
}

// WithMinSeverity hides issues below the given severity.
func WithMinSeverity(severity interfaces.Severity) Option {
	return func(w *Writer) {
		w.minSeverity = severity
	}
}

// WithPathPrefix joins prefix onto file paths in GitHub annotations. Report
// paths are relative to the content directory while annotations resolve
// against the repository root, so prefix is usually the content directory
// relative to the working directory.
func WithPathPrefix(prefix string) Option {
	return func(w *Writer) {
		prefix = path.Clean(filepath.ToSlash(strings.TrimSpace(prefix)))
		if prefix == "." {
			prefix = ""
		}
		w.pathPrefix = prefix
	}
}

// NewWriter builds a Writer for format. Terminal styling is detected from out.
func NewWriter(out io.Writer, format string, opts ...Option) (*Writer, error) {
	parsed, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	w := &Writer{
		out:         out,
		format:      parsed,
		minSeverity: interfaces.SeverityInfo,
		styles:      newStyles(lipgloss.NewRenderer(out)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// WriteReport renders a lint report.
func (w *Writer) WriteReport(_ context.Context, report *interfaces.Report) error {
	if report == nil {
		return nil
	}
	filtered := w.filter(report)
	switch w.format {
	case FormatJSON:
		return writeJSON(w.out, filtered)
	case FormatGitHub:
		return writeGitHub(w.out, filtered, w.pathPrefix)
	default:
		return w.writeText(filtered)
	}
}

// WriteTags renders a tag index.
func (w *Writer) WriteTags(_ context.Context, tags []interfaces.TagCount) error {
	if w.format == FormatJSON {
		if tags == nil {
			tags = []interfaces.TagCount{}
		}
		return encodeJSON(w.out, tags)
	}
	_, err := io.WriteString(w.out, TagTable(w.styles, tags))
	return err
}

func (w *Writer) filter(report *interfaces.Report) *interfaces.Report {
	if w.minSeverity <= interfaces.SeverityInfo {
		return report
	}
	copied := *report
	copied.Files = make([]interfaces.FileResult, len(report.Files))
	for i, file := range report.Files {
		kept := make([]interfaces.Issue, 0, len(file.Issues))
		for _, issue := range file.Issues {
			if issue.Severity >= w.minSeverity {
				kept = append(kept, issue)
			}
		}
		file.Issues = kept
		copied.Files[i] = file
	}
	return &copied
}
