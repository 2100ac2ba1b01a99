package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-postlint/pkg/interfaces"
)

var (
	errorColor   = lipgloss.Color("#ef4444")
	warningColor = lipgloss.Color("#f59e0b")
	infoColor    = lipgloss.Color("#3b82f6")
	successColor = lipgloss.Color("#10b981")
	mutedColor   = lipgloss.Color("#94a3b8")
)

type styles struct {
	path    lipgloss.Style
	errors  lipgloss.Style
	warning lipgloss.Style
	info    lipgloss.Style
	success lipgloss.Style
	muted   lipgloss.Style
	header  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		path:    r.NewStyle().Bold(true),
		errors:  r.NewStyle().Foreground(errorColor).Bold(true),
		warning: r.NewStyle().Foreground(warningColor),
		info:    r.NewStyle().Foreground(infoColor),
		success: r.NewStyle().Foreground(successColor).Bold(true),
		muted:   r.NewStyle().Foreground(mutedColor),
		header:  r.NewStyle().Bold(true).Underline(true),
	}
}

func (s styles) severity(severity interfaces.Severity) lipgloss.Style {
	switch severity {
	case interfaces.SeverityError:
		return s.errors
	case interfaces.SeverityWarning:
		return s.warning
	default:
		return s.info
	}
}

// writeText prints one `path:line: severity rule message` line per issue
// followed by a summary line.
func (w *Writer) writeText(report *interfaces.Report) error {
	var b strings.Builder
	skipped := 0
	for _, file := range report.Files {
		if file.Skipped {
			skipped++
			if w.showSkipped {
				fmt.Fprintf(&b, "%s %s\n", w.styles.path.Render(file.Path), w.styles.muted.Render("(unchanged, skipped)"))
			}
			continue
		}
		for _, issue := range file.Issues {
			location := file.Path
			if issue.Line > 0 {
				location = fmt.Sprintf("%s:%d", file.Path, issue.Line)
			}
			fmt.Fprintf(&b, "%s: %s %s %s\n",
				w.styles.path.Render(location),
				w.styles.severity(issue.Severity).Render(issue.Severity.String()),
				w.styles.muted.Render(issue.Rule),
				issue.Message,
			)
		}
	}
	b.WriteString(w.summary(report, skipped))
	b.WriteString("\n")
	_, err := fmt.Fprint(w.out, b.String())
	return err
}

func (w *Writer) summary(report *interfaces.Report, skipped int) string {
	checked := report.Checked()
	line := fmt.Sprintf("%d %s checked", checked, plural(checked, "file", "files"))
	if skipped > 0 {
		line += fmt.Sprintf(", %d skipped", skipped)
	}

	errs, warnings := report.Errors(), report.Warnings()
	infos := report.IssueCount() - errs - warnings
	if errs+warnings+infos == 0 {
		return line + ": " + w.styles.success.Render("no issues")
	}

	parts := []string{}
	if errs > 0 {
		parts = append(parts, w.styles.errors.Render(fmt.Sprintf("%d %s", errs, plural(errs, "error", "errors"))))
	}
	if warnings > 0 {
		parts = append(parts, w.styles.warning.Render(fmt.Sprintf("%d %s", warnings, plural(warnings, "warning", "warnings"))))
	}
	if infos > 0 {
		parts = append(parts, w.styles.info.Render(fmt.Sprintf("%d info", infos)))
	}
	return line + ": " + strings.Join(parts, ", ")
}

// TagTable renders the tag index as aligned columns.
func TagTable(s styles, tags []interfaces.TagCount) string {
	if len(tags) == 0 {
		return s.muted.Render("no tags found") + "\n"
	}
	width := len("TAG")
	for _, tag := range tags {
		if w := lipgloss.Width(tag.Tag); w > width {
			width = w
		}
	}
	column := s.path.Width(width + 2)

	var b strings.Builder
	b.WriteString(s.header.Render("TAG"))
	b.WriteString(strings.Repeat(" ", width+2-len("TAG")))
	b.WriteString(s.header.Render("POSTS"))
	b.WriteString("\n")
	for _, tag := range tags {
		b.WriteString(column.Render(tag.Tag))
		fmt.Fprintf(&b, "%d\n", tag.Count)
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
