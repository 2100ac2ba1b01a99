package report

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-postlint/pkg/interfaces"
)

// writeGitHub emits GitHub Actions workflow commands, one per issue. File
// paths are joined onto prefix when it is set.
func writeGitHub(w io.Writer, report *interfaces.Report, prefix string) error {
	var b strings.Builder
	for _, file := range report.Files {
		name := file.Path
		if prefix != "" {
			name = path.Join(prefix, filepath.ToSlash(file.Path))
		}
		for _, issue := range file.Issues {
			props := []string{"file=" + escapeProperty(name)}
			if issue.Line > 0 {
				props = append(props, fmt.Sprintf("line=%d", issue.Line))
			}
			if issue.Rule != "" {
				props = append(props, "title="+escapeProperty(issue.Rule))
			}
			fmt.Fprintf(&b, "::%s %s::%s\n", annotationLevel(issue.Severity), strings.Join(props, ","), escapeData(issue.Message))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func annotationLevel(severity interfaces.Severity) string {
	switch severity {
	case interfaces.SeverityError:
		return "error"
	case interfaces.SeverityWarning:
		return "warning"
	default:
		return "notice"
	}
}

var dataEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

var propertyEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")

func escapeData(value string) string { return dataEscaper.Replace(value) }

func escapeProperty(value string) string { return propertyEscaper.Replace(value) }
