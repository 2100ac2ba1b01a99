package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-postlint/pkg/interfaces"
)

func sampleReport() *interfaces.Report {
	return &interfaces.Report{
		Root: "_posts",
		Files: []interfaces.FileResult{
			{
				Path: "_posts/2024-01-01-a.md",
				Issues: []interfaces.Issue{
					{Rule: "frontmatter.required", Severity: interfaces.SeverityError, Message: `front matter field "title" must not be empty`, Field: "title", Line: 3},
					{Rule: "tags.slug", Severity: interfaces.SeverityInfo, Message: "tag is not slug-normalised", Line: 4},
				},
			},
			{
				Path:   "_posts/2024-01-02-b.md",
				Issues: []interfaces.Issue{{Rule: "body.nonempty", Severity: interfaces.SeverityWarning, Message: "post has no content\nafter front matter"}},
			},
			{Path: "_posts/2024-01-03-c.md", Issues: []interfaces.Issue{}, Skipped: true},
		},
	}
}

func render(t *testing.T, format string, opts ...Option) string {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, format, opts...)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteReport(context.Background(), sampleReport()); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	return buf.String()
}

func TestTextReport(t *testing.T) {
	out := render(t, "text")

	if !strings.Contains(out, `_posts/2024-01-01-a.md:3: error frontmatter.required front matter field "title" must not be empty`) {
		t.Fatalf("missing issue line:\n%s", out)
	}
	if !strings.Contains(out, "_posts/2024-01-02-b.md: warning body.nonempty") {
		t.Fatalf("issues without a line should print the bare path:\n%s", out)
	}
	if !strings.Contains(out, "2 files checked, 1 skipped: 1 error, 1 warning, 1 info") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
	if strings.Contains(out, "unchanged") {
		t.Fatalf("skipped files should be hidden by default:\n%s", out)
	}
	if !strings.Contains(render(t, "text", WithSkipped(true)), "_posts/2024-01-03-c.md (unchanged, skipped)") {
		t.Fatalf("expected skipped file to be listed")
	}
}

func TestTextReportCleanSummary(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf, "")
	report := &interfaces.Report{Files: []interfaces.FileResult{{Path: "a.md", Issues: []interfaces.Issue{}}}}
	if err := w.WriteReport(context.Background(), report); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "1 file checked: no issues" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestMinSeverityFilter(t *testing.T) {
	out := render(t, "text", WithMinSeverity(interfaces.SeverityWarning))
	if strings.Contains(out, "tags.slug") {
		t.Fatalf("info issues should be filtered:\n%s", out)
	}
}

func TestJSONReport(t *testing.T) {
	out := render(t, "json")

	var decoded struct {
		Root    string `json:"root"`
		Summary struct {
			Files    int `json:"files"`
			Checked  int `json:"checked"`
			Errors   int `json:"errors"`
			Warnings int `json:"warnings"`
		} `json:"summary"`
		Files []struct {
			Path   string `json:"path"`
			Issues []struct {
				Rule     string `json:"rule"`
				Severity string `json:"severity"`
				Line     int    `json:"line"`
			} `json:"issues"`
		} `json:"files"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out)
	}
	if decoded.Root != "_posts" || decoded.Summary.Files != 3 || decoded.Summary.Checked != 2 || decoded.Summary.Errors != 1 || decoded.Summary.Warnings != 1 {
		t.Fatalf("unexpected summary: %+v", decoded)
	}
	if decoded.Files[0].Issues[0].Severity != "error" || decoded.Files[0].Issues[0].Line != 3 {
		t.Fatalf("unexpected first issue: %+v", decoded.Files[0].Issues[0])
	}
}

func TestGitHubReport(t *testing.T) {
	out := render(t, "github")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 annotations, got:\n%s", out)
	}
	if lines[0] != `::error file=_posts/2024-01-01-a.md,line=3,title=frontmatter.required::front matter field "title" must not be empty` {
		t.Fatalf("unexpected annotation: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "::notice ") {
		t.Fatalf("info should map to notice: %s", lines[1])
	}
	if lines[2] != "::warning file=_posts/2024-01-02-b.md,title=body.nonempty::post has no content%0Aafter front matter" {
		t.Fatalf("unexpected escaped annotation: %s", lines[2])
	}
}

func TestParseFormat(t *testing.T) {
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if format, err := ParseFormat("GitHub-Actions"); err != nil || format != FormatGitHub {
		t.Fatalf("expected github format, got %s %v", format, err)
	}
}

func TestWriteTags(t *testing.T) {
	tags := []interfaces.TagCount{
		{Tag: "javascript", Count: 3, Files: []string{"a.md", "b.md", "c.md"}},
		{Tag: "css", Count: 1, Files: []string{"a.md"}},
	}

	var buf bytes.Buffer
	w, _ := NewWriter(&buf, "text")
	if err := w.WriteTags(context.Background(), tags); err != nil {
		t.Fatalf("WriteTags: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %q", buf.String())
	}
	if lines[0] != "TAG         POSTS" || lines[1] != "javascript  3" || lines[2] != "css         1" {
		t.Fatalf("unexpected table:\n%s", buf.String())
	}

	buf.Reset()
	w, _ = NewWriter(&buf, "json")
	if err := w.WriteTags(context.Background(), nil); err != nil {
		t.Fatalf("WriteTags json: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("expected empty json array, got %q", buf.String())
	}
}

func TestGitHubReportPathPrefix(t *testing.T) {
	out := render(t, "github", WithPathPrefix("site/"))
	if !strings.HasPrefix(out, "::error file=site/_posts/2024-01-01-a.md,line=3,") {
		t.Fatalf("expected annotation paths under the content dir, got:\n%s", out)
	}

	out = render(t, "github", WithPathPrefix("."))
	if !strings.HasPrefix(out, "::error file=_posts/2024-01-01-a.md,") {
		t.Fatalf("expected a dot prefix to leave paths alone, got:\n%s", out)
	}

	out = render(t, "text", WithPathPrefix("site"))
	if strings.Contains(out, "site/_posts") {
		t.Fatalf("text output should keep content-relative paths:\n%s", out)
	}
}
