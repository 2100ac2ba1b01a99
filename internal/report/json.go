package report

import (
	"encoding/json"
	"io"

	"github.com/goliatone/go-postlint/pkg/interfaces"
)

type jsonSummary struct {
	Files    int `json:"files"`
	Checked  int `json:"checked"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Issues   int `json:"issues"`
}

type jsonReport struct {
	*interfaces.Report
	Summary jsonSummary `json:"summary"`
}

func writeJSON(w io.Writer, report *interfaces.Report) error {
	return encodeJSON(w, jsonReport{
		Report: report,
		Summary: jsonSummary{
			Files:    len(report.Files),
			Checked:  report.Checked(),
			Errors:   report.Errors(),
			Warnings: report.Warnings(),
			Issues:   report.IssueCount(),
		},
	})
}

func encodeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
