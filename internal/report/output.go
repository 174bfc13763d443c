package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// OutputFormat selects what WriteOutput prints.
type OutputFormat string

const (
	// OutputIssues prints issues and the outcome line.
	OutputIssues OutputFormat = "issues"
	// OutputSummary prints statistics only.
	OutputSummary OutputFormat = "summary"
	// OutputFull prints issues and statistics.
	OutputFull OutputFormat = "full"
	// OutputJSON exports the result for tooling.
	OutputJSON OutputFormat = "json"
)

// DetermineOutputFormat maps the output-format flag to a format. Unknown
// values fall back to OutputIssues.
func DetermineOutputFormat(formatFlag string, quiet bool) OutputFormat {
	if quiet {
		return OutputIssues
	}
	switch OutputFormat(formatFlag) {
	case OutputSummary, OutputFull, OutputJSON:
		return OutputFormat(formatFlag)
	}
	return OutputIssues
}

// WriteOutput writes s in format.
func WriteOutput(w io.Writer, s Summary, format OutputFormat, opts Options) error {
	switch format {
	case OutputJSON:
		return WriteJSON(w, s)
	case OutputSummary:
		NewReporter(w, opts).PrintStatistics(s)
	case OutputFull:
		r := NewReporter(w, opts)
		r.PrintIssues(s.Issues)
		r.PrintStatistics(s)
		r.PrintSummary(s)
	default:
		r := NewReporter(w, opts)
		r.PrintIssues(s.Issues)
		r.PrintSummary(s)
	}
	return nil
}

// JSONOutput is the JSON export schema.
type JSONOutput struct {
	Version   string      `json:"version"`
	Timestamp string      `json:"timestamp"`
	Summary   JSONSummary `json:"summary"`
	Stats     JSONStats   `json:"stats"`
	Issues    []JSONIssue `json:"issues"`
}

// JSONSummary holds issue counts.
type JSONSummary struct {
	TotalIssues  int `json:"total_issues"`
	Errors       int `json:"errors"`
	Warnings     int `json:"warnings"`
	FilesScanned int `json:"files_scanned"`
}

// JSONStats holds build counters.
type JSONStats struct {
	ConfigFiles int   `json:"config_files"`
	Entities    int   `json:"entities"`
	CSSFiles    int   `json:"css_files"`
	Layers      int   `json:"layers"`
	Minimized   int   `json:"minimized"`
	DurationMS  int64 `json:"duration_ms"`
}

// JSONIssue is one issue.
type JSONIssue struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Source   string `json:"source"`
	Entity   string `json:"entity,omitempty"`
	Code     string `json:"code,omitempty"`
}

// WriteJSON writes s as indented JSON.
func WriteJSON(w io.Writer, s Summary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(buildJSONOutput(s, time.Now())); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	return nil
}

func buildJSONOutput(s Summary, now time.Time) JSONOutput {
	errors, warnings := s.Counts()

	issues := make([]JSONIssue, len(s.Issues))
	for i, issue := range s.Issues {
		code := ""
		if len(issue.SourceLines) > 0 {
			code = issue.SourceLines[0]
		}
		issues[i] = JSONIssue{
			File:     issue.Pos.Filename,
			Line:     issue.Pos.Line,
			Column:   issue.Pos.Column,
			Severity: issue.Severity,
			Message:  issue.Text,
			Source:   issue.Source,
			Entity:   issue.Entity,
			Code:     code,
		}
	}

	return JSONOutput{
		Version:   "1.0",
		Timestamp: now.Format(time.RFC3339),
		Summary: JSONSummary{
			TotalIssues:  len(s.Issues),
			Errors:       errors,
			Warnings:     warnings,
			FilesScanned: s.FilesScanned,
		},
		Stats: JSONStats{
			ConfigFiles: s.ConfigFiles,
			Entities:    s.Entities,
			CSSFiles:    s.CSSFiles,
			Layers:      s.Layers,
			Minimized:   s.Minimized,
			DurationMS:  s.Duration.Milliseconds(),
		},
		Issues: issues,
	}
}
