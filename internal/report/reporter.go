// Package report prints build results for people and tools.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// Summary is what a build produced.
type Summary struct {
	FilesScanned int
	ConfigFiles  int
	Entities     int
	CSSFiles     int
	Layers       int
	Minimized    int
	Duration     time.Duration
	Issues       []Issue
}

// Counts returns the number of errors and warnings.
func (s Summary) Counts() (errors, warnings int) {
	for _, issue := range s.Issues {
		switch issue.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}
	return errors, warnings
}

// Options configures a Reporter.
type Options struct {
	Color      bool
	PrintLines bool
}

// Reporter writes issues and summaries.
type Reporter struct {
	w          io.Writer
	useColors  bool
	printLines bool
}

// NewReporter creates a reporter.
func NewReporter(w io.Writer, opts Options) *Reporter {
	return &Reporter{
		w:          w,
		useColors:  ShouldUseColors(opts.Color),
		printLines: opts.PrintLines,
	}
}

// ShouldUseColors reports whether output should be colored.
func ShouldUseColors(force bool) bool {
	if force {
		return true
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" || os.Getenv("GITHUB_ACTIONS") == "true" {
		return true
	}
	if fileInfo, err := os.Stdout.Stat(); err == nil && (fileInfo.Mode()&os.ModeCharDevice) != 0 {
		return true
	}
	return false
}

// PrintIssues prints issues sorted by file, line and column.
func (r *Reporter) PrintIssues(issues []Issue) {
	sorted := append([]Issue(nil), issues...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Pos, sorted[j].Pos
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	for _, issue := range sorted {
		r.printIssue(issue)
	}
}

// printIssue writes file:line:col: message (source).
func (r *Reporter) printIssue(issue Issue) {
	location := issue.Pos.Filename + ":"
	if issue.Pos.Line > 0 {
		location = fmt.Sprintf("%s:%d:%d:", issue.Pos.Filename, issue.Pos.Line, issue.Pos.Column)
	}

	text := issue.Text
	if issue.Entity != "" {
		text = issue.Entity + ": " + text
	}
	style := StyleYellow
	if issue.Severity == SeverityError {
		style = StyleRed
	}

	fmt.Fprintf(r.w, "%s %s %s%s\n",
		RenderStyle(StyleCyan, location, r.useColors),
		RenderStyle(style, issue.Severity, r.useColors),
		text,
		RenderStyle(StyleGray, " ("+issue.Source+")", r.useColors))

	if r.printLines && len(issue.SourceLines) > 0 {
		for _, line := range issue.SourceLines {
			fmt.Fprintf(r.w, "\t%s\n", line)
		}
		caret := r.buildCaretIndicator(issue.SourceLines[0], issue.Pos.Column)
		fmt.Fprintf(r.w, "\t%s\n", RenderStyle(StyleYellow, caret, r.useColors))
	}
}

// buildCaretIndicator aligns "^" under column, keeping tabs as tabs.
func (r *Reporter) buildCaretIndicator(sourceLine string, column int) string {
	if column <= 0 {
		return "^"
	}
	prefixLen := column - 1
	if prefixLen > len(sourceLine) {
		prefixLen = len(sourceLine)
	}

	var padding strings.Builder
	for _, ch := range sourceLine[:prefixLen] {
		if ch == '\t' {
			padding.WriteRune('\t')
		} else {
			padding.WriteRune(' ')
		}
	}
	return padding.String() + "^"
}

// PrintSummary prints issue counts per source and the build outcome.
func (r *Reporter) PrintSummary(s Summary) {
	errors, warnings := s.Counts()

	if len(s.Issues) > 0 {
		fmt.Fprintln(r.w, "")
		fmt.Fprintf(r.w, "%s (%s, %s):\n",
			pluralizeCount(len(s.Issues), "issue", "issues"),
			pluralizeCount(errors, "error", "errors"),
			pluralizeCount(warnings, "warning", "warnings"))

		counts := make(map[string]int)
		for _, issue := range s.Issues {
			counts[issue.Source]++
		}
		sources := make([]string, 0, len(counts))
		for source := range counts {
			sources = append(sources, source)
		}
		sort.Strings(sources)
		for _, source := range sources {
			fmt.Fprintf(r.w, "* %s: %d\n", source, counts[source])
		}
	}

	line := fmt.Sprintf("Built %s into %s in %s",
		pluralizeCount(s.Entities, "entity", "entities"),
		pluralizeCount(s.CSSFiles, "CSS file", "CSS files"),
		s.Duration.Round(time.Millisecond))
	style := StyleGreen
	if errors > 0 {
		style = StyleRed
	}
	fmt.Fprintln(r.w, "")
	fmt.Fprintln(r.w, RenderStyle(style, line, r.useColors))
}

// PrintStatistics prints the build counters.
func (r *Reporter) PrintStatistics(s Summary) {
	fmt.Fprintln(r.w, "")
	fmt.Fprintln(r.w, RenderStyle(StyleCyan, "Build Statistics", r.useColors))
	fmt.Fprintln(r.w, "----------------")
	fmt.Fprintf(r.w, "Files Scanned:   %d\n", s.FilesScanned)
	fmt.Fprintf(r.w, "Config Files:    %d\n", s.ConfigFiles)
	fmt.Fprintf(r.w, "Entities:        %d\n", s.Entities)
	fmt.Fprintf(r.w, "CSS Files:       %d\n", s.CSSFiles)
	fmt.Fprintf(r.w, "Layers:          %d\n", s.Layers)
	fmt.Fprintf(r.w, "Minimized Files: %d\n", s.Minimized)
}

// UseColors reports whether colors are enabled.
func (r *Reporter) UseColors() bool {
	return r.useColors
}

func pluralizeCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}
