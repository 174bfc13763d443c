package stylec

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yacobolo/stylec/internal/locate"
	"github.com/yacobolo/stylec/internal/module"
	"github.com/yacobolo/stylec/internal/report"
	"github.com/yacobolo/stylec/internal/style"
)

// runtimePropsPrefix marks custom properties set by the runtime from props.
const runtimePropsPrefix = "--props-"

// checkVariables reports var() references in the rendered CSS that no
// resolved variable declares.
func (c *Compiler) checkVariables(ctx context.Context, u *unit, rendered []renderedEntity, known map[string]bool) []report.Issue {
	var issues []report.Issue
	for _, r := range rendered {
		missing, err := style.UndeclaredVariables(r.css, known)
		if err != nil {
			c.log.Debug("scanning variables", zap.String("path", u.file.Rel), zap.Error(err))
			continue
		}
		for _, name := range missing {
			if strings.HasPrefix(name, runtimePropsPrefix) {
				continue
			}
			issue := report.Issue{
				Source:   report.SourceVarCheck,
				Text:     fmt.Sprintf("undeclared custom property %s", name),
				Severity: report.SeverityWarning,
				Entity:   r.entity.Identifier(),
				Pos:      report.IssuePos{Filename: u.file.Rel},
			}
			c.position(ctx, u, &issue)
			issues = append(issues, issue)
		}
	}
	return issues
}

// position fills the issue location from the entity's declaration.
func (c *Compiler) position(ctx context.Context, u *unit, issue *report.Issue) {
	if issue.Entity == "" {
		return
	}
	d, err := c.locator.Find(ctx, u.src, locate.LanguageFor(u.file.Path), issue.Entity)
	if err != nil {
		return
	}
	issue.Pos.Line = d.Line
	issue.Pos.Column = d.Column
	if line := sourceLine(u.src, d.Line); line != "" {
		issue.SourceLines = []string{line}
	}
}

func sourceLine(src []byte, line int) string {
	if line < 1 {
		return ""
	}
	lines := strings.Split(string(src), "\n")
	if line > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[line-1], "\r")
}

// errorIssue converts a build error into a reportable issue.
func errorIssue(err error) report.Issue {
	issue := report.Issue{
		Source:   report.SourceCompile,
		Text:     err.Error(),
		Severity: report.SeverityError,
	}

	var fe *FileError
	if errors.As(err, &fe) {
		issue.Pos.Filename = fe.Path
		issue.Entity = fe.Entity
		issue.Text = fe.Err.Error()
	}

	var be *module.BundleError
	if errors.As(err, &be) {
		issue.Source = report.SourceBundle
		if len(be.Messages) > 0 {
			m := be.Messages[0]
			issue.Text = m.Text
			if m.File != "" {
				issue.Pos.Filename = m.File
			}
			issue.Pos.Line = m.Line
			issue.Pos.Column = m.Column
			if m.Source != "" {
				issue.SourceLines = []string{m.Source}
			}
		}
	}
	return issue
}

// unresolvedIssue records a file whose minimization was skipped.
func unresolvedIssue(rel, entity string, err error) report.Issue {
	return report.Issue{
		Source:   report.SourceMinimize,
		Text:     fmt.Sprintf("minimization skipped: %v", err),
		Severity: report.SeverityWarning,
		Entity:   entity,
		Pos:      report.IssuePos{Filename: rel},
	}
}
