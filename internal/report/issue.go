package report

// Issue is one problem found while building, in golangci-lint form.
type Issue struct {
	Source      string   `json:"Source"`      // "bundle", "compile", "minimize", "varcheck"
	Text        string   `json:"Text"`        // "undeclared custom property --colors-brnd"
	Severity    string   `json:"Severity"`    // "error", "warning"
	Entity      string   `json:"Entity"`      // export name, when known
	SourceLines []string `json:"SourceLines"` // offending line, when known
	Pos         IssuePos `json:"Pos"`
}

// IssuePos is the location of an issue. Line and Column are 1-based; zero
// means unknown.
type IssuePos struct {
	Filename string `json:"Filename"`
	Line     int    `json:"Line"`
	Column   int    `json:"Column"`
}

// Severity values.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue sources.
const (
	SourceBundle   = "bundle"
	SourceCompile  = "compile"
	SourceMinimize = "minimize"
	SourceVarCheck = "varcheck"
)
