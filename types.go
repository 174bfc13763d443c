package stylec

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/yacobolo/stylec/internal/config"
	"github.com/yacobolo/stylec/internal/locate"
	"github.com/yacobolo/stylec/internal/report"
)

var (
	// ErrConfigNotFound is returned by New when the project has no config file.
	ErrConfigNotFound = config.ErrConfigNotFound
	// ErrCacheMissing is returned by incremental operations that run before
	// any full build.
	ErrCacheMissing = config.ErrCacheMissing
	// ErrNotStyleFile is returned by CompileOne for paths that are not style
	// files.
	ErrNotStyleFile = errors.New("not a style file")
)

// FileError is a failure confined to one source file, or one entity of it.
type FileError struct {
	Path   string
	Entity string
	Err    error
}

func (e *FileError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Entity, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Result describes a full build.
type Result struct {
	FilesScanned int
	// ConfigFiles are the project-relative paths of files calling a define
	// function.
	ConfigFiles []string
	Entities    int
	// CSSFiles are paths relative to the output directory.
	CSSFiles  []string
	Layers    int
	Minimized int
	Duration  time.Duration
	Issues    []report.Issue
	Errors    []error
}

// Err combines the per-file errors, or returns nil.
func (r *Result) Err() error {
	return multierr.Combine(r.Errors...)
}

// Summary converts the result for reporting.
func (r *Result) Summary() report.Summary {
	return report.Summary{
		FilesScanned: r.FilesScanned,
		ConfigFiles:  len(r.ConfigFiles),
		Entities:     r.Entities,
		CSSFiles:     len(r.CSSFiles),
		Layers:       r.Layers,
		Minimized:    r.Minimized,
		Duration:     r.Duration,
		Issues:       r.Issues,
	}
}

// IsUnresolved reports whether err means a declaration could not be located,
// which skips minimization of one file.
func IsUnresolved(err error) bool {
	return errors.Is(err, locate.ErrNotFound) || errors.Is(err, locate.ErrTimeout)
}
