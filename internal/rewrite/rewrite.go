// Package rewrite produces minimized style-file source: each located style
// declaration is replaced with a runtime call that carries only its class
// names and client metadata.
package rewrite

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/yacobolo/stylec/internal/locate"
)

// ErrOverlap is returned when two edits cover overlapping ranges.
var ErrOverlap = errors.New("overlapping edits")

// Edit replaces the bytes in [Start, End) with Text.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Apply returns a copy of src with edits applied. Offsets refer to the
// original buffer, which is never modified.
func Apply(src []byte, edits []Edit) ([]byte, error) {
	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	for i, e := range sorted {
		if e.Start < 0 || e.End > len(src) || e.Start > e.End {
			return nil, fmt.Errorf("edit %d..%d out of bounds (len %d)", e.Start, e.End, len(src))
		}
		if i > 0 && sorted[i-1].End > e.Start {
			return nil, fmt.Errorf("%w: %d..%d and %d..%d", ErrOverlap, sorted[i-1].Start, sorted[i-1].End, e.Start, e.End)
		}
	}

	// splice from the back so earlier offsets stay valid
	out := append([]byte(nil), src...)
	for i := len(sorted) - 1; i >= 0; i-- {
		e := sorted[i]
		tail := append([]byte(e.Text), out[e.End:]...)
		out = append(out[:e.Start], tail...)
	}
	return out, nil
}

// Kind selects the replacement call.
type Kind int

const (
	Styled Kind = iota
	ClassName
)

// Entry is one exported entity to rewrite.
type Entry struct {
	Kind        Kind
	Declaration locate.Declaration
	ClassNames  string
	// ClientProps is the JSON metadata passed to the styled runtime.
	ClientProps string
	// CSSImport, when set, is prepended as a side-effect import.
	CSSImport string
}

// Options names the runtime module specifiers.
type Options struct {
	// Module is the specifier authors import from.
	Module string
	// Runtime replaces Module in the rewritten source.
	Runtime string
}

// Minimize rewrites src. Imports of opts.Module are pointed at opts.Runtime;
// everything outside the replaced spans is copied verbatim.
func Minimize(src []byte, entries []Entry, imports []locate.Import, opts Options) ([]byte, error) {
	edits := make([]Edit, 0, len(entries)+len(imports))

	for _, e := range entries {
		text, err := replacement(src, e)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Declaration.Name, err)
		}
		edits = append(edits, Edit{Start: e.Declaration.Declarator.Start, End: e.Declaration.Declarator.End, Text: text})
	}

	if opts.Module != "" && opts.Runtime != "" {
		for _, imp := range imports {
			if imp.Source == opts.Module {
				edits = append(edits, Edit{Start: imp.Range.Start, End: imp.Range.End, Text: opts.Runtime})
			}
		}
	}

	out, err := Apply(src, edits)
	if err != nil {
		return nil, err
	}

	var header bytes.Buffer
	seen := make(map[string]bool)
	for _, e := range entries {
		if e.CSSImport == "" || seen[e.CSSImport] {
			continue
		}
		seen[e.CSSImport] = true
		header.WriteString("import " + strconv.Quote(e.CSSImport) + ";\n")
	}
	if header.Len() == 0 {
		return out, nil
	}
	return append(header.Bytes(), out...), nil
}

func replacement(src []byte, e Entry) (string, error) {
	d := e.Declaration
	callee := d.Callee
	classes := strconv.Quote(e.ClassNames)

	switch e.Kind {
	case ClassName:
		if callee == "" {
			callee = "className"
		}
		return d.Name + " = " + callee + "(" + classes + ")", nil
	default:
		if len(d.Args) == 0 {
			return "", errors.New("styled declaration has no tag argument")
		}
		if callee == "" {
			callee = "styled"
		}
		props := e.ClientProps
		if props == "" {
			props = "{}"
		}
		return d.Name + " = " + callee + "(" + d.Args[0].Text(src) + ", " + classes + ", " + props + ")", nil
	}
}
