// Package locate finds top-level declarations and import specifiers in
// JavaScript and TypeScript source using a tree-sitter syntax tree, so that
// names inside strings, comments and nested scopes are never matched.
package locate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
	"go.uber.org/zap"

	"github.com/yacobolo/stylec/internal/hash"
)

var (
	// ErrNotFound is returned when no top-level declaration binds the name.
	ErrNotFound = errors.New("declaration not found")
	// ErrTimeout is returned when parsing exceeds the time budget or the
	// context is done first.
	ErrTimeout = errors.New("declaration lookup timed out")
)

// DefaultBudget bounds a single parse.
const DefaultBudget = 5 * time.Second

const defaultCacheSize = 256

// Language selects the grammar.
type Language int

const (
	TSX Language = iota
	TypeScript
)

func (l Language) String() string {
	if l == TypeScript {
		return "typescript"
	}
	return "tsx"
}

// LanguageFor picks the grammar for a file. Plain TypeScript files use the
// TypeScript grammar, where <T>x is a cast; everything else parses as TSX,
// which also accepts plain JavaScript and JSX.
func LanguageFor(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return TypeScript
	}
	return TSX
}

// Range is a half-open byte range.
type Range struct {
	Start int
	End   int
}

// Text returns the source text covered by r.
func (r Range) Text(src []byte) string {
	return string(src[r.Start:r.End])
}

// Declaration is one top-level variable declarator.
type Declaration struct {
	Name       string
	Exported   bool
	Statement  Range
	Declarator Range
	// Value is the initializer with type assertions and parentheses removed.
	Value Range
	// Callee and Args are set when the initializer is a call expression.
	Callee string
	Args   []Range
	Line   int
	Column int
}

// Import is a module specifier of an import or re-export statement. Range
// covers the specifier text without its quotes.
type Import struct {
	Source string
	Range  Range
	Line   int
}

type table struct {
	decls   []Declaration
	imports []Import
}

// Locator parses sources and caches their declaration tables by content.
type Locator struct {
	budget time.Duration
	cache  *lru.Cache[string, *table]
	log    *zap.Logger
}

// Option configures a Locator.
type Option func(*Locator)

// WithBudget sets the time budget for one parse.
func WithBudget(d time.Duration) Option {
	return func(l *Locator) { l.budget = d }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(l *Locator) {
		if log != nil {
			l.log = log.Named("locate")
		}
	}
}

// New creates a Locator.
func New(opts ...Option) *Locator {
	l := &Locator{budget: DefaultBudget, log: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	cache, err := lru.New[string, *table](defaultCacheSize)
	if err != nil {
		panic(err)
	}
	l.cache = cache
	return l
}

// Find returns the top-level declaration bound to name.
func (l *Locator) Find(ctx context.Context, src []byte, lang Language, name string) (Declaration, error) {
	t, err := l.table(ctx, src, lang)
	if err != nil {
		return Declaration{}, err
	}
	for _, d := range t.decls {
		if d.Name == name {
			return d, nil
		}
	}
	return Declaration{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Declarations returns every top-level declarator in source order.
func (l *Locator) Declarations(ctx context.Context, src []byte, lang Language) ([]Declaration, error) {
	t, err := l.table(ctx, src, lang)
	if err != nil {
		return nil, err
	}
	return append([]Declaration(nil), t.decls...), nil
}

// Imports returns the module specifiers of top-level import and re-export
// statements in source order.
func (l *Locator) Imports(ctx context.Context, src []byte, lang Language) ([]Import, error) {
	t, err := l.table(ctx, src, lang)
	if err != nil {
		return nil, err
	}
	return append([]Import(nil), t.imports...), nil
}

func (l *Locator) table(ctx context.Context, src []byte, lang Language) (*table, error) {
	key := lang.String() + ":" + hash.Content(src)
	if t, ok := l.cache.Get(key); ok {
		return t, nil
	}

	t, err := l.parse(ctx, src, lang)
	if err != nil {
		return nil, err
	}
	l.cache.Add(key, t)
	return t, nil
}

func (l *Locator) parse(ctx context.Context, src []byte, lang Language) (*table, error) {
	ctx, cancel := context.WithTimeout(ctx, l.budget)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	parser := sitter.NewParser()
	defer parser.Close()

	grammar := typescript.LanguageTSX()
	if lang == TypeScript {
		grammar = typescript.LanguageTypescript()
	}
	if err := parser.SetLanguage(sitter.NewLanguage(grammar)); err != nil {
		return nil, fmt.Errorf("loading %s grammar: %w", lang, err)
	}

	started := time.Now()
	tree := parser.ParseWithOptions(func(i int, _ sitter.Point) []byte {
		if i < len(src) {
			return src[i:]
		}
		return nil
	}, nil, &sitter.ParseOptions{
		ProgressCallback: func(sitter.ParseState) bool {
			return ctx.Err() != nil
		},
	})
	if tree == nil {
		return nil, fmt.Errorf("%w after %s: %w", ErrTimeout, time.Since(started).Round(time.Millisecond), ctx.Err())
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	root := tree.RootNode()
	if root.HasError() {
		l.log.Debug("source has syntax errors", zap.String("language", lang.String()))
	}

	t := &table{}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Kind() {
		case "export_statement":
			if decl := stmt.ChildByFieldName("declaration"); decl != nil && isVariableStatement(decl) {
				t.decls = append(t.decls, declarators(decl, stmt, true, src)...)
			}
			if source := stmt.ChildByFieldName("source"); source != nil {
				t.imports = append(t.imports, specifier(source, src))
			}
		case "lexical_declaration", "variable_declaration":
			t.decls = append(t.decls, declarators(stmt, stmt, false, src)...)
		case "import_statement":
			if source := stmt.ChildByFieldName("source"); source != nil {
				t.imports = append(t.imports, specifier(source, src))
			}
		}
	}

	l.log.Debug("parsed source",
		zap.String("language", lang.String()),
		zap.Int("declarations", len(t.decls)),
		zap.Duration("took", time.Since(started)))
	return t, nil
}

func isVariableStatement(n *sitter.Node) bool {
	return n.Kind() == "lexical_declaration" || n.Kind() == "variable_declaration"
}

func declarators(decl, stmt *sitter.Node, exported bool, src []byte) []Declaration {
	var out []Declaration
	for i := uint(0); i < decl.NamedChildCount(); i++ {
		child := decl.NamedChild(i)
		if child.Kind() != "variable_declarator" {
			continue
		}
		name := child.ChildByFieldName("name")
		if name == nil || name.Kind() != "identifier" {
			continue
		}

		pos := name.StartPosition()
		d := Declaration{
			Name:       name.Utf8Text(src),
			Exported:   exported,
			Statement:  nodeRange(stmt),
			Declarator: nodeRange(child),
			Line:       int(pos.Row) + 1,
			Column:     int(pos.Column) + 1,
		}

		if value := unwrap(child.ChildByFieldName("value")); value != nil {
			d.Value = nodeRange(value)
			if value.Kind() == "call_expression" {
				if fn := value.ChildByFieldName("function"); fn != nil {
					d.Callee = fn.Utf8Text(src)
				}
				if args := value.ChildByFieldName("arguments"); args != nil {
					for j := uint(0); j < args.NamedChildCount(); j++ {
						arg := args.NamedChild(j)
						if arg.Kind() == "comment" {
							continue
						}
						d.Args = append(d.Args, nodeRange(arg))
					}
				}
			}
		}
		out = append(out, d)
	}
	return out
}

// unwrap strips "as", "satisfies", non-null assertions and parentheses.
func unwrap(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Kind() {
		case "as_expression", "satisfies_expression", "non_null_expression", "parenthesized_expression":
			n = n.NamedChild(0)
		default:
			return n
		}
	}
	return nil
}

func specifier(source *sitter.Node, src []byte) Import {
	r := nodeRange(source)
	if r.End-r.Start >= 2 {
		r.Start++
		r.End--
	}
	return Import{
		Source: r.Text(src),
		Range:  r,
		Line:   int(source.StartPosition().Row) + 1,
	}
}

func nodeRange(n *sitter.Node) Range {
	return Range{Start: int(n.StartByte()), End: int(n.EndByte())}
}
