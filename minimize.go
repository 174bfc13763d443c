package stylec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/yacobolo/stylec/internal/generator"
	"github.com/yacobolo/stylec/internal/hash"
	"github.com/yacobolo/stylec/internal/locate"
	"github.com/yacobolo/stylec/internal/module"
	"github.com/yacobolo/stylec/internal/report"
	"github.com/yacobolo/stylec/internal/rewrite"
)

// RuntimeImport replaces imports of the authoring module in minimized
// sources.
const RuntimeImport = module.RuntimeModule + "/runtime"

// MinDir holds minimized sources below the js output directory.
const MinDir = "min"

// minimized is the outcome of rewriting one file.
type minimized struct {
	text  string
	ok    bool
	issue *report.Issue
}

// MinimizeSource returns the rewritten text of a style file. The boolean is
// false for files that are not style files and for files with a declaration
// that cannot be located; the caller then keeps the original source.
func (c *Compiler) MinimizeSource(ctx context.Context, path string) (string, bool, error) {
	path = c.abs(path)
	if !c.IsStyleFile(path) {
		return "", false, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return "", false, err
	}
	key := minimizedKey(c.rel(path), src)
	if m, ok := c.minimized.Get(key); ok {
		return m.text, m.ok, nil
	}

	rc, err := c.ensureResolved()
	if err != nil {
		return "", false, err
	}
	f, err := c.sourceFile(path)
	if err != nil {
		return "", false, err
	}
	u, err := c.compileFile(ctx, f, rc.env)
	if err != nil {
		return "", false, err
	}
	m, err := c.minimize(ctx, u, rc)
	if err != nil {
		return "", false, err
	}
	return m.text, m.ok, nil
}

func minimizedKey(rel string, src []byte) string {
	return rel + ":" + hash.Content(src)
}

// minimize rewrites the generators of u and caches the result.
func (c *Compiler) minimize(ctx context.Context, u *unit, rc *resolvedConfig) (minimized, error) {
	m, err := c.rewrite(ctx, u, rc)
	if err != nil {
		return m, err
	}
	c.minimized.Add(minimizedKey(u.file.Rel, u.src), minimizedSource{text: m.text, ok: m.ok})
	return m, nil
}

func (c *Compiler) rewrite(ctx context.Context, u *unit, rc *resolvedConfig) (minimized, error) {
	lang := locate.LanguageFor(u.file.Path)
	cssImport := c.cssImportFor(rc.cfg, u.file)

	var entries []rewrite.Entry
	for _, e := range u.entities {
		g, ok := e.(*generator.Generator)
		if !ok {
			continue
		}
		decl, err := c.locator.Find(ctx, u.src, lang, g.Name)
		if err != nil {
			if IsUnresolved(err) {
				c.log.Warn("skipping minimization, declaration not resolved",
					zap.String("path", u.file.Rel),
					zap.String("name", g.Name),
					zap.Error(err))
				issue := unresolvedIssue(u.file.Rel, g.Name, err)
				return minimized{issue: &issue}, nil
			}
			return minimized{}, &FileError{Path: u.file.Rel, Entity: g.Name, Err: err}
		}

		props, err := g.ClientProps().JSON()
		if err != nil {
			return minimized{}, &FileError{Path: u.file.Rel, Entity: g.Name, Err: err}
		}
		kind := rewrite.Styled
		if g.Kind == generator.ClassName {
			kind = rewrite.ClassName
		}
		entries = append(entries, rewrite.Entry{
			Kind:        kind,
			Declaration: decl,
			ClassNames:  g.ClassNames(),
			ClientProps: props,
			CSSImport:   cssImport,
		})
	}

	imports, err := c.locator.Imports(ctx, u.src, lang)
	if err != nil {
		if IsUnresolved(err) {
			issue := unresolvedIssue(u.file.Rel, "", err)
			return minimized{issue: &issue}, nil
		}
		return minimized{}, &FileError{Path: u.file.Rel, Err: err}
	}

	out, err := rewrite.Minimize(u.src, entries, imports, rewrite.Options{
		Module:  module.RuntimeModule,
		Runtime: RuntimeImport,
	})
	if err != nil {
		return minimized{}, &FileError{Path: u.file.Rel, Err: fmt.Errorf("rewriting: %w", err)}
	}
	return minimized{text: string(out), ok: true}, nil
}

// writeMinimized stores a minimized source below js/min, mirroring the
// project layout.
func writeMinimized(out, rel, text string) error {
	return writeFile(filepath.Join(out, JSDir, MinDir, filepath.FromSlash(rel)), []byte(text))
}
