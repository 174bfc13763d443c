package stylec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yacobolo/stylec/internal/config"
)

// ensureResolved returns the resolved config of the last full build, loading
// it from the config cache when this process has not built yet.
func (c *Compiler) ensureResolved() (*resolvedConfig, error) {
	cache, err := config.LoadCache(c.OutputDir())
	if err != nil {
		return nil, err
	}
	if rc := c.current(); rc != nil {
		return rc, nil
	}
	rc, err := resolve(c.cfg.With(cache.Definition), cache.ConfigFiles)
	if err != nil {
		return nil, err
	}
	c.setResolved(rc)
	return rc, nil
}

// CompileOne recompiles a single style file against the cached config and
// updates its outputs. Aggregate files are only appended to, so running it
// twice for the same source leaves them unchanged. It returns the written CSS
// files relative to the output directory.
func (c *Compiler) CompileOne(ctx context.Context, path string) ([]string, error) {
	path = c.abs(path)
	if !c.IsStyleFile(path) {
		return nil, fmt.Errorf("%w: %s", ErrNotStyleFile, path)
	}
	rc, err := c.ensureResolved()
	if err != nil {
		return nil, err
	}

	unlock := c.lock(path)
	defer unlock()

	f, err := c.sourceFile(path)
	if err != nil {
		return nil, &FileError{Path: c.rel(path), Err: err}
	}
	u, err := c.compileFile(ctx, f, rc.env)
	if err != nil {
		return nil, err
	}

	out := c.OutputDir()
	rendered, renderErrs := c.render(u, rc)
	files, err := writeEntities(out, rendered)
	if err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(out, JSDir, BundleName(u.file.Rel)), u.bundle); err != nil {
		return nil, err
	}

	switch rc.cfg.ImportStrategy {
	case config.StrategyComponent:
		if len(rendered) > 0 {
			manifest, err := c.writeManifest(out, u.file.Rel, rendered)
			if err != nil {
				return nil, err
			}
			files = append(files, manifest)
			if err := c.appendImports(out, []string{manifest}); err != nil {
				return nil, err
			}
		}
	default:
		touched, err := c.appendLayers(out, rendered)
		if err != nil {
			return nil, err
		}
		priorities := make(map[int]bool, len(touched))
		for _, p := range touched {
			priorities[p] = true
		}
		layers := layerTargets(priorities)
		files = append(files, layers...)
		if err := c.appendImports(out, layers); err != nil {
			return nil, err
		}
	}

	for _, issue := range c.checkVariables(ctx, u, rendered, rc.known) {
		c.log.Warn(issue.Text, zap.String("path", issue.Pos.Filename), zap.String("entity", issue.Entity))
	}

	m, err := c.minimize(ctx, u, rc)
	switch {
	case err != nil:
		renderErrs = append(renderErrs, err)
	case m.ok:
		if err := writeMinimized(out, u.file.Rel, m.text); err != nil {
			return nil, err
		}
	}

	c.log.Debug("recompiled", zap.String("path", u.file.Rel), zap.Strings("files", files))
	return files, multierr.Combine(renderErrs...)
}

// ShouldInvalidate reports whether a change to path requires a full build:
// the project config, .env, a cached config-bearing file or any file calling
// a define function.
func (c *Compiler) ShouldInvalidate(path string) bool {
	path = c.abs(path)
	if path == c.cfg.Path || filepath.Base(path) == ".env" {
		return true
	}
	rel := c.rel(path)
	if rc := c.current(); rc != nil && rc.configFiles[rel] {
		return true
	}
	if cache, err := config.LoadCache(c.OutputDir()); err == nil && cache.HasConfigFile(rel) {
		return true
	}
	if !c.IsStyleFile(path) {
		return false
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return defineCall.Match(src)
}
