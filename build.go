package stylec

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yacobolo/stylec/internal/config"
)

// GenerateAll rebuilds the whole output directory. Failures of single files
// are collected in the result; the returned error is reserved for config
// resolution and output writes.
func (c *Compiler) GenerateAll(ctx context.Context) (*Result, error) {
	start := time.Now()
	out := c.OutputDir()
	res := &Result{}

	if err := prepareOutput(out); err != nil {
		return nil, err
	}

	files, stats, err := c.discover()
	if err != nil {
		return nil, fmt.Errorf("walking project: %w", err)
	}
	res.FilesScanned = stats.FilesScanned
	c.log.Debug("discovered style files",
		zap.Int("discovered", stats.FilesDiscovered),
		zap.Int("scanned", stats.FilesScanned),
		zap.Int("skipped", stats.FilesSkipped))

	var configFiles []sourceFile
	for _, f := range files {
		if f.Config {
			configFiles = append(configFiles, f)
		}
	}

	// config-bearing files run against the static config; their define
	// exports then extend it for everything else
	static, err := resolve(c.cfg, nil)
	if err != nil {
		return nil, err
	}
	configUnits, errs := c.compileAll(ctx, configFiles, static)
	res.Errors = append(res.Errors, errs...)

	var def config.Definition
	compiled := make(map[string]bool, len(configUnits))
	for _, u := range configUnits {
		def.Merge(u.definition)
		compiled[u.file.Rel] = true
	}
	var remaining []sourceFile
	for _, f := range files {
		if f.Config {
			res.ConfigFiles = append(res.ConfigFiles, f.Rel)
			if !compiled[f.Rel] {
				// already reported
				continue
			}
		}
		remaining = append(remaining, f)
	}
	sort.Strings(res.ConfigFiles)

	rc, err := resolve(c.cfg.With(def), res.ConfigFiles)
	if err != nil {
		return nil, err
	}
	c.setResolved(rc)

	reserved, err := writeConfigOutputs(out, rc)
	if err != nil {
		return nil, err
	}
	res.CSSFiles = append(res.CSSFiles, reserved...)
	if err := config.SaveCache(out, &config.Cache{ConfigFiles: res.ConfigFiles, Definition: def}); err != nil {
		return nil, err
	}

	// config files may also export components; re-evaluate them under the
	// resolved config with everything else
	styleUnits, errs := c.compileAll(ctx, remaining, rc)
	res.Errors = append(res.Errors, errs...)

	targets := append([]string(nil), reserved...)
	priorities := make(map[int]bool)
	maxPriority := 0
	for _, u := range styleUnits {
		rendered, errs := c.render(u, rc)
		res.Errors = append(res.Errors, errs...)
		res.Issues = append(res.Issues, c.checkVariables(ctx, u, rendered, rc.known)...)
		res.Entities += len(rendered)

		written, err := writeEntities(out, rendered)
		if err != nil {
			return nil, err
		}
		res.CSSFiles = append(res.CSSFiles, written...)
		if err := writeFile(filepath.Join(out, JSDir, BundleName(u.file.Rel)), u.bundle); err != nil {
			return nil, err
		}

		for _, r := range rendered {
			p := r.entity.Priority()
			priorities[p] = true
			if p > maxPriority {
				maxPriority = p
			}
		}
		switch rc.cfg.ImportStrategy {
		case config.StrategyComponent:
			if len(rendered) == 0 {
				continue
			}
			manifest, err := c.writeManifest(out, u.file.Rel, rendered)
			if err != nil {
				return nil, err
			}
			res.CSSFiles = append(res.CSSFiles, manifest)
			targets = append(targets, manifest)
		default:
			if _, err := c.appendLayers(out, rendered); err != nil {
				return nil, err
			}
		}
	}
	if rc.cfg.ImportStrategy != config.StrategyComponent {
		layers := layerTargets(priorities)
		targets = append(targets, layers...)
		res.CSSFiles = append(res.CSSFiles, layers...)
	}
	res.Layers = len(priorities)

	results, errs := c.minimizeAll(ctx, styleUnits, rc)
	for i, u := range styleUnits {
		m := results[i]
		if errs[i] != nil {
			res.Errors = append(res.Errors, errs[i])
			continue
		}
		if m.issue != nil {
			res.Issues = append(res.Issues, *m.issue)
			continue
		}
		if err := writeMinimized(out, u.file.Rel, m.text); err != nil {
			return nil, err
		}
		res.Minimized++
	}

	if err := c.writeIndex(out, maxPriority, targets); err != nil {
		return nil, err
	}
	res.CSSFiles = append(res.CSSFiles, IndexFile)

	for _, err := range res.Errors {
		c.log.Error("build error", zap.Error(err))
		res.Issues = append(res.Issues, errorIssue(err))
	}
	res.Duration = time.Since(start)
	c.log.Info("build finished",
		zap.Int("files", res.FilesScanned),
		zap.Int("entities", res.Entities),
		zap.Int("errors", len(res.Errors)),
		zap.Duration("took", res.Duration))
	return res, nil
}

// compileAll compiles files concurrently. A failing file never cancels its
// siblings. Units are returned in input order.
func (c *Compiler) compileAll(ctx context.Context, files []sourceFile, rc *resolvedConfig) ([]*unit, []error) {
	units := make([]*unit, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, f := range files {
		g.Go(func() error {
			u, err := c.compileFile(ctx, f, rc.env)
			if err != nil {
				errs[i] = err
				return nil
			}
			units[i] = u
			return nil
		})
	}
	_ = g.Wait()

	var outUnits []*unit
	var outErrs []error
	for i := range files {
		if errs[i] != nil {
			outErrs = append(outErrs, errs[i])
		} else if units[i] != nil {
			outUnits = append(outUnits, units[i])
		}
	}
	return outUnits, outErrs
}

// minimizeAll rewrites units concurrently. Results are indexed like units.
func (c *Compiler) minimizeAll(ctx context.Context, units []*unit, rc *resolvedConfig) ([]minimized, []error) {
	results := make([]minimized, len(units))
	errs := make([]error, len(units))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, u := range units {
		g.Go(func() error {
			results[i], errs[i] = c.minimize(ctx, u, rc)
			return nil
		})
	}
	_ = g.Wait()
	return results, errs
}
