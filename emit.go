package stylec

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gosimple/slug"

	"github.com/yacobolo/stylec/internal/config"
	"github.com/yacobolo/stylec/internal/generator"
)

// Output layout below the output directory.
const (
	IndexFile = "index.css"
	CSSDir    = "css"
	TypesDir  = "types"
	JSDir     = "js"
	CacheDir  = "cache"

	TokensFile = "css-tokens.d.ts"

	// minLayers is the number of priority layers always declared.
	minLayers = 9
)

// reservedFiles are the config stylesheets in cascade order.
var reservedFiles = []string{"_variables.css", "_reset.css", "_global.css", "_templates.css"}

// ManifestName is the per-source-file stylesheet of the component strategy.
func ManifestName(rel string) string {
	return "f-" + slug.Make(rel) + ".css"
}

// LayerName is the per-priority stylesheet of the root strategy.
func LayerName(priority int) string {
	return "_l" + strconv.Itoa(priority) + ".css"
}

// BundleName is the debug copy of a file's bundle.
func BundleName(rel string) string {
	return slug.Make(rel) + ".js"
}

// layerStatement declares the cascade order: reset, global, templates, then
// one layer per priority.
func layerStatement(maxPriority int) string {
	n := minLayers
	if maxPriority+1 > n {
		n = maxPriority + 1
	}
	names := []string{"reset", "global", "templates"}
	for i := 0; i < n; i++ {
		names = append(names, "l"+strconv.Itoa(i))
	}
	return "@layer " + strings.Join(names, ", ") + ";"
}

func importLine(target string) string {
	return "@import " + strconv.Quote(target) + ";"
}

// prepareOutput removes and recreates the output tree.
func prepareOutput(out string) error {
	if err := os.RemoveAll(out); err != nil {
		return fmt.Errorf("removing output dir: %w", err)
	}
	for _, dir := range []string{CSSDir, TypesDir, JSDir, CacheDir} {
		if err := os.MkdirAll(filepath.Join(out, dir), 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}
	return nil
}

func writeFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// writeConfigOutputs writes the reserved stylesheets and the token types.
// It returns the reserved files that have content, in cascade order.
func writeConfigOutputs(out string, rc *resolvedConfig) ([]string, error) {
	cfg := rc.cfg
	variables, err := cfg.VariablesCSS()
	if err != nil {
		return nil, fmt.Errorf("variables: %w", err)
	}
	reset, err := cfg.ResetCSS(rc.parser)
	if err != nil {
		return nil, fmt.Errorf("reset styles: %w", err)
	}
	global, err := cfg.GlobalCSS(rc.parser)
	if err != nil {
		return nil, fmt.Errorf("global styles: %w", err)
	}
	templates, err := cfg.TemplatesCSS(rc.parser)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	var written []string
	for i, css := range []string{variables, reset, global, templates} {
		if strings.TrimSpace(css) == "" {
			continue
		}
		if err := writeFile(filepath.Join(out, CSSDir, reservedFiles[i]), []byte(css+"\n")); err != nil {
			return nil, err
		}
		written = append(written, path.Join(CSSDir, reservedFiles[i]))
	}

	if err := writeFile(filepath.Join(out, TypesDir, TokensFile), []byte(cfg.TypesTS())); err != nil {
		return nil, err
	}
	return written, nil
}

// writeEntities writes one stylesheet per entity and returns their paths
// relative to the output directory.
func writeEntities(out string, rendered []renderedEntity) ([]string, error) {
	files := make([]string, 0, len(rendered))
	for _, r := range rendered {
		if err := writeFile(filepath.Join(out, CSSDir, r.file), []byte(r.css+"\n")); err != nil {
			return nil, err
		}
		files = append(files, path.Join(CSSDir, r.file))
	}
	return files, nil
}

// writeManifest replaces the manifest of one source file.
func (c *Compiler) writeManifest(out, rel string, rendered []renderedEntity) (string, error) {
	name := ManifestName(rel)
	var b strings.Builder
	for _, r := range rendered {
		b.WriteString(importLine("./" + r.file))
		b.WriteByte('\n')
	}
	p := filepath.Join(out, CSSDir, name)
	unlock := c.lock(p)
	defer unlock()
	if err := writeFile(p, []byte(b.String())); err != nil {
		return "", err
	}
	return path.Join(CSSDir, name), nil
}

// fragment identifies entities whose CSS is interchangeable.
func fragment(e generator.Entity) string {
	return e.Hash() + "-" + strconv.Itoa(e.Priority())
}

// appendLayers adds entity blocks to the root strategy layer files, skipping
// fragments a layer already holds. It returns the priorities touched.
func (c *Compiler) appendLayers(out string, rendered []renderedEntity) ([]int, error) {
	byLayer := make(map[int][]renderedEntity)
	for _, r := range rendered {
		p := r.entity.Priority()
		byLayer[p] = append(byLayer[p], r)
	}
	priorities := make([]int, 0, len(byLayer))
	for p := range byLayer {
		priorities = append(priorities, p)
	}
	sort.Ints(priorities)

	for _, p := range priorities {
		if err := c.appendLayer(out, p, byLayer[p]); err != nil {
			return nil, err
		}
	}
	return priorities, nil
}

func (c *Compiler) appendLayer(out string, priority int, rendered []renderedEntity) error {
	p := filepath.Join(out, CSSDir, LayerName(priority))
	unlock := c.lock(p)
	defer unlock()

	existing, err := os.ReadFile(p)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	var b bytes.Buffer
	for _, r := range rendered {
		marker := "-" + fragment(r.entity) + ".css */"
		if bytes.Contains(existing, []byte(marker)) || bytes.Contains(b.Bytes(), []byte(marker)) {
			continue
		}
		fmt.Fprintf(&b, "/* %s */\n%s\n", r.file, r.css)
	}
	if b.Len() == 0 {
		return nil
	}
	return appendBytes(p, b.Bytes())
}

func appendBytes(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// appendImports adds @import lines for targets missing from index.css.
// Targets are relative to the output directory.
func (c *Compiler) appendImports(out string, targets []string) error {
	p := filepath.Join(out, IndexFile)
	unlock := c.lock(p)
	defer unlock()

	existing, err := os.ReadFile(p)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	present := make(map[string]bool)
	for _, line := range strings.Split(string(existing), "\n") {
		present[strings.TrimSpace(line)] = true
	}
	var b strings.Builder
	for _, t := range targets {
		line := importLine("./" + t)
		if present[line] {
			continue
		}
		present[line] = true
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return nil
	}
	return appendBytes(p, []byte(b.String()))
}

// writeIndex replaces index.css with the layer statement followed by imports
// of every target.
func (c *Compiler) writeIndex(out string, maxPriority int, targets []string) error {
	var b strings.Builder
	b.WriteString(layerStatement(maxPriority))
	b.WriteByte('\n')
	for _, t := range targets {
		b.WriteString(importLine("./" + t))
		b.WriteByte('\n')
	}
	p := filepath.Join(out, IndexFile)
	unlock := c.lock(p)
	defer unlock()
	return writeFile(p, []byte(b.String()))
}

// layerTargets lists the layer files for priorities, lowest first.
func layerTargets(priorities map[int]bool) []string {
	sorted := make([]int, 0, len(priorities))
	for p := range priorities {
		sorted = append(sorted, p)
	}
	sort.Ints(sorted)
	targets := make([]string, len(sorted))
	for i, p := range sorted {
		targets[i] = path.Join(CSSDir, LayerName(p))
	}
	return targets
}

// cssImportFor is the side-effect import added to a minimized component
// strategy source, relative to the source file.
func (c *Compiler) cssImportFor(cfg *config.Config, f sourceFile) string {
	if cfg.ImportStrategy != config.StrategyComponent {
		return ""
	}
	manifest := filepath.Join(cfg.OutputPath(), CSSDir, ManifestName(f.Rel))
	rel, err := filepath.Rel(filepath.Dir(f.Path), manifest)
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel
}
