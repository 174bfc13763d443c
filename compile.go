package stylec

import (
	"context"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/yacobolo/stylec/internal/config"
	"github.com/yacobolo/stylec/internal/generator"
	"github.com/yacobolo/stylec/internal/module"
)

// unit is one compiled style file.
type unit struct {
	file   sourceFile
	src    []byte
	bundle []byte
	// entities are in declaration order.
	entities   []generator.Entity
	generators map[string]*generator.Generator
	definition config.Definition
}

// compileFile bundles and evaluates one style file and classifies its
// exports.
func (c *Compiler) compileFile(ctx context.Context, f sourceFile, env *module.Env) (*unit, error) {
	src, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, &FileError{Path: f.Rel, Err: err}
	}
	code, err := c.bundler.Bundle(ctx, f.Path)
	if err != nil {
		return nil, &FileError{Path: f.Rel, Err: err}
	}
	mod, err := c.registry.Evaluate(ctx, f.Rel, code, env)
	if err != nil {
		return nil, &FileError{Path: f.Rel, Err: err}
	}

	u := &unit{file: f, src: src, bundle: code}
	c.classify(u, mod)
	c.log.Debug("compiled",
		zap.String("path", f.Rel),
		zap.Int("entities", len(u.entities)),
		zap.Bool("config", f.Config))
	return u, nil
}

// classify turns runtime records into generators, keyframes and config
// definitions, in the order the records were created. Generators extending another are linked by record identity,
// so a parent declared in another module still contributes its priority.
func (c *Compiler) classify(u *unit, mod *module.Module) {
	u.generators = make(map[string]*generator.Generator)
	built := make(map[*module.Record]*generator.Generator)

	var generatorFor func(r *module.Record) *generator.Generator
	generatorFor = func(r *module.Record) *generator.Generator {
		if g, ok := built[r]; ok {
			return g
		}
		g := &generator.Generator{Kind: generator.Styled, Params: r.Params}
		if r.Kind == module.KindClassName {
			g.Kind = generator.ClassName
		}
		built[r] = g
		switch tag := r.Tag.(type) {
		case string:
			g.Tag = tag
		case *module.Record:
			g.Parent = generatorFor(tag)
		}
		return g
	}

	records := mod.Records()
	sort.SliceStable(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	for _, rec := range records {
		switch rec.Kind {
		case module.KindStyled, module.KindClassName:
			g := generatorFor(rec.Record)
			if g.Name != "" && g.Name != rec.Name {
				// the same record exported under a second name
				alias := *g
				g = &alias
			}
			g.Name = rec.Name
			u.generators[rec.Name] = g
			u.entities = append(u.entities, g)
		case module.KindKeyframes:
			u.entities = append(u.entities, &generator.Keyframes{
				Name:          rec.Name,
				AnimationName: rec.Record.Name,
				Frames:        rec.Params,
			})
		case module.KindVariables:
			u.definition.Merge(config.Definition{Variables: rec.Params})
		case module.KindTemplates:
			u.definition.Merge(config.Definition{Templates: rec.Params})
		case module.KindGlobalStyles:
			u.definition.Merge(config.Definition{Global: rec.Params})
		case module.KindMediaQuery:
			u.definition.Merge(config.Definition{MediaQueries: map[string]string{rec.Name: rec.Query}})
		}
	}
}

// renderedEntity is one entity with its CSS.
type renderedEntity struct {
	entity generator.Entity
	file   string
	css    string
}

// render produces the CSS of every entity in u. A failing entity is
// reported and skipped; the rest of the file still renders.
func (c *Compiler) render(u *unit, rc *resolvedConfig) ([]renderedEntity, []error) {
	var out []renderedEntity
	var errs []error
	for _, e := range u.entities {
		css, err := e.CSS(rc.parser)
		if err != nil {
			errs = append(errs, &FileError{Path: u.file.Rel, Entity: e.Identifier(), Err: err})
			continue
		}
		out = append(out, renderedEntity{entity: e, file: e.CSSFileName(), css: css})
	}
	return out, errs
}
