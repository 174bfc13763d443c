// Package generator derives identity, cascade priority, file names, client
// metadata and CSS for the entities exported by style files.
package generator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/yacobolo/stylec/internal/casing"
	"github.com/yacobolo/stylec/internal/hash"
	"github.com/yacobolo/stylec/internal/style"
)

// HashLength is the digest length used for class names.
const HashLength = 3

// Kind distinguishes tag-based generators from class-name-only generators.
type Kind int

const (
	Styled Kind = iota
	ClassName
)

func (k Kind) String() string {
	if k == ClassName {
		return "className"
	}
	return "styled"
}

// Entity is anything that produces one CSS file.
type Entity interface {
	Identifier() string
	Hash() string
	Priority() int
	CSSFileName() string
	CSS(p *style.Parser) (string, error)
}

// Generator wraps a style description exported under Name. Tag is the
// element name for bare tags; Parent is set when the generator extends another.
type Generator struct {
	Name   string
	Kind   Kind
	Tag    string
	Parent *Generator
	Params *style.Object
}

// Identifier returns the export name.
func (g *Generator) Identifier() string { return g.Name }

// Hash is the content hash of the base description. Variants and compound
// variants do not contribute. A generator without base styles is hashed by
// its whole description so unrelated generators do not share a class.
func (g *Generator) Hash() string {
	base := g.Params.Object(style.KeyBase)
	if base.Empty() {
		return hash.Hash(g.Params.Canonical(), HashLength)
	}
	return hash.Hash(base.Canonical(), HashLength)
}

// Priority is the inheritance depth: 0 for a bare tag or a class name,
// parent priority plus one when extending another generator.
func (g *Generator) Priority() int {
	if g.Kind == ClassName || g.Parent == nil {
		return 0
	}
	return g.Parent.Priority() + 1
}

// ClassNames is the hash followed by the user-supplied className, if any.
func (g *Generator) ClassNames() string {
	names := []string{g.Hash()}
	if v, ok := g.Params.Get("className"); ok {
		if s := strings.TrimSpace(style.Stringify(v)); s != "" {
			names = append(names, s)
		}
	}
	return strings.Join(names, " ")
}

// CSSFileName combines the dash-cased export name, the hash and the priority.
func (g *Generator) CSSFileName() string {
	return FileName(g.Name, g.Hash(), g.Priority())
}

// FileName is the per-entity CSS file name shared by all entity kinds.
func FileName(name, digest string, priority int) string {
	base := slug.Make(casing.DashCase(name))
	if base == "" {
		base = "entity"
	}
	return base + "-" + digest + "-" + strconv.Itoa(priority) + ".css"
}

// CSS renders base, variants and compound variants scoped to .{hash} at the
// generator's priority layer.
func (g *Generator) CSS(p *style.Parser) (string, error) {
	desc := style.NewObject()
	if base := g.Params.Object(style.KeyBase); base != nil {
		desc.Merge(base)
	}
	for _, key := range []string{style.KeyVariants, style.KeyCompoundVariants} {
		if v, ok := g.Params.Get(key); ok {
			desc.Set(key, v)
		}
	}

	css, err := p.Parse(desc, "."+g.Hash(), style.WithLayer(g.Priority()))
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", g.Kind, g.Name, err)
	}
	return css, nil
}

// ClientProps is the metadata the runtime needs to map props to classes and
// custom properties once the description itself has been stripped.
type ClientProps struct {
	Element       string        `json:"element,omitempty"`
	VariantKeys   []string      `json:"variantKeys,omitempty"`
	PropValueKeys []string      `json:"propValueKeys,omitempty"`
	DefaultProps  *style.Object `json:"defaultProps,omitempty"`
	PassProps     any           `json:"passProps,omitempty"`
}

// JSON encodes the props for embedding in rewritten source.
func (c ClientProps) JSON() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var propsPlaceholder = regexp.MustCompile(`\{props\.([\w$-]+)\}`)

// ClientProps derives the runtime metadata.
func (g *Generator) ClientProps() ClientProps {
	var props ClientProps

	if v, ok := g.Params.Get("element"); ok {
		props.Element = style.Stringify(v)
	}

	defaults := g.Params.Object(style.KeyDefaultVariants)
	seen := make(map[string]bool)
	addAxis := func(axis string) {
		if seen[axis] {
			return
		}
		seen[axis] = true
		key := axis
		if v, ok := defaults.Get(axis); ok && v != nil {
			key += "=" + style.Stringify(v)
		}
		props.VariantKeys = append(props.VariantKeys, key)
	}
	for _, axis := range g.Params.Object(style.KeyVariants).Keys() {
		addAxis(axis)
	}
	if compounds, ok := g.Params.Get(style.KeyCompoundVariants); ok {
		list, _ := compounds.([]any)
		for _, entry := range list {
			compound, _ := entry.(*style.Object)
			for _, axis := range compound.Keys() {
				if axis != style.KeyCSS {
					addAxis(axis)
				}
			}
		}
	}

	if base := g.Params.Object(style.KeyBase); base != nil {
		if data, err := base.MarshalJSON(); err == nil {
			found := make(map[string]bool)
			for _, m := range propsPlaceholder.FindAllStringSubmatch(string(data), -1) {
				if !found[m[1]] {
					found[m[1]] = true
					props.PropValueKeys = append(props.PropValueKeys, m[1])
				}
			}
		}
	}

	if d := g.Params.Object("defaultProps"); !d.Empty() {
		props.DefaultProps = d
	}

	passProps, _ := g.Params.Get("passProps")
	switch v := passProps.(type) {
	case bool:
		if v {
			props.PassProps = true
		}
	case []any:
		if len(v) > 0 {
			props.PassProps = v
		}
	case string:
		if v != "" {
			props.PassProps = []any{v}
		}
	}

	return props
}
