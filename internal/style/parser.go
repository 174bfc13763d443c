// Package style turns style descriptions into CSS text.
//
// A description is an ordered tree (see Object). Keys are either CSS
// properties with primitive values or selectors with nested descriptions:
//
//	variants          sibling rules at {scope}.{axis}-{value}
//	compoundVariants  sibling rules at {scope}.{a}-{x}.{b}-{y}
//	defaultVariants   ignored
//	@media ...        same scope, wrapped in the at-rule
//	&:hover, & + &    & replaced with the scope
//	:hover            appended to the scope
//	span, .icon       descendant of the scope
//
// Property values are token-resolved ({colors.brand}), passed through the
// configured modifiers and, for numeric lengths, given a unit.
package style

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yacobolo/stylec/internal/casing"
)

// ErrTemplateNotFound is returned when a template reference names a path that
// the template registry does not contain.
var ErrTemplateNotFound = errors.New("template not found")

// Reserved keys of a style description.
const (
	KeyBase             = "base"
	KeyVariants         = "variants"
	KeyCompoundVariants = "compoundVariants"
	KeyDefaultVariants  = "defaultVariants"
	KeyCSS              = "css"
)

var vendorPrefixes = []string{"webkit-", "moz-", "ms-", "o-"}

// Parser converts descriptions to CSS using a template registry, value
// modifiers, a default numeric unit and media-query aliases.
type Parser struct {
	Templates    *Object
	Modifiers    []Modifier
	DefaultUnit  string
	MediaQueries map[string]string
}

type parseOptions struct {
	layer    int
	hasLayer bool
}

// ParseOption configures a single Parse call.
type ParseOption func(*parseOptions)

// WithLayer wraps the base rule in @layer l{n}.
func WithLayer(n int) ParseOption {
	return func(o *parseOptions) {
		o.layer = n
		o.hasLayer = true
	}
}

// Parse renders desc scoped to scope. The base rule comes first, followed by
// variant and nested rules in source order, one per line. An empty scope
// renders the base declarations bare, which is how global at-rules such as
// @font-face are expressed.
func (p *Parser) Parse(desc *Object, scope string, opts ...ParseOption) (string, error) {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}

	decls, rules, err := p.walk(desc, scope)
	if err != nil {
		return "", err
	}

	out := make([]string, 0, len(rules)+1)
	if len(decls) > 0 {
		base := formatRule(scope, decls)
		if o.hasLayer {
			base = fmt.Sprintf("@layer l%d { %s }", o.layer, base)
		}
		out = append(out, base)
	}
	out = append(out, rules...)
	return strings.Join(out, "\n"), nil
}

// Declarations renders only the direct declarations of desc, without a
// selector. Nested rules are discarded.
func (p *Parser) Declarations(desc *Object) ([]string, error) {
	decls, _, err := p.walk(desc, "")
	return decls, err
}

func formatRule(scope string, decls []string) string {
	body := strings.Join(decls, " ")
	if scope == "" {
		return body
	}
	return scope + " { " + body + " }"
}

// walk returns the declarations belonging to scope and the rules produced by
// nested selectors, in source order.
func (p *Parser) walk(desc *Object, scope string) ([]string, []string, error) {
	var decls, rules []string

	nested := func(sub *Object, selector string) error {
		css, err := p.Parse(sub, selector)
		if err != nil {
			return err
		}
		if css != "" {
			rules = append(rules, css)
		}
		return nil
	}

	for _, key := range desc.Keys() {
		value, _ := desc.Get(key)
		if Falsy(value) {
			continue
		}

		switch key {
		case KeyDefaultVariants:
			continue
		case KeyVariants:
			variants, ok := value.(*Object)
			if !ok {
				return nil, nil, fmt.Errorf("%s: variants must be an object", scope)
			}
			for _, axis := range variants.Keys() {
				options := variants.Object(axis)
				for _, option := range options.Keys() {
					sub := options.Object(option)
					if sub.Empty() {
						continue
					}
					if err := nested(sub, scope+"."+axis+"-"+option); err != nil {
						return nil, nil, fmt.Errorf("variant %s=%s: %w", axis, option, err)
					}
				}
			}
			continue
		case KeyCompoundVariants:
			entries, ok := value.([]any)
			if !ok {
				return nil, nil, fmt.Errorf("%s: compoundVariants must be a list", scope)
			}
			for i, entry := range entries {
				compound, ok := entry.(*Object)
				if !ok {
					continue
				}
				css := compound.Object(KeyCSS)
				if css.Empty() {
					continue
				}
				if err := nested(css, compoundSelector(scope, compound)); err != nil {
					return nil, nil, fmt.Errorf("compound variant %d: %w", i, err)
				}
			}
			continue
		}

		if sub, ok := value.(*Object); ok {
			if key == KeyBase {
				d, r, err := p.walk(sub, scope)
				if err != nil {
					return nil, nil, err
				}
				decls = append(decls, d...)
				rules = append(rules, r...)
				continue
			}
			if strings.HasPrefix(key, "@") {
				inner, err := p.Parse(sub, scope)
				if err != nil {
					return nil, nil, fmt.Errorf("%s: %w", key, err)
				}
				if inner != "" {
					rules = append(rules, p.atRule(key)+" { "+inner+" }")
				}
				continue
			}
			if err := nested(sub, nestSelector(scope, key)); err != nil {
				return nil, nil, err
			}
			continue
		}

		if s, ok := value.(string); ok && p.isTemplate(key) {
			d, r, err := p.template(key, s, scope)
			if err != nil {
				return nil, nil, err
			}
			decls = append(decls, d...)
			rules = append(rules, r...)
			continue
		}

		d, err := p.declaration(key, value, scope)
		if err != nil {
			return nil, nil, err
		}
		decls = append(decls, d...)
	}

	return decls, rules, nil
}

func (p *Parser) declaration(key string, value any, scope string) ([]string, error) {
	prop := PropertyName(key)

	var text string
	switch v := value.(type) {
	case float64:
		return []string{prop + ":" + FormatNumber(prop, v, p.DefaultUnit) + ";"}, nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if n, ok := item.(float64); ok {
				parts = append(parts, FormatNumber(prop, n, p.DefaultUnit))
				continue
			}
			parts = append(parts, Stringify(item))
		}
		text = strings.Join(parts, ListSeparator(prop))
	default:
		text = Stringify(v)
	}

	text = ResolveTokens(text)
	text, extra, err := ApplyModifiers(text, p.Modifiers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	decls := []string{prop + ":" + text + ";"}
	for _, css := range extra {
		d, _, err := p.walk(css, scope)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		decls = append(decls, d...)
	}
	return decls, nil
}

func (p *Parser) isTemplate(key string) bool {
	_, ok := p.Templates.Get(key)
	return ok
}

func (p *Parser) template(key, path, scope string) ([]string, []string, error) {
	root := p.Templates.Object(key)
	entry, ok := root.Lookup(path)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s.%s", ErrTemplateNotFound, key, path)
	}
	sub, ok := entry.(*Object)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s.%s is not a style object", ErrTemplateNotFound, key, path)
	}
	return p.walk(sub, scope)
}

func (p *Parser) atRule(key string) string {
	if alias, ok := p.MediaQueries[strings.TrimPrefix(key, "@")]; ok {
		return alias
	}
	return key
}

// PropertyName converts a description key to a CSS property name. Keys that
// already start with a dash are kept verbatim; vendor prefixes gain a leading
// dash ("webkitBoxShadow" becomes "-webkit-box-shadow").
func PropertyName(key string) string {
	if strings.HasPrefix(key, "-") {
		return key
	}
	name := casing.DashCase(key)
	for _, prefix := range vendorPrefixes {
		if strings.HasPrefix(name, prefix) {
			return "-" + name
		}
	}
	return name
}

func compoundSelector(scope string, compound *Object) string {
	var b strings.Builder
	b.WriteString(scope)
	for _, axis := range compound.Keys() {
		if axis == KeyCSS {
			continue
		}
		v, _ := compound.Get(axis)
		b.WriteString("." + axis + "-" + Stringify(v))
	}
	return b.String()
}

// nestSelector combines scope with a nested key. Both sides may be selector
// lists; every combination is produced.
func nestSelector(scope, key string) string {
	keys := splitList(key)
	scopes := splitList(scope)
	if len(scopes) == 0 {
		scopes = []string{""}
	}

	var out []string
	for _, s := range scopes {
		for _, k := range keys {
			switch {
			case strings.Contains(k, "&"):
				out = append(out, strings.ReplaceAll(k, "&", s))
			case strings.HasPrefix(k, ":"):
				out = append(out, s+k)
			case s == "":
				out = append(out, k)
			default:
				out = append(out, s+" "+k)
			}
		}
	}
	return strings.Join(out, ", ")
}

// splitList splits a selector list on top-level commas; commas inside
// parentheses or brackets, as in :is(a, b), do not split.
func splitList(s string) []string {
	var out []string
	depth, start := 0, 0
	flush := func(end int) {
		if part := strings.TrimSpace(s[start:end]); part != "" {
			out = append(out, part)
		}
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(s))
	return out
}
