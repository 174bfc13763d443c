package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/yacobolo/stylec/internal/casing"
	"github.com/yacobolo/stylec/internal/style"
)

// Variable tree sections with special meaning.
const (
	KeyResponsive  = "responsive"
	KeyConditional = "conditional"
)

const defaultReset = `*, *::before, *::after { box-sizing:border-box; }
* { margin:0; }
body { line-height:1.5; -webkit-font-smoothing:antialiased; }
img, picture, video, canvas, svg { display:block; max-width:100%; }
input, button, textarea, select { font:inherit; }
p, h1, h2, h3, h4, h5, h6 { overflow-wrap:break-word; }`

// Variable is one flattened custom property.
type Variable struct {
	// Path is the dotted token path, without the responsive or conditional
	// prefix.
	Path  string
	Value string
}

// Name returns the custom property name including the leading dashes.
func (v Variable) Name() string {
	return "--" + style.TokenVariable(v.Path)
}

func (v Variable) declaration() string {
	return v.Name() + ":" + v.Value + ";"
}

// Flatten lists the leaves of a variable tree in source order.
func Flatten(tree *style.Object) []Variable {
	var out []Variable
	flatten(tree, "", &out)
	return out
}

func flatten(tree *style.Object, prefix string, out *[]Variable) {
	for _, k := range tree.Keys() {
		v, _ := tree.Get(k)
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch v := v.(type) {
		case *style.Object:
			flatten(v, path, out)
		case nil:
		case []any:
			parts := make([]string, len(v))
			for i, item := range v {
				parts[i] = style.Stringify(item)
			}
			*out = append(*out, Variable{Path: path, Value: style.ResolveTokens(strings.Join(parts, ", "))})
		default:
			*out = append(*out, Variable{Path: path, Value: style.ResolveTokens(style.Stringify(v))})
		}
	}
}

// staticVariables returns the variable tree without its responsive and
// conditional sections.
func (c *Config) staticVariables() *style.Object {
	out := style.NewObject()
	for _, k := range c.Variables.Keys() {
		if k == KeyResponsive || k == KeyConditional {
			continue
		}
		v, _ := c.Variables.Get(k)
		out.Set(k, v)
	}
	return out
}

// VariablesCSS renders static variables on :root, responsive variables in
// media queries and conditional variables under a class and a data
// attribute: conditional.theme.dark becomes .theme-dark, [data-theme="dark"].
func (c *Config) VariablesCSS() (string, error) {
	var rules []string

	root := Flatten(c.staticVariables())
	responsive := c.Variables.Object(KeyResponsive)
	root = append(root, Flatten(responsive.Object("base"))...)
	if len(root) > 0 {
		rules = append(rules, ":root { "+declarations(root)+" }")
	}

	for _, key := range responsive.Keys() {
		if key == "base" {
			continue
		}
		vars := Flatten(responsive.Object(key))
		if len(vars) == 0 {
			continue
		}
		query, err := c.mediaQuery(key)
		if err != nil {
			return "", fmt.Errorf("variables.responsive: %w", err)
		}
		rules = append(rules, query+" { :root { "+declarations(vars)+" } }")
	}

	conditional := c.Variables.Object(KeyConditional)
	for _, attr := range conditional.Keys() {
		options := conditional.Object(attr)
		for _, option := range options.Keys() {
			vars := Flatten(options.Object(option))
			if len(vars) == 0 {
				continue
			}
			name := casing.DashCase(attr)
			selector := fmt.Sprintf(".%s-%s, [data-%s=%s]", name, option, name, strconv.Quote(option))
			rules = append(rules, selector+" { "+declarations(vars)+" }")
		}
	}

	return strings.Join(rules, "\n"), nil
}

func (c *Config) mediaQuery(key string) (string, error) {
	if strings.HasPrefix(key, "@media") {
		return key, nil
	}
	if q, ok := c.MediaQueries[strings.TrimPrefix(key, "@")]; ok {
		return q, nil
	}
	return "", fmt.Errorf("unknown media query %q", key)
}

func declarations(vars []Variable) string {
	decls := make([]string, len(vars))
	for i, v := range vars {
		decls[i] = v.declaration()
	}
	return strings.Join(decls, " ")
}

// VariableNames returns every custom property declared by the variable tree.
func (c *Config) VariableNames() map[string]bool {
	names := make(map[string]bool)
	for _, v := range c.variables() {
		names[v.Name()] = true
	}
	return names
}

// variables flattens all three sections with their prefixes stripped.
func (c *Config) variables() []Variable {
	vars := Flatten(c.staticVariables())
	responsive := c.Variables.Object(KeyResponsive)
	for _, key := range responsive.Keys() {
		vars = append(vars, Flatten(responsive.Object(key))...)
	}
	conditional := c.Variables.Object(KeyConditional)
	for _, attr := range conditional.Keys() {
		options := conditional.Object(attr)
		for _, option := range options.Keys() {
			vars = append(vars, Flatten(options.Object(option))...)
		}
	}
	return vars
}

// ResetCSS renders the reset stylesheet in the reset layer.
func (c *Config) ResetCSS(p *style.Parser) (string, error) {
	switch c.Reset {
	case ResetNone:
		return "", nil
	case ResetCustom:
		css, err := rules(p, c.ResetStyles)
		if err != nil {
			return "", fmt.Errorf("reset-styles: %w", err)
		}
		return layer("reset", css), nil
	}
	return layer("reset", defaultReset), nil
}

// GlobalCSS renders the global styles in the global layer. Keys are
// selectors or at-rules such as @font-face.
func (c *Config) GlobalCSS(p *style.Parser) (string, error) {
	css, err := rules(p, c.Global)
	if err != nil {
		return "", fmt.Errorf("global: %w", err)
	}
	return layer("global", css), nil
}

// TemplatesCSS renders one class per template entry so templates can also
// be applied by class name: templates.textStyle.headline.large becomes
// .text-style-headline-large.
func (c *Config) TemplatesCSS(p *style.Parser) (string, error) {
	var out []string
	for _, key := range c.Templates.Keys() {
		var err error
		walkTemplates(c.Templates.Object(key), key, func(path string, entry *style.Object) {
			if err != nil {
				return
			}
			var css string
			if css, err = p.Parse(entry, "."+casing.DashCase(path)); err == nil && css != "" {
				out = append(out, css)
			}
		})
		if err != nil {
			return "", fmt.Errorf("templates.%s: %w", key, err)
		}
	}
	return layer("templates", strings.Join(out, "\n")), nil
}

// TemplatePaths lists the dotted entry paths of every template key.
func (c *Config) TemplatePaths() map[string][]string {
	out := make(map[string][]string)
	for _, key := range c.Templates.Keys() {
		walkTemplates(c.Templates.Object(key), "", func(path string, _ *style.Object) {
			out[key] = append(out[key], path)
		})
	}
	return out
}

// walkTemplates visits every object that carries at least one declaration.
func walkTemplates(tree *style.Object, prefix string, visit func(string, *style.Object)) {
	for _, k := range tree.Keys() {
		entry := tree.Object(k)
		if entry == nil {
			continue
		}
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if hasDeclarations(entry) {
			visit(path, entry)
			continue
		}
		walkTemplates(entry, path, visit)
	}
}

func hasDeclarations(o *style.Object) bool {
	for _, k := range o.Keys() {
		if v, _ := o.Get(k); v != nil {
			if _, nested := v.(*style.Object); !nested {
				return true
			}
		}
	}
	return false
}

func rules(p *style.Parser, tree *style.Object) (string, error) {
	var out []string
	for _, selector := range tree.Keys() {
		sub := tree.Object(selector)
		if sub.Empty() {
			continue
		}
		var css string
		var err error
		if strings.HasPrefix(selector, "@") {
			css, err = p.Parse(sub, "")
			if css != "" {
				css = selector + " { " + css + " }"
			}
		} else {
			css, err = p.Parse(sub, selector)
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w", selector, err)
		}
		if css != "" {
			out = append(out, css)
		}
	}
	return strings.Join(out, "\n"), nil
}

func layer(name, css string) string {
	if css == "" {
		return ""
	}
	return "@layer " + name + " {\n" + css + "\n}"
}

// TypesTS renders the token type declarations used for editor completion.
func (c *Config) TypesTS() string {
	var b strings.Builder
	b.WriteString("// Generated by stylec. Do not edit.\n\n")

	seen := make(map[string]bool)
	var tokens []string
	for _, v := range c.variables() {
		if !seen[v.Path] {
			seen[v.Path] = true
			tokens = append(tokens, v.Path)
		}
	}
	b.WriteString("export type VariableToken = " + union(tokens) + ";\n")
	b.WriteString("export type VariableTokenValue = `{${VariableToken}}`;\n\n")

	paths := c.TemplatePaths()
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString("export interface TemplateTokens {\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s?: %s;\n", strconv.Quote(k), union(paths[k]))
	}
	b.WriteString("}\n\n")

	aliases := c.MediaQueryAliases()
	for i, a := range aliases {
		aliases[i] = "@" + a
	}
	b.WriteString("export type MediaQueryKey = " + union(aliases) + ";\n")
	return b.String()
}

func union(values []string) string {
	if len(values) == 0 {
		return "never"
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return strings.Join(quoted, " | ")
}
