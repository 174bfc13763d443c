package style

import (
	"fmt"
	"regexp"
	"strings"
)

// ModifierResult is what a modifier produces for one match: the replacement
// text and optional declarations to add to the current rule.
type ModifierResult struct {
	Value string
	CSS   *Object
}

// Modifier is a pattern-matched value transform.
type Modifier interface {
	Pattern() *regexp.Regexp
	Transform(match []string) (ModifierResult, error)
}

// ModifierFunc adapts a function to the Modifier interface.
type ModifierFunc struct {
	Re *regexp.Regexp
	Fn func(match []string) (ModifierResult, error)
}

func (m ModifierFunc) Pattern() *regexp.Regexp { return m.Re }

func (m ModifierFunc) Transform(match []string) (ModifierResult, error) {
	return m.Fn(match)
}

// TemplateModifier is a modifier declared in project configuration. Value and
// every key and string value of CSS may reference capture groups as $1, ${name}.
type TemplateModifier struct {
	Name  string
	Re    *regexp.Regexp
	Value string
	CSS   *Object
}

func (m *TemplateModifier) Pattern() *regexp.Regexp { return m.Re }

func (m *TemplateModifier) Transform(match []string) (ModifierResult, error) {
	res := ModifierResult{Value: m.expand(match)}
	if m.CSS != nil {
		res.CSS = m.expandObject(m.CSS, match)
	}
	return res, nil
}

func (m *TemplateModifier) expand(match []string) string {
	return m.expandString(m.Value, match)
}

func (m *TemplateModifier) expandString(template string, match []string) string {
	idx := make([]int, 0, 2*len(match))
	src := ""
	for _, s := range match {
		idx = append(idx, len(src), len(src)+len(s))
		src += s
	}
	return string(m.Re.ExpandString(nil, template, src, idx))
}

func (m *TemplateModifier) expandObject(obj *Object, match []string) *Object {
	out := NewObject()
	for _, k := range obj.Keys() {
		v, _ := obj.Get(k)
		switch v := v.(type) {
		case string:
			out.Set(m.expandString(k, match), m.expandString(v, match))
		case *Object:
			out.Set(m.expandString(k, match), m.expandObject(v, match))
		default:
			out.Set(m.expandString(k, match), v)
		}
	}
	return out
}

// ApplyModifiers runs every modifier over value in order; each one sees the
// output of the previous one. Auxiliary CSS objects are returned in the order
// they were produced.
func ApplyModifiers(value string, modifiers []Modifier) (string, []*Object, error) {
	var extra []*Object
	for _, mod := range modifiers {
		re := mod.Pattern()
		if re == nil {
			continue
		}
		matches := re.FindAllStringSubmatchIndex(value, -1)
		if len(matches) == 0 {
			continue
		}
		var b strings.Builder
		last := 0
		for _, loc := range matches {
			groups := make([]string, len(loc)/2)
			for i := range groups {
				if loc[2*i] >= 0 {
					groups[i] = value[loc[2*i]:loc[2*i+1]]
				}
			}
			res, err := mod.Transform(groups)
			if err != nil {
				return "", nil, fmt.Errorf("modifier %s: %w", re, err)
			}
			if !res.CSS.Empty() {
				extra = append(extra, res.CSS)
			}
			b.WriteString(value[last:loc[0]])
			b.WriteString(res.Value)
			last = loc[1]
		}
		b.WriteString(value[last:])
		value = b.String()
	}
	return value, extra, nil
}
