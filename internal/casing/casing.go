// Package casing converts identifiers between the naming schemes used for
// CSS properties, custom-property names, file names and generated types.
package casing

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// DashCase converts camelCase, PascalCase, dotted and spaced identifiers to
// dash-case. Runs of capitals are treated as one word: "HTMLElement" becomes
// "html-element".
func DashCase(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		switch {
		case r == '.' || unicode.IsSpace(r):
			b.WriteRune('-')
		case unicode.IsUpper(r):
			if i > 0 && wordBoundary(runes, i) && !endsWithDash(&b) {
				b.WriteRune('-')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func wordBoundary(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	// "HTMLElement": the E starts a new word because a lowercase rune follows it
	if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
		return true
	}
	return false
}

func endsWithDash(b *strings.Builder) bool {
	s := b.String()
	return s == "" || s[len(s)-1] == '-'
}

// CamelCase converts dash, snake, dotted or spaced identifiers to camelCase.
func CamelCase(s string) string {
	words := splitWords(s)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(lowerFirst(words[0]))
	for _, w := range words[1:] {
		b.WriteString(titleCaser.String(w))
	}
	return b.String()
}

// PascalCase converts an identifier to PascalCase.
func PascalCase(s string) string {
	words := splitWords(s)
	var b strings.Builder
	for _, w := range words {
		b.WriteString(titleCaser.String(w))
	}
	return b.String()
}

// DotCase converts an identifier to dot.case.
func DotCase(s string) string {
	return strings.ReplaceAll(DashCase(s), "-", ".")
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || unicode.IsSpace(r)
	})
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
