package style

import (
	"regexp"
	"strings"

	"github.com/yacobolo/stylec/internal/casing"
)

var tokenPattern = regexp.MustCompile(`\{(-?[\w$]+(?:[.-][\w$]+)*)\}`)

// ResolveTokens replaces every {dotted.path} token in value with a reference
// to the matching custom property: "{colors.brand}" becomes
// "var(--colors-brand)". Unknown names are not an error.
func ResolveTokens(value string) string {
	if !strings.Contains(value, "{") {
		return value
	}
	return tokenPattern.ReplaceAllStringFunc(value, func(m string) string {
		return "var(--" + TokenVariable(m[1:len(m)-1]) + ")"
	})
}

// TokenVariable returns the custom property name, without the leading dashes,
// for a dotted token path.
func TokenVariable(path string) string {
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		segments[i] = casing.DashCase(seg)
	}
	return strings.Join(segments, "-")
}

// TokenPaths returns the token paths referenced by value in order of appearance.
func TokenPaths(value string) []string {
	matches := tokenPattern.FindAllStringSubmatch(value, -1)
	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, m[1])
	}
	return paths
}
