package module

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/stylec/internal/generator"
	"github.com/yacobolo/stylec/internal/style"
)

const buttonSource = `import { styled, className, keyframes } from "stylec";
import { spacing } from "./tokens";

export const fadeIn = keyframes({
  from: { opacity: 0 },
  to: { opacity: 1 },
});

export const Base = styled("button", {
  base: { color: "red", padding: spacing, animation: ` + "`${fadeIn} 1s`" + ` },
  variants: { size: { large: { fontSize: 20 } } },
});

export const Derived = styled(Base, { base: { color: "blue" } });

export const card = className({ base: { display: "grid" } });

export const label = "plain";
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func evaluateFile(t *testing.T, dir, name string, env *Env) *Module {
	t.Helper()
	code, err := NewBundler(dir).Bundle(context.Background(), name)
	require.NoError(t, err)
	m, err := NewRegistry().Evaluate(context.Background(), name, code, env)
	require.NoError(t, err)
	return m
}

func TestBundleAndEvaluate(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"button.css.ts": buttonSource,
		"tokens.ts":     "export const spacing = 10;\n",
	})
	m := evaluateFile(t, dir, "button.css.ts", nil)

	names := make(map[string]bool)
	for _, e := range m.Exports {
		names[e.Name] = true
	}
	assert.Equal(t, map[string]bool{"fadeIn": true, "Base": true, "Derived": true, "card": true, "label": true}, names)

	label, ok := m.Lookup("label")
	require.True(t, ok)
	assert.Equal(t, "plain", label)

	v, _ := m.Lookup("Base")
	base, ok := v.(*Record)
	require.True(t, ok)
	assert.Equal(t, KindStyled, base.Kind)
	assert.Equal(t, "button", base.Tag)
	padding, _ := base.Params.Object("base").Get("padding")
	assert.Equal(t, 10.0, padding)

	v, _ = m.Lookup("Derived")
	derived := v.(*Record)
	assert.Same(t, base, derived.Tag)

	v, _ = m.Lookup("fadeIn")
	fade := v.(*Record)
	assert.Equal(t, KindKeyframes, fade.Kind)
	frames := style.ObjectOf(
		"from", style.ObjectOf("opacity", 0),
		"to", style.ObjectOf("opacity", 1),
	)
	assert.Equal(t, generator.AnimationNameFor(frames), fade.Name)

	animation, _ := base.Params.Object("base").Get("animation")
	assert.Equal(t, fade.Name+" 1s", animation)

	v, _ = m.Lookup("card")
	assert.Equal(t, KindClassName, v.(*Record).Kind)
	assert.Len(t, m.Records(), 4)
}

func TestDefineRecords(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"theme.styles.ts": `import { defineVariables, defineTemplates, defineMediaQuery } from "stylec";
export const vars = defineVariables({ colors: { brand: "#f00" } });
export const text = defineTemplates({ textStyle: { body: { fontSize: 16 } } });
export const tablet = defineMediaQuery((media) => media.screen().minWidth(768));
`,
	})
	m := evaluateFile(t, dir, "theme.styles.ts", nil)

	kinds := make(map[string]Kind)
	for _, r := range m.Records() {
		kinds[r.Name] = r.Kind
		assert.True(t, r.Kind.Define())
	}
	assert.Equal(t, map[string]Kind{"vars": KindVariables, "text": KindTemplates, "tablet": KindMediaQuery}, kinds)

	v, _ := m.Lookup("tablet")
	assert.Equal(t, "@media screen and (min-width: 768px)", v.(*Record).Query)

	v, _ = m.Lookup("vars")
	brand, ok := v.(*Record).Params.Lookup("colors.brand")
	require.True(t, ok)
	assert.Equal(t, "#f00", brand)
}

func TestEvaluateKeepsKeyOrder(t *testing.T) {
	code := []byte(`exports.first = { zIndex: 1, color: "red", margin: [1, "auto"], gone: undefined };
exports.second = true;`)
	m, err := NewRegistry().Evaluate(context.Background(), "inline.js", code, nil)
	require.NoError(t, err)

	require.Len(t, m.Exports, 2)
	assert.Equal(t, "first", m.Exports[0].Name)
	obj := m.Exports[0].Value.(*style.Object)
	assert.Equal(t, []string{"zIndex", "color", "margin", "gone"}, obj.Keys())
	margin, _ := obj.Get("margin")
	assert.Equal(t, []any{1.0, "auto"}, margin)
	gone, _ := obj.Get("gone")
	assert.Nil(t, gone)
	assert.Equal(t, true, m.Exports[1].Value)
}

func TestEvaluateCallsFunctionsWithEnv(t *testing.T) {
	code := []byte(`exports.box = { color: (cfg) => cfg.variables.colors.brand, query: ({ mediaQueries }) => mediaQueries.tablet };`)
	env := &Env{
		Variables:    style.ObjectOf("colors", style.ObjectOf("brand", "#123456")),
		MediaQueries: map[string]string{"tablet": "@media (min-width: 768px)"},
	}
	m, err := NewRegistry().Evaluate(context.Background(), "env.js", code, env)
	require.NoError(t, err)

	box := m.Exports[0].Value.(*style.Object)
	color, _ := box.Get("color")
	assert.Equal(t, "#123456", color)
	query, _ := box.Get("query")
	assert.Equal(t, "@media (min-width: 768px)", query)
}

func TestEvaluateCache(t *testing.T) {
	r := NewRegistry()
	code := []byte(`exports.a = 1;`)

	first, err := r.Evaluate(context.Background(), "a.js", code, nil)
	require.NoError(t, err)
	second, err := r.Evaluate(context.Background(), "a.js", code, nil)
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := r.Evaluate(context.Background(), "a.js", code, &Env{Variables: style.ObjectOf("x", 1)})
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestEvaluateInterrupted(t *testing.T) {
	t.Run("cancelled before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewRegistry().Evaluate(ctx, "a.js", []byte(`exports.a = 1;`), nil)
		assert.ErrorIs(t, err, ErrInterrupted)
	})

	t.Run("deadline during evaluation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := NewRegistry().Evaluate(ctx, "loop.js", []byte(`for (;;) {}`), nil)
		require.ErrorIs(t, err, ErrInterrupted)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestEvaluateThrows(t *testing.T) {
	_, err := NewRegistry().Evaluate(context.Background(), "throw.js", []byte(`throw new Error("boom");`), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.NotErrorIs(t, err, ErrInterrupted)
}

func TestExternalModulesAreStubbed(t *testing.T) {
	code := []byte(`const React = require("react"); exports.kind = typeof React;`)
	m, err := NewRegistry().Evaluate(context.Background(), "ext.js", code, nil)
	require.NoError(t, err)
	assert.Equal(t, "object", m.Exports[0].Value)
}

func TestBundleError(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"broken.css.ts": "export const Broken = styled(\"div\", {\n  base: { color: \"red\" \n};\n",
	})
	_, err := NewBundler(dir).Bundle(context.Background(), "broken.css.ts")
	require.Error(t, err)

	var bundleErr *BundleError
	require.ErrorAs(t, err, &bundleErr)
	require.NotEmpty(t, bundleErr.Messages)
	assert.Positive(t, bundleErr.Messages[0].Line)
	assert.Contains(t, bundleErr.Messages[0].File, "broken.css.ts")
}

func TestBundleIgnoresCSSImports(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"a.css.ts": "import \"./a.css\";\nimport { className } from \"stylec\";\nexport const a = className({ base: { color: \"red\" } });\n",
		"a.css":    ".x { color: red }\n",
	})
	m := evaluateFile(t, dir, "a.css.ts", nil)
	require.Len(t, m.Records(), 1)
}

func TestRecordsCarryCreationOrder(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"order.css.ts": `import { styled, keyframes } from "stylec";

export const Zed = styled("div", { base: { color: "red" } });
export const pulse = keyframes({ to: { opacity: 0 } });
export const Alpha = styled(Zed, { base: { color: "blue" } });
`,
	})
	m := evaluateFile(t, dir, "order.css.ts", nil)

	seq := make(map[string]int64)
	for _, r := range m.Records() {
		seq[r.Name] = r.Seq
	}
	require.Len(t, seq, 3)
	assert.Less(t, seq["Zed"], seq["pulse"])
	assert.Less(t, seq["pulse"], seq["Alpha"])
}
