package stylec

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileOneRequiresCache(t *testing.T) {
	dir := writeProject(t, projectConfig, projectFiles)
	c, err := New(dir)
	require.NoError(t, err)

	_, err = c.CompileOne(context.Background(), "src/button.css.ts")
	assert.ErrorIs(t, err, ErrCacheMissing)

	_, _, err = c.MinimizeSource(context.Background(), "src/button.css.ts")
	assert.ErrorIs(t, err, ErrCacheMissing)
}

func TestCompileOneIsIdempotent(t *testing.T) {
	c, _ := buildProject(t, projectConfig)
	ctx := context.Background()

	// a fresh compiler only has the cache to go on
	fresh, err := New(c.Root())
	require.NoError(t, err)

	index := readOutput(t, c, IndexFile)
	l0 := readOutput(t, c, "css/_l0.css")
	l1 := readOutput(t, c, "css/_l1.css")

	for i := 0; i < 2; i++ {
		files, err := fresh.CompileOne(ctx, "src/button.css.ts")
		require.NoError(t, err)
		require.NotEmpty(t, files)
		assert.True(t, strings.HasPrefix(files[0], "css/base-"), files[0])
		assert.Contains(t, files, "css/_l0.css")
		assert.Contains(t, files, "css/_l1.css")

		assert.Equal(t, index, readOutput(t, c, IndexFile))
		assert.Equal(t, l0, readOutput(t, c, "css/_l0.css"))
		assert.Equal(t, l1, readOutput(t, c, "css/_l1.css"))
	}
}

func TestCompileOneAppendsNewFile(t *testing.T) {
	c, _ := buildProject(t, projectConfig)
	ctx := context.Background()

	card := filepath.Join(c.Root(), "src", "card.css.ts")
	require.NoError(t, os.WriteFile(card, []byte(
		`import { className } from "stylec";
export const card = className({ base: { display: "grid", gap: "{spacing.gutter}" } });
`), 0o644))

	before := readOutput(t, c, "css/_l0.css")
	files, err := c.CompileOne(ctx, card)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.True(t, strings.HasPrefix(files[0], "css/card-"))

	after := readOutput(t, c, "css/_l0.css")
	assert.True(t, strings.HasPrefix(after, before), "layer files are only appended to")
	assert.Contains(t, after, "/* card-")
	assert.Contains(t, after, "gap:var(--spacing-gutter);")

	minimized := readOutput(t, c, "js/min/src/card.css.ts")
	assert.Contains(t, minimized, `card = className("`)
}

func TestCompileOneComponentStrategy(t *testing.T) {
	c, _ := buildProject(t, "import-strategy: component\n"+projectConfig)

	card := filepath.Join(c.Root(), "src", "card.css.ts")
	require.NoError(t, os.WriteFile(card, []byte(
		`import { className } from "stylec";
export const card = className({ base: { display: "grid" } });
`), 0o644))

	for i := 0; i < 2; i++ {
		_, err := c.CompileOne(context.Background(), card)
		require.NoError(t, err)
	}

	manifest := ManifestName("src/card.css.ts")
	index := readOutput(t, c, IndexFile)
	assert.Equal(t, 1, strings.Count(index, manifest))
	assert.Contains(t, readOutput(t, c, "css/"+manifest), `@import "./card-`)
}

func TestCompileOneRejectsOtherFiles(t *testing.T) {
	c, _ := buildProject(t, projectConfig)
	_, err := c.CompileOne(context.Background(), "src/readme.ts")
	assert.ErrorIs(t, err, ErrNotStyleFile)
}

func TestMinimizeSource(t *testing.T) {
	c, _ := buildProject(t, projectConfig)
	ctx := context.Background()

	text, ok, err := c.MinimizeSource(ctx, "src/button.css.ts")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, readOutput(t, c, "js/min/src/button.css.ts"), text)

	_, ok, err = c.MinimizeSource(ctx, "src/broken.css.ts")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.MinimizeSource(ctx, "src/readme.ts")
	require.NoError(t, err)
	assert.False(t, ok)

	// served from the cache for unchanged content, recompiled otherwise
	fresh, err := New(c.Root())
	require.NoError(t, err)
	text2, ok, err := fresh.MinimizeSource(ctx, filepath.Join(c.Root(), "src", "button.css.ts"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, text, text2)
}

func TestShouldInvalidate(t *testing.T) {
	c, _ := buildProject(t, projectConfig)

	templates := filepath.Join(c.Root(), "src", "type.styles.ts")
	require.NoError(t, os.WriteFile(templates, []byte(
		`import { defineTemplates } from "stylec";
export const t = defineTemplates({ text: { body: { fontSize: 16 } } });
`), 0o644))

	tests := []struct {
		path string
		want bool
	}{
		{"stylec.yaml", true},
		{".env", true},
		{"src/theme.styles.ts", true},
		{"src/type.styles.ts", true},
		{"src/button.css.ts", false},
		{"src/readme.ts", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ShouldInvalidate(tt.path))
		})
	}
}
