package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/stylec/internal/style"
)

const projectConfig = `import-strategy: component
default-unit: rem
reset: none
range-timeout: 2s
external: [lodash]
ignore: ["legacy/**"]
media-queries:
  tablet: "@media (min-width: 768px)"
variables:
  colors:
    brand: "#f00"
    accent: "{colors.brand}"
  spacing:
    small: 4
  responsive:
    base:
      fontSize:
        body: 16px
    tablet:
      fontSize:
        body: 18px
  conditional:
    theme:
      dark:
        colors:
          bg: "#000"
global:
  body:
    margin: 0
  "@font-face":
    fontFamily: Inter
templates:
  textStyle:
    body:
      fontSize: 16
    headline:
      large:
        fontSize: 32
        fontWeight: 700
modifiers:
  - name: double
    pattern: 'x2\((\d+)\)'
    value: 'calc(${1}px * 2)'
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeConfig(t, projectConfig)

	c, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, StrategyComponent, c.ImportStrategy)
	assert.Equal(t, DefaultOutputDir, c.OutputDir)
	assert.Equal(t, filepath.Join(dir, DefaultOutputDir), c.OutputPath())
	assert.Equal(t, "rem", c.DefaultUnit)
	assert.Equal(t, ResetNone, c.Reset)
	assert.Equal(t, 2*time.Second, c.RangeTimeout)
	assert.Equal(t, []string{"lodash"}, c.External)
	assert.Equal(t, []string{"legacy/**"}, c.Ignore)
	assert.Equal(t, DefaultMarkers, c.Markers)
	assert.Equal(t, map[string]string{"tablet": "@media (min-width: 768px)"}, c.MediaQueries)
	assert.Equal(t, []string{"colors", "spacing", "responsive", "conditional"}, c.Variables.Keys())
	assert.Equal(t, []string{"body", "@font-face"}, c.Global.Keys())
	require.Len(t, c.Modifiers, 1)
	assert.Equal(t, "double", c.Modifiers[0].Name)
}

func TestLoadPrecedence(t *testing.T) {
	dir := writeConfig(t, "output-dir: from-file\n")

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("STYLEC_OUTPUT_DIR", "from-env")
		c, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "from-env", c.OutputDir)
	})

	t.Run("flag overrides env", func(t *testing.T) {
		t.Setenv("STYLEC_OUTPUT_DIR", "from-env")
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		fs.String("output-dir", "", "")
		require.NoError(t, fs.Parse([]string{"--output-dir", "from-flag"}))

		c, err := Load(dir, WithFlags(fs))
		require.NoError(t, err)
		assert.Equal(t, "from-flag", c.OutputDir)
	})

	t.Run("unset flag keeps file value", func(t *testing.T) {
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		fs.String("output-dir", "", "")
		require.NoError(t, fs.Parse(nil))

		c, err := Load(dir, WithFlags(fs))
		require.NoError(t, err)
		assert.Equal(t, "from-file", c.OutputDir)
	})
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrConfigNotFound)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad strategy", "import-strategy: everything\n", "import-strategy"},
		{"bad reset", "reset: sometimes\n", "reset"},
		{"bad modifier pattern", "modifiers:\n  - name: broken\n    pattern: '('\n", "broken"},
		{"modifier without pattern", "modifiers:\n  - name: empty\n", "no pattern"},
		{"not a mapping", "- a\n- b\n", "loading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadWithPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte("output-dir: out\n"), 0o644))

	c, err := Load(dir, WithPath("custom.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "out", c.OutputDir)
	assert.Equal(t, filepath.Join(dir, "custom.yaml"), c.Path)
}

func TestParserUsesConfig(t *testing.T) {
	c, err := Load(writeConfig(t, projectConfig))
	require.NoError(t, err)
	p, err := c.Parser()
	require.NoError(t, err)

	css, err := p.Parse(style.ObjectOf(
		"textStyle", "headline.large",
		"width", "x2(5)",
		"@tablet", style.ObjectOf("padding", 1),
	), ".a")
	require.NoError(t, err)
	assert.Equal(t, ".a { font-size:32rem; font-weight:700; width:calc(5px * 2); }\n@media (min-width: 768px) { .a { padding:1rem; } }", css)
}

func TestWith(t *testing.T) {
	c, err := Load(writeConfig(t, projectConfig))
	require.NoError(t, err)

	resolved := c.With(Definition{
		Variables:    style.ObjectOf("colors", style.ObjectOf("brand", "#00f", "muted", "#999")),
		MediaQueries: map[string]string{"@desktop": "@media (min-width: 1200px)"},
	})

	brand, _ := resolved.Variables.Lookup("colors.brand")
	assert.Equal(t, "#00f", brand)
	accent, _ := resolved.Variables.Lookup("colors.accent")
	assert.Equal(t, "{colors.brand}", accent)
	assert.Equal(t, "@media (min-width: 1200px)", resolved.MediaQueries["desktop"])
	assert.Equal(t, []string{"desktop", "tablet"}, resolved.MediaQueryAliases())

	original, _ := c.Variables.Lookup("colors.brand")
	assert.Equal(t, "#f00", original)
	_, ok := c.MediaQueries["desktop"]
	assert.False(t, ok)
}

func TestDefinitionMerge(t *testing.T) {
	var d Definition
	d.Merge(Definition{Variables: style.ObjectOf("a", style.ObjectOf("x", 1))})
	d.Merge(Definition{Variables: style.ObjectOf("a", style.ObjectOf("y", 2)), MediaQueries: map[string]string{"m": "@media print"}})

	assert.Equal(t, []string{"x", "y"}, d.Variables.Object("a").Keys())
	assert.Equal(t, "@media print", d.MediaQueries["m"])
}

func TestCache(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCache(dir)
	require.ErrorIs(t, err, ErrCacheMissing)

	in := &Cache{
		ConfigFiles: []string{"src/theme.styles.ts", "src/a.css.ts"},
		Definition: Definition{
			Variables:    style.ObjectOf("colors", style.ObjectOf("brand", "#f00"), "size", 4),
			MediaQueries: map[string]string{"tablet": "@media (min-width: 768px)"},
		},
	}
	require.NoError(t, SaveCache(dir, in))

	out, err := LoadCache(dir)
	require.NoError(t, err)
	assert.Equal(t, CacheVersion, out.Version)
	assert.Equal(t, []string{"src/a.css.ts", "src/theme.styles.ts"}, out.ConfigFiles)
	assert.True(t, out.HasConfigFile("src/theme.styles.ts"))
	assert.False(t, out.HasConfigFile("src/other.ts"))
	assert.Equal(t, []string{"colors", "size"}, out.Definition.Variables.Keys())
	size, _ := out.Definition.Variables.Get("size")
	assert.Equal(t, 4.0, size)
	assert.Equal(t, "@media (min-width: 768px)", out.Definition.MediaQueries["tablet"])

	require.NoError(t, os.WriteFile(filepath.Join(dir, CacheFile), []byte(`{"version":0}`), 0o644))
	_, err = LoadCache(dir)
	assert.ErrorIs(t, err, ErrCacheMissing)
}
