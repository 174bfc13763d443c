// Package config loads the project configuration file and renders the
// project-wide stylesheets and type declarations derived from it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/yacobolo/stylec/internal/style"
)

// ErrConfigNotFound is returned when the project has no config file.
var ErrConfigNotFound = errors.New("config file not found")

// FileName is the config file looked up at the project root.
const FileName = "stylec.yaml"

// EnvPrefix is the prefix of environment overrides: STYLEC_OUTPUT_DIR sets
// output-dir.
const EnvPrefix = "STYLEC_"

// ImportStrategy selects how entity CSS reaches the root stylesheet.
type ImportStrategy string

const (
	// StrategyRoot merges all entities into one file per priority layer.
	StrategyRoot ImportStrategy = "root"
	// StrategyComponent writes one manifest per source file.
	StrategyComponent ImportStrategy = "component"
)

// ResetMode selects the reset stylesheet.
type ResetMode string

const (
	ResetDefault ResetMode = "default"
	ResetNone    ResetMode = "none"
	ResetCustom  ResetMode = "custom"
)

// Defaults.
const (
	DefaultOutputDir    = "stylegen"
	DefaultRangeTimeout = 5 * time.Second
)

// DefaultMarkers are the infixes that mark a style file: button.css.ts.
var DefaultMarkers = []string{"css", "styles", "styled", "stylec"}

// Modifier is a value modifier declared in the config file.
type Modifier struct {
	Name    string
	Pattern string
	Value   string
	CSS     *style.Object
}

// Config is the static project configuration.
type Config struct {
	Root           string
	Path           string
	ImportStrategy ImportStrategy
	OutputDir      string
	DefaultUnit    string
	Reset          ResetMode
	ResetStyles    *style.Object
	Markers        []string
	Ignore         []string
	External       []string
	RangeTimeout   time.Duration
	Variables      *style.Object
	Global         *style.Object
	Templates      *style.Object
	MediaQueries   map[string]string
	Modifiers      []Modifier
}

type loadOptions struct {
	path  string
	flags *pflag.FlagSet
}

// Option configures Load.
type Option func(*loadOptions)

// WithPath loads the config from path instead of {root}/stylec.yaml.
func WithPath(path string) Option {
	return func(o *loadOptions) { o.path = path }
}

// WithFlags applies explicitly set flags on top of file and environment.
func WithFlags(fs *pflag.FlagSet) Option {
	return func(o *loadOptions) { o.flags = fs }
}

// Load reads the project config with precedence flags > env > file > defaults.
func Load(root string, opts ...Option) (*Config, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	path := o.path
	if path == "" {
		path = filepath.Join(root, FileName)
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading config file %s: %w", path, err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		// STYLEC_OUTPUT_DIR -> output-dir
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}
	if o.flags != nil {
		if err := k.Load(posflag.Provider(o.flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	c := &Config{
		Root:           root,
		Path:           path,
		ImportStrategy: ImportStrategy(stringOr(k, "import-strategy", string(StrategyRoot))),
		OutputDir:      stringOr(k, "output-dir", DefaultOutputDir),
		DefaultUnit:    k.String("default-unit"),
		Reset:          ResetMode(stringOr(k, "reset", string(ResetDefault))),
		Markers:        stringsOr(k, "markers", DefaultMarkers),
		Ignore:         k.Strings("ignore"),
		External:       k.Strings("external"),
		RangeTimeout:   DefaultRangeTimeout,
		MediaQueries:   make(map[string]string),
	}
	if k.Exists("range-timeout") {
		if d := k.Duration("range-timeout"); d > 0 {
			c.RangeTimeout = d
		}
	}

	if err := c.decodeTrees(data); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return c, nil
}

// decodeTrees reads the ordered style trees, which koanf would flatten.
func (c *Config) decodeTrees(data []byte) error {
	c.Variables = style.NewObject()
	c.Global = style.NewObject()
	c.Templates = style.NewObject()
	c.ResetStyles = style.NewObject()

	var doc yamlv3.Node
	if err := yamlv3.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yamlv3.MappingNode {
		return fmt.Errorf("line %d: expected a mapping at the top level", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		var err error
		switch key {
		case "variables":
			c.Variables, err = style.FromNode(value)
		case "global":
			c.Global, err = style.FromNode(value)
		case "templates":
			c.Templates, err = style.FromNode(value)
		case "reset-styles":
			c.ResetStyles, err = style.FromNode(value)
		case "media-queries":
			var mq *style.Object
			if mq, err = style.FromNode(value); err == nil {
				for _, alias := range mq.Keys() {
					v, _ := mq.Get(alias)
					c.MediaQueries[strings.TrimPrefix(alias, "@")] = style.Stringify(v)
				}
			}
		case "modifiers":
			c.Modifiers, err = decodeModifiers(value)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func decodeModifiers(n *yamlv3.Node) ([]Modifier, error) {
	if n.Kind != yamlv3.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a list", n.Line)
	}
	out := make([]Modifier, 0, len(n.Content))
	for _, item := range n.Content {
		obj, err := style.FromNode(item)
		if err != nil {
			return nil, err
		}
		m := Modifier{CSS: obj.Object("css")}
		if v, ok := obj.Get("name"); ok {
			m.Name = style.Stringify(v)
		}
		if v, ok := obj.Get("pattern"); ok {
			m.Pattern = style.Stringify(v)
		}
		if v, ok := obj.Get("value"); ok {
			m.Value = style.Stringify(v)
		}
		if m.Pattern == "" {
			return nil, fmt.Errorf("line %d: modifier %q has no pattern", item.Line, m.Name)
		}
		out = append(out, m)
	}
	return out, nil
}

func (c *Config) validate() error {
	switch c.ImportStrategy {
	case StrategyRoot, StrategyComponent:
	default:
		return fmt.Errorf("import-strategy: unknown value %q", c.ImportStrategy)
	}
	switch c.Reset {
	case ResetDefault, ResetNone, ResetCustom:
	default:
		return fmt.Errorf("reset: unknown value %q", c.Reset)
	}
	for _, m := range c.Modifiers {
		if _, err := regexp.Compile(m.Pattern); err != nil {
			return fmt.Errorf("modifier %q: %w", m.Name, err)
		}
	}
	if len(c.Markers) == 0 {
		return errors.New("markers: at least one marker is required")
	}
	return nil
}

// OutputPath returns the absolute output directory.
func (c *Config) OutputPath() string {
	if filepath.IsAbs(c.OutputDir) {
		return c.OutputDir
	}
	return filepath.Join(c.Root, c.OutputDir)
}

// Definition holds the config exported by define functions in style files.
type Definition struct {
	Variables    *style.Object     `json:"variables,omitempty"`
	Templates    *style.Object     `json:"templates,omitempty"`
	Global       *style.Object     `json:"global,omitempty"`
	MediaQueries map[string]string `json:"mediaQueries,omitempty"`
}

// Merge folds other into d. Later definitions win key by key.
func (d *Definition) Merge(other Definition) {
	d.Variables = deepMerge(d.Variables, other.Variables)
	d.Templates = deepMerge(d.Templates, other.Templates)
	d.Global = deepMerge(d.Global, other.Global)
	for k, v := range other.MediaQueries {
		if d.MediaQueries == nil {
			d.MediaQueries = make(map[string]string)
		}
		d.MediaQueries[k] = v
	}
}

// With returns a copy of c with the definitions merged over the static
// config.
func (c *Config) With(defs ...Definition) *Config {
	out := *c
	out.Variables = c.Variables.Clone()
	out.Templates = c.Templates.Clone()
	out.Global = c.Global.Clone()
	out.MediaQueries = make(map[string]string, len(c.MediaQueries))
	for k, v := range c.MediaQueries {
		out.MediaQueries[k] = v
	}
	for _, d := range defs {
		out.Variables = deepMerge(out.Variables, d.Variables)
		out.Templates = deepMerge(out.Templates, d.Templates)
		out.Global = deepMerge(out.Global, d.Global)
		for k, v := range d.MediaQueries {
			out.MediaQueries[strings.TrimPrefix(k, "@")] = v
		}
	}
	return &out
}

// Parser builds the style parser for this config.
func (c *Config) Parser() (*style.Parser, error) {
	p := &style.Parser{
		Templates:    c.Templates,
		DefaultUnit:  c.DefaultUnit,
		MediaQueries: c.MediaQueries,
	}
	for _, m := range c.Modifiers {
		re, err := regexp.Compile(m.Pattern)
		if err != nil {
			return nil, fmt.Errorf("modifier %q: %w", m.Name, err)
		}
		p.Modifiers = append(p.Modifiers, &style.TemplateModifier{Name: m.Name, Re: re, Value: m.Value, CSS: m.CSS})
	}
	return p, nil
}

// MediaQueryAliases returns the alias names in sorted order.
func (c *Config) MediaQueryAliases() []string {
	names := make([]string, 0, len(c.MediaQueries))
	for k := range c.MediaQueries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func deepMerge(dst, src *style.Object) *style.Object {
	if src.Empty() {
		return dst
	}
	if dst == nil {
		dst = style.NewObject()
	}
	for _, k := range src.Keys() {
		sv, _ := src.Get(k)
		if so, ok := sv.(*style.Object); ok {
			if do := dst.Object(k); do != nil {
				dst.Set(k, deepMerge(do, so))
				continue
			}
			sv = so.Clone()
		}
		dst.Set(k, sv)
	}
	return dst
}

func stringOr(k *koanf.Koanf, key, def string) string {
	if v := k.String(key); v != "" {
		return v
	}
	return def
}

func stringsOr(k *koanf.Koanf, key string, def []string) []string {
	if v := k.Strings(key); len(v) > 0 {
		return v
	}
	return append([]string(nil), def...)
}
