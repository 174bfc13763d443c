// Package module bundles style and config files with esbuild and evaluates
// the bundles in an isolated goja runtime. Evaluation results are exposed as
// plain style data; no JavaScript value escapes the package.
package module

import (
	"context"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.uber.org/zap"
)

// RuntimeModule is the import specifier style files use for the factories.
const RuntimeModule = "stylec"

// NativeModule is resolved by the registry at evaluation time.
const NativeModule = "stylec:native"

//go:embed runtime/stylec.js
var runtimeSource string

// DefaultExternal lists packages that are never bundled. They resolve to an
// empty module during evaluation.
var DefaultExternal = []string{"react", "react-dom", "react/jsx-runtime"}

// Message is one esbuild diagnostic.
type Message struct {
	Text   string
	File   string
	Line   int
	Column int
	Source string
}

func (m Message) String() string {
	if m.File == "" {
		return m.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", m.File, m.Line, m.Column, m.Text)
}

// BundleError is returned when esbuild rejects an entry point.
type BundleError struct {
	Path     string
	Messages []Message
}

func (e *BundleError) Error() string {
	if len(e.Messages) == 0 {
		return "bundling " + e.Path + " failed"
	}
	texts := make([]string, len(e.Messages))
	for i, m := range e.Messages {
		texts[i] = m.String()
	}
	return "bundling " + e.Path + ": " + strings.Join(texts, "; ")
}

// Bundler turns a style or config file and its relative imports into one
// CommonJS program.
type Bundler struct {
	root     string
	external []string
	log      *zap.Logger
}

// BundlerOption configures a Bundler.
type BundlerOption func(*Bundler)

// WithExternal adds packages that stay external in addition to DefaultExternal.
func WithExternal(pkgs ...string) BundlerOption {
	return func(b *Bundler) { b.external = append(b.external, pkgs...) }
}

// WithBundlerLogger sets the logger.
func WithBundlerLogger(log *zap.Logger) BundlerOption {
	return func(b *Bundler) {
		if log != nil {
			b.log = log.Named("bundle")
		}
	}
}

// NewBundler creates a Bundler resolving relative imports from root.
func NewBundler(root string, opts ...BundlerOption) *Bundler {
	b := &Bundler{
		root:     root,
		external: append([]string(nil), DefaultExternal...),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bundle builds path. The returned program expects module, exports and
// require to be in scope.
func (b *Bundler) Bundle(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(b.root, path)
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:   []string{path},
		Bundle:        true,
		Write:         false,
		Format:        api.FormatCommonJS,
		Platform:      api.PlatformNode,
		Target:        api.ES2020,
		AbsWorkingDir: b.root,
		External:      b.external,
		LogLevel:      api.LogLevelSilent,
		Charset:       api.CharsetUTF8,
		Define: map[string]string{
			"process.env.NODE_ENV": `"production"`,
		},
		Loader: map[string]api.Loader{
			".css":  api.LoaderEmpty,
			".svg":  api.LoaderEmpty,
			".png":  api.LoaderEmpty,
			".jpg":  api.LoaderEmpty,
			".woff": api.LoaderEmpty,
		},
		Plugins: []api.Plugin{runtimePlugin()},
	})

	if len(result.Errors) > 0 {
		return nil, &BundleError{Path: path, Messages: messages(result.Errors)}
	}
	for _, w := range result.Warnings {
		b.log.Debug("esbuild warning", zap.String("path", path), zap.String("warning", w.Text))
	}
	if len(result.OutputFiles) == 0 {
		return nil, &BundleError{Path: path}
	}
	return result.OutputFiles[0].Contents, nil
}

// runtimePlugin serves the embedded factories for "stylec" and leaves the
// native module for the registry.
func runtimePlugin() api.Plugin {
	return api.Plugin{
		Name: "stylec",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^stylec:native$`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, External: true}, nil
				})
			build.OnResolve(api.OnResolveOptions{Filter: `^stylec$`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: RuntimeModule, Namespace: "stylec"}, nil
				})
			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: "stylec"},
				func(api.OnLoadArgs) (api.OnLoadResult, error) {
					contents := runtimeSource
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
				})
		},
	}
}

func messages(in []api.Message) []Message {
	out := make([]Message, 0, len(in))
	for _, m := range in {
		msg := Message{Text: m.Text}
		if m.Location != nil {
			msg.File = m.Location.File
			msg.Line = m.Location.Line
			msg.Column = m.Location.Column + 1
			msg.Source = m.Location.LineText
		}
		out = append(out, msg)
	}
	return out
}
