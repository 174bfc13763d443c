package module

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/yacobolo/stylec/internal/hash"
	"github.com/yacobolo/stylec/internal/style"
)

const defaultCacheSize = 128

// ErrInterrupted is returned when the context ends during evaluation.
var ErrInterrupted = errors.New("evaluation interrupted")

// Export is one named export of an evaluated module, in export order. Value
// is a *Record for values produced by the runtime factories and a plain
// style value otherwise.
type Export struct {
	Name  string
	Value any
}

// Module is the export table of an evaluated bundle.
type Module struct {
	Key     string
	Exports []Export
}

// Lookup returns the export bound to name.
func (m *Module) Lookup(name string) (any, bool) {
	for _, e := range m.Exports {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

// Records returns the exports produced by a runtime factory.
func (m *Module) Records() []NamedRecord {
	var out []NamedRecord
	for _, e := range m.Exports {
		if r, ok := e.Value.(*Record); ok {
			out = append(out, NamedRecord{Name: e.Name, Record: r})
		}
	}
	return out
}

// NamedRecord pairs a record with the export name it was bound to.
type NamedRecord struct {
	Name string
	*Record
}

// Registry evaluates bundles in fresh goja runtimes and caches their export
// tables by bundle content and environment.
type Registry struct {
	cache *lru.Cache[string, *Module]
	log   *zap.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger. Console output of evaluated modules is
// logged at debug level.
func WithRegistryLogger(log *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log.Named("module")
		}
	}
}

// NewRegistry creates a Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	cache, err := lru.New[string, *Module](defaultCacheSize)
	if err != nil {
		panic(err)
	}
	r.cache = cache
	return r
}

// Env is the configuration handed to function-valued style entries.
type Env struct {
	Variables    *style.Object
	Templates    *style.Object
	MediaQueries map[string]string
}

func (e *Env) object() *style.Object {
	o := style.NewObject()
	if e == nil {
		return o
	}
	o.Set("variables", orEmpty(e.Variables))
	o.Set("templates", orEmpty(e.Templates))
	mq := style.NewObject()
	for k, v := range e.MediaQueries {
		mq.Set(k, v)
	}
	o.Set("mediaQueries", mq.Canonical())
	return o
}

func orEmpty(o *style.Object) *style.Object {
	if o == nil {
		return style.NewObject()
	}
	return o
}

// Evaluate runs a bundle produced by Bundler and returns its exports.
// Identical code evaluated under an identical env is served from the cache.
func (r *Registry) Evaluate(ctx context.Context, name string, code []byte, env *Env) (*Module, error) {
	envObj := env.object()
	envJSON, err := envObj.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding env: %w", err)
	}
	key := hash.Content(code) + ":" + hash.Content(envJSON)
	if m, ok := r.cache.Get(key); ok {
		r.log.Debug("module cache hit", zap.String("name", name), zap.String("key", key))
		return m, nil
	}

	m, err := r.evaluate(ctx, name, code, envObj)
	if err != nil {
		return nil, err
	}
	m.Key = key
	r.cache.Add(key, m)
	return m, nil
}

func (r *Registry) evaluate(ctx context.Context, name string, code []byte, envObj *style.Object) (*Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	vm := goja.New()
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(context.Cause(ctx))
	})
	defer stop()

	conv := newConverter(vm)
	env := conv.toJS(envObj)
	conv.env = env

	vm.Set("console", r.console(vm, name))
	module := vm.NewObject()
	exports := vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return nil, err
	}

	prog, err := goja.Compile(name, "(function (module, exports, require) {\n"+string(code)+"\n})", false)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", name, err)
	}
	wrapper, err := vm.RunProgram(prog)
	if err != nil {
		return nil, r.runError(name, err)
	}
	fn, ok := goja.AssertFunction(wrapper)
	if !ok {
		return nil, fmt.Errorf("compiling %s: wrapper is not a function", name)
	}

	require := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		id := call.Argument(0).String()
		if id == NativeModule {
			return r.native(vm, conv)
		}
		r.log.Debug("external module stubbed", zap.String("name", name), zap.String("module", id))
		return vm.NewObject()
	})
	if _, err := fn(goja.Undefined(), module, exports, require); err != nil {
		return nil, r.runError(name, err)
	}

	out, ok := module.Get("exports").(*goja.Object)
	if !ok {
		return &Module{}, nil
	}

	m := &Module{}
	for _, key := range out.Keys() {
		if key == "__esModule" {
			continue
		}
		v, err := conv.export(out.Get(key))
		if err != nil {
			return nil, fmt.Errorf("%s: export %s: %w", name, key, r.runError(name, err))
		}
		m.Exports = append(m.Exports, Export{Name: key, Value: v})
	}
	return m, nil
}

func (r *Registry) runError(name string, err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return fmt.Errorf("%w: %s: %w", ErrInterrupted, name, cause)
		}
		return fmt.Errorf("%w: %s", ErrInterrupted, name)
	}
	var exc *goja.Exception
	if errors.As(err, &exc) {
		return fmt.Errorf("evaluating %s: %s", name, exc.Error())
	}
	return fmt.Errorf("evaluating %s: %w", name, err)
}

// native builds the stylec:native module.
func (r *Registry) native(vm *goja.Runtime, conv *converter) goja.Value {
	obj := vm.NewObject()
	_ = obj.Set("hash", func(call goja.FunctionCall) goja.Value {
		v, err := conv.value(call.Argument(0), 0)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		length := hash.DefaultLength
		if arg := call.Argument(1); !goja.IsUndefined(arg) {
			length = int(arg.ToInteger())
		}
		if o, ok := v.(*style.Object); ok {
			v = o.Canonical()
		}
		return vm.ToValue(hash.Hash(v, length))
	})
	return obj
}

func (r *Registry) console(vm *goja.Runtime, name string) *goja.Object {
	console := vm.NewObject()
	logAt := func(level func(string, ...zap.Field)) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, a := range call.Arguments {
				parts[i] = a.String()
			}
			level(strings.Join(parts, " "), zap.String("module", name))
			return goja.Undefined()
		}
	}
	_ = console.Set("log", logAt(r.log.Debug))
	_ = console.Set("debug", logAt(r.log.Debug))
	_ = console.Set("info", logAt(r.log.Info))
	_ = console.Set("warn", logAt(r.log.Warn))
	_ = console.Set("error", logAt(r.log.Error))
	return console
}
