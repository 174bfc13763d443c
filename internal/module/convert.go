package module

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dop251/goja"

	"github.com/yacobolo/stylec/internal/style"
)

// Marker is the property the runtime factories tag their records with.
const Marker = "__stylec"

// SeqKey holds the creation sequence number of a record.
const SeqKey = "__stylecSeq"

const maxDepth = 64

// Kind names the factory that produced a record.
type Kind string

const (
	KindStyled       Kind = "styled"
	KindClassName    Kind = "className"
	KindKeyframes    Kind = "keyframes"
	KindVariables    Kind = "variables"
	KindTemplates    Kind = "templates"
	KindGlobalStyles Kind = "globalStyles"
	KindMediaQuery   Kind = "mediaQuery"
)

// Define reports whether records of this kind contribute to the project
// config rather than producing CSS of their own.
func (k Kind) Define() bool {
	switch k {
	case KindVariables, KindTemplates, KindGlobalStyles, KindMediaQuery:
		return true
	}
	return false
}

// Record is the Go form of a value returned by a runtime factory.
type Record struct {
	Kind Kind
	// Tag is the element name or, when extending, the parent *Record. It is
	// nil for class names and for component tags defined outside the
	// runtime.
	Tag    any
	Params *style.Object
	// Name is the animation name of a keyframes record.
	Name string
	// Query is the rendered query of a mediaQuery record.
	Query string
	// Seq orders records by creation. Factories run in source order, so
	// it follows declaration order within a file.
	Seq int64
}

type converter struct {
	vm      *goja.Runtime
	env     goja.Value
	records map[*goja.Object]*Record
}

func newConverter(vm *goja.Runtime) *converter {
	return &converter{vm: vm, records: make(map[*goja.Object]*Record)}
}

// export converts a top-level export. Records keep their identity so that
// a parent shared by several exports maps to one *Record.
func (c *converter) export(v goja.Value) (any, error) {
	if obj, ok := v.(*goja.Object); ok && c.isRecord(obj) {
		return c.record(obj, 0)
	}
	return c.value(v, 0)
}

func (c *converter) isRecord(obj *goja.Object) bool {
	m := obj.Get(Marker)
	return m != nil && !goja.IsUndefined(m) && !goja.IsNull(m)
}

func (c *converter) record(obj *goja.Object, depth int) (*Record, error) {
	if r, ok := c.records[obj]; ok {
		return r, nil
	}
	if depth > maxDepth {
		return nil, fmt.Errorf("records nested deeper than %d", maxDepth)
	}

	r := &Record{Kind: Kind(obj.Get(Marker).String())}
	c.records[obj] = r
	if seq := obj.Get(SeqKey); seq != nil && !goja.IsUndefined(seq) {
		r.Seq = seq.ToInteger()
	}

	if tag := obj.Get("tag"); tag != nil && !goja.IsUndefined(tag) && !goja.IsNull(tag) {
		switch t := tag.(type) {
		case *goja.Object:
			if c.isRecord(t) {
				parent, err := c.record(t, depth+1)
				if err != nil {
					return nil, err
				}
				r.Tag = parent
			} else if t.ClassName() == "String" {
				r.Tag = t.String()
			}
		default:
			if s, ok := tag.Export().(string); ok {
				r.Tag = s
			}
		}
	}

	if name := obj.Get("name"); name != nil && !goja.IsUndefined(name) {
		r.Name = name.String()
	}

	params, err := c.value(obj.Get("params"), depth+1)
	if err != nil {
		return nil, fmt.Errorf("%s params: %w", r.Kind, err)
	}
	switch p := params.(type) {
	case *style.Object:
		r.Params = p
	case string:
		r.Query = p
		r.Params = style.NewObject()
	default:
		r.Params = style.NewObject()
	}
	return r, nil
}

// value converts a JavaScript value to a style value. Functions are called
// with the env object and their result converted in their place.
func (c *converter) value(v goja.Value, depth int) (any, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("value nested deeper than %d", maxDepth)
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}

	if fn, ok := goja.AssertFunction(v); ok {
		env := c.env
		if env == nil {
			env = goja.Undefined()
		}
		res, err := fn(goja.Undefined(), env)
		if err != nil {
			return nil, err
		}
		return c.value(res, depth+1)
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return primitive(v.Export()), nil
	}

	switch obj.ClassName() {
	case "Array":
		n := int(obj.Get("length").ToInteger())
		list := make([]any, 0, n)
		for i := 0; i < n; i++ {
			item, err := c.value(obj.Get(strconv.Itoa(i)), depth+1)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list = append(list, item)
		}
		return list, nil
	case "String", "Number", "Boolean":
		return primitive(obj.Export()), nil
	}

	if c.isRecord(obj) {
		r, err := c.record(obj, depth+1)
		if err != nil {
			return nil, err
		}
		switch r.Kind {
		case KindKeyframes:
			return r.Name, nil
		case KindMediaQuery:
			return r.Query, nil
		}
		return nil, fmt.Errorf("%s cannot be used as a style value", r.Kind)
	}

	out := style.NewObject()
	for _, key := range obj.Keys() {
		item, err := c.value(obj.Get(key), depth+1)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out.Set(key, item)
	}
	return out, nil
}

func primitive(v any) any {
	switch v := v.(type) {
	case int64:
		return float64(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
		return v
	case string, bool:
		return v
	case nil:
		return nil
	}
	return fmt.Sprint(v)
}

// toJS builds the JavaScript form of a style value.
func (c *converter) toJS(v any) goja.Value {
	switch v := v.(type) {
	case *style.Object:
		obj := c.vm.NewObject()
		for _, k := range v.Keys() {
			item, _ := v.Get(k)
			_ = obj.Set(k, c.toJS(item))
		}
		return obj
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = c.toJS(item)
		}
		return c.vm.NewArray(items...)
	case nil:
		return goja.Null()
	}
	return c.vm.ToValue(v)
}
