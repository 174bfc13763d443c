package style

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectOrder(t *testing.T) {
	o := ObjectOf("b", 1, "a", "x", "c", true)
	assert.Equal(t, []string{"b", "a", "c"}, o.Keys())

	o.Set("a", "y")
	assert.Equal(t, []string{"b", "a", "c"}, o.Keys(), "overwriting keeps the original position")

	o.Delete("b")
	assert.Equal(t, []string{"a", "c"}, o.Keys())
	assert.Equal(t, 2, o.Len())

	v, ok := o.Get("a")
	require.True(t, ok)
	assert.Equal(t, "y", v)
}

func TestObjectNilSafety(t *testing.T) {
	var o *Object
	assert.True(t, o.Empty())
	assert.Nil(t, o.Keys())
	assert.Nil(t, o.Object("x"))
	_, ok := o.Get("x")
	assert.False(t, ok)
}

func TestObjectLookup(t *testing.T) {
	o := ObjectOf("heading", ObjectOf("large", ObjectOf("fontSize", 32)))

	v, ok := o.Lookup("heading.large.fontSize")
	require.True(t, ok)
	assert.Equal(t, float64(32), v)

	_, ok = o.Lookup("heading.small")
	assert.False(t, ok)

	_, ok = o.Lookup("heading.large.fontSize.deeper")
	assert.False(t, ok)
}

func TestObjectMarshalJSON(t *testing.T) {
	o := ObjectOf(
		"zIndex", 2,
		"color", "a<b",
		"nested", ObjectOf("y", 1, "x", nil),
		"list", []any{"a", ObjectOf("k", false)},
	)

	data, err := o.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"zIndex":2,"color":"a<b","nested":{"y":1,"x":null},"list":["a",{"k":false}]}`, string(data))
}

func TestObjectCanonical(t *testing.T) {
	a := ObjectOf("padding", 10, "color", "red", "nested", ObjectOf("b", 1, "a", 2))
	b := ObjectOf("color", "red", "nested", ObjectOf("a", 2, "b", 1), "padding", 10)

	ja, err := json.Marshal(a.Canonical())
	require.NoError(t, err)
	jb, err := json.Marshal(b.Canonical())
	require.NoError(t, err)

	assert.Equal(t, string(ja), string(jb))
	assert.Equal(t, []string{"padding", "color", "nested"}, a.Keys(), "canonical copy leaves the original untouched")
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, o *Object)
	}{
		{
			name:  "yaml keeps key order and scalar types",
			input: "zeta: 1\nalpha: red\nflag: true\nnothing: null\nratio: 1.5\n",
			check: func(t *testing.T, o *Object) {
				assert.Equal(t, []string{"zeta", "alpha", "flag", "nothing", "ratio"}, o.Keys())
				v, _ := o.Get("zeta")
				assert.Equal(t, float64(1), v)
				v, _ = o.Get("flag")
				assert.Equal(t, true, v)
				v, ok := o.Get("nothing")
				assert.True(t, ok)
				assert.Nil(t, v)
				v, _ = o.Get("ratio")
				assert.Equal(t, 1.5, v)
			},
		},
		{
			name:  "json document",
			input: `{"b":{"y":"1","x":[1,"two"]},"a":"x"}`,
			check: func(t *testing.T, o *Object) {
				assert.Equal(t, []string{"b", "a"}, o.Keys())
				assert.Equal(t, []string{"y", "x"}, o.Object("b").Keys())
				v, _ := o.Object("b").Get("x")
				assert.Equal(t, []any{float64(1), "two"}, v)
			},
		},
		{
			name:  "empty document",
			input: "",
			check: func(t *testing.T, o *Object) {
				assert.True(t, o.Empty())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			tt.check(t, o)
		})
	}
}

func TestParseRejectsNonMapping(t *testing.T) {
	_, err := Parse([]byte("- a\n- b\n"))
	require.Error(t, err)
}

func TestUnmarshalJSONRoundTrip(t *testing.T) {
	var o Object
	require.NoError(t, json.Unmarshal([]byte(`{"second":2,"first":{"x":"y"}}`), &o))
	assert.Equal(t, []string{"second", "first"}, o.Keys())

	data, err := json.Marshal(&o)
	require.NoError(t, err)
	assert.Equal(t, `{"second":2,"first":{"x":"y"}}`, string(data))
}

func TestFalsy(t *testing.T) {
	assert.True(t, Falsy(nil))
	assert.True(t, Falsy(false))
	assert.True(t, Falsy(""))
	assert.True(t, Falsy(NewObject()))
	assert.True(t, Falsy([]any{}))
	assert.False(t, Falsy(float64(0)))
	assert.False(t, Falsy("0"))
	assert.False(t, Falsy(true))
}
