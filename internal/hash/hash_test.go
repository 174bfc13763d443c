package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		length int
		want   string
	}{
		{name: "empty input", input: "", length: 3, want: "bZz"},
		{name: "single char keeps trailing digits", input: "a", length: 3, want: "nJy"},
		{name: "serialized object", input: `{"color":"red"}`, length: 3, want: "XFB"},
		{name: "different object", input: `{"color":"blue"}`, length: 3, want: "kiA"},
		{name: "pads with a", input: `{"color":"red"}`, length: 8, want: "aagmqXFB"},
		{name: "zero length uses default", input: `{"fontSize":20}`, length: 0, want: "QPz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := String(tt.input, tt.length)
			require.Equal(t, tt.want, got)
			assert.Len(t, got, max(tt.length, DefaultLength))
		})
	}
}

func TestHash(t *testing.T) {
	t.Run("maps serialize with sorted keys", func(t *testing.T) {
		a := Hash(map[string]any{"padding": 10, "color": "red"}, 3)
		b := Hash(map[string]any{"color": "red", "padding": 10}, 3)
		assert.Equal(t, a, b)
		assert.Equal(t, "OLn", a)
	})

	t.Run("string values are quoted", func(t *testing.T) {
		assert.Equal(t, "BkV", Hash("hello", 3))
	})

	t.Run("html characters are not escaped", func(t *testing.T) {
		assert.Equal(t, String(`"a>b"`, 5), Hash("a>b", 5))
	})

	t.Run("unserializable values fall back to fmt", func(t *testing.T) {
		ch := make(chan int)
		assert.Len(t, Hash(ch, 4), 4)
	})
}

func TestSum(t *testing.T) {
	assert.Equal(t, uint32(5381), Sum(""))
	assert.Equal(t, uint32(177604), Sum("a"))
	assert.Equal(t, uint32(2371347447), Sum(`{"color":"red"}`))
}

func TestDigestAlphabet(t *testing.T) {
	inputs := []string{"", "x", "button", `{"base":{"color":"red"}}`, "日本語", "🎨 palette"}
	for _, in := range inputs {
		got := String(in, 6)
		for _, r := range got {
			assert.True(t, (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'), "unexpected rune %q in %q", r, got)
		}
	}
}

func TestContent(t *testing.T) {
	a := Content([]byte("export const A = 1"))
	b := Content([]byte("export const A = 2"))

	assert.Equal(t, a, Content([]byte("export const A = 1")))
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^[0-9a-f]+-18$`, a)
}
