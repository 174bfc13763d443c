package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yacobolo/stylec/internal/style"
)

func TestKeyframesCSS(t *testing.T) {
	var p style.Parser

	tests := []struct {
		name string
		kf   *Keyframes
		want string
	}{
		{
			name: "named frames",
			kf: &Keyframes{
				Name:          "fadeIn",
				AnimationName: "fadeIn",
				Frames:        style.ObjectOf("from", style.ObjectOf("opacity", 0), "to", style.ObjectOf("opacity", 1)),
			},
			want: "@keyframes fadeIn { from { opacity:0; } to { opacity:1; } }",
		},
		{
			name: "numeric frames become percentages",
			kf: &Keyframes{
				Name:          "pulse",
				AnimationName: "pulse",
				Frames: style.ObjectOf(
					"0", style.ObjectOf("transform", "scale(1)"),
					"50", style.ObjectOf("transform", "scale(1.1)"),
					"100%", style.ObjectOf("transform", "scale(1)"),
				),
			},
			want: "@keyframes pulse { 0% { transform:scale(1); } 50% { transform:scale(1.1); } 100% { transform:scale(1); } }",
		},
		{
			name: "empty frames render nothing",
			kf:   &Keyframes{Name: "nothing", Frames: style.NewObject()},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.kf.CSS(&p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyframesGeneratedName(t *testing.T) {
	frames := style.ObjectOf("to", style.ObjectOf("opacity", 1), "from", style.ObjectOf("opacity", 0))
	reordered := style.ObjectOf("from", style.ObjectOf("opacity", 0), "to", style.ObjectOf("opacity", 1))

	name := AnimationNameFor(frames)
	assert.Len(t, name, KeyframesHashLength)
	assert.Equal(t, name, AnimationNameFor(reordered))

	kf := &Keyframes{Name: "spin", Frames: frames}
	css, err := kf.CSS(&style.Parser{})
	require.NoError(t, err)
	assert.Contains(t, css, "@keyframes "+name+" {")
	assert.Equal(t, 0, kf.Priority())
	assert.Equal(t, "spin-"+kf.Hash()+"-0.css", kf.CSSFileName())
}
