package rewrite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yacobolo/stylec/internal/locate"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		edits   []Edit
		want    string
		wantErr error
	}{
		{
			name:  "edits in any order",
			src:   "hello world",
			edits: []Edit{{Start: 6, End: 11, Text: "gophers"}, {Start: 0, End: 5, Text: "goodbye"}},
			want:  "goodbye gophers",
		},
		{
			name:  "insertion and deletion",
			src:   "abcdef",
			edits: []Edit{{Start: 0, End: 0, Text: ">"}, {Start: 2, End: 4, Text: ""}},
			want:  ">abef",
		},
		{
			name:  "adjacent edits",
			src:   "aabb",
			edits: []Edit{{Start: 0, End: 2, Text: "x"}, {Start: 2, End: 4, Text: "y"}},
			want:  "xy",
		},
		{
			name:    "overlapping edits",
			src:     "abcdef",
			edits:   []Edit{{Start: 0, End: 3, Text: "x"}, {Start: 2, End: 4, Text: "y"}},
			wantErr: ErrOverlap,
		},
		{
			name:  "no edits",
			src:   "same",
			want:  "same",
			edits: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := []byte(tt.src)
			got, err := Apply(src, tt.edits)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
			assert.Equal(t, tt.src, string(src), "source buffer is not modified")
		})
	}
}

func TestApplyOutOfBounds(t *testing.T) {
	_, err := Apply([]byte("abc"), []Edit{{Start: 2, End: 10}})
	require.Error(t, err)
}

func TestMinimize(t *testing.T) {
	src := []byte(`import { styled } from "stylec";
export const Button = styled("button", { base: { color: "red" } });
export const card = className({ base: { padding: 4 } });
const untouched = 1;
`)
	l := locate.New()
	ctx := context.Background()

	button, err := l.Find(ctx, src, locate.TSX, "Button")
	require.NoError(t, err)
	card, err := l.Find(ctx, src, locate.TSX, "card")
	require.NoError(t, err)
	imports, err := l.Imports(ctx, src, locate.TSX)
	require.NoError(t, err)

	entries := []Entry{
		{Kind: Styled, Declaration: button, ClassNames: "XFB", ClientProps: `{"element":"button"}`, CSSImport: "./stylegen/css/f-button.css"},
		{Kind: ClassName, Declaration: card, ClassNames: "abc extra"},
	}

	out, err := Minimize(src, entries, imports, Options{Module: "stylec", Runtime: "stylec/runtime"})
	require.NoError(t, err)

	want := `import "./stylegen/css/f-button.css";
import { styled } from "stylec/runtime";
export const Button = styled("button", "XFB", {"element":"button"});
export const card = className("abc extra");
const untouched = 1;
`
	assert.Equal(t, want, string(out))
}

func TestMinimizeKeepsAliasedCallee(t *testing.T) {
	src := []byte(`import { styled as s } from "stylec";
export const Link = s(Base, { base: { color: "blue" } });
`)
	decl := locate.Declaration{
		Name:       "Link",
		Declarator: locate.Range{Start: 51, End: 94},
		Callee:     "s",
		Args:       []locate.Range{{Start: 60, End: 64}},
	}
	require.Equal(t, "Link = s(Base, { base: { color: \"blue\" } })", decl.Declarator.Text(src))

	out, err := Minimize(src, []Entry{{Kind: Styled, Declaration: decl, ClassNames: "abc"}}, nil, Options{})
	require.NoError(t, err)
	assert.Contains(t, string(out), `export const Link = s(Base, "abc", {});`)
	assert.Contains(t, string(out), `from "stylec";`, "imports are left alone without runtime options")
}

func TestMinimizeMissingTag(t *testing.T) {
	decl := locate.Declaration{Name: "X", Declarator: locate.Range{Start: 0, End: 1}}
	_, err := Minimize([]byte("X"), []Entry{{Kind: Styled, Declaration: decl}}, nil, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "X")
}
