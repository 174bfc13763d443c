package locate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const source = `import { styled, className } from "stylec";
import type { X } from './types';

// const Button = "in a comment"
const label = "export const Button = nope";

export const Button = styled("button", {
  base: { color: "red" },
});

function inner() {
  const Card = className({ base: {} });
  return Card;
}

export const Card = className({ base: { padding: 4 } }) as any;
const Plain = 42, Other = (styled(Button, {}));
export { Button as Btn } from "./other";
`

func TestFind(t *testing.T) {
	l := New()
	src := []byte(source)

	tests := []struct {
		name     string
		exported bool
		callee   string
		firstArg string
		line     int
		column   int
	}{
		{name: "Button", exported: true, callee: "styled", firstArg: `"button"`, line: 7, column: 14},
		{name: "Card", exported: true, callee: "className", line: 16, column: 14},
		{name: "Other", callee: "styled", firstArg: "Button", line: 17},
		{name: "Plain", line: 17, column: 7},
		{name: "label", line: 5, column: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := l.Find(context.Background(), src, TypeScript, tt.name)
			require.NoError(t, err)

			assert.Equal(t, tt.name, d.Name)
			assert.Equal(t, tt.exported, d.Exported)
			assert.Equal(t, tt.callee, d.Callee)
			assert.Equal(t, tt.line, d.Line)
			if tt.column > 0 {
				assert.Equal(t, tt.column, d.Column)
			}
			if tt.firstArg != "" {
				require.NotEmpty(t, d.Args)
				assert.Equal(t, tt.firstArg, d.Args[0].Text(src))
			}
			assert.True(t, strings.HasPrefix(d.Declarator.Text(src), tt.name+" ="))
		})
	}
}

func TestFindRanges(t *testing.T) {
	l := New()
	src := []byte(source)

	d, err := l.Find(context.Background(), src, TypeScript, "Button")
	require.NoError(t, err)

	assert.Equal(t, "Button = styled(\"button\", {\n  base: { color: \"red\" },\n})", d.Declarator.Text(src))
	assert.True(t, strings.HasPrefix(d.Statement.Text(src), "export const Button"))
	assert.True(t, strings.HasSuffix(d.Statement.Text(src), ";"))
	assert.Equal(t, d.Declarator.End, d.Value.End)

	card, err := l.Find(context.Background(), src, TypeScript, "Card")
	require.NoError(t, err)
	assert.Equal(t, "className({ base: { padding: 4 } })", card.Value.Text(src), "type assertion is unwrapped")
}

func TestFindNotFound(t *testing.T) {
	l := New()

	_, err := l.Find(context.Background(), []byte(source), TSX, "Missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	// destructured bindings are not plain declarators
	_, err = l.Find(context.Background(), []byte("export const { Button } = make();\n"), TSX, "Button")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFindCancelled(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Find(ctx, []byte("export const A = 1;\n"), TSX, "A")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFindBudgetExceeded(t *testing.T) {
	l := New(WithBudget(20 * time.Millisecond))
	line := "export const Box = styled(\"div\", { base: { color: \"red\", padding: 4 } });\n"
	src := []byte(strings.Repeat(line, (16<<20)/len(line)))

	started := time.Now()
	_, err := l.Find(context.Background(), src, TypeScript, "Box")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestDeclarationsAreCached(t *testing.T) {
	l := New()
	src := []byte(source)

	decls, err := l.Declarations(context.Background(), src, TSX)
	require.NoError(t, err)

	names := make([]string, 0, len(decls))
	for _, d := range decls {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"label", "Button", "Card", "Plain", "Other"}, names)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	again, err := l.Declarations(ctx, src, TSX)
	require.NoError(t, err, "cached tables do not need a parse")
	assert.Len(t, again, len(decls))
}

func TestImports(t *testing.T) {
	l := New()
	src := []byte(source)

	imports, err := l.Imports(context.Background(), src, TypeScript)
	require.NoError(t, err)
	require.Len(t, imports, 3)

	assert.Equal(t, "stylec", imports[0].Source)
	assert.Equal(t, "stylec", imports[0].Range.Text(src))
	assert.Equal(t, 1, imports[0].Line)
	assert.Equal(t, "./types", imports[1].Source)
	assert.Equal(t, "./other", imports[2].Source)
}

func TestLanguageFor(t *testing.T) {
	tests := map[string]Language{
		"button.css.ts":  TypeScript,
		"button.css.mts": TypeScript,
		"button.css.tsx": TSX,
		"button.css.js":  TSX,
		"button.css.jsx": TSX,
	}
	for path, want := range tests {
		assert.Equal(t, want, LanguageFor(path), path)
	}
}
