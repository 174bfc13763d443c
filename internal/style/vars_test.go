package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanVariables(t *testing.T) {
	css := `:root { --colors-brand: #f00; --space: 4px; }
.a { color: var(--colors-brand); margin: var( --space ) var(--missing, 2px); }
.b { background: VAR(--colors-brand); }`

	usage, err := ScanVariables(css)
	require.NoError(t, err)
	assert.Equal(t, []string{"--colors-brand", "--space"}, usage.Declared)
	assert.Equal(t, []string{"--colors-brand", "--space", "--missing"}, usage.Referenced)
}

func TestUndeclaredVariables(t *testing.T) {
	css := `.a { --local: 1; color: var(--colors-brand); width: var(--local); height: var(--unknown); }`

	missing, err := UndeclaredVariables(css, map[string]bool{"--colors-brand": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"--unknown"}, missing)
}
