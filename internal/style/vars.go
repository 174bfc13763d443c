package style

import (
	"bytes"
	"io"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// VarUsage lists the custom properties a stylesheet declares and references.
type VarUsage struct {
	Declared   []string
	Referenced []string
}

// ScanVariables lexes css and collects custom property names (with their
// leading dashes) that are declared ("--x: 1") or referenced ("var(--x)").
// Each name is listed once, in order of first appearance.
func ScanVariables(source string) (VarUsage, error) {
	var usage VarUsage
	declared := make(map[string]bool)
	referenced := make(map[string]bool)

	lexer := css.NewLexer(parse.NewInputString(source))
	var prev css.TokenType
	var prevText []byte
	var pending string

	for {
		tt, text := lexer.Next()
		if tt == css.ErrorToken {
			break
		}
		if tt == css.WhitespaceToken || tt == css.CommentToken {
			continue
		}

		if pending != "" {
			if tt == css.ColonToken && !declared[pending] {
				declared[pending] = true
				usage.Declared = append(usage.Declared, pending)
			}
			pending = ""
		}

		if tt == css.CustomPropertyNameToken {
			name := string(text)
			if prev == css.FunctionToken && bytes.EqualFold(prevText, []byte("var(")) {
				if !referenced[name] {
					referenced[name] = true
					usage.Referenced = append(usage.Referenced, name)
				}
			} else {
				pending = name
			}
		}

		prev = tt
		prevText = append(prevText[:0], text...)
	}

	if err := lexer.Err(); err != nil && err != io.EOF {
		return usage, err
	}
	return usage, nil
}

// UndeclaredVariables returns the names referenced by source that are neither
// declared in source nor present in known.
func UndeclaredVariables(source string, known map[string]bool) ([]string, error) {
	usage, err := ScanVariables(source)
	if err != nil {
		return nil, err
	}
	local := make(map[string]bool, len(usage.Declared))
	for _, name := range usage.Declared {
		local[name] = true
	}
	var missing []string
	for _, name := range usage.Referenced {
		if !local[name] && !known[name] {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
