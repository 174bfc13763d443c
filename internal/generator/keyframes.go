package generator

import (
	"fmt"
	"strings"

	"github.com/yacobolo/stylec/internal/hash"
	"github.com/yacobolo/stylec/internal/style"
)

// KeyframesHashLength is the digest length of generated animation names.
const KeyframesHashLength = 4

// Keyframes is an exported @keyframes block.
type Keyframes struct {
	Name          string
	AnimationName string
	Frames        *style.Object
}

// AnimationNameFor returns the animation name generated for frames when the
// author does not supply one.
func AnimationNameFor(frames *style.Object) string {
	return hash.Hash(frames.Canonical(), KeyframesHashLength)
}

func (k *Keyframes) Identifier() string { return k.Name }

func (k *Keyframes) Hash() string {
	return hash.Hash(k.Frames.Canonical(), HashLength)
}

func (k *Keyframes) Priority() int { return 0 }

func (k *Keyframes) CSSFileName() string {
	return FileName(k.Name, k.Hash(), 0)
}

func (k *Keyframes) animationName() string {
	if k.AnimationName != "" {
		return k.AnimationName
	}
	return AnimationNameFor(k.Frames)
}

// CSS renders @keyframes {name} { {frame} { ... } ... }. Numeric frame keys
// are treated as percentages.
func (k *Keyframes) CSS(p *style.Parser) (string, error) {
	frames := make([]string, 0, k.Frames.Len())
	for _, key := range k.Frames.Keys() {
		frame := k.Frames.Object(key)
		if frame.Empty() {
			continue
		}
		css, err := p.Parse(frame, frameSelector(key))
		if err != nil {
			return "", fmt.Errorf("keyframes %s: frame %s: %w", k.Name, key, err)
		}
		frames = append(frames, css)
	}
	if len(frames) == 0 {
		return "", nil
	}
	return "@keyframes " + k.animationName() + " { " + strings.Join(frames, " ") + " }", nil
}

func frameSelector(key string) string {
	if key == "" {
		return key
	}
	for _, r := range key {
		if (r < '0' || r > '9') && r != '.' {
			return key
		}
	}
	return key + "%"
}
