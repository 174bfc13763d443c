// Package hash computes the short alphabetic digests used as class names,
// keyframe names and output file fragments.
//
// The digest is a pure function of the JSON serialization of its input, so
// callers that need key-order independence must canonicalize maps before
// hashing. The alphabet is a-z followed by A-Z; digests never contain digits
// and are always valid CSS identifiers.
package hash

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf16"
)

// DefaultLength is the digest length used when callers pass a non-positive length.
const DefaultLength = 3

const alphabetSize = 52

// Hash serializes v to JSON and returns a digest of exactly length characters.
// Values that cannot be serialized are hashed by their fmt representation.
func Hash(v any, length int) string {
	data, err := marshal(v)
	if err != nil {
		return String(fmt.Sprintf("%v", v), length)
	}
	return String(string(data), length)
}

// String returns a digest of s of exactly length characters.
func String(s string, length int) string {
	if length <= 0 {
		length = DefaultLength
	}
	name := alphabetic(Sum(s))
	if len(name) >= length {
		return name[len(name)-length:]
	}
	return strings.Repeat("a", length-len(name)) + name
}

// Sum is the 32-bit djb2-xor rolling hash over the UTF-16 code units of s,
// consumed from the end of the string.
func Sum(s string) uint32 {
	units := utf16.Encode([]rune(s))
	h := uint32(5381)
	for i := len(units) - 1; i >= 0; i-- {
		h = h*33 ^ uint32(units[i])
	}
	return h
}

func alphabetic(code uint32) string {
	var buf []byte
	x := code
	for ; x > alphabetSize; x /= alphabetSize {
		buf = append(buf, alphabeticChar(x%alphabetSize))
	}
	buf = append(buf, alphabeticChar(x%alphabetSize))

	// digits were produced least significant first
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

func alphabeticChar(code uint32) byte {
	if code > 25 {
		return byte(code + 39)
	}
	return byte(code + 97)
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
