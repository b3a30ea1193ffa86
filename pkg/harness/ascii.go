package harness

import "strings"

// EncodeASCII converts text to one input value per byte.
func EncodeASCII(s string) []int64 {
	out := make([]int64, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = int64(s[i])
	}
	return out
}

// DecodeASCII renders the leading run of ASCII values as text and returns
// everything from the first value outside 0..127 as rest.
func DecodeASCII(values []int64) (text string, rest []int64) {
	var b strings.Builder
	for i, v := range values {
		if v < 0 || v > 127 {
			return b.String(), values[i:]
		}
		b.WriteByte(byte(v))
	}
	return b.String(), nil
}
