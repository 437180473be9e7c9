package xbee

import "strings"

const hexDigits = "0123456789ABCDEF"

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}

// AsciiToBytes decodes an ASCII-hex string into exactly len(out) bytes,
// writing into out and returning the number of bytes written, or -1 if the
// input length doesn't equal 2*len(out) or contains a non-hex character.
func AsciiToBytes(s string, out []byte) int {
	if len(s) != 2*len(out) {
		return -1
	}
	for i := range out {
		hi, ok1 := hexVal(s[2*i])
		lo, ok2 := hexVal(s[2*i+1])
		if !ok1 || !ok2 {
			return -1
		}
		out[i] = hi<<4 | lo
	}
	return len(out)
}

// BytesToAscii renders data as an upper-case ASCII-hex string, the inverse
// of AsciiToBytes.
func BytesToAscii(data []byte) string {
	var sb strings.Builder
	sb.Grow(2 * len(data))
	for _, b := range data {
		sb.WriteByte(hexDigits[b>>4])
		sb.WriteByte(hexDigits[b&0x0F])
	}
	return sb.String()
}
