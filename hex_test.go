package xbee

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAsciiToBytesSuccess(t *testing.T) {
	// Scenario 5.
	out := make([]byte, 4)
	n := AsciiToBytes("1A2B3C4D", out)
	require.Equal(t, 4, n)
	require.Equal(t, []byte{0x1A, 0x2B, 0x3C, 0x4D}, out)
}

func TestAsciiToBytesWrongLength(t *testing.T) {
	// Scenario 6.
	out := make([]byte, 2)
	require.Equal(t, -1, AsciiToBytes("123", out))
}

func TestAsciiToBytesInvalidChar(t *testing.T) {
	out := make([]byte, 2)
	require.Equal(t, -1, AsciiToBytes("12GH", out))
}

func TestHexIdempotence(t *testing.T) {
	// Property: bytesToAscii(asciiToBytes(s)) == upper(s) for valid even-length hex.
	cases := []string{"DEADBEEF", "00", "FFFFFFFFFFFFFFFF", "0123456789ABCDEF"}
	for _, s := range cases {
		out := make([]byte, len(s)/2)
		n := AsciiToBytes(s, out)
		require.Equal(t, len(out), n)
		require.Equal(t, strings.ToUpper(s), BytesToAscii(out))
	}
}
