package migrate

import (
	"fmt"
	"math/big"
	"strings"
)

// Weight computes a rational number in (0, 1) whose ordering matches the
// lexicographic ordering of value, for ASCII input. Non-ASCII ordering is
// unspecified, but the algorithm below is applied uniformly regardless of
// input.
//
// The decimal expansion is "0." followed by, for every Unicode codepoint in
// value, its UTF-8-byte little-endian uint32 representation zero-padded to
// 10 decimal digits. That decimal string is parsed as an arbitrary-precision
// rational. KindInvalidWeight is returned if the result is zero, which
// happens for an empty string or one made only of NUL characters (every
// other codepoint contributes a non-zero digit run).
func Weight(value string) (*big.Rat, error) {
	var b strings.Builder
	b.Grow(len(value)*4 + 2)
	b.WriteString("0.")

	for _, r := range value {
		var buf [4]byte
		n := encodeUTF8LE(buf[:], r)
		fmt.Fprintf(&b, "%010d", n)
	}

	w, ok := new(big.Rat).SetString(b.String())
	if !ok || w.Sign() == 0 {
		return nil, newError(KindInvalidWeight, value, nil)
	}
	return w, nil
}

// encodeUTF8LE encodes r as UTF-8 into buf (always 4 bytes, zero-padded)
// and returns the little-endian uint32 built from those 4 bytes - matching
// Rust's `char::encode_utf8` into a 4-byte buffer followed by
// `u32::from_le_bytes`.
func encodeUTF8LE(buf []byte, r rune) uint32 {
	for i := range buf {
		buf[i] = 0
	}
	n := utf8EncodeRune(buf, r)
	_ = n
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
}

// utf8EncodeRune writes the UTF-8 encoding of r into buf (which must have
// room for at least 4 bytes) and returns the number of bytes written.
func utf8EncodeRune(buf []byte, r rune) int {
	switch {
	case r < 0x80:
		buf[0] = byte(r)
		return 1
	case r < 0x800:
		buf[0] = 0xC0 | byte(r>>6)
		buf[1] = 0x80 | byte(r&0x3F)
		return 2
	case r < 0x10000:
		buf[0] = 0xE0 | byte(r>>12)
		buf[1] = 0x80 | byte((r>>6)&0x3F)
		buf[2] = 0x80 | byte(r&0x3F)
		return 3
	default:
		buf[0] = 0xF0 | byte(r>>18)
		buf[1] = 0x80 | byte((r>>12)&0x3F)
		buf[2] = 0x80 | byte((r>>6)&0x3F)
		buf[3] = 0x80 | byte(r&0x3F)
		return 4
	}
}
