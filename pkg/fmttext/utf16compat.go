package fmttext

import "unicode/utf8"

// utf16RuneLen mirrors utf16.RuneLen (added in Go 1.23) so the package
// builds with older toolchains: it returns the number of UTF-16 code units
// needed to encode r, or -1 if r is not a valid value to encode.
func utf16RuneLen(r rune) int {
	switch {
	case 0 <= r && r < 0xd800, 0xe000 <= r && r < 0x10000:
		return 1
	case 0x10000 <= r && r <= utf8.MaxRune:
		return 2
	default:
		return -1
	}
}
