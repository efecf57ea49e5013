package normalize

import (
	"strings"
	"unicode/utf8"
)

// Sanitize drops NUL, ASCII and C1 controls, DEL and invalid UTF-8 bytes
// tab, CR and LF become spaces; a clean s is returned as is
func Sanitize(s string) string {
	if clean(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			b.WriteByte(' ')
		case dropped(r, size):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func dropped(r rune, size int) bool {
	return (r == utf8.RuneError && size == 1) || r < 0x20 || r == 0x7F || (r >= 0x80 && r <= 0x9F)
}

func clean(s string) bool {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if dropped(r, size) {
			return false
		}
		i += size
	}
	return true
}
