package mapservice

import (
	"strings"
	"unicode"
)

// Sanitize strips characters that would split or terminate a URL path
// segment, so a layer or map name can be interpolated safely.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == '/', r == '\\', r == '?', r == '#', r == ';', r == '%':
			continue
		case unicode.IsControl(r):
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
