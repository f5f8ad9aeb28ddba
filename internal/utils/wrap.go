package utils

import "strings"

const ellipsis = "..."

// Wrap keeps the first limit bytes of str followed by a marker, "..." unless given.
func Wrap(str string, limit int, marker ...string) string {
	if len(str) <= limit {
		return str
	}
	return str[:limit] + pickMarker(marker)
}

// RightWrap keeps the last limit bytes of str behind a marker. A cut inside a
// path element moves forward to the next separator so logs show whole names.
func RightWrap(str string, limit int, marker ...string) string {
	if len(str) <= limit {
		return str
	}

	tail := str[len(str)-limit:]
	if i := strings.IndexAny(tail, `/\`); i > 0 && i < len(tail)-1 {
		tail = tail[i:]
	}
	return pickMarker(marker) + tail
}

func pickMarker(marker []string) string {
	if len(marker) == 0 {
		return ellipsis
	}
	return marker[0]
}
