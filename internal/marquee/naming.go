package marquee

import (
	"strconv"
	"strings"
)

// FileName derives the download name of a tile: lowercase ASCII letters and
// digits survive, every other run becomes a single '-', and tiles after
// the first get a "-N" suffix (1-based).
func FileName(text string, tileIndex int) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(text) {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	name := b.String()
	if name == "" {
		name = "marquee"
	}
	if tileIndex > 0 {
		name += "-" + strconv.Itoa(tileIndex+1)
	}
	return name + ".gif"
}
