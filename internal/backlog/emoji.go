package backlog

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// pictographic approximates the Extended_Pictographic property for the
// first rune of an emoji cluster.
var pictographic = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00a9, Hi: 0x00a9, Stride: 1},
		{Lo: 0x00ae, Hi: 0x00ae, Stride: 1},
		{Lo: 0x203c, Hi: 0x203c, Stride: 1},
		{Lo: 0x2049, Hi: 0x2049, Stride: 1},
		{Lo: 0x2122, Hi: 0x2122, Stride: 1},
		{Lo: 0x2139, Hi: 0x2139, Stride: 1},
		{Lo: 0x2194, Hi: 0x21aa, Stride: 1},
		{Lo: 0x231a, Hi: 0x23ff, Stride: 1},
		{Lo: 0x24c2, Hi: 0x24c2, Stride: 1},
		{Lo: 0x25aa, Hi: 0x25fe, Stride: 1},
		{Lo: 0x2600, Hi: 0x27bf, Stride: 1},
		{Lo: 0x2934, Hi: 0x2935, Stride: 1},
		{Lo: 0x2b05, Hi: 0x2b55, Stride: 1},
		{Lo: 0x3030, Hi: 0x3030, Stride: 1},
		{Lo: 0x303d, Hi: 0x303d, Stride: 1},
		{Lo: 0x3297, Hi: 0x3297, Stride: 1},
		{Lo: 0x3299, Hi: 0x3299, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1f000, Hi: 0x1faff, Stride: 1},
	},
	LatinOffset: 2,
}

// splitEmoji separates a leading emoji from a title. The emoji is one
// grapheme cluster (so ZWJ sequences, flags and variation selectors stay
// whole) and must be followed by whitespace and more text.
func splitEmoji(title string) (string, string) {
	cluster, rest, _, _ := uniseg.FirstGraphemeClusterInString(title, -1)
	if cluster == "" {
		return "", title
	}

	first, _ := utf8.DecodeRuneInString(cluster)
	if !unicode.Is(pictographic, first) {
		return "", title
	}

	trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
	if trimmed == rest || trimmed == "" {
		return "", title
	}

	return cluster, strings.TrimSpace(trimmed)
}
