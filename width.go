package headlessvt

import (
	"github.com/rivo/uniseg"
	"github.com/unilibs/uniwidth"
)

// runeWidth returns the display width: 2 for wide characters (CJK, emoji),
// 1 for normal, 0 for zero-width (combining marks, control chars).
func runeWidth(r rune) int {
	return uniwidth.RuneWidth(r)
}

func isWideRune(r rune) bool {
	return uniwidth.RuneWidth(r) == 2
}

// StringWidth returns the total display width of a string.
func StringWidth(s string) int {
	return uniwidth.StringWidth(s)
}

// nextGraphemeCluster consumes the first grapheme cluster from s and
// reports its width in columns, using a full Unicode segmentation (spec
// §4.1's "grapheme scanner" and §4.5 step 5's combining-mark handling)
// rather than treating every rune as its own cluster. Returns the cluster's
// runes, its column width, and the remainder of s.
func nextGraphemeCluster(s string) (cluster []rune, width int, rest string) {
	cl, remainder, w, _ := uniseg.FirstGraphemeClusterInString(s, -1)
	return []rune(cl), w, remainder
}
