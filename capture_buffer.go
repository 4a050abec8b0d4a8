package headlessvt

import (
	"fmt"
	"strings"
)

// screenCaptureBuffer implements the CSI > Ps ; Pn t buffer-capture
// extension (spec §8 scenario 2): Ps selects output format (0 = plain
// text, the only one implemented), Pn is how many of the most recent
// lines (history + visible, oldest first) to return. The reply is a DCS
// "314;<text>" sequence carrying the captured text followed by a second,
// empty "314;" DCS sequence that signals completion — mirroring Contour's
// multi-chunk capture reply, collapsed to a single chunk since our output
// is never large enough to need splitting.
func (t *Terminal) screenCaptureBuffer(params [][]int64) {
	n := int(paramNoZeroDefault(params, 1, int64(t.rows)))
	histLen := t.scrollback.Len()
	total := histLen + t.rows
	if n > total {
		n = total
	}
	if n < 0 {
		n = 0
	}
	start := total - n
	lines := make([]string, 0, n)
	for i := start; i < total; i++ {
		if i < histLen {
			cells := t.scrollback.Line(i)
			l := Line{Cells: cells, width: len(cells)}
			lines = append(lines, l.Content())
		} else {
			row := i - histLen
			if ln := t.active.Line(row); ln != nil {
				lines = append(lines, ln.Content())
			} else {
				lines = append(lines, "")
			}
		}
	}
	text := strings.Join(lines, "\n")
	if text != "" {
		text += "\n"
	}
	t.respond(fmt.Sprintf("\x1bP314;%s\x1b\\", text))
	t.respond("\x1bP314;\x1b\\")
}
