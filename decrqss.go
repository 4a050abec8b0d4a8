package headlessvt

import (
	"fmt"
	"strconv"
	"strings"
)

// finishDecrqss answers DECRQSS (DCS $ q <Pt> ST): the request string
// accumulated in t.dcsBuf names a setting, and the reply echoes back the
// sequence that would reproduce the current value of that setting,
// matching the four requests Contour's Sequencer/Parser-impl answer (spec
// SUPPLEMENTED FEATURES: "SGR, DECSTBM, DECSLRM, and DECSCUSR specifically").
// Unknown requests get a "not supported" reply (Ps=0) rather than silence,
// per spec §7 ("some requests... must produce a reply even when partially
// supported").
func (t *Terminal) finishDecrqss() {
	req := string(t.dcsBuf)
	pt, ok := t.decrqssReply(req)
	if !ok {
		t.respond("\x1bP0$r\x1b\\")
		return
	}
	t.respond(fmt.Sprintf("\x1bP1$r%s\x1b\\", pt))
}

func (t *Terminal) decrqssReply(req string) (string, bool) {
	switch req {
	case "m":
		return t.sgrReplyString() + "m", true
	case "r":
		return fmt.Sprintf("%d;%dr", t.margins.Top+1, t.margins.Bottom+1), true
	case "s":
		return fmt.Sprintf("%d;%ds", t.margins.Left+1, t.margins.Right+1), true
	case " q":
		return fmt.Sprintf("%d q", decscusrNumber(t.cursor.Style)), true
	}
	return "", false
}

func decscusrNumber(s CursorStyle) int {
	switch s {
	case CursorStyleBlinkingBlock:
		return 1
	case CursorStyleSteadyBlock:
		return 2
	case CursorStyleBlinkingUnderline:
		return 3
	case CursorStyleSteadyUnderline:
		return 4
	case CursorStyleBlinkingBar:
		return 5
	case CursorStyleSteadyBar:
		return 6
	default:
		return 1
	}
}

// sgrReplyString renders the cursor pen's current GraphicsRendition as the
// semicolon-separated parameter list a "set" SGR sequence would use to
// reproduce it (spec §8 "SGR round-trip": "parsing the CSI form emitted for
// g reproduces g exactly").
func (t *Terminal) sgrReplyString() string {
	g := t.cursor.Pen
	var parts []string
	push := func(p string) { parts = append(parts, p) }

	if g.Flags&CellBold != 0 {
		push("1")
	}
	if g.Flags&CellFaint != 0 {
		push("2")
	}
	if g.Flags&CellItalic != 0 {
		push("3")
	}
	switch {
	case g.Flags&CellDoublyUnderlined != 0:
		push("4:2")
	case g.Flags&CellCurlyUnderlined != 0:
		push("4:3")
	case g.Flags&CellDottedUnderline != 0:
		push("4:4")
	case g.Flags&CellDashedUnderline != 0:
		push("4:5")
	case g.Flags&CellUnderline != 0:
		push("4")
	}
	if g.Flags&CellBlinking != 0 {
		push("5")
	}
	if g.Flags&CellRapidBlinking != 0 {
		push("6")
	}
	if g.Flags&CellInverse != 0 {
		push("7")
	}
	if g.Flags&CellHidden != 0 {
		push("8")
	}
	if g.Flags&CellCrossedOut != 0 {
		push("9")
	}
	push(colorSGRField(g.Foreground, true))
	push(colorSGRField(g.Background, false))
	if g.Flags&CellFramed != 0 {
		push("51")
	}
	if g.Flags&CellEncircled != 0 {
		push("52")
	}
	if g.Flags&CellOverline != 0 {
		push("53")
	}
	if g.Underline.Kind != ColorDefault {
		push(colorSGRFieldBase(g.Underline, 58))
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, ";")
}

// colorSGRField renders fg (base 30/38/39) or bg (base 40/48/49).
func colorSGRField(c Color, isFg bool) string {
	base := 40
	def := "49"
	if isFg {
		base = 30
		def = "39"
	}
	switch c.Kind {
	case ColorIndexed:
		if c.Index < 8 {
			return strconv.Itoa(base + int(c.Index))
		}
		return fmt.Sprintf("%d:5:%d", base+8, c.Index)
	case ColorBright:
		return strconv.Itoa(base + 60 + int(c.Index))
	case ColorRGB:
		return fmt.Sprintf("%d:2::%d:%d:%d", base+8, c.R, c.G, c.B)
	default:
		return def
	}
}

func colorSGRFieldBase(c Color, base int) string {
	switch c.Kind {
	case ColorIndexed:
		return fmt.Sprintf("%d:5:%d", base, c.Index)
	case ColorRGB:
		return fmt.Sprintf("%d:2::%d:%d:%d", base, c.R, c.G, c.B)
	default:
		return fmt.Sprintf("%d:0", base)
	}
}
