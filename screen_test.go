package headlessvt

import (
	"bytes"
	"strings"
	"testing"
)

func fillFivePage(term *Terminal) {
	term.WriteString("12345\r\n67890\r\nABCDE\r\nabcde\r\nfghij")
}

func TestRectChangeAttributes(t *testing.T) {
	term := New(WithSize(5, 5))
	fillFivePage(term)

	term.WriteString("\x1b[2;3;4;5;1;38:2::171:178:191;4$r")

	want := RGBColor(171, 178, 191)
	for row := 1; row <= 3; row++ {
		for col := 2; col <= 4; col++ {
			c := term.Cell(row, col)
			if c == nil {
				t.Fatalf("cell (%d,%d) missing", row, col)
			}
			if c.Foreground != want {
				t.Errorf("cell (%d,%d) fg = %+v, want %+v", row, col, c.Foreground, want)
			}
			if !c.HasFlag(CellBold) || !c.HasFlag(CellUnderline) {
				t.Errorf("cell (%d,%d) flags = %b, want bold+underline", row, col, c.GraphicsRendition.Flags)
			}
		}
	}
	// Text unchanged, cells outside the rectangle untouched.
	if got := term.LineContent(1); got != "67890" {
		t.Errorf("row 1 text = %q", got)
	}
	if c := term.Cell(0, 0); c.HasFlag(CellBold) || c.Foreground != DefaultColor {
		t.Errorf("cell (0,0) should be untouched, got %+v", c.GraphicsRendition)
	}
	if c := term.Cell(1, 1); c.HasFlag(CellBold) {
		t.Error("cell (1,1) left of rectangle should be untouched")
	}
}

func TestRectReverseAttributes(t *testing.T) {
	term := New(WithSize(5, 5))
	fillFivePage(term)

	term.WriteString("\x1b[1;1;2;2;1$t")
	if c := term.Cell(0, 0); !c.HasFlag(CellBold) {
		t.Fatal("first toggle should set bold")
	}
	term.WriteString("\x1b[1;1;2;2;1$t")
	if c := term.Cell(0, 0); c.HasFlag(CellBold) {
		t.Error("second toggle should clear bold")
	}
}

func TestRectFillAndErase(t *testing.T) {
	term := New(WithSize(5, 5))
	fillFivePage(term)

	term.WriteString("\x1b[42;1;1;2;2$x") // fill 2x2 with '*'
	if got := term.LineContent(0); got != "**345" {
		t.Errorf("after DECFRA row 0 = %q", got)
	}

	term.WriteString("\x1b[1;1;2;2$z") // erase the same rectangle
	if got := term.LineContent(0); got != "  345" {
		t.Errorf("after DECERA row 0 = %q", got)
	}
}

func TestTextScrollAndHistoryCapture(t *testing.T) {
	storage := NewMemoryScrollback(20)
	var replies bytes.Buffer
	term := New(WithSize(5, 5), WithScrollback(storage), WithResponse(&replies))

	for i := 1; i <= 10; i++ {
		if i > 1 {
			term.WriteString("\r\n")
		}
		term.WriteString(itoa(i))
	}

	if got := visibleText(term); got != "6\n7\n8\n9\n10" {
		t.Fatalf("visible = %q, want 6..10", got)
	}
	if storage.Len() != 5 {
		t.Fatalf("history = %d, want 5", storage.Len())
	}

	term.WriteString("\x1b[>0;7t")
	want := "\x1bP314;4\n5\n6\n7\n8\n9\n10\n\x1b\\\x1bP314;\x1b\\"
	if got := replies.String(); got != want {
		t.Errorf("capture reply = %q, want %q", got, want)
	}
}

func itoa(n int) string {
	if n < 10 {
		return string(rune('0' + n))
	}
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}

func TestRISResetsStatusDisplay(t *testing.T) {
	term := New(WithSize(5, 20))
	term.WriteString("\x1b[1$~")
	if term.StatusDisplay() != StatusDisplayIndicator {
		t.Fatal("DECSSDT 1 should select the indicator status line")
	}
	term.WriteString("\x1bc")
	if term.StatusDisplay() != StatusDisplayNone {
		t.Error("RIS must reset the status display type to none")
	}
}

func TestPushPopColorsAndReport(t *testing.T) {
	var replies bytes.Buffer
	term := New(WithSize(5, 20), WithResponse(&replies))

	term.WriteString("\x1b[2#P") // save into slot 2
	term.WriteString("\x1b[#R")
	if got := replies.String(); got != "\x1b[2;2#Q" {
		t.Fatalf("report = %q, want CSI 2;2 # Q", got)
	}

	// Over-push beyond slot 10 is a no-op.
	replies.Reset()
	term.WriteString("\x1b[11#P\x1b[#R")
	if got := replies.String(); got != "\x1b[2;2#Q" {
		t.Errorf("after over-push report = %q, want unchanged", got)
	}

	// Pop slot 2, stack empties.
	replies.Reset()
	term.WriteString("\x1b[2#Q\x1b[#R")
	if got := replies.String(); got != "\x1b[0;0#Q" {
		t.Errorf("after pop report = %q, want empty stack", got)
	}

	// Under-pop is a no-op.
	replies.Reset()
	term.WriteString("\x1b[#Q\x1b[#R")
	if got := replies.String(); got != "\x1b[0;0#Q" {
		t.Errorf("after under-pop report = %q", got)
	}
}

func TestPushPopColorsRestoresPalette(t *testing.T) {
	term := New(WithSize(5, 20))

	original := term.config.DefaultPalette[1]
	term.WriteString("\x1b[1#P")                // save
	term.WriteString("\x1b]4;1;rgb:00/ff/00\x07") // mutate entry 1
	if term.config.DefaultPalette[1] == original {
		t.Fatal("OSC 4 should have changed the palette")
	}
	term.WriteString("\x1b[1#Q") // restore
	if term.config.DefaultPalette[1] != original {
		t.Error("XTPOPCOLORS should restore the saved palette")
	}
}

func TestSelectionExtraction(t *testing.T) {
	term := New(WithSize(5, 5))
	fillFivePage(term)

	term.SetSelection(Position{Row: 1, Col: 1}, Position{Row: 2, Col: 2})
	if got := term.GetSelectedText(); got != "7890\nABC" {
		t.Errorf("selection = %q, want %q", got, "7890\nABC")
	}

	term.ClearSelection()
	if got := term.GetSelectedText(); got != "" {
		t.Errorf("cleared selection = %q, want empty", got)
	}
}

func TestSGRRoundTrip(t *testing.T) {
	cases := []string{
		"\x1b[0m",
		"\x1b[1;3;4m",
		"\x1b[4:3;38:5:123m",
		"\x1b[1;38:2::171:178:191;48:5:17m",
		"\x1b[2;7;9;58:2::1:2:3m",
		"\x1b[91;102m",
	}
	for _, seq := range cases {
		t.Run(seq, func(t *testing.T) {
			var replies bytes.Buffer
			term := New(WithSize(5, 20), WithResponse(&replies))
			term.WriteString("\x1b[0m" + seq)
			want := term.cursor.Pen

			// Ask DECRQSS for the SGR state, replay its payload, compare.
			term.WriteString("\x1bP$qm\x1b\\")
			reply := replies.String()
			const prefix = "\x1bP1$r"
			if !strings.HasPrefix(reply, prefix) || !strings.HasSuffix(reply, "m\x1b\\") {
				t.Fatalf("reply = %q", reply)
			}
			payload := strings.TrimSuffix(strings.TrimPrefix(reply, prefix), "\x1b\\")

			term.WriteString("\x1b[0m\x1b[" + payload)
			if term.cursor.Pen != want {
				t.Errorf("round trip: got %+v, want %+v (payload %q)", term.cursor.Pen, want, payload)
			}
		})
	}
}

func TestDECRQSSMargins(t *testing.T) {
	var replies bytes.Buffer
	term := New(WithSize(10, 40), WithResponse(&replies))

	term.WriteString("\x1b[3;8r")
	term.WriteString("\x1bP$qr\x1b\\")
	if got := replies.String(); got != "\x1bP1$r3;8r\x1b\\" {
		t.Errorf("DECSTBM report = %q", got)
	}

	replies.Reset()
	term.WriteString("\x1b[4 q") // steady underline
	term.WriteString("\x1bP$q q\x1b\\")
	if got := replies.String(); got != "\x1bP1$r4 q\x1b\\" {
		t.Errorf("DECSCUSR report = %q", got)
	}

	replies.Reset()
	term.WriteString("\x1bP$qz\x1b\\") // unknown request
	if got := replies.String(); got != "\x1bP0$r\x1b\\" {
		t.Errorf("unknown DECRQSS = %q, want not-supported reply", got)
	}
}

func TestProtectedCellsSkippedByRectOps(t *testing.T) {
	term := New(WithSize(3, 10))
	term.WriteString("\x1b[1\"q")  // DECSCA protect
	term.WriteString("AB")
	term.WriteString("\x1b[0\"q") // unprotect
	term.WriteString("CD")

	term.WriteString("\x1b[1;1;1;10${") // DECSERA over the row
	if got := term.LineContent(0); got != "AB" {
		t.Errorf("row after DECSERA = %q, want protected %q to survive", got, "AB")
	}

	term.WriteString("\x1b[1;1;1;10$z") // DECERA ignores protection
	if got := term.LineContent(0); got != "" {
		t.Errorf("row after DECERA = %q, want fully erased", got)
	}
}

func TestDeviceAttributesAndStatus(t *testing.T) {
	var replies bytes.Buffer
	term := New(WithSize(5, 20), WithResponse(&replies))

	term.WriteString("\x1b[c")
	if got := replies.String(); got != "\x1b[?62;22c" {
		t.Errorf("DA1 = %q", got)
	}

	replies.Reset()
	term.WriteString("\x1b[>c")
	if got := replies.String(); got != "\x1b[>1;10;0c" {
		t.Errorf("DA2 = %q", got)
	}

	replies.Reset()
	term.WriteString("\x1b[3;7H\x1b[6n")
	if got := replies.String(); got != "\x1b[3;7R" {
		t.Errorf("CPR = %q", got)
	}

	replies.Reset()
	term.WriteString("\x1b[5n")
	if got := replies.String(); got != "\x1b[0n" {
		t.Errorf("DSR = %q", got)
	}
}

func TestPushPopSGR(t *testing.T) {
	term := New(WithSize(3, 10))

	term.WriteString("\x1b[1;31m") // bold red
	saved := term.cursor.Pen
	term.WriteString("\x1b[#{")   // push
	term.WriteString("\x1b[0;4m") // clobber the pen
	term.WriteString("\x1b[#}")   // pop
	if term.cursor.Pen != saved {
		t.Errorf("pen after pop = %+v, want %+v", term.cursor.Pen, saved)
	}

	// Under-pop is a no-op.
	term.WriteString("\x1b[#}")
	if term.cursor.Pen != saved {
		t.Error("under-pop must leave the pen unchanged")
	}
}

func TestTertiaryDeviceAttributes(t *testing.T) {
	var replies bytes.Buffer
	term := New(WithSize(3, 10), WithResponse(&replies))
	term.WriteString("\x1b[=c")
	if got := replies.String(); got != "\x1bP!|00000000\x1b\\" {
		t.Errorf("DA3 = %q", got)
	}
}

func TestXTSMGraphicsQueries(t *testing.T) {
	var replies bytes.Buffer
	term := New(WithSize(3, 10), WithResponse(&replies))

	term.WriteString("\x1b[?1;1S")
	if got := replies.String(); got != "\x1b[?1;0;1024S" {
		t.Errorf("color registers query = %q", got)
	}

	replies.Reset()
	term.WriteString("\x1b[?2;1S")
	if got := replies.String(); got != "\x1b[?2;0;4096;4096S" {
		t.Errorf("sixel geometry query = %q", got)
	}
}

func TestConformanceGatesRectOps(t *testing.T) {
	term := New(WithSize(5, 5))
	fillFivePage(term)

	term.WriteString("\x1b[61\"p") // declare VT100
	term.WriteString("\x1b[1;1;2;2;1$r")
	if c := term.Cell(0, 0); c.HasFlag(CellBold) {
		t.Error("DECCARA must be ignored at VT100 conformance")
	}

	term.WriteString("\x1b[65\"p") // back to VT500
	term.WriteString("\x1b[1;1;2;2;1$r")
	if c := term.Cell(0, 0); !c.HasFlag(CellBold) {
		t.Error("DECCARA should work again at VT500 conformance")
	}
}

func TestWindowOpsReports(t *testing.T) {
	var replies bytes.Buffer
	term := New(WithSize(24, 80), WithResponse(&replies))

	term.WriteString("\x1b[18t")
	if got := replies.String(); got != "\x1b[8;24;80t" {
		t.Errorf("text-size report = %q", got)
	}

	replies.Reset()
	term.WriteString("\x1b[14t")
	if got := replies.String(); got != "\x1b[4;384;640t" {
		t.Errorf("pixel-size report = %q (8x16 default cell)", got)
	}
}
