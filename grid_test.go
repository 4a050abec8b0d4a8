package headlessvt

import (
	"strings"
	"testing"
)

func visibleText(term *Terminal) string {
	return strings.TrimRight(term.String(), " \n")
}

func TestGridDimensionInvariant(t *testing.T) {
	term := New(WithSize(5, 10))
	inputs := []string{
		"hello world wrapping text",
		"\x1b[2J\x1b[H",
		"\x1b[3;2H\x1b[4@",
		"\x1b[2L\x1b[1M",
		"\x1b[5S\x1b[2T",
	}
	for _, in := range inputs {
		term.WriteString(in)
		for row := 0; row < term.Rows(); row++ {
			line := term.active.Line(row)
			if line == nil {
				t.Fatalf("after %q: line %d missing", in, row)
			}
			line.Inflate()
			if len(line.Cells) != term.Cols() {
				t.Errorf("after %q: line %d has %d cells, want %d", in, row, len(line.Cells), term.Cols())
			}
		}
	}
}

func TestGridReflowConservation(t *testing.T) {
	term := New(WithSize(4, 10))
	term.WriteString("abcdefghijklmno")

	if got := visibleText(term); got != "abcdefghij\nklmno" {
		t.Fatalf("initial layout = %q", got)
	}
	if !term.IsWrapped(0) {
		t.Fatal("row 0 should carry the wrapped flag")
	}

	term.Resize(4, 5)
	if got := visibleText(term); got != "abcde\nfghij\nklmno" {
		t.Errorf("after shrink = %q", got)
	}

	term.Resize(4, 10)
	if got := visibleText(term); got != "abcdefghij\nklmno" {
		t.Errorf("after round trip = %q, want original content back", got)
	}
}

func TestGridScrollUpIntoHistory(t *testing.T) {
	storage := NewMemoryScrollback(100)
	term := New(WithSize(3, 10), WithScrollback(storage))

	term.WriteString("one\r\ntwo\r\nthree\r\nfour\r\nfive")

	if got := visibleText(term); got != "three\nfour\nfive" {
		t.Errorf("visible = %q", got)
	}
	if storage.Len() != 2 {
		t.Fatalf("history = %d, want 2", storage.Len())
	}
	first := Line{Cells: storage.Line(0), width: len(storage.Line(0))}
	if got := first.Content(); got != "one" {
		t.Errorf("history[0] = %q, want %q", got, "one")
	}
}

func TestGridScrollRegionDoesNotTouchHistory(t *testing.T) {
	storage := NewMemoryScrollback(100)
	term := New(WithSize(5, 10), WithScrollback(storage))

	term.WriteString("a\r\nb\r\nc\r\nd\r\ne")
	before := storage.Len()

	// Restrict scrolling to rows 2..4, then scroll inside the region.
	term.WriteString("\x1b[2;4r\x1b[4;1H\n")

	if storage.Len() != before {
		t.Errorf("margin scroll must not grow scrollback: %d -> %d", before, storage.Len())
	}
	// Row below the region is untouched.
	if got := term.LineContent(4); got != "e" {
		t.Errorf("row below region = %q, want %q", got, "e")
	}
}

func TestGridScrollDownWithinMargins(t *testing.T) {
	term := New(WithSize(5, 10))
	term.WriteString("a\r\nb\r\nc\r\nd\r\ne")
	term.WriteString("\x1b[2;4r") // rows 1..3 0-based
	term.WriteString("\x1b[1T")   // scroll down one inside margins

	if got := term.LineContent(0); got != "a" {
		t.Errorf("row 0 = %q, want untouched", got)
	}
	if got := term.LineContent(1); got != "" {
		t.Errorf("row 1 = %q, want blank after scroll down", got)
	}
	if got := term.LineContent(2); got != "b" {
		t.Errorf("row 2 = %q, want shifted %q", got, "b")
	}
	if got := term.LineContent(4); got != "e" {
		t.Errorf("row 4 = %q, want untouched", got)
	}
}

func TestGridLogicalLines(t *testing.T) {
	term := New(WithSize(4, 5))
	term.WriteString("abcdefg\r\nxyz")

	logical := term.active.logicalLines()
	// First logical line spans two rows ("abcde" wrapped + "fg"),
	// second is "xyz", plus trailing blank rows.
	if len(logical) < 2 {
		t.Fatalf("logical lines = %d, want at least 2", len(logical))
	}
	if len(logical[0].Lines) != 2 {
		t.Errorf("first logical line spans %d rows, want 2", len(logical[0].Lines))
	}
}

func TestGridClearHistory(t *testing.T) {
	storage := NewMemoryScrollback(100)
	term := New(WithSize(3, 10), WithScrollback(storage))

	for i := 0; i < 6; i++ {
		term.WriteString("x\r\n")
	}
	if storage.Len() == 0 {
		t.Fatal("expected history before ED 3")
	}
	term.WriteString("\x1b[3J")
	if storage.Len() != 0 {
		t.Errorf("ED 3 should clear scrollback, got %d lines", storage.Len())
	}
}

func TestGridAltScreenHasNoHistory(t *testing.T) {
	storage := NewMemoryScrollback(100)
	term := New(WithSize(3, 10), WithScrollback(storage))

	term.WriteString("\x1b[?1049h")
	for i := 0; i < 6; i++ {
		term.WriteString("x\r\n")
	}
	if storage.Len() != 0 {
		t.Errorf("alt screen scrolled %d lines into history, want 0", storage.Len())
	}
}

func TestGridTrivialLineInflatesOnCellWrite(t *testing.T) {
	line := NewTrivialLine(10, GraphicsRendition{})
	if !line.IsTrivial() {
		t.Fatal("fresh line should be trivial")
	}
	c := NewCell()
	c.Char = 'x'
	line.SetCell(3, c)
	if line.IsTrivial() {
		t.Error("single-cell write must inflate")
	}
	if got := line.Cell(3).Char; got != 'x' {
		t.Errorf("cell 3 = %q", got)
	}
}

func TestLineSearchBothRepresentations(t *testing.T) {
	trivial := Line{}
	trivial.SetText("hello world", 20, GraphicsRendition{}, 0)
	if col := trivial.search("world", 0, true); col != 6 {
		t.Errorf("trivial search = %d, want 6", col)
	}

	trivial.Inflate()
	if col := trivial.search("world", 0, true); col != 6 {
		t.Errorf("inflated search = %d, want 6", col)
	}
	if col := trivial.search("World", 0, false); col != 6 {
		t.Errorf("case-insensitive search = %d, want 6", col)
	}
	if col := trivial.search("absent", 0, true); col != -1 {
		t.Errorf("missing pattern = %d, want -1", col)
	}
	if col := trivial.searchReverse("o", true); col != 7 {
		t.Errorf("reverse search = %d, want 7 (last o)", col)
	}
	if !trivial.matchTextAt("world", 6, true) {
		t.Error("matchTextAt(6) should match")
	}
	if trivial.matchTextAt("world", 5, true) {
		t.Error("matchTextAt(5) should not match")
	}
}
