package headlessvt

import (
	"testing"
	"time"
)

func frameText(term *Terminal) string {
	rb := term.EnsureFreshRenderBuffer()
	return rb.Text(term.Rows(), term.Cols())
}

func TestRenderBufferBasicText(t *testing.T) {
	term := New(WithSize(3, 20))
	term.WriteString("hello")
	if got := frameText(term); got != "hello" {
		t.Errorf("frame text = %q", got)
	}
}

func TestRenderBufferFrameIDAdvances(t *testing.T) {
	term := New(WithSize(3, 20))
	term.WriteString("a")
	rb1 := term.EnsureFreshRenderBuffer()
	id1 := rb1.FrameID

	// No change: same frame returned, id stable.
	rb2 := term.EnsureFreshRenderBuffer()
	if rb2.FrameID != id1 {
		t.Errorf("unchanged state rebuilt the frame: %d -> %d", id1, rb2.FrameID)
	}

	term.WriteString("b")
	rb3 := term.EnsureFreshRenderBuffer()
	if rb3.FrameID <= id1 {
		t.Errorf("dirty state should advance the frame id, got %d after %d", rb3.FrameID, id1)
	}
}

func TestSynchronizedOutput(t *testing.T) {
	term := New(WithSize(5, 20))
	now := time.Unix(100, 0)

	term.WriteString("\x1b[?2026h")
	term.WriteString("Hello ")
	term.Tick(now)
	if got := frameText(term); got != "" {
		t.Fatalf("batched frame = %q, want empty", got)
	}

	term.WriteString(" World")
	now = now.Add(time.Second)
	term.Tick(now)
	if got := frameText(term); got != "" {
		t.Fatalf("still batched, frame = %q, want empty", got)
	}

	term.WriteString("\x1b[?2026l")
	now = now.Add(time.Second)
	term.Tick(now)
	if got := frameText(term); got != "Hello  World" {
		t.Errorf("after unbatch frame = %q, want %q", got, "Hello  World")
	}
}

func TestRenderBufferGrouping(t *testing.T) {
	term := New(WithSize(2, 20))
	term.WriteString("\x1b[31mred\x1b[0m plain")
	// Cursor sits on row 0, so the row is built cell-by-cell.
	rb := term.EnsureFreshRenderBuffer()

	if len(rb.Cells) == 0 {
		t.Fatal("expected per-cell output for the cursor row")
	}
	if !rb.Cells[0].GroupStart {
		t.Error("first cell must open a group")
	}
	// The red run and the following default run have different attributes,
	// so a boundary must exist at column 3.
	var boundary bool
	for _, c := range rb.Cells {
		if c.Position.Col == 3 && c.GroupStart {
			boundary = true
		}
	}
	if !boundary {
		t.Error("expected a group boundary where the SGR changes")
	}
	if !rb.Cells[len(rb.Cells)-1].GroupEnd {
		t.Error("last cell must close its group")
	}
}

func TestRenderBufferTrivialLineFastPath(t *testing.T) {
	term := New(WithSize(5, 20))
	term.WriteString("top\r\n\r\n\r\n\r\nbottom")
	rb := term.EnsureFreshRenderBuffer()

	// Rows without cursor/selection/search overlays come out as RenderLines.
	var fastRows []int
	for _, l := range rb.Lines {
		fastRows = append(fastRows, l.LineOffset)
	}
	if len(fastRows) == 0 {
		t.Fatal("expected at least one fast-path line")
	}
	for _, row := range fastRows {
		if row == term.cursor.Row {
			t.Errorf("cursor row %d must not use the fast path", row)
		}
	}
}

func TestRenderBufferSelectionOverlay(t *testing.T) {
	term := New(WithSize(2, 10))
	term.WriteString("abcdef")
	base := term.EnsureFreshRenderBuffer()
	baseBG := base.Cells[1].Attributes.BG

	term.SetSelection(Position{Row: 0, Col: 1}, Position{Row: 0, Col: 3})
	rb := term.EnsureFreshRenderBuffer()

	var inside, outside RenderAttributes
	for _, c := range rb.Cells {
		if c.Position == (Position{Row: 0, Col: 2}) {
			inside = c.Attributes
		}
		if c.Position == (Position{Row: 0, Col: 5}) {
			outside = c.Attributes
		}
	}
	if inside.BG == baseBG {
		t.Error("selected cell background should be tinted")
	}
	if outside.BG != baseBG {
		t.Error("unselected cell background should be unchanged")
	}
}

func TestRenderBufferSearchOverlay(t *testing.T) {
	term := New(WithSize(3, 20))
	term.WriteString("find the needle here")
	term.SetSearchPattern("needle", Position{Row: 0, Col: 9})
	rb := term.EnsureFreshRenderBuffer()

	var hit, miss RenderAttributes
	for _, c := range rb.Cells {
		if c.Position == (Position{Row: 0, Col: 9}) {
			hit = c.Attributes
		}
		if c.Position == (Position{Row: 0, Col: 0}) {
			miss = c.Attributes
		}
	}
	if hit.BG != SearchFocusedMatchBackground {
		t.Errorf("match cell bg = %+v, want focused search palette", hit.BG)
	}
	if miss.BG == SearchFocusedMatchBackground || miss.BG == SearchMatchBackground {
		t.Error("non-match cell must not carry the search palette")
	}
}

func TestRenderBufferSearchAcrossWrap(t *testing.T) {
	term := New(WithSize(3, 5))
	term.WriteString("xxhello") // wraps as "xxhel" / "lo"
	term.SetSearchPattern("hello", Position{})
	rb := term.EnsureFreshRenderBuffer()

	marked := map[Position]bool{}
	for _, c := range rb.Cells {
		if c.Attributes.BG == SearchMatchBackground || c.Attributes.BG == SearchFocusedMatchBackground {
			marked[c.Position] = true
		}
	}
	for _, p := range []Position{{0, 2}, {0, 3}, {0, 4}, {1, 0}, {1, 1}} {
		if !marked[p] {
			t.Errorf("cell %+v should be highlighted (match spans the wrap)", p)
		}
	}
	if marked[(Position{Row: 0, Col: 0})] {
		t.Error("cell before the match should not be highlighted")
	}
}

func TestRenderBufferCursor(t *testing.T) {
	term := New(WithSize(3, 10))
	term.WriteString("ab")
	rb := term.EnsureFreshRenderBuffer()

	if rb.Cursor == nil {
		t.Fatal("visible cursor should be reported")
	}
	if rb.Cursor.Position != (Position{Row: 0, Col: 2}) {
		t.Errorf("cursor at %+v", rb.Cursor.Position)
	}
	if rb.Cursor.Shape != CursorShapeBlock {
		t.Errorf("default shape = %v, want block", rb.Cursor.Shape)
	}

	term.WriteString("\x1b[?25l")
	rb = term.RefreshRenderBuffer()
	if rb.Cursor != nil {
		t.Error("hidden cursor must not be reported")
	}

	term.WriteString("\x1b[?25h\x1b[5 q") // blinking bar
	rb = term.RefreshRenderBuffer()
	if rb.Cursor == nil || rb.Cursor.Shape != CursorShapeBar {
		t.Errorf("cursor = %+v, want bar shape", rb.Cursor)
	}
}

func TestCursorBlinkToggling(t *testing.T) {
	term := New(WithSize(3, 10))
	interval := term.config.CursorBlinkingInterval

	term.Tick(time.Unix(0, 0))
	if !term.CursorCurrentlyVisible() {
		t.Fatal("phase 0 should be visible")
	}
	term.Tick(time.Unix(0, int64(interval)))
	if term.CursorCurrentlyVisible() {
		t.Error("after one interval the cursor should be blanked")
	}
	term.Tick(time.Unix(0, 2*int64(interval)))
	if !term.CursorCurrentlyVisible() {
		t.Error("after two intervals the cursor should be visible again")
	}
}

func TestCursorBlinkForcedVisibleAfterKey(t *testing.T) {
	term := New(WithSize(3, 10))
	interval := term.config.CursorBlinkingInterval

	// Land on a blanked phase, then press a key: visibility is forced for
	// one full interval.
	term.Tick(time.Unix(0, int64(interval)))
	if term.CursorCurrentlyVisible() {
		t.Fatal("setup: expected blanked phase")
	}
	term.KeyEventReceived(time.Unix(0, int64(interval)))
	if !term.CursorCurrentlyVisible() {
		t.Error("key press must force the cursor visible")
	}
	term.Tick(time.Unix(0, int64(interval)+int64(interval)/2))
	if !term.CursorCurrentlyVisible() {
		t.Error("still inside the forced window")
	}
}

func TestStatusLine(t *testing.T) {
	term := New(WithSize(3, 30))
	term.WriteString("\x1b]2;my title\x07")

	if line := term.StatusLine(); line.Text != "" {
		t.Errorf("status display off: line = %+v, want zero value", line)
	}

	term.WriteString("\x1b[1$~")
	line := term.StatusLine()
	if line.Text != "my title" {
		t.Errorf("status text = %q, want the window title", line.Text)
	}
	if line.LineOffset != term.Rows() {
		t.Errorf("status line offset = %d, want %d (below the page)", line.LineOffset, term.Rows())
	}
}

func TestDECRQMReply(t *testing.T) {
	term := New(WithSize(3, 10))
	var replies []byte
	term.SetResponseProvider(writerFunc(func(p []byte) (int, error) {
		replies = append(replies, p...)
		return len(p), nil
	}))

	term.WriteString("\x1b[?2004h")
	term.WriteString("\x1b[?2004$p")
	if got := string(replies); got != "\x1b[?2004;1$y" {
		t.Errorf("DECRQM set reply = %q", got)
	}

	replies = nil
	term.WriteString("\x1b[?2004l\x1b[?2004$p")
	if got := string(replies); got != "\x1b[?2004;2$y" {
		t.Errorf("DECRQM reset reply = %q", got)
	}

	replies = nil
	term.WriteString("\x1b[?31337$p")
	if got := string(replies); got != "\x1b[?31337;0$y" {
		t.Errorf("DECRQM unknown reply = %q", got)
	}
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
