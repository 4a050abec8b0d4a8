package headlessvt

import (
	"strings"
	"time"
)

// StatusDisplayType is the DECSSDT status-line selection. The terminal
// stores the requested type and exposes StatusLine() for the host-writable
// and indicator variants; None suppresses the status row entirely.
type StatusDisplayType int

const (
	StatusDisplayNone StatusDisplayType = iota
	StatusDisplayIndicator
	StatusDisplayHostWritable
)

func (t *Terminal) screenSetStatusDisplay(n int) {
	switch n {
	case 0:
		t.statusDisplay = StatusDisplayNone
	case 1:
		t.statusDisplay = StatusDisplayIndicator
	case 2:
		t.statusDisplay = StatusDisplayHostWritable
	}
	t.renderDirty = true
}

// StatusDisplay reports the currently selected DECSSDT status-line type.
func (t *Terminal) StatusDisplay() StatusDisplayType {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusDisplay
}

// CursorShape is the renderer-facing cursor form. Block is painted by
// color overlay inside the matching RenderCell; the other shapes are
// separate primitives the embedding renderer draws itself.
type CursorShape int

const (
	CursorShapeBlock CursorShape = iota
	CursorShapeBar
	CursorShapeUnderscore
	CursorShapeRectangle
)

func cursorShapeOf(style CursorStyle) CursorShape {
	switch style {
	case CursorStyleBlinkingBar, CursorStyleSteadyBar:
		return CursorShapeBar
	case CursorStyleBlinkingUnderline, CursorStyleSteadyUnderline:
		return CursorShapeUnderscore
	default:
		return CursorShapeBlock
	}
}

// RenderAttributes is the fully resolved, palette-applied coloring of one
// RenderCell. Decoration is the underline/strike color.
type RenderAttributes struct {
	FG         RGB
	BG         RGB
	Decoration RGB
	Flags      CellFlags
}

// RenderCell is one flat render primitive: a positioned grapheme cluster
// with resolved colors. GroupStart/GroupEnd bracket runs of identical
// attributes so a renderer can batch draw calls.
type RenderCell struct {
	Position   Position
	Attributes RenderAttributes
	Codepoints []rune
	Width      int
	Image      *CellImage
	GroupStart bool
	GroupEnd   bool
}

// RenderLine is the fast path for a trivial line no overlay touches: one
// primitive carrying the whole row's text and two uniform attribute sets.
type RenderLine struct {
	LineOffset     int
	UsedColumns    int
	Text           string
	TextAttributes RenderAttributes
	FillAttributes RenderAttributes
}

// RenderCursor describes where and how to paint the cursor. For
// CursorShapeBlock the cell under it already carries the overlay colors;
// other shapes are drawn by the caller at Position spanning CellWidth.
type RenderCursor struct {
	Position  Position
	Shape     CursorShape
	CellWidth int
}

// RenderBuffer is one complete frame of render primitives (spec §4.9).
type RenderBuffer struct {
	FrameID uint64
	Cursor  *RenderCursor
	Cells   []RenderCell
	Lines   []RenderLine
}

// Text reconstructs the visible text of the frame, one string per row,
// trimming trailing blanks. Rows drawn through the RenderLine fast path
// and rows drawn cell-by-cell both contribute.
func (rb *RenderBuffer) Text(rows, cols int) string {
	grid := make([][]rune, rows)
	for i := range grid {
		grid[i] = make([]rune, cols)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}
	for _, l := range rb.Lines {
		if l.LineOffset < 0 || l.LineOffset >= rows {
			continue
		}
		for i, r := range []rune(l.Text) {
			if i < cols {
				grid[l.LineOffset][i] = r
			}
		}
	}
	for _, c := range rb.Cells {
		if c.Position.Row < 0 || c.Position.Row >= rows || c.Position.Col < 0 || c.Position.Col >= cols {
			continue
		}
		if len(c.Codepoints) > 0 {
			grid[c.Position.Row][c.Position.Col] = c.Codepoints[0]
		}
	}
	lines := make([]string, rows)
	for i := range grid {
		lines[i] = strings.TrimRight(string(grid[i]), " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// Overlay palette. These are package defaults an embedder can override
// before building frames; they mirror the palette-defined overlays in
// spec §3 ("selection, search, cursor").
var (
	SelectionForeground    = RGB{255, 255, 255}
	SelectionBackground    = RGB{68, 68, 120}
	SelectionAlpha         = 0.6
	SearchMatchBackground  = RGB{96, 96, 0}
	SearchFocusedMatchBackground = RGB{160, 120, 0}
	SearchMatchForeground  = RGB{0, 0, 0}
)

// --- blink clock ---

// Tick advances the terminal's notion of "now", used by the cursor blink
// phase (spec §4.6 "tick(now): advances animation/blink state"). Crossing a
// blink boundary marks the render buffer dirty.
func (t *Terminal) Tick(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentTime = now.UnixNano()
	phase := t.blinkPhaseAt(t.currentTime)
	if phase != t.blinkPhase {
		t.blinkPhase = phase
		t.renderDirty = true
	}
}

func (t *Terminal) blinkPhaseAt(nanos int64) bool {
	interval := t.config.CursorBlinkingInterval
	if interval <= 0 || t.config.CursorDisplay == CursorDisplaySteady {
		return true
	}
	// Forced visible for one full interval after any key event.
	if t.lastKeyTime != 0 && nanos-t.lastKeyTime < int64(interval) {
		return true
	}
	return (nanos/int64(interval))%2 == 0
}

// KeyEventReceived notes a key press so the blinking cursor is forced
// visible for one interval (spec §8 "forced true for T after any key
// event").
func (t *Terminal) KeyEventReceived(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastKeyTime = now.UnixNano()
	t.blinkPhase = true
	t.renderDirty = true
}

// CursorCurrentlyVisible folds DECTCEM visibility with the blink phase.
func (t *Terminal) CursorCurrentlyVisible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.cursor.Visible {
		return false
	}
	if !t.cursor.Style.Blinks() {
		return true
	}
	return t.blinkPhaseAt(t.currentTime)
}

// --- frame building ---

// EnsureFreshRenderBuffer returns the current frame, rebuilding it only if
// terminal state changed since the last build. While batched rendering
// (DEC 2026) is enabled no snapshot is taken: the previous frame is
// returned unchanged (spec §4.2/§5).
func (t *Terminal) EnsureFreshRenderBuffer() *RenderBuffer {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.modes.HasDec(DecModeBatchedRendering) {
		return t.frontBuffer()
	}
	if !t.renderDirty && t.renderFront != nil {
		return t.renderFront
	}
	return t.rebuildLocked()
}

// RefreshRenderBuffer rebuilds unconditionally (unless batched rendering
// forbids taking a snapshot).
func (t *Terminal) RefreshRenderBuffer() *RenderBuffer {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.modes.HasDec(DecModeBatchedRendering) {
		return t.frontBuffer()
	}
	return t.rebuildLocked()
}

func (t *Terminal) frontBuffer() *RenderBuffer {
	if t.renderFront == nil {
		t.renderFront = &RenderBuffer{}
	}
	return t.renderFront
}

// rebuildLocked builds into the back buffer then swaps front/back, the
// double-buffering contract from spec §5.
func (t *Terminal) rebuildLocked() *RenderBuffer {
	if t.renderBack == nil {
		t.renderBack = &RenderBuffer{}
	}
	t.images.DrainDiscards()
	t.buildInto(t.renderBack)
	t.renderFront, t.renderBack = t.renderBack, t.renderFront
	t.renderDirty = false
	return t.renderFront
}

type searchMarks map[Position]bool // true = the focused match

// buildInto projects the grid plus selection/search/cursor overlays into
// rb (spec §4.9).
func (t *Terminal) buildInto(rb *RenderBuffer) {
	t.frameID++
	rb.FrameID = t.frameID
	rb.Cells = rb.Cells[:0]
	rb.Lines = rb.Lines[:0]
	rb.Cursor = nil

	marks := t.computeSearchMarks()

	for row := 0; row < t.rows; row++ {
		line := t.active.Line(row)
		if line == nil {
			continue
		}
		if line.IsTrivial() && !t.rowHasOverlay(row, marks) {
			rb.Lines = append(rb.Lines, t.trivialRenderLine(row, line))
			continue
		}
		t.buildRowCells(rb, row, line, marks)
	}

	if t.cursor.Visible && t.blinkPhaseAt(t.currentTime) {
		width := 1
		if c := t.active.Cell(t.cursor.Row, t.cursor.Col); c != nil && c.IsWide() {
			width = 2
		}
		rb.Cursor = &RenderCursor{
			Position:  Position{Row: t.cursor.Row, Col: t.cursor.Col},
			Shape:     cursorShapeOf(t.cursor.Style),
			CellWidth: width,
		}
	}
}

// rowHasOverlay reports whether selection, search, reverse video or the
// block cursor touches the row, disqualifying the trivial fast path.
func (t *Terminal) rowHasOverlay(row int, marks searchMarks) bool {
	if t.modes.HasDec(DecModeReverseVideo) {
		return true
	}
	if t.cursor.Visible && t.cursor.Row == row {
		return true
	}
	if t.hasSelection {
		lo, hi := normalizeSelection(t.selection)
		if row >= lo.Row && row <= hi.Row {
			return true
		}
	}
	for pos := range marks {
		if pos.Row == row {
			return true
		}
	}
	return false
}

func (t *Terminal) trivialRenderLine(row int, line *Line) RenderLine {
	attrs := t.resolveAttributes(line.fillAttrs)
	return RenderLine{
		LineOffset:     row,
		UsedColumns:    line.usedCols,
		Text:           line.text,
		TextAttributes: attrs,
		FillAttributes: attrs,
	}
}

func (t *Terminal) buildRowCells(rb *RenderBuffer, row int, line *Line, marks searchMarks) {
	line.Inflate()
	groupStartIdx := -1
	var prevAttrs RenderAttributes
	for col := 0; col < len(line.Cells); col++ {
		cell := &line.Cells[col]
		if cell.IsWideSpacer() {
			continue
		}
		attrs := t.deriveCellAttributes(cell, row, col, marks)
		rc := RenderCell{
			Position:   Position{Row: row, Col: col},
			Attributes: attrs,
			Codepoints: cell.Runes(),
			Width:      cell.Width,
			Image:      cell.Image,
		}
		// Group boundaries: a run of identical attributes (blank
		// cells included) is bracketed by GroupStart/GroupEnd so the renderer can
		// batch it (spec §4.9 "Grouping").
		if groupStartIdx < 0 || attrs != prevAttrs {
			if groupStartIdx >= 0 {
				rb.Cells[len(rb.Cells)-1].GroupEnd = true
			}
			rc.GroupStart = true
			groupStartIdx = len(rb.Cells)
		}
		prevAttrs = attrs
		rb.Cells = append(rb.Cells, rc)
	}
	if groupStartIdx >= 0 && len(rb.Cells) > 0 {
		rb.Cells[len(rb.Cells)-1].GroupEnd = true
	}
}

// deriveCellAttributes runs the overlay pipeline from spec §4.9: SGR base
// resolution, then the search overlay (replaces the colors), the selection
// overlay (blended with go-colorful's BlendRgb), and the block-cursor
// overlay (swaps foreground and background).
func (t *Terminal) deriveCellAttributes(cell *Cell, row, col int, marks searchMarks) RenderAttributes {
	g := cell.GraphicsRendition
	bold := g.Flags&CellBold != 0
	faint := g.Flags&CellFaint != 0

	fg := g.Foreground.Resolve(t.config.DefaultPalette, true, bold, faint)
	bg := g.Background.Resolve(t.config.DefaultPalette, false, false, false)

	if g.Flags&CellInverse != 0 {
		fg, bg = bg, fg
	}
	if t.modes.HasDec(DecModeReverseVideo) {
		fg, bg = bg, fg
	}
	if g.Flags&CellHidden != 0 {
		fg = bg
	}

	deco := fg
	if g.Underline.Kind != ColorDefault {
		deco = g.Underline.Resolve(t.config.DefaultPalette, true, false, false)
	}

	pos := Position{Row: row, Col: col}
	if isFocused, ok := marks[pos]; ok {
		fg = SearchMatchForeground
		if isFocused {
			bg = SearchFocusedMatchBackground
		} else {
			bg = SearchMatchBackground
		}
	}

	if t.hasSelection && positionInSelection(pos, t.selection) {
		fg = fg.Blend(SelectionForeground, SelectionAlpha)
		bg = bg.Blend(SelectionBackground, SelectionAlpha)
	}

	if t.cursor.Visible && t.blinkPhaseAt(t.currentTime) &&
		cursorShapeOf(t.cursor.Style) == CursorShapeBlock &&
		t.cursor.Row == row && t.cursor.Col == col {
		fg, bg = bg, fg
	}

	return RenderAttributes{FG: fg, BG: bg, Decoration: deco, Flags: g.Flags}
}

// resolveAttributes resolves a bare rendition with no per-cell overlays,
// used by the trivial-line fast path and the status line.
func (t *Terminal) resolveAttributes(g GraphicsRendition) RenderAttributes {
	bold := g.Flags&CellBold != 0
	faint := g.Flags&CellFaint != 0
	fg := g.Foreground.Resolve(t.config.DefaultPalette, true, bold, faint)
	bg := g.Background.Resolve(t.config.DefaultPalette, false, false, false)
	if g.Flags&CellInverse != 0 {
		fg, bg = bg, fg
	}
	return RenderAttributes{FG: fg, BG: bg, Decoration: fg, Flags: g.Flags}
}

func normalizeSelection(s Selection) (lo, hi Position) {
	lo, hi = s.Start, s.End
	if lo.Row > hi.Row || (lo.Row == hi.Row && lo.Col > hi.Col) {
		lo, hi = hi, lo
	}
	return lo, hi
}

func positionInSelection(p Position, s Selection) bool {
	lo, hi := normalizeSelection(s)
	if p.Row < lo.Row || p.Row > hi.Row {
		return false
	}
	if p.Row == lo.Row && p.Col < lo.Col {
		return false
	}
	if p.Row == hi.Row && p.Col > hi.Col {
		return false
	}
	return true
}

// --- search overlay ---

// SetSearchPattern installs the pattern highlighted by subsequent frames;
// focus names the match that gets the focused palette (spec §4.9 "two
// palettes: focused vs unfocused match").
func (t *Terminal) SetSearchPattern(pattern string, focus Position) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.searchPattern = pattern
	t.searchFocused = focus
	t.hasSearch = pattern != ""
	t.renderDirty = true
}

// ClearSearchPattern removes the search overlay.
func (t *Terminal) ClearSearchPattern() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.searchPattern = ""
	t.hasSearch = false
	t.renderDirty = true
}

// computeSearchMarks scans the visible cell sequence for pattern matches,
// carrying a running offset into the pattern across line ends so a match
// split over a wrap is still highlighted (spec §4.9 "Search highlight").
func (t *Terminal) computeSearchMarks() searchMarks {
	marks := make(searchMarks)
	if !t.hasSearch || t.searchPattern == "" {
		return marks
	}
	pattern := []rune(strings.ToLower(t.searchPattern))

	var window []Position
	matchIdx := 0
	for row := 0; row < t.rows; row++ {
		line := t.active.Line(row)
		if line == nil {
			continue
		}
		content := []rune(line.Content())
		for col := 0; col < len(content); col++ {
			r := unicodeToLower(content[col])
			if r == pattern[matchIdx] {
				window = append(window, Position{Row: row, Col: col})
				matchIdx++
				if matchIdx == len(pattern) {
					focused := containsPosition(window, t.searchFocused)
					for _, p := range window {
						marks[p] = focused
					}
					window = window[:0]
					matchIdx = 0
				}
			} else {
				window = window[:0]
				matchIdx = 0
				if r == pattern[0] {
					window = append(window, Position{Row: row, Col: col})
					matchIdx = 1
				}
			}
		}
	}
	return marks
}

func containsPosition(ps []Position, p Position) bool {
	for _, q := range ps {
		if q == p {
			return true
		}
	}
	return false
}

func unicodeToLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// --- status line ---

// StatusLine renders the indicator status row: the window title padded to
// the page width, reusing the same resolved-attribute machinery as the
// main frame. Returns a zero-value RenderLine while the status display
// type is None.
func (t *Terminal) StatusLine() RenderLine {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.statusDisplay == StatusDisplayNone {
		return RenderLine{}
	}
	text := t.title
	if len([]rune(text)) > t.cols {
		text = string([]rune(text)[:t.cols])
	}
	attrs := t.resolveAttributes(GraphicsRendition{Flags: CellInverse})
	return RenderLine{
		LineOffset:     t.rows,
		UsedColumns:    len([]rune(text)),
		Text:           text,
		TextAttributes: attrs,
		FillAttributes: attrs,
	}
}
