package headlessvt

// Margins bounds the scrolling region (spec §3 "Margins").
type Margins struct {
	Top, Bottom int // 0-based, inclusive, within the page
	Left, Right int // 0-based, inclusive; equal to [0, cols-1] unless DecModeLeftRightMargin
}

// LogicalLine is a maximal run of lines chained by the Wrapped flag (spec
// §4.4 "logicalLines()"), the unit of resize/reflow and of reverse search
// across line boundaries.
type LogicalLine struct {
	Top, Bottom int // visible-offset range, inclusive; Top is negative when the range starts in history
	Lines       []*Line
}

// Grid is the ring-buffer-backed screen storage from spec §3/§4.4/§9: a
// fixed-capacity circular array of Lines sized maxHistoryLines+page.lines.
// Offset 0 is the top of the visible page; negative offsets address
// scrollback. `top` is the physical ring index holding offset 0.
type Grid struct {
	lines []Line
	top   int // physical index of visible-offset 0
	hist  int // count of valid history lines (offsets [-hist, 0))

	pageLines, pageCols int
	maxHistory          int
	reflowEnabled       bool
	hasHistory          bool // false for the alternate screen (spec §4.6: alt screen is history-less)

	store ScrollbackProvider // sink receiving every line scrolled off the page
}

func NewGrid(pageLines, pageCols, maxHistory int, hasHistory, reflow bool) *Grid {
	cap := pageLines + maxHistory
	if !hasHistory {
		cap = pageLines
		maxHistory = 0
	}
	g := &Grid{
		lines:         make([]Line, cap),
		pageLines:     pageLines,
		pageCols:      pageCols,
		maxHistory:    maxHistory,
		hasHistory:    hasHistory,
		reflowEnabled: reflow,
	}
	for i := range g.lines {
		g.lines[i] = NewTrivialLine(pageCols, GraphicsRendition{})
	}
	return g
}

func (g *Grid) capacity() int { return len(g.lines) }

// physicalIndex maps a visible-offset (negative = history) to a physical
// ring slot.
func (g *Grid) physicalIndex(offset int) int {
	n := g.capacity()
	idx := (g.top + offset) % n
	if idx < 0 {
		idx += n
	}
	return idx
}

func (g *Grid) PageLines() int  { return g.pageLines }
func (g *Grid) PageCols() int   { return g.pageCols }
func (g *Grid) HistoryLen() int { return g.hist }

// Line returns the line at the given visible offset ([-hist, pageLines)),
// or nil if out of range (spec §4.4 "Grid invariants").
func (g *Grid) Line(offset int) *Line {
	if offset < -g.hist || offset >= g.pageLines {
		return nil
	}
	return &g.lines[g.physicalIndex(offset)]
}

func (g *Grid) Cell(row, col int) *Cell {
	l := g.Line(row)
	if l == nil {
		return nil
	}
	return l.Cell(col)
}

func (g *Grid) SetCell(row, col int, c Cell) {
	l := g.Line(row)
	if l == nil {
		return
	}
	l.SetCell(col, c)
}

// scrollbackPopper is the optional extension a ScrollbackProvider can
// implement to hand the newest stored line back when the page grows and
// uncovers history.
type scrollbackPopper interface {
	Pop() []Cell
}

// pushHistoryLine moves a line rotated off the top of the page into
// scrollback: a copy goes to the ScrollbackProvider, and the ring keeps up
// to maxHistory lines addressable at negative offsets for reflow (spec
// §4.4 scrollUp: "rotated-out lines become scrollback").
func (g *Grid) pushHistoryLine(l Line) {
	if !g.hasHistory {
		return
	}
	if g.store != nil {
		cp := l
		cp.Inflate()
		g.store.Push(append([]Cell(nil), cp.Cells...))
	}
	if g.maxHistory > 0 && g.hist < g.maxHistory {
		g.hist++
	}
}

// scrollUp advances the visible window n lines within margins (spec §4.4
// scrollUp). When margins cover the full page and history is enabled, the
// rotated-out lines become scrollback; otherwise the margin block is
// shifted in place and vacated lines are cleared. Returns the number of
// lines actually moved to scrollback.
func (g *Grid) scrollUp(n int, m Margins, fill GraphicsRendition) int {
	if n <= 0 {
		return 0
	}
	fullWidth := m.Left == 0 && m.Right == g.pageCols-1
	fullPage := fullWidth && m.Top == 0 && m.Bottom == g.pageLines-1
	if fullPage && g.hasHistory {
		moved := n
		if moved > g.pageLines {
			moved = g.pageLines
		}
		for i := 0; i < moved; i++ {
			g.pushHistoryLine(*g.Line(i))
		}
		g.top = (g.top + moved) % g.capacity()
		for i := g.pageLines - moved; i < g.pageLines; i++ {
			nl := NewInflatedLine(g.pageCols, fill)
			*g.Line(i) = nl
		}
		return moved
	}
	g.shiftRegionUp(n, m, fill)
	return 0
}

// scrollDown is scrollUp's symmetric counterpart; it never grows scrollback
// (spec §4.4 scrollDown).
func (g *Grid) scrollDown(n int, m Margins) {
	g.shiftRegionDown(n, m, GraphicsRendition{})
}

func (g *Grid) shiftRegionUp(n int, m Margins, fill GraphicsRendition) {
	height := m.Bottom - m.Top + 1
	if n > height {
		n = height
	}
	for row := m.Top; row <= m.Bottom-n; row++ {
		g.copyRowRange(row+n, row, m.Left, m.Right)
	}
	for row := m.Bottom - n + 1; row <= m.Bottom; row++ {
		g.clearRowRange(row, m.Left, m.Right, fill)
	}
}

func (g *Grid) shiftRegionDown(n int, m Margins, fill GraphicsRendition) {
	height := m.Bottom - m.Top + 1
	if n > height {
		n = height
	}
	for row := m.Bottom; row >= m.Top+n; row-- {
		g.copyRowRange(row-n, row, m.Left, m.Right)
	}
	for row := m.Top; row < m.Top+n; row++ {
		g.clearRowRange(row, m.Left, m.Right, fill)
	}
}

func (g *Grid) copyRowRange(src, dst, left, right int) {
	sl, dl := g.Line(src), g.Line(dst)
	if sl == nil || dl == nil {
		return
	}
	if left == 0 && right == g.pageCols-1 {
		*dl = *sl
		if len(sl.Cells) > 0 {
			dl.Cells = append([]Cell(nil), sl.Cells...)
		}
		return
	}
	dl.Inflate()
	sl.Inflate()
	for c := left; c <= right && c < len(dl.Cells) && c < len(sl.Cells); c++ {
		dl.Cells[c] = sl.Cells[c]
	}
}

func (g *Grid) clearRowRange(row, left, right int, fill GraphicsRendition) {
	l := g.Line(row)
	if l == nil {
		return
	}
	l.ClearRange(left, right+1, fill)
}

// InsertLines/DeleteLines delegate to the shift helpers (grounded in the
// teacher's buffer.go InsertLines/DeleteLines).
func (g *Grid) InsertLines(at, n int, m Margins, fill GraphicsRendition) {
	region := m
	region.Top = at
	g.shiftRegionDown(n, region, fill)
}

func (g *Grid) DeleteLines(at, n int, m Margins, fill GraphicsRendition) {
	region := m
	region.Top = at
	g.shiftRegionUp(n, region, fill)
}

// ClearHistory drops all scrollback (primary only).
func (g *Grid) ClearHistory() {
	g.hist = 0
	if g.store != nil {
		g.store.Clear()
	}
}

// Resize implements spec §4.4 resize: pad/truncate when reflow is off or
// columns are unchanged; full logical-line rewrap otherwise. Returns the
// adjusted cursor position.
func (g *Grid) Resize(newLines, newCols int, cursorRow, cursorCol int, allowReflow bool) (int, int) {
	if !g.reflowEnabled || !allowReflow || newCols == g.pageCols {
		return g.resizeNoReflow(newLines, newCols, cursorRow, cursorCol)
	}
	return g.resizeReflow(newLines, newCols, cursorRow, cursorCol)
}

func (g *Grid) resizeNoReflow(newLines, newCols, cursorRow, cursorCol int) (int, int) {
	fill := GraphicsRendition{}
	for i := 0; i < g.pageLines; i++ {
		if l := g.Line(i); l != nil {
			l.Resize(newCols, fill)
		}
	}

	// Row shrink: trailing blank rows below the cursor are simply dropped;
	// once content (or the cursor) reaches the bottom, rows flow off the
	// top into scrollback instead (spec §4.4 resize, "Row shrink").
	for g.pageLines > newLines {
		if cursorRow < g.pageLines-1 {
			if bottom := g.Line(g.pageLines - 1); bottom != nil && bottom.isBlank() {
				g.pageLines--
				continue
			}
		}
		g.pushHistoryLine(*g.Line(0))
		g.top = (g.top + 1) % g.capacity()
		g.pageLines--
		cursorRow--
	}

	// Row growth: prefer uncovering history over appending blank rows
	// (spec §4.4 resize, "Row growth").
	for g.pageLines < newLines {
		if g.hist > 0 {
			g.top = g.physicalIndexBackward(1)
			g.hist--
			// Keep the provider in step with the ring: the line just
			// uncovered is its newest entry.
			if p, ok := g.store.(scrollbackPopper); ok && g.store.Len() > 0 {
				p.Pop()
			}
			cursorRow++
		} else {
			g.growCapacityBy(1)
		}
		g.pageLines++
	}

	g.pageCols = newCols
	if cursorRow >= newLines {
		cursorRow = newLines - 1
	}
	if cursorRow < 0 {
		cursorRow = 0
	}
	if cursorCol >= newCols {
		cursorCol = newCols - 1
	}
	return cursorRow, cursorCol
}

func (g *Grid) physicalIndexBackward(n int) int {
	idx := (g.top - n) % g.capacity()
	if idx < 0 {
		idx += g.capacity()
	}
	return idx
}

// growCapacityBy extends the ring when there's no history to uncover,
// inserting blank lines at the bottom of the page.
func (g *Grid) growCapacityBy(n int) {
	extra := make([]Line, n)
	for i := range extra {
		extra[i] = NewInflatedLine(g.pageCols, GraphicsRendition{})
	}
	// Re-linearize around top so indices stay simple after growth.
	linear := g.linearize()
	linear = append(linear, extra...)
	for len(linear) < g.pageLines+n+g.maxHistory {
		linear = append(linear, NewInflatedLine(g.pageCols, GraphicsRendition{}))
	}
	g.lines = linear
	g.top = 0
}

// linearize returns all lines (history first, then page) in logical order.
func (g *Grid) linearize() []Line {
	out := make([]Line, 0, g.capacity())
	for off := -g.hist; off < g.pageLines; off++ {
		out = append(out, *g.Line(off))
	}
	return out
}

// logicalLines walks maximal Wrapped-chained runs across all of history and
// the page, oldest first (spec §4.4 logicalLines(), used by resize and search).
func (g *Grid) logicalLines() []LogicalLine {
	var out []LogicalLine
	var cur *LogicalLine
	for off := -g.hist; off < g.pageLines; off++ {
		l := g.Line(off)
		if cur == nil || !cur.Lines[len(cur.Lines)-1].IsWrapped() {
			if cur != nil {
				out = append(out, *cur)
			}
			cur = &LogicalLine{Top: off, Lines: []*Line{l}}
		} else {
			cur.Lines = append(cur.Lines, l)
		}
		cur.Bottom = off
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}

// resizeReflow re-wraps every logical line to the new column count (spec
// §4.4 resize, reflow branch). Cells are concatenated per logical line and
// re-chunked at the new width, carrying each cell's rendition, hyperlink
// and image ref through the rewrap.
func (g *Grid) resizeReflow(newLines, newCols int, cursorRow, cursorCol int) (int, int) {
	logical := g.logicalLines()

	var rewrapped []Line
	cursorOffsetFromTop := 0
	found := false
	consumedBeforeCursor := 0

	for _, ll := range logical {
		cells := flattenLogicalLine(ll)
		chunks := rewrapCells(cells, newCols)
		startIdx := len(rewrapped)
		for i, chunk := range chunks {
			nl := Line{Cells: chunk, width: newCols, Flags: LineWrappable}
			if i < len(chunks)-1 {
				nl.SetWrapped(true)
			}
			rewrapped = append(rewrapped, nl)
		}
		if !found && cursorRow >= ll.Top && cursorRow <= ll.Bottom {
			// locate new row/col for the cursor within this logical line
			offsetInLogical := 0
			for r := ll.Top; r < cursorRow; r++ {
				offsetInLogical += g.pageCols
			}
			offsetInLogical += cursorCol
			newRowInChunks := offsetInLogical / newCols
			newColInChunk := offsetInLogical % newCols
			cursorOffsetFromTop = startIdx + newRowInChunks
			consumedBeforeCursor = newColInChunk
			found = true
		}
	}

	// Trailing all-blank rows don't count against the page: dropping them
	// keeps padding below the content from pushing real lines into
	// history. The cursor row is always kept.
	keep := cursorOffsetFromTop + 1
	if keep < 1 {
		keep = 1
	}
	for len(rewrapped) > keep && rewrapped[len(rewrapped)-1].isBlank() {
		rewrapped = rewrapped[:len(rewrapped)-1]
	}

	// Rebuild the grid at the new size from the rewrapped lines, moving
	// lines that no longer fit on the page into history.
	cap := newLines + g.maxHistory
	if !g.hasHistory {
		cap = newLines
	}
	newGridLines := make([]Line, cap)
	total := len(rewrapped)
	pageStart := total - newLines
	if pageStart < 0 {
		pageStart = 0
	}
	histCount := pageStart
	if histCount > g.maxHistory {
		overflow := histCount - g.maxHistory
		rewrapped = rewrapped[overflow:]
		pageStart -= overflow
		histCount = g.maxHistory
	}
	for i := 0; i < newLines; i++ {
		srcIdx := pageStart + i
		if srcIdx < len(rewrapped) {
			newGridLines[histCount+i] = rewrapped[srcIdx]
		} else {
			newGridLines[histCount+i] = NewInflatedLine(newCols, GraphicsRendition{})
		}
	}
	for i := 0; i < histCount; i++ {
		newGridLines[i] = rewrapped[i]
	}
	for i := histCount + newLines; i < cap; i++ {
		newGridLines[i] = NewInflatedLine(newCols, GraphicsRendition{})
	}

	g.lines = newGridLines
	g.top = histCount
	g.hist = histCount
	g.pageLines = newLines
	g.pageCols = newCols

	newCursorRow := cursorOffsetFromTop - pageStart
	if newCursorRow < 0 {
		newCursorRow = 0
	}
	if newCursorRow >= newLines {
		newCursorRow = newLines - 1
	}
	return newCursorRow, consumedBeforeCursor
}

func flattenLogicalLine(ll LogicalLine) []Cell {
	var cells []Cell
	for _, l := range ll.Lines {
		l.Inflate()
		cells = append(cells, l.Cells...)
	}
	// Trim trailing blanks so reflow doesn't pad every logical line out to
	// its old total width (spec §8 "Reflow conservation... modulo trailing
	// blanks").
	for len(cells) > 0 {
		last := cells[len(cells)-1]
		if last.Char == 0 || last.Char == ' ' {
			cells = cells[:len(cells)-1]
			continue
		}
		break
	}
	return cells
}

func rewrapCells(cells []Cell, width int) [][]Cell {
	if width <= 0 {
		return [][]Cell{cells}
	}
	if len(cells) == 0 {
		blank := make([]Cell, width)
		for i := range blank {
			blank[i] = NewCell()
		}
		return [][]Cell{blank}
	}
	var chunks [][]Cell
	for len(cells) > 0 {
		n := width
		if n > len(cells) {
			n = len(cells)
		}
		chunk := make([]Cell, width)
		copy(chunk, cells[:n])
		for i := n; i < width; i++ {
			chunk[i] = NewCell()
		}
		chunks = append(chunks, chunk)
		cells = cells[n:]
	}
	return chunks
}
