package headlessvt

import "fmt"

// Screen execution methods (spec §4.5). These are plain methods on
// *Terminal rather than a separate embedded type: the teacher's handler.go
// takes the same shape (one receiver owning both the buffers and every
// VT operation), and splitting storage from behavior here would just add
// an indirection with no new capability. Every method assumes t.mu is
// already held for writing by the caller (Terminal.Write holds it for the
// whole decode batch, spec §5 "single-writer" concurrency model).

// --- printing ---

func (t *Terminal) screenInput(r rune) {
	if t.middleware != nil && t.middleware.Input != nil {
		t.middleware.Input(r, t.inputInternal)
		return
	}
	t.inputInternal(r)
}

func (t *Terminal) inputInternal(r rune) {
	r = t.translateCharset(r)

	w := runeWidth(r)
	if w == 0 {
		t.appendCombiningMark(r)
		return
	}

	// AutoResize: widen the page instead of wrapping.
	if t.autoResize && t.active == t.primary &&
		(t.cursor.WrapPending || t.cursor.Col+w >= t.cols) {
		t.growCols(t.cols * 2)
		t.cursor.WrapPending = false
	}

	if t.cursor.WrapPending {
		t.wrapLine()
	}

	if t.modes.HasAnsi(ModeInsert) {
		t.shiftLineRight(t.cursor.Row, t.cursor.Col, w)
	}

	c := NewCell()
	c.Char = r
	c.Width = w
	c.GraphicsRendition = t.cursor.Pen
	c.Hyperlink = t.cursor.Hyperlink
	c.MarkDirty()
	t.active.SetCell(t.cursor.Row, t.cursor.Col, c)

	if w == 2 && t.cursor.Col+1 < t.cols {
		sp := NewCell()
		sp.Width = 0
		sp.GraphicsRendition = t.cursor.Pen
		sp.markWideSpacer()
		sp.MarkDirty()
		t.active.SetCell(t.cursor.Row, t.cursor.Col+1, sp)
	}
	if cell := t.active.Cell(t.cursor.Row, t.cursor.Col); cell != nil {
		if w == 2 {
			cell.markWide()
		} else {
			cell.flags &^= cellWide
		}
	}

	t.lastChar = r
	newCol := t.cursor.Col + w
	rightEdge := t.marginRight() + 1
	if newCol >= rightEdge {
		if t.cursor.AutoWrap {
			t.cursor.Col = rightEdge - 1
			t.cursor.WrapPending = true
		} else {
			t.cursor.Col = rightEdge - 1
		}
	} else {
		t.cursor.Col = newCol
	}
}

// appendCombiningMark attaches a zero-width mark to the most recently
// written cluster: the cell left of the cursor, the cell under it while a
// wrap is pending, or the trailing cell of the previous row when the
// cursor sits at the left edge right after a wrap (spec §4.5 step 5,
// "handles end-of-line").
func (t *Terminal) appendCombiningMark(r rune) {
	row, col := t.cursor.Row, t.cursor.Col-1
	if t.cursor.WrapPending {
		col = t.cursor.Col
	}
	if col < 0 {
		if row == 0 {
			return
		}
		prev := t.active.Line(row - 1)
		if prev == nil || !prev.IsWrapped() {
			return
		}
		row--
		col = t.marginRight()
	}
	cell := t.active.Cell(row, col)
	if cell != nil && cell.IsWideSpacer() && col > 0 {
		cell = t.active.Cell(row, col-1)
	}
	if cell != nil {
		cell.AppendCombining(r)
	}
}

func (t *Terminal) wrapLine() {
	if line := t.active.Line(t.cursor.Row); line != nil {
		line.SetWrapped(true)
	}
	t.cursor.Col = t.marginLeft()
	t.cursor.WrapPending = false
	if t.cursor.Row >= t.marginBottom() {
		t.scrollUpRegion(1)
	} else {
		t.cursor.Row++
	}
}

func (t *Terminal) shiftLineRight(row, col, n int) {
	line := t.active.Line(row)
	if line == nil {
		return
	}
	line.Inflate()
	right := t.marginRight()
	for i := right; i >= col+n; i-- {
		if i-n >= 0 && i-n < len(line.Cells) {
			line.Cells[i] = line.Cells[i-n]
		}
	}
	for i := col; i < col+n && i <= right && i < len(line.Cells); i++ {
		c := NewCell()
		c.GraphicsRendition = t.cursor.Pen
		line.Cells[i] = c
	}
}

var lineDrawingTable = map[rune]rune{
	'j': '┘', 'k': '┐', 'l': '┌', 'm': '└', 'n': '┼', 'q': '─', 't': '├',
	'u': '┤', 'v': '┴', 'w': '┬', 'x': '│', 'a': '▒', '`': '◆', 'f': '°',
	'g': '±', '~': '·', '_': ' ', '+': '→', ',': '←', '-': '↑', '.': '↓',
	'0': '█',
}

func (t *Terminal) translateCharset(r rune) rune {
	cs := t.cursor.Charsets.Active()
	if cs == CharsetLineDrawing {
		if mapped, ok := lineDrawingTable[r]; ok {
			return mapped
		}
	}
	return r
}

func (t *Terminal) screenBell() {
	if t.middleware != nil && t.middleware.Bell != nil {
		t.middleware.Bell(t.bellInternal)
		return
	}
	t.bellInternal()
}
func (t *Terminal) bellInternal() {
	if t.bellProvider != nil {
		t.bellProvider.Ring()
	}
}

func (t *Terminal) screenBackspace() {
	if t.middleware != nil && t.middleware.Backspace != nil {
		t.middleware.Backspace(t.backspaceInternal)
		return
	}
	t.backspaceInternal()
}
func (t *Terminal) backspaceInternal() {
	if t.cursor.Col > t.marginLeft() {
		t.cursor.Col--
		t.cursor.WrapPending = false
	}
}

func (t *Terminal) screenCarriageReturn() {
	if t.middleware != nil && t.middleware.CarriageReturn != nil {
		t.middleware.CarriageReturn(t.carriageReturnInternal)
		return
	}
	t.carriageReturnInternal()
}
func (t *Terminal) carriageReturnInternal() {
	t.cursor.Col = t.marginLeft()
	t.cursor.WrapPending = false
}

func (t *Terminal) screenLineFeed() {
	if t.middleware != nil && t.middleware.LineFeed != nil {
		t.middleware.LineFeed(t.lineFeedInternal)
		return
	}
	t.lineFeedInternal()
}
func (t *Terminal) lineFeedInternal() {
	t.cursor.WrapPending = false
	if t.cursor.Row >= t.marginBottom() {
		// AutoResize: grow the page downward instead of scrolling, so no
		// content ever leaves for scrollback.
		if t.autoResize && t.active == t.primary &&
			t.margins.Top == 0 && t.margins.Bottom == t.rows-1 {
			t.growRows(t.rows + 1)
			if t.cursor.Row < t.rows-1 {
				t.cursor.Row++
			}
		} else {
			t.scrollUpRegion(1)
		}
	} else {
		t.cursor.Row++
	}
	if t.modes.HasAnsi(ModeLineFeedNewLine) {
		t.cursor.Col = t.marginLeft()
	}
}

func (t *Terminal) screenIndex()    { t.lineFeedInternal() }
func (t *Terminal) screenNextLine() { t.lineFeedInternal(); t.cursor.Col = t.marginLeft() }

func (t *Terminal) screenReverseIndex() {
	if t.middleware != nil && t.middleware.ReverseIndex != nil {
		t.middleware.ReverseIndex(t.reverseIndexInternal)
		return
	}
	t.reverseIndexInternal()
}
func (t *Terminal) reverseIndexInternal() {
	if t.cursor.Row <= t.marginTop() {
		t.scrollDownRegion(1)
	} else {
		t.cursor.Row--
	}
}

func (t *Terminal) screenInvokeGL(slot CharsetSlot) { t.cursor.Charsets.InvokeGL(slot) }

func (t *Terminal) screenDesignateCharset(slot CharsetSlot, cs Charset) {
	if t.middleware != nil && t.middleware.ConfigureCharset != nil {
		t.middleware.ConfigureCharset(slot, cs, t.configureCharsetInternal)
		return
	}
	t.configureCharsetInternal(slot, cs)
}
func (t *Terminal) configureCharsetInternal(slot CharsetSlot, cs Charset) {
	t.cursor.Charsets.Designate(slot, cs)
}

func (t *Terminal) screenSetActiveCharset(n int) {
	if t.middleware != nil && t.middleware.SetActiveCharset != nil {
		t.middleware.SetActiveCharset(n, t.setActiveCharsetInternal)
		return
	}
	t.setActiveCharsetInternal(n)
}
func (t *Terminal) setActiveCharsetInternal(n int) {
	if n < 0 || n > 3 {
		return
	}
	t.cursor.Charsets.InvokeGL(CharsetSlot(n))
}

// --- cursor movement ---

func (t *Terminal) clampCol() {
	if t.cursor.Col > t.cols-1 {
		t.cursor.Col = t.cols - 1
	}
	if t.cursor.Col < 0 {
		t.cursor.Col = 0
	}
}

func (t *Terminal) screenCursorUp(n int) {
	if t.middleware != nil && t.middleware.MoveUp != nil {
		t.middleware.MoveUp(n, t.moveUpInternal)
		return
	}
	t.moveUpInternal(n)
}
func (t *Terminal) moveUpInternal(n int) {
	t.cursor.WrapPending = false
	top := t.marginTop()
	t.cursor.Row -= n
	if t.cursor.Row < top {
		t.cursor.Row = top
	}
}

func (t *Terminal) screenCursorDown(n int) {
	if t.middleware != nil && t.middleware.MoveDown != nil {
		t.middleware.MoveDown(n, t.moveDownInternal)
		return
	}
	t.moveDownInternal(n)
}
func (t *Terminal) moveDownInternal(n int) {
	t.cursor.WrapPending = false
	bottom := t.marginBottom()
	t.cursor.Row += n
	if t.cursor.Row > bottom {
		t.cursor.Row = bottom
	}
}

func (t *Terminal) screenCursorForward(n int) {
	if t.middleware != nil && t.middleware.MoveForward != nil {
		t.middleware.MoveForward(n, t.moveForwardInternal)
		return
	}
	t.moveForwardInternal(n)
}
func (t *Terminal) moveForwardInternal(n int) {
	t.cursor.WrapPending = false
	t.cursor.Col += n
	if r := t.marginRight(); t.cursor.Col > r {
		t.cursor.Col = r
	}
}

func (t *Terminal) screenCursorBackward(n int) {
	if t.middleware != nil && t.middleware.MoveBackward != nil {
		t.middleware.MoveBackward(n, t.moveBackwardInternal)
		return
	}
	t.moveBackwardInternal(n)
}
func (t *Terminal) moveBackwardInternal(n int) {
	t.cursor.WrapPending = false
	t.cursor.Col -= n
	if l := t.marginLeft(); t.cursor.Col < l {
		t.cursor.Col = l
	}
}

func (t *Terminal) screenCursorNextLine(n int) {
	if t.middleware != nil && t.middleware.MoveDownCr != nil {
		t.middleware.MoveDownCr(n, t.moveDownCrInternal)
		return
	}
	t.moveDownCrInternal(n)
}
func (t *Terminal) moveDownCrInternal(n int) {
	t.moveDownInternal(n)
	t.cursor.Col = t.marginLeft()
}

func (t *Terminal) screenCursorPrevLine(n int) {
	if t.middleware != nil && t.middleware.MoveUpCr != nil {
		t.middleware.MoveUpCr(n, t.moveUpCrInternal)
		return
	}
	t.moveUpCrInternal(n)
}
func (t *Terminal) moveUpCrInternal(n int) {
	t.moveUpInternal(n)
	t.cursor.Col = t.marginLeft()
}

func (t *Terminal) screenCursorToCol(col int) {
	if t.middleware != nil && t.middleware.GotoCol != nil {
		t.middleware.GotoCol(col, t.gotoColInternal)
		return
	}
	t.gotoColInternal(col)
}
func (t *Terminal) gotoColInternal(col int) {
	t.cursor.WrapPending = false
	t.cursor.Col = col
	t.clampCol()
}

func (t *Terminal) screenCursorToRow(row int) {
	if t.middleware != nil && t.middleware.GotoLine != nil {
		t.middleware.GotoLine(row, t.gotoLineInternal)
		return
	}
	t.gotoLineInternal(row)
}
func (t *Terminal) gotoLineInternal(row int) {
	t.cursor.WrapPending = false
	if t.cursor.OriginMode {
		row += t.margins.Top
	}
	if row < 0 {
		row = 0
	}
	if row > t.rows-1 {
		row = t.rows - 1
	}
	t.cursor.Row = row
}

func (t *Terminal) screenCursorPosition(row, col int) {
	if t.middleware != nil && t.middleware.Goto != nil {
		t.middleware.Goto(row, col, t.gotoInternal)
		return
	}
	t.gotoInternal(row, col)
}
func (t *Terminal) gotoInternal(row, col int) {
	t.cursor.WrapPending = false
	if t.cursor.OriginMode {
		row += t.margins.Top
		col += t.margins.Left
	}
	if row < 0 {
		row = 0
	}
	if row > t.rows-1 {
		row = t.rows - 1
	}
	t.cursor.Row = row
	t.cursor.Col = col
	t.clampCol()
}

// --- erase ---

func (t *Terminal) screenEraseInDisplay(mode ClearMode) {
	if t.middleware != nil && t.middleware.ClearScreen != nil {
		t.middleware.ClearScreen(mode, t.clearScreenInternal)
		return
	}
	t.clearScreenInternal(mode)
}
func (t *Terminal) clearScreenInternal(mode ClearMode) {
	fill := t.cursor.Pen
	switch mode {
	case ClearBelow:
		t.clearLineRange(t.cursor.Row, t.cursor.Col, t.cols, fill)
		for r := t.cursor.Row + 1; r < t.rows; r++ {
			if l := t.active.Line(r); l != nil {
				l.Clear(fill)
			}
		}
	case ClearAbove:
		for r := 0; r < t.cursor.Row; r++ {
			if l := t.active.Line(r); l != nil {
				l.Clear(fill)
			}
		}
		t.clearLineRange(t.cursor.Row, 0, t.cursor.Col+1, fill)
	case ClearAll, ClearSavedLines:
		for r := 0; r < t.rows; r++ {
			if l := t.active.Line(r); l != nil {
				l.Clear(fill)
			}
		}
		if mode == ClearSavedLines {
			t.active.ClearHistory()
		}
	}
}

func (t *Terminal) clearLineRange(row, from, to int, fill GraphicsRendition) {
	if l := t.active.Line(row); l != nil {
		l.ClearRange(from, to, fill)
	}
}

func (t *Terminal) screenEraseInLine(mode LineClearMode) {
	if t.middleware != nil && t.middleware.ClearLine != nil {
		t.middleware.ClearLine(mode, t.clearLineInternal)
		return
	}
	t.clearLineInternal(mode)
}
func (t *Terminal) clearLineInternal(mode LineClearMode) {
	fill := t.cursor.Pen
	switch mode {
	case LineClearRight:
		t.clearLineRange(t.cursor.Row, t.cursor.Col, t.cols, fill)
	case LineClearLeft:
		t.clearLineRange(t.cursor.Row, 0, t.cursor.Col+1, fill)
	case LineClearAll:
		t.clearLineRange(t.cursor.Row, 0, t.cols, fill)
	}
}

func (t *Terminal) screenEraseChars(n int) {
	if t.middleware != nil && t.middleware.EraseChars != nil {
		t.middleware.EraseChars(n, t.eraseCharsInternal)
		return
	}
	t.eraseCharsInternal(n)
}
func (t *Terminal) eraseCharsInternal(n int) {
	end := t.cursor.Col + n
	if end > t.cols {
		end = t.cols
	}
	t.clearLineRange(t.cursor.Row, t.cursor.Col, end, t.cursor.Pen)
}

func (t *Terminal) screenDecaln() {
	if t.middleware != nil && t.middleware.Decaln != nil {
		t.middleware.Decaln(t.decalnInternal)
		return
	}
	t.decalnInternal()
}
func (t *Terminal) decalnInternal() {
	for r := 0; r < t.rows; r++ {
		line := t.active.Line(r)
		if line == nil {
			continue
		}
		line.Inflate()
		for c := range line.Cells {
			line.Cells[c] = Cell{Char: 'E', Width: 1}
		}
	}
}

// --- insert/delete lines & chars ---

func (t *Terminal) screenInsertLines(n int) {
	if t.middleware != nil && t.middleware.InsertBlankLines != nil {
		t.middleware.InsertBlankLines(n, t.insertBlankLinesInternal)
		return
	}
	t.insertBlankLinesInternal(n)
}
func (t *Terminal) insertBlankLinesInternal(n int) {
	if t.cursor.Row < t.margins.Top || t.cursor.Row > t.margins.Bottom {
		return
	}
	m := t.activeMargins()
	m.Top = t.cursor.Row
	t.active.InsertLines(t.cursor.Row, n, m, t.cursor.Pen)
}

func (t *Terminal) screenDeleteLines(n int) {
	if t.middleware != nil && t.middleware.DeleteLines != nil {
		t.middleware.DeleteLines(n, t.deleteLinesInternal)
		return
	}
	t.deleteLinesInternal(n)
}
func (t *Terminal) deleteLinesInternal(n int) {
	if t.cursor.Row < t.margins.Top || t.cursor.Row > t.margins.Bottom {
		return
	}
	m := t.activeMargins()
	m.Top = t.cursor.Row
	t.active.DeleteLines(t.cursor.Row, n, m, t.cursor.Pen)
}

func (t *Terminal) screenInsertChars(n int) {
	if t.middleware != nil && t.middleware.InsertBlank != nil {
		t.middleware.InsertBlank(n, t.insertBlankInternal)
		return
	}
	t.insertBlankInternal(n)
}
func (t *Terminal) insertBlankInternal(n int) {
	t.shiftLineRight(t.cursor.Row, t.cursor.Col, n)
}

func (t *Terminal) screenDeleteChars(n int) {
	if t.middleware != nil && t.middleware.DeleteChars != nil {
		t.middleware.DeleteChars(n, t.deleteCharsInternal)
		return
	}
	t.deleteCharsInternal(n)
}
func (t *Terminal) deleteCharsInternal(n int) {
	line := t.active.Line(t.cursor.Row)
	if line == nil {
		return
	}
	line.Inflate()
	right := t.marginRight()
	for i := t.cursor.Col; i <= right; i++ {
		src := i + n
		if src <= right && src < len(line.Cells) {
			line.Cells[i] = line.Cells[src]
		} else {
			c := NewCell()
			c.GraphicsRendition = t.cursor.Pen
			line.Cells[i] = c
		}
	}
}

func (t *Terminal) screenRepeatLastChar(n int) {
	for i := 0; i < n; i++ {
		t.inputInternal(t.lastChar)
	}
}

// --- scrolling ---

func (t *Terminal) activeMargins() Margins {
	return Margins{Top: t.margins.Top, Bottom: t.margins.Bottom, Left: t.marginLeft(), Right: t.marginRight()}
}

func (t *Terminal) marginTop() int    { return t.margins.Top }
func (t *Terminal) marginBottom() int { return t.margins.Bottom }
func (t *Terminal) marginLeft() int {
	if t.modes.HasDec(DecModeLeftRightMargin) {
		return t.margins.Left
	}
	return 0
}
func (t *Terminal) marginRight() int {
	if t.modes.HasDec(DecModeLeftRightMargin) {
		return t.margins.Right
	}
	return t.cols - 1
}

func (t *Terminal) scrollUpRegion(n int) {
	m := t.activeMargins()
	t.active.scrollUp(n, m, t.cursor.Pen)
}

func (t *Terminal) scrollDownRegion(n int) {
	m := t.activeMargins()
	t.active.shiftRegionDown(n, m, t.cursor.Pen)
}

func (t *Terminal) screenScrollUp(n int) {
	if t.middleware != nil && t.middleware.ScrollUp != nil {
		t.middleware.ScrollUp(n, t.scrollUpInternal)
		return
	}
	t.scrollUpInternal(n)
}
func (t *Terminal) scrollUpInternal(n int) { t.scrollUpRegion(n) }

func (t *Terminal) screenScrollDown(n int) {
	if t.middleware != nil && t.middleware.ScrollDown != nil {
		t.middleware.ScrollDown(n, t.scrollDownInternal)
		return
	}
	t.scrollDownInternal(n)
}
func (t *Terminal) scrollDownInternal(n int) { t.scrollDownRegion(n) }

func (t *Terminal) screenSetScrollingRegion(top, bottom int) {
	if t.middleware != nil && t.middleware.SetScrollingRegion != nil {
		t.middleware.SetScrollingRegion(top, bottom, t.setScrollingRegionInternal)
		return
	}
	t.setScrollingRegionInternal(top, bottom)
}
func (t *Terminal) setScrollingRegionInternal(top, bottom int) {
	if top < 0 {
		top = 0
	}
	if bottom > t.rows-1 {
		bottom = t.rows - 1
	}
	if top >= bottom {
		top, bottom = 0, t.rows-1
	}
	t.margins.Top = top
	t.margins.Bottom = bottom
	t.gotoInternal(0, 0)
}

func (t *Terminal) screenSetLeftRightMargin(left, right int) {
	if left < 0 {
		left = 0
	}
	if right > t.cols-1 {
		right = t.cols - 1
	}
	if left >= right {
		left, right = 0, t.cols-1
	}
	t.margins.Left = left
	t.margins.Right = right
	t.gotoInternal(0, 0)
}

// --- SGR ---

func (t *Terminal) screenSGR(params [][]int64) {
	if t.middleware != nil && t.middleware.SetTerminalCharAttribute != nil {
		// Middleware operates on the raw field list; it can't easily be
		// expressed per-attribute, so it sees the whole sequence at once
		// via a synthetic "apply all" callback.
		t.middleware.SetTerminalCharAttribute(TerminalCharAttribute{Params: params}, func(TerminalCharAttribute) {
			t.applySGR(params)
		})
		return
	}
	t.applySGR(params)
}

// TerminalCharAttribute carries one SGR invocation's raw parameter groups
// to middleware, mirroring the teacher's single-struct interception point
// for the entire SGR sequence rather than one callback per attribute.
type TerminalCharAttribute struct {
	Params [][]int64
}

func (t *Terminal) applySGR(params [][]int64) {
	if len(params) == 0 {
		t.cursor.Pen.Reset()
		return
	}
	for i := 0; i < len(params); i++ {
		group := params[i]
		code := int64(0)
		if len(group) > 0 {
			code = group[0]
		}
		switch {
		case code == 0:
			t.cursor.Pen.Reset()
		case code == 1:
			t.cursor.Pen.Flags |= CellBold
		case code == 2:
			t.cursor.Pen.Flags |= CellFaint
		case code == 3:
			t.cursor.Pen.Flags |= CellItalic
		case code == 4:
			t.applyUnderlineStyle(group)
		case code == 5:
			t.cursor.Pen.Flags |= CellBlinking
		case code == 6:
			t.cursor.Pen.Flags |= CellRapidBlinking
		case code == 7:
			t.cursor.Pen.Flags |= CellInverse
		case code == 8:
			t.cursor.Pen.Flags |= CellHidden
		case code == 9:
			t.cursor.Pen.Flags |= CellCrossedOut
		case code == 21:
			t.cursor.Pen.Flags |= CellDoublyUnderlined
		case code == 22:
			t.cursor.Pen.Flags &^= (CellBold | CellFaint)
		case code == 23:
			t.cursor.Pen.Flags &^= CellItalic
		case code == 24:
			t.cursor.Pen.Flags &^= underlineFlags
		case code == 25:
			t.cursor.Pen.Flags &^= (CellBlinking | CellRapidBlinking)
		case code == 27:
			t.cursor.Pen.Flags &^= CellInverse
		case code == 28:
			t.cursor.Pen.Flags &^= CellHidden
		case code == 29:
			t.cursor.Pen.Flags &^= CellCrossedOut
		case code >= 30 && code <= 37:
			t.cursor.Pen.Foreground = newIndexedColor(uint8(code - 30))
		case code == 38:
			c, adv := parseExtendedColor(params, i)
			t.cursor.Pen.Foreground = c
			i += adv
		case code == 39:
			t.cursor.Pen.Foreground = DefaultColor
		case code >= 40 && code <= 47:
			t.cursor.Pen.Background = newIndexedColor(uint8(code - 40))
		case code == 48:
			c, adv := parseExtendedColor(params, i)
			t.cursor.Pen.Background = c
			i += adv
		case code == 49:
			t.cursor.Pen.Background = DefaultColor
		case code == 51:
			t.cursor.Pen.Flags |= CellFramed
		case code == 52:
			t.cursor.Pen.Flags |= CellEncircled
		case code == 53:
			t.cursor.Pen.Flags |= CellOverline
		case code == 54:
			t.cursor.Pen.Flags &^= (CellFramed | CellEncircled)
		case code == 55:
			t.cursor.Pen.Flags &^= CellOverline
		case code == 58:
			c, adv := parseExtendedColor(params, i)
			t.cursor.Pen.Underline = c
			i += adv
		case code == 59:
			t.cursor.Pen.Underline = DefaultColor
		case code >= 90 && code <= 97:
			t.cursor.Pen.Foreground = BrightColor(uint8(code - 90))
		case code >= 100 && code <= 107:
			t.cursor.Pen.Background = BrightColor(uint8(code - 100))
		}
	}
}

func (t *Terminal) applyUnderlineStyle(group []int64) {
	t.cursor.Pen.Flags &^= underlineFlags
	style := int64(1)
	if len(group) > 1 {
		style = group[1]
	}
	switch style {
	case 0:
		// none
	case 2:
		t.cursor.Pen.Flags |= CellDoublyUnderlined
	case 3:
		t.cursor.Pen.Flags |= CellCurlyUnderlined
	case 4:
		t.cursor.Pen.Flags |= CellDottedUnderline
	case 5:
		t.cursor.Pen.Flags |= CellDashedUnderline
	default:
		t.cursor.Pen.Flags |= CellUnderline
	}
}

// parseExtendedColor handles both colon-subparam (38:2:...:r:g:b or
// 38:5:n, one parameter group) and legacy semicolon-separated (38;2;r;g;b
// or 38;5;n, several top-level groups) forms and returns how many extra
// top-level groups it consumed (0 for the colon form).
func parseExtendedColor(params [][]int64, i int) (Color, int) {
	group := params[i]
	if len(group) > 1 {
		switch group[1] {
		case 5:
			idx := group[len(group)-1]
			return newIndexedColor(uint8(idx)), 0
		case 2:
			if len(group) >= 5 {
				n := len(group)
				return RGBColor(uint8(group[n-3]), uint8(group[n-2]), uint8(group[n-1])), 0
			}
		}
	}
	// Legacy form: format is the next top-level field.
	if i+1 >= len(params) || len(params[i+1]) == 0 {
		return DefaultColor, 0
	}
	format := params[i+1][0]
	switch format {
	case 5:
		if i+2 < len(params) && len(params[i+2]) > 0 {
			return newIndexedColor(uint8(params[i+2][0])), 2
		}
		return DefaultColor, 1
	case 2:
		if i+4 < len(params) {
			r := param(params, i+2, 0)
			g := param(params, i+3, 0)
			b := param(params, i+4, 0)
			return RGBColor(uint8(r), uint8(g), uint8(b)), 4
		}
		return DefaultColor, 1
	}
	return DefaultColor, 1
}

// --- modes ---

func (t *Terminal) screenSetModes(params [][]int64, leader byte, set bool) {
	for _, group := range params {
		if len(group) == 0 {
			continue
		}
		n := group[0]
		if leader == '?' {
			t.applyDecMode(int(n), set)
		} else {
			t.applyAnsiMode(int(n), set)
		}
	}
}

func (t *Terminal) applyAnsiMode(n int, set bool) {
	var mode AnsiMode
	switch n {
	case 2:
		mode = ModeKeyboardAction
	case 4:
		mode = ModeInsert
	case 12:
		mode = ModeSendReceive
	case 20:
		mode = ModeLineFeedNewLine
	default:
		return
	}
	t.setModeCommon(func(on bool) { t.modes.SetAnsi(mode, on) }, set)
}

func (t *Terminal) applyDecMode(n int, set bool) {
	var mode DecMode
	switch n {
	case 1:
		mode = DecModeCursorKeys
		t.setModeCommon(func(on bool) { t.modes.SetDec(mode, on); t.input.SetCursorKeysMode(on) }, set)
		return
	case 2:
		mode = DecModeANSI
	case 3:
		mode = DecModeColumn132
	case 5:
		mode = DecModeReverseVideo
	case 6:
		mode = DecModeOrigin
		t.setModeCommon(func(on bool) { t.modes.SetDec(mode, on); t.cursor.OriginMode = on }, set)
		return
	case 7:
		mode = DecModeAutoWrap
		t.setModeCommon(func(on bool) { t.modes.SetDec(mode, on); t.cursor.AutoWrap = on }, set)
		return
	case 8:
		mode = DecModeAutoRepeat
	case 9:
		mode = DecModeMouseX10
		t.setModeCommon(func(on bool) { t.modes.SetDec(mode, on); t.syncMouseProtocol() }, set)
		return
	case 25:
		mode = DecModeCursorVisible
		t.setModeCommon(func(on bool) { t.modes.SetDec(mode, on); t.cursor.Visible = on }, set)
		return
	case 69:
		mode = DecModeLeftRightMargin
	case 80:
		mode = DecModeSixelScrolling
	case 1000:
		mode = DecModeMouseNormalTracking
		t.setModeCommon(func(on bool) { t.modes.SetDec(mode, on); t.syncMouseProtocol() }, set)
		return
	case 1001:
		mode = DecModeMouseHighlight
		t.setModeCommon(func(on bool) { t.modes.SetDec(mode, on); t.syncMouseProtocol() }, set)
		return
	case 1002:
		mode = DecModeMouseButtonTracking
		t.setModeCommon(func(on bool) { t.modes.SetDec(mode, on); t.syncMouseProtocol() }, set)
		return
	case 1003:
		mode = DecModeMouseAnyEvent
		t.setModeCommon(func(on bool) { t.modes.SetDec(mode, on); t.syncMouseProtocol() }, set)
		return
	case 1004:
		mode = DecModeFocusEvents
		t.setModeCommon(func(on bool) { t.modes.SetDec(mode, on); t.input.SetFocusEvents(on) }, set)
		return
	case 1005:
		mode = DecModeMouseUTF8
		t.setModeCommon(func(on bool) { t.modes.SetDec(mode, on); t.syncMouseTransport() }, set)
		return
	case 1006:
		mode = DecModeMouseSGR
		t.setModeCommon(func(on bool) { t.modes.SetDec(mode, on); t.syncMouseTransport() }, set)
		return
	case 1007:
		mode = DecModeAltScroll
	case 1015:
		mode = DecModeMouseURXVT
		t.setModeCommon(func(on bool) { t.modes.SetDec(mode, on); t.syncMouseTransport() }, set)
		return
	case 1016:
		mode = DecModeMouseSGRPixels
		t.setModeCommon(func(on bool) { t.modes.SetDec(mode, on); t.syncMouseTransport() }, set)
		return
	case 1047:
		t.setModeCommon(func(on bool) { t.modes.SetDec(DecModeAltScreen1047, on); t.swapScreen(on) }, set)
		return
	case 1049:
		t.setModeCommon(func(on bool) { t.setAltScreenSaveCursor(on) }, set)
		return
	case 2004:
		mode = DecModeBracketedPaste
		t.setModeCommon(func(on bool) { t.modes.SetDec(mode, on); t.input.SetBracketedPaste(on) }, set)
		return
	case 2026:
		mode = DecModeBatchedRendering
	case 2027:
		mode = DecModeTextReflow
	case 8452:
		mode = DecModeSixelCursorNextToGraphic
	case 47:
		t.setModeCommon(func(on bool) { t.modes.SetDec(DecModeAltScreen47, on); t.swapScreen(on) }, set)
		return
	case 1048:
		t.setModeCommon(func(on bool) {
			if on {
				t.savedCursor = t.cursor.Save()
				t.hasSavedCursor = true
			} else if t.hasSavedCursor {
				t.cursor.Restore(t.savedCursor)
			}
		}, set)
		return
	case 40:
		mode = DecModeAllowColumns80to132
	case 4:
		mode = DecModeSmoothScroll
	default:
		return
	}
	t.setModeCommon(func(on bool) { t.modes.SetDec(mode, on) }, set)
}

func (t *Terminal) setModeCommon(apply func(bool), set bool) {
	apply(set)
}

// syncMouseProtocol recomputes InputGenerator's active mouse protocol from
// the DEC mouse-tracking mode bits. The bits are independent flags; when
// several are set, the first in the order 1003, 1002, 1001, 1000, 9 wins,
// whatever order they were set in.
func (t *Terminal) syncMouseProtocol() {
	switch {
	case t.modes.HasDec(DecModeMouseAnyEvent):
		t.input.SetMouseProtocol(MouseProtocolAnyEventTracking)
	case t.modes.HasDec(DecModeMouseButtonTracking):
		t.input.SetMouseProtocol(MouseProtocolButtonTracking)
	case t.modes.HasDec(DecModeMouseHighlight):
		t.input.SetMouseProtocol(MouseProtocolHighlightTracking)
	case t.modes.HasDec(DecModeMouseNormalTracking):
		t.input.SetMouseProtocol(MouseProtocolNormalTracking)
	case t.modes.HasDec(DecModeMouseX10):
		t.input.SetMouseProtocol(MouseProtocolX10)
	default:
		t.input.SetMouseProtocol(MouseProtocolNone)
	}
}

// syncMouseTransport recomputes InputGenerator's active mouse transport
// from the DEC transport mode bits; SGRPixels/SGR/URXVT/UTF8 are mutually
// exclusive selections, most-specific wins.
func (t *Terminal) syncMouseTransport() {
	switch {
	case t.modes.HasDec(DecModeMouseSGRPixels):
		t.input.SetMouseTransport(MouseTransportSGRPixels)
	case t.modes.HasDec(DecModeMouseSGR):
		t.input.SetMouseTransport(MouseTransportSGR)
	case t.modes.HasDec(DecModeMouseURXVT):
		t.input.SetMouseTransport(MouseTransportURXVT)
	case t.modes.HasDec(DecModeMouseUTF8):
		t.input.SetMouseTransport(MouseTransportExtended)
	default:
		t.input.SetMouseTransport(MouseTransportDefault)
	}
}

func (t *Terminal) swapScreen(toAlt bool) {
	if toAlt && t.active == t.primary {
		t.active = t.alt
	} else if !toAlt && t.active == t.alt {
		t.active = t.primary
	}
}

func (t *Terminal) setAltScreenSaveCursor(on bool) {
	t.modes.SetDec(DecModeAltScreenSaveCursor1049, on)
	if on {
		t.altSavedCursor = t.cursor.Save()
		t.swapScreen(true)
		t.clearScreenInternal(ClearAll)
		t.gotoInternal(0, 0)
	} else {
		t.swapScreen(false)
		t.cursor.Restore(t.altSavedCursor)
	}
}

// --- save/restore cursor ---

func (t *Terminal) screenSaveCursor() {
	if t.middleware != nil && t.middleware.SaveCursorPosition != nil {
		t.middleware.SaveCursorPosition(t.saveCursorPositionInternal)
		return
	}
	t.saveCursorPositionInternal()
}
func (t *Terminal) saveCursorPositionInternal() {
	t.savedCursor = t.cursor.Save()
	t.hasSavedCursor = true
}

func (t *Terminal) screenRestoreCursor() {
	if t.middleware != nil && t.middleware.RestoreCursorPosition != nil {
		t.middleware.RestoreCursorPosition(t.restoreCursorPositionInternal)
		return
	}
	t.restoreCursorPositionInternal()
}
func (t *Terminal) restoreCursorPositionInternal() {
	if t.hasSavedCursor {
		t.cursor.Restore(t.savedCursor)
	}
}

// --- reset ---

func (t *Terminal) screenResetState() {
	if t.middleware != nil && t.middleware.ResetState != nil {
		t.middleware.ResetState(t.resetStateInternal)
		return
	}
	t.resetStateInternal()
}
func (t *Terminal) resetStateInternal() {
	t.cursor = NewCursor()
	t.modes = NewModeSet()
	t.modes.SetAnsi(0, true)
	t.margins = Margins{Top: 0, Bottom: t.rows - 1, Left: 0, Right: t.cols - 1}
	t.active = t.primary
	t.title = ""
	t.titleStack = nil
	t.hyperlinks.Clear()
	t.initTabStops()
	t.clearScreenInternal(ClearAll)
	t.conformanceLevel = ConformanceVT500
	t.paletteStack = [10]*[256]RGB{}
	t.paletteStackTop = 0
	t.paletteCurrentSlot = 0
	t.statusDisplay = StatusDisplayNone
	t.sgrStack = nil
	t.kittyPending = nil
	t.sixelBuilder = nil
	t.dcsKind = dcsNone
	t.input = NewInputGenerator(t.config)
	t.renderDirty = true
}

func (t *Terminal) screenSubstitute() {
	if t.middleware != nil && t.middleware.Substitute != nil {
		t.middleware.Substitute(t.substituteInternal)
		return
	}
	t.substituteInternal()
}
func (t *Terminal) substituteInternal() { t.inputInternal('?') }

func (t *Terminal) screenSetKeypadApplication(on bool) {
	t.input.SetApplicationKeypad(on)
	if on {
		if t.middleware != nil && t.middleware.SetKeypadApplicationMode != nil {
			t.middleware.SetKeypadApplicationMode(func() { t.modes.SetDec(DecModeKeypadApplication, true) })
			return
		}
		t.modes.SetDec(DecModeKeypadApplication, true)
		return
	}
	if t.middleware != nil && t.middleware.UnsetKeypadApplicationMode != nil {
		t.middleware.UnsetKeypadApplicationMode(func() { t.modes.SetDec(DecModeKeypadApplication, false) })
		return
	}
	t.modes.SetDec(DecModeKeypadApplication, false)
}

// --- tabs ---

func (t *Terminal) initTabStops() {
	t.tabStops = make([]bool, t.cols)
	for i := 0; i < t.cols; i += 8 {
		t.tabStops[i] = true
	}
}

func (t *Terminal) screenHorizontalTabSet() {
	if t.middleware != nil && t.middleware.HorizontalTabSet != nil {
		t.middleware.HorizontalTabSet(t.horizontalTabSetInternal)
		return
	}
	t.horizontalTabSetInternal()
}
func (t *Terminal) horizontalTabSetInternal() {
	if t.cursor.Col >= 0 && t.cursor.Col < len(t.tabStops) {
		t.tabStops[t.cursor.Col] = true
	}
}

func (t *Terminal) screenClearTabs(mode TabClearMode) {
	if t.middleware != nil && t.middleware.ClearTabs != nil {
		t.middleware.ClearTabs(mode, t.clearTabsInternal)
		return
	}
	t.clearTabsInternal(mode)
}
func (t *Terminal) clearTabsInternal(mode TabClearMode) {
	switch mode {
	case TabClearCurrentColumn:
		if t.cursor.Col >= 0 && t.cursor.Col < len(t.tabStops) {
			t.tabStops[t.cursor.Col] = false
		}
	case TabClearAll:
		for i := range t.tabStops {
			t.tabStops[i] = false
		}
	}
}

func (t *Terminal) screenTab(n int) {
	if t.middleware != nil && t.middleware.MoveForwardTabs != nil {
		t.middleware.MoveForwardTabs(n, t.moveForwardTabsInternal)
		return
	}
	t.moveForwardTabsInternal(n)
}
func (t *Terminal) moveForwardTabsInternal(n int) {
	for i := 0; i < n; i++ {
		next := -1
		for c := t.cursor.Col + 1; c < t.cols; c++ {
			if t.tabStops[c] {
				next = c
				break
			}
		}
		if next < 0 {
			t.cursor.Col = t.cols - 1
			break
		}
		t.cursor.Col = next
	}
}

func (t *Terminal) screenBackwardTab(n int) {
	if t.middleware != nil && t.middleware.MoveBackwardTabs != nil {
		t.middleware.MoveBackwardTabs(n, t.moveBackwardTabsInternal)
		return
	}
	t.moveBackwardTabsInternal(n)
}
func (t *Terminal) moveBackwardTabsInternal(n int) {
	for i := 0; i < n; i++ {
		prev := -1
		for c := t.cursor.Col - 1; c >= 0; c-- {
			if t.tabStops[c] {
				prev = c
				break
			}
		}
		if prev < 0 {
			t.cursor.Col = 0
			break
		}
		t.cursor.Col = prev
	}
}

// --- cursor style ---

func (t *Terminal) screenSetCursorStyle(n int) {
	style := decscusrStyle(n)
	if t.middleware != nil && t.middleware.SetCursorStyle != nil {
		t.middleware.SetCursorStyle(style, func(s CursorStyle) { t.cursor.Style = s })
		return
	}
	t.cursor.Style = style
}

func decscusrStyle(n int) CursorStyle {
	switch n {
	case 0, 1:
		return CursorStyleBlinkingBlock
	case 2:
		return CursorStyleSteadyBlock
	case 3:
		return CursorStyleBlinkingUnderline
	case 4:
		return CursorStyleSteadyUnderline
	case 5:
		return CursorStyleBlinkingBar
	case 6:
		return CursorStyleSteadyBar
	default:
		return CursorStyleBlinkingBlock
	}
}

// --- device / terminal identification ---

func (t *Terminal) respond(s string) {
	if t.responseProvider != nil {
		_, _ = t.responseProvider.Write([]byte(s))
	}
}

func (t *Terminal) screenDeviceStatusReport(n int, dec bool) {
	if t.middleware != nil && t.middleware.DeviceStatus != nil {
		t.middleware.DeviceStatus(n, t.deviceStatusInternal)
		return
	}
	t.deviceStatusInternal(n)
}
func (t *Terminal) deviceStatusInternal(n int) {
	switch n {
	case 5:
		t.respond("\x1b[0n")
	case 6:
		t.respond(fmt.Sprintf("\x1b[%d;%dR", t.cursor.Row+1, t.cursor.Col+1))
	}
}

func (t *Terminal) screenIdentifyTerminal(b byte) {
	if t.middleware != nil && t.middleware.IdentifyTerminal != nil {
		t.middleware.IdentifyTerminal(b, t.identifyTerminalInternal)
		return
	}
	t.identifyTerminalInternal(b)
}
func (t *Terminal) identifyTerminalInternal(b byte) {
	t.respond("\x1b[?62;22c")
}

func (t *Terminal) screenSecondaryDeviceAttributes() {
	t.respond("\x1b[>1;10;0c")
}

func (t *Terminal) screenTertiaryDeviceAttributes() {
	// DA3 unit id: all-zero site/serial, the conventional emulator answer.
	t.respond("\x1bP!|00000000\x1b\\")
}

// maxSGRStack bounds XTPUSHSGR nesting; pushes beyond it are dropped.
const maxSGRStack = 10

func (t *Terminal) screenPushSGR() {
	if len(t.sgrStack) >= maxSGRStack {
		return
	}
	t.sgrStack = append(t.sgrStack, t.cursor.Pen)
}

func (t *Terminal) screenPopSGR() {
	if len(t.sgrStack) == 0 {
		return
	}
	t.cursor.Pen = t.sgrStack[len(t.sgrStack)-1]
	t.sgrStack = t.sgrStack[:len(t.sgrStack)-1]
}

// screenSetGraphicsAttr implements XTSMGRAPHICS (CSI ? Pi ; Pa ; Pv S).
// Pi=1 is the sixel color-register count, Pi=2 the sixel geometry; Pa=1
// (read), Pa=2 (reset) and Pa=3 (set) all succeed and report the configured
// limit, which is never changed; other Pa values report failure.
func (t *Terminal) screenSetGraphicsAttr(params [][]int64) {
	item := param(params, 0, 0)
	action := param(params, 1, 0)
	switch item {
	case 1:
		switch action {
		case 1, 2, 3: // read / reset / set: report the configured limit
			t.respond(fmt.Sprintf("\x1b[?1;0;%dS", t.config.MaxImageColorRegisters))
		default:
			t.respond("\x1b[?1;2;0S")
		}
	case 2:
		switch action {
		case 1, 2, 3:
			t.respond(fmt.Sprintf("\x1b[?2;0;%d;%dS", t.config.MaxImageSize.Width, t.config.MaxImageSize.Height))
		default:
			t.respond("\x1b[?2;2;0S")
		}
	default:
		t.respond(fmt.Sprintf("\x1b[?%d;1;0S", item))
	}
}

func (t *Terminal) screenWindowOp(op int) {
	switch op {
	case 14:
		w, h := t.pixelSize()
		t.respond(fmt.Sprintf("\x1b[4;%d;%dt", h, w))
	case 18:
		t.respond(fmt.Sprintf("\x1b[8;%d;%dt", t.rows, t.cols))
	case 19:
		t.respond(fmt.Sprintf("\x1b[9;%d;%dt", t.rows, t.cols))
	case 22:
		t.screenPushTitle()
	case 23:
		t.screenPopTitle()
	}
}

func (t *Terminal) pixelSize() (w, h int) {
	cw, ch := 8, 16
	if t.sizeProvider != nil {
		cw, ch = t.sizeProvider.CellSizePixels()
	}
	return t.cols * cw, t.rows * ch
}

// SizeProvider reports the pixel size of a single cell, used to answer
// window-op pixel-size queries (CSI 14 t) accurately.
type SizeProvider interface {
	CellSizePixels() (width, height int)
}

// screenRequestMode implements DECRQM (CSI [?] Ps $ p): report whether a
// mode is set, reset, or unrecognized. The reply status values follow
// xterm: 0 = not recognized, 1 = set, 2 = reset.
func (t *Terminal) screenRequestMode(params [][]int64, dec bool) {
	n := int(param(params, 0, 0))
	status := 0
	if dec {
		if mode, ok := decModeFromNumber(n); ok {
			status = 2
			if t.modes.HasDec(mode) {
				status = 1
			}
		}
		t.respond(fmt.Sprintf("\x1b[?%d;%d$y", n, status))
		return
	}
	if mode, ok := ansiModeFromNumber(n); ok {
		status = 2
		if t.modes.HasAnsi(mode) {
			status = 1
		}
	}
	t.respond(fmt.Sprintf("\x1b[%d;%d$y", n, status))
}

func ansiModeFromNumber(n int) (AnsiMode, bool) {
	switch n {
	case 2:
		return ModeKeyboardAction, true
	case 4:
		return ModeInsert, true
	case 12:
		return ModeSendReceive, true
	case 20:
		return ModeLineFeedNewLine, true
	}
	return 0, false
}

func decModeFromNumber(n int) (DecMode, bool) {
	switch n {
	case 1:
		return DecModeCursorKeys, true
	case 2:
		return DecModeANSI, true
	case 3:
		return DecModeColumn132, true
	case 4:
		return DecModeSmoothScroll, true
	case 5:
		return DecModeReverseVideo, true
	case 6:
		return DecModeOrigin, true
	case 7:
		return DecModeAutoWrap, true
	case 8:
		return DecModeAutoRepeat, true
	case 9:
		return DecModeMouseX10, true
	case 25:
		return DecModeCursorVisible, true
	case 40:
		return DecModeAllowColumns80to132, true
	case 47:
		return DecModeAltScreen47, true
	case 69:
		return DecModeLeftRightMargin, true
	case 80:
		return DecModeSixelScrolling, true
	case 1000:
		return DecModeMouseNormalTracking, true
	case 1001:
		return DecModeMouseHighlight, true
	case 1002:
		return DecModeMouseButtonTracking, true
	case 1003:
		return DecModeMouseAnyEvent, true
	case 1004:
		return DecModeFocusEvents, true
	case 1005:
		return DecModeMouseUTF8, true
	case 1006:
		return DecModeMouseSGR, true
	case 1007:
		return DecModeAltScroll, true
	case 1015:
		return DecModeMouseURXVT, true
	case 1016:
		return DecModeMouseSGRPixels, true
	case 1047:
		return DecModeAltScreen1047, true
	case 1049:
		return DecModeAltScreenSaveCursor1049, true
	case 2004:
		return DecModeBracketedPaste, true
	case 2026:
		return DecModeBatchedRendering, true
	case 2027:
		return DecModeTextReflow, true
	case 8452:
		return DecModeSixelCursorNextToGraphic, true
	}
	return 0, false
}

// --- keyboard protocol (kitty progressive enhancement) ---

func (t *Terminal) screenPushKeyboardMode(mode KeyboardMode) {
	if t.middleware != nil && t.middleware.PushKeyboardMode != nil {
		t.middleware.PushKeyboardMode(mode, t.pushKeyboardModeInternal)
		return
	}
	t.pushKeyboardModeInternal(mode)
}
func (t *Terminal) pushKeyboardModeInternal(mode KeyboardMode) {
	t.keyboardModes = append(t.keyboardModes, mode)
}

func (t *Terminal) screenPopKeyboardMode(n int) {
	if t.middleware != nil && t.middleware.PopKeyboardMode != nil {
		t.middleware.PopKeyboardMode(n, t.popKeyboardModeInternal)
		return
	}
	t.popKeyboardModeInternal(n)
}
func (t *Terminal) popKeyboardModeInternal(n int) {
	if n <= 0 {
		n = 1
	}
	if n > len(t.keyboardModes) {
		n = len(t.keyboardModes)
	}
	t.keyboardModes = t.keyboardModes[:len(t.keyboardModes)-n]
}

func (t *Terminal) screenSetKeyboardMode(mode KeyboardMode, behavior KeyboardModeBehavior) {
	if t.middleware != nil && t.middleware.SetKeyboardMode != nil {
		t.middleware.SetKeyboardMode(mode, behavior, t.setKeyboardModeInternal)
		return
	}
	t.setKeyboardModeInternal(mode, behavior)
}
func (t *Terminal) setKeyboardModeInternal(mode KeyboardMode, behavior KeyboardModeBehavior) {
	cur := t.currentKeyboardMode()
	switch behavior {
	case KeyboardModeOr:
		cur |= mode
	case KeyboardModeAndNot:
		cur &^= mode
	default:
		cur = mode
	}
	if len(t.keyboardModes) == 0 {
		t.keyboardModes = append(t.keyboardModes, cur)
	} else {
		t.keyboardModes[len(t.keyboardModes)-1] = cur
	}
}

func (t *Terminal) currentKeyboardMode() KeyboardMode {
	if len(t.keyboardModes) == 0 {
		return 0
	}
	return t.keyboardModes[len(t.keyboardModes)-1]
}

func (t *Terminal) screenReportKeyboardMode() {
	if t.middleware != nil && t.middleware.ReportKeyboardMode != nil {
		t.middleware.ReportKeyboardMode(t.reportKeyboardModeInternal)
		return
	}
	t.reportKeyboardModeInternal()
}
func (t *Terminal) reportKeyboardModeInternal() {
	t.respond(fmt.Sprintf("\x1b[?%du", t.currentKeyboardMode()))
}
