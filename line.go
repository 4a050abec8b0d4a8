package headlessvt

import "strings"

// LineFlags carries the per-line boolean state from spec §3: "A line
// carries flags: {Wrappable, Wrapped, Marked}".
type LineFlags uint8

const (
	LineWrappable LineFlags = 1 << iota
	LineWrapped
	LineMarked
)

// Line is the tagged Trivial|Inflated variant from spec §3/§9. Trivial
// lines share one run of cells with identical rendition via a byte-range
// slice into Text; Inflated lines hold a fully materialized []Cell. Every
// mutating path that cannot preserve triviality inflates first (§4.4
// "Trivial-line policy").
type Line struct {
	Flags LineFlags

	// Trivial representation. Valid when Cells == nil.
	fillAttrs GraphicsRendition
	hyperlink HyperlinkId
	text      string // used-column text fragment; usedCols is its display width (StringWidth)
	usedCols  int
	width     int // display_width: total columns this line spans

	// Inflated representation. Non-nil means this line is inflated.
	Cells []Cell
}

// NewTrivialLine creates a blank trivial line of the given width filled
// with fillAttrs (NewGrid fills a fresh ring with these).
func NewTrivialLine(width int, fill GraphicsRendition) Line {
	return Line{width: width, fillAttrs: fill, Flags: LineWrappable}
}

// NewInflatedLine creates a fully materialized line of width cells.
func NewInflatedLine(width int, fill GraphicsRendition) Line {
	cells := make([]Cell, width)
	for i := range cells {
		cells[i] = NewCell()
		cells[i].GraphicsRendition = fill
	}
	return Line{Cells: cells, width: width, Flags: LineWrappable}
}

func (l *Line) IsTrivial() bool { return l.Cells == nil }
func (l *Line) Width() int      { return l.width }

func (l *Line) IsWrapped() bool   { return l.Flags&LineWrapped != 0 }
func (l *Line) SetWrapped(w bool) {
	if w {
		l.Flags |= LineWrapped
	} else {
		l.Flags &^= LineWrapped
	}
}

// Inflate materializes a trivial line into []Cell, preserving content,
// then clears the trivial fields. O(columns), per spec §9.
func (l *Line) Inflate() {
	if !l.IsTrivial() {
		return
	}
	cells := make([]Cell, l.width)
	rest := l.text
	col := 0
	for len(rest) > 0 && col < l.width {
		cluster, w, remainder := nextGraphemeCluster(rest)
		rest = remainder
		if len(cluster) == 0 {
			break
		}
		if w <= 0 {
			w = 1
		}
		c := NewCell()
		c.Char = cluster[0]
		if len(cluster) > 1 {
			c.Extra = append([]rune(nil), cluster[1:]...)
		}
		c.GraphicsRendition = l.fillAttrs
		c.Hyperlink = l.hyperlink
		c.Width = w
		cells[col] = c
		if w == 2 && col+1 < l.width {
			col++
			sp := NewCell()
			sp.Width = 0
			sp.GraphicsRendition = l.fillAttrs
			sp.markWideSpacer()
			cells[col] = sp
		}
		col++
	}
	for ; col < l.width; col++ {
		c := NewCell()
		c.GraphicsRendition = l.fillAttrs
		cells[col] = c
	}
	l.Cells = cells
	l.text = ""
	l.usedCols = 0
}

// Cell returns the cell at col, inflating first if needed to read a
// uniform view (callers that only need bulk text should prefer Content()).
func (l *Line) Cell(col int) *Cell {
	if col < 0 || col >= l.width {
		return nil
	}
	l.Inflate()
	return &l.Cells[col]
}

// SetCell writes a single cell, inflating the line if it was trivial.
func (l *Line) SetCell(col int, c Cell) {
	if col < 0 || col >= l.width {
		return
	}
	l.Inflate()
	l.Cells[col] = c
}

// SetText replaces the entire line content with a single uniform
// rendition, keeping the line trivial (spec §4.4 "setLineText").
func (l *Line) SetText(text string, width int, fill GraphicsRendition, link HyperlinkId) {
	l.Cells = nil
	l.text = text
	l.usedCols = StringWidth(text)
	l.width = width
	l.fillAttrs = fill
	l.hyperlink = link
}

// Clear blanks the whole line with fill, staying trivial.
func (l *Line) Clear(fill GraphicsRendition) {
	l.Cells = nil
	l.text = ""
	l.usedCols = 0
	l.fillAttrs = fill
	l.hyperlink = 0
}

// ClearRange blanks columns [from, to) with fill; forces inflation unless
// the whole line is covered.
func (l *Line) ClearRange(from, to int, fill GraphicsRendition) {
	if from <= 0 && to >= l.width {
		l.Clear(fill)
		return
	}
	l.Inflate()
	for i := from; i < to && i < len(l.Cells); i++ {
		if i < 0 {
			continue
		}
		c := NewCell()
		c.GraphicsRendition = fill
		l.Cells[i] = c
	}
}

// Content returns the line's text, trimming trailing blanks and skipping
// wide-spacer continuation cells — used for LineContent/search/selection
// text extraction (grounded in the teacher's LineContent).
func (l *Line) Content() string {
	if l.IsTrivial() {
		return strings.TrimRight(l.text, " \x00")
	}
	var b strings.Builder
	for _, c := range l.Cells {
		if c.IsWideSpacer() {
			continue
		}
		ch := c.Char
		if ch == 0 {
			ch = ' '
		}
		b.WriteRune(ch)
		for _, ext := range c.Extra {
			b.WriteRune(ext)
		}
	}
	return strings.TrimRight(b.String(), " \x00")
}

// isBlank reports whether the line holds no visible content.
func (l *Line) isBlank() bool {
	if l.IsTrivial() {
		return strings.TrimRight(l.text, " \x00") == ""
	}
	for i := range l.Cells {
		if c := l.Cells[i].Char; c != 0 && c != ' ' {
			return false
		}
	}
	return true
}

// Resize pads or truncates a line to a new width in place, without reflow
// (used when reflow is disabled or columns are unchanged, §4.4 resize).
func (l *Line) Resize(newWidth int, fill GraphicsRendition) {
	if l.IsTrivial() {
		l.width = newWidth
		if l.usedCols > newWidth {
			runes := []rune(l.text)
			if newWidth < len(runes) {
				l.text = string(runes[:newWidth])
			}
			l.usedCols = newWidth
		}
		return
	}
	if newWidth == len(l.Cells) {
		l.width = newWidth
		return
	}
	cells := make([]Cell, newWidth)
	n := newWidth
	if n > len(l.Cells) {
		n = len(l.Cells)
	}
	copy(cells, l.Cells[:n])
	for i := n; i < newWidth; i++ {
		c := NewCell()
		c.GraphicsRendition = fill
		cells[i] = c
	}
	l.Cells = cells
	l.width = newWidth
}

// search finds pattern starting at or after startCol; caseSensitive governs
// comparison. Returns the starting column or -1. Handles both trivial and
// inflated representations via Content() (spec §4.4).
func (l *Line) search(pattern string, startCol int, caseSensitive bool) int {
	content := l.Content()
	runes := []rune(content)
	if startCol > len(runes) {
		return -1
	}
	hay := string(runes[startCol:])
	if !caseSensitive {
		hay = strings.ToLower(hay)
		pattern = strings.ToLower(pattern)
	}
	idx := strings.Index(hay, pattern)
	if idx < 0 {
		return -1
	}
	return startCol + len([]rune(hay[:idx]))
}

// searchReverse mirrors search but scans from the end.
func (l *Line) searchReverse(pattern string, caseSensitive bool) int {
	content := l.Content()
	hay := content
	if !caseSensitive {
		hay = strings.ToLower(hay)
		pattern = strings.ToLower(pattern)
	}
	idx := strings.LastIndex(hay, pattern)
	if idx < 0 {
		return -1
	}
	return len([]rune(hay[:idx]))
}

// matchTextAt tests for an exact match of text starting at col.
func (l *Line) matchTextAt(text string, col int, caseSensitive bool) bool {
	content := l.Content()
	runes := []rune(content)
	if col < 0 || col+len([]rune(text)) > len(runes) {
		return false
	}
	got := string(runes[col : col+len([]rune(text))])
	if !caseSensitive {
		return strings.EqualFold(got, text)
	}
	return got == text
}
