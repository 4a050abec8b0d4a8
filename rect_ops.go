package headlessvt

// Rectangular-area operations: DECCARA (change attributes in rectangular
// area), DECRARA (reverse attributes), DECFRA (fill rectangular area),
// DECERA (erase rectangular area), DECSACE (select attribute change
// extent) and DECSCA (select character protection attribute). Grounded on
// the function-table coverage list in spec §4.3 ("DECCARA (rectangle SGR
// change), DECRA/DECERA/DECFRA (fill/erase/rectangle), DECSCA") and on
// end-to-end scenario 1 in spec §8.

// rectBounds clamps a 1-based (top,left,bottom,right) rectangle to the
// page, and to the active margins when origin mode is set, matching
// DECCARA/DECRA/DECFRA/DECERA's shared "Pt;Pl;Pb;Pr" parameter shape. 0 or
// absent values default to the page/margin extents.
func (t *Terminal) rectBounds(top, left, bottom, right int) (r0, c0, r1, c1 int) {
	maxRow, maxCol := t.rows-1, t.cols-1
	minRow, minCol := 0, 0
	if t.cursor.OriginMode {
		minRow, maxRow = t.marginTop(), t.marginBottom()
		minCol, maxCol = t.marginLeft(), t.marginRight()
	}
	if top <= 0 {
		r0 = minRow
	} else {
		r0 = minRow + top - 1
	}
	if left <= 0 {
		c0 = minCol
	} else {
		c0 = minCol + left - 1
	}
	if bottom <= 0 {
		r1 = maxRow
	} else {
		r1 = minRow + bottom - 1
	}
	if right <= 0 {
		c1 = maxCol
	} else {
		c1 = minCol + right - 1
	}
	if r1 > maxRow {
		r1 = maxRow
	}
	if c1 > maxCol {
		c1 = maxCol
	}
	if r0 > r1 || c0 > c1 {
		return 0, 0, -1, -1
	}
	return r0, c0, r1, c1
}

// forEachRectCell visits every cell in the clamped rectangle that is not
// DECSCA-protected (unless includeProtected is set); wide-cell spacer
// columns are visited like any other cell.
func (t *Terminal) forEachRectCell(r0, c0, r1, c1 int, includeProtected bool, fn func(c *Cell)) {
	if r1 < r0 || c1 < c0 {
		return
	}
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			cell := t.active.Cell(row, col)
			if cell == nil {
				continue
			}
			if !includeProtected && cell.HasFlag(CellCharacterProtected) {
				continue
			}
			fn(cell)
			cell.MarkDirty()
		}
	}
}

// screenChangeAttributesRect implements DECCARA (CSI Pt;Pl;Pb;Pr;Ps... $ r):
// apply the listed SGR attributes (subset: bold/underline/blink/inverse, plus 38/48/58 colors)
// to every unprotected cell in the rectangle without touching cell text.
func (t *Terminal) screenChangeAttributesRect(params [][]int64) {
	top := int(param(params, 0, 0))
	left := int(param(params, 1, 0))
	bottom := int(param(params, 2, 0))
	right := int(param(params, 3, 0))
	r0, c0, r1, c1 := t.rectBounds(top, left, bottom, right)
	var attrs [][]int64
	if len(params) > 4 {
		attrs = params[4:]
	}
	t.forEachRectCell(r0, c0, r1, c1, false, func(c *Cell) {
		applyRectSGR(&c.GraphicsRendition, attrs)
	})
}

// screenReverseAttributesRect implements DECRARA: toggle (XOR) the listed
// attributes in place, rather than unconditionally setting them.
func (t *Terminal) screenReverseAttributesRect(params [][]int64) {
	top := int(param(params, 0, 0))
	left := int(param(params, 1, 0))
	bottom := int(param(params, 2, 0))
	right := int(param(params, 3, 0))
	r0, c0, r1, c1 := t.rectBounds(top, left, bottom, right)
	var attrs [][]int64
	if len(params) > 4 {
		attrs = params[4:]
	}
	t.forEachRectCell(r0, c0, r1, c1, false, func(c *Cell) {
		reverseRectSGR(&c.GraphicsRendition, attrs)
	})
}

// rectSGRFlag maps a DECCARA/DECRARA attribute selector to a CellFlags bit.
// Only the subset xterm documents for these two functions is honored (0
// resets all of them); colors are not addressable here.
func rectSGRFlag(code int64) (CellFlags, bool) {
	switch code {
	case 1:
		return CellBold, true
	case 4:
		return CellUnderline, true
	case 5:
		return CellBlinking, true
	case 7:
		return CellInverse, true
	}
	return 0, false
}

// applyRectSGR applies both the flag subset DECCARA documents and the
// extended 256-color/RGB foreground/background/underline color forms
// (spec §8 scenario 1 exercises "38:2::171:178:191" inside a DECCARA
// attribute list), reusing the same colon/semicolon parsing applySGR uses.
func applyRectSGR(g *GraphicsRendition, attrs [][]int64) {
	for i := 0; i < len(attrs); i++ {
		group := attrs[i]
		if len(group) == 0 {
			continue
		}
		code := group[0]
		switch {
		case code == 0:
			g.Flags &^= (CellBold | CellUnderline | CellBlinking | CellInverse)
		case code == 38:
			c, adv := parseExtendedColor(attrs, i)
			g.Foreground = c
			i += adv
		case code == 48:
			c, adv := parseExtendedColor(attrs, i)
			g.Background = c
			i += adv
		case code == 58:
			c, adv := parseExtendedColor(attrs, i)
			g.Underline = c
			i += adv
		default:
			if flag, ok := rectSGRFlag(code); ok {
				g.Flags |= flag
			}
		}
	}
}

func reverseRectSGR(g *GraphicsRendition, attrs [][]int64) {
	for _, group := range attrs {
		if len(group) == 0 {
			continue
		}
		if flag, ok := rectSGRFlag(group[0]); ok {
			g.Flags ^= flag
		}
	}
}

// screenFillRect implements DECFRA (CSI Pc;Pt;Pl;Pb;Pr $ x): fill the
// rectangle with character Pc, keeping each cell's current SGR.
func (t *Terminal) screenFillRect(params [][]int64) {
	ch := rune(param(params, 0, ' '))
	top := int(param(params, 1, 0))
	left := int(param(params, 2, 0))
	bottom := int(param(params, 3, 0))
	right := int(param(params, 4, 0))
	r0, c0, r1, c1 := t.rectBounds(top, left, bottom, right)
	t.forEachRectCell(r0, c0, r1, c1, false, func(c *Cell) {
		c.Char = ch
		c.Extra = nil
		c.Width = 1
		c.Image = nil
	})
}

// screenEraseRect implements DECERA (CSI Pt;Pl;Pb;Pr $ z): reset every
// cell in the rectangle, protected or not, to a blank with the current pen.
func (t *Terminal) screenEraseRect(params [][]int64) {
	top := int(param(params, 0, 0))
	left := int(param(params, 1, 0))
	bottom := int(param(params, 2, 0))
	right := int(param(params, 3, 0))
	r0, c0, r1, c1 := t.rectBounds(top, left, bottom, right)
	pen := t.cursor.Pen
	t.forEachRectCell(r0, c0, r1, c1, true, func(c *Cell) {
		*c = NewCell()
		c.GraphicsRendition = pen
	})
}

// screenSelectiveEraseRect implements DECSERA (CSI Pt;Pl;Pb;Pr $ {): like
// DECERA but always honors protection (the "selective" erase variant).
func (t *Terminal) screenSelectiveEraseRect(params [][]int64) {
	top := int(param(params, 0, 0))
	left := int(param(params, 1, 0))
	bottom := int(param(params, 2, 0))
	right := int(param(params, 3, 0))
	r0, c0, r1, c1 := t.rectBounds(top, left, bottom, right)
	t.forEachRectCell(r0, c0, r1, c1, false, func(c *Cell) {
		c.Char = ' '
		c.Extra = nil
		c.Width = 1
		c.Image = nil
	})
}

// screenSelectCharProtection implements DECSCA (CSI Ps " q): sets or
// clears CellCharacterProtected on the pen so subsequently written cells
// carry it.
func (t *Terminal) screenSelectCharProtection(ps int64) {
	switch ps {
	case 1:
		t.cursor.Pen.Flags |= CellCharacterProtected
	default:
		t.cursor.Pen.Flags &^= CellCharacterProtected
	}
}
