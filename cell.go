package headlessvt

// CellFlags is the bitset of graphics-rendition flags from spec §3.
type CellFlags uint32

const (
	CellBold CellFlags = 1 << iota
	CellFaint
	CellItalic
	CellUnderline
	CellDoublyUnderlined
	CellCurlyUnderlined
	CellDottedUnderline
	CellDashedUnderline
	CellBlinking
	CellRapidBlinking
	CellInverse
	CellHidden
	CellCrossedOut
	CellFramed
	CellEncircled
	CellOverline
	CellCharacterProtected
	cellWide        // internal: first column of a 2-wide grapheme
	cellWideSpacer  // internal: continuation column of a 2-wide grapheme
	cellDirty       // internal: changed since last ClearDirty
)

var underlineFlags = CellUnderline | CellDoublyUnderlined | CellCurlyUnderlined | CellDottedUnderline | CellDashedUnderline

// GraphicsRendition is the SGR state applied to newly written cells
// (spec §3 "Graphics Rendition (SGR state) per cell").
type GraphicsRendition struct {
	Foreground Color
	Background Color
	Underline  Color
	Flags      CellFlags
}

// Reset returns the rendition to defaults (used by SGR 0 and RIS).
func (g *GraphicsRendition) Reset() {
	*g = GraphicsRendition{}
}

// maxCombining bounds the inline extension storage for combining marks
// attached to a single grapheme cluster; beyond this, extra marks are
// dropped rather than growing each Cell unboundedly.
const maxCombining = 5

// Cell is the unit of grid storage (spec §3). The first code point of the
// grapheme cluster is inline; combining marks go in Extra. A wide cell
// occupies two adjacent columns: the first carries content (Width==2), the
// second is a continuation cell (Width==0, inherited SGR, cellWideSpacer
// set, no code points).
type Cell struct {
	Char  rune
	Extra []rune // combining marks beyond the first code point, nil usually

	Width int // 0 (continuation), 1, or 2

	GraphicsRendition

	Hyperlink HyperlinkId  // 0 = none
	Image     *CellImage   // image fragment reference, nil if none

	flags CellFlags // internal-only bits (wide/spacer/dirty), kept apart from GraphicsRendition.Flags
}

// NewCell returns a blank, width-1 cell with default colors.
func NewCell() Cell {
	return Cell{Char: ' ', Width: 1}
}

func (c *Cell) Reset() {
	*c = NewCell()
}

func (c *Cell) HasFlag(f CellFlags) bool { return c.GraphicsRendition.Flags&f != 0 }
func (c *Cell) SetFlag(f CellFlags)      { c.GraphicsRendition.Flags |= f }
func (c *Cell) ClearFlag(f CellFlags)    { c.GraphicsRendition.Flags &^= f }

func (c *Cell) IsWide() bool       { return c.flags&cellWide != 0 }
func (c *Cell) IsWideSpacer() bool { return c.flags&cellWideSpacer != 0 }
func (c *Cell) IsDirty() bool      { return c.flags&cellDirty != 0 }
func (c *Cell) MarkDirty()         { c.flags |= cellDirty }
func (c *Cell) ClearDirty()        { c.flags &^= cellDirty }
func (c *Cell) markWide()          { c.flags |= cellWide }
func (c *Cell) markWideSpacer()    { c.flags |= cellWideSpacer }

func (c *Cell) HasImage() bool { return c.Image != nil }

// AppendCombining appends a zero-width combining mark to this cluster
// (spec §4.5 "Writing text" step 5), silently dropping marks beyond
// maxCombining to bound storage.
func (c *Cell) AppendCombining(r rune) {
	if len(c.Extra) >= maxCombining {
		return
	}
	c.Extra = append(c.Extra, r)
	c.MarkDirty()
}

// Runes returns the full grapheme cluster (base + combining marks).
func (c *Cell) Runes() []rune {
	if len(c.Extra) == 0 {
		return []rune{c.Char}
	}
	out := make([]rune, 0, 1+len(c.Extra))
	out = append(out, c.Char)
	return append(out, c.Extra...)
}

func (c *Cell) Copy() Cell {
	cp := *c
	if len(c.Extra) > 0 {
		cp.Extra = append([]rune(nil), c.Extra...)
	}
	return cp
}
