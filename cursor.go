package headlessvt

// CursorStyle is the DECSCUSR shape/blink combination.
type CursorStyle int

const (
	CursorStyleBlinkingBlock CursorStyle = iota
	CursorStyleSteadyBlock
	CursorStyleBlinkingUnderline
	CursorStyleSteadyUnderline
	CursorStyleBlinkingBar
	CursorStyleSteadyBar
)

func (s CursorStyle) Blinks() bool {
	switch s {
	case CursorStyleBlinkingBlock, CursorStyleBlinkingUnderline, CursorStyleBlinkingBar:
		return true
	}
	return false
}

// Charset selects which glyph-translation table a designator slot holds.
type Charset int

const (
	CharsetASCII Charset = iota
	CharsetLineDrawing
	CharsetUK
	CharsetDECSupplemental
)

// CharsetSlot names one of the four designator registers.
type CharsetSlot int

const (
	CharsetG0 CharsetSlot = iota
	CharsetG1
	CharsetG2
	CharsetG3
)

// CharsetMapping is the cursor's full G0..G3 + GL/GR + single-shift state
// (spec §3 Cursor: "active CharsetMapping (G0..G3 + GL/GR + single-shift
// state)"). GL is the slot invoked for codes 0x20-0x7F; GR for 0xA0-0xFF
// (unused by our UTF-8 byte stream).
// A pending single shift (SS2/SS3, armed by SetSingleShift) overrides GL
// for exactly one character.
type CharsetMapping struct {
	G      [4]Charset
	GL     CharsetSlot
	GR     CharsetSlot
	SingleShift CharsetSlot
	hasSingleShift bool
}

func NewCharsetMapping() CharsetMapping {
	return CharsetMapping{GL: CharsetG0, GR: CharsetG2}
}

// Designate sets the charset held by slot g (SCS).
func (m *CharsetMapping) Designate(slot CharsetSlot, cs Charset) {
	m.G[slot] = cs
}

// InvokeGL/InvokeGR perform a locking shift (LS0..LS3 invoke GL; LS1R..LS3R invoke GR).
func (m *CharsetMapping) InvokeGL(slot CharsetSlot) { m.GL = slot }
func (m *CharsetMapping) InvokeGR(slot CharsetSlot) { m.GR = slot }

// SetSingleShift arms a one-character override of GL (SS2/SS3).
func (m *CharsetMapping) SetSingleShift(slot CharsetSlot) {
	m.SingleShift = slot
	m.hasSingleShift = true
}

// Active returns the charset that governs the next printed character and
// consumes any pending single shift.
func (m *CharsetMapping) Active() Charset {
	if m.hasSingleShift {
		cs := m.G[m.SingleShift]
		m.hasSingleShift = false
		return cs
	}
	return m.G[m.GL]
}

// Cursor tracks position, SGR template, charset state and modal flags
// (spec §3 "Cursor").
type Cursor struct {
	Row, Col int

	AutoWrap   bool
	OriginMode bool
	Visible    bool

	Pen       GraphicsRendition
	Charsets  CharsetMapping
	Hyperlink HyperlinkId

	Style       CursorStyle
	WrapPending bool
}

func NewCursor() *Cursor {
	return &Cursor{
		AutoWrap: true,
		Visible:  true,
		Charsets: NewCharsetMapping(),
		Style:    CursorStyleBlinkingBlock,
	}
}

// SavedCursor is the DECSC/DECRC unit plus the alt-screen-swap snapshot.
type SavedCursor struct {
	Row, Col   int
	Pen        GraphicsRendition
	OriginMode bool
	Charsets   CharsetMapping
	Hyperlink  HyperlinkId
}

func (c *Cursor) Save() SavedCursor {
	return SavedCursor{
		Row: c.Row, Col: c.Col,
		Pen:        c.Pen,
		OriginMode: c.OriginMode,
		Charsets:   c.Charsets,
		Hyperlink:  c.Hyperlink,
	}
}

func (c *Cursor) Restore(s SavedCursor) {
	c.Row, c.Col = s.Row, s.Col
	c.Pen = s.Pen
	c.OriginMode = s.OriginMode
	c.Charsets = s.Charsets
	c.Hyperlink = s.Hyperlink
	c.WrapPending = false
}
