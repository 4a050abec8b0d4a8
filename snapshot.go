package headlessvt

import (
	"encoding/base64"
	"fmt"
	"image/color"
)

// SnapshotDetail specifies the level of detail in a snapshot.
type SnapshotDetail string

const (
	// SnapshotDetailText returns plain text only.
	SnapshotDetailText SnapshotDetail = "text"
	// SnapshotDetailStyled returns text with style segments per line.
	SnapshotDetailStyled SnapshotDetail = "styled"
	// SnapshotDetailFull returns full cell-by-cell data.
	SnapshotDetailFull SnapshotDetail = "full"
)

// Snapshot represents a complete terminal screen capture.
type Snapshot struct {
	Size   SnapshotSize    `json:"size"`
	Cursor SnapshotCursor  `json:"cursor"`
	Lines  []SnapshotLine  `json:"lines"`
	Images []SnapshotImage `json:"images,omitempty"`
}

// SnapshotSize holds terminal dimensions.
type SnapshotSize struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// SnapshotCursor holds cursor state.
type SnapshotCursor struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Visible bool   `json:"visible"`
	Style   string `json:"style"`
}

// SnapshotLine represents a single line in the snapshot.
type SnapshotLine struct {
	Text     string            `json:"text"`
	Segments []SnapshotSegment `json:"segments,omitempty"`
	Cells    []SnapshotCell    `json:"cells,omitempty"`
}

// SnapshotSegment represents a styled text segment within a line.
type SnapshotSegment struct {
	Text       string        `json:"text"`
	Fg         string        `json:"fg,omitempty"`
	Bg         string        `json:"bg,omitempty"`
	Attributes SnapshotAttrs `json:"attrs,omitempty"`
	Hyperlink  *SnapshotLink `json:"hyperlink,omitempty"`
}

// SnapshotCell represents a single cell with full attributes.
type SnapshotCell struct {
	Char           string        `json:"char"`
	Fg             string        `json:"fg"`
	Bg             string        `json:"bg"`
	UnderlineColor string        `json:"underline_color,omitempty"`
	Attributes     SnapshotAttrs `json:"attrs,omitempty"`
	Hyperlink      *SnapshotLink `json:"hyperlink,omitempty"`
	Wide           bool          `json:"wide,omitempty"`
	WideSpacer     bool          `json:"wide_spacer,omitempty"`
}

// SnapshotAttrs holds text formatting attributes. Underline and Blink are
// style names ("single", "double", "curly", "dotted", "dashed" / "slow",
// "fast") rather than booleans so the distinct SGR 4:x and 5/6 variants
// survive the round trip.
type SnapshotAttrs struct {
	Bold          bool   `json:"bold,omitempty"`
	Dim           bool   `json:"dim,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Underline     string `json:"underline,omitempty"`
	Blink         string `json:"blink,omitempty"`
	Reverse       bool   `json:"reverse,omitempty"`
	Hidden        bool   `json:"hidden,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
}

// SnapshotLink holds hyperlink information.
type SnapshotLink struct {
	ID  string `json:"id,omitempty"`
	URI string `json:"uri"`
}

// SnapshotImage holds image placement metadata (without pixel data).
type SnapshotImage struct {
	ID          uint32 `json:"id"`
	PlacementID uint32 `json:"placement_id"`
	Row         int    `json:"row"`
	Col         int    `json:"col"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	PixelWidth  uint32 `json:"pixel_width"`
	PixelHeight uint32 `json:"pixel_height"`
	ZIndex      int32  `json:"z_index"`
}

// ImageSnapshot holds complete image data for retrieval.
type ImageSnapshot struct {
	ID     uint32 `json:"id"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
	Format string `json:"format"` // "rgba" (raw RGBA pixels, base64 encoded)
	Data   string `json:"data"`
}

// GetImageData returns the image data for the given ID, or nil if not found.
func (t *Terminal) GetImageData(id uint32) *ImageSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	img := t.images.Image(id)
	if img == nil {
		return nil
	}

	return &ImageSnapshot{
		ID:     img.ID,
		Width:  img.Width,
		Height: img.Height,
		Format: "rgba",
		Data:   base64.StdEncoding.EncodeToString(img.Data),
	}
}

// Snapshot creates a snapshot of the current terminal state. The detail
// parameter controls how much information is included.
func (t *Terminal) Snapshot(detail SnapshotDetail) *Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := &Snapshot{
		Size: SnapshotSize{
			Rows: t.rows,
			Cols: t.cols,
		},
		Cursor: SnapshotCursor{
			Row:     t.cursor.Row,
			Col:     t.cursor.Col,
			Visible: t.cursor.Visible,
			Style:   cursorStyleToString(t.cursor.Style),
		},
		Lines: make([]SnapshotLine, t.rows),
	}

	for row := 0; row < t.rows; row++ {
		snap.Lines[row] = t.snapshotLine(row, detail)
	}

	snap.Images = t.snapshotImages()

	return snap
}

func (t *Terminal) snapshotImages() []SnapshotImage {
	placements := t.images.Placements()
	if len(placements) == 0 {
		return nil
	}

	images := make([]SnapshotImage, 0, len(placements))
	for _, p := range placements {
		img := t.images.Image(p.ImageID)
		if img == nil {
			continue
		}

		images = append(images, SnapshotImage{
			ID:          p.ImageID,
			PlacementID: p.ID,
			Row:         p.Row,
			Col:         p.Col,
			Rows:        p.Rows,
			Cols:        p.Cols,
			PixelWidth:  img.Width,
			PixelHeight: img.Height,
			ZIndex:      p.ZIndex,
		})
	}

	return images
}

func (t *Terminal) snapshotLine(row int, detail SnapshotDetail) SnapshotLine {
	var text string
	if l := t.active.Line(row); l != nil {
		text = l.Content()
	}
	line := SnapshotLine{Text: text}

	switch detail {
	case SnapshotDetailStyled:
		line.Segments = t.lineToSegments(row)
	case SnapshotDetailFull:
		line.Cells = t.lineToCells(row)
	}

	return line
}

// lineToSegments converts a line to styled segments (runs of same style).
func (t *Terminal) lineToSegments(row int) []SnapshotSegment {
	var segments []SnapshotSegment
	var current *SnapshotSegment
	var currentChars []rune

	for col := 0; col < t.cols; col++ {
		cell := t.active.Cell(row, col)
		if cell == nil || cell.IsWideSpacer() {
			continue
		}

		fg := penColorToHex(cell.Foreground, true, t.config.DefaultPalette)
		bg := penColorToHex(cell.Background, false, t.config.DefaultPalette)
		attrs := cellAttrsToSnapshot(cell)
		link := t.cellHyperlinkToSnapshot(cell)

		if current == nil || !segmentMatches(current, fg, bg, attrs, link) {
			if current != nil && len(currentChars) > 0 {
				current.Text = string(currentChars)
				segments = append(segments, *current)
			}
			current = &SnapshotSegment{
				Fg:         fg,
				Bg:         bg,
				Attributes: attrs,
				Hyperlink:  link,
			}
			currentChars = nil
		}

		ch := cell.Char
		if ch == 0 {
			ch = ' '
		}
		currentChars = append(currentChars, ch)
	}

	if current != nil && len(currentChars) > 0 {
		current.Text = string(currentChars)
		segments = append(segments, *current)
	}

	return segments
}

// lineToCells converts a line to full cell data.
func (t *Terminal) lineToCells(row int) []SnapshotCell {
	cells := make([]SnapshotCell, 0, t.cols)

	for col := 0; col < t.cols; col++ {
		cell := t.active.Cell(row, col)
		if cell == nil {
			cells = append(cells, SnapshotCell{Char: " "})
			continue
		}

		ch := cell.Char
		if ch == 0 {
			ch = ' '
		}

		sc := SnapshotCell{
			Char:       string(ch),
			Fg:         penColorToHex(cell.Foreground, true, t.config.DefaultPalette),
			Bg:         penColorToHex(cell.Background, false, t.config.DefaultPalette),
			Attributes: cellAttrsToSnapshot(cell),
			Hyperlink:  t.cellHyperlinkToSnapshot(cell),
			Wide:       cell.IsWide(),
			WideSpacer: cell.IsWideSpacer(),
		}
		if cell.Underline.Kind != ColorDefault {
			sc.UnderlineColor = penColorToHex(cell.Underline, true, t.config.DefaultPalette)
		}

		cells = append(cells, sc)
	}

	return cells
}

func segmentMatches(seg *SnapshotSegment, fg, bg string, attrs SnapshotAttrs, link *SnapshotLink) bool {
	if seg.Fg != fg || seg.Bg != bg {
		return false
	}
	if seg.Attributes != attrs {
		return false
	}
	if seg.Hyperlink == nil && link == nil {
		return true
	}
	if seg.Hyperlink == nil || link == nil {
		return false
	}
	return seg.Hyperlink.URI == link.URI && seg.Hyperlink.ID == link.ID
}

// IndexedColor wraps a palette index as an image/color.Color, letting
// callers pass palette entries anywhere a stdlib color is accepted (used
// by colorToHex and by embedders exporting styled output).
type IndexedColor struct {
	Index uint8
}

func (c *IndexedColor) RGBA() (r, g, b, a uint32) {
	rgb := defaultRGBPalette()[c.Index]
	return uint32(rgb.R) * 0x101, uint32(rgb.G) * 0x101, uint32(rgb.B) * 0x101, 0xffff
}

var _ color.Color = (*IndexedColor)(nil)

// colorToHex converts a stdlib color to a hex string; nil means "no color".
func colorToHex(c color.Color) string {
	if c == nil {
		return ""
	}
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// penColorToHex renders a cell's tagged Color through the active palette.
func penColorToHex(c Color, isFg bool, palette [256]RGB) string {
	rgb := c.Resolve(palette, isFg, false, false)
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

func cellAttrsToSnapshot(cell *Cell) SnapshotAttrs {
	return SnapshotAttrs{
		Bold:          cell.HasFlag(CellBold),
		Dim:           cell.HasFlag(CellFaint),
		Italic:        cell.HasFlag(CellItalic),
		Underline:     underlineStyleName(cell.GraphicsRendition.Flags),
		Blink:         blinkStyleName(cell.GraphicsRendition.Flags),
		Reverse:       cell.HasFlag(CellInverse),
		Hidden:        cell.HasFlag(CellHidden),
		Strikethrough: cell.HasFlag(CellCrossedOut),
	}
}

func underlineStyleName(f CellFlags) string {
	switch {
	case f&CellDoublyUnderlined != 0:
		return "double"
	case f&CellCurlyUnderlined != 0:
		return "curly"
	case f&CellDottedUnderline != 0:
		return "dotted"
	case f&CellDashedUnderline != 0:
		return "dashed"
	case f&CellUnderline != 0:
		return "single"
	}
	return ""
}

func blinkStyleName(f CellFlags) string {
	switch {
	case f&CellRapidBlinking != 0:
		return "fast"
	case f&CellBlinking != 0:
		return "slow"
	}
	return ""
}

func (t *Terminal) cellHyperlinkToSnapshot(cell *Cell) *SnapshotLink {
	if cell.Hyperlink == 0 {
		return nil
	}
	link, ok := t.hyperlinks.Get(cell.Hyperlink)
	if !ok {
		return nil
	}
	return &SnapshotLink{ID: link.IDString, URI: link.URI}
}

func cursorStyleToString(style CursorStyle) string {
	switch style {
	case CursorStyleBlinkingUnderline, CursorStyleSteadyUnderline:
		return "underline"
	case CursorStyleBlinkingBar, CursorStyleSteadyBar:
		return "bar"
	default:
		return "block"
	}
}
