package headlessvt

import "github.com/lucasb-eyer/go-colorful"

// sixelState is the builder's position inside the DECSIXEL grammar; data
// arrives one byte at a time from the DCS passthrough hook, so the builder
// keeps explicit state instead of scanning a buffer.
type sixelState int

const (
	sixelGround sixelState = iota
	sixelRepeat     // after '!', accumulating the repeat count
	sixelColor      // after '#', accumulating "index[;type;v1;v2;v3]"
	sixelRaster     // after '"', accumulating "Pan;Pad;Ph;Pv"
)

// sixelImageBuilder incrementally decodes a DECSIXEL stream into a palette
// -indexed pixel grid (spec §4.2: "DECSIXEL streams to a SixelImageBuilder").
// Geometry and color-register counts are clamped to the terminal's
// configured limits; overruns mark the image rejected rather than growing
// without bound (spec §7 "Resource-limit errors").
type sixelImageBuilder struct {
	state sixelState

	palette  []RGB
	current  int // selected color register
	x, y     int
	width    int
	height   int
	rows     [][]int16 // palette index per pixel, -1 = never written

	maxWidth  int
	maxHeight int

	repeatCount int

	// color/raster parameter accumulation
	args     []int
	curArg   int
	argSeen  bool

	transparent bool
	rejected    bool
}

// newSixelImageBuilder seeds a builder from the DCS parameter list
// (P1 aspect ratio — ignored; P2 background select; P3 grid — ignored) and
// the configured image limits.
func newSixelImageBuilder(params [][]int64, maxSize ImageSize, maxRegisters int) *sixelImageBuilder {
	if maxRegisters < 2 {
		maxRegisters = 2
	}
	if maxRegisters > 65536 {
		maxRegisters = 65536
	}
	b := &sixelImageBuilder{
		palette:   make([]RGB, maxRegisters),
		maxWidth:  int(maxSize.Width),
		maxHeight: int(maxSize.Height),
	}
	b.seedPalette()
	if len(params) >= 2 && len(params[1]) > 0 && params[1][0] == 1 {
		b.transparent = true
	}
	return b
}

// seedPalette installs the conventional 16 VGA entries followed by a gray
// ramp, the registers a stream that defines no colors of its own gets.
func (b *sixelImageBuilder) seedPalette() {
	vga := [16]RGB{
		{0, 0, 0}, {0, 0, 205}, {205, 0, 0}, {205, 0, 205},
		{0, 205, 0}, {0, 205, 205}, {205, 205, 0}, {205, 205, 205},
		{0, 0, 0}, {0, 0, 255}, {255, 0, 0}, {255, 0, 255},
		{0, 255, 0}, {0, 255, 255}, {255, 255, 0}, {255, 255, 255},
	}
	n := copy(b.palette, vga[:])
	for i := n; i < len(b.palette); i++ {
		gray := uint8((i - 16) * 255 / 239)
		b.palette[i] = RGB{gray, gray, gray}
	}
}

// put consumes one payload byte.
func (b *sixelImageBuilder) put(c byte) {
	if b.rejected {
		return
	}
	switch b.state {
	case sixelRepeat:
		if c >= '0' && c <= '9' {
			b.repeatCount = b.repeatCount*10 + int(c-'0')
			return
		}
		if c >= '?' && c <= '~' {
			b.draw(c, b.repeatCount)
			b.state = sixelGround
			return
		}
		// Malformed repeat; fall back to ground and retry the byte there.
		b.state = sixelGround
		b.put(c)
		return

	case sixelColor:
		if b.accumulateArg(c) {
			return
		}
		b.applyColor()
		b.state = sixelGround
		b.put(c)
		return

	case sixelRaster:
		if b.accumulateArg(c) {
			return
		}
		b.applyRaster()
		b.state = sixelGround
		b.put(c)
		return
	}

	switch {
	case c >= '?' && c <= '~':
		b.draw(c, 1)
	case c == '$': // graphics carriage return
		b.x = 0
	case c == '-': // graphics newline: next sixel band
		b.x = 0
		b.y += 6
	case c == '!':
		b.repeatCount = 0
		b.state = sixelRepeat
	case c == '#':
		b.resetArgs()
		b.state = sixelColor
	case c == '"':
		b.resetArgs()
		b.state = sixelRaster
	}
}

func (b *sixelImageBuilder) resetArgs() {
	b.args = b.args[:0]
	b.curArg = 0
	b.argSeen = false
}

// accumulateArg folds digits and ';' separators into args, reporting
// whether the byte belonged to the parameter list.
func (b *sixelImageBuilder) accumulateArg(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		b.curArg = b.curArg*10 + int(c-'0')
		b.argSeen = true
		return true
	case c == ';':
		b.args = append(b.args, b.curArg)
		b.curArg = 0
		b.argSeen = true
		return true
	}
	if b.argSeen {
		b.args = append(b.args, b.curArg)
	}
	return false
}

// applyColor handles "#index" (select) and "#index;type;v1;v2;v3"
// (define then select). Type 1 is sixel's HLS, type 2 RGB percentages.
func (b *sixelImageBuilder) applyColor() {
	if len(b.args) == 0 {
		return
	}
	idx := b.args[0]
	if idx < 0 || idx >= len(b.palette) {
		return
	}
	if len(b.args) >= 5 {
		v1, v2, v3 := b.args[2], b.args[3], b.args[4]
		switch b.args[1] {
		case 1:
			b.palette[idx] = sixelHLS(v1, v2, v3)
		default:
			b.palette[idx] = RGB{
				R: uint8(clampPercent(v1) * 255 / 100),
				G: uint8(clampPercent(v2) * 255 / 100),
				B: uint8(clampPercent(v3) * 255 / 100),
			}
		}
	}
	b.current = idx
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// applyRaster handles the '"' raster-attribute prefix: Pan;Pad aspect
// ratio (ignored) and Ph;Pv, which pre-declare the image extent.
func (b *sixelImageBuilder) applyRaster() {
	if len(b.args) < 4 {
		return
	}
	ph, pv := b.args[2], b.args[3]
	if ph > 0 && ph <= b.maxWidth {
		b.growWidth(ph)
	}
	if pv > 0 && pv <= b.maxHeight {
		b.growHeight(pv)
	}
}

// draw paints one sixel column (six vertically stacked pixels, bit 0 on
// top) count times, advancing x per column.
func (b *sixelImageBuilder) draw(c byte, count int) {
	if count <= 0 {
		count = 1
	}
	bits := c - '?'
	for n := 0; n < count; n++ {
		if b.x >= b.maxWidth || b.y+5 >= b.maxHeight {
			b.rejected = true
			return
		}
		if bits != 0 {
			b.growWidth(b.x + 1)
			for bit := 0; bit < 6; bit++ {
				if bits&(1<<bit) == 0 {
					continue
				}
				py := b.y + bit
				b.growHeight(py + 1)
				b.rows[py][b.x] = int16(b.current)
			}
		}
		b.x++
	}
}

func (b *sixelImageBuilder) growWidth(w int) {
	if w <= b.width {
		return
	}
	for y := range b.rows {
		for len(b.rows[y]) < w {
			b.rows[y] = append(b.rows[y], -1)
		}
	}
	b.width = w
}

func (b *sixelImageBuilder) growHeight(h int) {
	for len(b.rows) < h {
		row := make([]int16, b.width)
		for i := range row {
			row[i] = -1
		}
		b.rows = append(b.rows, row)
	}
	if h > b.height {
		b.height = h
	}
}

// finalize renders the accumulated grid as RGBA pixels. ok is false when
// nothing was drawn or the stream blew past the configured limits.
func (b *sixelImageBuilder) finalize() (pixels []byte, w, h int, ok bool) {
	if b.rejected || b.width == 0 || b.height == 0 {
		return nil, 0, 0, false
	}
	w, h = b.width, b.height
	pixels = make([]byte, w*h*4)
	bg := b.palette[0]
	for y := 0; y < h; y++ {
		row := b.rows[y]
		for x := 0; x < w; x++ {
			off := (y*w + x) * 4
			idx := int16(-1)
			if x < len(row) {
				idx = row[x]
			}
			if idx < 0 {
				if b.transparent {
					continue // alpha stays 0
				}
				pixels[off+0], pixels[off+1], pixels[off+2], pixels[off+3] = bg.R, bg.G, bg.B, 255
				continue
			}
			c := b.palette[idx]
			pixels[off+0], pixels[off+1], pixels[off+2], pixels[off+3] = c.R, c.G, c.B, 255
		}
	}
	return pixels, w, h, true
}

// sixelHLS converts sixel's HLS color space to RGB. Sixel's hue wheel is
// rotated against the standard one (blue at 0°, red at 120°, green at
// 240°), so the hue is shifted before handing off to go-colorful.
func sixelHLS(h, l, s int) RGB {
	hue := float64((h + 240) % 360)
	c := colorful.Hsl(hue, float64(clampPercent(s))/100, float64(clampPercent(l))/100)
	return fromColorful(c)
}
