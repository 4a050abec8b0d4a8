package headlessvt

import "github.com/lucasb-eyer/go-colorful"

// ColorKind tags the variant held by a Color (spec §3: "tagged union of
// {Default, Indexed(0..255), Bright(0..7), RGB(u8,u8,u8)}").
type ColorKind uint8

const (
	ColorDefault ColorKind = iota
	ColorIndexed
	ColorBright
	ColorRGB
)

// Color is a small tagged union rather than an interface, per spec §3 —
// cheap to copy, cheap to compare, and exhaustively switchable.
type Color struct {
	Kind  ColorKind
	Index uint8 // valid for ColorIndexed (0..255) and ColorBright (0..7)
	R, G, B uint8 // valid for ColorRGB
}

// DefaultColor is the "use the current default fg/bg" sentinel.
var DefaultColor = Color{Kind: ColorDefault}

// newIndexedColor builds a Color from an SGR palette index. It is named away
// from "IndexedColor" because that identifier names the exported
// color.Color-compatible wrapper type in snapshot.go, used for hex export
// rather than cell rendition.
func newIndexedColor(i uint8) Color { return Color{Kind: ColorIndexed, Index: i} }
func BrightColor(i uint8) Color     { return Color{Kind: ColorBright, Index: i & 0x7} }
func RGBColor(r, g, b uint8) Color {
	return Color{Kind: ColorRGB, R: r, G: g, B: b}
}

// RGB is a plain 8-bit-per-channel opaque color, used for palette storage
// and rendered output (no alpha — alpha belongs to overlay mixing only).
type RGB struct{ R, G, B uint8 }

func (c RGB) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func fromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

// Blend mixes two colors with go-colorful's perceptual RGB blend, t in
// [0,1] weighting toward other. Used throughout RenderBufferBuilder's
// overlay pipeline (search/selection/yank/cursor, spec §4.9) in place of
// an ad-hoc per-channel lerp.
func (c RGB) Blend(other RGB, t float64) RGB {
	return fromColorful(c.colorful().BlendRgb(other.colorful(), t))
}

func defaultRGBPalette() [256]RGB {
	var p [256]RGB
	base := [16]RGB{
		{0, 0, 0}, {205, 49, 49}, {13, 188, 121}, {229, 229, 16},
		{36, 114, 200}, {188, 63, 188}, {17, 168, 205}, {229, 229, 229},
		{102, 102, 102}, {241, 76, 76}, {35, 209, 139}, {245, 245, 67},
		{59, 142, 234}, {214, 112, 214}, {41, 184, 219}, {255, 255, 255},
	}
	copy(p[:16], base[:])
	i := 16
	steps := [6]uint8{0, 95, 135, 175, 215, 255}
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				p[i] = RGB{steps[r], steps[g], steps[b]}
				i++
			}
		}
	}
	for j := 0; j < 24; j++ {
		gray := uint8(8 + j*10)
		p[232+j] = RGB{gray, gray, gray}
	}
	return p
}

// DefaultForeground/DefaultBackground are used when Color is ColorDefault.
var (
	DefaultForeground = RGB{229, 229, 229}
	DefaultBackground = RGB{0, 0, 0}
)

// dim synthesizes the "Faint" rendition of a color by darkening it, mirroring
// the teacher's 0.66 multiplier in its NamedColor dim-color handling.
func dim(c RGB) RGB {
	return RGB{
		R: uint8(float64(c.R) * 0.66),
		G: uint8(float64(c.G) * 0.66),
		B: uint8(float64(c.B) * 0.66),
	}
}

// brightIndex promotes a standard color index to its bold/bright counterpart
// (spec §4.9: "honoring Bold→Bright... promotions").
func brightIndex(i uint8) uint8 {
	if i < 8 {
		return i + 8
	}
	return i
}

// Resolve turns a tagged Color into a concrete RGB using the given
// palette, honoring the fg/bold/faint promotions spec §4.9 calls out.
// isFg distinguishes the ColorDefault fallback; bold/faint only affect the
// foreground per xterm convention.
func (c Color) Resolve(palette [256]RGB, isFg, bold, faint bool) RGB {
	switch c.Kind {
	case ColorRGB:
		return RGB{c.R, c.G, c.B}
	case ColorIndexed:
		idx := c.Index
		if isFg && bold && idx < 16 {
			idx = brightIndex(idx)
		}
		out := palette[idx]
		if isFg && faint {
			out = dim(out)
		}
		return out
	case ColorBright:
		idx := c.Index
		if idx > 7 {
			idx = 7
		}
		out := palette[idx+8]
		if isFg && faint {
			out = dim(out)
		}
		return out
	default: // ColorDefault
		if isFg {
			out := DefaultForeground
			if bold {
				out = palette[15]
			}
			if faint {
				out = dim(out)
			}
			return out
		}
		return DefaultBackground
	}
}
