package headlessvt

import "testing"

func buildSixel(t *testing.T, params [][]int64, payload string) (pixels []byte, w, h int) {
	t.Helper()
	b := newSixelImageBuilder(params, ImageSize{Width: 4096, Height: 4096}, 256)
	for i := 0; i < len(payload); i++ {
		b.put(payload[i])
	}
	pixels, w, h, ok := b.finalize()
	if !ok {
		t.Fatalf("builder rejected payload %q", payload)
	}
	return pixels, w, h
}

func pixelAt(pixels []byte, w, x, y int) [4]byte {
	off := (y*w + x) * 4
	return [4]byte{pixels[off], pixels[off+1], pixels[off+2], pixels[off+3]}
}

func TestSixelSingleColumn(t *testing.T) {
	// '~' = all six bits set: one column, six pixels tall.
	pixels, w, h := buildSixel(t, nil, "~")
	if w != 1 || h != 6 {
		t.Fatalf("geometry = %dx%d, want 1x6", w, h)
	}
	for y := 0; y < 6; y++ {
		if px := pixelAt(pixels, w, 0, y); px[3] != 255 {
			t.Errorf("pixel (0,%d) = %v, want opaque", y, px)
		}
	}
}

func TestSixelBitPattern(t *testing.T) {
	// '@' = only bit 0: a single pixel in the top row of the band.
	_, w, h := buildSixel(t, nil, "@")
	if w != 1 || h != 1 {
		t.Errorf("geometry = %dx%d, want 1x1", w, h)
	}
}

func TestSixelRepeatRun(t *testing.T) {
	_, w, h := buildSixel(t, nil, "!5~")
	if w != 5 || h != 6 {
		t.Errorf("geometry = %dx%d, want 5x6", w, h)
	}
}

func TestSixelNewlineAndCarriageReturn(t *testing.T) {
	// Two bands: '~' then '-' moves down six rows; '$' rewinds x.
	_, w, h := buildSixel(t, nil, "~-~")
	if w != 1 || h != 12 {
		t.Errorf("geometry = %dx%d, want 1x12", w, h)
	}

	pixels, w, _ := buildSixel(t, nil, "#1~$#2~")
	// Second pass overdraws the same column with color 2.
	c := pixelAt(pixels, w, 0, 0)
	if c[0] != 205 || c[1] != 0 || c[2] != 0 {
		t.Errorf("overdrawn pixel = %v, want VGA red", c)
	}
}

func TestSixelColorDefinitionRGB(t *testing.T) {
	// Define register 5 as 100%/0%/50% then draw with it.
	pixels, w, _ := buildSixel(t, nil, "#5;2;100;0;50~")
	c := pixelAt(pixels, w, 0, 0)
	if c[0] != 255 || c[1] != 0 || c[2] != 127 {
		t.Errorf("defined color = %v, want (255,0,127)", c)
	}
}

func TestSixelColorDefinitionHLS(t *testing.T) {
	// HLS lightness 100% is white regardless of hue.
	pixels, w, _ := buildSixel(t, nil, "#5;1;0;100;100~")
	c := pixelAt(pixels, w, 0, 0)
	if c[0] != 255 || c[1] != 255 || c[2] != 255 {
		t.Errorf("HLS white = %v", c)
	}
}

func TestSixelTransparentBackground(t *testing.T) {
	// P2=1 keeps unwritten pixels transparent. '@' writes only the top
	// pixel of the band, but a later '-' extends height past it.
	params := [][]int64{{0}, {1}}
	b := newSixelImageBuilder(params, ImageSize{Width: 100, Height: 100}, 256)
	for _, c := range []byte("@-@") {
		b.put(c)
	}
	pixels, w, h, ok := b.finalize()
	if !ok || h != 7 {
		t.Fatalf("geometry = %dx%d ok=%v", w, h, ok)
	}
	if px := pixelAt(pixels, w, 0, 3); px[3] != 0 {
		t.Errorf("unwritten pixel alpha = %d, want transparent", px[3])
	}
	if px := pixelAt(pixels, w, 0, 0); px[3] != 255 {
		t.Errorf("written pixel alpha = %d", px[3])
	}
}

func TestSixelOpaqueBackgroundFill(t *testing.T) {
	pixels, w, _ := buildSixel(t, nil, "@-@")
	// Default background: unwritten pixels take register 0, opaque.
	if px := pixelAt(pixels, w, 0, 3); px[3] != 255 {
		t.Errorf("background pixel = %v, want opaque register 0", px)
	}
}

func TestSixelRasterAttributesPresize(t *testing.T) {
	_, w, h := buildSixel(t, nil, `"1;1;8;10@`)
	if w != 8 || h != 10 {
		t.Errorf("geometry = %dx%d, want presized 8x10", w, h)
	}
}

func TestSixelRejectsOversize(t *testing.T) {
	b := newSixelImageBuilder(nil, ImageSize{Width: 2, Height: 6}, 256)
	for _, c := range []byte("!10~") {
		b.put(c)
	}
	if _, _, _, ok := b.finalize(); ok {
		t.Error("stream wider than the configured limit must be rejected")
	}
}

func TestSixelEmptyStream(t *testing.T) {
	b := newSixelImageBuilder(nil, ImageSize{Width: 100, Height: 100}, 256)
	if _, _, _, ok := b.finalize(); ok {
		t.Error("empty stream must not produce an image")
	}
}

func TestSixelThroughTerminalDCS(t *testing.T) {
	term := New(WithSize(10, 20))
	term.WriteString("\x1bPq#2~~\x1b\\")

	placements := term.ImagePlacements()
	if len(placements) != 1 {
		t.Fatalf("placements = %d", len(placements))
	}
	img := term.Image(placements[0].ImageID)
	if img == nil || img.Width != 2 || img.Height != 6 {
		t.Fatalf("image = %+v", img)
	}
	// Both columns drawn in VGA red (register 2).
	if px := pixelAt(img.Data, int(img.Width), 1, 5); px[0] != 205 {
		t.Errorf("pixel = %v, want red channel 205", px)
	}
}

func TestSixelChunkedAcrossWrites(t *testing.T) {
	term := New(WithSize(10, 20))
	term.WriteString("\x1bPq#1")
	term.WriteString("!3~")
	term.WriteString("\x1b\\")

	placements := term.ImagePlacements()
	if len(placements) != 1 {
		t.Fatalf("placements = %d", len(placements))
	}
	img := term.Image(placements[0].ImageID)
	if img == nil || img.Width != 3 || img.Height != 6 {
		t.Errorf("image = %+v", img)
	}
}
