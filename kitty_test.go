package headlessvt

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func kittyAPC(control string, payload []byte) string {
	s := "\x1b_G" + control
	if payload != nil {
		s += ";" + base64.StdEncoding.EncodeToString(payload)
	}
	return s + "\x1b\\"
}

func TestKittyControlParsing(t *testing.T) {
	cmd, err := parseKittyGraphics([]byte("Ga=T,f=24,s=3,v=2,i=9,z=-1,c=4,r=5,q=2"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.action != 'T' || cmd.format != kittyFormatRGB {
		t.Errorf("action/format = %c/%d", cmd.action, cmd.format)
	}
	if cmd.width != 3 || cmd.height != 2 || cmd.imageID != 9 {
		t.Errorf("geometry = %dx%d id %d", cmd.width, cmd.height, cmd.imageID)
	}
	if cmd.zIndex != -1 || cmd.cols != 4 || cmd.rows != 5 || cmd.quiet != 2 {
		t.Errorf("placement controls = %+v", cmd)
	}
}

func TestKittyControlDefaults(t *testing.T) {
	cmd, err := parseKittyGraphics([]byte(""))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.action != 't' || cmd.format != kittyFormatRGBA {
		t.Errorf("defaults = action %c format %d", cmd.action, cmd.format)
	}
}

func TestKittyRGBToRGBA(t *testing.T) {
	cmd := &kittyGraphicsCmd{format: kittyFormatRGB, width: 2, height: 1, payload: []byte{1, 2, 3, 4, 5, 6}}
	pixels, w, h, err := cmd.pixels()
	if err != nil {
		t.Fatalf("pixels: %v", err)
	}
	if w != 2 || h != 1 {
		t.Fatalf("geometry = %dx%d", w, h)
	}
	want := []byte{1, 2, 3, 255, 4, 5, 6, 255}
	if !equalBytes(pixels, want) {
		t.Errorf("rgba = %v, want %v", pixels, want)
	}
}

func TestKittyRGBATruncation(t *testing.T) {
	cmd := &kittyGraphicsCmd{format: kittyFormatRGBA, width: 1, height: 1, payload: []byte{9, 8, 7, 6, 0xAA}}
	pixels, _, _, err := cmd.pixels()
	if err != nil {
		t.Fatalf("pixels: %v", err)
	}
	if len(pixels) != 4 {
		t.Errorf("excess payload must be trimmed, got %d bytes", len(pixels))
	}
	cmd.payload = cmd.payload[:3]
	if _, _, _, err := cmd.pixels(); err == nil {
		t.Error("short payload must error")
	}
}

func TestKittyZlibDecompression(t *testing.T) {
	raw := []byte{10, 20, 30, 40}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(raw)
	zw.Close()

	cmd := &kittyGraphicsCmd{format: kittyFormatRGBA, width: 1, height: 1, compression: 'z', payload: buf.Bytes()}
	pixels, _, _, err := cmd.pixels()
	if err != nil {
		t.Fatalf("pixels: %v", err)
	}
	if !equalBytes(pixels, raw) {
		t.Errorf("decompressed = %v", pixels)
	}
}

func TestKittyPNGDecode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 255, 0, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	cmd := &kittyGraphicsCmd{format: kittyFormatPNG, payload: buf.Bytes()}
	pixels, w, h, err := cmd.pixels()
	if err != nil {
		t.Fatalf("pixels: %v", err)
	}
	if w != 2 || h != 1 {
		t.Fatalf("geometry = %dx%d", w, h)
	}
	if pixels[0] != 255 || pixels[5] != 255 {
		t.Errorf("pixel channels = %v", pixels)
	}
}

func TestKittyTransmitAndDisplayViaAPC(t *testing.T) {
	term := New(WithSize(10, 20))
	term.WriteString(kittyAPC("a=T,f=32,s=1,v=1,i=3", []byte{1, 2, 3, 4}))

	if img := term.Image(3); img == nil || img.Width != 1 {
		t.Fatalf("transmitted image = %+v", img)
	}
	placements := term.ImagePlacements()
	if len(placements) != 1 || placements[0].ImageID != 3 {
		t.Fatalf("placements = %+v", placements)
	}
}

func TestKittyTransmitOnlyThenPlace(t *testing.T) {
	term := New(WithSize(10, 20))
	term.WriteString(kittyAPC("a=t,f=32,s=1,v=1,i=5", []byte{1, 2, 3, 4}))
	if len(term.ImagePlacements()) != 0 {
		t.Fatal("a=t must not place")
	}
	term.WriteString(kittyAPC("a=p,i=5,c=2,r=3", nil))
	placements := term.ImagePlacements()
	if len(placements) != 1 || placements[0].Cols != 2 || placements[0].Rows != 3 {
		t.Fatalf("placements = %+v", placements)
	}
}

func TestKittyChunkedTransfer(t *testing.T) {
	term := New(WithSize(10, 20))
	pixels := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	term.WriteString(kittyAPC("a=T,f=32,s=2,v=1,i=8,m=1", pixels[:4]))
	if term.Image(8) != nil {
		t.Fatal("image stored before the final chunk")
	}
	term.WriteString(kittyAPC("m=0", pixels[4:]))
	img := term.Image(8)
	if img == nil || !equalBytes(img.Data, pixels) {
		t.Fatalf("reassembled image = %+v", img)
	}
}

func TestKittyQueryReply(t *testing.T) {
	var out bytes.Buffer
	term := New(WithSize(10, 20), WithResponse(&out))
	term.WriteString(kittyAPC("a=q,i=12,f=32,s=1,v=1", []byte{1, 2, 3, 4}))
	if got := out.String(); got != "\x1b_Gi=12;OK\x1b\\" {
		t.Errorf("query reply = %q", got)
	}
}

func TestKittyDeleteSelectors(t *testing.T) {
	term := New(WithSize(10, 20))
	term.WriteString(kittyAPC("a=T,f=32,s=1,v=1,i=1", []byte{1, 1, 1, 1}))
	term.WriteString(kittyAPC("a=T,f=32,s=1,v=1,i=2", []byte{2, 2, 2, 2}))
	if got := len(term.ImagePlacements()); got != 2 {
		t.Fatalf("placements = %d", got)
	}

	term.WriteString(kittyAPC("a=d,d=i,i=1", nil))
	if got := len(term.ImagePlacements()); got != 1 {
		t.Fatalf("after d=i: placements = %d", got)
	}
	if term.Image(1) == nil {
		t.Error("lowercase delete must keep the image data")
	}

	term.WriteString(kittyAPC("a=d,d=A", nil))
	if len(term.ImagePlacements()) != 0 {
		t.Error("d=A must drop all placements")
	}
	if term.Image(2) != nil {
		t.Error("d=A must drop image data too")
	}
}

func TestNonKittyAPCReachesProvider(t *testing.T) {
	rec := apcRecorder{}
	term := New(WithSize(5, 20))
	term.apcProvider = &rec
	term.WriteString("\x1b_Zcustom\x1b\\")
	if string(rec.data) != "Zcustom" {
		t.Errorf("APC provider saw %q", rec.data)
	}
}

type apcRecorder struct{ data []byte }

func (a *apcRecorder) Receive(p []byte) { a.data = append([]byte(nil), p...) }
