package headlessvt

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"strconv"
)

// Kitty graphics protocol support. Commands arrive as APC strings of the
// form "G<key>=<val>,...;<base64 payload>"; the terminal decodes them into
// pool-backed images and placements. Only the transmission/display/delete
// subset a headless core can honor is implemented — animation control is
// dropped without a reply.

const (
	kittyFormatRGB  = 24
	kittyFormatRGBA = 32
	kittyFormatPNG  = 100
)

// kittyGraphicsCmd is one parsed command's control data plus its decoded
// payload chunk.
type kittyGraphicsCmd struct {
	action     byte // a= (t, T, p, q, d, f, a, c)
	quiet      int  // q= (1 = suppress OK, 2 = suppress everything)
	deleteWhat byte // d=

	imageID     uint32 // i=
	imageNumber uint32 // I=
	placementID uint32 // p=

	format      int    // f=
	compression byte   // o= ('z' = zlib)
	width       uint32 // s=
	height      uint32 // v=
	more        bool   // m= (chunked transfer continues)

	srcX, srcY uint32 // x=, y=
	srcW, srcH uint32 // w=, h=
	cols, rows uint32 // c=, r=
	zIndex     int32  // z=
	noCursor   bool   // C=

	payload []byte
}

// parseKittyGraphics splits control data from payload and decodes both.
// The leading 'G' introducer may be present or already stripped.
func parseKittyGraphics(data []byte) (*kittyGraphicsCmd, error) {
	if len(data) > 0 && data[0] == 'G' {
		data = data[1:]
	}
	cmd := &kittyGraphicsCmd{
		action: 't',
		format: kittyFormatRGBA,
	}

	control := data
	var payload []byte
	if sep := bytes.IndexByte(data, ';'); sep >= 0 {
		control, payload = data[:sep], data[sep+1:]
	}

	for len(control) > 0 {
		var pair []byte
		if comma := bytes.IndexByte(control, ','); comma >= 0 {
			pair, control = control[:comma], control[comma+1:]
		} else {
			pair, control = control, nil
		}
		eq := bytes.IndexByte(pair, '=')
		if eq <= 0 {
			continue
		}
		cmd.setControl(pair[0], pair[eq+1:])
	}

	if len(payload) > 0 {
		decoded, err := base64.StdEncoding.DecodeString(string(payload))
		if err != nil {
			if decoded, err = base64.RawStdEncoding.DecodeString(string(payload)); err != nil {
				return nil, fmt.Errorf("kitty payload: %w", err)
			}
		}
		cmd.payload = decoded
	}
	return cmd, nil
}

func (c *kittyGraphicsCmd) setControl(key byte, value []byte) {
	firstByte := func() byte {
		if len(value) > 0 {
			return value[0]
		}
		return 0
	}
	switch key {
	case 'a':
		c.action = firstByte()
	case 'q':
		c.quiet = int(kittyUint(value))
	case 'd':
		c.deleteWhat = firstByte()
	case 'i':
		c.imageID = kittyUint(value)
	case 'I':
		c.imageNumber = kittyUint(value)
	case 'p':
		c.placementID = kittyUint(value)
	case 'f':
		c.format = int(kittyUint(value))
	case 'o':
		c.compression = firstByte()
	case 's':
		c.width = kittyUint(value)
	case 'v':
		c.height = kittyUint(value)
	case 'm':
		c.more = kittyUint(value) == 1
	case 'x':
		c.srcX = kittyUint(value)
	case 'y':
		c.srcY = kittyUint(value)
	case 'w':
		c.srcW = kittyUint(value)
	case 'h':
		c.srcH = kittyUint(value)
	case 'c':
		c.cols = kittyUint(value)
	case 'r':
		c.rows = kittyUint(value)
	case 'z':
		c.zIndex = kittyInt(value)
	case 'C':
		c.noCursor = kittyUint(value) == 1
	}
}

func kittyUint(b []byte) uint32 {
	n, _ := strconv.ParseUint(string(b), 10, 32)
	return uint32(n)
}

func kittyInt(b []byte) int32 {
	n, _ := strconv.ParseInt(string(b), 10, 32)
	return int32(n)
}

// appendChunk folds a continuation command (one sent while a previous
// chunk had m=1) into the accumulating transfer.
func (c *kittyGraphicsCmd) appendChunk(next *kittyGraphicsCmd) {
	c.payload = append(c.payload, next.payload...)
	c.more = next.more
}

// pixels renders the accumulated payload as RGBA, applying zlib
// decompression and the f= format conversion.
func (c *kittyGraphicsCmd) pixels() ([]byte, uint32, uint32, error) {
	data := c.payload
	if c.compression == 'z' && len(data) > 0 {
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, 0, 0, fmt.Errorf("kitty zlib: %w", err)
		}
		defer r.Close()
		if data, err = io.ReadAll(r); err != nil {
			return nil, 0, 0, fmt.Errorf("kitty zlib: %w", err)
		}
	}

	switch c.format {
	case kittyFormatPNG:
		return kittyDecodePNG(data)
	case kittyFormatRGB:
		n := int(c.width) * int(c.height)
		if n == 0 || len(data) < n*3 {
			return nil, 0, 0, fmt.Errorf("kitty rgb: need %d bytes for %dx%d, have %d", n*3, c.width, c.height, len(data))
		}
		rgba := make([]byte, n*4)
		for i := 0; i < n; i++ {
			rgba[i*4+0] = data[i*3+0]
			rgba[i*4+1] = data[i*3+1]
			rgba[i*4+2] = data[i*3+2]
			rgba[i*4+3] = 255
		}
		return rgba, c.width, c.height, nil
	case kittyFormatRGBA:
		n := int(c.width) * int(c.height)
		if n == 0 || len(data) < n*4 {
			return nil, 0, 0, fmt.Errorf("kitty rgba: need %d bytes for %dx%d, have %d", n*4, c.width, c.height, len(data))
		}
		return data[:n*4], c.width, c.height, nil
	}
	return nil, 0, 0, fmt.Errorf("kitty: unsupported format %d", c.format)
}

func kittyDecodePNG(data []byte) ([]byte, uint32, uint32, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		if img, _, err = image.Decode(bytes.NewReader(data)); err != nil {
			return nil, 0, 0, fmt.Errorf("kitty png: %w", err)
		}
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	rgba := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			off := (y*w + x) * 4
			rgba[off+0] = uint8(r >> 8)
			rgba[off+1] = uint8(g >> 8)
			rgba[off+2] = uint8(b >> 8)
			rgba[off+3] = uint8(a >> 8)
		}
	}
	return rgba, uint32(w), uint32(h), nil
}

// --- terminal-side dispatch ---

// handleKittyGraphics decodes one kitty APC payload and applies its
// action: transmit/display, query, or delete. Chunked transfers (m=1)
// accumulate on the terminal until the final chunk lands.
func (t *Terminal) handleKittyGraphics(payload []byte) {
	cmd, err := parseKittyGraphics(payload)
	if err != nil {
		t.logger.Warnf("kitty graphics: %v", err)
		return
	}

	if t.kittyPending != nil {
		t.kittyPending.appendChunk(cmd)
		cmd = t.kittyPending
		if cmd.more {
			return
		}
		t.kittyPending = nil
	} else if cmd.more {
		t.kittyPending = cmd
		return
	}

	switch cmd.action {
	case 't', 'T', 'p':
		t.kittyTransmit(cmd)
	case 'q':
		t.kittyReply(cmd, "OK")
	case 'd':
		t.kittyDelete(cmd)
	default:
		// Animation/compose actions: dropped unanswered (kittyReply sends OK
		// only for queries).
		t.kittyReply(cmd, "OK")
	}
}

func (t *Terminal) kittyTransmit(cmd *kittyGraphicsCmd) {
	var id uint32
	if cmd.action == 'p' {
		// Display an already-transmitted image.
		id = cmd.imageID
		if t.images.Image(id) == nil {
			t.kittyReply(cmd, "ENOENT:no such image")
			return
		}
	} else {
		pixels, w, h, err := cmd.pixels()
		if err != nil {
			t.logger.Warnf("kitty graphics: %v", err)
			t.kittyReply(cmd, "EINVAL:"+err.Error())
			return
		}
		if cmd.imageID != 0 {
			t.images.StoreWithID(cmd.imageID, w, h, pixels)
			id = cmd.imageID
		} else {
			id = t.images.Store(w, h, pixels)
		}
	}

	if cmd.action == 'T' || cmd.action == 'p' {
		img := t.images.Image(id)
		cols, rows := int(cmd.cols), int(cmd.rows)
		if cols == 0 && img != nil {
			cols = (int(img.Width) + 7) / 8
		}
		if rows == 0 && img != nil {
			rows = (int(img.Height) + 15) / 16
		}
		t.images.Place(&ImagePlacement{
			ImageID: id,
			Row:     t.cursor.Row,
			Col:     t.cursor.Col,
			Rows:    rows,
			Cols:    cols,
			SrcX:    cmd.srcX,
			SrcY:    cmd.srcY,
			SrcW:    cmd.srcW,
			SrcH:    cmd.srcH,
			ZIndex:  cmd.zIndex,
		})
	}
	t.kittyReply(cmd, "OK")
}

// kittyDelete routes the d= selector to the matching pool operation.
// Only 'A' and 'I' also drop image data; the other uppercase selectors
// remove placements exactly as their lowercase forms do.
func (t *Terminal) kittyDelete(cmd *kittyGraphicsCmd) {
	switch cmd.deleteWhat {
	case 0, 'a':
		t.images.RemoveAllPlacements()
	case 'A':
		t.images.Clear()
	case 'i':
		t.images.RemovePlacementsForImage(cmd.imageID)
	case 'I':
		t.images.DeleteImage(cmd.imageID)
	case 'c', 'C':
		t.images.DeletePlacementsAt(t.cursor.Row, t.cursor.Col)
	case 'p', 'P':
		t.images.DeletePlacementsAt(int(cmd.srcY)-1, int(cmd.srcX)-1)
	case 'x', 'X':
		t.images.DeletePlacementsInColumn(int(cmd.srcX) - 1)
	case 'y', 'Y':
		t.images.DeletePlacementsInRow(int(cmd.srcY) - 1)
	case 'z', 'Z':
		t.images.DeletePlacementsByZIndex(cmd.zIndex)
	}
}

// kittyReply answers a command unless q= suppressed it.
func (t *Terminal) kittyReply(cmd *kittyGraphicsCmd, msg string) {
	if cmd.quiet >= 2 || (cmd.quiet == 1 && msg == "OK") {
		return
	}
	if cmd.action != 'q' && msg == "OK" {
		// Per protocol only queries and errors are answered by default.
		return
	}
	if cmd.imageID != 0 {
		t.respond(fmt.Sprintf("\x1b_Gi=%d;%s\x1b\\", cmd.imageID, msg))
		return
	}
	t.respond("\x1b_G;" + msg + "\x1b\\")
}
