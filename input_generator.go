package headlessvt

import (
	"fmt"
	"strings"
)

// Modifier is the xterm keyboard-modifier bitset (spec §4.7 "Modifier
// param is 1 + (Shift | Alt<<1 | Control<<2 | Super<<3)", grounded on
// Contour's vtbackend::Modifier).
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModAlt
	ModControl
	ModSuper

	ModNone Modifier = 0
)

// param renders the CSI "...;mod..." trailer xterm uses whenever a key or
// mouse event carries modifiers (1 + bitmask, spec §4.7).
func (m Modifier) param() int { return 1 + int(m) }

// Key names a non-printable key the caller may ask InputGenerator to
// encode (spec §4.7 "Key encoding").
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyBackspace
	KeyTab
	KeyEnter
	KeyEscape
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// MouseProtocol is which events get reported at all (spec §4.7).
type MouseProtocol int

const (
	MouseProtocolNone MouseProtocol = iota
	MouseProtocolX10
	MouseProtocolNormalTracking
	MouseProtocolHighlightTracking
	MouseProtocolButtonTracking
	MouseProtocolAnyEventTracking
)

// MouseTransport is how a reported event is byte-encoded (spec §4.7
// "Transport").
type MouseTransport int

const (
	MouseTransportDefault MouseTransport = iota
	MouseTransportExtended
	MouseTransportSGR
	MouseTransportSGRPixels
	MouseTransportURXVT
)

// MouseButton names the button/wheel identity of a mouse event.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonMiddle
	MouseButtonRight
	MouseButtonRelease
	MouseButtonWheelUp
	MouseButtonWheelDown
)

// InputGenerator is the inverse mapping from keyboard/mouse events to VT
// input bytes (spec §4.7). It owns no terminal state beyond its own
// mode/protocol flags; the Terminal configures it as DEC modes are
// set/reset and reads its output buffer to forward to the PTY.
type InputGenerator struct {
	applicationCursorKeys bool
	applicationKeypad     bool
	bracketedPaste        bool
	focusEvents           bool

	mouseProtocol        MouseProtocol
	mouseTransport       MouseTransport
	mouseWheelMode       MouseWheelMode
	passiveMouseTracking bool

	pressedButtons map[MouseButton]bool
	lastPos        Position

	buf      []byte
	consumed int
}

// NewInputGenerator builds a generator seeded from the ambient Config
// defaults (bracketed paste / focus events / passive mouse tracking /
// wheel mode, spec §6 "Configuration").
func NewInputGenerator(cfg Config) *InputGenerator {
	return &InputGenerator{
		bracketedPaste:       cfg.BracketedPasteEnabledByDefault,
		focusEvents:          cfg.FocusEventsEnabledByDefault,
		mouseWheelMode:       cfg.MouseWheelMode,
		passiveMouseTracking: cfg.PassiveMouseTracking,
		pressedButtons:       make(map[MouseButton]bool),
	}
}

// --- mode configuration ---

func (g *InputGenerator) SetCursorKeysMode(application bool) { g.applicationCursorKeys = application }
func (g *InputGenerator) CursorKeysApplication() bool        { return g.applicationCursorKeys }

func (g *InputGenerator) SetApplicationKeypad(application bool) { g.applicationKeypad = application }
func (g *InputGenerator) ApplicationKeypad() bool               { return g.applicationKeypad }

func (g *InputGenerator) SetBracketedPaste(enable bool) { g.bracketedPaste = enable }
func (g *InputGenerator) BracketedPaste() bool          { return g.bracketedPaste }

func (g *InputGenerator) SetFocusEvents(enable bool) { g.focusEvents = enable }
func (g *InputGenerator) FocusEvents() bool          { return g.focusEvents }

func (g *InputGenerator) SetMouseProtocol(p MouseProtocol) { g.mouseProtocol = p }
func (g *InputGenerator) MouseProtocol() MouseProtocol     { return g.mouseProtocol }

func (g *InputGenerator) SetMouseTransport(t MouseTransport) { g.mouseTransport = t }
func (g *InputGenerator) MouseTransport() MouseTransport     { return g.mouseTransport }

func (g *InputGenerator) SetMouseWheelMode(m MouseWheelMode) { g.mouseWheelMode = m }
func (g *InputGenerator) MouseWheelMode() MouseWheelMode     { return g.mouseWheelMode }

func (g *InputGenerator) SetPassiveMouseTracking(enable bool) { g.passiveMouseTracking = enable }

// --- output buffer / consumer protocol ---

func (g *InputGenerator) append(b []byte) {
	g.buf = append(g.buf, b...)
}

// Peek returns the unconsumed tail of the output buffer without draining
// it (spec §4.7: "a flusher peeks, writes, then calls consume(n)").
func (g *InputGenerator) Peek() []byte {
	return g.buf[g.consumed:]
}

// Consume advances the watermark past n already-written bytes, compacting
// the buffer once everything has been drained.
func (g *InputGenerator) Consume(n int) {
	g.consumed += n
	if g.consumed >= len(g.buf) {
		g.buf = g.buf[:0]
		g.consumed = 0
	}
}

// Take is a convenience that drains and returns everything pending.
func (g *InputGenerator) Take() []byte {
	out := append([]byte(nil), g.Peek()...)
	g.Consume(len(out))
	return out
}

// --- keyboard ---

// GenerateChar encodes a printable character plus modifiers. With no
// modifiers (or only Shift, already folded into the rune by the caller)
// the literal UTF-8 encoding of r is emitted; Control+letter folds to the
// corresponding C0 code; any other modifier combination uses xterm's
// `CSI 27 ; mod ; ch ~` fixed-format extension (spec §4.7 "Key encoding").
func (g *InputGenerator) GenerateChar(r rune, mod Modifier) bool {
	switch {
	case mod == ModNone || mod == ModShift:
		g.append([]byte(string(r)))
	case mod == ModControl && r >= '@' && r <= '_':
		g.append([]byte{byte(r) & 0x1f})
	case mod == ModControl && r >= 'a' && r <= 'z':
		g.append([]byte{byte(r-'a'+1) & 0x1f})
	default:
		g.append([]byte(fmt.Sprintf("\x1b[27;%d;%d~", mod.param(), r)))
	}
	return true
}

type keySeq struct{ normal, application string }

var namedKeySequences = map[Key]keySeq{
	KeyUp:    {"\x1b[A", "\x1bOA"},
	KeyDown:  {"\x1b[B", "\x1bOB"},
	KeyRight: {"\x1b[C", "\x1bOC"},
	KeyLeft:  {"\x1b[D", "\x1bOD"},
	KeyHome:  {"\x1b[H", "\x1bOH"},
	KeyEnd:   {"\x1b[F", "\x1bOF"},
	KeyF1:    {"\x1bOP", "\x1bOP"},
	KeyF2:    {"\x1bOQ", "\x1bOQ"},
	KeyF3:    {"\x1bOR", "\x1bOR"},
	KeyF4:    {"\x1bOS", "\x1bOS"},
}

// csiTildeKeys are keys encoded as `CSI n ~` regardless of application
// mode (Insert/Delete/PageUp/PageDown + F5..F12, spec §6 "Notable sequences").
var csiTildeKeys = map[Key]int{
	KeyInsert:   2,
	KeyDelete:   3,
	KeyPageUp:   5,
	KeyPageDown: 6,
	KeyF5:       15,
	KeyF6:       17,
	KeyF7:       18,
	KeyF8:       19,
	KeyF9:       20,
	KeyF10:      21,
	KeyF11:      23,
	KeyF12:      24,
}

// GenerateKey encodes a named key plus modifiers, honoring cursor-keys
// mode (application-keypad mode is not consulted) and appending the `;mod` parameter xterm uses
// once any modifier is held (spec §4.7, §6).
func (g *InputGenerator) GenerateKey(key Key, mod Modifier) bool {
	switch key {
	case KeyBackspace:
		g.append([]byte{0x7f})
		return true
	case KeyTab:
		g.append([]byte{0x09})
		return true
	case KeyEnter:
		g.append([]byte{0x0d})
		return true
	case KeyEscape:
		g.append([]byte{0x1b})
		return true
	}

	if seq, ok := namedKeySequences[key]; ok {
		base := seq.normal
		if g.applicationCursorKeys {
			base = seq.application
		}
		if mod != ModNone {
			g.append([]byte(fmt.Sprintf("\x1b[1;%d%c", mod.param(), base[len(base)-1])))
		} else {
			g.append([]byte(base))
		}
		return true
	}

	if n, ok := csiTildeKeys[key]; ok {
		if mod != ModNone {
			g.append([]byte(fmt.Sprintf("\x1b[%d;%d~", n, mod.param())))
		} else {
			g.append([]byte(fmt.Sprintf("\x1b[%d~", n)))
		}
		return true
	}

	return false
}

// GeneratePaste wraps text in bracketed-paste markers when enabled,
// otherwise forwards it unmodified (spec §4.7 "Paste").
func (g *InputGenerator) GeneratePaste(text string) {
	if g.bracketedPaste {
		g.append([]byte("\x1b[200~"))
		g.append([]byte(text))
		g.append([]byte("\x1b[201~"))
		return
	}
	g.append([]byte(text))
}

func (g *InputGenerator) GenerateFocusIn() bool {
	if !g.focusEvents {
		return false
	}
	g.append([]byte("\x1b[I"))
	return true
}

func (g *InputGenerator) GenerateFocusOut() bool {
	if !g.focusEvents {
		return false
	}
	g.append([]byte("\x1b[O"))
	return true
}

// --- mouse ---

func mouseButtonCode(b MouseButton) int {
	switch b {
	case MouseButtonLeft:
		return 0
	case MouseButtonMiddle:
		return 1
	case MouseButtonRight:
		return 2
	case MouseButtonWheelUp:
		return 64
	case MouseButtonWheelDown:
		return 65
	default:
		return 3 // release
	}
}

// GenerateMouseWheel encodes a wheel event, honoring mouseWheelMode's
// override to plain cursor-key sequences (spec §4.7 "Wheel").
func (g *InputGenerator) GenerateMouseWheel(up bool, mod Modifier, pos Position) bool {
	switch g.mouseWheelMode {
	case MouseWheelNormalCursorKeys:
		return g.generateWheelAsCursor(up, false)
	case MouseWheelApplicationCursorKeys:
		return g.generateWheelAsCursor(up, true)
	}
	btn := MouseButtonWheelDown
	if up {
		btn = MouseButtonWheelUp
	}
	return g.GenerateMousePress(btn, mod, pos)
}

func (g *InputGenerator) generateWheelAsCursor(up, application bool) bool {
	if up {
		g.append([]byte(namedKeySequences[KeyUp].pick(application)))
	} else {
		g.append([]byte(namedKeySequences[KeyDown].pick(application)))
	}
	return true
}

func (s keySeq) pick(application bool) string {
	if application {
		return s.application
	}
	return s.normal
}

// trackingActive reports whether the current protocol reports this event
// kind at all.
func (g *InputGenerator) trackingActive() bool {
	return g.mouseProtocol != MouseProtocolNone || g.passiveMouseTracking
}

// GenerateMousePress encodes a button-down or wheel event. Returns
// handled=false when no protocol wants it (spec §4.7: "mouseProtocol =
// None: emit nothing unless passiveMouseTracking is on; in that case
// still encode but return handled=false").
func (g *InputGenerator) GenerateMousePress(btn MouseButton, mod Modifier, pos Position) bool {
	if !g.trackingActive() {
		return false
	}
	g.pressedButtons[btn] = true
	g.lastPos = pos
	g.encodeMouse(btn, mod, pos, false)
	return g.mouseProtocol != MouseProtocolNone
}

// GenerateMouseRelease encodes a button-up event; ignored entirely under
// X10 (press-only, spec §4.7).
func (g *InputGenerator) GenerateMouseRelease(btn MouseButton, mod Modifier, pos Position) bool {
	if !g.trackingActive() {
		return false
	}
	delete(g.pressedButtons, btn)
	g.lastPos = pos
	if g.mouseProtocol == MouseProtocolX10 {
		return false
	}
	g.encodeMouse(MouseButtonRelease, mod, pos, false)
	return g.mouseProtocol != MouseProtocolNone
}

// GenerateMouseMove encodes a motion event if the active protocol reports
// motion: ButtonTracking only while a button is held, AnyEventTracking
// always (spec §4.7).
func (g *InputGenerator) GenerateMouseMove(mod Modifier, pos Position) bool {
	if !g.trackingActive() {
		return false
	}
	moving := pos != g.lastPos
	g.lastPos = pos
	if !moving {
		return false
	}
	switch g.mouseProtocol {
	case MouseProtocolAnyEventTracking:
	case MouseProtocolButtonTracking:
		if len(g.pressedButtons) == 0 {
			return false
		}
	default:
		return false
	}
	btn := MouseButtonLeft
	for b := range g.pressedButtons {
		btn = b
	}
	g.encodeMouse(btn, mod, pos, true)
	return true
}

func (g *InputGenerator) encodeMouse(btn MouseButton, mod Modifier, pos Position, motion bool) {
	cb := mouseButtonCode(btn)
	// Cb modifier bits per xterm: shift=4, meta=8, control=16.
	cb |= int(mod&^ModSuper) << 2
	if motion {
		cb |= 32
	}
	col, row := pos.Col+1, pos.Row+1

	switch g.mouseTransport {
	case MouseTransportSGR, MouseTransportSGRPixels:
		final := byte('M')
		if btn == MouseButtonRelease {
			final = 'm'
		}
		g.append([]byte(fmt.Sprintf("\x1b[<%d;%d;%d%c", cb, col, row, final)))
	case MouseTransportURXVT:
		g.append([]byte(fmt.Sprintf("\x1b[%d;%d;%dM", cb+32, col, row)))
	case MouseTransportExtended:
		var b strings.Builder
		b.WriteString("\x1b[M")
		b.WriteByte(byte(cb + 32))
		b.WriteString(encodeExtendedCoord(col))
		b.WriteString(encodeExtendedCoord(row))
		g.append([]byte(b.String()))
	default: // Default/legacy
		clamp := func(v int) byte {
			if v > 223 {
				v = 223
			}
			return byte(v + 32)
		}
		g.append([]byte{0x1b, '[', 'M', byte(cb + 32), clamp(col), clamp(row)})
	}
}

// encodeExtendedCoord UTF-8-encodes a coordinate+0x20 value for the 1005
// "Extended" mouse transport, which lifts the 223-cell cap by allowing
// values above 127 to be represented as multi-byte UTF-8 (spec §6).
func encodeExtendedCoord(v int) string {
	return string(rune(v + 32))
}
