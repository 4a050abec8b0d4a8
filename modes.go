package headlessvt

// AnsiMode is the small bitset of SM/RM (non-DEC) modes (spec §3).
type AnsiMode uint8

const (
	ModeKeyboardAction AnsiMode = 1 << iota // KAM = 2
	ModeInsert                              // IRM = 4
	ModeSendReceive                         // SRM = 12
	ModeLineFeedNewLine                     // LNM = 20
)

// DecMode is the dense bitset of DEC private modes (spec §3).
type DecMode uint64

const (
	DecModeCursorKeys DecMode = 1 << iota // DECCKM = 1
	DecModeANSI                           // DECANM = 2
	DecModeColumn132                      // DECCOLM = 3
	DecModeReverseVideo                   // DECSCNM = 5
	DecModeOrigin                         // DECOM = 6
	DecModeAutoWrap                       // DECAWM = 7
	DecModeMouseX10                       // 9
	DecModeAutoRepeat
	DecModeMouseNormalTracking // 1000
	DecModeMouseHighlight      // 1001
	DecModeMouseButtonTracking // 1002
	DecModeMouseAnyEvent       // 1003
	DecModeFocusEvents         // 1004
	DecModeMouseUTF8           // 1005
	DecModeMouseSGR            // 1006
	DecModeMouseURXVT          // 1015
	DecModeMouseSGRPixels      // 1016
	DecModeAltScroll           // 1007
	DecModeCursorVisible       // DECTCEM = 25
	DecModeAllowColumns80to132
	DecModeSmoothScroll
	DecModeAltScreen47
	DecModeAltScreen1047
	DecModeAltScreenSaveCursor1049
	DecModeBracketedPaste // 2004
	DecModeSixelScrolling // 80
	DecModePrivateColorRegs
	DecModeBatchedRendering // 2026
	DecModeTextReflow       // 2027
	DecModeSixelCursorNextToGraphic
	DecModeLeftRightMargin // DECLRMM / DECSLRM gate
	DecModeKeypadApplication
	DecModeDebugMode // DECSCL-adjacent no-op per spec §9 open question
)

// ModeSet is the two dense bitsets plus the per-mode stacks used by
// save/restore (DECSET/DECRST with XTSAVE/XTRESTORE-style push/pop, spec
// §9 "Modes bitsets": "A small map holds the per-mode stack for
// save/restore").
type ModeSet struct {
	Ansi AnsiMode
	Dec  DecMode

	decSaved map[DecMode][]bool
}

func NewModeSet() *ModeSet {
	return &ModeSet{decSaved: make(map[DecMode][]bool)}
}

func (m *ModeSet) HasAnsi(mode AnsiMode) bool { return m.Ansi&mode != 0 }
func (m *ModeSet) HasDec(mode DecMode) bool   { return m.Dec&mode != 0 }

func (m *ModeSet) SetAnsi(mode AnsiMode, on bool) {
	if on {
		m.Ansi |= mode
	} else {
		m.Ansi &^= mode
	}
}

func (m *ModeSet) SetDec(mode DecMode, on bool) {
	if on {
		m.Dec |= mode
	} else {
		m.Dec &^= mode
	}
}

// SaveDec pushes the current value of each named mode onto its own stack
// (XTSAVE semantics, used for the SGR/mode-save requests in §4.3).
func (m *ModeSet) SaveDec(modes ...DecMode) {
	for _, mode := range modes {
		m.decSaved[mode] = append(m.decSaved[mode], m.HasDec(mode))
	}
}

// RestoreDec pops and applies the most recently saved value for each mode;
// an empty stack is a no-op (no mode is changed).
func (m *ModeSet) RestoreDec(modes ...DecMode) {
	for _, mode := range modes {
		stack := m.decSaved[mode]
		if len(stack) == 0 {
			continue
		}
		v := stack[len(stack)-1]
		m.decSaved[mode] = stack[:len(stack)-1]
		m.SetDec(mode, v)
	}
}
