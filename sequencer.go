package headlessvt

import "strconv"

// Sequencer implements Receiver, turning tokenized Parser events into
// function-table lookups and Screen calls (spec §4.2). It owns no state of
// its own beyond what the Parser already accumulated per-sequence; all
// terminal state lives on Terminal/Screen.
type Sequencer struct {
	term *Terminal
}

func newSequencer(t *Terminal) *Sequencer {
	return &Sequencer{term: t}
}

// param reads field i of params, defaulting to def when the field is absent
// or empty; an explicit 0 is returned as 0 (paramNoZeroDefault maps it to def).
func param(params [][]int64, i int, def int64) int64 {
	if i < 0 || i >= len(params) || len(params[i]) == 0 {
		return def
	}
	return params[i][0]
}

// paramNoZeroDefault mirrors param but also substitutes def when the field
// was present but literally 0, matching CUU/CUD/ECH-style "count, default
// and minimum 1" semantics.
func paramNoZeroDefault(params [][]int64, i int, def int64) int64 {
	v := param(params, i, def)
	if v == 0 {
		return def
	}
	return v
}

func subparam(params [][]int64, i, j int, def int64) int64 {
	if i < 0 || i >= len(params) || j >= len(params[i]) {
		return def
	}
	return params[i][j]
}

func (s *Sequencer) Print(r rune) {
	s.term.screenInput(r)
}

func (s *Sequencer) Execute(b byte) {
	switch b {
	case 0x07:
		s.term.screenBell()
	case 0x08:
		s.term.screenBackspace()
	case 0x09:
		s.term.screenTab(1)
	case 0x0a, 0x0b, 0x0c:
		s.term.screenLineFeed()
	case 0x0d:
		s.term.screenCarriageReturn()
	case 0x0e:
		s.term.screenInvokeGL(CharsetG1)
	case 0x0f:
		s.term.screenInvokeGL(CharsetG0)
	}
}

func (s *Sequencer) EscDispatch(intermediates []byte, final byte) {
	if len(intermediates) == 0 {
		switch final {
		case 'D':
			s.term.screenIndex()
		case 'E':
			s.term.screenNextLine()
		case 'H':
			s.term.screenHorizontalTabSet()
		case 'M':
			s.term.screenReverseIndex()
		case 'Z':
			s.term.screenIdentifyTerminal(0)
		case 'c':
			s.term.screenResetState()
		case '7':
			s.term.screenSaveCursor()
		case '8':
			s.term.screenRestoreCursor()
		case '=':
			s.term.screenSetKeypadApplication(true)
		case '>':
			s.term.screenSetKeypadApplication(false)
		case 'N': // SS2
			s.term.cursor.Charsets.SetSingleShift(CharsetG2)
		case 'O': // SS3
			s.term.cursor.Charsets.SetSingleShift(CharsetG3)
		case 'n': // LS2
			s.term.screenInvokeGL(CharsetG2)
		case 'o': // LS3
			s.term.screenInvokeGL(CharsetG3)
		case '~': // LS1R
			s.term.cursor.Charsets.InvokeGR(CharsetG1)
		case '}': // LS2R
			s.term.cursor.Charsets.InvokeGR(CharsetG2)
		case '|': // LS3R
			s.term.cursor.Charsets.InvokeGR(CharsetG3)
		}
		return
	}
	lead := intermediates[0]
	switch lead {
	case '#':
		if final == '8' {
			s.term.screenDecaln()
		}
	case '(', ')', '*', '+':
		slot := map[byte]CharsetSlot{'(': CharsetG0, ')': CharsetG1, '*': CharsetG2, '+': CharsetG3}[lead]
		s.term.screenDesignateCharset(slot, charsetFromFinal(final))
	}
}

func charsetFromFinal(final byte) Charset {
	switch final {
	case '0':
		return CharsetLineDrawing
	case 'A':
		return CharsetUK
	case '<':
		return CharsetDECSupplemental
	default:
		return CharsetASCII
	}
}

func (s *Sequencer) CsiDispatch(params [][]int64, intermediates []byte, leader byte, final byte) {
	id := LookupCSI(leader, intermediates, final)
	t := s.term

	if id != FnUnknown && !t.conformanceAllows(id) {
		return
	}

	switch id {
	case FnCursorUp:
		t.screenCursorUp(int(paramNoZeroDefault(params, 0, 1)))
	case FnCursorDown:
		t.screenCursorDown(int(paramNoZeroDefault(params, 0, 1)))
	case FnCursorForward:
		t.screenCursorForward(int(paramNoZeroDefault(params, 0, 1)))
	case FnCursorBackward:
		t.screenCursorBackward(int(paramNoZeroDefault(params, 0, 1)))
	case FnCursorNextLine:
		t.screenCursorNextLine(int(paramNoZeroDefault(params, 0, 1)))
	case FnCursorPrevLine:
		t.screenCursorPrevLine(int(paramNoZeroDefault(params, 0, 1)))
	case FnCursorHorizontalAbsolute:
		t.screenCursorToCol(int(paramNoZeroDefault(params, 0, 1)) - 1)
	case FnCursorVerticalAbsolute:
		t.screenCursorToRow(int(paramNoZeroDefault(params, 0, 1)) - 1)
	case FnCursorPosition:
		row := int(paramNoZeroDefault(params, 0, 1)) - 1
		col := int(paramNoZeroDefault(params, 1, 1)) - 1
		t.screenCursorPosition(row, col)
	case FnEraseInDisplay:
		t.screenEraseInDisplay(ClearMode(param(params, 0, 0)))
	case FnEraseInLine:
		t.screenEraseInLine(LineClearMode(param(params, 0, 0)))
	case FnInsertLines:
		t.screenInsertLines(int(paramNoZeroDefault(params, 0, 1)))
	case FnDeleteLines:
		t.screenDeleteLines(int(paramNoZeroDefault(params, 0, 1)))
	case FnDeleteChars:
		t.screenDeleteChars(int(paramNoZeroDefault(params, 0, 1)))
	case FnInsertChars:
		t.screenInsertChars(int(paramNoZeroDefault(params, 0, 1)))
	case FnEraseChars:
		t.screenEraseChars(int(paramNoZeroDefault(params, 0, 1)))
	case FnScrollUp:
		t.screenScrollUp(int(paramNoZeroDefault(params, 0, 1)))
	case FnScrollDown:
		t.screenScrollDown(int(paramNoZeroDefault(params, 0, 1)))
	case FnSetScrollingRegion:
		top := int(param(params, 0, 1))
		bottom := int(param(params, 1, int64(t.rows)))
		t.screenSetScrollingRegion(top-1, bottom-1)
	case FnSetLeftRightMargin:
		if t.modes.HasDec(DecModeLeftRightMargin) && len(params) > 0 {
			left := int(param(params, 0, 1))
			right := int(param(params, 1, int64(t.cols)))
			t.screenSetLeftRightMargin(left-1, right-1)
		} else {
			t.screenSaveCursor()
		}
	case FnSGR:
		t.screenSGR(params)
	case FnSetMode:
		t.screenSetModes(params, leader, true)
	case FnResetMode:
		t.screenSetModes(params, leader, false)
	case FnSaveCursor:
		t.screenSaveCursor()
	case FnRestoreCursor:
		if leader == '?' {
			t.screenReportKeyboardMode()
		} else {
			t.screenRestoreCursor()
		}
	case FnDeviceStatusReport:
		t.screenDeviceStatusReport(int(param(params, 0, 0)), leader == '?')
	case FnIdentifyTerminal:
		t.screenIdentifyTerminal(byte(param(params, 0, 0)))
	case FnSecondaryDeviceAttributes:
		t.screenSecondaryDeviceAttributes()
	case FnHorizontalTabSet:
		t.screenHorizontalTabSet()
	case FnTabClear:
		t.screenClearTabs(TabClearMode(param(params, 0, 0)))
	case FnCursorForwardTab:
		t.screenTab(int(paramNoZeroDefault(params, 0, 1)))
	case FnCursorBackwardTab:
		t.screenBackwardTab(int(paramNoZeroDefault(params, 0, 1)))
	case FnSetCursorStyle:
		t.screenSetCursorStyle(int(param(params, 0, 1)))
	case FnRepeatLastChar:
		t.screenRepeatLastChar(int(paramNoZeroDefault(params, 0, 1)))
	case FnRequestMode:
		t.screenRequestMode(params, leader == '?')
	case FnPushKeyboardMode:
		t.screenPushKeyboardMode(KeyboardMode(param(params, 0, 0)))
	case FnPopKeyboardMode:
		t.screenPopKeyboardMode(int(paramNoZeroDefault(params, 0, 1)))
	case FnSetKeyboardMode:
		t.screenSetKeyboardMode(KeyboardMode(param(params, 0, 0)), KeyboardModeBehavior(param(params, 1, 1)))
	case FnReportKeyboardMode:
		t.screenReportKeyboardMode()
	case FnWindowOp:
		t.screenWindowOp(int(param(params, 0, 0)))
	case FnChangeAttributesRect:
		t.screenChangeAttributesRect(params)
	case FnReverseAttributesRect:
		t.screenReverseAttributesRect(params)
	case FnFillRect:
		t.screenFillRect(params)
	case FnEraseRect:
		t.screenEraseRect(params)
	case FnSelectiveEraseRect:
		t.screenSelectiveEraseRect(params)
	case FnSelectCharProtection:
		t.screenSelectCharProtection(param(params, 0, 0))
	case FnPushColors:
		t.screenPushColors(int(param(params, 0, 0)))
	case FnPopColors:
		t.screenPopColors(int(param(params, 0, 0)))
	case FnReportColors:
		t.screenReportColors()
	case FnCaptureBuffer:
		t.screenCaptureBuffer(params)
	case FnSetConformanceLevel:
		t.screenSetConformanceLevel(params)
	case FnSetStatusDisplay:
		t.screenSetStatusDisplay(int(param(params, 0, 0)))
	case FnTertiaryDeviceAttributes:
		t.screenTertiaryDeviceAttributes()
	case FnPushSGR:
		t.screenPushSGR()
	case FnPopSGR:
		t.screenPopSGR()
	case FnSetGraphicsAttr:
		t.screenSetGraphicsAttr(params)
	}
}

func (s *Sequencer) OscDispatch(fields [][]byte) {
	if len(fields) == 0 {
		return
	}
	t := s.term
	code, _ := strconv.Atoi(string(fields[0]))
	rest := func(i int) string {
		if i >= len(fields) {
			return ""
		}
		return string(fields[i])
	}
	joinRest := func(from int) []byte {
		var out []byte
		for i := from; i < len(fields); i++ {
			if i > from {
				out = append(out, ';')
			}
			out = append(out, fields[i]...)
		}
		return out
	}

	switch code {
	case 0, 2:
		t.screenSetTitle(string(joinRest(1)))
	case 1:
		t.screenSetTitle(string(joinRest(1))) // icon name: treated as title, no separate icon surface
	case 4:
		t.screenSetColor(joinRest(1))
	case 7:
		t.screenSetWorkingDirectory(string(joinRest(1)))
	case 8:
		t.screenSetHyperlink(string(joinRest(1)))
	case 9:
		t.screenDesktopNotificationSimple(string(joinRest(1)))
	case 10, 11, 12, 13, 14, 15, 16, 17, 18, 19:
		t.screenSetDynamicColor(code, rest(1))
	case 110, 111, 112:
		t.screenResetDynamicColor(code)
	case 52:
		t.screenClipboard(string(joinRest(1)))
	case 99:
		t.screenDesktopNotification(joinRest(1))
	case 777:
		t.screenRxvtNotification(string(joinRest(1)))
	case 104:
		t.screenResetColor(string(joinRest(1)))
	case 133:
		t.screenShellIntegrationMark(string(joinRest(1)))
	case 1337:
		t.screenSetUserVar(string(joinRest(1)))
	}
}

func (s *Sequencer) DcsHook(params [][]int64, intermediates []byte, leader byte, final byte) {
	s.term.screenDcsHook(params, intermediates, leader, final)
}

func (s *Sequencer) DcsPut(b byte) {
	s.term.screenDcsPut(b)
}

func (s *Sequencer) DcsUnhook() {
	s.term.screenDcsUnhook()
}

func (s *Sequencer) ApcDispatch(data []byte) {
	s.term.screenApcReceived(data)
}

func (s *Sequencer) PmDispatch(data []byte) {
	s.term.screenPmReceived(data)
}

func (s *Sequencer) SosDispatch(data []byte) {
	s.term.screenSosReceived(data)
}
