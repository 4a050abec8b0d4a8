package headlessvt

import "sort"

// ClearMode selects the range erased by ED (Erase in Display).
type ClearMode int

const (
	ClearBelow ClearMode = iota // cursor to end of screen
	ClearAbove                  // start of screen to cursor
	ClearAll                    // entire visible screen
	ClearSavedLines              // entire screen plus scrollback (xterm extension, ED 3)
)

// LineClearMode selects the range erased by EL (Erase in Line).
type LineClearMode int

const (
	LineClearRight LineClearMode = iota // cursor to end of line
	LineClearLeft                       // start of line to cursor
	LineClearAll                        // entire line
)

// TabClearMode selects which tab stops DECTCCS clears.
type TabClearMode int

const (
	TabClearCurrentColumn TabClearMode = 0
	TabClearAll           TabClearMode = 3
)

// KeyboardMode is the kitty keyboard protocol progressive-enhancement flag
// bitset (CSI > flags u).
type KeyboardMode uint8

const (
	KeyboardModeDisambiguateEscapeCodes KeyboardMode = 1 << iota
	KeyboardModeReportEventTypes
	KeyboardModeReportAlternateKeys
	KeyboardModeReportAllKeysAsEscapeCodes
	KeyboardModeReportAssociatedText
)

// KeyboardModeBehavior selects how SetKeyboardMode combines mode with the
// currently active flags (CSI = flags ; behavior u).
type KeyboardModeBehavior int

const (
	KeyboardModeSetAll KeyboardModeBehavior = iota + 1
	KeyboardModeOr
	KeyboardModeAndNot
)

// ModifyOtherKeys is xterm's modifyOtherKeys resource value (CSI > 4 ; Pp m).
type ModifyOtherKeys int

const (
	ModifyOtherKeysOff ModifyOtherKeys = iota
	ModifyOtherKeysExceptWellDefined
	ModifyOtherKeysAll
)

// ShellIntegrationMark is an OSC 133 prompt-navigation mark.
type ShellIntegrationMark int

const (
	PromptStart ShellIntegrationMark = iota
	CommandStart
	CommandExecuted
	CommandFinished
)

// FunctionID names one semantic operation the Sequencer can dispatch to,
// the result of a Function Table lookup (spec §4.3).
type FunctionID int

const (
	FnUnknown FunctionID = iota
	FnCursorUp
	FnCursorDown
	FnCursorForward
	FnCursorBackward
	FnCursorNextLine
	FnCursorPrevLine
	FnCursorHorizontalAbsolute
	FnCursorPosition
	FnCursorVerticalAbsolute
	FnEraseInDisplay
	FnEraseInLine
	FnInsertLines
	FnDeleteLines
	FnDeleteChars
	FnInsertChars
	FnEraseChars
	FnScrollUp
	FnScrollDown
	FnSetScrollingRegion
	FnSetLeftRightMargin
	FnSGR
	FnSetMode
	FnResetMode
	FnSaveCursor
	FnRestoreCursor
	FnDeviceStatusReport
	FnIdentifyTerminal
	FnSecondaryDeviceAttributes
	FnHorizontalTabSet
	FnTabClear
	FnCursorForwardTab
	FnCursorBackwardTab
	FnSetCursorStyle
	FnRepeatLastChar
	FnRequestMode // DECRQM
	FnPushKeyboardMode
	FnPopKeyboardMode
	FnSetKeyboardMode
	FnReportKeyboardMode
	FnWindowOp
	FnChangeAttributesRect   // DECCARA
	FnReverseAttributesRect  // DECRARA
	FnFillRect               // DECFRA
	FnEraseRect              // DECERA
	FnSelectiveEraseRect     // DECSERA
	FnSelectCharProtection   // DECSCA
	FnPushColors             // XTPUSHCOLORS
	FnPopColors              // XTPOPCOLORS
	FnReportColors           // XTREPORTCOLORS
	FnCaptureBuffer           // XTCAPTURE-style buffer dump
	FnSetConformanceLevel     // DECSCL
	FnSetStatusDisplay        // DECSSDT
	FnTertiaryDeviceAttributes // DA3
	FnPushSGR                 // XTPUSHSGR
	FnPopSGR                  // XTPOPSGR
	FnSetGraphicsAttr         // XTSMGRAPHICS
)

type csiKey struct {
	leader byte // 0, '?', '>', '=', '<'
	inter  byte // 0 or the single trailing intermediate (' ', '!', '$', ...)
	final  byte
}

type csiEntry struct {
	key csiKey
	id  FunctionID
}

// csiTable is the static Function Table for CSI sequences (spec §4.3: "a
// static array of entries... binary search by category/leader/
// intermediate/final combination"). Entries are sorted once at init time
// and probed with sort.Search, giving O(log n) lookup without a map.
var csiTable []csiEntry

func addCSI(leader, inter, final byte, id FunctionID) {
	csiTable = append(csiTable, csiEntry{csiKey{leader, inter, final}, id})
}

func keyLess(a, b csiKey) bool {
	if a.leader != b.leader {
		return a.leader < b.leader
	}
	if a.inter != b.inter {
		return a.inter < b.inter
	}
	return a.final < b.final
}

func init() {
	addCSI(0, 0, 'A', FnCursorUp)
	addCSI(0, 0, 'B', FnCursorDown)
	addCSI(0, 0, 'C', FnCursorForward)
	addCSI(0, 0, 'D', FnCursorBackward)
	addCSI(0, 0, 'E', FnCursorNextLine)
	addCSI(0, 0, 'F', FnCursorPrevLine)
	addCSI(0, 0, 'G', FnCursorHorizontalAbsolute)
	addCSI(0, 0, '`', FnCursorHorizontalAbsolute)
	addCSI(0, 0, 'H', FnCursorPosition)
	addCSI(0, 0, 'f', FnCursorPosition)
	addCSI(0, 0, 'd', FnCursorVerticalAbsolute)
	addCSI(0, 0, 'J', FnEraseInDisplay)
	addCSI(0, 0, 'K', FnEraseInLine)
	addCSI(0, 0, 'L', FnInsertLines)
	addCSI(0, 0, 'M', FnDeleteLines)
	addCSI(0, 0, 'P', FnDeleteChars)
	addCSI(0, 0, '@', FnInsertChars)
	addCSI(0, 0, 'X', FnEraseChars)
	addCSI(0, 0, 'S', FnScrollUp)
	addCSI(0, 0, 'T', FnScrollDown)
	addCSI(0, 0, 'r', FnSetScrollingRegion)
	addCSI(0, 0, 's', FnSetLeftRightMargin) // ambiguous with SaveCursor; resolved in sequencer via DecModeLeftRightMargin
	addCSI(0, 0, 'm', FnSGR)
	addCSI(0, 0, 'h', FnSetMode)
	addCSI(0, 0, 'l', FnResetMode)
	addCSI('?', 0, 'h', FnSetMode)
	addCSI('?', 0, 'l', FnResetMode)
	addCSI(0, 0, 'u', FnRestoreCursor)
	addCSI(0, 0, 'n', FnDeviceStatusReport)
	addCSI('?', 0, 'n', FnDeviceStatusReport)
	addCSI(0, 0, 'c', FnIdentifyTerminal)
	addCSI('>', 0, 'c', FnSecondaryDeviceAttributes)
	addCSI(0, 0, 'I', FnCursorForwardTab)
	addCSI(0, 0, 'Z', FnCursorBackwardTab)
	addCSI(0, 0, 'g', FnTabClear)
	addCSI(0, ' ', 'q', FnSetCursorStyle)
	addCSI(0, 0, 'b', FnRepeatLastChar)
	addCSI(0, '$', 'p', FnRequestMode)
	addCSI('?', '$', 'p', FnRequestMode)
	addCSI('>', 0, 'u', FnPushKeyboardMode)
	addCSI('<', 0, 'u', FnPopKeyboardMode)
	addCSI('=', 0, 'u', FnSetKeyboardMode)
	addCSI('?', 0, 'u', FnReportKeyboardMode)
	addCSI(0, 0, 't', FnWindowOp)
	addCSI(0, '$', 'r', FnChangeAttributesRect)
	addCSI(0, '$', 't', FnReverseAttributesRect)
	addCSI(0, '$', 'x', FnFillRect)
	addCSI(0, '$', 'z', FnEraseRect)
	addCSI(0, '$', '{', FnSelectiveEraseRect)
	addCSI(0, '"', 'q', FnSelectCharProtection)
	addCSI(0, '#', 'P', FnPushColors)
	addCSI(0, '#', 'Q', FnPopColors)
	addCSI(0, '#', 'R', FnReportColors)
	addCSI('>', 0, 't', FnCaptureBuffer)
	addCSI(0, '"', 'p', FnSetConformanceLevel)
	addCSI(0, '$', '~', FnSetStatusDisplay)
	addCSI(0, 0, 'a', FnCursorForward) // HPR
	addCSI(0, 0, 'e', FnCursorDown)    // VPR
	addCSI('=', 0, 'c', FnTertiaryDeviceAttributes)
	addCSI(0, '#', '{', FnPushSGR)
	addCSI(0, '#', '}', FnPopSGR)
	addCSI('?', 0, 'S', FnSetGraphicsAttr)

	sort.Slice(csiTable, func(i, j int) bool { return keyLess(csiTable[i].key, csiTable[j].key) })
}

// LookupCSI resolves a parsed CSI sequence to its semantic function,
// returning FnUnknown when no entry matches (spec §4.3 "a lookup miss
// means the sequence is a no-op").
func LookupCSI(leader byte, intermediates []byte, final byte) FunctionID {
	var inter byte
	if len(intermediates) > 0 {
		inter = intermediates[len(intermediates)-1]
	}
	key := csiKey{leader, inter, final}
	i := sort.Search(len(csiTable), func(i int) bool { return !keyLess(csiTable[i].key, key) })
	if i < len(csiTable) && csiTable[i].key == key {
		return csiTable[i].id
	}
	return FnUnknown
}
