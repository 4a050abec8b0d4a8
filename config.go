package headlessvt

import "time"

// MouseWheelMode selects how wheel events are encoded; a cursor-keys mode
// applies whether or not a mouse protocol is active (spec §4.7 "Wheel").
type MouseWheelMode int

const (
	MouseWheelNormal MouseWheelMode = iota
	MouseWheelNormalCursorKeys
	MouseWheelApplicationCursorKeys
)

// CursorDisplay says whether the cursor blinks at all.
type CursorDisplay int

const (
	CursorDisplaySteady CursorDisplay = iota
	CursorDisplayBlink
)

// PageSize is the grid's visible extent, in cells.
type PageSize struct {
	Lines   int
	Columns int
}

// Config is the abstracted configuration surface from spec §6. Loading one
// of these from a file or flags is the embedding application's job — that
// is explicitly out of scope here — but the struct and its defaults are
// not: every field below corresponds 1:1 to a named field in §6.
type Config struct {
	PageSize                       PageSize
	MaxHistoryLines                int
	ReflowOnResize                 bool
	MaxImageSize                   ImageSize
	MaxImageColorRegisters         int
	SixelCursorConformance         bool
	DefaultPalette                 [256]RGB
	CursorBlinkingInterval         time.Duration
	CursorDisplay                  CursorDisplay
	CursorShape                    CursorStyle
	MouseWheelMode                 MouseWheelMode
	PassiveMouseTracking           bool
	BracketedPasteEnabledByDefault bool
	FocusEventsEnabledByDefault    bool
}

// ImageSize bounds an image's pixel dimensions.
type ImageSize struct {
	Width, Height uint32
}

// DefaultConfig returns the configuration a bare New() uses.
func DefaultConfig() Config {
	return Config{
		PageSize:               PageSize{Lines: DEFAULT_ROWS, Columns: DEFAULT_COLS},
		MaxHistoryLines:        10000,
		ReflowOnResize:         true,
		MaxImageSize:           ImageSize{Width: 4096, Height: 4096},
		MaxImageColorRegisters: 1024,
		SixelCursorConformance: false,
		DefaultPalette:         defaultRGBPalette(),
		CursorBlinkingInterval: 530 * time.Millisecond,
		CursorDisplay:          CursorDisplayBlink,
		CursorShape:            CursorStyleBlinkingBlock,
		MouseWheelMode:         MouseWheelNormal,
		PassiveMouseTracking:   false,
	}
}
