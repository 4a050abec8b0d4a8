package headlessvt

import (
	"strings"
	"sync"
)

// DEFAULT_ROWS/DEFAULT_COLS are the bare New()'s page size, grounded in the
// teacher's terminal.go constructor defaults.
const (
	DEFAULT_ROWS = 24
	DEFAULT_COLS = 80
)

// Position addresses a single cell in viewport coordinates (spec §4.5/§4.6
// Selection/Search).
type Position struct {
	Row, Col int
}

// Terminal is the whole VT core: parser, sequencer, grid pair, cursor,
// modes and every provider/middleware hook, all under one mutex (spec §4 —
// "the Screen" lives directly on Terminal, grounded on the teacher's single
// exported Terminal type rather than splitting storage from behavior).
type Terminal struct {
	mu sync.Mutex

	rows, cols int
	config     Config

	primary *Grid
	alt     *Grid
	active  *Grid

	cursor         *Cursor
	savedCursor    SavedCursor
	altSavedCursor SavedCursor
	hasSavedCursor bool

	modes   *ModeSet
	margins Margins

	tabStops []bool

	title      string
	titleStack []string

	hyperlinks *HyperlinkStorage
	images     *ImagePool

	keyboardModes []KeyboardMode

	workingDirectory string

	middleware *Middleware

	bellProvider         BellProvider
	titleProvider        TitleProvider
	responseProvider     ResponseProvider
	sizeProvider         SizeProvider
	clipboardProvider    ClipboardProvider
	recordingProvider    RecordingProvider
	notificationProvider NotificationProvider
	apcProvider          APCProvider
	pmProvider           PMProvider
	sosProvider          SOSProvider
	semanticPromptFunc   func(ShellIntegrationMark)

	scrollback ScrollbackProvider

	logger Logger

	parser    *Parser
	sequencer *Sequencer

	lastChar rune

	autoResize bool

	// dcs active-hook state (sixel / kitty image / DECRQSS passthrough)
	dcsKind      dcsKind
	dcsParams    [][]int64
	dcsInter     []byte
	dcsLeader    byte
	dcsBuf       []byte
	sixelBuilder *sixelImageBuilder

	// kitty chunked-transfer accumulation (m=1 control key)
	kittyPending *kittyGraphicsCmd

	selection       Selection
	hasSelection    bool
	lastCommandRow  int
	lastPromptAbs   []int

	// XTPUSHCOLORS/XTPOPCOLORS palette stack (spec §4.6, capacity 10).
	paletteStack      [10]*[256]RGB
	paletteStackTop   int
	paletteCurrentSlot int

	// ConformanceLevel gates which function-table entries are honored
	// (spec SUPPLEMENTED FEATURES: "Conformance level (DECSCL)").
	conformanceLevel ConformanceLevel

	// input translates keyboard/mouse events into VT bytes (spec §4.7);
	// Terminal keeps its mode bits (cursor-keys, mouse protocol/transport,
	// bracketed paste, focus events) in sync as the matching DEC private
	// modes are set/reset.
	input *InputGenerator

	// Render-buffer double buffering plus the blink clock (spec §4.6
	// tick/ensureFreshRenderBuffer and §5's front/back swap).
	renderFront *RenderBuffer
	renderBack  *RenderBuffer
	renderDirty bool
	currentTime int64 // monotonic nanoseconds fed through Tick
	lastKeyTime int64
	blinkPhase  bool
	frameID     uint64

	statusDisplay StatusDisplayType

	// XTPUSHSGR/XTPOPSGR stack.
	sgrStack []GraphicsRendition

	searchPattern string
	searchFocused Position
	hasSearch     bool
}

type dcsKind int

const (
	dcsNone dcsKind = iota
	dcsSixel
	dcsRequestStatus
)

// Selection is a rectangular-free, linear start/end text selection in
// viewport coordinates (spec §4.6 "Selection").
type Selection struct {
	Start, End Position
}

// Option configures a Terminal at construction time (functional-options,
// grounded in the teacher's New(opts ...Option) pattern).
type Option func(*Terminal)

func WithSize(rows, cols int) Option {
	return func(t *Terminal) {
		if rows > 0 && cols > 0 {
			t.rows, t.cols = rows, cols
		}
	}
}

func WithConfig(cfg Config) Option {
	return func(t *Terminal) { t.config = cfg }
}

func WithPageSize(lines, cols int) Option { return WithSize(lines, cols) }

func WithScrollback(p ScrollbackProvider) Option {
	return func(t *Terminal) { t.scrollback = p }
}

func WithResponse(w ResponseProvider) Option {
	return func(t *Terminal) { t.responseProvider = w }
}

// WithPTYWriter is an alias for WithResponse, matching the teacher's naming
// for the common case of wiring responses straight back to a PTY.
func WithPTYWriter(w ResponseProvider) Option { return WithResponse(w) }

func WithBell(p BellProvider) Option {
	return func(t *Terminal) { t.bellProvider = p }
}

func WithTitle(p TitleProvider) Option {
	return func(t *Terminal) { t.titleProvider = p }
}

func WithClipboard(p ClipboardProvider) Option {
	return func(t *Terminal) { t.clipboardProvider = p }
}

func WithRecording(p RecordingProvider) Option {
	return func(t *Terminal) { t.recordingProvider = p }
}

func WithNotification(p NotificationProvider) Option {
	return func(t *Terminal) { t.notificationProvider = p }
}

func WithSizeProvider(p SizeProvider) Option {
	return func(t *Terminal) { t.sizeProvider = p }
}

func WithMiddleware(m *Middleware) Option {
	return func(t *Terminal) { t.middleware = m }
}

func WithAutoResize() Option {
	return func(t *Terminal) { t.autoResize = true }
}

func WithSemanticPromptHandler(f func(ShellIntegrationMark)) Option {
	return func(t *Terminal) { t.semanticPromptFunc = f }
}

func WithLogger(l Logger) Option {
	return func(t *Terminal) { t.logger = l }
}

// New builds a Terminal with the given options applied over DefaultConfig
// (spec §6 "Configuration"; grounded on the teacher's New()).
func New(opts ...Option) *Terminal {
	t := &Terminal{
		rows:   DEFAULT_ROWS,
		cols:   DEFAULT_COLS,
		config: DefaultConfig(),

		bellProvider:         NoopBell{},
		titleProvider:        NoopTitle{},
		responseProvider:     NoopResponse{},
		clipboardProvider:    NoopClipboard{},
		recordingProvider:    NoopRecording{},
		notificationProvider: NoopNotification{},
		apcProvider:          NoopAPC{},
		pmProvider:           NoopPM{},
		sosProvider:          NoopSOS{},
		scrollback:           NoopScrollback{},
		logger:               NoopLogger{},
		lastCommandRow:       -1,
		conformanceLevel:     ConformanceVT500,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.rows <= 0 {
		t.rows = DEFAULT_ROWS
	}
	if t.cols <= 0 {
		t.cols = DEFAULT_COLS
	}
	t.config.PageSize = PageSize{Lines: t.rows, Columns: t.cols}

	t.cursor = NewCursor()
	t.modes = NewModeSet()
	t.modes.SetDec(DecModeAutoWrap, true)
	t.modes.SetDec(DecModeCursorVisible, true)
	t.margins = Margins{Top: 0, Bottom: t.rows - 1, Left: 0, Right: t.cols - 1}
	t.hyperlinks = NewHyperlinkStorage()
	t.images = newImagePool()
	t.images.SetMaxMemory(int64(t.config.MaxImageSize.Width) * int64(t.config.MaxImageSize.Height) * 4)

	hist := t.config.MaxHistoryLines
	t.primary = NewGrid(t.rows, t.cols, hist, true, t.config.ReflowOnResize)
	t.primary.store = t.scrollback
	t.alt = NewGrid(t.rows, t.cols, 0, false, false)
	t.active = t.primary

	t.initTabStops()

	t.sequencer = newSequencer(t)
	t.parser = NewParser(t.sequencer)
	t.input = NewInputGenerator(t.config)

	return t
}

// Input returns the InputGenerator the terminal keeps in sync with its
// DEC private modes (spec §4.6 "Owns: ... InputGenerator").
func (t *Terminal) Input() *InputGenerator {
	return t.input
}

// --- basic geometry / write path ---

func (t *Terminal) Rows() int { return t.rows }
func (t *Terminal) Cols() int { return t.cols }

// Write feeds raw PTY bytes through the VT parser (spec §4.1/§4.2).
func (t *Terminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recordingProvider.Record(p)
	t.parser.Feed(p)
	t.renderDirty = true
	return len(p), nil
}

func (t *Terminal) WriteString(s string) (int, error) {
	return t.Write([]byte(s))
}

func (t *Terminal) AutoResize() bool { return t.autoResize }

// --- cell / line access ---

func (t *Terminal) Cell(row, col int) *Cell {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active.Cell(row, col)
}

// LineContent returns the trimmed text content of a viewport row.
func (t *Terminal) LineContent(row int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	l := t.active.Line(row)
	if l == nil {
		return ""
	}
	return l.Content()
}

func (t *Terminal) IsWrapped(row int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	l := t.active.Line(row)
	if l == nil {
		return false
	}
	return l.IsWrapped()
}

func (t *Terminal) IsAlternateScreen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active == t.alt
}

func (t *Terminal) CursorPos() (row, col int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor.Row, t.cursor.Col
}

// String renders the whole visible page as newline-joined trimmed lines
// (spec §4.9's simplest possible consumer; grounded on the teacher's
// Terminal.String()).
func (t *Terminal) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	lines := make([]string, t.rows)
	for i := 0; i < t.rows; i++ {
		if l := t.active.Line(i); l != nil {
			lines[i] = l.Content()
		}
	}
	return strings.Join(lines, "\n")
}

func (t *Terminal) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

// --- dirty tracking ---

func (t *Terminal) HasDirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for row := 0; row < t.rows; row++ {
		l := t.active.Line(row)
		if l == nil {
			continue
		}
		if l.IsTrivial() {
			continue
		}
		for i := range l.Cells {
			if l.Cells[i].IsDirty() {
				return true
			}
		}
	}
	return false
}

func (t *Terminal) DirtyCells() []Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Position
	for row := 0; row < t.rows; row++ {
		l := t.active.Line(row)
		if l == nil || l.IsTrivial() {
			continue
		}
		for col := range l.Cells {
			if l.Cells[col].IsDirty() {
				out = append(out, Position{Row: row, Col: col})
			}
		}
	}
	return out
}

func (t *Terminal) ClearDirty() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for row := 0; row < t.rows; row++ {
		l := t.active.Line(row)
		if l == nil || l.IsTrivial() {
			continue
		}
		for i := range l.Cells {
			l.Cells[i].ClearDirty()
		}
	}
}

// --- scrollback ---

func (t *Terminal) ScrollbackLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scrollback.Len()
}

func (t *Terminal) ScrollbackLine(i int) []Cell {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scrollback.Line(i)
}

// --- row coordinate conversion (spec supplemented shell-integration nav) ---

// ViewportRowToAbsolute maps a 0-based viewport row to an absolute row
// counting from the oldest scrollback line.
func (t *Terminal) ViewportRowToAbsolute(row int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scrollback.Len() + row
}

// AbsoluteRowToViewport maps an absolute row back to a viewport row, or -1
// if it's currently scrolled out of view (in scrollback or beyond the page).
func (t *Terminal) AbsoluteRowToViewport(abs int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	sb := t.scrollback.Len()
	if abs < 0 {
		return -1
	}
	row := abs - sb
	if row < 0 || row >= t.rows {
		return -1
	}
	return row
}

// --- selection ---

func (t *Terminal) SetSelection(start, end Position) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selection = Selection{Start: start, End: end}
	t.hasSelection = true
	t.renderDirty = true
}

func (t *Terminal) HasSelection() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hasSelection
}

func (t *Terminal) ClearSelection() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hasSelection = false
	t.selection = Selection{}
	t.renderDirty = true
}

// GetSelectedText extracts the linear (row-major, end-inclusive on the
// final row) text spanned by the current selection.
func (t *Terminal) GetSelectedText() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasSelection {
		return ""
	}
	start, end := t.selection.Start, t.selection.End
	if start.Row > end.Row || (start.Row == end.Row && start.Col > end.Col) {
		start, end = end, start
	}
	var b strings.Builder
	for row := start.Row; row <= end.Row; row++ {
		l := t.active.Line(row)
		if l == nil {
			continue
		}
		runes := []rune(l.Content())
		from, to := 0, len(runes)
		if row == start.Row {
			from = start.Col
		}
		if row == end.Row {
			to = end.Col + 1
		}
		if from < 0 {
			from = 0
		}
		if to > len(runes) {
			to = len(runes)
		}
		if from < to {
			b.WriteString(string(runes[from:to]))
		}
		if row != end.Row {
			b.WriteRune('\n')
		}
	}
	return b.String()
}

// --- search ---

// Search scans the visible page for pattern, returning one match per line
// at its first occurrence (spec §4.9-adjacent convenience, grounded on the
// teacher's line-oriented Search).
func (t *Terminal) Search(pattern string) []Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Position
	for row := 0; row < t.rows; row++ {
		l := t.active.Line(row)
		if l == nil {
			continue
		}
		if col := l.search(pattern, 0, true); col >= 0 {
			out = append(out, Position{Row: row, Col: col})
		}
	}
	return out
}

// SearchScrollback scans stored scrollback lines the same way.
func (t *Terminal) SearchScrollback(pattern string) []Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Position
	n := t.scrollback.Len()
	for i := 0; i < n; i++ {
		cells := t.scrollback.Line(i)
		if cells == nil {
			continue
		}
		l := Line{Cells: cells, width: len(cells)}
		if col := l.search(pattern, 0, true); col >= 0 {
			out = append(out, Position{Row: i, Col: col})
		}
	}
	return out
}

// --- resize ---

// Resize changes the page geometry in place, ignoring non-positive
// dimensions (spec §4.4 resize).
func (t *Terminal) Resize(rows, cols int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rows <= 0 || cols <= 0 {
		return
	}
	t.resizeLocked(rows, cols)
}

func (t *Terminal) resizeLocked(rows, cols int) {
	onAlt := t.active == t.alt
	allowReflow := !onAlt
	newRow, newCol := t.active.Resize(rows, cols, t.cursor.Row, t.cursor.Col, allowReflow)
	if !onAlt {
		t.alt.Resize(rows, cols, 0, 0, false)
	} else {
		t.primary.Resize(rows, cols, 0, 0, t.config.ReflowOnResize)
	}
	debugAssert(t.logger, newRow >= 0 && newRow < rows && newCol >= 0 && newCol <= cols,
		"resize returned cursor (%d,%d) outside %dx%d page", newRow, newCol, rows, cols)
	t.rows, t.cols = rows, cols
	t.cursor.Row, t.cursor.Col = newRow, newCol
	t.clampCursor()
	t.margins = Margins{Top: 0, Bottom: rows - 1, Left: 0, Right: cols - 1}
	t.initTabStops()
	t.renderDirty = true
}

func (t *Terminal) clampCursor() {
	if t.cursor.Row < 0 {
		t.cursor.Row = 0
	}
	if t.cursor.Row >= t.rows {
		t.cursor.Row = t.rows - 1
	}
	if t.cursor.Col < 0 {
		t.cursor.Col = 0
	}
	if t.cursor.Col > t.cols {
		t.cursor.Col = t.cols
	}
}

// growCols extends the active grid's column count in place, used by the
// AutoResize write path when a printed line would otherwise wrap (spec §6
// "AutoResize").
func (t *Terminal) growCols(newCols int) {
	if newCols <= t.cols {
		return
	}
	t.resizeLocked(t.rows, newCols)
}

// growRows extends the active grid's row count, used by the AutoResize
// write path in place of scrolling (spec §6 "AutoResize").
func (t *Terminal) growRows(newRows int) {
	if newRows <= t.rows {
		return
	}
	t.resizeLocked(newRows, t.cols)
}

// --- charset test hook ---

// SetActiveCharset invokes GL to slot n (0..3), ignoring other values,
// matching the public surface terminal_test.go drives directly.
func (t *Terminal) SetActiveCharset(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setActiveCharsetInternal(n)
}

// --- providers accessors ---

func (t *Terminal) NotificationProvider() NotificationProvider {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.notificationProvider
}

func (t *Terminal) SetNotificationProvider(p NotificationProvider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notificationProvider = p
}

func (t *Terminal) ClipboardProvider() ClipboardProvider {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clipboardProvider
}

func (t *Terminal) SetClipboardProvider(p ClipboardProvider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clipboardProvider = p
}

func (t *Terminal) SetResponseProvider(w ResponseProvider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responseProvider = w
}

func (t *Terminal) SetRecordingProvider(p RecordingProvider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recordingProvider = p
}

func (t *Terminal) RecordedData() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recordingProvider.Data()
}

func (t *Terminal) ClearRecording() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recordingProvider.Clear()
}

// DeviceStatus triggers a DSR report as if the matching CSI sequence had
// been received, exposed directly for callers that want to probe without
// constructing bytes (terminal_test.go drives this concurrently).
func (t *Terminal) DeviceStatus(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deviceStatusInternal(n)
}

// --- working directory (OSC 7, spec supplemented shell integration) ---

func (t *Terminal) WorkingDirectory() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.workingDirectory
}

// WorkingDirectoryPath strips the file://host prefix off WorkingDirectory,
// returning just the filesystem path.
func (t *Terminal) WorkingDirectoryPath() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return pathFromFileURI(t.workingDirectory)
}

func pathFromFileURI(uri string) string {
	const scheme = "file://"
	if !strings.HasPrefix(uri, scheme) {
		return ""
	}
	rest := uri[len(scheme):]
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		return rest[idx:]
	}
	return ""
}

// --- images ---

func (t *Terminal) ImagePlacements() []*ImagePlacement {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.images.Placements()
}

func (t *Terminal) Image(id uint32) *ImageData {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.images.Image(id)
}

func (t *Terminal) SetImageMaxMemory(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.images.SetMaxMemory(n)
}

// DiscardImage queues an image for removal. Callable from any goroutine;
// the drop is applied on the next render-buffer rebuild (spec §5).
func (t *Terminal) DiscardImage(id uint32) {
	t.images.Discard(id)
}

// SixelEnabled and KittyEnabled report graphics-protocol availability;
// both decoders are always compiled in, so these exist for embedders that
// gate feature advertisement.
func (t *Terminal) SixelEnabled() bool { return true }
func (t *Terminal) KittyEnabled() bool { return true }
