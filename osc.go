package headlessvt

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// --- OSC 0/1/2: window/icon title ---

func (t *Terminal) screenSetTitle(title string) {
	if t.middleware != nil && t.middleware.SetTitle != nil {
		t.middleware.SetTitle(title, t.setTitleInternal)
		return
	}
	t.setTitleInternal(title)
}

func (t *Terminal) setTitleInternal(title string) {
	t.title = title
	t.titleProvider.SetTitle(title)
}

func (t *Terminal) screenPushTitle() {
	if t.middleware != nil && t.middleware.PushTitle != nil {
		t.middleware.PushTitle(t.pushTitleInternal)
		return
	}
	t.pushTitleInternal()
}

func (t *Terminal) pushTitleInternal() {
	t.titleStack = append(t.titleStack, t.title)
	t.titleProvider.PushTitle()
}

func (t *Terminal) screenPopTitle() {
	if t.middleware != nil && t.middleware.PopTitle != nil {
		t.middleware.PopTitle(t.popTitleInternal)
		return
	}
	t.popTitleInternal()
}

func (t *Terminal) popTitleInternal() {
	if len(t.titleStack) == 0 {
		return
	}
	t.title = t.titleStack[len(t.titleStack)-1]
	t.titleStack = t.titleStack[:len(t.titleStack)-1]
	t.titleProvider.PopTitle()
}

// --- OSC 4: palette entry ---

// screenSetColor handles OSC 4's "index;spec[;index;spec...]" payload,
// setting the working copy of the default palette (spec §3 "Config.
// DefaultPalette").
func (t *Terminal) screenSetColor(payload []byte) {
	fields := strings.Split(string(payload), ";")
	for i := 0; i+1 < len(fields); i += 2 {
		idx, err := strconv.Atoi(fields[i])
		if err != nil || idx < 0 || idx > 255 {
			continue
		}
		spec := fields[i+1]
		if spec == "?" {
			rgb := t.config.DefaultPalette[idx]
			t.respond("\x1b]4;" + fields[i] + ";rgb:" +
				hex2(rgb.R) + "/" + hex2(rgb.G) + "/" + hex2(rgb.B) + "\x1b\\")
			continue
		}
		rgb, ok := parseXtermColorSpec(spec)
		if !ok {
			continue
		}
		t.setColorInternal(idx, rgb)
	}
}

func (t *Terminal) setColorInternal(idx int, c RGB) {
	apply := func(i int, c RGB) { t.config.DefaultPalette[i] = c }
	if t.middleware != nil && t.middleware.SetColor != nil {
		t.middleware.SetColor(idx, c, apply)
		return
	}
	apply(idx, c)
}

// screenResetColor handles OSC 104: empty payload resets the whole
// palette, otherwise a ';'-separated list of indices resets just those.
func (t *Terminal) screenResetColor(payload string) {
	def := defaultRGBPalette()
	if payload == "" {
		for i := 0; i < 256; i++ {
			t.resetColorInternal(i, def[i])
		}
		return
	}
	for _, f := range strings.Split(payload, ";") {
		idx, err := strconv.Atoi(f)
		if err != nil || idx < 0 || idx > 255 {
			continue
		}
		t.resetColorInternal(idx, def[idx])
	}
}

func (t *Terminal) resetColorInternal(idx int, c RGB) {
	apply := func(i int) { t.config.DefaultPalette[i] = c }
	if t.middleware != nil && t.middleware.ResetColor != nil {
		t.middleware.ResetColor(idx, apply)
		return
	}
	apply(idx)
}

// --- OSC 10/11/12: dynamic fg/bg/cursor color ---

func (t *Terminal) screenSetDynamicColor(code int, spec string) {
	if spec == "?" {
		var c RGB
		switch code {
		case 10:
			c = DefaultForeground
		case 11:
			c = DefaultBackground
		default:
			c = DefaultForeground
		}
		t.respond("\x1b]" + strconv.Itoa(code) + ";rgb:" +
			hex2(c.R) + "/" + hex2(c.G) + "/" + hex2(c.B) + "\x1b\\")
		return
	}
	rgb, ok := parseXtermColorSpec(spec)
	if !ok {
		return
	}
	apply := func(code int, spec string) {
		switch code {
		case 10:
			DefaultForeground = rgb
		case 11:
			DefaultBackground = rgb
		}
	}
	if t.middleware != nil && t.middleware.SetDynamicColor != nil {
		t.middleware.SetDynamicColor(code, spec, apply)
		return
	}
	apply(code, spec)
}

// parseXtermColorSpec parses xterm's "rgb:RRRR/GGGG/BBBB" (or shorter
// per-channel widths) color spec, grounded in xterm's ctlseqs color-spec
// grammar.
func parseXtermColorSpec(spec string) (RGB, bool) {
	if !strings.HasPrefix(spec, "rgb:") {
		return RGB{}, false
	}
	parts := strings.Split(spec[4:], "/")
	if len(parts) != 3 {
		return RGB{}, false
	}
	chan8 := func(s string) (uint8, bool) {
		v, err := strconv.ParseUint(s, 16, 32)
		if err != nil || len(s) == 0 {
			return 0, false
		}
		max := (uint64(1) << (4 * len(s))) - 1
		return uint8(uint64(v) * 255 / max), true
	}
	r, ok1 := chan8(parts[0])
	g, ok2 := chan8(parts[1])
	b, ok3 := chan8(parts[2])
	if !ok1 || !ok2 || !ok3 {
		return RGB{}, false
	}
	return RGB{R: r, G: g, B: b}, true
}

func hex2(b uint8) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0xf]})
}

// --- OSC 7: working directory ---

func (t *Terminal) screenSetWorkingDirectory(uri string) {
	set := func(uri string) { t.workingDirectory = uri }
	if t.middleware != nil && t.middleware.SetWorkingDirectory != nil {
		t.middleware.SetWorkingDirectory(uri, set)
		return
	}
	set(uri)
}

// --- OSC 8: hyperlink ---

// screenSetHyperlink handles OSC 8's "params;uri" payload. An empty uri
// clears the cursor's current hyperlink (spec §3 Hyperlink lifecycle).
func (t *Terminal) screenSetHyperlink(payload string) {
	idx := strings.IndexByte(payload, ';')
	var params, uri string
	if idx < 0 {
		uri = payload
	} else {
		params, uri = payload[:idx], payload[idx+1:]
	}
	idString := ""
	for _, kv := range strings.Split(params, ":") {
		if strings.HasPrefix(kv, "id=") {
			idString = kv[3:]
		}
	}
	apply := func(idString, uri string) {
		if uri == "" {
			t.cursor.Hyperlink = 0
			return
		}
		t.cursor.Hyperlink = t.hyperlinks.Intern(idString, uri)
	}
	if t.middleware != nil && t.middleware.SetHyperlink != nil {
		t.middleware.SetHyperlink(idString, uri, apply)
		return
	}
	apply(idString, uri)
}

// --- OSC 9 / 99: desktop notification ---

func (t *Terminal) screenDesktopNotificationSimple(message string) {
	t.desktopNotificationLocked(&NotificationPayload{PayloadType: "body", Data: []byte(message), Done: true})
}

// screenDesktopNotification parses OSC 99's "key=val:key=val;...;text"
// structured payload (spec supplemented feature, grounded in kitty's
// desktop-notifications protocol).
func (t *Terminal) screenDesktopNotification(payload []byte) {
	s := string(payload)
	metaPart, text, found := s, "", false
	if idx := strings.IndexByte(s, ';'); idx >= 0 {
		metaPart, text, found = s[:idx], s[idx+1:], true
	}
	p := &NotificationPayload{PayloadType: "body"}
	for _, kv := range strings.Split(metaPart, ":") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch k {
		case "i":
			p.ID = v
		case "d":
			p.Done = v == "1" || v == ""
		case "p":
			p.PayloadType = v
		case "e":
			p.Encoding = v
		case "a":
			p.Actions = append(p.Actions, v)
		case "c":
			p.TrackClose = v == "1"
		case "w":
			if n, err := strconv.Atoi(v); err == nil {
				p.Timeout = n
			}
		case "f":
			p.AppName = v
		case "t":
			p.Type = v
		case "n":
			p.IconName = v
		case "g":
			p.IconCacheID = v
		case "o":
			p.Occasion = v
		case "u":
			if n, err := strconv.Atoi(v); err == nil {
				p.Urgency = n
			}
		}
	}
	if found {
		p.Data = []byte(text)
	}
	t.desktopNotificationLocked(p)
}

// DesktopNotification routes a notification through middleware to the
// configured NotificationProvider, writing back any response it returns
// (e.g. OSC 99 "?" queries).
func (t *Terminal) DesktopNotification(payload *NotificationPayload) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.desktopNotificationLocked(payload)
}

func (t *Terminal) desktopNotificationLocked(payload *NotificationPayload) {
	apply := func(p *NotificationPayload) {
		if t.notificationProvider == nil {
			return
		}
		if resp := t.notificationProvider.Notify(p); resp != "" {
			t.writeResponse([]byte(resp))
		}
	}
	if t.middleware != nil && t.middleware.DesktopNotification != nil {
		t.middleware.DesktopNotification(payload, apply)
		return
	}
	apply(payload)
}

// screenResetDynamicColor handles OSC 110/111/112, restoring the stock
// default fg/bg.
func (t *Terminal) screenResetDynamicColor(code int) {
	switch code {
	case 110:
		DefaultForeground = RGB{229, 229, 229}
	case 111:
		DefaultBackground = RGB{0, 0, 0}
	}
}

// screenRxvtNotification handles OSC 777's "notify;title;body" form.
func (t *Terminal) screenRxvtNotification(payload string) {
	parts := strings.SplitN(payload, ";", 3)
	if len(parts) < 2 || parts[0] != "notify" {
		return
	}
	p := &NotificationPayload{PayloadType: "body", Type: parts[1], Done: true}
	if len(parts) == 3 {
		p.Data = []byte(parts[2])
	}
	t.desktopNotificationLocked(p)
}

// --- OSC 52: clipboard ---

func (t *Terminal) screenClipboard(payload string) {
	idx := strings.IndexByte(payload, ';')
	if idx < 0 {
		return
	}
	selectors, data := payload[:idx], payload[idx+1:]
	if selectors == "" {
		selectors = "c"
	}
	for i := 0; i < len(selectors); i++ {
		sel := selectors[i]
		if data == "?" {
			load := func(sel byte) {
				content := ""
				if t.clipboardProvider != nil {
					content = t.clipboardProvider.Read(sel)
				}
				enc := base64.StdEncoding.EncodeToString([]byte(content))
				t.respond("\x1b]52;" + string(sel) + ";" + enc + "\x1b\\")
			}
			if t.middleware != nil && t.middleware.ClipboardLoad != nil {
				t.middleware.ClipboardLoad(sel, load)
			} else {
				load(sel)
			}
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			continue
		}
		store := func(sel byte, d []byte) {
			if t.clipboardProvider != nil {
				t.clipboardProvider.Write(sel, d)
			}
		}
		if t.middleware != nil && t.middleware.ClipboardStore != nil {
			t.middleware.ClipboardStore(sel, decoded, store)
		} else {
			store(sel, decoded)
		}
	}
}

// --- OSC 133: shell integration marks ---

func (t *Terminal) screenShellIntegrationMark(payload string) {
	var mark ShellIntegrationMark
	switch {
	case strings.HasPrefix(payload, "A"):
		mark = PromptStart
	case strings.HasPrefix(payload, "B"):
		mark = CommandStart
	case strings.HasPrefix(payload, "C"):
		mark = CommandExecuted
	case strings.HasPrefix(payload, "D"):
		mark = CommandFinished
	default:
		return
	}
	apply := func(mark ShellIntegrationMark) {
		switch mark {
		case PromptStart:
			t.lastPromptAbs = append(t.lastPromptAbs, t.ViewportRowToAbsoluteLocked(t.cursor.Row))
		case CommandStart:
			t.lastCommandRow = t.cursor.Row
		}
		if t.semanticPromptFunc != nil {
			t.semanticPromptFunc(mark)
		}
	}
	if t.middleware != nil && t.middleware.SemanticPromptMark != nil {
		t.middleware.SemanticPromptMark(mark, apply)
		return
	}
	apply(mark)
}

// ViewportRowToAbsoluteLocked is ViewportRowToAbsolute for callers already
// holding t.mu.
func (t *Terminal) ViewportRowToAbsoluteLocked(row int) int {
	return t.scrollback.Len() + row
}

// NextPromptRow/PrevPromptRow walk the recorded OSC-133 prompt marks
// relative to a viewport row (spec supplemented shell integration feature).
func (t *Terminal) NextPromptRow(fromRow int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	fromAbs := t.ViewportRowToAbsoluteLocked(fromRow)
	for _, abs := range t.lastPromptAbs {
		if abs > fromAbs {
			return t.absoluteToViewportLocked(abs)
		}
	}
	return -1
}

func (t *Terminal) PrevPromptRow(fromRow int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	fromAbs := t.ViewportRowToAbsoluteLocked(fromRow)
	best := -1
	for _, abs := range t.lastPromptAbs {
		if abs < fromAbs {
			best = abs
		}
	}
	if best < 0 {
		return -1
	}
	return t.absoluteToViewportLocked(best)
}

func (t *Terminal) absoluteToViewportLocked(abs int) int {
	sb := t.scrollback.Len()
	row := abs - sb
	if row < 0 || row >= t.rows {
		return -1
	}
	return row
}

// GetLastCommandOutput returns the text between the last recorded command
// start and the cursor's current row (spec supplemented shell integration
// feature), a best-effort approximation without full output-range tracking.
func (t *Terminal) GetLastCommandOutput() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastCommandRow < 0 {
		return ""
	}
	var b strings.Builder
	for row := t.lastCommandRow; row <= t.cursor.Row; row++ {
		l := t.active.Line(row)
		if l == nil {
			continue
		}
		b.WriteString(l.Content())
		if row != t.cursor.Row {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// --- OSC 1337: iTerm2 user variables ---

func (t *Terminal) screenSetUserVar(payload string) {
	const prefix = "SetUserVar="
	if !strings.HasPrefix(payload, prefix) {
		return
	}
	name, b64, ok := strings.Cut(payload[len(prefix):], "=")
	if !ok {
		return
	}
	value, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return
	}
	apply := func(name, value string) {}
	if t.middleware != nil && t.middleware.SetUserVar != nil {
		t.middleware.SetUserVar(name, string(value), apply)
		return
	}
	apply(name, string(value))
}

// --- DCS passthrough: sixel graphics and DECRQSS (kitty graphics ride in
// APC and are handled in kitty.go) ---

func (t *Terminal) screenDcsHook(params [][]int64, intermediates []byte, leader byte, final byte) {
	t.dcsParams = params
	t.dcsInter = intermediates
	t.dcsLeader = leader
	t.dcsBuf = t.dcsBuf[:0]
	switch {
	case final == 'q' && len(intermediates) == 1 && intermediates[0] == '$':
		t.dcsKind = dcsRequestStatus
	case final == 'q' && len(intermediates) == 0:
		t.dcsKind = dcsSixel
		t.sixelBuilder = newSixelImageBuilder(params, t.config.MaxImageSize, t.config.MaxImageColorRegisters)
	default:
		t.dcsKind = dcsNone
	}
}

func (t *Terminal) screenDcsPut(b byte) {
	// Sixel payloads stream straight into the builder; everything else
	// (DECRQSS and unrecognized strings) is small and buffered whole.
	if t.dcsKind == dcsSixel {
		t.sixelBuilder.put(b)
		return
	}
	t.dcsBuf = append(t.dcsBuf, b)
}

func (t *Terminal) screenDcsUnhook() {
	switch t.dcsKind {
	case dcsSixel:
		t.finishSixel()
	case dcsRequestStatus:
		t.finishDecrqss()
	}
	t.dcsKind = dcsNone
	t.dcsBuf = nil
	t.sixelBuilder = nil
}

func (t *Terminal) finishSixel() {
	pixels, w, h, ok := t.sixelBuilder.finalize()
	if !ok {
		t.logger.Warnf("sixel image rejected or empty")
		return
	}
	id := t.images.Store(uint32(w), uint32(h), pixels)
	t.images.Place(&ImagePlacement{
		ImageID: id,
		Row:     t.cursor.Row,
		Col:     t.cursor.Col,
		Rows:    (h + 15) / 16,
		Cols:    (w + 7) / 8,
	})
}

// --- APC / PM / SOS ---

func (t *Terminal) screenApcReceived(data []byte) {
	apply := func(data []byte) {
		// Kitty graphics ride in APC with a 'G' introducer.
		if len(data) > 0 && data[0] == 'G' {
			t.handleKittyGraphics(data)
		}
		t.apcProvider.Receive(data)
	}
	if t.middleware != nil && t.middleware.ApplicationCommandReceived != nil {
		t.middleware.ApplicationCommandReceived(data, apply)
		return
	}
	apply(data)
}

func (t *Terminal) screenPmReceived(data []byte) {
	apply := func(data []byte) { t.pmProvider.Receive(data) }
	if t.middleware != nil && t.middleware.PrivacyMessageReceived != nil {
		t.middleware.PrivacyMessageReceived(data, apply)
		return
	}
	apply(data)
}

func (t *Terminal) screenSosReceived(data []byte) {
	apply := func(data []byte) { t.sosProvider.Receive(data) }
	if t.middleware != nil && t.middleware.StartOfStringReceived != nil {
		t.middleware.StartOfStringReceived(data, apply)
		return
	}
	apply(data)
}

// writeResponse writes to the configured ResponseProvider, if any. It takes
// no lock of its own; its caller, desktopNotificationLocked, holds t.mu.
func (t *Terminal) writeResponse(b []byte) {
	if t.responseProvider != nil {
		t.responseProvider.Write(b)
	}
}
