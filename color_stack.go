package headlessvt

import "fmt"

// screenPushColors implements XTPUSHCOLORS (CSI Pm # P): Pm=0 pushes onto
// the next free slot after the current top; Pm in 1..10 saves explicitly
// into that numbered slot. A push beyond the 10-slot capacity is a no-op
// (spec §4.6: "pushes beyond capacity are no-ops").
func (t *Terminal) screenPushColors(n int) {
	slot := n
	if slot == 0 {
		slot = t.paletteStackTop + 1
	}
	if slot < 1 || slot > len(t.paletteStack) {
		return
	}
	cp := t.config.DefaultPalette
	t.paletteStack[slot-1] = &cp
	if slot > t.paletteStackTop {
		t.paletteStackTop = slot
	}
	t.paletteCurrentSlot = slot
}

// screenPopColors implements XTPOPCOLORS (CSI Pm # Q): Pm=0 restores from
// the most recently pushed-to slot; Pm in 1..10 restores that explicit
// slot. Popping an empty slot/stack is a no-op (spec §4.6).
func (t *Terminal) screenPopColors(n int) {
	slot := n
	if slot == 0 {
		slot = t.paletteCurrentSlot
	}
	if slot < 1 || slot > len(t.paletteStack) || t.paletteStack[slot-1] == nil {
		return
	}
	t.config.DefaultPalette = *t.paletteStack[slot-1]
	t.paletteStack[slot-1] = nil
	if slot == t.paletteStackTop {
		for t.paletteStackTop > 0 && t.paletteStack[t.paletteStackTop-1] == nil {
			t.paletteStackTop--
		}
	}
	if t.paletteCurrentSlot == slot {
		t.paletteCurrentSlot = t.paletteStackTop
	}
}

// screenReportColors implements XTREPORTCOLORS (CSI # R), replying with
// the current slot and the overall stack depth (spec §8 scenario 5:
// "ESC [ # R replies ESC [ 2 ; 2 # Q").
func (t *Terminal) screenReportColors() {
	t.respond(fmt.Sprintf("\x1b[%d;%d#Q", t.paletteCurrentSlot, t.paletteStackTop))
}
