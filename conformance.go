package headlessvt

// ConformanceLevel gates which function-table entries are honored, as a
// Terminal accepts DECSCL to declare a VT100/VT200/VT300+ conformance
// tier (spec SUPPLEMENTED FEATURES: present in Contour's Functions.h/
// Screen.h, only named in passing in the distilled spec's function-table
// coverage list).
type ConformanceLevel int

const (
	ConformanceVT100 ConformanceLevel = iota
	ConformanceVT200
	ConformanceVT300
	ConformanceVT400
	ConformanceVT500
)

// ConformanceLevel reports the terminal's currently declared DECSCL tier.
func (t *Terminal) ConformanceLevel() ConformanceLevel {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conformanceLevel
}

// functionMinConformance names the tier a handful of higher-tier
// functions require; anything not listed is honored at every level. Only
// the rectangular-area operations are gated, since
// those are the functions real xterm/DEC hardware introduced at VT400+.
func functionMinConformance(id FunctionID) ConformanceLevel {
	switch id {
	case FnChangeAttributesRect, FnReverseAttributesRect, FnFillRect,
		FnEraseRect, FnSelectiveEraseRect:
		return ConformanceVT400
	default:
		return ConformanceVT100
	}
}

// conformanceAllows reports whether id is honored at the terminal's
// current DECSCL tier; a CsiDispatch for a function the tier doesn't
// support is treated as Unsupported (spec §4.2 step 3: "Ok | Invalid |
// Unsupported").
func (t *Terminal) conformanceAllows(id FunctionID) bool {
	return t.conformanceLevel >= functionMinConformance(id)
}

// screenSetConformanceLevel implements DECSCL (CSI Pl ; Pc " p): Pl
// selects the conformance tier (61=VT100, 62=VT200, 63=VT300, 64=VT400,
// 65=VT500), Pc selects 8-bit vs 7-bit controls (ignored — this module is
// always byte-stream driven and never emits 8-bit C1 controls).
func (t *Terminal) screenSetConformanceLevel(params [][]int64) {
	pl := param(params, 0, 61)
	switch pl {
	case 61:
		t.conformanceLevel = ConformanceVT100
	case 62:
		t.conformanceLevel = ConformanceVT200
	case 63:
		t.conformanceLevel = ConformanceVT300
	case 64:
		t.conformanceLevel = ConformanceVT400
	case 65:
		t.conformanceLevel = ConformanceVT500
	}
}
