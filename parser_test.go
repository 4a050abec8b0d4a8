package headlessvt

import (
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

// eventRecorder logs every Receiver callback as a comparable string, so
// two differently-chunked feeds can be checked for identical event
// sequences.
type eventRecorder struct {
	events []string
}

func (r *eventRecorder) log(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *eventRecorder) Print(ru rune)     { r.log("print %q", ru) }
func (r *eventRecorder) Execute(b byte)    { r.log("execute %#x", b) }
func (r *eventRecorder) CsiDispatch(params [][]int64, intermediates []byte, leader byte, final byte) {
	r.log("csi %v %q %q %q", params, intermediates, leader, final)
}
func (r *eventRecorder) EscDispatch(intermediates []byte, final byte) {
	r.log("esc %q %q", intermediates, final)
}
func (r *eventRecorder) OscDispatch(params [][]byte) { r.log("osc %q", params) }
func (r *eventRecorder) DcsHook(params [][]int64, intermediates []byte, leader byte, final byte) {
	r.log("hook %v %q %q %q", params, intermediates, leader, final)
}
func (r *eventRecorder) DcsPut(b byte)          { r.log("put %#x", b) }
func (r *eventRecorder) DcsUnhook()             { r.log("unhook") }
func (r *eventRecorder) ApcDispatch(data []byte) { r.log("apc %q", data) }
func (r *eventRecorder) PmDispatch(data []byte)  { r.log("pm %q", data) }
func (r *eventRecorder) SosDispatch(data []byte) { r.log("sos %q", data) }

func feedAll(input []byte) []string {
	rec := &eventRecorder{}
	p := NewParser(rec)
	p.Feed(input)
	return rec.events
}

func feedChunked(input []byte, chunk int) []string {
	rec := &eventRecorder{}
	p := NewParser(rec)
	for i := 0; i < len(input); i += chunk {
		end := i + chunk
		if end > len(input) {
			end = len(input)
		}
		p.Feed(input[i:end])
	}
	return rec.events
}

func TestParserChunkingIdempotence(t *testing.T) {
	inputs := []string{
		"plain text only",
		"\x1b[1;31mred bold\x1b[0m",
		"\x1b[38:2::171:178:191m truecolor",
		"\x1b]0;title here\x07after",
		"\x1b]8;id=x;https://example.com\x1b\\link\x1b]8;;\x1b\\",
		"\x1bPq#0;2;0;0;0#0~~\x1b\\sixel done",
		"\x1b[?1049h\x1b[2J\x1b[H\x1b[?1049l",
		"UTF-8: héllo wörld 中文 🎉",
		"\x1b_Gf=24,s=1,v=1;AAAA\x1b\\",
		"\x1b^privacy\x1b\\\x1bXsos\x1b\\",
		"mixed \x1b[Aup\ndown\r\x1b[10;20Hjump",
	}
	for _, in := range inputs {
		want := feedAll([]byte(in))
		for _, chunk := range []int{1, 2, 3, 7} {
			got := feedChunked([]byte(in), chunk)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("input %q chunk %d:\n got %v\nwant %v", in, chunk, got, want)
			}
		}
	}
}

func TestParserRandomInputNoCrash(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	rec := &eventRecorder{}
	p := NewParser(rec)
	for i := 0; i < 100; i++ {
		buf := make([]byte, 1024)
		rng.Read(buf)
		p.Feed(buf) // must not panic
	}
}

func TestParserUTF8SplitAcrossFeeds(t *testing.T) {
	rec := &eventRecorder{}
	p := NewParser(rec)
	b := []byte("中") // 3 bytes
	p.Feed(b[:1])
	p.Feed(b[1:2])
	p.Feed(b[2:])
	if len(rec.events) != 1 || rec.events[0] != fmt.Sprintf("print %q", '中') {
		t.Errorf("events = %v, want single print of 中", rec.events)
	}
}

func TestParserMalformedUTF8(t *testing.T) {
	rec := &eventRecorder{}
	p := NewParser(rec)
	p.Feed([]byte{0xff, 'a'})
	want := []string{fmt.Sprintf("print %q", '\uFFFD'), fmt.Sprintf("print %q", 'a')}
	if !reflect.DeepEqual(rec.events, want) {
		t.Errorf("events = %v, want %v", rec.events, want)
	}
}

func TestParserCSIParams(t *testing.T) {
	rec := &eventRecorder{}
	p := NewParser(rec)
	p.Feed([]byte("\x1b[1;2;3m"))
	if len(rec.events) != 1 {
		t.Fatalf("events = %v", rec.events)
	}
	if !strings.HasPrefix(rec.events[0], "csi [[1] [2] [3]]") {
		t.Errorf("event = %q", rec.events[0])
	}
}

func TestParserCSISubParams(t *testing.T) {
	rec := &eventRecorder{}
	p := NewParser(rec)
	p.Feed([]byte("\x1b[4:3m"))
	if len(rec.events) != 1 || !strings.HasPrefix(rec.events[0], "csi [[4 3]]") {
		t.Errorf("events = %v, want one csi with subparam group [4 3]", rec.events)
	}
}

func TestParserCSILeader(t *testing.T) {
	rec := &eventRecorder{}
	p := NewParser(rec)
	p.Feed([]byte("\x1b[?25l"))
	if len(rec.events) != 1 || !strings.Contains(rec.events[0], `'?'`) {
		t.Errorf("events = %v, want csi with '?' leader", rec.events)
	}
}

func TestParserCANAbortsSequence(t *testing.T) {
	rec := &eventRecorder{}
	p := NewParser(rec)
	p.Feed([]byte("\x1b[12\x18A"))
	// CAN kills the CSI in progress; the 'A' prints as text.
	want := []string{fmt.Sprintf("print %q", 'A')}
	if !reflect.DeepEqual(rec.events, want) {
		t.Errorf("events = %v, want %v", rec.events, want)
	}
}

func TestParserESCRestartsSequence(t *testing.T) {
	rec := &eventRecorder{}
	p := NewParser(rec)
	p.Feed([]byte("\x1b[12\x1b[5A"))
	if len(rec.events) != 1 || !strings.HasPrefix(rec.events[0], "csi [[5]]") {
		t.Errorf("events = %v, want the restarted CSI 5 A only", rec.events)
	}
}

func TestParserOSCTermination(t *testing.T) {
	for _, tt := range []struct {
		name, input string
	}{
		{"bel", "\x1b]2;hello\x07"},
		{"st", "\x1b]2;hello\x1b\\"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := &eventRecorder{}
			p := NewParser(rec)
			p.Feed([]byte(tt.input))
			want := []string{fmt.Sprintf("osc %q", [][]byte{[]byte("2"), []byte("hello")})}
			if !reflect.DeepEqual(rec.events, want) {
				t.Errorf("events = %v, want %v", rec.events, want)
			}
		})
	}
}

func TestParserDCSFlow(t *testing.T) {
	rec := &eventRecorder{}
	p := NewParser(rec)
	p.Feed([]byte("\x1bP1;2q#0\x1b\\"))
	if len(rec.events) != 4 {
		t.Fatalf("events = %v", rec.events)
	}
	if !strings.HasPrefix(rec.events[0], "hook [[1] [2]]") {
		t.Errorf("hook event = %q", rec.events[0])
	}
	if rec.events[1] != "put 0x23" || rec.events[2] != "put 0x30" {
		t.Errorf("put events = %v", rec.events[1:3])
	}
	if rec.events[3] != "unhook" {
		t.Errorf("final event = %q", rec.events[3])
	}
}

func TestParserControlInsideCSI(t *testing.T) {
	rec := &eventRecorder{}
	p := NewParser(rec)
	// BEL embedded in a CSI executes immediately; the CSI still completes.
	p.Feed([]byte("\x1b[1\x072A"))
	want := []string{"execute 0x7", "csi [[12]] \"\" '\\x00' 'A'"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Errorf("events = %v, want %v", rec.events, want)
	}
}
