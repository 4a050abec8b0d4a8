package headlessvt

import (
	"fmt"
	"testing"
)

// recordingExecutor logs every Executor callback for assertion.
type recordingExecutor struct {
	calls []string
}

func (e *recordingExecutor) log(format string, args ...any) {
	e.calls = append(e.calls, fmt.Sprintf(format, args...))
}

func (e *recordingExecutor) MoveCursor(m ViMotion, count int, lastChar rune) {
	e.log("move %d count=%d last=%q", m, count, lastChar)
}
func (e *recordingExecutor) Execute(op ViOperator, m ViMotion, count int, lastChar rune) {
	e.log("execute %d %d count=%d", op, m, count)
}
func (e *recordingExecutor) Yank(s ViScope, o ViTextObject)   { e.log("yank %d %d", s, o) }
func (e *recordingExecutor) Select(s ViScope, o ViTextObject) { e.log("select %d %d", s, o) }
func (e *recordingExecutor) Open(s ViScope, o ViTextObject)   { e.log("open %d %d", s, o) }
func (e *recordingExecutor) Paste(count int, stripped bool)   { e.log("paste %d %v", count, stripped) }
func (e *recordingExecutor) ToggleLineMark()                  { e.log("togglemark") }
func (e *recordingExecutor) SearchStart()                     { e.log("searchstart") }
func (e *recordingExecutor) SearchDone()                      { e.log("searchdone") }
func (e *recordingExecutor) SearchCancel()                    { e.log("searchcancel") }
func (e *recordingExecutor) ReverseSearchCurrentWord()        { e.log("revsearchword") }
func (e *recordingExecutor) SearchCurrentWord()               { e.log("searchword") }
func (e *recordingExecutor) ModeChanged(m ViMode)             { e.log("mode %d", m) }
func (e *recordingExecutor) ScrollViewport(delta int)         { e.log("scroll %d", delta) }
func (e *recordingExecutor) UpdatePromptText(s string)        { e.log("prompt %q", s) }
func (e *recordingExecutor) PromptCancel()                    { e.log("promptcancel") }
func (e *recordingExecutor) PromptDone()                      { e.log("promptdone") }
func (e *recordingExecutor) UpdateSearchTerm(s string)        { e.log("term %q", s) }

func (e *recordingExecutor) last() string {
	if len(e.calls) == 0 {
		return ""
	}
	return e.calls[len(e.calls)-1]
}

func TestViSimpleMotion(t *testing.T) {
	exec := &recordingExecutor{}
	h := NewViInputHandler(exec)
	h.FeedKey("j")
	want := fmt.Sprintf("move %d count=0 last=%q", ViMotionDown, 'j')
	if exec.last() != want {
		t.Errorf("got %q, want %q", exec.last(), want)
	}
}

func TestViMultiKeySequence(t *testing.T) {
	exec := &recordingExecutor{}
	h := NewViInputHandler(exec)
	h.FeedKey("g")
	if len(exec.calls) != 0 {
		t.Fatal("partial match must not dispatch")
	}
	h.FeedKey("g")
	want := fmt.Sprintf("move %d count=0 last=%q", ViMotionFileBegin, 'g')
	if exec.last() != want {
		t.Errorf("got %q, want %q", exec.last(), want)
	}
}

func TestViCountPrefix(t *testing.T) {
	exec := &recordingExecutor{}
	h := NewViInputHandler(exec)
	h.FeedKey("1")
	h.FeedKey("2")
	h.FeedKey("j")
	want := fmt.Sprintf("move %d count=12 last=%q", ViMotionDown, 'j')
	if exec.last() != want {
		t.Errorf("got %q, want %q", exec.last(), want)
	}
}

func TestViZeroIsLineBegin(t *testing.T) {
	exec := &recordingExecutor{}
	h := NewViInputHandler(exec)
	h.FeedKey("0")
	want := fmt.Sprintf("move %d count=0 last=%q", ViMotionLineBegin, rune(0))
	if exec.last() != want {
		t.Errorf("got %q, want %q", exec.last(), want)
	}
}

func TestViZeroAfterDigitIsCount(t *testing.T) {
	exec := &recordingExecutor{}
	h := NewViInputHandler(exec)
	h.FeedKey("1")
	h.FeedKey("0")
	h.FeedKey("j")
	want := fmt.Sprintf("move %d count=10 last=%q", ViMotionDown, 'j')
	if exec.last() != want {
		t.Errorf("got %q, want %q", exec.last(), want)
	}
}

func TestViWildcardArgument(t *testing.T) {
	exec := &recordingExecutor{}
	h := NewViInputHandler(exec)
	h.FeedKey("f")
	if len(exec.calls) != 0 {
		t.Fatal("f alone must wait for its argument")
	}
	h.FeedKey("x")
	want := fmt.Sprintf("move %d count=0 last=%q", ViMotionToCharForward, 'x')
	if exec.last() != want {
		t.Errorf("got %q, want %q", exec.last(), want)
	}
}

func TestViOperatorWithWildcard(t *testing.T) {
	exec := &recordingExecutor{}
	h := NewViInputHandler(exec)
	for _, k := range []string{"y", "t", "."} {
		h.FeedKey(k)
	}
	want := fmt.Sprintf("execute %d %d count=0", ViOpYank, ViMotionTillCharForward)
	if exec.last() != want {
		t.Errorf("got %q, want %q", exec.last(), want)
	}
}

func TestViTextObjects(t *testing.T) {
	exec := &recordingExecutor{}
	h := NewViInputHandler(exec)
	for _, k := range []string{"y", "i", "w"} {
		h.FeedKey(k)
	}
	want := fmt.Sprintf("yank %d %d", ViScopeInner, ViObjectWord)
	if exec.last() != want {
		t.Errorf("got %q, want %q", exec.last(), want)
	}
}

func TestViNoMatchClearsPending(t *testing.T) {
	exec := &recordingExecutor{}
	h := NewViInputHandler(exec)
	h.FeedKey("g")
	h.FeedKey("z") // no binding "gz"
	if len(exec.calls) != 0 {
		t.Fatal("unmatched sequence must not dispatch")
	}
	// Pending state must be cleared: a fresh "gg" works.
	h.FeedKey("g")
	h.FeedKey("g")
	want := fmt.Sprintf("move %d count=0 last=%q", ViMotionFileBegin, 'g')
	if exec.last() != want {
		t.Errorf("after clear: got %q, want %q", exec.last(), want)
	}
}

func TestViModeSwitch(t *testing.T) {
	exec := &recordingExecutor{}
	h := NewViInputHandler(exec)
	if h.Mode() != ViModeNormal {
		t.Fatal("handler starts in normal mode")
	}
	h.FeedKey("v")
	if h.Mode() != ViModeVisual {
		t.Errorf("mode = %d, want visual", h.Mode())
	}
	h.FeedKey("<ESC>")
	if h.Mode() != ViModeNormal {
		t.Errorf("ESC should return to normal, got %d", h.Mode())
	}
	h.FeedKey("V")
	if h.Mode() != ViModeVisualLine {
		t.Errorf("mode = %d, want visual line", h.Mode())
	}
	h.FeedKey("<ESC>")
	h.FeedKey("C-v")
	if h.Mode() != ViModeVisualBlock {
		t.Errorf("mode = %d, want visual block", h.Mode())
	}
}

func TestViInsertModeIgnoresKeys(t *testing.T) {
	exec := &recordingExecutor{}
	h := NewViInputHandler(exec)
	h.FeedKey("i")
	if h.Mode() != ViModeInsert {
		t.Fatal("i should enter insert mode")
	}
	n := len(exec.calls)
	h.FeedKey("j")
	if len(exec.calls) != n {
		t.Error("insert mode must not dispatch vi bindings")
	}
}

func TestViVisualTextObject(t *testing.T) {
	exec := &recordingExecutor{}
	h := NewViInputHandler(exec)
	h.FeedKey("v")
	h.FeedKey("i")
	h.FeedKey("w")
	want := fmt.Sprintf("select %d %d", ViScopeInner, ViObjectWord)
	if exec.last() != want {
		t.Errorf("got %q, want %q", exec.last(), want)
	}
}

func TestViSearchPrompt(t *testing.T) {
	exec := &recordingExecutor{}
	h := NewViInputHandler(exec)
	h.FeedKey("/")
	if exec.last() != "searchstart" {
		t.Fatalf("expected searchstart, got %q", exec.last())
	}
	h.FeedKey("a")
	h.FeedKey("b")
	h.FeedKey("<BS>")
	h.FeedKey("c")
	h.FeedKey("<NL>")

	var sawTerm bool
	for _, c := range exec.calls {
		if c == `term "ac"` {
			sawTerm = true
		}
	}
	if !sawTerm {
		t.Errorf("expected search term %q in %v", "ac", exec.calls)
	}
	if exec.last() != "promptdone" {
		t.Errorf("expected promptdone, got %q", exec.last())
	}
}

func TestViSearchPromptCancel(t *testing.T) {
	exec := &recordingExecutor{}
	h := NewViInputHandler(exec)
	h.FeedKey("/")
	h.FeedKey("x")
	h.FeedKey("<ESC>")
	if exec.last() != "promptcancel" {
		t.Errorf("expected promptcancel, got %q", exec.last())
	}
	// Prompt left: normal bindings work again.
	h.FeedKey("j")
	want := fmt.Sprintf("move %d count=0 last=%q", ViMotionDown, 'j')
	if exec.last() != want {
		t.Errorf("after cancel: got %q, want %q", exec.last(), want)
	}
}

func TestViScrollBindings(t *testing.T) {
	exec := &recordingExecutor{}
	h := NewViInputHandler(exec)
	h.FeedKey("C-d")
	if exec.last() != "scroll 1" {
		t.Errorf("C-d: got %q", exec.last())
	}
	h.FeedKey("C-u")
	if exec.last() != "scroll -1" {
		t.Errorf("C-u: got %q", exec.last())
	}
}

func TestViSearchWordBindings(t *testing.T) {
	exec := &recordingExecutor{}
	h := NewViInputHandler(exec)
	h.FeedKey("*")
	if exec.last() != "searchword" {
		t.Errorf("*: got %q", exec.last())
	}
	h.FeedKey("#")
	if exec.last() != "revsearchword" {
		t.Errorf("#: got %q", exec.last())
	}
}
