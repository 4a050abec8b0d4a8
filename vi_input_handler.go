package headlessvt

import (
	"strconv"
	"strings"
)

// ViMode is the modal state of ViInputHandler (spec §4.8).
type ViMode int

const (
	ViModeInsert ViMode = iota
	ViModeNormal
	ViModeVisual
	ViModeVisualLine
	ViModeVisualBlock
)

// ViMotion names a cursor motion a trie entry can bind to (spec §4.8
// "moveCursor(motion, count[, lastChar])").
type ViMotion int

const (
	ViMotionLeft ViMotion = iota
	ViMotionRight
	ViMotionUp
	ViMotionDown
	ViMotionWordForward
	ViMotionWordBackward
	ViMotionWordEndForward
	ViMotionLineBegin
	ViMotionLineEnd
	ViMotionLineFirstNonBlank
	ViMotionFileBegin
	ViMotionFileEnd
	ViMotionPageUp
	ViMotionPageDown
	ViMotionTillCharForward  // "t."
	ViMotionTillCharBackward // "T."
	ViMotionToCharForward    // "f."
	ViMotionToCharBackward   // "F."
)

// ViOperator names a pending operator a motion or text object completes
// (spec §4.8 "execute(op, motion, count[, lastChar])").
type ViOperator int

const (
	ViOpYank ViOperator = iota
	ViOpDelete
	ViOpChange
)

// ViScope distinguishes an inner ("iw") vs. an around ("aw") text object
// (spec §4.8 "yank(scope, object)" / "select(scope, object)").
type ViScope int

const (
	ViScopeInner ViScope = iota
	ViScopeAround
)

// ViTextObject names what a scoped operation spans.
type ViTextObject int

const (
	ViObjectWord ViTextObject = iota
	ViObjectWORD
	ViObjectLine
)

// ViExecutor is the collaborator interface ViInputHandler drives actions
// through; Terminal implements it (spec §4.8: "invoked on an Executor
// interface exposed by the Terminal").
type ViExecutor interface {
	MoveCursor(motion ViMotion, count int, lastChar rune)
	Execute(op ViOperator, motion ViMotion, count int, lastChar rune)
	Yank(scope ViScope, object ViTextObject)
	Select(scope ViScope, object ViTextObject)
	Open(scope ViScope, object ViTextObject)
	Paste(count int, stripped bool)
	ToggleLineMark()
	SearchStart()
	SearchDone()
	SearchCancel()
	ReverseSearchCurrentWord()
	SearchCurrentWord()
	ModeChanged(mode ViMode)
	ScrollViewport(delta int)
	UpdatePromptText(s string)
	PromptCancel()
	PromptDone()
	UpdateSearchTerm(s string)
}

// viAction is what a fully matched trie entry runs.
type viAction func(h *ViInputHandler, count int, lastChar rune)

// viTrieNode is one node of the per-mode key trie (spec §4.8 "two command
// tries (Normal, Visual)"); '.' children match any single literal key not
// otherwise present (the "_." wildcard).
type viTrieNode struct {
	children map[string]*viTrieNode
	action   viAction
}

func newViTrieNode() *viTrieNode {
	return &viTrieNode{children: make(map[string]*viTrieNode)}
}

func (n *viTrieNode) bind(keys []string, action viAction) {
	cur := n
	for _, k := range keys {
		next, ok := cur.children[k]
		if !ok {
			next = newViTrieNode()
			cur.children[k] = next
		}
		cur = next
	}
	cur.action = action
}

// lookup walks keys from the root, substituting the "." wildcard entry
// when a literal key has no exact child. It returns (node, matched) where
// matched is false only when no edge — literal or wildcard — exists.
func (n *viTrieNode) lookup(keys []string) (*viTrieNode, bool) {
	cur := n
	for _, k := range keys {
		if next, ok := cur.children[k]; ok {
			cur = next
			continue
		}
		if next, ok := cur.children["."]; ok {
			cur = next
			continue
		}
		return nil, false
	}
	return cur, true
}

// ViInputHandler is a modal Vi-style keybinding engine layered in front of
// the Terminal's byte-producing input path (spec §4.8). While its mode is
// not Insert, the embedding application must route key events here
// instead of through InputGenerator.
type ViInputHandler struct {
	exec ViExecutor

	mode ViMode

	normalTrie *viTrieNode
	visualTrie *viTrieNode

	pending    []string // accumulated key tokens since the last clear
	pendingOp  *ViOperator
	inPrompt   bool
	promptText strings.Builder
	lastChar   rune
}

// NewViInputHandler builds a handler bound to exec, pre-populated with the
// Normal/Visual tries a Vi-alike pager needs (spec §4.8's example bindings
// "gg", "yiw", "C-d", "yt.").
func NewViInputHandler(exec ViExecutor) *ViInputHandler {
	h := &ViInputHandler{
		exec:       exec,
		mode:       ViModeNormal,
		normalTrie: newViTrieNode(),
		visualTrie: newViTrieNode(),
	}
	h.bindDefaults()
	return h
}

func (h *ViInputHandler) Mode() ViMode { return h.mode }

func (h *ViInputHandler) setMode(m ViMode) {
	if h.mode == m {
		return
	}
	h.mode = m
	h.exec.ModeChanged(m)
}

// bindDefaults registers the motions/operators/text-objects spec §4.8
// names explicitly, plus the handful of scroll/search bindings a headless
// pager needs. Real Vi has hundreds of bindings; this set is the subset
// the spec calls out by name.
func (h *ViInputHandler) bindDefaults() {
	move := func(m ViMotion) viAction {
		return func(h *ViInputHandler, count int, lastChar rune) { h.exec.MoveCursor(m, count, lastChar) }
	}
	op := func(o ViOperator, m ViMotion) viAction {
		return func(h *ViInputHandler, count int, lastChar rune) { h.exec.Execute(o, m, count, lastChar) }
	}
	yankObj := func(scope ViScope, obj ViTextObject) viAction {
		return func(h *ViInputHandler, count int, lastChar rune) { h.exec.Yank(scope, obj) }
	}
	selectObj := func(scope ViScope, obj ViTextObject) viAction {
		return func(h *ViInputHandler, count int, lastChar rune) { h.exec.Select(scope, obj) }
	}

	n := h.normalTrie
	n.bind([]string{"h"}, move(ViMotionLeft))
	n.bind([]string{"l"}, move(ViMotionRight))
	n.bind([]string{"k"}, move(ViMotionUp))
	n.bind([]string{"j"}, move(ViMotionDown))
	n.bind([]string{"w"}, move(ViMotionWordForward))
	n.bind([]string{"b"}, move(ViMotionWordBackward))
	n.bind([]string{"e"}, move(ViMotionWordEndForward))
	n.bind([]string{"0"}, move(ViMotionLineBegin))
	n.bind([]string{"^"}, move(ViMotionLineFirstNonBlank))
	n.bind([]string{"$"}, move(ViMotionLineEnd))
	n.bind([]string{"g", "g"}, move(ViMotionFileBegin))
	n.bind([]string{"G"}, move(ViMotionFileEnd))
	n.bind([]string{"C-d"}, func(h *ViInputHandler, count int, lastChar rune) {
		h.exec.ScrollViewport(half(count, h.exec))
	})
	n.bind([]string{"C-u"}, func(h *ViInputHandler, count int, lastChar rune) {
		h.exec.ScrollViewport(-half(count, h.exec))
	})
	n.bind([]string{"C-f"}, move(ViMotionPageDown))
	n.bind([]string{"C-b"}, move(ViMotionPageUp))
	n.bind([]string{"f", "."}, move(ViMotionToCharForward))
	n.bind([]string{"F", "."}, move(ViMotionToCharBackward))
	n.bind([]string{"t", "."}, move(ViMotionTillCharForward))
	n.bind([]string{"T", "."}, move(ViMotionTillCharBackward))
	n.bind([]string{"y", "i", "w"}, yankObj(ViScopeInner, ViObjectWord))
	n.bind([]string{"y", "a", "w"}, yankObj(ViScopeAround, ViObjectWord))
	n.bind([]string{"y", "y"}, yankObj(ViScopeInner, ViObjectLine))
	n.bind([]string{"y", "t", "."}, op(ViOpYank, ViMotionTillCharForward))
	n.bind([]string{"m"}, func(h *ViInputHandler, count int, lastChar rune) { h.exec.ToggleLineMark() })
	n.bind([]string{"p"}, func(h *ViInputHandler, count int, lastChar rune) { h.exec.Paste(count, false) })
	n.bind([]string{"v"}, func(h *ViInputHandler, count int, lastChar rune) { h.setMode(ViModeVisual) })
	n.bind([]string{"V"}, func(h *ViInputHandler, count int, lastChar rune) { h.setMode(ViModeVisualLine) })
	n.bind([]string{"C-v"}, func(h *ViInputHandler, count int, lastChar rune) { h.setMode(ViModeVisualBlock) })
	n.bind([]string{"i"}, func(h *ViInputHandler, count int, lastChar rune) { h.setMode(ViModeInsert) })
	n.bind([]string{"*"}, func(h *ViInputHandler, count int, lastChar rune) { h.exec.SearchCurrentWord() })
	n.bind([]string{"#"}, func(h *ViInputHandler, count int, lastChar rune) { h.exec.ReverseSearchCurrentWord() })
	n.bind([]string{"/"}, func(h *ViInputHandler, count int, lastChar rune) { h.enterPrompt() })

	v := h.visualTrie
	v.bind([]string{"h"}, move(ViMotionLeft))
	v.bind([]string{"l"}, move(ViMotionRight))
	v.bind([]string{"k"}, move(ViMotionUp))
	v.bind([]string{"j"}, move(ViMotionDown))
	v.bind([]string{"i", "w"}, selectObj(ViScopeInner, ViObjectWord))
	v.bind([]string{"a", "w"}, selectObj(ViScopeAround, ViObjectWord))
	v.bind([]string{"y"}, func(h *ViInputHandler, count int, lastChar rune) {
		h.exec.Yank(ViScopeInner, ViObjectLine)
		h.setMode(ViModeNormal)
	})
	v.bind([]string{"<ESC>"}, func(h *ViInputHandler, count int, lastChar rune) { h.setMode(ViModeNormal) })
}

func half(count int, exec ViExecutor) int {
	if count <= 0 {
		count = 1
	}
	return count
}

func (h *ViInputHandler) enterPrompt() {
	h.inPrompt = true
	h.promptText.Reset()
	h.exec.SearchStart()
}

// FeedKey accepts one key token — a literal rune string for a printable
// key, or a special token such as "<ESC>", "<BS>", "<NL>", "<Down>", or a
// modifier-prefixed combination like "C-d" — and either completes,
// advances, or aborts the pending input accumulation (spec §4.8 "Key
// model").
func (h *ViInputHandler) FeedKey(token string) {
	if h.inPrompt {
		h.feedPromptKey(token)
		return
	}
	if h.mode == ViModeInsert {
		return // Insert mode: caller routes keys to InputGenerator instead.
	}

	if token == "<ESC>" {
		h.pending = nil
		if h.mode != ViModeNormal {
			h.setMode(ViModeNormal)
		}
		return
	}

	// Count prefix: digits before the first non-digit, with a lone "0"
	// meaning line-begin rather than a count digit (spec §4.8).
	if len(token) == 1 && token[0] >= '1' && token[0] <= '9' && h.allPendingDigits() {
		h.pending = append(h.pending, token)
		return
	}
	if token == "0" && len(h.pending) == 0 {
		h.dispatch([]string{"0"}, 0, 0)
		return
	}
	if token == "0" && h.allPendingDigits() && len(h.pending) > 0 {
		h.pending = append(h.pending, token)
		return
	}

	count, digitsLen := h.leadingCount()
	rest := append(append([]string{}, h.pending[digitsLen:]...), token)

	trie := h.normalTrie
	if h.mode != ViModeNormal {
		trie = h.visualTrie
	}

	node, matched := trie.lookup(rest)
	if !matched {
		h.pending = nil
		return
	}
	if node.action == nil {
		h.pending = append(h.pending[:digitsLen], rest...)
		return
	}

	var lastChar rune
	if len(token) > 0 {
		lastChar = []rune(token)[len([]rune(token))-1]
	}
	h.lastChar = lastChar
	node.action(h, count, lastChar)
	h.pending = nil
}

func (h *ViInputHandler) allPendingDigits() bool {
	for _, t := range h.pending {
		if len(t) != 1 || t[0] < '0' || t[0] > '9' {
			return false
		}
	}
	return true
}

// leadingCount parses the numeric prefix of h.pending, returning the
// parsed count (0 if absent, meaning "no explicit count") and how many
// tokens it consumed.
func (h *ViInputHandler) leadingCount() (int, int) {
	n := 0
	var digits strings.Builder
	for _, t := range h.pending {
		if len(t) == 1 && t[0] >= '0' && t[0] <= '9' {
			digits.WriteString(t)
			n++
			continue
		}
		break
	}
	if digits.Len() == 0 {
		return 0, 0
	}
	v, _ := strconv.Atoi(digits.String())
	return v, n
}

func (h *ViInputHandler) dispatch(keys []string, count int, lastChar rune) {
	trie := h.normalTrie
	if h.mode != ViModeNormal {
		trie = h.visualTrie
	}
	if node, ok := trie.lookup(keys); ok && node.action != nil {
		node.action(h, count, lastChar)
	}
}

func (h *ViInputHandler) feedPromptKey(token string) {
	switch token {
	case "<NL>":
		h.inPrompt = false
		h.exec.SearchDone()
		h.exec.PromptDone()
	case "<ESC>":
		h.inPrompt = false
		h.exec.SearchCancel()
		h.exec.PromptCancel()
	case "<BS>":
		s := h.promptText.String()
		if len(s) > 0 {
			h.promptText.Reset()
			h.promptText.WriteString(s[:len(s)-1])
			h.exec.UpdatePromptText(h.promptText.String())
			h.exec.UpdateSearchTerm(h.promptText.String())
		}
	default:
		if len([]rune(token)) == 1 {
			h.promptText.WriteString(token)
			h.exec.UpdatePromptText(h.promptText.String())
			h.exec.UpdateSearchTerm(h.promptText.String())
		}
	}
}
