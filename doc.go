// Package headlessvt implements the core of a terminal emulator with no
// display attached: a byte-driven VT escape-sequence state machine, the
// screen/grid model it maintains, and the supporting input and render
// plumbing.
//
// The package is useful for:
//   - Testing terminal applications without a GUI
//   - Building terminal multiplexers, recorders, and screen scrapers
//   - Serving terminal state to web frontends
//   - Automated testing of CLI tools
//
// # Quick Start
//
// Create a terminal and write ANSI sequences to it:
//
//	term := headlessvt.New()
//	term.WriteString("\x1b[31mHello \x1b[32mWorld\x1b[0m!")
//	fmt.Println(term.String()) // "Hello World!" then 23 empty rows
//
// # Architecture
//
// Dataflow runs bytes-in to primitives-out:
//
//	PTY bytes -> Parser -> Sequencer -> Screen commands -> Grid/Line
//	key/mouse events -> InputGenerator -> VT bytes (back to the PTY)
//	Grid + overlays -> RenderBuffer (for an external renderer)
//
// The core types:
//
//   - [Terminal]: the facade owning both screens, cursor, modes, and every
//     provider hook. It implements io.Writer; write raw bytes containing
//     escape sequences to it.
//   - [Parser]: the DEC/ANSI/xterm state machine turning bytes into
//     tokenized events. Chunk-boundary agnostic: feeding one byte at a
//     time or a megabyte at once produces identical results.
//   - [Grid] and [Line]: ring-buffer screen storage with scrollback and
//     text reflow on resize. Lines use a compact trivial representation
//     until a write forces per-cell storage.
//   - [Cell]: one grapheme cluster with colors, attribute flags, an
//     optional hyperlink id and an optional image fragment.
//   - [InputGenerator]: the inverse mapping from key/mouse events to VT
//     input bytes, covering the cursor-key/keypad modes and the full set
//     of mouse protocols and transports.
//   - [ViInputHandler]: a modal key-trie engine for navigating and
//     selecting scrollback with Vi-style sequences.
//   - [RenderBuffer]: a flat frame of positioned, color-resolved cells
//     produced by [Terminal.EnsureFreshRenderBuffer] for an external
//     renderer; selection, search and cursor overlays are already mixed
//     into the cell colors.
//
// # Configuration
//
// Terminals are configured with functional options:
//
//	term := headlessvt.New(
//	    headlessvt.WithSize(24, 80),
//	    headlessvt.WithScrollback(storage),     // scrollback sink
//	    headlessvt.WithResponse(ptyWriter),     // DSR/DA replies
//	    headlessvt.WithLogger(logger),          // injected diagnostics
//	)
//
// Loading configuration from files or flags is the embedder's job; this
// package only defines the [Config] surface and its defaults.
//
// # Inspecting state
//
// [Terminal.String] renders the visible text. [Terminal.Snapshot] captures
// the full screen at selectable detail (plain text, styled segments, or
// per-cell data) for serialization. [Terminal.Cell] and
// [Terminal.LineContent] give direct access.
//
// # Concurrency
//
// A single mutex guards all terminal state. The intended arrangement is
// one goroutine writing PTY bytes via [Terminal.Write], one calling
// [Terminal.EnsureFreshRenderBuffer] per frame, and input handlers
// driving [InputGenerator] — each call takes the lock for its duration,
// and render snapshots observe a consistent prefix of writes.
package headlessvt
