// Package vt implements the ECMA-48/xterm virtual-terminal state machine:
// a byte-driven parser that drives a grid.Grid, cursor, scroll region and
// alternate screen (spec.md §4.2). Grounded on the escape-state handling in
// the teacher's internal/panestate.terminalState, expanded to the full CSI
// dispatch table, SGR color/attribute handling and alt-screen swap that the
// teacher's minimal parser didn't need.
package vt

import (
	"unicode/utf8"

	"wtmux/internal/grid"
)

// Cursor is the terminal's cursor position plus the pen state new glyphs
// inherit (spec.md §3).
type Cursor struct {
	Col, Row int
	Fg, Bg   grid.Color
	Attrs    grid.Attrs
	Visible  bool
}

type altState struct {
	grid         *grid.Grid
	cursor       Cursor
	scrollTop    int
	scrollBottom int
	saved        *Cursor
}

// Terminal owns one primary Grid, its cursor, scroll region, saved-cursor
// snapshot, window title, dirty flag and an optional alternate screen
// (spec.md §3).
type Terminal struct {
	Grid   *grid.Grid
	Cursor Cursor

	scrollTop    int
	scrollBottom int // half-open: scroll region is [scrollTop, scrollBottom)

	saved *Cursor // ESC 7/8 and CSI s/u snapshot
	alt   *altState

	Title string
	Dirty bool

	pendingWrap bool // set when the cursor sits at the right margin after a print; next print wraps first

	p parser
}

// New creates a Terminal sized cols x rows with the cursor at the origin
// and the scroll region spanning the whole screen.
func New(cols, rows int) *Terminal {
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}
	return &Terminal{
		Grid:         grid.New(cols, rows),
		Cursor:       Cursor{Visible: true},
		scrollTop:    0,
		scrollBottom: rows,
	}
}

// InAltScreen reports whether the alternate screen is active.
func (t *Terminal) InAltScreen() bool {
	return t.alt != nil
}

// Size returns the terminal's current (cols, rows).
func (t *Terminal) Size() (int, int) {
	return t.Grid.Cols, t.Grid.Rows
}

// Resize adjusts the active grid (and, while in the alt screen, the saved
// primary grid too, per spec.md §4.2: "Both sides use the same cols/rows;
// a resize while in alt also resizes the saved primary.").
func (t *Terminal) Resize(cols, rows int) {
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}
	if cols == t.Grid.Cols && rows == t.Grid.Rows {
		return
	}
	t.Grid.Resize(cols, rows)
	if t.alt != nil {
		t.alt.grid.Resize(cols, rows)
	}
	t.scrollTop = 0
	t.scrollBottom = rows
	t.clampCursor()
	t.Dirty = true
}

func (t *Terminal) clampCursor() {
	if t.Cursor.Col >= t.Grid.Cols {
		t.Cursor.Col = t.Grid.Cols - 1
	}
	if t.Cursor.Col < 0 {
		t.Cursor.Col = 0
	}
	if t.Cursor.Row >= t.Grid.Rows {
		t.Cursor.Row = t.Grid.Rows - 1
	}
	if t.Cursor.Row < 0 {
		t.Cursor.Row = 0
	}
}

// Write feeds raw PTY output through the parser. Feeding the same byte
// stream one byte at a time or in arbitrary chunks produces identical final
// state (spec.md §8 property 6): the parser carries no per-call state other
// than what's stored on Terminal/parser.
func (t *Terminal) Write(data []byte) (int, error) {
	n := len(data)

	if t.p.utf8Len > 0 {
		need := t.p.utf8Exp - t.p.utf8Len
		if need > len(data) {
			t.p.utf8Len += copy(t.p.utf8Buf[t.p.utf8Len:], data)
			return n, nil
		}
		copy(t.p.utf8Buf[t.p.utf8Len:], data[:need])
		r, _ := utf8.DecodeRune(t.p.utf8Buf[:t.p.utf8Exp])
		t.feedRune(r)
		data = data[need:]
		t.p.utf8Len = 0
	}

	for len(data) > 0 {
		b := data[0]
		if b < utf8.RuneSelf {
			t.feedRune(rune(b))
			data = data[1:]
			continue
		}
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			if !utf8.FullRune(data) {
				t.p.utf8Len = copy(t.p.utf8Buf[:], data)
				t.p.utf8Exp = utf8NeedBytes(data[0])
				break
			}
			data = data[1:]
			continue
		}
		t.feedRune(r)
		data = data[size:]
	}
	return n, nil
}

func utf8NeedBytes(b byte) int {
	switch {
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

func (t *Terminal) feedRune(r rune) {
	switch t.p.state {
	case stateGround:
		t.feedGround(r)
	case stateEscape:
		t.feedEscape(r)
	case stateCSI:
		t.feedCSI(r)
	case stateOSC:
		t.feedOSC(r)
	case stateOSCEscape:
		t.feedOSCEscape(r)
	}
}

func (t *Terminal) feedGround(r rune) {
	switch r {
	case 0x1b:
		t.p.resetSeq()
		t.p.state = stateEscape
	default:
		if r < 0x20 || r == 0x7f {
			t.execute(r)
			return
		}
		t.print(r)
	}
}
