package vt

import "wtmux/internal/grid"

// csiDispatch implements the CSI dispatch table of spec.md §4.2.
func (t *Terminal) csiDispatch(params []int, intermediates []byte, private byte, final byte) {
	p := func(i, def int) int { return param(params, i, def) }

	switch final {
	case 'A':
		t.moveCursor(0, -p(0, 1))
	case 'B':
		t.moveCursor(0, p(0, 1))
	case 'C':
		t.moveCursor(p(0, 1), 0)
	case 'D':
		t.moveCursor(-p(0, 1), 0)
	case 'E':
		t.Cursor.Col = 0
		t.moveCursor(0, p(0, 1))
	case 'F':
		t.Cursor.Col = 0
		t.moveCursor(0, -p(0, 1))
	case 'G':
		t.Cursor.Col = clamp(p(0, 1)-1, 0, t.Grid.Cols-1)
		t.pendingWrap = false
	case 'H', 'f':
		t.Cursor.Row = clamp(p(0, 1)-1, 0, t.Grid.Rows-1)
		t.Cursor.Col = clamp(p(1, 1)-1, 0, t.Grid.Cols-1)
		t.pendingWrap = false
	case 'J':
		t.eraseDisplay(p(0, 0))
	case 'K':
		t.eraseLine(p(0, 0))
	case 'L':
		t.Grid.InsertLines(t.Cursor.Row, p(0, 1), t.scrollBottom)
	case 'M':
		t.Grid.DeleteLines(t.Cursor.Row, p(0, 1), t.scrollBottom)
	case '@':
		t.Grid.InsertCells(t.Cursor.Col, t.Cursor.Row, p(0, 1))
	case 'P':
		t.Grid.DeleteCells(t.Cursor.Col, t.Cursor.Row, p(0, 1))
	case 'X':
		t.Grid.EraseCells(t.Cursor.Col, t.Cursor.Row, p(0, 1))
	case 'S':
		for i := 0; i < p(0, 1); i++ {
			t.Grid.ScrollUp(t.scrollTop, t.scrollBottom)
		}
	case 'T':
		for i := 0; i < p(0, 1); i++ {
			t.Grid.ScrollDown(t.scrollTop, t.scrollBottom)
		}
	case 'm':
		t.sgr(params)
	case 'r':
		top := p(0, 1) - 1
		bot := p(1, t.Grid.Rows)
		if top < 0 {
			top = 0
		}
		if bot > t.Grid.Rows {
			bot = t.Grid.Rows
		}
		if top < bot {
			t.scrollTop = top
			t.scrollBottom = bot
		}
		t.Cursor.Col, t.Cursor.Row = 0, 0
	case 's':
		t.saveCursor()
	case 'u':
		t.restoreCursor()
	case 'h', 'l':
		if private == '?' {
			t.privateMode(params, final == 'h')
		}
	}
	t.Dirty = true
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (t *Terminal) moveCursor(dx, dy int) {
	t.Cursor.Col = clamp(t.Cursor.Col+dx, 0, t.Grid.Cols-1)
	t.Cursor.Row = clamp(t.Cursor.Row+dy, 0, t.Grid.Rows-1)
	t.pendingWrap = false
}

func (t *Terminal) eraseDisplay(mode int) {
	switch mode {
	case 0:
		t.Grid.EraseToEOL(t.Cursor.Col, t.Cursor.Row)
		t.Grid.ClearRegion(0, t.Cursor.Row+1, t.Grid.Cols-1, t.Grid.Rows-1)
	case 1:
		t.Grid.ClearRegion(0, 0, t.Grid.Cols-1, t.Cursor.Row-1)
		t.Grid.EraseToBOL(t.Cursor.Col, t.Cursor.Row)
	case 2, 3:
		t.Grid.Clear()
	}
}

func (t *Terminal) eraseLine(mode int) {
	switch mode {
	case 0:
		t.Grid.EraseToEOL(t.Cursor.Col, t.Cursor.Row)
	case 1:
		t.Grid.EraseToBOL(t.Cursor.Col, t.Cursor.Row)
	case 2:
		t.Grid.ClearRow(t.Cursor.Row)
	}
}

// sgr implements Select Graphic Rendition (spec.md §4.2).
func (t *Terminal) sgr(params []int) {
	if len(params) == 0 {
		t.resetSGR()
		return
	}
	for i := 0; i < len(params); i++ {
		n := params[i]
		switch {
		case n == 0:
			t.resetSGR()
		case n == 1:
			t.Cursor.Attrs |= grid.AttrBold
		case n == 22:
			t.Cursor.Attrs &^= grid.AttrBold
		case n == 3:
			t.Cursor.Attrs |= grid.AttrItalic
		case n == 23:
			t.Cursor.Attrs &^= grid.AttrItalic
		case n == 4:
			t.Cursor.Attrs |= grid.AttrUnderline
		case n == 24:
			t.Cursor.Attrs &^= grid.AttrUnderline
		case n == 5:
			t.Cursor.Attrs |= grid.AttrBlink
		case n == 25:
			t.Cursor.Attrs &^= grid.AttrBlink
		case n == 7:
			t.Cursor.Attrs |= grid.AttrReverse
		case n == 27:
			t.Cursor.Attrs &^= grid.AttrReverse
		case n == 8:
			t.Cursor.Attrs |= grid.AttrHidden
		case n == 28:
			t.Cursor.Attrs &^= grid.AttrHidden
		case n == 9:
			t.Cursor.Attrs |= grid.AttrStrikethrough
		case n == 29:
			t.Cursor.Attrs &^= grid.AttrStrikethrough
		case n >= 30 && n <= 37:
			t.Cursor.Fg = grid.Indexed(uint8(n - 30))
		case n >= 40 && n <= 47:
			t.Cursor.Bg = grid.Indexed(uint8(n - 40))
		case n >= 90 && n <= 97:
			t.Cursor.Fg = grid.Indexed(uint8(n - 90 + 8))
		case n >= 100 && n <= 107:
			t.Cursor.Bg = grid.Indexed(uint8(n - 100 + 8))
		case n == 39:
			t.Cursor.Fg = grid.DefaultColor
		case n == 49:
			t.Cursor.Bg = grid.DefaultColor
		case n == 38 || n == 48:
			consumed, c := parseExtendedColor(params, i+1)
			if consumed > 0 {
				if n == 38 {
					t.Cursor.Fg = c
				} else {
					t.Cursor.Bg = c
				}
				i += consumed
			}
		}
	}
}

// parseExtendedColor parses the "5;n" (indexed) or "2;r;g;b" (truecolor)
// tail following an SGR 38/48 code, starting at params[i].
func parseExtendedColor(params []int, i int) (consumed int, c grid.Color) {
	if i >= len(params) {
		return 0, grid.DefaultColor
	}
	switch params[i] {
	case 5:
		if i+1 < len(params) {
			return 2, grid.Indexed(uint8(params[i+1]))
		}
	case 2:
		if i+3 < len(params) {
			return 4, grid.RGB(uint8(params[i+1]), uint8(params[i+2]), uint8(params[i+3]))
		}
	}
	return 0, grid.DefaultColor
}

func (t *Terminal) resetSGR() {
	t.Cursor.Fg = grid.DefaultColor
	t.Cursor.Bg = grid.DefaultColor
	t.Cursor.Attrs = 0
}

// privateMode handles CSI ? Pm h/l (DEC private modes). Only 25 (cursor
// visibility) and 1049 (alternate screen) are in scope (spec.md §4.2).
func (t *Terminal) privateMode(params []int, set bool) {
	for _, mode := range params {
		switch mode {
		case 25:
			t.Cursor.Visible = set
		case 1049:
			if set {
				t.EnterAltScreen()
			} else {
				t.ExitAltScreen()
			}
		}
	}
}

// EnterAltScreen swaps the current grid, cursor, scroll region and saved-
// cursor into the alt slot and installs fresh defaults, per spec.md §4.2
// ("switching to the alt screen saves and clears state").
func (t *Terminal) EnterAltScreen() {
	if t.alt != nil {
		return
	}
	t.alt = &altState{
		grid:         t.Grid,
		cursor:       t.Cursor,
		scrollTop:    t.scrollTop,
		scrollBottom: t.scrollBottom,
		saved:        t.saved,
	}
	t.Grid = grid.New(t.Grid.Cols, t.Grid.Rows)
	t.Cursor = Cursor{Visible: true}
	t.scrollTop = 0
	t.scrollBottom = t.Grid.Rows
	t.saved = nil
	t.Dirty = true
}

// ExitAltScreen restores the saved primary grid, cursor, scroll region and
// saved-cursor exactly (spec.md §8 property 5).
func (t *Terminal) ExitAltScreen() {
	if t.alt == nil {
		return
	}
	t.Grid = t.alt.grid
	t.Cursor = t.alt.cursor
	t.scrollTop = t.alt.scrollTop
	t.scrollBottom = t.alt.scrollBottom
	t.saved = t.alt.saved
	t.alt = nil
	t.Dirty = true
}
