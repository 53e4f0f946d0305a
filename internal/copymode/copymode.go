// Package copymode implements the per-client copy-mode overlay: cursor
// movement and scrollback over a frozen pane grid, rectangular selection
// into the paste buffer, and incremental search (spec.md §4.8). The teacher
// has no equivalent overlay state machine (its panestate package has no
// selection/search concept), so this is grounded on the cursor/selection
// shape described directly in the spec and on grid.Grid.Search, which the
// grid package (internal/grid, adapted from the teacher's panestate ring
// buffer) already implements.
package copymode

import (
	"strings"

	"wtmux/internal/grid"
)

// Point is a cursor/selection endpoint in pane-local grid coordinates.
type Point struct {
	X, Y int
}

// State is one client's copy-mode overlay (spec.md §3 Copy Mode).
type State struct {
	Active bool

	Cursor      Point
	ScrollOffset int

	HasSelectionStart bool
	SelectionStart    Point
	HasSelectionEnd   bool
	SelectionEnd      Point

	SearchQuery     string
	lastSearchForward bool
}

// Enter activates copy mode with the cursor at the pane's current position.
func (s *State) Enter(cursorX, cursorY int) {
	s.Active = true
	s.Cursor = Point{X: cursorX, Y: cursorY}
	s.ScrollOffset = 0
	s.HasSelectionStart = false
	s.HasSelectionEnd = false
}

// Exit leaves copy mode, discarding selection and search state.
func (s *State) Exit() {
	*s = State{}
}

// Move shifts the cursor by (dx,dy), clamped to the pane bounds; moving past
// the top row increments scroll offset, past the bottom decrements it,
// saturating at 0 (spec.md §4.8).
func (s *State) Move(dx, dy, cols, rows int) {
	s.Cursor.X += dx
	s.Cursor.Y += dy

	if s.Cursor.X < 0 {
		s.Cursor.X = 0
	}
	if s.Cursor.X >= cols {
		s.Cursor.X = cols - 1
	}
	if s.Cursor.Y < 0 {
		s.ScrollOffset++
		s.Cursor.Y = 0
	}
	if s.Cursor.Y >= rows {
		s.Cursor.Y = rows - 1
		if s.ScrollOffset > 0 {
			s.ScrollOffset--
		}
	}
}

// PageMove adjusts the scroll offset by whole or half pages (spec.md §4.8:
// PageUp/Down and HalfPageUp/Down).
func (s *State) PageMove(rows int, half bool, down bool) {
	delta := rows
	if half {
		delta = rows / 2
	}
	if down {
		s.ScrollOffset -= delta
	} else {
		s.ScrollOffset += delta
	}
	if s.ScrollOffset < 0 {
		s.ScrollOffset = 0
	}
}

// SnapTop/SnapBottom/SnapStartOfLine/SnapEndOfLine implement the cursor-snap
// shortcuts of spec.md §4.8.
func (s *State) SnapTop()                    { s.Cursor.Y = 0 }
func (s *State) SnapBottom(rows int)         { s.Cursor.Y = rows - 1 }
func (s *State) SnapStartOfLine()            { s.Cursor.X = 0 }
func (s *State) SnapEndOfLine(cols int)      { s.Cursor.X = cols - 1 }

// StartSelection anchors the selection at the current cursor.
func (s *State) StartSelection() {
	s.HasSelectionStart = true
	s.SelectionStart = s.Cursor
	s.HasSelectionEnd = false
}

// CancelSelection clears any anchor (spec.md §4.8).
func (s *State) CancelSelection() {
	s.HasSelectionStart = false
	s.HasSelectionEnd = false
}

// CopySelection copies the inclusive rectangle from anchor to the current
// cursor, in reading order, from g into the returned string: each row is
// right-trimmed and rows are joined with \n. Exits copy mode on return
// (spec.md §4.8).
func (s *State) CopySelection(g *grid.Grid) string {
	if !s.HasSelectionStart {
		s.Exit()
		return ""
	}
	start, end := s.SelectionStart, s.Cursor
	if end.Y < start.Y || (end.Y == start.Y && end.X < start.X) {
		start, end = end, start
	}

	var lines []string
	for y := start.Y; y <= end.Y; y++ {
		text := g.RowText(y)
		from, to := 0, len([]rune(text))
		if y == start.Y {
			from = start.X
		}
		if y == end.Y {
			to = end.X + 1
		}
		runes := []rune(text)
		if from > len(runes) {
			from = len(runes)
		}
		if to > len(runes) {
			to = len(runes)
		}
		if from > to {
			from = to
		}
		lines = append(lines, strings.TrimRight(string(runes[from:to]), " "))
	}
	result := strings.Join(lines, "\n")
	s.Exit()
	return result
}

// SearchForward and SearchBackward set the search direction and query, then
// jump to the next match via g.Search (spec.md §4.8).
func (s *State) SearchForward(g *grid.Grid, query string) bool {
	s.SearchQuery = query
	s.lastSearchForward = true
	return s.jump(g)
}

func (s *State) SearchBackward(g *grid.Grid, query string) bool {
	s.SearchQuery = query
	s.lastSearchForward = false
	return s.jump(g)
}

// SearchNext/SearchPrev repeat the last search in its recorded direction, or
// the reverse of it, respectively (spec.md §4.8).
func (s *State) SearchNext(g *grid.Grid) bool {
	return s.jumpDir(g, s.lastSearchForward)
}

func (s *State) SearchPrev(g *grid.Grid) bool {
	return s.jumpDir(g, !s.lastSearchForward)
}

func (s *State) jump(g *grid.Grid) bool {
	return s.jumpDir(g, s.lastSearchForward)
}

func (s *State) jumpDir(g *grid.Grid, forward bool) bool {
	if s.SearchQuery == "" {
		return false
	}
	col, row, found := g.Search(s.SearchQuery, s.Cursor.X, s.Cursor.Y, forward)
	if !found {
		return false
	}
	s.Cursor = Point{X: col, Y: row}
	return true
}
