package copymode

import (
	"testing"

	"wtmux/internal/grid"
)

func fillGrid(cols, rows int, lines ...string) *grid.Grid {
	g := grid.New(cols, rows)
	for y, line := range lines {
		for x, r := range line {
			g.Set(x, y, grid.Cell{Ch: r, Width: 1})
		}
	}
	return g
}

func TestEnterSetsCursorAndClearsSelection(t *testing.T) {
	var s State
	s.StartSelection()
	s.Enter(3, 4)
	if !s.Active || s.Cursor != (Point{X: 3, Y: 4}) {
		t.Fatalf("got %+v", s)
	}
	if s.HasSelectionStart {
		t.Fatal("expected selection cleared on Enter")
	}
}

func TestExitResetsState(t *testing.T) {
	var s State
	s.Enter(1, 1)
	s.StartSelection()
	s.Exit()
	if s.Active || s.HasSelectionStart {
		t.Fatalf("got %+v, want zero value", s)
	}
}

func TestMoveClampsAndScrolls(t *testing.T) {
	var s State
	s.Enter(5, 5)
	s.Move(-10, 0, 20, 10)
	if s.Cursor.X != 0 {
		t.Fatalf("Cursor.X = %d, want clamped to 0", s.Cursor.X)
	}
	s.Move(100, 0, 20, 10)
	if s.Cursor.X != 19 {
		t.Fatalf("Cursor.X = %d, want clamped to 19", s.Cursor.X)
	}
	s.Move(0, -6, 20, 10)
	if s.Cursor.Y != 0 || s.ScrollOffset != 1 {
		t.Fatalf("after moving above top: Cursor.Y=%d ScrollOffset=%d", s.Cursor.Y, s.ScrollOffset)
	}
}

func TestPageMoveHalfAndFull(t *testing.T) {
	var s State
	s.PageMove(10, false, false)
	if s.ScrollOffset != 10 {
		t.Fatalf("ScrollOffset = %d, want 10", s.ScrollOffset)
	}
	s.PageMove(10, true, true)
	if s.ScrollOffset != 5 {
		t.Fatalf("ScrollOffset = %d, want 5", s.ScrollOffset)
	}
	s.PageMove(100, false, true)
	if s.ScrollOffset != 0 {
		t.Fatalf("ScrollOffset = %d, want saturated at 0", s.ScrollOffset)
	}
}

func TestCopySelectionOrdersEndpointsAndExits(t *testing.T) {
	g := fillGrid(10, 3, "one two", "second", "third row")
	var s State
	s.Enter(4, 2)
	s.StartSelection()
	s.Cursor = Point{X: 0, Y: 0}

	got := s.CopySelection(g)
	want := "one two\nsecond\nthird"
	if got != want {
		t.Fatalf("CopySelection = %q, want %q", got, want)
	}
	if s.Active {
		t.Fatal("expected copy mode to exit after CopySelection")
	}
}

func TestCopySelectionWithoutAnchorExits(t *testing.T) {
	var s State
	s.Enter(0, 0)
	if got := s.CopySelection(grid.New(5, 5)); got != "" {
		t.Fatalf("CopySelection without anchor = %q, want empty", got)
	}
	if s.Active {
		t.Fatal("expected Exit to have run")
	}
}

func TestSearchForwardThenNextAndPrev(t *testing.T) {
	g := fillGrid(10, 3, "needle one", "plain row", "needle two")
	var s State
	s.Enter(0, 0)

	if !s.SearchForward(g, "needle") {
		t.Fatal("expected SearchForward to find a match")
	}
	if s.Cursor.Y != 2 {
		t.Fatalf("Cursor.Y = %d, want 2", s.Cursor.Y)
	}

	if !s.SearchNext(g) {
		t.Fatal("expected SearchNext to wrap and find a match")
	}
	if s.Cursor.Y != 0 {
		t.Fatalf("Cursor.Y after SearchNext = %d, want 0", s.Cursor.Y)
	}

	if !s.SearchPrev(g) {
		t.Fatal("expected SearchPrev to find a match")
	}
	if s.Cursor.Y != 2 {
		t.Fatalf("Cursor.Y after SearchPrev = %d, want 2", s.Cursor.Y)
	}
}

func TestSearchBackward(t *testing.T) {
	g := fillGrid(10, 2, "needle one", "plain row")
	var s State
	s.Enter(0, 1)
	if !s.SearchBackward(g, "needle") {
		t.Fatal("expected SearchBackward to find a match")
	}
	if s.Cursor.Y != 0 {
		t.Fatalf("Cursor.Y = %d, want 0", s.Cursor.Y)
	}
}

func TestSearchNoQueryOrNoMatch(t *testing.T) {
	g := fillGrid(10, 1, "plain row")
	var s State
	s.Enter(0, 0)
	if s.SearchNext(g) {
		t.Fatal("expected SearchNext with no prior query to fail")
	}
	if s.SearchForward(g, "zzz") {
		t.Fatal("expected search for absent query to fail")
	}
}
