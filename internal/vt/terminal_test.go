package vt

import (
	"testing"

	"wtmux/internal/grid"
)

func TestWritePrintableTextAdvancesCursor(t *testing.T) {
	term := New(10, 3)
	term.Write([]byte("hi"))
	if term.Cursor.Col != 2 || term.Cursor.Row != 0 {
		t.Fatalf("cursor = (%d,%d), want (2,0)", term.Cursor.Col, term.Cursor.Row)
	}
	if got := term.Grid.RowText(0); got != "hi" {
		t.Fatalf("RowText(0) = %q, want hi", got)
	}
}

func TestWriteLineFeedAndCarriageReturn(t *testing.T) {
	term := New(10, 3)
	term.Write([]byte("ab\r\ncd"))
	if term.Grid.RowText(0) != "ab" || term.Grid.RowText(1) != "cd" {
		t.Fatalf("rows = %q / %q", term.Grid.RowText(0), term.Grid.RowText(1))
	}
	if term.Cursor.Col != 2 || term.Cursor.Row != 1 {
		t.Fatalf("cursor = (%d,%d), want (2,1)", term.Cursor.Col, term.Cursor.Row)
	}
}

func TestWriteWrapsAtRightMargin(t *testing.T) {
	term := New(3, 3)
	term.Write([]byte("abcd"))
	if term.Grid.RowText(0) != "abc" || term.Grid.RowText(1) != "d" {
		t.Fatalf("rows = %q / %q", term.Grid.RowText(0), term.Grid.RowText(1))
	}
}

func TestScrollsWhenLineFeedAtBottomRow(t *testing.T) {
	term := New(5, 2)
	term.Write([]byte("one\r\ntwo\r\nthree"))
	if term.Grid.RowText(0) != "two" || term.Grid.RowText(1) != "three" {
		t.Fatalf("rows after scroll = %q / %q", term.Grid.RowText(0), term.Grid.RowText(1))
	}
}

func TestCSICursorPosition(t *testing.T) {
	term := New(10, 10)
	term.Write([]byte("\x1b[3;5H"))
	if term.Cursor.Row != 2 || term.Cursor.Col != 4 {
		t.Fatalf("cursor = (%d,%d), want (4,2)", term.Cursor.Col, term.Cursor.Row)
	}
}

func TestCSIEraseDisplayMode2ClearsEverything(t *testing.T) {
	term := New(5, 2)
	term.Write([]byte("hello\r\nworld"))
	term.Write([]byte("\x1b[2J"))
	if term.Grid.RowText(0) != "" || term.Grid.RowText(1) != "" {
		t.Fatalf("rows after erase = %q / %q, want empty", term.Grid.RowText(0), term.Grid.RowText(1))
	}
}

func TestCSISGRBoldAndReset(t *testing.T) {
	term := New(10, 2)
	term.Write([]byte("\x1b[1mx\x1b[0my"))
	c1 := term.Grid.Get(0, 0)
	c2 := term.Grid.Get(1, 0)
	if !c1.Attrs.Has(grid.AttrBold) {
		t.Fatalf("first cell attrs = %v, want bold", c1.Attrs)
	}
	if c2.Attrs.Has(grid.AttrBold) {
		t.Fatalf("second cell attrs = %v, want bold cleared", c2.Attrs)
	}
}

func TestScrollRegionConstrain(t *testing.T) {
	term := New(5, 5)
	term.Write([]byte("\x1b[2;4r"))
	if term.scrollTop != 1 || term.scrollBottom != 4 {
		t.Fatalf("scroll region = [%d,%d), want [1,4)", term.scrollTop, term.scrollBottom)
	}
}

func TestAltScreenRoundTripRestoresPrimary(t *testing.T) {
	term := New(5, 3)
	term.Write([]byte("primary"))
	term.Write([]byte("\x1b[?1049h"))
	if !term.InAltScreen() {
		t.Fatal("expected alt screen to be active")
	}
	term.Write([]byte("alt text"))
	term.Write([]byte("\x1b[?1049l"))
	if term.InAltScreen() {
		t.Fatal("expected alt screen to be inactive after exit")
	}
	if got := term.Grid.RowText(0); got != "prima" {
		t.Fatalf("RowText(0) after alt round trip = %q, want prima", got)
	}
}

func TestAltScreenPreservesScrollRegionAcrossRoundTrip(t *testing.T) {
	term := New(5, 5)
	term.Write([]byte("\x1b[2;4r"))
	term.Write([]byte("\x1b[?1049h\x1b[?1049l"))
	if term.scrollTop != 1 || term.scrollBottom != 4 {
		t.Fatalf("scroll region after alt round trip = [%d,%d), want [1,4)", term.scrollTop, term.scrollBottom)
	}
}

func TestResizeTruncatesGrid(t *testing.T) {
	term := New(10, 5)
	term.Write([]byte("hello"))
	term.Resize(3, 5)
	if term.Grid.Cols != 3 {
		t.Fatalf("Cols = %d, want 3", term.Grid.Cols)
	}
	if got := term.Grid.RowText(0); got != "hel" {
		t.Fatalf("RowText(0) = %q, want hel", got)
	}
}

func TestSaveRestoreCursor(t *testing.T) {
	term := New(10, 10)
	term.Write([]byte("\x1b[5;5H\x1b[s"))
	term.Write([]byte("\x1b[1;1H"))
	if term.Cursor.Row != 0 || term.Cursor.Col != 0 {
		t.Fatalf("cursor after move = (%d,%d), want (0,0)", term.Cursor.Col, term.Cursor.Row)
	}
	term.Write([]byte("\x1b[u"))
	if term.Cursor.Row != 4 || term.Cursor.Col != 4 {
		t.Fatalf("cursor after restore = (%d,%d), want (4,4)", term.Cursor.Col, term.Cursor.Row)
	}
}

func TestByteAtATimeFeedMatchesChunked(t *testing.T) {
	data := []byte("hi\x1b[1mbold\x1b[0mplain\r\nsecond line")
	chunked := New(20, 5)
	chunked.Write(data)

	perByte := New(20, 5)
	for _, b := range data {
		perByte.Write([]byte{b})
	}

	for row := 0; row < 5; row++ {
		if chunked.Grid.RowText(row) != perByte.Grid.RowText(row) {
			t.Fatalf("row %d mismatch: chunked=%q perByte=%q", row, chunked.Grid.RowText(row), perByte.Grid.RowText(row))
		}
	}
	if chunked.Cursor != perByte.Cursor {
		t.Fatalf("cursor mismatch: chunked=%+v perByte=%+v", chunked.Cursor, perByte.Cursor)
	}
}
