// Package grid implements the 2D cell buffer that backs one terminal
// screen: mutation, scrolling, resize and substring search, grounded on the
// ring-buffer line store in the teacher's panestate.terminalState.
package grid

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// WidthOf returns the terminal column width of r: 0 for combining marks
// (which the caller should fold onto the preceding cell instead of emitting
// as standalone width-0 cells), 1 for most glyphs, 2 for wide CJK glyphs.
func WidthOf(r rune) int {
	return runewidth.RuneWidth(r)
}

// Grid is a rows x cols array of cells. Every row always has exactly Cols
// cells; scrolling and resize preserve that invariant (spec.md §3).
type Grid struct {
	Cols int
	Rows int
	rows [][]Cell
}

// New creates a blank grid of the given size.
func New(cols, rows int) *Grid {
	g := &Grid{Cols: cols, Rows: rows}
	g.rows = make([][]Cell, rows)
	for i := range g.rows {
		g.rows[i] = blankRow(cols)
	}
	return g
}

func blankRow(cols int) []Cell {
	row := make([]Cell, cols)
	for i := range row {
		row[i] = BlankCell
	}
	return row
}

// Get returns the cell at (col,row). Out-of-range access returns BlankCell.
func (g *Grid) Get(col, row int) Cell {
	if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return BlankCell
	}
	return g.rows[row][col]
}

// Set writes a cell at (col,row). Out of range is a no-op.
func (g *Grid) Set(col, row int, c Cell) {
	if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return
	}
	g.rows[row][col] = c
}

// ClearRow resets an entire row to blank cells.
func (g *Grid) ClearRow(row int) {
	if row < 0 || row >= g.Rows {
		return
	}
	g.rows[row] = blankRow(g.Cols)
}

// Clear resets every cell in the grid to blank.
func (g *Grid) Clear() {
	for i := range g.rows {
		g.rows[i] = blankRow(g.Cols)
	}
}

// ClearRegion blanks cells from (startCol,startRow) through (endCol,endRow)
// inclusive, in row-major reading order.
func (g *Grid) ClearRegion(startCol, startRow, endCol, endRow int) {
	if startRow > endRow || (startRow == endRow && startCol > endCol) {
		return
	}
	for r := startRow; r <= endRow && r < g.Rows; r++ {
		from, to := 0, g.Cols-1
		if r == startRow {
			from = startCol
		}
		if r == endRow {
			to = endCol
		}
		for c := from; c <= to && c < g.Cols; c++ {
			if c >= 0 {
				g.rows[r][c] = BlankCell
			}
		}
	}
}

// EraseToEOL blanks from col through the end of row, inclusive.
func (g *Grid) EraseToEOL(col, row int) {
	g.ClearRegion(col, row, g.Cols-1, row)
}

// EraseToBOL blanks from the start of row through col, inclusive.
func (g *Grid) EraseToBOL(col, row int) {
	g.ClearRegion(0, row, col, row)
}

// ScrollUp removes row `top` and pushes a blank row in at `bot-1`, shifting
// the rows between up by one. The half-open range is [top,bot).
func (g *Grid) ScrollUp(top, bot int) {
	if top < 0 || bot > g.Rows || top >= bot-1 {
		if top >= 0 && bot <= g.Rows && top == bot-1 {
			g.ClearRow(top)
		}
		return
	}
	copy(g.rows[top:bot-1], g.rows[top+1:bot])
	g.rows[bot-1] = blankRow(g.Cols)
}

// ScrollDown is the inverse of ScrollUp: a blank row appears at `top` and
// everything below (up to bot) shifts down by one, discarding the last row.
func (g *Grid) ScrollDown(top, bot int) {
	if top < 0 || bot > g.Rows || top >= bot-1 {
		if top >= 0 && bot <= g.Rows && top == bot-1 {
			g.ClearRow(top)
		}
		return
	}
	copy(g.rows[top+1:bot], g.rows[top:bot-1])
	g.rows[top] = blankRow(g.Cols)
}

// InsertLines inserts n blank lines at row, within the scroll region
// [row,bottom), shifting existing lines down and discarding overflow.
func (g *Grid) InsertLines(row, n, bottom int) {
	if row < 0 || bottom > g.Rows || row >= bottom {
		return
	}
	for i := 0; i < n; i++ {
		g.ScrollDown(row, bottom)
	}
}

// DeleteLines removes n lines at row, within the scroll region
// [row,bottom), pulling lines below up and padding blanks at the bottom.
func (g *Grid) DeleteLines(row, n, bottom int) {
	if row < 0 || bottom > g.Rows || row >= bottom {
		return
	}
	for i := 0; i < n; i++ {
		g.ScrollUp(row, bottom)
	}
}

// InsertCells inserts n blank cells at (col,row), shifting cells right;
// cells pushed past the last column are discarded.
func (g *Grid) InsertCells(col, row, n int) {
	if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return
	}
	line := g.rows[row]
	if n > g.Cols-col {
		n = g.Cols - col
	}
	copy(line[col+n:], line[col:g.Cols-n])
	for i := col; i < col+n && i < g.Cols; i++ {
		line[i] = BlankCell
	}
}

// DeleteCells removes n cells at (col,row), shifting cells left and padding
// the vacated tail with blanks.
func (g *Grid) DeleteCells(col, row, n int) {
	if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return
	}
	line := g.rows[row]
	if n > g.Cols-col {
		n = g.Cols - col
	}
	copy(line[col:g.Cols-n], line[col+n:])
	for i := g.Cols - n; i < g.Cols; i++ {
		if i >= col {
			line[i] = BlankCell
		}
	}
}

// EraseCells blanks n cells at (col,row) in place, without shifting.
func (g *Grid) EraseCells(col, row, n int) {
	if row < 0 || row >= g.Rows {
		return
	}
	end := col + n
	if end > g.Cols {
		end = g.Cols
	}
	for i := col; i < end; i++ {
		if i >= 0 {
			g.rows[row][i] = BlankCell
		}
	}
}

// Resize truncates or pads the grid to newCols x newRows, preserving
// top-left content (spec.md §4.1).
func (g *Grid) Resize(newCols, newRows int) {
	if newCols <= 0 {
		newCols = 1
	}
	if newRows <= 0 {
		newRows = 1
	}
	newRowsData := make([][]Cell, newRows)
	for i := 0; i < newRows; i++ {
		row := blankRow(newCols)
		if i < len(g.rows) {
			old := g.rows[i]
			n := newCols
			if len(old) < n {
				n = len(old)
			}
			copy(row[:n], old[:n])
		}
		newRowsData[i] = row
	}
	g.rows = newRowsData
	g.Cols = newCols
	g.Rows = newRows
}

// RowText concatenates a row's characters, skipping width-0 continuation
// cells, and right-trims trailing spaces.
func (g *Grid) RowText(row int) string {
	if row < 0 || row >= g.Rows {
		return ""
	}
	var b strings.Builder
	for _, c := range g.rows[row] {
		if c.Width == 0 {
			continue
		}
		b.WriteRune(c.Ch)
	}
	return strings.TrimRight(b.String(), " ")
}

// Search performs a case-insensitive substring search over RowText.
// Forward search starts at (startCol+1,startRow) to find the *next*
// occurrence, scans to the end of the grid, then wraps to (0,0) up to (but
// not including) the starting position. Backward search is the mirror.
// Queries are never split across rows (spec.md §4.1).
func (g *Grid) Search(query string, startCol, startRow int, forward bool) (col, row int, found bool) {
	if query == "" || g.Rows == 0 {
		return 0, 0, false
	}
	q := strings.ToLower(query)

	find := func(r int) (int, bool) {
		text := strings.ToLower(g.RowText(r))
		idx := strings.Index(text, q)
		if idx < 0 {
			return 0, false
		}
		return idx, true
	}
	findAfter := func(r, afterCol int) (int, bool) {
		text := strings.ToLower(g.RowText(r))
		if afterCol >= len(text) {
			return 0, false
		}
		idx := strings.Index(text[afterCol:], q)
		if idx < 0 {
			return 0, false
		}
		return idx + afterCol, true
	}
	findBefore := func(r, beforeCol int) (int, bool) {
		text := strings.ToLower(g.RowText(r))
		limit := beforeCol
		if limit > len(text) {
			limit = len(text)
		}
		idx := strings.LastIndex(text[:limit], q)
		if idx < 0 {
			return 0, false
		}
		return idx, true
	}

	if forward {
		if c, ok := findAfter(startRow, startCol+1); ok {
			return c, startRow, true
		}
		for r := startRow + 1; r < g.Rows; r++ {
			if c, ok := find(r); ok {
				return c, r, true
			}
		}
		for r := 0; r < startRow; r++ {
			if c, ok := find(r); ok {
				return c, r, true
			}
		}
		if c, ok := findBefore(startRow, startCol+1); ok {
			return c, startRow, true
		}
		return 0, 0, false
	}

	if c, ok := findBefore(startRow, startCol); ok {
		return c, startRow, true
	}
	for r := startRow - 1; r >= 0; r-- {
		if c, ok := find(r); ok {
			return c, r, true
		}
	}
	for r := g.Rows - 1; r > startRow; r-- {
		if c, ok := find(r); ok {
			return c, r, true
		}
	}
	if c, ok := findBefore(startRow, startCol); ok {
		return c, startRow, true
	}
	return 0, 0, false
}
