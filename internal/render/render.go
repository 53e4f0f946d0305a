// Package render composes one client's full screen: every visible pane's
// Terminal grid, pane borders, and the status bar, into the raw ANSI bytes
// written back to that client (spec.md §4.7). Grounded on the cursor
// positioning/escape-sequence helpers (ansi.Move, ansi.ShowCursor) used
// throughout the pack's terminal-UI repos (andyrewlee-amux,
// yashas-salankimatt-sidecar) via github.com/charmbracelet/x/ansi; SGR
// sequence construction is hand-written here (mirroring how internal/vt
// parses the same sequences) since no example repo exercises an SGR
// *builder* from that library.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"wtmux/internal/config"
	"wtmux/internal/grid"
	"wtmux/internal/ids"
	"wtmux/internal/layout"
	"wtmux/internal/mux"
)

// sgrState tracks the last emitted pen so Compose only writes SGR codes
// when they change between cells (spec.md §4.7).
type sgrState struct {
	fg, bg grid.Color
	attrs  grid.Attrs
	set    bool
}

// Compose renders sess's active window for client into ANSI bytes sized to
// client's (cols,rows), including borders and the status bar (spec.md
// §4.7). now drives the status bar's clock expansion.
func Compose(sess *mux.Session, client *mux.ClientRegistration, cfg *config.Config, now time.Time) []byte {
	var b strings.Builder
	b.WriteString(ansi.HideCursor)

	w := sess.ActiveWindow()
	if w == nil {
		b.WriteString(ansi.ShowCursor)
		return []byte(b.String())
	}

	zoomed := w.ZoomedPane != ""
	var geoms map[ids.PaneID]layout.Rect
	if zoomed {
		geoms = map[ids.PaneID]layout.Rect{w.ZoomedPane: w.Area}
	} else {
		geoms = layout.CalculateGeometries(w.Layout, w.Area)
	}

	var pen sgrState
	for id, rect := range geoms {
		p, ok := w.Panes[id]
		if !ok {
			continue
		}
		renderPane(&b, &pen, p, rect)
	}

	if !zoomed && len(w.Panes) > 1 {
		renderBorders(&b, &pen, w, geoms)
	}

	renderStatusBar(&b, &pen, sess, cfg, client.Cols, client.Rows, now)

	if active, ok := w.Panes[w.ActivePane]; ok {
		rect := geoms[w.ActivePane]
		if zoomed {
			rect = w.Area
		}
		b.WriteString(ansi.Move(rect.Y+active.Term.Cursor.Row+1, rect.X+active.Term.Cursor.Col+1))
		if active.Term.Cursor.Visible {
			b.WriteString(ansi.ShowCursor)
		}
	} else {
		b.WriteString(ansi.ShowCursor)
	}

	return []byte(b.String())
}

func renderPane(b *strings.Builder, pen *sgrState, p *mux.Pane, rect layout.Rect) {
	g := p.Term.Grid
	maxRow := rect.H
	if g.Rows < maxRow {
		maxRow = g.Rows
	}
	maxCol := rect.W
	if g.Cols < maxCol {
		maxCol = g.Cols
	}
	for row := 0; row < maxRow; row++ {
		b.WriteString(ansi.Move(rect.Y+row+1, rect.X+1))
		for col := 0; col < maxCol; col++ {
			cell := g.Get(col, row)
			if cell.Width == 0 {
				continue
			}
			writeSGR(b, pen, cell.Fg, cell.Bg, cell.Attrs)
			b.WriteRune(cell.Ch)
		}
	}
}

// renderBorders overlays box-drawing characters on the right and bottom
// edges of every pane whose edge is interior to the window area, active
// pane in green, others grey (spec.md §4.7).
func renderBorders(b *strings.Builder, pen *sgrState, w *mux.Window, geoms map[ids.PaneID]layout.Rect) {
	for id, rect := range geoms {
		color := grid.Indexed(8) // grey
		if id == w.ActivePane {
			color = grid.Indexed(2) // green
		}
		right := rect.X + rect.W
		if right < w.Area.X+w.Area.W {
			for row := rect.Y; row < rect.Y+rect.H; row++ {
				b.WriteString(ansi.Move(row+1, right+1))
				writeSGR(b, pen, color, grid.DefaultColor, 0)
				b.WriteRune('│')
			}
		}
		bottom := rect.Y + rect.H
		if bottom < w.Area.Y+w.Area.H {
			b.WriteString(ansi.Move(bottom+1, rect.X+1))
			writeSGR(b, pen, color, grid.DefaultColor, 0)
			b.WriteString(strings.Repeat("─", rect.W))
		}
	}
}

// renderStatusBar renders the status line on the client's last row:
// left-string + per-window labels + right-string right-aligned, active
// windows inverted (spec.md §6).
func renderStatusBar(b *strings.Builder, pen *sgrState, sess *mux.Session, cfg *config.Config, cols, rows int, now time.Time) {
	if !cfg.Options.Status || rows < 1 {
		return
	}
	left := expandTokens(cfg.Options.StatusLeft, sess, now)
	right := expandTokens(cfg.Options.StatusRight, sess, now)

	var labels strings.Builder
	for i, win := range sess.Windows {
		if i > 0 {
			labels.WriteString(" ")
		}
		label := fmt.Sprintf("%d:%s", win.Index, win.Name)
		if win == sess.ActiveWindow() {
			labels.WriteString("\x1b[7m" + label + "*" + "\x1b[27m")
		} else {
			labels.WriteString(label)
		}
	}

	mid := labels.String()
	plain := left + stripSGR(mid) + right
	pad := cols - ansi.StringWidth(plain)
	if pad < 0 {
		pad = 0
	}

	b.WriteString(ansi.Move(rows, 1))
	b.WriteString(ansi.Reset)
	b.WriteString(left)
	b.WriteString(mid)
	b.WriteString(strings.Repeat(" ", pad))
	b.WriteString(right)
	b.WriteString(ansi.Reset)
	*pen = sgrState{}
}

func stripSGR(s string) string {
	return ansi.Strip(s)
}

// expandTokens substitutes the status bar tokens of spec.md §6.
func expandTokens(s string, sess *mux.Session, now time.Time) string {
	r := strings.NewReplacer(
		"#{session_name}", sess.Name,
		"%H", pad2(now.Hour()),
		"%M", pad2(now.Minute()),
		"%Y", strconv.Itoa(now.Year()),
		"%m", pad2(int(now.Month())),
		"%d", pad2(now.Day()),
	)
	return r.Replace(s)
}

func pad2(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}

// writeSGR emits an SGR sequence only when the pen actually changes
// (spec.md §4.7: "writing only changed SGR state between cells").
func writeSGR(b *strings.Builder, pen *sgrState, fg, bg grid.Color, attrs grid.Attrs) {
	if pen.set && pen.fg == fg && pen.bg == bg && pen.attrs == attrs {
		return
	}
	*pen = sgrState{fg: fg, bg: bg, attrs: attrs, set: true}

	codes := []string{"0"}
	if attrs.Has(grid.AttrBold) {
		codes = append(codes, "1")
	}
	if attrs.Has(grid.AttrItalic) {
		codes = append(codes, "3")
	}
	if attrs.Has(grid.AttrUnderline) {
		codes = append(codes, "4")
	}
	if attrs.Has(grid.AttrBlink) {
		codes = append(codes, "5")
	}
	if attrs.Has(grid.AttrReverse) {
		codes = append(codes, "7")
	}
	if attrs.Has(grid.AttrHidden) {
		codes = append(codes, "8")
	}
	if attrs.Has(grid.AttrStrikethrough) {
		codes = append(codes, "9")
	}
	codes = append(codes, colorCodes(fg, true)...)
	codes = append(codes, colorCodes(bg, false)...)
	b.WriteString("\x1b[" + strings.Join(codes, ";") + "m")
}

func colorCodes(c grid.Color, foreground bool) []string {
	switch c.Kind {
	case grid.ColorIndexed:
		if c.Idx < 8 {
			base := 30
			if !foreground {
				base = 40
			}
			return []string{strconv.Itoa(base + int(c.Idx))}
		}
		if c.Idx < 16 {
			base := 90
			if !foreground {
				base = 100
			}
			return []string{strconv.Itoa(base + int(c.Idx) - 8)}
		}
		tag := "38"
		if !foreground {
			tag = "48"
		}
		return []string{tag, "5", strconv.Itoa(int(c.Idx))}
	case grid.ColorRGB:
		tag := "38"
		if !foreground {
			tag = "48"
		}
		return []string{tag, "2", strconv.Itoa(int(c.R)), strconv.Itoa(int(c.G)), strconv.Itoa(int(c.B))}
	default:
		return nil
	}
}
