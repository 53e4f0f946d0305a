package mux

import (
	"wtmux/internal/ids"
	"wtmux/internal/layout"
	"wtmux/internal/pty"
)

// Window owns a set of panes tiled by a layout tree (spec.md §3, §4.4).
type Window struct {
	ID             ids.WindowID
	Name           string
	Index          int
	Panes          map[ids.PaneID]*Pane
	Layout         *layout.Node
	ActivePane     ids.PaneID
	LastActivePane ids.PaneID
	ZoomedPane     ids.PaneID // empty when not zoomed
	PresetIndex    int
	Area           layout.Rect
	SessionID      ids.SessionID
}

var presetOrder = []layout.Preset{
	layout.PresetEvenHorizontal,
	layout.PresetEvenVertical,
	layout.PresetMainHorizontal,
	layout.PresetMainVertical,
	layout.PresetTiled,
}

// NewWindow creates a window with a single pane running cmd.
func NewWindow(id ids.WindowID, index int, cfg pty.Config, area layout.Rect, sessionID ids.SessionID) (*Window, error) {
	p, err := NewPane(cfg, nil, sessionID)
	if err != nil {
		return nil, err
	}
	w := &Window{
		ID:         id,
		Index:      index,
		Panes:      map[ids.PaneID]*Pane{p.ID: p},
		Layout:     layout.Leaf(p.ID),
		ActivePane: p.ID,
		Area:       area,
		SessionID:  sessionID,
	}
	w.applyLayout()
	return w, nil
}

// applyLayout resizes every pane to match its current geometry (spec.md
// §4.4 Window.split_pane: "reapplies the layout by issuing resize on every
// pane to match the new geometries").
func (w *Window) applyLayout() {
	geoms := layout.CalculateGeometries(w.Layout, w.Area)
	for id, p := range w.Panes {
		r, ok := geoms[id]
		if !ok {
			continue
		}
		cols, rows := r.W, r.H
		if cols < 1 {
			cols = 1
		}
		if rows < 1 {
			rows = 1
		}
		p.Resize(cols, rows)
	}
}

// SplitPane computes the active pane's geometry, halves it along the split
// axis, creates a new pane sized to that half, adds it to the layout next
// to the active pane, makes it active and reapplies the layout (spec.md
// §4.4).
func (w *Window) SplitPane(cfg pty.Config, horizontal bool) (*Pane, error) {
	var parentEnv []string
	if parent, ok := w.Panes[w.ActivePane]; ok {
		parentEnv = parent.Env
	}
	p, err := NewPane(cfg, parentEnv, w.SessionID)
	if err != nil {
		return nil, err
	}
	orient := layout.Vertical
	if horizontal {
		orient = layout.Horizontal
	}
	w.Layout = layout.SplitPane(w.Layout, w.ActivePane, p.ID, orient)
	w.Panes[p.ID] = p
	w.LastActivePane = w.ActivePane
	w.ActivePane = p.ID
	w.applyLayout()
	return p, nil
}

// ClosePane removes id from the panes map and layout; if it was active,
// elects any remaining pane active. Returns true iff the window is now
// empty (spec.md §4.4).
func (w *Window) ClosePane(id ids.PaneID) bool {
	p, ok := w.Panes[id]
	if !ok {
		return len(w.Panes) == 0
	}
	p.Close()
	delete(w.Panes, id)
	w.Layout = layout.RemovePane(w.Layout, id)
	if w.ZoomedPane == id {
		w.ZoomedPane = ""
	}
	if w.LastActivePane == id {
		w.LastActivePane = ""
	}

	if len(w.Panes) == 0 {
		return true
	}
	if w.ActivePane == id {
		for pid := range w.Panes {
			w.ActivePane = pid
			break
		}
	}
	w.applyLayout()
	return false
}

// ToggleZoom marks the active pane zoomed, or clears zoom if one is already
// set (spec.md §4.4).
func (w *Window) ToggleZoom() {
	if w.ZoomedPane != "" {
		w.ZoomedPane = ""
		w.applyLayout()
		return
	}
	w.ZoomedPane = w.ActivePane
	if p, ok := w.Panes[w.ZoomedPane]; ok {
		p.Resize(w.Area.W, w.Area.H)
	}
}

// NextLayout cycles through the five presets in order, rebuilding the tree
// from the current pane set (spec.md §4.4).
func (w *Window) NextLayout() {
	w.PresetIndex = (w.PresetIndex + 1) % len(presetOrder)
	paneIDs := make([]ids.PaneID, 0, len(w.Panes))
	for id := range w.Panes {
		paneIDs = append(paneIDs, id)
	}
	w.Layout = layout.BuildPreset(presetOrder[w.PresetIndex], paneIDs)
	w.applyLayout()
}

// ResizePaneDirection resizes the active pane by amountCells cells in dir,
// translated into a layout ratio delta (spec.md §4.4).
func (w *Window) ResizePaneDirection(dir layout.Direction, amountCells int) {
	total := w.Area.W
	if dir.Axis() == layout.Vertical {
		total = w.Area.H
	}
	if total <= 0 {
		return
	}
	delta := float64(amountCells) / float64(total)
	w.Layout = layout.ResizePane(w.Layout, w.ActivePane, dir, delta)
	w.applyLayout()
}

// SelectPaneDirection moves the active pane selection toward dir; when no
// pane lies in that direction the selection is left unchanged.
func (w *Window) SelectPaneDirection(dir layout.Direction) {
	if next, ok := layout.FindAdjacentPane(w.Layout, w.ActivePane, dir, w.Area); ok {
		w.LastActivePane = w.ActivePane
		w.ActivePane = next
	}
}

// SwapPanes exchanges a and b's positions in the layout tree.
func (w *Window) SwapPanes(a, b ids.PaneID) {
	layout.SwapPanes(w.Layout, a, b)
}

// Resize propagates a new window area to the layout and every pane
// (spec.md §4.4 Session.resize).
func (w *Window) Resize(area layout.Rect) {
	w.Area = area
	w.applyLayout()
}
