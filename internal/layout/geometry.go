package layout

import (
	"sort"

	"wtmux/internal/ids"
)

// Rect is an inclusive pane geometry in cell coordinates.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) center() (float64, float64) {
	return float64(r.X) + float64(r.W)/2, float64(r.Y) + float64(r.H)/2
}

// CalculateGeometries tiles area across the tree in pre-order, partitioning
// each Split's extent along its axis by ratio with `round`, the last child
// absorbing the rounding remainder so children exactly tile the parent
// (spec.md §4.3).
func CalculateGeometries(root *Node, area Rect) map[ids.PaneID]Rect {
	out := make(map[ids.PaneID]Rect)
	calcInto(root, area, out)
	return out
}

func calcInto(n *Node, area Rect, out map[ids.PaneID]Rect) {
	if n == nil {
		return
	}
	if n.IsLeaf() {
		out[n.Pane] = area
		return
	}

	if n.Orient == Horizontal {
		widths := partition(area.W, n.Ratios)
		x := area.X
		for i, c := range n.Children {
			calcInto(c, Rect{X: x, Y: area.Y, W: widths[i], H: area.H}, out)
			x += widths[i]
		}
		return
	}
	heights := partition(area.H, n.Ratios)
	y := area.Y
	for i, c := range n.Children {
		calcInto(c, Rect{X: area.X, Y: y, W: area.W, H: heights[i]}, out)
		y += heights[i]
	}
}

// partition divides total by ratios using round, with the last entry
// absorbing the remainder.
func partition(total int, ratios []float64) []int {
	out := make([]int, len(ratios))
	sum := 0
	for i, r := range ratios[:len(ratios)-1] {
		v := roundInt(float64(total) * r)
		out[i] = v
		sum += v
	}
	out[len(ratios)-1] = total - sum
	return out
}

func roundInt(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

// Direction is a pane-navigation or resize direction.
type Direction uint8

const (
	Left Direction = iota
	Right
	Up
	Down
)

// Axis reports the orientation a direction moves along.
func (d Direction) Axis() Orientation {
	if d == Left || d == Right {
		return Horizontal
	}
	return Vertical
}

// FindAdjacentPane implements spec.md §4.3 find_adjacent_pane: among panes
// whose centre lies strictly in the requested half-plane, pick the minimum
// weighted distance 2*d_along + d_orthogonal, ties broken by iteration
// order.
func FindAdjacentPane(root *Node, target ids.PaneID, dir Direction, area Rect) (ids.PaneID, bool) {
	geoms := CalculateGeometries(root, area)
	targetRect, ok := geoms[target]
	if !ok {
		return "", false
	}
	tx, ty := targetRect.center()

	order := root.PaneIDs()
	var best ids.PaneID
	bestDist := 0.0
	found := false

	for _, id := range order {
		if id == target {
			continue
		}
		r, ok := geoms[id]
		if !ok {
			continue
		}
		cx, cy := r.center()

		var inHalfPlane bool
		var along, ortho float64
		switch dir {
		case Left:
			inHalfPlane = cx < tx
			along, ortho = tx-cx, absF(cy-ty)
		case Right:
			inHalfPlane = cx > tx
			along, ortho = cx-tx, absF(cy-ty)
		case Up:
			inHalfPlane = cy < ty
			along, ortho = ty-cy, absF(cx-tx)
		case Down:
			inHalfPlane = cy > ty
			along, ortho = cy-ty, absF(cx-tx)
		}
		if !inHalfPlane {
			continue
		}
		dist := 2*along + ortho
		if !found || dist < bestDist {
			best, bestDist, found = id, dist, true
		}
	}
	return best, found
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// ResizePane implements spec.md §4.3 resize_pane: find the deepest Split
// whose orientation matches direction's axis and that contains target as a
// direct child; adjust its ratio by +delta and its right/below or left/above
// neighbour by -delta (grow-right/down moves the next sibling, grow-left/up
// the previous one), limiting delta so neither ratio drops below MinRatio,
// then clamp to MinRatio and renormalise.
func ResizePane(root *Node, target ids.PaneID, dir Direction, delta float64) *Node {
	resizeIn(root, target, dir, delta)
	return root
}

func resizeIn(n *Node, target ids.PaneID, dir Direction, delta float64) bool {
	if n == nil || n.IsLeaf() {
		return false
	}

	idx := -1
	for i, c := range n.Children {
		if c.IsLeaf() && c.Pane == target {
			idx = i
			break
		}
	}

	if idx >= 0 {
		if n.Orient != dir.Axis() {
			return false
		}
		var neighbor int
		if dir == Right || dir == Down {
			neighbor = idx + 1
		} else {
			neighbor = idx - 1
		}
		if neighbor < 0 || neighbor >= len(n.Children) {
			return false
		}
		if n.Ratios[neighbor]-delta < MinRatio {
			delta = n.Ratios[neighbor] - MinRatio
		}
		if n.Ratios[idx]+delta < MinRatio {
			delta = MinRatio - n.Ratios[idx]
		}
		n.Ratios[idx] += delta
		n.Ratios[neighbor] -= delta
		clampRatios(n.Ratios)
		return true
	}

	for _, c := range n.Children {
		if resizeIn(c, target, dir, delta) {
			return true
		}
	}
	return false
}

func clampRatios(ratios []float64) {
	sum := 0.0
	for i, r := range ratios {
		if r < MinRatio {
			ratios[i] = MinRatio
		}
		sum += ratios[i]
	}
	if sum == 0 {
		return
	}
	for i := range ratios {
		ratios[i] /= sum
	}
}

// Preset identifies a named layout arrangement (spec.md §4.3).
type Preset string

const (
	PresetEvenHorizontal Preset = "even-horizontal"
	PresetEvenVertical   Preset = "even-vertical"
	PresetMainHorizontal Preset = "main-horizontal"
	PresetMainVertical   Preset = "main-vertical"
	PresetTiled          Preset = "tiled"
)

// BuildPreset rebuilds a layout tree from scratch for the given pane ids,
// applied in pane-id order (spec.md §4.3).
func BuildPreset(preset Preset, paneIDs []ids.PaneID) *Node {
	sorted := append([]ids.PaneID(nil), paneIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if len(sorted) == 0 {
		return nil
	}
	if len(sorted) == 1 {
		return Leaf(sorted[0])
	}

	switch preset {
	case PresetEvenVertical:
		return evenSplit(sorted, Vertical)
	case PresetMainHorizontal:
		return mainSplit(sorted, Vertical, Horizontal)
	case PresetMainVertical:
		return mainSplit(sorted, Horizontal, Vertical)
	case PresetTiled:
		return tiled(sorted)
	default: // PresetEvenHorizontal
		return evenSplit(sorted, Horizontal)
	}
}

func evenSplit(paneIDs []ids.PaneID, orient Orientation) *Node {
	children := make([]*Node, len(paneIDs))
	ratios := make([]float64, len(paneIDs))
	for i, id := range paneIDs {
		children[i] = Leaf(id)
		ratios[i] = 1.0 / float64(len(paneIDs))
	}
	return &Node{Orient: orient, Children: children, Ratios: ratios}
}

// mainSplit makes the first pane the main pane at 60% along mainOrient,
// with the rest evenly split across the remaining 40% along subOrient
// (spec.md §4.3: main-vertical/main-horizontal). Only `len==1` is special-
// cased by the caller (BuildPreset); two panes still get the 0.6/0.4 main
// split, matching main_horizontal/main_vertical in the original
// implementation this preset is grounded on.
func mainSplit(paneIDs []ids.PaneID, mainOrient, subOrient Orientation) *Node {
	return &Node{
		Orient:   mainOrient,
		Children: []*Node{Leaf(paneIDs[0]), rest(paneIDs[1:], subOrient)},
		Ratios:   []float64{0.6, 0.4},
	}
}

// rest builds the non-main side of a main-horizontal/main-vertical split: a
// single leaf when only one pane remains (a one-child Split would violate
// the layout tree's invariant that every Split has at least two children),
// otherwise an even split.
func rest(paneIDs []ids.PaneID, orient Orientation) *Node {
	if len(paneIDs) == 1 {
		return Leaf(paneIDs[0])
	}
	return evenSplit(paneIDs, orient)
}

// tiled splits panes into a top half of ceil(n/2) and a bottom half of
// floor(n/2), each row evenly split horizontally (spec.md §4.3).
func tiled(paneIDs []ids.PaneID) *Node {
	n := len(paneIDs)
	top := (n + 1) / 2
	topRow := evenSplit(paneIDs[:top], Horizontal)
	if top == n {
		return topRow
	}
	bottomRow := evenSplit(paneIDs[top:], Horizontal)
	topShare := float64(top) / float64(n)
	return &Node{
		Orient:   Vertical,
		Children: []*Node{topRow, bottomRow},
		Ratios:   []float64{topShare, 1 - topShare},
	}
}
