// Package layout implements the pane layout tree: an N-ary tree of splits
// carrying ratios, tiling a rectangular area into per-pane geometries
// (spec.md §4.3). Grounded on the shape of the teacher's tmux.LayoutNode
// (internal/tmux/layout.go), generalized from its binary Children[2] tree to
// an arbitrary-arity Split with a ratios slice, since the spec's invariant
// `|children| = |ratios| >= 2` has no binary-tree analogue.
package layout

import "wtmux/internal/ids"

// Orientation is the split axis.
type Orientation uint8

const (
	Horizontal Orientation = iota // side-by-side, split runs along columns
	Vertical                      // stacked, split runs along rows
)

// MinRatio is the floor any ratio is clamped to after a user resize
// (spec.md §3).
const MinRatio = 0.05

// Node is either a Leaf (Children is nil, Pane is set) or a Split (Children
// and Ratios are set).
type Node struct {
	Pane  ids.PaneID // valid when IsLeaf
	Orient Orientation
	Children []*Node
	Ratios   []float64
}

// IsLeaf reports whether n is a leaf pane.
func (n *Node) IsLeaf() bool {
	return n != nil && n.Children == nil
}

// Leaf builds a single-pane node.
func Leaf(id ids.PaneID) *Node {
	return &Node{Pane: id}
}

// split builds a 2-child split with even ratios.
func split(orient Orientation, children ...*Node) *Node {
	ratios := make([]float64, len(children))
	for i := range ratios {
		ratios[i] = 1.0 / float64(len(children))
	}
	return &Node{Orient: orient, Children: children, Ratios: ratios}
}

// PaneIDs returns every pane id in the tree, pre-order.
func (n *Node) PaneIDs() []ids.PaneID {
	var out []ids.PaneID
	n.walk(func(id ids.PaneID) { out = append(out, id) })
	return out
}

func (n *Node) walk(visit func(ids.PaneID)) {
	if n == nil {
		return
	}
	if n.IsLeaf() {
		visit(n.Pane)
		return
	}
	for _, c := range n.Children {
		c.walk(visit)
	}
}

// SplitPane implements spec.md §4.3 split_pane: locate target, insert newID
// alongside it as a new leaf oriented by orient.
func SplitPane(root *Node, target ids.PaneID, newID ids.PaneID, orient Orientation) *Node {
	if root == nil {
		return root
	}
	if root.IsLeaf() {
		if root.Pane == target {
			return split(orient, Leaf(target), Leaf(newID))
		}
		return root
	}

	for i, c := range root.Children {
		if !c.IsLeaf() || c.Pane != target {
			continue
		}
		if root.Orient == orient {
			half := root.Ratios[i] / 2
			newChildren := make([]*Node, 0, len(root.Children)+1)
			newRatios := make([]float64, 0, len(root.Ratios)+1)
			newChildren = append(newChildren, root.Children[:i]...)
			newRatios = append(newRatios, root.Ratios[:i]...)
			newChildren = append(newChildren, Leaf(target), Leaf(newID))
			newRatios = append(newRatios, half, half)
			newChildren = append(newChildren, root.Children[i+1:]...)
			newRatios = append(newRatios, root.Ratios[i+1:]...)
			root.Children = newChildren
			root.Ratios = newRatios
			return root
		}
		root.Children[i] = split(orient, Leaf(target), Leaf(newID))
		return root
	}

	for i, c := range root.Children {
		root.Children[i] = SplitPane(c, target, newID, orient)
	}
	return root
}

// RemovePane implements spec.md §4.3 remove_pane: delete the leaf, redistribute
// its ratio evenly across remaining siblings, and collapse any Split left
// with one child.
func RemovePane(root *Node, target ids.PaneID) *Node {
	root, _ = removePane(root, target)
	return root
}

func removePane(n *Node, target ids.PaneID) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	if n.IsLeaf() {
		if n.Pane == target {
			return nil, true
		}
		return n, false
	}

	for i, c := range n.Children {
		if c.IsLeaf() && c.Pane == target {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			removed := n.Ratios[i]
			n.Ratios = append(n.Ratios[:i], n.Ratios[i+1:]...)
			if len(n.Children) == 0 {
				return nil, true
			}
			share := removed / float64(len(n.Ratios))
			for j := range n.Ratios {
				n.Ratios[j] += share
			}
			if len(n.Children) == 1 {
				return n.Children[0], true
			}
			return n, true
		}
	}

	for i, c := range n.Children {
		next, removed := removePane(c, target)
		if !removed {
			continue
		}
		if next == nil {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			dropped := n.Ratios[i]
			n.Ratios = append(n.Ratios[:i], n.Ratios[i+1:]...)
			if len(n.Children) == 0 {
				return nil, true
			}
			share := dropped / float64(len(n.Ratios))
			for j := range n.Ratios {
				n.Ratios[j] += share
			}
		} else {
			n.Children[i] = next
		}
		if len(n.Children) == 1 {
			return n.Children[0], true
		}
		return n, true
	}
	return n, false
}

// SwapPanes exchanges the labels of a and b wherever they appear; the tree
// shape is left unchanged (spec.md §4.3).
func SwapPanes(root *Node, a, b ids.PaneID) {
	if root == nil {
		return
	}
	if root.IsLeaf() {
		switch root.Pane {
		case a:
			root.Pane = b
		case b:
			root.Pane = a
		}
		return
	}
	for _, c := range root.Children {
		SwapPanes(c, a, b)
	}
}
