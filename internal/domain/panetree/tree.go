package panetree

import (
	"github.com/GriffinCanCode/menuterm/backend/internal/shared/id"
)

// DefaultRatio is the share given to the original pane when it is split
const DefaultRatio = 0.5

// SplitResult is the outcome of a successful split
type SplitResult struct {
	Root      Node
	NewPaneID string
}

// Split replaces the leaf paneID with Branch(direction, leaf, fresh leaf) and
// rebalances the tree along direction. The fresh leaf is always Second.
// Returns false when paneID is not a leaf of root.
func Split(root Node, paneID string, direction Direction) (SplitResult, bool) {
	return SplitWithID(root, paneID, direction, id.NewPaneID().String())
}

// SplitWithID is Split with a caller-chosen id for the new pane. It refuses ids
// already present in the tree.
func SplitWithID(root Node, paneID string, direction Direction, newPaneID string) (SplitResult, bool) {
	if newPaneID == "" || Contains(root, newPaneID) {
		return SplitResult{}, false
	}

	fresh := &Leaf{ID: newPaneID}
	replaced, ok := replaceLeaf(root, paneID, func(l *Leaf) Node {
		return NewBranch(direction, l, fresh, DefaultRatio)
	})
	if !ok {
		return SplitResult{}, false
	}

	return SplitResult{
		Root:      Rebalance(replaced, direction),
		NewPaneID: newPaneID,
	}, true
}

// Remove deletes the leaf paneID, collapsing its parent branch into the sibling.
// Returns nil when root is that single leaf (the last pane can't be removed),
// and root itself when paneID is not found.
func Remove(root Node, paneID string) Node {
	switch n := root.(type) {
	case *Leaf:
		if n.ID == paneID {
			return nil
		}
		return n
	case *Branch:
		if isLeaf(n.First, paneID) {
			return n.Second
		}
		if isLeaf(n.Second, paneID) {
			return n.First
		}

		if Contains(n.First, paneID) {
			first := Remove(n.First, paneID)
			if first == nil {
				return n.Second
			}
			return n.with(n.Ratio, first, n.Second)
		}
		if Contains(n.Second, paneID) {
			second := Remove(n.Second, paneID)
			if second == nil {
				return n.First
			}
			return n.with(n.Ratio, n.First, second)
		}
	}
	return root
}

// UpdateBranchRatio sets the ratio of branchID. No clamping is applied.
// Returns root unchanged if the branch doesn't exist.
func UpdateBranchRatio(root Node, branchID string, ratio float64) Node {
	updated, _ := replaceBranch(root, branchID, func(b *Branch) Node {
		return b.with(ratio, b.First, b.Second)
	})
	return updated
}

// UpdatePaneSession binds a PTY session id to the leaf paneID.
// Returns root unchanged if the leaf doesn't exist.
func UpdatePaneSession(root Node, paneID, sessionID string) Node {
	updated, _ := replaceLeaf(root, paneID, func(l *Leaf) Node {
		if l.SessionID == sessionID {
			return l
		}
		return &Leaf{ID: l.ID, SessionID: sessionID}
	})
	return updated
}

// FindNextPaneAfterClose picks the pane to focus once closedPaneID is removed:
// its sibling (first leaf of the sibling when it is a branch), else any other
// leaf. Returns false when no other pane exists.
func FindNextPaneAfterClose(root Node, closedPaneID string) (string, bool) {
	if sibling := findSibling(root, closedPaneID); sibling != nil {
		return FirstLeaf(sibling).ID, true
	}

	for _, leaf := range Leaves(root) {
		if leaf.ID != closedPaneID {
			return leaf.ID, true
		}
	}
	return "", false
}

// Leaves returns all leaves in depth-first order, First before Second
func Leaves(root Node) []*Leaf {
	var leaves []*Leaf
	walk(root, func(l *Leaf) {
		leaves = append(leaves, l)
	})
	return leaves
}

// LeafIDs returns the ids of all leaves in depth-first order
func LeafIDs(root Node) []string {
	var ids []string
	walk(root, func(l *Leaf) {
		ids = append(ids, l.ID)
	})
	return ids
}

// CountLeaves returns the number of leaves under root
func CountLeaves(root Node) int {
	switch n := root.(type) {
	case *Leaf:
		return 1
	case *Branch:
		return CountLeaves(n.First) + CountLeaves(n.Second)
	}
	return 0
}

// FirstLeaf returns the depth-first leftmost leaf
func FirstLeaf(root Node) *Leaf {
	for {
		switch n := root.(type) {
		case *Leaf:
			return n
		case *Branch:
			root = n.First
		default:
			return nil
		}
	}
}

// FindLeaf looks up a leaf by id
func FindLeaf(root Node, paneID string) (*Leaf, bool) {
	var found *Leaf
	walk(root, func(l *Leaf) {
		if found == nil && l.ID == paneID {
			found = l
		}
	})
	return found, found != nil
}

// FindBranch looks up a branch by id
func FindBranch(root Node, branchID string) (*Branch, bool) {
	b, ok := root.(*Branch)
	if !ok {
		return nil, false
	}
	if b.ID == branchID {
		return b, true
	}
	if found, ok := FindBranch(b.First, branchID); ok {
		return found, true
	}
	return FindBranch(b.Second, branchID)
}

// Contains reports whether a leaf with paneID exists under root
func Contains(root Node, paneID string) bool {
	_, ok := FindLeaf(root, paneID)
	return ok
}

func walk(root Node, fn func(*Leaf)) {
	switch n := root.(type) {
	case *Leaf:
		fn(n)
	case *Branch:
		walk(n.First, fn)
		walk(n.Second, fn)
	}
}

func isLeaf(n Node, paneID string) bool {
	l, ok := n.(*Leaf)
	return ok && l.ID == paneID
}

func findSibling(root Node, paneID string) Node {
	b, ok := root.(*Branch)
	if !ok {
		return nil
	}
	if isLeaf(b.First, paneID) {
		return b.Second
	}
	if isLeaf(b.Second, paneID) {
		return b.First
	}
	if sibling := findSibling(b.First, paneID); sibling != nil {
		return sibling
	}
	return findSibling(b.Second, paneID)
}

// replaceLeaf rebuilds the path to the first leaf matching paneID.
func replaceLeaf(root Node, paneID string, fn func(*Leaf) Node) (Node, bool) {
	switch n := root.(type) {
	case *Leaf:
		if n.ID == paneID {
			return fn(n), true
		}
	case *Branch:
		if first, ok := replaceLeaf(n.First, paneID, fn); ok {
			return n.with(n.Ratio, first, n.Second), true
		}
		if second, ok := replaceLeaf(n.Second, paneID, fn); ok {
			return n.with(n.Ratio, n.First, second), true
		}
	}
	return root, false
}

func replaceBranch(root Node, branchID string, fn func(*Branch) Node) (Node, bool) {
	b, ok := root.(*Branch)
	if !ok {
		return root, false
	}
	if b.ID == branchID {
		return fn(b), true
	}
	if first, ok := replaceBranch(b.First, branchID, fn); ok {
		return b.with(b.Ratio, first, b.Second), true
	}
	if second, ok := replaceBranch(b.Second, branchID, fn); ok {
		return b.with(b.Ratio, b.First, second), true
	}
	return root, false
}
