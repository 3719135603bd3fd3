package panetree

// Rebalance recomputes ratios so that every run of same-direction branches
// divides its extent evenly among its members.
//
// A run is a maximal chain of branches split along direction. A child split
// along the other axis counts as a single member of the run and keeps its own
// ratio; its inner same-direction branches start runs of their own.
func Rebalance(root Node, direction Direction) Node {
	b, ok := root.(*Branch)
	if !ok {
		return root
	}

	first := Rebalance(b.First, direction)
	second := Rebalance(b.Second, direction)

	if b.Direction != direction {
		return b.with(b.Ratio, first, second)
	}

	total := runSize(b, direction)
	left := runSize(b.First, direction)
	return b.with(float64(left)/float64(total), first, second)
}

// runSize counts the members of the run rooted at n.
func runSize(n Node, direction Direction) int {
	b, ok := n.(*Branch)
	if !ok || b.Direction != direction {
		return 1
	}
	return runSize(b.First, direction) + runSize(b.Second, direction)
}

// Share returns the fraction of the root's extent along direction occupied by
// the node with nodeID. Perpendicular branches pass their full extent to both
// children. Returns 0 when the node doesn't exist.
func Share(root Node, nodeID string, direction Direction) float64 {
	if root == nil {
		return 0
	}
	if root.NodeID() == nodeID {
		return 1
	}
	b, ok := root.(*Branch)
	if !ok {
		return 0
	}

	firstWeight, secondWeight := 1.0, 1.0
	if b.Direction == direction {
		firstWeight, secondWeight = b.Ratio, 1-b.Ratio
	}
	if s := Share(b.First, nodeID, direction); s > 0 {
		return firstWeight * s
	}
	return secondWeight * Share(b.Second, nodeID, direction)
}
