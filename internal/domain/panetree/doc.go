// Package panetree implements the persistent binary tree that describes how a
// tab's terminal panes are arranged.
//
// A tree is made of two node kinds:
//   - *Leaf: a concrete terminal pane, optionally bound to a PTY session
//   - *Branch: a split container dividing its extent between First and Second
//
// Trees are never mutated in place. Every operation returns a new root that
// shares unchanged subtrees with the input, so a previously obtained root stays
// a valid snapshot. Operations signal "nothing changed" by returning the input
// root itself; callers compare with == to detect no-ops.
//
// Example Usage:
//
//	root := panetree.NewLeaf()
//	res, ok := panetree.Split(root, root.ID, panetree.Horizontal)
//	// res.Root is Branch(horizontal, root, res.NewPaneID, ratio=0.5)
//	next, _ := panetree.FindNextPaneAfterClose(res.Root, res.NewPaneID)
//	root2 := panetree.Remove(res.Root, res.NewPaneID)
package panetree
