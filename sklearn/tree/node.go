// Package tree provides regression trees stored as flat node slices.
//
// Trees are grown from first and second order statistics (gradient g and
// hessian h per sample). Squared-error CART is the special case g = -y,
// h = 1, lambda = 0; gradient boosting supplies its own statistics. Both
// share Grow and Tree.Predict.
package tree

// Node is a single node of a Tree.
type Node struct {
	// Node identification
	NodeID     int // Index of the node in Tree.Nodes
	LeftChild  int // Left child node ID (-1 if leaf)
	RightChild int // Right child node ID (-1 if leaf)

	// Split information (for non-leaf nodes)
	SplitFeature int     // Feature index used for splitting
	Threshold    float64 // x <= Threshold goes left
	Gain         float64 // Split gain (reduction in loss)

	// Leaf information (for leaf nodes)
	LeafValue float64 // Value at leaf node, already shrunk
	LeafCount int     // Number of training samples at the node
}

// IsLeaf returns true if the node is a leaf node
func (n *Node) IsLeaf() bool {
	return n.LeftChild == -1 && n.RightChild == -1
}

// Tree is a binary regression tree. Nodes[0] is the root.
type Tree struct {
	Nodes []Node
}

// Predict returns the leaf value reached by x.
// NaN compares false against every threshold and therefore goes right.
func (t *Tree) Predict(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	id := 0
	for {
		node := &t.Nodes[id]
		if node.IsLeaf() {
			return node.LeafValue
		}
		if x[node.SplitFeature] <= node.Threshold {
			id = node.LeftChild
		} else {
			id = node.RightChild
		}
	}
}

// NumLeaves counts the leaf nodes.
func (t *Tree) NumLeaves() int {
	n := 0
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			n++
		}
	}
	return n
}

// Depth returns the length of the longest root to leaf path. A single leaf has depth 0.
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(id int) int
	walk = func(id int) int {
		n := &t.Nodes[id]
		if n.IsLeaf() {
			return 0
		}
		return 1 + max(walk(n.LeftChild), walk(n.RightChild))
	}
	return walk(0)
}
