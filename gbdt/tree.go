package gbdt

import (
	"math"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// NodeType distinguishes leaves from internal split nodes.
type NodeType uint8

const (
	// LeafNode is a terminal node carrying a value.
	LeafNode NodeType = iota
	// SplitNode routes rows with row[SplitFeature] <= Threshold to the left.
	SplitNode
)

// Node is one entry of a tree's node arena. Children are indices into the
// same arena; a leaf has both children set to -1.
type Node struct {
	NodeType     NodeType
	SplitFeature int
	Threshold    float64
	LeftChild    int
	RightChild   int
	LeafValue    float64 // already multiplied by the learning rate
	Gain         float64 // split gain, 0 for leaves
	Cover        float64 // hessian sum of the training rows reaching the node
}

// IsLeaf returns true if the node is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.NodeType == LeafNode
}

// Tree is an immutable regression tree with the root at index 0. Class is
// the output group the tree contributes to (always 0 for regression).
type Tree struct {
	Class int
	Nodes []Node
}

// Predict returns the leaf value reached by features.
func (t *Tree) Predict(features []float64) float64 {
	return t.Nodes[t.leafIndex(features)].LeafValue
}

func (t *Tree) leafIndex(features []float64) int {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.NodeType == LeafNode {
			return i
		}
		if features[n.SplitFeature] <= n.Threshold {
			i = n.LeftChild
		} else {
			i = n.RightChild
		}
	}
}

// NumLeaves returns the number of leaves.
func (t *Tree) NumLeaves() int {
	leaves := 0
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			leaves++
		}
	}
	return leaves
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	depth := make([]int, len(t.Nodes))
	maxDepth := 0
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.IsLeaf() {
			if depth[i] > maxDepth {
				maxDepth = depth[i]
			}
			continue
		}
		depth[n.LeftChild] = depth[i] + 1
		depth[n.RightChild] = depth[i] + 1
	}
	return maxDepth
}

// scale multiplies every leaf value by factor.
func (t *Tree) scale(factor float64) {
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			t.Nodes[i].LeafValue *= factor
		}
	}
}

// validate checks the structural invariants a loaded tree must satisfy:
// children point strictly forward inside the arena, every node except the
// root has exactly one parent, split features are in range and no value is
// NaN. Forward-only children rule out cycles.
func (t *Tree) validate(numFeatures, numClasses int) error {
	if len(t.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	if t.Class < 0 || t.Class >= numClasses {
		return errors.Newf("tree class %d out of range [0, %d)", t.Class, numClasses)
	}
	parents := make([]int, len(t.Nodes))
	for i := range t.Nodes {
		n := &t.Nodes[i]
		switch n.NodeType {
		case LeafNode:
			if n.LeftChild != -1 || n.RightChild != -1 {
				return errors.Newf("leaf %d has children", i)
			}
			if math.IsNaN(n.LeafValue) || math.IsInf(n.LeafValue, 0) {
				return errors.Newf("leaf %d has non-finite value", i)
			}
		case SplitNode:
			if n.SplitFeature < 0 || n.SplitFeature >= numFeatures {
				return errors.Newf("node %d splits on feature %d, model has %d", i, n.SplitFeature, numFeatures)
			}
			if math.IsNaN(n.Threshold) {
				return errors.Newf("node %d has NaN threshold", i)
			}
			for _, c := range []int{n.LeftChild, n.RightChild} {
				if c <= i || c >= len(t.Nodes) {
					return errors.Newf("node %d has invalid child %d", i, c)
				}
				parents[c]++
			}
		default:
			return errors.Newf("node %d has unknown type %d", i, n.NodeType)
		}
	}
	for i := 1; i < len(parents); i++ {
		if parents[i] != 1 {
			return errors.Newf("node %d has %d parents", i, parents[i])
		}
	}
	return nil
}
