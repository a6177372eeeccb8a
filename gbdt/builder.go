package gbdt

import (
	"github.com/YuminosukeSato/goboost/core/dataset"
	"github.com/YuminosukeSato/goboost/core/parallel"
	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// treeParams are the growth limits of a single tree.
type treeParams struct {
	MaxDepth       int
	MinChildWeight float64
	Lambda         float64
	Workers        int
}

// parallelWork is the node size (rows x features) below which split search
// and partitioning stay on the calling goroutine.
const parallelWork = 1 << 14

type stackItem struct {
	node    int
	lists   [][]int // node rows in ascending order of features[k], per k
	depth   int
	sumGrad float64
	sumHess float64
}

type buildStack []stackItem

func (s buildStack) Empty() bool       { return len(s) == 0 }
func (s *buildStack) Push(n stackItem) { *s = append(*s, n) }
func (s *buildStack) Pop() stackItem {
	d := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return d
}

type treeBuilder struct {
	ds       *dataset.Dataset
	grad     []float64
	hess     []float64
	features []int
	params   treeParams
	goLeft   []bool
}

// buildTree grows one tree over rows using only the listed features, which
// must be in ascending order. Leaf values are the raw Newton steps; the
// caller applies the learning rate.
func buildTree(ds *dataset.Dataset, grad, hess []float64, rows []int, features []int, p treeParams) (Tree, error) {
	if p.MaxDepth <= 0 {
		return Tree{}, errors.NewValidationError("max_depth", "must be > 0", p.MaxDepth)
	}
	if len(rows) == 0 || len(features) == 0 {
		var sumGrad, sumHess float64
		for _, r := range rows {
			sumGrad += grad[r]
			sumHess += hess[r]
		}
		return Tree{Nodes: []Node{newLeaf(sumGrad, sumHess, p.Lambda)}}, nil
	}

	b := &treeBuilder{
		ds:       ds,
		grad:     grad,
		hess:     hess,
		features: features,
		params:   p,
		goLeft:   make([]bool, ds.Rows()),
	}
	return b.build(rows), nil
}

func (b *treeBuilder) build(rows []int) Tree {
	inNode := make([]bool, b.ds.Rows())
	var sumGrad, sumHess float64
	for _, r := range rows {
		inNode[r] = true
	}
	for r, in := range inNode {
		if in {
			sumGrad += b.grad[r]
			sumHess += b.hess[r]
		}
	}

	rootLists := make([][]int, len(b.features))
	b.forFeatures(len(rows), func(k int) {
		list := make([]int, 0, len(rows))
		for _, r := range b.ds.SortedIndex(b.features[k]) {
			if inNode[r] {
				list = append(list, r)
			}
		}
		rootLists[k] = list
	})

	tree := Tree{Nodes: []Node{{}}}
	s := buildStack{{node: 0, lists: rootLists, depth: 0, sumGrad: sumGrad, sumHess: sumHess}}

	for !s.Empty() {
		w := s.Pop()

		if w.depth >= b.params.MaxDepth {
			tree.Nodes[w.node] = newLeaf(w.sumGrad, w.sumHess, b.params.Lambda)
			continue
		}

		split := b.bestSplit(w)
		if !split.Valid {
			tree.Nodes[w.node] = newLeaf(w.sumGrad, w.sumHess, b.params.Lambda)
			continue
		}

		left, right := b.partition(w.lists, split)
		leftIdx := len(tree.Nodes)
		tree.Nodes[w.node] = Node{
			NodeType:     SplitNode,
			SplitFeature: split.Feature,
			Threshold:    split.Threshold,
			LeftChild:    leftIdx,
			RightChild:   leftIdx + 1,
			Gain:         split.Gain,
			Cover:        w.sumHess,
		}
		tree.Nodes = append(tree.Nodes, Node{}, Node{})

		s.Push(stackItem{
			node:    leftIdx + 1,
			lists:   right,
			depth:   w.depth + 1,
			sumGrad: w.sumGrad - split.LeftGrad,
			sumHess: w.sumHess - split.LeftHess,
		})
		s.Push(stackItem{
			node:    leftIdx,
			lists:   left,
			depth:   w.depth + 1,
			sumGrad: split.LeftGrad,
			sumHess: split.LeftHess,
		})
	}
	return tree
}

// bestSplit evaluates every feature independently and reduces the per
// feature winners in feature order.
func (b *treeBuilder) bestSplit(w stackItem) splitCandidate {
	candidates := make([]splitCandidate, len(b.features))
	nodeRows := len(w.lists[0])
	b.forFeatureRanges(nodeRows, func(start, end int) {
		var bins []HistogramBin
		for k := start; k < end; k++ {
			hist := buildHistogram(b.ds, b.features[k], w.lists[k], b.grad, b.hess, bins)
			candidates[k] = hist.bestSplit(w.sumGrad, w.sumHess, b.params)
			bins = hist.Bins
		}
	})

	var best splitCandidate
	for _, c := range candidates {
		if c.better(best) {
			best = c
		}
	}
	return best
}

// partition splits every per-feature row list into its left and right part,
// keeping the relative order so the children stay sorted.
func (b *treeBuilder) partition(lists [][]int, split splitCandidate) (left, right [][]int) {
	nLeft := 0
	for _, r := range lists[0] {
		goLeft := b.ds.At(r, split.Feature) <= split.Threshold
		b.goLeft[r] = goLeft
		if goLeft {
			nLeft++
		}
	}
	nRight := len(lists[0]) - nLeft

	left = make([][]int, len(lists))
	right = make([][]int, len(lists))
	b.forFeatures(len(lists[0]), func(k int) {
		l := make([]int, 0, nLeft)
		r := make([]int, 0, nRight)
		for _, row := range lists[k] {
			if b.goLeft[row] {
				l = append(l, row)
			} else {
				r = append(r, row)
			}
		}
		left[k], right[k] = l, r
	})
	return left, right
}

func (b *treeBuilder) forFeatureRanges(nodeRows int, fn func(start, end int)) {
	nFeatures := len(b.features)
	if nodeRows*nFeatures < parallelWork {
		fn(0, nFeatures)
		return
	}
	parallel.Parallelize(nFeatures, b.params.Workers, fn)
}

func (b *treeBuilder) forFeatures(nodeRows int, fn func(k int)) {
	b.forFeatureRanges(nodeRows, func(start, end int) {
		for k := start; k < end; k++ {
			fn(k)
		}
	})
}

func newLeaf(sumGrad, sumHess, lambda float64) Node {
	return Node{
		NodeType:     LeafNode,
		SplitFeature: -1,
		LeftChild:    -1,
		RightChild:   -1,
		LeafValue:    leafValue(sumGrad, sumHess, lambda),
		Cover:        sumHess,
	}
}
