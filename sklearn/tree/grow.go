package tree

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// minGainEps guards against splits whose gain is floating point noise.
const minGainEps = 1e-10

// GrowParams controls tree growth.
type GrowParams struct {
	MaxDepth        int     // 0 => no limit; the root has depth 0
	MinSamplesSplit int     // nodes with fewer samples become leaves
	MinChildWeight  float64 // minimum hessian sum in each child
	Lambda          float64 // L2 penalty on leaf values
	MinGain         float64 // a split must gain strictly more than this
	MaxFeatures     int     // 0 => all features are candidates at each node
	Shrinkage       float64 // multiplies leaf values; 0 => 1
}

// SplitInfo contains information about a potential split
type SplitInfo struct {
	Feature   int
	Threshold float64
	Gain      float64
	LeftCount int
}

// Columns copies X into feature-major slices, the layout Grow reads.
func Columns(X mat.Matrix) [][]float64 {
	_, c := X.Dims()
	cols := make([][]float64, c)
	for j := range cols {
		cols[j] = mat.Col(nil, j, X)
	}
	return cols
}

// Grow builds a tree over the samples in idx. Duplicate indices are allowed
// and count once per occurrence, which is how bootstrap samples are passed.
// rng is only consulted when MaxFeatures restricts the candidate set.
func Grow(cols [][]float64, grad, hess []float64, idx []int, p GrowParams, rng *rand.Rand) Tree {
	g := &grower{cols: cols, grad: grad, hess: hess, p: p, rng: rng}
	if g.p.Shrinkage == 0 {
		g.p.Shrinkage = 1
	}
	if g.p.MinSamplesSplit < 2 {
		g.p.MinSamplesSplit = 2
	}
	work := append([]int(nil), idx...)
	g.build(work, 0)
	return Tree{Nodes: g.nodes}
}

type grower struct {
	cols       [][]float64
	grad, hess []float64
	p          GrowParams
	rng        *rand.Rand
	nodes      []Node
}

func (g *grower) sums(idx []int) (float64, float64) {
	var G, H float64
	for _, i := range idx {
		G += g.grad[i]
		H += g.hess[i]
	}
	return G, H
}

// build appends the subtree for idx in pre-order and returns its root ID.
func (g *grower) build(idx []int, depth int) int {
	id := len(g.nodes)
	G, H := g.sums(idx)
	g.nodes = append(g.nodes, Node{
		NodeID:     id,
		LeftChild:  -1,
		RightChild: -1,
		LeafValue:  g.leafValue(G, H),
		LeafCount:  len(idx),
	})

	if (g.p.MaxDepth > 0 && depth >= g.p.MaxDepth) || len(idx) < g.p.MinSamplesSplit {
		return id
	}
	split, ok := g.findBestSplit(idx, G, H)
	if !ok {
		return id
	}

	left, right := g.partition(idx, split)
	n := &g.nodes[id]
	n.SplitFeature = split.Feature
	n.Threshold = split.Threshold
	n.Gain = split.Gain

	l := g.build(left, depth+1)
	r := g.build(right, depth+1)
	g.nodes[id].LeftChild = l
	g.nodes[id].RightChild = r
	return id
}

// leafValue is the optimal weight -G/(H+lambda), shrunk.
func (g *grower) leafValue(G, H float64) float64 {
	d := H + g.p.Lambda
	if d == 0 {
		return 0
	}
	return -G / d * g.p.Shrinkage
}

func (g *grower) candidates() []int {
	c := len(g.cols)
	if g.p.MaxFeatures <= 0 || g.p.MaxFeatures >= c || g.rng == nil {
		out := make([]int, c)
		for j := range out {
			out[j] = j
		}
		return out
	}
	return g.rng.Perm(c)[:g.p.MaxFeatures]
}

func (g *grower) findBestSplit(idx []int, G, H float64) (SplitInfo, bool) {
	best := SplitInfo{Gain: math.Inf(-1)}
	parent := G * G / (H + g.p.Lambda)
	order := make([]int, len(idx))

	for _, f := range g.candidates() {
		x := g.cols[f]
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool { return x[order[a]] < x[order[b]] })

		var GL, HL float64
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			GL += g.grad[i]
			HL += g.hess[i]
			// Skip if same value
			if x[i] == x[order[k+1]] {
				continue
			}
			GR, HR := G-GL, H-HL
			if HL < g.p.MinChildWeight || HR < g.p.MinChildWeight {
				continue
			}
			gain := 0.5 * (GL*GL/(HL+g.p.Lambda) + GR*GR/(HR+g.p.Lambda) - parent)
			if gain > best.Gain {
				best = SplitInfo{
					Feature:   f,
					Threshold: midpoint(x[i], x[order[k+1]]),
					Gain:      gain,
					LeftCount: k + 1,
				}
			}
		}
	}
	if math.IsInf(best.Gain, -1) || best.Gain <= g.p.MinGain+minGainEps {
		return SplitInfo{}, false
	}
	return best, true
}

func (g *grower) partition(idx []int, s SplitInfo) ([]int, []int) {
	x := g.cols[s.Feature]
	left := make([]int, 0, s.LeftCount)
	right := make([]int, 0, len(idx)-s.LeftCount)
	for _, i := range idx {
		if x[i] <= s.Threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

// midpoint keeps b on the right even when a and b are adjacent floats.
func midpoint(a, b float64) float64 {
	m := a/2 + b/2
	if m >= b {
		return a
	}
	return m
}
