package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Node is one entry of a flattened decision tree. Leaves have Feature == -1
// and carry the class distribution in Value. Internal nodes send x to Left
// when x[Feature] <= Threshold.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      int       `json:"left,omitempty"`
	Right     int       `json:"right,omitempty"`
	Value     []float64 `json:"value,omitempty"`
}

// Tree is a decision tree stored as a node array rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t Tree) validate(nFeatures, nClasses int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("%w: empty tree", ErrInvalidModel)
	}
	for i, n := range t.Nodes {
		if n.Feature < 0 {
			if len(n.Value) != nClasses {
				return fmt.Errorf("%w: leaf %d has %d class weights, want %d", ErrInvalidModel, i, len(n.Value), nClasses)
			}
			continue
		}
		if n.Feature >= nFeatures {
			return fmt.Errorf("%w: node %d splits on feature %d of %d", ErrInvalidModel, i, n.Feature, nFeatures)
		}
		// children always point forward, which rules out cycles
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("%w: node %d has invalid children", ErrInvalidModel, i)
		}
	}
	return nil
}

// leaf returns the normalized class distribution reached by x.
func (t Tree) leaf(x []float64) []float64 {
	i := 0
	for t.Nodes[i].Feature >= 0 {
		n := t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	value := t.Nodes[i].Value
	out := make([]float64, len(value))
	var total float64
	for _, v := range value {
		total += v
	}
	if total == 0 {
		return out
	}
	for k, v := range value {
		out[k] = v / total
	}
	return out
}

// RandomForest averages the leaf distributions of its trees.
type RandomForest struct {
	classes   []int
	nFeatures int
	trees     []Tree
}

// NewRandomForest validates and builds a forest from its parts.
func NewRandomForest(classes []int, nFeatures int, trees []Tree) (*RandomForest, error) {
	if len(classes) == 0 || nFeatures <= 0 || len(trees) == 0 {
		return nil, fmt.Errorf("%w: random forest needs classes, features and trees", ErrInvalidModel)
	}
	for i, t := range trees {
		if err := t.validate(nFeatures, len(classes)); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &RandomForest{classes: classes, nFeatures: nFeatures, trees: trees}, nil
}

func (f *RandomForest) Name() string     { return "RandomForestClassifier" }
func (f *RandomForest) NumFeatures() int { return f.nFeatures }
func (f *RandomForest) Classes() []int   { return f.classes }

func (f *RandomForest) PredictProba(x []float64) ([]float64, error) {
	if err := checkDims(f.nFeatures, x); err != nil {
		return nil, err
	}
	proba := make([]float64, len(f.classes))
	for _, t := range f.trees {
		for k, p := range t.leaf(x) {
			proba[k] += p
		}
	}
	for k := range proba {
		proba[k] /= float64(len(f.trees))
	}
	return proba, nil
}

func (f *RandomForest) Predict(x []float64) (int, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return f.classes[argmax(proba)], nil
}

func (f *RandomForest) spec() ModelSpec {
	return ModelSpec{
		Type:        KindRandomForest,
		Classes:     f.classes,
		NumFeatures: f.nFeatures,
		Trees:       f.trees,
	}
}

// ForestOptions control FitRandomForest.
type ForestOptions struct {
	Trees       int
	MaxFeatures int // 0 means sqrt(n_features)
	Seed        int64
}

// FitRandomForest trains a forest of unpruned gini trees on bootstrap samples.
// Training is deterministic for a given seed.
func FitRandomForest(X [][]float64, y []int, opts ForestOptions) (*RandomForest, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("%w: %d rows and %d labels", ErrDimensionMismatch, len(X), len(y))
	}
	nFeatures := len(X[0])
	for _, row := range X {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("%w: ragged training rows", ErrDimensionMismatch)
		}
	}
	if opts.Trees <= 0 {
		opts.Trees = 100
	}
	if opts.MaxFeatures <= 0 || opts.MaxFeatures > nFeatures {
		opts.MaxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(nFeatures)))))
	}

	classes := uniqueSorted(y)
	index := make(map[int]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	labels := make([]int, len(y))
	for i, c := range y {
		labels[i] = index[c]
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	trees := make([]Tree, opts.Trees)
	for t := range trees {
		sample := make([]int, len(X))
		for i := range sample {
			sample[i] = rng.Intn(len(X))
		}
		g := &treeGrower{X: X, y: labels, nClasses: len(classes), maxFeatures: opts.MaxFeatures, rng: rng}
		g.grow(sample)
		trees[t] = Tree{Nodes: g.nodes}
	}
	return &RandomForest{classes: classes, nFeatures: nFeatures, trees: trees}, nil
}

type treeGrower struct {
	X           [][]float64
	y           []int
	nClasses    int
	maxFeatures int
	rng         *rand.Rand
	nodes       []Node
}

func (g *treeGrower) counts(idx []int) []float64 {
	c := make([]float64, g.nClasses)
	for _, i := range idx {
		c[g.y[i]]++
	}
	return c
}

func (g *treeGrower) grow(idx []int) int {
	id := len(g.nodes)
	g.nodes = append(g.nodes, Node{Feature: -1})

	counts := g.counts(idx)
	if len(idx) < 2 || gini(counts, float64(len(idx))) == 0 {
		g.nodes[id].Value = counts
		return id
	}

	feature, threshold, ok := g.bestSplit(idx)
	if !ok {
		g.nodes[id].Value = counts
		return id
	}

	var left, right []int
	for _, i := range idx {
		if g.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := g.grow(left)
	r := g.grow(right)
	g.nodes[id] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return id
}

func (g *treeGrower) bestSplit(idx []int) (int, float64, bool) {
	nFeatures := len(g.X[0])
	candidates := g.rng.Perm(nFeatures)[:g.maxFeatures]

	bestScore := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0
	sorted := make([]int, len(idx))
	for _, f := range candidates {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool { return g.X[sorted[a]][f] < g.X[sorted[b]][f] })

		left := make([]float64, g.nClasses)
		right := g.counts(sorted)
		n := float64(len(sorted))
		for k := 0; k < len(sorted)-1; k++ {
			c := g.y[sorted[k]]
			left[c]++
			right[c]--
			lo, hi := g.X[sorted[k]][f], g.X[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			nl := float64(k + 1)
			score := nl/n*gini(left, nl) + (n-nl)/n*gini(right, n-nl)
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = (lo + hi) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func gini(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	sum := 1.0
	for _, c := range counts {
		p := c / total
		sum -= p * p
	}
	return sum
}

func uniqueSorted(y []int) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
