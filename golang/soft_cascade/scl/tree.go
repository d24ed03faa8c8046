package scl

import (
	"math"
	"math/rand"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

const (
	//minPrior stops splitting of nodes that are nearly pure.
	minPrior = 1e-3
	//maxLogOdds bounds the absolute log-odds stored in a node.
	maxLogOdds = 4.0
	//labelEpsilon is the smallest log-odds labelled as positive.
	labelEpsilon = 1e-7
)

//Threshold of a split node, both as a bin index and as a value in the feature space.
type Threshold struct {
	Bin   uint8   `json:"bin"`
	Value float64 `json:"value"`
}

//TreeNode is a node of a tree. Trees are stored in arrays: Child is the index of the left child,
//the right child follows it, and Child is 0 for leaves. FeatureIndex and Threshold are
//meaningful for split nodes only.
type TreeNode struct {
	FeatureIndex int       `json:"feature_index"`
	Threshold    Threshold `json:"threshold"`
	Child        int       `json:"child"`
	LogOdds      float64   `json:"log_odds"`
	Weight       float64   `json:"weight"`
	Error        float64   `json:"error"`
	Depth        int       `json:"depth"`
}

//IsLeaf returns whether the node has no children.
func (node TreeNode) IsLeaf() bool {
	return node.Child == 0
}

//Label converts the log-odds of the node into a polarity, +1 or -1.
func (node TreeNode) Label() int {
	if node.LogOdds > labelEpsilon {
		return 1
	}
	return -1
}

//Tree is a trained tree. The root is the node 0.
type Tree struct {
	Nodes      []TreeNode `json:"nodes"`
	FeatureDim int        `json:"feature_dim"`
}

//Labels returns the polarity of every node, in node order.
func (tree *Tree) Labels() []int {
	labels := make([]int, len(tree.Nodes))
	for k, node := range tree.Nodes {
		labels[k] = node.Label()
	}
	return labels
}

//MaxDepth returns the depth of the deepest node.
func (tree *Tree) MaxDepth() int {
	depth := 0
	for _, node := range tree.Nodes {
		if node.Depth > depth {
			depth = node.Depth
		}
	}
	return depth
}

//NumLeaves returns the number of leaves.
func (tree *Tree) NumLeaves() int {
	n := 0
	for _, node := range tree.Nodes {
		if node.IsLeaf() {
			n++
		}
	}
	return n
}

//NewTree grows one tree breadth-first on the weighted sample set.
func NewTree(set SampleSet, params TreeParams) (*Tree, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	featureDim, nNeg, nPos, err := set.validatedDimensions(params.NBins)
	if err != nil {
		return nil, err
	}

	builder := newTreeBuilder(set, params, featureDim, nNeg, nPos)
	return builder.build()
}

//treeBuilder holds the state of one tree growth. Nodes are addressed by index and processed in
//the order they are created.
type treeBuilder struct {
	set         SampleSet
	params      TreeParams
	featureDim  int
	nodes       []TreeNode
	weights     *weightArena
	fids        []int
	nCandidates int
	rng         *rand.Rand
	threadsNum  int
}

func newTreeBuilder(set SampleSet, params TreeParams, featureDim, nNeg, nPos int) *treeBuilder {
	capacity := 2 * (nNeg + nPos)
	b := &treeBuilder{
		set:        set,
		params:     params,
		featureDim: featureDim,
		nodes:      make([]TreeNode, 1, capacity),
		weights:    newWeightArena(capacity),
		fids:       make([]int, featureDim),
		rng:        rand.New(rand.NewSource(params.Seed)),
		threadsNum: effectiveThreads(params.NThreads),
	}
	for f := range b.fids {
		b.fids[f] = f
	}
	b.nCandidates = int(float64(featureDim) * params.FracFtrs)
	if b.nCandidates < 1 {
		b.nCandidates = 1
	}

	b.weights.put(0, append([]float64(nil), set.NegWeights...), append([]float64(nil), set.PosWeights...))
	return b
}

func (b *treeBuilder) build() (*Tree, error) {
	for k := 0; k < len(b.nodes); k++ {
		if err := b.processNode(k); err != nil {
			return nil, err
		}
	}

	nodes := make([]TreeNode, len(b.nodes))
	copy(nodes, b.nodes)
	tree := &Tree{Nodes: nodes, FeatureDim: b.featureDim}
	Logger().Debug("tree grown",
		zap.Int("nodes", len(nodes)),
		zap.Int("leaves", tree.NumLeaves()),
		zap.Int("depth", tree.MaxDepth()))
	return tree, nil
}

//processNode resolves the node k into a leaf or a split.
func (b *treeBuilder) processNode(k int) error {
	negW, posW := b.weights.get(k)
	defer b.weights.retire(k)

	w0, w1 := floats.Sum(negW), floats.Sum(posW)
	w := w0 + w1
	prior := w1 / w

	b.nodes[k].Weight = w
	b.nodes[k].Error = math.Min(prior, 1-prior)
	b.nodes[k].LogOdds = math.Max(-maxLogOdds, math.Min(maxLogOdds, 0.5*math.Log(prior/(1-prior))))

	if prior < minPrior || prior > 1-minPrior || b.nodes[k].Depth >= b.params.MaxDepth || w < b.params.MinWeight {
		Logger().Debug("node stops splitting", zap.Int("node", k), zap.Float64("prior", prior), zap.Float64("weight", w))
		return nil
	}

	b.rng.Shuffle(len(b.fids), func(i, j int) { b.fids[i], b.fids[j] = b.fids[j], b.fids[i] })

	normNeg := make([]float64, len(negW))
	normPos := make([]float64, len(posW))
	floats.ScaleTo(normNeg, 1/w, negW)
	floats.ScaleTo(normPos, 1/w, posW)

	bestSplit, err := TheBestSplit(b.set, normNeg, normPos, b.params.NBins, prior, b.fids[:b.nCandidates], b.threadsNum)
	if err != nil {
		return err
	}
	if bestSplit == nil {
		return nil
	}

	feature := bestSplit.featureIndex
	leftNeg, rightNeg, negLeft, negRight := splitWeights(b.set.Negative.Row(feature), bestSplit.threshold, negW)
	leftPos, rightPos, posLeft, posRight := splitWeights(b.set.Positive.Row(feature), bestSplit.threshold, posW)

	if !(negLeft || posLeft) || !(negRight || posRight) {
		Logger().Debug("no split", zap.Int("node", k), zap.Int("feature", feature))
		return nil
	}

	K := len(b.nodes)
	b.nodes[k].Child = K
	b.nodes[k].FeatureIndex = feature
	b.nodes[k].Threshold = Threshold{
		Bin:   bestSplit.threshold,
		Value: b.set.Quantizer.RealThreshold(feature, bestSplit.threshold),
	}
	depth := b.nodes[k].Depth + 1
	b.nodes = append(b.nodes, TreeNode{Depth: depth}, TreeNode{Depth: depth})
	b.weights.put(K, leftNeg, leftPos)
	b.weights.put(K+1, rightNeg, rightPos)

	Logger().Debug("split node",
		zap.Int("node", k),
		zap.Int("child", K),
		zap.Int("feature", feature),
		zap.Float64("threshold", b.nodes[k].Threshold.Value),
		zap.Float64("error", bestSplit.errorValue),
		zap.Int("depth", depth-1))
	return nil
}

//splitWeights sends every weight to the left when the bin of its sample does not exceed thr and
//to the right otherwise. Both outputs keep the full length. The flags tell whether some sample
//with a non-zero weight went to the corresponding side.
func splitWeights(row []uint8, thr uint8, weights []float64) (left, right []float64, anyLeft, anyRight bool) {
	left = make([]float64, len(weights))
	right = make([]float64, len(weights))
	thrValue := float64(thr) + 0.5
	for i, v := range row {
		if float64(v) < thrValue {
			left[i] = weights[i]
			anyLeft = anyLeft || weights[i] != 0
		} else {
			right[i] = weights[i]
			anyRight = anyRight || weights[i] != 0
		}
	}
	return
}
