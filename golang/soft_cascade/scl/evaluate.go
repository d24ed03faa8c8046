package scl

import (
	"gonum.org/v1/gonum/mat"
)

//ScoreMode selects what a tree contributes to a score.
type ScoreMode int

const (
	//ScoreLogOdds sums the clamped log-odds of the reached leaves.
	ScoreLogOdds ScoreMode = iota
	//ScoreLabel sums the +1/-1 labels of the reached leaves.
	ScoreLabel
)

func (mode ScoreMode) String() string {
	switch mode {
	case ScoreLogOdds:
		return "logodds"
	case ScoreLabel:
		return "label"
	}
	return "unknown"
}

//ParseScoreMode is the inverse of ScoreMode.String.
func ParseScoreMode(name string) (ScoreMode, error) {
	switch name {
	case "", "logodds":
		return ScoreLogOdds, nil
	case "label":
		return ScoreLabel, nil
	}
	return ScoreLogOdds, &ConfigError{Field: "Mode", Reason: "unknown score mode " + name}
}

//leaf descends from the root to a leaf; at returns the value of a feature.
func (tree *Tree) leaf(at func(feature int) float64) *TreeNode {
	position := 0
	for tree.Nodes[position].Child != 0 {
		node := &tree.Nodes[position]
		if at(node.FeatureIndex) < node.Threshold.Value {
			position = node.Child
		} else {
			position = node.Child + 1
		}
	}
	return &tree.Nodes[position]
}

//Evaluate returns the log-odds of the leaf reached by the feature vector x. The tree must come
//from NewTree or pass Cascade.CheckModel; Apply reports a *StateError for other trees instead.
func (tree *Tree) Evaluate(x []float64) float64 {
	return tree.leaf(func(feature int) float64 { return x[feature] }).LogOdds
}

//EvaluateLabel returns the label of the leaf reached by the feature vector x. It has the
//same precondition as Evaluate.
func (tree *Tree) EvaluateLabel(x []float64) int {
	return tree.leaf(func(feature int) float64 { return x[feature] }).Label()
}

func (tree *Tree) value(features mat.Matrix, sample int, mode ScoreMode) float64 {
	node := tree.leaf(func(feature int) float64 { return features.At(feature, sample) })
	if mode == ScoreLabel {
		return float64(node.Label())
	}
	return node.LogOdds
}

//evaluateBins descends with quantized features of one training sample.
func (tree *Tree) evaluateBins(q *QMatrix, sample int) float64 {
	position := 0
	for tree.Nodes[position].Child != 0 {
		node := &tree.Nodes[position]
		if q.At(node.FeatureIndex, sample) <= node.Threshold.Bin {
			position = node.Child
		} else {
			position = node.Child + 1
		}
	}
	return tree.Nodes[position].LogOdds
}

//Apply scores every column of the feature-major matrix features into out.
func (tree *Tree) Apply(features mat.Matrix, out []float64, mode ScoreMode) error {
	if err := tree.check(); err != nil {
		return err
	}
	featureDim, n := features.Dims()
	if featureDim < tree.FeatureDim {
		return dataErrorf("%d features given, the tree needs %d", featureDim, tree.FeatureDim)
	}
	if len(out) != n {
		return dataErrorf("%d scores for %d samples", len(out), n)
	}
	for i := range out {
		out[i] = tree.value(features, i, mode)
	}
	return nil
}
