package scl

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

//Cascade is a sequence of trees whose values are summed into one score.
type Cascade struct {
	Trees []Tree    `json:"trees"`
	Mode  ScoreMode `json:"mode"`
}

//Append adds a tree as the last stage.
func (cascade *Cascade) Append(tree Tree) {
	cascade.Trees = append(cascade.Trees, tree)
}

//Combine concatenates stages of several cascades. The mode of the receiver is kept.
func (cascade *Cascade) Combine(cascades ...*Cascade) {
	for _, other := range cascades {
		if other == nil {
			continue
		}
		cascade.Trees = append(cascade.Trees, other.Trees...)
	}
}

//FeatureDim returns the number of features the cascade reads.
func (cascade *Cascade) FeatureDim() int {
	featureDim := 0
	for _, tree := range cascade.Trees {
		if tree.FeatureDim > featureDim {
			featureDim = tree.FeatureDim
		}
	}
	return featureDim
}

//check validates the node table of the tree.
func (tree *Tree) check() error {
	if len(tree.Nodes) == 0 {
		return stateErrorf("tree has no nodes")
	}
	for k, node := range tree.Nodes {
		if node.Child == 0 {
			continue
		}
		if node.Child <= k || node.Child+1 >= len(tree.Nodes) {
			return stateErrorf("node %d refers to children %d and %d of %d nodes", k, node.Child, node.Child+1, len(tree.Nodes))
		}
		if node.FeatureIndex < 0 || node.FeatureIndex >= tree.FeatureDim {
			return stateErrorf("node %d splits feature %d of %d", k, node.FeatureIndex, tree.FeatureDim)
		}
	}
	return nil
}

//CheckModel reports a *StateError when the cascade is empty or one of its trees is inconsistent.
func (cascade *Cascade) CheckModel() error {
	if cascade == nil || len(cascade.Trees) == 0 {
		return stateErrorf("cascade is not trained")
	}
	for t := range cascade.Trees {
		if err := cascade.Trees[t].check(); err != nil {
			return fmt.Errorf("tree %d: %w", t, err)
		}
	}
	return nil
}

func (cascade *Cascade) stageValue(tree *Tree, x []float64) float64 {
	if cascade.Mode == ScoreLabel {
		return float64(tree.EvaluateLabel(x))
	}
	return tree.Evaluate(x)
}

//Evaluate returns the score of the feature vector x.
func (cascade *Cascade) Evaluate(x []float64) (float64, error) {
	if err := cascade.checkInput(len(x)); err != nil {
		return 0, err
	}
	score := 0.0
	for t := range cascade.Trees {
		score += cascade.stageValue(&cascade.Trees[t], x)
	}
	return score, nil
}

//PartialScores returns the running sum of the score after every stage. The caller can compare
//it with its own rejection thresholds.
func (cascade *Cascade) PartialScores(x []float64) ([]float64, error) {
	if err := cascade.checkInput(len(x)); err != nil {
		return nil, err
	}
	partial := make([]float64, len(cascade.Trees))
	score := 0.0
	for t := range cascade.Trees {
		score += cascade.stageValue(&cascade.Trees[t], x)
		partial[t] = score
	}
	return partial, nil
}

func (cascade *Cascade) checkInput(featureDim int) error {
	if err := cascade.CheckModel(); err != nil {
		return err
	}
	if featureDim < cascade.FeatureDim() {
		return dataErrorf("%d features given, the cascade needs %d", featureDim, cascade.FeatureDim())
	}
	return nil
}

//Apply scores every column of the feature-major matrix features into scores.
func (cascade *Cascade) Apply(features mat.Matrix, scores []float64) error {
	return cascade.ApplyThreads(features, scores, 1)
}

//ApplyThreads is Apply with samples split into threadsNum contiguous ranges scored in parallel.
//On error scores are left untouched.
func (cascade *Cascade) ApplyThreads(features mat.Matrix, scores []float64, threadsNum int) error {
	featureDim, n := features.Dims()
	if err := cascade.checkInput(featureDim); err != nil {
		return err
	}
	if len(scores) != n {
		return dataErrorf("%d scores for %d samples", len(scores), n)
	}

	threadsNum = effectiveThreads(threadsNum)
	if threadsNum > n {
		threadsNum = n
	}
	Logger().Debug("apply cascade", zap.Int("samples", n), zap.Int("trees", len(cascade.Trees)), zap.Int("threads", threadsNum))

	scoreRange := func(begin, end int) {
		for i := begin; i < end; i++ {
			score := 0.0
			for t := range cascade.Trees {
				score += cascade.Trees[t].value(features, i, cascade.Mode)
			}
			scores[i] = score
		}
	}
	if threadsNum <= 1 {
		scoreRange(0, n)
		return nil
	}

	taskPool := NewPool(threadsNum)
	chunk := (n + threadsNum - 1) / threadsNum
	for begin := 0; begin < n; begin += chunk {
		begin, end := begin, min(begin+chunk, n)
		taskPool.AddTask(TaskFunc(func() error {
			scoreRange(begin, end)
			return nil
		}))
	}
	return taskPool.WaitAll()
}

//trainingScores returns scores of quantized training samples.
func (cascade *Cascade) trainingScores(q *QMatrix) []float64 {
	_, n := q.Dims()
	scores := make([]float64, n)
	for t := range cascade.Trees {
		for i := range scores {
			scores[i] += cascade.Trees[t].evaluateBins(q, i)
		}
	}
	return scores
}
