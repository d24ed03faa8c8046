package scl

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func CreateTestCascade(t *testing.T, nTrees int) (*Cascade, SampleSet) {
	t.Helper()
	set := CreateRandomSampleSet(t, 9, 5, 60, 50)
	cascade := &Cascade{}
	for k := 0; k < nTrees; k++ {
		params := TreeParams{NBins: 256, MaxDepth: 2, MinWeight: 0.001, FracFtrs: 0.4, NThreads: 1, Seed: int64(k)}
		tree, err := NewTree(set, params)
		if err != nil {
			t.Fatalf("NewTree: %v", err)
		}
		cascade.Append(*tree)
	}
	return cascade, set
}

func randomFeatures(seed int64, featureDim, n int) *mat.Dense {
	rnd := rand.New(rand.NewSource(seed))
	data := make([]float64, featureDim*n)
	for i := range data {
		data[i] = rnd.Float64() * 250
	}
	return mat.NewDense(featureDim, n, data)
}

func TestEmptyCascadeIsNotTrained(t *testing.T) {
	cascade := &Cascade{}
	if err := cascade.CheckModel(); !errors.Is(err, ErrState) {
		t.Fatalf("expected a state error, got %v", err)
	}
	if _, err := cascade.Evaluate([]float64{1, 2}); !errors.Is(err, ErrState) {
		t.Fatalf("expected a state error, got %v", err)
	}

	scores := []float64{7, 7}
	if err := cascade.Apply(mat.NewDense(2, 2, nil), scores); !errors.Is(err, ErrState) {
		t.Fatalf("expected a state error, got %v", err)
	}
	if scores[0] != 7 || scores[1] != 7 {
		t.Fatalf("scores should stay untouched: %v", scores)
	}
}

func TestCheckModelFindsBrokenTrees(t *testing.T) {
	cascade, _ := CreateTestCascade(t, 2)
	cascade.Trees[1].Nodes[0].Child = len(cascade.Trees[1].Nodes)
	if err := cascade.CheckModel(); !errors.Is(err, ErrState) {
		t.Fatalf("child out of range should be a state error, got %v", err)
	}

	cascade, _ = CreateTestCascade(t, 1)
	cascade.Trees[0].Nodes[0].Child = 1
	cascade.Trees[0].Nodes[0].FeatureIndex = 99
	var stateError *StateError
	if err := cascade.CheckModel(); !errors.As(err, &stateError) {
		t.Fatalf("feature out of range should be a *StateError, got %v", err)
	}
}

func TestCascadeIsSumOfTrees(t *testing.T) {
	cascade, _ := CreateTestCascade(t, 4)
	features := randomFeatures(1, 5, 30)
	x := make([]float64, 5)

	for i := 0; i < 30; i++ {
		mat.Col(x, i, features)
		expected := 0.0
		for k := range cascade.Trees {
			expected += cascade.Trees[k].Evaluate(x)
		}
		score, err := cascade.Evaluate(x)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if math.Abs(score-expected) > 1e-12 {
			t.Fatalf("score %g differs from the sum of trees %g", score, expected)
		}

		partial, err := cascade.PartialScores(x)
		if err != nil {
			t.Fatalf("PartialScores: %v", err)
		}
		if len(partial) != 4 || partial[3] != score {
			t.Fatalf("last partial score %v should be the score %g", partial, score)
		}
		if partial[0] != cascade.Trees[0].Evaluate(x) {
			t.Fatalf("first partial score should be the first tree")
		}
	}
}

func TestCascadeIsPermutationInvariant(t *testing.T) {
	cascade, _ := CreateTestCascade(t, 4)
	reversed := &Cascade{}
	for k := len(cascade.Trees) - 1; k >= 0; k-- {
		reversed.Append(cascade.Trees[k])
	}

	features := randomFeatures(2, 5, 40)
	direct := make([]float64, 40)
	backward := make([]float64, 40)
	if err := cascade.Apply(features, direct); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := reversed.Apply(features, backward); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for i := range direct {
		if math.Abs(direct[i]-backward[i]) > 1e-9 {
			t.Fatalf("sample %d: %g != %g", i, direct[i], backward[i])
		}
	}
}

func TestApplyThreadsMatchesApply(t *testing.T) {
	cascade, _ := CreateTestCascade(t, 3)
	features := randomFeatures(3, 5, 101)

	single := make([]float64, 101)
	parallel := make([]float64, 101)
	if err := cascade.Apply(features, single); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := cascade.ApplyThreads(features, parallel, 4); err != nil {
		t.Fatalf("ApplyThreads: %v", err)
	}
	for i := range single {
		if single[i] != parallel[i] {
			t.Fatalf("sample %d: %g != %g", i, single[i], parallel[i])
		}
	}

	if err := cascade.Apply(features, make([]float64, 3)); !errors.Is(err, ErrData) {
		t.Fatalf("wrong score length should be a data error, got %v", err)
	}
	if err := cascade.Apply(mat.NewDense(2, 3, nil), make([]float64, 3)); !errors.Is(err, ErrData) {
		t.Fatalf("too few features should be a data error, got %v", err)
	}
}

func TestApplyIntegerFeatures(t *testing.T) {
	cascade, _ := CreateTestCascade(t, 2)
	data := make([]int32, 5*6)
	floatData := make([]float64, len(data))
	for i := range data {
		data[i] = int32((i * 37) % 240)
		floatData[i] = float64(data[i])
	}
	intFeatures, err := NewInt32Matrix(5, 6, data)
	if err != nil {
		t.Fatalf("NewInt32Matrix: %v", err)
	}

	fromInts := make([]float64, 6)
	fromFloats := make([]float64, 6)
	if err := cascade.Apply(intFeatures, fromInts); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := cascade.Apply(mat.NewDense(5, 6, floatData), fromFloats); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for i := range fromInts {
		if fromInts[i] != fromFloats[i] {
			t.Fatalf("sample %d: %g != %g", i, fromInts[i], fromFloats[i])
		}
	}
}

func TestLabelMode(t *testing.T) {
	cascade, _ := CreateTestCascade(t, 3)
	cascade.Mode = ScoreLabel
	features := randomFeatures(4, 5, 20)
	scores := make([]float64, 20)
	if err := cascade.Apply(features, scores); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for i, score := range scores {
		if score != -3 && score != -1 && score != 1 && score != 3 {
			t.Fatalf("sample %d: a sum of three labels cannot be %g", i, score)
		}
	}
}

func TestCombine(t *testing.T) {
	first, _ := CreateTestCascade(t, 2)
	second, _ := CreateTestCascade(t, 3)

	combined := &Cascade{}
	combined.Combine(first, nil, second)
	if len(combined.Trees) != 5 {
		t.Fatalf("expected 5 trees, got %d", len(combined.Trees))
	}

	x := []float64{10, 50, 100, 150, 200}
	a, _ := first.Evaluate(x)
	b, _ := second.Evaluate(x)
	c, err := combined.Evaluate(x)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if math.Abs(a+b-c) > 1e-12 {
		t.Fatalf("combined score %g differs from %g + %g", c, a, b)
	}
}

func TestTrainingScoresMatchRealScores(t *testing.T) {
	cascade, set := CreateTestCascade(t, 3)
	binScores := cascade.trainingScores(set.Negative)

	features := set.Negative.Matrix()
	_, n := features.Dims()
	scores := make([]float64, n)
	if err := cascade.Apply(features, scores); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for i := range scores {
		if math.Abs(scores[i]-binScores[i]) > 1e-12 {
			t.Fatalf("sample %d: %g != %g", i, scores[i], binScores[i])
		}
	}
}

func TestZeroTreeApplyReportsState(t *testing.T) {
	scores := []float64{3}
	if err := (&Tree{}).Apply(mat.NewDense(1, 1, nil), scores, ScoreLogOdds); !errors.Is(err, ErrState) {
		t.Fatalf("expected a state error, got %v", err)
	}
	if scores[0] != 3 {
		t.Fatalf("scores should stay untouched: %v", scores)
	}
}
