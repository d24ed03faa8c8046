package scl

import (
	"math"
	"reflect"
	"testing"
)

func TestScanForSplit(t *testing.T) {
	negRow := []uint8{0, 1, 2}
	posRow := []uint8{3, 4, 5}
	w := 1.0 / 6

	bestSplit, err := scanForSplit(negRow, posRow, []float64{w, w, w}, []float64{w, w, w}, 8, 0.5)
	if err != nil {
		t.Fatalf("scanForSplit: %v", err)
	}
	if bestSplit.threshold != 2 {
		t.Fatalf("expected threshold 2, got %d", bestSplit.threshold)
	}
	if math.Abs(bestSplit.errorValue) > 1e-12 {
		t.Fatalf("expected zero error, got %g", bestSplit.errorValue)
	}
}

func TestScanForSplitReversedPolarity(t *testing.T) {
	negRow := []uint8{6, 7}
	posRow := []uint8{1, 2}

	bestSplit, err := scanForSplit(negRow, posRow, []float64{0.25, 0.25}, []float64{0.25, 0.25}, 8, 0.5)
	if err != nil {
		t.Fatalf("scanForSplit: %v", err)
	}
	if bestSplit.threshold != 2 {
		t.Fatalf("expected threshold 2, got %d", bestSplit.threshold)
	}
	if math.Abs(bestSplit.errorValue) > 1e-12 {
		t.Fatalf("expected zero error, got %g", bestSplit.errorValue)
	}
}

func TestTheBestSplit(t *testing.T) {
	neg := [][]uint8{{5, 0, 0}, {5, 1, 1}, {5, 2, 2}}
	pos := [][]uint8{{5, 3, 3}, {5, 4, 4}, {5, 5, 5}}
	set := CreateTestSampleSet(t, neg, pos)

	for _, threadsNum := range []int{1, 3} {
		bestSplit, err := TheBestSplit(set, set.NegWeights, set.PosWeights, 8, 0.5, []int{0, 2, 1}, threadsNum)
		if err != nil {
			t.Fatalf("TheBestSplit: %v", err)
		}
		if bestSplit.featureIndex != 2 {
			t.Fatalf("ties should go to the first candidate, got feature %d with %d threads", bestSplit.featureIndex, threadsNum)
		}
		if bestSplit.threshold != 2 {
			t.Fatalf("expected threshold 2, got %d", bestSplit.threshold)
		}
	}

	bestSplit, err := TheBestSplit(set, set.NegWeights, set.PosWeights, 8, 0.5, nil, 1)
	if err != nil || bestSplit != nil {
		t.Fatalf("no candidates should give no split, got %v %v", bestSplit, err)
	}
}

func TestTheBestSplitPropagatesErrors(t *testing.T) {
	set := CreateTestSampleSet(t, column(1, 9), column(2, 3))
	if _, err := TheBestSplit(set, set.NegWeights, set.PosWeights, 4, 0.5, []int{0}, 2); err == nil {
		t.Fatalf("bin 9 should not fit into 4 bins")
	}
}

func TestTheBestSplitThreadsAgree(t *testing.T) {
	for seed := int64(0); seed < 5; seed++ {
		set := CreateRandomSampleSet(t, seed, 9, 70, 50)
		candidates := []int{8, 3, 0, 5, 1, 7, 2, 6, 4}
		sequential, err := TheBestSplit(set, set.NegWeights, set.PosWeights, 256, 0.5, candidates, 1)
		if err != nil {
			t.Fatalf("TheBestSplit: %v", err)
		}
		parallel, err := TheBestSplit(set, set.NegWeights, set.PosWeights, 256, 0.5, candidates, 4)
		if err != nil {
			t.Fatalf("TheBestSplit: %v", err)
		}
		if !reflect.DeepEqual(sequential, parallel) {
			t.Fatalf("seed %d: %+v with one thread, %+v with four", seed, *sequential, *parallel)
		}
	}
}
