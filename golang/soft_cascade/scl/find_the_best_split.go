package scl

//BestSplit contains results of the split selection algorithm for one feature.
type BestSplit struct {
	errorValue   float64
	threshold    uint8
	featureIndex int
}

//scanForSplit computes weighted distributions of both classes over the bins of one feature and
//finds the threshold with the smallest error. An error e and its complement 1-e are equally
//useful since the polarity of the leaves is decided later, so two running extremes are tracked
//and the first bin that improves either of them wins.
func scanForSplit(
	negRow, posRow []uint8,
	negWeights, posWeights []float64,
	nBins int,
	prior float64,
) (bestSplit BestSplit, err error) {
	cdfNeg := make([]float64, nBins)
	cdfPos := make([]float64, nBins)
	if err = computeCDF(negRow, negWeights, cdfNeg); err != nil {
		return
	}
	if err = computeCDF(posRow, posWeights, cdfPos); err != nil {
		return
	}

	e0, e1 := 1.0, 0.0
	thr := 0
	for b := 0; b < nBins; b++ {
		e := prior - cdfPos[b] + cdfNeg[b]
		if e < e0 {
			e0, e1, thr = e, 1-e, b
		} else if e > e1 {
			e0, e1, thr = 1-e, e, b
		}
	}

	bestSplit.errorValue = e0
	bestSplit.threshold = uint8(thr)
	return
}

//TaskFindBestSplit scans one candidate feature and stores the result into its own slot.
type TaskFindBestSplit struct {
	result        []BestSplit
	index         int
	feature       int
	bestSplitFunc func(feature int) (BestSplit, error)
}

func (task *TaskFindBestSplit) Run() error {
	split, err := task.bestSplitFunc(task.feature)
	if err != nil {
		return err
	}
	task.result[task.index] = split
	return nil
}

//TheBestSplit finds the best split among the candidate features. The weights should be normalized
//by the node weight. Candidates are scanned in parallel when threadsNum is above one; ties are
//resolved in favour of the earliest candidate. It returns nil when there are no candidates.
func TheBestSplit(
	set SampleSet,
	negWeights, posWeights []float64,
	nBins int,
	prior float64,
	candidates []int,
	threadsNum int,
) (*BestSplit, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	result := make([]BestSplit, len(candidates))

	bestSplitFunc := func(feature int) (BestSplit, error) {
		split, err := scanForSplit(set.Negative.Row(feature), set.Positive.Row(feature), negWeights, posWeights, nBins, prior)
		split.featureIndex = feature
		return split, err
	}

	if threadsNum <= 1 {
		for q, feature := range candidates {
			split, err := bestSplitFunc(feature)
			if err != nil {
				return nil, err
			}
			result[q] = split
		}
	} else {
		taskPool := NewPool(threadsNum)
		for q, feature := range candidates {
			taskPool.AddTask(&TaskFindBestSplit{result: result, index: q, feature: feature, bestSplitFunc: bestSplitFunc})
		}
		if err := taskPool.WaitAll(); err != nil {
			return nil, err
		}
	}

	bestIndex := 0
	for ind, currentSplit := range result {
		if currentSplit.errorValue < result[bestIndex].errorValue {
			bestIndex = ind
		}
	}
	return &result[bestIndex], nil
}
