package scl

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

//minNormalizer stops boosting once the weights have collapsed.
const minNormalizer = 1e-40

//TrainStage trains up to nWeaks trees with real AdaBoost. Every tree is grown on the weights
//left by the previous ones: a sample of class y with score H gets the weight w*exp(-y*H),
//renormalized to sum to one. Training stops early when the normalizer underflows or when every
//training sample is already classified correctly. Tree t is grown with the seed params.Seed+t.
func TrainStage(set SampleSet, nWeaks int, params TreeParams) (*Cascade, error) {
	if nWeaks <= 0 {
		return nil, &ConfigError{Field: "NWeaks", Reason: fmt.Sprintf("%d should be positive", nWeaks)}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	_, nNeg, nPos, err := set.validatedDimensions(params.NBins)
	if err != nil {
		return nil, err
	}

	logNeg := logWeights(set.NegWeights)
	logPos := logWeights(set.PosWeights)
	hNeg := make([]float64, nNeg)
	hPos := make([]float64, nPos)

	work := set
	work.NegWeights = append([]float64(nil), set.NegWeights...)
	work.PosWeights = append([]float64(nil), set.PosWeights...)

	cascade := &Cascade{}
	for t := 0; t < nWeaks; t++ {
		treeParams := params
		treeParams.Seed = params.Seed + int64(t)
		tree, err := NewTree(work, treeParams)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", t+1, err)
		}
		cascade.Append(*tree)

		for i := range hNeg {
			hNeg[i] += tree.evaluateBins(work.Negative, i)
		}
		for i := range hPos {
			hPos[i] += tree.evaluateBins(work.Positive, i)
		}

		negErrors, posErrors := 0, 0
		for _, h := range hNeg {
			if h >= 0 {
				negErrors++
			}
		}
		for _, h := range hPos {
			if h <= 0 {
				posErrors++
			}
		}
		Logger().Info("tree number",
			zap.Int("tree", t+1),
			zap.Int("nodes", len(tree.Nodes)),
			zap.Float64("root_error", tree.Nodes[0].Error),
			zap.Int("false_positives", negErrors),
			zap.Int("false_negatives", posErrors))

		if negErrors == 0 && posErrors == 0 {
			Logger().Info("training set is separated", zap.Int("trees", t+1))
			break
		}
		if t+1 == nWeaks {
			break
		}

		logNorm := reweight(work.NegWeights, logNeg, hNeg, work.PosWeights, logPos, hPos)
		if logNorm < math.Log(minNormalizer) {
			Logger().Info("weights collapsed", zap.Int("trees", t+1), zap.Float64("log_normalizer", logNorm))
			break
		}
	}
	return cascade, nil
}

func logWeights(weights []float64) []float64 {
	logs := make([]float64, len(weights))
	for i, w := range weights {
		logs[i] = math.Log(w)
	}
	return logs
}

//reweight sets negWeights to exp(logNeg+H) and posWeights to exp(logPos-H), both divided by the
//total. It returns the logarithm of the total. Exponents are shifted by their maximum so that
//large scores do not overflow.
func reweight(negWeights, logNeg, hNeg, posWeights, logPos, hPos []float64) float64 {
	shift := math.Inf(-1)
	for i := range negWeights {
		negWeights[i] = logNeg[i] + hNeg[i]
		shift = math.Max(shift, negWeights[i])
	}
	for i := range posWeights {
		posWeights[i] = logPos[i] - hPos[i]
		shift = math.Max(shift, posWeights[i])
	}

	for i, e := range negWeights {
		negWeights[i] = math.Exp(e - shift)
	}
	for i, e := range posWeights {
		posWeights[i] = math.Exp(e - shift)
	}
	total := floats.Sum(negWeights) + floats.Sum(posWeights)
	floats.Scale(1/total, negWeights)
	floats.Scale(1/total, posWeights)
	return shift + math.Log(total)
}
