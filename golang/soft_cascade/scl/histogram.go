package scl

//ComputeCDF builds the weighted cumulative distribution of bins: cdf[b] is the total weight of
//samples whose bin does not exceed b.
func ComputeCDF(values []uint8, weights []float64, nBins int) ([]float64, error) {
	if nBins < 2 || nBins > 256 {
		return nil, dataErrorf("number of bins %d is outside of [2, 256]", nBins)
	}
	cdf := make([]float64, nBins)
	if err := computeCDF(values, weights, cdf); err != nil {
		return nil, err
	}
	return cdf, nil
}

//computeCDF fills cdf in place. cdf is left zeroed when the input is malformed.
func computeCDF(values []uint8, weights []float64, cdf []float64) error {
	for b := range cdf {
		cdf[b] = 0
	}
	if len(values) != len(weights) {
		return dataErrorf("%d values and %d weights", len(values), len(weights))
	}
	nBins := len(cdf)
	for _, v := range values {
		if int(v) >= nBins {
			return dataErrorf("bin %d does not fit into %d bins", v, nBins)
		}
	}

	for i, v := range values {
		cdf[v] += weights[i]
	}
	for b := 1; b < nBins; b++ {
		cdf[b] += cdf[b-1]
	}
	return nil
}
