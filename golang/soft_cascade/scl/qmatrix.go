package scl

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

type integer interface {
	~uint8 | ~uint16 | ~int16 | ~int32 | ~int64 | ~int
}

//IntegerMatrix is a row-major matrix of integer elements. It implements mat.Matrix so that
//integer feature data can be scored without converting it to float64 first.
type IntegerMatrix[T integer] struct {
	rows, cols int
	data       []T
}

//NewByteMatrix wraps row-major uint8 data. A nil data allocates a zero matrix.
func NewByteMatrix(rows, cols int, data []uint8) (*IntegerMatrix[uint8], error) {
	return newIntegerMatrix(rows, cols, data)
}

//NewInt32Matrix wraps row-major int32 data. A nil data allocates a zero matrix.
func NewInt32Matrix(rows, cols int, data []int32) (*IntegerMatrix[int32], error) {
	return newIntegerMatrix(rows, cols, data)
}

func newIntegerMatrix[T integer](rows, cols int, data []T) (*IntegerMatrix[T], error) {
	if rows <= 0 || cols <= 0 {
		return nil, dataErrorf("matrix dimensions %dx%d should be positive", rows, cols)
	}
	if data == nil {
		data = make([]T, rows*cols)
	}
	if len(data) != rows*cols {
		return nil, dataErrorf("%d elements do not fill a %dx%d matrix", len(data), rows, cols)
	}
	return &IntegerMatrix[T]{rows: rows, cols: cols, data: data}, nil
}

func (m *IntegerMatrix[T]) Dims() (r, c int) { return m.rows, m.cols }

func (m *IntegerMatrix[T]) At(i, j int) float64 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(mat.ErrIndexOutOfRange)
	}
	return float64(m.data[i*m.cols+j])
}

func (m *IntegerMatrix[T]) T() mat.Matrix { return mat.Transpose{Matrix: m} }

//RawData returns the row-major backing slice.
func (m *IntegerMatrix[T]) RawData() []T { return m.data }

//QMatrix holds quantized features in the feature-major layout: one row per feature,
//one column per sample. Every value is a bin index.
type QMatrix struct {
	data *tensor.Dense
	bins []uint8
}

//NewQMatrix wraps values (featureDim rows of nSamples bins each). A nil values allocates zeros.
func NewQMatrix(featureDim, nSamples int, values []uint8) (*QMatrix, error) {
	if featureDim <= 0 || nSamples <= 0 {
		return nil, dataErrorf("quantized matrix dimensions %dx%d should be positive", featureDim, nSamples)
	}
	if values == nil {
		values = make([]uint8, featureDim*nSamples)
	}
	if len(values) != featureDim*nSamples {
		return nil, dataErrorf("%d bins do not fill a %dx%d quantized matrix", len(values), featureDim, nSamples)
	}
	return &QMatrix{data: tensor.New(tensor.WithShape(featureDim, nSamples), tensor.WithBacking(values)), bins: values}, nil
}

//Dims returns the number of features and the number of samples.
func (q *QMatrix) Dims() (featureDim, nSamples int) {
	shape := q.data.Shape()
	return shape[0], shape[1]
}

//raw returns the backing slice of the tensor.
func (q *QMatrix) raw() []uint8 {
	return q.bins
}

//Row returns bins of one feature for all samples. The slice aliases the matrix.
func (q *QMatrix) Row(feature int) []uint8 {
	_, n := q.Dims()
	return q.raw()[feature*n : (feature+1)*n]
}

func (q *QMatrix) At(feature, sample int) uint8 {
	_, n := q.Dims()
	return q.raw()[feature*n+sample]
}

func (q *QMatrix) Set(feature, sample int, bin uint8) {
	_, n := q.Dims()
	q.raw()[feature*n+sample] = bin
}

//MaxBin returns the largest bin stored in the matrix.
func (q *QMatrix) MaxBin() uint8 {
	var m uint8
	for _, v := range q.raw() {
		if v > m {
			m = v
		}
	}
	return m
}

//Matrix returns a mat.Matrix view of the bins sharing the same storage.
func (q *QMatrix) Matrix() *IntegerMatrix[uint8] {
	f, n := q.Dims()
	return &IntegerMatrix[uint8]{rows: f, cols: n, data: q.raw()}
}

//Quantizer maps a real feature value x of feature f to the bin floor((x-Min[f])/Step[f]+0.5).
type Quantizer struct {
	Min  []float64
	Step []float64
}

//IdentityQuantizer is used when features are already bytes.
func IdentityQuantizer(featureDim int) Quantizer {
	q := Quantizer{Min: make([]float64, featureDim), Step: make([]float64, featureDim)}
	for f := range q.Step {
		q.Step[f] = 1
	}
	return q
}

//FitQuantizer spreads nBins bins over the joint range of negative and positive samples
//of every feature, widened by 0.01 on both sides.
func FitQuantizer(neg, pos mat.Matrix, nBins int) (Quantizer, error) {
	if nBins < 2 || nBins > 256 {
		return Quantizer{}, dataErrorf("number of bins %d is outside of [2, 256]", nBins)
	}
	featureDim, _ := neg.Dims()
	posDim, _ := pos.Dims()
	if featureDim != posDim {
		return Quantizer{}, dataErrorf("negative feature dim %d differs from positive feature dim %d", featureDim, posDim)
	}

	q := Quantizer{Min: make([]float64, featureDim), Step: make([]float64, featureDim)}
	for f := 0; f < featureDim; f++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, m := range []mat.Matrix{neg, pos} {
			_, n := m.Dims()
			for i := 0; i < n; i++ {
				v := m.At(f, i)
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return Quantizer{}, dataErrorf("feature %d of sample %d is not finite", f, i)
				}
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
		lo -= 0.01
		hi += 0.01
		q.Min[f] = lo
		q.Step[f] = (hi - lo) / float64(nBins-1)
	}
	return q, nil
}

//FeatureDim returns the number of features the quantizer was fitted on.
func (qz Quantizer) FeatureDim() int {
	return len(qz.Min)
}

//Quantize converts a feature-major matrix into bins, saturating at 0 and nBins-1.
func (qz Quantizer) Quantize(m mat.Matrix, nBins int) (*QMatrix, error) {
	featureDim, n := m.Dims()
	if featureDim != len(qz.Min) || featureDim != len(qz.Step) {
		return nil, dataErrorf("matrix has %d features, quantizer has %d", featureDim, len(qz.Min))
	}
	q, err := NewQMatrix(featureDim, n, nil)
	if err != nil {
		return nil, err
	}
	for f := 0; f < featureDim; f++ {
		row := q.Row(f)
		for i := range row {
			row[i] = qz.Bin(f, m.At(f, i), nBins)
		}
	}
	return q, nil
}

//Bin quantizes one value of feature. Midpoints go to the upper bin, so bin <= b holds exactly
//when value < RealThreshold(feature, b).
func (qz Quantizer) Bin(feature int, value float64, nBins int) uint8 {
	v := math.Floor((value-qz.Min[feature])/qz.Step[feature] + 0.5)
	return uint8(math.Max(0, math.Min(float64(nBins-1), v)))
}

//RealThreshold converts a bin threshold back to the feature space. Samples whose bin does not
//exceed bin have real values below the returned threshold.
func (qz Quantizer) RealThreshold(feature int, bin uint8) float64 {
	return qz.Min[feature] + qz.Step[feature]*(float64(bin)+0.5)
}
