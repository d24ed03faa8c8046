package scl

import (
	"math"
	"os"

	"github.com/sbinet/npyio"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

//SampleSet contains quantized negative and positive samples with their weights.
type SampleSet struct {
	Negative    *QMatrix
	Positive    *QMatrix
	NegWeights  []float64
	PosWeights  []float64
	Quantizer   Quantizer
	Description *string
}

//SetDescription sets a description for a SampleSet object
func (set *SampleSet) SetDescription(description string) {
	set.Description = &description
}

//UniformWeights gives every class half of the total weight, spread evenly over its samples.
func UniformWeights(nNeg, nPos int) (negWeights, posWeights []float64) {
	negWeights = make([]float64, nNeg)
	for i := range negWeights {
		negWeights[i] = 1 / float64(2*nNeg)
	}
	posWeights = make([]float64, nPos)
	for i := range posWeights {
		posWeights[i] = 1 / float64(2*nPos)
	}
	return
}

//NewSampleSet quantizes feature-major negative and positive matrices and assigns uniform weights.
//Byte matrices are taken as already quantized.
func NewSampleSet(neg, pos mat.Matrix, nBins int) (set SampleSet, err error) {
	negBytes, negOk := neg.(*IntegerMatrix[uint8])
	posBytes, posOk := pos.(*IntegerMatrix[uint8])

	if negOk && posOk {
		featureDim, nNeg := negBytes.Dims()
		posDim, nPos := posBytes.Dims()
		if featureDim != posDim {
			return set, dataErrorf("negative feature dim %d differs from positive feature dim %d", featureDim, posDim)
		}
		if set.Negative, err = NewQMatrix(featureDim, nNeg, negBytes.RawData()); err != nil {
			return
		}
		if set.Positive, err = NewQMatrix(featureDim, nPos, posBytes.RawData()); err != nil {
			return
		}
		set.Quantizer = IdentityQuantizer(featureDim)
	} else {
		if set.Quantizer, err = FitQuantizer(neg, pos, nBins); err != nil {
			return
		}
		if set.Negative, err = set.Quantizer.Quantize(neg, nBins); err != nil {
			return
		}
		if set.Positive, err = set.Quantizer.Quantize(pos, nBins); err != nil {
			return
		}
	}

	_, nNeg := set.Negative.Dims()
	_, nPos := set.Positive.Dims()
	set.NegWeights, set.PosWeights = UniformWeights(nNeg, nPos)
	return set, nil
}

//validatedDimensions checks the consistency of the sample set and returns the feature dimension
//and the numbers of negative and positive samples.
func (set SampleSet) validatedDimensions(nBins int) (featureDim, nNeg, nPos int, err error) {
	if set.Negative == nil || set.Positive == nil {
		return 0, 0, 0, dataErrorf("both negative and positive samples are required")
	}
	featureDim, nNeg = set.Negative.Dims()
	posDim, nPos := set.Positive.Dims()
	if posDim != featureDim {
		return 0, 0, 0, dataErrorf("negative feature dim %d differs from positive feature dim %d", featureDim, posDim)
	}
	if len(set.NegWeights) != nNeg {
		return 0, 0, 0, dataErrorf("%d negative weights for %d negative samples", len(set.NegWeights), nNeg)
	}
	if len(set.PosWeights) != nPos {
		return 0, 0, 0, dataErrorf("%d positive weights for %d positive samples", len(set.PosWeights), nPos)
	}
	if len(set.Quantizer.Min) != featureDim || len(set.Quantizer.Step) != featureDim {
		return 0, 0, 0, dataErrorf("quantizer covers %d features, samples have %d", len(set.Quantizer.Min), featureDim)
	}
	if top := int(max(set.Negative.MaxBin(), set.Positive.MaxBin())); top >= nBins {
		return 0, 0, 0, dataErrorf("bin %d does not fit into %d bins", top, nBins)
	}

	total := 0.0
	for _, weights := range [][]float64{set.NegWeights, set.PosWeights} {
		for i, w := range weights {
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return 0, 0, 0, dataErrorf("weight %d is %g, weights should be finite and non-negative", i, w)
			}
			total += w
		}
	}
	if math.Abs(total-1) > 1e-6 {
		return 0, 0, 0, dataErrorf("weights sum to %g instead of 1", total)
	}
	return featureDim, nNeg, nPos, nil
}

//ReadNpy reads a two dimensional npy file. Unsigned byte and int32 arrays keep their integer
//element type, everything else is read as float64.
func ReadNpy(fileName string) (matrix mat.Matrix, err error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, err
	}
	shape := r.Header.Descr.Shape
	if len(shape) != 2 {
		return nil, dataErrorf("%s has shape %v, a matrix is expected", fileName, shape)
	}

	switch r.Header.Descr.Type {
	case "|u1", "<u1", "u1":
		if r.Header.Descr.Fortran {
			return nil, dataErrorf("%s: fortran order is not supported for byte arrays", fileName)
		}
		var data []uint8
		if err = r.Read(&data); err != nil {
			return nil, err
		}
		return NewByteMatrix(shape[0], shape[1], data)
	case "<i4":
		if r.Header.Descr.Fortran {
			return nil, dataErrorf("%s: fortran order is not supported for int32 arrays", fileName)
		}
		var data []int32
		if err = r.Read(&data); err != nil {
			return nil, err
		}
		return NewInt32Matrix(shape[0], shape[1], data)
	default:
		denseMat := &mat.Dense{}
		if err = r.Read(denseMat); err != nil {
			return nil, err
		}
		return denseMat, nil
	}
}

//ReadWeights reads a one dimensional npy file of float64 weights.
func ReadWeights(fileName string) (weights []float64, err error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	err = npyio.Read(f, &weights)
	return
}

//ReadSampleSet reads feature-major negative and positive samples and quantizes them with nBins bins.
func ReadSampleSet(fileNameNeg, fileNamePos string, nBins int) (SampleSet, error) {
	Logger().Info("load negatives", zap.String("file", fileNameNeg))
	neg, err := ReadNpy(fileNameNeg)
	if err != nil {
		return SampleSet{}, err
	}
	Logger().Info("load positives", zap.String("file", fileNamePos))
	pos, err := ReadNpy(fileNamePos)
	if err != nil {
		return SampleSet{}, err
	}
	return NewSampleSet(neg, pos, nBins)
}
