// SPDX-License-Identifier: Apache-2.0

package main

/*
#cgo CFLAGS: -I.
#include <stdlib.h>
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/tarstars/soft_cascade/golang/soft_cascade/scl"
	"gonum.org/v1/gonum/mat"
)

var (
	handleMu   sync.Mutex
	nextHandle uint64 = 1
	cascades          = make(map[uint64]*scl.Cascade)

	lastErrorMu sync.Mutex
	lastError   string
)

func setLastError(err error) {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	if err != nil {
		lastError = err.Error()
	} else {
		lastError = ""
	}
}

func getLastError() string {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	return lastError
}

func storeCascade(c *scl.Cascade) uint64 {
	handleMu.Lock()
	defer handleMu.Unlock()
	handle := nextHandle
	cascades[handle] = c
	nextHandle++
	return handle
}

func fetchCascade(handle uint64) (*scl.Cascade, error) {
	handleMu.Lock()
	defer handleMu.Unlock()
	cascade, ok := cascades[handle]
	if !ok {
		return nil, errors.New("invalid cascade handle")
	}
	return cascade, nil
}

//export FreeModel
func FreeModel(handle C.ulonglong) {
	handleMu.Lock()
	defer handleMu.Unlock()
	delete(cascades, uint64(handle))
}

func copyFloatSlice(ptr *C.double, length int) ([]float64, error) {
	if length < 0 {
		return nil, errors.New("negative length")
	}
	if length == 0 {
		return nil, nil
	}
	if ptr == nil {
		return nil, errors.New("null pointer for non-empty slice")
	}
	src := unsafe.Slice((*float64)(unsafe.Pointer(ptr)), length)
	dst := make([]float64, length)
	copy(dst, src)
	return dst, nil
}

func sliceFromPtr(ptr *C.double, length int) ([]float64, error) {
	if length < 0 {
		return nil, errors.New("negative length")
	}
	if length == 0 {
		return nil, nil
	}
	if ptr == nil {
		return nil, errors.New("null pointer for non-empty slice")
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(ptr)), length), nil
}

//buildDense copies a row-major feature-major matrix: one row per feature, one column per sample.
func buildDense(ptr *C.double, rows, cols C.int) (*mat.Dense, error) {
	r := int(rows)
	c := int(cols)
	if r <= 0 || c <= 0 {
		return nil, errors.New("invalid matrix dimensions")
	}
	data, err := copyFloatSlice(ptr, r*c)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(r, c, data), nil
}

//export SetDebug
func SetDebug(enabled C.int) C.int {
	setLastError(nil)
	if enabled == 0 {
		scl.SetLogger(nil)
		return 0
	}
	logger, err := scl.NewProductionLogger("", true)
	if err != nil {
		setLastError(err)
		return 1
	}
	scl.SetLogger(logger)
	return 0
}

//TrainCascade trains one stage of nWeaks trees. Weight pointers may be null, in which case both
//classes get half of the total weight.
//
//export TrainCascade
func TrainCascade(
	negPtr *C.double,
	featureDim C.int,
	nNeg C.int,
	posPtr *C.double,
	nPos C.int,
	negWeightsPtr *C.double,
	posWeightsPtr *C.double,
	nWeaks C.int,
	nBins C.int,
	maxDepth C.int,
	minWeight C.double,
	fracFtrs C.double,
	threadsNum C.int,
	seed C.longlong,
) C.ulonglong {
	setLastError(nil)

	neg, err := buildDense(negPtr, featureDim, nNeg)
	if err != nil {
		setLastError(err)
		return 0
	}
	pos, err := buildDense(posPtr, featureDim, nPos)
	if err != nil {
		setLastError(err)
		return 0
	}

	set, err := scl.NewSampleSet(neg, pos, int(nBins))
	if err != nil {
		setLastError(err)
		return 0
	}
	if negWeightsPtr != nil || posWeightsPtr != nil {
		if set.NegWeights, err = copyFloatSlice(negWeightsPtr, int(nNeg)); err != nil {
			setLastError(err)
			return 0
		}
		if set.PosWeights, err = copyFloatSlice(posWeightsPtr, int(nPos)); err != nil {
			setLastError(err)
			return 0
		}
	}

	params := scl.TreeParams{
		NBins:     int(nBins),
		MaxDepth:  int(maxDepth),
		MinWeight: float64(minWeight),
		FracFtrs:  float64(fracFtrs),
		NThreads:  int(threadsNum),
		Seed:      int64(seed),
	}
	cascade, err := scl.TrainStage(set, int(nWeaks), params)
	if err != nil {
		setLastError(err)
		return 0
	}
	return C.ulonglong(storeCascade(cascade))
}

//export CombineModels
func CombineModels(first, second C.ulonglong) C.ulonglong {
	setLastError(nil)
	a, err := fetchCascade(uint64(first))
	if err != nil {
		setLastError(err)
		return 0
	}
	b, err := fetchCascade(uint64(second))
	if err != nil {
		setLastError(err)
		return 0
	}
	combined := &scl.Cascade{Mode: a.Mode}
	combined.Combine(a, b)
	return C.ulonglong(storeCascade(combined))
}

//export Predict
func Predict(
	handle C.ulonglong,
	featuresPtr *C.double,
	featureDim C.int,
	nSamples C.int,
	outputPtr *C.double,
	threadsNum C.int,
) C.int {
	setLastError(nil)
	cascade, err := fetchCascade(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}

	features, err := buildDense(featuresPtr, featureDim, nSamples)
	if err != nil {
		setLastError(err)
		return 2
	}

	scores := make([]float64, int(nSamples))
	if err = cascade.ApplyThreads(features, scores, int(threadsNum)); err != nil {
		setLastError(err)
		return 3
	}

	outSlice, err := sliceFromPtr(outputPtr, int(nSamples))
	if err != nil {
		setLastError(err)
		return 4
	}
	copy(outSlice, scores)
	return 0
}

//export SaveModel
func SaveModel(handle C.ulonglong, path *C.char) C.int {
	setLastError(nil)
	cascade, err := fetchCascade(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}
	if err = cascade.SaveModel(C.GoString(path)); err != nil {
		setLastError(err)
		return 2
	}
	return 0
}

//export RenderTrees
func RenderTrees(handle C.ulonglong, prefix, figureType, directory *C.char) C.int {
	setLastError(nil)
	cascade, err := fetchCascade(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}
	goPrefix := C.GoString(prefix)
	goFigureType := C.GoString(figureType)
	goDir := C.GoString(directory)
	if goPrefix == "" {
		goPrefix = "tree"
	}
	if goFigureType == "" {
		goFigureType = "svg"
	}
	if goDir == "" {
		goDir = "."
	}
	if err = cascade.RenderTrees(goPrefix, goFigureType, goDir); err != nil {
		setLastError(err)
		return 2
	}
	return 0
}

//export LoadModel
func LoadModel(path *C.char) C.ulonglong {
	setLastError(nil)
	cascade, err := scl.LoadModel(C.GoString(path))
	if err != nil {
		setLastError(err)
		return 0
	}
	return C.ulonglong(storeCascade(cascade))
}

//export GetLastError
func GetLastError() *C.char {
	errStr := getLastError()
	if errStr == "" {
		return nil
	}
	return C.CString(errStr)
}

//export FreeCString
func FreeCString(str *C.char) {
	if str != nil {
		C.free(unsafe.Pointer(str))
	}
}

func main() {}
