package scl

import (
	"errors"
	"math"
	"testing"
)

func TestComputeCDF(t *testing.T) {
	values := []uint8{0, 3, 3, 1, 7}
	weights := []float64{0.1, 0.2, 0.3, 0.15, 0.25}

	cdf, err := ComputeCDF(values, weights, 8)
	if err != nil {
		t.Fatalf("ComputeCDF: %v", err)
	}
	expected := []float64{0.1, 0.25, 0.25, 0.75, 0.75, 0.75, 0.75, 1}
	for b := range expected {
		if math.Abs(cdf[b]-expected[b]) > 1e-12 {
			t.Fatalf("cdf[%d] = %g, expected %g", b, cdf[b], expected[b])
		}
		if b > 0 && cdf[b] < cdf[b-1] {
			t.Fatalf("cdf decreases at %d", b)
		}
	}
}

func TestComputeCDFRejectsBadInput(t *testing.T) {
	if _, err := ComputeCDF([]uint8{1, 2}, []float64{1}, 4); !errors.Is(err, ErrData) {
		t.Fatalf("length mismatch should be a data error, got %v", err)
	}
	if _, err := ComputeCDF([]uint8{1, 4}, []float64{0.5, 0.5}, 4); !errors.Is(err, ErrData) {
		t.Fatalf("bin 4 should not fit into 4 bins, got %v", err)
	}
	if _, err := ComputeCDF([]uint8{0}, []float64{1}, 1); !errors.Is(err, ErrData) {
		t.Fatalf("a single bin should be rejected, got %v", err)
	}

	cdf := []float64{5, 5, 5}
	if err := computeCDF([]uint8{0, 9}, []float64{0.5, 0.5}, cdf); err == nil {
		t.Fatalf("expected an error")
	}
	for b, v := range cdf {
		if v != 0 {
			t.Fatalf("cdf[%d] = %g should stay zeroed on error", b, v)
		}
	}
}

func TestComputeCDFEmpty(t *testing.T) {
	cdf, err := ComputeCDF(nil, nil, 4)
	if err != nil {
		t.Fatalf("ComputeCDF: %v", err)
	}
	for _, v := range cdf {
		if v != 0 {
			t.Fatalf("cdf of no samples should be zero: %v", cdf)
		}
	}
}
