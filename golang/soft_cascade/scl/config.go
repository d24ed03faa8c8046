package scl

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
)

//TreeParams collects arguments required to grow one tree.
//NBins is the quantization resolution, MaxDepth bounds the depth of the tree, MinWeight is
//the minimal node weight that allows a split, FracFtrs is the fraction of features sampled
//for every split and NThreads caps the parallelism of the split search. Seed drives the
//shuffling of the feature subsets, so equal seeds give equal trees.
type TreeParams struct {
	NBins     int     `json:"n_bins" yaml:"n_bins" validate:"gte=2,lte=256"`
	MaxDepth  int     `json:"max_depth" yaml:"max_depth" validate:"gte=0"`
	MinWeight float64 `json:"min_weight" yaml:"min_weight" validate:"gte=0,lte=1"`
	FracFtrs  float64 `json:"frac_ftrs" yaml:"frac_ftrs" validate:"gte=0,lte=1"`
	NThreads  int     `json:"n_threads" yaml:"n_threads" validate:"gte=0"`
	Seed      int64   `json:"seed" yaml:"seed"`
}

//DefaultTreeParams returns the parameters the detector is usually trained with.
func DefaultTreeParams() TreeParams {
	return TreeParams{
		NBins:     256,
		MaxDepth:  2,
		MinWeight: 0.01,
		FracFtrs:  0.0625,
		NThreads:  8,
	}
}

var paramsValidator = validator.New()

//Validate checks every field and reports all violations at once. Each violation is a *ConfigError.
func (p TreeParams) Validate() error {
	err := paramsValidator.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return &ConfigError{Field: "TreeParams", Reason: err.Error()}
	}

	var result error
	for _, fe := range fieldErrors {
		result = multierr.Append(result, &ConfigError{
			Field:  fe.Field(),
			Reason: fmt.Sprintf("%v violates %s=%s", fe.Value(), fe.Tag(), fe.Param()),
		})
	}
	return result
}

//effectiveThreads clamps the requested thread count to the available parallelism.
func effectiveThreads(requested int) int {
	available := runtime.NumCPU()
	if requested > available {
		requested = available
	}
	if requested < 1 {
		requested = 1
	}
	return requested
}
