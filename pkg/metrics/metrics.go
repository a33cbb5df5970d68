// Package metrics compares two images sample by sample.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"mrpyramid/pkg/ndimage"
)

// Comparison holds agreement measures between a reference and a candidate.
type Comparison struct {
	// RMSE is the root mean square difference.
	RMSE float64
	// MaxAbsDiff is the largest absolute difference of any sample.
	MaxAbsDiff float64
	// Correlation is Pearson's r. It is NaN when either image is constant.
	Correlation float64
	// MeanReference and MeanCandidate are the sample means.
	MeanReference float64
	MeanCandidate float64
}

func (c Comparison) String() string {
	return fmt.Sprintf("rmse=%.3g max=%.3g r=%.6f", c.RMSE, c.MaxAbsDiff, c.Correlation)
}

// Compare measures how closely candidate matches reference. Both must have
// the same shape.
func Compare(reference, candidate *ndimage.Image) (Comparison, error) {
	if !reference.Geometry().SameSize(candidate.Geometry()) {
		return Comparison{}, fmt.Errorf("cannot compare shapes %v and %v", reference.Shape(), candidate.Shape())
	}
	return CompareSamples(reference.Float64s(), candidate.Float64s())
}

// CompareSamples is Compare on raw sample slices.
func CompareSamples(reference, candidate []float64) (Comparison, error) {
	if len(reference) != len(candidate) {
		return Comparison{}, fmt.Errorf("cannot compare %d samples with %d", len(reference), len(candidate))
	}
	if len(reference) == 0 {
		return Comparison{}, fmt.Errorf("no samples to compare")
	}
	return Comparison{
		RMSE:          RMSE(reference, candidate),
		MaxAbsDiff:    floats.Distance(reference, candidate, math.Inf(1)),
		Correlation:   stat.Correlation(reference, candidate, nil),
		MeanReference: stat.Mean(reference, nil),
		MeanCandidate: stat.Mean(candidate, nil),
	}, nil
}

// RMSE computes the root mean square error of two equally long slices.
func RMSE(reference, candidate []float64) float64 {
	if len(reference) == 0 {
		return 0
	}
	return floats.Distance(reference, candidate, 2) / math.Sqrt(float64(len(reference)))
}
