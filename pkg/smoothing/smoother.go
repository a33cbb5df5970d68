// Package smoothing holds the two interchangeable Gaussian smoothers and the
// rule that picks between them for a pyramid level.
package smoothing

import (
	"fmt"

	"mrpyramid/pkg/gaussian"
	"mrpyramid/pkg/ndimage"
)

// Method tags the smoothing strategy chosen for a level.
type Method int

const (
	Spatial Method = iota
	Frequency
)

func (m Method) String() string {
	switch m {
	case Spatial:
		return "spatial"
	case Frequency:
		return "frequency"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Smoother convolves an image with a per-axis Gaussian. The result has the
// shape, geometry and pixel type of the input; the input is not modified.
type Smoother interface {
	Smooth(img *ndimage.Image, variance []float64, maximumError float64) (*ndimage.Image, error)
}

// Select returns Frequency when at least thresholdDimension axes have a
// radius at or above their threshold.
func Select(radius, threshold []int, thresholdDimension int) Method {
	exceeded := 0
	for i, r := range radius {
		if i < len(threshold) && r >= threshold[i] {
			exceeded++
		}
	}
	if exceeded >= thresholdDimension {
		return Frequency
	}
	return Spatial
}

// kernels builds one directional kernel per axis.
func kernels(variance []float64, maximumError float64, maximumKernelWidth int) ([]gaussian.Kernel, error) {
	if maximumKernelWidth <= 0 {
		maximumKernelWidth = gaussian.DefaultMaximumKernelWidth
	}
	out := make([]gaussian.Kernel, len(variance))
	for i, v := range variance {
		k, err := gaussian.Operator{
			Variance:           v,
			MaximumError:       maximumError,
			MaximumKernelWidth: maximumKernelWidth,
		}.Build()
		if err != nil {
			return nil, fmt.Errorf("axis %d: %w", i, err)
		}
		out[i] = k
	}
	return out, nil
}

func checkVariance(img *ndimage.Image, variance []float64) error {
	if len(variance) != img.Dims() {
		return fmt.Errorf("variance has %d axes, image has %d", len(variance), img.Dims())
	}
	return nil
}
