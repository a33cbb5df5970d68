package smoothing

import (
	"mrpyramid/pkg/ndimage"
)

// SpatialSmoother convolves each axis in turn with its discrete Gaussian
// kernel. Samples beyond the border repeat the edge sample (zero-flux
// Neumann boundary).
type SpatialSmoother struct {
	MaximumKernelWidth int
}

// Smooth implements Smoother.
func (s *SpatialSmoother) Smooth(img *ndimage.Image, variance []float64, maximumError float64) (*ndimage.Image, error) {
	if err := checkVariance(img, variance); err != nil {
		return nil, err
	}
	ks, err := kernels(variance, maximumError, s.MaximumKernelWidth)
	if err != nil {
		return nil, err
	}

	data := img.Float64s()
	shape := img.Shape()
	strides := img.Strides()
	scratch := make([]float64, len(data))
	for axis, k := range ks {
		convolveAxis(scratch, data, shape[axis], strides[axis], k.Coefficients)
		data, scratch = scratch, data
	}

	out := ndimage.NewLike(img)
	if err := out.SetFloat64s(data); err != nil {
		return nil, err
	}
	return out, nil
}

// convolveAxis writes into dst the convolution of src with taps along the
// axis of length n whose neighbours are stride apart.
func convolveAxis(dst, src []float64, n, stride int, taps []float64) {
	r := len(taps) / 2
	lines := len(src) / n
	line := make([]float64, n)
	for l := 0; l < lines; l++ {
		base := l%stride + (l/stride)*stride*n
		for i := 0; i < n; i++ {
			line[i] = src[base+i*stride]
		}
		for i := 0; i < n; i++ {
			var sum float64
			for j, c := range taps {
				k := i + j - r
				if k < 0 {
					k = 0
				} else if k >= n {
					k = n - 1
				}
				sum += c * line[k]
			}
			dst[base+i*stride] = sum
		}
	}
}
