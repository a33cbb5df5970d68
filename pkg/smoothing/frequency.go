package smoothing

import (
	"fmt"

	"mrpyramid/pkg/fft"
	"mrpyramid/pkg/gaussian"
	"mrpyramid/pkg/ndimage"
)

// maxEngineAxes is the number of axes (X, Y, Z) one engine call covers.
const maxEngineAxes = 3

// FrequencySmoother performs the same convolution as SpatialSmoother by
// multiplying spectra on an FFT engine. Each axis is padded by its kernel
// radius with repeated edge samples, then up to a length the engine handles
// efficiently, so the circular product equals the linear convolution on the
// kept region. Images with more than three axes are smoothed three axes at a
// time, which is exact because the kernel is separable.
type FrequencySmoother struct {
	Engine fft.Engine
	// Device is the handle every engine call is submitted through. Nil uses
	// the engine default without serialisation.
	Device             *fft.Device
	MaximumKernelWidth int
}

// Smooth implements Smoother.
func (s *FrequencySmoother) Smooth(img *ndimage.Image, variance []float64, maximumError float64) (*ndimage.Image, error) {
	if s.Engine == nil {
		return nil, fmt.Errorf("frequency smoother has no engine")
	}
	if err := checkVariance(img, variance); err != nil {
		return nil, err
	}
	ks, err := kernels(variance, maximumError, s.MaximumKernelWidth)
	if err != nil {
		return nil, err
	}

	precision := fft.Double
	if img.PixelType() == ndimage.Float32 {
		precision = fft.Single
	}

	data := img.Float64s()
	shape := img.Shape()
	strides := img.Strides()
	for first := 0; first < len(shape); first += maxEngineAxes {
		last := min(first+maxEngineAxes, len(shape))
		axes := make([]int, 0, maxEngineAxes)
		for a := first; a < last; a++ {
			axes = append(axes, a)
		}
		if err := s.smoothAxes(data, shape, strides, ks, axes, precision); err != nil {
			return nil, fmt.Errorf("frequency smoothing axes %v: %w", axes, err)
		}
	}

	out := ndimage.NewLike(img)
	if err := out.SetFloat64s(data); err != nil {
		return nil, err
	}
	return out, nil
}

// smoothAxes convolves data in place along up to three axes, one engine
// block per combination of the remaining axes.
func (s *FrequencySmoother) smoothAxes(data []float64, shape, strides []int, ks []gaussian.Kernel, axes []int, precision fft.Precision) error {
	var block [maxEngineAxes]int
	var radius [maxEngineAxes]int
	var size [maxEngineAxes]int
	var stride [maxEngineAxes]int
	for i := range block {
		block[i], size[i], radius[i] = 1, 1, 0
	}
	for i, a := range axes {
		size[i] = shape[a]
		stride[i] = strides[a]
		radius[i] = ks[a].Radius
		block[i] = fft.NextFriendlySize(shape[a]+2*ks[a].Radius, s.Engine.GreatestPrimeFactor())
	}
	count := block[0] * block[1] * block[2]
	half := (block[0]/2 + 1) * block[1] * block[2]

	taps := make([][]float64, maxEngineAxes)
	for i := range taps {
		taps[i] = []float64{1}
	}
	for i, a := range axes {
		taps[i] = ks[a].Coefficients
	}
	kernelSpectrum, err := s.kernelSpectrum(block, radius, taps, precision, count, half)
	if err != nil {
		return err
	}

	var outer []int
	transformed := make(map[int]bool, len(axes))
	for _, a := range axes {
		transformed[a] = true
	}
	for a := range shape {
		if !transformed[a] {
			outer = append(outer, a)
		}
	}
	outerSize := make([]int, len(outer))
	for i, a := range outer {
		outerSize[i] = shape[a]
	}

	padded := make([]float64, count)
	spectrum := make([]complex128, half)
	result := make([]float64, count)
	var runErr error
	forEachIndex(outerSize, func(idx []int) {
		if runErr != nil {
			return
		}
		base := 0
		for i, a := range outer {
			base += idx[i] * strides[a]
		}
		for p2 := 0; p2 < block[2]; p2++ {
			o2 := clamp(p2-radius[2], size[2]) * stride[2]
			for p1 := 0; p1 < block[1]; p1++ {
				o1 := clamp(p1-radius[1], size[1]) * stride[1]
				row := (p2*block[1] + p1) * block[0]
				for p0 := 0; p0 < block[0]; p0++ {
					padded[row+p0] = data[base+o2+o1+clamp(p0-radius[0], size[0])*stride[0]]
				}
			}
		}

		if err := s.transform(fft.Forward, block, precision, padded, spectrum); err != nil {
			runErr = err
			return
		}
		for i := range spectrum {
			spectrum[i] *= kernelSpectrum[i]
		}
		if err := s.transform(fft.Inverse, block, precision, result, spectrum); err != nil {
			runErr = err
			return
		}

		for i2 := 0; i2 < size[2]; i2++ {
			for i1 := 0; i1 < size[1]; i1++ {
				row := ((i2+radius[2])*block[1] + i1 + radius[1]) * block[0]
				for i0 := 0; i0 < size[0]; i0++ {
					data[base+i2*stride[2]+i1*stride[1]+i0*stride[0]] = result[row+i0+radius[0]]
				}
			}
		}
	})
	return runErr
}

// kernelSpectrum transforms the separable kernel laid out circularly with
// its centre at the block origin.
func (s *FrequencySmoother) kernelSpectrum(block, radius [maxEngineAxes]int, taps [][]float64, precision fft.Precision, count, half int) ([]complex128, error) {
	kernel := make([]float64, count)
	for j2, c2 := range taps[2] {
		q2 := wrap(j2-radius[2], block[2])
		for j1, c1 := range taps[1] {
			q1 := wrap(j1-radius[1], block[1])
			for j0, c0 := range taps[0] {
				q0 := wrap(j0-radius[0], block[0])
				kernel[(q2*block[1]+q1)*block[0]+q0] = c0 * c1 * c2
			}
		}
	}
	spectrum := make([]complex128, half)
	if err := s.transform(fft.Forward, block, precision, kernel, spectrum); err != nil {
		return nil, err
	}
	return spectrum, nil
}

// transform moves reals and half spectra through the engine at the
// requested precision. Forward reads reals and writes spectrum; Inverse reads
// spectrum and writes reals.
func (s *FrequencySmoother) transform(dir fft.Direction, block [maxEngineAxes]int, precision fft.Precision, reals []float64, spectrum []complex128) error {
	p := &fft.Parameters{
		X:          block[0],
		Y:          block[1],
		Z:          block[2],
		Precision:  precision,
		Kind:       fft.R2HalfH,
		Direction:  dir,
		Normalized: dir == fft.Inverse,
	}

	var realBuf, spectralBuf []byte
	var reals32 []float32
	var spectrum64 []complex64
	if precision == fft.Double {
		realBuf = fft.Float64Bytes(reals)
		spectralBuf = fft.Complex128Bytes(spectrum)
	} else {
		reals32 = make([]float32, len(reals))
		spectrum64 = make([]complex64, len(spectrum))
		if dir == fft.Forward {
			for i, v := range reals {
				reals32[i] = float32(v)
			}
		} else {
			for i, v := range spectrum {
				spectrum64[i] = complex64(v)
			}
		}
		realBuf = fft.Float32Bytes(reals32)
		spectralBuf = fft.Complex64Bytes(spectrum64)
	}

	if dir == fft.Forward {
		p.Input, p.Output = realBuf, spectralBuf
	} else {
		p.Input, p.Output = spectralBuf, realBuf
	}
	if err := s.Device.Submit(s.Engine, p); err != nil {
		return err
	}

	if precision == fft.Single {
		if dir == fft.Forward {
			for i, v := range spectrum64 {
				spectrum[i] = complex128(v)
			}
		} else {
			for i, v := range reals32 {
				reals[i] = float64(v)
			}
		}
	}
	return nil
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// forEachIndex calls fn with every index of an array of the given size,
// axis 0 fastest. An empty size yields a single empty index.
func forEachIndex(size []int, fn func(idx []int)) {
	idx := make([]int, len(size))
	for {
		fn(idx)
		a := 0
		for ; a < len(size); a++ {
			idx[a]++
			if idx[a] < size[a] {
				break
			}
			idx[a] = 0
		}
		if a == len(size) {
			return
		}
	}
}
