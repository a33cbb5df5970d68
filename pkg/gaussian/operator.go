// Package gaussian sizes and builds discrete Gaussian convolution kernels.
//
// The kernel is the sampled discrete analogue of the Gaussian,
// exp(-t) I_n(t) for variance t, whose taps are generated from the modified
// Bessel functions of order 0 and 1 and the downward-order recurrence
// I_{n+1}(t) = I_{n-1}(t) - (2n/t) I_n(t). Taps are added until the two-sided
// sum reaches 1 - maximumError.
package gaussian

import (
	"fmt"
	"math"
)

const (
	// DefaultMaximumError is the truncation error used by the pyramid.
	DefaultMaximumError = 0.1

	// DefaultMaximumKernelWidth bounds the one-sided number of taps.
	DefaultMaximumKernelWidth = 32
)

// Variance returns the smoothing variance used for a shrink factor.
func Variance(factor int) float64 {
	v := 0.5 * float64(factor)
	return v * v
}

// Operator describes one directional Gaussian kernel.
type Operator struct {
	Variance           float64
	MaximumError       float64
	MaximumKernelWidth int
}

// Kernel is the result of building an Operator.
type Kernel struct {
	// Coefficients holds 2*Radius+1 normalised, symmetric taps.
	Coefficients []float64
	Radius       int

	// Truncated is set when growth stopped at MaximumKernelWidth or on
	// recursion underflow rather than on reaching the error bound.
	Truncated bool
}

func (o Operator) validate() error {
	if !(o.Variance > 0) || math.IsInf(o.Variance, 0) {
		return fmt.Errorf("variance must be positive and finite, got %g", o.Variance)
	}
	if !(o.MaximumError > 0 && o.MaximumError < 1) {
		return fmt.Errorf("maximum error must be in (0, 1), got %g", o.MaximumError)
	}
	if o.MaximumKernelWidth < 1 {
		return fmt.Errorf("maximum kernel width must be >= 1, got %d", o.MaximumKernelWidth)
	}
	return nil
}

// oneSided returns the centre tap followed by the taps on one side, not yet
// normalised, plus their two-sided sum.
func (o Operator) oneSided() (coeff []float64, sum float64, truncated bool) {
	t := o.Variance
	limit := 1.0 - o.MaximumError

	coeff = append(coeff, besselI0e(t))
	sum += coeff[0]
	coeff = append(coeff, besselI1e(t))
	sum += coeff[1] * 2.0

	for i := 2; sum < limit; i++ {
		coeff = append(coeff, coeff[i-2]-2*float64(i-1)*coeff[i-1]/t)
		sum += coeff[i] * 2.0
		if coeff[i] < sum*epsilon {
			truncated = true
			break
		}
		if len(coeff) > o.MaximumKernelWidth {
			truncated = true
			break
		}
	}
	return coeff, sum, truncated
}

const epsilon = 2.220446049250313e-16

// Radius returns the kernel half-width without materialising the taps.
func (o Operator) Radius() (int, error) {
	if err := o.validate(); err != nil {
		return 0, err
	}
	coeff, _, _ := o.oneSided()
	return len(coeff) - 1, nil
}

// Build returns the normalised symmetric kernel.
func (o Operator) Build() (Kernel, error) {
	if err := o.validate(); err != nil {
		return Kernel{}, err
	}
	half, sum, truncated := o.oneSided()
	r := len(half) - 1
	taps := make([]float64, 2*r+1)
	for i, c := range half {
		c /= sum
		taps[r+i] = c
		taps[r-i] = c
	}
	return Kernel{Coefficients: taps, Radius: r, Truncated: truncated}, nil
}

// Radius is a convenience wrapper sizing the kernel for a variance.
func Radius(variance, maximumError float64, maximumKernelWidth int) (int, error) {
	return Operator{Variance: variance, MaximumError: maximumError, MaximumKernelWidth: maximumKernelWidth}.Radius()
}

// besselI0e returns exp(-|x|) I0(x) from the polynomial approximations of
// Abramowitz and Stegun 9.8.1 and 9.8.2.
func besselI0e(x float64) float64 {
	m := math.Abs(x)
	if m < 3.75 {
		d := x / 3.75
		d *= d
		return math.Exp(-m) * (1.0 + d*(3.5156229+d*(3.0899424+d*(1.2067492+d*(0.2659732+d*(0.360768e-1+d*0.45813e-2))))))
	}
	d := 3.75 / m
	return (1 / math.Sqrt(m)) * (0.39894228 + d*(0.1328592e-1+d*(0.225319e-2+d*(-0.157565e-2+d*(0.916281e-2+
		d*(-0.2057706e-1+d*(0.2635537e-1+d*(-0.1647633e-1+d*0.392377e-2))))))))
}

// besselI1e returns exp(-|x|) I1(x), A&S 9.8.3 and 9.8.4.
func besselI1e(x float64) float64 {
	m := math.Abs(x)
	var acc float64
	if m < 3.75 {
		d := x / 3.75
		d *= d
		acc = math.Exp(-m) * m * (0.5 + d*(0.87890594+d*(0.51498869+d*(0.15084934+d*(0.2658733e-1+d*(0.301532e-2+d*0.32411e-3))))))
	} else {
		d := 3.75 / m
		acc = 0.2282967e-1 + d*(-0.2895312e-1+d*(0.1787654e-1-d*0.420059e-2))
		acc = 0.39894228 + d*(-0.3988024e-1+d*(-0.362018e-2+d*(0.163801e-2+d*(-0.1031555e-1+d*acc))))
		acc *= 1 / math.Sqrt(m)
	}
	if x < 0 {
		return -acc
	}
	return acc
}
