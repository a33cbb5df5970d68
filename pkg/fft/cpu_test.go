package fft

import (
	"errors"
	"math"
	"math/cmplx"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// naiveDFT3 is the textbook forward transform used as the reference.
func naiveDFT3(in []complex128, x, y, z int) []complex128 {
	out := make([]complex128, len(in))
	for kz := 0; kz < z; kz++ {
		for ky := 0; ky < y; ky++ {
			for kx := 0; kx < x; kx++ {
				var sum complex128
				for iz := 0; iz < z; iz++ {
					for iy := 0; iy < y; iy++ {
						for ix := 0; ix < x; ix++ {
							phase := -2 * math.Pi * (float64(kx*ix)/float64(x) + float64(ky*iy)/float64(y) + float64(kz*iz)/float64(z))
							sum += in[ix+x*(iy+y*iz)] * cmplx.Exp(complex(0, phase))
						}
					}
				}
				out[kx+x*(ky+y*kz)] = sum
			}
		}
	}
	return out
}

func testSignal(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.Sin(float64(i)*0.7) + 0.25*float64(i%3)
	}
	return s
}

func TestCPUEngine_C2CMatchesNaiveDFT(t *testing.T) {
	const x, y, z = 5, 3, 2
	in := make([]complex128, x*y*z)
	for i, v := range testSignal(len(in)) {
		in[i] = complex(v, float64(i%2))
	}
	out := make([]complex128, len(in))

	p := &Parameters{X: x, Y: y, Z: z, Precision: Double, Kind: C2C, Direction: Forward,
		Input: Complex128Bytes(append([]complex128(nil), in...)), Output: Complex128Bytes(out)}
	require.Equal(t, Success, NewCPUEngine().Run(nil, p))

	want := naiveDFT3(in, x, y, z)
	for i := range want {
		assert.InDelta(t, real(want[i]), real(out[i]), 1e-9, "re %d", i)
		assert.InDelta(t, imag(want[i]), imag(out[i]), 1e-9, "im %d", i)
	}
}

func TestCPUEngine_RoundTrip(t *testing.T) {
	const x, y, z = 6, 4, 3
	n := x * y * z
	for _, kind := range []Kind{C2C, R2HalfH, R2FullH} {
		for _, prec := range []Precision{Single, Double} {
			t.Run(kind.String()+"/"+prec.String(), func(t *testing.T) {
				engine := NewCPUEngine()
				signal := testSignal(n)

				var input, spectrum, back []byte
				var readBack func(i int) float64
				spectral := n
				if kind == R2HalfH {
					spectral = (x/2 + 1) * y * z
				}
				if prec == Double {
					spectrum = Complex128Bytes(make([]complex128, spectral))
				} else {
					spectrum = Complex64Bytes(make([]complex64, spectral))
				}

				switch {
				case kind == C2C && prec == Double:
					c := make([]complex128, n)
					for i, v := range signal {
						c[i] = complex(v, 0)
					}
					input = Complex128Bytes(c)
					o := make([]complex128, n)
					back = Complex128Bytes(o)
					readBack = func(i int) float64 { return real(o[i]) }
				case kind == C2C:
					c := make([]complex64, n)
					for i, v := range signal {
						c[i] = complex(float32(v), 0)
					}
					input = Complex64Bytes(c)
					o := make([]complex64, n)
					back = Complex64Bytes(o)
					readBack = func(i int) float64 { return float64(real(o[i])) }
				case prec == Double:
					input = Float64Bytes(append([]float64(nil), signal...))
					o := make([]float64, n)
					back = Float64Bytes(o)
					readBack = func(i int) float64 { return o[i] }
				default:
					f := make([]float32, n)
					for i, v := range signal {
						f[i] = float32(v)
					}
					input = Float32Bytes(f)
					o := make([]float32, n)
					back = Float32Bytes(o)
					readBack = func(i int) float64 { return float64(o[i]) }
				}

				fwd := &Parameters{X: x, Y: y, Z: z, Precision: prec, Kind: kind, Direction: Forward, Input: input, Output: spectrum}
				require.Equal(t, Success, engine.Run(nil, fwd))
				inv := &Parameters{X: x, Y: y, Z: z, Precision: prec, Kind: kind, Direction: Inverse, Normalized: true, Input: spectrum, Output: back}
				require.Equal(t, Success, engine.Run(nil, inv))

				tol := 1e-9
				if prec == Single {
					tol = 1e-4
				}
				for i, v := range signal {
					assert.InDelta(t, v, readBack(i), tol, "sample %d", i)
				}
			})
		}
	}
}

func TestCPUEngine_HalfSpectrumIsPrefixOfFull(t *testing.T) {
	const x, y = 7, 4
	signal := testSignal(x * y)
	full := make([]complex128, x*y)
	half := make([]complex128, (x/2+1)*y)
	engine := NewCPUEngine()

	require.Equal(t, Success, engine.Run(nil, &Parameters{X: x, Y: y, Precision: Double, Kind: R2FullH, Direction: Forward,
		Input: Float64Bytes(signal), Output: Complex128Bytes(full)}))
	require.Equal(t, Success, engine.Run(nil, &Parameters{X: x, Y: y, Precision: Double, Kind: R2HalfH, Direction: Forward,
		Input: Float64Bytes(signal), Output: Complex128Bytes(half)}))

	for iy := 0; iy < y; iy++ {
		for kx := 0; kx <= x/2; kx++ {
			assert.InDelta(t, 0, cmplx.Abs(full[kx+x*iy]-half[kx+(x/2+1)*iy]), 1e-9)
		}
	}
}

func TestCPUEngine_UnnormalisedInverseScalesByCount(t *testing.T) {
	const x = 8
	spectrum := make([]complex128, x)
	spectrum[0] = 1
	out := make([]complex128, x)
	require.Equal(t, Success, NewCPUEngine().Run(nil, &Parameters{X: x, Precision: Double, Kind: C2C, Direction: Inverse,
		Input: Complex128Bytes(spectrum), Output: Complex128Bytes(out)}))
	for _, v := range out {
		assert.InDelta(t, 1.0, real(v), 1e-12)
	}
}

func TestCPUEngine_RejectsBadParameters(t *testing.T) {
	engine := NewCPUEngine()
	buf := Float64Bytes(make([]float64, 8))
	out := Complex128Bytes(make([]complex128, 8))

	assert.Equal(t, ErrorInvalidParameters, engine.Run(nil, nil))
	assert.Equal(t, ErrorInvalidParameters, engine.Run(nil, &Parameters{X: 0, Input: buf, Output: out}))
	assert.Equal(t, ErrorUnsupportedPrecision, engine.Run(nil, &Parameters{X: 8, Precision: 7, Kind: R2FullH, Direction: Forward, Input: buf, Output: out}))
	assert.Equal(t, ErrorUnsupportedKind, engine.Run(nil, &Parameters{X: 8, Precision: Double, Kind: 9, Direction: Forward, Input: buf, Output: out}))
	assert.Equal(t, ErrorInvalidParameters, engine.Run(nil, &Parameters{X: 8, Precision: Double, Kind: R2FullH, Input: buf, Output: out}))
	assert.Equal(t, ErrorBufferSize, engine.Run(nil, &Parameters{X: 4, Precision: Double, Kind: R2FullH, Direction: Forward, Input: buf, Output: out}))
	assert.Equal(t, 13, engine.GreatestPrimeFactor())
}

func TestDevice_SubmitSurfacesErrors(t *testing.T) {
	dev := NewDevice(0)
	p := &Parameters{X: 4, Precision: Double, Kind: R2FullH, Direction: Forward,
		Input: Float64Bytes(make([]float64, 3)), Output: Complex128Bytes(make([]complex128, 4))}
	err := dev.Submit(NewCPUEngine(), p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBufferSizeMismatch))

	p.Input = Float64Bytes(make([]float64, 4))
	err = dev.Submit(failingEngine{code: ErrorDevice}, p)
	var engErr *EngineError
	require.True(t, errors.As(err, &engErr))
	assert.Equal(t, ErrorDevice, engErr.Code)
	assert.Contains(t, err.Error(), "code 5")

	assert.True(t, errors.Is(&EngineError{Code: ErrorBufferSize}, ErrBufferSizeMismatch))
	assert.NoError(t, (*Device)(nil).Submit(NewCPUEngine(), p))
}

type failingEngine struct{ code Result }

func (f failingEngine) Run(*Device, *Parameters) Result { return f.code }
func (f failingEngine) GreatestPrimeFactor() int       { return 13 }

type countingEngine struct {
	inFlight, peak atomic.Int32
}

func (c *countingEngine) Run(*Device, *Parameters) Result {
	n := c.inFlight.Add(1)
	for {
		old := c.peak.Load()
		if n <= old || c.peak.CompareAndSwap(old, n) {
			break
		}
	}
	for i := 0; i < 1000; i++ {
		_ = math.Sqrt(float64(i))
	}
	c.inFlight.Add(-1)
	return Success
}

func (c *countingEngine) GreatestPrimeFactor() int { return 13 }

func TestDevice_SerialisesSubmissions(t *testing.T) {
	dev := NewDevice(3)
	engine := &countingEngine{}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := &Parameters{X: 2, Precision: Double, Kind: C2C, Direction: Forward,
				Input: Complex128Bytes(make([]complex128, 2)), Output: Complex128Bytes(make([]complex128, 2))}
			assert.NoError(t, dev.Submit(engine, p))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), engine.peak.Load())
	assert.Equal(t, "device 3", dev.String())
}

func TestGreatestPrimeFactorOf(t *testing.T) {
	tests := map[int]int{0: 1, 1: 1, 2: 2, 12: 3, 13: 13, 17: 17, 39: 13, 64: 2, 98: 7}
	for n, want := range tests {
		assert.Equal(t, want, GreatestPrimeFactorOf(n), "n=%d", n)
	}
}

func TestNextFriendlySize(t *testing.T) {
	assert.Equal(t, 18, NextFriendlySize(17, 13))
	assert.Equal(t, 35, NextFriendlySize(34, 13))
	assert.Equal(t, 64, NextFriendlySize(64, 2))
	assert.Equal(t, 64, NextFriendlySize(33, 2))
	assert.Equal(t, 1, NextFriendlySize(0, 13))

	engine := NewCPUEngine()
	assert.True(t, Feasible(engine, 64, 39, 26))
	assert.False(t, Feasible(engine, 64, 17))
}
