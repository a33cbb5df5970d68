package fft

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// CPUEngine executes the engine contract in process with gonum's FFTPACK
// port. Single precision buffers are widened to complex128 for the transform
// and narrowed on the way out. The device handle is ignored.
type CPUEngine struct {
	// MaxPrimeFactor is reported by GreatestPrimeFactor. Zero means
	// DefaultGreatestPrimeFactor.
	MaxPrimeFactor int
}

// DefaultGreatestPrimeFactor is the radix limit of the GPU engine.
const DefaultGreatestPrimeFactor = 13

// NewCPUEngine returns a CPU engine reporting the default prime factor limit.
func NewCPUEngine() *CPUEngine {
	return &CPUEngine{}
}

func (e *CPUEngine) GreatestPrimeFactor() int {
	if e.MaxPrimeFactor > 0 {
		return e.MaxPrimeFactor
	}
	return DefaultGreatestPrimeFactor
}

// Run implements Engine.
func (e *CPUEngine) Run(_ *Device, p *Parameters) Result {
	if p == nil {
		return ErrorInvalidParameters
	}
	x, y, z := p.dims()
	if x <= 0 || y <= 0 || z <= 0 {
		return ErrorInvalidParameters
	}
	if p.Precision != Single && p.Precision != Double {
		return ErrorUnsupportedPrecision
	}
	if p.Kind != C2C && p.Kind != R2HalfH && p.Kind != R2FullH {
		return ErrorUnsupportedKind
	}
	if p.Direction != Forward && p.Direction != Inverse {
		return ErrorInvalidParameters
	}
	if CheckBuffers(p) != nil {
		return ErrorBufferSize
	}

	t := newTransformer(x, y, z)
	if p.Direction == Forward {
		t.forward(p)
	} else {
		t.inverse(p)
	}
	return Success
}

type transformer struct {
	x, y, z int
	cplx    map[int]*fourier.CmplxFFT
}

func newTransformer(x, y, z int) *transformer {
	return &transformer{x: x, y: y, z: z, cplx: make(map[int]*fourier.CmplxFFT)}
}

func (t *transformer) plan(n int) *fourier.CmplxFFT {
	f, ok := t.cplx[n]
	if !ok {
		f = fourier.NewCmplxFFT(n)
		t.cplx[n] = f
	}
	return f
}

func (t *transformer) forward(p *Parameters) {
	switch p.Kind {
	case C2C:
		work := loadComplex(p.Input, p.Precision)
		t.axes(work, t.x, false, true)
		storeComplex(p.Output, p.Precision, work)
	case R2FullH:
		reals := loadReal(p.Input, p.Precision)
		work := make([]complex128, len(reals))
		for i, v := range reals {
			work[i] = complex(v, 0)
		}
		t.axes(work, t.x, false, true)
		storeComplex(p.Output, p.Precision, work)
	case R2HalfH:
		reals := loadReal(p.Input, p.Precision)
		hx := t.x/2 + 1
		work := make([]complex128, hx*t.y*t.z)
		rfft := realPlan(t.x)
		line := make([]complex128, hx)
		for row := 0; row < t.y*t.z; row++ {
			seq := reals[row*t.x : (row+1)*t.x]
			if rfft == nil {
				line[0] = complex(seq[0], 0)
			} else {
				rfft.Coefficients(line, seq)
			}
			copy(work[row*hx:(row+1)*hx], line)
		}
		t.axes(work, hx, false, false)
		storeComplex(p.Output, p.Precision, work)
	}
}

func (t *transformer) inverse(p *Parameters) {
	scale := 1.0
	if p.Normalized {
		scale = 1 / float64(t.x*t.y*t.z)
	}
	switch p.Kind {
	case C2C:
		work := loadComplex(p.Input, p.Precision)
		t.axes(work, t.x, true, true)
		if scale != 1 {
			for i := range work {
				work[i] *= complex(scale, 0)
			}
		}
		storeComplex(p.Output, p.Precision, work)
	case R2FullH:
		work := loadComplex(p.Input, p.Precision)
		t.axes(work, t.x, true, true)
		reals := make([]float64, len(work))
		for i, v := range work {
			reals[i] = real(v) * scale
		}
		storeReal(p.Output, p.Precision, reals)
	case R2HalfH:
		hx := t.x/2 + 1
		work := loadComplex(p.Input, p.Precision)
		t.axes(work, hx, true, false)
		rfft := realPlan(t.x)
		reals := make([]float64, t.x*t.y*t.z)
		line := make([]complex128, hx)
		seq := make([]float64, t.x)
		for row := 0; row < t.y*t.z; row++ {
			copy(line, work[row*hx:(row+1)*hx])
			if rfft == nil {
				seq[0] = real(line[0])
			} else {
				rfft.Sequence(seq, line)
			}
			for i, v := range seq {
				reals[row*t.x+i] = v * scale
			}
		}
		storeReal(p.Output, p.Precision, reals)
	}
}

// realPlan returns nil for length-one axes, which need no transform.
func realPlan(n int) *fourier.FFT {
	if n < 2 {
		return nil
	}
	return fourier.NewFFT(n)
}

// axes transforms work along y and z, and along x as well when withX is set.
// nx is the stored length of the x axis.
func (t *transformer) axes(work []complex128, nx int, inverse, withX bool) {
	if withX {
		t.axis(work, nx, 1, t.y*t.z, func(line int) int { return line * nx }, inverse)
	}
	t.axis(work, t.y, nx, nx*t.z, func(line int) int {
		return (line/nx)*nx*t.y + line%nx
	}, inverse)
	t.axis(work, t.z, nx*t.y, nx*t.y, func(line int) int { return line }, inverse)
}

// axis runs a 1-d transform of length n over `lines` lines whose elements sit
// stride apart, the first element of line l being at start(l).
func (t *transformer) axis(work []complex128, n, stride, lines int, start func(int) int, inverse bool) {
	if n < 2 {
		return
	}
	f := t.plan(n)
	src := make([]complex128, n)
	dst := make([]complex128, n)
	for l := 0; l < lines; l++ {
		base := start(l)
		for i := 0; i < n; i++ {
			src[i] = work[base+i*stride]
		}
		if inverse {
			f.Sequence(dst, src)
		} else {
			f.Coefficients(dst, src)
		}
		for i := 0; i < n; i++ {
			work[base+i*stride] = dst[i]
		}
	}
}

func loadComplex(b []byte, p Precision) []complex128 {
	if p == Double {
		return append([]complex128(nil), bytesComplex128(b)...)
	}
	src := bytesComplex64(b)
	out := make([]complex128, len(src))
	for i, v := range src {
		out[i] = complex128(v)
	}
	return out
}

func storeComplex(b []byte, p Precision, v []complex128) {
	if p == Double {
		copy(bytesComplex128(b), v)
		return
	}
	dst := bytesComplex64(b)
	for i := range dst {
		dst[i] = complex64(v[i])
	}
}

func loadReal(b []byte, p Precision) []float64 {
	if p == Double {
		return append([]float64(nil), bytesFloat64(b)...)
	}
	src := bytesFloat32(b)
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = float64(v)
	}
	return out
}

func storeReal(b []byte, p Precision, v []float64) {
	if p == Double {
		copy(bytesFloat64(b), v)
		return
	}
	dst := bytesFloat32(b)
	for i := range dst {
		dst[i] = float32(v[i])
	}
}
