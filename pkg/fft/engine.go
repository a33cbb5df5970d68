// Package fft defines the contract of the accelerated FFT execution engine the
// frequency-domain smoother delegates to, and ships a CPU implementation of it
// built on gonum.
package fft

import (
	"errors"
	"fmt"
)

// Precision selects the real number type of the engine buffers.
type Precision int

// Single buffers hold float32 values, Double buffers float64.
const (
	Single Precision = iota
	Double
)

// Size is the byte size of one real number.
func (p Precision) Size() int {
	if p == Double {
		return 8
	}
	return 4
}

func (p Precision) String() string {
	if p == Double {
		return "double"
	}
	return "single"
}

// Kind selects the transform.
type Kind int

const (
	// C2C transforms complex to complex; input and output are X*Y*Z complex values.
	C2C Kind = iota
	// R2HalfH transforms X*Y*Z reals to (X/2+1)*Y*Z complex values. Inverse
	// goes from the half spectrum back to reals.
	R2HalfH
	// R2FullH transforms X*Y*Z reals to the full X*Y*Z complex spectrum.
	// Inverse keeps the real part of the full inverse.
	R2FullH
)

func (k Kind) String() string {
	switch k {
	case C2C:
		return "C2C"
	case R2HalfH:
		return "R2HalfH"
	case R2FullH:
		return "R2FullH"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Direction of the transform.
type Direction int

const (
	Forward Direction = -1
	Inverse Direction = 1
)

// Parameters describes one engine call. X is the fastest varying axis. Y and
// Z default to 1 when zero.
type Parameters struct {
	X, Y, Z   int
	Precision Precision
	Kind      Kind
	Direction Direction

	// Normalized divides an inverse transform by X*Y*Z.
	Normalized bool

	Input  []byte
	Output []byte
}

func (p *Parameters) dims() (x, y, z int) {
	x, y, z = p.X, p.Y, p.Z
	if y == 0 {
		y = 1
	}
	if z == 0 {
		z = 1
	}
	return x, y, z
}

// Count returns X*Y*Z.
func (p *Parameters) Count() int {
	x, y, z := p.dims()
	return x * y * z
}

// ExpectedBytes returns the byte lengths the engine requires of the input and
// output buffers for these parameters.
func (p *Parameters) ExpectedBytes() (in, out int) {
	x, y, z := p.dims()
	re := p.Precision.Size()
	cplx := 2 * re
	full := x * y * z
	half := (x/2 + 1) * y * z

	var spatial, spectral int
	switch p.Kind {
	case C2C:
		spatial, spectral = full*cplx, full*cplx
	case R2HalfH:
		spatial, spectral = full*re, half*cplx
	case R2FullH:
		spatial, spectral = full*re, full*cplx
	}
	if p.Direction == Inverse {
		return spectral, spatial
	}
	return spatial, spectral
}

// Result is the status code returned by an engine.
type Result int

const (
	Success Result = iota
	ErrorInvalidParameters
	ErrorBufferSize
	ErrorUnsupportedPrecision
	ErrorUnsupportedKind
	ErrorDevice
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case ErrorInvalidParameters:
		return "invalid parameters"
	case ErrorBufferSize:
		return "buffer size mismatch"
	case ErrorUnsupportedPrecision:
		return "unsupported precision"
	case ErrorUnsupportedKind:
		return "unsupported transform kind"
	case ErrorDevice:
		return "device failure"
	}
	return fmt.Sprintf("engine code %d", int(r))
}

// Engine executes transforms on a device.
type Engine interface {
	// Run performs the transform described by p. A nil device requests the
	// engine's default device.
	Run(dev *Device, p *Parameters) Result

	// GreatestPrimeFactor is the largest prime factor of an axis length the
	// engine transforms efficiently.
	GreatestPrimeFactor() int
}

// ErrBufferSizeMismatch is matched by errors caused by buffers whose byte
// length disagrees with the transform geometry.
var ErrBufferSizeMismatch = errors.New("buffer size mismatch")

// EngineError reports a non-success engine code.
type EngineError struct {
	Code Result
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("fft engine failed with code %d (%s)", int(e.Code), e.Code)
}

// Is lets errors.Is(err, ErrBufferSizeMismatch) match engine size failures.
func (e *EngineError) Is(target error) bool {
	return target == ErrBufferSizeMismatch && e.Code == ErrorBufferSize
}

// CheckBuffers verifies p's buffer lengths before a call is submitted.
func CheckBuffers(p *Parameters) error {
	in, out := p.ExpectedBytes()
	if len(p.Input) != in || len(p.Output) != out {
		return fmt.Errorf("%w: input %d bytes (want %d), output %d bytes (want %d)",
			ErrBufferSizeMismatch, len(p.Input), in, len(p.Output), out)
	}
	return nil
}
