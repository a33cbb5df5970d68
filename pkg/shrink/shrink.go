// Package shrink reduces a smoothed image onto the grid of a coarser pyramid
// level, either by picking samples or by linear resampling.
package shrink

import (
	"fmt"
	"strings"

	"mrpyramid/pkg/fft"
	"mrpyramid/pkg/ndimage"
)

// ErrBufferSizeMismatch is returned when the requested output grid does not
// fit the input and the factors. It is the same sentinel the fft package
// uses, so one errors.Is check covers both.
var ErrBufferSizeMismatch = fft.ErrBufferSizeMismatch

// Policy selects how a level is reduced.
type Policy int

const (
	// Resample interpolates the input linearly at the physical position of
	// every output sample.
	Resample Policy = iota
	// Factor keeps the input sample nearest each output bin centre.
	Factor
)

func (p Policy) String() string {
	if p == Factor {
		return "factor"
	}
	return "resample"
}

// ParsePolicy is the inverse of String.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "resample":
		return Resample, nil
	case "factor", "shrink":
		return Factor, nil
	}
	return 0, fmt.Errorf("unknown shrink policy %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// LevelGeometry returns the grid of a level reduced from in by factors: the
// size is divided (at least one sample), the spacing multiplied, and the
// origin moved so that output samples sit at the centre of their input bins.
func LevelGeometry(in ndimage.Geometry, factors []int) (ndimage.Geometry, error) {
	if len(factors) != len(in.Size) {
		return ndimage.Geometry{}, fmt.Errorf("%d factors for %d axes", len(factors), len(in.Size))
	}
	out := in.Clone()
	for a, f := range factors {
		if f < 1 {
			return ndimage.Geometry{}, fmt.Errorf("invalid factor at axis %d: %d (must be >= 1)", a, f)
		}
		out.Size[a] = max(in.Size[a]/f, 1)
		out.Spacing[a] = in.Spacing[a] * float64(f)
		out.Origin[a] = in.Origin[a] + 0.5*(out.Spacing[a]-in.Spacing[a])
	}
	return out, nil
}

// Reduce dispatches to ByFactor or Linear according to p.
func (p Policy) Reduce(src *ndimage.Image, factors []int, geom ndimage.Geometry, defaultValue float64) (*ndimage.Image, error) {
	if p == Factor {
		return ByFactor(src, factors, geom)
	}
	return Linear(src, geom, nil, defaultValue)
}
