// Package cast converts images between pixel types ahead of smoothing.
package cast

import (
	"fmt"
	"math"
	"strings"

	"mrpyramid/pkg/ndimage"
)

// Policy decides what happens to samples the target type cannot hold.
type Policy int

const (
	// Truncate drops fractional parts toward zero and saturates out-of-range
	// values at the target type's bounds. NaN becomes 0 in integer targets.
	Truncate Policy = iota
	// Strict fails with a *TypeMismatchError on the first sample that is out
	// of range, NaN or infinite for the target type.
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "truncate"
}

// ParsePolicy is the inverse of String.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "truncate":
		return Truncate, nil
	case "strict":
		return Strict, nil
	}
	return 0, fmt.Errorf("unknown cast policy %q", s)
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

// TypeMismatchError reports a sample that cannot be represented in the
// target pixel type.
type TypeMismatchError struct {
	From, To ndimage.PixelType
	Index    int
	Value    float64
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cannot cast %s sample %d (%g) to %s", e.From, e.Index, e.Value, e.To)
}

// Image converts src to pixel type to. When src already has that type it is
// returned as is; callers must treat the result as read-only.
func Image(src *ndimage.Image, to ndimage.PixelType, policy Policy) (*ndimage.Image, error) {
	if src.PixelType() == to {
		return src, nil
	}
	out, err := ndimage.NewWithGeometry(to, src.Geometry())
	if err != nil {
		return nil, err
	}
	for i, n := 0, src.Len(); i < n; i++ {
		v := src.At(i)
		if policy == Strict && !to.Representable(v) {
			return nil, &TypeMismatchError{From: src.PixelType(), To: to, Index: i, Value: v}
		}
		if to.IsInteger() && !math.IsNaN(v) {
			v = math.Trunc(v)
		}
		out.Set(i, v)
	}
	return out, nil
}
