package ndimage

import (
	"fmt"
	"math"
	"strings"
)

// PixelType identifies the scalar type stored in an Image.
type PixelType int

// The supported pixel types, named after their Go element types.
const (
	Uint8 PixelType = iota
	Int8
	Uint16
	Int16
	Uint32
	Int32
	Float32
	Float64
)

var pixelTypeNames = map[PixelType]string{
	Uint8:   "uint8",
	Int8:    "int8",
	Uint16:  "uint16",
	Int16:   "int16",
	Uint32:  "uint32",
	Int32:   "int32",
	Float32: "float32",
	Float64: "float64",
}

// String returns the lower-case Go name of the pixel type.
func (p PixelType) String() string {
	if name, ok := pixelTypeNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PixelType(%d)", int(p))
}

// ParsePixelType is the inverse of String.
func ParsePixelType(s string) (PixelType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, name := range pixelTypeNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown pixel type %q", s)
}

// MarshalText implements encoding.TextMarshaler so pixel types read naturally in YAML.
func (p PixelType) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid pixel type %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PixelType) UnmarshalText(text []byte) error {
	parsed, err := ParsePixelType(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Valid reports whether p is one of the declared pixel types.
func (p PixelType) Valid() bool {
	_, ok := pixelTypeNames[p]
	return ok
}

// Size is the number of bytes one sample occupies.
func (p PixelType) Size() int {
	switch p {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32, Float32:
		return 4
	case Float64:
		return 8
	}
	return 0
}

// IsInteger reports whether p stores whole numbers.
func (p PixelType) IsInteger() bool {
	return p != Float32 && p != Float64
}

// Range returns the smallest and largest finite values the type can hold.
func (p PixelType) Range() (lo, hi float64) {
	switch p {
	case Uint8:
		return 0, math.MaxUint8
	case Int8:
		return math.MinInt8, math.MaxInt8
	case Uint16:
		return 0, math.MaxUint16
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Uint32:
		return 0, math.MaxUint32
	case Int32:
		return math.MinInt32, math.MaxInt32
	case Float32:
		return -math.MaxFloat32, math.MaxFloat32
	}
	return -math.MaxFloat64, math.MaxFloat64
}

// Representable reports whether v can be stored as p without leaving the
// type's range. Fractional parts are not considered lost information for
// integer types; NaN and infinities are representable only by float types.
func (p PixelType) Representable(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return !p.IsInteger()
	}
	lo, hi := p.Range()
	if p.IsInteger() {
		v = math.Trunc(v)
	}
	return v >= lo && v <= hi
}

// saturate clamps v into the range of p, rounding to nearest for integer types.
func (p PixelType) saturate(v float64) float64 {
	if !p.IsInteger() {
		if p == Float32 && !math.IsNaN(v) && !math.IsInf(v, 0) {
			lo, hi := p.Range()
			return math.Max(lo, math.Min(hi, v))
		}
		return v
	}
	if math.IsNaN(v) {
		return 0
	}
	lo, hi := p.Range()
	return math.Max(lo, math.Min(hi, math.Round(v)))
}
