// Package ndimage provides the N-dimensional dense image buffer shared by the
// pyramid stages. Axis 0 is the fastest varying axis in memory.
package ndimage

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Geometry describes the sampling grid of an image: the number of samples per
// axis, the physical distance between samples and the physical position of the
// first sample.
type Geometry struct {
	Size    []int     `yaml:"size"`
	Spacing []float64 `yaml:"spacing"`
	Origin  []float64 `yaml:"origin"`
}

// NewGeometry returns a unit-spaced geometry at the origin.
func NewGeometry(size ...int) Geometry {
	g := Geometry{
		Size:    append([]int(nil), size...),
		Spacing: make([]float64, len(size)),
		Origin:  make([]float64, len(size)),
	}
	for i := range g.Spacing {
		g.Spacing[i] = 1
	}
	return g
}

// Validate checks that all per-axis vectors agree in length and that every
// size and spacing is positive.
func (g Geometry) Validate() error {
	if len(g.Size) == 0 {
		return fmt.Errorf("geometry has no axes")
	}
	if len(g.Spacing) != len(g.Size) || len(g.Origin) != len(g.Size) {
		return fmt.Errorf("geometry vectors disagree: size %d, spacing %d, origin %d",
			len(g.Size), len(g.Spacing), len(g.Origin))
	}
	for i, n := range g.Size {
		if n <= 0 {
			return fmt.Errorf("invalid size at axis %d: %d (must be > 0)", i, n)
		}
		if g.Spacing[i] <= 0 {
			return fmt.Errorf("invalid spacing at axis %d: %g (must be > 0)", i, g.Spacing[i])
		}
	}
	return nil
}

// NumPixels returns the product of the sizes.
func (g Geometry) NumPixels() int {
	n := 1
	for _, s := range g.Size {
		n *= s
	}
	return n
}

// Clone returns a deep copy of g.
func (g Geometry) Clone() Geometry {
	return Geometry{
		Size:    append([]int(nil), g.Size...),
		Spacing: append([]float64(nil), g.Spacing...),
		Origin:  append([]float64(nil), g.Origin...),
	}
}

// SameSize reports whether g and other have identical sizes.
func (g Geometry) SameSize(other Geometry) bool {
	if len(g.Size) != len(other.Size) {
		return false
	}
	for i := range g.Size {
		if g.Size[i] != other.Size[i] {
			return false
		}
	}
	return true
}

// Image is a dense N-dimensional array of scalar samples. Samples are stored
// little-endian in a byte buffer, the way the standard library image types
// keep their Pix slices.
type Image struct {
	geom      Geometry
	pixelType PixelType
	strides   []int
	pix       []byte
}

// New allocates a zeroed image of the given pixel type with unit spacing.
func New(pt PixelType, size ...int) (*Image, error) {
	return NewWithGeometry(pt, NewGeometry(size...))
}

// NewWithGeometry allocates a zeroed image sampled on geom.
func NewWithGeometry(pt PixelType, geom Geometry) (*Image, error) {
	if !pt.Valid() {
		return nil, fmt.Errorf("invalid pixel type %d", int(pt))
	}
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	geom = geom.Clone()
	return &Image{
		geom:      geom,
		pixelType: pt,
		strides:   computeStrides(geom.Size),
		pix:       make([]byte, geom.NumPixels()*pt.Size()),
	}, nil
}

// FromFloat64s builds an image of type pt from data laid out with axis 0 fastest.
func FromFloat64s(pt PixelType, data []float64, size ...int) (*Image, error) {
	img, err := New(pt, size...)
	if err != nil {
		return nil, err
	}
	if err := img.SetFloat64s(data); err != nil {
		return nil, err
	}
	return img, nil
}

// NewLike allocates a zeroed image with the same pixel type and geometry as img.
func NewLike(img *Image) *Image {
	out, _ := NewWithGeometry(img.pixelType, img.geom)
	return out
}

func computeStrides(size []int) []int {
	strides := make([]int, len(size))
	stride := 1
	for i, n := range size {
		strides[i] = stride
		stride *= n
	}
	return strides
}

// PixelType returns the scalar type of the samples.
func (m *Image) PixelType() PixelType { return m.pixelType }

// Dims returns the number of axes.
func (m *Image) Dims() int { return len(m.geom.Size) }

// Len returns the number of samples.
func (m *Image) Len() int { return len(m.pix) / m.pixelType.Size() }

// Shape returns a copy of the per-axis sizes.
func (m *Image) Shape() []int { return append([]int(nil), m.geom.Size...) }

// Strides returns the linear distance between neighbours along each axis.
func (m *Image) Strides() []int { return append([]int(nil), m.strides...) }

// Geometry returns a copy of the sampling grid.
func (m *Image) Geometry() Geometry { return m.geom.Clone() }

// Spacing returns a copy of the per-axis spacing.
func (m *Image) Spacing() []float64 { return append([]float64(nil), m.geom.Spacing...) }

// Origin returns a copy of the physical position of the first sample.
func (m *Image) Origin() []float64 { return append([]float64(nil), m.geom.Origin...) }

// SetGeometry replaces spacing and origin. The size must not change.
func (m *Image) SetGeometry(geom Geometry) error {
	if err := geom.Validate(); err != nil {
		return err
	}
	if !geom.SameSize(m.geom) {
		return fmt.Errorf("geometry size %v does not match image size %v", geom.Size, m.geom.Size)
	}
	m.geom = geom.Clone()
	return nil
}

// Bytes exposes the raw sample buffer. Its length is Len()*PixelType().Size().
func (m *Image) Bytes() []byte { return m.pix }

// Offset converts an N-d index into a linear sample index.
func (m *Image) Offset(index []int) int {
	off := 0
	for i, v := range index {
		off += v * m.strides[i]
	}
	return off
}

// At returns sample i as a float64.
func (m *Image) At(i int) float64 {
	sz := m.pixelType.Size()
	b := m.pix[i*sz : i*sz+sz]
	switch m.pixelType {
	case Uint8:
		return float64(b[0])
	case Int8:
		return float64(int8(b[0]))
	case Uint16:
		return float64(binary.LittleEndian.Uint16(b))
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case Uint32:
		return float64(binary.LittleEndian.Uint32(b))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	default:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
}

// Set stores v as sample i. Integer types round to nearest and saturate.
func (m *Image) Set(i int, v float64) {
	sz := m.pixelType.Size()
	b := m.pix[i*sz : i*sz+sz]
	v = m.pixelType.saturate(v)
	switch m.pixelType {
	case Uint8:
		b[0] = uint8(v)
	case Int8:
		b[0] = uint8(int8(v))
	case Uint16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case Int16:
		binary.LittleEndian.PutUint16(b, uint16(int16(v)))
	case Uint32:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case Int32:
		binary.LittleEndian.PutUint32(b, uint32(int32(v)))
	case Float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	default:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	}
}

// AtIndex returns the sample at an N-d index.
func (m *Image) AtIndex(index ...int) float64 { return m.At(m.Offset(index)) }

// SetIndex stores the sample at an N-d index.
func (m *Image) SetIndex(v float64, index ...int) { m.Set(m.Offset(index), v) }

// Float64s copies every sample into a new float64 slice.
func (m *Image) Float64s() []float64 {
	out := make([]float64, m.Len())
	for i := range out {
		out[i] = m.At(i)
	}
	return out
}

// SetFloat64s overwrites every sample from data.
func (m *Image) SetFloat64s(data []float64) error {
	if len(data) != m.Len() {
		return fmt.Errorf("data has %d samples, image has %d", len(data), m.Len())
	}
	for i, v := range data {
		m.Set(i, v)
	}
	return nil
}

// Clone returns a deep copy of m.
func (m *Image) Clone() *Image {
	return &Image{
		geom:      m.geom.Clone(),
		pixelType: m.pixelType,
		strides:   append([]int(nil), m.strides...),
		pix:       append([]byte(nil), m.pix...),
	}
}
