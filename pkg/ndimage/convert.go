package ndimage

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// FromImage converts a standard library image into a two-axis image of type pt
// holding 16-bit luminance. Axis 0 is x, axis 1 is y.
func FromImage(src image.Image, pt PixelType) (*Image, error) {
	b := src.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("source image is empty")
	}
	out, err := New(pt, b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.Gray16Model.Convert(src.At(x, y)).(color.Gray16)
			out.SetIndex(float64(g.Y), x-b.Min.X, y-b.Min.Y)
		}
	}
	return out, nil
}

// ToGray16 renders a two-axis image, or the plane at the given indices of the
// remaining axes, as a Gray16 image stretched to the full 16-bit range.
func ToGray16(m *Image, rest ...int) (*image.Gray16, error) {
	if m.Dims() < 2 {
		return nil, fmt.Errorf("need at least 2 axes, image has %d", m.Dims())
	}
	if len(rest) != m.Dims()-2 {
		return nil, fmt.Errorf("need %d plane indices, got %d", m.Dims()-2, len(rest))
	}
	w, h := m.geom.Size[0], m.geom.Size[1]
	index := make([]int, m.Dims())
	for i, v := range rest {
		if v < 0 || v >= m.geom.Size[i+2] {
			return nil, fmt.Errorf("plane index %d out of range for axis %d", v, i+2)
		}
		index[i+2] = v
	}

	plane := make([]float64, w*h)
	lo, hi := math.Inf(1), math.Inf(-1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			index[0], index[1] = x, y
			v := m.At(m.Offset(index))
			plane[y*w+x] = v
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	img := image.NewGray16(image.Rect(0, 0, w, h))
	scale := 0.0
	if hi > lo {
		scale = 65535 / (hi - lo)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := (plane[y*w+x] - lo) * scale
			img.SetGray16(x, y, color.Gray16{Y: uint16(math.Max(0, math.Min(65535, math.Round(v))))})
		}
	}
	return img, nil
}
