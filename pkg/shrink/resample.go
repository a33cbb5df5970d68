package shrink

import (
	"fmt"
	"math"

	"mrpyramid/pkg/ndimage"
)

// Transform maps a physical point of the output grid to the physical point of
// the input it samples.
type Transform interface {
	TransformPoint(in, out []float64)
}

// IdentityTransform leaves points where they are.
type IdentityTransform struct{}

// TransformPoint copies in to out.
func (IdentityTransform) TransformPoint(in, out []float64) { copy(out, in) }

// Linear samples src on geom by N-linear interpolation. Each output sample is
// transformed to input space (nil means identity); points whose continuous
// index falls outside [-0.5, n-0.5) on any axis get defaultValue, the others
// interpolate between their neighbours with indices clamped into the image.
func Linear(src *ndimage.Image, geom ndimage.Geometry, transform Transform, defaultValue float64) (*ndimage.Image, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	if len(geom.Size) != src.Dims() {
		return nil, fmt.Errorf("output has %d axes, input has %d: %w", len(geom.Size), src.Dims(), ErrBufferSizeMismatch)
	}
	if transform == nil {
		transform = IdentityTransform{}
	}
	out, err := ndimage.NewWithGeometry(src.PixelType(), geom)
	if err != nil {
		return nil, err
	}

	dims := src.Dims()
	in := src.Shape()
	strides := src.Strides()
	inSpacing, inOrigin := src.Spacing(), src.Origin()

	idx := make([]int, dims)
	point := make([]float64, dims)
	mapped := make([]float64, dims)
	lo := make([]int, dims)
	frac := make([]float64, dims)
	corners := 1 << dims

	for o, n := 0, out.Len(); o < n; o++ {
		for a := range point {
			point[a] = geom.Origin[a] + float64(idx[a])*geom.Spacing[a]
		}
		transform.TransformPoint(point, mapped)

		inside := true
		for a := 0; a < dims; a++ {
			c := (mapped[a] - inOrigin[a]) / inSpacing[a]
			if !(c >= -0.5 && c < float64(in[a])-0.5) {
				inside = false
				break
			}
			f := math.Floor(c)
			lo[a] = int(f)
			frac[a] = c - f
		}

		v := defaultValue
		if inside {
			v = 0
			for corner := 0; corner < corners; corner++ {
				w := 1.0
				at := 0
				for a := 0; a < dims; a++ {
					i := lo[a]
					if corner&(1<<a) != 0 {
						i++
						w *= frac[a]
					} else {
						w *= 1 - frac[a]
					}
					if w == 0 {
						break
					}
					i = max(0, min(i, in[a]-1))
					at += i * strides[a]
				}
				if w != 0 {
					v += w * src.At(at)
				}
			}
		}
		out.Set(o, v)

		for a := 0; a < dims; a++ {
			idx[a]++
			if idx[a] < geom.Size[a] {
				break
			}
			idx[a] = 0
		}
	}
	return out, nil
}
