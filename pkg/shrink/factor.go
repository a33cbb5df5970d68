package shrink

import (
	"fmt"

	"mrpyramid/pkg/ndimage"
)

// ByFactor keeps, along every axis, input sample j*f + f/2 for output sample j,
// clamped to the last input sample. geom must be the LevelGeometry of src
// for factors.
func ByFactor(src *ndimage.Image, factors []int, geom ndimage.Geometry) (*ndimage.Image, error) {
	want, err := LevelGeometry(src.Geometry(), factors)
	if err != nil {
		return nil, err
	}
	if !want.SameSize(geom) {
		return nil, fmt.Errorf("output size %v, factors %v give %v: %w", geom.Size, factors, want.Size, ErrBufferSizeMismatch)
	}
	out, err := ndimage.NewWithGeometry(src.PixelType(), geom)
	if err != nil {
		return nil, err
	}

	in := src.Shape()
	dims := len(in)
	// offset[a][j] is the input offset contributed by axis a for output j.
	strides := src.Strides()
	offset := make([][]int, dims)
	for a := range offset {
		offset[a] = make([]int, geom.Size[a])
		for j := range offset[a] {
			i := min(j*factors[a]+factors[a]/2, in[a]-1)
			offset[a][j] = i * strides[a]
		}
	}

	idx := make([]int, dims)
	for o, n := 0, out.Len(); o < n; o++ {
		at := 0
		for a, j := range idx {
			at += offset[a][j]
		}
		out.Set(o, src.At(at))
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
