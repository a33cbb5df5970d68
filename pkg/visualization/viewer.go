package visualization

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"mrpyramid/pkg/ndimage"
	"mrpyramid/pkg/pyramid"
)

// Viewer renders the planes of one pyramid level as grayscale pictures.
type Viewer struct {
	// level holds the image being viewed
	level *ndimage.Image
}

// NewViewer creates a viewer over img. One-axis images are shown as a single
// row of pixels.
func NewViewer(img *ndimage.Image) (*Viewer, error) {
	if img.Dims() == 1 {
		row, err := ndimage.FromFloat64s(img.PixelType(), img.Float64s(), img.Len(), 1)
		if err != nil {
			return nil, err
		}
		img = row
	}
	return &Viewer{level: img}, nil
}

// ExtractSlice renders the x/y plane at the given indices of the remaining
// axes, stretched to the full 16-bit range.
func (v *Viewer) ExtractSlice(position ...int) (image.Image, error) {
	return ndimage.ToGray16(v.level, position...)
}

// MiddlePosition returns the plane indices halfway along every axis past y.
func (v *Viewer) MiddlePosition() []int {
	shape := v.level.Shape()
	pos := make([]int, len(shape)-2)
	for i := range pos {
		pos[i] = shape[i+2] / 2
	}
	return pos
}

// SaveSlice saves an extracted slice; the format follows the file extension.
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	return imaging.Save(img, filename)
}

// SaveLevels writes the middle plane of every level to dir, named
// <prefix>_<level>.png. With upscale set, coarse levels are enlarged to the
// size of the finest one using nearest neighbour sampling so pixels stay
// visible.
func SaveLevels(levels []pyramid.LevelResult, dir, prefix string, upscale bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var finest image.Rectangle
	slices := make([]image.Image, len(levels))
	for i, l := range levels {
		viewer, err := NewViewer(l.Image)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", l.Level, err)
		}
		img, err := viewer.ExtractSlice(viewer.MiddlePosition()...)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", l.Level, err)
		}
		slices[i] = img
		if b := img.Bounds(); b.Dx()*b.Dy() > finest.Dx()*finest.Dy() {
			finest = b
		}
	}

	paths := make([]string, len(levels))
	for i, img := range slices {
		if upscale && img.Bounds() != finest {
			img = imaging.Resize(img, finest.Dx(), finest.Dy(), imaging.NearestNeighbor)
		}
		paths[i] = filepath.Join(dir, fmt.Sprintf("%s_%02d.png", prefix, levels[i].Level))
		if err := imaging.Save(img, paths[i]); err != nil {
			return nil, fmt.Errorf("saving level %d: %w", levels[i].Level, err)
		}
	}
	return paths, nil
}
