package pyramid

import (
	"fmt"

	"mrpyramid/pkg/cast"
	"mrpyramid/pkg/fft"
	"mrpyramid/pkg/ndimage"
	"mrpyramid/pkg/shrink"
	"mrpyramid/pkg/smoothing"
)

// LevelPlan is everything decided about a level before any pixel is touched.
type LevelPlan struct {
	Level    int
	Factors  []int
	Geometry ndimage.Geometry
	Variance []float64
	Radius   []int
	Method   smoothing.Method
}

// LevelResult is one built level.
type LevelResult struct {
	LevelPlan
	Image *ndimage.Image
}

func (f *Filter) plan(geom ndimage.Geometry, level int) (LevelPlan, error) {
	factors := append([]int(nil), f.opts.Schedule[level]...)
	out, err := shrink.LevelGeometry(geom, factors)
	if err != nil {
		return LevelPlan{}, err
	}
	variance, err := f.Variance(level)
	if err != nil {
		return LevelPlan{}, err
	}
	radius, err := f.KernelRadius(level)
	if err != nil {
		return LevelPlan{}, err
	}
	return LevelPlan{
		Level:    level,
		Factors:  factors,
		Geometry: out,
		Variance: variance,
		Radius:   radius,
		Method:   f.method(radius),
	}, nil
}

// smoother returns the smoother for m. Frequency smoothers submit through
// dev.
func (f *Filter) smoother(m smoothing.Method, dev *fft.Device) smoothing.Smoother {
	if m == smoothing.Frequency {
		return &smoothing.FrequencySmoother{
			Engine:             f.opts.Engine,
			Device:             dev,
			MaximumKernelWidth: f.opts.MaximumKernelWidth,
		}
	}
	return &smoothing.SpatialSmoother{MaximumKernelWidth: f.opts.MaximumKernelWidth}
}

// buildLevel smooths the cast input and reduces it onto the level grid. src
// is shared between levels and must not be modified.
func (f *Filter) buildLevel(src *ndimage.Image, level int, dev *fft.Device) (LevelResult, error) {
	p, err := f.plan(src.Geometry(), level)
	if err != nil {
		return LevelResult{}, err
	}
	f.opts.Logger.Debugf("level %d: factors %v variance %v radius %v using %s smoothing",
		level, p.Factors, p.Variance, p.Radius, p.Method)
	return f.reduce(src, p, dev)
}

// reduce runs the smoothing and shrinking steps of a planned level.
func (f *Filter) reduce(src *ndimage.Image, p LevelPlan, dev *fft.Device) (LevelResult, error) {
	smoothed, err := f.smoother(p.Method, dev).Smooth(src, p.Variance, f.opts.MaximumError)
	if err != nil {
		return LevelResult{}, fmt.Errorf("%s smoothing: %w", p.Method, err)
	}
	out, err := f.opts.Shrink.Reduce(smoothed, p.Factors, p.Geometry, f.opts.DefaultPixelValue)
	if err != nil {
		return LevelResult{}, fmt.Errorf("%s shrink: %w", f.opts.Shrink, err)
	}
	if !out.Geometry().SameSize(p.Geometry) {
		return LevelResult{}, fmt.Errorf("level output %v, want %v: %w", out.Shape(), p.Geometry.Size, shrink.ErrBufferSizeMismatch)
	}
	return LevelResult{LevelPlan: p, Image: out}, nil
}

// RebuildLevel builds one level from input with the given smoothing method,
// whatever the thresholds would choose. It is meant for cross-checking the
// two smoothers.
func (f *Filter) RebuildLevel(input *ndimage.Image, level int, m smoothing.Method) (LevelResult, error) {
	if err := f.checkGeometry(input.Geometry()); err != nil {
		return LevelResult{}, err
	}
	if level < 0 || level >= f.opts.Levels {
		return LevelResult{}, fmt.Errorf("level %d out of range [0, %d)", level, f.opts.Levels)
	}
	src, err := cast.Image(input, f.opts.OutputType, f.opts.CastPolicy)
	if err != nil {
		return LevelResult{}, err
	}
	p, err := f.plan(src.Geometry(), level)
	if err != nil {
		return LevelResult{}, err
	}
	p.Method = m
	return f.reduce(src, p, f.opts.Device)
}
