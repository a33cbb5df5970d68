// Package pyramid builds multi-resolution image pyramids. Every level is the
// input smoothed by a Gaussian whose width follows the level's shrink
// factors, then reduced onto the level grid. Each level independently picks
// spatial or frequency-domain smoothing from the size of its kernel.
package pyramid

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"mrpyramid/pkg/cast"
	"mrpyramid/pkg/fft"
	"mrpyramid/pkg/gaussian"
	"mrpyramid/pkg/ndimage"
	"mrpyramid/pkg/smoothing"
)

// Filter holds a validated configuration for images with a fixed number of
// axes. A Filter may be run any number of times; each run recomputes every
// level.
type Filter struct {
	axes int
	opts Options
}

// New validates the options for images with the given number of axes.
// Uncorrectable problems are returned together as a *ConfigurationError.
func New(axes int, opts ...Option) (*Filter, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.resolve(axes); err != nil {
		return nil, err
	}
	return &Filter{axes: axes, opts: o}, nil
}

// Options returns the resolved options.
func (f *Filter) Options() Options {
	o := f.opts
	o.Schedule = f.opts.Schedule.Clone()
	o.KernelRadiusThreshold = append([]int(nil), f.opts.KernelRadiusThreshold...)
	return o
}

// Levels is the number of levels a run produces.
func (f *Filter) Levels() int { return f.opts.Levels }

// Schedule returns a copy of the corrected schedule.
func (f *Filter) Schedule() Schedule { return f.opts.Schedule.Clone() }

// Variance returns the per-axis Gaussian variance used for a level.
func (f *Filter) Variance(level int) ([]float64, error) {
	if level < 0 || level >= f.opts.Levels {
		return nil, fmt.Errorf("level %d out of range [0, %d)", level, f.opts.Levels)
	}
	v := make([]float64, f.axes)
	for a, factor := range f.opts.Schedule[level] {
		v[a] = gaussian.Variance(factor)
	}
	return v, nil
}

// KernelRadius returns the per-axis radius of the kernels used for a level.
func (f *Filter) KernelRadius(level int) ([]int, error) {
	variance, err := f.Variance(level)
	if err != nil {
		return nil, err
	}
	radius := make([]int, f.axes)
	for a, v := range variance {
		r, err := gaussian.Radius(v, f.opts.MaximumError, f.opts.MaximumKernelWidth)
		if err != nil {
			return nil, fmt.Errorf("axis %d: %w", a, err)
		}
		radius[a] = r
	}
	return radius, nil
}

// UseFFT reports whether kernels of the given radius are smoothed in the
// frequency domain.
func (f *Filter) UseFFT(radius []int) bool {
	return f.method(radius) == smoothing.Frequency
}

func (f *Filter) method(radius []int) smoothing.Method {
	return smoothing.Select(radius, f.opts.KernelRadiusThreshold, f.opts.KernelThresholdDimension)
}

// Plan describes every level for an input of the given geometry without
// computing any pixels.
func (f *Filter) Plan(geom ndimage.Geometry) ([]LevelPlan, error) {
	if err := f.checkGeometry(geom); err != nil {
		return nil, err
	}
	plans := make([]LevelPlan, f.opts.Levels)
	for level := range plans {
		p, err := f.plan(geom, level)
		if err != nil {
			return nil, err
		}
		plans[level] = p
	}
	return plans, nil
}

func (f *Filter) checkGeometry(geom ndimage.Geometry) error {
	if err := geom.Validate(); err != nil {
		return err
	}
	if len(geom.Size) != f.axes {
		return fmt.Errorf("input has %d axes, filter is configured for %d", len(geom.Size), f.axes)
	}
	return nil
}

// Run builds every level of the pyramid from input, coarsest first. On
// failure no level is returned and the error is a *LevelError.
func (f *Filter) Run(ctx context.Context, input *ndimage.Image) ([]LevelResult, error) {
	if err := f.checkGeometry(input.Geometry()); err != nil {
		return nil, &LevelError{Level: 0, Err: err}
	}
	src, err := cast.Image(input, f.opts.OutputType, f.opts.CastPolicy)
	if err != nil {
		return nil, &LevelError{Level: 0, Err: err}
	}
	dev := f.opts.Device
	if dev == nil {
		dev = fft.NewDevice(0)
	}

	results := make([]LevelResult, f.opts.Levels)
	if f.opts.Workers < 2 {
		for level := range results {
			if err := ctx.Err(); err != nil {
				return nil, &LevelError{Level: level, Completed: level, Err: err}
			}
			f.progress(float64(level) / float64(f.opts.Levels))
			r, err := f.buildLevel(src, level, dev)
			if err != nil {
				return nil, &LevelError{Level: level, Completed: level, Err: err}
			}
			results[level] = r
		}
		f.progress(1)
		return results, nil
	}

	var (
		mu        sync.Mutex
		started   int
		completed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Workers)
	for level := range results {
		g.Go(func() error {
			mu.Lock()
			done := completed
			if err := gctx.Err(); err != nil {
				mu.Unlock()
				return &LevelError{Level: level, Completed: done, Err: err}
			}
			f.progress(float64(started) / float64(f.opts.Levels))
			started++
			mu.Unlock()

			r, err := f.buildLevel(src, level, dev)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				return &LevelError{Level: level, Completed: completed, Err: err}
			}
			results[level] = r
			completed++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	f.progress(1)
	return results, nil
}

func (f *Filter) progress(p float64) {
	if f.opts.Progress != nil {
		f.opts.Progress(p)
	}
}

// Describe summarises the configuration, one setting per line.
func (f *Filter) Describe() string {
	var b strings.Builder
	o := f.opts
	fmt.Fprintf(&b, "Axes: %d\n", f.axes)
	fmt.Fprintf(&b, "Number of levels: %d\n", o.Levels)
	fmt.Fprintf(&b, "Schedule: %v\n", [][]int(o.Schedule))
	fmt.Fprintf(&b, "Maximum error: %g\n", o.MaximumError)
	fmt.Fprintf(&b, "Maximum kernel width: %d\n", o.MaximumKernelWidth)
	fmt.Fprintf(&b, "Kernel radius threshold: %v\n", o.KernelRadiusThreshold)
	fmt.Fprintf(&b, "Kernel threshold dimension: %d\n", o.KernelThresholdDimension)
	fmt.Fprintf(&b, "Shrink: %s\n", o.Shrink)
	fmt.Fprintf(&b, "Default pixel value: %g\n", o.DefaultPixelValue)
	fmt.Fprintf(&b, "Output type: %s\n", o.OutputType)
	fmt.Fprintf(&b, "Cast policy: %s\n", o.CastPolicy)
	fmt.Fprintf(&b, "FFT greatest prime factor: %d\n", o.Engine.GreatestPrimeFactor())
	fmt.Fprintf(&b, "Device: %s\n", o.Device)
	fmt.Fprintf(&b, "Workers: %d\n", max(o.Workers, 1))
	return b.String()
}
