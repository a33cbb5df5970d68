package pyramid

import (
	"mrpyramid/pkg/cast"
	"mrpyramid/pkg/fft"
	"mrpyramid/pkg/gaussian"
	"mrpyramid/pkg/ndimage"
	"mrpyramid/pkg/shrink"
)

// DefaultKernelRadiusThreshold is the per-axis radius from which an axis
// counts towards frequency smoothing.
const DefaultKernelRadiusThreshold = 10

// Logger receives configuration warnings and per-level decisions.
// *logger.Logger from github.com/jcgregorio/logger satisfies it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{})   {}
func (nopLogger) Infof(string, ...interface{})    {}
func (nopLogger) Warningf(string, ...interface{}) {}

// Options configures a Filter. DefaultOptions gives the starting values
// noted on each field.
type Options struct {
	// Levels is the number of pyramid levels. Default 2. When Schedule is
	// set the two must agree.
	Levels int
	// Schedule gives the shrink factors per level, coarsest first. Nil
	// derives one from StartingFactors or DefaultSchedule.
	Schedule Schedule
	// StartingFactors seeds ScheduleFromStartingFactors when Schedule is nil.
	StartingFactors []int

	// MaximumError bounds the Gaussian tail discarded by every kernel.
	// Default gaussian.DefaultMaximumError.
	MaximumError float64
	// MaximumKernelWidth caps the one-sided kernel length for the radius
	// estimate and both smoothers. Default gaussian.DefaultMaximumKernelWidth.
	MaximumKernelWidth int

	// KernelRadiusThreshold is the per-axis radius at which an axis votes
	// for frequency smoothing. A single value applies to every axis; nil
	// means DefaultKernelRadiusThreshold.
	KernelRadiusThreshold []int
	// KernelThresholdDimension is the number of voting axes needed to use
	// frequency smoothing, clamped to [1, axes]. Default 1.
	KernelThresholdDimension int

	// Shrink chooses between linear resampling (default) and keeping bin
	// centre samples.
	Shrink shrink.Policy
	// DefaultPixelValue fills resampled points that fall outside the input.
	DefaultPixelValue float64

	// OutputType is the pixel type of every level. Default Float32.
	OutputType ndimage.PixelType
	// CastPolicy governs the conversion of the input to OutputType.
	CastPolicy cast.Policy

	// Engine runs the transforms of frequency smoothing. Nil uses a
	// CPUEngine.
	Engine fft.Engine
	// Device is the handle engine calls are submitted through. Nil opens a
	// default device per run.
	Device *fft.Device

	// Workers is the number of levels built at once. Values below 2 build
	// levels one after the other.
	Workers int
	// Progress, when set, receives the fraction of levels started and 1
	// on success.
	Progress func(float64)
	Logger   Logger
}

// DefaultOptions returns the options a Filter starts from.
func DefaultOptions() Options {
	return Options{
		Levels:                   2,
		MaximumError:             gaussian.DefaultMaximumError,
		MaximumKernelWidth:       gaussian.DefaultMaximumKernelWidth,
		KernelThresholdDimension: 1,
		Shrink:                   shrink.Resample,
		OutputType:               ndimage.Float32,
		CastPolicy:               cast.Truncate,
	}
}

// Option mutates Options.
type Option func(*Options)

// WithLevels sets the number of levels and drops any explicit schedule.
func WithLevels(n int) Option {
	return func(o *Options) {
		o.Levels = n
		o.Schedule = nil
	}
}

// WithSchedule sets an explicit schedule and the number of levels with it.
func WithSchedule(s Schedule) Option {
	return func(o *Options) {
		o.Schedule = s.Clone()
		o.Levels = len(s)
	}
}

// WithStartingFactors sets the level 0 factors of a halving schedule.
func WithStartingFactors(f ...int) Option {
	return func(o *Options) { o.StartingFactors = append([]int(nil), f...) }
}

// WithMaximumError sets the Gaussian tail mass allowed outside each kernel.
// It must lie in (0, 1).
func WithMaximumError(e float64) Option { return func(o *Options) { o.MaximumError = e } }

// WithMaximumKernelWidth caps the one-sided kernel length used both to
// estimate radii and to build kernels.
func WithMaximumKernelWidth(w int) Option { return func(o *Options) { o.MaximumKernelWidth = w } }

// WithKernelRadiusThreshold sets the per-axis thresholds. A single value is
// used for every axis.
func WithKernelRadiusThreshold(r ...int) Option {
	return func(o *Options) { o.KernelRadiusThreshold = append([]int(nil), r...) }
}

// WithKernelThresholdDimension sets how many axes must reach their radius
// threshold before a level is smoothed in the frequency domain. Values
// outside [1, axes] are clamped with a warning.
func WithKernelThresholdDimension(d int) Option {
	return func(o *Options) { o.KernelThresholdDimension = d }
}

// WithShrink selects how smoothed levels are reduced to their size.
func WithShrink(p shrink.Policy) Option { return func(o *Options) { o.Shrink = p } }

// WithDefaultPixelValue sets the value of resampled points that map outside
// the input.
func WithDefaultPixelValue(v float64) Option { return func(o *Options) { o.DefaultPixelValue = v } }

// WithOutputType sets the pixel type of every level.
func WithOutputType(pt ndimage.PixelType) Option { return func(o *Options) { o.OutputType = pt } }

// WithCastPolicy sets how the input is converted to the output type.
func WithCastPolicy(p cast.Policy) Option { return func(o *Options) { o.CastPolicy = p } }

// WithEngine sets the FFT engine of the frequency smoother. Nil means a
// CPUEngine.
func WithEngine(e fft.Engine) Option { return func(o *Options) { o.Engine = e } }

// WithDevice sets the handle engine calls are submitted through. Without one
// every Run opens its own.
func WithDevice(d *fft.Device) Option { return func(o *Options) { o.Device = d } }

// WithWorkers sets how many levels are built at once. Zero and one build
// levels in order.
func WithWorkers(n int) Option { return func(o *Options) { o.Workers = n } }

// WithProgress registers a callback receiving the fraction of levels
// started, ending with 1 on success.
func WithProgress(fn func(float64)) Option { return func(o *Options) { o.Progress = fn } }

// WithLogger sets where warnings and per-level decisions go.
func WithLogger(l Logger) Option { return func(o *Options) { o.Logger = l } }

// resolve fills defaults and validates o for images with the given number
// of axes. Correctable values are fixed in place and logged.
func (o *Options) resolve(axes int) error {
	if o.Logger == nil {
		o.Logger = nopLogger{}
	}
	var p problems
	if axes < 1 {
		p.addf("image must have at least one axis, got %d", axes)
		return p.err()
	}

	switch {
	case o.Schedule != nil:
		if o.Levels != len(o.Schedule) {
			p.addf("%d levels requested but schedule has %d", o.Levels, len(o.Schedule))
		}
		o.Levels = len(o.Schedule)
	case o.Levels < 1:
		p.addf("number of levels must be at least 1, got %d", o.Levels)
	case o.StartingFactors != nil:
		if len(o.StartingFactors) != axes {
			p.addf("%d starting factors for %d axes", len(o.StartingFactors), axes)
		} else {
			o.Schedule = ScheduleFromStartingFactors(o.Levels, o.StartingFactors)
		}
	default:
		o.Schedule = DefaultSchedule(o.Levels, axes)
	}
	if o.Schedule != nil {
		if err := o.Schedule.validate(axes); err != nil {
			p.addf("%v", err)
		} else {
			s, changes := o.Schedule.corrected()
			for _, c := range changes {
				o.Logger.Warningf("schedule %s", c)
			}
			o.Schedule = s
		}
	}

	if !(o.MaximumError > 0 && o.MaximumError < 1) {
		p.addf("maximum error must be in (0, 1), got %g", o.MaximumError)
	}
	if o.MaximumKernelWidth < 1 {
		p.addf("maximum kernel width must be at least 1, got %d", o.MaximumKernelWidth)
	}

	switch len(o.KernelRadiusThreshold) {
	case 0:
		o.KernelRadiusThreshold = fill(axes, DefaultKernelRadiusThreshold)
	case 1:
		o.KernelRadiusThreshold = fill(axes, o.KernelRadiusThreshold[0])
	case axes:
	default:
		p.addf("%d kernel radius thresholds for %d axes", len(o.KernelRadiusThreshold), axes)
	}
	if d := o.KernelThresholdDimension; d < 1 || d > axes {
		o.KernelThresholdDimension = max(1, min(d, axes))
		o.Logger.Warningf("kernel threshold dimension must be between 1 and %d, using %d instead of %d",
			axes, o.KernelThresholdDimension, d)
	}

	if !o.OutputType.Valid() {
		p.addf("invalid output pixel type %v", o.OutputType)
	}
	if o.Engine == nil {
		o.Engine = fft.NewCPUEngine()
	}
	if o.Workers < 0 {
		p.addf("workers must not be negative, got %d", o.Workers)
	}
	return p.err()
}

func fill(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}
