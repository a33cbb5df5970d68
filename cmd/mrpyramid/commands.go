package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/disintegration/imaging"
	"github.com/urfave/cli/v2"

	"mrpyramid/internal/logging"
	"mrpyramid/pkg/config"
	"mrpyramid/pkg/fft"
	"mrpyramid/pkg/metrics"
	"mrpyramid/pkg/ndimage"
	"mrpyramid/pkg/pyramid"
	"mrpyramid/pkg/smoothing"
	"mrpyramid/pkg/visualization"
)

// loadImage reads any format imaging understands as 16-bit luminance.
func loadImage(path string) (*ndimage.Image, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return ndimage.FromImage(src, ndimage.Uint16)
}

func newFilter(cfg *config.Config, axes int, extra ...pyramid.Option) (*pyramid.Filter, error) {
	log := logging.Stderr(cfg.Output.Verbose)
	opts := append(cfg.Options(), pyramid.WithLogger(log))
	return pyramid.New(axes, append(opts, extra...)...)
}

func runBuild(c *cli.Context, flags *buildFlags) error {
	cfg, err := flags.load(c)
	if err != nil {
		return err
	}
	if c.IsSet("verify") {
		cfg.Output.Verify = flags.Verify
	}
	if flags.OutputDir != "" {
		cfg.Output.Dir = flags.OutputDir
	}
	out := c.App.Writer

	input, err := loadImage(flags.Input)
	if err != nil {
		return err
	}
	filter, err := newFilter(cfg, input.Dims(), pyramid.WithProgress(func(p float64) {
		fmt.Fprintf(out, "\rBuilding levels: %.1f%% complete", p*100)
	}))
	if err != nil {
		return err
	}

	start := time.Now()
	levels, err := filter.Run(c.Context, input)
	fmt.Fprintln(out)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Built %d levels of %v in %.2f seconds\n", len(levels), input.Shape(), time.Since(start).Seconds())

	paths, err := visualization.SaveLevels(levels, cfg.Output.Dir, cfg.Output.Prefix, flags.Upscale)
	if err != nil {
		return err
	}
	for i, path := range paths {
		fmt.Fprintf(out, "Level %d %v (%s): %s\n", levels[i].Level, levels[i].Image.Shape(), levels[i].Method, path)
	}

	if cfg.Output.Verify {
		return verify(out, filter, input, levels)
	}
	return nil
}

// verify rebuilds every level with the smoother the filter did not pick and
// prints how far the two results are apart.
func verify(out io.Writer, filter *pyramid.Filter, input *ndimage.Image, levels []pyramid.LevelResult) error {
	fmt.Fprintln(out, "\nSmoother agreement:")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "level\tused\tcheck\tcomparison")
	for _, l := range levels {
		other := smoothing.Spatial
		if l.Method == smoothing.Spatial {
			other = smoothing.Frequency
		}
		rebuilt, err := filter.RebuildLevel(input, l.Level, other)
		if err != nil {
			return fmt.Errorf("verifying level %d: %w", l.Level, err)
		}
		cmp, err := metrics.Compare(l.Image, rebuilt.Image)
		if err != nil {
			return fmt.Errorf("verifying level %d: %w", l.Level, err)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", l.Level, l.Method, other, cmp)
	}
	return w.Flush()
}

func runPlan(c *cli.Context, flags *planFlags) error {
	cfg, err := flags.load(c)
	if err != nil {
		return err
	}

	var geom ndimage.Geometry
	if flags.Input != "" {
		input, err := loadImage(flags.Input)
		if err != nil {
			return err
		}
		geom = input.Geometry()
	} else {
		size, err := flags.size(c)
		if err != nil {
			return err
		}
		geom = ndimage.NewGeometry(size...)
	}

	filter, err := newFilter(cfg, len(geom.Size))
	if err != nil {
		return err
	}
	plans, err := filter.Plan(geom)
	if err != nil {
		return err
	}

	out := c.App.Writer
	fmt.Fprint(out, filter.Describe())
	if !filter.Schedule().IsDownwardDivisible() {
		fmt.Fprintln(out, "Warning: schedule is not downward divisible, level grids do not nest")
	}
	fmt.Fprintln(out)
	engine := filter.Options().Engine
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "level\tfactors\tsize\tvariance\tradius\tmethod\tfft-feasible")
	for _, p := range plans {
		fmt.Fprintf(w, "%d\t%v\t%v\t%v\t%v\t%s\t%s\n", p.Level, p.Factors, p.Geometry.Size, p.Variance, p.Radius, p.Method,
			yesNo(paddedFeasible(engine, geom.Size, p.Radius)))
	}
	return w.Flush()
}

// paddedFeasible reports whether the input padded by the kernel radius on
// both sides transforms on engine without growing to a friendlier length.
func paddedFeasible(engine fft.Engine, size, radius []int) bool {
	padded := make([]int, len(size))
	for a, n := range size {
		padded[a] = n + 2*radius[a]
	}
	return fft.Feasible(engine, padded...)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func runInitConfig(c *cli.Context, flags *initConfigFlags) error {
	if err := config.CreateDefaultConfigFile(flags.Path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Default configuration written to %s\n", flags.Path)
	return nil
}
