package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"mrpyramid/pkg/cast"
	"mrpyramid/pkg/config"
	"mrpyramid/pkg/ndimage"
	"mrpyramid/pkg/shrink"
)

// filterFlags are the pyramid settings shared by build and plan. Flags that
// are set override the configuration file.
type filterFlags struct {
	ConfigFilename           string
	Levels                   int
	MaximumError             float64
	KernelThresholdDimension int
	Shrink                   string
	OutputType               string
	CastPolicy               string
	Workers                  int
	Verbose                  bool
}

func (flags *filterFlags) AsCliFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Value:       "config.yaml",
			Usage:       "YAML configuration file; missing files mean defaults.",
			Destination: &flags.ConfigFilename,
		},
		&cli.IntFlag{
			Name:        "levels",
			Usage:       "Number of pyramid levels.",
			Destination: &flags.Levels,
		},
		&cli.Float64Flag{
			Name:        "max-error",
			Usage:       "Gaussian tail allowed outside each kernel, in (0, 1).",
			Destination: &flags.MaximumError,
		},
		&cli.IntSliceFlag{
			Name:  "threshold",
			Usage: "Kernel radius at which an axis votes for FFT smoothing; one value or one per axis.",
		},
		&cli.IntFlag{
			Name:        "threshold-dimension",
			Usage:       "Number of voting axes needed for FFT smoothing.",
			Destination: &flags.KernelThresholdDimension,
		},
		&cli.StringFlag{
			Name:        "shrink",
			Usage:       "Level reduction: resample or factor.",
			Destination: &flags.Shrink,
		},
		&cli.StringFlag{
			Name:        "output-type",
			Usage:       "Pixel type of the levels, e.g. float32 or uint16.",
			Destination: &flags.OutputType,
		},
		&cli.StringFlag{
			Name:        "cast",
			Usage:       "Input conversion policy: truncate or strict.",
			Destination: &flags.CastPolicy,
		},
		&cli.IntFlag{
			Name:        "workers",
			Usage:       "Number of levels built at once.",
			Destination: &flags.Workers,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Usage:       "Log per-level decisions.",
			Destination: &flags.Verbose,
		},
	}
}

// load reads the configuration file and applies the flags that were set.
func (flags *filterFlags) load(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(flags.ConfigFilename)
	if err != nil {
		return nil, err
	}
	p := &cfg.Pyramid
	if c.IsSet("levels") {
		p.Levels = flags.Levels
		p.Schedule = nil
	}
	if c.IsSet("max-error") {
		p.MaximumError = flags.MaximumError
	}
	if c.IsSet("threshold") {
		p.KernelRadiusThreshold = c.IntSlice("threshold")
	}
	if c.IsSet("threshold-dimension") {
		p.KernelThresholdDimension = flags.KernelThresholdDimension
	}
	if c.IsSet("shrink") {
		if p.Shrink, err = shrink.ParsePolicy(flags.Shrink); err != nil {
			return nil, err
		}
	}
	if c.IsSet("output-type") {
		if p.OutputType, err = ndimage.ParsePixelType(flags.OutputType); err != nil {
			return nil, err
		}
	}
	if c.IsSet("cast") {
		if p.CastPolicy, err = cast.ParsePolicy(flags.CastPolicy); err != nil {
			return nil, err
		}
	}
	if c.IsSet("workers") {
		cfg.Processing.Workers = flags.Workers
	}
	if c.IsSet("verbose") {
		cfg.Output.Verbose = flags.Verbose
	}
	return cfg, nil
}

type buildFlags struct {
	filterFlags
	Input     string
	OutputDir string
	Verify    bool
	Upscale   bool
}

func (flags *buildFlags) AsCliFlags() []cli.Flag {
	return append(flags.filterFlags.AsCliFlags(),
		&cli.StringFlag{
			Name:        "input",
			Usage:       "Image to build the pyramid from.",
			Required:    true,
			Destination: &flags.Input,
		},
		&cli.StringFlag{
			Name:        "output-dir",
			Usage:       "Directory for the level images; defaults to the configured one.",
			Destination: &flags.OutputDir,
		},
		&cli.BoolFlag{
			Name:        "verify",
			Usage:       "Rebuild every level with the other smoother and report the difference.",
			Destination: &flags.Verify,
		},
		&cli.BoolFlag{
			Name:        "upscale",
			Usage:       "Enlarge coarse levels to the input size when saving.",
			Destination: &flags.Upscale,
		},
	)
}

type planFlags struct {
	filterFlags
	Input string
}

func (flags *planFlags) AsCliFlags() []cli.Flag {
	return append(flags.filterFlags.AsCliFlags(),
		&cli.StringFlag{
			Name:        "input",
			Usage:       "Image whose size is planned for.",
			Destination: &flags.Input,
		},
		&cli.IntSliceFlag{
			Name:  "size",
			Usage: "Input size per axis, used when --input is not given.",
		},
	)
}

type initConfigFlags struct {
	Path string
}

func (flags *initConfigFlags) AsCliFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "path",
			Value:       "config.yaml",
			Usage:       "Where to write the configuration.",
			Destination: &flags.Path,
		},
	}
}

func (flags *planFlags) size(c *cli.Context) ([]int, error) {
	size := c.IntSlice("size")
	if len(size) == 0 {
		return nil, fmt.Errorf("one of --input or --size is required")
	}
	return size, nil
}
