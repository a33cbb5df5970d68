// Command mrpyramid builds multi-resolution Gaussian pyramids from images.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "mrpyramid: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	var build buildFlags
	var plan planFlags
	var initConfig initConfigFlags
	return &cli.App{
		Name:  "mrpyramid",
		Usage: "Build multi-resolution image pyramids with adaptive Gaussian smoothing.",
		Commands: []*cli.Command{
			{
				Name:        "build",
				Usage:       "mrpyramid build --input image.png [--output-dir pyramid]",
				Description: "Builds every pyramid level of an image and writes one PNG per level.",
				Flags:       build.AsCliFlags(),
				Action: func(c *cli.Context) error {
					return runBuild(c, &build)
				},
			},
			{
				Name:        "plan",
				Usage:       "mrpyramid plan (--input image.png | --size 512,512)",
				Description: "Prints the factors, variance, kernel radius and smoothing method of every level.",
				Flags:       plan.AsCliFlags(),
				Action: func(c *cli.Context) error {
					return runPlan(c, &plan)
				},
			},
			{
				Name:        "init-config",
				Usage:       "mrpyramid init-config [--path config.yaml]",
				Description: "Writes a configuration file holding the default settings.",
				Flags:       initConfig.AsCliFlags(),
				Action: func(c *cli.Context) error {
					return runInitConfig(c, &initConfig)
				},
			},
		},
	}
}
