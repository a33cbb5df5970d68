package main

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mrpyramid/pkg/config"
	"mrpyramid/pkg/fft"
	"mrpyramid/pkg/pyramid"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"mrpyramid"}, args...))
	return out.String(), err
}

func writeTestImage(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 40, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 40; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x*7 + y*3) % 256)})
		}
	}
	path := filepath.Join(dir, "input.png")
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	out, err := run(t, "init-config", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestPlan_Size(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "plan",
		"--config", filepath.Join(dir, "missing.yaml"),
		"--size", "100", "--size", "50",
		"--levels", "4",
		"--max-error", "0.01",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Number of levels: 4")
	assert.Contains(t, out, "frequency")
	assert.Contains(t, out, "[12 6]")
	assert.Contains(t, out, "fft-feasible")
	assert.NotContains(t, out, "not downward divisible")
}

func TestPlan_NonDivisibleSchedule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := config.DefaultConfig()
	cfg.Pyramid.Schedule = pyramid.Schedule{{6, 6}, {4, 4}, {1, 1}}
	require.NoError(t, config.SaveConfig(cfg, path))

	out, err := run(t, "plan", "--config", path, "--size", "48", "--size", "48")
	require.NoError(t, err)
	assert.Contains(t, out, "Warning: schedule is not downward divisible")
	assert.Contains(t, out, "Number of levels: 3")
}

func TestPaddedFeasible(t *testing.T) {
	engine := &fft.CPUEngine{}
	// 100+20 = 2^3*3*5, 50+20 = 2*5*7
	assert.True(t, paddedFeasible(engine, []int{100, 50}, []int{10, 10}))
	// 13+4 = 17 exceeds the default radix limit of 13
	assert.False(t, paddedFeasible(engine, []int{13}, []int{2}))
	assert.Equal(t, "yes", yesNo(true))
	assert.Equal(t, "no", yesNo(false))
}

func TestPlan_NeedsInputOrSize(t *testing.T) {
	_, err := run(t, "plan", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPlan_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := config.DefaultConfig()
	cfg.Pyramid.Levels = 2
	cfg.Pyramid.KernelRadiusThreshold = []int{1}
	require.NoError(t, config.SaveConfig(cfg, path))

	out, err := run(t, "plan", "--config", path, "--input", writeTestImage(t, dir))
	require.NoError(t, err)
	assert.Contains(t, out, "Number of levels: 2")
	assert.Contains(t, out, "Kernel radius threshold: [1 1]")
	assert.NotContains(t, out, "spatial")
}

func TestPlan_BadFlag(t *testing.T) {
	_, err := run(t, "plan", "--config", filepath.Join(t.TempDir(), "missing.yaml"),
		"--size", "10", "--shrink", "cubic")
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "levels")
	out, err := run(t, "build",
		"--config", filepath.Join(dir, "missing.yaml"),
		"--input", writeTestImage(t, dir),
		"--output-dir", outDir,
		"--levels", "3",
		"--threshold", "2",
		"--verify",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Built 3 levels")
	assert.Contains(t, out, "Smoother agreement")

	for _, name := range []string{"level_00.png", "level_01.png", "level_02.png"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
	coarse, err := imaging.Open(filepath.Join(outDir, "level_00.png"))
	require.NoError(t, err)
	assert.Equal(t, 10, coarse.Bounds().Dx())
	assert.Equal(t, 6, coarse.Bounds().Dy())
}

func TestBuild_MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "build",
		"--config", filepath.Join(dir, "missing.yaml"),
		"--input", filepath.Join(dir, "nope.png"),
	)
	assert.Error(t, err)
}
