package smoothing

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mrpyramid/pkg/fft"
	"mrpyramid/pkg/gaussian"
	"mrpyramid/pkg/ndimage"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name      string
		radius    []int
		threshold []int
		dim       int
		want      Method
	}{
		{"both above, one needed", []int{10, 10}, []int{10, 10}, 1, Frequency},
		{"one above, one needed", []int{10, 2}, []int{10, 10}, 1, Frequency},
		{"one above, two needed", []int{10, 2}, []int{10, 10}, 2, Spatial},
		{"none above", []int{9, 9}, []int{10, 10}, 1, Spatial},
		{"large threshold on last axis", []int{13, 13}, []int{3, 100}, 2, Spatial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.radius, tt.threshold, tt.dim))
		})
	}
}

func TestSelect_MonotonicInDimension(t *testing.T) {
	radius := []int{7, 3, 12}
	threshold := []int{5, 5, 5}
	prev := Frequency
	for dim := 1; dim <= 3; dim++ {
		m := Select(radius, threshold, dim)
		if prev == Spatial {
			assert.Equal(t, Spatial, m, "dim %d", dim)
		}
		prev = m
	}
	assert.Equal(t, Frequency, Select(radius, threshold, 2))
	assert.Equal(t, Spatial, Select(radius, threshold, 3))
}

func randomImage(t *testing.T, pt ndimage.PixelType, seed int64, size ...int) *ndimage.Image {
	t.Helper()
	n := 1
	for _, s := range size {
		n *= s
	}
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, n)
	for i := range data {
		data[i] = rng.Float64() * 10
	}
	img, err := ndimage.FromFloat64s(pt, data, size...)
	require.NoError(t, err)
	return img
}

func cpuSmoother() *FrequencySmoother {
	return &FrequencySmoother{Engine: fft.NewCPUEngine(), Device: fft.NewDevice(0)}
}

func TestFrequencyMatchesSpatial(t *testing.T) {
	tests := []struct {
		name     string
		pt       ndimage.PixelType
		size     []int
		variance []float64
		maxErr   float64
		delta    float64
	}{
		{"2d double", ndimage.Float64, []int{17, 11}, []float64{4, 1}, 0.01, 1e-9},
		{"2d single", ndimage.Float32, []int{16, 9}, []float64{16, 4}, 0.1, 1e-4},
		{"3d double", ndimage.Float64, []int{9, 7, 5}, []float64{1, 4, 0.25}, 0.01, 1e-9},
		{"4d double", ndimage.Float64, []int{6, 5, 4, 5}, []float64{1, 1, 4, 4}, 0.1, 1e-9},
		{"1d long kernel", ndimage.Float64, []int{40}, []float64{256}, 0.01, 1e-9},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := randomImage(t, tt.pt, int64(i+1), tt.size...)

			spatial, err := (&SpatialSmoother{}).Smooth(img, tt.variance, tt.maxErr)
			require.NoError(t, err)
			frequency, err := cpuSmoother().Smooth(img, tt.variance, tt.maxErr)
			require.NoError(t, err)

			assert.Equal(t, img.Shape(), frequency.Shape())
			assert.Equal(t, tt.pt, frequency.PixelType())
			assert.InDeltaSlice(t, spatial.Float64s(), frequency.Float64s(), tt.delta)
		})
	}
}

func TestSmoothers_PreserveConstant(t *testing.T) {
	data := make([]float64, 12*10)
	for i := range data {
		data[i] = 42
	}
	img, err := ndimage.FromFloat64s(ndimage.Float64, data, 12, 10)
	require.NoError(t, err)

	for _, s := range []Smoother{&SpatialSmoother{}, cpuSmoother()} {
		out, err := s.Smooth(img, []float64{16, 4}, 0.01)
		require.NoError(t, err)
		assert.InDeltaSlice(t, data, out.Float64s(), 1e-9)
	}
}

func TestSpatial_KernelTaps(t *testing.T) {
	img, err := ndimage.FromFloat64s(ndimage.Float64, []float64{0, 0, 0, 1, 0, 0, 0}, 7)
	require.NoError(t, err)

	out, err := (&SpatialSmoother{}).Smooth(img, []float64{1}, 0.1)
	require.NoError(t, err)

	k, err := gaussian.Operator{Variance: 1, MaximumError: 0.1, MaximumKernelWidth: gaussian.DefaultMaximumKernelWidth}.Build()
	require.NoError(t, err)
	want := append([]float64{0}, k.Coefficients...)
	want = append(want, 0)
	assert.InDeltaSlice(t, want, out.Float64s(), 1e-12)
}

func TestSmoothers_KeepGeometryAndInput(t *testing.T) {
	img := randomImage(t, ndimage.Float64, 7, 8, 6)
	g := img.Geometry()
	g.Spacing = []float64{0.5, 2}
	g.Origin = []float64{-1, 3}
	require.NoError(t, img.SetGeometry(g))
	before := img.Float64s()

	for _, s := range []Smoother{&SpatialSmoother{}, cpuSmoother()} {
		out, err := s.Smooth(img, []float64{1, 1}, 0.1)
		require.NoError(t, err)
		assert.Equal(t, g, out.Geometry())
		assert.Equal(t, before, img.Float64s())
	}
}

func TestSmoothers_VarianceMismatch(t *testing.T) {
	img := randomImage(t, ndimage.Float64, 3, 4, 4)
	for _, s := range []Smoother{&SpatialSmoother{}, cpuSmoother()} {
		_, err := s.Smooth(img, []float64{1}, 0.1)
		assert.Error(t, err)
	}
}

func TestFrequency_NoEngine(t *testing.T) {
	img := randomImage(t, ndimage.Float64, 3, 4)
	_, err := (&FrequencySmoother{}).Smooth(img, []float64{1}, 0.1)
	assert.Error(t, err)
}

type brokenEngine struct{}

func (brokenEngine) Run(*fft.Device, *fft.Parameters) fft.Result { return fft.ErrorDevice }
func (brokenEngine) GreatestPrimeFactor() int                    { return 13 }

func TestFrequency_EngineFailure(t *testing.T) {
	img := randomImage(t, ndimage.Float64, 3, 8, 8)
	s := &FrequencySmoother{Engine: brokenEngine{}}
	_, err := s.Smooth(img, []float64{4, 4}, 0.1)
	require.Error(t, err)

	var engineErr *fft.EngineError
	require.True(t, errors.As(err, &engineErr))
	assert.Equal(t, fft.ErrorDevice, engineErr.Code)
}

func TestForEachIndex(t *testing.T) {
	var got [][]int
	forEachIndex([]int{2, 2}, func(idx []int) {
		got = append(got, append([]int(nil), idx...))
	})
	assert.Equal(t, [][]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}, got)

	calls := 0
	forEachIndex(nil, func([]int) { calls++ })
	assert.Equal(t, 1, calls)
}
