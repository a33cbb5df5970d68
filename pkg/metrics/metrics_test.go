package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mrpyramid/pkg/ndimage"
)

func TestCompareSamples(t *testing.T) {
	ref := []float64{1, 2, 3, 4}
	cand := []float64{1, 2, 3, 6}

	c, err := CompareSamples(ref, cand)
	require.NoError(t, err)
	assert.InDelta(t, 1, c.RMSE, 1e-12)
	assert.Equal(t, 2.0, c.MaxAbsDiff)
	assert.Equal(t, 2.5, c.MeanReference)
	assert.Equal(t, 3.0, c.MeanCandidate)
	assert.Greater(t, c.Correlation, 0.9)
	assert.Contains(t, c.String(), "rmse=1")
}

func TestCompareSamples_Identical(t *testing.T) {
	ref := []float64{3, -1, 4, 1, 5}
	c, err := CompareSamples(ref, ref)
	require.NoError(t, err)
	assert.Zero(t, c.RMSE)
	assert.Zero(t, c.MaxAbsDiff)
	assert.InDelta(t, 1, c.Correlation, 1e-12)
}

func TestCompareSamples_Constant(t *testing.T) {
	c, err := CompareSamples([]float64{2, 2}, []float64{2, 2})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(c.Correlation))
}

func TestCompareSamples_Errors(t *testing.T) {
	_, err := CompareSamples([]float64{1}, []float64{1, 2})
	assert.Error(t, err)
	_, err = CompareSamples(nil, nil)
	assert.Error(t, err)
}

func TestCompare_Images(t *testing.T) {
	a, err := ndimage.FromFloat64s(ndimage.Float32, []float64{0, 1, 2, 3}, 2, 2)
	require.NoError(t, err)
	b, err := ndimage.FromFloat64s(ndimage.Uint8, []float64{0, 1, 2, 3}, 2, 2)
	require.NoError(t, err)
	c, err := Compare(a, b)
	require.NoError(t, err)
	assert.Zero(t, c.MaxAbsDiff)

	other, err := ndimage.New(ndimage.Float32, 4)
	require.NoError(t, err)
	_, err = Compare(a, other)
	assert.Error(t, err)
}

func TestRMSE(t *testing.T) {
	assert.Zero(t, RMSE(nil, nil))
	assert.InDelta(t, math.Sqrt(2), RMSE([]float64{0, 0}, []float64{2, 0}), 1e-12)
}
