package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCumulativeToDeltas(t *testing.T) {
	assert.Equal(t, []float64{1.5, 1.5, 2}, CumulativeToDeltas([]float64{100, 101.5, 103, 105}))
	assert.Equal(t, []float64{2, 3}, CumulativeToDeltas([]float64{998, 1000, 3}), "register reset")
	assert.Empty(t, CumulativeToDeltas([]float64{42}))
	assert.Empty(t, CumulativeToDeltas(nil))
}

func TestApplyNegativePolicy(t *testing.T) {
	in := []float64{1, -2, 3}
	assert.Equal(t, []float64{1, 3}, ApplyNegativePolicy(in, NegativeFilter))
	assert.Equal(t, []float64{1, 2, 3}, ApplyNegativePolicy(in, NegativeAbsolute))
	assert.Equal(t, []float64{1, -2, 3}, ApplyNegativePolicy(in, NegativeKeep))
	assert.Equal(t, []float64{1, -2, 3}, in, "input untouched")
}

func TestParseNegativePolicy(t *testing.T) {
	for in, want := range map[string]NegativePolicy{
		"":         NegativeKeep,
		"keep":     NegativeKeep,
		"FILTER":   NegativeFilter,
		"absolute": NegativeAbsolute,
		"abs":      NegativeAbsolute,
	} {
		got, err := ParseNegativePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseNegativePolicy("flip")
	assert.Error(t, err)
}

func TestLooksCumulative(t *testing.T) {
	assert.True(t, looksCumulative([]float64{1, 2, 3, 4}))
	assert.False(t, looksCumulative([]float64{1, 2}))
	assert.False(t, looksCumulative([]float64{1, 2, 2, 3}))
	assert.False(t, looksCumulative([]float64{3, 2, 1}))
}
