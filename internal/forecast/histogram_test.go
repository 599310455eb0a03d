package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogram_Empty(t *testing.T) {
	assert.Nil(t, Histogram(nil))
}

func TestHistogram_BinCountAndTotals(t *testing.T) {
	values := []float64{10, 12, 20, 25, 30, 31, 40, 45, 50, 52, 55, 60, 70, 80, 90}
	bins := Histogram(values)
	require.Len(t, bins, 5)

	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, len(values), total)
	assert.InDelta(t, 10, bins[0].From, 1e-9)
	assert.InDelta(t, 90, bins[4].To, 1e-9)
	assert.Equal(t, 4, bins[0].Count, "10, 12, 20 and 25 fall below 26")
	assert.Equal(t, 2, bins[4].Count, "the maximum lands in the last bin")
}

func TestHistogram_AtLeastFourAtMostFifteen(t *testing.T) {
	assert.Len(t, Histogram([]float64{1, 2, 3}), 4)

	many := make([]float64, 90)
	for i := range many {
		many[i] = float64(i)
	}
	assert.Len(t, Histogram(many), 15)
}

func TestHistogram_ConstantValues(t *testing.T) {
	bins := Histogram([]float64{25, 25, 25})
	require.Len(t, bins, 4)
	assert.InDelta(t, 24.5, bins[0].From, 1e-9)
	assert.InDelta(t, 25.5, bins[3].To, 1e-9)

	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, 3, total)
}
