package research

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Bands(t *testing.T) {
	tests := []struct {
		min  float64
		want Band
	}{
		{0, BandTooShort},
		{2.99, BandTooShort},
		{3, BandMicro},
		{7.9, BandMicro},
		{8, BandDeep},
		{20, BandDeep},
		{20.1, BandLong},
		{35, BandLong},
		{35.1, BandTooLong},
		{90, BandTooLong},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.min), "break of %.2f min", tt.min)
	}
}

func TestAdvice_EveryBandHasText(t *testing.T) {
	for _, min := range []float64{1, 5, 15, 30, 60} {
		assert.NotEmpty(t, Advice(min))
	}
	assert.NotEqual(t, Advice(1), Advice(60))
}

func TestSuggestBreakLength(t *testing.T) {
	tests := []struct {
		work float64
		want float64
	}{
		{0, 5},
		{24.9, 5},
		{25, 10},
		{54, 10},
		{55, 17},
		{94, 17},
		{95, 20},
		{240, 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SuggestBreakLength(tt.work), "work of %.1f min", tt.work)
	}
}

func TestEntries_ReturnsCopy(t *testing.T) {
	got := Entries()
	assert.Len(t, got, 5)
	got[0].Title = "changed"
	assert.Equal(t, "Pomodoro Technique", Entries()[0].Title)
}
