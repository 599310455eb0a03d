package forecast

import "slices"

// Bin is one equal-width histogram bucket. The last bin includes To.
type Bin struct {
	From  float64
	To    float64
	Count int
}

// Histogram buckets values into min(15, max(4, n/3)) equal-width bins
// spanning their range. A constant sample set is widened by half a minute
// on each side.
func Histogram(values []float64) []Bin {
	if len(values) == 0 {
		return nil
	}
	n := min(15, max(4, len(values)/3))
	lo, hi := slices.Min(values), slices.Max(values)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)

	bins := make([]Bin, n)
	for i := range bins {
		bins[i].From = lo + float64(i)*width
		bins[i].To = lo + float64(i+1)*width
	}
	bins[n-1].To = hi

	for _, v := range values {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		bins[i].Count++
	}
	return bins
}
