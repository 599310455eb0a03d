// Package forecast holds the small-sample prediction math: per-target sample
// extraction, the regression/EMA tier policy and summary statistics.
package forecast

import "math"

const (
	// MinSamplesForRegression is the sample count at which OLS replaces the EMA.
	MinSamplesForRegression = 8
	// MinSamplesForAverage is the fewest samples that produce any prediction.
	MinSamplesForAverage = 3
	// EMAAlpha is the weight of the most recent sample.
	EMAAlpha = 0.3

	clampLow  = 0.5
	clampHigh = 2.0
)

// Method names the tier that produced a prediction.
type Method string

const (
	MethodRegression   Method = "regression"
	MethodEMA          Method = "ema"
	MethodInsufficient Method = "insufficient_data"
)

// Result is a point prediction in minutes, or the insufficient-data sentinel.
type Result struct {
	Value   float64
	Method  Method
	Samples int
}

// Available reports whether the result carries a usable value.
func (r Result) Available() bool {
	return r.Method != MethodInsufficient
}

// Predict applies the tiered policy to chronologically ordered samples:
// regression for >= 8 samples, EMA for 3-7, otherwise insufficient data.
func Predict(samples []float64) Result {
	n := len(samples)
	switch {
	case n >= MinSamplesForRegression:
		return Result{Value: RegressNext(samples), Method: MethodRegression, Samples: n}
	case n >= MinSamplesForAverage:
		return Result{Value: EMA(samples, EMAAlpha), Method: MethodEMA, Samples: n}
	default:
		return Result{Method: MethodInsufficient, Samples: n}
	}
}

// RegressNext fits y = m*x + b with x = 0..n-1 by ordinary least squares and
// returns the fitted value at x = n, clamped to [0.5*mean, 2*mean].
func RegressNext(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	mean := sumY / n

	var slope float64
	if denom := n*sumXX - sumX*sumX; denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
	}
	intercept := (sumY - slope*sumX) / n
	prediction := slope*n + intercept

	return math.Max(mean*clampLow, math.Min(prediction, mean*clampHigh))
}

// EMA returns the exponential moving average seeded with the first value.
// Each later value v updates ema = alpha*v + (1-alpha)*ema.
func EMA(values []float64, alpha float64) float64 {
	if len(values) == 0 {
		return 0
	}
	ema := values[0]
	for _, v := range values[1:] {
		ema = alpha*v + (1-alpha)*ema
	}
	return ema
}

// Stats summarizes a sample set for training audit records.
type Stats struct {
	Count int
	Mean  float64
	Std   float64
}

// Describe computes count, mean and population standard deviation.
func Describe(values []float64) Stats {
	s := Stats{Count: len(values)}
	if s.Count == 0 {
		return s
	}
	for _, v := range values {
		s.Mean += v
	}
	s.Mean /= float64(s.Count)

	var sq float64
	for _, v := range values {
		d := v - s.Mean
		sq += d * d
	}
	s.Std = math.Sqrt(sq / float64(s.Count))
	return s
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	return Describe(values).Mean
}
