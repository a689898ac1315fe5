package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Diff returns the first differences x[i]-x[i-1].
func Diff(x []float64) []float64 {
	if len(x) < 2 {
		return nil
	}
	d := make([]float64, len(x)-1)
	for i := 1; i < len(x); i++ {
		d[i-1] = x[i] - x[i-1]
	}
	return d
}

// Lag1Autocorrelation returns the sample lag-1 autocorrelation, 0 when undefined.
func Lag1Autocorrelation(x []float64) float64 {
	if len(x) < 3 {
		return 0
	}
	mean := stat.Mean(x, nil)
	var num, den float64
	for i, v := range x {
		dv := v - mean
		den += dv * dv
		if i > 0 {
			num += dv * (x[i-1] - mean)
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// PopStdDev is the population (ddof=0) standard deviation.
func PopStdDev(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(x, nil)
	if math.IsNaN(std) {
		return 0
	}
	return std
}

// IsFlat reports whether every value equals the first one.
func IsFlat(x []float64) bool {
	for _, v := range x {
		if v != x[0] {
			return false
		}
	}
	return true
}
