package metrics

import (
	"github.com/montanaflynn/stats"
)

// Mean computes the arithmetic mean of a float64 slice.
// Returns 0 for empty input.
func Mean(values []float64) float64 {
	m, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

// StdDev computes the population standard deviation.
// Returns 0 for empty input.
func StdDev(values []float64) float64 {
	sd, err := stats.StandardDeviationPopulation(values)
	if err != nil {
		return 0
	}
	return sd
}

// Percentile returns the nearest-rank p-th percentile (0-100] of values.
// Returns 0 for empty input.
func Percentile(values []float64, p float64) float64 {
	v, err := stats.PercentileNearestRank(values, p)
	if err != nil {
		return 0
	}
	return v
}

// IsFlaky returns true when the pass rate is strictly between 0 and 1,
// meaning a check sometimes passes and sometimes fails on the same input.
func IsFlaky(passRate float64) bool {
	return passRate > 0 && passRate < 1
}
