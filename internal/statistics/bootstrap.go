package statistics

import (
	"math"
	"sort"
)

// ConfidenceInterval holds the result of a bootstrap confidence interval computation.
type ConfidenceInterval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	Estimate        float64 `json:"estimate"`
	ConfidenceLevel float64 `json:"confidence_level"`
	NumBootstraps   int     `json:"num_bootstraps"`
}

// DefaultBootstrapIterations is the number of bootstrap resamples.
const DefaultBootstrapIterations = 2000

// Statistic computes a metric over a resample, given as indices into the
// original observations (indices may repeat).
type Statistic func(indices []int) float64

// BootstrapCI computes a percentile bootstrap confidence interval of the mean
// of scores. confidenceLevel should be in (0, 1), e.g. 0.95.
func BootstrapCI(scores []float64, confidenceLevel float64, rng *PRNG) ConfidenceInterval {
	return Bootstrap(len(scores), confidenceLevel, DefaultBootstrapIterations, rng, func(idx []int) float64 {
		sum := 0.0
		for _, i := range idx {
			sum += scores[i]
		}
		if len(idx) == 0 {
			return 0
		}
		return sum / float64(len(idx))
	})
}

// Bootstrap computes a percentile bootstrap confidence interval for an
// arbitrary statistic over n observations, resampling indices with replacement.
// Returns a degenerate interval at the point estimate when n < 2.
func Bootstrap(n int, confidenceLevel float64, iters int, rng *PRNG, stat Statistic) ConfidenceInterval {
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	est := stat(all)
	if n < 2 || iters <= 0 {
		return ConfidenceInterval{
			Lower:           est,
			Upper:           est,
			Estimate:        est,
			ConfidenceLevel: confidenceLevel,
			NumBootstraps:   0,
		}
	}

	boot := make([]float64, iters)
	sample := make([]int, n)
	for i := 0; i < iters; i++ {
		for j := 0; j < n; j++ {
			sample[j] = rng.Intn(n)
		}
		boot[i] = stat(sample)
	}

	sort.Float64s(boot)

	// Percentile method
	alpha := 1.0 - confidenceLevel
	loIdx := int(math.Floor(alpha / 2.0 * float64(iters)))
	hiIdx := int(math.Floor((1.0 - alpha/2.0) * float64(iters)))
	if hiIdx >= iters {
		hiIdx = iters - 1
	}

	return ConfidenceInterval{
		Lower:           boot[loIdx],
		Upper:           boot[hiIdx],
		Estimate:        est,
		ConfidenceLevel: confidenceLevel,
		NumBootstraps:   iters,
	}
}
