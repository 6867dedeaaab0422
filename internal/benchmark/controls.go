package benchmark

import (
	"github.com/Virrpe/onbrd/internal/metrics"
	"github.com/Virrpe/onbrd/internal/models"
	"github.com/Virrpe/onbrd/internal/statistics"
)

// Control names, also used as PRNG stream names.
const (
	ControlFalsification = "falsification"
	ControlAblation      = "ablation"
	StreamBootstrap      = "bootstrap"
)

// NoSupportNote marks a falsification control that compared nothing.
const NoSupportNote = "no labelled check pairs under the permutation; the control is inconclusive"

// Falsify compares each check's predictions with the labels of a different,
// randomly chosen check. A scorer that learned real structure should collapse
// to macro-F1 <= maxMacroF1 under this mismatch. When the permutation maps
// every prediction onto an unlabelled check there is no evidence of a
// collapse and the control fails.
func Falsify(results []models.FixtureResult, target metrics.TargetFunc, rng *statistics.PRNG, maxMacroF1 float64) models.ControlResult {
	keys := models.AllHeuristics()
	perm := rng.Derangement(len(keys))
	labelKey := make(map[models.HeuristicKey]models.HeuristicKey, len(keys))
	for i, k := range keys {
		labelKey[k] = keys[perm[i]]
	}

	baseline := metrics.Evaluate(results, target)
	shuffled := metrics.EvaluatePermuted(results, target, labelKey)
	support := metrics.Support(shuffled)

	c := models.ControlResult{
		Name:        ControlFalsification,
		Seed:        rng.Seed(),
		Baseline:    baseline.MacroF1,
		Value:       shuffled.MacroF1,
		Threshold:   maxMacroF1,
		Passed:      support > 0 && shuffled.MacroF1 <= maxMacroF1,
		Support:     support,
		Permutation: labelKey,
	}
	if support == 0 {
		c.Note = NoSupportNote
	}
	return c
}

// AblationTargets replaces every band-midpoint target with a value drawn
// uniformly inside the band. Explicit numeric targets are kept. Draws are
// consumed in result order.
func AblationTargets(results []models.FixtureResult, rng *statistics.PRNG) metrics.TargetFunc {
	targets := make([]float64, len(results))
	ok := make([]bool, len(results))
	for i := range results {
		exp := results[i].Expected
		if exp.ScoreNumeric != nil {
			targets[i], ok[i] = *exp.ScoreNumeric, true
			continue
		}
		if lo, hi, has := exp.Band(); has {
			targets[i], ok[i] = rng.Uniform(lo, hi), true
		}
	}
	return func(i int, _ *models.FixtureResult) (float64, bool) {
		return targets[i], ok[i]
	}
}

// Ablate recomputes R² against targets sampled inside each band. Value holds
// the ablated R²; the control passes when R² drops by at least minDrop.
func Ablate(results []models.FixtureResult, rng *statistics.PRNG, minDrop float64) models.ControlResult {
	baseline := metrics.Evaluate(results, metrics.MidpointTarget).Calibration.R2
	ablated := metrics.Evaluate(results, AblationTargets(results, rng)).Calibration

	return models.ControlResult{
		Name:      ControlAblation,
		Seed:      rng.Seed(),
		Baseline:  baseline,
		Value:     ablated.R2,
		Threshold: minDrop,
		Passed:    baseline-ablated.R2 >= minDrop,
		Support:   ablated.N,
	}
}

// Intervals bootstraps confidence intervals of macro-F1 and R² by resampling
// fixtures. Both statistics draw from rng in turn.
func Intervals(results []models.FixtureResult, target metrics.TargetFunc, rng *statistics.PRNG, iters int, level float64) map[string]statistics.ConfidenceInterval {
	if target == nil {
		target = metrics.MidpointTarget
	}
	// Targets are resolved against the original indices before resampling.
	targets := make([]float64, len(results))
	has := make([]bool, len(results))
	for i := range results {
		targets[i], has[i] = target(i, &results[i])
	}
	evalSubset := func(idx []int) models.EvaluationResult {
		sub := metrics.Subset(results, idx)
		return metrics.Evaluate(sub, func(j int, _ *models.FixtureResult) (float64, bool) {
			return targets[idx[j]], has[idx[j]]
		})
	}

	return map[string]statistics.ConfidenceInterval{
		"macro_f1": statistics.Bootstrap(len(results), level, iters, rng, func(idx []int) float64 {
			return evalSubset(idx).MacroF1
		}),
		"r2": statistics.Bootstrap(len(results), level, iters, rng, func(idx []int) float64 {
			return evalSubset(idx).Calibration.R2
		}),
	}
}
