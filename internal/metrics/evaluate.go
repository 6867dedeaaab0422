package metrics

import (
	"github.com/Virrpe/onbrd/internal/models"
)

// TargetFunc derives the numeric target of the i-th result.
type TargetFunc func(i int, r *models.FixtureResult) (float64, bool)

// MidpointTarget uses the explicit numeric target, else the band midpoint.
func MidpointTarget(_ int, r *models.FixtureResult) (float64, bool) {
	return r.Expected.MidpointTarget()
}

// Evaluate computes per-check metrics, macro-F1 and calibration R² over results.
func Evaluate(results []models.FixtureResult, target TargetFunc) models.EvaluationResult {
	return EvaluatePermuted(results, target, nil)
}

// Support sums the labelled fixtures counted across all checks.
func Support(e models.EvaluationResult) int {
	n := 0
	for _, m := range e.Checks {
		n += m.Support
	}
	return n
}

// EvaluatePermuted is like Evaluate but compares the prediction for key k with
// the expected labels of key labelKey[k]. Keys missing from labelKey map to
// themselves.
func EvaluatePermuted(results []models.FixtureResult, target TargetFunc, labelKey map[models.HeuristicKey]models.HeuristicKey) models.EvaluationResult {
	if target == nil {
		target = MidpointTarget
	}

	counts := make(map[models.HeuristicKey]models.ConfusionCounts)
	var predicted, targets []float64

	for i := range results {
		r := &results[i]
		for _, k := range models.AllHeuristics() {
			lk := k
			if mapped, ok := labelKey[k]; ok {
				lk = mapped
			}
			want, labelled := r.Expected.Checks[lk]
			if !labelled {
				continue
			}
			got := r.Prediction.Checks[k]
			counts[k] = Accumulate(counts[k], want, got)
		}

		if y, ok := target(i, r); ok {
			predicted = append(predicted, r.Prediction.Scores.OverallCalibrated)
			targets = append(targets, y)
		}
	}

	checks := make(map[models.HeuristicKey]models.CheckMetrics, len(counts))
	var f1s []float64
	for _, k := range models.AllHeuristics() {
		c, ok := counts[k]
		if !ok {
			continue
		}
		m := ComputeCheckMetrics(c)
		checks[k] = m
		f1s = append(f1s, m.F1)
	}

	return models.EvaluationResult{
		Checks:  checks,
		MacroF1: Mean(f1s),
		Calibration: models.CalibrationQuality{
			R2: RSquared(predicted, targets),
			N:  len(targets),
		},
	}
}

// Subset returns the results at the given indices, in index order.
func Subset(results []models.FixtureResult, indices []int) []models.FixtureResult {
	out := make([]models.FixtureResult, len(indices))
	for j, i := range indices {
		out[j] = results[i]
	}
	return out
}
