package reporting

import (
	"github.com/Virrpe/onbrd/internal/models"
	"github.com/Virrpe/onbrd/internal/statistics"
	"github.com/Virrpe/onbrd/internal/utils"
)

func result(id string, raw, calibrated float64, expected models.Expected) models.FixtureResult {
	return models.FixtureResult{
		FixtureID: id,
		Category:  "saas",
		Prediction: models.Prediction{
			Scores: models.Scores{OverallRaw: raw, OverallCalibrated: calibrated},
			Checks: map[models.HeuristicKey]bool{models.HeuristicCTAAboveFold: calibrated >= 50},
		},
		Expected: expected,
	}
}

func newBenchmarkReport() *models.BenchmarkReport {
	return &models.BenchmarkReport{
		RunID:        "3f2c9a1e-0000-5000-8000-000000000001",
		CorpusDigest: "abcdef0123456789abcdef",
		Seed:         42,
		Perturbation: "none",
		Weights:      models.DefaultWeights(),
		Calibration:  models.IdentityCalibration(),
		Results: []models.FixtureResult{
			result("alpha", 80, 80, models.Expected{ScoreNumeric: utils.Ptr(85.0)}),
			result("beta", 40, 40, models.Expected{ScoreBand: []float64{30, 50}}),
			result("gamma|pipe", 60, 60, models.Expected{Checks: map[models.HeuristicKey]bool{models.HeuristicCTAAboveFold: true}}),
		},
		Skipped: []models.SkippedFixture{{Source: "broken.yaml", Reason: "schema: /expected: missing"}},
		Evaluation: &models.EvaluationResult{
			Checks: map[models.HeuristicKey]models.CheckMetrics{
				models.HeuristicCTAAboveFold: {Precision: 1, Recall: 1, F1: 1, Support: 1},
			},
			MacroF1:     1,
			Calibration: models.CalibrationQuality{R2: 0.9, N: 2},
		},
	}
}

func newValidationReport(passed bool) *models.ValidationReport {
	status := models.StatusPassed
	if !passed {
		status = models.StatusFailed
	}
	return &models.ValidationReport{
		RunID:  "run-1",
		Seed:   7,
		Source: "results.json",
		Evaluation: models.EvaluationResult{
			Checks: map[models.HeuristicKey]models.CheckMetrics{
				models.HeuristicCTAAboveFold: {Precision: 0.8, Recall: 1, F1: 0.8889, Support: 9},
				models.HeuristicTrustMarkers: {Precision: 1, Recall: 0.5, F1: 0.6667, Support: 4},
			},
			MacroF1:     0.7778,
			Calibration: models.CalibrationQuality{R2: 0.62, N: 12},
		},
		Falsification: &models.ControlResult{
			Name: "falsification", Seed: 7, Baseline: 0.7778, Value: 0.21, Threshold: 0.40, Passed: true,
			Permutation: map[models.HeuristicKey]models.HeuristicKey{
				models.HeuristicCTAAboveFold: models.HeuristicTrustMarkers,
				models.HeuristicTrustMarkers: models.HeuristicCTAAboveFold,
			},
		},
		Ablation: &models.ControlResult{Name: "ablation", Seed: 7, Baseline: 0.62, Value: 0.55, Threshold: 0.20, Passed: passed},
		Intervals: map[string]statistics.ConfidenceInterval{
			"r2":       {Lower: 0.4, Upper: 0.8, Estimate: 0.62, ConfidenceLevel: 0.95, NumBootstraps: 1000},
			"macro_f1": {Lower: 0.6, Upper: 0.9, Estimate: 0.7778, ConfidenceLevel: 0.95, NumBootstraps: 1000},
		},
		Gates: []models.GateResult{
			{Name: "macro_f1", Value: 0.7778, Threshold: 0.70, Comparator: ">=", Status: models.StatusPassed},
			{Name: "ablation_r2_drop", Value: 0.07, Threshold: 0.20, Comparator: ">=", Status: status},
		},
		Passed: passed,
	}
}
