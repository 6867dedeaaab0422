package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Virrpe/onbrd/internal/models"
)

func TestInterpretScore(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{95, "Excellent (>90)"},
		{90, "Good (70-90)"},
		{70, "Good (70-90)"},
		{69, "Needs Work (50-70)"},
		{50, "Needs Work (50-70)"},
		{10, "Poor (<50)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InterpretScore(tt.score), "score %v", tt.score)
	}
}

func TestInterpretMacroF1AndR2(t *testing.T) {
	assert.Equal(t, "Checks match labels closely (0.95)", InterpretMacroF1(0.95))
	assert.Equal(t, "Checks mostly match labels (0.70)", InterpretMacroF1(0.70))
	assert.Equal(t, "Checks barely match labels (0.10)", InterpretMacroF1(0.10))

	assert.Equal(t, "Scores track targets moderately (R²=0.50)", InterpretR2(0.5))
	assert.Equal(t, "Scores do not track targets (R²=0.00)", InterpretR2(0))
}

func TestInterpretControl(t *testing.T) {
	assert.Equal(t, "Not run.", InterpretControl(nil))
	assert.Contains(t, InterpretControl(&models.ControlResult{Baseline: 0.8, Value: 0.2, Passed: true}), "collapsed as expected (0.80 → 0.20)")
	assert.Contains(t, InterpretControl(&models.ControlResult{Baseline: 0.8, Value: 0.7}), "did not collapse")
	assert.Equal(t, "Inconclusive: nothing compared.", InterpretControl(&models.ControlResult{Baseline: 1, Note: "nothing compared"}))
}

func TestFormatSummaryReport(t *testing.T) {
	report := FormatSummaryReport(newValidationReport(false))

	assert.Contains(t, report, "=== Interpretation ===")
	assert.Contains(t, report, "Checks mostly match labels (0.78)")
	assert.Contains(t, report, "over 12 fixtures")
	assert.Contains(t, report, "✓ macro_f1: 0.7778 >= 0.7000")
	assert.Contains(t, report, "✗ ablation_r2_drop")
	assert.Contains(t, report, "1 gate(s) failed.")

	assert.Contains(t, FormatSummaryReport(newValidationReport(true)), "All gates passed.")
}

func TestDistribution(t *testing.T) {
	d := Distribution(newBenchmarkReport().Results)
	assert.Equal(t, 3, d.N)
	assert.InDelta(t, 60, d.Mean, 1e-9)
	assert.InDelta(t, 16.3299, d.StdDev, 1e-4)
	assert.Equal(t, 40.0, d.P10)
	assert.Equal(t, 60.0, d.Median)
	assert.Equal(t, 80.0, d.P90)

	assert.Equal(t, ScoreDistribution{}, Distribution(nil))
}
