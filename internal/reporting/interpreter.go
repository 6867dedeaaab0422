package reporting

import (
	"fmt"
	"strings"

	"github.com/Virrpe/onbrd/internal/metrics"
	"github.com/Virrpe/onbrd/internal/models"
)

// InterpretScore returns a plain-language label for an overall score (0–100).
func InterpretScore(score float64) string {
	switch {
	case score > 90:
		return "Excellent (>90)"
	case score >= 70:
		return "Good (70-90)"
	case score >= 50:
		return "Needs Work (50-70)"
	default:
		return "Poor (<50)"
	}
}

// InterpretMacroF1 explains how well the boolean checks agree with labels.
func InterpretMacroF1(v float64) string {
	switch {
	case v >= 0.9:
		return fmt.Sprintf("Checks match labels closely (%.2f)", v)
	case v >= 0.7:
		return fmt.Sprintf("Checks mostly match labels (%.2f)", v)
	case v >= 0.4:
		return fmt.Sprintf("Checks match labels only partly (%.2f)", v)
	default:
		return fmt.Sprintf("Checks barely match labels (%.2f)", v)
	}
}

// InterpretR2 explains how much target variance the calibrated score explains.
func InterpretR2(v float64) string {
	switch {
	case v >= 0.8:
		return fmt.Sprintf("Scores track targets closely (R²=%.2f)", v)
	case v >= 0.5:
		return fmt.Sprintf("Scores track targets moderately (R²=%.2f)", v)
	case v > 0:
		return fmt.Sprintf("Scores track targets weakly (R²=%.2f)", v)
	default:
		return fmt.Sprintf("Scores do not track targets (R²=%.2f)", v)
	}
}

// InterpretControl explains a falsification or ablation outcome.
func InterpretControl(c *models.ControlResult) string {
	if c == nil {
		return "Not run."
	}
	if c.Note != "" {
		return fmt.Sprintf("Inconclusive: %s.", c.Note)
	}
	if c.Passed {
		return fmt.Sprintf("Metric collapsed as expected (%.2f → %.2f).", c.Baseline, c.Value)
	}
	return fmt.Sprintf("Metric did not collapse (%.2f → %.2f); the result may be leaking labels or overfitting.", c.Baseline, c.Value)
}

// FormatSummaryReport produces a plain-language report of a validation run.
func FormatSummaryReport(v *models.ValidationReport) string {
	var b strings.Builder

	b.WriteString("=== Interpretation ===\n\n")
	fmt.Fprintf(&b, "Macro-F1:       %s\n", InterpretMacroF1(v.Evaluation.MacroF1))
	fmt.Fprintf(&b, "Calibration:    %s over %d fixtures\n", InterpretR2(v.Evaluation.Calibration.R2), v.Evaluation.Calibration.N)
	fmt.Fprintf(&b, "Falsification:  %s\n", InterpretControl(v.Falsification))
	fmt.Fprintf(&b, "Ablation:       %s\n", InterpretControl(v.Ablation))

	if len(v.Gates) > 0 {
		b.WriteString("\nGates:\n")
		for _, g := range v.Gates {
			icon := "✓"
			if !g.Passed() {
				icon = "✗"
			}
			fmt.Fprintf(&b, "  %s %s: %.4f %s %.4f\n", icon, g.Name, g.Value, g.Comparator, g.Threshold)
		}
	}

	if v.Passed {
		b.WriteString("\nAll gates passed.\n")
	} else {
		fmt.Fprintf(&b, "\n%d gate(s) failed.\n", len(v.FailedGates()))
	}
	return b.String()
}

// ScoreDistribution summarises calibrated scores of a benchmark run.
type ScoreDistribution struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	P10    float64 `json:"p10"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
}

// Distribution computes the spread of overall_calibrated across results.
func Distribution(results []models.FixtureResult) ScoreDistribution {
	values := make([]float64, 0, len(results))
	for _, r := range results {
		values = append(values, r.Prediction.Scores.OverallCalibrated)
	}
	return ScoreDistribution{
		N:      len(values),
		Mean:   metrics.Mean(values),
		StdDev: metrics.StdDev(values),
		P10:    metrics.Percentile(values, 10),
		Median: metrics.Percentile(values, 50),
		P90:    metrics.Percentile(values, 90),
	}
}
