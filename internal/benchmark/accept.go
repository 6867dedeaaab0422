package benchmark

import (
	"github.com/Virrpe/onbrd/internal/metrics"
	"github.com/Virrpe/onbrd/internal/models"
	"github.com/Virrpe/onbrd/internal/statistics"
)

// Thresholds are the fixed acceptance criteria of a validated run.
type Thresholds struct {
	MacroF1          float64
	R2               float64
	FalsificationMax float64
	AblationMinDrop  float64
}

// DefaultThresholds returns the acceptance criteria used unless configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MacroF1:          0.70,
		R2:               0.50,
		FalsificationMax: 0.40,
		AblationMinDrop:  0.20,
	}
}

// Gate names.
const (
	GateMacroF1       = "macro_f1"
	GateR2            = "r2"
	GateFalsification = "falsification_macro_f1"
	GateAblation      = "ablation_r2_drop"
)

// Accept turns an evaluation and its controls into gate results. A nil
// control contributes no gate.
func Accept(eval models.EvaluationResult, falsification, ablation *models.ControlResult, th Thresholds) []models.GateResult {
	gates := []models.GateResult{
		gate(GateMacroF1, eval.MacroF1, th.MacroF1, ">="),
		gate(GateR2, eval.Calibration.R2, th.R2, ">="),
	}
	if falsification != nil {
		g := gate(GateFalsification, falsification.Value, th.FalsificationMax, "<=")
		if falsification.Note != "" {
			g.Status = models.StatusFailed
		}
		gates = append(gates, g)
	}
	if ablation != nil {
		gates = append(gates, gate(GateAblation, ablation.Baseline-ablation.Value, th.AblationMinDrop, ">="))
	}
	return gates
}

func gate(name string, value, threshold float64, comparator string) models.GateResult {
	passed := value >= threshold
	if comparator == "<=" {
		passed = value <= threshold
	}
	status := models.StatusFailed
	if passed {
		status = models.StatusPassed
	}
	return models.GateResult{
		Name:       name,
		Value:      value,
		Threshold:  threshold,
		Comparator: comparator,
		Status:     status,
	}
}

// ValidateOptions selects the controls and statistics of Validate.
type ValidateOptions struct {
	Seed int64
	// Falsification runs the shuffled-label control.
	Falsification bool
	// Ablation runs the band-midpoint removal control.
	Ablation   bool
	Thresholds Thresholds
	// BootstrapIterations of 0 skips confidence intervals.
	BootstrapIterations int
	ConfidenceLevel     float64
}

// DefaultValidateOptions runs both controls and bootstraps 95% intervals.
func DefaultValidateOptions(seed int64) ValidateOptions {
	return ValidateOptions{
		Seed:                seed,
		Falsification:       true,
		Ablation:            true,
		Thresholds:          DefaultThresholds(),
		BootstrapIterations: statistics.DefaultBootstrapIterations,
		ConfidenceLevel:     0.95,
	}
}

// Validate evaluates a benchmark report and applies the acceptance gates.
// Every control draws from its own stream derived from opts.Seed.
func Validate(report *models.BenchmarkReport, source string, opts ValidateOptions) *models.ValidationReport {
	results := report.Results
	out := &models.ValidationReport{
		RunID:      report.RunID,
		Seed:       opts.Seed,
		Source:     source,
		Evaluation: metrics.Evaluate(results, metrics.MidpointTarget),
	}

	if opts.Falsification {
		c := Falsify(results, metrics.MidpointTarget, statistics.NewStream(opts.Seed, ControlFalsification), opts.Thresholds.FalsificationMax)
		out.Falsification = &c
	}
	if opts.Ablation {
		c := Ablate(results, statistics.NewStream(opts.Seed, ControlAblation), opts.Thresholds.AblationMinDrop)
		out.Ablation = &c
	}
	if opts.BootstrapIterations > 0 {
		level := opts.ConfidenceLevel
		if level <= 0 || level >= 1 {
			level = 0.95
		}
		out.Intervals = Intervals(results, metrics.MidpointTarget, statistics.NewStream(opts.Seed, StreamBootstrap), opts.BootstrapIterations, level)
	}

	out.Gates = Accept(out.Evaluation, out.Falsification, out.Ablation, opts.Thresholds)
	out.Passed = len(out.FailedGates()) == 0
	return out
}
