package models

import "github.com/Virrpe/onbrd/internal/statistics"

// Status represents the outcome status of a gate or check.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
	// StatusNA is used in comparison reports when a metric is missing from a result file.
	StatusNA Status = "n/a"
)

// FixtureResult is the scored output for one fixture.
type FixtureResult struct {
	FixtureID  string      `json:"fixture_id"`
	Name       string      `json:"name"`
	Category   string      `json:"category"`
	Heuristics *Heuristics `json:"heuristics"`
	Prediction Prediction  `json:"prediction"`
	Expected   Expected    `json:"expected"`
}

// SkippedFixture records a fixture that could not be scored.
type SkippedFixture struct {
	FixtureID string `json:"fixture_id,omitempty"`
	Source    string `json:"source,omitempty"`
	Reason    string `json:"reason"`
}

// BenchmarkReport is the machine-readable output of a corpus run.
type BenchmarkReport struct {
	RunID        string            `json:"run_id"`
	CorpusDigest string            `json:"corpus_digest"`
	Seed         int64             `json:"seed"`
	Category     string            `json:"category,omitempty"`
	Perturbation string            `json:"perturbation"`
	Weights      WeightTable       `json:"weights"`
	Calibration  CalibrationConfig `json:"calibration"`
	Results      []FixtureResult   `json:"results"`
	Skipped      []SkippedFixture  `json:"skipped,omitempty"`
	Evaluation   *EvaluationResult `json:"evaluation,omitempty"`
}

// ConfusionCounts accumulates the confusion matrix of one boolean check.
type ConfusionCounts struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TN int `json:"tn"`
}

// Support is the number of labelled fixtures counted.
func (c ConfusionCounts) Support() int {
	return c.TP + c.FP + c.FN + c.TN
}

// CheckMetrics are the classification metrics derived from ConfusionCounts.
type CheckMetrics struct {
	Counts    ConfusionCounts `json:"counts"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1"`
	Support   int             `json:"support"`
}

// CalibrationQuality summarises how well calibrated scores track targets.
type CalibrationQuality struct {
	R2 float64 `json:"r2"`
	N  int     `json:"n"`
}

// EvaluationResult aggregates per-check metrics and calibration fit quality.
type EvaluationResult struct {
	Checks      map[HeuristicKey]CheckMetrics `json:"checks"`
	MacroF1     float64                       `json:"macro_f1"`
	Calibration CalibrationQuality            `json:"calibration"`
}

// ControlResult is the outcome of a falsification or ablation control.
type ControlResult struct {
	Name      string  `json:"name"`
	Seed      int64   `json:"seed"`
	Baseline  float64 `json:"baseline"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Passed    bool    `json:"passed"`

	// Support is the number of labelled prediction/label pairs the control compared.
	Support int    `json:"support"`
	// Note explains a control that could not be evaluated.
	Note    string `json:"note,omitempty"`

	// Permutation maps each prediction key to the label key it was compared with.
	Permutation map[HeuristicKey]HeuristicKey `json:"permutation,omitempty"`
}

// GateResult is one acceptance gate.
type GateResult struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Threshold  float64 `json:"threshold"`
	Comparator string  `json:"comparator"`
	Status     Status  `json:"status"`
}

// Passed reports whether the gate passed.
func (g GateResult) Passed() bool {
	return g.Status == StatusPassed
}

// ValidationReport is the output of validating a benchmark report.
type ValidationReport struct {
	RunID         string                                   `json:"run_id"`
	Seed          int64                                    `json:"seed"`
	Source        string                                   `json:"source"`
	Evaluation    EvaluationResult                         `json:"evaluation"`
	Falsification *ControlResult                           `json:"falsification,omitempty"`
	Ablation      *ControlResult                           `json:"ablation,omitempty"`
	Intervals     map[string]statistics.ConfidenceInterval `json:"intervals,omitempty"`
	Gates         []GateResult                             `json:"gates"`
	Passed        bool                                     `json:"passed"`
}

// FailedGates returns the gates that did not pass.
func (r *ValidationReport) FailedGates() []GateResult {
	var failed []GateResult
	for _, g := range r.Gates {
		if !g.Passed() {
			failed = append(failed, g)
		}
	}
	return failed
}
