package reporting

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Virrpe/onbrd/internal/models"
)

const metricsNamespace = "onbrd"

// NewMetricsRegistry builds a registry holding the headline numbers of a
// benchmark run and, when given, its validation. Either report may be nil,
// but not both.
func NewMetricsRegistry(r *models.BenchmarkReport, v *models.ValidationReport) (*prometheus.Registry, error) {
	if r == nil && v == nil {
		return nil, errors.New("no report to export")
	}
	reg := prometheus.NewRegistry()

	gauge := func(name, help string) prometheus.Gauge {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: metricsNamespace, Name: name, Help: help})
		reg.MustRegister(g)
		return g
	}
	gaugeVec := func(name, help string, labels ...string) *prometheus.GaugeVec {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: metricsNamespace, Name: name, Help: help}, labels)
		reg.MustRegister(g)
		return g
	}

	var eval *models.EvaluationResult
	if r != nil {
		gauge("fixtures_scored", "Fixtures scored in the run.").Set(float64(len(r.Results)))
		gauge("fixtures_skipped", "Fixtures skipped in the run.").Set(float64(len(r.Skipped)))
		gaugeVec("run_info", "Identity of the run; always 1.", "run_id", "weights_version", "perturbation").
			WithLabelValues(r.RunID, r.Weights.Version, r.Perturbation).Set(1)
		if len(r.Results) > 0 {
			d := Distribution(r.Results)
			gauge("score_median", "Median calibrated overall score.").Set(d.Median)
		}
		eval = r.Evaluation
	}
	if v != nil {
		eval = &v.Evaluation
		gates := gaugeVec("gate_passed", "1 if the acceptance gate passed.", "gate")
		for _, g := range v.Gates {
			gates.WithLabelValues(g.Name).Set(boolGauge(g.Passed()))
		}
		gauge("validation_passed", "1 if every acceptance gate passed.").Set(boolGauge(v.Passed))
	}

	if eval != nil {
		gauge("macro_f1", "Macro-averaged F1 of the boolean checks.").Set(eval.MacroF1)
		gauge("r2", "R² of calibrated scores against targets.").Set(eval.Calibration.R2)
		checks := gaugeVec("check_f1", "F1 of one boolean check.", "check")
		for _, k := range models.AllHeuristics() {
			if m, ok := eval.Checks[k]; ok {
				checks.WithLabelValues(string(k)).Set(m.F1)
			}
		}
	}
	return reg, nil
}

// WriteTextfile writes the headline metrics in the Prometheus text format,
// for node_exporter's textfile collector.
func WriteTextfile(path string, r *models.BenchmarkReport, v *models.ValidationReport) error {
	reg, err := NewMetricsRegistry(r, v)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
