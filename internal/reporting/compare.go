package reporting

import (
	"errors"
	"fmt"
	"io"

	"github.com/Virrpe/onbrd/internal/metrics"
	"github.com/Virrpe/onbrd/internal/models"
)

// ComparisonEntry holds the headline metrics of one result file.
type ComparisonEntry struct {
	Name    string                          `json:"name"`
	RunID   string                          `json:"run_id"`
	Weights string                          `json:"weights"`
	N       int                             `json:"n"`
	MacroF1 float64                         `json:"macro_f1"`
	R2      float64                         `json:"r2"`
	Checks  map[models.HeuristicKey]float64 `json:"checks"`
}

// Comparison lines up result files against the first one.
type Comparison struct {
	Entries []ComparisonEntry `json:"entries"`
}

// Compare builds a comparison of reports. names label each report and must
// have the same length. Reports without a stored evaluation are evaluated
// against band-midpoint targets.
func Compare(names []string, reports []*models.BenchmarkReport) (*Comparison, error) {
	if len(reports) < 2 {
		return nil, errors.New("compare needs at least two result files")
	}
	if len(names) != len(reports) {
		return nil, fmt.Errorf("got %d names for %d reports", len(names), len(reports))
	}

	c := &Comparison{Entries: make([]ComparisonEntry, 0, len(reports))}
	for i, r := range reports {
		eval := r.Evaluation
		if eval == nil {
			e := metrics.Evaluate(r.Results, metrics.MidpointTarget)
			eval = &e
		}
		entry := ComparisonEntry{
			Name:    names[i],
			RunID:   r.RunID,
			Weights: r.Weights.Version,
			N:       len(r.Results),
			MacroF1: eval.MacroF1,
			R2:      eval.Calibration.R2,
			Checks:  make(map[models.HeuristicKey]float64, len(eval.Checks)),
		}
		for k, m := range eval.Checks {
			entry.Checks[k] = m.F1
		}
		c.Entries = append(c.Entries, entry)
	}
	return c, nil
}

// Render writes a table with one row per result file. Deltas are relative
// to the first file; checks missing from a file show as n/a.
func (c *Comparison) Render(w io.Writer) error {
	headers := []string{"Result", "Weights", "N", "Macro-F1", "ΔF1", "R²", "ΔR²"}
	for _, k := range models.AllHeuristics() {
		headers = append(headers, string(k))
	}
	t := NewTable(headers...)

	base := c.Entries[0]
	for i, e := range c.Entries {
		row := []string{e.Name, e.Weights, fmt.Sprintf("%d", e.N), fmt.Sprintf("%.4f", e.MacroF1), delta(i, e.MacroF1-base.MacroF1), fmt.Sprintf("%.4f", e.R2), delta(i, e.R2-base.R2)}
		for _, k := range models.AllHeuristics() {
			f1, ok := e.Checks[k]
			baseF1, baseOK := base.Checks[k]
			switch {
			case !ok:
				row = append(row, string(models.StatusNA))
			case i == 0 || !baseOK:
				row = append(row, fmt.Sprintf("%.2f", f1))
			default:
				row = append(row, fmt.Sprintf("%.2f (%+.2f)", f1, f1-baseF1))
			}
		}
		t.AddRow(row...)
	}
	return t.Render(w)
}

func delta(i int, d float64) string {
	if i == 0 {
		return "—"
	}
	return fmt.Sprintf("%+.4f", d)
}
