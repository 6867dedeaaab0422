package guardrail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/Virrpe/onbrd/internal/metrics"
	"github.com/Virrpe/onbrd/internal/models"
)

const (
	DefaultRuns      = 3
	DefaultDelay     = 50 * time.Millisecond
	DefaultMaxStdDev = 1.0
)

// StabilityChecker predicts every fixture several times and flags any that
// do not come out the same.
type StabilityChecker struct {
	predictor Predictor
	runs      int
	delay     time.Duration
	maxStdDev float64
}

// StabilityOption configures a StabilityChecker.
type StabilityOption func(*StabilityChecker)

// WithRuns sets how many times each fixture is predicted. Values below 2 are ignored.
func WithRuns(n int) StabilityOption {
	return func(c *StabilityChecker) {
		if n >= 2 {
			c.runs = n
		}
	}
}

// WithDelay sets the pause between runs of the same fixture.
func WithDelay(d time.Duration) StabilityOption {
	return func(c *StabilityChecker) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithMaxStdDev sets the largest tolerated standard deviation of overall_raw.
func WithMaxStdDev(v float64) StabilityOption {
	return func(c *StabilityChecker) {
		if v >= 0 {
			c.maxStdDev = v
		}
	}
}

// NewStabilityChecker returns a checker that calls p.
func NewStabilityChecker(p Predictor, opts ...StabilityOption) *StabilityChecker {
	c := &StabilityChecker{
		predictor: p,
		runs:      DefaultRuns,
		delay:     DefaultDelay,
		maxStdDev: DefaultMaxStdDev,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FixtureStability is the outcome of repeated predictions of one fixture.
type FixtureStability struct {
	FixtureID   string                          `json:"fixture_id"`
	Scores      []float64                       `json:"scores"`
	StdDev      float64                         `json:"std_dev"`
	CheckStdDev map[models.HeuristicKey]float64 `json:"check_std_dev,omitempty"`
	Flipped     []models.HeuristicKey           `json:"flipped,omitempty"`
	Error       string                          `json:"error,omitempty"`
	Stable      bool                            `json:"stable"`
}

// StabilityReport collects the per-fixture outcomes of a Check.
type StabilityReport struct {
	Runs       int                `json:"runs"`
	DelayMS    int64              `json:"delay_ms"`
	MaxStdDev  float64            `json:"max_std_dev"`
	Fixtures   []FixtureStability `json:"fixtures"`
	Violations int                `json:"violations"`
}

// Passed reports whether every fixture was stable.
func (r *StabilityReport) Passed() bool {
	return r.Violations == 0
}

// Check predicts each fixture c.runs times, sleeping between runs. A fixture
// is unstable when the population standard deviation of overall_raw exceeds
// the maximum or any boolean check changes value. Prediction errors mark the
// fixture unstable; only context errors abort the whole check.
func (c *StabilityChecker) Check(ctx context.Context, fixtures []*models.BenchmarkFixture) (*StabilityReport, error) {
	report := &StabilityReport{
		Runs:      c.runs,
		DelayMS:   c.delay.Milliseconds(),
		MaxStdDev: c.maxStdDev,
		Fixtures:  make([]FixtureStability, 0, len(fixtures)),
	}

	for _, f := range fixtures {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fs, err := c.checkFixture(ctx, f)
		if err != nil {
			return nil, err
		}
		if !fs.Stable {
			report.Violations++
			slog.Warn("Unstable fixture", "fixture", f.ID, "std_dev", fs.StdDev, "flipped", fs.Flipped, "error", fs.Error)
		}
		report.Fixtures = append(report.Fixtures, fs)
	}
	return report, nil
}

func (c *StabilityChecker) checkFixture(ctx context.Context, f *models.BenchmarkFixture) (FixtureStability, error) {
	fs := FixtureStability{FixtureID: f.ID, Scores: make([]float64, 0, c.runs)}
	var checks []map[models.HeuristicKey]bool

	for run := 0; run < c.runs; run++ {
		if run > 0 {
			if err := sleep(ctx, c.delay); err != nil {
				return fs, err
			}
		}
		pred, err := c.predictor.Predict(ctx, f)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return fs, err
			}
			fs.Error = fmt.Sprintf("run %d: %v", run+1, err)
			return fs, nil
		}
		fs.Scores = append(fs.Scores, pred.Scores.OverallRaw)
		checks = append(checks, pred.Checks)
	}

	sd, err := stats.StandardDeviationPopulation(fs.Scores)
	if err != nil {
		return fs, fmt.Errorf("computing std-dev for %s: %w", f.ID, err)
	}
	fs.StdDev = sd

	fs.CheckStdDev = make(map[models.HeuristicKey]float64)
	for _, k := range models.AllHeuristics() {
		// a check missing from some runs counts as false in those runs
		vals := make([]float64, len(checks))
		seen := false
		for i, run := range checks {
			v, ok := run[k]
			seen = seen || ok
			vals[i] = indicator(v)
		}
		if !seen {
			continue
		}
		csd, err := stats.StandardDeviationPopulation(vals)
		if err != nil {
			return fs, fmt.Errorf("computing %s std-dev for %s: %w", k, f.ID, err)
		}
		fs.CheckStdDev[k] = csd
		if metrics.IsFlaky(metrics.Mean(vals)) {
			fs.Flipped = append(fs.Flipped, k)
		}
	}

	fs.Stable = fs.StdDev <= c.maxStdDev && len(fs.Flipped) == 0
	return fs, nil
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
