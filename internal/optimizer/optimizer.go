// Package optimizer searches a fixed grid of weight tables for the one that
// best reproduces a benchmark's labels and targets.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Virrpe/onbrd/internal/calibration"
	"github.com/Virrpe/onbrd/internal/metrics"
	"github.com/Virrpe/onbrd/internal/models"
	"github.com/Virrpe/onbrd/internal/scoring"
)

// Grid bounds. Free weights take the values GridStart + i*GridStep for
// i = 0..GridPoints-1; the fifth weight is the remainder.
const (
	GridStart        = 0.10
	GridStep         = 0.075
	GridPoints       = 5
	RemainderMin     = 0.05
	RemainderMax     = 0.45
	DefaultVersion   = "suggested"
	DefaultWorkers   = 4
	remainderEpsilon = 1e-9
)

// ErrNoScorableResults is returned when no result carries complete heuristics.
var ErrNoScorableResults = errors.New("no results with complete heuristics to optimize over")

// Candidate is one evaluated weight table.
type Candidate struct {
	// Index is the position in grid order, the final tie-breaker.
	Index       int                      `json:"index"`
	Weights     models.WeightTable       `json:"weights"`
	Calibration models.CalibrationConfig `json:"calibration"`
	MacroF1     float64                  `json:"macro_f1"`
	R2          float64                  `json:"r2"`
	Rank        int                      `json:"rank"`
}

// Result is the ranked outcome of a grid search.
type Result struct {
	Best       Candidate   `json:"best"`
	Candidates []Candidate `json:"candidates"`
	// Reason explains why the winner beat the runner-up.
	Reason     string      `json:"reason"`
}

// Optimizer evaluates every grid candidate against a set of fixture results.
type Optimizer struct {
	workers     int
	version     string
	source      string
	generatedAt time.Time
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithWorkers bounds concurrent candidate evaluation.
func WithWorkers(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithVersion sets the version label of the suggested table.
func WithVersion(v string) Option {
	return func(o *Optimizer) {
		if v != "" {
			o.version = v
		}
	}
}

// WithSource records where the fixture results came from.
func WithSource(s string) Option {
	return func(o *Optimizer) {
		o.source = s
	}
}

// WithGeneratedAt stamps the provenance. Pass a fixed time for reproducible output.
func WithGeneratedAt(t time.Time) Option {
	return func(o *Optimizer) {
		o.generatedAt = t.UTC()
	}
}

// New creates an Optimizer.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{workers: DefaultWorkers, version: DefaultVersion, source: "unknown"}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Grid returns every admissible weight table in grid order: the CTA weight
// varies slowest, the trust weight fastest, and the signup-speed weight is
// whatever remains.
func Grid() []models.WeightTable {
	values := make([]float64, GridPoints)
	for i := range values {
		// Scaled to integers so every grid point is the nearest float to its decimal.
		values[i] = (1000*GridStart + (1000*GridStep)*float64(i)) / 1000
	}

	var grid []models.WeightTable
	for _, cta := range values {
		for _, steps := range values {
			for _, copyW := range values {
				for _, trust := range values {
					speed := 1 - (cta + steps + copyW + trust)
					if speed < RemainderMin-remainderEpsilon || speed > RemainderMax+remainderEpsilon {
						continue
					}
					speed = math.Round(speed*1e9) / 1e9
					grid = append(grid, models.WeightTable{
						CTAAboveFold: cta,
						StepsCount:   steps,
						CopyClarity:  copyW,
						TrustMarkers: trust,
						SignupSpeed:  speed,
					})
				}
			}
		}
	}
	return grid
}

// scorable is a result reduced to what the search needs.
type scorable struct {
	result    models.FixtureResult
	subScores map[models.HeuristicKey]float64
	target    float64
	hasTarget bool
}

// Optimize evaluates the grid and ranks candidates by macro-F1, then R²,
// then grid order. The input results are never modified.
func (o *Optimizer) Optimize(ctx context.Context, results []models.FixtureResult) (*Result, error) {
	var rows []scorable
	for i := range results {
		r := results[i]
		if r.Heuristics == nil || len(r.Heuristics.MissingSections()) > 0 {
			slog.Warn("Skipping result without complete heuristics", "id", r.FixtureID)
			continue
		}
		y, ok := metrics.MidpointTarget(i, &r)
		rows = append(rows, scorable{
			result:    r,
			subScores: scoring.SubScores(r.Heuristics),
			target:    y,
			hasTarget: ok,
		})
	}
	if len(rows) == 0 {
		return nil, ErrNoScorableResults
	}

	grid := Grid()
	candidates := make([]Candidate, len(grid))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, w := range grid {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			w.Version = fmt.Sprintf("%s-%03d", o.version, i)
			c, err := o.evaluate(rows, w)
			if err != nil {
				return fmt.Errorf("candidate %d: %w", i, err)
			}
			c.Index = i
			candidates[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Stable sort keeps grid order among exact ties.
	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].MacroF1 != candidates[b].MacroF1 {
			return candidates[a].MacroF1 > candidates[b].MacroF1
		}
		return candidates[a].R2 > candidates[b].R2
	})
	for i := range candidates {
		candidates[i].Rank = i + 1
	}

	best := candidates[0]
	best.Weights.Version = o.version
	best.Weights.Provenance = &models.WeightsProvenance{
		GeneratedAt:         o.generatedAt,
		Source:              o.source,
		MacroF1:             best.MacroF1,
		R2:                  best.R2,
		CandidatesEvaluated: len(candidates),
	}

	res := &Result{Best: best, Candidates: candidates}
	if len(candidates) > 1 {
		res.Reason = buildReason(candidates[0], candidates[1])
	} else {
		res.Reason = "Only candidate in the grid"
	}
	return res, nil
}

// evaluate rescores every row under w, fits a fresh calibration on the
// (raw, target) pairs and measures the fit.
func (o *Optimizer) evaluate(rows []scorable, w models.WeightTable) (Candidate, error) {
	raw := make([]float64, len(rows))
	var fitRaw, fitTarget []float64
	for i, row := range rows {
		raw[i] = scoring.Overall(row.subScores, w)
		if row.hasTarget {
			fitRaw = append(fitRaw, raw[i])
			fitTarget = append(fitTarget, row.target)
		}
	}

	cal := models.IdentityCalibration()
	if len(fitTarget) >= 2 {
		var err error
		cal, err = calibration.FitConfig(fitRaw, fitTarget, o.source, w.Version)
		if err != nil {
			return Candidate{}, err
		}
	}

	rescored := make([]models.FixtureResult, len(rows))
	for i, row := range rows {
		r := row.result
		r.Prediction.Scores = models.Scores{
			SubScores:         row.subScores,
			OverallRaw:        raw[i],
			OverallCalibrated: calibration.Apply(raw[i], cal),
		}
		r.Prediction.Checks = scoring.Checks(row.subScores)
		rescored[i] = r
	}
	eval := metrics.Evaluate(rescored, metrics.MidpointTarget)

	return Candidate{
		Weights:     w,
		Calibration: cal,
		MacroF1:     eval.MacroF1,
		R2:          eval.Calibration.R2,
	}, nil
}

func buildReason(winner, runnerUp Candidate) string {
	switch {
	case winner.MacroF1 == runnerUp.MacroF1 && winner.R2 == runnerUp.R2:
		return fmt.Sprintf("Tied with candidate %d; first in grid order selected", runnerUp.Index)
	case winner.MacroF1 == runnerUp.MacroF1:
		return fmt.Sprintf("Equal macro-F1 %.3f; higher R² %.3f vs %.3f (candidate %d)",
			winner.MacroF1, winner.R2, runnerUp.R2, runnerUp.Index)
	default:
		return fmt.Sprintf("Highest macro-F1 %.3f vs %.3f (candidate %d)",
			winner.MacroF1, runnerUp.MacroF1, runnerUp.Index)
	}
}
