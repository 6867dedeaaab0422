// Package scoring maps extracted page heuristics to sub-scores, an overall
// score and recommendations. Everything here is pure: no I/O, no clock, no
// randomness.
package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/Virrpe/onbrd/internal/calibration"
	"github.com/Virrpe/onbrd/internal/models"
)

// ErrMissingSection is returned when a Heuristics record lacks a section.
var ErrMissingSection = errors.New("heuristics section missing")

// CheckPassThreshold is the sub-score at or above which a check passes.
const CheckPassThreshold = 60.0

// Scorer computes scores with a fixed weight table.
type Scorer struct {
	weights models.WeightTable
}

// New returns a Scorer for the given weights. The weights must be valid.
func New(weights models.WeightTable) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weight table %q: %w", weights.Version, err)
	}
	return &Scorer{weights: weights}, nil
}

// Weights returns the scorer's weight table.
func (s *Scorer) Weights() models.WeightTable {
	return s.weights
}

// Score computes sub-scores, overall_raw and recommendations for h.
// OverallCalibrated is left equal to OverallRaw; use Predict to calibrate.
func (s *Scorer) Score(h *models.Heuristics) (*models.Scores, []models.Recommendation, error) {
	if missing := h.MissingSections(); len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingSection, missing[0])
	}

	sub := SubScores(h)
	raw := Overall(sub, s.weights)

	scores := &models.Scores{
		SubScores:         sub,
		OverallRaw:        raw,
		OverallCalibrated: raw,
	}
	return scores, Recommend(h), nil
}

// Predict scores h, applies cal to the overall score and derives the
// boolean checks.
func (s *Scorer) Predict(h *models.Heuristics, cal models.CalibrationConfig) (*models.Prediction, error) {
	scores, recs, err := s.Score(h)
	if err != nil {
		return nil, err
	}
	scores.OverallCalibrated = calibration.Apply(scores.OverallRaw, cal)
	return &models.Prediction{
		Scores:          *scores,
		Checks:          Checks(scores.SubScores),
		Recommendations: recs,
	}, nil
}

// Overall is the weighted sum of sub-scores, rounded half away from zero and
// clamped to [0, 100].
func Overall(sub map[models.HeuristicKey]float64, w models.WeightTable) float64 {
	raw := 0.0
	for _, k := range models.AllHeuristics() {
		raw += sub[k] * w.Get(k)
	}
	return clamp(math.Round(raw), 0, 100)
}

// Checks derives pass/fail per heuristic from sub-scores.
func Checks(sub map[models.HeuristicKey]float64) map[models.HeuristicKey]bool {
	checks := make(map[models.HeuristicKey]bool, len(sub))
	for _, k := range models.AllHeuristics() {
		v, ok := sub[k]
		if !ok {
			continue
		}
		checks[k] = v >= CheckPassThreshold
	}
	return checks
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
