package models

import (
	"fmt"
	"math"
	"time"
)

// WeightSumTolerance is the allowed deviation of a weight table's sum from 1.0.
const WeightSumTolerance = 1e-6

// DefaultWeightsVersion labels the built-in weight table.
const DefaultWeightsVersion = "default-v1"

// WeightTable assigns the relative importance of each heuristic in overall_raw.
type WeightTable struct {
	Version      string             `json:"version"`
	CTAAboveFold float64            `json:"h_cta_above_fold"`
	StepsCount   float64            `json:"h_steps_count"`
	CopyClarity  float64            `json:"h_copy_clarity"`
	TrustMarkers float64            `json:"h_trust_markers"`
	SignupSpeed  float64            `json:"h_signup_speed"`
	Provenance   *WeightsProvenance `json:"provenance,omitempty"`
}

// WeightsProvenance records how a suggested weight table was produced.
type WeightsProvenance struct {
	GeneratedAt         time.Time `json:"generated_at"`
	Source              string    `json:"source"`
	MacroF1             float64   `json:"macro_f1"`
	R2                  float64   `json:"r2"`
	CandidatesEvaluated int       `json:"candidates_evaluated"`
}

// DefaultWeights returns the built-in weight table.
func DefaultWeights() WeightTable {
	return WeightTable{
		Version:      DefaultWeightsVersion,
		CTAAboveFold: 0.25,
		StepsCount:   0.20,
		CopyClarity:  0.20,
		TrustMarkers: 0.20,
		SignupSpeed:  0.15,
	}
}

// Get returns the weight of a heuristic.
func (w WeightTable) Get(k HeuristicKey) float64 {
	switch k {
	case HeuristicCTAAboveFold:
		return w.CTAAboveFold
	case HeuristicStepsCount:
		return w.StepsCount
	case HeuristicCopyClarity:
		return w.CopyClarity
	case HeuristicTrustMarkers:
		return w.TrustMarkers
	case HeuristicSignupSpeed:
		return w.SignupSpeed
	}
	return 0
}

// Values returns the weights in canonical heuristic order.
func (w WeightTable) Values() []float64 {
	keys := AllHeuristics()
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = w.Get(k)
	}
	return out
}

// WeightsFromValues builds a table from weights in canonical heuristic order.
func WeightsFromValues(version string, v []float64) (WeightTable, error) {
	if len(v) != len(AllHeuristics()) {
		return WeightTable{}, fmt.Errorf("expected %d weights, got %d", len(AllHeuristics()), len(v))
	}
	return WeightTable{
		Version:      version,
		CTAAboveFold: v[0],
		StepsCount:   v[1],
		CopyClarity:  v[2],
		TrustMarkers: v[3],
		SignupSpeed:  v[4],
	}, nil
}

// Sum returns the total of all weights.
func (w WeightTable) Sum() float64 {
	return w.CTAAboveFold + w.StepsCount + w.CopyClarity + w.TrustMarkers + w.SignupSpeed
}

// Validate checks that weights are non-negative and sum to 1.0.
func (w WeightTable) Validate() error {
	for _, k := range AllHeuristics() {
		v := w.Get(k)
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("weight for %s is %v, must be non-negative", k, v)
		}
	}
	if math.Abs(w.Sum()-1.0) > WeightSumTolerance {
		return fmt.Errorf("weights sum to %.6f, must sum to 1.0", w.Sum())
	}
	return nil
}
