// Package calibration maps raw overall scores onto the benchmark scale with a
// linear model and fits that model offline by ordinary least squares.
package calibration

import (
	"math"

	"github.com/Virrpe/onbrd/internal/models"
)

// Apply returns clamp(a*raw + b, 0, 100).
func Apply(raw float64, cfg models.CalibrationConfig) float64 {
	return clamp(cfg.A*raw+cfg.B, 0, 100)
}

// Inverse returns clamp((calibrated - b) / a, 0, 100), or 0 when a is 0.
//
// It is meant for diagnostics only. Apply clamps, so every raw score that
// maps past 0 or 100 collapses onto the boundary and Inverse(Apply(x)) does
// not recover x near the clamp boundaries.
func Inverse(calibrated float64, cfg models.CalibrationConfig) float64 {
	if cfg.A == 0 {
		return 0
	}
	return clamp((calibrated-cfg.B)/cfg.A, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
