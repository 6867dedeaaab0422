package calibration

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Virrpe/onbrd/internal/models"
)

var (
	// ErrInsufficientSamples is returned when fewer than 2 pairs are given.
	ErrInsufficientSamples = errors.New("calibration fit needs at least 2 samples")
	// ErrLengthMismatch is returned when raw and target lengths differ.
	ErrLengthMismatch = errors.New("calibration fit: raw and target lengths differ")
)

// Fit is the slope and intercept of a least-squares line.
type Fit struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	N int     `json:"n"`
}

// FitOLS fits target = a*raw + b by ordinary least squares. When every raw
// score is identical the slope is undefined and the identity {1, 0} is returned.
func FitOLS(raw, target []float64) (Fit, error) {
	if len(raw) != len(target) {
		return Fit{}, fmt.Errorf("%w: %d raw vs %d target", ErrLengthMismatch, len(raw), len(target))
	}
	n := len(raw)
	if n < 2 {
		return Fit{}, fmt.Errorf("%w: got %d", ErrInsufficientSamples, n)
	}
	if floats.Min(raw) == floats.Max(raw) {
		return Fit{A: 1, B: 0, N: n}, nil
	}
	b, a := stat.LinearRegression(raw, target, nil, false)
	return Fit{A: a, B: b, N: n}, nil
}

// FitConfig fits a calibration config for the corpus identified by corpusID.
func FitConfig(raw, target []float64, corpusID, version string) (models.CalibrationConfig, error) {
	if corpusID == "" || corpusID == models.NotFitted {
		return models.CalibrationConfig{}, fmt.Errorf("calibration fit needs a corpus id, got %q", corpusID)
	}
	f, err := FitOLS(raw, target)
	if err != nil {
		return models.CalibrationConfig{}, err
	}
	return models.CalibrationConfig{
		A:        f.A,
		B:        f.B,
		Version:  version,
		FittedOn: corpusID,
		NSamples: f.N,
	}, nil
}
