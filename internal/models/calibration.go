package models

import "fmt"

// NotFitted marks a calibration that was never fit against a corpus.
const NotFitted = "not_fitted"

// CalibrationConfig is the linear model mapping raw scores to calibrated scores.
type CalibrationConfig struct {
	A        float64 `json:"a"`
	B        float64 `json:"b"`
	Version  string  `json:"version"`
	FittedOn string  `json:"fitted_on"`
	NSamples int     `json:"n_samples"`
}

// IdentityCalibration is the degraded fallback used when no fit is available.
func IdentityCalibration() CalibrationConfig {
	return CalibrationConfig{
		A:        1,
		B:        0,
		Version:  "identity",
		FittedOn: NotFitted,
		NSamples: 0,
	}
}

// IsFitted reports whether the config came from a corpus fit.
func (c CalibrationConfig) IsFitted() bool {
	return c.FittedOn != "" && c.FittedOn != NotFitted
}

// Validate enforces n_samples >= 2 for fitted configs.
func (c CalibrationConfig) Validate() error {
	if c.IsFitted() && c.NSamples < 2 {
		return fmt.Errorf("calibration fitted on %q has n_samples=%d, need at least 2", c.FittedOn, c.NSamples)
	}
	return nil
}
