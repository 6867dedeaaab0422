package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/Virrpe/onbrd/internal/models"
)

// Load reads a calibration config from path. A missing file is not an error:
// the identity transform marked not_fitted is returned instead.
func Load(path string) (models.CalibrationConfig, error) {
	if path == "" {
		slog.Warn("No calibration configured, using identity")
		return models.IdentityCalibration(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Calibration file not found, using identity", "path", path)
		return models.IdentityCalibration(), nil
	}
	if err != nil {
		return models.CalibrationConfig{}, fmt.Errorf("reading calibration %s: %w", path, err)
	}

	var cfg models.CalibrationConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return models.CalibrationConfig{}, fmt.Errorf("parsing calibration %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return models.CalibrationConfig{}, fmt.Errorf("calibration %s: %w", path, err)
	}
	slog.Debug("Loaded calibration", "path", path, "version", cfg.Version, "a", cfg.A, "b", cfg.B)
	return cfg, nil
}

// Save writes cfg as indented JSON.
func Save(path string, cfg models.CalibrationConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling calibration: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing calibration %s: %w", path, err)
	}
	return nil
}
