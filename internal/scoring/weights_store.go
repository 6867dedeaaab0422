package scoring

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Virrpe/onbrd/internal/models"
	"github.com/Virrpe/onbrd/internal/validation"
)

// LoadWeights reads a weight table artifact. An empty path selects the
// built-in defaults.
func LoadWeights(path string) (models.WeightTable, error) {
	if path == "" {
		return models.DefaultWeights(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.WeightTable{}, fmt.Errorf("reading weights %s: %w", path, err)
	}
	if errs := validation.ValidateWeightsBytes(data); len(errs) > 0 {
		return models.WeightTable{}, fmt.Errorf("weights %s: %s", path, strings.Join(errs, "; "))
	}

	var w models.WeightTable
	if err := json.Unmarshal(data, &w); err != nil {
		return models.WeightTable{}, fmt.Errorf("parsing weights %s: %w", path, err)
	}
	if err := w.Validate(); err != nil {
		return models.WeightTable{}, fmt.Errorf("weights %s: %w", path, err)
	}
	slog.Debug("Loaded weights", "path", path, "version", w.Version)
	return w, nil
}

// SaveWeights writes w as indented JSON.
func SaveWeights(path string, w models.WeightTable) error {
	if err := w.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling weights: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing weights %s: %w", path, err)
	}
	return nil
}
