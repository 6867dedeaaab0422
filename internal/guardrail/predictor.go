// Package guardrail checks that scoring is stable across repeated runs and
// that the extractor is not fooled by elements a visitor cannot see or use.
package guardrail

import (
	"context"

	"github.com/Virrpe/onbrd/internal/models"
)

//go:generate go tool mockgen -source predictor.go -destination mock_predictor_test.go -package guardrail

// Predictor produces a prediction for one fixture.
type Predictor interface {
	Predict(ctx context.Context, f *models.BenchmarkFixture) (*models.Prediction, error)
}
