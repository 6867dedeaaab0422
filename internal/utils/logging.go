package utils

import (
	"context"
	"log/slog"

	"github.com/Virrpe/onbrd/internal/models"
)

// HeuristicsToSlog logs the extracted heuristics of one page at debug level.
func HeuristicsToSlog(fixtureID string, h *models.Heuristics) {
	if h == nil || !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	attrs := []any{
		"fixture", fixtureID,
	}

	attrs = addIf(attrs, "cta", h.CTAAboveFold)
	attrs = addIf(attrs, "steps", h.StepsCount)
	attrs = addIf(attrs, "copy", h.CopyClarity)
	attrs = addIf(attrs, "trust", h.TrustMarkers)
	attrs = addIf(attrs, "speed", h.SignupSpeed)

	slog.Debug("Heuristics extracted", attrs...)
}

func addIf[T any](attrs []any, name string, v *T) []any {
	if v != nil {
		attrs = append(attrs, name)
		attrs = append(attrs, *v)
	}

	return attrs
}
