package scoring

import (
	"math"

	"github.com/Virrpe/onbrd/internal/models"
)

// SubScores maps each section of h to a score in [0,100]. h must be complete.
func SubScores(h *models.Heuristics) map[models.HeuristicKey]float64 {
	return map[models.HeuristicKey]float64{
		models.HeuristicCTAAboveFold: ctaScore(h.CTAAboveFold),
		models.HeuristicStepsCount:   stepsScore(h.StepsCount),
		models.HeuristicCopyClarity:  copyScore(h.CopyClarity),
		models.HeuristicTrustMarkers: trustScore(h.TrustMarkers),
		models.HeuristicSignupSpeed:  speedScore(h.SignupSpeed),
	}
}

func ctaScore(c *models.CTAAboveFold) float64 {
	if c.Detected {
		return 100
	}
	return 0
}

func stepsScore(s *models.StepsCount) float64 {
	switch {
	case s.Total <= 3:
		return 100
	case s.Total <= 5:
		return 80
	case s.Total <= 7:
		return 60
	default:
		return 40
	}
}

func copyScore(c *models.CopyClarity) float64 {
	score := 100.0
	if c.AvgSentenceLength > 15 {
		score -= math.Min(50, 2*(c.AvgSentenceLength-15))
	}
	if c.PassiveVoiceRatio > 10 {
		score -= math.Min(30, 3*(c.PassiveVoiceRatio-10))
	}
	if c.JargonDensity > 5 {
		score -= math.Min(20, 4*(c.JargonDensity-5))
	}
	return clamp(score, 0, 100)
}

func trustScore(t *models.TrustMarkers) float64 {
	switch {
	case t.Total >= 3:
		return 100
	case t.Total == 2:
		return 80
	case t.Total == 1:
		return 60
	default:
		return 40
	}
}

// Non-positive estimates mean the extractor could not time the form.
func speedScore(s *models.SignupSpeed) float64 {
	secs := s.EstimatedSeconds
	switch {
	case secs <= 0 || math.IsNaN(secs):
		return 40
	case secs < 30:
		return 100
	case secs < 60:
		return 80
	case secs < 120:
		return 60
	default:
		return 40
	}
}
