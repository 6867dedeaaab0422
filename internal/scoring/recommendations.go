package scoring

import (
	"fmt"

	"github.com/Virrpe/onbrd/internal/models"
)

// Recommendation thresholds. Independent of the breakpoints in subscores.go.
const (
	recMaxSteps           = 3
	recMaxSentenceLength  = 15.0
	recMaxPassiveRatio    = 10.0
	recMaxJargonDensity   = 5.0
	recMinTrustMarkers    = 3
	recMaxSignupSeconds   = 60.0
	recHighPriorityFields = 6
)

// Recommend derives recommendations from h in generation order:
// CTA, steps, copy (sentence length), copy (passive/jargon), trust, speed.
func Recommend(h *models.Heuristics) []models.Recommendation {
	var recs []models.Recommendation

	if !h.CTAAboveFold.Detected {
		recs = append(recs, models.Recommendation{
			Heuristic:   models.HeuristicCTAAboveFold,
			Priority:    models.PriorityHigh,
			Description: "No primary call to action is visible above the fold.",
			Fix:         "Place a visible, enabled signup button in the first screen of the page.",
		})
	}

	if h.StepsCount.Total > recMaxSteps {
		priority := models.PriorityMedium
		if h.StepsCount.Total >= 6 {
			priority = models.PriorityHigh
		}
		recs = append(recs, models.Recommendation{
			Heuristic:   models.HeuristicStepsCount,
			Priority:    priority,
			Description: fmt.Sprintf("Signup takes %d steps.", h.StepsCount.Total),
			Fix:         fmt.Sprintf("Merge or defer steps to reach %d or fewer.", recMaxSteps),
		})
	}

	if h.CopyClarity.AvgSentenceLength > recMaxSentenceLength {
		recs = append(recs, models.Recommendation{
			Heuristic:   models.HeuristicCopyClarity,
			Priority:    models.PriorityMedium,
			Description: fmt.Sprintf("Average sentence length is %.1f words.", h.CopyClarity.AvgSentenceLength),
			Fix:         fmt.Sprintf("Shorten sentences to %.0f words or fewer.", recMaxSentenceLength),
		})
	}

	if h.CopyClarity.PassiveVoiceRatio > recMaxPassiveRatio || h.CopyClarity.JargonDensity > recMaxJargonDensity {
		recs = append(recs, models.Recommendation{
			Heuristic: models.HeuristicCopyClarity,
			Priority:  models.PriorityLow,
			Description: fmt.Sprintf("Passive voice %.1f%%, jargon density %.1f%%.",
				h.CopyClarity.PassiveVoiceRatio, h.CopyClarity.JargonDensity),
			Fix: "Use active voice and replace technical terms with plain words.",
		})
	}

	if h.TrustMarkers.Total < recMinTrustMarkers {
		priority := models.PriorityMedium
		if h.TrustMarkers.Total == 0 {
			priority = models.PriorityHigh
		}
		recs = append(recs, models.Recommendation{
			Heuristic:   models.HeuristicTrustMarkers,
			Priority:    priority,
			Description: fmt.Sprintf("Only %d trust marker(s) found.", h.TrustMarkers.Total),
			Fix:         "Add testimonials, security badges or customer counts near the signup form.",
		})
	}

	if h.SignupSpeed.EstimatedSeconds > recMaxSignupSeconds {
		priority := models.PriorityMedium
		if h.SignupSpeed.RequiredFields >= recHighPriorityFields {
			priority = models.PriorityHigh
		}
		recs = append(recs, models.Recommendation{
			Heuristic: models.HeuristicSignupSpeed,
			Priority:  priority,
			Description: fmt.Sprintf("Signup is estimated at %.0f seconds across %d required field(s).",
				h.SignupSpeed.EstimatedSeconds, h.SignupSpeed.RequiredFields),
			Fix: "Remove optional fields and defer non-essential questions until after signup.",
		})
	}

	return recs
}
