package models

import "fmt"

// HeuristicKey names one of the five page signals. The same keys are used for
// sub-scores, boolean checks and the sections of a Heuristics record.
type HeuristicKey string

const (
	HeuristicCTAAboveFold HeuristicKey = "h_cta_above_fold"
	HeuristicStepsCount   HeuristicKey = "h_steps_count"
	HeuristicCopyClarity  HeuristicKey = "h_copy_clarity"
	HeuristicTrustMarkers HeuristicKey = "h_trust_markers"
	HeuristicSignupSpeed  HeuristicKey = "h_signup_speed"
)

// AllHeuristics returns the heuristic keys in canonical order.
func AllHeuristics() []HeuristicKey {
	return []HeuristicKey{
		HeuristicCTAAboveFold,
		HeuristicStepsCount,
		HeuristicCopyClarity,
		HeuristicTrustMarkers,
		HeuristicSignupSpeed,
	}
}

// ParseHeuristicKey converts a string into a known HeuristicKey.
func ParseHeuristicKey(s string) (HeuristicKey, error) {
	for _, k := range AllHeuristics() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown heuristic %q", s)
}

// Heuristics is the record produced by the extractor for one page.
// Every section is required; a nil section means the extractor broke its contract.
type Heuristics struct {
	CTAAboveFold *CTAAboveFold `json:"h_cta_above_fold" yaml:"h_cta_above_fold" mapstructure:"h_cta_above_fold"`
	StepsCount   *StepsCount   `json:"h_steps_count" yaml:"h_steps_count" mapstructure:"h_steps_count"`
	CopyClarity  *CopyClarity  `json:"h_copy_clarity" yaml:"h_copy_clarity" mapstructure:"h_copy_clarity"`
	TrustMarkers *TrustMarkers `json:"h_trust_markers" yaml:"h_trust_markers" mapstructure:"h_trust_markers"`
	SignupSpeed  *SignupSpeed  `json:"h_signup_speed" yaml:"h_signup_speed" mapstructure:"h_signup_speed"`
}

// CTAAboveFold describes the primary call to action.
type CTAAboveFold struct {
	Detected   bool   `json:"detected" yaml:"detected" mapstructure:"detected"`
	PositionPx int    `json:"position_px" yaml:"position_px" mapstructure:"position_px"`
	Element    string `json:"element,omitempty" yaml:"element,omitempty" mapstructure:"element"`
}

// StepsCount describes how many steps the signup flow takes.
type StepsCount struct {
	Total   int `json:"total" yaml:"total" mapstructure:"total"`
	Forms   int `json:"forms" yaml:"forms" mapstructure:"forms"`
	Screens int `json:"screens" yaml:"screens" mapstructure:"screens"`
}

// CopyClarity holds readability measurements. Ratios are percentages (0-100).
type CopyClarity struct {
	AvgSentenceLength float64 `json:"avg_sentence_length" yaml:"avg_sentence_length" mapstructure:"avg_sentence_length"`
	PassiveVoiceRatio float64 `json:"passive_voice_ratio" yaml:"passive_voice_ratio" mapstructure:"passive_voice_ratio"`
	JargonDensity     float64 `json:"jargon_density" yaml:"jargon_density" mapstructure:"jargon_density"`
}

// TrustMarkers counts trust signals by kind.
type TrustMarkers struct {
	Testimonials   int `json:"testimonials" yaml:"testimonials" mapstructure:"testimonials"`
	SecurityBadges int `json:"security_badges" yaml:"security_badges" mapstructure:"security_badges"`
	SocialProof    int `json:"social_proof" yaml:"social_proof" mapstructure:"social_proof"`
	Total          int `json:"total" yaml:"total" mapstructure:"total"`
}

// SignupSpeed estimates how long the signup form takes to complete.
type SignupSpeed struct {
	RequiredFields   int     `json:"required_fields" yaml:"required_fields" mapstructure:"required_fields"`
	OptionalFields   int     `json:"optional_fields" yaml:"optional_fields" mapstructure:"optional_fields"`
	TotalFields      int     `json:"total_fields" yaml:"total_fields" mapstructure:"total_fields"`
	EstimatedSeconds float64 `json:"estimated_seconds" yaml:"estimated_seconds" mapstructure:"estimated_seconds"`
}

// MissingSections returns the keys of nil sections, in canonical order.
func (h *Heuristics) MissingSections() []HeuristicKey {
	if h == nil {
		return AllHeuristics()
	}
	var missing []HeuristicKey
	if h.CTAAboveFold == nil {
		missing = append(missing, HeuristicCTAAboveFold)
	}
	if h.StepsCount == nil {
		missing = append(missing, HeuristicStepsCount)
	}
	if h.CopyClarity == nil {
		missing = append(missing, HeuristicCopyClarity)
	}
	if h.TrustMarkers == nil {
		missing = append(missing, HeuristicTrustMarkers)
	}
	if h.SignupSpeed == nil {
		missing = append(missing, HeuristicSignupSpeed)
	}
	return missing
}
