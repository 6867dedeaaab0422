package models

// Priority ranks a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is an actionable fix derived from a page's heuristics.
type Recommendation struct {
	Heuristic   HeuristicKey `json:"heuristic"`
	Priority    Priority     `json:"priority"`
	Description string       `json:"description"`
	Fix         string       `json:"fix"`
}

// Scores holds the per-heuristic sub-scores and the overall score of one page.
type Scores struct {
	SubScores         map[HeuristicKey]float64 `json:"sub_scores"`
	OverallRaw        float64                  `json:"overall_raw"`
	OverallCalibrated float64                  `json:"overall_calibrated"`
}

// Prediction is everything the scoring pipeline says about one page.
type Prediction struct {
	Scores          Scores                `json:"scores"`
	Checks          map[HeuristicKey]bool `json:"checks"`
	Recommendations []Recommendation      `json:"recommendations,omitempty"`
}
