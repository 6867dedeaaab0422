package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Virrpe/onbrd/internal/models"
)

func bestCase() *models.Heuristics {
	return &models.Heuristics{
		CTAAboveFold: &models.CTAAboveFold{Detected: true, PositionPx: 320, Element: "button"},
		StepsCount:   &models.StepsCount{Total: 2, Forms: 1, Screens: 2},
		CopyClarity:  &models.CopyClarity{AvgSentenceLength: 10, PassiveVoiceRatio: 5, JargonDensity: 1},
		TrustMarkers: &models.TrustMarkers{Testimonials: 1, SecurityBadges: 1, SocialProof: 1, Total: 3},
		SignupSpeed:  &models.SignupSpeed{RequiredFields: 2, TotalFields: 2, EstimatedSeconds: 20},
	}
}

func worstCase() *models.Heuristics {
	return &models.Heuristics{
		CTAAboveFold: &models.CTAAboveFold{},
		StepsCount:   &models.StepsCount{Total: 12},
		CopyClarity:  &models.CopyClarity{AvgSentenceLength: 60, PassiveVoiceRatio: 80, JargonDensity: 40},
		TrustMarkers: &models.TrustMarkers{},
		SignupSpeed:  &models.SignupSpeed{RequiredFields: 14, TotalFields: 20, EstimatedSeconds: 400},
	}
}

func newScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := New(models.DefaultWeights())
	require.NoError(t, err)
	return s
}

func TestNew_RejectsInvalidWeights(t *testing.T) {
	w := models.DefaultWeights()
	w.CTAAboveFold = 0.9
	_, err := New(w)
	require.ErrorContains(t, err, "invalid weight table")
}

func TestScore_EndToEndBestCase(t *testing.T) {
	scores, recs, err := newScorer(t).Score(bestCase())
	require.NoError(t, err)
	assert.Equal(t, 100.0, scores.OverallRaw)
	for _, k := range models.AllHeuristics() {
		assert.Equal(t, 100.0, scores.SubScores[k], "sub-score %s", k)
	}
	assert.Empty(t, recs)
}

func TestScore_MissingSectionFailsFast(t *testing.T) {
	h := bestCase()
	h.TrustMarkers = nil
	_, _, err := newScorer(t).Score(h)
	require.ErrorIs(t, err, ErrMissingSection)
	assert.Contains(t, err.Error(), "h_trust_markers")

	_, _, err = newScorer(t).Score(nil)
	require.ErrorIs(t, err, ErrMissingSection)
}

func TestSubScores_Mapping(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h *models.Heuristics)
		key    models.HeuristicKey
		want   float64
	}{
		{"cta missing", func(h *models.Heuristics) { h.CTAAboveFold.Detected = false }, models.HeuristicCTAAboveFold, 0},
		{"steps 3", func(h *models.Heuristics) { h.StepsCount.Total = 3 }, models.HeuristicStepsCount, 100},
		{"steps 4", func(h *models.Heuristics) { h.StepsCount.Total = 4 }, models.HeuristicStepsCount, 80},
		{"steps 5", func(h *models.Heuristics) { h.StepsCount.Total = 5 }, models.HeuristicStepsCount, 80},
		{"steps 6", func(h *models.Heuristics) { h.StepsCount.Total = 6 }, models.HeuristicStepsCount, 60},
		{"steps 7", func(h *models.Heuristics) { h.StepsCount.Total = 7 }, models.HeuristicStepsCount, 60},
		{"steps 8", func(h *models.Heuristics) { h.StepsCount.Total = 8 }, models.HeuristicStepsCount, 40},
		{"sentence 20", func(h *models.Heuristics) { h.CopyClarity.AvgSentenceLength = 20 }, models.HeuristicCopyClarity, 90},
		{"sentence capped", func(h *models.Heuristics) { h.CopyClarity.AvgSentenceLength = 100 }, models.HeuristicCopyClarity, 50},
		{"passive 15", func(h *models.Heuristics) { h.CopyClarity.PassiveVoiceRatio = 15 }, models.HeuristicCopyClarity, 85},
		{"passive capped", func(h *models.Heuristics) { h.CopyClarity.PassiveVoiceRatio = 90 }, models.HeuristicCopyClarity, 70},
		{"jargon 7", func(h *models.Heuristics) { h.CopyClarity.JargonDensity = 7 }, models.HeuristicCopyClarity, 92},
		{"jargon capped", func(h *models.Heuristics) { h.CopyClarity.JargonDensity = 50 }, models.HeuristicCopyClarity, 80},
		{"copy all capped", func(h *models.Heuristics) {
			h.CopyClarity = &models.CopyClarity{AvgSentenceLength: 99, PassiveVoiceRatio: 99, JargonDensity: 99}
		}, models.HeuristicCopyClarity, 0},
		{"trust 2", func(h *models.Heuristics) { h.TrustMarkers.Total = 2 }, models.HeuristicTrustMarkers, 80},
		{"trust 1", func(h *models.Heuristics) { h.TrustMarkers.Total = 1 }, models.HeuristicTrustMarkers, 60},
		{"trust 0", func(h *models.Heuristics) { h.TrustMarkers.Total = 0 }, models.HeuristicTrustMarkers, 40},
		{"speed 30", func(h *models.Heuristics) { h.SignupSpeed.EstimatedSeconds = 30 }, models.HeuristicSignupSpeed, 80},
		{"speed 60", func(h *models.Heuristics) { h.SignupSpeed.EstimatedSeconds = 60 }, models.HeuristicSignupSpeed, 60},
		{"speed 119", func(h *models.Heuristics) { h.SignupSpeed.EstimatedSeconds = 119 }, models.HeuristicSignupSpeed, 60},
		{"speed 120", func(h *models.Heuristics) { h.SignupSpeed.EstimatedSeconds = 120 }, models.HeuristicSignupSpeed, 40},
		{"speed unknown", func(h *models.Heuristics) { h.SignupSpeed.EstimatedSeconds = 0 }, models.HeuristicSignupSpeed, 40},
		{"speed negative", func(h *models.Heuristics) { h.SignupSpeed.EstimatedSeconds = -5 }, models.HeuristicSignupSpeed, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := bestCase()
			tt.mutate(h)
			assert.InDelta(t, tt.want, SubScores(h)[tt.key], 1e-9)
		})
	}
}

func TestScore_BoundsHoldForExtremes(t *testing.T) {
	inputs := []*models.Heuristics{bestCase(), worstCase()}
	for i := 0; i <= 20; i++ {
		h := worstCase()
		h.StepsCount.Total = i
		h.CopyClarity.AvgSentenceLength = float64(i * 5)
		h.TrustMarkers.Total = i % 5
		h.SignupSpeed.EstimatedSeconds = float64(i*15 - 30)
		h.CTAAboveFold.Detected = i%2 == 0
		inputs = append(inputs, h)
	}

	weights := []models.WeightTable{
		models.DefaultWeights(),
		{Version: "cta-only", CTAAboveFold: 1},
		{Version: "speed-only", SignupSpeed: 1},
	}
	for _, w := range weights {
		s, err := New(w)
		require.NoError(t, err)
		for _, h := range inputs {
			scores, _, err := s.Score(h)
			require.NoError(t, err)
			require.GreaterOrEqual(t, scores.OverallRaw, 0.0)
			require.LessOrEqual(t, scores.OverallRaw, 100.0)
			for k, v := range scores.SubScores {
				require.GreaterOrEqual(t, v, 0.0, "%s", k)
				require.LessOrEqual(t, v, 100.0, "%s", k)
			}
		}
	}
}

func TestScore_Rounding(t *testing.T) {
	// 0.25*0 + 0.20*80 + 0.20*100 + 0.20*60 + 0.15*60 = 57
	h := bestCase()
	h.CTAAboveFold.Detected = false
	h.StepsCount.Total = 4
	h.TrustMarkers.Total = 1
	h.SignupSpeed.EstimatedSeconds = 90
	scores, _, err := newScorer(t).Score(h)
	require.NoError(t, err)
	assert.Equal(t, 57.0, scores.OverallRaw)

	// 0.5*100 + 0.5*99 = 99.5 rounds half away from zero.
	w := models.WeightTable{Version: "half", CTAAboveFold: 0.5, CopyClarity: 0.5}
	s, err := New(w)
	require.NoError(t, err)
	h = bestCase()
	h.CopyClarity.AvgSentenceLength = 15.5
	scores, _, err = s.Score(h)
	require.NoError(t, err)
	assert.Equal(t, 100.0, scores.OverallRaw)

	h.CTAAboveFold.Detected = false
	scores, _, err = s.Score(h)
	require.NoError(t, err)
	assert.Equal(t, 50.0, scores.OverallRaw)
}

func TestScore_WeightsDoNotChangeSubScores(t *testing.T) {
	h := worstCase()
	a, _, err := newScorer(t).Score(h)
	require.NoError(t, err)

	s, err := New(models.WeightTable{Version: "flat", CTAAboveFold: 0.2, StepsCount: 0.2, CopyClarity: 0.2, TrustMarkers: 0.2, SignupSpeed: 0.2})
	require.NoError(t, err)
	b, _, err := s.Score(h)
	require.NoError(t, err)

	assert.Equal(t, a.SubScores, b.SubScores)
}

func TestPredict_CalibratesAndDerivesChecks(t *testing.T) {
	h := bestCase()
	h.StepsCount.Total = 9   // 40, fails
	h.TrustMarkers.Total = 1 // 60, passes
	h.SignupSpeed.EstimatedSeconds = 45
	cal := models.CalibrationConfig{A: 0.5, B: 10, Version: "v1", FittedOn: "c", NSamples: 10}

	p, err := newScorer(t).Predict(h, cal)
	require.NoError(t, err)

	// 25 + 8 + 20 + 12 + 12 = 77
	assert.Equal(t, 77.0, p.Scores.OverallRaw)
	assert.InDelta(t, 48.5, p.Scores.OverallCalibrated, 1e-9)
	assert.Equal(t, map[models.HeuristicKey]bool{
		models.HeuristicCTAAboveFold: true,
		models.HeuristicStepsCount:   false,
		models.HeuristicCopyClarity:  true,
		models.HeuristicTrustMarkers: true,
		models.HeuristicSignupSpeed:  true,
	}, p.Checks)
}

// -----------------------------------------------------------------------
// Recommendations
// -----------------------------------------------------------------------

func TestRecommend_GenerationOrder(t *testing.T) {
	recs := Recommend(worstCase())
	require.Len(t, recs, 6)
	got := make([]models.HeuristicKey, len(recs))
	for i, r := range recs {
		got[i] = r.Heuristic
	}
	assert.Equal(t, []models.HeuristicKey{
		models.HeuristicCTAAboveFold,
		models.HeuristicStepsCount,
		models.HeuristicCopyClarity,
		models.HeuristicCopyClarity,
		models.HeuristicTrustMarkers,
		models.HeuristicSignupSpeed,
	}, got)
	assert.Equal(t, models.PriorityHigh, recs[0].Priority)
	assert.Equal(t, models.PriorityLow, recs[3].Priority)
}

func TestRecommend_Thresholds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h *models.Heuristics)
		want   []models.HeuristicKey
	}{
		{"at thresholds", func(h *models.Heuristics) {
			h.StepsCount.Total = 3
			h.CopyClarity = &models.CopyClarity{AvgSentenceLength: 15, PassiveVoiceRatio: 10, JargonDensity: 5}
			h.SignupSpeed.EstimatedSeconds = 60
		}, nil},
		{"jargon only", func(h *models.Heuristics) { h.CopyClarity.JargonDensity = 5.5 }, []models.HeuristicKey{models.HeuristicCopyClarity}},
		{"trust two", func(h *models.Heuristics) { h.TrustMarkers.Total = 2 }, []models.HeuristicKey{models.HeuristicTrustMarkers}},
		{"slow", func(h *models.Heuristics) { h.SignupSpeed.EstimatedSeconds = 61 }, []models.HeuristicKey{models.HeuristicSignupSpeed}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := bestCase()
			tt.mutate(h)
			var got []models.HeuristicKey
			for _, r := range Recommend(h) {
				got = append(got, r.Heuristic)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChecks_PassThreshold(t *testing.T) {
	sub := map[models.HeuristicKey]float64{
		models.HeuristicCTAAboveFold: CheckPassThreshold,
		models.HeuristicStepsCount:   CheckPassThreshold - 0.01,
		models.HeuristicCopyClarity:  50,
		models.HeuristicTrustMarkers: 100,
		models.HeuristicSignupSpeed:  0,
	}
	checks := Checks(sub)

	assert.Equal(t, 60.0, CheckPassThreshold)
	assert.True(t, checks[models.HeuristicCTAAboveFold])
	assert.False(t, checks[models.HeuristicStepsCount])
	assert.False(t, checks[models.HeuristicCopyClarity], "50 is below the pass threshold")
	assert.True(t, checks[models.HeuristicTrustMarkers])
	assert.False(t, checks[models.HeuristicSignupSpeed])
}
