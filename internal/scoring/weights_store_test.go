package scoring

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Virrpe/onbrd/internal/models"
)

func TestLoadWeights_Default(t *testing.T) {
	w, err := LoadWeights("")
	require.NoError(t, err)
	require.Equal(t, models.DefaultWeights(), w)
}

func TestSaveLoadWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.json")
	w := models.DefaultWeights()
	w.Version = "suggested-v1"
	w.Provenance = &models.WeightsProvenance{
		GeneratedAt:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Source:              "results.json",
		MacroF1:             0.8,
		R2:                  0.6,
		CandidatesEvaluated: 204,
	}
	require.NoError(t, SaveWeights(path, w))

	got, err := LoadWeights(path)
	require.NoError(t, err)
	require.Equal(t, w, got)
}

func TestLoadWeights_Rejects(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"not json", "{", "JSON parse error"},
		{"schema", `{"version":"x","h_cta_above_fold":0.5}`, "weights"},
		{"sum", `{"version":"x","h_cta_above_fold":0.5,"h_steps_count":0.5,"h_copy_clarity":0.5,"h_trust_markers":0,"h_signup_speed":0}`, "must sum to 1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadWeights(path)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}

	_, err := LoadWeights(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestSaveWeights_RejectsInvalid(t *testing.T) {
	w := models.DefaultWeights()
	w.SignupSpeed = 0.5
	require.Error(t, SaveWeights(filepath.Join(t.TempDir(), "w.json"), w))
}
