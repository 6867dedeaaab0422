package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Virrpe/onbrd/internal/benchmark"
	"github.com/Virrpe/onbrd/internal/models"
	"github.com/Virrpe/onbrd/internal/reporting"
)

func TestValidateCommand_BothControlsByDefault(t *testing.T) {
	configDir := t.TempDir()
	results := newResults(t, configDir)

	stdout, err := runCLI(t, configDir, "validate", results, "--bootstrap", "50", "--format", "json")
	require.NoError(t, err)

	var v models.ValidationReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &v))
	assert.Equal(t, results, v.Source)
	assert.Equal(t, int64(42), v.Seed)
	require.NotNil(t, v.Falsification)
	require.NotNil(t, v.Ablation)
	assert.Contains(t, v.Intervals, "macro_f1")

	names := make([]string, len(v.Gates))
	for i, g := range v.Gates {
		names[i] = g.Name
	}
	assert.ElementsMatch(t, []string{benchmark.GateMacroF1, benchmark.GateR2, benchmark.GateFalsification, benchmark.GateAblation}, names)
}

func TestValidateCommand_SingleControl(t *testing.T) {
	configDir := t.TempDir()
	results := newResults(t, configDir)

	stdout, err := runCLI(t, configDir, "validate-benchmarks", results, "--shuffle-labels", "--bootstrap", "0", "--format", "json")
	require.NoError(t, err)

	var v models.ValidationReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &v))
	require.NotNil(t, v.Falsification)
	assert.Nil(t, v.Ablation)
	assert.Empty(t, v.Intervals)
}

func TestValidateCommand_Deterministic(t *testing.T) {
	configDir := t.TempDir()
	results := newResults(t, configDir)
	dir := t.TempDir()

	for _, name := range []string{"a.json", "b.json"} {
		_, err := runCLI(t, configDir, "validate", results, "--seed", "11", "--bootstrap", "100", "--output", filepath.Join(dir, name))
		require.NoError(t, err)
	}
	a, err := os.ReadFile(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dir, "b.json"))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestValidateCommand_Strict(t *testing.T) {
	configDir := t.TempDir()
	results := newResults(t, configDir)
	// No macro-F1 can reach 1.5, so this gate always fails.
	writeFile(t, configDir, ".onbrd.yaml", "thresholds:\n  macro_f1: 1.5\n")

	stdout, err := runCLI(t, configDir, "validate", results, "--bootstrap", "0")
	require.NoError(t, err, "gate failures exit 0 without --strict")
	assert.Contains(t, stdout, "=== Interpretation ===")
	assert.Contains(t, stdout, "✗ macro_f1")

	junit := filepath.Join(t.TempDir(), "gates.xml")
	_, err = runCLI(t, configDir, "validate", results, "--bootstrap", "0", "--strict", "--junit", junit)
	require.Error(t, err)
	var gateErr *GateFailureError
	require.True(t, errors.As(err, &gateErr))

	data, err := os.ReadFile(junit)
	require.NoError(t, err)
	assert.Contains(t, string(data), `name="onbrd.validation"`)
	assert.Contains(t, string(data), "GateFailure")
}

func TestValidateCommand_LatestInDirectory(t *testing.T) {
	configDir := t.TempDir()
	src := newResults(t, configDir)
	dir := t.TempDir()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	writeFile(t, dir, "results-001.json", string(data))
	writeFile(t, dir, "results-002.json", string(data))

	stdout, err := runCLI(t, configDir, "validate", dir, "--bootstrap", "0", "--format", "json")
	require.NoError(t, err)

	var v models.ValidationReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &v))
	assert.Equal(t, filepath.Join(dir, "results-002.json"), v.Source)
}

func TestValidateCommand_Errors(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "validate", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	notReport := writeFile(t, t.TempDir(), "other.json", `{"name": "x"}`)
	_, err = runCLI(t, t.TempDir(), "validate", notReport)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing run_id")

	_, err = runCLI(t, t.TempDir(), "validate", notReport, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestValidateCommand_Summaries(t *testing.T) {
	configDir := t.TempDir()
	results := newResults(t, configDir)
	dir := t.TempDir()
	md := filepath.Join(dir, "validation.md")
	prom := filepath.Join(dir, "validation.prom")

	_, err := runCLI(t, configDir, "validate", results, "--bootstrap", "0", "--markdown", md, "--metrics-file", prom)
	require.NoError(t, err)

	mdData, err := os.ReadFile(md)
	require.NoError(t, err)
	assert.Contains(t, string(mdData), "# Validation")

	promData, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(promData), "onbrd_validation_passed")

	_, err = reporting.LoadBenchmarkReport(results)
	require.NoError(t, err, "validate must not modify its input")
}
