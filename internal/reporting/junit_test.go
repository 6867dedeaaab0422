package reporting

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Virrpe/onbrd/internal/guardrail"
	"github.com/Virrpe/onbrd/internal/models"
)

func TestGateSuite(t *testing.T) {
	suite := GateSuite(newValidationReport(false))

	assert.Equal(t, "onbrd.validation", suite.Name)
	assert.Equal(t, 2, suite.Tests)
	assert.Equal(t, 1, suite.Failures)
	require.Len(t, suite.TestCases, 2)

	assert.Nil(t, suite.TestCases[0].Failure)
	require.NotNil(t, suite.TestCases[1].Failure)
	assert.Equal(t, "GateFailure", suite.TestCases[1].Failure.Type)
	assert.Equal(t, "ablation_r2_drop: 0.0700 not >= 0.2000", suite.TestCases[1].Failure.Message)

	props := map[string]string{}
	for _, p := range suite.Properties {
		props[p.Name] = p.Value
	}
	assert.Equal(t, "7", props["seed"])
	assert.Equal(t, "0.7778", props["macro_f1"])
	assert.Equal(t, "0.6200", props["r2"])
}

func TestGuardrailSuite(t *testing.T) {
	stab := &guardrail.StabilityReport{
		Runs:      3,
		MaxStdDev: 1,
		Fixtures: []guardrail.FixtureStability{
			{FixtureID: "steady", Scores: []float64{70, 70, 70}, Stable: true},
			{FixtureID: "drift", Scores: []float64{50, 52, 54}, StdDev: 1.633, Flipped: []models.HeuristicKey{models.HeuristicCTAAboveFold}},
			{FixtureID: "broken", Error: "run 1: boom"},
		},
		Violations: 2,
	}
	adv := &guardrail.AdversarialReport{
		Cases: []guardrail.CaseResult{
			{ID: "offscreen-cta", Passed: true},
			{ID: "disabled-decoy", Description: "decoy", Failures: []string{"a", "b"}},
		},
		Failed: 1,
	}

	suite := GuardrailSuite(stab, adv)
	assert.Equal(t, 5, suite.Tests)
	assert.Equal(t, 2, suite.Failures)
	assert.Equal(t, 1, suite.Errors)

	drift := suite.TestCases[1]
	require.NotNil(t, drift.Failure)
	assert.Equal(t, "drift: std-dev 1.633 over 3 runs", drift.Failure.Message)
	assert.Equal(t, "flipped checks: h_cta_above_fold", drift.Failure.Body)

	require.NotNil(t, suite.TestCases[2].Error)
	assert.Equal(t, "run 1: boom", suite.TestCases[2].Error.Message)

	decoy := suite.TestCases[4]
	assert.Equal(t, "onbrd.adversarial", decoy.Classname)
	assert.Equal(t, "a\nb", decoy.Failure.Body)

	empty := GuardrailSuite(nil, nil)
	assert.Zero(t, empty.Tests)
}

func TestWriteJUnitXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gates.xml")
	suites := NewJUnitTestSuites(GateSuite(newValidationReport(false)), GuardrailSuite(nil, &guardrail.AdversarialReport{
		Cases: []guardrail.CaseResult{{ID: "x", Passed: true}},
	}))
	assert.Equal(t, 3, suites.Tests)
	assert.Equal(t, 1, suites.Failures)

	require.NoError(t, WriteJUnitXML(suites, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), xml.Header))
	assert.Contains(t, string(data), `<testsuite name="onbrd.validation" tests="2" failures="1" errors="0">`)

	var parsed JUnitTestSuites
	require.NoError(t, xml.Unmarshal(data, &parsed))
	require.Len(t, parsed.TestSuites, 2)
	assert.Equal(t, "ablation_r2_drop", parsed.TestSuites[0].TestCases[1].Name)
	assert.Equal(t, "GateFailure", parsed.TestSuites[0].TestCases[1].Failure.Type)
}

func TestWriteJUnitXML_BadPath(t *testing.T) {
	err := WriteJUnitXML(NewJUnitTestSuites(), filepath.Join(t.TempDir(), "missing", "out.xml"))
	require.Error(t, err)
}
