package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Virrpe/onbrd/internal/guardrail"
	"github.com/Virrpe/onbrd/internal/models"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite groups the gates or guardrail cases of one run.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one gate, fixture or adversarial case.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
}

// JUnitFailure represents a gate or expectation that was not met.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError represents a prediction that could not be made.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// GateSuite converts the acceptance gates of a validation run into a suite.
func GateSuite(v *models.ValidationReport) JUnitTestSuite {
	suite := JUnitTestSuite{
		Name:  "onbrd.validation",
		Tests: len(v.Gates),
		Properties: []JUnitProperty{
			{Name: "run_id", Value: v.RunID},
			{Name: "seed", Value: strconv.FormatInt(v.Seed, 10)},
			{Name: "source", Value: v.Source},
			{Name: "macro_f1", Value: fmt.Sprintf("%.4f", v.Evaluation.MacroF1)},
			{Name: "r2", Value: fmt.Sprintf("%.4f", v.Evaluation.Calibration.R2)},
		},
	}
	for _, g := range v.Gates {
		tc := JUnitTestCase{Name: g.Name, Classname: "onbrd.gates"}
		if !g.Passed() {
			suite.Failures++
			tc.Failure = &JUnitFailure{
				Message: fmt.Sprintf("%s: %.4f not %s %.4f", g.Name, g.Value, g.Comparator, g.Threshold),
				Type:    "GateFailure",
			}
		}
		suite.TestCases = append(suite.TestCases, tc)
	}
	return suite
}

// GuardrailSuite converts stability and adversarial outcomes into a suite.
// Either report may be nil.
func GuardrailSuite(stab *guardrail.StabilityReport, adv *guardrail.AdversarialReport) JUnitTestSuite {
	suite := JUnitTestSuite{Name: "onbrd.guardrails"}

	if stab != nil {
		suite.Properties = append(suite.Properties,
			JUnitProperty{Name: "runs", Value: strconv.Itoa(stab.Runs)},
			JUnitProperty{Name: "max_std_dev", Value: fmt.Sprintf("%.2f", stab.MaxStdDev)},
		)
		for _, fs := range stab.Fixtures {
			tc := JUnitTestCase{Name: fs.FixtureID, Classname: "onbrd.stability"}
			switch {
			case fs.Error != "":
				suite.Errors++
				tc.Error = &JUnitError{Message: fs.Error, Type: "PredictionError"}
			case !fs.Stable:
				suite.Failures++
				tc.Failure = &JUnitFailure{
					Message: fmt.Sprintf("%s: std-dev %.3f over %d runs", fs.FixtureID, fs.StdDev, len(fs.Scores)),
					Type:    "StabilityViolation",
					Body:    flippedBody(fs.Flipped),
				}
			}
			suite.TestCases = append(suite.TestCases, tc)
		}
	}

	if adv != nil {
		for _, c := range adv.Cases {
			tc := JUnitTestCase{Name: c.ID, Classname: "onbrd.adversarial"}
			if !c.Passed {
				suite.Failures++
				tc.Failure = &JUnitFailure{
					Message: c.Description,
					Type:    "AdversarialRegression",
					Body:    strings.Join(c.Failures, "\n"),
				}
			}
			suite.TestCases = append(suite.TestCases, tc)
		}
	}

	suite.Tests = len(suite.TestCases)
	return suite
}

func flippedBody(keys []models.HeuristicKey) string {
	if len(keys) == 0 {
		return ""
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return "flipped checks: " + strings.Join(parts, ", ")
}

// NewJUnitTestSuites wraps suites and totals their counts.
func NewJUnitTestSuites(suites ...JUnitTestSuite) *JUnitTestSuites {
	out := &JUnitTestSuites{TestSuites: suites}
	for _, s := range suites {
		out.Tests += s.Tests
		out.Failures += s.Failures
		out.Errors += s.Errors
	}
	return out
}

// WriteJUnitXML writes JUnit XML to the specified file path.
func WriteJUnitXML(suites *JUnitTestSuites, path string) error {
	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	output = append(output, '\n')
	return os.WriteFile(path, output, 0644)
}
