package reporting

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchmarkMarkdown(t *testing.T) {
	md := BenchmarkMarkdown(newBenchmarkReport())

	assert.True(t, strings.HasPrefix(md, "# Benchmark run\n"))
	assert.Contains(t, md, "| Corpus digest | `abcdef012345` |")
	assert.Contains(t, md, "| Weights | default-v1 |")
	assert.Contains(t, md, "| Calibration | not_fitted (a=1.0000, b=0.0000) |")
	assert.Contains(t, md, "| Fixtures | 3 scored, 1 skipped |")
	assert.Contains(t, md, "- Macro-F1: **1.0000**")
	assert.Contains(t, md, "| h_cta_above_fold | 1 | 1.0000 | 1.0000 | 1.0000 |")
	assert.Contains(t, md, "| alpha | saas | 80 | 80.00 | 85 |")
	assert.Contains(t, md, "| beta | saas | 40 | 40.00 | 30–50 |")
	assert.Contains(t, md, `| gamma\|pipe | saas | 60 | 60.00 | 1 checks |`)
	assert.Contains(t, md, "- `broken.yaml`: schema: /expected: missing")
	assert.NotContains(t, md, "\n| Category | ", "no category filter, no metadata row")

	r := newBenchmarkReport()
	r.Category = "saas"
	assert.Contains(t, BenchmarkMarkdown(r), "\n| Category | saas |\n")
}

func TestValidationMarkdown(t *testing.T) {
	md := ValidationMarkdown(newValidationReport(false))

	assert.True(t, strings.HasPrefix(md, "# Validation FAILED\n"))
	assert.Contains(t, md, "| ablation_r2_drop | 0.0700 | >= 0.2000 | failed |")
	assert.Contains(t, md, "| falsification | 7 | 0.7778 | 0.2100 | 0.4000 | true |")
	assert.Contains(t, md, "- `h_cta_above_fold` → `h_trust_markers`")

	// intervals are listed in name order
	assert.Less(t, strings.Index(md, "| macro_f1 | 0.7778 | 0.6000"), strings.Index(md, "| r2 | 0.6200"))
	assert.Contains(t, md, "| 95% |")

	assert.True(t, strings.HasPrefix(ValidationMarkdown(newValidationReport(true)), "# Validation PASSED\n"))
	v := newValidationReport(false)
	v.Falsification.Note = "nothing compared"
	assert.Contains(t, ValidationMarkdown(v), "\nfalsification: nothing compared.\n")
	assert.NotContains(t, md, "nothing compared")
}

func TestRenderHTML(t *testing.T) {
	page, err := RenderHTML("Run <1>", ValidationMarkdown(newValidationReport(true)))
	require.NoError(t, err)

	html := string(page)
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<title>Run &lt;1&gt;</title>")
	assert.Contains(t, html, "<h1>Validation PASSED</h1>")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<td>macro_f1</td>")
	assert.True(t, strings.HasSuffix(html, "</html>\n"))
}
