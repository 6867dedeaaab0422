package reporting

import (
	"bytes"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/Virrpe/onbrd/internal/models"
)

// BenchmarkMarkdown renders a benchmark run as a Markdown summary.
func BenchmarkMarkdown(r *models.BenchmarkReport) string {
	var b strings.Builder

	b.WriteString("# Benchmark run\n\n")
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Run ID | `%s` |\n", r.RunID)
	fmt.Fprintf(&b, "| Corpus digest | `%s` |\n", shortDigest(r.CorpusDigest))
	fmt.Fprintf(&b, "| Seed | %d |\n", r.Seed)
	if r.Category != "" {
		fmt.Fprintf(&b, "| Category | %s |\n", cell(r.Category))
	}
	fmt.Fprintf(&b, "| Perturbation | %s |\n", r.Perturbation)
	fmt.Fprintf(&b, "| Weights | %s |\n", cell(r.Weights.Version))
	fmt.Fprintf(&b, "| Calibration | %s (a=%.4f, b=%.4f) |\n", cell(r.Calibration.FittedOn), r.Calibration.A, r.Calibration.B)
	fmt.Fprintf(&b, "| Fixtures | %d scored, %d skipped |\n", len(r.Results), len(r.Skipped))

	if r.Evaluation != nil {
		b.WriteString("\n## Evaluation\n\n")
		writeEvaluation(&b, r.Evaluation)
	}

	if len(r.Results) > 0 {
		d := Distribution(r.Results)
		b.WriteString("\n## Score distribution\n\n")
		b.WriteString("| Mean | Std-dev | P10 | Median | P90 |\n|---|---|---|---|---|\n")
		fmt.Fprintf(&b, "| %.2f | %.2f | %.2f | %.2f | %.2f |\n", d.Mean, d.StdDev, d.P10, d.Median, d.P90)

		b.WriteString("\n## Fixtures\n\n")
		b.WriteString("| Fixture | Category | Raw | Calibrated | Expected |\n|---|---|---|---|---|\n")
		for _, res := range r.Results {
			fmt.Fprintf(&b, "| %s | %s | %.0f | %.2f | %s |\n",
				cell(res.FixtureID), cell(res.Category),
				res.Prediction.Scores.OverallRaw, res.Prediction.Scores.OverallCalibrated,
				expectedLabel(res.Expected))
		}
	}

	if len(r.Skipped) > 0 {
		b.WriteString("\n## Skipped\n\n")
		for _, s := range r.Skipped {
			id := s.FixtureID
			if id == "" {
				id = s.Source
			}
			fmt.Fprintf(&b, "- `%s`: %s\n", id, s.Reason)
		}
	}
	return b.String()
}

// ValidationMarkdown renders a validation run as a Markdown summary.
func ValidationMarkdown(v *models.ValidationReport) string {
	var b strings.Builder

	status := "PASSED"
	if !v.Passed {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "# Validation %s\n\n", status)
	fmt.Fprintf(&b, "Source: `%s`, run `%s`, seed %d.\n\n", v.Source, v.RunID, v.Seed)

	b.WriteString("## Gates\n\n")
	b.WriteString("| Gate | Value | Threshold | Status |\n|---|---|---|---|\n")
	for _, g := range v.Gates {
		fmt.Fprintf(&b, "| %s | %.4f | %s %.4f | %s |\n", g.Name, g.Value, g.Comparator, g.Threshold, g.Status)
	}

	b.WriteString("\n## Evaluation\n\n")
	writeEvaluation(&b, &v.Evaluation)

	if v.Falsification != nil || v.Ablation != nil {
		b.WriteString("\n## Controls\n\n")
		b.WriteString("| Control | Seed | Baseline | Value | Threshold | Passed |\n|---|---|---|---|---|---|\n")
		for _, c := range []*models.ControlResult{v.Falsification, v.Ablation} {
			if c == nil {
				continue
			}
			fmt.Fprintf(&b, "| %s | %d | %.4f | %.4f | %.4f | %t |\n", c.Name, c.Seed, c.Baseline, c.Value, c.Threshold, c.Passed)
		}
		for _, c := range []*models.ControlResult{v.Falsification, v.Ablation} {
			if c != nil && c.Note != "" {
				fmt.Fprintf(&b, "\n%s: %s.\n", c.Name, c.Note)
			}
		}
		if v.Falsification != nil && len(v.Falsification.Permutation) > 0 {
			b.WriteString("\nFalsification compared each prediction with another check's labels:\n\n")
			for _, k := range models.AllHeuristics() {
				if to, ok := v.Falsification.Permutation[k]; ok {
					fmt.Fprintf(&b, "- `%s` → `%s`\n", k, to)
				}
			}
		}
	}

	if len(v.Intervals) > 0 {
		names := make([]string, 0, len(v.Intervals))
		for name := range v.Intervals {
			names = append(names, name)
		}
		sort.Strings(names)

		b.WriteString("\n## Confidence intervals\n\n")
		b.WriteString("| Metric | Estimate | Lower | Upper | Level |\n|---|---|---|---|---|\n")
		for _, name := range names {
			ci := v.Intervals[name]
			fmt.Fprintf(&b, "| %s | %.4f | %.4f | %.4f | %.0f%% |\n", name, ci.Estimate, ci.Lower, ci.Upper, ci.ConfidenceLevel*100)
		}
	}
	return b.String()
}

func writeEvaluation(b *strings.Builder, e *models.EvaluationResult) {
	fmt.Fprintf(b, "- Macro-F1: **%.4f**\n", e.MacroF1)
	fmt.Fprintf(b, "- R²: **%.4f** (n=%d)\n", e.Calibration.R2, e.Calibration.N)
	if len(e.Checks) == 0 {
		return
	}
	b.WriteString("\n| Check | Support | Precision | Recall | F1 |\n|---|---|---|---|---|\n")
	for _, k := range models.AllHeuristics() {
		m, ok := e.Checks[k]
		if !ok {
			continue
		}
		fmt.Fprintf(b, "| %s | %d | %.4f | %.4f | %.4f |\n", k, m.Support, m.Precision, m.Recall, m.F1)
	}
}

func expectedLabel(e models.Expected) string {
	switch {
	case e.ScoreNumeric != nil:
		return fmt.Sprintf("%.0f", *e.ScoreNumeric)
	case len(e.ScoreBand) == 2:
		return fmt.Sprintf("%.0f–%.0f", e.ScoreBand[0], e.ScoreBand[1])
	case len(e.Checks) > 0:
		return fmt.Sprintf("%d checks", len(e.Checks))
	}
	return "—"
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

// cell escapes characters that would break a Markdown table row.
func cell(s string) string {
	if s == "" {
		return "—"
	}
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// RenderHTML converts a Markdown summary into a standalone HTML page.
func RenderHTML(title, md string) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(md), &body); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>%s</title>\n", html.EscapeString(title))
	out.WriteString("<style>table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:4px 8px}</style>\n")
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}
