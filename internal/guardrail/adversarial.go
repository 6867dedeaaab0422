package guardrail

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Virrpe/onbrd/internal/models"
)

//go:embed adversarial
var adversarialFS embed.FS

const manifestPath = "adversarial/manifest.yaml"

// HeuristicExtractor turns an HTML document into heuristics.
type HeuristicExtractor interface {
	ExtractString(ctx context.Context, doc string) (*models.Heuristics, error)
}

// PageScorer turns heuristics into sub-scores.
type PageScorer interface {
	Score(h *models.Heuristics) (*models.Scores, []models.Recommendation, error)
}

// Expectation bounds what the extractor may report for an adversarial page.
// Nil fields are not checked.
type Expectation struct {
	CTADetected        *bool    `yaml:"cta_detected"`
	MaxTestimonials    *int     `yaml:"max_testimonials"`
	MaxSecurityBadges  *int     `yaml:"max_security_badges"`
	MaxTrustTotal      *int     `yaml:"max_trust_total"`
	MaxJargonDensity   *float64 `yaml:"max_jargon_density"`
	CTAElementExcludes []string `yaml:"cta_element_excludes"`
}

// AdversarialCase is one page of the adversarial set.
type AdversarialCase struct {
	ID          string      `yaml:"id"`
	Description string      `yaml:"description"`
	File        string      `yaml:"file"`
	Expect      Expectation `yaml:"expect"`
}

type adversarialManifest struct {
	Cases []AdversarialCase `yaml:"cases"`
}

// CaseResult is the outcome of one adversarial case.
type CaseResult struct {
	ID          string             `json:"id"`
	Description string             `json:"description"`
	Passed      bool               `json:"passed"`
	Failures    []string           `json:"failures,omitempty"`
	Heuristics  *models.Heuristics `json:"heuristics,omitempty"`
	OverallRaw  float64            `json:"overall_raw"`
}

// AdversarialReport is the outcome of RunAdversarial.
type AdversarialReport struct {
	Cases  []CaseResult `json:"cases"`
	Failed int          `json:"failed"`
}

// Passed reports whether every case met its expectations.
func (r *AdversarialReport) Passed() bool {
	return r.Failed == 0
}

// AdversarialCases returns the embedded adversarial set in manifest order.
func AdversarialCases() ([]AdversarialCase, error) {
	return loadManifest(adversarialFS, manifestPath)
}

func loadManifest(fsys fs.FS, name string) ([]AdversarialCase, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading adversarial manifest: %w", err)
	}
	var m adversarialManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing adversarial manifest: %w", err)
	}
	seen := make(map[string]bool, len(m.Cases))
	for _, c := range m.Cases {
		if c.ID == "" || c.File == "" {
			return nil, fmt.Errorf("adversarial case %q: id and file are required", c.ID)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("duplicate adversarial case id %q", c.ID)
		}
		seen[c.ID] = true
	}
	return m.Cases, nil
}

// RunAdversarial extracts and scores every embedded adversarial page and
// compares the heuristics with the case's expectations.
func RunAdversarial(ctx context.Context, extractor HeuristicExtractor, scorer PageScorer) (*AdversarialReport, error) {
	cases, err := AdversarialCases()
	if err != nil {
		return nil, err
	}
	return runCases(ctx, adversarialFS, path.Dir(manifestPath), cases, extractor, scorer)
}

func runCases(ctx context.Context, fsys fs.FS, dir string, cases []AdversarialCase, extractor HeuristicExtractor, scorer PageScorer) (*AdversarialReport, error) {
	report := &AdversarialReport{Cases: make([]CaseResult, 0, len(cases))}
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := fs.ReadFile(fsys, path.Join(dir, c.File))
		if err != nil {
			return nil, fmt.Errorf("reading adversarial page %s: %w", c.File, err)
		}

		res := CaseResult{ID: c.ID, Description: c.Description}
		h, err := extractor.ExtractString(ctx, string(doc))
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", c.ID, err)
		}
		res.Heuristics = h

		scores, _, err := scorer.Score(h)
		if err != nil {
			res.Failures = append(res.Failures, fmt.Sprintf("scoring failed: %v", err))
		} else {
			res.OverallRaw = scores.OverallRaw
		}
		res.Failures = append(res.Failures, c.Expect.violations(h)...)
		res.Passed = len(res.Failures) == 0
		if !res.Passed {
			report.Failed++
			slog.Warn("Adversarial case regressed", "case", c.ID, "failures", res.Failures)
		}
		report.Cases = append(report.Cases, res)
	}
	return report, nil
}

func (e Expectation) violations(h *models.Heuristics) []string {
	var out []string
	if e.CTADetected != nil || len(e.CTAElementExcludes) > 0 {
		if h.CTAAboveFold == nil {
			return append(out, "cta_above_fold section missing")
		}
	}
	if e.CTADetected != nil && h.CTAAboveFold.Detected != *e.CTADetected {
		out = append(out, fmt.Sprintf("cta_detected = %t, want %t (element %q)", h.CTAAboveFold.Detected, *e.CTADetected, h.CTAAboveFold.Element))
	}
	for _, s := range e.CTAElementExcludes {
		if h.CTAAboveFold.Element != "" && strings.Contains(h.CTAAboveFold.Element, s) {
			out = append(out, fmt.Sprintf("cta element %q contains %q", h.CTAAboveFold.Element, s))
		}
	}

	if e.MaxTestimonials != nil || e.MaxSecurityBadges != nil || e.MaxTrustTotal != nil {
		if h.TrustMarkers == nil {
			return append(out, "trust_markers section missing")
		}
		out = appendOverMax(out, "testimonials", h.TrustMarkers.Testimonials, e.MaxTestimonials)
		out = appendOverMax(out, "security_badges", h.TrustMarkers.SecurityBadges, e.MaxSecurityBadges)
		out = appendOverMax(out, "trust total", h.TrustMarkers.Total, e.MaxTrustTotal)
	}

	if e.MaxJargonDensity != nil {
		switch {
		case h.CopyClarity == nil:
			out = append(out, "copy_clarity section missing")
		case h.CopyClarity.JargonDensity > *e.MaxJargonDensity:
			out = append(out, fmt.Sprintf("jargon_density = %.2f, max %.2f", h.CopyClarity.JargonDensity, *e.MaxJargonDensity))
		}
	}
	return out
}

func appendOverMax(out []string, name string, got int, limit *int) []string {
	if limit != nil && got > *limit {
		out = append(out, fmt.Sprintf("%s = %d, max %d", name, got, *limit))
	}
	return out
}
