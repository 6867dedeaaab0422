package models

import "fmt"

// BenchmarkFixture is one labelled page of the benchmark corpus.
// Exactly one of Heuristics, HTML or HTMLFile provides the page.
type BenchmarkFixture struct {
	ID         string      `json:"id" yaml:"id" mapstructure:"id"`
	Name       string      `json:"name" yaml:"name" mapstructure:"name"`
	Category   string      `json:"category" yaml:"category" mapstructure:"category"`
	Heuristics *Heuristics `json:"heuristics,omitempty" yaml:"heuristics,omitempty" mapstructure:"heuristics"`
	HTML       string      `json:"html,omitempty" yaml:"html,omitempty" mapstructure:"html"`
	HTMLFile   string      `json:"html_file,omitempty" yaml:"html_file,omitempty" mapstructure:"html_file"`
	Expected   Expected    `json:"expected" yaml:"expected" mapstructure:"expected"`

	// SourcePath is the file the fixture was loaded from.
	SourcePath string `json:"-" yaml:"-" mapstructure:"-"`
}

// Expected holds the ground-truth labels of a fixture.
type Expected struct {
	ScoreNumeric *float64              `json:"score_numeric,omitempty" yaml:"score_numeric,omitempty" mapstructure:"score_numeric"`
	ScoreBand    []float64             `json:"score_band,omitempty" yaml:"score_band,omitempty" mapstructure:"score_band"`
	Checks       map[HeuristicKey]bool `json:"checks,omitempty" yaml:"checks,omitempty" mapstructure:"checks"`
}

// Band returns the [low, high] score band, if one is set.
func (e Expected) Band() (low, high float64, ok bool) {
	if len(e.ScoreBand) != 2 {
		return 0, 0, false
	}
	return e.ScoreBand[0], e.ScoreBand[1], true
}

// MidpointTarget derives the numeric target: the explicit score if present,
// otherwise the midpoint of the band.
func (e Expected) MidpointTarget() (float64, bool) {
	if e.ScoreNumeric != nil {
		return *e.ScoreNumeric, true
	}
	if lo, hi, ok := e.Band(); ok {
		return (lo + hi) / 2, true
	}
	return 0, false
}

// HasTarget reports whether a numeric target can be derived.
func (e Expected) HasTarget() bool {
	_, ok := e.MidpointTarget()
	return ok
}

// Validate checks the structural rules that the schema cannot express.
func (f *BenchmarkFixture) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("fixture has no id")
	}
	sources := 0
	if f.Heuristics != nil {
		sources++
	}
	if f.HTML != "" {
		sources++
	}
	if f.HTMLFile != "" {
		sources++
	}
	if sources != 1 {
		return fmt.Errorf("fixture %s: exactly one of heuristics, html or html_file is required, found %d", f.ID, sources)
	}
	if f.Heuristics != nil {
		if missing := f.Heuristics.MissingSections(); len(missing) > 0 {
			return fmt.Errorf("fixture %s: heuristics missing section %s", f.ID, missing[0])
		}
	}
	if lo, hi, ok := f.Expected.Band(); ok && lo > hi {
		return fmt.Errorf("fixture %s: score_band low %v exceeds high %v", f.ID, lo, hi)
	}
	if len(f.Expected.ScoreBand) != 0 && len(f.Expected.ScoreBand) != 2 {
		return fmt.Errorf("fixture %s: score_band must have exactly 2 values", f.ID)
	}
	if f.Expected.ScoreNumeric == nil && len(f.Expected.ScoreBand) == 0 && len(f.Expected.Checks) == 0 {
		return fmt.Errorf("fixture %s: expected block is empty", f.ID)
	}
	return nil
}
