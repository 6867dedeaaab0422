package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"

	"github.com/Virrpe/onbrd/internal/benchmark"
	"github.com/Virrpe/onbrd/internal/dataset"
	"github.com/Virrpe/onbrd/internal/extract"
	"github.com/Virrpe/onbrd/internal/models"
	"github.com/Virrpe/onbrd/internal/reporting"
	"github.com/Virrpe/onbrd/internal/validation"
)

type scoreFlags struct {
	weights     string
	calibration string
	foldHeight  int
	format      string
}

func newScoreCommand() *cobra.Command {
	flags := &scoreFlags{}

	cmd := &cobra.Command{
		Use:   "score <file>",
		Short: "Score one page",
		Long: `Score a single page and print its sub-scores, checks and recommendations.

The file may be an HTML snapshot (.html, .htm), a fixture (JSON or YAML with
heuristics, html or html_file) or a bare heuristics document keyed by
h_cta_above_fold, h_steps_count, h_copy_clarity, h_trust_markers and
h_signup_speed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.weights, "weights", "", "Weight table file or directory (default: built-in weights)")
	cmd.Flags().StringVar(&flags.calibration, "calibration", "", "Calibration file or directory")
	cmd.Flags().IntVar(&flags.foldHeight, "fold-height", extract.DefaultFoldHeight, "Viewport height in pixels for the above-the-fold check")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "table", "Output format: table or json")

	return cmd
}

// scoreOutput is the JSON form of a scored page.
type scoreOutput struct {
	File       string             `json:"file"`
	Heuristics *models.Heuristics `json:"heuristics"`
	Prediction *models.Prediction `json:"prediction"`
}

func runScore(cmd *cobra.Command, path string, flags *scoreFlags) error {
	if err := formatFlag(flags.format); err != nil {
		return err
	}
	cfg, err := loadProject(cmd)
	if err != nil {
		return err
	}
	scorer, err := loadScorer(pathFlag(cmd, "weights", flags.weights, cfg.Paths.Weights, cfg))
	if err != nil {
		return err
	}
	cal, err := loadCalibration(pathFlag(cmd, "calibration", flags.calibration, cfg.Paths.Calibration, cfg))
	if err != nil {
		return err
	}
	foldHeight := flags.foldHeight
	if !cmd.Flags().Changed("fold-height") && cfg.Extract.FoldHeight > 0 {
		foldHeight = cfg.Extract.FoldHeight
	}
	eval := benchmark.New(scorer, cal, benchmark.WithExtractor(extract.New(extract.WithFoldHeight(foldHeight))))

	f, err := readPage(path)
	if err != nil {
		return err
	}
	h, err := eval.Heuristics(cmd.Context(), f)
	if err != nil {
		return fmt.Errorf("scoring %s: %w", path, err)
	}
	pred, err := scorer.Predict(h, cal)
	if err != nil {
		return fmt.Errorf("scoring %s: %w", path, err)
	}

	if flags.format == "json" {
		return writeJSON(cmd, "", scoreOutput{File: path, Heuristics: h, Prediction: pred})
	}
	return printScore(cmd, path, pred, cal)
}

// readPage turns any accepted input file into a fixture so the evaluator
// can resolve its heuristics.
func readPage(path string) (*models.BenchmarkFixture, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".html" || ext == ".htm" {
		return &models.BenchmarkFixture{ID: filepath.Base(path), HTMLFile: path, SourcePath: path}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := validation.DecodeDocument(path, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected an object at the top level", path)
	}

	if isFixtureDocument(m) {
		f, err := dataset.Decode(doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if f.ID == "" {
			f.ID = filepath.Base(path)
		}
		if f.HTMLFile != "" && !filepath.IsAbs(f.HTMLFile) {
			f.HTMLFile = filepath.Join(filepath.Dir(path), f.HTMLFile)
		}
		f.SourcePath = path
		return f, nil
	}

	var h models.Heuristics
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &h,
		TagName:     "mapstructure",
		ErrorUnused: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("%s: decoding heuristics: %w", path, err)
	}
	return &models.BenchmarkFixture{ID: filepath.Base(path), Heuristics: &h, SourcePath: path}, nil
}

func isFixtureDocument(m map[string]any) bool {
	for _, k := range []string{"heuristics", "html", "html_file", "expected"} {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func printScore(cmd *cobra.Command, path string, pred *models.Prediction, cal models.CalibrationConfig) error {
	w := cmd.OutOrStdout()
	s := pred.Scores

	fmt.Fprintf(w, "%s\n\n", path)
	t := reporting.NewTable("HEURISTIC", "SCORE", "CHECK")
	for _, k := range models.AllHeuristics() {
		check := "✗"
		if pred.Checks[k] {
			check = "✓"
		}
		t.AddRow(string(k), fmt.Sprintf("%.1f", s.SubScores[k]), check)
	}
	if err := t.Render(w); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nOverall (raw):        %.1f\n", s.OverallRaw)
	calibrated := fmt.Sprintf("%.1f", s.OverallCalibrated)
	if !cal.IsFitted() {
		calibrated += " (calibration not fitted)"
	}
	fmt.Fprintf(w, "Overall (calibrated): %s  %s\n", calibrated, reporting.InterpretScore(s.OverallCalibrated))

	if len(pred.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, r := range pred.Recommendations {
			fmt.Fprintf(w, "  [%s] %s: %s\n", r.Priority, r.Heuristic, r.Description)
			if r.Fix != "" {
				fmt.Fprintf(w, "         %s\n", r.Fix)
			}
		}
	}
	return nil
}
