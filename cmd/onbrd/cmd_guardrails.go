package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Virrpe/onbrd/internal/benchmark"
	"github.com/Virrpe/onbrd/internal/dataset"
	"github.com/Virrpe/onbrd/internal/extract"
	"github.com/Virrpe/onbrd/internal/guardrail"
	"github.com/Virrpe/onbrd/internal/models"
	"github.com/Virrpe/onbrd/internal/projectconfig"
	"github.com/Virrpe/onbrd/internal/reporting"
)

type guardrailFlags struct {
	runs            int
	delay           time.Duration
	maxStdDev       float64
	seed            int64
	category        string
	weights         string
	calibration     string
	skipStability   bool
	skipAdversarial bool
	format          string
	junit           string
}

// guardrailReport is the JSON form of a guardrail run.
type guardrailReport struct {
	Stability   *guardrail.StabilityReport   `json:"stability,omitempty"`
	Adversarial *guardrail.AdversarialReport `json:"adversarial,omitempty"`
	Passed      bool                         `json:"passed"`
}

func newGuardrailsCommand() *cobra.Command {
	flags := &guardrailFlags{}

	cmd := &cobra.Command{
		Use:     "guardrails [corpus]",
		Aliases: []string{"guardrail-runner"},
		Short:   "Run the stability and adversarial guardrails",
		Long: `Run two guardrails against the scorer.

Stability: every corpus fixture is scored --runs times with --delay between
runs. A fixture whose overall raw score spreads more than --max-std-dev, or
whose pass/fail checks flip between runs, is a violation.

Adversarial: built-in pages that hide or disable their calls to action and
trust markers must not be credited for them.

Exits 1 when either guardrail fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGuardrails(cmd, args, flags)
		},
	}

	cmd.Flags().IntVar(&flags.runs, "runs", guardrail.DefaultRuns, "Scoring runs per fixture (at least 2)")
	cmd.Flags().DurationVar(&flags.delay, "delay", guardrail.DefaultDelay, "Pause between runs")
	cmd.Flags().Float64Var(&flags.maxStdDev, "max-std-dev", guardrail.DefaultMaxStdDev, "Largest allowed std-dev of a fixture's overall raw score")
	cmd.Flags().Int64Var(&flags.seed, "seed", projectconfig.DefaultSeed, "Base seed")
	cmd.Flags().StringVar(&flags.category, "category", "", "Only check fixtures in this category")
	cmd.Flags().StringVar(&flags.weights, "weights", "", "Weight table file or directory (default: built-in weights)")
	cmd.Flags().StringVar(&flags.calibration, "calibration", "", "Calibration file or directory")
	cmd.Flags().BoolVar(&flags.skipStability, "skip-stability", false, "Do not run the stability check")
	cmd.Flags().BoolVar(&flags.skipAdversarial, "skip-adversarial", false, "Do not run the adversarial pages")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "table", "Output format: table or json")
	cmd.Flags().StringVar(&flags.junit, "junit", "", "Write guardrail results as JUnit XML to this file")

	return cmd
}

func runGuardrails(cmd *cobra.Command, args []string, flags *guardrailFlags) error {
	if err := formatFlag(flags.format); err != nil {
		return err
	}
	cfg, err := loadProject(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	scorer, err := loadScorer(pathFlag(cmd, "weights", flags.weights, cfg.Paths.Weights, cfg))
	if err != nil {
		return err
	}
	extractor := extract.New(extract.WithFoldHeight(cfg.Extract.FoldHeight))

	out := guardrailReport{}
	if !flags.skipStability {
		cal, err := loadCalibration(pathFlag(cmd, "calibration", flags.calibration, cfg.Paths.Calibration, cfg))
		if err != nil {
			return err
		}
		category := flags.category
		if !cmd.Flags().Changed("category") {
			category = cfg.Defaults.Category
		}
		corpus, err := dataset.Load(ctx, argOr(args, cfg.Paths.Corpus, cfg), dataset.WithCategory(category))
		if err != nil {
			return err
		}

		eval := benchmark.New(scorer, cal,
			benchmark.WithSeed(seedFlag(cmd, flags.seed, cfg)),
			benchmark.WithExtractor(extractor),
		)
		checker := guardrail.NewStabilityChecker(benchmark.NewFixturePredictor(eval), stabilityOptions(cmd, flags, cfg)...)
		out.Stability, err = checker.Check(ctx, corpus.Fixtures)
		if err != nil {
			return err
		}
	}
	if !flags.skipAdversarial {
		out.Adversarial, err = guardrail.RunAdversarial(ctx, extractor, scorer)
		if err != nil {
			return err
		}
	}
	out.Passed = (out.Stability == nil || out.Stability.Passed()) &&
		(out.Adversarial == nil || out.Adversarial.Passed())

	if flags.junit != "" {
		suites := reporting.NewJUnitTestSuites(reporting.GuardrailSuite(out.Stability, out.Adversarial))
		if err := reporting.WriteJUnitXML(suites, flags.junit); err != nil {
			return err
		}
	}

	if flags.format == "json" {
		if err := writeJSON(cmd, "", out); err != nil {
			return err
		}
	} else if err := printGuardrails(cmd, &out); err != nil {
		return err
	}

	if !out.Passed {
		return &GateFailureError{Message: "guardrails failed"}
	}
	return nil
}

func stabilityOptions(cmd *cobra.Command, flags *guardrailFlags, cfg *projectconfig.ProjectConfig) []guardrail.StabilityOption {
	runs, delay, maxStdDev := flags.runs, flags.delay, flags.maxStdDev
	if !cmd.Flags().Changed("runs") && cfg.Stability.Runs > 0 {
		runs = cfg.Stability.Runs
	}
	if !cmd.Flags().Changed("delay") && cfg.Stability.DelayMS != nil {
		delay = cfg.Stability.Delay()
	}
	if !cmd.Flags().Changed("max-std-dev") && cfg.Stability.MaxStdDev != nil {
		maxStdDev = *cfg.Stability.MaxStdDev
	}
	return []guardrail.StabilityOption{
		guardrail.WithRuns(runs),
		guardrail.WithDelay(delay),
		guardrail.WithMaxStdDev(maxStdDev),
	}
}

func printGuardrails(cmd *cobra.Command, r *guardrailReport) error {
	w := cmd.OutOrStdout()

	if s := r.Stability; s != nil {
		fmt.Fprintf(w, "Stability: %d fixtures, %d runs each, max std-dev %.2f\n", len(s.Fixtures), s.Runs, s.MaxStdDev)
		t := reporting.NewTable("FIXTURE", "STD-DEV", "STATUS", "DETAIL")
		for _, f := range s.Fixtures {
			status, detail := "ok", ""
			switch {
			case f.Error != "":
				status, detail = "error", f.Error
			case !f.Stable:
				status, detail = "unstable", flippedList(f.Flipped)
			}
			t.AddRow(f.FixtureID, fmt.Sprintf("%.3f", f.StdDev), status, detail)
		}
		if err := t.Render(w); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	if a := r.Adversarial; a != nil {
		fmt.Fprintf(w, "Adversarial: %d cases, %d failed\n", len(a.Cases), a.Failed)
		for _, c := range a.Cases {
			icon := "✓"
			if !c.Passed {
				icon = "✗"
			}
			fmt.Fprintf(w, "  %s %s\n", icon, c.ID)
			for _, f := range c.Failures {
				fmt.Fprintf(w, "      %s\n", f)
			}
		}
		fmt.Fprintln(w)
	}

	if r.Passed {
		fmt.Fprintln(w, "All guardrails passed.")
	} else {
		fmt.Fprintln(w, "Guardrails failed.")
	}
	return nil
}

func flippedList(keys []models.HeuristicKey) string {
	if len(keys) == 0 {
		return ""
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}
	return "flipped: " + strings.Join(names, ", ")
}
