package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Virrpe/onbrd/internal/benchmark"
	"github.com/Virrpe/onbrd/internal/projectconfig"
	"github.com/Virrpe/onbrd/internal/reporting"
	"github.com/Virrpe/onbrd/internal/statistics"
)

type validateFlags struct {
	shuffleLabels bool
	bandMidpoint  bool
	seed          int64
	strict        bool
	bootstrap     int
	confidence    float64
	format        string
	output        string
	markdown      string
	html          string
	junit         string
	metricsFile   string
}

func newValidateCommand() *cobra.Command {
	flags := &validateFlags{}

	cmd := &cobra.Command{
		Use:     "validate [results]",
		Aliases: []string{"validate-benchmarks"},
		Short:   "Validate a benchmark report against the acceptance gates",
		Long: `Evaluate a benchmark report and apply the acceptance gates.

--shuffle-labels runs the falsification control: expected check labels are
deranged across heuristics, and macro-F1 must collapse. --band-midpoint runs
the ablation control: numeric targets are removed, and R² must drop. With
neither flag both controls run.

The results argument may be a report file or a directory, in which case the
latest results-*.json is used. It defaults to paths.results from .onbrd.yaml.
Failed gates exit 1 only with --strict.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.shuffleLabels, "shuffle-labels", false, "Run the shuffled-label falsification control")
	cmd.Flags().BoolVar(&flags.bandMidpoint, "band-midpoint", false, "Run the band-midpoint ablation control")
	cmd.Flags().Int64Var(&flags.seed, "seed", projectconfig.DefaultSeed, "Base seed for the controls and bootstrap")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Exit 1 when any gate fails")
	cmd.Flags().IntVar(&flags.bootstrap, "bootstrap", statistics.DefaultBootstrapIterations, "Bootstrap resamples for confidence intervals (0 disables)")
	cmd.Flags().Float64Var(&flags.confidence, "confidence", 0.95, "Confidence level of the bootstrap intervals")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "table", "Stdout format: table or json")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write the validation report JSON to this file")
	cmd.Flags().StringVar(&flags.markdown, "markdown", "", "Write a Markdown summary to this file")
	cmd.Flags().StringVar(&flags.html, "html", "", "Write an HTML summary to this file")
	cmd.Flags().StringVar(&flags.junit, "junit", "", "Write gate results as JUnit XML to this file")
	cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "Write headline metrics in Prometheus textfile format")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string, flags *validateFlags) error {
	if err := formatFlag(flags.format); err != nil {
		return err
	}
	cfg, err := loadProject(cmd)
	if err != nil {
		return err
	}

	report, source, err := loadResults(argOr(args, cfg.Paths.Results, cfg))
	if err != nil {
		return err
	}

	opts := benchmark.DefaultValidateOptions(seedFlag(cmd, flags.seed, cfg))
	if flags.shuffleLabels || flags.bandMidpoint {
		opts.Falsification = flags.shuffleLabels
		opts.Ablation = flags.bandMidpoint
	}
	opts.Thresholds = thresholds(cfg)
	opts.BootstrapIterations = flags.bootstrap
	opts.ConfidenceLevel = flags.confidence

	v := benchmark.Validate(report, source, opts)

	if flags.output != "" {
		if err := reporting.WriteJSON(flags.output, v); err != nil {
			return err
		}
	}
	if flags.markdown != "" || flags.html != "" {
		title := fmt.Sprintf("onbrd validation %s", v.RunID)
		if err := writeSummaries(flags.markdown, flags.html, title, reporting.ValidationMarkdown(v)); err != nil {
			return err
		}
	}
	if flags.junit != "" {
		suites := reporting.NewJUnitTestSuites(reporting.GateSuite(v))
		if err := reporting.WriteJUnitXML(suites, flags.junit); err != nil {
			return err
		}
	}
	if flags.metricsFile != "" {
		if err := reporting.WriteTextfile(flags.metricsFile, report, v); err != nil {
			return err
		}
	}

	if flags.format == "json" {
		if err := writeJSON(cmd, "", v); err != nil {
			return err
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), reporting.FormatSummaryReport(v))
	}

	if failed := v.FailedGates(); flags.strict && len(failed) > 0 {
		return &GateFailureError{Message: fmt.Sprintf("validation failed: %d gate(s) did not pass", len(failed))}
	}
	return nil
}
