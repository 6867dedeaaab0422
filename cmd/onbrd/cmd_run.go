package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Virrpe/onbrd/internal/benchmark"
	"github.com/Virrpe/onbrd/internal/cache"
	"github.com/Virrpe/onbrd/internal/dataset"
	"github.com/Virrpe/onbrd/internal/extract"
	"github.com/Virrpe/onbrd/internal/projectconfig"
	"github.com/Virrpe/onbrd/internal/reporting"
)

type runFlags struct {
	category    string
	seed        int64
	perturb     string
	workers     int
	weights     string
	calibration string
	foldHeight  int
	cache       bool
	output      string
	markdown    string
	html        string
	metricsFile string
	verbose     bool
}

func newRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:     "run [corpus]",
		Aliases: []string{"run-benchmarks"},
		Short:   "Score a fixture corpus",
		Long: `Score every fixture in a corpus directory and write a benchmark report.

Each fixture is either precomputed heuristics or an HTML snapshot that is
extracted first. Malformed fixtures are skipped and listed in the report.
The corpus defaults to paths.corpus from .onbrd.yaml.

The same corpus, weights, calibration and seed always produce a byte-identical
report. A report path ending in .json.gz is gzip-compressed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.category, "category", "", "Only score fixtures in this category")
	cmd.Flags().Int64Var(&flags.seed, "seed", projectconfig.DefaultSeed, "Base seed for perturbations")
	cmd.Flags().StringVar(&flags.perturb, "perturb", "none", "DOM perturbation: none, whitespace, decoys or reorder-attrs")
	cmd.Flags().IntVar(&flags.workers, "workers", benchmark.DefaultWorkers, "Fixtures scored concurrently")
	cmd.Flags().StringVar(&flags.weights, "weights", "", "Weight table file or directory (default: built-in weights)")
	cmd.Flags().StringVar(&flags.calibration, "calibration", "", "Calibration file or directory")
	cmd.Flags().IntVar(&flags.foldHeight, "fold-height", extract.DefaultFoldHeight, "Viewport height in pixels for the above-the-fold check")
	cmd.Flags().BoolVar(&flags.cache, "cache", false, "Cache extracted heuristics on disk")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write the report to this file (.json or .json.gz) instead of stdout")
	cmd.Flags().StringVar(&flags.markdown, "markdown", "", "Write a Markdown summary to this file")
	cmd.Flags().StringVar(&flags.html, "html", "", "Write an HTML summary to this file")
	cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "Write headline metrics in Prometheus textfile format")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Print per-fixture progress to stderr")

	return cmd
}

func runBenchmark(cmd *cobra.Command, args []string, flags *runFlags) error {
	cfg, err := loadProject(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	corpusPath := argOr(args, cfg.Paths.Corpus, cfg)
	category := flags.category
	if !cmd.Flags().Changed("category") {
		category = cfg.Defaults.Category
	}
	perturbName := flags.perturb
	if !cmd.Flags().Changed("perturb") && cfg.Defaults.Perturbation != "" {
		perturbName = cfg.Defaults.Perturbation
	}
	perturb, err := extract.ParsePerturbation(perturbName)
	if err != nil {
		return err
	}
	foldHeight := flags.foldHeight
	if !cmd.Flags().Changed("fold-height") && cfg.Extract.FoldHeight > 0 {
		foldHeight = cfg.Extract.FoldHeight
	}

	scorer, err := loadScorer(pathFlag(cmd, "weights", flags.weights, cfg.Paths.Weights, cfg))
	if err != nil {
		return err
	}
	cal, err := loadCalibration(pathFlag(cmd, "calibration", flags.calibration, cfg.Paths.Calibration, cfg))
	if err != nil {
		return err
	}

	corpus, err := dataset.Load(ctx, corpusPath, dataset.WithCategory(category))
	if err != nil {
		return err
	}

	opts := []benchmark.Option{
		benchmark.WithSeed(seedFlag(cmd, flags.seed, cfg)),
		benchmark.WithWorkers(workersFlag(cmd, flags.workers, cfg)),
		benchmark.WithPerturbation(perturb),
		benchmark.WithExtractor(extract.New(extract.WithFoldHeight(foldHeight))),
	}
	useCache := flags.cache
	if !cmd.Flags().Changed("cache") && cfg.Cache.Enabled != nil {
		useCache = *cfg.Cache.Enabled
	}
	if useCache {
		dir := cfg.Resolve(cfg.Cache.Dir)
		slog.Debug("Using extraction cache", "dir", dir)
		opts = append(opts, benchmark.WithCache(cache.New(dir)))
	}

	eval := benchmark.New(scorer, cal, opts...)
	if flags.verbose {
		eval.OnProgress(progressPrinter(cmd))
	}

	report, err := eval.RunCorpus(ctx, corpus, category)
	if err != nil {
		return err
	}

	if err := writeJSON(cmd, flags.output, report); err != nil {
		return err
	}
	if flags.markdown != "" || flags.html != "" {
		title := fmt.Sprintf("onbrd benchmark %s", report.RunID)
		if err := writeSummaries(flags.markdown, flags.html, title, reporting.BenchmarkMarkdown(report)); err != nil {
			return err
		}
	}
	if flags.metricsFile != "" {
		if err := reporting.WriteTextfile(flags.metricsFile, report, nil); err != nil {
			return err
		}
	}

	if flags.output != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Scored %d fixtures (%d skipped), run %s\n", len(report.Results), len(report.Skipped), report.RunID)
	}
	return nil
}

func progressPrinter(cmd *cobra.Command) benchmark.ProgressListener {
	w := cmd.ErrOrStderr()
	return func(event benchmark.ProgressEvent) {
		switch event.EventType {
		case benchmark.EventRunStart:
			fmt.Fprintf(w, "Scoring %d fixtures\n", event.Total)
		case benchmark.EventFixtureComplete:
			fmt.Fprintf(w, "  ✓ %s  %.1f\n", event.FixtureID, event.Score)
		case benchmark.EventFixtureSkipped:
			fmt.Fprintf(w, "  ✗ %s  skipped\n", event.FixtureID)
		}
	}
}
