package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Virrpe/onbrd/internal/calibration"
	"github.com/Virrpe/onbrd/internal/optimizer"
	"github.com/Virrpe/onbrd/internal/reporting"
	"github.com/Virrpe/onbrd/internal/scoring"
)

// suggestTopN is how many ranked candidates the summary table shows.
const suggestTopN = 5

// ErrNotConfirmed is returned when the user declines to write the suggestion.
var ErrNotConfirmed = errors.New("suggested weights not written")

type suggestFlags struct {
	output            string
	calibrationOutput string
	version           string
	generatedAt       string
	workers           int
	yes               bool
}

func newSuggestWeightsCommand() *cobra.Command {
	flags := &suggestFlags{}

	cmd := &cobra.Command{
		Use:   "suggest-weights [results]",
		Short: "Search a weight grid for the table that best fits a benchmark",
		Long: `Rescore a benchmark report under every weight table in a fixed grid,
fit a calibration for each, and rank them by macro-F1, then R², then grid order.

Without --output the winning weight table is printed as JSON. With --output a
ranked summary is printed and the table is written after confirmation when
stdin is a terminal. Use --yes to skip the prompt.

The provenance timestamp comes from --generated-at (RFC 3339) or
SOURCE_DATE_EPOCH, so the output is reproducible.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggestWeights(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write the suggested weight table to this file")
	cmd.Flags().StringVar(&flags.calibrationOutput, "calibration-output", "", "Also write the winning candidate's calibration to this file")
	cmd.Flags().StringVar(&flags.version, "version-label", optimizer.DefaultVersion, "Version label of the suggested table")
	cmd.Flags().StringVar(&flags.generatedAt, "generated-at", "", "Provenance timestamp in RFC 3339 (default: SOURCE_DATE_EPOCH)")
	cmd.Flags().IntVar(&flags.workers, "workers", optimizer.DefaultWorkers, "Candidates evaluated concurrently")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Write without asking for confirmation")

	return cmd
}

func runSuggestWeights(cmd *cobra.Command, args []string, flags *suggestFlags) error {
	cfg, err := loadProject(cmd)
	if err != nil {
		return err
	}
	report, source, err := loadResults(argOr(args, cfg.Paths.Results, cfg))
	if err != nil {
		return err
	}
	stamp, err := generatedAt(flags.generatedAt)
	if err != nil {
		return err
	}

	corpusID := report.CorpusDigest
	if corpusID == "" {
		corpusID = source
	}
	opt := optimizer.New(
		optimizer.WithWorkers(workersFlag(cmd, flags.workers, cfg)),
		optimizer.WithVersion(flags.version),
		optimizer.WithSource(corpusID),
		optimizer.WithGeneratedAt(stamp),
	)
	res, err := opt.Optimize(cmd.Context(), report.Results)
	if err != nil {
		return err
	}

	if flags.output == "" {
		return writeJSON(cmd, "", res.Best.Weights)
	}

	out := cmd.OutOrStdout()
	t := reporting.NewTable("RANK", "CANDIDATE", "MACRO-F1", "R²", "CTA", "STEPS", "COPY", "TRUST", "SPEED")
	for _, c := range res.Candidates[:min(suggestTopN, len(res.Candidates))] {
		w := c.Weights
		t.AddRow(
			strconv.Itoa(c.Rank),
			strconv.Itoa(c.Index),
			fmt.Sprintf("%.3f", c.MacroF1),
			fmt.Sprintf("%.3f", c.R2),
			fmt.Sprintf("%.3f", w.CTAAboveFold),
			fmt.Sprintf("%.3f", w.StepsCount),
			fmt.Sprintf("%.3f", w.CopyClarity),
			fmt.Sprintf("%.3f", w.TrustMarkers),
			fmt.Sprintf("%.3f", w.SignupSpeed),
		)
	}
	if err := t.Render(out); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%s\n", res.Reason)

	if !flags.yes && isInteractive(cmd.InOrStdin()) {
		question := fmt.Sprintf("Write suggested weights to %s?", flags.output)
		if !promptConfirm(cmd.InOrStdin(), out, question) {
			return ErrNotConfirmed
		}
	}

	if err := scoring.SaveWeights(flags.output, res.Best.Weights); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", flags.output)

	if flags.calibrationOutput != "" && res.Best.Calibration.IsFitted() {
		if err := calibration.Save(flags.calibrationOutput, res.Best.Calibration); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", flags.calibrationOutput)
	}
	return nil
}
