package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Virrpe/onbrd/internal/calibration"
	"github.com/Virrpe/onbrd/internal/metrics"
)

type fitFlags struct {
	output  string
	version string
}

func newFitCalibrationCommand() *cobra.Command {
	flags := &fitFlags{}

	cmd := &cobra.Command{
		Use:   "fit-calibration [results]",
		Short: "Fit a linear calibration from a benchmark report",
		Long: `Fit calibrated = a*raw + b by least squares over every fixture in a
benchmark report that has a numeric target (score_numeric or the midpoint of
score_band).

At least two targeted fixtures are needed. The calibration is written to
--output, which defaults to paths.calibration from .onbrd.yaml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFitCalibration(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Calibration file to write")
	cmd.Flags().StringVar(&flags.version, "version-label", "", "Version label of the calibration (default: derived from the run id)")

	return cmd
}

func runFitCalibration(cmd *cobra.Command, args []string, flags *fitFlags) error {
	cfg, err := loadProject(cmd)
	if err != nil {
		return err
	}
	report, source, err := loadResults(argOr(args, cfg.Paths.Results, cfg))
	if err != nil {
		return err
	}
	output := pathFlag(cmd, "output", flags.output, cfg.Paths.Calibration, cfg)
	if output == "" {
		return fmt.Errorf("no calibration output path: set --output or paths.calibration")
	}

	var raw, target []float64
	for i := range report.Results {
		r := &report.Results[i]
		y, ok := metrics.MidpointTarget(i, r)
		if !ok {
			continue
		}
		raw = append(raw, r.Prediction.Scores.OverallRaw)
		target = append(target, y)
	}

	corpusID := report.CorpusDigest
	if corpusID == "" {
		corpusID = source
	}
	version := flags.version
	if version == "" {
		version = "fit-" + shortID(report.RunID)
	}

	cal, err := calibration.FitConfig(raw, target, corpusID, version)
	if err != nil {
		return fmt.Errorf("fitting calibration from %s: %w", source, err)
	}
	if err := calibration.Save(output, cal); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Fitted a=%.4f b=%.4f on %d fixtures, wrote %s\n", cal.A, cal.B, cal.NSamples, output)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
