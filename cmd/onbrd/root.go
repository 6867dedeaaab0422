package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onbrd",
		Short: "onbrd - score and validate signup onboarding flows",
		Long: `onbrd scores signup pages on five onboarding heuristics and checks that
the scores mean something.

It runs a labelled fixture corpus through the scorer, validates the results
against acceptance gates with falsification and ablation controls, suggests
weights, fits calibration, audits the scorer for label leakage and runs
stability and adversarial guardrails.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory to search for .onbrd.yaml and .env (default: working directory)")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newSuggestWeightsCommand())
	cmd.AddCommand(newFitCalibrationCommand())
	cmd.AddCommand(newLeakageCheckCommand())
	cmd.AddCommand(newGuardrailsCommand())
	cmd.AddCommand(newScoreCommand())
	cmd.AddCommand(newCompareCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
