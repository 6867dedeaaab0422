package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Virrpe/onbrd/internal/models"
	"github.com/Virrpe/onbrd/internal/reporting"
)

func newCompareCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "compare <result1.json> <result2.json> [result3.json ...]",
		Short: "Compare benchmark reports side by side",
		Long: `Compare two or more benchmark reports.

Shows macro-F1, R² and per-check F1 of each report, with deltas against the
first one. Reports without a stored evaluation are evaluated on load.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := formatFlag(format); err != nil {
				return err
			}

			reports := make([]*models.BenchmarkReport, 0, len(args))
			for _, path := range args {
				r, err := reporting.LoadBenchmarkReport(path)
				if err != nil {
					return fmt.Errorf("failed to load %s: %w", path, err)
				}
				reports = append(reports, r)
			}

			cmp, err := reporting.Compare(args, reports)
			if err != nil {
				return err
			}
			if format == "json" {
				return writeJSON(cmd, "", cmp)
			}
			return cmp.Render(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table or json")

	return cmd
}
