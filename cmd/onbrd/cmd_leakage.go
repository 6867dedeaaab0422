package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Virrpe/onbrd/internal/leakage"
	"github.com/Virrpe/onbrd/internal/reporting"
)

type leakageFlags struct {
	format  string
	include []string
	allow   []string
}

func newLeakageCheckCommand() *cobra.Command {
	flags := &leakageFlags{}

	cmd := &cobra.Command{
		Use:   "leakage-check [root]",
		Short: "Audit scoring code for access to benchmark labels",
		Long: `Statically scan source files for reads of fixture metadata, fixture files
and label-derived selectors. Findings under scoring, extract and calibration
are critical; anything else is medium. Files on the allow-list are skipped.

The root defaults to internal. Exits 1 when any finding is recorded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeakageCheck(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "table", "Output format: table or json")
	cmd.Flags().StringSliceVar(&flags.include, "include", nil, "Only scan these subtrees of root")
	cmd.Flags().StringSliceVar(&flags.allow, "allow", nil, "Extra allow-list globs")

	return cmd
}

func runLeakageCheck(cmd *cobra.Command, args []string, flags *leakageFlags) error {
	if err := formatFlag(flags.format); err != nil {
		return err
	}

	opts := leakage.DefaultOptions()
	if len(args) > 0 {
		opts.Root = args[0]
	}
	opts.Include = flags.include
	opts.AllowList = append(opts.AllowList, flags.allow...)

	report, err := leakage.New(opts).Scan(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flags.format == "json" {
		if err := writeJSON(cmd, "", report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "Scanned %d files under %s (%d allow-listed)\n", report.FilesScanned, report.Root, report.FilesAllowed)
		if len(report.Findings) > 0 {
			fmt.Fprintln(out)
			t := reporting.NewTable("SEVERITY", "CATEGORY", "FILE", "LINES")
			for _, f := range report.Findings {
				lines := make([]string, len(f.Lines))
				for i, l := range f.Lines {
					lines[i] = strconv.Itoa(l)
				}
				t.AddRow(string(f.Severity), string(f.Category), f.File, strings.Join(lines, ","))
			}
			if err := t.Render(out); err != nil {
				return err
			}
		}
	}

	if report.Failed() {
		counts := report.CountBySeverity()
		return &GateFailureError{Message: fmt.Sprintf("leakage detected: %d critical, %d medium finding(s)",
			counts[leakage.SeverityCritical], counts[leakage.SeverityMedium])}
	}
	if flags.format == "table" {
		fmt.Fprintln(out, "No leakage found.")
	}
	return nil
}
