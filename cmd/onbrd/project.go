package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Virrpe/onbrd/internal/benchmark"
	"github.com/Virrpe/onbrd/internal/calibration"
	"github.com/Virrpe/onbrd/internal/models"
	"github.com/Virrpe/onbrd/internal/projectconfig"
	"github.com/Virrpe/onbrd/internal/reporting"
	"github.com/Virrpe/onbrd/internal/scoring"
	"github.com/Virrpe/onbrd/internal/utils"
)

// loadProject reads .onbrd.yaml and .env, searching upward from --config-dir
// or the working directory.
func loadProject(cmd *cobra.Command) (*projectconfig.ProjectConfig, error) {
	dir, _ := cmd.Flags().GetString("config-dir")
	if dir == "" {
		dir = "."
	}
	cfg, err := projectconfig.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	return cfg, nil
}

// pathFlag returns the flag value when it was set on the command line and
// the config value resolved against the config directory otherwise.
func pathFlag(cmd *cobra.Command, name, value, configured string, cfg *projectconfig.ProjectConfig) string {
	if cmd.Flags().Changed(name) {
		return value
	}
	return cfg.Resolve(configured)
}

// argOr returns the first positional argument or the configured fallback.
func argOr(args []string, configured string, cfg *projectconfig.ProjectConfig) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Resolve(configured)
}

func seedFlag(cmd *cobra.Command, value int64, cfg *projectconfig.ProjectConfig) int64 {
	if cmd.Flags().Changed("seed") {
		return value
	}
	return cfg.Seed()
}

func workersFlag(cmd *cobra.Command, value int, cfg *projectconfig.ProjectConfig) int {
	if cmd.Flags().Changed("workers") || cfg.Defaults.Workers <= 0 {
		return value
	}
	return cfg.Defaults.Workers
}

// loadScorer builds a scorer from a weight table file, or from a directory
// of versioned weights-*.json files. An empty path selects the defaults.
func loadScorer(path string) (*scoring.Scorer, error) {
	if path != "" {
		latest, err := utils.ResolveLatest(path, "weights")
		if err != nil {
			return nil, err
		}
		path = latest
	}
	w, err := scoring.LoadWeights(path)
	if err != nil {
		return nil, err
	}
	return scoring.New(w)
}

// loadCalibration reads a calibration file or the latest calibration-*.json
// in a directory. Anything missing degrades to the identity transform.
func loadCalibration(path string) (models.CalibrationConfig, error) {
	if path != "" {
		latest, err := utils.ResolveLatest(path, "calibration")
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("No calibration artifact found, using identity", "path", path)
			return models.IdentityCalibration(), nil
		}
		if err != nil {
			return models.CalibrationConfig{}, err
		}
		path = latest
	}
	return calibration.Load(path)
}

// loadResults reads a benchmark report file or the latest results-*.json in
// a directory.
func loadResults(path string) (*models.BenchmarkReport, string, error) {
	latest, err := utils.ResolveLatest(path, "results")
	if err != nil {
		return nil, "", err
	}
	r, err := reporting.LoadBenchmarkReport(latest)
	if err != nil {
		return nil, "", err
	}
	return r, latest, nil
}

func thresholds(cfg *projectconfig.ProjectConfig) benchmark.Thresholds {
	th := benchmark.DefaultThresholds()
	t := cfg.Thresholds
	if t.MacroF1 != nil {
		th.MacroF1 = *t.MacroF1
	}
	if t.R2 != nil {
		th.R2 = *t.R2
	}
	if t.FalsificationMax != nil {
		th.FalsificationMax = *t.FalsificationMax
	}
	if t.AblationMinDrop != nil {
		th.AblationMinDrop = *t.AblationMinDrop
	}
	return th
}

// writeJSON writes v to path, or to the command's stdout when path is empty
// or "-".
func writeJSON(cmd *cobra.Command, path string, v any) error {
	if path == "" || path == "-" {
		data, err := reporting.MarshalJSON(v)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return reporting.WriteJSON(path, v)
}

// writeSummaries writes the Markdown summary and its HTML rendering to
// whichever paths are set.
func writeSummaries(mdPath, htmlPath, title, md string) error {
	if mdPath != "" {
		if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
			return fmt.Errorf("writing markdown %s: %w", mdPath, err)
		}
	}
	if htmlPath != "" {
		page, err := reporting.RenderHTML(title, md)
		if err != nil {
			return err
		}
		if err := os.WriteFile(htmlPath, page, 0o644); err != nil {
			return fmt.Errorf("writing html %s: %w", htmlPath, err)
		}
	}
	return nil
}

// generatedAt parses --generated-at, falling back to SOURCE_DATE_EPOCH and
// then to the zero time so repeated runs produce identical artifacts.
func generatedAt(value string) (time.Time, error) {
	if value != "" {
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --generated-at %q: %w", value, err)
		}
		return t, nil
	}
	if epoch := os.Getenv("SOURCE_DATE_EPOCH"); epoch != "" {
		sec, err := strconv.ParseInt(epoch, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid SOURCE_DATE_EPOCH %q: %w", epoch, err)
		}
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, nil
}

func formatFlag(format string) error {
	if format != "table" && format != "json" {
		return fmt.Errorf("unsupported format %q: must be table or json", format)
	}
	return nil
}
