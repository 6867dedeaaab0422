// Package projectconfig provides the ProjectConfig struct and loader for
// .onbrd.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up by Load.
const FileName = ".onbrd.yaml"

// Environment variables that override file values. CLI flags override both.
const (
	EnvSeed    = "ONBRD_SEED"
	EnvWorkers = "ONBRD_WORKERS"
)

// Default values for project configuration. These are the single source of
// truth; New() references them and no other code should duplicate them.
const (
	DefaultCorpusDir       = "benchmarks/"
	DefaultResultsDir      = "results/"
	DefaultWeightsPath     = ""
	DefaultCalibrationPath = "calibration.json"

	DefaultSeed         int64 = 42
	DefaultWorkers            = 4
	DefaultPerturbation       = "none"

	DefaultFoldHeight = 800

	DefaultCacheDir = ".onbrd-cache"

	DefaultStabilityRuns    = 3
	DefaultStabilityDelayMS = 50
	DefaultMaxStdDev        = 1.0

	DefaultMacroF1          = 0.70
	DefaultR2               = 0.50
	DefaultFalsificationMax = 0.40
	DefaultAblationMinDrop  = 0.20
)

// PathsConfig holds the locations of the corpus and artifacts.
type PathsConfig struct {
	Corpus      string `yaml:"corpus,omitempty"`
	Results     string `yaml:"results,omitempty"`
	Weights     string `yaml:"weights,omitempty"`
	Calibration string `yaml:"calibration,omitempty"`
}

// DefaultsConfig holds default run parameters.
type DefaultsConfig struct {
	Seed         *int64 `yaml:"seed,omitempty"`
	Workers      int    `yaml:"workers,omitempty"`
	Category     string `yaml:"category,omitempty"`
	Perturbation string `yaml:"perturbation,omitempty"`
}

// ExtractConfig holds HTML extraction settings.
type ExtractConfig struct {
	FoldHeight int `yaml:"fold_height,omitempty"`
}

// CacheConfig holds extraction cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// StabilityConfig holds guardrail stability settings.
type StabilityConfig struct {
	Runs      int      `yaml:"runs,omitempty"`
	DelayMS   *int     `yaml:"delay_ms,omitempty"`
	MaxStdDev *float64 `yaml:"max_std_dev,omitempty"`
}

// Delay returns the pause between stability runs.
func (s StabilityConfig) Delay() time.Duration {
	if s.DelayMS == nil {
		return DefaultStabilityDelayMS * time.Millisecond
	}
	return time.Duration(*s.DelayMS) * time.Millisecond
}

// ThresholdsConfig holds the acceptance gate thresholds.
type ThresholdsConfig struct {
	MacroF1          *float64 `yaml:"macro_f1,omitempty"`
	R2               *float64 `yaml:"r2,omitempty"`
	FalsificationMax *float64 `yaml:"falsification_max,omitempty"`
	AblationMinDrop  *float64 `yaml:"ablation_min_drop,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .onbrd.yaml.
type ProjectConfig struct {
	Paths      PathsConfig      `yaml:"paths,omitempty"`
	Defaults   DefaultsConfig   `yaml:"defaults,omitempty"`
	Extract    ExtractConfig    `yaml:"extract,omitempty"`
	Cache      CacheConfig      `yaml:"cache,omitempty"`
	Stability  StabilityConfig  `yaml:"stability,omitempty"`
	Thresholds ThresholdsConfig `yaml:"thresholds,omitempty"`

	// Dir is the directory the config file was found in, or the start
	// directory when none was found. Relative paths resolve against it.
	Dir string `yaml:"-"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Corpus:      DefaultCorpusDir,
			Results:     DefaultResultsDir,
			Weights:     DefaultWeightsPath,
			Calibration: DefaultCalibrationPath,
		},
		Defaults: DefaultsConfig{
			Seed:         ptr(DefaultSeed),
			Workers:      DefaultWorkers,
			Perturbation: DefaultPerturbation,
		},
		Extract: ExtractConfig{
			FoldHeight: DefaultFoldHeight,
		},
		Cache: CacheConfig{
			Enabled: ptr(false),
			Dir:     DefaultCacheDir,
		},
		Stability: StabilityConfig{
			Runs:      DefaultStabilityRuns,
			DelayMS:   ptr(DefaultStabilityDelayMS),
			MaxStdDev: ptr(DefaultMaxStdDev),
		},
		Thresholds: ThresholdsConfig{
			MacroF1:          ptr(DefaultMacroF1),
			R2:               ptr(DefaultR2),
			FalsificationMax: ptr(DefaultFalsificationMax),
			AblationMinDrop:  ptr(DefaultAblationMinDrop),
		},
	}
}

// Seed returns the configured default seed.
func (c *ProjectConfig) Seed() int64 {
	if c.Defaults.Seed == nil {
		return DefaultSeed
	}
	return *c.Defaults.Seed
}

// Resolve makes p relative to the config directory. Empty and absolute
// paths are returned unchanged.
func (c *ProjectConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Load finds .onbrd.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults. ONBRD_SEED and
// ONBRD_WORKERS, from the process environment or a .env file in startDir,
// are applied on top. If no config file is found, returns defaults with a
// nil error. Real I/O errors (e.g. permission denied) are returned to the
// caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	absStart, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", startDir, err)
	}
	cfg.Dir = absStart

	data, path, err := findConfigFile(absStart)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// no file found → defaults
	case err != nil:
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	default:
		var fileCfg ProjectConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		mergeConfig(cfg, &fileCfg)
		cfg.Dir = filepath.Dir(path)
	}

	env, err := readEnv(absStart)
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg, env); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile walks up from dir looking for .onbrd.yaml (max 10 levels).
// Returns os.ErrNotExist if no config file is found. Propagates real I/O
// errors (e.g. permission denied) instead of silently swallowing them.
func findConfigFile(dir string) ([]byte, string, error) {
	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, p, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, "", os.ErrNotExist
}

// readEnv reads dir/.env without touching the process environment. Variables
// already set in the process take precedence over the file.
func readEnv(dir string) (map[string]string, error) {
	vars, err := godotenv.Read(filepath.Join(dir, ".env"))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading .env: %w", err)
		}
		vars = map[string]string{}
	}
	for _, k := range []string{EnvSeed, EnvWorkers} {
		if v := os.Getenv(k); v != "" {
			vars[k] = v
		}
	}
	return vars, nil
}

func applyEnv(cfg *ProjectConfig, env map[string]string) error {
	if v := env[EnvSeed]; v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", EnvSeed, v)
		}
		cfg.Defaults.Seed = &seed
	}
	if v := env[EnvWorkers]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%s: %q is not a positive integer", EnvWorkers, v)
		}
		cfg.Defaults.Workers = n
	}
	return nil
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Paths
	if src.Paths.Corpus != "" {
		dst.Paths.Corpus = src.Paths.Corpus
	}
	if src.Paths.Results != "" {
		dst.Paths.Results = src.Paths.Results
	}
	if src.Paths.Weights != "" {
		dst.Paths.Weights = src.Paths.Weights
	}
	if src.Paths.Calibration != "" {
		dst.Paths.Calibration = src.Paths.Calibration
	}

	// Defaults
	if src.Defaults.Seed != nil {
		dst.Defaults.Seed = src.Defaults.Seed
	}
	if src.Defaults.Workers != 0 {
		dst.Defaults.Workers = src.Defaults.Workers
	}
	if src.Defaults.Category != "" {
		dst.Defaults.Category = src.Defaults.Category
	}
	if src.Defaults.Perturbation != "" {
		dst.Defaults.Perturbation = src.Defaults.Perturbation
	}

	// Extract
	if src.Extract.FoldHeight != 0 {
		dst.Extract.FoldHeight = src.Extract.FoldHeight
	}

	// Cache
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}

	// Stability
	if src.Stability.Runs != 0 {
		dst.Stability.Runs = src.Stability.Runs
	}
	if src.Stability.DelayMS != nil {
		dst.Stability.DelayMS = src.Stability.DelayMS
	}
	if src.Stability.MaxStdDev != nil {
		dst.Stability.MaxStdDev = src.Stability.MaxStdDev
	}

	// Thresholds
	if src.Thresholds.MacroF1 != nil {
		dst.Thresholds.MacroF1 = src.Thresholds.MacroF1
	}
	if src.Thresholds.R2 != nil {
		dst.Thresholds.R2 = src.Thresholds.R2
	}
	if src.Thresholds.FalsificationMax != nil {
		dst.Thresholds.FalsificationMax = src.Thresholds.FalsificationMax
	}
	if src.Thresholds.AblationMinDrop != nil {
		dst.Thresholds.AblationMinDrop = src.Thresholds.AblationMinDrop
	}
}

func ptr[T any](v T) *T {
	return &v
}
