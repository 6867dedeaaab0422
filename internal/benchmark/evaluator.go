// Package benchmark scores a fixture corpus and validates the results with
// falsification and ablation controls.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Virrpe/onbrd/internal/cache"
	"github.com/Virrpe/onbrd/internal/dataset"
	"github.com/Virrpe/onbrd/internal/extract"
	"github.com/Virrpe/onbrd/internal/metrics"
	"github.com/Virrpe/onbrd/internal/models"
	"github.com/Virrpe/onbrd/internal/scoring"
	"github.com/Virrpe/onbrd/internal/statistics"
	"github.com/Virrpe/onbrd/internal/utils"
)

// DefaultWorkers bounds concurrent fixture scoring when no worker count is set.
const DefaultWorkers = 4

// runNamespace scopes run IDs derived from corpus digests.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/Virrpe/onbrd/run"))

// Evaluator scores fixtures with a fixed weight table and calibration.
type Evaluator struct {
	scorer      *scoring.Scorer
	calibration models.CalibrationConfig
	extractor   *extract.Extractor
	perturb     extract.Perturbation
	seed        int64
	workers     int
	cache       *cache.Cache

	progressMu sync.Mutex
	listeners  []ProgressListener
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithExtractor sets the extractor used for html and html_file fixtures.
func WithExtractor(x *extract.Extractor) Option {
	return func(e *Evaluator) {
		if x != nil {
			e.extractor = x
		}
	}
}

// WithPerturbation rewrites every HTML page before extraction.
func WithPerturbation(p extract.Perturbation) Option {
	return func(e *Evaluator) {
		e.perturb = p
	}
}

// WithSeed sets the base seed of all per-fixture streams.
func WithSeed(seed int64) Option {
	return func(e *Evaluator) {
		e.seed = seed
	}
}

// WithWorkers bounds the number of fixtures scored concurrently.
func WithWorkers(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithCache reuses heuristics extracted from identical pages.
func WithCache(c *cache.Cache) Option {
	return func(e *Evaluator) {
		e.cache = c
	}
}

// New creates an Evaluator. The calibration is copied and never mutated.
func New(scorer *scoring.Scorer, cal models.CalibrationConfig, opts ...Option) *Evaluator {
	e := &Evaluator{
		scorer:      scorer,
		calibration: cal,
		extractor:   extract.New(),
		perturb:     extract.PerturbNone,
		workers:     DefaultWorkers,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Seed returns the base seed.
func (e *Evaluator) Seed() int64 {
	return e.seed
}

// RunID derives a stable run identifier from the corpus digest and seed.
func RunID(corpusDigest string, seed int64) string {
	return uuid.NewSHA1(runNamespace, []byte(fmt.Sprintf("%s:%d", corpusDigest, seed))).String()
}

// RunCorpus scores a loaded corpus. Fixtures the loader skipped are carried
// into the report ahead of fixtures skipped during scoring.
func (e *Evaluator) RunCorpus(ctx context.Context, corpus *dataset.Corpus, category string) (*models.BenchmarkReport, error) {
	report, err := e.Run(ctx, corpus.Fixtures)
	if err != nil {
		return nil, err
	}
	report.RunID = RunID(corpus.Digest, e.seed)
	report.CorpusDigest = corpus.Digest
	report.Category = category
	report.Skipped = append(append([]models.SkippedFixture{}, corpus.Skipped...), report.Skipped...)
	if len(report.Skipped) == 0 {
		report.Skipped = nil
	}
	return report, nil
}

// Run scores fixtures concurrently. Results keep the input order. A fixture
// whose page cannot be extracted or scored is logged and listed as skipped;
// only context cancellation aborts the run.
func (e *Evaluator) Run(ctx context.Context, fixtures []*models.BenchmarkFixture) (*models.BenchmarkReport, error) {
	e.notifyProgress(ProgressEvent{EventType: EventRunStart, Total: len(fixtures)})

	type slot struct {
		result  *models.FixtureResult
		skipped *models.SkippedFixture
	}
	slots := make([]slot, len(fixtures))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, f := range fixtures {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.evaluate(gctx, f)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				slog.Warn("Skipping fixture", "id", f.ID, "error", err)
				slots[i].skipped = &models.SkippedFixture{FixtureID: f.ID, Source: f.SourcePath, Reason: err.Error()}
				e.notifyProgress(ProgressEvent{EventType: EventFixtureSkipped, FixtureID: f.ID, Index: i + 1, Total: len(fixtures)})
				return nil
			}
			slots[i].result = res
			e.notifyProgress(ProgressEvent{
				EventType: EventFixtureComplete,
				FixtureID: f.ID,
				Index:     i + 1,
				Total:     len(fixtures),
				Score:     res.Prediction.Scores.OverallCalibrated,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("benchmark run: %w", err)
	}

	report := &models.BenchmarkReport{
		Seed:         e.seed,
		Perturbation: string(e.perturbation()),
		Weights:      e.scorer.Weights(),
		Calibration:  e.calibration,
		Results:      []models.FixtureResult{},
	}
	for _, s := range slots {
		switch {
		case s.result != nil:
			report.Results = append(report.Results, *s.result)
		case s.skipped != nil:
			report.Skipped = append(report.Skipped, *s.skipped)
		}
	}
	eval := metrics.Evaluate(report.Results, metrics.MidpointTarget)
	report.Evaluation = &eval

	e.notifyProgress(ProgressEvent{EventType: EventRunComplete, Total: len(fixtures)})
	return report, nil
}

func (e *Evaluator) perturbation() extract.Perturbation {
	if e.perturb == "" {
		return extract.PerturbNone
	}
	return e.perturb
}

func (e *Evaluator) evaluate(ctx context.Context, f *models.BenchmarkFixture) (*models.FixtureResult, error) {
	h, err := e.Heuristics(ctx, f)
	if err != nil {
		return nil, err
	}
	pred, err := e.scorer.Predict(h, e.calibration)
	if err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}
	return &models.FixtureResult{
		FixtureID:  f.ID,
		Name:       f.Name,
		Category:   f.Category,
		Heuristics: h,
		Prediction: *pred,
		Expected:   f.Expected,
	}, nil
}

// Heuristics returns the fixture's precomputed heuristics, or extracts them
// from its page after applying the configured perturbation. The perturbation
// stream is derived from (seed, "perturb", fixture id), so results do not
// depend on scheduling.
func (e *Evaluator) Heuristics(ctx context.Context, f *models.BenchmarkFixture) (*models.Heuristics, error) {
	if f.Heuristics != nil {
		if missing := f.Heuristics.MissingSections(); len(missing) > 0 {
			return nil, fmt.Errorf("%w: %s", scoring.ErrMissingSection, missing[0])
		}
		return f.Heuristics, nil
	}

	page := f.HTML
	if page == "" && f.HTMLFile != "" {
		data, err := os.ReadFile(f.HTMLFile)
		if err != nil {
			return nil, fmt.Errorf("reading html_file: %w", err)
		}
		page = string(data)
	}
	if page == "" {
		return nil, fmt.Errorf("fixture %s has no page", f.ID)
	}

	if mode := e.perturbation(); mode != extract.PerturbNone {
		var err error
		page, err = extract.Perturb(page, mode, statistics.NewStream(e.seed, "perturb", f.ID))
		if err != nil {
			return nil, fmt.Errorf("perturbing page: %w", err)
		}
	}

	key, err := cache.Key(page, e.extractor.FoldHeight())
	if err != nil {
		return nil, fmt.Errorf("computing cache key: %w", err)
	}
	if h, ok := e.cache.Get(key); ok {
		return h, nil
	}

	h, err := e.extractor.ExtractString(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("extracting heuristics: %w", err)
	}
	utils.HeuristicsToSlog(f.ID, h)
	if err := e.cache.Put(key, h); err != nil {
		slog.Warn("Failed to cache heuristics", "id", f.ID, "error", err)
	}
	return h, nil
}

// FixturePredictor predicts single fixtures with an evaluator's configuration.
type FixturePredictor struct {
	eval *Evaluator
}

// NewFixturePredictor wraps e.
func NewFixturePredictor(e *Evaluator) *FixturePredictor {
	return &FixturePredictor{eval: e}
}

// Predict extracts (if needed) and scores one fixture.
func (p *FixturePredictor) Predict(ctx context.Context, f *models.BenchmarkFixture) (*models.Prediction, error) {
	res, err := p.eval.evaluate(ctx, f)
	if err != nil {
		return nil, err
	}
	return &res.Prediction, nil
}
