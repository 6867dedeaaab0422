// Package dataset loads the benchmark fixture corpus from disk.
package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/Virrpe/onbrd/internal/models"
	"github.com/Virrpe/onbrd/internal/utils"
	"github.com/Virrpe/onbrd/internal/validation"
)

// Corpus is a loaded set of fixtures.
type Corpus struct {
	// Root is the directory or file the corpus was loaded from.
	Root     string
	Fixtures []*models.BenchmarkFixture
	Skipped  []models.SkippedFixture
	// Digest is a sha256 over every loaded fixture file and referenced HTML
	// file, in load order. It identifies the corpus contents across runs.
	Digest string
}

// IDs returns the fixture IDs in load order.
func (c *Corpus) IDs() []string {
	ids := make([]string, len(c.Fixtures))
	for i, f := range c.Fixtures {
		ids[i] = f.ID
	}
	return ids
}

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	category string
}

// WithCategory keeps only fixtures whose category matches (case-insensitive).
func WithCategory(category string) Option {
	return func(o *loadOptions) {
		o.category = strings.TrimSpace(category)
	}
}

// IsFixtureFile reports whether name has a fixture extension.
func IsFixtureFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads every fixture under root (a directory, walked recursively in
// lexical order, or a single file). Fixtures that fail to parse, violate the
// schema or reference a missing HTML file are logged and recorded in Skipped.
func Load(ctx context.Context, root string, opts ...Option) (*Corpus, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}

	var files []string
	if info.IsDir() {
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if IsFixtureFile(d.Name()) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking corpus %s: %w", root, err)
		}
		sort.Strings(files)
	} else {
		files = []string{root}
	}

	corpus := &Corpus{Root: root}
	hasher := sha256.New()
	seen := map[string]string{}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f, contents, reason := loadFixture(path)
		if reason == "" {
			if prev, dup := seen[f.ID]; dup {
				reason = fmt.Sprintf("duplicate id %q (first defined in %s)", f.ID, prev)
			}
		}
		if reason != "" {
			slog.Warn("Skipping fixture", "path", path, "reason", reason)
			id := ""
			if f != nil {
				id = f.ID
			}
			corpus.Skipped = append(corpus.Skipped, models.SkippedFixture{FixtureID: id, Source: path, Reason: reason})
			continue
		}

		if o.category != "" && !strings.EqualFold(f.Category, o.category) {
			slog.Debug("Fixture filtered by category", "id", f.ID, "category", f.Category)
			continue
		}

		seen[f.ID] = path
		for _, c := range contents {
			hasher.Write(c)         //nolint:errcheck
			hasher.Write([]byte{0}) //nolint:errcheck
		}
		corpus.Fixtures = append(corpus.Fixtures, f)
	}

	corpus.Digest = hex.EncodeToString(hasher.Sum(nil))
	return corpus, nil
}

// loadFixture returns the decoded fixture and the raw bytes that define it,
// or a non-empty reason when it must be skipped.
func loadFixture(path string) (*models.BenchmarkFixture, [][]byte, string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Sprintf("read error: %v", err)
	}

	doc, err := validation.DecodeDocument(path, data)
	if err != nil {
		return nil, nil, err.Error()
	}
	partial := partialID(doc)
	if errs := validation.ValidateFixtureDocument(doc); len(errs) > 0 {
		return partial, nil, "schema: " + strings.Join(errs, "; ")
	}

	f, err := Decode(doc)
	if err != nil {
		return partial, nil, err.Error()
	}
	if err := f.Validate(); err != nil {
		return f, nil, err.Error()
	}
	f.SourcePath = path

	contents := [][]byte{[]byte(filepath.ToSlash(filepath.Base(path))), data}
	if f.HTMLFile != "" {
		resolved := utils.ResolvePaths([]string{f.HTMLFile}, filepath.Dir(path))[0]
		html, err := os.ReadFile(resolved)
		if err != nil {
			return f, nil, fmt.Sprintf("html_file: %v", err)
		}
		f.HTMLFile = resolved
		contents = append(contents, html)
	}
	return f, contents, ""
}

// partialID salvages the id of a document that fails validation so the skip
// record can name it.
func partialID(doc any) *models.BenchmarkFixture {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	id, _ := m["id"].(string)
	if id == "" {
		return nil
	}
	return &models.BenchmarkFixture{ID: id}
}

// Decode converts a validated generic document into a fixture.
func Decode(doc any) (*models.BenchmarkFixture, error) {
	var f models.BenchmarkFixture
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &f,
		TagName:     "mapstructure",
		ErrorUnused: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding fixture: %w", err)
	}
	return &f, nil
}
