// Package extract derives the five page heuristics from a static HTML
// snapshot. Only elements a visitor could actually see and use are counted.
package extract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/Virrpe/onbrd/internal/models"
)

// DefaultFoldHeight is the viewport height, in pixels, of the first screen.
const DefaultFoldHeight = 800

// Extractor turns HTML into Heuristics.
type Extractor struct {
	foldHeight int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFoldHeight sets the viewport height used for the above-the-fold check.
func WithFoldHeight(px int) Option {
	return func(e *Extractor) {
		if px > 0 {
			e.foldHeight = px
		}
	}
}

// New returns an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{foldHeight: DefaultFoldHeight}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FoldHeight returns the configured fold height.
func (e *Extractor) FoldHeight() int {
	return e.foldHeight
}

// Extract parses r and computes its heuristics.
func (e *Extractor) Extract(ctx context.Context, r io.Reader) (*models.Heuristics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	d := newDocument(root)
	return &models.Heuristics{
		CTAAboveFold: e.cta(d),
		StepsCount:   steps(d),
		CopyClarity:  copyClarity(d),
		TrustMarkers: trust(d),
		SignupSpeed:  speed(d),
	}, nil
}

// ExtractString is Extract over an in-memory document.
func (e *Extractor) ExtractString(ctx context.Context, doc string) (*models.Heuristics, error) {
	return e.Extract(ctx, strings.NewReader(doc))
}
