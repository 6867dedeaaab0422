package extract

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Virrpe/onbrd/internal/statistics"
)

// Perturbation is a DOM rewrite that must leave extracted heuristics unchanged.
type Perturbation string

const (
	PerturbNone         Perturbation = "none"
	PerturbWhitespace   Perturbation = "whitespace"
	PerturbDecoys       Perturbation = "decoys"
	PerturbReorderAttrs Perturbation = "reorder-attrs"
)

// Perturbations lists the supported modes.
func Perturbations() []Perturbation {
	return []Perturbation{PerturbNone, PerturbWhitespace, PerturbDecoys, PerturbReorderAttrs}
}

// ParsePerturbation validates a mode name. The empty string means none.
func ParsePerturbation(s string) (Perturbation, error) {
	if s == "" {
		return PerturbNone, nil
	}
	for _, p := range Perturbations() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown perturbation %q: must be one of none, whitespace, decoys, reorder-attrs", s)
}

// decoys are elements a visitor cannot see or use. Appending them must not
// change any heuristic.
var decoys = []string{
	`<button type="button" disabled>Sign Up</button>`,
	`<a href="#" style="position:absolute;left:-9999px">Get started</a>`,
	`<div class="testimonial" style="display:none">Best product ever, five stars from our whole team.</div>`,
	`<div class="security-badge" aria-hidden="true"><img src="/ssl.png" alt="SSL secure"></div>`,
	`<div class="testimonial"></div>`,
	`<div class="trust-badge"></div>`,
	`<p hidden>Over 10,000 customers trust us. Our seamless, scalable platform was engineered for synergy.</p>`,
}

// Perturb rewrites doc according to mode, drawing all choices from rng.
func Perturb(doc string, mode Perturbation, rng *statistics.PRNG) (string, error) {
	if mode == PerturbNone || mode == "" {
		return doc, nil
	}
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}

	switch mode {
	case PerturbWhitespace:
		perturbWhitespace(root, rng)
	case PerturbDecoys:
		if err := injectDecoys(root, rng); err != nil {
			return "", err
		}
	case PerturbReorderAttrs:
		reorderAttrs(root, rng)
	default:
		return "", fmt.Errorf("unknown perturbation %q", mode)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", fmt.Errorf("rendering html: %w", err)
	}
	return buf.String(), nil
}

var whitespaceRuns = []string{" ", "  ", "\n", " \n\t", "\t"}

func perturbWhitespace(n *html.Node, rng *statistics.PRNG) {
	if n.Type == html.ElementNode && (n.DataAtom == atom.Pre || n.DataAtom == atom.Textarea || n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
		return
	}
	if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
		fields := strings.Fields(n.Data)
		var sb strings.Builder
		sb.WriteString(whitespaceRuns[rng.Intn(len(whitespaceRuns))])
		for i, f := range fields {
			if i > 0 {
				sb.WriteString(whitespaceRuns[rng.Intn(len(whitespaceRuns))])
			}
			sb.WriteString(f)
		}
		sb.WriteString(whitespaceRuns[rng.Intn(len(whitespaceRuns))])
		n.Data = sb.String()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		perturbWhitespace(c, rng)
	}
}

// injectDecoys appends one to three decoys at the end of <body>, after all
// real content, so they cannot shift the position of anything visible.
func injectDecoys(root *html.Node, rng *statistics.PRNG) error {
	body := findElement(root, atom.Body)
	if body == nil {
		return fmt.Errorf("document has no body")
	}
	order := make([]int, len(decoys))
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	count := 1 + rng.Intn(3)

	for _, idx := range order[:count] {
		nodes, err := html.ParseFragment(strings.NewReader(decoys[idx]), body)
		if err != nil {
			return fmt.Errorf("parsing decoy: %w", err)
		}
		for _, n := range nodes {
			body.AppendChild(n)
		}
	}
	return nil
}

func reorderAttrs(n *html.Node, rng *statistics.PRNG) {
	if n.Type == html.ElementNode && len(n.Attr) > 1 {
		rng.Shuffle(len(n.Attr), func(i, j int) { n.Attr[i], n.Attr[j] = n.Attr[j], n.Attr[i] })
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		reorderAttrs(c, rng)
	}
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
