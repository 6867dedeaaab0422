package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Virrpe/onbrd/internal/models"
)

var ctaPattern = regexp.MustCompile(`(?i)\b(sign\s*up|get\s+started|start\s+(your\s+)?(free\s+)?trial|create\s+(an\s+|your\s+)?account|join(\s+now|\s+free)?|register|try\s+(it\s+)?(for\s+)?free|start\s+now|subscribe)\b`)

// -----------------------------------------------------------------------
// CTA above the fold
// -----------------------------------------------------------------------

func ctaLabel(d *document, n *html.Node) (string, bool) {
	var label string
	switch {
	case n.DataAtom == atom.A, n.DataAtom == atom.Button, strings.EqualFold(attr(n, "role"), "button"):
		label = d.text(n, nil)
		if label == "" {
			label = normalizeSpace(attr(n, "aria-label"))
		}
	case n.DataAtom == atom.Input:
		switch strings.ToLower(attr(n, "type")) {
		case "submit", "button":
			label = normalizeSpace(attr(n, "value"))
		default:
			return "", false
		}
	default:
		return "", false
	}
	return label, label != "" && ctaPattern.MatchString(label)
}

func (e *Extractor) cta(d *document) *models.CTAAboveFold {
	out := &models.CTAAboveFold{PositionPx: -1}
	found := false
	d.elements(func(n *html.Node) {
		if !d.visible(n) || d.disabled[n] {
			return
		}
		label, ok := ctaLabel(d, n)
		if !ok {
			return
		}
		y := d.topOf(n)
		if !found || y < out.PositionPx {
			found = true
			out.PositionPx = y
			out.Element = describe(n, label)
		}
	})
	out.Detected = found && out.PositionPx < e.foldHeight
	return out
}

// -----------------------------------------------------------------------
// Steps
// -----------------------------------------------------------------------

var stepIndicator = regexp.MustCompile(`(?i)\bstep\s+(\d{1,2})\s*(?:of|/)\s*(\d{1,2})\b`)

var stepClasses = map[string]bool{
	"step":        true,
	"form-step":   true,
	"wizard-step": true,
	"signup-step": true,
}

func steps(d *document) *models.StepsCount {
	out := &models.StepsCount{}

	indicated := 0
	for _, m := range stepIndicator.FindAllStringSubmatch(d.text(d.root, nil), -1) {
		if n, err := strconv.Atoi(m[2]); err == nil && n > indicated {
			indicated = n
		}
	}

	dataSteps := map[string]bool{}
	classSteps := 0
	d.elements(func(n *html.Node) {
		if n.DataAtom == atom.Form && d.visible(n) {
			out.Forms++
		}
		if v := strings.TrimSpace(attr(n, "data-step")); v != "" {
			dataSteps[v] = true
		}
		for _, c := range classes(n) {
			if stepClasses[c] {
				classSteps++
				break
			}
		}
	})

	out.Screens = max(1, indicated, len(dataSteps), classSteps)
	out.Total = max(out.Screens, out.Forms)
	return out
}

// -----------------------------------------------------------------------
// Copy clarity
// -----------------------------------------------------------------------

var (
	sentenceEnd    = regexp.MustCompile(`[.!?]+(\s|$)`)
	passivePattern = regexp.MustCompile(`(?i)\b(am|is|are|was|were|be|been|being|get|gets|got)\s+(\w+ly\s+)?\w+(ed|en)\b`)
)

var jargon = map[string]bool{
	"synergy": true, "synergies": true, "leverage": true, "leveraging": true, "paradigm": true,
	"scalable": true, "robust": true, "seamless": true, "seamlessly": true, "holistic": true,
	"utilize": true, "utilise": true, "optimize": true, "streamline": true, "ecosystem": true,
	"disruptive": true, "omnichannel": true, "bandwidth": true, "actionable": true,
	"blockchain": true, "turnkey": true, "frictionless": true, "best-in-class": true,
	"best-of-breed": true, "cutting-edge": true, "end-to-end": true, "next-gen": true,
	"world-class": true, "enterprise-grade": true, "mission-critical": true, "value-add": true,
	"ai-powered": true, "hyperautomation": true, "orchestration": true, "interoperability": true,
}

// Interactive controls carry labels, not prose.
var nonProse = map[atom.Atom]bool{
	atom.A:        true,
	atom.Button:   true,
	atom.Label:    true,
	atom.Select:   true,
	atom.Option:   true,
	atom.Textarea: true,
}

// proseBlocks splits visible page text at block boundaries.
func proseBlocks(d *document) []string {
	var blocks []string
	var cur []string
	flush := func() {
		if s := normalizeSpace(strings.Join(cur, " ")); s != "" {
			blocks = append(blocks, s)
		}
		cur = cur[:0]
	}
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur = append(cur, n.Data)
			return
		case html.ElementNode:
			if d.hidden[n] || nonProse[n.DataAtom] {
				return
			}
		}
		_, block := blockLineHeights[n.DataAtom]
		if block || n.DataAtom == atom.Br {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
		if block {
			flush()
		}
	}
	visit(d.root)
	flush()
	return blocks
}

func words(s string) []string {
	var out []string
	for _, f := range strings.Fields(s) {
		w := strings.TrimFunc(f, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' })
		w = strings.Trim(w, "-")
		if strings.IndexFunc(w, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) >= 0 {
			out = append(out, strings.ToLower(w))
		}
	}
	return out
}

func copyClarity(d *document) *models.CopyClarity {
	var sentences, totalWords, passive, jargonWords int
	for _, block := range proseBlocks(d) {
		for _, s := range sentenceEnd.Split(block, -1) {
			ws := words(s)
			if len(ws) == 0 {
				continue
			}
			sentences++
			totalWords += len(ws)
			if passivePattern.MatchString(s) {
				passive++
			}
			for _, w := range ws {
				if jargon[w] {
					jargonWords++
				}
			}
		}
	}
	out := &models.CopyClarity{}
	if sentences == 0 {
		return out
	}
	out.AvgSentenceLength = round2(float64(totalWords) / float64(sentences))
	out.PassiveVoiceRatio = round2(100 * float64(passive) / float64(sentences))
	out.JargonDensity = round2(100 * float64(jargonWords) / float64(totalWords))
	return out
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// -----------------------------------------------------------------------
// Trust markers
// -----------------------------------------------------------------------

var (
	testimonialMarkers = []string{"testimonial", "review", "quote"}
	badgeMarkers       = []string{"badge", "seal", "secure", "ssl", "certif", "compliance"}
	badgeAlt           = regexp.MustCompile(`(?i)\b(secure|ssl|norton|mcafee|verified|soc\s*2|gdpr|hipaa|pci|iso\s*27001)\b`)
	socialProof        = regexp.MustCompile(`(?i)(\b\d[\d,.]*\s*[km]?\+?\s+(happy\s+)?(customers|users|teams|companies|businesses|people|developers|members|reviews)\b|\btrusted\s+by\b|\bas\s+seen\s+(in|on)\b|\brated\s+\d(\.\d)?\b|\b\d(\.\d)?\s*(/|out\s+of)\s*5\b)`)
)

// hasContent reports whether a container shows text or a described image.
func hasContent(d *document, n *html.Node) bool {
	if d.text(n, nil) != "" {
		return true
	}
	found := false
	var visit func(c *html.Node)
	visit = func(c *html.Node) {
		if found || (c.Type == html.ElementNode && d.hidden[c]) {
			return
		}
		if c.Type == html.ElementNode && c.DataAtom == atom.Img &&
			(strings.TrimSpace(attr(c, "alt")) != "" || strings.TrimSpace(attr(c, "src")) != "") {
			found = true
			return
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			visit(cc)
		}
	}
	visit(n)
	return found
}

func insideAny(n *html.Node, set map[*html.Node]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if set[p] {
			return true
		}
	}
	return false
}

func trust(d *document) *models.TrustMarkers {
	out := &models.TrustMarkers{}
	testimonials := map[*html.Node]bool{}
	badges := map[*html.Node]bool{}

	d.elements(func(n *html.Node) {
		if !d.visible(n) {
			return
		}
		switch {
		case hasMarker(n, testimonialMarkers...):
			if !insideAny(n, testimonials) && d.text(n, nil) != "" {
				testimonials[n] = true
			}
		case hasMarker(n, badgeMarkers...) && n.DataAtom != atom.Form:
			if !insideAny(n, badges) && hasContent(d, n) {
				badges[n] = true
			}
		case n.DataAtom == atom.Img && badgeAlt.MatchString(attr(n, "alt")):
			if !insideAny(n, badges) {
				badges[n] = true
			}
		}
	})
	out.Testimonials = len(testimonials)
	out.SecurityBadges = len(badges)

	for _, block := range proseBlocks(d) {
		if socialProof.MatchString(block) {
			out.SocialProof++
		}
	}
	out.Total = out.Testimonials + out.SecurityBadges + out.SocialProof
	return out
}

// -----------------------------------------------------------------------
// Signup speed
// -----------------------------------------------------------------------

const (
	baseSeconds        = 5.0
	secondsPerRequired = 6.0
	secondsPerOptional = 3.0
	secondsPerFreeText = 10.0
)

var nonFieldInputs = map[string]bool{
	"hidden": true, "submit": true, "button": true, "reset": true, "image": true,
}

func speed(d *document) *models.SignupSpeed {
	out := &models.SignupSpeed{}
	freeText := 0
	d.elements(func(n *html.Node) {
		if !d.visible(n) {
			return
		}
		switch n.DataAtom {
		case atom.Input:
			if nonFieldInputs[strings.ToLower(attr(n, "type"))] {
				return
			}
		case atom.Select:
		case atom.Textarea:
			freeText++
		default:
			return
		}
		if hasAttr(n, "required") || strings.EqualFold(attr(n, "aria-required"), "true") {
			out.RequiredFields++
		} else {
			out.OptionalFields++
		}
	})
	out.TotalFields = out.RequiredFields + out.OptionalFields
	if out.TotalFields > 0 {
		out.EstimatedSeconds = baseSeconds +
			secondsPerRequired*float64(out.RequiredFields) +
			secondsPerOptional*float64(out.OptionalFields) +
			secondsPerFreeText*float64(freeText)
	}
	return out
}
