package extract

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	defaultLineHeight = 24
	charsPerLine      = 80
	// Offsets at or beyond this are treated as pushed off-screen.
	offscreenPx = -500
)

// hiddenClasses are utility classes that visually hide content.
var hiddenClasses = map[string]bool{
	"hidden":             true,
	"d-none":             true,
	"sr-only":            true,
	"visually-hidden":    true,
	"invisible":          true,
	"offscreen":          true,
	"screen-reader-text": true,
}

// nonRendered tags never contribute visible content.
var nonRendered = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
}

var blockLineHeights = map[atom.Atom]int{
	atom.H1: 40, atom.H2: 32, atom.H3: 28, atom.H4: 24, atom.H5: 24, atom.H6: 24,
	atom.P: 24, atom.Li: 24, atom.Blockquote: 24, atom.Label: 24, atom.Dt: 24, atom.Dd: 24,
	atom.Div: 24, atom.Section: 24, atom.Article: 24, atom.Header: 24, atom.Footer: 24,
	atom.Main: 24, atom.Nav: 24, atom.Aside: 24, atom.Form: 24, atom.Fieldset: 24,
	atom.Ul: 24, atom.Ol: 24, atom.Table: 24, atom.Tr: 24, atom.Figure: 24, atom.Figcaption: 24,
}

// document is a parsed page annotated with effective visibility, disabled
// state and an estimated vertical offset per element.
type document struct {
	root     *html.Node
	hidden   map[*html.Node]bool
	disabled map[*html.Node]bool
	top      map[*html.Node]int
	rules    styleRules
}

func newDocument(root *html.Node) *document {
	d := &document{
		root:     root,
		hidden:   make(map[*html.Node]bool),
		disabled: make(map[*html.Node]bool),
		top:      make(map[*html.Node]int),
		rules:    collectStyleRules(root),
	}
	l := &layout{lineHeight: defaultLineHeight}
	d.walk(root, false, false, l)
	l.flush()
	return d
}

// layout is a crude top-to-bottom flow model: text accumulates into lines of
// the enclosing block, replaced elements take a fixed height.
type layout struct {
	y          int
	pending    int
	lineHeight int
	stack      []int
}

func (l *layout) addText(s string) {
	l.pending += len([]rune(normalizeSpace(s)))
}

func (l *layout) flush() {
	if l.pending > 0 {
		lines := (l.pending + charsPerLine - 1) / charsPerLine
		l.y += lines * l.lineHeight
		l.pending = 0
	}
}

func (l *layout) push(h int) {
	l.stack = append(l.stack, l.lineHeight)
	l.lineHeight = h
}

func (l *layout) pop() {
	if n := len(l.stack); n > 0 {
		l.lineHeight = l.stack[n-1]
		l.stack = l.stack[:n-1]
	}
}

func (d *document) walk(n *html.Node, hidden, disabled bool, l *layout) {
	switch n.Type {
	case html.TextNode:
		if !hidden && l != nil {
			l.addText(n.Data)
		}
		return
	case html.ElementNode:
		hidden = hidden || d.hiddenSelf(n)
		disabled = disabled || disabledSelf(n)
		d.hidden[n] = hidden
		d.disabled[n] = disabled
		if hidden {
			l = nil
		}
	}

	if n.Type != html.ElementNode || l == nil {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			d.walk(c, hidden, disabled, l)
		}
		return
	}

	if top, ok := absoluteTop(parseStyle(attr(n, "style"))); ok {
		l.flush()
		saved := l.y
		l.y = top
		d.top[n] = top
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			d.walk(c, hidden, disabled, l)
		}
		l.flush()
		l.y = saved
		return
	}

	if h, ok := replacedHeight(n); ok {
		l.flush()
		d.top[n] = l.y
		l.y += h
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			d.walk(c, hidden, disabled, nil)
		}
		return
	}

	if lh, ok := blockLineHeights[n.DataAtom]; ok {
		l.flush()
		d.top[n] = l.y
		l.push(lh)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			d.walk(c, hidden, disabled, l)
		}
		l.flush()
		l.pop()
		return
	}

	if n.DataAtom == atom.Br {
		l.flush()
	}
	d.top[n] = l.y
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.walk(c, hidden, disabled, l)
	}
}

func replacedHeight(n *html.Node) (int, bool) {
	switch n.DataAtom {
	case atom.Img:
		if h, err := strconv.Atoi(strings.TrimSuffix(attr(n, "height"), "px")); err == nil && h >= 0 {
			return h, true
		}
		return 150, true
	case atom.Input:
		switch strings.ToLower(attr(n, "type")) {
		case "checkbox", "radio":
			return 24, true
		}
		return 44, true
	case atom.Button, atom.Select:
		return 44, true
	case atom.Textarea:
		if rows, err := strconv.Atoi(attr(n, "rows")); err == nil && rows > 0 {
			return rows * defaultLineHeight, true
		}
		return 96, true
	case atom.Iframe, atom.Video:
		return 300, true
	case atom.Hr:
		return 16, true
	}
	return 0, false
}

// hiddenSelf reports whether n itself (ignoring ancestors) is not rendered.
func (d *document) hiddenSelf(n *html.Node) bool {
	if nonRendered[n.DataAtom] {
		return true
	}
	if hasAttr(n, "hidden") || strings.EqualFold(attr(n, "aria-hidden"), "true") {
		return true
	}
	if n.DataAtom == atom.Input && strings.EqualFold(attr(n, "type"), "hidden") {
		return true
	}
	for _, c := range classes(n) {
		if hiddenClasses[c] || d.rules.hiddenClass[c] {
			return true
		}
	}
	if id := attr(n, "id"); id != "" && d.rules.hiddenID[id] {
		return true
	}
	return styleHides(parseStyle(attr(n, "style")))
}

func disabledSelf(n *html.Node) bool {
	if hasAttr(n, "disabled") || strings.EqualFold(attr(n, "aria-disabled"), "true") {
		return true
	}
	for _, c := range classes(n) {
		if c == "disabled" {
			return true
		}
	}
	return false
}

// styleHides reports whether inline declarations remove an element from view.
func styleHides(style map[string]string) bool {
	if style["display"] == "none" {
		return true
	}
	if v := style["visibility"]; v == "hidden" || v == "collapse" {
		return true
	}
	if v, ok := style["opacity"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f <= 0 {
			return true
		}
	}
	for _, prop := range []string{"left", "top", "right", "margin-left", "margin-top", "text-indent"} {
		if px, ok := parsePx(style[prop]); ok && px <= offscreenPx {
			return true
		}
	}
	if px, ok := parsePx(style["font-size"]); ok && px == 0 {
		return true
	}
	if style["overflow"] == "hidden" {
		if px, ok := parsePx(style["height"]); ok && px == 0 {
			return true
		}
		if px, ok := parsePx(style["width"]); ok && px == 0 {
			return true
		}
	}
	if clip := strings.ReplaceAll(style["clip"], " ", ""); clip == "rect(0,0,0,0)" || clip == "rect(0px,0px,0px,0px)" {
		return true
	}
	return false
}

// absoluteTop returns the explicit top offset of an absolutely positioned element.
func absoluteTop(style map[string]string) (int, bool) {
	if p := style["position"]; p != "absolute" && p != "fixed" {
		return 0, false
	}
	px, ok := parsePx(style["top"])
	if !ok {
		return 0, false
	}
	return int(px), true
}

func parseStyle(s string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(strings.ToLower(v)), "!important"))
		out[strings.TrimSpace(strings.ToLower(k))] = v
	}
	return out
}

func parsePx(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	for _, unit := range []string{"px", "em", "rem"} {
		if strings.HasSuffix(v, unit) {
			v = strings.TrimSuffix(v, unit)
			break
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

type styleRules struct {
	hiddenClass map[string]bool
	hiddenID    map[string]bool
}

var cssRule = regexp.MustCompile(`([^{}]+)\{([^{}]*)\}`)

// collectStyleRules finds simple .class and #id rules in <style> blocks that
// hide elements.
func collectStyleRules(root *html.Node) styleRules {
	r := styleRules{hiddenClass: map[string]bool{}, hiddenID: map[string]bool{}}
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Style {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			for _, m := range cssRule.FindAllStringSubmatch(sb.String(), -1) {
				if !styleHides(parseStyle(m[2])) {
					continue
				}
				for _, sel := range strings.Split(m[1], ",") {
					sel = strings.TrimSpace(sel)
					switch {
					case len(sel) > 1 && sel[0] == '.' && isSimpleName(sel[1:]):
						r.hiddenClass[sel[1:]] = true
					case len(sel) > 1 && sel[0] == '#' && isSimpleName(sel[1:]):
						r.hiddenID[sel[1:]] = true
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(root)
	return r
}

func isSimpleName(s string) bool {
	for _, r := range s {
		if !(r == '-' || r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return s != ""
}

// elements calls fn for every element node in document order.
func (d *document) elements(fn func(n *html.Node)) {
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			fn(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(d.root)
}

func (d *document) visible(n *html.Node) bool {
	return !d.hidden[n]
}

// topOf returns the estimated offset of n, falling back to its nearest
// positioned ancestor.
func (d *document) topOf(n *html.Node) int {
	for p := n; p != nil; p = p.Parent {
		if y, ok := d.top[p]; ok {
			return y
		}
	}
	return 0
}

// text returns the whitespace-normalized visible text under n. Subtrees for
// which skip returns true are left out.
func (d *document) text(n *html.Node, skip func(*html.Node) bool) string {
	var parts []string
	var visit func(c *html.Node)
	visit = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			parts = append(parts, c.Data)
			return
		case html.ElementNode:
			if d.hidden[c] || (skip != nil && c != n && skip(c)) {
				return
			}
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			visit(cc)
		}
	}
	visit(n)
	return normalizeSpace(strings.Join(parts, " "))
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func classes(n *html.Node) []string {
	return strings.Fields(strings.ToLower(attr(n, "class")))
}

// hasMarker reports whether any class token or the id of n contains one of markers.
func hasMarker(n *html.Node, markers ...string) bool {
	tokens := append(classes(n), strings.ToLower(attr(n, "id")))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		for _, m := range markers {
			if strings.Contains(t, m) {
				return true
			}
		}
	}
	return false
}

// describe renders a short selector-like descriptor of n.
func describe(n *html.Node, label string) string {
	var sb strings.Builder
	sb.WriteString(n.Data)
	if id := attr(n, "id"); id != "" {
		sb.WriteString("#" + id)
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		sb.WriteString("." + c)
	}
	if label != "" {
		r := []rune(label)
		if len(r) > 40 {
			label = string(r[:40])
		}
		sb.WriteString(" " + strconv.Quote(label))
	}
	return sb.String()
}
