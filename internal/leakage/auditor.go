// Package leakage statically audits scoring code for access to benchmark
// ground truth: fixture metadata, fixture files and label-derived selectors.
package leakage

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Severity ranks a finding by where it occurs.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMedium   Severity = "medium"
)

// Options configures an Auditor. Paths in Include, Critical and AllowList are
// slash-separated and relative to Root.
type Options struct {
	Root string
	// Include limits the scan to these subtrees. Empty scans all of Root.
	Include []string
	// Critical subtrees hold scoring or extraction code; findings there are critical.
	Critical []string
	// AllowList globs name files that may legitimately touch fixtures. A
	// pattern without a slash matches the base name; a trailing "/**"
	// matches a whole subtree.
	AllowList  []string
	Extensions []string
	// Rules overrides the embedded rule set.
	Rules []Rule
}

// DefaultOptions audits the internal/ tree of the current module.
func DefaultOptions() Options {
	return Options{
		Root:     "internal",
		Critical: []string{"scoring", "extract", "calibration"},
		AllowList: []string{
			"*_test.go",
			"benchmark/**",
			"dataset/**",
			"guardrail/**",
			"leakage/**",
			"metrics/**",
			"models/**",
			"optimizer/**",
			"reporting/**",
			"validation/**",
		},
		Extensions: []string{".go"},
	}
}

// Match is one line that matched a rule.
type Match struct {
	Line int    `json:"line"`
	Rule string `json:"rule"`
	Text string `json:"text"`
}

// Finding aggregates every match of one category in one file.
type Finding struct {
	File     string   `json:"file"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Lines    []int    `json:"lines"`
	Matches  []Match  `json:"matches"`
}

// Report is the outcome of a scan.
type Report struct {
	Root         string    `json:"root"`
	FilesScanned int       `json:"files_scanned"`
	FilesAllowed int       `json:"files_allowed"`
	Findings     []Finding `json:"findings"`
}

// Failed reports whether any finding was recorded.
func (r *Report) Failed() bool {
	return len(r.Findings) > 0
}

// CountBySeverity tallies findings per severity.
func (r *Report) CountBySeverity() map[Severity]int {
	counts := map[Severity]int{}
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}

// Auditor scans a source tree with a fixed rule set.
type Auditor struct {
	opts  Options
	rules []Rule
}

// New creates an Auditor. Unset options fall back to DefaultOptions.
func New(opts Options) *Auditor {
	def := DefaultOptions()
	if opts.Root == "" {
		opts.Root = def.Root
	}
	if opts.Critical == nil {
		opts.Critical = def.Critical
	}
	if opts.AllowList == nil {
		opts.AllowList = def.AllowList
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = def.Extensions
	}
	rules := opts.Rules
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Auditor{opts: opts, rules: rules}
}

// Scan walks the configured tree in lexical order and audits every source file.
func (a *Auditor) Scan(ctx context.Context) (*Report, error) {
	report := &Report{Root: a.opts.Root, Findings: []Finding{}}

	roots := []string{a.opts.Root}
	if len(a.opts.Include) > 0 {
		roots = roots[:0]
		for _, inc := range a.opts.Include {
			roots = append(roots, filepath.Join(a.opts.Root, filepath.FromSlash(inc)))
		}
	}

	for _, root := range roots {
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if p != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
					return filepath.SkipDir
				}
				return nil
			}
			if !a.hasExtension(p) {
				return nil
			}
			rel, err := filepath.Rel(a.opts.Root, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if a.allowed(rel) {
				report.FilesAllowed++
				return nil
			}
			report.FilesScanned++
			findings, err := a.scanFile(p, rel)
			if err != nil {
				return err
			}
			report.Findings = append(report.Findings, findings...)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}

	sort.SliceStable(report.Findings, func(i, j int) bool {
		fi, fj := report.Findings[i], report.Findings[j]
		if fi.File != fj.File {
			return fi.File < fj.File
		}
		return categoryOrder[fi.Category] < categoryOrder[fj.Category]
	})
	return report, nil
}

func (a *Auditor) scanFile(p, rel string) ([]Finding, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	severity := SeverityMedium
	if a.critical(rel) {
		severity = SeverityCritical
	}

	byCategory := map[Category]*Finding{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		for _, r := range a.rules {
			match := r.compiled.FindString(line)
			if match == "" {
				continue
			}
			fd, ok := byCategory[r.Category]
			if !ok {
				fd = &Finding{File: rel, Category: r.Category, Severity: severity}
				byCategory[r.Category] = fd
			}
			if len(fd.Lines) == 0 || fd.Lines[len(fd.Lines)-1] != lineNum {
				fd.Lines = append(fd.Lines, lineNum)
			}
			fd.Matches = append(fd.Matches, Match{Line: lineNum, Rule: r.ID, Text: strings.TrimSpace(match)})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}

	findings := make([]Finding, 0, len(byCategory))
	for _, fd := range byCategory {
		findings = append(findings, *fd)
	}
	return findings, nil
}

func (a *Auditor) hasExtension(p string) bool {
	ext := filepath.Ext(p)
	for _, e := range a.opts.Extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func (a *Auditor) allowed(rel string) bool {
	for _, pattern := range a.opts.AllowList {
		if matchGlob(pattern, rel) {
			return true
		}
	}
	return false
}

func (a *Auditor) critical(rel string) bool {
	for _, c := range a.opts.Critical {
		c = strings.Trim(c, "/")
		if rel == c || strings.HasPrefix(rel, c+"/") {
			return true
		}
	}
	return false
}

// matchGlob matches a slash-separated relative path. Patterns without a slash
// match the base name; "dir/**" matches everything below dir, with each
// leading segment matched by path.Match.
func matchGlob(pattern, rel string) bool {
	if !strings.Contains(pattern, "/") {
		ok, _ := path.Match(pattern, path.Base(rel))
		return ok
	}
	if prefix, found := strings.CutSuffix(pattern, "/**"); found {
		pSegs := strings.Split(prefix, "/")
		rSegs := strings.Split(rel, "/")
		if len(rSegs) <= len(pSegs) {
			return false
		}
		for i, seg := range pSegs {
			if ok, _ := path.Match(seg, rSegs[i]); !ok {
				return false
			}
		}
		return true
	}
	ok, _ := path.Match(pattern, rel)
	return ok
}
