package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// runCLI executes the root command with args and returns stdout and the
// command error. Every invocation is pinned to configDir so the test never
// picks up a .onbrd.yaml from the working tree.
func runCLI(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append(args, "--config-dir", configDir))
	err := cmd.Execute()
	return out.String(), err
}

const strongFixture = `id: strong
name: Strong page
category: saas
heuristics:
  h_cta_above_fold: {detected: true, position_px: 120}
  h_steps_count: {total: 1, forms: 1, screens: 1}
  h_copy_clarity: {avg_sentence_length: 11, passive_voice_ratio: 0, jargon_density: 0}
  h_trust_markers: {testimonials: 2, security_badges: 1, social_proof: 1, total: 4}
  h_signup_speed: {required_fields: 2, optional_fields: 0, total_fields: 2, estimated_seconds: 17}
expected:
  score_numeric: 90
  checks:
    h_cta_above_fold: true
    h_steps_count: true
    h_copy_clarity: true
    h_trust_markers: true
    h_signup_speed: true
`

const weakFixture = `id: weak
name: Weak page
category: saas
heuristics:
  h_cta_above_fold: {detected: false, position_px: 1400}
  h_steps_count: {total: 6, forms: 3, screens: 6}
  h_copy_clarity: {avg_sentence_length: 34, passive_voice_ratio: 60, jargon_density: 12}
  h_trust_markers: {testimonials: 0, security_badges: 0, social_proof: 0, total: 0}
  h_signup_speed: {required_fields: 12, optional_fields: 6, total_fields: 18, estimated_seconds: 120}
expected:
  score_band: [10, 30]
  checks:
    h_cta_above_fold: false
    h_steps_count: false
    h_copy_clarity: false
    h_trust_markers: false
    h_signup_speed: false
`

const middleFixture = `id: middle
name: Middle page
category: fintech
heuristics:
  h_cta_above_fold: {detected: true, position_px: 640}
  h_steps_count: {total: 3, forms: 1, screens: 3}
  h_copy_clarity: {avg_sentence_length: 19, passive_voice_ratio: 20, jargon_density: 3}
  h_trust_markers: {testimonials: 1, security_badges: 0, social_proof: 1, total: 2}
  h_signup_speed: {required_fields: 5, optional_fields: 2, total_fields: 7, estimated_seconds: 41}
expected:
  score_band: [50, 70]
  checks:
    h_cta_above_fold: true
    h_trust_markers: false
`

const heuristicsDoc = `h_cta_above_fold: {detected: true, position_px: 200}
h_steps_count: {total: 2, forms: 1, screens: 2}
h_copy_clarity: {avg_sentence_length: 14, passive_voice_ratio: 10, jargon_density: 1}
h_trust_markers: {testimonials: 1, security_badges: 1, social_proof: 0, total: 2}
h_signup_speed: {required_fields: 3, optional_fields: 1, total_fields: 4, estimated_seconds: 26}
`

const signupPage = `<!doctype html>
<html><body>
<h1>Invoices without the busywork</h1>
<p>Track every order. Send invoices in one click. Get paid faster.</p>
<a class="cta" href="/signup">Start free trial</a>
<form>
  <input type="email" name="email" required>
  <input type="password" name="password" required>
  <button type="submit">Create account</button>
</form>
</body></html>
`

// newCorpus writes a three-fixture corpus and returns its directory.
func newCorpus(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "benchmarks")
	writeFile(t, dir, "strong.yaml", strongFixture)
	writeFile(t, dir, "weak.yaml", weakFixture)
	writeFile(t, dir, "middle.yaml", middleFixture)
	return dir
}

// newResults runs the corpus and returns the path of the written report.
func newResults(t *testing.T, configDir string) string {
	t.Helper()
	out := filepath.Join(t.TempDir(), "results-001.json")
	_, err := runCLI(t, configDir, "run", newCorpus(t), "--output", out)
	require.NoError(t, err)
	return out
}
