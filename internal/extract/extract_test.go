package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Virrpe/onbrd/internal/models"
	"github.com/Virrpe/onbrd/internal/statistics"
)

const richPage = `<!DOCTYPE html>
<html><head><title>Acme Forms</title><style>.promo-hidden { display: none }</style></head>
<body>
<header><h1>Build forms faster</h1></header>
<p>Create your first form in minutes. No credit card needed.</p>
<a class="btn btn-primary" href="/signup">Get started</a>
<form>
  <label>Email</label><input type="email" name="email" required>
  <label>Password</label><input type="password" name="password" required>
  <input type="text" name="company">
  <button type="submit">Create account</button>
</form>
<div class="testimonial">Acme cut our onboarding time in half.</div>
<div class="security-badge"><img src="/soc2.png" alt="SOC 2 certified"></div>
<p>Trusted by 2,000 teams worldwide.</p>
<p class="promo-hidden">This was hidden by a stylesheet.</p>
</body></html>`

func extract(t *testing.T, doc string, opts ...Option) *models.Heuristics {
	t.Helper()
	h, err := New(opts...).ExtractString(context.Background(), doc)
	require.NoError(t, err)
	require.Empty(t, h.MissingSections())
	return h
}

func TestExtract_RichPage(t *testing.T) {
	h := extract(t, richPage)

	assert.True(t, h.CTAAboveFold.Detected)
	assert.Equal(t, 64, h.CTAAboveFold.PositionPx)
	assert.Equal(t, `a.btn.btn-primary "Get started"`, h.CTAAboveFold.Element)

	assert.Equal(t, models.StepsCount{Total: 1, Forms: 1, Screens: 1}, *h.StepsCount)

	assert.InDelta(t, 5.0, h.CopyClarity.AvgSentenceLength, 1e-9)
	assert.Equal(t, 0.0, h.CopyClarity.PassiveVoiceRatio)
	assert.Equal(t, 0.0, h.CopyClarity.JargonDensity)

	assert.Equal(t, models.TrustMarkers{Testimonials: 1, SecurityBadges: 1, SocialProof: 1, Total: 3}, *h.TrustMarkers)

	assert.Equal(t, models.SignupSpeed{RequiredFields: 2, OptionalFields: 1, TotalFields: 3, EstimatedSeconds: 20}, *h.SignupSpeed)
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().ExtractString(ctx, richPage)
	require.ErrorIs(t, err, context.Canceled)
}

// -----------------------------------------------------------------------
// CTA
// -----------------------------------------------------------------------

func TestExtract_CTATricks(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantDetected bool
		wantElement  string
	}{
		{
			name: "offscreen left",
			body: `<h1>Welcome</h1><a href="/signup" style="position:absolute;left:-9999px">Sign up</a>`,
		},
		{
			name: "display none",
			body: `<h1>Welcome</h1><button style="display: none">Get started</button>`,
		},
		{
			name: "stylesheet hidden",
			body: `<style>#cta { visibility: hidden }</style><a id="cta" href="/signup">Sign up</a>`,
		},
		{
			name: "inside aria-hidden",
			body: `<div aria-hidden="true"><a href="/signup">Sign up</a></div>`,
		},
		{
			name: "utility class",
			body: `<a class="sr-only" href="/signup">Create an account</a>`,
		},
		{
			name: "disabled only",
			body: `<button disabled>Sign Up</button>`,
		},
		{
			name: "aria-disabled link",
			body: `<a href="#" aria-disabled="true">Start free trial</a>`,
		},
		{
			name: "disabled fieldset",
			body: `<form><fieldset disabled><input type="submit" value="Register"></fieldset></form>`,
		},
		{
			name:         "disabled decoy before real cta",
			body:         `<button disabled>Sign Up</button><a class="cta" href="/join">Join now</a>`,
			wantDetected: true,
			wantElement:  `a.cta "Join now"`,
		},
		{
			name:         "submit input",
			body:         `<form><input type="submit" value="Sign up free"></form>`,
			wantDetected: true,
			wantElement:  `input "Sign up free"`,
		},
		{
			name: "non cta text",
			body: `<a href="/login">Log in</a><button>Learn more</button>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := extract(t, "<html><body>"+tt.body+"</body></html>")
			assert.Equal(t, tt.wantDetected, h.CTAAboveFold.Detected)
			if tt.wantElement != "" {
				assert.Equal(t, tt.wantElement, h.CTAAboveFold.Element)
			}
			if !tt.wantDetected {
				assert.NotContains(t, h.CTAAboveFold.Element, "Sign Up")
			}
		})
	}
}

func TestExtract_CTABelowFold(t *testing.T) {
	filler := strings.Repeat("<p>Short paragraph of copy.</p>", 40)
	h := extract(t, "<html><body>"+filler+`<a href="/signup">Sign up</a></body></html>`)
	assert.False(t, h.CTAAboveFold.Detected)
	assert.Equal(t, 960, h.CTAAboveFold.PositionPx)
	assert.Contains(t, h.CTAAboveFold.Element, "Sign up")
}

func TestExtract_CTAAbsoluteTop(t *testing.T) {
	filler := strings.Repeat("<p>Short paragraph of copy.</p>", 40)
	doc := "<html><body>" + filler + `<a href="/signup" style="position: fixed; top: 12px">Sign up</a></body></html>`
	h := extract(t, doc)
	assert.True(t, h.CTAAboveFold.Detected)
	assert.Equal(t, 12, h.CTAAboveFold.PositionPx)
}

func TestExtract_FoldHeightOption(t *testing.T) {
	h := extract(t, richPage, WithFoldHeight(50))
	assert.False(t, h.CTAAboveFold.Detected)
	assert.Equal(t, 64, h.CTAAboveFold.PositionPx)
	assert.Equal(t, 50, New(WithFoldHeight(50)).FoldHeight())
	assert.Equal(t, DefaultFoldHeight, New(WithFoldHeight(-1)).FoldHeight())
}

func TestExtract_NoCTA(t *testing.T) {
	h := extract(t, "<html><body><p>Nothing to click.</p></body></html>")
	assert.False(t, h.CTAAboveFold.Detected)
	assert.Equal(t, -1, h.CTAAboveFold.PositionPx)
	assert.Empty(t, h.CTAAboveFold.Element)
}

// -----------------------------------------------------------------------
// Steps
// -----------------------------------------------------------------------

func TestExtract_Steps(t *testing.T) {
	tests := []struct {
		name string
		body string
		want models.StepsCount
	}{
		{"no form", `<p>Hello.</p>`, models.StepsCount{Total: 1, Forms: 0, Screens: 1}},
		{"indicator", `<p>Step 1 of 4</p><form><input name="a"></form>`, models.StepsCount{Total: 4, Forms: 1, Screens: 4}},
		{"data steps", `<form><div data-step="1"><input name="a"></div><div data-step="2" hidden><input name="b"></div><div data-step="3" hidden></div></form>`,
			models.StepsCount{Total: 3, Forms: 1, Screens: 3}},
		{"two forms", `<form></form><form></form><form style="display:none"></form>`, models.StepsCount{Total: 2, Forms: 2, Screens: 1}},
		{"wizard classes", `<div class="wizard-step"></div><div class="wizard-step"></div>`, models.StepsCount{Total: 2, Forms: 0, Screens: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := extract(t, "<html><body>"+tt.body+"</body></html>")
			assert.Equal(t, tt.want, *h.StepsCount)
		})
	}
}

// -----------------------------------------------------------------------
// Copy
// -----------------------------------------------------------------------

func TestExtract_CopyClarity(t *testing.T) {
	h := extract(t, `<html><body><p>Your account is created instantly. We send a link.</p></body></html>`)
	assert.InDelta(t, 4.5, h.CopyClarity.AvgSentenceLength, 1e-9)
	assert.InDelta(t, 50.0, h.CopyClarity.PassiveVoiceRatio, 1e-9)
	assert.Equal(t, 0.0, h.CopyClarity.JargonDensity)
}

func TestExtract_CopyJargon(t *testing.T) {
	h := extract(t, `<html><body><p>Leverage our seamless platform.</p></body></html>`)
	// 2 jargon words out of 4.
	assert.InDelta(t, 50.0, h.CopyClarity.JargonDensity, 1e-9)
}

func TestExtract_CopyIgnoresHiddenText(t *testing.T) {
	h := extract(t, `<html><body>
<p aria-hidden="true">Our holistic synergy paradigm was engineered to leverage scalable robust ecosystems across every enterprise vertical imaginable.</p>
<p>Sign up in two minutes.</p></body></html>`)
	assert.Equal(t, 0.0, h.CopyClarity.JargonDensity)
	assert.Equal(t, 0.0, h.CopyClarity.PassiveVoiceRatio)
	assert.InDelta(t, 5.0, h.CopyClarity.AvgSentenceLength, 1e-9)
}

func TestExtract_CopyEmptyPage(t *testing.T) {
	h := extract(t, `<html><body></body></html>`)
	assert.Equal(t, models.CopyClarity{}, *h.CopyClarity)
}

// -----------------------------------------------------------------------
// Trust
// -----------------------------------------------------------------------

func TestExtract_TrustTricks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want models.TrustMarkers
	}{
		{"empty testimonial", `<div class="testimonial"></div><div class="testimonial">   </div>`, models.TrustMarkers{}},
		{"hidden testimonial", `<div class="testimonial" style="display:none">Great!</div>`, models.TrustMarkers{}},
		{"testimonial with empty child", `<div class="testimonial"><span class="quote"></span></div>`, models.TrustMarkers{}},
		{"nested testimonial counted once", `<div class="testimonials"><div class="testimonial">Loved it.</div></div>`,
			models.TrustMarkers{Testimonials: 1, Total: 1}},
		{"empty badge", `<div class="security-badge"></div><div class="badge"><img alt=""></div>`, models.TrustMarkers{}},
		{"aria hidden badge", `<div class="badge" aria-hidden="true"><img src="/ssl.png" alt="SSL"></div>`, models.TrustMarkers{}},
		{"image badge", `<img src="/norton.png" alt="Norton Secured">`, models.TrustMarkers{SecurityBadges: 1, Total: 1}},
		{"social proof", `<p>Join 10k+ happy customers.</p><p>Rated 4.8 out of 5.</p>`, models.TrustMarkers{SocialProof: 2, Total: 2}},
		{"hidden social proof", `<p hidden>Trusted by 500 companies.</p>`, models.TrustMarkers{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := extract(t, "<html><body>"+tt.body+"</body></html>")
			assert.Equal(t, tt.want, *h.TrustMarkers)
		})
	}
}

// -----------------------------------------------------------------------
// Speed
// -----------------------------------------------------------------------

func TestExtract_SignupSpeed(t *testing.T) {
	h := extract(t, `<html><body><form>
<input type="hidden" name="csrf" value="x">
<input type="email" required>
<input type="text" aria-required="true">
<select name="role"><option>Dev</option></select>
<textarea name="about"></textarea>
<input type="text" style="display:none" required>
<input type="submit" value="Sign up">
</form></body></html>`)
	assert.Equal(t, 2, h.SignupSpeed.RequiredFields)
	assert.Equal(t, 2, h.SignupSpeed.OptionalFields)
	assert.Equal(t, 4, h.SignupSpeed.TotalFields)
	// 5 + 2*6 + 2*3 + 10
	assert.InDelta(t, 33.0, h.SignupSpeed.EstimatedSeconds, 1e-9)
}

func TestExtract_NoFieldsMeansUnknownSpeed(t *testing.T) {
	h := extract(t, `<html><body><a href="/signup">Sign up</a></body></html>`)
	assert.Equal(t, 0.0, h.SignupSpeed.EstimatedSeconds)
	assert.Equal(t, 0, h.SignupSpeed.TotalFields)
}

// -----------------------------------------------------------------------
// Perturbation
// -----------------------------------------------------------------------

func TestParsePerturbation(t *testing.T) {
	p, err := ParsePerturbation("")
	require.NoError(t, err)
	assert.Equal(t, PerturbNone, p)

	p, err = ParsePerturbation("decoys")
	require.NoError(t, err)
	assert.Equal(t, PerturbDecoys, p)

	_, err = ParsePerturbation("shuffle")
	require.Error(t, err)
}

func TestPerturb_HeuristicsUnchanged(t *testing.T) {
	want := extract(t, richPage)
	for _, mode := range Perturbations() {
		for seed := int64(0); seed < 10; seed++ {
			doc, err := Perturb(richPage, mode, statistics.New(seed))
			require.NoError(t, err)
			got := extract(t, doc)
			require.Equal(t, want, got, "mode=%s seed=%d", mode, seed)
		}
	}
}

func TestPerturb_Deterministic(t *testing.T) {
	for _, mode := range Perturbations() {
		a, err := Perturb(richPage, mode, statistics.New(7))
		require.NoError(t, err)
		b, err := Perturb(richPage, mode, statistics.New(7))
		require.NoError(t, err)
		assert.Equal(t, a, b, "mode=%s", mode)
	}
}

func TestPerturb_NoneIsIdentity(t *testing.T) {
	doc, err := Perturb(richPage, PerturbNone, statistics.New(1))
	require.NoError(t, err)
	assert.Equal(t, richPage, doc)
}

func TestPerturb_DecoysInjected(t *testing.T) {
	doc, err := Perturb(richPage, PerturbDecoys, statistics.New(3))
	require.NoError(t, err)
	assert.Greater(t, len(doc), len(richPage))
}
