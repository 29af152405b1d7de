package evidence

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/gtm-cli/internal/edp"
	"github.com/sells-group/gtm-cli/internal/model"
)

// siteRenderer serves fixed HTML per URL and records what was asked for.
type siteRenderer struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (s *siteRenderer) Name() string { return "fake" }

func (s *siteRenderer) Render(_ context.Context, url string) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, url)
	html, ok := s.pages[url]
	if !ok {
		return nil, errors.New("status 404")
	}
	return &Page{URL: url, FinalURL: url, StatusCode: 200, HTML: html, Renderer: "fake"}, nil
}

var fixedNow = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }

const legacyHome = `<html><head><title>Legacy Supply</title></head><body>
<table bgcolor="#ffffff"><tr><td>
<a href="/docs/cat1.pdf">Catalog 1</a>
<a href="/docs/cat2.PDF">Catalog 2</a>
<a href="/docs/cat3.pdf?v=2">Catalog 3</a>
<a href="/docs/cat1.pdf#page=2">Catalog 1 again</a>
<p>We stock thousands of products. Call for pricing. Find a dealer near you.</p>
<p>Add to cart on select items. Our brands include Acme and Bolt.</p>
<p>Request a catalog today.</p>
<img src="a.jpg"><img src="b.jpg"><img src="c.jpg" alt="c">
<p>&copy; 2015 Legacy Supply</p>
</td></tr></table>
<script>var s = "spec sheet rep login";</script>
</body></html>`

const legacyProducts = `<html><body><ul><li>Widget</li><li>Gadget</li></ul></body></html>`

const modernHome = `<html><head>
<meta name="viewport" content="width=device-width, initial-scale=1">
<script src="/_next/static/chunks/main.js"></script>
</head><body>
<form action="/search"><input type="search" name="q"></form>
<nav>
<a href="/category/pumps">Pumps</a><a href="/category/valves">Valves</a><a href="/category/hoses">Hoses</a>
</nav>
<p>Download the spec sheet for every part. Rep login. Add to cart.</p>
<img src="a.jpg" alt="Pump">
<footer>© 2019–2026 Modern Co</footer>
</body></html>`

const modernProducts = `<html><body><select name="sort"></select><div class="facet">Size</div></body></html>`

func stateOf(t *testing.T, b *model.EvidenceBundle, key string) model.IndicatorState {
	t.Helper()
	ind, ok := b.Indicators[key]
	require.True(t, ok, "indicator %s missing", key)
	return ind.State
}

func TestAnalyze_LegacySite(t *testing.T) {
	r := &siteRenderer{pages: map[string]string{
		"http://legacy.com":          legacyHome,
		"http://legacy.com/products": legacyProducts,
	}}
	e := NewExtractor(r, edp.Default(), WithClock(fixedNow))

	b := e.Analyze(context.Background(), "http://www.Legacy.com/")
	require.Empty(t, b.Error)
	assert.Equal(t, "legacy.com", b.Domain)
	assert.Equal(t, "http://legacy.com", b.URL)
	assert.Equal(t, []string{"http://legacy.com", "http://legacy.com/products"}, b.Pages)

	present := []string{
		"EDP1_PDF_Catalog", "EDP1_No_Filters", "EDP1_Large_Catalog_Language", "EDP1_Request_Catalog", "EDP1_No_Category_Nav",
		"EDP2_Call_For_Pricing", "EDP2_Missing_Images", "EDP2_Stale_Content", "EDP2_No_Spec_Sheets",
		"EDP3_No_Viewport", "EDP3_Old_Copyright", "EDP3_Legacy_Tech", "EDP3_No_Modern_Framework",
		"EDP6_Dealer_Locator", "EDP6_Direct_Ecommerce", "EDP6_Multiple_Brands",
		"EDP7_No_Search", "EDP7_No_Mobile", "EDP7_Has_SSL", "EDP7_No_Rep_Portal",
	}
	for _, key := range present {
		assert.Equal(t, model.StatePresent, stateOf(t, b, key), key)
	}
	for _, key := range []string{"EDP3_Slow_Or_Heavy", "EDP6_MAP_Policy", "EDP7_No_Online_Ordering"} {
		assert.Equal(t, model.StateAbsent, stateOf(t, b, key), key)
	}

	assert.Equal(t, 3, b.Indicators["EDP1_PDF_Catalog"].Value)
	assert.Equal(t, 2015, b.Indicators["EDP3_Old_Copyright"].Value)
	assert.Equal(t, edp.SalesEnablement, b.Indicators["EDP7_No_Search"].EDP)

	findings := b.Findings[edp.SalesEnablement]
	assert.Contains(t, findings, "No product search functionality")
	assert.Contains(t, findings, "No SSL: site served over plain http")
	assert.NotContains(t, strings.Join(b.Findings[edp.ChannelConflict], "|"), "search")
}

func TestAnalyze_ModernSite(t *testing.T) {
	r := &siteRenderer{pages: map[string]string{
		"https://modern.com":          modernHome,
		"https://modern.com/products": modernProducts,
	}}
	e := NewExtractor(r, nil, WithClock(fixedNow))

	b := e.Analyze(context.Background(), "modern.com")
	require.Empty(t, b.Error)

	for _, key := range []string{
		"EDP1_PDF_Catalog", "EDP1_No_Filters", "EDP1_No_Category_Nav",
		"EDP2_Stale_Content", "EDP2_No_Spec_Sheets", "EDP2_Missing_Images",
		"EDP3_No_Viewport", "EDP3_Old_Copyright", "EDP3_Legacy_Tech", "EDP3_No_Modern_Framework",
		"EDP7_No_Search", "EDP7_No_Mobile", "EDP7_Has_SSL", "EDP7_No_Rep_Portal", "EDP7_No_Online_Ordering",
	} {
		assert.Equal(t, model.StateAbsent, stateOf(t, b, key), key)
	}
	assert.Equal(t, 2026, b.Indicators["EDP2_Stale_Content"].Value)
	assert.Empty(t, b.Findings[edp.SalesEnablement])
}

func TestAnalyze_UnknownWhenUnevaluable(t *testing.T) {
	r := &siteRenderer{pages: map[string]string{
		"https://bare.com": `<html><body><p>Hello</p></body></html>`,
	}}
	b := NewExtractor(r, nil, WithClock(fixedNow)).Analyze(context.Background(), "bare.com")
	require.Empty(t, b.Error)

	for _, key := range []string{"EDP1_No_Filters", "EDP2_Missing_Images", "EDP2_Stale_Content", "EDP3_Old_Copyright"} {
		assert.Equal(t, model.StateUnknown, stateOf(t, b, key), key)
	}
	assert.Len(t, b.Pages, 1, "failed probes are dropped")
}

func TestAnalyze_FetchFailure(t *testing.T) {
	r := &siteRenderer{pages: map[string]string{}}
	b := NewExtractor(r, nil, WithClock(fixedNow)).Analyze(context.Background(), "down.com")

	assert.NotEmpty(t, b.Error)
	assert.Empty(t, b.Indicators)
	assert.Empty(t, b.Findings)
	assert.Equal(t, fixedNow(), b.FetchedAt)
	assert.Equal(t, []string{"https://down.com"}, r.calls, "probes are skipped when the homepage fails")
}

func TestAnalyze_EmptyDomain(t *testing.T) {
	r := &siteRenderer{}
	b := NewExtractor(r, nil).Analyze(context.Background(), "   ")
	assert.NotEmpty(t, b.Error)
	assert.Empty(t, r.calls)
}

func TestAnalyze_ProbePaths(t *testing.T) {
	r := &siteRenderer{pages: map[string]string{"https://acme.com": "<html><body>x</body></html>"}}
	NewExtractor(r, nil, WithProbePaths([]string{"shop", " ", "/about"})).Analyze(context.Background(), "acme.com")

	assert.ElementsMatch(t, []string{"https://acme.com", "https://acme.com/shop", "https://acme.com/about"}, r.calls)
}

func TestAnalyze_RegistrySubset(t *testing.T) {
	defs := edp.DefaultDefinitions()
	var only []edp.Definition
	for _, d := range defs {
		if d.ID == edp.SalesEnablement {
			only = append(only, d)
		}
	}
	reg, err := edp.NewRegistry(only)
	require.NoError(t, err)

	r := &siteRenderer{pages: map[string]string{"https://acme.com": legacyHome}}
	b := NewExtractor(r, reg).Analyze(context.Background(), "acme.com")

	for key, ind := range b.Indicators {
		assert.True(t, strings.HasPrefix(key, "EDP7_"), key)
		assert.Equal(t, edp.SalesEnablement, ind.EDP)
	}
	assert.Len(t, b.Indicators, 5)
}

func TestAnalyze_HeavyPage(t *testing.T) {
	heavy := "<html><body>" + strings.Repeat("<p>filler text</p>", 100000) + "</body></html>"
	r := &siteRenderer{pages: map[string]string{"https://heavy.com": heavy}}
	b := NewExtractor(r, nil).Analyze(context.Background(), "heavy.com")

	assert.Equal(t, model.StatePresent, stateOf(t, b, "EDP3_Slow_Or_Heavy"))
}

func TestSiteURL(t *testing.T) {
	assert.Equal(t, "https://acme.com", SiteURL("acme.com"))
	assert.Equal(t, "https://acme.com", SiteURL("https://www.acme.com/about"))
	assert.Equal(t, "http://acme.com", SiteURL("HTTP://acme.com"))
	assert.Equal(t, "", SiteURL(""))
}

func TestCopyrightYear(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"© 2015 acme", 2015},
		{"copyright 2009-2021 acme inc", 2021},
		{"(c) 2018 all rights reserved", 2018},
		{"copyright © 2024", 2024},
		{"founded in 1985, © 1989", 0},
		{"© 2099 from the future", 0},
		{"no notice here", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, copyrightYear(tt.text, 2026), tt.text)
	}
}
