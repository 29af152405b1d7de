package evidence

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/gtm-cli/internal/edp"
	"github.com/sells-group/gtm-cli/internal/metrics"
	"github.com/sells-group/gtm-cli/internal/model"
)

// DefaultProbePaths are fetched alongside the homepage.
var DefaultProbePaths = []string{"/products", "/catalog", "/contact"}

const probeConcurrency = 3

// Extractor renders a domain and evaluates the indicator battery for every
// EDP in its registry.
type Extractor struct {
	renderer Renderer
	registry *edp.Registry
	probes   []string
	now      func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithProbePaths replaces DefaultProbePaths.
func WithProbePaths(paths []string) Option {
	return func(e *Extractor) {
		e.probes = nil
		for _, p := range paths {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if !strings.HasPrefix(p, "/") {
				p = "/" + p
			}
			e.probes = append(e.probes, p)
		}
	}
}

// WithClock sets the clock used for copyright-age checks.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// NewExtractor builds an extractor. A nil registry uses edp.Default().
func NewExtractor(r Renderer, registry *edp.Registry, opts ...Option) *Extractor {
	if registry == nil {
		registry = edp.Default()
	}
	e := &Extractor{
		renderer: r,
		registry: registry,
		probes:   DefaultProbePaths,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SiteURL turns a bare domain or URL into the homepage URL to render. Bare
// domains get https.
func SiteURL(raw string) string {
	domain := model.NormalizeDomain(raw)
	if domain == "" {
		return ""
	}
	scheme := "https"
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "http://") {
		scheme = "http"
	}
	return scheme + "://" + domain
}

// Analyze never returns an error. A homepage that cannot be rendered yields
// a bundle with Error set and no indicators.
func (e *Extractor) Analyze(ctx context.Context, domain string) *model.EvidenceBundle {
	bundle := model.NewEvidenceBundle(model.NormalizeDomain(domain))
	bundle.URL = SiteURL(domain)
	bundle.FetchedAt = e.now().UTC()
	log := zap.L().With(zap.String("domain", bundle.Domain))

	if bundle.URL == "" {
		bundle.Error = "evidence: empty domain"
		metrics.EvidenceFetches.WithLabelValues(metrics.ResultFailure).Inc()
		return bundle
	}

	home, err := e.renderer.Render(ctx, bundle.URL)
	var doc *document
	if err == nil {
		doc, err = parseDocument(home)
	}
	if err != nil {
		metrics.EvidenceFetches.WithLabelValues(metrics.ResultFailure).Inc()
		log.Warn("evidence: fetch failed", zap.Error(err))
		bundle.Error = err.Error()
		return bundle
	}
	metrics.EvidenceFetches.WithLabelValues(metrics.ResultSuccess).Inc()

	bundle.FinalURL = home.FinalURL
	bundle.Renderer = home.Renderer
	bundle.Pages = append(bundle.Pages, home.FinalURL)

	s := &site{home: doc, probes: e.fetchProbes(ctx, home), year: e.now().Year()}
	for _, path := range sortedKeys(s.probes) {
		bundle.Pages = append(bundle.Pages, s.probes[path].page.FinalURL)
	}
	e.evaluate(bundle, s)

	log.Debug("evidence: analyzed",
		zap.String("renderer", home.Renderer),
		zap.Int("pages", len(bundle.Pages)),
		zap.Int("indicators", len(bundle.Indicators)),
	)
	return bundle
}

// fetchProbes renders the probe paths against the homepage's final origin.
// Failures are dropped.
func (e *Extractor) fetchProbes(ctx context.Context, home *Page) map[string]*document {
	out := make(map[string]*document)
	base, err := url.Parse(home.FinalURL)
	if err != nil || base.Host == "" {
		base, err = url.Parse(home.URL)
		if err != nil {
			return out
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeConcurrency)

	for _, path := range e.probes {
		target := (&url.URL{Scheme: base.Scheme, Host: base.Host, Path: path}).String()
		g.Go(func() error {
			page, err := e.renderer.Render(gctx, target)
			if err != nil {
				zap.L().Debug("evidence: probe failed", zap.String("url", target), zap.Error(err))
				return nil
			}
			doc, err := parseDocument(page)
			if err != nil {
				return nil
			}
			mu.Lock()
			out[path] = doc
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return out
}

func (e *Extractor) evaluate(bundle *model.EvidenceBundle, s *site) {
	for _, c := range allChecks() {
		def, ok := e.registry.ByPrefix(c.prefix)
		if !ok {
			continue
		}
		res := c.eval(s)
		bundle.Add(model.Indicator{
			Key:      c.key,
			EDP:      def.ID,
			State:    res.state,
			Points:   c.points,
			Value:    res.value,
			Evidence: res.evidence,
		})
	}
}
