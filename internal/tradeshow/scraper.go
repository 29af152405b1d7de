package tradeshow

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/gtm-cli/internal/evidence"
	"github.com/sells-group/gtm-cli/internal/model"
	"github.com/sells-group/gtm-cli/internal/resilience"
)

// Hosts that are never an exhibitor's own website.
var ignoredHosts = []string{
	"linkedin.com", "facebook.com", "twitter.com", "x.com", "instagram.com",
	"youtube.com", "google.com", "goo.gl", "bit.ly",
}

// Scraper renders directory pages and parses exhibitors from them.
type Scraper struct {
	renderer    evidence.Renderer
	limiter     *rate.Limiter
	retry       resilience.RetryConfig
	concurrency int
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithLimiter paces page fetches.
func WithLimiter(l *rate.Limiter) Option { return func(s *Scraper) { s.limiter = l } }

// WithRetry sets the retry policy for page fetches.
func WithRetry(cfg resilience.RetryConfig) Option { return func(s *Scraper) { s.retry = cfg } }

// WithConcurrency bounds parallel profile fetches.
func WithConcurrency(n int) Option { return func(s *Scraper) { s.concurrency = n } }

// NewScraper creates a Scraper. The default pace is one page per second.
func NewScraper(r evidence.Renderer, opts ...Option) *Scraper {
	s := &Scraper{
		renderer:    r,
		limiter:     rate.NewLimiter(rate.Limit(1), 1),
		retry:       resilience.DefaultRetryConfig(),
		concurrency: 4,
	}
	for _, o := range opts {
		o(s)
	}
	if s.concurrency <= 0 {
		s.concurrency = 1
	}
	return s
}

// ScrapeShow walks the directory from show.URL, following NextSelector up to
// MaxPages pages. Exhibitors are deduplicated by name. A failure on the first
// page is returned; later page failures end pagination with what was found.
func (s *Scraper) ScrapeShow(ctx context.Context, show ShowConfig) ([]model.Exhibitor, error) {
	if err := show.Validate(); err != nil {
		return nil, err
	}
	maxPages := show.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	log := zap.L().With(zap.String("show", show.Name))

	var (
		out     []model.Exhibitor
		seen    = make(map[string]bool)
		visited = make(map[string]bool)
		next    = show.URL
	)
	for page := 1; page <= maxPages && next != "" && !visited[next]; page++ {
		visited[next] = true
		doc, base, err := s.fetch(ctx, next)
		if err != nil {
			if page == 1 {
				return nil, eris.Wrapf(err, "tradeshow: fetch %s", next)
			}
			log.Warn("tradeshow: stopping pagination", zap.Int("page", page), zap.Error(err))
			break
		}

		found := parseExhibitors(doc, base, show)
		for _, ex := range found {
			key := strings.ToLower(ex.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, ex)
		}
		log.Debug("tradeshow: page parsed", zap.Int("page", page), zap.Int("exhibitors", len(found)))

		next = ""
		if show.NextSelector != "" {
			if href, ok := doc.Find(show.NextSelector).First().Attr("href"); ok {
				next = resolve(base, href)
			}
		}
	}

	if show.FollowProfiles {
		s.resolveProfiles(ctx, out)
	}

	log.Info("tradeshow: scrape complete", zap.Int("exhibitors", len(out)))
	return out, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (*goquery.Document, *url.URL, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, nil, eris.Wrap(err, "tradeshow: rate limit wait")
		}
	}
	cfg := s.retry
	cfg.OnRetry = resilience.RetryLogger("tradeshow", "render")
	page, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*evidence.Page, error) {
		return s.renderer.Render(ctx, pageURL)
	})
	if err != nil {
		return nil, nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, nil, eris.Wrap(err, "tradeshow: parse html")
	}
	final := page.FinalURL
	if final == "" {
		final = pageURL
	}
	base, err := url.Parse(final)
	if err != nil {
		return nil, nil, eris.Wrap(err, "tradeshow: parse page url")
	}
	return doc, base, nil
}

func parseExhibitors(doc *goquery.Document, base *url.URL, show ShowConfig) []model.Exhibitor {
	var out []model.Exhibitor
	doc.Find(show.ItemSelector).Each(func(_ int, item *goquery.Selection) {
		name := text(item, show.NameSelector)
		if name == "" {
			return
		}
		ex := model.Exhibitor{
			ShowName: show.Name,
			Name:     name,
			Booth:    booth(text(item, show.BoothSelector)),
		}

		linkSel := show.LinkSelector
		if linkSel == "" {
			linkSel = "a[href]"
		}
		item.Find(linkSel).Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok {
				return
			}
			abs := resolve(base, href)
			if abs == "" {
				return
			}
			if d := externalDomain(base, abs); d != "" {
				if ex.Domain == "" {
					ex.Domain = d
				}
				return
			}
			if ex.ProfileURL == "" && isHTTP(abs) {
				ex.ProfileURL = abs
			}
		})
		out = append(out, ex)
	})
	return out
}

// resolveProfiles fills Domain from each exhibitor's profile page.
func (s *Scraper) resolveProfiles(ctx context.Context, exhibitors []model.Exhibitor) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	var mu sync.Mutex

	for i := range exhibitors {
		if exhibitors[i].Domain != "" || exhibitors[i].ProfileURL == "" {
			continue
		}
		profile := exhibitors[i].ProfileURL
		g.Go(func() error {
			doc, base, err := s.fetch(gctx, profile)
			if err != nil {
				zap.L().Debug("tradeshow: profile fetch failed", zap.String("url", profile), zap.Error(err))
				return nil
			}
			var domain string
			doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
				href, _ := a.Attr("href")
				domain = externalDomain(base, resolve(base, href))
				return domain == ""
			})
			if domain != "" {
				mu.Lock()
				exhibitors[i].Domain = domain
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
}

func text(item *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.Join(strings.Fields(item.Find(selector).First().Text()), " ")
}

func booth(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 5 && strings.EqualFold(s[:5], "booth") {
		s = strings.TrimLeft(s[5:], " :#")
	}
	return s
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func isHTTP(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}

// externalDomain returns the normalized domain of raw when it points off the
// directory's own site and is not a social or shortener host.
func externalDomain(base *url.URL, raw string) string {
	if !isHTTP(raw) {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	d := model.NormalizeDomain(u.Hostname())
	if d == model.NormalizeDomain(base.Hostname()) {
		return ""
	}
	for _, h := range ignoredHosts {
		if d == h || strings.HasSuffix(d, "."+h) {
			return ""
		}
	}
	return d
}
