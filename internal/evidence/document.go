package evidence

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// document is a parsed page plus the lower-cased views the checks match on.
type document struct {
	page *Page
	doc  *goquery.Document
	// text is the visible text with scripts and styles removed.
	text string
	// raw is the lower-cased source, for markers that live in attributes or
	// script URLs.
	raw string
}

var spaceRe = regexp.MustCompile(`\s+`)

func parseDocument(p *Page) (*document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.HTML))
	if err != nil {
		return nil, eris.Wrapf(err, "evidence: parse %s", p.URL)
	}

	visible := goquery.CloneDocument(doc)
	visible.Find("script, style, noscript, template").Remove()
	text := spaceRe.ReplaceAllString(visible.Find("body").Text(), " ")

	return &document{
		page: p,
		doc:  doc,
		text: strings.ToLower(strings.TrimSpace(text)),
		raw:  strings.ToLower(p.HTML),
	}, nil
}

// site is everything the checks can look at for one analysis.
type site struct {
	home   *document
	probes map[string]*document
	year   int
}

func (s *site) pages() []*document {
	out := []*document{s.home}
	for _, path := range sortedKeys(s.probes) {
		out = append(out, s.probes[path])
	}
	return out
}

// productPage returns the first available catalog-like probe.
func (s *site) productPage() *document {
	for _, path := range []string{"/products", "/catalog", "/shop"} {
		if d, ok := s.probes[path]; ok {
			return d
		}
	}
	return nil
}

// findPhrase returns the first phrase found in any page's visible text.
func (s *site) findPhrase(phrases []string) (string, bool) {
	for _, d := range s.pages() {
		for _, p := range phrases {
			if strings.Contains(d.text, p) {
				return p, true
			}
		}
	}
	return "", false
}

// findMarker is findPhrase over the raw source.
func (s *site) findMarker(markers []string) (string, bool) {
	for _, d := range s.pages() {
		for _, m := range markers {
			if strings.Contains(d.raw, m) {
				return m, true
			}
		}
	}
	return "", false
}

var copyrightRe = regexp.MustCompile(`(?:©|\(c\)|copyright)\s*(?:©\s*)?((?:19|20)\d{2})(?:\s*[-–]\s*((?:19|20)\d{2}))?`)

// copyrightYear returns the latest plausible copyright year on the homepage,
// or 0 when none is found.
func copyrightYear(text string, currentYear int) int {
	best := 0
	for _, m := range copyrightRe.FindAllStringSubmatch(text, -1) {
		for _, g := range m[1:] {
			if g == "" {
				continue
			}
			y, err := strconv.Atoi(g)
			if err != nil || y < 1990 || y > currentYear+1 {
				continue
			}
			if y > best {
				best = y
			}
		}
	}
	return best
}
