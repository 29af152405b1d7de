package evidence

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/gtm-cli/internal/model"
)

type outcome struct {
	state    model.IndicatorState
	value    any
	evidence string
}

func present(evidence string, value any) outcome {
	return outcome{state: model.StatePresent, value: value, evidence: evidence}
}

func absent(value any) outcome {
	return outcome{state: model.StateAbsent, value: value}
}

func unknown() outcome {
	return outcome{state: model.StateUnknown}
}

// check is one website signal. prefix ties it to an EDP in the registry.
type check struct {
	key    string
	prefix string
	points float64
	eval   func(*site) outcome
}

// heavyPageBytes is the homepage size above which EDP3_Slow_Or_Heavy fires.
const heavyPageBytes = 1536 * 1024

var (
	largeCatalogPhrases = []string{
		"thousands of products", "thousands of skus", "10,000+ skus", "10,000+ products",
		"over 10,000", "over 5,000", "extensive catalog", "extensive product line",
		"complete line of", "full line of",
	}
	requestCatalogPhrases = []string{
		"request a catalog", "request catalog", "download our catalog", "download catalog",
		"download the catalog", "print catalog",
	}
	pricingPhrases = []string{
		"call for pricing", "call for price", "request a quote", "request pricing",
		"contact us for pricing", "request quote",
	}
	specSheetPhrases = []string{
		"spec sheet", "specification sheet", "datasheet", "data sheet", "specifications",
		"technical data",
	}
	modernMarkers = []string{
		"data-reactroot", "react-dom", "__next_data__", "/_next/", "data-v-", "vue.js",
		"vue.min.js", "__nuxt", "ng-version", "angular", "cdn.shopify.com", "shopify",
		"data-mage-init", "magento",
	}
	legacyMarkers = []string{".swf", "shockwave-flash", "<frameset", "<frame "}
	jqueryOldRe   = regexp.MustCompile(`jquery[-.@/]?1\.\d+`)
	dealerPhrases = []string{
		"find a dealer", "where to buy", "dealer locator", "distributor locator",
		"find a distributor", "locate a dealer", "find a retailer",
	}
	ecommerceMarkers = []string{"add to cart", "add-to-cart", "checkout", "shopping cart", "buy now"}
	orderingPhrases  = []string{"add to cart", "checkout", "order online", "shopping cart", "buy now", "place an order"}
	mapPhrases       = []string{
		"minimum advertised price", "map policy", "map pricing", "unilateral pricing policy",
	}
	brandPhrases = []string{"our brands", "family of brands", "portfolio of brands", "brand family"}
	repPhrases   = []string{
		"rep login", "rep portal", "dealer portal", "partner portal", "sales rep",
		"dealer login", "partner login", "find your rep", "find a rep",
	}
)

var catalogChecks = []check{
	{
		key: "EDP1_PDF_Catalog", prefix: "EDP1", points: 25,
		eval: func(s *site) outcome {
			n := countPDFLinks(s)
			if n >= 3 {
				return present(fmt.Sprintf("PDF catalog: %d product documents linked as PDFs", n), n)
			}
			return absent(n)
		},
	},
	{
		key: "EDP1_No_Filters", prefix: "EDP1", points: 20,
		eval: func(s *site) outcome {
			d := s.productPage()
			if d == nil {
				return unknown()
			}
			if d.doc.Find(`select, input[type=checkbox], [class*=filter], [class*=facet], [id*=filter], [id*=facet]`).Length() > 0 {
				return absent(nil)
			}
			return present("No product filtering on catalog pages", nil)
		},
	},
	{
		key: "EDP1_Large_Catalog_Language", prefix: "EDP1", points: 20,
		eval: func(s *site) outcome {
			if p, ok := s.findPhrase(largeCatalogPhrases); ok {
				return present(fmt.Sprintf("Large catalog advertised (%q)", p), p)
			}
			return absent(nil)
		},
	},
	{
		key: "EDP1_Request_Catalog", prefix: "EDP1", points: 15,
		eval: func(s *site) outcome {
			if p, ok := s.findPhrase(requestCatalogPhrases); ok {
				return present(fmt.Sprintf("Catalog request form instead of browsable catalog (%q)", p), p)
			}
			return absent(nil)
		},
	},
	{
		key: "EDP1_No_Category_Nav", prefix: "EDP1", points: 20,
		eval: func(s *site) outcome {
			n := countCategoryLinks(s)
			if n < 3 {
				return present(fmt.Sprintf("No category navigation (%d category links)", n), n)
			}
			return absent(n)
		},
	},
}

var dataChecks = []check{
	{
		key: "EDP2_Call_For_Pricing", prefix: "EDP2", points: 25,
		eval: func(s *site) outcome {
			if p, ok := s.findPhrase(pricingPhrases); ok {
				return present(fmt.Sprintf("Call for pricing instead of listed prices (%q)", p), p)
			}
			return absent(nil)
		},
	},
	{
		key: "EDP2_Missing_Images", prefix: "EDP2", points: 20,
		eval: func(s *site) outcome {
			total, missing := 0, 0
			for _, d := range s.pages() {
				d.doc.Find("img").Each(func(_ int, img *goquery.Selection) {
					total++
					src, _ := img.Attr("src")
					alt, _ := img.Attr("alt")
					if strings.TrimSpace(src) == "" || strings.TrimSpace(alt) == "" {
						missing++
					}
				})
			}
			if total == 0 {
				return unknown()
			}
			ratio := math.Round(float64(missing)/float64(total)*100) / 100
			if ratio > 0.3 {
				return present(fmt.Sprintf("Missing product images: %d of %d images lack a source or alt text", missing, total), ratio)
			}
			return absent(ratio)
		},
	},
	{
		key: "EDP2_Stale_Content", prefix: "EDP2", points: 30,
		eval: func(s *site) outcome {
			y := copyrightYear(s.home.text, s.year)
			if y == 0 {
				return unknown()
			}
			if y < s.year-2 {
				return present(fmt.Sprintf("Stale content: last copyright update %d", y), y)
			}
			return absent(y)
		},
	},
	{
		key: "EDP2_No_Spec_Sheets", prefix: "EDP2", points: 25,
		eval: func(s *site) outcome {
			if _, ok := s.findPhrase(specSheetPhrases); ok {
				return absent(nil)
			}
			return present("No spec sheets or product specifications published", nil)
		},
	},
}

var techChecks = []check{
	{
		key: "EDP3_No_Viewport", prefix: "EDP3", points: 25,
		eval: func(s *site) outcome {
			if hasViewport(s.home) {
				return absent(nil)
			}
			return present("No mobile viewport meta tag", nil)
		},
	},
	{
		key: "EDP3_Old_Copyright", prefix: "EDP3", points: 20,
		eval: func(s *site) outcome {
			y := copyrightYear(s.home.text, s.year)
			if y == 0 {
				return unknown()
			}
			if y < s.year-3 {
				return present(fmt.Sprintf("Outdated copyright year %d", y), y)
			}
			return absent(y)
		},
	},
	{
		key: "EDP3_Legacy_Tech", prefix: "EDP3", points: 25,
		eval: func(s *site) outcome {
			var found []string
			if m, ok := s.findMarker(legacyMarkers); ok {
				found = append(found, strings.Trim(m, "<. "))
			}
			if jqueryOldRe.MatchString(s.home.raw) {
				found = append(found, "jquery 1.x")
			}
			if s.home.doc.Find("table table, table[bgcolor], table[cellpadding]").Length() > 0 {
				found = append(found, "table layout")
			}
			if len(found) == 0 {
				return absent(nil)
			}
			return present("Legacy technology detected: "+strings.Join(found, ", "), found)
		},
	},
	{
		key: "EDP3_No_Modern_Framework", prefix: "EDP3", points: 15,
		eval: func(s *site) outcome {
			if m, ok := s.findMarker(modernMarkers); ok {
				return absent(m)
			}
			return present("No modern framework detected", nil)
		},
	},
	{
		key: "EDP3_Slow_Or_Heavy", prefix: "EDP3", points: 15,
		eval: func(s *site) outcome {
			size := len(s.home.page.HTML)
			if size > heavyPageBytes {
				return present(fmt.Sprintf("Heavy page: homepage is %.1f MB", float64(size)/(1<<20)), size)
			}
			return absent(size)
		},
	},
}

var channelChecks = []check{
	{
		key: "EDP6_Dealer_Locator", prefix: "EDP6", points: 30,
		eval: func(s *site) outcome {
			if p, ok := s.findPhrase(dealerPhrases); ok {
				return present(fmt.Sprintf("Dealer locator present (%q)", p), p)
			}
			return absent(nil)
		},
	},
	{
		key: "EDP6_Direct_Ecommerce", prefix: "EDP6", points: 30,
		eval: func(s *site) outcome {
			_, dealer := s.findPhrase(dealerPhrases)
			_, shop := s.findPhrase(ecommerceMarkers)
			if dealer && shop {
				return present("Direct ecommerce alongside a dealer network", nil)
			}
			return absent(nil)
		},
	},
	{
		key: "EDP6_MAP_Policy", prefix: "EDP6", points: 20,
		eval: func(s *site) outcome {
			if p, ok := s.findPhrase(mapPhrases); ok {
				return present(fmt.Sprintf("MAP policy published (%q)", p), p)
			}
			return absent(nil)
		},
	},
	{
		key: "EDP6_Multiple_Brands", prefix: "EDP6", points: 20,
		eval: func(s *site) outcome {
			if p, ok := s.findPhrase(brandPhrases); ok {
				return present(fmt.Sprintf("Multiple brands sold (%q)", p), p)
			}
			return absent(nil)
		},
	},
}

var enablementChecks = []check{
	{
		key: "EDP7_No_Search", prefix: "EDP7", points: 30,
		eval: func(s *site) outcome {
			if hasSearch(s.home) {
				return absent(nil)
			}
			return present("No product search functionality", nil)
		},
	},
	{
		key: "EDP7_No_Mobile", prefix: "EDP7", points: 20,
		eval: func(s *site) outcome {
			if hasViewport(s.home) || strings.Contains(s.home.raw, "@media") {
				return absent(nil)
			}
			return present("No mobile optimization (no viewport or responsive styles)", nil)
		},
	},
	{
		key: "EDP7_Has_SSL", prefix: "EDP7", points: 20,
		eval: func(s *site) outcome {
			if s.home.page.TLS() {
				return absent(true)
			}
			return present("No SSL: site served over plain http", false)
		},
	},
	{
		key: "EDP7_No_Rep_Portal", prefix: "EDP7", points: 20,
		eval: func(s *site) outcome {
			if _, ok := s.findPhrase(repPhrases); ok {
				return absent(nil)
			}
			return present("No rep portal or dealer login", nil)
		},
	},
	{
		key: "EDP7_No_Online_Ordering", prefix: "EDP7", points: 10,
		eval: func(s *site) outcome {
			if _, ok := s.findPhrase(orderingPhrases); ok {
				return absent(nil)
			}
			return present("No online ordering", nil)
		},
	},
}

// allChecks returns the full indicator battery in EDP order.
func allChecks() []check {
	var out []check
	for _, group := range [][]check{catalogChecks, dataChecks, techChecks, channelChecks, enablementChecks} {
		out = append(out, group...)
	}
	return out
}

func hasViewport(d *document) bool {
	return d.doc.Find(`meta[name=viewport], meta[name=Viewport]`).Length() > 0
}

func hasSearch(d *document) bool {
	sel := `input[type=search], input[name=q], input[name=s], input[name=search], input[name=query], ` +
		`input[name=keyword], input[name=keywords], form[action*=search], [role=search]`
	return d.doc.Find(sel).Length() > 0
}

func countPDFLinks(s *site) int {
	seen := make(map[string]bool)
	for _, d := range s.pages() {
		d.doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href := strings.ToLower(strings.TrimSpace(a.AttrOr("href", "")))
			if i := strings.IndexAny(href, "?#"); i >= 0 {
				href = href[:i]
			}
			if strings.HasSuffix(href, ".pdf") {
				seen[href] = true
			}
		})
	}
	return len(seen)
}

func countCategoryLinks(s *site) int {
	seen := make(map[string]bool)
	docs := []*document{s.home}
	if p := s.productPage(); p != nil {
		docs = append(docs, p)
	}
	for _, d := range docs {
		d.doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href := strings.ToLower(a.AttrOr("href", ""))
			text := strings.ToLower(strings.TrimSpace(a.Text()))
			if strings.Contains(href, "categor") || strings.Contains(href, "/products/") ||
				strings.Contains(href, "/catalog/") || strings.Contains(href, "/collections/") ||
				strings.Contains(text, "category") {
				seen[href] = true
			}
		})
	}
	return len(seen)
}
