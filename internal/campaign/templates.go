package campaign

import (
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/gtm-cli/internal/edp"
)

// Variant is one interchangeable message for a stage. NeedsShow variants
// are only picked when the company has an upcoming trade show, and the rest
// only when it does not.
type Variant struct {
	Subject   string `yaml:"subject,omitempty"`
	Body      string `yaml:"body"`
	NeedsShow bool   `yaml:"needs_show,omitempty"`
}

// AdVariant is ad copy for one platform.
type AdVariant struct {
	Platform string `yaml:"platform"`
	Headline string `yaml:"headline"`
	Body     string `yaml:"body"`
	CTA      string `yaml:"cta"`
}

// EDPCopy is the pain-specific language spliced into stage templates.
type EDPCopy struct {
	Hooks      []string    `yaml:"hooks"`
	ValueProps []string    `yaml:"value_props"`
	Proof      []string    `yaml:"proof"`
	Ads        []AdVariant `yaml:"ads"`
}

// Templates is the full copy pack.
type Templates struct {
	Stages  map[string][]Variant `yaml:"stages"`
	EDPs    map[string]EDPCopy   `yaml:"edps"`
	Default EDPCopy              `yaml:"default"`
}

// AdPlatforms are the platforms ad suggestions are produced for, in order.
var AdPlatforms = []string{"linkedin", "google", "meta"}

// For returns the copy for an EDP, falling back to Default.
func (t *Templates) For(edpID string) EDPCopy {
	if c, ok := t.EDPs[edpID]; ok {
		return c
	}
	return t.Default
}

// LoadTemplates overlays a YAML copy pack on the built-in one. Stages and
// EDPs present in the file replace the built-in entries wholesale.
func LoadTemplates(path string) (*Templates, error) {
	t := DefaultTemplates()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("campaign: templates file not found, using built-in copy", zap.String("path", path))
		return t, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "campaign: read templates")
	}

	var over Templates
	if err := yaml.Unmarshal(data, &over); err != nil {
		return nil, eris.Wrapf(err, "campaign: parse %s", path)
	}
	for stage, vs := range over.Stages {
		if len(vs) == 0 {
			return nil, eris.Errorf("campaign: stage %q has no variants", stage)
		}
		t.Stages[stage] = vs
	}
	for id, c := range over.EDPs {
		t.EDPs[id] = c
	}
	if len(over.Default.Hooks) > 0 {
		t.Default = over.Default
	}
	return t, nil
}

// DefaultTemplates returns the built-in copy pack.
func DefaultTemplates() *Templates {
	return &Templates{
		Stages: map[string][]Variant{
			StageIntro: {
				{
					Subject: "{{company}} and {{edp_name}}",
					Body: "Hi {{first_name}},\n\nI spent a few minutes on {{company}}'s website and one thing stood out: {{finding}}.\n\n" +
						"{{pain_hook}}\n\n{{value_prop}}\n\nWorth a 15-minute conversation?\n\n{{sender}}",
				},
				{
					Subject: "A question about {{company}}'s product data",
					Body: "Hi {{first_name}},\n\n{{pain_hook}} While reviewing {{company}} online I noticed this: {{finding}}.\n\n" +
						"{{value_prop}}\n\nOpen to comparing notes next week?\n\n{{sender}}",
				},
			},
			StageConnect: {
				{Body: "Hi {{first_name}}, I work with manufacturers and distributors on {{edp_name}}. Noticed a few things on {{company}}'s site worth sharing. Happy to connect."},
				{Body: "Hi {{first_name}}, we help teams like {{company}} get ahead of {{edp_name}}. Would love to connect and swap ideas."},
			},
			StageValue: {
				{
					Subject: "Re: {{company}} and {{edp_name}}",
					Body: "Hi {{first_name}},\n\nFollowing up with something concrete. {{value_prop}}\n\n" +
						"For {{company}}, the first place I would look is this: {{finding}}.\n\n{{sender}}",
				},
				{
					Subject: "One idea for {{company}}",
					Body: "Hi {{first_name}},\n\n{{pain_hook}}\n\nHere is what usually changes first: {{value_prop}}\n\n{{sender}}",
				},
			},
			StageEngage: {
				{Body: "{{first_name}}, curious how {{company}} is thinking about {{edp_name}} this year. Sent a note by email with a couple of specifics."},
				{Body: "{{first_name}}, saw a lot of teams tackling {{edp_name}} lately. Happy to share what has worked for distributors your size."},
			},
			StageProof: {
				{
					Subject: "How a distributor fixed {{edp_name}}",
					Body: "Hi {{first_name}},\n\n{{proof}}\n\nThe starting point looked a lot like {{company}} today: {{finding}}.\n\n" +
						"Want the short version of how they did it?\n\n{{sender}}",
				},
				{
					Subject: "{{edp_name}}: what good looks like",
					Body: "Hi {{first_name}},\n\n{{proof}}\n\nIf that sounds useful for {{company}}, I can walk you through it in 15 minutes.\n\n{{sender}}",
				},
			},
			StageUrgency: {
				{
					Subject:   "Before {{trade_show}}",
					NeedsShow: true,
					Body: "Hi {{first_name}},\n\n{{trade_show}} is {{days_until_show}} days out. Buyers will look up {{company}} online before and after " +
						"they stop by the booth, and right now they will find this: {{finding}}.\n\n{{value_prop}}\n\n" +
						"Could we get 20 minutes on the calendar before the show?\n\n{{sender}}",
				},
				{
					Subject:   "{{company}} at {{trade_show}}",
					NeedsShow: true,
					Body: "Hi {{first_name}},\n\nWith {{trade_show}} {{days_until_show}} days away, now is when booth traffic gets decided online. " +
						"{{pain_hook}}\n\nHappy to share a pre-show checklist.\n\n{{sender}}",
				},
				{
					Subject: "Timing for {{company}}",
					Body: "Hi {{first_name}},\n\nMost teams we talk to plan fixes for {{edp_name}} a quarter ahead of their busy season. " +
						"{{pain_hook}}\n\nIs this on the roadmap for {{company}}?\n\n{{sender}}",
				},
			},
			StageBreakup: {
				{
					Subject: "Closing the loop",
					Body: "Hi {{first_name}},\n\nI have not heard back, so I will assume {{edp_name}} is not a priority at {{company}} right now. " +
						"If that changes, just reply to this note.\n\n{{sender}}",
				},
				{
					Subject: "Should I stop reaching out?",
					Body: "Hi {{first_name}},\n\nLast note from me. If improving how buyers find and order from {{company}} comes up later, " +
						"I am one reply away.\n\n{{sender}}",
				},
			},
		},
		EDPs: map[string]EDPCopy{
			edp.CatalogComplexity: {
				Hooks: []string{
					"Large catalogs lose buyers when they cannot filter down to the right part in a few clicks.",
					"When a catalog lives in PDFs, every question turns into a phone call to your inside sales team.",
				},
				ValueProps: []string{
					"SuperCat turns complex catalogs into searchable, filterable product pages your buyers can self-serve from.",
					"We structure your product data once so every SKU is findable by spec, application and category.",
				},
				Proof: []string{
					"A 40,000-SKU industrial distributor replaced their PDF catalog with faceted search and cut product questions to inside sales by a third.",
				},
				Ads: []AdVariant{
					{Platform: "linkedin", Headline: "Your catalog is too big for PDFs", Body: "Help buyers find the right SKU in seconds, not phone calls.", CTA: "See how"},
					{Platform: "google", Headline: "Searchable B2B Product Catalogs", Body: "Faceted search and filters for complex catalogs.", CTA: "Get a demo"},
					{Platform: "meta", Headline: "Stop losing buyers in your catalog", Body: "Modern product discovery for manufacturers and distributors.", CTA: "Learn more"},
				},
			},
			edp.ProductDataDecay: {
				Hooks: []string{
					"Missing prices, images and spec sheets quietly send buyers to competitors who have them.",
					"Stale product content is the first thing a buyer notices and the last thing teams have time to fix.",
				},
				ValueProps: []string{
					"SuperCat keeps pricing, imagery and specifications complete and current across every channel.",
					"We centralize product data so updates land everywhere at once instead of page by page.",
				},
				Proof: []string{
					"One manufacturer filled 8,000 missing spec sheets in six weeks and saw quote requests rise the following quarter.",
				},
				Ads: []AdVariant{
					{Platform: "linkedin", Headline: "Is your product data out of date?", Body: "Complete specs, images and pricing, kept current automatically.", CTA: "Audit my data"},
					{Platform: "google", Headline: "Fix Stale Product Data", Body: "Centralized product content for B2B sellers.", CTA: "Start free audit"},
					{Platform: "meta", Headline: "Buyers notice missing specs", Body: "Keep every product page complete and accurate.", CTA: "Learn more"},
				},
			},
			edp.TechnologyObsolescence: {
				Hooks: []string{
					"Buyers now research on phones, and sites built a decade ago make that painful.",
					"An aging web stack makes every product update slower and every buyer visit shorter.",
				},
				ValueProps: []string{
					"SuperCat gives you a modern, mobile-first product experience without replatforming your whole business.",
					"We layer a fast, modern catalog on top of the systems you already run.",
				},
				Proof: []string{
					"A regional distributor moved off a 2012-era site to a mobile-first catalog and doubled mobile sessions in a quarter.",
				},
				Ads: []AdVariant{
					{Platform: "linkedin", Headline: "Your website is older than your newest SKU", Body: "Modernize product discovery without a full replatform.", CTA: "See how"},
					{Platform: "google", Headline: "Modern B2B Catalog Platform", Body: "Mobile-first product pages for distributors.", CTA: "Get a demo"},
					{Platform: "meta", Headline: "Buyers are on mobile. Are you?", Body: "A fast, modern catalog in weeks, not years.", CTA: "Learn more"},
				},
			},
			edp.ChannelConflict: {
				Hooks: []string{
					"Selling direct while supporting dealers is a balancing act, and inconsistent data makes it harder.",
					"When dealers and your own site show different products and prices, every channel loses trust.",
				},
				ValueProps: []string{
					"SuperCat syndicates one source of product truth to your site, your dealers and your marketplaces.",
					"We keep MAP-compliant, consistent product content in every channel you sell through.",
				},
				Proof: []string{
					"A multi-brand manufacturer gave 300 dealers the same product feed as their own site and ended a year of pricing disputes.",
				},
				Ads: []AdVariant{
					{Platform: "linkedin", Headline: "One catalog for every channel", Body: "Consistent product data for dealers, distributors and direct.", CTA: "See how"},
					{Platform: "google", Headline: "Dealer Product Syndication", Body: "Keep every channel on the same product data.", CTA: "Get a demo"},
					{Platform: "meta", Headline: "End channel conflict", Body: "Same products, same specs, everywhere you sell.", CTA: "Learn more"},
				},
			},
			edp.SalesEnablement: {
				Hooks: []string{
					"Reps and buyers who cannot search, browse on mobile or order online end up calling in for everything.",
					"When self-service is missing, your best reps spend their day answering product lookups.",
				},
				ValueProps: []string{
					"SuperCat gives reps and buyers search, mobile access and online ordering from one catalog.",
					"We put your full catalog in your reps' pockets and let buyers reorder without a phone call.",
				},
				Proof: []string{
					"A distributor with 25 field reps rolled out a searchable mobile catalog and moved 40% of reorders online.",
				},
				Ads: []AdVariant{
					{Platform: "linkedin", Headline: "Give your reps a catalog that keeps up", Body: "Search, mobile and online ordering for B2B sales teams.", CTA: "See how"},
					{Platform: "google", Headline: "B2B Sales Enablement Catalog", Body: "Self-service search and ordering for your buyers.", CTA: "Get a demo"},
					{Platform: "meta", Headline: "Stop taking orders by phone", Body: "Let buyers search and reorder online, any time.", CTA: "Learn more"},
				},
			},
		},
		Default: EDPCopy{
			Hooks:      []string{"Buyers expect to find, compare and order products online without calling in."},
			ValueProps: []string{"SuperCat helps manufacturers and distributors modernize how buyers find and order products."},
			Proof:      []string{"Teams like yours typically see fewer support calls and more online orders within a quarter."},
			Ads: []AdVariant{
				{Platform: "linkedin", Headline: "Modern product discovery for B2B", Body: "Help buyers find and order faster.", CTA: "See how"},
				{Platform: "google", Headline: "B2B Product Catalog Platform", Body: "Search, filters and ordering for distributors.", CTA: "Get a demo"},
				{Platform: "meta", Headline: "Make buying from you easy", Body: "A modern catalog your buyers will actually use.", CTA: "Learn more"},
			},
		},
	}
}
