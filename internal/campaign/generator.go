package campaign

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/gtm-cli/internal/edp"
	"github.com/sells-group/gtm-cli/internal/model"
)

const defaultFinding = "a few gaps in how buyers find and order products online"

// Option configures a Generator.
type Option func(*Generator)

// WithTemplates replaces the built-in copy pack.
func WithTemplates(t *Templates) Option { return func(g *Generator) { g.templates = t } }

// WithCadence replaces DefaultCadence.
func WithCadence(c []Touch) Option { return func(g *Generator) { g.cadence = c } }

// WithSeed pins variant selection.
func WithSeed(seed int64) Option { return func(g *Generator) { g.seed = seed } }

// WithSender sets the {{sender}} sign-off.
func WithSender(name string) Option { return func(g *Generator) { g.sender = name } }

// WithWriter enables LLM rewriting of message bodies.
func WithWriter(w Writer) Option { return func(g *Generator) { g.writer = w } }

// WithWriterTimeout bounds each rewrite call.
func WithWriterTimeout(d time.Duration) Option { return func(g *Generator) { g.writerTimeout = d } }

// WithClock overrides the campaign timestamp source.
func WithClock(now func() time.Time) Option { return func(g *Generator) { g.now = now } }

// Generator builds campaigns. Variant picks come from a PRNG seeded by the
// configured seed and the (domain, EDP) pair, so output does not depend on
// the order companies are processed in.
type Generator struct {
	registry      *edp.Registry
	templates     *Templates
	cadence       []Touch
	seed          int64
	sender        string
	writer        Writer
	writerTimeout time.Duration
	now           func() time.Time
}

// NewGenerator returns a generator over registry. A nil registry uses
// edp.Default().
func NewGenerator(registry *edp.Registry, opts ...Option) *Generator {
	if registry == nil {
		registry = edp.Default()
	}
	g := &Generator{
		registry:      registry,
		templates:     DefaultTemplates(),
		cadence:       DefaultCadence(),
		seed:          42,
		sender:        "The SuperCat Team",
		writerTimeout: 30 * time.Second,
		now:           time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate builds the campaign for the company's weighted primary EDP.
func (g *Generator) Generate(ctx context.Context, company *model.Company, scores *model.PainScores, bundle *model.EvidenceBundle) *model.Campaign {
	edpID := g.primaryEDP(company, scores)
	def, _ := g.registry.Get(edpID)
	rng := g.rng(company.Domain, edpID)
	copyPack := g.templates.For(edpID)

	findings := g.findings(bundle, edpID)
	vars := map[string]string{
		"company":    displayName(company),
		"first_name": firstName(company),
		"edp_name":   nonEmpty(def.Name, edpID),
		"finding":    strings.TrimSuffix(findings[0], "."),
		"sender":     g.sender,
	}
	hasShow := scores != nil && scores.TradeShow != ""
	if hasShow {
		vars["trade_show"] = scores.TradeShow
		vars["days_until_show"] = strconv.Itoa(scores.DaysUntilShow)
	}
	vars["pain_hook"] = render(pick(rng, copyPack.Hooks), vars)
	vars["value_prop"] = render(pick(rng, copyPack.ValueProps), vars)
	vars["proof"] = render(pick(rng, copyPack.Proof), vars)

	c := &model.Campaign{
		ID:            campaignID(company.Domain, edpID, g.seed),
		CompanyDomain: company.Domain,
		CompanyName:   vars["company"],
		PrimaryEDP:    edpID,
		Seed:          g.seed,
		CreatedAt:     g.now().UTC(),
	}

	for _, touch := range g.cadence {
		v := g.variant(rng, touch.Stage, hasShow)
		msg := model.Message{
			Step:    touch.Step,
			Day:     touch.Day,
			Channel: touch.Channel,
			Stage:   touch.Stage,
			Body:    render(v.Body, vars),
		}
		if touch.Channel == model.ChannelEmail {
			msg.Subject = render(v.Subject, vars)
		}
		g.rewrite(ctx, &msg, vars, def, findings)

		if touch.Channel == model.ChannelLinkedIn {
			c.LinkedInSequence = append(c.LinkedInSequence, msg)
		} else {
			c.EmailSequence = append(c.EmailSequence, msg)
		}
	}

	for _, platform := range AdPlatforms {
		var options []AdVariant
		for _, ad := range copyPack.Ads {
			if strings.EqualFold(ad.Platform, platform) {
				options = append(options, ad)
			}
		}
		if len(options) == 0 {
			continue
		}
		ad := options[rng.IntN(len(options))]
		c.AdSuggestions = append(c.AdSuggestions, model.AdSuggestion{
			Platform: platform,
			Headline: render(ad.Headline, vars),
			Body:     render(ad.Body, vars),
			CTA:      ad.CTA,
		})
	}
	return c
}

func (g *Generator) primaryEDP(company *model.Company, scores *model.PainScores) string {
	switch {
	case scores != nil && scores.PrimaryEDPWeighted != "":
		return scores.PrimaryEDPWeighted
	case company.PrimaryEDP != "":
		return company.PrimaryEDP
	default:
		return g.registry.IDs()[0]
	}
}

// findings returns at least one finding, preferring the primary EDP's own.
func (g *Generator) findings(bundle *model.EvidenceBundle, edpID string) []string {
	if bundle != nil {
		if f := bundle.Findings[edpID]; len(f) > 0 {
			return f
		}
		if f := bundle.EvidenceList(g.registry.IDs(), 3); len(f) > 0 {
			return f
		}
	}
	return []string{defaultFinding}
}

func (g *Generator) rng(domain, edpID string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(domain + "|" + edpID)) //nolint:errcheck
	return rand.New(rand.NewPCG(uint64(g.seed), h.Sum64()))
}

func (g *Generator) variant(rng *rand.Rand, stage string, hasShow bool) Variant {
	all := g.templates.Stages[stage]
	var fit []Variant
	for _, v := range all {
		if v.NeedsShow == hasShow {
			fit = append(fit, v)
		}
	}
	if len(fit) == 0 {
		fit = all
	}
	if len(fit) == 0 {
		return Variant{}
	}
	return fit[rng.IntN(len(fit))]
}

// rewrite asks the writer for a better body and keeps the template text on
// any failure.
func (g *Generator) rewrite(ctx context.Context, msg *model.Message, vars map[string]string, def edp.Definition, findings []string) {
	if g.writer == nil || msg.Body == "" {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, g.writerTimeout)
	defer cancel()

	out, err := g.writer.Rewrite(wctx, RewriteRequest{
		Company:  vars["company"],
		EDPName:  nonEmpty(def.Name, def.ID),
		Findings: findings,
		Channel:  msg.Channel,
		Stage:    msg.Stage,
		Draft:    msg.Body,
	})
	if err != nil {
		zap.L().Warn("campaign: rewrite failed, keeping template",
			zap.String("company", vars["company"]),
			zap.Int("step", msg.Step),
			zap.Error(err),
		)
		return
	}
	if cleaned := StripSubjectLines(out); cleaned != "" {
		msg.Body = cleaned
		msg.LLM = true
	}
}

// Outreach expands a campaign into pending outreach rows, one per message.
func Outreach(c *model.Campaign, company *model.Company, now time.Time) []model.Outreach {
	msgs := c.Messages()
	out := make([]model.Outreach, 0, len(msgs))
	for _, m := range msgs {
		recipient := company.Contact.Email
		if m.Channel == model.ChannelLinkedIn {
			recipient = company.Contact.LinkedInURL
		}
		out = append(out, model.Outreach{
			ID:            uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s:%d", c.ID, m.Step))).String(),
			CampaignID:    c.ID,
			CompanyDomain: c.CompanyDomain,
			Step:          m.Step,
			Day:           m.Day,
			Channel:       m.Channel,
			Recipient:     recipient,
			Subject:       m.Subject,
			Body:          m.Body,
			Status:        model.OutreachPending,
			CreatedAt:     now.UTC(),
		})
	}
	return out
}

func campaignID(domain, edpID string, seed int64) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("gtm:campaign:%s:%s:%d", domain, edpID, seed))).String()
}

func pick(rng *rand.Rand, options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[rng.IntN(len(options))]
}

func render(tmpl string, vars map[string]string) string {
	if !strings.Contains(tmpl, "{{") {
		return tmpl
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// displayName title-cases names that arrive all lower-case and derives one
// from the domain when the name is blank.
func displayName(c *model.Company) string {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = c.Domain
		if i := strings.IndexByte(name, '.'); i > 0 {
			name = name[:i]
		}
		name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	}
	if name == strings.ToLower(name) {
		return cases.Title(language.English).String(name)
	}
	return name
}

func firstName(c *model.Company) string {
	n := strings.TrimSpace(c.Contact.FirstName)
	if n == "" {
		return "there"
	}
	if n == strings.ToLower(n) {
		return cases.Title(language.English).String(n)
	}
	return n
}

func nonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
