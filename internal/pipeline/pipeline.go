// Package pipeline runs one company through evidence extraction, scoring,
// qualification and, when asked, campaign generation and delivery.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gtm-cli/internal/campaign"
	"github.com/sells-group/gtm-cli/internal/metrics"
	"github.com/sells-group/gtm-cli/internal/model"
	"github.com/sells-group/gtm-cli/internal/qualify"
	"github.com/sells-group/gtm-cli/internal/scoring"
	"github.com/sells-group/gtm-cli/internal/store"
	"github.com/sells-group/gtm-cli/internal/webhook"
)

// Mode selects which stages run.
type Mode string

const (
	ModeAnalysis Mode = "analysis"
	ModeCampaign Mode = "campaign"
	ModeBoth     Mode = "both"
)

// ParseMode parses s, defaulting to analysis when blank.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeAnalysis, nil
	case ModeAnalysis, ModeCampaign, ModeBoth:
		return Mode(s), nil
	default:
		return "", eris.Errorf("pipeline: unknown mode %q (want analysis, campaign or both)", s)
	}
}

// Campaigns reports whether the mode generates campaigns.
func (m Mode) Campaigns() bool { return m == ModeCampaign || m == ModeBoth }

// Skip reasons recorded on a Result.
const (
	SkipNotQualified   = "not_qualified"
	SkipCampaignExists = "campaign_exists"
	SkipNoPrimaryEDP   = "no_primary_edp"
)

// Analyzer produces website evidence for a domain. It never fails; fetch
// errors are carried on the bundle.
type Analyzer interface {
	Analyze(ctx context.Context, domain string) *model.EvidenceBundle
}

// Deliverer sends a webhook payload.
type Deliverer interface {
	Send(ctx context.Context, v any) error
}

// Options control a single Process call.
type Options struct {
	Mode Mode
	// DryRun delivers payloads but persists no campaign or outreach rows.
	DryRun bool
}

// Result is the outcome for one company.
type Result struct {
	Company       *model.Company        `json:"company"`
	Evidence      *model.EvidenceBundle `json:"evidence,omitempty"`
	Scores        *model.PainScores     `json:"scores,omitempty"`
	Qualification model.Qualification   `json:"qualification"`
	Campaign      *model.Campaign       `json:"campaign,omitempty"`
	SkipReason    string                `json:"skip_reason,omitempty"`
	WebhookSent   bool                  `json:"webhook_sent"`
	WebhookError  string                `json:"webhook_error,omitempty"`
	Error         string                `json:"error,omitempty"`
	DurationMS    int64                 `json:"duration_ms"`
}

// Pipeline wires the stages together. All dependencies are injected.
type Pipeline struct {
	store       store.Store
	extractor   Analyzer
	calculator  *scoring.Calculator
	qualifier   *qualify.Scorer
	generator   *campaign.Generator
	sender      Deliverer
	calendar    *Calendar
	maxEvidence int
	now         func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCalendar sets the trade show calendar used to date named shows.
func WithCalendar(c *Calendar) Option { return func(p *Pipeline) { p.calendar = c } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

// WithMaxEvidence caps the evidence list in webhook payloads.
func WithMaxEvidence(n int) Option { return func(p *Pipeline) { p.maxEvidence = n } }

// New creates a Pipeline. generator and sender may be nil when only
// analysis runs.
func New(
	st store.Store,
	extractor Analyzer,
	calc *scoring.Calculator,
	qualifier *qualify.Scorer,
	gen *campaign.Generator,
	sender Deliverer,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		store:       st,
		extractor:   extractor,
		calculator:  calc,
		qualifier:   qualifier,
		generator:   gen,
		sender:      sender,
		calendar:    NewCalendar(),
		maxEvidence: webhook.DefaultMaxEvidence,
		now:         time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process analyzes one company and, for campaign modes, generates and
// delivers its campaign. The returned error is non-nil only when the
// company could not be scored or persisted; webhook failures are recorded
// on the Result and leave outreach pending.
func (p *Pipeline) Process(ctx context.Context, company *model.Company, opts Options) (*Result, error) {
	start := p.now()
	res, err := p.process(ctx, company, opts)
	if res != nil {
		res.DurationMS = p.now().Sub(start).Milliseconds()
		if err != nil {
			res.Error = err.Error()
		}
	}

	switch {
	case err != nil:
		metrics.PipelineCompanies.WithLabelValues(metrics.ResultFailure).Inc()
	case res.SkipReason != "":
		metrics.PipelineCompanies.WithLabelValues(metrics.ResultSkipped).Inc()
	default:
		metrics.PipelineCompanies.WithLabelValues(metrics.ResultSuccess).Inc()
	}
	return res, err
}

func (p *Pipeline) process(ctx context.Context, company *model.Company, opts Options) (*Result, error) {
	if company == nil {
		return nil, eris.New("pipeline: nil company")
	}
	company.Domain = model.NormalizeDomain(company.Domain)
	res := &Result{Company: company}
	if company.Domain == "" {
		return res, eris.Errorf("pipeline: company %q has no domain", company.Name)
	}
	if opts.Mode == "" {
		opts.Mode = ModeAnalysis
	}

	log := zap.L().With(zap.String("domain", company.Domain), zap.String("mode", string(opts.Mode)))
	log.Info("pipeline: processing company")

	company.TradeShows = p.calendar.Resolve(company.TradeShows)

	bundle := p.extractor.Analyze(ctx, company.Domain)
	res.Evidence = bundle
	if bundle != nil && bundle.Error != "" {
		log.Warn("pipeline: evidence unavailable, using neutral website scores", zap.String("error", bundle.Error))
	}

	now := p.now()
	scores := p.calculator.Score(company, bundle, now)
	company.ApplyScores(scores)
	res.Scores = scores
	metrics.PipelinePSI.Observe(scores.WeightedPSI)

	qual := p.qualifier.Qualify(company)
	company.ApplyQualification(qual)
	res.Qualification = qual

	if err := p.store.UpsertCompany(ctx, company); err != nil {
		return res, eris.Wrap(err, "pipeline: persist company")
	}

	log.Info("pipeline: scored",
		zap.Float64("psi_weighted", scores.WeightedPSI),
		zap.String("tier", scores.TierWeighted),
		zap.String("primary_edp", scores.PrimaryEDPWeighted),
		zap.String("qualification", string(qual.Tier)),
	)

	if !opts.Mode.Campaigns() {
		return res, nil
	}
	return res, p.runCampaign(ctx, res, opts, log)
}

func (p *Pipeline) runCampaign(ctx context.Context, res *Result, opts Options, log *zap.Logger) error {
	company := res.Company
	if p.generator == nil || p.sender == nil {
		return eris.New("pipeline: campaign mode needs a generator and a webhook sender")
	}
	if !res.Qualification.Qualified {
		res.SkipReason = SkipNotQualified
		log.Info("pipeline: skipping campaign", zap.String("reason", res.SkipReason))
		return nil
	}
	if res.Scores.PrimaryEDPWeighted == "" {
		res.SkipReason = SkipNoPrimaryEDP
		return nil
	}

	exists, err := p.store.CampaignExists(ctx, company.Domain, res.Scores.PrimaryEDPWeighted)
	if err != nil {
		return eris.Wrap(err, "pipeline: check campaign")
	}
	if exists {
		res.SkipReason = SkipCampaignExists
		log.Info("pipeline: skipping campaign", zap.String("reason", res.SkipReason))
		return nil
	}

	camp := p.generator.Generate(ctx, company, res.Scores, res.Evidence)
	res.Campaign = camp
	now := p.now().UTC()
	rows := campaign.Outreach(camp, company, now)

	if !opts.DryRun {
		if err := p.store.CreateCampaign(ctx, camp); err != nil {
			return eris.Wrap(err, "pipeline: persist campaign")
		}
		if err := p.store.CreateOutreach(ctx, rows); err != nil {
			return eris.Wrap(err, "pipeline: persist outreach")
		}
	}

	payload := webhook.BuildPayload(company, res.Scores, res.Qualification, camp, res.Evidence, p.maxEvidence, now)
	if err := p.sender.Send(ctx, payload); err != nil {
		res.WebhookError = err.Error()
		log.Warn("pipeline: webhook failed, outreach left pending", zap.Error(err))
		return nil
	}
	res.WebhookSent = true

	if opts.DryRun {
		return nil
	}
	n, err := p.store.MarkOutreachSent(ctx, camp.ID, now)
	if err != nil {
		return eris.Wrap(err, "pipeline: mark outreach sent")
	}
	p.recordMetrics(ctx, camp, res.Scores, n, now)

	log.Info("pipeline: campaign delivered",
		zap.String("campaign_id", camp.ID),
		zap.Int64("outreach_sent", n),
	)
	return nil
}

// recordMetrics stores per-campaign observations. Failures are logged only.
func (p *Pipeline) recordMetrics(ctx context.Context, camp *model.Campaign, scores *model.PainScores, sent int64, now time.Time) {
	ms := []model.PerformanceMetric{
		{CampaignID: camp.ID, Name: "outreach_sent", Value: float64(sent), RecordedAt: now},
		{CampaignID: camp.ID, Name: "psi_weighted", Value: scores.WeightedPSI, RecordedAt: now},
		{CampaignID: camp.ID, Name: "urgency_multiplier", Value: scores.Multiplier, RecordedAt: now},
	}
	if err := p.store.RecordMetrics(ctx, ms); err != nil {
		zap.L().Warn("pipeline: record metrics failed", zap.String("campaign_id", camp.ID), zap.Error(err))
	}
}
