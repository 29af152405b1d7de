package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gtm-cli/internal/campaign"
	"github.com/sells-group/gtm-cli/internal/db"
	"github.com/sells-group/gtm-cli/internal/edp"
	"github.com/sells-group/gtm-cli/internal/evidence"
	"github.com/sells-group/gtm-cli/internal/model"
	"github.com/sells-group/gtm-cli/internal/pipeline"
	"github.com/sells-group/gtm-cli/internal/qualify"
	"github.com/sells-group/gtm-cli/internal/resilience"
	"github.com/sells-group/gtm-cli/internal/scoring"
	"github.com/sells-group/gtm-cli/internal/store"
	"github.com/sells-group/gtm-cli/internal/webhook"
)

// envOptions are command-level overrides applied on top of the config.
type envOptions struct {
	mode pipeline.Mode
	// policy overrides scoring.policy when set.
	policy string
	// payloadDir, when set, writes webhook payloads there instead of
	// POSTing them.
	payloadDir string
}

// appEnv holds everything the analysis and campaign commands need.
type appEnv struct {
	Store    store.Store
	Renderer evidence.Renderer
	Pipeline *pipeline.Pipeline
	Registry *edp.Registry

	closeRenderer func() error
}

// Close releases the browser and the store.
func (e *appEnv) Close() {
	if e.closeRenderer != nil {
		if err := e.closeRenderer(); err != nil {
			zap.L().Warn("close renderer", zap.Error(err))
		}
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens and migrates the configured store, wrapped with retries.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "gtm.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, db.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	st = store.NewRetryStore(st, resilience.FromConfig(cfg.Retry))
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initAppEnv builds the store, render chain, scorers, campaign generator,
// webhook delivery and the pipeline. Callers should defer env.Close().
func initAppEnv(ctx context.Context, opts envOptions) (*appEnv, error) {
	if opts.policy != "" {
		cfg.Scoring.Policy = opts.policy
	}

	registry, err := edp.Load(cfg.Scoring.EDPConfigPath)
	if err != nil {
		return nil, eris.Wrap(err, "load edp definitions")
	}
	policy, err := scoring.PolicyFromConfig(cfg.Scoring)
	if err != nil {
		return nil, err
	}
	rules, err := qualify.LoadRules(cfg.Qualification.RulesPath)
	if err != nil {
		return nil, err
	}
	qualUnknown, ok := model.ParseUnknownPolicy(cfg.Qualification.UnknownPolicy)
	if !ok {
		return nil, eris.Errorf("unknown qualification.unknown_policy %q", cfg.Qualification.UnknownPolicy)
	}

	var (
		gen    *campaign.Generator
		sender pipeline.Deliverer
	)
	if opts.mode.Campaigns() {
		gen, err = initGenerator(registry)
		if err != nil {
			return nil, err
		}
		sender, err = initDeliverer(opts.payloadDir)
		if err != nil {
			return nil, err
		}
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	calendar, err := initCalendar(ctx, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	renderer, closeRenderer := evidence.NewRendererFromConfig(cfg)
	extractor := evidence.NewExtractor(renderer, registry, evidence.WithProbePaths(cfg.Extractor.ProbePaths))

	p := pipeline.New(st, extractor,
		scoring.NewCalculator(registry, policy),
		qualify.NewScorer(rules, qualify.WithUnknownPolicy(qualUnknown)),
		gen, sender,
		pipeline.WithCalendar(calendar),
		pipeline.WithMaxEvidence(cfg.Webhook.MaxEvidence),
	)

	return &appEnv{
		Store:         st,
		Renderer:      renderer,
		Pipeline:      p,
		Registry:      registry,
		closeRenderer: closeRenderer,
	}, nil
}

func initGenerator(registry *edp.Registry) (*campaign.Generator, error) {
	templates, err := campaign.LoadTemplates(cfg.Campaign.TemplatesPath)
	if err != nil {
		return nil, err
	}
	writer, err := campaign.NewWriterFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	opts := []campaign.Option{
		campaign.WithTemplates(templates),
		campaign.WithSeed(cfg.Campaign.Seed),
		campaign.WithSender(cfg.Campaign.SenderName),
	}
	if writer != nil {
		opts = append(opts, campaign.WithWriter(writer))
		zap.L().Info("campaign copy rewriting enabled", zap.String("provider", cfg.LLM.Provider))
	}
	return campaign.NewGenerator(registry, opts...), nil
}

func initDeliverer(payloadDir string) (pipeline.Deliverer, error) {
	if payloadDir != "" {
		zap.L().Info("dry run: writing webhook payloads to disk", zap.String("dir", payloadDir))
		sink, err := webhook.NewFileSink(payloadDir)
		if err != nil {
			return nil, err
		}
		return sink, nil
	}
	if cfg.Webhook.URL == "" {
		return nil, eris.New("webhook.url is required for campaign runs (GTM_WEBHOOK_URL), or use --dry-run")
	}
	return webhook.NewSender(cfg.Webhook.URL, time.Duration(cfg.Webhook.TimeoutSecs)*time.Second), nil
}

// initCalendar merges configured show dates with scraped shows in the
// store. Configured dates win.
func initCalendar(ctx context.Context, st store.Store) (*pipeline.Calendar, error) {
	calendar := pipeline.NewCalendar()

	stored, err := st.ListTradeShows(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "list trade shows")
	}
	for _, s := range stored {
		calendar.Add(s)
	}

	configured, err := pipeline.ShowsFromConfig(cfg.TradeShows)
	if err != nil {
		return nil, err
	}
	for _, s := range configured {
		calendar.Add(s)
	}
	return calendar, nil
}
