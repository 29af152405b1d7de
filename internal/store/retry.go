package store

import (
	"context"
	"time"

	"github.com/sells-group/gtm-cli/internal/model"
	"github.com/sells-group/gtm-cli/internal/resilience"
)

// RetryStore runs every call of the wrapped Store through resilience.DoVal.
// Only errors classified by resilience.IsRetryable are retried.
type RetryStore struct {
	next Store
	cfg  resilience.RetryConfig
}

// NewRetryStore wraps next with cfg.
func NewRetryStore(next Store, cfg resilience.RetryConfig) *RetryStore {
	return &RetryStore{next: next, cfg: cfg}
}

// Unwrap returns the wrapped store.
func (r *RetryStore) Unwrap() Store { return r.next }

func (r *RetryStore) opts(op string) resilience.RetryConfig {
	cfg := r.cfg
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("store", op)
	}
	return cfg
}

func (r *RetryStore) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return resilience.Do(ctx, r.opts(op), fn)
}

func retryVal[T any](ctx context.Context, r *RetryStore, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	return resilience.DoVal(ctx, r.opts(op), fn)
}

func (r *RetryStore) UpsertCompany(ctx context.Context, c *model.Company) error {
	return r.do(ctx, "upsert_company", func(ctx context.Context) error {
		return r.next.UpsertCompany(ctx, c)
	})
}

func (r *RetryStore) GetCompanyByDomain(ctx context.Context, domain string) (*model.Company, error) {
	return retryVal(ctx, r, "get_company", func(ctx context.Context) (*model.Company, error) {
		return r.next.GetCompanyByDomain(ctx, domain)
	})
}

func (r *RetryStore) ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error) {
	return retryVal(ctx, r, "list_companies", func(ctx context.Context) ([]model.Company, error) {
		return r.next.ListCompanies(ctx, filter)
	})
}

func (r *RetryStore) CampaignExists(ctx context.Context, domain, edp string) (bool, error) {
	return retryVal(ctx, r, "campaign_exists", func(ctx context.Context) (bool, error) {
		return r.next.CampaignExists(ctx, domain, edp)
	})
}

func (r *RetryStore) CreateCampaign(ctx context.Context, c *model.Campaign) error {
	return r.do(ctx, "create_campaign", func(ctx context.Context) error {
		return r.next.CreateCampaign(ctx, c)
	})
}

func (r *RetryStore) CreateOutreach(ctx context.Context, rows []model.Outreach) error {
	return r.do(ctx, "create_outreach", func(ctx context.Context) error {
		return r.next.CreateOutreach(ctx, rows)
	})
}

func (r *RetryStore) ListOutreach(ctx context.Context, campaignID string) ([]model.Outreach, error) {
	return retryVal(ctx, r, "list_outreach", func(ctx context.Context) ([]model.Outreach, error) {
		return r.next.ListOutreach(ctx, campaignID)
	})
}

func (r *RetryStore) MarkOutreachSent(ctx context.Context, campaignID string, at time.Time) (int64, error) {
	return retryVal(ctx, r, "mark_outreach_sent", func(ctx context.Context) (int64, error) {
		return r.next.MarkOutreachSent(ctx, campaignID, at)
	})
}

func (r *RetryStore) UpsertTradeShow(ctx context.Context, show model.TradeShow) error {
	return r.do(ctx, "upsert_trade_show", func(ctx context.Context) error {
		return r.next.UpsertTradeShow(ctx, show)
	})
}

func (r *RetryStore) ListTradeShows(ctx context.Context) ([]model.TradeShow, error) {
	return retryVal(ctx, r, "list_trade_shows", r.next.ListTradeShows)
}

func (r *RetryStore) UpsertExhibitors(ctx context.Context, exhibitors []model.Exhibitor) (int64, error) {
	return retryVal(ctx, r, "upsert_exhibitors", func(ctx context.Context) (int64, error) {
		return r.next.UpsertExhibitors(ctx, exhibitors)
	})
}

func (r *RetryStore) ListExhibitors(ctx context.Context, showName string) ([]model.Exhibitor, error) {
	return retryVal(ctx, r, "list_exhibitors", func(ctx context.Context) ([]model.Exhibitor, error) {
		return r.next.ListExhibitors(ctx, showName)
	})
}

func (r *RetryStore) RecordMetrics(ctx context.Context, metrics []model.PerformanceMetric) error {
	return r.do(ctx, "record_metrics", func(ctx context.Context) error {
		return r.next.RecordMetrics(ctx, metrics)
	})
}

func (r *RetryStore) ListMetrics(ctx context.Context, name string) ([]model.PerformanceMetric, error) {
	return retryVal(ctx, r, "list_metrics", func(ctx context.Context) ([]model.PerformanceMetric, error) {
		return r.next.ListMetrics(ctx, name)
	})
}

func (r *RetryStore) Migrate(ctx context.Context) error {
	return r.do(ctx, "migrate", r.next.Migrate)
}

func (r *RetryStore) Close() error { return r.next.Close() }

var (
	_ Store = (*RetryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
