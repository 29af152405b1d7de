// Package store persists companies, campaigns, outreach, trade shows and
// metrics. All company writes are upserts keyed by domain; the last write
// wins.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/gtm-cli/internal/model"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = eris.New("store: not found")

// CompanyFilter selects companies for ListCompanies.
type CompanyFilter struct {
	Tier              string                  `json:"tier,omitempty"`
	QualificationTier model.QualificationTier `json:"qualification_tier,omitempty"`
	QualifiedOnly     bool                    `json:"qualified_only,omitempty"`
	MinPSI            float64                 `json:"min_psi,omitempty"`
	Source            model.Source            `json:"source,omitempty"`
	Limit             int                     `json:"limit,omitempty"`
	Offset            int                     `json:"offset,omitempty"`
}

// Store defines the persistence interface for the GTM pipeline.
type Store interface {
	// Companies
	UpsertCompany(ctx context.Context, c *model.Company) error
	GetCompanyByDomain(ctx context.Context, domain string) (*model.Company, error)
	ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error)

	// Campaigns and outreach
	CampaignExists(ctx context.Context, domain, edp string) (bool, error)
	CreateCampaign(ctx context.Context, c *model.Campaign) error
	CreateOutreach(ctx context.Context, rows []model.Outreach) error
	ListOutreach(ctx context.Context, campaignID string) ([]model.Outreach, error)
	MarkOutreachSent(ctx context.Context, campaignID string, at time.Time) (int64, error)

	// Trade shows
	UpsertTradeShow(ctx context.Context, show model.TradeShow) error
	ListTradeShows(ctx context.Context) ([]model.TradeShow, error)
	UpsertExhibitors(ctx context.Context, exhibitors []model.Exhibitor) (int64, error)
	ListExhibitors(ctx context.Context, showName string) ([]model.Exhibitor, error)

	// Metrics
	RecordMetrics(ctx context.Context, metrics []model.PerformanceMetric) error
	ListMetrics(ctx context.Context, name string) ([]model.PerformanceMetric, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

func listLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}

func validateCompany(c *model.Company) error {
	if c == nil {
		return eris.New("store: nil company")
	}
	if model.NormalizeDomain(c.Domain) == "" {
		return eris.New("store: company domain is required")
	}
	return nil
}
