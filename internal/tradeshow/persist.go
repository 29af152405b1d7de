package tradeshow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gtm-cli/internal/model"
	"github.com/sells-group/gtm-cli/internal/store"
)

// PersistResult counts what Persist wrote.
type PersistResult struct {
	Exhibitors       int64 `json:"exhibitors"`
	CompaniesCreated int   `json:"companies_created"`
	CompaniesUpdated int   `json:"companies_updated"`
	WithoutDomain    int   `json:"without_domain"`
}

// Persist upserts the show and its exhibitors, then makes sure every
// exhibitor with a domain exists as a company attending the show. Existing
// companies keep their data and gain the show reference.
func Persist(ctx context.Context, st store.Store, show ShowConfig, exhibitors []model.Exhibitor, now time.Time) (PersistResult, error) {
	var res PersistResult
	scraped := now.UTC()
	if err := st.UpsertTradeShow(ctx, model.TradeShow{
		Name:      show.Name,
		URL:       show.URL,
		StartsAt:  show.StartsAt,
		ScrapedAt: &scraped,
	}); err != nil {
		return res, eris.Wrap(err, "tradeshow: persist show")
	}

	n, err := st.UpsertExhibitors(ctx, exhibitors)
	if err != nil {
		return res, eris.Wrap(err, "tradeshow: persist exhibitors")
	}
	res.Exhibitors = n

	ref := model.TradeShowRef{Name: show.Name, StartsAt: show.StartsAt}
	for _, ex := range exhibitors {
		domain := model.NormalizeDomain(ex.Domain)
		if domain == "" {
			res.WithoutDomain++
			continue
		}

		existing, err := st.GetCompanyByDomain(ctx, domain)
		switch {
		case errors.Is(err, store.ErrNotFound):
			c := &model.Company{
				Name:       ex.Name,
				Domain:     domain,
				Source:     model.SourceTradeShow,
				TradeShows: []model.TradeShowRef{ref},
			}
			if err := st.UpsertCompany(ctx, c); err != nil {
				return res, eris.Wrapf(err, "tradeshow: create company %s", domain)
			}
			res.CompaniesCreated++
		case err != nil:
			return res, eris.Wrapf(err, "tradeshow: load company %s", domain)
		default:
			if !attends(existing, show.Name) {
				existing.TradeShows = append(existing.TradeShows, ref)
				if err := st.UpsertCompany(ctx, existing); err != nil {
					return res, eris.Wrapf(err, "tradeshow: update company %s", domain)
				}
				res.CompaniesUpdated++
			}
		}
	}

	zap.L().Info("tradeshow: persisted",
		zap.String("show", show.Name),
		zap.Int64("exhibitors", res.Exhibitors),
		zap.Int("companies_created", res.CompaniesCreated),
		zap.Int("companies_updated", res.CompaniesUpdated),
		zap.Int("without_domain", res.WithoutDomain),
	)
	return res, nil
}

func attends(c *model.Company, show string) bool {
	for _, ref := range c.TradeShows {
		if strings.EqualFold(ref.Name, show) {
			return true
		}
	}
	return false
}
