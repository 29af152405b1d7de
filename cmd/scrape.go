package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/gtm-cli/internal/evidence"
	"github.com/sells-group/gtm-cli/internal/resilience"
	"github.com/sells-group/gtm-cli/internal/tradeshow"
)

var scrapeShowName string

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Collect prospects from external sources",
}

var scrapeTradeshowCmd = &cobra.Command{
	Use:   "tradeshow",
	Short: "Scrape a configured trade show exhibitor directory into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := scrapeTradeShow(cmd.Context(), cmd.OutOrStdout(), scrapeShowName)
		return err
	},
}

// scrapeTradeShow scrapes the named configured show and persists its
// exhibitors and company stubs.
func scrapeTradeShow(ctx context.Context, w io.Writer, name string) (tradeshow.PersistResult, error) {
	if err := cfg.Validate("scrape"); err != nil {
		return tradeshow.PersistResult{}, err
	}
	show, err := tradeshow.Find(cfg.TradeShows, name)
	if err != nil {
		return tradeshow.PersistResult{}, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return tradeshow.PersistResult{}, err
	}
	defer st.Close() //nolint:errcheck

	renderer, closeRenderer := evidence.NewRendererFromConfig(cfg)
	defer closeRenderer() //nolint:errcheck

	scraper := tradeshow.NewScraper(renderer, tradeshow.WithRetry(resilience.FromConfig(cfg.Retry)))
	exhibitors, err := scraper.ScrapeShow(ctx, show)
	if err != nil {
		return tradeshow.PersistResult{}, eris.Wrapf(err, "scrape %s", show.Name)
	}

	res, err := tradeshow.Persist(ctx, st, show, exhibitors, time.Now())
	if err != nil {
		return res, err
	}

	zap.L().Info("trade show scraped",
		zap.String("show", show.Name),
		zap.Int64("exhibitors", res.Exhibitors),
		zap.Int("companies_created", res.CompaniesCreated),
		zap.Int("companies_updated", res.CompaniesUpdated),
		zap.Int("without_domain", res.WithoutDomain),
	)
	fmt.Fprintf(w, "%s: %d exhibitors, %d new companies, %d updated, %d without a website\n",
		show.Name, res.Exhibitors, res.CompaniesCreated, res.CompaniesUpdated, res.WithoutDomain)
	return res, nil
}

func init() {
	scrapeTradeshowCmd.Flags().StringVar(&scrapeShowName, "show", "", "trade show name as configured under trade_shows (required)")
	_ = scrapeTradeshowCmd.MarkFlagRequired("show")
	scrapeCmd.AddCommand(scrapeTradeshowCmd)
	rootCmd.AddCommand(scrapeCmd)
}
