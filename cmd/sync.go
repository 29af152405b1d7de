package main

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/gtm-cli/internal/model"
	"github.com/sells-group/gtm-cli/internal/store"
	sfpkg "github.com/sells-group/gtm-cli/pkg/salesforce"
)

var (
	syncCreateMissing bool
	syncTier          string
)

const syncPageSize = 500

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push scores to external systems",
}

var syncSalesforceCmd = &cobra.Command{
	Use:   "salesforce",
	Short: "Write PSI, tier and primary EDP to Salesforce Accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("sync"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sf, err := sfpkg.Connect(sfpkg.JWTCreds{
			LoginURL: cfg.Salesforce.LoginURL,
			Username: cfg.Salesforce.Username,
			ClientID: cfg.Salesforce.ClientID,
			KeyPath:  cfg.Salesforce.KeyPath,
		}, sfpkg.WithRateLimit(cfg.Salesforce.RateRPS))
		if err != nil {
			return err
		}

		res, err := syncSalesforce(ctx, sf, st, sfpkg.SyncOptions{CreateMissing: syncCreateMissing}, syncTier)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated %d, created %d, not found %d, failed %d\n",
			res.Updated, res.Created, res.NotFound, res.Failed)
		return nil
	},
}

func init() {
	syncSalesforceCmd.Flags().BoolVar(&syncCreateMissing, "create-missing", false, "create Accounts for companies with no match")
	syncSalesforceCmd.Flags().StringVar(&syncTier, "tier", "", "only sync companies in this PSI tier")
	syncCmd.AddCommand(syncSalesforceCmd)
	rootCmd.AddCommand(syncCmd)
}

// syncSalesforce pushes every scored company and stores the Account ids
// Salesforce matched or created.
func syncSalesforce(ctx context.Context, sf sfpkg.Client, st store.Store, opts sfpkg.SyncOptions, tier string) (sfpkg.SyncResult, error) {
	companies, err := listAll(ctx, st, store.CompanyFilter{Tier: tier})
	if err != nil {
		return sfpkg.SyncResult{}, err
	}

	res, err := sfpkg.SyncScores(ctx, sf, companies, opts)
	for i := range companies {
		c := &companies[i]
		id, ok := res.AccountIDs[c.Domain]
		if !ok || id == c.SalesforceID {
			continue
		}
		c.SalesforceID = id
		if uerr := st.UpsertCompany(ctx, c); uerr != nil {
			zap.L().Warn("store salesforce id", zap.String("domain", c.Domain), zap.Error(uerr))
		}
	}
	if err != nil {
		return res, err
	}

	zap.L().Info("salesforce sync complete",
		zap.Int("companies", len(companies)),
		zap.Int("updated", res.Updated),
		zap.Int("created", res.Created),
		zap.Int("not_found", res.NotFound),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

// listAll pages through ListCompanies.
func listAll(ctx context.Context, st store.Store, filter store.CompanyFilter) ([]model.Company, error) {
	var all []model.Company
	filter.Limit = syncPageSize
	for {
		page, err := st.ListCompanies(ctx, filter)
		if err != nil {
			return nil, eris.Wrap(err, "list companies")
		}
		all = append(all, page...)
		if len(page) < syncPageSize {
			return all, nil
		}
		filter.Offset += len(page)
	}
}
