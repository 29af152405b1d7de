package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/gtm-cli/internal/model"
	"github.com/sells-group/gtm-cli/internal/store"
	"github.com/sells-group/gtm-cli/pkg/notion"
)

var importKeepStatus bool

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import prospects from external systems",
}

var importNotionCmd = &cobra.Command{
	Use:   "notion",
	Short: "Import queued leads from the Notion lead database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("import"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		nc := notion.NewClient(cfg.Notion.Token)
		stats, err := importLeads(ctx, nc, st, cfg.Notion.LeadDB, !importKeepStatus)
		if err != nil {
			return err
		}

		zap.L().Info("notion import complete",
			zap.Int("leads", stats.Leads),
			zap.Int("created", stats.Created),
			zap.Int("updated", stats.Updated),
			zap.Int("skipped", stats.Skipped),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "%d leads: %d new, %d updated, %d skipped\n",
			stats.Leads, stats.Created, stats.Updated, stats.Skipped)
		return nil
	},
}

func init() {
	importNotionCmd.Flags().BoolVar(&importKeepStatus, "keep-status", false, "leave imported leads in Queued status")
	importCmd.AddCommand(importNotionCmd)
	rootCmd.AddCommand(importCmd)
}

type importStats struct {
	Leads   int
	Created int
	Updated int
	Skipped int
}

// importLeads upserts every queued lead as a company. Fields already known
// for an existing company are kept. Leads without a domain are skipped and
// left queued.
func importLeads(ctx context.Context, nc notion.Client, st store.Store, dbID string, markImported bool) (importStats, error) {
	var stats importStats

	pages, err := notion.QueryQueuedLeads(ctx, nc, dbID)
	if err != nil {
		return stats, err
	}
	stats.Leads = len(pages)

	for _, page := range pages {
		lead, ok := notion.PageToCompany(page)
		if !ok {
			stats.Skipped++
			zap.L().Warn("notion lead has no domain", zap.String("page_id", string(page.ID)))
			continue
		}

		existing, err := st.GetCompanyByDomain(ctx, lead.Domain)
		switch {
		case errors.Is(err, store.ErrNotFound):
			if err := st.UpsertCompany(ctx, &lead); err != nil {
				return stats, eris.Wrapf(err, "import lead %s", lead.Domain)
			}
			stats.Created++
		case err != nil:
			return stats, eris.Wrapf(err, "lookup %s", lead.Domain)
		default:
			mergeLead(existing, &lead)
			if err := st.UpsertCompany(ctx, existing); err != nil {
				return stats, eris.Wrapf(err, "import lead %s", lead.Domain)
			}
			stats.Updated++
		}

		if markImported {
			if err := notion.SetStatus(ctx, nc, string(page.ID), notion.StatusImported); err != nil {
				zap.L().Warn("mark lead imported", zap.String("domain", lead.Domain), zap.Error(err))
			}
		}
	}
	return stats, nil
}

// mergeLead fills the gaps in c from lead.
func mergeLead(c, lead *model.Company) {
	c.NotionPageID = lead.NotionPageID
	if c.Name == "" {
		c.Name = lead.Name
	}
	if c.EmployeeCount == nil {
		c.EmployeeCount = lead.EmployeeCount
	}
	if c.Industry == "" {
		c.Industry = lead.Industry
	}
	if c.Contact.Email == "" {
		c.Contact.Email = lead.Contact.Email
	}
}
