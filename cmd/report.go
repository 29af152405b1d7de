package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/gtm-cli/internal/model"
	"github.com/sells-group/gtm-cli/internal/report"
	"github.com/sells-group/gtm-cli/internal/store"
)

var (
	reportTier      string
	reportLimit     int
	reportQualified bool
	reportMarkdown  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize scored companies in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		companies, err := st.ListCompanies(ctx, reportFilter())
		if err != nil {
			return eris.Wrap(err, "list companies")
		}

		summary := report.SummarizeCompanies(companies, time.Now())
		if reportMarkdown {
			_, err := cmd.OutOrStdout().Write([]byte(report.Markdown(summary)))
			return err
		}
		report.RenderTable(cmd.OutOrStdout(), summary)
		return nil
	},
}

func reportFilter() store.CompanyFilter {
	f := store.CompanyFilter{Limit: reportLimit, QualifiedOnly: reportQualified}
	switch model.QualificationTier(reportTier) {
	case model.QualTier1, model.QualTier2, model.QualTier3, model.QualUnqualified, model.QualDisqualified:
		f.QualificationTier = model.QualificationTier(reportTier)
	default:
		f.Tier = reportTier
	}
	return f
}

func init() {
	reportCmd.Flags().StringVar(&reportTier, "tier", "", "filter by PSI tier (e.g. TIER_A_IMMEDIATE) or qualification tier (e.g. tier_1)")
	reportCmd.Flags().IntVar(&reportLimit, "limit", 500, "max companies to include")
	reportCmd.Flags().BoolVar(&reportQualified, "qualified", false, "only qualified companies")
	reportCmd.Flags().BoolVar(&reportMarkdown, "markdown", false, "print markdown instead of tables")
	rootCmd.AddCommand(reportCmd)
}
