package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/gtm-cli/internal/edp"
	"github.com/sells-group/gtm-cli/internal/model"
	"github.com/sells-group/gtm-cli/internal/pipeline"
)

var (
	scoreEmployees int
	scoreSKUs      int
	scoreChannels  int
	scoreJSON      bool
	scorePolicy    string
)

var scoreCmd = &cobra.Command{
	Use:   "score <domain>",
	Short: "Analyze and score a single domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if scorePolicy != "" {
			cfg.Scoring.Policy = scorePolicy
		}
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		company := scoreCompany(cmd, args[0])
		if company.Domain == "" {
			return eris.Errorf("invalid domain %q", args[0])
		}

		env, err := initAppEnv(ctx, envOptions{mode: pipeline.ModeAnalysis, policy: scorePolicy})
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Process(ctx, company, pipeline.Options{Mode: pipeline.ModeAnalysis})
		if err != nil {
			return eris.Wrap(err, "score")
		}

		if scoreJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printScore(cmd.OutOrStdout(), env.Registry, res)
		return nil
	},
}

func init() {
	scoreCmd.Flags().IntVar(&scoreEmployees, "employees", 0, "known employee count")
	scoreCmd.Flags().IntVar(&scoreSKUs, "skus", 0, "known catalog SKU count")
	scoreCmd.Flags().IntVar(&scoreChannels, "channels", 0, "known sales channel count")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print the full result as JSON")
	scoreCmd.Flags().StringVar(&scorePolicy, "policy", "", "tier policy: dual or tam")
	rootCmd.AddCommand(scoreCmd)
}

// scoreCompany builds a manual company from the argument and the
// firmographic flags that were set.
func scoreCompany(cmd *cobra.Command, domain string) *model.Company {
	c := &model.Company{
		Domain: model.NormalizeDomain(domain),
		Source: model.SourceManual,
	}
	if cmd.Flags().Changed("employees") {
		c.EmployeeCount = model.IntPtr(scoreEmployees)
	}
	if cmd.Flags().Changed("skus") {
		c.CatalogSKUCount = model.IntPtr(scoreSKUs)
	}
	if cmd.Flags().Changed("channels") {
		c.ChannelCount = model.IntPtr(scoreChannels)
	}
	return c
}

func printScore(w io.Writer, registry *edp.Registry, res *pipeline.Result) {
	s := res.Scores
	fmt.Fprintf(w, "%s\n", res.Company.DisplayName())
	if res.Evidence != nil && res.Evidence.Error != "" {
		fmt.Fprintf(w, "website unavailable: %s\n", res.Evidence.Error)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"EDP", "Score", "Findings"})
	for _, def := range registry.All() {
		var findings []string
		if res.Evidence != nil {
			findings = res.Evidence.Findings[def.ID]
		}
		t.AppendRow(table.Row{def.ID, fmt.Sprintf("%.1f", s.EDPScores[def.ID]), strings.Join(findings, "; ")})
	}
	t.AppendFooter(table.Row{"PSI weighted", fmt.Sprintf("%.1f", s.WeightedPSI), s.TierWeighted})
	t.Render()

	fmt.Fprintf(w, "PSI averaged: %.1f (%s)\n", s.AveragedPSI, s.TierAveraged)
	fmt.Fprintf(w, "Primary EDP: %s\n", s.PrimaryEDPWeighted)
	if s.TradeShow != "" {
		fmt.Fprintf(w, "Trade show: %s in %d days (x%.2f)\n", s.TradeShow, s.DaysUntilShow, s.Multiplier)
	}
	fmt.Fprintf(w, "Qualification: %s (%.2f)\n", res.Qualification.Tier, res.Qualification.Score)
}
