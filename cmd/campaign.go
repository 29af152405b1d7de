package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/gtm-cli/internal/pipeline"
)

var campaignFlags batchFlags

var campaignCmd = &cobra.Command{
	Use:   "campaign <file>",
	Short: "Score prospects and generate outreach campaigns for qualified ones",
	Long: "Runs the full pipeline with campaign generation. Campaigns are delivered to " +
		"webhook.url; with --dry-run the payloads are written under <output>/payloads " +
		"and no campaign rows are stored.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, args[0], pipeline.ModeCampaign, campaignFlags)
	},
}

func init() {
	campaignFlags.register(campaignCmd)
	campaignCmd.Flags().BoolVar(&campaignFlags.dryRun, "dry-run", false, "write webhook payloads to disk instead of sending")
	rootCmd.AddCommand(campaignCmd)
}
