package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/gtm-cli/internal/batch"
	"github.com/sells-group/gtm-cli/internal/input"
	"github.com/sells-group/gtm-cli/internal/model"
	"github.com/sells-group/gtm-cli/internal/pipeline"
	"github.com/sells-group/gtm-cli/internal/report"
)

// batchFlags are shared by analyze and campaign.
type batchFlags struct {
	test       int
	output     string
	runType    string
	chunkSize  int
	chunkDelay time.Duration
	resume     bool
	policy     string
	dryRun     bool
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.test, "test", 0, "process only the first N companies")
	cmd.Flags().StringVar(&f.output, "output", "output", "directory for results.json and summary.md")
	cmd.Flags().IntVar(&f.chunkSize, "chunk-size", 0, "companies per chunk (overrides batch.chunk_size)")
	cmd.Flags().DurationVar(&f.chunkDelay, "chunk-delay", 0, "pause between chunks (overrides batch.chunk_delay_secs)")
	cmd.Flags().BoolVar(&f.resume, "resume", false, "resume from the checkpoint if it matches this input")
	cmd.Flags().StringVar(&f.policy, "policy", "", "tier policy: dual or tam (overrides scoring.policy)")
}

var analyzeFlags batchFlags

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Score every prospect in a CSV or XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := pipeline.ParseMode(analyzeFlags.runType)
		if err != nil {
			return err
		}
		return runBatch(cmd, args[0], mode, analyzeFlags)
	},
}

func init() {
	analyzeFlags.register(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeFlags.runType, "type", string(pipeline.ModeAnalysis), "analysis, campaign or both")
	rootCmd.AddCommand(analyzeCmd)
}

// runBatch validates the input file, then processes every row through the
// pipeline under the batch runner and writes the report.
func runBatch(cmd *cobra.Command, path string, mode pipeline.Mode, f batchFlags) error {
	ctx := cmd.Context()

	if f.policy != "" {
		cfg.Scoring.Policy = f.policy
	}
	validateMode := "analyze"
	if mode.Campaigns() {
		validateMode = "campaign"
	}
	if err := cfg.Validate(validateMode); err != nil {
		return err
	}

	companies, err := input.LoadProspects(path)
	if err != nil {
		return eris.Wrap(err, "load prospects")
	}
	companies = limitCompanies(companies, f.test)
	if len(companies) == 0 {
		return eris.Errorf("no companies to process in %s", path)
	}

	opts := envOptions{mode: mode, policy: f.policy}
	if f.dryRun {
		opts.payloadDir = filepath.Join(f.output, "payloads")
	}
	env, err := initAppEnv(ctx, opts)
	if err != nil {
		return err
	}
	defer env.Close()

	runner := batch.NewRunnerFromConfig(cfg.Batch, f.resume, runnerOverrides(cmd, f)...)

	zap.L().Info("batch starting",
		zap.String("file", path),
		zap.String("mode", string(mode)),
		zap.Int("companies", len(companies)),
		zap.Bool("dry_run", f.dryRun),
	)

	results := make([]*pipeline.Result, 0, len(companies))
	stats, runErr := runner.Run(ctx, batchKey(path, mode, len(companies)), companies,
		func(ctx context.Context, _ int, c *model.Company) error {
			res, err := env.Pipeline.Process(ctx, c, pipeline.Options{Mode: mode, DryRun: f.dryRun})
			if res != nil {
				results = append(results, res)
			}
			return err
		})

	if f.resume {
		prev, err := report.LoadResults(f.output)
		if err != nil {
			return err
		}
		results = report.MergeResults(prev, results)
	}

	summary := report.Summarize(results, time.Now())
	if err := report.WriteResults(f.output, results, summary); err != nil {
		return err
	}
	report.RenderTable(cmd.OutOrStdout(), summary)

	zap.L().Info("batch complete",
		zap.Int("processed", stats.Processed),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped_resume", stats.Skipped),
		zap.String("output", f.output),
	)
	if runErr != nil {
		return runErr
	}
	if stats.Processed > 0 && stats.Failed == stats.Processed {
		return eris.Errorf("all %d companies failed", stats.Failed)
	}
	return nil
}

// runnerOverrides turns explicitly set flags into runner options.
func runnerOverrides(cmd *cobra.Command, f batchFlags) []batch.Option {
	var opts []batch.Option
	if cmd.Flags().Changed("chunk-size") {
		opts = append(opts, batch.WithChunkSize(f.chunkSize))
	}
	if cmd.Flags().Changed("chunk-delay") {
		opts = append(opts, batch.WithChunkDelay(f.chunkDelay))
	}
	return opts
}

func limitCompanies(companies []*model.Company, n int) []*model.Company {
	if n > 0 && n < len(companies) {
		return companies[:n]
	}
	return companies
}

// batchKey ties a checkpoint to one input file, mode and size.
func batchKey(path string, mode pipeline.Mode, n int) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return fmt.Sprintf("%s|%s|%d", abs, mode, n)
}
