// Package batch processes company lists in chunks with pacing and a
// resumable checkpoint.
package batch

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/gtm-cli/internal/config"
	"github.com/sells-group/gtm-cli/internal/model"
)

// Defaults used when the config leaves a field zero.
const (
	DefaultChunkSize    = 50
	DefaultChunkDelay   = 30 * time.Second
	DefaultCompanyDelay = time.Second
)

// ProcessFunc handles one company. A returned error is logged and counted;
// it does not stop the run.
type ProcessFunc func(ctx context.Context, index int, company *model.Company) error

// Stats summarizes a run.
type Stats struct {
	Total     int `json:"total"`
	Skipped   int `json:"skipped"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// Runner walks a company list one at a time.
type Runner struct {
	chunkSize      int
	chunkDelay     time.Duration
	companyDelay   time.Duration
	checkpointPath string
	resume         bool
	limiter        *rate.Limiter
	sleep          func(ctx context.Context, d time.Duration) error
	now            func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithChunkSize sets how many companies run between checkpoints.
func WithChunkSize(n int) Option { return func(r *Runner) { r.chunkSize = n } }

// WithChunkDelay sets the pause after each chunk.
func WithChunkDelay(d time.Duration) Option { return func(r *Runner) { r.chunkDelay = d } }

// WithCompanyDelay sets the pause between companies.
func WithCompanyDelay(d time.Duration) Option { return func(r *Runner) { r.companyDelay = d } }

// WithCheckpoint enables checkpointing to path. When resume is true a
// checkpoint with a matching key is honored.
func WithCheckpoint(path string, resume bool) Option {
	return func(r *Runner) {
		r.checkpointPath = path
		r.resume = resume
	}
}

// WithLimiter paces company starts.
func WithLimiter(l *rate.Limiter) Option { return func(r *Runner) { r.limiter = l } }

// WithSleep overrides the context-aware sleep. Tests use it to skip delays.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Runner) { r.sleep = fn }
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		chunkSize:    DefaultChunkSize,
		chunkDelay:   DefaultChunkDelay,
		companyDelay: DefaultCompanyDelay,
		sleep:        sleepCtx,
		now:          time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	if r.chunkSize <= 0 {
		r.chunkSize = DefaultChunkSize
	}
	return r
}

// NewRunnerFromConfig builds a Runner from the batch section. CLI flags
// are applied by the caller through extra options.
func NewRunnerFromConfig(cfg config.BatchConfig, resume bool, opts ...Option) *Runner {
	base := []Option{
		WithChunkSize(cfg.ChunkSize),
		WithChunkDelay(time.Duration(cfg.ChunkDelaySecs) * time.Second),
		WithCompanyDelay(time.Duration(cfg.CompanyDelayMS) * time.Millisecond),
	}
	if cfg.CheckpointPath != "" {
		base = append(base, WithCheckpoint(cfg.CheckpointPath, resume))
	}
	if cfg.RequestsPerSec > 0 {
		base = append(base, WithLimiter(rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)))
	}
	return NewRunner(append(base, opts...)...)
}

// Run processes companies in order. key identifies the input so a
// checkpoint from a different list is never applied. It returns the
// context error when cancelled; the checkpoint then reflects the last
// completed company.
func (r *Runner) Run(ctx context.Context, key string, companies []*model.Company, fn ProcessFunc) (Stats, error) {
	stats := Stats{Total: len(companies)}
	start := r.startOffset(key, len(companies))
	stats.Skipped = start

	cp := &Checkpoint{Key: key, Offset: start}
	if start > 0 {
		zap.L().Info("batch: resuming from checkpoint", zap.String("key", key), zap.Int("offset", start))
	}

	inChunk := 0
	for i := start; i < len(companies); i++ {
		if err := ctx.Err(); err != nil {
			return stats, r.finish(cp, stats, err)
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return stats, r.finish(cp, stats, err)
			}
		}

		c := companies[i]
		if err := fn(ctx, i, c); err != nil {
			stats.Failed++
			zap.L().Error("batch: company failed",
				zap.Int("index", i),
				zap.String("domain", c.Domain),
				zap.Error(err),
			)
		}
		stats.Processed++
		cp.Offset = i + 1
		inChunk++

		last := i == len(companies)-1
		if inChunk == r.chunkSize && !last {
			inChunk = 0
			if err := r.save(cp, stats); err != nil {
				return stats, err
			}
			zap.L().Info("batch: chunk complete",
				zap.Int("offset", cp.Offset),
				zap.Int("total", stats.Total),
				zap.Int("failed", stats.Failed),
			)
			if err := r.sleep(ctx, r.chunkDelay); err != nil {
				return stats, r.finish(cp, stats, err)
			}
			continue
		}
		if !last {
			if err := r.sleep(ctx, r.companyDelay); err != nil {
				return stats, r.finish(cp, stats, err)
			}
		}
	}

	return stats, r.finish(cp, stats, nil)
}

func (r *Runner) startOffset(key string, total int) int {
	if !r.resume || r.checkpointPath == "" {
		return 0
	}
	cp, err := LoadCheckpoint(r.checkpointPath)
	if err != nil {
		zap.L().Warn("batch: ignoring unreadable checkpoint", zap.Error(err))
		return 0
	}
	if cp == nil || cp.Key != key {
		return 0
	}
	if cp.Offset > total {
		return total
	}
	if cp.Offset < 0 {
		return 0
	}
	return cp.Offset
}

func (r *Runner) save(cp *Checkpoint, stats Stats) error {
	if r.checkpointPath == "" {
		return nil
	}
	cp.Processed = stats.Skipped + stats.Processed
	cp.Failed = stats.Failed
	cp.UpdatedAt = r.now().UTC()
	return cp.Save(r.checkpointPath)
}

// finish saves the final checkpoint and returns cause, or the save error
// when cause is nil.
func (r *Runner) finish(cp *Checkpoint, stats Stats, cause error) error {
	saveErr := r.save(cp, stats)
	if cause != nil {
		if saveErr != nil {
			zap.L().Warn("batch: checkpoint save failed", zap.Error(saveErr))
		}
		return eris.Wrap(cause, "batch: run interrupted")
	}
	return saveErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
