// Package backfill drains the deferred lookup queue on a schedule. The
// driver spaces items out with a fixed delay so batch resolution does
// not hammer rate-limited providers; the spacing belongs here, not in
// the resolution engine.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/yourflix/catalogd/internal/config"
	"github.com/yourflix/catalogd/internal/database"
	"github.com/yourflix/catalogd/internal/metadata"
	"github.com/yourflix/catalogd/internal/resolve"
)

// Queue is the pending-lookup store the runner drains.
type Queue interface {
	NextPending(ctx context.Context, limit int) ([]database.QueueItem, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, lastError string) error
}

// Resolver resolves one identifier.
type Resolver interface {
	Resolve(ctx context.Context, raw string, opts resolve.Options) (*metadata.Resolved, error)
}

// Runner periodically resolves queued lookups in batches.
type Runner struct {
	queue    Queue
	resolver Resolver
	cfg      config.BackfillConfig
	gocron   gocron.Scheduler
	logger   zerolog.Logger
}

// NewRunner creates a backfill runner and registers its interval job.
func NewRunner(cfg config.BackfillConfig, queue Queue, resolver Resolver, logger zerolog.Logger) (*Runner, error) {
	gs, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	r := &Runner{
		queue:    queue,
		resolver: resolver,
		cfg:      cfg,
		gocron:   gs,
		logger:   logger.With().Str("component", "backfill").Logger(),
	}

	_, err = gs.NewJob(
		gocron.DurationJob(time.Duration(cfg.IntervalMinutes)*time.Minute),
		gocron.NewTask(r.runScheduled),
		gocron.WithName("backfill"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create backfill job: %w", err)
	}

	return r, nil
}

// Start starts the interval schedule.
func (r *Runner) Start() {
	r.logger.Info().
		Int("intervalMinutes", r.cfg.IntervalMinutes).
		Int("batchSize", r.cfg.BatchSize).
		Msg("Starting backfill runner")
	r.gocron.Start()
}

// Stop stops the schedule gracefully.
func (r *Runner) Stop() error {
	r.logger.Info().Msg("Stopping backfill runner")
	return r.gocron.Shutdown()
}

func (r *Runner) runScheduled() {
	processed, failed, err := r.RunBatch(context.Background())
	if err != nil {
		r.logger.Error().Err(err).Msg("Backfill batch failed")
		return
	}
	if processed+failed > 0 {
		r.logger.Info().
			Int("processed", processed).
			Int("failed", failed).
			Msg("Backfill batch completed")
	}
}

// RunBatch resolves up to BatchSize pending items, spacing items with
// the configured delay. It returns how many items resolved and how
// many failed; a cancelled context stops the batch between items.
func (r *Runner) RunBatch(ctx context.Context) (processed, failed int, err error) {
	items, err := r.queue.NextPending(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch pending items: %w", err)
	}

	delay := time.Duration(r.cfg.ItemDelayMs) * time.Millisecond

	for i, item := range items {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return processed, failed, ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return processed, failed, err
		}

		if err := r.resolveItem(ctx, item); err != nil {
			failed++
		} else {
			processed++
		}
	}

	return processed, failed, nil
}

func (r *Runner) resolveItem(ctx context.Context, item database.QueueItem) error {
	_, err := r.resolver.Resolve(ctx, item.Identifier, resolve.Options{Hint: item.Hint})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		msg := err.Error()
		if errors.Is(err, resolve.ErrNotFound) {
			msg = "no match found"
		}
		r.logger.Debug().Err(err).Str("identifier", item.Identifier).Msg("Backfill item failed")
		if merr := r.queue.MarkFailed(ctx, item.ID, msg); merr != nil {
			r.logger.Warn().Err(merr).Str("id", item.ID).Msg("Failed to mark item failed")
		}
		return err
	}

	if merr := r.queue.MarkDone(ctx, item.ID); merr != nil {
		r.logger.Warn().Err(merr).Str("id", item.ID).Msg("Failed to mark item done")
	}
	return nil
}
