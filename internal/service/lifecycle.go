package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/scouthq/paperscout/internal/domain"
	"github.com/scouthq/paperscout/internal/logger"
	"github.com/scouthq/paperscout/internal/provider"
	"github.com/scouthq/paperscout/internal/repository"
)

// ErrorMessageMaxAge is recorded on jobs abandoned by the age cutoff.
const ErrorMessageMaxAge = "exceeded_max_age"

// LifecycleManager advances open batch jobs through their status machine by
// polling the provider. A job only ever moves forward; per-job failures
// inside one tick are isolated from the remaining jobs.
type LifecycleManager struct {
	jobs     *repository.BatchJobRepository
	articles *repository.ArticleRepository
	applier  *ResultApplier
	gateway  Gateway
	maxAge   time.Duration
	logger   *logger.Logger
	ticking  atomic.Bool
	now      func() time.Time
}

// NewLifecycleManager creates a new LifecycleManager. maxAge bounds how long
// a non-terminal job is polled before being forcibly failed.
func NewLifecycleManager(
	jobs *repository.BatchJobRepository,
	articles *repository.ArticleRepository,
	applier *ResultApplier,
	gateway Gateway,
	maxAge time.Duration,
	log *logger.Logger,
) *LifecycleManager {
	return &LifecycleManager{
		jobs:     jobs,
		articles: articles,
		applier:  applier,
		gateway:  gateway,
		maxAge:   maxAge,
		logger:   log,
		now:      time.Now,
	}
}

// TickSummary aggregates the outcome of one poll pass.
type TickSummary struct {
	Checked         int    `json:"checked"`
	Completed       int    `json:"completed"`
	Failed          int    `json:"failed"`
	StillPending    int    `json:"still_pending"`
	ArticlesUpdated int    `json:"articles_updated"`
	FirstError      string `json:"first_error,omitempty"`
}

// Tick polls every open job once. An invocation that overlaps an in-flight
// tick is skipped entirely and returns domain.ErrTickInProgress. Only a
// ledger read failure escapes as an error; everything per-job is contained.
func (lm *LifecycleManager) Tick(ctx context.Context) (*TickSummary, error) {
	if !lm.ticking.CompareAndSwap(false, true) {
		lm.logger.Warn("Skipping poll tick: previous tick still running")
		return nil, domain.ErrTickInProgress
	}
	defer lm.ticking.Store(false)

	jobs, err := lm.jobs.ListOpen(ctx)
	if err != nil {
		return nil, err
	}

	summary := &TickSummary{}
	for i := range jobs {
		lm.checkJob(ctx, &jobs[i], summary)
	}

	lm.logger.WithFields(logger.Fields{
		"checked":   summary.Checked,
		"completed": summary.Completed,
		"failed":    summary.Failed,
		"pending":   summary.StillPending,
	}).Info("Poll tick complete")

	return summary, nil
}

// checkJob advances one job. Errors are recorded on the summary and logged
// against the job; they never propagate to the caller.
func (lm *LifecycleManager) checkJob(ctx context.Context, job *domain.BatchJob, summary *TickSummary) {
	summary.Checked++
	log := lm.logger.WithFields(logger.Fields{
		logger.FieldJobID:          job.ID,
		logger.FieldCorrelationKey: job.CorrelationKey,
	})

	// Bound indefinite polling: too-old jobs are failed without asking the
	// provider again.
	if lm.maxAge > 0 && lm.now().Sub(job.CreatedAt) > lm.maxAge {
		lm.failJob(ctx, job, ErrorMessageMaxAge, summary, log)
		return
	}

	status, err := lm.gateway.GetStatus(ctx, job.CorrelationKey)
	if err != nil {
		// Transient by assumption; the job stays as-is and is retried on
		// the next tick.
		lm.noteError(summary, err.Error())
		log.WithError(err).Error("Failed to poll batch status")
		return
	}

	switch status.State {
	case provider.StateEnded:
		updatedCount, failedCount, err := lm.applier.Apply(ctx, job.CorrelationKey)
		if err != nil {
			// Leave the job open so application is retried next tick.
			lm.noteError(summary, err.Error())
			log.WithError(err).Error("Failed to apply batch results")
			return
		}
		if err := lm.jobs.MarkCompleted(ctx, job.ID, lm.now()); err != nil {
			lm.noteError(summary, err.Error())
			log.WithError(err).Error("Failed to mark job completed")
			return
		}
		summary.Completed++
		summary.ArticlesUpdated += updatedCount
		log.WithFields(logger.Fields{
			"updated": updatedCount,
			"failed":  failedCount,
		}).Info("Batch job completed")

	case provider.StateFailed, provider.StateExpired, provider.StateCanceled:
		lm.failJob(ctx, job, "batch_"+status.State, summary, log)

	default:
		// in_progress or canceling: record forward progress from pending.
		if err := lm.jobs.MarkProcessing(ctx, job.ID); err != nil {
			lm.noteError(summary, err.Error())
			log.WithError(err).Error("Failed to mark job processing")
			return
		}
		summary.StillPending++
	}
}

func (lm *LifecycleManager) failJob(ctx context.Context, job *domain.BatchJob, message string, summary *TickSummary, log *logger.Logger) {
	if err := lm.jobs.MarkFailed(ctx, job.ID, message, lm.now()); err != nil {
		lm.noteError(summary, err.Error())
		log.WithError(err).Error("Failed to mark job failed")
		return
	}
	// Free the job's unprocessed articles for a future batch.
	if err := lm.articles.ReleaseBatch(ctx, job.ID); err != nil {
		log.WithError(err).Error("Failed to release articles of failed job")
	}
	summary.Failed++
	lm.noteError(summary, message)
	log.WithField("reason", message).Warn("Batch job failed")
}

func (lm *LifecycleManager) noteError(summary *TickSummary, msg string) {
	if summary.FirstError == "" {
		summary.FirstError = msg
	}
}
