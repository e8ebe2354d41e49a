package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/scouthq/paperscout/internal/domain"
	"github.com/scouthq/paperscout/internal/logger"
	"github.com/scouthq/paperscout/internal/repository"
	"github.com/scouthq/paperscout/internal/service"
	"github.com/scouthq/paperscout/internal/source"
)

// Jobs bundles the trigger implementations over the pipeline services.
type Jobs struct {
	producers     []source.Producer
	articles      *repository.ArticleRepository
	notifications *repository.NotificationRepository
	batcher       *service.Batcher
	lifecycle     *service.LifecycleManager
	batchLimit    int
	logger        *logger.Logger
	now           func() time.Time
}

// NewJobs creates the trigger set. batchLimit caps how many articles one
// ingest run submits in a single batch.
func NewJobs(
	producers []source.Producer,
	articles *repository.ArticleRepository,
	notifications *repository.NotificationRepository,
	batcher *service.Batcher,
	lifecycle *service.LifecycleManager,
	batchLimit int,
	log *logger.Logger,
) *Jobs {
	return &Jobs{
		producers:     producers,
		articles:      articles,
		notifications: notifications,
		batcher:       batcher,
		lifecycle:     lifecycle,
		batchLimit:    batchLimit,
		logger:        log,
		now:           time.Now,
	}
}

// IngestAndBatch pulls from every producer, stores new articles, and submits
// one batch of eligible unprocessed articles. A producer failing never stops
// the others, and an empty backlog is a normal outcome, not an error.
func (j *Jobs) IngestAndBatch(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{}

	for _, p := range j.producers {
		log := j.logger.WithField(logger.FieldSource, p.Name())

		fetched, err := p.Fetch(ctx, j.batchLimit)
		if err != nil {
			log.WithError(err).Error("Failed to fetch from producer")
			if summary.Error == "" {
				summary.Error = err.Error()
			}
			continue
		}

		inserted := 0
		for i := range fetched {
			a := &fetched[i]
			if a.ID == "" {
				a.ID = uuid.New().String()
			}
			if a.FetchedAt.IsZero() {
				a.FetchedAt = j.now()
			}
			ok, err := j.articles.Insert(ctx, a)
			if err != nil {
				log.WithError(err).Error("Failed to store article")
				continue
			}
			if !ok {
				continue
			}
			inserted++

			// Best effort; a lost new-item notification is acceptable.
			notifErr := j.notifications.Create(ctx, &domain.Notification{
				ID:        uuid.New().String(),
				ArticleID: a.ID,
				Type:      domain.NotificationTypeNewItem,
				CreatedAt: j.now(),
			})
			if notifErr != nil {
				log.WithField("article_id", a.ID).WithError(notifErr).Error("Failed to create new-item notification")
			}
		}
		summary.Fetched += inserted
		log.WithFields(logger.Fields{
			"received": len(fetched),
			"new":      inserted,
		}).Info("Producer ingest complete")
	}

	eligible, err := j.batcher.SelectUnprocessed(ctx, j.batchLimit)
	if err != nil {
		return summary, err
	}

	job, err := j.batcher.CreateBatch(ctx, eligible)
	if errors.Is(err, domain.ErrNoWorkAvailable) {
		j.logger.Info("No articles eligible for batching")
		return summary, nil
	}
	if err != nil {
		return summary, err
	}

	summary.BatchID = job.ID
	summary.BatchItemCount = job.ItemCount
	return summary, nil
}

// PollBatches runs one lifecycle tick over all open batch jobs.
func (j *Jobs) PollBatches(ctx context.Context) (*RunSummary, error) {
	tick, err := j.lifecycle.Tick(ctx)
	if err != nil {
		return nil, err
	}
	return &RunSummary{
		Checked:   tick.Checked,
		Completed: tick.Completed,
		Failed:    tick.Failed,
		Error:     tick.FirstError,
	}, nil
}
