package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scouthq/paperscout/internal/domain"
	"github.com/scouthq/paperscout/internal/logger"
	"github.com/scouthq/paperscout/internal/provider"
	"github.com/scouthq/paperscout/internal/repository"
)

// Batcher groups unprocessed articles into provider batch jobs.
type Batcher struct {
	articles *repository.ArticleRepository
	jobs     *repository.BatchJobRepository
	gateway  Gateway
	logger   *logger.Logger
}

// NewBatcher creates a new Batcher.
func NewBatcher(
	articles *repository.ArticleRepository,
	jobs *repository.BatchJobRepository,
	gateway Gateway,
	log *logger.Logger,
) *Batcher {
	return &Batcher{articles: articles, jobs: jobs, gateway: gateway, logger: log}
}

// SelectUnprocessed returns up to limit articles eligible for submission:
// unprocessed and not referenced by any open batch job, oldest fetch first.
func (b *Batcher) SelectUnprocessed(ctx context.Context, limit int) ([]domain.Article, error) {
	return b.articles.ListUnprocessed(ctx, limit)
}

// CreateBatch submits the articles through the gateway and, only on success,
// persists a pending job and claims the articles for it. A submission failure
// leaves no local state behind; the next scheduled run retries naturally.
func (b *Batcher) CreateBatch(ctx context.Context, articles []domain.Article) (*domain.BatchJob, error) {
	if len(articles) == 0 {
		return nil, domain.ErrNoWorkAvailable
	}

	requests := make([]provider.ItemRequest, 0, len(articles))
	ids := make([]string, 0, len(articles))
	for _, a := range articles {
		requests = append(requests, provider.ItemRequest{
			ItemID:   a.ID,
			Title:    a.Title,
			Abstract: a.Abstract,
		})
		ids = append(ids, a.ID)
	}

	key, err := b.gateway.SubmitBatch(ctx, requests)
	if err != nil {
		return nil, fmt.Errorf("failed to submit batch: %w", err)
	}

	job := &domain.BatchJob{
		ID:             uuid.New().String(),
		CorrelationKey: key,
		ItemCount:      len(articles),
		Status:         domain.BatchJobStatusPending,
		CreatedAt:      time.Now(),
	}
	if err := b.jobs.Create(ctx, job); err != nil {
		// The provider batch exists but was never recorded; its results
		// are simply never applied and the articles stay selectable.
		return nil, fmt.Errorf("failed to persist batch job %s: %w", key, err)
	}
	if err := b.articles.ClaimForBatch(ctx, ids, job.ID); err != nil {
		return nil, fmt.Errorf("failed to claim articles for job %s: %w", job.ID, err)
	}

	b.logger.WithFields(logger.Fields{
		logger.FieldJobID:          job.ID,
		logger.FieldCorrelationKey: key,
		logger.FieldCount:          len(articles),
	}).Info("Created batch job")

	return job, nil
}
