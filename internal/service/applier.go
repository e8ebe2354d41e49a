package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/scouthq/paperscout/internal/logger"
	"github.com/scouthq/paperscout/internal/repository"
)

// ResultApplier merges per-item batch results into article records. Apply is
// idempotent: the processed guard makes a repeated application of the same
// correlation key a no-op for already-applied items.
type ResultApplier struct {
	articles *repository.ArticleRepository
	notifier *InterestNotifier
	gateway  Gateway
	logger   *logger.Logger
	now      func() time.Time
}

// NewResultApplier creates a new ResultApplier.
func NewResultApplier(
	articles *repository.ArticleRepository,
	notifier *InterestNotifier,
	gateway Gateway,
	log *logger.Logger,
) *ResultApplier {
	return &ResultApplier{
		articles: articles,
		notifier: notifier,
		gateway:  gateway,
		logger:   log,
		now:      time.Now,
	}
}

// Apply fetches the results for a batch and applies them item by item.
// Returns how many articles were updated and how many results failed
// (per-item provider failures, orphan results, and storage errors). No item
// is ever counted in both buckets.
func (ra *ResultApplier) Apply(ctx context.Context, correlationKey string) (updated, failed int, err error) {
	results, err := ra.gateway.FetchResults(ctx, correlationKey)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch results for %s: %w", correlationKey, err)
	}

	log := ra.logger.WithField(logger.FieldCorrelationKey, correlationKey)

	for _, res := range results {
		article, err := ra.articles.GetByID(ctx, res.ItemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Orphan result: the provider reported an item we no longer know.
			failed++
			log.WithField("article_id", res.ItemID).Warn("Result references unknown article")
			continue
		}
		if err != nil {
			failed++
			log.WithField("article_id", res.ItemID).WithError(err).Error("Failed to load article")
			continue
		}

		// Already applied on an earlier call; counted in neither bucket.
		if article.Processed {
			continue
		}

		if !res.Outcome.Succeeded() {
			failed++
			// Leave the article unprocessed and unclaimed for a future batch.
			if err := ra.articles.ClearBatchRef(ctx, article.ID); err != nil {
				log.WithField("article_id", article.ID).WithError(err).Error("Failed to release article")
			}
			log.WithFields(logger.Fields{
				"article_id": article.ID,
				"reason":     res.Outcome.Reason,
			}).Warn("Item failed in batch")
			continue
		}

		if err := ra.articles.MarkProcessed(ctx, article.ID, res.Outcome.Topics, ra.now()); err != nil {
			failed++
			log.WithField("article_id", article.ID).WithError(err).Error("Failed to mark article processed")
			continue
		}
		updated++

		article.Topics = res.Outcome.Topics
		article.Processed = true
		if _, err := ra.notifier.NotifyIfMatch(ctx, article); err != nil {
			// Notification trouble never fails the application.
			log.WithField("article_id", article.ID).WithError(err).Error("Failed to raise notification")
		}
	}

	log.WithFields(logger.Fields{
		"updated": updated,
		"failed":  failed,
	}).Info("Applied batch results")

	return updated, failed, nil
}
