package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/scouthq/paperscout/internal/domain"
)

// ArticleRepository handles article data operations.
type ArticleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates a new ArticleRepository.
func NewArticleRepository(db *gorm.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// Create inserts a new article record.
func (r *ArticleRepository) Create(ctx context.Context, article *domain.Article) error {
	return r.db.WithContext(ctx).Create(article).Error
}

// Insert stores a producer-delivered article, ignoring records whose
// (source, source_id) already exist. Producers deduplicate upstream; the
// conflict clause only guards against redelivery.
func (r *ArticleRepository) Insert(ctx context.Context, article *domain.Article) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}, {Name: "source_id"}},
		DoNothing: true,
	}).Create(article)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetByID retrieves an article by its ID.
func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	var article domain.Article
	if err := r.db.WithContext(ctx).First(&article, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

// ListUnprocessed retrieves up to limit unprocessed articles that are not
// referenced by any open batch job, oldest fetch first.
func (r *ArticleRepository) ListUnprocessed(ctx context.Context, limit int) ([]domain.Article, error) {
	open := r.db.Model(&domain.BatchJob{}).
		Select("id").
		Where("status IN ?", []domain.BatchJobStatus{domain.BatchJobStatusPending, domain.BatchJobStatusProcessing})

	var articles []domain.Article
	if err := r.db.WithContext(ctx).
		Where("processed = ?", false).
		Where("batch_job_id = '' OR batch_job_id NOT IN (?)", open).
		Order("fetched_at ASC").
		Limit(limit).
		Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

// ClaimForBatch stamps the given articles with the open batch job that now
// references them.
func (r *ArticleRepository) ClaimForBatch(ctx context.Context, ids []string, jobID string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&domain.Article{}).
		Where("id IN ?", ids).
		Update("batch_job_id", jobID).Error
}

// ReleaseBatch clears the batch reference from every unprocessed article of a
// terminally failed job so they become re-selectable.
func (r *ArticleRepository) ReleaseBatch(ctx context.Context, jobID string) error {
	return r.db.WithContext(ctx).Model(&domain.Article{}).
		Where("batch_job_id = ? AND processed = ?", jobID, false).
		Update("batch_job_id", "").Error
}

// ClearBatchRef clears the batch reference from a single article.
func (r *ArticleRepository) ClearBatchRef(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Article{}).
		Where("id = ?", id).
		Update("batch_job_id", "").Error
}

// MarkProcessed records the extracted topics and flips the processed flag in
// a single row-scoped update.
func (r *ArticleRepository) MarkProcessed(ctx context.Context, id string, topics []string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Article{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"topics":       domain.StringArray(topics),
			"processed":    true,
			"processed_at": at,
		}).Error
}

// CountUnprocessed counts articles still awaiting enrichment.
func (r *ArticleRepository) CountUnprocessed(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Article{}).
		Where("processed = ?", false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
