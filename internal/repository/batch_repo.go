package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/scouthq/paperscout/internal/domain"
)

// BatchJobRepository is the durable ledger of provider batch jobs. Status
// transitions go through the Mark* methods, whose guards keep the status
// machine monotonic even under racing callers.
type BatchJobRepository struct {
	db *gorm.DB
}

// NewBatchJobRepository creates a new BatchJobRepository.
func NewBatchJobRepository(db *gorm.DB) *BatchJobRepository {
	return &BatchJobRepository{db: db}
}

// Create inserts a new batch job record.
func (r *BatchJobRepository) Create(ctx context.Context, job *domain.BatchJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// GetByID retrieves a batch job by its ID.
func (r *BatchJobRepository) GetByID(ctx context.Context, id string) (*domain.BatchJob, error) {
	var job domain.BatchJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// GetByCorrelationKey retrieves a batch job by its provider-issued key.
func (r *BatchJobRepository) GetByCorrelationKey(ctx context.Context, key string) (*domain.BatchJob, error) {
	var job domain.BatchJob
	if err := r.db.WithContext(ctx).First(&job, "correlation_key = ?", key).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListOpen retrieves all jobs still awaiting a terminal status, oldest first.
func (r *BatchJobRepository) ListOpen(ctx context.Context) ([]domain.BatchJob, error) {
	var jobs []domain.BatchJob
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []domain.BatchJobStatus{domain.BatchJobStatusPending, domain.BatchJobStatusProcessing}).
		Order("created_at ASC").
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// MarkProcessing advances a pending job to processing. Calling it on a job
// already processing or terminal is a no-op.
func (r *BatchJobRepository) MarkProcessing(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.BatchJob{}).
		Where("id = ? AND status = ?", id, domain.BatchJobStatusPending).
		Update("status", domain.BatchJobStatusProcessing).Error
}

// MarkCompleted moves an open job to completed and stamps the completion
// time. Terminal jobs are left untouched.
func (r *BatchJobRepository) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.BatchJob{}).
		Where("id = ? AND status IN ?", id, []domain.BatchJobStatus{domain.BatchJobStatusPending, domain.BatchJobStatusProcessing}).
		Updates(map[string]interface{}{
			"status":       domain.BatchJobStatusCompleted,
			"completed_at": at,
		}).Error
}

// MarkFailed moves an open job to failed with an error message. Terminal
// jobs are left untouched.
func (r *BatchJobRepository) MarkFailed(ctx context.Context, id, message string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.BatchJob{}).
		Where("id = ? AND status IN ?", id, []domain.BatchJobStatus{domain.BatchJobStatusPending, domain.BatchJobStatusProcessing}).
		Updates(map[string]interface{}{
			"status":        domain.BatchJobStatusFailed,
			"error_message": message,
			"completed_at":  at,
		}).Error
}
