package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/scouthq/paperscout/internal/domain"
)

// NotificationRepository handles notification data operations.
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a new notification record. The unique index on
// (article_id, type) rejects duplicates that slip past the existence check.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ExistsForArticle checks whether a notification of the given type already
// exists for an article.
func (r *NotificationRepository) ExistsForArticle(ctx context.Context, articleID string, typ domain.NotificationType) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("article_id = ? AND type = ?", articleID, typ).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByType counts notifications of the given type.
func (r *NotificationRepository) CountByType(ctx context.Context, typ domain.NotificationType) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("type = ?", typ).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
