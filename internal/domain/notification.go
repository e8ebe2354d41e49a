package domain

import "time"

// NotificationType classifies why a notification was raised.
type NotificationType string

const (
	NotificationTypeNewItem       NotificationType = "new_item"
	NotificationTypeInterestMatch NotificationType = "interest_match"
)

// Notification records a downstream signal about an article, at most one per
// (article, type) pair.
type Notification struct {
	ID        string           `gorm:"type:text;primaryKey" json:"id"`
	ArticleID string           `gorm:"type:text;not null;uniqueIndex:idx_notifications_article_type" json:"article_id"`
	Type      NotificationType `gorm:"type:text;not null;uniqueIndex:idx_notifications_article_type" json:"type"`
	IsRead    bool             `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string {
	return "notifications"
}
