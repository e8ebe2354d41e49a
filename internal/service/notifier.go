package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scouthq/paperscout/internal/domain"
	"github.com/scouthq/paperscout/internal/logger"
	"github.com/scouthq/paperscout/internal/repository"
)

// InterestNotifier raises a notification when a freshly enriched article's
// topics intersect the subscriber's interest keywords.
type InterestNotifier struct {
	profiles      *repository.ProfileRepository
	notifications *repository.NotificationRepository
	logger        *logger.Logger
}

// NewInterestNotifier creates a new InterestNotifier.
func NewInterestNotifier(
	profiles *repository.ProfileRepository,
	notifications *repository.NotificationRepository,
	log *logger.Logger,
) *InterestNotifier {
	return &InterestNotifier{profiles: profiles, notifications: notifications, logger: log}
}

// NotifyIfMatch creates an interest_match notification for the article if its
// topics intersect the profile keywords (case-insensitive) and none exists
// yet. The check-then-insert may race under concurrent appliers; the unique
// index turns the rare duplicate into a create error, which is benign.
func (n *InterestNotifier) NotifyIfMatch(ctx context.Context, article *domain.Article) (bool, error) {
	profile, err := n.profiles.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load interest profile: %w", err)
	}
	keywords := profile.Keywords()
	if len(keywords) == 0 {
		return false, nil
	}

	if !topicsMatch(article.Topics, keywords) {
		return false, nil
	}

	exists, err := n.notifications.ExistsForArticle(ctx, article.ID, domain.NotificationTypeInterestMatch)
	if err != nil {
		return false, fmt.Errorf("failed to check existing notification: %w", err)
	}
	if exists {
		return false, nil
	}

	err = n.notifications.Create(ctx, &domain.Notification{
		ID:        uuid.New().String(),
		ArticleID: article.ID,
		Type:      domain.NotificationTypeInterestMatch,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to create notification: %w", err)
	}

	n.logger.WithField("article_id", article.ID).Info("Created interest match notification")
	return true, nil
}

// topicsMatch reports whether any topic equals any keyword, ignoring case.
func topicsMatch(topics []string, keywords []string) bool {
	if len(topics) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		set[strings.ToLower(strings.TrimSpace(kw))] = struct{}{}
	}
	for _, topic := range topics {
		if _, ok := set[strings.ToLower(strings.TrimSpace(topic))]; ok {
			return true
		}
	}
	return false
}
