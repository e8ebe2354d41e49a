package source

import (
	"context"

	"github.com/scouthq/paperscout/internal/domain"
)

// Producer defines the interface for article feeds.
type Producer interface {
	// Name returns the stable source identifier, used as Article.Source.
	Name() string

	// Fetch fetches up to limit candidate articles from the feed. Returned
	// articles carry source identity and content fields; persistence fields
	// are filled in by the caller.
	Fetch(ctx context.Context, limit int) ([]domain.Article, error)
}
