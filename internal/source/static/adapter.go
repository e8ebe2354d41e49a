package static

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/scouthq/paperscout/internal/domain"
)

const SourceID = "static"

// Adapter serves articles from a local JSON file. Used for development and
// backfills where no live feed is involved.
type Adapter struct {
	name string
	path string
}

// NewAdapter creates a static adapter reading from the given JSON file. The
// file holds an array of article objects in the domain JSON shape.
func NewAdapter(name, path string) *Adapter {
	if name == "" {
		name = SourceID
	}
	return &Adapter{name: name, path: path}
}

// Name returns the configured source identifier.
func (a *Adapter) Name() string {
	return a.name
}

// Fetch loads the file and returns up to limit articles with source identity
// stamped on.
func (a *Adapter) Fetch(ctx context.Context, limit int) ([]domain.Article, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read static feed: %w", err)
	}

	var articles []domain.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("failed to parse static feed: %w", err)
	}

	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	for i := range articles {
		articles[i].Source = a.name
	}
	return articles, nil
}
