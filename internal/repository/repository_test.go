package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/scouthq/paperscout/internal/domain"
)

// newTestDB opens a file-backed SQLite database in a temp dir. A file (not
// :memory:) because gorm's connection pool would otherwise hand each
// connection its own empty database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&domain.Article{},
		&domain.BatchJob{},
		&domain.Notification{},
		&domain.UserProfile{},
	))
	return db
}

func testArticle(id, sourceID string, fetchedAt time.Time) *domain.Article {
	return &domain.Article{
		ID:        id,
		Source:    "arxiv",
		SourceID:  sourceID,
		Title:     "Paper " + sourceID,
		Abstract:  "Abstract of " + sourceID,
		FetchedAt: fetchedAt,
	}
}
