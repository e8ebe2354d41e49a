package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/scouthq/paperscout/internal/domain"
	"github.com/scouthq/paperscout/internal/logger"
	"github.com/scouthq/paperscout/internal/provider"
	"github.com/scouthq/paperscout/internal/repository"
)

// fakeGateway is a scriptable Gateway for service tests.
type fakeGateway struct {
	submitKey string
	submitErr error
	submitted [][]provider.ItemRequest

	status     map[string]*provider.BatchStatus
	statusErr  error
	statusReqs []string

	results    map[string][]provider.ItemResult
	resultsErr error
}

func (g *fakeGateway) SubmitBatch(ctx context.Context, requests []provider.ItemRequest) (string, error) {
	g.submitted = append(g.submitted, requests)
	if g.submitErr != nil {
		return "", g.submitErr
	}
	return g.submitKey, nil
}

func (g *fakeGateway) GetStatus(ctx context.Context, key string) (*provider.BatchStatus, error) {
	g.statusReqs = append(g.statusReqs, key)
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	if status, ok := g.status[key]; ok {
		return status, nil
	}
	return &provider.BatchStatus{CorrelationKey: key, State: provider.StateInProgress}, nil
}

func (g *fakeGateway) FetchResults(ctx context.Context, key string) ([]provider.ItemResult, error) {
	if g.resultsErr != nil {
		return nil, g.resultsErr
	}
	return g.results[key], nil
}

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

type testEnv struct {
	db            *gorm.DB
	articles      *repository.ArticleRepository
	jobs          *repository.BatchJobRepository
	notifications *repository.NotificationRepository
	profiles      *repository.ProfileRepository
	gateway       *fakeGateway
	log           *logger.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	return &testEnv{
		db:            db,
		articles:      repository.NewArticleRepository(db),
		jobs:          repository.NewBatchJobRepository(db),
		notifications: repository.NewNotificationRepository(db),
		profiles:      repository.NewProfileRepository(db),
		gateway:       &fakeGateway{},
		log:           logger.New(nil),
	}
}

func (e *testEnv) addArticle(t *testing.T, id string, fetchedAt time.Time) {
	t.Helper()
	require.NoError(t, e.articles.Create(context.Background(), &domain.Article{
		ID:        id,
		Source:    "arxiv",
		SourceID:  "src-" + id,
		Title:     "Paper " + id,
		Abstract:  "Abstract of " + id,
		FetchedAt: fetchedAt,
	}))
}
