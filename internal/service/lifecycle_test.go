package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scouthq/paperscout/internal/domain"
	"github.com/scouthq/paperscout/internal/provider"
)

func newLifecycleEnv(t *testing.T, maxAge time.Duration) (*testEnv, *LifecycleManager) {
	env := newTestEnv(t)
	notifier := NewInterestNotifier(env.profiles, env.notifications, env.log)
	applier := NewResultApplier(env.articles, notifier, env.gateway, env.log)
	lm := NewLifecycleManager(env.jobs, env.articles, applier, env.gateway, maxAge, env.log)
	return env, lm
}

func (e *testEnv) addOpenJob(t *testing.T, id, key string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, e.jobs.Create(context.Background(), &domain.BatchJob{
		ID:             id,
		CorrelationKey: key,
		ItemCount:      1,
		Status:         domain.BatchJobStatusPending,
		CreatedAt:      createdAt,
	}))
}

func TestTickCompletesEndedJob(t *testing.T) {
	env, lm := newLifecycleEnv(t, 48*time.Hour)
	ctx := context.Background()

	env.addArticle(t, "a1", time.Now())
	env.addOpenJob(t, "job-1", "msgbatch_1", time.Now())
	require.NoError(t, env.articles.ClaimForBatch(ctx, []string{"a1"}, "job-1"))

	env.gateway.status = map[string]*provider.BatchStatus{
		"msgbatch_1": {CorrelationKey: "msgbatch_1", State: provider.StateEnded},
	}
	env.gateway.results = map[string][]provider.ItemResult{
		"msgbatch_1": {
			{ItemID: "a1", Outcome: provider.Outcome{Topics: []string{"robotics"}}},
		},
	}

	summary, err := lm.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 1, summary.ArticlesUpdated)
	assert.Equal(t, 0, summary.Failed)

	job, err := env.jobs.GetByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BatchJobStatusCompleted, job.Status)
	require.NotNil(t, job.CompletedAt)
}

func TestTickFailsTerminalProviderStates(t *testing.T) {
	env, lm := newLifecycleEnv(t, 48*time.Hour)
	ctx := context.Background()

	env.addArticle(t, "a1", time.Now())
	env.addOpenJob(t, "job-1", "msgbatch_1", time.Now())
	require.NoError(t, env.articles.ClaimForBatch(ctx, []string{"a1"}, "job-1"))

	env.gateway.status = map[string]*provider.BatchStatus{
		"msgbatch_1": {CorrelationKey: "msgbatch_1", State: provider.StateExpired},
	}

	summary, err := lm.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	job, err := env.jobs.GetByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BatchJobStatusFailed, job.Status)
	assert.Equal(t, "batch_expired", job.ErrorMessage)

	// The job's article becomes selectable again.
	a1, err := env.articles.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, a1.BatchJobID)
}

func TestTickMarksInProgressJobProcessing(t *testing.T) {
	env, lm := newLifecycleEnv(t, 48*time.Hour)
	ctx := context.Background()

	env.addOpenJob(t, "job-1", "msgbatch_1", time.Now())
	env.gateway.status = map[string]*provider.BatchStatus{
		"msgbatch_1": {CorrelationKey: "msgbatch_1", State: provider.StateInProgress},
	}

	summary, err := lm.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.StillPending)

	job, err := env.jobs.GetByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BatchJobStatusProcessing, job.Status)
}

func TestTickEnforcesMaxAge(t *testing.T) {
	env, lm := newLifecycleEnv(t, 48*time.Hour)
	ctx := context.Background()

	env.addOpenJob(t, "job-1", "msgbatch_1", time.Now())
	lm.now = func() time.Time { return time.Now().Add(49 * time.Hour) }

	// The provider is never asked about an over-age job.
	env.gateway.statusErr = errors.New("should not be called")

	summary, err := lm.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, env.gateway.statusReqs)

	job, err := env.jobs.GetByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BatchJobStatusFailed, job.Status)
	assert.Equal(t, ErrorMessageMaxAge, job.ErrorMessage)
}

func TestTickKeepsJobOpenOnStatusError(t *testing.T) {
	env, lm := newLifecycleEnv(t, 48*time.Hour)
	ctx := context.Background()

	env.addOpenJob(t, "job-1", "msgbatch_1", time.Now())
	env.gateway.statusErr = errors.New("provider timeout")

	summary, err := lm.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 0, summary.Completed)
	assert.Equal(t, 0, summary.Failed)
	assert.Contains(t, summary.FirstError, "provider timeout")

	job, err := env.jobs.GetByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BatchJobStatusPending, job.Status)
}

func TestTickKeepsJobOpenOnApplyError(t *testing.T) {
	env, lm := newLifecycleEnv(t, 48*time.Hour)
	ctx := context.Background()

	env.addOpenJob(t, "job-1", "msgbatch_1", time.Now())
	env.gateway.status = map[string]*provider.BatchStatus{
		"msgbatch_1": {CorrelationKey: "msgbatch_1", State: provider.StateEnded},
	}
	env.gateway.resultsErr = errors.New("results download failed")

	summary, err := lm.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Completed)

	// Still open, so the next tick retries the whole ended path.
	job, err := env.jobs.GetByID(ctx, "job-1")
	require.NoError(t, err)
	assert.False(t, job.Status.Terminal())
}

func TestTickRejectsOverlap(t *testing.T) {
	_, lm := newLifecycleEnv(t, 48*time.Hour)

	lm.ticking.Store(true)
	_, err := lm.Tick(context.Background())
	assert.ErrorIs(t, err, domain.ErrTickInProgress)

	lm.ticking.Store(false)
	_, err = lm.Tick(context.Background())
	assert.NoError(t, err)
}

func TestTickIsolatesJobFailures(t *testing.T) {
	env, lm := newLifecycleEnv(t, 48*time.Hour)
	ctx := context.Background()

	env.addOpenJob(t, "job-1", "msgbatch_1", time.Now().Add(-time.Minute))
	env.addOpenJob(t, "job-2", "msgbatch_2", time.Now())

	// job-1 has no scripted status and falls back to in_progress; job-2 ended.
	env.gateway.status = map[string]*provider.BatchStatus{
		"msgbatch_2": {CorrelationKey: "msgbatch_2", State: provider.StateEnded},
	}

	summary, err := lm.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Checked)
	assert.Equal(t, 1, summary.StillPending)
	assert.Equal(t, 1, summary.Completed)
}
