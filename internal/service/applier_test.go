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

func newApplierEnv(t *testing.T) (*testEnv, *ResultApplier) {
	env := newTestEnv(t)
	notifier := NewInterestNotifier(env.profiles, env.notifications, env.log)
	return env, NewResultApplier(env.articles, notifier, env.gateway, env.log)
}

func TestApplyPartialResults(t *testing.T) {
	env, applier := newApplierEnv(t)
	ctx := context.Background()

	env.addArticle(t, "a1", time.Now())
	env.addArticle(t, "a2", time.Now())
	env.addArticle(t, "a3", time.Now())

	env.gateway.results = map[string][]provider.ItemResult{
		"msgbatch_1": {
			{ItemID: "a1", Outcome: provider.Outcome{Topics: []string{"robotics"}}},
			{ItemID: "a2", Outcome: provider.Outcome{Topics: []string{"planning", "search"}}},
			{ItemID: "a3", Outcome: provider.Outcome{Reason: provider.ReasonMalformedResponse}},
		},
	}

	updated, failed, err := applier.Apply(ctx, "msgbatch_1")
	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	assert.Equal(t, 1, failed)

	a1, err := env.articles.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, a1.Processed)
	assert.Equal(t, domain.StringArray{"robotics"}, a1.Topics)

	// The failed article stays unprocessed and selectable.
	a3, err := env.articles.GetByID(ctx, "a3")
	require.NoError(t, err)
	assert.False(t, a3.Processed)
	assert.Empty(t, a3.BatchJobID)
}

func TestApplyIsIdempotent(t *testing.T) {
	env, applier := newApplierEnv(t)
	ctx := context.Background()

	env.addArticle(t, "a1", time.Now())
	env.gateway.results = map[string][]provider.ItemResult{
		"msgbatch_1": {
			{ItemID: "a1", Outcome: provider.Outcome{Topics: []string{"robotics"}}},
		},
	}

	updated, _, err := applier.Apply(ctx, "msgbatch_1")
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	// Re-applying the same batch touches nothing.
	updated, failed, err := applier.Apply(ctx, "msgbatch_1")
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
	assert.Equal(t, 0, failed)
}

func TestApplyCountsOrphanResults(t *testing.T) {
	env, applier := newApplierEnv(t)

	env.gateway.results = map[string][]provider.ItemResult{
		"msgbatch_1": {
			{ItemID: "ghost", Outcome: provider.Outcome{Topics: []string{"robotics"}}},
		},
	}

	updated, failed, err := applier.Apply(context.Background(), "msgbatch_1")
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
	assert.Equal(t, 1, failed)
}

func TestApplyFetchFailure(t *testing.T) {
	env, applier := newApplierEnv(t)
	env.gateway.resultsErr = errors.New("results not ready")

	_, _, err := applier.Apply(context.Background(), "msgbatch_1")
	require.Error(t, err)
}

func TestApplyRaisesInterestNotification(t *testing.T) {
	env, applier := newApplierEnv(t)
	ctx := context.Background()
	setProfile(t, env, "robotics")

	env.addArticle(t, "a1", time.Now())
	env.addArticle(t, "a2", time.Now())
	env.gateway.results = map[string][]provider.ItemResult{
		"msgbatch_1": {
			{ItemID: "a1", Outcome: provider.Outcome{Topics: []string{"robotics"}}},
			{ItemID: "a2", Outcome: provider.Outcome{Topics: []string{"databases"}}},
		},
	}

	_, _, err := applier.Apply(ctx, "msgbatch_1")
	require.NoError(t, err)

	exists, err := env.notifications.ExistsForArticle(ctx, "a1", domain.NotificationTypeInterestMatch)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = env.notifications.ExistsForArticle(ctx, "a2", domain.NotificationTypeInterestMatch)
	require.NoError(t, err)
	assert.False(t, exists)
}
