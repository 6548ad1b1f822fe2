package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestSubscribe(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewFollowService(db)
	ctx := context.Background()

	reader := testhelpers.CreateTestUser(t, db, "reader")
	chef := testhelpers.CreateTestUser(t, db, "chef")
	for _, name := range []string{"one", "two", "three"} {
		testhelpers.CreateRecipe(t, db, chef.ID, name, nil)
	}

	sub, err := svc.Subscribe(ctx, reader.ID, chef.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, chef.ID, sub.ID)
	assert.True(t, sub.IsSubscribed)
	assert.Equal(t, int64(3), sub.RecipesCount)
	require.Len(t, sub.Recipes, 2)
	assert.Equal(t, "three", sub.Recipes[0].Name)

	_, err = svc.Subscribe(ctx, reader.ID, chef.ID, -1)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = svc.Subscribe(ctx, reader.ID, reader.ID, -1)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, verr.Field)

	_, err = svc.Subscribe(ctx, reader.ID, 999, -1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscriptionsList(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewFollowService(db)
	ctx := context.Background()

	reader := testhelpers.CreateTestUser(t, db, "reader")
	first := testhelpers.CreateTestUser(t, db, "first")
	second := testhelpers.CreateTestUser(t, db, "second")
	testhelpers.CreateRecipe(t, db, first.ID, "a", nil)
	testhelpers.CreateRecipe(t, db, first.ID, "b", nil)

	_, err := svc.Subscribe(ctx, reader.ID, second.ID, 0)
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, reader.ID, first.ID, 0)
	require.NoError(t, err)

	list, total, err := svc.Subscriptions(ctx, reader.ID, types.PageQuery{Page: 1, Limit: 10}, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "ordered by when the follow happened")
	assert.Equal(t, first.ID, list[1].ID)
	assert.Len(t, list[1].Recipes, 2)
	assert.Equal(t, int64(2), list[1].RecipesCount)

	list, _, err = svc.Subscriptions(ctx, reader.ID, types.PageQuery{Page: 1, Limit: 10}, 0)
	require.NoError(t, err)
	assert.Empty(t, list[1].Recipes)
	assert.Equal(t, int64(2), list[1].RecipesCount)

	list, total, err = svc.Subscriptions(ctx, reader.ID, types.PageQuery{Page: 2, Limit: 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Len(t, list[0].Recipes, 1)
}

func TestUnsubscribe(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := NewFollowService(db)
	ctx := context.Background()

	reader := testhelpers.CreateTestUser(t, db, "reader")
	chef := testhelpers.CreateTestUser(t, db, "chef")

	_, err := svc.Subscribe(ctx, reader.ID, chef.ID, -1)
	require.NoError(t, err)

	require.NoError(t, svc.Unsubscribe(ctx, reader.ID, chef.ID))
	require.NoError(t, svc.Unsubscribe(ctx, reader.ID, chef.ID))
	assert.ErrorIs(t, svc.Unsubscribe(ctx, reader.ID, 999), ErrNotFound)

	_, total, err := svc.Subscriptions(ctx, reader.ID, types.PageQuery{}, -1)
	require.NoError(t, err)
	assert.Zero(t, total)

	users := NewUserService(db)
	got, err := users.Get(ctx, reader.ID, chef.ID)
	require.NoError(t, err)
	assert.False(t, got.IsSubscribed)
}
