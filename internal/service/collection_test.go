package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestCollectionToggle(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	author := testhelpers.CreateTestUser(t, db, "author")
	reader := testhelpers.CreateTestUser(t, db, "reader")
	recipe := testhelpers.CreateRecipe(t, db, author.ID, "soup", nil)

	for _, svc := range []*CollectionService{NewFavoriteService(db), NewShoplistService(db)} {
		t.Run(svc.Kind().String(), func(t *testing.T) {
			ctx := context.Background()

			short, err := svc.Add(ctx, reader.ID, recipe.ID)
			require.NoError(t, err)
			assert.Equal(t, recipe.ID, short.ID)
			assert.Equal(t, "soup", short.Name)
			assert.Equal(t, recipe.Image, short.Image)
			assert.Equal(t, 10, short.CookingTime)

			_, err = svc.Add(ctx, reader.ID, recipe.ID)
			assert.ErrorIs(t, err, ErrAlreadyExists)
			var conflictErr *ConflictError
			require.ErrorAs(t, err, &conflictErr)
			assert.Contains(t, conflictErr.Message, svc.Kind().String())

			require.NoError(t, svc.Remove(ctx, reader.ID, recipe.ID))
			require.NoError(t, svc.Remove(ctx, reader.ID, recipe.ID), "removing twice is silent")

			_, err = svc.Add(ctx, reader.ID, recipe.ID)
			require.NoError(t, err, "re-adding after removal")

			var count int64
			require.NoError(t, db.Model(svc.Kind().model()).Where("user_id = ?", reader.ID).Count(&count).Error)
			assert.Equal(t, int64(1), count)
		})
	}
}

func TestCollectionMissingRecipe(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	user := testhelpers.CreateTestUser(t, db, "reader")
	svc := NewFavoriteService(db)
	ctx := context.Background()

	_, err := svc.Add(ctx, user.ID, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Remove(ctx, user.ID, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollectionsAreIndependent(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	author := testhelpers.CreateTestUser(t, db, "author")
	recipe := testhelpers.CreateRecipe(t, db, author.ID, "soup", nil)
	ctx := context.Background()

	_, err := NewFavoriteService(db).Add(ctx, author.ID, recipe.ID)
	require.NoError(t, err)

	_, err = NewShoplistService(db).Add(ctx, author.ID, recipe.ID)
	require.NoError(t, err)

	var carts int64
	require.NoError(t, db.Model(&models.Shoplist{}).Count(&carts).Error)
	assert.Equal(t, int64(1), carts)
}
