package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestAdminUsers(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	images, _ := newTestImages(t)
	admin := NewAdminService(db, images)
	ctx := context.Background()

	staff := testhelpers.CreateStaffUser(t, db, "staff")
	cook := testhelpers.CreateTestUser(t, db, "cook")
	reader := testhelpers.CreateTestUser(t, db, "reader")
	recipe := testhelpers.CreateRecipe(t, db, cook.ID, "soup", nil)

	isStaff, err := admin.IsStaff(ctx, staff.ID)
	require.NoError(t, err)
	assert.True(t, isStaff)
	isStaff, err = admin.IsStaff(ctx, cook.ID)
	require.NoError(t, err)
	assert.False(t, isStaff)

	users, total, err := admin.ListUsers(ctx, "COOK", types.PageQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, cook.ID, users[0].ID)
	assert.Equal(t, int64(1), users[0].RecipesCount)

	promote := true
	updated, err := admin.UpdateUser(ctx, reader.ID, &types.AdminUserUpdate{IsStaff: &promote})
	require.NoError(t, err)
	assert.True(t, updated.IsStaff)

	_, err = NewFavoriteService(db).Add(ctx, reader.ID, recipe.ID)
	require.NoError(t, err)
	_, err = NewFollowService(db).Subscribe(ctx, reader.ID, cook.ID, 0)
	require.NoError(t, err)

	var verr *ValidationError
	require.ErrorAs(t, admin.DeleteUser(ctx, staff.ID, staff.ID), &verr)

	require.NoError(t, admin.DeleteUser(ctx, staff.ID, cook.ID))
	for _, model := range []interface{}{&models.Recipe{}, &models.Favorite{}, &models.Follow{}} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.Zero(t, count, "%T rows left behind", model)
	}
	assert.ErrorIs(t, admin.DeleteUser(ctx, staff.ID, cook.ID), ErrNotFound)
}

func TestAdminRecipes(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	images, _ := newTestImages(t)
	admin := NewAdminService(db, images)
	ctx := context.Background()

	cook := testhelpers.CreateTestUser(t, db, "cook")
	fan := testhelpers.CreateTestUser(t, db, "fan")
	soupTag := testhelpers.CreateTag(t, db, "Soup", "soup")
	borscht := testhelpers.CreateRecipe(t, db, cook.ID, "Borscht", nil, soupTag.ID)
	testhelpers.CreateRecipe(t, db, cook.ID, "Pancakes", nil)

	_, err := NewFavoriteService(db).Add(ctx, fan.ID, borscht.ID)
	require.NoError(t, err)

	list, total, err := admin.ListRecipes(ctx, &types.AdminRecipeFilter{Search: "bor", PageQuery: types.PageQuery{Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "cook", list[0].Author)
	assert.Equal(t, int64(1), list[0].FavoriteCount)

	list, total, err = admin.ListRecipes(ctx, &types.AdminRecipeFilter{Tag: "soup"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, borscht.ID, list[0].ID)

	_, total, err = admin.ListRecipes(ctx, &types.AdminRecipeFilter{AuthorID: fan.ID})
	require.NoError(t, err)
	assert.Zero(t, total)

	require.NoError(t, admin.DeleteRecipe(ctx, borscht.ID))
	assert.ErrorIs(t, admin.DeleteRecipe(ctx, borscht.ID), ErrNotFound)
}

func TestAdminUpdateRecipe(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	images, store := newTestImages(t)
	admin := NewAdminService(db, images)
	ctx := context.Background()

	cook := testhelpers.CreateTestUser(t, db, "cook")
	heir := testhelpers.CreateTestUser(t, db, "heir")
	flour := testhelpers.CreateIngredient(t, db, "flour", "g")
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")
	lunch := testhelpers.CreateTag(t, db, "Lunch", "lunch")
	dinner := testhelpers.CreateTag(t, db, "Dinner", "dinner")
	recipe := testhelpers.CreateRecipe(t, db, cook.ID, "Bread", []testhelpers.Amount{{IngredientID: flour.ID, Value: "500"}}, lunch.ID)

	name := "Salted bread"
	ingredients := []types.IngredientAmount{
		{ID: flour.ID, Amount: decimal.RequireFromString("450")},
		{ID: salt.ID, Amount: decimal.RequireFromString("7.5")},
	}
	tags := []uint{dinner.ID}
	image := pngDataURI()
	updated, err := admin.UpdateRecipe(ctx, recipe.ID, &types.AdminRecipeUpdate{
		UpdateRecipeRequest: types.UpdateRecipeRequest{Name: &name, Ingredients: &ingredients, Tags: &tags, Image: &image},
	})
	require.NoError(t, err)
	assert.Equal(t, "Salted bread", updated.Name)
	assert.Equal(t, cook.ID, updated.Author.ID)
	require.Len(t, updated.Ingredients, 2)
	amounts := map[string]float64{}
	for _, ing := range updated.Ingredients {
		amounts[ing.Name] = ing.Amount
	}
	assert.Equal(t, map[string]float64{"flour": 450, "salt": 7.5}, amounts)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "dinner", updated.Tags[0].Slug)
	assert.True(t, store.has(updated.Image))

	var rows int64
	require.NoError(t, db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", recipe.ID).Count(&rows).Error)
	assert.EqualValues(t, 2, rows)

	updated, err = admin.UpdateRecipe(ctx, recipe.ID, &types.AdminRecipeUpdate{AuthorID: &heir.ID})
	require.NoError(t, err)
	assert.Equal(t, heir.ID, updated.Author.ID)
	assert.Equal(t, "Salted bread", updated.Name)

	missing := uint(999)
	_, err = admin.UpdateRecipe(ctx, recipe.ID, &types.AdminRecipeUpdate{AuthorID: &missing})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "author", verr.Field)

	duplicate := []types.IngredientAmount{
		{ID: flour.ID, Amount: decimal.RequireFromString("1")},
		{ID: flour.ID, Amount: decimal.RequireFromString("2")},
	}
	_, err = admin.UpdateRecipe(ctx, recipe.ID, &types.AdminRecipeUpdate{
		UpdateRecipeRequest: types.UpdateRecipeRequest{Ingredients: &duplicate},
	})
	require.ErrorAs(t, err, &verr)

	_, err = admin.UpdateRecipe(ctx, 999, &types.AdminRecipeUpdate{UpdateRecipeRequest: types.UpdateRecipeRequest{Name: &name}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminCatalog(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	images, _ := newTestImages(t)
	admin := NewAdminService(db, images)
	ctx := context.Background()

	tag, err := admin.CreateTag(ctx, &types.TagRequest{Name: "Lunch", Color: "#aabbcc", Slug: "lunch"})
	require.NoError(t, err)
	assert.Equal(t, "#AABBCC", tag.Color)

	_, err = admin.CreateTag(ctx, &types.TagRequest{Name: "Lunch", Color: "#000000", Slug: "lunch-2"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	slug := "midday"
	tag, err = admin.UpdateTag(ctx, tag.ID, &types.TagUpdate{Slug: &slug})
	require.NoError(t, err)
	assert.Equal(t, "midday", tag.Slug)

	salt, err := admin.CreateIngredient(ctx, &types.IngredientRequest{Name: " salt ", MeasurementUnit: "g"})
	require.NoError(t, err)
	assert.Equal(t, "salt", salt.Name)

	_, err = admin.CreateIngredient(ctx, &types.IngredientRequest{Name: "salt", MeasurementUnit: "kg"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	unit := "kg"
	salt, err = admin.UpdateIngredient(ctx, salt.ID, &types.IngredientUpdate{MeasurementUnit: &unit})
	require.NoError(t, err)
	assert.Equal(t, "kg", salt.MeasurementUnit)

	items, total, err := admin.ListIngredients(ctx, "al", types.PageQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, items, 1)

	cook := testhelpers.CreateTestUser(t, db, "cook")
	recipe := testhelpers.CreateRecipe(t, db, cook.ID, "soup", []testhelpers.Amount{{IngredientID: salt.ID, Value: "1"}}, tag.ID)

	require.NoError(t, admin.DeleteIngredient(ctx, salt.ID))
	require.NoError(t, admin.DeleteTag(ctx, tag.ID))
	assert.ErrorIs(t, admin.DeleteTag(ctx, tag.ID), ErrNotFound)
	assert.ErrorIs(t, admin.DeleteIngredient(ctx, salt.ID), ErrNotFound)

	var rows int64
	require.NoError(t, db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", recipe.ID).Count(&rows).Error)
	assert.Zero(t, rows)
	require.NoError(t, db.Model(&models.RecipeTag{}).Where("recipe_id = ?", recipe.ID).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestAdminRelations(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	images, _ := newTestImages(t)
	admin := NewAdminService(db, images)
	ctx := context.Background()

	cook := testhelpers.CreateTestUser(t, db, "cook")
	fan := testhelpers.CreateTestUser(t, db, "fan")
	recipe := testhelpers.CreateRecipe(t, db, cook.ID, "soup", nil)

	_, err := NewFavoriteService(db).Add(ctx, fan.ID, recipe.ID)
	require.NoError(t, err)
	_, err = NewShoplistService(db).Add(ctx, fan.ID, recipe.ID)
	require.NoError(t, err)
	_, err = NewFollowService(db).Subscribe(ctx, fan.ID, cook.ID, 0)
	require.NoError(t, err)

	favorites, total, err := admin.ListRelations(ctx, RelationFavorites, &types.AdminRelationFilter{UserID: fan.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, favorites, 1)
	assert.Equal(t, "fan", favorites[0].User)
	assert.Equal(t, "soup", favorites[0].Recipe)

	follows, _, err := admin.ListRelations(ctx, RelationFollows, &types.AdminRelationFilter{FollowingID: cook.ID})
	require.NoError(t, err)
	require.Len(t, follows, 1)
	assert.Equal(t, "cook", follows[0].Following)

	carts, _, err := admin.ListRelations(ctx, RelationShoplists, &types.AdminRelationFilter{RecipeID: 999})
	require.NoError(t, err)
	assert.Empty(t, carts)

	require.NoError(t, admin.DeleteRelation(ctx, RelationFavorites, favorites[0].ID))
	assert.ErrorIs(t, admin.DeleteRelation(ctx, RelationFavorites, favorites[0].ID), ErrNotFound)
	require.NoError(t, admin.DeleteRelation(ctx, RelationFollows, follows[0].ID))
}

func TestAdminCreateRelations(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	images, _ := newTestImages(t)
	admin := NewAdminService(db, images)
	ctx := context.Background()

	cook := testhelpers.CreateTestUser(t, db, "cook")
	fan := testhelpers.CreateTestUser(t, db, "fan")
	recipe := testhelpers.CreateRecipe(t, db, cook.ID, "soup", nil)

	favorite, err := admin.CreateRelation(ctx, RelationFavorites, &types.AdminRelationCreate{UserID: fan.ID, RecipeID: recipe.ID})
	require.NoError(t, err)
	assert.NotZero(t, favorite.ID)
	assert.Equal(t, "fan", favorite.User)
	assert.Equal(t, "soup", favorite.Recipe)

	_, err = admin.CreateRelation(ctx, RelationFavorites, &types.AdminRelationCreate{UserID: fan.ID, RecipeID: recipe.ID})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	cart, err := admin.CreateRelation(ctx, RelationShoplists, &types.AdminRelationCreate{UserID: fan.ID, RecipeID: recipe.ID})
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, cart.RecipeID)

	follow, err := admin.CreateRelation(ctx, RelationFollows, &types.AdminRelationCreate{UserID: fan.ID, FollowingID: cook.ID})
	require.NoError(t, err)
	assert.Equal(t, "cook", follow.Following)

	subscriptions, total, err := NewFollowService(db).Subscriptions(ctx, fan.ID, types.PageQuery{Page: 1, Limit: 10}, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, cook.ID, subscriptions[0].ID)

	var verr *ValidationError
	_, err = admin.CreateRelation(ctx, RelationFollows, &types.AdminRelationCreate{UserID: cook.ID, FollowingID: cook.ID})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "following", verr.Field)

	_, err = admin.CreateRelation(ctx, RelationShoplists, &types.AdminRelationCreate{UserID: fan.ID})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "recipe", verr.Field)

	_, err = admin.CreateRelation(ctx, RelationFavorites, &types.AdminRelationCreate{UserID: 999, RecipeID: recipe.ID})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "user", verr.Field)
}
