package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
)

func TestSetupTestDBIsolated(t *testing.T) {
	first := SetupTestDB(t)
	second := SetupTestDB(t)

	CreateTestUser(t, first, "alice")

	var count int64
	require.NoError(t, second.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateRecipeFixture(t *testing.T) {
	db := SetupTestDB(t)
	author := CreateTestUser(t, db, "author")
	flour := CreateIngredient(t, db, "flour", "g")
	breakfast := CreateTag(t, db, "Breakfast", "breakfast")
	lunch := CreateTag(t, db, "Lunch", "lunch")

	recipe := CreateRecipe(t, db, author.ID, "pancakes", []Amount{{flour.ID, "200"}}, breakfast.ID, lunch.ID)

	var loaded models.Recipe
	require.NoError(t, db.Preload("Ingredients").Preload("Tags").First(&loaded, recipe.ID).Error)
	assert.Len(t, loaded.Ingredients, 1)
	assert.Len(t, loaded.Tags, 2)
	assert.Equal(t, "200", loaded.Ingredients[0].Amount.String())
	assert.NotEqual(t, breakfast.Color, lunch.Color)
}
