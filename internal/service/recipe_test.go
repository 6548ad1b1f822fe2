package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

type recipeFixture struct {
	db     *gorm.DB
	svc    *RecipeService
	store  *memImageStore
	author *models.User
	other  *models.User
	flour  *models.Ingredient
	milk   *models.Ingredient
	lunch  *models.Tag
	dinner *models.Tag
}

func newRecipeFixture(t *testing.T) *recipeFixture {
	db := testhelpers.SetupTestDB(t)
	images, store := newTestImages(t)
	return &recipeFixture{
		db:     db,
		svc:    NewRecipeService(db, images),
		store:  store,
		author: testhelpers.CreateTestUser(t, db, "author"),
		other:  testhelpers.CreateTestUser(t, db, "other"),
		flour:  testhelpers.CreateIngredient(t, db, "flour", "g"),
		milk:   testhelpers.CreateIngredient(t, db, "milk", "ml"),
		lunch:  testhelpers.CreateTag(t, db, "Lunch", "lunch"),
		dinner: testhelpers.CreateTag(t, db, "Dinner", "dinner"),
	}
}

func (f *recipeFixture) createRequest() *types.CreateRecipeRequest {
	return &types.CreateRecipeRequest{
		Ingredients: []types.IngredientAmount{
			{ID: f.flour.ID, Amount: decimal.RequireFromString("200")},
			{ID: f.milk.ID, Amount: decimal.RequireFromString("0.5")},
		},
		Tags:        []uint{f.lunch.ID},
		Image:       pngDataURI(),
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		CookingTime: 15,
	}
}

func TestRecipeCreateAndGet(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.author.ID, f.createRequest())
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", created.Name)
	assert.Equal(t, f.author.ID, created.Author.ID)
	assert.False(t, created.IsFavorited)
	assert.False(t, created.IsInShoppingCart)
	require.Len(t, created.Ingredients, 2)
	assert.Equal(t, "flour", created.Ingredients[0].Name)
	assert.Equal(t, 200.0, created.Ingredients[0].Amount)
	assert.Equal(t, 0.5, created.Ingredients[1].Amount)
	require.Len(t, created.Tags, 1)
	assert.Equal(t, "lunch", created.Tags[0].Slug)
	assert.True(t, f.store.has(created.Image))

	got, err := f.svc.Get(ctx, 0, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestRecipeCreateValidation(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*types.CreateRecipeRequest)
		field  string
	}{
		{
			name: "duplicate ingredient",
			mutate: func(r *types.CreateRecipeRequest) {
				r.Ingredients = append(r.Ingredients, types.IngredientAmount{ID: f.flour.ID, Amount: decimal.NewFromInt(1)})
			},
			field: "ingredients",
		},
		{
			name: "amount below minimum",
			mutate: func(r *types.CreateRecipeRequest) {
				r.Ingredients[0].Amount = decimal.RequireFromString("0.0001")
			},
			field: "ingredients",
		},
		{
			name: "too many decimal places",
			mutate: func(r *types.CreateRecipeRequest) {
				r.Ingredients[0].Amount = decimal.RequireFromString("1.005")
			},
			field: "ingredients",
		},
		{
			name: "unknown ingredient",
			mutate: func(r *types.CreateRecipeRequest) {
				r.Ingredients[0].ID = 9999
			},
			field: "ingredients",
		},
		{
			name: "unknown tag",
			mutate: func(r *types.CreateRecipeRequest) {
				r.Tags = []uint{9999}
			},
			field: "tags",
		},
		{
			name: "duplicate tag",
			mutate: func(r *types.CreateRecipeRequest) {
				r.Tags = []uint{f.lunch.ID, f.lunch.ID}
			},
			field: "tags",
		},
		{
			name: "bad image",
			mutate: func(r *types.CreateRecipeRequest) {
				r.Image = "not-an-image"
			},
			field: "image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.createRequest()
			tt.mutate(req)

			_, err := f.svc.Create(ctx, f.author.ID, req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecipeCreateDiscardsImageOnFailure(t *testing.T) {
	f := newRecipeFixture(t)
	req := f.createRequest()
	req.Ingredients[0].ID = 9999

	_, err := f.svc.Create(context.Background(), f.author.ID, req)
	require.Error(t, err)
	assert.Empty(t, f.store.objects)
}

func TestRecipeUpdateReplacesIngredients(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.author.ID, f.createRequest())
	require.NoError(t, err)

	name := "Crepes"
	ingredients := []types.IngredientAmount{{ID: f.milk.ID, Amount: decimal.RequireFromString("250")}}
	tags := []uint{f.dinner.ID, f.lunch.ID}
	updated, err := f.svc.Update(ctx, f.author.ID, created.ID, &types.UpdateRecipeRequest{
		Name:        &name,
		Ingredients: &ingredients,
		Tags:        &tags,
	})
	require.NoError(t, err)

	assert.Equal(t, "Crepes", updated.Name)
	assert.Equal(t, created.Text, updated.Text)
	assert.Equal(t, created.Image, updated.Image)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, "milk", updated.Ingredients[0].Name)
	assert.Equal(t, 250.0, updated.Ingredients[0].Amount)
	assert.Len(t, updated.Tags, 2)

	var rows int64
	require.NoError(t, f.db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", created.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestRecipeUpdateSwapsImage(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.author.ID, f.createRequest())
	require.NoError(t, err)

	image := pngDataURI()
	updated, err := f.svc.Update(ctx, f.author.ID, created.ID, &types.UpdateRecipeRequest{Image: &image})
	require.NoError(t, err)

	assert.NotEqual(t, created.Image, updated.Image)
	assert.False(t, f.store.has(created.Image))
	assert.True(t, f.store.has(updated.Image))
}

func TestRecipeNonAuthorIsForbidden(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.author.ID, f.createRequest())
	require.NoError(t, err)

	name := "Stolen"
	_, err = f.svc.Update(ctx, f.other.ID, created.ID, &types.UpdateRecipeRequest{Name: &name})
	assert.ErrorIs(t, err, ErrForbidden)

	err = f.svc.Delete(ctx, f.other.ID, created.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Get(ctx, 0, created.ID)
	assert.NoError(t, err)
}

func TestRecipeDeleteCascades(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.author.ID, f.createRequest())
	require.NoError(t, err)

	favorites := NewFavoriteService(f.db)
	cart := NewShoplistService(f.db)
	_, err = favorites.Add(ctx, f.other.ID, created.ID)
	require.NoError(t, err)
	_, err = cart.Add(ctx, f.other.ID, created.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, f.author.ID, created.ID))

	for _, model := range []interface{}{&models.RecipeIngredient{}, &models.RecipeTag{}, &models.Favorite{}, &models.Shoplist{}} {
		var count int64
		require.NoError(t, f.db.Model(model).Where("recipe_id = ?", created.ID).Count(&count).Error)
		assert.Zero(t, count, "%T rows left behind", model)
	}
	assert.False(t, f.store.has(created.Image))

	_, err = f.svc.Get(ctx, 0, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = f.svc.Delete(ctx, f.author.ID, created.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRecipeListFilters(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	amounts := []testhelpers.Amount{{IngredientID: f.flour.ID, Value: "100"}}

	soup := testhelpers.CreateRecipe(t, f.db, f.author.ID, "soup", amounts, f.lunch.ID)
	stew := testhelpers.CreateRecipe(t, f.db, f.author.ID, "stew", amounts, f.dinner.ID)
	salad := testhelpers.CreateRecipe(t, f.db, f.other.ID, "salad", amounts, f.lunch.ID, f.dinner.ID)

	_, err := NewFavoriteService(f.db).Add(ctx, f.other.ID, soup.ID)
	require.NoError(t, err)
	_, err = NewShoplistService(f.db).Add(ctx, f.other.ID, stew.ID)
	require.NoError(t, err)

	ids := func(list []types.RecipeResponse) []uint {
		out := make([]uint, len(list))
		for i, r := range list {
			out[i] = r.ID
		}
		return out
	}

	tests := []struct {
		name   string
		viewer uint
		filter types.RecipeFilter
		want   []uint
		total  int64
	}{
		{"all newest first", 0, types.RecipeFilter{}, []uint{salad.ID, stew.ID, soup.ID}, 3},
		{"by tag", 0, types.RecipeFilter{Tags: []string{"lunch"}}, []uint{salad.ID, soup.ID}, 2},
		{"any of several tags", 0, types.RecipeFilter{Tags: []string{"lunch", "dinner"}}, []uint{salad.ID, stew.ID, soup.ID}, 3},
		{"by author", 0, types.RecipeFilter{AuthorID: f.author.ID}, []uint{stew.ID, soup.ID}, 2},
		{"favorited", f.other.ID, types.RecipeFilter{IsFavorited: true}, []uint{soup.ID}, 1},
		{"in cart", f.other.ID, types.RecipeFilter{IsInShoppingCart: true}, []uint{stew.ID}, 1},
		{"anonymous ignores favorited", 0, types.RecipeFilter{IsFavorited: true}, []uint{salad.ID, stew.ID, soup.ID}, 3},
		{"paged", 0, types.RecipeFilter{PageQuery: types.PageQuery{Page: 2, Limit: 2}}, []uint{soup.ID}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := tt.filter
			list, total, err := f.svc.List(ctx, tt.viewer, &filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(list))
			assert.Equal(t, tt.total, total)
		})
	}
}

func TestRecipeFlagsFollowViewer(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	recipe := testhelpers.CreateRecipe(t, f.db, f.author.ID, "soup", []testhelpers.Amount{{IngredientID: f.flour.ID, Value: "1"}}, f.lunch.ID)

	_, err := NewFavoriteService(f.db).Add(ctx, f.other.ID, recipe.ID)
	require.NoError(t, err)
	_, err = NewFollowService(f.db).Subscribe(ctx, f.other.ID, f.author.ID, 0)
	require.NoError(t, err)

	asOther, err := f.svc.Get(ctx, f.other.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, asOther.IsFavorited)
	assert.False(t, asOther.IsInShoppingCart)
	assert.True(t, asOther.Author.IsSubscribed)

	anon, err := f.svc.Get(ctx, 0, recipe.ID)
	require.NoError(t, err)
	assert.False(t, anon.IsFavorited)
	assert.False(t, anon.Author.IsSubscribed)
}
