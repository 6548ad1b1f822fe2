package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

func userResponse(u *models.User, subscribed bool) types.UserResponse {
	return types.UserResponse{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func tagResponse(t *models.Tag) types.TagResponse {
	return types.TagResponse{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func ingredientResponse(i *models.Ingredient) types.IngredientResponse {
	return types.IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func shortRecipe(r *models.Recipe) types.ShortRecipeResponse {
	return types.ShortRecipeResponse{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// idSet returns which of ids appear in column of model for the given user.
func idSet(ctx context.Context, db *gorm.DB, model interface{}, userColumn string, userID uint, column string, ids []uint) (map[uint]bool, error) {
	set := make(map[uint]bool)
	if userID == 0 || len(ids) == 0 {
		return set, nil
	}
	var found []uint
	err := db.WithContext(ctx).Model(model).
		Where(userColumn+" = ? AND "+column+" IN ?", userID, ids).
		Pluck(column, &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		set[id] = true
	}
	return set, nil
}

// subscribedTo reports which of authorIDs the viewer follows.
func subscribedTo(ctx context.Context, db *gorm.DB, viewerID uint, authorIDs []uint) (map[uint]bool, error) {
	return idSet(ctx, db, &models.Follow{}, "user_id", viewerID, "following_id", authorIDs)
}

// presentRecipes builds full recipe representations relative to viewerID (0 for anonymous).
func presentRecipes(ctx context.Context, db *gorm.DB, viewerID uint, recipes []models.Recipe) ([]types.RecipeResponse, error) {
	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for i := range recipes {
		recipeIDs[i] = recipes[i].ID
		authorIDs = append(authorIDs, recipes[i].AuthorID)
	}

	favorited, err := idSet(ctx, db, &models.Favorite{}, "user_id", viewerID, "recipe_id", recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := idSet(ctx, db, &models.Shoplist{}, "user_id", viewerID, "recipe_id", recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := subscribedTo(ctx, db, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]types.RecipeResponse, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		resp := types.RecipeResponse{
			ID:               r.ID,
			Tags:             make([]types.TagResponse, 0, len(r.Tags)),
			Author:           userResponse(&r.Author, subscribed[r.AuthorID]),
			Ingredients:      make([]types.RecipeIngredientResponse, 0, len(r.Ingredients)),
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
		for j := range r.Tags {
			resp.Tags = append(resp.Tags, tagResponse(&r.Tags[j].Tag))
		}
		for j := range r.Ingredients {
			ri := &r.Ingredients[j]
			resp.Ingredients = append(resp.Ingredients, types.RecipeIngredientResponse{
				ID:              ri.IngredientID,
				Name:            ri.Ingredient.Name,
				MeasurementUnit: ri.Ingredient.MeasurementUnit,
				Amount:          ri.Amount.InexactFloat64(),
			})
		}
		out[i] = resp
	}
	return out, nil
}

// withRecipeAssociations preloads everything presentRecipes reads.
func withRecipeAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_tags.tag_id") }).
		Preload("Tags.Tag")
}

// paginate applies page/limit; a zero limit means the whole result.
func paginate(page types.PageQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page.Limit <= 0 {
			return db
		}
		return db.Offset(page.Offset()).Limit(page.Limit)
	}
}
