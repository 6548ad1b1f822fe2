package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

var maxAmount = decimal.New(1, 8)

// RecipeService implements recipe CRUD and the list filters
type RecipeService struct {
	db     *gorm.DB
	images *ImageService
}

func NewRecipeService(db *gorm.DB, images *ImageService) *RecipeService {
	return &RecipeService{db: db, images: images}
}

// List returns one page of recipes, newest first. viewerID 0 means anonymous;
// the favorite and cart filters are ignored for anonymous viewers.
func (s *RecipeService) List(ctx context.Context, viewerID uint, f *types.RecipeFilter) ([]types.RecipeResponse, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Recipe{})

	if len(f.Tags) > 0 {
		tagged := s.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.Tags)
		q = q.Where("recipes.id IN (?)", tagged)
	}
	if f.AuthorID != 0 {
		q = q.Where("recipes.author_id = ?", f.AuthorID)
	}
	if viewerID != 0 && f.IsFavorited {
		q = q.Where("recipes.id IN (?)", s.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", viewerID))
	}
	if viewerID != 0 && f.IsInShoppingCart {
		q = q.Where("recipes.id IN (?)", s.db.Model(&models.Shoplist{}).Select("recipe_id").Where("user_id = ?", viewerID))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}

	var recipes []models.Recipe
	err := withRecipeAssociations(q).
		Order("recipes.id DESC").
		Scopes(paginate(f.PageQuery)).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}

	out, err := presentRecipes(ctx, s.db, viewerID, recipes)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *RecipeService) Get(ctx context.Context, viewerID, id uint) (*types.RecipeResponse, error) {
	var recipe models.Recipe
	err := withRecipeAssociations(s.db.WithContext(ctx)).First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("recipe", id)
	}
	if err != nil {
		return nil, err
	}

	out, err := presentRecipes(ctx, s.db, viewerID, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *RecipeService) Create(ctx context.Context, authorID uint, req *types.CreateRecipeRequest) (*types.RecipeResponse, error) {
	if err := validateIngredients(req.Ingredients); err != nil {
		return nil, err
	}
	if err := validateTags(req.Tags); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name", "this field may not be blank")
	}

	image, err := s.images.SaveDataURI(ctx, req.Image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        req.Name,
		Text:        req.Text,
		Image:       image,
		CookingTime: req.CookingTime,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		if err := replaceIngredients(tx, recipe.ID, req.Ingredients); err != nil {
			return err
		}
		return replaceTags(tx, recipe.ID, req.Tags)
	})
	if err != nil {
		s.images.Discard(ctx, image)
		return nil, err
	}

	return s.Get(ctx, authorID, recipe.ID)
}

// Update applies a partial update. Ingredients and tags, when present, replace the existing rows.
func (s *RecipeService) Update(ctx context.Context, userID, id uint, req *types.UpdateRecipeRequest) (*types.RecipeResponse, error) {
	load := func(tx *gorm.DB) (*models.Recipe, error) {
		return loadOwnedRecipe(tx, userID, id)
	}
	if err := updateRecipe(ctx, s.db, s.images, load, req, nil); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

// updateRecipe applies a partial update to the recipe returned by load. extra
// runs inside the same transaction after the column updates.
func updateRecipe(
	ctx context.Context,
	db *gorm.DB,
	images *ImageService,
	load func(tx *gorm.DB) (*models.Recipe, error),
	req *types.UpdateRecipeRequest,
	extra func(tx *gorm.DB, recipe *models.Recipe) error,
) error {
	if req.Ingredients != nil {
		if err := validateIngredients(*req.Ingredients); err != nil {
			return err
		}
	}
	if req.Tags != nil {
		if err := validateTags(*req.Tags); err != nil {
			return err
		}
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return invalid("name", "this field may not be blank")
	}

	var (
		newImage string
		oldImage string
	)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := load(tx)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Text != nil {
			updates["text"] = *req.Text
		}
		if req.CookingTime != nil {
			updates["cooking_time"] = *req.CookingTime
		}
		if req.Image != nil && *req.Image != recipe.Image {
			newImage, err = images.SaveDataURI(ctx, *req.Image)
			if err != nil {
				return err
			}
			oldImage = recipe.Image
			updates["image"] = newImage
		}
		if len(updates) > 0 {
			if err := tx.Model(recipe).Updates(updates).Error; err != nil {
				return fmt.Errorf("update recipe: %w", err)
			}
		}
		if extra != nil {
			if err := extra(tx, recipe); err != nil {
				return err
			}
		}

		if req.Ingredients != nil {
			if err := replaceIngredients(tx, recipe.ID, *req.Ingredients); err != nil {
				return err
			}
		}
		if req.Tags != nil {
			if err := replaceTags(tx, recipe.ID, *req.Tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		images.Discard(ctx, newImage)
		return err
	}
	images.Discard(ctx, oldImage)
	return nil
}

// Delete removes a recipe authored by userID together with its dependent rows.
func (s *RecipeService) Delete(ctx context.Context, userID, id uint) error {
	var image string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := loadOwnedRecipe(tx, userID, id)
		if err != nil {
			return err
		}
		image = recipe.Image
		return deleteRecipe(tx, recipe.ID)
	})
	if err != nil {
		return err
	}
	s.images.Discard(ctx, image)
	return nil
}

func loadRecipe(tx *gorm.DB, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := tx.First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("recipe", id)
	}
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

func loadOwnedRecipe(tx *gorm.DB, userID, id uint) (*models.Recipe, error) {
	recipe, err := loadRecipe(tx, id)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != userID {
		return nil, ErrForbidden
	}
	return recipe, nil
}

// deleteRecipe clears join, favorite and cart rows before the recipe itself,
// so the result does not depend on the database enforcing cascades.
func deleteRecipe(tx *gorm.DB, recipeID uint) error {
	for _, model := range []interface{}{&models.RecipeIngredient{}, &models.RecipeTag{}, &models.Favorite{}, &models.Shoplist{}} {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(model).Error; err != nil {
			return fmt.Errorf("delete %T rows: %w", model, err)
		}
	}
	if err := tx.Delete(&models.Recipe{}, recipeID).Error; err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

func validateIngredients(items []types.IngredientAmount) error {
	if len(items) == 0 {
		return invalid("ingredients", "at least one ingredient is required")
	}
	seen := make(map[uint]bool, len(items))
	for _, item := range items {
		if item.ID == 0 {
			return invalid("ingredients", "ingredient id is required")
		}
		if seen[item.ID] {
			return invalid("ingredients", "ingredient %d is listed more than once", item.ID)
		}
		seen[item.ID] = true

		if item.Amount.LessThan(models.MinAmount) {
			return invalid("ingredients", "amount of ingredient %d must be at least %s", item.ID, models.MinAmount)
		}
		if !item.Amount.Equal(item.Amount.Round(2)) {
			return invalid("ingredients", "amount of ingredient %d must have at most 2 decimal places", item.ID)
		}
		if item.Amount.GreaterThanOrEqual(maxAmount) {
			return invalid("ingredients", "amount of ingredient %d is too large", item.ID)
		}
	}
	return nil
}

func validateTags(ids []uint) error {
	if len(ids) == 0 {
		return invalid("tags", "at least one tag is required")
	}
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return invalid("tags", "tag %d is listed more than once", id)
		}
		seen[id] = true
	}
	return nil
}

// replaceIngredients deletes the recipe's ingredient rows and inserts items.
func replaceIngredients(tx *gorm.DB, recipeID uint, items []types.IngredientAmount) error {
	ids := make([]uint, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	if err := ensureExist(tx, &models.Ingredient{}, "ingredients", "ingredient", ids); err != nil {
		return err
	}

	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return fmt.Errorf("clear recipe ingredients: %w", err)
	}
	rows := make([]models.RecipeIngredient, len(items))
	for i, item := range items {
		rows[i] = models.RecipeIngredient{RecipeID: recipeID, IngredientID: item.ID, Amount: item.Amount}
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert recipe ingredients: %w", err)
	}
	return nil
}

func replaceTags(tx *gorm.DB, recipeID uint, tagIDs []uint) error {
	if err := ensureExist(tx, &models.Tag{}, "tags", "tag", tagIDs); err != nil {
		return err
	}

	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
		return fmt.Errorf("clear recipe tags: %w", err)
	}
	rows := make([]models.RecipeTag, len(tagIDs))
	for i, id := range tagIDs {
		rows[i] = models.RecipeTag{RecipeID: recipeID, TagID: id}
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert recipe tags: %w", err)
	}
	return nil
}

// ensureExist fails with a validation error naming the first id missing from model's table.
func ensureExist(tx *gorm.DB, model interface{}, field, label string, ids []uint) error {
	var found []uint
	if err := tx.Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return err
	}
	present := make(map[uint]bool, len(found))
	for _, id := range found {
		present[id] = true
	}
	for _, id := range ids {
		if !present[id] {
			return invalid(field, "%s %d does not exist", label, id)
		}
	}
	return nil
}
