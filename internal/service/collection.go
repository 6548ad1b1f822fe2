package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// Collection names a per-user set of recipes
type Collection int

const (
	Favorites Collection = iota
	ShoppingCart
)

func (c Collection) String() string {
	if c == Favorites {
		return "favorites"
	}
	return "shopping cart"
}

func (c Collection) model() interface{} {
	if c == Favorites {
		return &models.Favorite{}
	}
	return &models.Shoplist{}
}

func (c Collection) row(userID, recipeID uint) interface{} {
	if c == Favorites {
		return &models.Favorite{UserID: userID, RecipeID: recipeID}
	}
	return &models.Shoplist{UserID: userID, RecipeID: recipeID}
}

// CollectionService toggles recipes in a user's favorites or shopping cart
type CollectionService struct {
	db   *gorm.DB
	kind Collection
}

func NewFavoriteService(db *gorm.DB) *CollectionService {
	return &CollectionService{db: db, kind: Favorites}
}

func NewShoplistService(db *gorm.DB) *CollectionService {
	return &CollectionService{db: db, kind: ShoppingCart}
}

func (s *CollectionService) Kind() Collection { return s.kind }

// Add puts the recipe into the collection; a second add is a conflict.
func (s *CollectionService) Add(ctx context.Context, userID, recipeID uint) (*types.ShortRecipeResponse, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&recipe, recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("recipe", recipeID)
			}
			return err
		}

		var count int64
		if err := tx.Model(s.kind.model()).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return s.duplicate()
		}

		if err := tx.Create(s.kind.row(userID, recipeID)).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return s.duplicate()
			}
			return fmt.Errorf("add to %s: %w", s.kind, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := shortRecipe(&recipe)
	return &out, nil
}

// Remove deletes the entry if present. Only a missing recipe is an error.
func (s *CollectionService) Remove(ctx context.Context, userID, recipeID uint) error {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Recipe{}).Where("id = ?", recipeID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound("recipe", recipeID)
	}
	return db.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(s.kind.model()).Error
}

func (s *CollectionService) duplicate() error {
	return conflict("recipe is already in %s", s.kind)
}
