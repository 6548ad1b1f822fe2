package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/types"
)

// ShoppingListService aggregates the ingredients of a user's shopping cart
type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Items sums ingredient amounts over every recipe in the cart, one line per
// ingredient name and unit, ordered by name.
func (s *ShoppingListService) Items(ctx context.Context, userID uint) ([]types.ShoppingItem, error) {
	var items []types.ShoppingItem
	err := s.db.WithContext(ctx).
		Table("shoplists").
		Select("ingredients.name AS name, ingredients.measurement_unit AS unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = shoplists.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shoplists.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate shopping list: %w", err)
	}
	return items, nil
}
