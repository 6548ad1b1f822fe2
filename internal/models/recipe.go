package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MinAmount is the smallest ingredient amount a recipe may carry.
var MinAmount = decimal.RequireFromString("0.001")

type Ingredient struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	Name            string `gorm:"size:200;uniqueIndex;not null" json:"name"`
	MeasurementUnit string `gorm:"size:200;not null" json:"measurement_unit"`
}

type Tag struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Color string `gorm:"size:7;uniqueIndex;not null" json:"color"`
	Slug  string `gorm:"size:200;uniqueIndex;not null" json:"slug"`
}

// Recipe is ordered newest first everywhere it is listed.
type Recipe struct {
	ID          uint               `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	AuthorID    uint               `gorm:"not null;index" json:"author_id"`
	Author      User               `gorm:"constraint:OnDelete:CASCADE" json:"author"`
	Name        string             `gorm:"size:200;not null" json:"name"`
	Text        string             `gorm:"type:text" json:"text"`
	Image       string             `gorm:"size:255" json:"image"`
	CookingTime int                `gorm:"not null;check:chk_recipes_cooking_time,cooking_time >= 1" json:"cooking_time"`
	Ingredients []RecipeIngredient `gorm:"constraint:OnDelete:CASCADE" json:"ingredients"`
	Tags        []RecipeTag        `gorm:"constraint:OnDelete:CASCADE" json:"tags"`
}

// RecipeIngredient carries the amount of one ingredient in one recipe.
type RecipeIngredient struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	RecipeID     uint            `gorm:"not null;index" json:"recipe_id"`
	IngredientID uint            `gorm:"not null;index" json:"ingredient_id"`
	Ingredient   Ingredient      `gorm:"constraint:OnDelete:CASCADE" json:"ingredient"`
	Amount       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
}

type RecipeTag struct {
	RecipeID uint `gorm:"primaryKey;autoIncrement:false" json:"recipe_id"`
	TagID    uint `gorm:"primaryKey;autoIncrement:false" json:"tag_id"`
	Tag      Tag  `gorm:"constraint:OnDelete:CASCADE" json:"tag"`
}

// Favorite marks a recipe as bookmarked by a user.
type Favorite struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe" json:"user_id"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index" json:"recipe_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Recipe    Recipe    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Shoplist is a shopping-cart entry; its recipe's ingredients are summed on export.
type Shoplist struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_shoplist_user_recipe" json:"user_id"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_shoplist_user_recipe;index" json:"recipe_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Recipe    Recipe    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// All lists every model in dependency order for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Ingredient{},
		&Tag{},
		&Recipe{},
		&RecipeIngredient{},
		&RecipeTag{},
		&Favorite{},
		&Shoplist{},
		&Follow{},
	}
}
