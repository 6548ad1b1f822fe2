package types

import (
	"github.com/shopspring/decimal"
)

// RegisterRequest represents the request body for user registration
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150,username"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the token login body
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SetPasswordRequest struct {
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128"`
	CurrentPassword string `json:"current_password" binding:"required"`
}

// IngredientAmount references an existing ingredient inside a recipe write
type IngredientAmount struct {
	ID     uint            `json:"id" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// CreateRecipeRequest represents the request body for creating a recipe
type CreateRecipeRequest struct {
	Ingredients []IngredientAmount `json:"ingredients" binding:"required,min=1,dive"`
	Tags        []uint             `json:"tags" binding:"required,min=1"`
	Image       string             `json:"image" binding:"required"`
	Name        string             `json:"name" binding:"required,max=200"`
	Text        string             `json:"text"`
	CookingTime int                `json:"cooking_time" binding:"required,min=1"`
}

// UpdateRecipeRequest is a partial update; nil fields are left untouched
type UpdateRecipeRequest struct {
	Ingredients *[]IngredientAmount `json:"ingredients" binding:"omitempty,min=1,dive"`
	Tags        *[]uint             `json:"tags" binding:"omitempty,min=1"`
	Image       *string             `json:"image"`
	Name        *string             `json:"name" binding:"omitempty,min=1,max=200"`
	Text        *string             `json:"text"`
	CookingTime *int                `json:"cooking_time" binding:"omitempty,min=1"`
}

// RecipeFilter holds the list query of GET /recipes
type RecipeFilter struct {
	Tags             []string `form:"tags"`
	AuthorID         uint     `form:"author"`
	IsFavorited      bool     `form:"is_favorited"`
	IsInShoppingCart bool     `form:"is_in_shopping_cart"`
	PageQuery
}

// PageQuery holds page-number pagination parameters
type PageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Offset returns the row offset for the page, assuming Limit has been resolved.
func (p PageQuery) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Admin requests

type AdminUserUpdate struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	IsStaff   *bool   `json:"is_staff"`
}

type TagRequest struct {
	Name  string `json:"name" binding:"required,max=200"`
	Color string `json:"color" binding:"required,color"`
	Slug  string `json:"slug" binding:"required,max=200,slug"`
}

type TagUpdate struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=200"`
	Color *string `json:"color" binding:"omitempty,color"`
	Slug  *string `json:"slug" binding:"omitempty,max=200,slug"`
}

type IngredientRequest struct {
	Name            string `json:"name" binding:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" binding:"required,max=200"`
}

type IngredientUpdate struct {
	Name            *string `json:"name" binding:"omitempty,min=1,max=200"`
	MeasurementUnit *string `json:"measurement_unit" binding:"omitempty,min=1,max=200"`
}

// AdminRecipeUpdate lets staff edit any recipe, including reassigning its author
type AdminRecipeUpdate struct {
	UpdateRecipeRequest
	AuthorID *uint `json:"author" binding:"omitempty,min=1"`
}

// AdminRelationCreate adds a favorite or shoplist row (user, recipe) or a follow (user, following)
type AdminRelationCreate struct {
	UserID      uint `json:"user" binding:"required"`
	RecipeID    uint `json:"recipe"`
	FollowingID uint `json:"following"`
}

// AdminRecipeFilter mirrors the admin recipe list search and filters
type AdminRecipeFilter struct {
	Search   string `form:"search"`
	AuthorID uint   `form:"author"`
	Tag      string `form:"tag"`
	PageQuery
}

// AdminRelationFilter filters favorites, shoplists and follows
type AdminRelationFilter struct {
	UserID      uint `form:"user"`
	RecipeID    uint `form:"recipe"`
	FollowingID uint `form:"following"`
	PageQuery
}
