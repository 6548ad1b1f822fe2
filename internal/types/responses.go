package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserResponse is the public user representation
type UserResponse struct {
	Email        string `json:"email"`
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// RegisterResponse omits is_subscribed, a new user follows nobody
type RegisterResponse struct {
	Email     string `json:"email"`
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

type TagResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type IngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// RecipeIngredientResponse is an ingredient row of a recipe, id is the ingredient id
type RecipeIngredientResponse struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	MeasurementUnit string  `json:"measurement_unit"`
	Amount          float64 `json:"amount"`
}

type RecipeResponse struct {
	ID               uint                       `json:"id"`
	Tags             []TagResponse              `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

type ShortRecipeResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// SubscriptionResponse is a followed author with a preview of their recipes
type SubscriptionResponse struct {
	UserResponse
	Recipes      []ShortRecipeResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

// ShoppingItem is one aggregated line of a shopping list
type ShoppingItem struct {
	Name   string
	Unit   string
	Amount decimal.Decimal
}

// Page is the paginated list envelope
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Admin responses

type AdminUserResponse struct {
	ID           uint      `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsStaff      bool      `json:"is_staff"`
	RecipesCount int64     `json:"recipes_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type AdminRecipeResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	AuthorID      uint      `json:"author_id"`
	Author        string    `json:"author"`
	CookingTime   int       `json:"cooking_time"`
	FavoriteCount int64     `json:"favorite_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// AdminRelationResponse describes a favorite, shoplist or follow row
type AdminRelationResponse struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"user_id"`
	User        string    `json:"user"`
	RecipeID    uint      `json:"recipe_id,omitempty"`
	Recipe      string    `json:"recipe,omitempty"`
	FollowingID uint      `json:"following_id,omitempty"`
	Following   string    `json:"following,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ImportResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}
