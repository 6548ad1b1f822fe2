package service

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
	SetPassword(ctx context.Context, userID uint, current, next string) error
}

// IUserService defines the interface for reading user profiles
type IUserService interface {
	List(ctx context.Context, viewerID uint, page types.PageQuery) ([]types.UserResponse, int64, error)
	Get(ctx context.Context, viewerID, id uint) (*types.UserResponse, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	List(ctx context.Context, viewerID uint, f *types.RecipeFilter) ([]types.RecipeResponse, int64, error)
	Get(ctx context.Context, viewerID, id uint) (*types.RecipeResponse, error)
	Create(ctx context.Context, authorID uint, req *types.CreateRecipeRequest) (*types.RecipeResponse, error)
	Update(ctx context.Context, userID, id uint, req *types.UpdateRecipeRequest) (*types.RecipeResponse, error)
	Delete(ctx context.Context, userID, id uint) error
}

// ICollectionService is implemented by the favorites and shopping cart services
type ICollectionService interface {
	Add(ctx context.Context, userID, recipeID uint) (*types.ShortRecipeResponse, error)
	Remove(ctx context.Context, userID, recipeID uint) error
}

type IFollowService interface {
	Subscribe(ctx context.Context, userID, targetID uint, recipesLimit int) (*types.SubscriptionResponse, error)
	Unsubscribe(ctx context.Context, userID, targetID uint) error
	Subscriptions(ctx context.Context, userID uint, page types.PageQuery, recipesLimit int) ([]types.SubscriptionResponse, int64, error)
}

type IShoppingListService interface {
	Items(ctx context.Context, userID uint) ([]types.ShoppingItem, error)
}

type IIngredientService interface {
	List(ctx context.Context, name string) ([]types.IngredientResponse, error)
	Get(ctx context.Context, id uint) (*types.IngredientResponse, error)
}

type ITagService interface {
	List(ctx context.Context) ([]types.TagResponse, error)
	Get(ctx context.Context, id uint) (*types.TagResponse, error)
}

var (
	_ IAuthService         = (*AuthService)(nil)
	_ IUserService         = (*UserService)(nil)
	_ IRecipeService       = (*RecipeService)(nil)
	_ ICollectionService   = (*CollectionService)(nil)
	_ IFollowService       = (*FollowService)(nil)
	_ IShoppingListService = (*ShoppingListService)(nil)
	_ IIngredientService   = (*IngredientService)(nil)
	_ ITagService          = (*TagService)(nil)
)
