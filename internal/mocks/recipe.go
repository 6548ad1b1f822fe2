package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/foodgram/backend/internal/types"
)

// MockRecipeService is a mock implementation of the recipe service
type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) List(ctx context.Context, viewerID uint, f *types.RecipeFilter) ([]types.RecipeResponse, int64, error) {
	args := m.Called(ctx, viewerID, f)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]types.RecipeResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockRecipeService) Get(ctx context.Context, viewerID, id uint) (*types.RecipeResponse, error) {
	args := m.Called(ctx, viewerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeResponse), args.Error(1)
}

func (m *MockRecipeService) Create(ctx context.Context, authorID uint, req *types.CreateRecipeRequest) (*types.RecipeResponse, error) {
	args := m.Called(ctx, authorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeResponse), args.Error(1)
}

func (m *MockRecipeService) Update(ctx context.Context, userID, id uint, req *types.UpdateRecipeRequest) (*types.RecipeResponse, error) {
	args := m.Called(ctx, userID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeResponse), args.Error(1)
}

func (m *MockRecipeService) Delete(ctx context.Context, userID, id uint) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// MockCollectionService stands in for the favorites or shopping cart service
type MockCollectionService struct {
	mock.Mock
}

func (m *MockCollectionService) Add(ctx context.Context, userID, recipeID uint) (*types.ShortRecipeResponse, error) {
	args := m.Called(ctx, userID, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ShortRecipeResponse), args.Error(1)
}

func (m *MockCollectionService) Remove(ctx context.Context, userID, recipeID uint) error {
	args := m.Called(ctx, userID, recipeID)
	return args.Error(0)
}

type MockShoppingListService struct {
	mock.Mock
}

func (m *MockShoppingListService) Items(ctx context.Context, userID uint) ([]types.ShoppingItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.ShoppingItem), args.Error(1)
}
