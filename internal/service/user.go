package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserService serves the public user directory
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) List(ctx context.Context, viewerID uint, page types.PageQuery) ([]types.UserResponse, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	if err := db.Order("id").Scopes(paginate(page)).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	ids := make([]uint, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	subscribed, err := subscribedTo(ctx, s.db, viewerID, ids)
	if err != nil {
		return nil, 0, err
	}

	out := make([]types.UserResponse, len(users))
	for i := range users {
		out[i] = userResponse(&users[i], subscribed[users[i].ID])
	}
	return out, total, nil
}

func (s *UserService) Get(ctx context.Context, viewerID, id uint) (*types.UserResponse, error) {
	user, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	subscribed, err := subscribedTo(ctx, s.db, viewerID, []uint{id})
	if err != nil {
		return nil, err
	}
	out := userResponse(user, subscribed[id])
	return &out, nil
}

// Find loads the user model
func (s *UserService) Find(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("user", id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
