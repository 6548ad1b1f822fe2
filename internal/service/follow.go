package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// FollowService manages subscriptions between users
type FollowService struct {
	db *gorm.DB
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{db: db}
}

// Subscribe makes userID follow targetID. recipesLimit < 0 returns every recipe of the author.
func (s *FollowService) Subscribe(ctx context.Context, userID, targetID uint, recipesLimit int) (*types.SubscriptionResponse, error) {
	var target models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&target, targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("user", targetID)
			}
			return err
		}
		if userID == targetID {
			return invalid("", "you cannot subscribe to yourself")
		}

		var count int64
		if err := tx.Model(&models.Follow{}).Where("user_id = ? AND following_id = ?", userID, targetID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflict("already subscribed to %s", target.Username)
		}

		if err := tx.Create(&models.Follow{UserID: userID, FollowingID: targetID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("already subscribed to %s", target.Username)
			}
			return fmt.Errorf("create follow: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out, err := s.present(ctx, []models.User{target}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// Unsubscribe removes the follow if it exists
func (s *FollowService) Unsubscribe(ctx context.Context, userID, targetID uint) error {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", targetID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound("user", targetID)
	}
	return db.Where("user_id = ? AND following_id = ?", userID, targetID).Delete(&models.Follow{}).Error
}

// Subscriptions lists the authors userID follows, in the order they were followed.
func (s *FollowService) Subscriptions(ctx context.Context, userID uint, page types.PageQuery, recipesLimit int) ([]types.SubscriptionResponse, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Follow{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var authors []models.User
	err := db.Model(&models.User{}).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.user_id = ?", userID).
		Order("follows.id").
		Scopes(paginate(page)).
		Find(&authors).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}

	out, err := s.present(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// present renders followed authors; is_subscribed is true by construction.
func (s *FollowService) present(ctx context.Context, authors []models.User, recipesLimit int) ([]types.SubscriptionResponse, error) {
	db := s.db.WithContext(ctx)
	out := make([]types.SubscriptionResponse, len(authors))
	for i := range authors {
		a := &authors[i]

		var count int64
		if err := db.Model(&models.Recipe{}).Where("author_id = ?", a.ID).Count(&count).Error; err != nil {
			return nil, err
		}

		q := db.Where("author_id = ?", a.ID).Order("id DESC")
		if recipesLimit >= 0 {
			q = q.Limit(recipesLimit)
		}
		var recipes []models.Recipe
		if recipesLimit != 0 {
			if err := q.Find(&recipes).Error; err != nil {
				return nil, err
			}
		}

		short := make([]types.ShortRecipeResponse, len(recipes))
		for j := range recipes {
			short[j] = shortRecipe(&recipes[j])
		}
		out[i] = types.SubscriptionResponse{
			UserResponse: userResponse(a, true),
			Recipes:      short,
			RecipesCount: count,
		}
	}
	return out, nil
}
