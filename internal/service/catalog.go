package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IngredientService lists the ingredient catalogue
type IngredientService struct {
	db    *gorm.DB
	match string
}

// NewIngredientService takes the name match mode, config.MatchPrefix or config.MatchExact.
func NewIngredientService(db *gorm.DB, match string) *IngredientService {
	if match != config.MatchExact {
		match = config.MatchPrefix
	}
	return &IngredientService{db: db, match: match}
}

func (s *IngredientService) List(ctx context.Context, name string) ([]types.IngredientResponse, error) {
	q := s.db.WithContext(ctx).Model(&models.Ingredient{})
	if name != "" {
		if s.match == config.MatchExact {
			q = q.Where("name = ?", name)
		} else {
			q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(name))+"%")
		}
	}

	var items []models.Ingredient
	if err := q.Order("name").Find(&items).Error; err != nil {
		return nil, err
	}
	out := make([]types.IngredientResponse, len(items))
	for i := range items {
		out[i] = ingredientResponse(&items[i])
	}
	return out, nil
}

func (s *IngredientService) Get(ctx context.Context, id uint) (*types.IngredientResponse, error) {
	var item models.Ingredient
	err := s.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("ingredient", id)
	}
	if err != nil {
		return nil, err
	}
	out := ingredientResponse(&item)
	return &out, nil
}

type TagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

func (s *TagService) List(ctx context.Context) ([]types.TagResponse, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, err
	}
	out := make([]types.TagResponse, len(tags))
	for i := range tags {
		out[i] = tagResponse(&tags[i])
	}
	return out, nil
}

func (s *TagService) Get(ctx context.Context, id uint) (*types.TagResponse, error) {
	var tag models.Tag
	err := s.db.WithContext(ctx).First(&tag, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("tag", id)
	}
	if err != nil {
		return nil, err
	}
	out := tagResponse(&tag)
	return &out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
