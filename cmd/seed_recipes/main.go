package main

import (
	"context"
	"log"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// 1x1 transparent PNG
const placeholderImage = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

type ingredient struct {
	name   string
	unit   string
	amount string
}

type recipeData struct {
	author      string
	name        string
	text        string
	cookingTime int
	tags        []string
	ingredients []ingredient
}

var recipes = []recipeData{
	{"johndoe", "Buttermilk pancakes", "Whisk, rest for ten minutes and fry in butter.", 25,
		[]string{"breakfast"},
		[]ingredient{{"flour", "g", "200"}, {"buttermilk", "ml", "300"}, {"egg", "pcs", "2"}, {"butter", "g", "30"}}},
	{"johndoe", "Tomato soup", "Roast the tomatoes, blend with stock and season.", 45,
		[]string{"lunch", "dinner"},
		[]ingredient{{"tomato", "g", "800"}, {"onion", "pcs", "1"}, {"vegetable stock", "ml", "500"}}},
	{"janesmith", "Shakshuka", "Simmer peppers and tomatoes, crack in the eggs, cover until set.", 30,
		[]string{"breakfast", "lunch"},
		[]ingredient{{"tomato", "g", "400"}, {"egg", "pcs", "4"}, {"bell pepper", "pcs", "2"}, {"onion", "pcs", "1"}}},
	{"janesmith", "Mushroom risotto", "Toast the rice, add stock ladle by ladle, finish with butter.", 40,
		[]string{"dinner"},
		[]ingredient{{"arborio rice", "g", "300"}, {"mushrooms", "g", "250"}, {"vegetable stock", "ml", "1000"}, {"butter", "g", "40"}}},
	{"bobwilson", "Greek salad", "Chop everything coarsely and dress with olive oil.", 15,
		[]string{"lunch"},
		[]ingredient{{"tomato", "g", "300"}, {"cucumber", "pcs", "1"}, {"feta", "g", "150"}, {"olive oil", "ml", "30"}}},
}

const batchSize = 2

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	zlog := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = zlog.Sync() }()

	db, err := database.New(cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}

	var store service.ImageStore = service.NewLocalImageStore(cfg.MediaRoot, cfg.MediaURL)
	if cfg.StorageBackend == config.StorageS3 {
		s3Config, err := config.NewS3Config(context.Background(), cfg)
		if err != nil {
			zlog.Fatal("Failed to initialize S3", zap.Error(err))
		}
		store = service.NewS3ImageStore(s3Config)
	}
	recipeService := service.NewRecipeService(db, service.NewImageService(store, zlog))

	ctx := context.Background()
	for i := 0; i < len(recipes); i += batchSize {
		end := min(i+batchSize, len(recipes))
		zlog.Info("Seeding batch of recipes", zap.Int("from", i+1), zap.Int("to", end))

		for _, data := range recipes[i:end] {
			req, authorID, err := buildRequest(db, data)
			if err != nil {
				zlog.Warn("Skipping recipe", zap.String("name", data.name), zap.Error(err))
				continue
			}
			recipe, err := recipeService.Create(ctx, authorID, req)
			if err != nil {
				zlog.Warn("Failed to create recipe", zap.String("name", data.name), zap.Error(err))
				continue
			}
			zlog.Info("Created recipe", zap.Uint("id", recipe.ID), zap.String("name", recipe.Name))
		}
	}
}

// buildRequest resolves the author and tags and get-or-creates the ingredients.
func buildRequest(db *gorm.DB, data recipeData) (*types.CreateRecipeRequest, uint, error) {
	var author models.User
	if err := db.Where("username = ?", data.author).First(&author).Error; err != nil {
		return nil, 0, err
	}

	var tags []models.Tag
	if err := db.Where("slug IN ?", data.tags).Find(&tags).Error; err != nil {
		return nil, 0, err
	}
	if len(tags) == 0 {
		return nil, 0, gorm.ErrRecordNotFound
	}

	req := &types.CreateRecipeRequest{
		Image:       placeholderImage,
		Name:        data.name,
		Text:        data.text,
		CookingTime: data.cookingTime,
	}
	for _, t := range tags {
		req.Tags = append(req.Tags, t.ID)
	}
	for _, ing := range data.ingredients {
		item := models.Ingredient{Name: ing.name, MeasurementUnit: ing.unit}
		if err := db.Where(models.Ingredient{Name: ing.name}).FirstOrCreate(&item).Error; err != nil {
			return nil, 0, err
		}
		req.Ingredients = append(req.Ingredients, types.IngredientAmount{
			ID:     item.ID,
			Amount: decimal.RequireFromString(ing.amount),
		})
	}
	return req, author.ID, nil
}
