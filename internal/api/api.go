package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/render"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Dependencies are the shared collaborators the handlers are built from.
type Dependencies struct {
	DB     *gorm.DB
	Config *config.Config
	Auth   *service.AuthService
	Images *service.ImageService
	// Limiter throttles recipe creation; nil disables it.
	Limiter *middleware.RateLimiter
}

// RegisterRoutes builds the services and mounts every endpoint on router.
func RegisterRoutes(router *gin.RouterGroup, deps Dependencies) {
	RegisterValidators()

	cfg := deps.Config
	db := deps.DB

	users := service.NewUserService(db)
	follows := service.NewFollowService(db)
	recipes := service.NewRecipeService(db, deps.Images)
	tags := service.NewTagService(db)
	ingredients := service.NewIngredientService(db, cfg.IngredientMatch)
	admin := service.NewAdminService(db, deps.Images)

	handlers := []interface{ RegisterRoutes(*gin.RouterGroup) }{
		NewUserHandler(deps.Auth, users, follows, cfg.PageSize),
		NewRecipeHandler(
			recipes,
			service.NewFavoriteService(db),
			service.NewShoplistService(db),
			service.NewShoppingListService(db),
			&render.Renderer{FontPath: cfg.PDFFontPath},
			deps.Auth,
			deps.Limiter,
			cfg.PageSize,
		),
		NewCatalogHandler(tags, ingredients),
		NewAdminHandler(admin, recipes, tags, db, deps.Auth, cfg.PageSize),
	}
	for _, h := range handlers {
		h.RegisterRoutes(router)
	}
}
