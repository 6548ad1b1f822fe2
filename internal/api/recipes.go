package api

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/render"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type RecipeHandler struct {
	recipes   service.IRecipeService
	favorites service.ICollectionService
	cart      service.ICollectionService
	shopping  service.IShoppingListService
	renderer  *render.Renderer
	auth      middleware.TokenValidator
	limiter   *middleware.RateLimiter
	pageSize  int
}

// NewRecipeHandler wires the recipe endpoints. limiter may be nil to disable creation throttling.
func NewRecipeHandler(
	recipes service.IRecipeService,
	favorites, cart service.ICollectionService,
	shopping service.IShoppingListService,
	renderer *render.Renderer,
	auth middleware.TokenValidator,
	limiter *middleware.RateLimiter,
	pageSize int,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:   recipes,
		favorites: favorites,
		cart:      cart,
		shopping:  shopping,
		renderer:  renderer,
		auth:      auth,
		limiter:   limiter,
		pageSize:  pageSize,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	required := middleware.AuthMiddleware(h.auth)

	recipes := router.Group("/recipes")
	{
		recipes.GET("/", middleware.OptionalAuth(h.auth), h.ListRecipes)
		create := []gin.HandlerFunc{required}
		if h.limiter != nil {
			create = append(create, h.limiter.Middleware())
		}
		recipes.POST("/", append(create, h.CreateRecipe)...)
		recipes.GET("/download_shopping_cart/", required, h.DownloadShoppingCart)
		recipes.GET("/:id/", middleware.OptionalAuth(h.auth), h.GetRecipe)
		recipes.PATCH("/:id/", required, h.UpdateRecipe)
		recipes.DELETE("/:id/", required, h.DeleteRecipe)
		recipes.POST("/:id/favorite/", required, h.addTo(h.favorites))
		recipes.DELETE("/:id/favorite/", required, h.removeFrom(h.favorites))
		recipes.POST("/:id/shopping_cart/", required, h.addTo(h.cart))
		recipes.DELETE("/:id/shopping_cart/", required, h.removeFrom(h.cart))
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	var filter types.RecipeFilter
	if !bindQuery(c, &filter) {
		return
	}
	resolvePage(&filter.PageQuery, h.pageSize)

	viewerID, _ := middleware.UserID(c)
	results, total, err := h.recipes.List(c.Request.Context(), viewerID, &filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, filter.PageQuery, total, results))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	viewerID, _ := middleware.UserID(c)
	recipe, err := h.recipes.Get(c.Request.Context(), viewerID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.CreateRecipeRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, _ := middleware.UserID(c)

	recipe, err := h.recipes.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.FromGin(c).Info("recipe created", zap.Uint("recipe_id", recipe.ID), zap.Uint("author_id", userID))
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req types.UpdateRecipeRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, _ := middleware.UserID(c)

	recipe, err := h.recipes.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	if err := h.recipes.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) addTo(collection service.ICollectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		userID, _ := middleware.UserID(c)

		short, err := collection.Add(c.Request.Context(), userID, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, short)
	}
}

func (h *RecipeHandler) removeFrom(collection service.ICollectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		userID, _ := middleware.UserID(c)

		if err := collection.Remove(c.Request.Context(), userID, id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// DownloadShoppingCart sends the aggregated cart as text, or as PDF when asked for.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	items, err := h.shopping.Items(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	format := render.Negotiate(c.Query("format"), c.GetHeader("Accept"))
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, format, c.GetString(middleware.ContextUsername), items); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+format.Filename()+`"`)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
