package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
)

// CatalogHandler serves the read-only tag and ingredient lists. Neither is paginated.
type CatalogHandler struct {
	tags        service.ITagService
	ingredients service.IIngredientService
}

func NewCatalogHandler(tags service.ITagService, ingredients service.IIngredientService) *CatalogHandler {
	return &CatalogHandler{tags: tags, ingredients: ingredients}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/tags/", h.ListTags)
	router.GET("/tags/:id/", h.GetTag)
	router.GET("/ingredients/", h.ListIngredients)
	router.GET("/ingredients/:id/", h.GetIngredient)
}

func (h *CatalogHandler) ListTags(c *gin.Context) {
	tags, err := h.tags.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *CatalogHandler) GetTag(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	tag, err := h.tags.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

// ListIngredients filters by ?name=
func (h *CatalogHandler) ListIngredients(c *gin.Context) {
	items, err := h.ingredients.List(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *CatalogHandler) GetIngredient(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := h.ingredients.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
