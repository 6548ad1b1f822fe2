package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// maxImportSize bounds an uploaded ingredient CSV.
const maxImportSize = 32 << 20

// AdminHandler exposes the staff-only management API.
type AdminHandler struct {
	admin    *service.AdminService
	recipes  service.IRecipeService
	tags     service.ITagService
	db       *gorm.DB
	auth     middleware.TokenValidator
	pageSize int
}

func NewAdminHandler(admin *service.AdminService, recipes service.IRecipeService, tags service.ITagService, db *gorm.DB, auth middleware.TokenValidator, pageSize int) *AdminHandler {
	return &AdminHandler{admin: admin, recipes: recipes, tags: tags, db: db, auth: auth, pageSize: pageSize}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin", middleware.AuthMiddleware(h.auth), middleware.RequireStaff(h.admin))

	users := admin.Group("/users")
	{
		users.GET("/", h.ListUsers)
		users.PATCH("/:id/", h.UpdateUser)
		users.DELETE("/:id/", h.DeleteUser)
	}

	recipes := admin.Group("/recipes")
	{
		recipes.GET("/", h.ListRecipes)
		recipes.GET("/:id/", h.GetRecipe)
		recipes.PATCH("/:id/", h.UpdateRecipe)
		recipes.DELETE("/:id/", h.DeleteRecipe)
	}

	tags := admin.Group("/tags")
	{
		tags.GET("/", h.ListTags)
		tags.POST("/", h.CreateTag)
		tags.PATCH("/:id/", h.UpdateTag)
		tags.DELETE("/:id/", h.DeleteTag)
	}

	ingredients := admin.Group("/ingredients")
	{
		ingredients.GET("/", h.ListIngredients)
		ingredients.POST("/", h.CreateIngredient)
		ingredients.POST("/import/", h.ImportIngredients)
		ingredients.PATCH("/:id/", h.UpdateIngredient)
		ingredients.DELETE("/:id/", h.DeleteIngredient)
	}

	for _, rel := range []service.Relation{service.RelationFavorites, service.RelationShoplists, service.RelationFollows} {
		group := admin.Group("/" + string(rel))
		group.GET("/", h.listRelations(rel))
		group.POST("/", h.createRelation(rel))
		group.DELETE("/:id/", h.deleteRelation(rel))
	}
}

// Users

func (h *AdminHandler) ListUsers(c *gin.Context) {
	var page types.PageQuery
	if !bindQuery(c, &page) {
		return
	}
	resolvePage(&page, h.pageSize)

	users, total, err := h.admin.ListUsers(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, page, total, users))
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req types.AdminUserUpdate
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.admin.UpdateUser(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	actorID, _ := middleware.UserID(c)

	if err := h.admin.DeleteUser(c.Request.Context(), actorID, id); err != nil {
		respondError(c, err)
		return
	}
	logger.FromGin(c).Info("user deleted by staff", zap.Uint("user_id", id), zap.Uint("actor_id", actorID))
	c.Status(http.StatusNoContent)
}

// Recipes

func (h *AdminHandler) ListRecipes(c *gin.Context) {
	var filter types.AdminRecipeFilter
	if !bindQuery(c, &filter) {
		return
	}
	resolvePage(&filter.PageQuery, h.pageSize)

	recipes, total, err := h.admin.ListRecipes(c.Request.Context(), &filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, filter.PageQuery, total, recipes))
}

func (h *AdminHandler) GetRecipe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	recipe, err := h.recipes.Get(c.Request.Context(), 0, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *AdminHandler) UpdateRecipe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req types.AdminRecipeUpdate
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.admin.UpdateRecipe(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	actorID, _ := middleware.UserID(c)
	logger.FromGin(c).Info("recipe edited by staff", zap.Uint("recipe_id", id), zap.Uint("actor_id", actorID))
	c.JSON(http.StatusOK, recipe)
}

func (h *AdminHandler) DeleteRecipe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteRecipe(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Tags

func (h *AdminHandler) ListTags(c *gin.Context) {
	tags, err := h.tags.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *AdminHandler) CreateTag(c *gin.Context) {
	var req types.TagRequest
	if !bindJSON(c, &req) {
		return
	}
	tag, err := h.admin.CreateTag(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (h *AdminHandler) UpdateTag(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req types.TagUpdate
	if !bindJSON(c, &req) {
		return
	}
	tag, err := h.admin.UpdateTag(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *AdminHandler) DeleteTag(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteTag(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Ingredients

func (h *AdminHandler) ListIngredients(c *gin.Context) {
	var page types.PageQuery
	if !bindQuery(c, &page) {
		return
	}
	resolvePage(&page, h.pageSize)

	items, total, err := h.admin.ListIngredients(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, page, total, items))
}

func (h *AdminHandler) CreateIngredient(c *gin.Context) {
	var req types.IngredientRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.admin.CreateIngredient(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *AdminHandler) UpdateIngredient(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req types.IngredientUpdate
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.admin.UpdateIngredient(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *AdminHandler) DeleteIngredient(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteIngredient(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportIngredients loads a name,measurement_unit CSV sent either as the
// multipart field "file" or as the raw request body.
func (h *AdminHandler) ImportIngredients(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)

	var src io.Reader = c.Request.Body
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"file": []string{"This field is required."}})
			return
		}
		f, err := fh.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer f.Close()
		src = f
	}

	result, err := service.ImportIngredients(c.Request.Context(), h.db, src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"file": []string{err.Error()}})
		return
	}
	logger.FromGin(c).Info("ingredients imported", zap.Int("created", result.Created), zap.Int("skipped", result.Skipped))
	c.JSON(http.StatusOK, result)
}

// Relations

func (h *AdminHandler) listRelations(rel service.Relation) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter types.AdminRelationFilter
		if !bindQuery(c, &filter) {
			return
		}
		resolvePage(&filter.PageQuery, h.pageSize)

		rows, total, err := h.admin.ListRelations(c.Request.Context(), rel, &filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, newPage(c, filter.PageQuery, total, rows))
	}
}

func (h *AdminHandler) createRelation(rel service.Relation) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.AdminRelationCreate
		if !bindJSON(c, &req) {
			return
		}
		row, err := h.admin.CreateRelation(c.Request.Context(), rel, &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, row)
	}
}

func (h *AdminHandler) deleteRelation(rel service.Relation) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := h.admin.DeleteRelation(c.Request.Context(), rel, id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
