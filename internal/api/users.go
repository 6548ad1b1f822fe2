package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserHandler serves registration, login and the user directory with subscriptions
type UserHandler struct {
	auth     service.IAuthService
	users    service.IUserService
	follows  service.IFollowService
	pageSize int
}

func NewUserHandler(auth service.IAuthService, users service.IUserService, follows service.IFollowService, pageSize int) *UserHandler {
	return &UserHandler{auth: auth, users: users, follows: follows, pageSize: pageSize}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	required := middleware.AuthMiddleware(h.auth)
	optional := middleware.OptionalAuth(h.auth)

	users := router.Group("/users")
	{
		users.GET("/", optional, h.ListUsers)
		users.POST("/", h.Register)
		users.GET("/me/", required, h.Me)
		users.POST("/set_password/", required, h.SetPassword)
		users.GET("/subscriptions/", required, h.Subscriptions)
		users.GET("/:id/", optional, h.GetUser)
		users.POST("/:id/subscribe/", required, h.Subscribe)
		users.DELETE("/:id/subscribe/", required, h.Unsubscribe)
	}

	token := router.Group("/auth/token")
	{
		token.POST("/login/", h.Login)
		token.POST("/logout/", required, h.Logout)
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.FromGin(c).Info("user registered", zap.Uint("user_id", user.ID))
	c.JSON(http.StatusCreated, types.RegisterResponse{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.TokenResponse{AuthToken: token})
}

func (h *UserHandler) Logout(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}
	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	var page types.PageQuery
	if !bindQuery(c, &page) {
		return
	}
	resolvePage(&page, h.pageSize)

	viewerID, _ := middleware.UserID(c)
	users, total, err := h.users.List(c.Request.Context(), viewerID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, page, total, users))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	viewerID, _ := middleware.UserID(c)
	user, err := h.users.Get(c.Request.Context(), viewerID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	user, err := h.users.Get(c.Request.Context(), userID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, _ := middleware.UserID(c)

	if err := h.auth.SetPassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	var page types.PageQuery
	if !bindQuery(c, &page) {
		return
	}
	resolvePage(&page, h.pageSize)
	limit, ok := recipesLimit(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	subs, total, err := h.follows.Subscriptions(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, page, total, subs))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	limit, ok := recipesLimit(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	sub, err := h.follows.Subscribe(c.Request.Context(), userID, id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)

	if err := h.follows.Unsubscribe(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
