package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/service"
)

// respondError maps service errors onto HTTP statuses and response bodies.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var verr *service.ValidationError
	var cerr *service.ConflictError
	switch {
	case errors.As(err, &verr):
		if verr.Field == "" {
			c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Message})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{verr.Field: []string{verr.Message}})
	case errors.As(err, &cerr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": cerr.Message})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"detail": "You do not have permission to perform this action."})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{err.Error()}})
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrTokenRevoked):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
	default:
		logger.FromGin(c).Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal Server Error"})
	}
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
}
