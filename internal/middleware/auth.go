package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// Context keys set by the auth middleware
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextClaims   = "claims"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
}

// AuthMiddleware rejects requests without a valid token
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, validator) {
			return
		}
		if _, ok := UserID(c); !ok {
			abortDetail(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the user when a token is sent and lets anonymous requests through.
// A token that is present but invalid is still rejected.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, validator) {
			return
		}
		c.Next()
	}
}

// authenticate stores the token claims on the context. It returns false after aborting.
func authenticate(c *gin.Context, validator TokenValidator) bool {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return true
	}

	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || token == "" || (!strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token")) {
		abortDetail(c, http.StatusUnauthorized, "Invalid authorization header format.")
		return false
	}

	claims, err := validator.ValidateToken(c.Request.Context(), strings.TrimSpace(token))
	if err != nil {
		msg := "Invalid token."
		switch {
		case errors.Is(err, service.ErrTokenRevoked):
			msg = "Token has been revoked."
		case !errors.Is(err, service.ErrInvalidToken):
			logger.FromGin(c).Error("token validation failed", zap.Error(err))
		}
		abortDetail(c, http.StatusUnauthorized, msg)
		return false
	}

	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
	c.Set(ContextClaims, claims)
	return true
}

// UserID returns the authenticated user's id
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

func Claims(c *gin.Context) *types.TokenClaims {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*types.TokenClaims)
	return claims
}

func abortDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}
