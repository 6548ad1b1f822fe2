package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/internal/logger"
)

// StaffChecker reports whether a user may use the admin API
type StaffChecker interface {
	IsStaff(ctx context.Context, userID uint) (bool, error)
}

// RequireStaff must run after AuthMiddleware. The staff flag is read from the database,
// never from the token.
func RequireStaff(checker StaffChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			abortDetail(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		staff, err := checker.IsStaff(c.Request.Context(), userID)
		if err != nil {
			logger.FromGin(c).Error("failed to check staff status", zap.Uint("user_id", userID), zap.Error(err))
			abortDetail(c, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if !staff {
			abortDetail(c, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		c.Next()
	}
}
