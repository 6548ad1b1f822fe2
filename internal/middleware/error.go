package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of framework-level errors
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// NotFound answers unknown routes with JSON instead of gin's plain text.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Detail: "Not found."})
	}
}

func MethodNotAllowed() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, ErrorResponse{
			Detail: "Method \"" + c.Request.Method + "\" not allowed.",
		})
	}
}
