package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// IdentityMiddleware resolves the calling user from the X-User-ID header
// set by the gateway and stores it in the request context. Requests with
// no identity are rejected before reaching any handler.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
				Details: "missing X-User-ID header",
			})
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}
