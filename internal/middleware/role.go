package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/weddingbets/backend/internal/apperr"
	"github.com/weddingbets/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{})
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			response.Abort(c, apperr.Unauthorized("Missing user context."))
			return
		}
		if _, ok := allowed[identity.Role]; !ok {
			response.Abort(c, apperr.Forbidden("Insufficient permissions."))
			return
		}
		c.Next()
	}
}
