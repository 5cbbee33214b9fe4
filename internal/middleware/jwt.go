package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/weddingbets/backend/internal/apperr"
	"github.com/weddingbets/backend/pkg/response"
)

// ContextIdentity is the gin context key holding the caller's *Identity.
const ContextIdentity = "identity"

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID    uuid.UUID
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// Authenticator resolves a bearer token to an Identity.
type Authenticator func(ctx context.Context, token string) (*Identity, error)

// JWT returns a middleware that requires a valid bearer token and stores the Identity in context.
func JWT(authenticate Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, apperr.Unauthorized("Missing authorization header."))
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			response.Abort(c, apperr.Unauthorized("Invalid authorization header."))
			return
		}
		identity, err := authenticate(c.Request.Context(), token)
		if err != nil {
			response.Abort(c, err)
			return
		}
		c.Set(ContextIdentity, identity)
		c.Next()
	}
}

// CurrentIdentity returns the Identity set by JWT.
func CurrentIdentity(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok && id != nil
}

// UserID returns the caller's id, uuid.Nil when unauthenticated.
func UserID(c *gin.Context) uuid.UUID {
	if id, ok := CurrentIdentity(c); ok {
		return id.UserID
	}
	return uuid.Nil
}
