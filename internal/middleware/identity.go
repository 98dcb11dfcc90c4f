package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"studycircle-backend/pkg/response"
)

// UserIDHeader carries the caller identity resolved by the gateway.
// Authentication happens upstream; this service trusts the header.
const UserIDHeader = "X-User-ID"

// IdentityMiddleware extracts the caller's user ID and sets it in the
// Gin context. Requests without a valid ID are rejected.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		if raw == "" {
			response.Unauthorized(c, "X-User-ID header required")
			c.Abort()
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			response.Unauthorized(c, "X-User-ID must be a valid UUID")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// UserIDFromContext reads the caller identity set by IdentityMiddleware
func UserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := v.(uuid.UUID)
	return userID, ok
}
