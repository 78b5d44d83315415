package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"receiptdesk/internal/domain"
)

const ContextKeyUserID = "user_id"

// UserIdentity returns Gin middleware that resolves the caller's user
// identifier from the X-User-Id header. Blank or absent headers fall back to
// the anonymous user.
//
// This is a deliberate placeholder: the header is untrusted and will be
// replaced by an authenticated claim.
func UserIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if userID == "" {
			userID = domain.AnonymousUser
		}
		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID returns the resolved user identifier for the request.
func GetUserID(c *gin.Context) string {
	if userID, exists := c.Get(ContextKeyUserID); exists {
		if s, ok := userID.(string); ok && s != "" {
			return s
		}
	}
	return domain.AnonymousUser
}
