package authmodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mverge/camwatch/internal/config"
)

const contextUserIDKey = "auth.user_id"
const contextUsernameKey = "auth.username"

// RequireAuth rejects requests without a valid session cookie and stores the
// authenticated identity in the request context.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookieName := config.Get().Auth.CookieName

		tokenString, err := c.Cookie(cookieName)
		if err != nil || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		claims, err := parseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		c.Set(contextUserIDKey, claims.UserID)
		c.Set(contextUsernameKey, claims.Username)
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id for the request. The
// second return is false on unauthenticated requests.
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(contextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// CurrentUsername returns the authenticated username for the request.
func CurrentUsername(c *gin.Context) (string, bool) {
	v, exists := c.Get(contextUsernameKey)
	if !exists {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}
