package middleware

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tripmate-api/internal/constants"
	apierrors "github.com/yukikurage/tripmate-api/internal/errors"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequireAuth checks if the user is authenticated. A bearer token in the
// Authorization header takes precedence over the session cookie.
func RequireAuth(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				apierrors.Unauthorized(c, "Malformed Authorization header")
				return
			}

			userID, err := tokens.Verify(strings.TrimSpace(token))
			if err != nil {
				apierrors.Unauthorized(c, "Invalid or expired token")
				return
			}

			c.Set(constants.ContextKeyUserID, userID)
			c.Next()
			return
		}

		session := sessions.Default(c)
		userID, ok := session.Get(constants.ContextKeyUserID).(string)
		if !ok || userID == "" {
			apierrors.Unauthorized(c, "")
			return
		}

		// Store user ID in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID, ok := c.Get(constants.ContextKeyUserID)
	if !ok {
		return "", false
	}

	id, ok := userID.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
