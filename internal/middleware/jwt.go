package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-patrol-api/internal/service"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
	"github.com/noah-isme/sma-patrol-api/pkg/response"
)

// Gin context keys set by JWT.
const (
	ContextSessionKey   = "currentSession"
	ContextSessionIDKey = "session_id"
)

// Authenticator resolves a bearer token to its live session.
type Authenticator interface {
	Authenticate(token string) (*service.Session, error)
}

// JWT protects routes by requiring a valid access token bound to a live session.
func JWT(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		sess, err := auth.Authenticate(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, sess)
		c.Set(ContextSessionIDKey, sess.ID)
		c.Next()
	}
}

// SessionFromContext returns the session attached by JWT.
func SessionFromContext(c *gin.Context) *service.Session {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	sess, ok := value.(*service.Session)
	if !ok {
		return nil
	}
	return sess
}
