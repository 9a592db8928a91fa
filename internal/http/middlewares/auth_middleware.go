package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/placehub/placehub/internal/auth"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

const (
	ctxUserIDKey = "auth.userID"
	ctxEmailKey  = "auth.email"
)

// RequireAuth guards a route group. CORS preflights pass through
// unconditionally; everything else needs a verifiable bearer token.
// Every failure mode gets the same uniform answer.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortAuthFailed(c)
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortAuthFailed(c)
			return
		}

		claims, err := m.jwt.VerifyToken(raw)
		if err != nil {
			abortAuthFailed(c)
			return
		}

		// Stash useful bits of identity on the context
		c.Set(ctxUserIDKey, claims.UserID)
		c.Set(ctxEmailKey, claims.Email)

		c.Next()
	}
}

func abortAuthFailed(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"message": "Authentication failed.",
	})
}

// Optional helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func EmailFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxEmailKey)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok
}
