package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultCSP = "default-src 'none'"
	// Served images are embedded cross-origin by the frontend.
	uploadsCSP = "default-src 'none'; img-src 'self'"
)

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("X-XSS-Protection", "0")
		if strings.HasPrefix(c.Request.URL.Path, "/uploads") {
			c.Header("Content-Security-Policy", uploadsCSP)
		} else {
			c.Header("Content-Security-Policy", defaultCSP)
		}
		c.Next()
	}
}
