package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kkkiio/coffee-clock/internal/config"
)

// ServiceKeyMiddleware guards the internal worker endpoint. Only the
// submission side holds the service key; user JWTs cannot reach job writes.
func ServiceKeyMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Service-Key")
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing service key"})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.WorkerServiceKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid service key"})
			c.Abort()
			return
		}

		c.Next()
	}
}
