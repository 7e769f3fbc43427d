package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kkkiio/coffee-clock/internal/config"
	"github.com/kkkiio/coffee-clock/internal/middleware"
)

func serviceKeyRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ServiceKeyMiddleware(cfg))
	router.POST("/analyze", func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	})
	return router
}

func TestServiceKeyMiddleware_MissingKey(t *testing.T) {
	router := serviceKeyRouter(&config.Config{WorkerServiceKey: "worker-secret"})

	req, _ := http.NewRequest("POST", "/analyze", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServiceKeyMiddleware_WrongKey(t *testing.T) {
	router := serviceKeyRouter(&config.Config{WorkerServiceKey: "worker-secret"})

	req, _ := http.NewRequest("POST", "/analyze", nil)
	req.Header.Set("X-Service-Key", "not-the-secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServiceKeyMiddleware_ValidKey(t *testing.T) {
	router := serviceKeyRouter(&config.Config{WorkerServiceKey: "worker-secret"})

	req, _ := http.NewRequest("POST", "/analyze", nil)
	req.Header.Set("X-Service-Key", "worker-secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
}
