package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kkkiio/coffee-clock/internal/models"
)

// HealthHandler reports liveness for load balancers and uptime checks.
func HealthHandler(c *gin.Context) {
	response := models.HealthResponse{
		Status: "ok",
	}
	c.JSON(http.StatusOK, response)
}
