package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kkkiio/coffee-clock/internal/metabolism"
	"github.com/kkkiio/coffee-clock/internal/models"
	"github.com/kkkiio/coffee-clock/internal/supabase"
)

const (
	// eventLookback bounds how far back events are fetched for the decay
	// model. After 24 hours (nearly 5 half-lives) a dose is down to ~3%.
	eventLookback = 24 * time.Hour

	// defaultForecastWindow is the projection horizon when "to" is omitted.
	defaultForecastWindow = 12 * time.Hour

	// maxForecastPoints caps the series size a single request may ask for.
	maxForecastPoints = 1000
)

type MetabolismHandler struct {
	dbClient *supabase.DatabaseClient
}

func NewMetabolismHandler(dbClient *supabase.DatabaseClient) *MetabolismHandler {
	return &MetabolismHandler{
		dbClient: dbClient,
	}
}

// GetResidual returns the projected residual caffeine at one instant.
func (h *MetabolismHandler) GetResidual(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	at, ok := parseTimeQuery(c, "at", time.Now().UTC())
	if !ok {
		return
	}

	events, err := h.dbClient.ListIntakeEvents(c.Request.Context(), userID, at.Add(-eventLookback), at)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load intake events",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.ResidualResponse{
		At:         at,
		CaffeineMg: metabolism.ResidualAt(events, at),
	})
}

// GetForecast samples the residual curve across a window at a fixed step.
func (h *MetabolismHandler) GetForecast(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	from, ok := parseTimeQuery(c, "from", time.Now().UTC())
	if !ok {
		return
	}
	to, ok := parseTimeQuery(c, "to", from.Add(defaultForecastWindow))
	if !ok {
		return
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "to must not be before from"})
		return
	}

	stepMinutes := int(metabolism.DefaultStep / time.Minute)
	if raw := c.Query("step_minutes"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "step_minutes must be a positive integer"})
			return
		}
		stepMinutes = parsed
	}
	step := time.Duration(stepMinutes) * time.Minute

	if int(to.Sub(from)/step)+1 > maxForecastPoints {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "forecast window too large for the requested step"})
		return
	}

	// Events up to 24h before the window start still contribute to it.
	events, err := h.dbClient.ListIntakeEvents(c.Request.Context(), userID, from.Add(-eventLookback), to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load intake events",
			Message: err.Error(),
		})
		return
	}

	series := metabolism.ForecastSeries(events, from, to, step)

	response := models.ForecastResponse{
		From:        from,
		To:          to,
		StepMinutes: stepMinutes,
		Points:      make([]models.ForecastPointResponse, 0, len(series)),
	}
	for _, p := range series {
		response.Points = append(response.Points, models.ForecastPointResponse{
			At:         p.At,
			CaffeineMg: p.CaffeineMg,
		})
	}

	c.JSON(http.StatusOK, response)
}
