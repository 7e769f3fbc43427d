package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kkkiio/coffee-clock/internal/models"
	"github.com/kkkiio/coffee-clock/internal/supabase"
)

// defaultListWindow is how far back ListIntakes reaches when no range is given.
const defaultListWindow = 7 * 24 * time.Hour

type IntakeHandler struct {
	dbClient *supabase.DatabaseClient
}

func NewIntakeHandler(dbClient *supabase.DatabaseClient) *IntakeHandler {
	return &IntakeHandler{
		dbClient: dbClient,
	}
}

// CreateIntake records one drink. Events are append-only; corrections are
// made by deleting and re-creating.
func (h *IntakeHandler) CreateIntake(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	var req models.CreateIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if req.CaffeineMg < 0 || req.SugarG < 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "caffeine_mg and sugar_g must not be negative"})
		return
	}

	event := &models.IntakeEvent{
		ID:         uuid.New(),
		UserID:     userID,
		OccurredAt: req.OccurredAt.UTC(),
		CaffeineMg: req.CaffeineMg,
		SugarG:     req.SugarG,
		Label:      req.Label,
	}

	if err := h.dbClient.CreateIntakeEvent(c.Request.Context(), event); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create intake",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, intakeResponse(event))
}

// ListIntakes returns the user's events in a time window, newest first.
func (h *IntakeHandler) ListIntakes(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	to, ok := parseTimeQuery(c, "to", time.Now().UTC())
	if !ok {
		return
	}
	from, ok := parseTimeQuery(c, "from", to.Add(-defaultListWindow))
	if !ok {
		return
	}
	if from.After(to) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "from must not be after to"})
		return
	}

	events, err := h.dbClient.ListIntakeEvents(c.Request.Context(), userID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list intakes",
			Message: err.Error(),
		})
		return
	}

	response := models.IntakeListResponse{Intakes: make([]models.IntakeResponse, 0, len(events))}
	for i := range events {
		response.Intakes = append(response.Intakes, intakeResponse(&events[i]))
	}

	c.JSON(http.StatusOK, response)
}

func (h *IntakeHandler) DeleteIntake(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	intakeID, err := uuid.Parse(c.Param("intake_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid intake id"})
		return
	}

	if err := h.dbClient.DeleteIntakeEvent(c.Request.Context(), intakeID, userID); err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "intake not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete intake",
			Message: err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetDailySummary totals caffeine and sugar for one calendar day (UTC).
func (h *IntakeHandler) GetDailySummary(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid date, expected YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	totals, err := h.dbClient.GetDailyTotals(c.Request.Context(), userID, dayStart, dayEnd)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to get daily summary",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.DailySummaryResponse{
		Date:       dayStart.Format("2006-01-02"),
		CaffeineMg: totals.CaffeineMg,
		SugarG:     totals.SugarG,
		Count:      totals.Count,
	})
}

func intakeResponse(event *models.IntakeEvent) models.IntakeResponse {
	return models.IntakeResponse{
		ID:         event.ID.String(),
		OccurredAt: event.OccurredAt,
		CaffeineMg: event.CaffeineMg,
		SugarG:     event.SugarG,
		Label:      event.Label,
		CreatedAt:  event.CreatedAt,
	}
}

// parseTimeQuery reads an RFC 3339 query parameter, falling back to def when
// absent. On a malformed value it writes the error response and reports false.
func parseTimeQuery(c *gin.Context, name string, def time.Time) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid " + name + ", expected RFC 3339 timestamp"})
		return time.Time{}, false
	}
	return parsed, true
}
