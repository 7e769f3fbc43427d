package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kkkiio/coffee-clock/internal/analysis"
	"github.com/kkkiio/coffee-clock/internal/models"
)

// AnalyzeHandler is the internal trigger endpoint the submission side fires.
// It is reachable only with the worker service key.
type AnalyzeHandler struct {
	worker *analysis.Worker
	logger *zap.Logger
}

func NewAnalyzeHandler(worker *analysis.Worker, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		worker: worker,
		logger: logger,
	}
}

// Analyze accepts a trigger and replies 202 immediately; the job is processed
// in a background goroutine and completion is observed through the job record.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req analysis.TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid trigger payload",
			Message: err.Error(),
		})
		return
	}

	if req.JobID == uuid.Nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "job_id is required"})
		return
	}
	if req.ImageBase64 == "" && req.BlobKey == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "image_base64 or blob_key is required"})
		return
	}

	h.logger.Info("analysis triggered", zap.String("job_id", req.JobID.String()))

	// Detached from the request context so the client's disconnect cannot
	// abandon a job mid-flight.
	go h.worker.Process(context.Background(), req)

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": req.JobID.String(),
		"status": "accepted",
	})
}
