package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kkkiio/coffee-clock/internal/analysis"
	"github.com/kkkiio/coffee-clock/internal/cache"
	"github.com/kkkiio/coffee-clock/internal/models"
	"github.com/kkkiio/coffee-clock/internal/poller"
	"github.com/kkkiio/coffee-clock/internal/supabase"
)

// Submitter initiates a photo analysis job.
type Submitter interface {
	Submit(ctx context.Context, userID uuid.UUID, image []byte, mimeType string) (uuid.UUID, error)
}

type ScanHandler struct {
	submitter       Submitter
	dbClient        *supabase.DatabaseClient
	cache           cache.Cache
	storageClient   *supabase.StorageClient
	pollInterval    time.Duration
	pollMaxAttempts int
	logger          *zap.Logger
}

func NewScanHandler(
	submitter Submitter,
	dbClient *supabase.DatabaseClient,
	ca cache.Cache,
	storageClient *supabase.StorageClient,
	pollInterval time.Duration,
	pollMaxAttempts int,
	logger *zap.Logger,
) *ScanHandler {
	return &ScanHandler{
		submitter:       submitter,
		dbClient:        dbClient,
		cache:           ca,
		storageClient:   storageClient,
		pollInterval:    pollInterval,
		pollMaxAttempts: pollMaxAttempts,
		logger:          logger,
	}
}

// SubmitScan accepts a multipart photo upload and starts an analysis job.
// It replies 202 with the job id; the analysis itself is asynchronous.
func (h *ScanHandler) SubmitScan(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	file, header, err := scanPhotoFile(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "missing image file",
			Message: "upload the photo under the 'image' form field",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read image",
			Message: err.Error(),
		})
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	jobID, err := h.submitter.Submit(c.Request.Context(), userID, data, mimeType)
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrImageTooLarge), errors.Is(err, analysis.ErrUnsupportedImageType):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid image",
				Message: err.Error(),
			})
		default:
			// A pending job row may exist; the client can still poll it
			// until it times out.
			h.logger.Error("scan submission failed", zap.String("user_id", userID.String()), zap.Error(err))
			c.JSON(http.StatusBadGateway, models.ErrorResponse{
				Error:   "failed to start analysis",
				Message: err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusAccepted, models.SubmitScanResponse{
		JobID:  jobID.String(),
		Status: models.JobStatusPending,
	})
}

// GetScanStatus returns the current job snapshot without waiting.
func (h *ScanHandler) GetScanStatus(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	jobID, ok := scanJobID(c)
	if !ok {
		return
	}

	job, err := h.dbClient.GetJob(c.Request.Context(), jobID, userID)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "scan not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to get scan",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, h.scanStatusResponse(job))
}

// WaitScan long-polls the job until a terminal outcome or the attempt cap.
// A timeout here reports only that the wait gave up; the job is untouched
// and may still finish.
func (h *ScanHandler) WaitScan(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	jobID, ok := scanJobID(c)
	if !ok {
		return
	}

	// Ownership is checked once up front; the poll loop then reads by id.
	job, err := h.dbClient.GetJob(c.Request.Context(), jobID, userID)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "scan not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to get scan",
			Message: err.Error(),
		})
		return
	}

	p := poller.New(
		&jobStatusSource{dbClient: h.dbClient, cache: h.cache},
		poller.WithInterval(h.pollInterval),
		poller.WithMaxAttempts(h.pollMaxAttempts),
	)

	result, err := p.Run(c.Request.Context(), jobID)

	var analysisErr *poller.AnalysisError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, models.ScanStatusResponse{
			JobID:     jobID.String(),
			Status:    models.JobStatusCompleted,
			Result:    result,
			PhotoURL:  h.photoURL(job),
			UpdatedAt: time.Now().UTC(),
		})
	case errors.As(err, &analysisErr):
		c.JSON(http.StatusOK, models.ScanStatusResponse{
			JobID:        jobID.String(),
			Status:       models.JobStatusFailed,
			ErrorMessage: analysisErr.Message,
			PhotoURL:     h.photoURL(job),
			UpdatedAt:    time.Now().UTC(),
		})
	case errors.Is(err, poller.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, models.ErrorResponse{
			Error:   "analysis still in progress",
			Message: "no terminal status within the wait window; poll the scan status endpoint",
		})
	case errors.Is(err, poller.ErrMissingResult):
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "analysis completed but no result data",
			Message: err.Error(),
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away; nothing useful to write.
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to wait for scan",
			Message: err.Error(),
		})
	}
}

// ConfirmScan turns a completed scan's recognized values into an intake
// event. Logging is always an explicit user action, never automatic.
func (h *ScanHandler) ConfirmScan(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	jobID, ok := scanJobID(c)
	if !ok {
		return
	}

	var req models.ConfirmScanRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	job, err := h.dbClient.GetJob(c.Request.Context(), jobID, userID)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "scan not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to get scan",
			Message: err.Error(),
		})
		return
	}

	if job.Status != models.JobStatusCompleted || job.Result == nil {
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "scan has no completed result to confirm"})
		return
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(job.Result, &result); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to decode scan result",
			Message: err.Error(),
		})
		return
	}

	occurredAt := time.Now().UTC()
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	label := req.Label
	if label == "" {
		label = strings.TrimSpace(result.Brand + " " + result.ProductName)
	}

	event := &models.IntakeEvent{
		ID:         uuid.New(),
		UserID:     userID,
		OccurredAt: occurredAt,
		Label:      label,
	}
	if result.CaffeineMg != nil {
		event.CaffeineMg = *result.CaffeineMg
	}
	if result.SugarG != nil {
		event.SugarG = *result.SugarG
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

func (h *ScanHandler) scanStatusResponse(job *models.AnalysisJob) models.ScanStatusResponse {
	response := models.ScanStatusResponse{
		JobID:     job.ID.String(),
		Status:    job.Status,
		PhotoURL:  h.photoURL(job),
		UpdatedAt: job.UpdatedAt,
	}
	if job.ErrorMessage.Valid {
		response.ErrorMessage = job.ErrorMessage.String
	}
	if job.Result != nil {
		var result models.AnalysisResult
		if err := json.Unmarshal(job.Result, &result); err == nil {
			response.Result = &result
		}
	}
	return response
}

func (h *ScanHandler) photoURL(job *models.AnalysisJob) string {
	if h.storageClient == nil || job.PhotoPath == "" {
		return ""
	}
	return h.storageClient.GetPublicURL(job.PhotoPath)
}

// scanPhotoFile accepts the upload under "image" with "photo" and "file" as
// fallbacks for older clients.
func scanPhotoFile(c *gin.Context) (multipart.File, *multipart.FileHeader, error) {
	for _, field := range []string{"image", "photo", "file"} {
		file, header, err := c.Request.FormFile(field)
		if err == nil {
			return file, header, nil
		}
	}
	return nil, nil, http.ErrMissingFile
}

func scanJobID(c *gin.Context) (uuid.UUID, bool) {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid job id"})
		return uuid.Nil, false
	}
	return jobID, true
}

// jobStatusSource adapts the cache mirror and the job store into the poller's
// read interface. Non-terminal statuses are served from the cache when
// available; terminal reads always go to Postgres for the payload.
type jobStatusSource struct {
	dbClient *supabase.DatabaseClient
	cache    cache.Cache
}

func (s *jobStatusSource) ReadStatus(ctx context.Context, jobID uuid.UUID) (*poller.Snapshot, error) {
	if s.cache != nil {
		status, found, err := s.cache.GetJobStatus(ctx, jobID)
		if err == nil && found && !models.IsTerminalStatus(status) {
			return &poller.Snapshot{Status: status}, nil
		}
	}

	job, err := s.dbClient.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	snap := &poller.Snapshot{Status: job.Status}
	if job.ErrorMessage.Valid {
		snap.ErrorMessage = job.ErrorMessage.String
	}
	if job.Result != nil {
		var result models.AnalysisResult
		if err := json.Unmarshal(job.Result, &result); err == nil {
			snap.Result = &result
		}
	}
	return snap, nil
}
