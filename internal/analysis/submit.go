package analysis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kkkiio/coffee-clock/internal/cache"
	"github.com/kkkiio/coffee-clock/internal/models"
)

const (
	// DefaultMaxImageBytes is the submission size ceiling.
	DefaultMaxImageBytes = 5 << 20

	// blobTTL bounds how long a shuttled image may wait for its worker.
	blobTTL = 10 * time.Minute

	// statusTTL bounds the cached job-status mirror.
	statusTTL = 30 * time.Minute
)

var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
}

// Store is the subset of the job store the analysis pipeline writes through.
type Store interface {
	CreateJob(ctx context.Context, job *models.AnalysisJob) error
	GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.AnalysisJob, error)
	MarkJobProcessing(ctx context.Context, jobID uuid.UUID) error
	CompleteJob(ctx context.Context, jobID uuid.UUID, result json.RawMessage) error
	FailJob(ctx context.Context, jobID uuid.UUID, message string) error
}

// Photos persists the original scan photo for later display.
type Photos interface {
	UploadScanPhoto(userID, jobID uuid.UUID, mimeType string, data []byte) (string, string, error)
	ScanPhotoPath(userID, jobID uuid.UUID, mimeType string) string
}

// Client initiates asynchronous photo analysis. It validates the image,
// creates the durable pending job row, shuttles the image to the worker and
// fires the trigger, in that order. The row is guaranteed to exist before the
// trigger so the poller always has an anchor.
type Client struct {
	store         Store
	cache         cache.Cache
	trigger       Trigger
	photos        Photos
	maxImageBytes int64
	logger        *zap.Logger
}

func NewClient(store Store, ca cache.Cache, trigger Trigger, photos Photos, maxImageBytes int64, logger *zap.Logger) *Client {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &Client{
		store:         store,
		cache:         ca,
		trigger:       trigger,
		photos:        photos,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

// Submit returns the new job's identifier without waiting for the analysis to
// complete. A trigger failure after the pending row was created returns both
// the job id and a wrapped ErrSubmission; the row is left for the poller to
// time out on rather than cleaned up.
func (c *Client) Submit(ctx context.Context, userID uuid.UUID, image []byte, mimeType string) (uuid.UUID, error) {
	if int64(len(image)) > c.maxImageBytes {
		return uuid.Nil, fmt.Errorf("%w: %d bytes, limit is %d", ErrImageTooLarge, len(image), c.maxImageBytes)
	}
	if !allowedMimeTypes[mimeType] {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrUnsupportedImageType, mimeType)
	}

	job := &models.AnalysisJob{
		ID:     uuid.New(),
		UserID: userID,
		Status: models.JobStatusPending,
	}
	if c.photos != nil {
		job.PhotoPath = c.photos.ScanPhotoPath(userID, job.ID, mimeType)
	}

	if err := c.store.CreateJob(ctx, job); err != nil {
		return uuid.Nil, fmt.Errorf("%w: creating job record: %v", ErrSubmission, err)
	}

	if err := c.cache.SetJobStatus(ctx, job.ID, models.JobStatusPending, statusTTL); err != nil {
		c.logger.Warn("failed to mirror job status", zap.String("job_id", job.ID.String()), zap.Error(err))
	}

	req := TriggerRequest{JobID: job.ID, MimeType: mimeType}
	if err := c.cache.PutScanImage(ctx, job.ID, image, mimeType, blobTTL); err != nil {
		// Cache unavailable: fall back to carrying the image inline.
		c.logger.Warn("failed to stash scan image, sending inline", zap.String("job_id", job.ID.String()), zap.Error(err))
		req.ImageBase64 = base64.StdEncoding.EncodeToString(image)
	} else {
		req.BlobKey = cache.ScanImageKey(job.ID)
	}

	if c.photos != nil {
		if _, _, err := c.photos.UploadScanPhoto(userID, job.ID, mimeType, image); err != nil {
			c.logger.Warn("failed to store scan photo", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
	}

	if err := c.trigger.Trigger(ctx, req); err != nil {
		// The pending row persists; the poller will time out on it.
		return job.ID, fmt.Errorf("%w: triggering worker: %v", ErrSubmission, err)
	}

	return job.ID, nil
}
