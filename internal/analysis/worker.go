package analysis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kkkiio/coffee-clock/internal/cache"
	"github.com/kkkiio/coffee-clock/internal/models"
	"github.com/kkkiio/coffee-clock/internal/supabase"
)

// MaxErrorMessageBytes bounds persisted worker error messages.
const MaxErrorMessageBytes = 500

// DefaultAnalysisTimeout bounds a single vision API call.
const DefaultAnalysisTimeout = 90 * time.Second

// Model is the vision API the worker consumes.
type Model interface {
	Analyze(ctx context.Context, imageBase64, mimeType string) (string, error)
}

// Events publishes job lifecycle notifications for subscribed clients.
type Events interface {
	PublishScanEvent(userID, jobID uuid.UUID, event string, payload map[string]interface{}) error
}

// Worker executes triggered analysis jobs: it resolves the image, calls the
// vision model, parses the output and writes exactly one terminal status to
// the job record.
type Worker struct {
	store   Store
	cache   cache.Cache
	model   Model
	parser  *Parser
	events  Events
	timeout time.Duration
	logger  *zap.Logger
}

func NewWorker(store Store, ca cache.Cache, model Model, parser *Parser, events Events, timeout time.Duration, logger *zap.Logger) *Worker {
	if timeout <= 0 {
		timeout = DefaultAnalysisTimeout
	}
	return &Worker{
		store:   store,
		cache:   ca,
		model:   model,
		parser:  parser,
		events:  events,
		timeout: timeout,
		logger:  logger,
	}
}

// Process runs one job to a terminal state. It recovers from panics so a
// triggered job never stays processing forever on a worker crash.
func (w *Worker) Process(ctx context.Context, req TriggerRequest) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("panic while processing scan", zap.String("job_id", req.JobID.String()), zap.Any("panic", r))
			w.fail(ctx, req.JobID, fmt.Sprintf("panic: %v", r))
		}
	}()

	// The shuttled blob is read once and removed regardless of outcome.
	defer func() {
		if err := w.cache.DeleteScanImage(ctx, req.JobID); err != nil {
			w.logger.Warn("failed to delete scan image", zap.String("job_id", req.JobID.String()), zap.Error(err))
		}
	}()

	imageBase64, mimeType, err := w.resolveImage(ctx, req)
	if err != nil {
		w.fail(ctx, req.JobID, err.Error())
		return
	}

	if err := w.store.MarkJobProcessing(ctx, req.JobID); err != nil {
		w.logger.Warn("failed to mark job processing", zap.String("job_id", req.JobID.String()), zap.Error(err))
	}
	_ = w.cache.SetJobStatus(ctx, req.JobID, models.JobStatusProcessing, statusTTL)

	analysisCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	raw, err := w.model.Analyze(analysisCtx, imageBase64, mimeType)
	if err != nil {
		w.fail(ctx, req.JobID, err.Error())
		return
	}
	if strings.TrimSpace(raw) == "" {
		w.fail(ctx, req.JobID, ErrEmptyModelOutput.Error())
		return
	}

	result, err := w.parser.Parse(raw)
	if err != nil {
		w.fail(ctx, req.JobID, err.Error())
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		w.fail(ctx, req.JobID, fmt.Sprintf("encoding result: %v", err))
		return
	}

	if err := w.store.CompleteJob(ctx, req.JobID, payload); err != nil {
		w.logger.Error("failed to complete job", zap.String("job_id", req.JobID.String()), zap.Error(err))
		return
	}
	_ = w.cache.SetJobStatus(ctx, req.JobID, models.JobStatusCompleted, statusTTL)

	w.publish(ctx, req.JobID, "scan_completed", supabase.ScanCompletedPayload(req.JobID))
	w.logger.Info("scan analysis completed", zap.String("job_id", req.JobID.String()), zap.String("data_source", result.DataSource))
}

func (w *Worker) resolveImage(ctx context.Context, req TriggerRequest) (string, string, error) {
	if req.ImageBase64 != "" {
		return req.ImageBase64, req.MimeType, nil
	}

	data, mimeType, ok, err := w.cache.GetScanImage(ctx, req.JobID)
	if err != nil {
		return "", "", fmt.Errorf("reading scan image: %v", err)
	}
	if !ok {
		return "", "", fmt.Errorf("scan image expired before analysis started")
	}
	if mimeType == "" {
		mimeType = req.MimeType
	}
	return base64.StdEncoding.EncodeToString(data), mimeType, nil
}

func (w *Worker) fail(ctx context.Context, jobID uuid.UUID, message string) {
	message = truncateMessage(message, MaxErrorMessageBytes)
	if err := w.store.FailJob(ctx, jobID, message); err != nil {
		w.logger.Error("failed to record job failure", zap.String("job_id", jobID.String()), zap.Error(err))
		return
	}
	_ = w.cache.SetJobStatus(ctx, jobID, models.JobStatusFailed, statusTTL)

	w.publish(ctx, jobID, "scan_failed", supabase.ScanFailedPayload(jobID, message))
	w.logger.Info("scan analysis failed", zap.String("job_id", jobID.String()), zap.String("reason", message))
}

func (w *Worker) publish(ctx context.Context, jobID uuid.UUID, event string, payload map[string]interface{}) {
	if w.events == nil {
		return
	}
	job, err := w.store.GetJobByID(ctx, jobID)
	if err != nil {
		return
	}
	_ = w.events.PublishScanEvent(job.UserID, jobID, event, payload)
}

// truncateMessage truncates s to maxBytes without splitting UTF-8 runes.
func truncateMessage(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
