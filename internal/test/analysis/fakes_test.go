package analysis_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kkkiio/coffee-clock/internal/analysis"
	"github.com/kkkiio/coffee-clock/internal/models"
)

type fakeStore struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]*models.AnalysisJob
	createErr error
	calls     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: map[uuid.UUID]*models.AnalysisJob{}}
}

func (s *fakeStore) CreateJob(ctx context.Context, job *models.AnalysisJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "create")
	if s.createErr != nil {
		return s.createErr
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

func (s *fakeStore) GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.AnalysisJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, errors.New("job not found")
	}
	copied := *job
	return &copied, nil
}

func (s *fakeStore) MarkJobProcessing(ctx context.Context, jobID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "processing")
	if job, ok := s.jobs[jobID]; ok && job.Status == models.JobStatusPending {
		job.Status = models.JobStatusProcessing
	}
	return nil
}

func (s *fakeStore) CompleteJob(ctx context.Context, jobID uuid.UUID, result json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "complete")
	job, ok := s.jobs[jobID]
	if !ok || models.IsTerminalStatus(job.Status) {
		return errors.New("no transitionable job")
	}
	job.Status = models.JobStatusCompleted
	job.Result = result
	return nil
}

func (s *fakeStore) FailJob(ctx context.Context, jobID uuid.UUID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "fail")
	job, ok := s.jobs[jobID]
	if !ok || models.IsTerminalStatus(job.Status) {
		return errors.New("no transitionable job")
	}
	job.Status = models.JobStatusFailed
	job.ErrorMessage.String = message
	job.ErrorMessage.Valid = true
	return nil
}

func (s *fakeStore) job(jobID uuid.UUID) *models.AnalysisJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[jobID]
}

type fakeCache struct {
	mu       sync.Mutex
	putErr   error
	images   map[uuid.UUID][]byte
	mimes    map[uuid.UUID]string
	statuses map[uuid.UUID]string
	deleted  []uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		images:   map[uuid.UUID][]byte{},
		mimes:    map[uuid.UUID]string{},
		statuses: map[uuid.UUID]string{},
	}
}

func (c *fakeCache) Ping(ctx context.Context) error { return nil }

func (c *fakeCache) PutScanImage(ctx context.Context, jobID uuid.UUID, data []byte, mimeType string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.putErr != nil {
		return c.putErr
	}
	c.images[jobID] = data
	c.mimes[jobID] = mimeType
	return nil
}

func (c *fakeCache) GetScanImage(ctx context.Context, jobID uuid.UUID) ([]byte, string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.images[jobID]
	if !ok {
		return nil, "", false, nil
	}
	return data, c.mimes[jobID], true, nil
}

func (c *fakeCache) DeleteScanImage(ctx context.Context, jobID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.images, jobID)
	delete(c.mimes, jobID)
	c.deleted = append(c.deleted, jobID)
	return nil
}

func (c *fakeCache) SetJobStatus(ctx context.Context, jobID uuid.UUID, status string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[jobID] = status
	return nil
}

func (c *fakeCache) GetJobStatus(ctx context.Context, jobID uuid.UUID) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.statuses[jobID]
	return status, ok, nil
}

type fakeTrigger struct {
	mu   sync.Mutex
	err  error
	reqs []analysis.TriggerRequest
}

func (t *fakeTrigger) Trigger(ctx context.Context, req analysis.TriggerRequest) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reqs = append(t.reqs, req)
	return t.err
}

type fakeModel struct {
	output   string
	err      error
	gotImage string
	gotMime  string
}

func (m *fakeModel) Analyze(ctx context.Context, imageBase64, mimeType string) (string, error) {
	m.gotImage = imageBase64
	m.gotMime = mimeType
	return m.output, m.err
}
