// Package poller observes an analysis job until it reaches a terminal state.
// It never drives transitions; it only reads, and translates what it sees
// into a typed result or error.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kkkiio/coffee-clock/internal/models"
)

const (
	DefaultInterval    = 2 * time.Second
	DefaultMaxAttempts = 60
)

var (
	// ErrTimeout means no terminal status was observed within the attempt
	// cap. The job record is not mutated; the worker may still finish later.
	ErrTimeout = errors.New("no terminal status observed within the attempt cap")

	// ErrMissingResult means the job reports completed but carries no
	// result payload.
	ErrMissingResult = errors.New("job completed but no result data")
)

// AnalysisError surfaces the error message stored on a failed job.
type AnalysisError struct {
	Message string
}

func (e *AnalysisError) Error() string { return e.Message }

// Snapshot is one observed read of a job.
type Snapshot struct {
	Status       string
	Result       *models.AnalysisResult
	ErrorMessage string
}

// StatusReader reads the current job state. Transient read errors are
// tolerated by the poller and count as ordinary attempts.
type StatusReader interface {
	ReadStatus(ctx context.Context, jobID uuid.UUID) (*Snapshot, error)
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithProgress registers a callback for human-readable progress labels.
func WithProgress(fn func(label string)) Option {
	return func(p *Poller) {
		p.onProgress = fn
	}
}

// Poller is a restartable poll state machine. Each Tick performs one read;
// Run drives ticks on a fixed interval until a terminal outcome, the attempt
// cap, or caller cancellation.
type Poller struct {
	reader      StatusReader
	interval    time.Duration
	maxAttempts int
	onProgress  func(string)

	attempts int
}

func New(reader StatusReader, opts ...Option) *Poller {
	p := &Poller{
		reader:      reader,
		interval:    DefaultInterval,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Tick performs a single poll. It returns done=true with the terminal
// translation once one is reached: (result, nil) on success, ErrMissingResult
// on a completed job without payload, *AnalysisError on failure, ErrTimeout
// once the attempt cap is exhausted. Read errors and non-terminal statuses
// keep the machine running; both count toward the cap.
func (p *Poller) Tick(ctx context.Context, jobID uuid.UUID) (*models.AnalysisResult, bool, error) {
	p.attempts++

	snap, err := p.reader.ReadStatus(ctx, jobID)
	if err == nil {
		switch snap.Status {
		case models.JobStatusPending:
			p.progress("waiting for analysis to start")
		case models.JobStatusProcessing:
			p.progress("analyzing photo")
		case models.JobStatusCompleted:
			if snap.Result == nil {
				return nil, true, ErrMissingResult
			}
			return snap.Result, true, nil
		case models.JobStatusFailed:
			message := snap.ErrorMessage
			if message == "" {
				message = "analysis failed"
			}
			return nil, true, &AnalysisError{Message: message}
		}
	}

	if p.attempts >= p.maxAttempts {
		return nil, true, ErrTimeout
	}
	return nil, false, nil
}

// Run polls until Tick reports done or ctx is cancelled. The interval timer
// is released on every exit path. Cancellation stops only this observation
// loop; the remote worker keeps running.
func (p *Poller) Run(ctx context.Context, jobID uuid.UUID) (*models.AnalysisResult, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		result, done, err := p.Tick(ctx, jobID)
		if done {
			return result, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) progress(label string) {
	if p.onProgress != nil {
		p.onProgress(label)
	}
}
