package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/kkkiio/coffee-clock/internal/models"
)

var ErrNotFound = errors.New("resource not found")

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// CreateJob inserts the initial pending row. This is the only write the
// submitting side performs on a job; everything after is the worker's.
func (d *DatabaseClient) CreateJob(ctx context.Context, job *models.AnalysisJob) error {
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO analysis_jobs (id, user_id, status, photo_path)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, job.ID, job.UserID, models.JobStatusPending, job.PhotoPath).Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	job.Status = models.JobStatusPending

	return nil
}

func (d *DatabaseClient) GetJob(ctx context.Context, jobID, userID uuid.UUID) (*models.AnalysisJob, error) {
	return d.getJob(ctx, `
		SELECT id, user_id, status, result, error_message, photo_path, created_at, updated_at
		FROM analysis_jobs
		WHERE id = $1 AND user_id = $2
	`, jobID, userID)
}

// GetJobByID skips the owner check; it is for the worker and event paths.
func (d *DatabaseClient) GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.AnalysisJob, error) {
	return d.getJob(ctx, `
		SELECT id, user_id, status, result, error_message, photo_path, created_at, updated_at
		FROM analysis_jobs
		WHERE id = $1
	`, jobID)
}

func (d *DatabaseClient) getJob(ctx context.Context, query string, args ...interface{}) (*models.AnalysisJob, error) {
	var job models.AnalysisJob
	var result []byte
	err := d.db.QueryRowContext(ctx, query, args...).Scan(
		&job.ID, &job.UserID, &job.Status, &result,
		&job.ErrorMessage, &job.PhotoPath, &job.CreatedAt, &job.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if result != nil {
		job.Result = json.RawMessage(result)
	}

	return &job, nil
}

// MarkJobProcessing advances a pending job. The status guard keeps the
// transition one-directional; marking an already-terminal job is a no-op.
func (d *DatabaseClient) MarkJobProcessing(ctx context.Context, jobID uuid.UUID) error {
	_, err := d.db.ExecContext(ctx, `
		UPDATE analysis_jobs
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, models.JobStatusProcessing, jobID, models.JobStatusPending)
	return err
}

func (d *DatabaseClient) CompleteJob(ctx context.Context, jobID uuid.UUID, result json.RawMessage) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE analysis_jobs
		SET status = $1, result = $2, updated_at = NOW()
		WHERE id = $3 AND status IN ($4, $5)
	`, models.JobStatusCompleted, []byte(result), jobID, models.JobStatusPending, models.JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return requireRow(res)
}

func (d *DatabaseClient) FailJob(ctx context.Context, jobID uuid.UUID, message string) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE analysis_jobs
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3 AND status IN ($4, $5)
	`, models.JobStatusFailed, message, jobID, models.JobStatusPending, models.JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}
	return requireRow(res)
}

func (d *DatabaseClient) CreateIntakeEvent(ctx context.Context, event *models.IntakeEvent) error {
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO intake_events (id, user_id, occurred_at, caffeine_mg, sugar_g, label)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, event.ID, event.UserID, event.OccurredAt, event.CaffeineMg, event.SugarG, event.Label).Scan(&event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create intake event: %w", err)
	}

	return nil
}

func (d *DatabaseClient) ListIntakeEvents(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.IntakeEvent, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, user_id, occurred_at, caffeine_mg, sugar_g, label, created_at
		FROM intake_events
		WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at <= $3
		ORDER BY occurred_at DESC
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list intake events: %w", err)
	}
	defer rows.Close()

	var events []models.IntakeEvent
	for rows.Next() {
		var event models.IntakeEvent
		err := rows.Scan(
			&event.ID, &event.UserID, &event.OccurredAt,
			&event.CaffeineMg, &event.SugarG, &event.Label, &event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan intake event: %w", err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// DeleteIntakeEvent removes the user's own event; events are never mutated.
func (d *DatabaseClient) DeleteIntakeEvent(ctx context.Context, eventID, userID uuid.UUID) error {
	res, err := d.db.ExecContext(ctx, `
		DELETE FROM intake_events
		WHERE id = $1 AND user_id = $2
	`, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete intake event: %w", err)
	}
	return requireRow(res)
}

func (d *DatabaseClient) GetDailyTotals(ctx context.Context, userID uuid.UUID, dayStart, dayEnd time.Time) (*models.DailyTotals, error) {
	var totals models.DailyTotals
	err := d.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(caffeine_mg), 0), COALESCE(SUM(sugar_g), 0), COUNT(*)
		FROM intake_events
		WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at < $3
	`, userID, dayStart, dayEnd).Scan(&totals.CaffeineMg, &totals.SugarG, &totals.Count)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily totals: %w", err)
	}

	return &totals, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
