package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job status values. Transitions are one-directional:
// pending -> processing -> completed | failed.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// IsTerminalStatus reports whether a job status admits no further transitions.
func IsTerminalStatus(status string) bool {
	return status == JobStatusCompleted || status == JobStatusFailed
}

// AnalysisJob is the durable record of one asynchronous photo recognition
// request. Only the worker writes status, result and error_message after the
// initial pending row is created.
type AnalysisJob struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Status       string
	Result       json.RawMessage
	ErrorMessage sql.NullString
	PhotoPath    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AnalysisResult is the structured payload of a completed job. Numeric fields
// are pointers so unknown values serialize as explicit nulls rather than being
// omitted; consumers rely on key presence.
type AnalysisResult struct {
	Brand       string   `json:"brand"`
	ProductName string   `json:"product_name"`
	SpecsText   string   `json:"specs_text"`
	CaffeineMg  *float64 `json:"caffeine_mg"`
	SugarG      *float64 `json:"sugar_g"`
	VolumeMl    *float64 `json:"volume_ml"`
	DataSource  string   `json:"data_source"` // "image", "search" or "estimation"
	Note        string   `json:"note"`
}
