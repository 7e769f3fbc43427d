package models

import (
	"time"

	"github.com/google/uuid"
)

// IntakeEvent is a single logged drink. Events are immutable once created;
// the only lifecycle operations are create and delete.
type IntakeEvent struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	OccurredAt time.Time
	CaffeineMg float64
	SugarG     float64
	Label      string
	CreatedAt  time.Time
}

type DailyTotals struct {
	CaffeineMg float64
	SugarG     float64
	Count      int
}
