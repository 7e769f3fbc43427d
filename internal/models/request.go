package models

import "time"

type CreateIntakeRequest struct {
	OccurredAt time.Time `json:"occurred_at" binding:"required"`
	CaffeineMg float64   `json:"caffeine_mg"`
	SugarG     float64   `json:"sugar_g"`
	Label      string    `json:"label"`
}

type ConfirmScanRequest struct {
	// OccurredAt defaults to now when omitted.
	OccurredAt *time.Time `json:"occurred_at,omitempty"`
	// Label overrides the product name recognized from the photo.
	Label string `json:"label,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
