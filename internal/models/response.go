package models

import "time"

type IntakeResponse struct {
	ID         string    `json:"intake_id"`
	OccurredAt time.Time `json:"occurred_at"`
	CaffeineMg float64   `json:"caffeine_mg"`
	SugarG     float64   `json:"sugar_g"`
	Label      string    `json:"label"`
	CreatedAt  time.Time `json:"created_at"`
}

type IntakeListResponse struct {
	Intakes []IntakeResponse `json:"intakes"`
}

type DailySummaryResponse struct {
	Date       string  `json:"date"`
	CaffeineMg float64 `json:"caffeine_mg"`
	SugarG     float64 `json:"sugar_g"`
	Count      int     `json:"count"`
}

type ResidualResponse struct {
	At         time.Time `json:"at"`
	CaffeineMg float64   `json:"caffeine_mg"`
}

type ForecastPointResponse struct {
	At         time.Time `json:"at"`
	CaffeineMg float64   `json:"caffeine_mg"`
}

type ForecastResponse struct {
	From        time.Time               `json:"from"`
	To          time.Time               `json:"to"`
	StepMinutes int                     `json:"step_minutes"`
	Points      []ForecastPointResponse `json:"points"`
}

type SubmitScanResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type ScanStatusResponse struct {
	JobID        string          `json:"job_id"`
	Status       string          `json:"status"`
	Result       *AnalysisResult `json:"result,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	PhotoURL     string          `json:"photo_url,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
