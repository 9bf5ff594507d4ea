package dto

import (
	"encoding/json"
	"time"
)

type JobRunResponse struct {
	ID           uint            `json:"id"`
	JobName      string          `json:"job_name"`
	Trigger      string          `json:"trigger"`
	Status       string          `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	ExitCode     *int32          `json:"exit_code,omitempty"`
	Output       json.RawMessage `json:"output,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}
