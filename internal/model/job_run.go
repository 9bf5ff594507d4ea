package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

type JobRunStatus string

const (
	StatusRunning   JobRunStatus = "running"
	StatusCompleted JobRunStatus = "completed"
	StatusFailed    JobRunStatus = "failed"
	StatusSkipped   JobRunStatus = "skipped"
	StatusTimeout   JobRunStatus = "timeout"
)

type JobTrigger string

const (
	TriggerSchedule JobTrigger = "schedule"
	TriggerStartup  JobTrigger = "startup"
	TriggerManual   JobTrigger = "manual"
)

// JobRun is the execution history of a scheduled or manually triggered job.
type JobRun struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	JobName      string         `gorm:"type:varchar(64);not null;index" json:"job_name"`
	Trigger      JobTrigger     `gorm:"type:varchar(16);not null" json:"trigger"`
	StartedAt    time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt  sql.NullTime   `json:"completed_at"`
	Status       JobRunStatus   `gorm:"type:varchar(16);not null" json:"status"`
	ExitCode     sql.NullInt32  `json:"exit_code"`
	Output       datatypes.JSON `gorm:"type:jsonb" json:"output"`
	ErrorMessage sql.NullString `gorm:"type:text" json:"error_message"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (JobRun) TableName() string {
	return "job_runs"
}
