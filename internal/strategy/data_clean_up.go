package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"
)

type DataCleanUpResult struct {
	Table string `json:"table"`
	Total int64  `json:"total"`
	Error string `json:"error,omitempty"`
}

type DataCleanUpStrategy struct {
	cfg              *config.Config
	log              *logger.Logger
	loginAttemptRepo repository.LoginAttemptRepository
	refreshTokenRepo repository.RefreshTokenRepository
	auditLogRepo     repository.AuditLogRepository
	jobRepo          repository.JobRepository
	now              func() time.Time
}

func NewDataCleanUpStrategy(
	cfg *config.Config,
	log *logger.Logger,
	loginAttemptRepo repository.LoginAttemptRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	auditLogRepo repository.AuditLogRepository,
	jobRepo repository.JobRepository,
) JobExecutionStrategy {
	return &DataCleanUpStrategy{
		cfg:              cfg,
		log:              log,
		loginAttemptRepo: loginAttemptRepo,
		refreshTokenRepo: refreshTokenRepo,
		auditLogRepo:     auditLogRepo,
		jobRepo:          jobRepo,
		now:              utils.TimeNowUTC,
	}
}

func (s *DataCleanUpStrategy) Execute(ctx context.Context) (JobResult, error) {
	s.log.InfoContext(ctx, "Starting data clean up", logger.IntField("retention_days", s.cfg.CleanUp.RetentionDays))

	now := s.now()
	date := now.AddDate(0, 0, -s.cfg.CleanUp.RetentionDays)

	steps := []struct {
		table string
		run   func() (int64, error)
	}{
		{"login_attempts", func() (int64, error) { return s.loginAttemptRepo.DeleteOlderThan(ctx, date) }},
		{"refresh_tokens", func() (int64, error) { return s.refreshTokenRepo.DeleteExpiredOrRevoked(ctx, now) }},
		{"security_audit_logs", func() (int64, error) { return s.auditLogRepo.DeleteOlderThan(ctx, date) }},
		{"job_runs", func() (int64, error) { return s.jobRepo.DeleteJobRunsOlderThan(ctx, date) }},
	}

	outputMsg := make([]DataCleanUpResult, 0, len(steps))
	failed := 0
	for _, step := range steps {
		total, err := step.run()
		result := DataCleanUpResult{Table: step.table, Total: total}
		if err != nil {
			failed++
			s.log.ErrorContext(ctx, "Failed to clean up table", logger.StringField("table", step.table), logger.ErrorField(err))
			result.Error = fmt.Sprintf("failed to delete %s older than %v: %v", step.table, date, err)
		}
		outputMsg = append(outputMsg, result)
	}

	res, err := json.Marshal(outputMsg)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to marshal output message", logger.ErrorField(err))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to marshal output message: %v", err)}, fmt.Errorf("failed to marshal output message: %w", err)
	}

	switch {
	case failed == len(steps):
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: string(res)}, fmt.Errorf("data clean up failed for every table")
	case failed > 0:
		return JobResult{ExitCode: JOB_EXIT_CODE_PARTIAL_SUCCESS, Output: string(res)}, nil
	}
	return JobResult{ExitCode: JOB_EXIT_CODE_SUCCESS, Output: string(res)}, nil
}

func (s *DataCleanUpStrategy) GetType() JobType {
	return JobTypeDataCleanUp
}
