package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/internal/strategy"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"

	"gorm.io/datatypes"
)

// ErrUnknownJob is returned for a job name without a registered strategy.
var ErrUnknownJob = errors.New("unknown job")

type TaskExecutor interface {
	// Execute runs one job and records the run in job_runs.
	Execute(ctx context.Context, jobType strategy.JobType, trigger model.JobTrigger) (*model.JobRun, error)
	HasJob(jobType strategy.JobType) bool
}

type taskExecutor struct {
	cfg                *config.Config
	log                *logger.Logger
	jobRepo            repository.JobRepository
	executorStrategies map[strategy.JobType]strategy.JobExecutionStrategy
}

func NewTaskExecutor(cfg *config.Config, log *logger.Logger, jobRepo repository.JobRepository, strategies ...strategy.JobExecutionStrategy) TaskExecutor {
	executorStrategies := make(map[strategy.JobType]strategy.JobExecutionStrategy, len(strategies))
	for _, s := range strategies {
		executorStrategies[s.GetType()] = s
	}
	return &taskExecutor{
		jobRepo:            jobRepo,
		cfg:                cfg,
		log:                log,
		executorStrategies: executorStrategies,
	}
}

func (t *taskExecutor) HasJob(jobType strategy.JobType) bool {
	_, ok := t.executorStrategies[jobType]
	return ok
}

func (t *taskExecutor) Execute(ctx context.Context, jobType strategy.JobType, trigger model.JobTrigger) (*model.JobRun, error) {
	jobStrategy, ok := t.executorStrategies[jobType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, jobType)
	}

	run := &model.JobRun{
		JobName:   string(jobType),
		Trigger:   trigger,
		StartedAt: utils.TimeNowUTC(),
		Status:    model.StatusRunning,
	}
	if err := t.jobRepo.CreateJobRun(ctx, run); err != nil {
		t.log.ErrorContext(ctx, "Failed to create job run", logger.ErrorField(err), logger.StringField("job_name", run.JobName))
		return nil, fmt.Errorf("failed to create job run: %w", err)
	}

	t.log.InfoContext(ctx, "Processing job",
		logger.StringField("job_name", run.JobName),
		logger.UintField("run_id", run.ID),
		logger.StringField("trigger", string(trigger)),
	)

	timeout := t.cfg.Scheduler.TimeoutDuration
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	result, err := jobStrategy.Execute(jobCtx)
	jobErr := jobCtx.Err()
	cancel()

	switch {
	case errors.Is(jobErr, context.DeadlineExceeded):
		run.Status = model.StatusTimeout
		run.ErrorMessage = sql.NullString{String: fmt.Sprintf("job exceeded timeout of %s", timeout), Valid: true}
		t.log.ErrorContextWithAlert(ctx, "Job timed out", logger.StringField("job_name", run.JobName), logger.DurationField("timeout", timeout))
	case err != nil:
		run.Status = model.StatusFailed
		run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		t.log.ErrorContextWithAlert(ctx, "Failed to execute job", logger.ErrorField(err), logger.StringField("job_name", run.JobName))
	case result.ExitCode == strategy.JOB_EXIT_CODE_SKIPPED:
		run.Status = model.StatusSkipped
	default:
		run.Status = model.StatusCompleted
	}
	run.ExitCode = sql.NullInt32{Int32: result.ExitCode, Valid: true}
	run.Output = jobOutput(result.Output)
	run.CompletedAt = sql.NullTime{Time: utils.TimeNowUTC(), Valid: true}

	// The run must be closed even when the caller's context is already done.
	if err := t.jobRepo.UpdateJobRun(context.WithoutCancel(ctx), run); err != nil {
		t.log.ErrorContext(ctx, "Failed to update job run", logger.ErrorField(err), logger.UintField("run_id", run.ID))
		return run, fmt.Errorf("failed to update job run: %w", err)
	}

	t.log.InfoContext(ctx, "Job execution completed",
		logger.StringField("job_name", run.JobName),
		logger.UintField("run_id", run.ID),
		logger.StringField("status", string(run.Status)),
		logger.DurationField("duration", run.CompletedAt.Time.Sub(run.StartedAt)),
	)
	return run, nil
}

// jobOutput stores JSON output as-is and wraps anything else as a JSON string.
func jobOutput(output string) datatypes.JSON {
	if output == "" {
		return nil
	}
	if json.Valid([]byte(output)) {
		return datatypes.JSON(output)
	}
	wrapped, _ := json.Marshal(output)
	return datatypes.JSON(wrapped)
}
