package service

import (
	"context"
	"fmt"
	"time"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/internal/strategy"
	"golang-stock-tracker/pkg/apperror"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"

	"github.com/robfig/cron/v3"
)

type SchedulerService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
	// RunJob triggers a job in the background.
	RunJob(ctx context.Context, name string) error
	GetJobRuns(ctx context.Context, jobName string, limit int) ([]dto.JobRunResponse, error)
}

// startupJobs run once after Scheduler.StartupDelay.
var startupJobs = []strategy.JobType{strategy.JobTypeAlertRules, strategy.JobTypeWatchlistAlerts}

type schedulerService struct {
	cfg          *config.Config
	log          *logger.Logger
	cron         *cron.Cron
	jobRepo      repository.JobRepository
	taskExecutor TaskExecutor
	rootCtx      context.Context
}

func NewSchedulerService(
	cfg *config.Config,
	log *logger.Logger,
	jobRepo repository.JobRepository,
	taskExecutor TaskExecutor,
) SchedulerService {
	cronLog := cronLogger{log: log}
	return &schedulerService{
		cfg: cfg,
		log: log,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		jobRepo:      jobRepo,
		taskExecutor: taskExecutor,
		rootCtx:      context.Background(),
	}
}

func (s *schedulerService) Start(ctx context.Context) error {
	s.rootCtx = ctx

	schedules := []struct {
		spec    string
		jobType strategy.JobType
	}{
		{s.cfg.Scheduler.AlertRulesCron, strategy.JobTypeAlertRules},
		{s.cfg.Scheduler.WatchlistAlertsCron, strategy.JobTypeWatchlistAlerts},
		{s.cfg.Scheduler.DataCleanUpCron, strategy.JobTypeDataCleanUp},
	}
	for _, sc := range schedules {
		if sc.spec == "" {
			s.log.Warn("Job schedule disabled", logger.StringField("job_name", string(sc.jobType)))
			continue
		}
		jobType := sc.jobType
		if _, err := s.cron.AddFunc(sc.spec, func() { s.execute(ctx, jobType, model.TriggerSchedule) }); err != nil {
			return fmt.Errorf("failed to schedule %s with %q: %w", jobType, sc.spec, err)
		}
		s.log.Info("Job scheduled", logger.StringField("job_name", string(jobType)), logger.StringField("cron", sc.spec))
	}
	s.cron.Start()

	delay := s.cfg.Scheduler.StartupDelay
	utils.GoSafe(s.log, func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
			for _, jobType := range startupJobs {
				s.execute(ctx, jobType, model.TriggerStartup)
			}
		}
	})
	return nil
}

// Stop waits for running cron jobs to finish or ctx to expire.
func (s *schedulerService) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		s.log.Info("Scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("Scheduler stop timed out waiting for running jobs")
	}
}

func (s *schedulerService) execute(ctx context.Context, jobType strategy.JobType, trigger model.JobTrigger) {
	if _, err := s.taskExecutor.Execute(ctx, jobType, trigger); err != nil {
		s.log.ErrorContext(ctx, "Failed to execute job", logger.ErrorField(err), logger.StringField("job_name", string(jobType)))
	}
}

func (s *schedulerService) RunJob(ctx context.Context, name string) error {
	jobType := strategy.JobType(name)
	if !s.taskExecutor.HasJob(jobType) {
		return apperror.NotFound("Job")
	}

	s.log.InfoContext(ctx, "Running job task", logger.StringField("job_name", name))
	runCtx := s.rootCtx
	utils.GoSafe(s.log, func() {
		s.execute(runCtx, jobType, model.TriggerManual)
	})
	return nil
}

func (s *schedulerService) GetJobRuns(ctx context.Context, jobName string, limit int) ([]dto.JobRunResponse, error) {
	if limit <= 0 || limit > dto.MaxAlertLimit {
		limit = dto.DefaultJobRuns
	}
	runs, err := s.jobRepo.GetJobRuns(ctx, dto.GetJobRunsParam{JobName: jobName, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to get job runs: %w", err)
	}

	resp := make([]dto.JobRunResponse, 0, len(runs))
	for _, run := range runs {
		item := dto.JobRunResponse{
			ID:        run.ID,
			JobName:   run.JobName,
			Trigger:   string(run.Trigger),
			Status:    string(run.Status),
			StartedAt: run.StartedAt,
			Output:    []byte(run.Output),
		}
		if run.CompletedAt.Valid {
			item.CompletedAt = utils.ToPointer(run.CompletedAt.Time)
		}
		if run.ExitCode.Valid {
			item.ExitCode = utils.ToPointer(run.ExitCode.Int32)
		}
		if run.ErrorMessage.Valid {
			item.ErrorMessage = run.ErrorMessage.String
		}
		resp = append(resp, item)
	}
	return resp, nil
}

// cronLogger routes robfig/cron logs into zap.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Logger.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Logger.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
