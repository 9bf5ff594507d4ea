package repository

import (
	"context"
	"time"

	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/pkg/utils"

	"gorm.io/gorm"
)

type JobRepository interface {
	CreateJobRun(ctx context.Context, run *model.JobRun, opts ...utils.DBOption) error
	UpdateJobRun(ctx context.Context, run *model.JobRun, opts ...utils.DBOption) error
	GetJobRuns(ctx context.Context, param dto.GetJobRunsParam, opts ...utils.DBOption) ([]model.JobRun, error)
	DeleteJobRunsOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error)
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) CreateJobRun(ctx context.Context, run *model.JobRun, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(run).Error
}

func (r *jobRepository) UpdateJobRun(ctx context.Context, run *model.JobRun, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(run).
		Select("completed_at", "status", "exit_code", "output", "error_message").
		Updates(run).Error
}

func (r *jobRepository) GetJobRuns(ctx context.Context, param dto.GetJobRunsParam, opts ...utils.DBOption) ([]model.JobRun, error) {
	var runs []model.JobRun
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	if param.JobName != "" {
		db = db.Where("job_name = ?", param.JobName)
	}
	if param.Limit > 0 {
		db = db.Limit(param.Limit)
	}
	if err := db.Order("created_at DESC, id DESC").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *jobRepository) DeleteJobRunsOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error) {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("created_at < ?", date).
		Delete(&model.JobRun{})
	return result.RowsAffected, result.Error
}
