package repository

import (
	"context"

	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/pkg/utils"

	"gorm.io/gorm"
)

type AlertRecordRepository interface {
	Create(ctx context.Context, record *model.AlertRecord, opts ...utils.DBOption) error
	List(ctx context.Context, param dto.GetAlertRecordsParam, opts ...utils.DBOption) ([]model.AlertRecord, int64, error)
	Delete(ctx context.Context, userID, id uint, opts ...utils.DBOption) error
	DeleteAllByUser(ctx context.Context, userID uint, opts ...utils.DBOption) (int64, error)
}

type alertRecordRepository struct {
	db *gorm.DB
}

func NewAlertRecordRepository(db *gorm.DB) AlertRecordRepository {
	return &alertRecordRepository{db: db}
}

func (r *alertRecordRepository) Create(ctx context.Context, record *model.AlertRecord, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(record).Error
}

// List returns one page of the user's alerts, newest first, plus the unpaged total.
func (r *alertRecordRepository) List(ctx context.Context, param dto.GetAlertRecordsParam, opts ...utils.DBOption) ([]model.AlertRecord, int64, error) {
	var (
		records []model.AlertRecord
		total   int64
	)

	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.AlertRecord{}).
		Where("user_id = ?", param.UserID)
	if param.Symbol != "" {
		db = db.Where("symbol = ?", param.Symbol)
	}

	db = db.Session(&gorm.Session{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC, id DESC").
		Limit(param.Limit).
		Offset(param.Offset).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *alertRecordRepository) Delete(ctx context.Context, userID, id uint, opts ...utils.DBOption) error {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.AlertRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *alertRecordRepository) DeleteAllByUser(ctx context.Context, userID uint, opts ...utils.DBOption) (int64, error) {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("user_id = ?", userID).
		Delete(&model.AlertRecord{})
	return result.RowsAffected, result.Error
}
