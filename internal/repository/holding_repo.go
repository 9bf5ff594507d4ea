package repository

import (
	"context"
	"errors"

	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/pkg/utils"

	"gorm.io/gorm"
)

// HoldingRepository scopes every query to the owning user.
type HoldingRepository interface {
	ListByUser(ctx context.Context, userID uint, opts ...utils.DBOption) ([]model.Holding, error)
	GetByID(ctx context.Context, userID, id uint, opts ...utils.DBOption) (*model.Holding, error)
	Create(ctx context.Context, holding *model.Holding, opts ...utils.DBOption) error
	Update(ctx context.Context, holding *model.Holding, opts ...utils.DBOption) error
	Delete(ctx context.Context, userID, id uint, opts ...utils.DBOption) error
}

type holdingRepository struct {
	db *gorm.DB
}

func NewHoldingRepository(db *gorm.DB) HoldingRepository {
	return &holdingRepository{db: db}
}

func (r *holdingRepository) ListByUser(ctx context.Context, userID uint, opts ...utils.DBOption) ([]model.Holding, error) {
	var holdings []model.Holding
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&holdings).Error
	if err != nil {
		return nil, err
	}
	return holdings, nil
}

// GetByID returns gorm.ErrRecordNotFound when the holding is missing or owned by someone else.
func (r *holdingRepository) GetByID(ctx context.Context, userID, id uint, opts ...utils.DBOption) (*model.Holding, error) {
	var holding model.Holding
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("id = ? AND user_id = ?", id, userID).
		First(&holding).Error
	if err != nil {
		return nil, err
	}
	return &holding, nil
}

func (r *holdingRepository) Create(ctx context.Context, holding *model.Holding, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(holding).Error
}

func (r *holdingRepository) Update(ctx context.Context, holding *model.Holding, opts ...utils.DBOption) error {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(holding).
		Where("user_id = ?", holding.UserID).
		Select("symbol", "quantity", "buy_price", "buy_date", "updated_at").
		Updates(holding)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *holdingRepository) Delete(ctx context.Context, userID, id uint, opts ...utils.DBOption) error {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Holding{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsNotFound reports whether err means the row does not exist for this owner.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a unique constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
