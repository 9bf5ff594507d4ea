package repository

import (
	"context"
	"strings"
	"time"

	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/pkg/utils"

	"gorm.io/gorm"
)

type AlertRuleRepository interface {
	Get(ctx context.Context, param dto.GetAlertRulesParam, opts ...utils.DBOption) ([]model.AlertRule, error)
	GetByID(ctx context.Context, userID, id uint, opts ...utils.DBOption) (*model.AlertRule, error)
	Create(ctx context.Context, rule *model.AlertRule, opts ...utils.DBOption) error
	Update(ctx context.Context, rule *model.AlertRule, opts ...utils.DBOption) error
	UpdateLastTriggered(ctx context.Context, id uint, triggeredAt time.Time, opts ...utils.DBOption) error
	Delete(ctx context.Context, userID, id uint, opts ...utils.DBOption) error
}

type alertRuleRepository struct {
	db *gorm.DB
}

func NewAlertRuleRepository(db *gorm.DB) AlertRuleRepository {
	return &alertRuleRepository{db: db}
}

func (r *alertRuleRepository) Get(ctx context.Context, param dto.GetAlertRulesParam, opts ...utils.DBOption) ([]model.AlertRule, error) {
	var rules []model.AlertRule

	qFilter := []string{}
	qFilterParam := []interface{}{}

	if len(param.IDs) > 0 {
		qFilter = append(qFilter, "id IN (?)")
		qFilterParam = append(qFilterParam, param.IDs)
	}

	if param.UserID != nil {
		qFilter = append(qFilter, "user_id = ?")
		qFilterParam = append(qFilterParam, *param.UserID)
	}

	if param.Symbol != "" {
		qFilter = append(qFilter, "symbol = ?")
		qFilterParam = append(qFilterParam, param.Symbol)
	}

	if param.IsActive != nil {
		qFilter = append(qFilter, "is_active = ?")
		qFilterParam = append(qFilterParam, *param.IsActive)
	}

	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...)
	if param.WithUser {
		db = db.Preload("User")
	}
	if len(qFilter) > 0 {
		db = db.Where(strings.Join(qFilter, " AND "), qFilterParam...)
	}

	if err := db.Order("created_at DESC, id DESC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *alertRuleRepository) GetByID(ctx context.Context, userID, id uint, opts ...utils.DBOption) (*model.AlertRule, error) {
	var rule model.AlertRule
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("id = ? AND user_id = ?", id, userID).
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *alertRuleRepository) Create(ctx context.Context, rule *model.AlertRule, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Omit("User").Create(rule).Error
}

func (r *alertRuleRepository) Update(ctx context.Context, rule *model.AlertRule, opts ...utils.DBOption) error {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(rule).
		Where("user_id = ?", rule.UserID).
		Select("symbol", "template_type", "condition_operator", "condition_value", "priority", "is_active", "updated_at").
		Updates(rule)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateLastTriggered only touches last_triggered_at so concurrent user edits are not overwritten.
func (r *alertRuleRepository) UpdateLastTriggered(ctx context.Context, id uint, triggeredAt time.Time, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.AlertRule{}).
		Where("id = ?", id).
		UpdateColumn("last_triggered_at", triggeredAt).Error
}

func (r *alertRuleRepository) Delete(ctx context.Context, userID, id uint, opts ...utils.DBOption) error {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.AlertRule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
