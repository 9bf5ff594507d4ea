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

type LoginAttemptRepository interface {
	Create(ctx context.Context, attempt *model.LoginAttempt, opts ...utils.DBOption) error
	Count(ctx context.Context, param dto.GetLoginAttemptsParam, opts ...utils.DBOption) (int64, error)
	DeleteFailed(ctx context.Context, email string, opts ...utils.DBOption) error
	DeleteOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error)
}

type loginAttemptRepository struct {
	db *gorm.DB
}

func NewLoginAttemptRepository(db *gorm.DB) LoginAttemptRepository {
	return &loginAttemptRepository{db: db}
}

func (r *loginAttemptRepository) Create(ctx context.Context, attempt *model.LoginAttempt, opts ...utils.DBOption) error {
	attempt.Email = strings.ToLower(strings.TrimSpace(attempt.Email))
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(attempt).Error
}

func (r *loginAttemptRepository) Count(ctx context.Context, param dto.GetLoginAttemptsParam, opts ...utils.DBOption) (int64, error) {
	var total int64
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.LoginAttempt{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(param.Email)))
	if !param.Since.IsZero() {
		db = db.Where("attempted_at > ?", param.Since)
	}
	if param.Success != nil {
		db = db.Where("success = ?", *param.Success)
	}
	if err := db.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *loginAttemptRepository) DeleteFailed(ctx context.Context, email string, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("email = ? AND success = ?", strings.ToLower(strings.TrimSpace(email)), false).
		Delete(&model.LoginAttempt{}).Error
}

func (r *loginAttemptRepository) DeleteOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error) {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("attempted_at < ?", date).
		Delete(&model.LoginAttempt{})
	return result.RowsAffected, result.Error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken, opts ...utils.DBOption) error
	GetActiveByHash(ctx context.Context, tokenHash string, now time.Time, opts ...utils.DBOption) (*model.RefreshToken, error)
	RevokeByHash(ctx context.Context, tokenHash string, opts ...utils.DBOption) error
	DeleteExpiredOrRevoked(ctx context.Context, now time.Time, opts ...utils.DBOption) (int64, error)
}

type refreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(token).Error
}

func (r *refreshTokenRepository) GetActiveByHash(ctx context.Context, tokenHash string, now time.Time, opts ...utils.DBOption) (*model.RefreshToken, error) {
	var token model.RefreshToken
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("token_hash = ? AND revoked = ? AND expires_at > ?", tokenHash, false, now).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *refreshTokenRepository) RevokeByHash(ctx context.Context, tokenHash string, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

func (r *refreshTokenRepository) DeleteExpiredOrRevoked(ctx context.Context, now time.Time, opts ...utils.DBOption) (int64, error) {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("revoked = ? OR expires_at <= ?", true, now).
		Delete(&model.RefreshToken{})
	return result.RowsAffected, result.Error
}

type AuditLogRepository interface {
	Create(ctx context.Context, entry *model.SecurityAuditLog, opts ...utils.DBOption) error
	DeleteOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *model.SecurityAuditLog, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(entry).Error
}

func (r *auditLogRepository) DeleteOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error) {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("created_at < ?", date).
		Delete(&model.SecurityAuditLog{})
	return result.RowsAffected, result.Error
}
