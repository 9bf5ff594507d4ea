package repository

import (
	"context"
	"errors"
	"strings"

	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/pkg/utils"

	"gorm.io/gorm"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.User, error)
	GetByEmail(ctx context.Context, email string, opts ...utils.DBOption) (*model.User, error)
	Create(ctx context.Context, user *model.User, opts ...utils.DBOption) error
	UpdateTelegramChatID(ctx context.Context, userID uint, chatID *int64, opts ...utils.DBOption) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

// GetByID returns nil, nil when the user does not exist.
func (r *userRepository) GetByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.User, error) {
	var user model.User
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &user, nil
}

// GetByEmail matches case-insensitively and returns nil, nil when absent.
func (r *userRepository) GetByEmail(ctx context.Context, email string, opts ...utils.DBOption) (*model.User, error) {
	var user model.User
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User, opts ...utils.DBOption) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(user).Error
}

func (r *userRepository) UpdateTelegramChatID(ctx context.Context, userID uint, chatID *int64, opts ...utils.DBOption) error {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("telegram_chat_id", chatID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
