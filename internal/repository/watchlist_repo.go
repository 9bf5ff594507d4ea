package repository

import (
	"context"

	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/pkg/utils"

	"gorm.io/gorm"
)

type WatchlistRepository interface {
	ListByUser(ctx context.Context, userID uint, opts ...utils.DBOption) ([]model.WatchlistEntry, error)
	// ListAll returns every user's entries with the owner preloaded.
	ListAll(ctx context.Context, opts ...utils.DBOption) ([]model.WatchlistEntry, error)
	Create(ctx context.Context, entry *model.WatchlistEntry, opts ...utils.DBOption) error
	Delete(ctx context.Context, userID, id uint, opts ...utils.DBOption) error
}

type watchlistRepository struct {
	db *gorm.DB
}

func NewWatchlistRepository(db *gorm.DB) WatchlistRepository {
	return &watchlistRepository{db: db}
}

func (r *watchlistRepository) ListByUser(ctx context.Context, userID uint, opts ...utils.DBOption) ([]model.WatchlistEntry, error) {
	var entries []model.WatchlistEntry
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *watchlistRepository) ListAll(ctx context.Context, opts ...utils.DBOption) ([]model.WatchlistEntry, error) {
	var entries []model.WatchlistEntry
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Preload("User").
		Order("user_id ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Create returns gorm.ErrDuplicatedKey when the symbol is already on the user's watchlist.
func (r *watchlistRepository) Create(ctx context.Context, entry *model.WatchlistEntry, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(entry).Error
}

func (r *watchlistRepository) Delete(ctx context.Context, userID, id uint, opts ...utils.DBOption) error {
	result := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.WatchlistEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
