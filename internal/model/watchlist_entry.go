package model

import "time"

type WatchlistEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_watchlist_user_symbol" json:"user_id"`
	Symbol    string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_watchlist_user_symbol" json:"symbol"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (WatchlistEntry) TableName() string {
	return "watchlist_entries"
}
