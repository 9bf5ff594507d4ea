package model

import "time"

// Holding is a position in a user's portfolio.
type Holding struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Symbol    string    `gorm:"type:varchar(16);not null" json:"symbol"`
	Quantity  float64   `gorm:"type:numeric(20,6);not null" json:"quantity"`
	BuyPrice  float64   `gorm:"type:numeric(20,6);not null" json:"buy_price"`
	BuyDate   time.Time `gorm:"type:date;not null" json:"buy_date"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Holding) TableName() string {
	return "portfolio_holdings"
}
