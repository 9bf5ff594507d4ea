package model

import "time"

const (
	AlertTypeManual    = "MANUAL"
	AlertTypeWatchlist = "WATCHLIST"
)

// AlertRecord is an append-only entry in a user's alert history.
type AlertRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Symbol    string    `gorm:"type:varchar(16);not null" json:"symbol"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	AlertType string    `gorm:"type:varchar(64);not null" json:"alert_type"`
	Priority  Priority  `gorm:"type:varchar(16);not null;default:MEDIUM" json:"priority"`
	Reason    string    `gorm:"type:text" json:"reason"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AlertRecord) TableName() string {
	return "alert_records"
}

// RuleAlertType is the alert type recorded for alerts produced by a rule template.
func RuleAlertType(template RuleTemplate) string {
	return "RULE_" + string(template)
}
