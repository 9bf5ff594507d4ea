package model

import "time"

type RuleTemplate string

const (
	RuleTemplatePercentageChange RuleTemplate = "PERCENTAGE_CHANGE"
	RuleTemplateTargetPrice      RuleTemplate = "TARGET_PRICE"
	RuleTemplateVolumeSpike      RuleTemplate = "VOLUME_SPIKE"
)

func (t RuleTemplate) IsValid() bool {
	switch t {
	case RuleTemplatePercentageChange, RuleTemplateTargetPrice, RuleTemplateVolumeSpike:
		return true
	}
	return false
}

// Label is the human readable name used in alert reasons.
func (t RuleTemplate) Label() string {
	switch t {
	case RuleTemplatePercentageChange:
		return "Price % Change"
	case RuleTemplateTargetPrice:
		return "Target Price"
	case RuleTemplateVolumeSpike:
		return "Volume Spike"
	default:
		return string(t)
	}
}

type ConditionOperator string

const (
	OperatorAbove ConditionOperator = "ABOVE"
	OperatorBelow ConditionOperator = "BELOW"
)

func (o ConditionOperator) IsValid() bool {
	return o == OperatorAbove || o == OperatorBelow
}

type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

func (p Priority) Emoji() string {
	switch p {
	case PriorityLow:
		return "🟢"
	case PriorityMedium:
		return "🟡"
	case PriorityHigh:
		return "🟠"
	case PriorityCritical:
		return "🔴"
	default:
		return "🔔"
	}
}

// AlertRule is a user-defined condition evaluated by the alert rules job.
type AlertRule struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	UserID            uint              `gorm:"not null;index" json:"user_id"`
	Symbol            string            `gorm:"type:varchar(16);not null;index" json:"symbol"`
	TemplateType      RuleTemplate      `gorm:"type:varchar(32);not null" json:"template_type"`
	ConditionOperator ConditionOperator `gorm:"type:varchar(8);not null" json:"condition_operator"`
	ConditionValue    float64           `gorm:"type:numeric(20,6);not null" json:"condition_value"`
	Priority          Priority          `gorm:"type:varchar(16);not null;default:MEDIUM" json:"priority"`
	IsActive          bool              `gorm:"not null;default:true" json:"is_active"`
	LastTriggeredAt   *time.Time        `json:"last_triggered_at"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	User              *User             `gorm:"foreignKey:UserID" json:"-"`
}

func (AlertRule) TableName() string {
	return "alert_rules"
}
