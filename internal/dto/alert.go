package dto

type ListAlertsParam struct {
	Limit  int    `query:"limit" validate:"omitempty,min=0"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
	Symbol string `query:"symbol" validate:"omitempty,max=16"`
}

type CreateAlertRequest struct {
	Symbol    string `json:"symbol" validate:"required,max=16"`
	Message   string `json:"message" validate:"required,max=1000"`
	AlertType string `json:"alert_type" validate:"omitempty,max=64"`
	Priority  string `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Reason    string `json:"reason" validate:"omitempty,max=1000"`
}

type ClearAlertsResponse struct {
	Deleted int64 `json:"deleted"`
}

type CreateAlertRuleRequest struct {
	Symbol            string  `json:"symbol" validate:"required,max=16"`
	TemplateType      string  `json:"template_type" validate:"required,oneof=PERCENTAGE_CHANGE TARGET_PRICE VOLUME_SPIKE"`
	ConditionOperator string  `json:"condition_operator" validate:"required,oneof=ABOVE BELOW"`
	ConditionValue    float64 `json:"condition_value" validate:"required,gt=0"`
	Priority          string  `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	IsActive          *bool   `json:"is_active"`
}

// UpdateAlertRuleRequest carries only the fields to change.
type UpdateAlertRuleRequest struct {
	Symbol            *string  `json:"symbol" validate:"omitempty,max=16"`
	TemplateType      *string  `json:"template_type" validate:"omitempty,oneof=PERCENTAGE_CHANGE TARGET_PRICE VOLUME_SPIKE"`
	ConditionOperator *string  `json:"condition_operator" validate:"omitempty,oneof=ABOVE BELOW"`
	ConditionValue    *float64 `json:"condition_value" validate:"omitempty,gt=0"`
	Priority          *string  `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	IsActive          *bool    `json:"is_active"`
}

func (r UpdateAlertRuleRequest) IsEmpty() bool {
	return r.Symbol == nil && r.TemplateType == nil && r.ConditionOperator == nil &&
		r.ConditionValue == nil && r.Priority == nil && r.IsActive == nil
}

// RuleEvaluation is the outcome of checking one rule against one quote.
type RuleEvaluation struct {
	Triggered bool
	Message   string
}

// AlertNotification is what gets delivered to a user when a rule fires.
type AlertNotification struct {
	UserID         uint
	Email          string
	TelegramChatID *int64
	Symbol         string
	Price          float64
	Change         float64
	ChangePercent  float64
	Message        string
	Reason         string
	Priority       string
}
