package service

import (
	"context"
	"fmt"
	"strings"

	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/pkg/apperror"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"
)

type AlertService interface {
	ListAlerts(ctx context.Context, userID uint, param dto.ListAlertsParam) (*dto.PaginatedData, error)
	CreateManualAlert(ctx context.Context, userID uint, req dto.CreateAlertRequest) (*model.AlertRecord, error)
	DeleteAlert(ctx context.Context, userID, id uint) error
	ClearHistory(ctx context.Context, userID uint) (int64, error)

	ListRules(ctx context.Context, userID uint) ([]model.AlertRule, error)
	CreateRule(ctx context.Context, userID uint, req dto.CreateAlertRuleRequest) (*model.AlertRule, error)
	UpdateRule(ctx context.Context, userID, id uint, req dto.UpdateAlertRuleRequest) (*model.AlertRule, error)
	DeleteRule(ctx context.Context, userID, id uint) error
}

type alertService struct {
	log             *logger.Logger
	alertRecordRepo repository.AlertRecordRepository
	alertRuleRepo   repository.AlertRuleRepository
	yahooRepo       repository.YahooFinanceRepository
}

func NewAlertService(
	log *logger.Logger,
	alertRecordRepo repository.AlertRecordRepository,
	alertRuleRepo repository.AlertRuleRepository,
	yahooRepo repository.YahooFinanceRepository,
) AlertService {
	return &alertService{
		log:             log,
		alertRecordRepo: alertRecordRepo,
		alertRuleRepo:   alertRuleRepo,
		yahooRepo:       yahooRepo,
	}
}

// ClampAlertLimit defaults a missing limit to 50 and caps it at 200.
func ClampAlertLimit(limit int) int {
	if limit <= 0 {
		return dto.DefaultAlertLimit
	}
	if limit > dto.MaxAlertLimit {
		return dto.MaxAlertLimit
	}
	return limit
}

func (s *alertService) ListAlerts(ctx context.Context, userID uint, param dto.ListAlertsParam) (*dto.PaginatedData, error) {
	limit := ClampAlertLimit(param.Limit)
	offset := param.Offset
	if offset < 0 {
		offset = 0
	}

	records, total, err := s.alertRecordRepo.List(ctx, dto.GetAlertRecordsParam{
		UserID: userID,
		Symbol: utils.NormalizeSymbol(param.Symbol),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list alerts", logger.UintField("user_id", userID), logger.ErrorField(err))
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	if records == nil {
		records = []model.AlertRecord{}
	}

	return &dto.PaginatedData{Items: records, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *alertService) CreateManualAlert(ctx context.Context, userID uint, req dto.CreateAlertRequest) (*model.AlertRecord, error) {
	symbol := utils.NormalizeSymbol(req.Symbol)
	message := strings.TrimSpace(req.Message)
	if symbol == "" || message == "" {
		return nil, apperror.Validation("Symbol and message are required")
	}

	priority := model.PriorityMedium
	if req.Priority != "" {
		priority = model.Priority(strings.ToUpper(req.Priority))
		if !priority.IsValid() {
			return nil, apperror.Validation("Priority must be one of LOW, MEDIUM, HIGH, CRITICAL")
		}
	}
	alertType := req.AlertType
	if alertType == "" {
		alertType = model.AlertTypeManual
	}

	record := &model.AlertRecord{
		UserID:    userID,
		Symbol:    symbol,
		Message:   message,
		AlertType: alertType,
		Priority:  priority,
		Reason:    req.Reason,
	}
	if err := s.alertRecordRepo.Create(ctx, record); err != nil {
		s.log.ErrorContext(ctx, "Failed to create alert", logger.UintField("user_id", userID), logger.ErrorField(err))
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	return record, nil
}

func (s *alertService) DeleteAlert(ctx context.Context, userID, id uint) error {
	if err := s.alertRecordRepo.Delete(ctx, userID, id); err != nil {
		if repository.IsNotFound(err) {
			return apperror.NotFound("Alert")
		}
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	return nil
}

func (s *alertService) ClearHistory(ctx context.Context, userID uint) (int64, error) {
	deleted, err := s.alertRecordRepo.DeleteAllByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear alert history: %w", err)
	}
	s.log.InfoContext(ctx, "Alert history cleared", logger.UintField("user_id", userID), logger.Int64Field("deleted", deleted))
	return deleted, nil
}

func (s *alertService) ListRules(ctx context.Context, userID uint) ([]model.AlertRule, error) {
	rules, err := s.alertRuleRepo.Get(ctx, dto.GetAlertRulesParam{UserID: &userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list alert rules: %w", err)
	}
	if rules == nil {
		rules = []model.AlertRule{}
	}
	return rules, nil
}

func parseTemplate(v string) (model.RuleTemplate, error) {
	t := model.RuleTemplate(strings.ToUpper(strings.TrimSpace(v)))
	if !t.IsValid() {
		return "", apperror.Validation("Template type must be one of PERCENTAGE_CHANGE, TARGET_PRICE, VOLUME_SPIKE")
	}
	return t, nil
}

func parseOperator(v string) (model.ConditionOperator, error) {
	o := model.ConditionOperator(strings.ToUpper(strings.TrimSpace(v)))
	if !o.IsValid() {
		return "", apperror.Validation("Condition operator must be ABOVE or BELOW")
	}
	return o, nil
}

func parsePriority(v string) (model.Priority, error) {
	if v == "" {
		return model.PriorityMedium, nil
	}
	p := model.Priority(strings.ToUpper(strings.TrimSpace(v)))
	if !p.IsValid() {
		return "", apperror.Validation("Priority must be one of LOW, MEDIUM, HIGH, CRITICAL")
	}
	return p, nil
}

func checkConditionValue(v float64) error {
	if v <= 0 {
		return apperror.Validation("Condition value must be greater than 0")
	}
	return nil
}

func (s *alertService) CreateRule(ctx context.Context, userID uint, req dto.CreateAlertRuleRequest) (*model.AlertRule, error) {
	template, err := parseTemplate(req.TemplateType)
	if err != nil {
		return nil, err
	}
	operator, err := parseOperator(req.ConditionOperator)
	if err != nil {
		return nil, err
	}
	if err := checkConditionValue(req.ConditionValue); err != nil {
		return nil, err
	}
	priority, err := parsePriority(req.Priority)
	if err != nil {
		return nil, err
	}
	symbol, err := resolveSymbol(ctx, s.log, s.yahooRepo, req.Symbol)
	if err != nil {
		return nil, err
	}

	rule := &model.AlertRule{
		UserID:            userID,
		Symbol:            symbol,
		TemplateType:      template,
		ConditionOperator: operator,
		ConditionValue:    req.ConditionValue,
		Priority:          priority,
		IsActive:          true,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := s.alertRuleRepo.Create(ctx, rule); err != nil {
		s.log.ErrorContext(ctx, "Failed to create alert rule", logger.UintField("user_id", userID), logger.ErrorField(err))
		return nil, fmt.Errorf("failed to create alert rule: %w", err)
	}
	s.log.InfoContext(ctx, "Alert rule created",
		logger.UintField("user_id", userID),
		logger.UintField("rule_id", rule.ID),
		logger.StringField("symbol", symbol),
		logger.StringField("template", string(template)),
	)
	return rule, nil
}

func (s *alertService) UpdateRule(ctx context.Context, userID, id uint, req dto.UpdateAlertRuleRequest) (*model.AlertRule, error) {
	if req.IsEmpty() {
		return nil, apperror.Validation("At least one field must be provided")
	}

	rule, err := s.alertRuleRepo.GetByID(ctx, userID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("Alert rule")
		}
		return nil, fmt.Errorf("failed to get alert rule: %w", err)
	}

	if req.TemplateType != nil {
		if rule.TemplateType, err = parseTemplate(*req.TemplateType); err != nil {
			return nil, err
		}
	}
	if req.ConditionOperator != nil {
		if rule.ConditionOperator, err = parseOperator(*req.ConditionOperator); err != nil {
			return nil, err
		}
	}
	if req.ConditionValue != nil {
		if err := checkConditionValue(*req.ConditionValue); err != nil {
			return nil, err
		}
		rule.ConditionValue = *req.ConditionValue
	}
	if req.Priority != nil {
		if rule.Priority, err = parsePriority(*req.Priority); err != nil {
			return nil, err
		}
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if req.Symbol != nil && utils.NormalizeSymbol(*req.Symbol) != rule.Symbol {
		if rule.Symbol, err = resolveSymbol(ctx, s.log, s.yahooRepo, *req.Symbol); err != nil {
			return nil, err
		}
	}

	if err := s.alertRuleRepo.Update(ctx, rule); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("Alert rule")
		}
		return nil, fmt.Errorf("failed to update alert rule: %w", err)
	}
	return rule, nil
}

func (s *alertService) DeleteRule(ctx context.Context, userID, id uint) error {
	if err := s.alertRuleRepo.Delete(ctx, userID, id); err != nil {
		if repository.IsNotFound(err) {
			return apperror.NotFound("Alert rule")
		}
		return fmt.Errorf("failed to delete alert rule: %w", err)
	}
	return nil
}
