package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"
)

// PricePrimer receives quotes fetched by the engine so other readers can reuse them.
type PricePrimer interface {
	Prime(symbol string, price float64)
}

// NotificationDispatcher queues a notification for asynchronous delivery.
type NotificationDispatcher interface {
	Dispatch(n dto.AlertNotification) error
}

// AlertRulesResult is stored as the job run output.
type AlertRulesResult struct {
	RulesEvaluated   int              `json:"rules_evaluated"`
	SymbolsProcessed int              `json:"symbols_processed"`
	SymbolsFailed    int              `json:"symbols_failed"`
	AlertsTriggered  int              `json:"alerts_triggered"`
	AlertsSkipped    int              `json:"alerts_skipped,omitempty"`
	Errors           []AlertRuleError `json:"errors,omitempty"`
}

type AlertRuleError struct {
	Symbol string `json:"symbol"`
	RuleID uint   `json:"rule_id,omitempty"`
	Error  string `json:"error"`
}

// AlertRulesStrategy evaluates every active alert rule against a fresh quote.
type AlertRulesStrategy struct {
	cfg             *config.Config
	log             *logger.Logger
	alertRuleRepo   repository.AlertRuleRepository
	alertRecordRepo repository.AlertRecordRepository
	yahooRepo       repository.YahooFinanceRepository
	pricePrimer     PricePrimer
	notifier        NotificationDispatcher
	running         atomic.Bool
	now             func() time.Time
}

func NewAlertRulesStrategy(
	cfg *config.Config,
	log *logger.Logger,
	alertRuleRepo repository.AlertRuleRepository,
	alertRecordRepo repository.AlertRecordRepository,
	yahooRepo repository.YahooFinanceRepository,
	pricePrimer PricePrimer,
	notifier NotificationDispatcher,
) *AlertRulesStrategy {
	return &AlertRulesStrategy{
		cfg:             cfg,
		log:             log,
		alertRuleRepo:   alertRuleRepo,
		alertRecordRepo: alertRecordRepo,
		yahooRepo:       yahooRepo,
		pricePrimer:     pricePrimer,
		notifier:        notifier,
		now:             utils.TimeNowUTC,
	}
}

func (s *AlertRulesStrategy) GetType() JobType {
	return JobTypeAlertRules
}

// Execute runs one evaluation pass. A pass requested while another is in
// flight returns immediately with the skipped exit code.
func (s *AlertRulesStrategy) Execute(ctx context.Context) (JobResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.WarnContext(ctx, "Alert rules engine already running, skipping")
		return JobResult{ExitCode: JOB_EXIT_CODE_SKIPPED, Output: `{"skipped":"already running"}`}, nil
	}
	defer s.running.Store(false)

	rules, err := s.alertRuleRepo.Get(ctx, dto.GetAlertRulesParam{
		IsActive: utils.ToPointer(true),
		WithUser: true,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load active alert rules", logger.ErrorField(err))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to load active alert rules: %v", err)}, fmt.Errorf("failed to load active alert rules: %w", err)
	}

	result := AlertRulesResult{RulesEvaluated: len(rules)}
	if len(rules) == 0 {
		s.log.DebugContext(ctx, "No active alert rules")
		return s.buildResult(ctx, result)
	}

	s.log.InfoContext(ctx, "Running alert rules engine", logger.IntField("rule_count", len(rules)))

	symbols, bySymbol := groupRulesBySymbol(rules)
	for _, symbol := range symbols {
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}

		quote, err := s.yahooRepo.GetQuote(ctx, symbol)
		if err != nil {
			s.log.WarnContext(ctx, "Failed to fetch quote for alert rules", logger.StringField("symbol", symbol), logger.ErrorField(err))
			result.SymbolsFailed++
			result.Errors = append(result.Errors, AlertRuleError{Symbol: symbol, Error: err.Error()})
			continue
		}
		result.SymbolsProcessed++
		if s.pricePrimer != nil && quote.HasPrice {
			s.pricePrimer.Prime(symbol, quote.Price)
		}

		for _, rule := range bySymbol[symbol] {
			if s.inCooldown(rule) {
				result.AlertsSkipped++
				continue
			}

			evaluation := s.evaluate(ctx, rule, *quote)
			if !evaluation.Triggered {
				continue
			}

			if err := s.fire(ctx, rule, *quote, evaluation.Message); err != nil {
				result.Errors = append(result.Errors, AlertRuleError{Symbol: symbol, RuleID: rule.ID, Error: err.Error()})
				continue
			}
			result.AlertsTriggered++
		}
	}

	s.log.InfoContext(ctx, "Alert rules engine finished",
		logger.IntField("rules_evaluated", result.RulesEvaluated),
		logger.IntField("symbols_processed", result.SymbolsProcessed),
		logger.IntField("symbols_failed", result.SymbolsFailed),
		logger.IntField("alerts_triggered", result.AlertsTriggered),
	)
	return s.buildResult(ctx, result)
}

func (s *AlertRulesStrategy) buildResult(ctx context.Context, result AlertRulesResult) (JobResult, error) {
	return buildJobResult(ctx, s.log, result, len(result.Errors) > 0)
}

// buildJobResult marshals a job summary as the run output.
func buildJobResult(ctx context.Context, log *logger.Logger, result any, partial bool) (JobResult, error) {
	exitCode := int32(JOB_EXIT_CODE_SUCCESS)
	if partial {
		exitCode = JOB_EXIT_CODE_PARTIAL_SUCCESS
	}

	res, err := json.Marshal(result)
	if err != nil {
		log.ErrorContext(ctx, "Failed to marshal output message", logger.ErrorField(err))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to marshal output message: %v", err)}, fmt.Errorf("failed to marshal output message: %w", err)
	}
	return JobResult{ExitCode: exitCode, Output: string(res)}, nil
}

// groupRulesBySymbol keeps symbols in the order they are first seen.
func groupRulesBySymbol(rules []model.AlertRule) ([]string, map[string][]model.AlertRule) {
	var symbols []string
	bySymbol := make(map[string][]model.AlertRule)
	for _, rule := range rules {
		if _, ok := bySymbol[rule.Symbol]; !ok {
			symbols = append(symbols, rule.Symbol)
		}
		bySymbol[rule.Symbol] = append(bySymbol[rule.Symbol], rule)
	}
	return symbols, bySymbol
}

func (s *AlertRulesStrategy) inCooldown(rule model.AlertRule) bool {
	cooldown := s.cfg.AlertEngine.Cooldown
	if cooldown <= 0 || rule.LastTriggeredAt == nil {
		return false
	}
	return s.now().Sub(*rule.LastTriggeredAt) < cooldown
}

// evaluate shields the run from a panicking evaluation.
func (s *AlertRulesStrategy) evaluate(ctx context.Context, rule model.AlertRule, quote dto.Quote) (evaluation dto.RuleEvaluation) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WarnContext(ctx, "Rule evaluation panicked", logger.UintField("rule_id", rule.ID), logger.Field("panic", r))
			evaluation = dto.RuleEvaluation{}
		}
	}()
	return EvaluateRule(rule, quote)
}

// fire records the alert, stamps the rule and queues the notification.
// The record and the stamp are independent writes.
func (s *AlertRulesStrategy) fire(ctx context.Context, rule model.AlertRule, quote dto.Quote, message string) error {
	record := &model.AlertRecord{
		UserID:    rule.UserID,
		Symbol:    rule.Symbol,
		Message:   fmt.Sprintf("%s [%s] %s", rule.Priority.Emoji(), rule.Priority, message),
		AlertType: model.RuleAlertType(rule.TemplateType),
		Priority:  rule.Priority,
		Reason:    fmt.Sprintf("Rule #%d: %s", rule.ID, rule.TemplateType.Label()),
	}
	if err := s.alertRecordRepo.Create(ctx, record); err != nil {
		s.log.ErrorContext(ctx, "Failed to create alert record", logger.UintField("rule_id", rule.ID), logger.ErrorField(err))
		return fmt.Errorf("failed to create alert record: %w", err)
	}

	if err := s.alertRuleRepo.UpdateLastTriggered(ctx, rule.ID, s.now()); err != nil {
		s.log.ErrorContext(ctx, "Failed to update rule last triggered", logger.UintField("rule_id", rule.ID), logger.ErrorField(err))
		return fmt.Errorf("failed to update rule last triggered: %w", err)
	}

	s.log.InfoContext(ctx, "Alert rule triggered",
		logger.UintField("rule_id", rule.ID),
		logger.UintField("user_id", rule.UserID),
		logger.StringField("message", message),
	)

	if s.notifier != nil && rule.User != nil {
		err := s.notifier.Dispatch(dto.AlertNotification{
			UserID:         rule.UserID,
			Email:          rule.User.Email,
			TelegramChatID: rule.User.TelegramChatID,
			Symbol:         rule.Symbol,
			Price:          quote.Price,
			Change:         quote.Change,
			ChangePercent:  quote.ChangePercent,
			Message:        record.Message,
			Reason:         record.Reason,
			Priority:       string(rule.Priority),
		})
		if err != nil {
			s.log.WarnContext(ctx, "Failed to queue alert notification", logger.UintField("rule_id", rule.ID), logger.ErrorField(err))
		}
	}
	return nil
}

func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// EvaluateRule checks one rule against a quote. Unknown templates or
// operators never trigger, and a target price needs a priced quote.
func EvaluateRule(rule model.AlertRule, quote dto.Quote) dto.RuleEvaluation {
	threshold := formatThreshold(rule.ConditionValue)

	switch rule.TemplateType {
	case model.RuleTemplatePercentageChange:
		change := quote.ChangePercent
		switch {
		case rule.ConditionOperator == model.OperatorAbove && change >= rule.ConditionValue:
			return dto.RuleEvaluation{Triggered: true, Message: fmt.Sprintf("%s is UP %.2f%% (threshold: +%s%%)", rule.Symbol, change, threshold)}
		case rule.ConditionOperator == model.OperatorBelow && change <= -rule.ConditionValue:
			return dto.RuleEvaluation{Triggered: true, Message: fmt.Sprintf("%s is DOWN %.2f%% (threshold: -%s%%)", rule.Symbol, math.Abs(change), threshold)}
		}

	case model.RuleTemplateTargetPrice:
		if !quote.HasPrice {
			break
		}
		price := quote.Price
		switch {
		case rule.ConditionOperator == model.OperatorAbove && price >= rule.ConditionValue:
			return dto.RuleEvaluation{Triggered: true, Message: fmt.Sprintf("%s hit $%.2f (target: above $%s)", rule.Symbol, price, threshold)}
		case rule.ConditionOperator == model.OperatorBelow && price <= rule.ConditionValue:
			return dto.RuleEvaluation{Triggered: true, Message: fmt.Sprintf("%s dropped to $%.2f (target: below $%s)", rule.Symbol, price, threshold)}
		}

	case model.RuleTemplateVolumeSpike:
		avgVolume := quote.AverageVolume3Month
		if avgVolume == 0 {
			avgVolume = quote.AverageVolume10Day
		}
		if avgVolume == 0 {
			avgVolume = 1
		}
		spike := float64(quote.Volume) / float64(avgVolume) * 100
		if spike >= rule.ConditionValue {
			return dto.RuleEvaluation{Triggered: true, Message: fmt.Sprintf("%s volume spike: %.0f%% of average (threshold: %s%%)", rule.Symbol, spike, threshold)}
		}
	}

	return dto.RuleEvaluation{}
}
