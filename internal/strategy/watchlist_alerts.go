package strategy

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"
)

// WatchlistAlertsResult is stored as the job run output.
type WatchlistAlertsResult struct {
	EntriesEvaluated int              `json:"entries_evaluated"`
	SymbolsProcessed int              `json:"symbols_processed"`
	SymbolsFailed    int              `json:"symbols_failed"`
	AlertsTriggered  int              `json:"alerts_triggered"`
	Errors           []AlertRuleError `json:"errors,omitempty"`
}

// WatchlistAlertsStrategy alerts every watcher of a symbol that made a large
// daily move or is trading well away from its moving average.
type WatchlistAlertsStrategy struct {
	cfg             *config.Config
	log             *logger.Logger
	watchlistRepo   repository.WatchlistRepository
	alertRecordRepo repository.AlertRecordRepository
	yahooRepo       repository.YahooFinanceRepository
	pricePrimer     PricePrimer
	notifier        NotificationDispatcher
	running         atomic.Bool
}

func NewWatchlistAlertsStrategy(
	cfg *config.Config,
	log *logger.Logger,
	watchlistRepo repository.WatchlistRepository,
	alertRecordRepo repository.AlertRecordRepository,
	yahooRepo repository.YahooFinanceRepository,
	pricePrimer PricePrimer,
	notifier NotificationDispatcher,
) *WatchlistAlertsStrategy {
	return &WatchlistAlertsStrategy{
		cfg:             cfg,
		log:             log,
		watchlistRepo:   watchlistRepo,
		alertRecordRepo: alertRecordRepo,
		yahooRepo:       yahooRepo,
		pricePrimer:     pricePrimer,
		notifier:        notifier,
	}
}

func (s *WatchlistAlertsStrategy) GetType() JobType {
	return JobTypeWatchlistAlerts
}

func (s *WatchlistAlertsStrategy) Execute(ctx context.Context) (JobResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.WarnContext(ctx, "Watchlist alerts already running, skipping")
		return JobResult{ExitCode: JOB_EXIT_CODE_SKIPPED, Output: `{"skipped":"already running"}`}, nil
	}
	defer s.running.Store(false)

	entries, err := s.watchlistRepo.ListAll(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load watchlist entries", logger.ErrorField(err))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to load watchlist entries: %v", err)}, fmt.Errorf("failed to load watchlist entries: %w", err)
	}

	result := WatchlistAlertsResult{EntriesEvaluated: len(entries)}
	if len(entries) == 0 {
		s.log.DebugContext(ctx, "No watchlist entries")
		return buildJobResult(ctx, s.log, result, false)
	}

	symbols, bySymbol := groupEntriesBySymbol(entries)
	for _, symbol := range symbols {
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}

		quote, err := s.yahooRepo.GetQuote(ctx, symbol)
		if err != nil {
			s.log.WarnContext(ctx, "Failed to fetch quote for watchlist alerts", logger.StringField("symbol", symbol), logger.ErrorField(err))
			result.SymbolsFailed++
			result.Errors = append(result.Errors, AlertRuleError{Symbol: symbol, Error: err.Error()})
			continue
		}
		result.SymbolsProcessed++
		if s.pricePrimer != nil && quote.HasPrice {
			s.pricePrimer.Prime(symbol, quote.Price)
		}

		evaluation := s.analyze(ctx, symbol, *quote)
		if !evaluation.Triggered {
			continue
		}

		for _, entry := range bySymbol[symbol] {
			if err := s.fire(ctx, entry, *quote, evaluation.Message); err != nil {
				result.Errors = append(result.Errors, AlertRuleError{Symbol: symbol, Error: err.Error()})
				continue
			}
			result.AlertsTriggered++
		}
	}

	s.log.InfoContext(ctx, "Watchlist alerts finished",
		logger.IntField("entries_evaluated", result.EntriesEvaluated),
		logger.IntField("symbols_processed", result.SymbolsProcessed),
		logger.IntField("symbols_failed", result.SymbolsFailed),
		logger.IntField("alerts_triggered", result.AlertsTriggered),
	)
	return buildJobResult(ctx, s.log, result, len(result.Errors) > 0)
}

// analyze checks the daily move first and only fetches history when the
// move alone does not trigger.
func (s *WatchlistAlertsStrategy) analyze(ctx context.Context, symbol string, quote dto.Quote) dto.RuleEvaluation {
	engine := s.cfg.AlertEngine
	if evaluation := EvaluateDailyMove(quote, engine.WatchlistMovePercent); evaluation.Triggered {
		return evaluation
	}
	if !quote.HasPrice || engine.WatchlistSMAPeriod <= 0 {
		return dto.RuleEvaluation{}
	}

	points, err := s.yahooRepo.GetHistory(ctx, symbol, dto.Range1Month)
	if err != nil {
		s.log.WarnContext(ctx, "Moving average check failed", logger.StringField("symbol", symbol), logger.ErrorField(err))
		return dto.RuleEvaluation{}
	}
	closes := make([]float64, 0, len(points))
	for _, p := range points {
		closes = append(closes, p.Close)
	}
	return EvaluateMovingAverageTrend(quote, closes, engine.WatchlistSMAPeriod, engine.WatchlistSMADeviation)
}

func (s *WatchlistAlertsStrategy) fire(ctx context.Context, entry model.WatchlistEntry, quote dto.Quote, reason string) error {
	record := &model.AlertRecord{
		UserID:    entry.UserID,
		Symbol:    entry.Symbol,
		Message:   fmt.Sprintf("%s moved %.2f%%", entry.Symbol, quote.ChangePercent),
		AlertType: model.AlertTypeWatchlist,
		Priority:  model.PriorityMedium,
		Reason:    reason,
	}
	if err := s.alertRecordRepo.Create(ctx, record); err != nil {
		s.log.ErrorContext(ctx, "Failed to create watchlist alert record",
			logger.UintField("user_id", entry.UserID),
			logger.StringField("symbol", entry.Symbol),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to create alert record: %w", err)
	}

	s.log.InfoContext(ctx, "Watchlist alert triggered",
		logger.UintField("user_id", entry.UserID),
		logger.StringField("symbol", entry.Symbol),
		logger.StringField("reason", reason),
	)

	if s.notifier != nil && entry.User != nil {
		err := s.notifier.Dispatch(dto.AlertNotification{
			UserID:         entry.UserID,
			Email:          entry.User.Email,
			TelegramChatID: entry.User.TelegramChatID,
			Symbol:         entry.Symbol,
			Price:          quote.Price,
			Change:         quote.Change,
			ChangePercent:  quote.ChangePercent,
			Message:        record.Message,
			Reason:         reason,
			Priority:       string(record.Priority),
		})
		if err != nil {
			s.log.WarnContext(ctx, "Failed to queue watchlist notification", logger.StringField("symbol", entry.Symbol), logger.ErrorField(err))
		}
	}
	return nil
}

func groupEntriesBySymbol(entries []model.WatchlistEntry) ([]string, map[string][]model.WatchlistEntry) {
	var symbols []string
	bySymbol := make(map[string][]model.WatchlistEntry)
	for _, entry := range entries {
		if _, ok := bySymbol[entry.Symbol]; !ok {
			symbols = append(symbols, entry.Symbol)
		}
		bySymbol[entry.Symbol] = append(bySymbol[entry.Symbol], entry)
	}
	return symbols, bySymbol
}

// EvaluateDailyMove triggers when the absolute daily change reaches threshold percent.
func EvaluateDailyMove(quote dto.Quote, threshold float64) dto.RuleEvaluation {
	if threshold <= 0 || math.Abs(quote.ChangePercent) < threshold {
		return dto.RuleEvaluation{}
	}
	return dto.RuleEvaluation{
		Triggered: true,
		Message:   fmt.Sprintf("Price moved significantly (%.2f%%) within the trading day.", quote.ChangePercent),
	}
}

// EvaluateMovingAverageTrend triggers when price sits more than deviation
// percent above (on an up day) or below (on a down day) the simple moving
// average of the last period closes.
func EvaluateMovingAverageTrend(quote dto.Quote, closes []float64, period int, deviation float64) dto.RuleEvaluation {
	sma, ok := SimpleMovingAverage(closes, period)
	if !ok || sma == 0 {
		return dto.RuleEvaluation{}
	}

	diff := (quote.Price - sma) / sma * 100
	switch {
	case diff > deviation && quote.ChangePercent > 0:
		return dto.RuleEvaluation{
			Triggered: true,
			Message:   fmt.Sprintf("Bullish Trend: Price is %.1f%% above the %d-day Moving Average ($%.2f).", diff, period, sma),
		}
	case diff < -deviation && quote.ChangePercent < 0:
		return dto.RuleEvaluation{
			Triggered: true,
			Message:   fmt.Sprintf("Bearish Trend: Price is %.1f%% below the %d-day Moving Average ($%.2f).", math.Abs(diff), period, sma),
		}
	}
	return dto.RuleEvaluation{}
}

// SimpleMovingAverage averages the last period values. It reports false when
// fewer than period values are available.
func SimpleMovingAverage(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), true
}
