package service

import (
	"context"
	"errors"
	"fmt"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/pkg/apperror"
	"golang-stock-tracker/pkg/cache"
	"golang-stock-tracker/pkg/common"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"
)

type StockService interface {
	GetQuote(ctx context.Context, symbol string) (*dto.Quote, error)
	GetHistory(ctx context.Context, symbol, historyRange string) ([]dto.HistoricalPoint, error)
	GetInsight(ctx context.Context, symbol string) (*dto.StockInsight, error)
}

type stockService struct {
	cfg       *config.Config
	log       *logger.Logger
	yahooRepo repository.YahooFinanceRepository
	aiRepo    repository.AIRepository
	store     cache.Cache
}

// NewStockService accepts a nil aiRepo, in which case insights are unavailable.
func NewStockService(
	cfg *config.Config,
	log *logger.Logger,
	yahooRepo repository.YahooFinanceRepository,
	aiRepo repository.AIRepository,
	store cache.Cache,
) StockService {
	return &stockService{
		cfg:       cfg,
		log:       log,
		yahooRepo: yahooRepo,
		aiRepo:    aiRepo,
		store:     store,
	}
}

// validateSymbol reports whether the provider returns a priced quote for a
// normalized symbol. Any provider error counts as invalid.
func validateSymbol(ctx context.Context, log *logger.Logger, yahooRepo repository.YahooFinanceRepository, symbol string) bool {
	if !utils.IsValidSymbolFormat(symbol) {
		return false
	}
	quote, err := yahooRepo.GetQuote(ctx, symbol)
	if err != nil || quote == nil || !quote.HasPrice {
		log.DebugContext(ctx, "Symbol validation failed", logger.StringField("symbol", symbol), logger.Field("error", err))
		return false
	}
	return true
}

// resolveSymbol normalizes symbol and confirms the provider can price it.
func resolveSymbol(ctx context.Context, log *logger.Logger, yahooRepo repository.YahooFinanceRepository, symbol string) (string, error) {
	symbol = utils.NormalizeSymbol(symbol)
	if !validateSymbol(ctx, log, yahooRepo, symbol) {
		return "", apperror.Newf(apperror.CodeValidation, "Invalid stock symbol: %s", symbol)
	}
	return symbol, nil
}

func (s *stockService) GetQuote(ctx context.Context, symbol string) (*dto.Quote, error) {
	symbol = utils.NormalizeSymbol(symbol)
	if !utils.IsValidSymbolFormat(symbol) {
		return nil, apperror.New(apperror.CodeNotFound, "Stock symbol not found")
	}

	quote, err := s.yahooRepo.GetQuote(ctx, symbol)
	if err != nil {
		if errors.Is(err, repository.ErrSymbolNotFound) {
			return nil, apperror.New(apperror.CodeNotFound, "Stock symbol not found")
		}
		s.log.ErrorContext(ctx, "Failed to fetch quote", logger.StringField("symbol", symbol), logger.ErrorField(err))
		return nil, apperror.Internal("Failed to fetch stock data", err)
	}
	return quote, nil
}

func (s *stockService) GetHistory(ctx context.Context, symbol, historyRange string) ([]dto.HistoricalPoint, error) {
	symbol = utils.NormalizeSymbol(symbol)
	if !utils.IsValidSymbolFormat(symbol) {
		return []dto.HistoricalPoint{}, nil
	}
	if historyRange == "" {
		historyRange = dto.Range1Month
	}
	return s.yahooRepo.GetHistory(ctx, symbol, historyRange)
}

func (s *stockService) GetInsight(ctx context.Context, symbol string) (*dto.StockInsight, error) {
	if s.aiRepo == nil {
		return nil, apperror.New(apperror.CodeServiceUnavailable, "Stock insight is not configured")
	}

	quote, err := s.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf(common.KEY_INSIGHT_CACHE, quote.Symbol)
	if insight, ok := cache.GetFromCache[*dto.StockInsight](s.store, key); ok {
		return insight, nil
	}

	closes, err := s.yahooRepo.GetHistory(ctx, quote.Symbol, dto.Range1Month)
	if err != nil {
		return nil, err
	}

	insight, err := s.aiRepo.StockInsight(ctx, dto.AIInsightParam{Quote: *quote, Closes: closes})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to generate stock insight", logger.StringField("symbol", quote.Symbol), logger.ErrorField(err))
		return nil, apperror.Wrap(apperror.CodeServiceUnavailable, "Stock insight is temporarily unavailable", err)
	}

	s.store.Set(key, insight, s.cfg.Cache.DefaultExpiration)
	return insight, nil
}
