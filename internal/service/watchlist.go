package service

import (
	"context"
	"fmt"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/pkg/apperror"
	"golang-stock-tracker/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const watchlistQuoteError = "Failed to fetch current price"

type WatchlistService interface {
	List(ctx context.Context, userID uint) ([]dto.WatchlistItem, error)
	Add(ctx context.Context, userID uint, symbol string) (*model.WatchlistEntry, error)
	Remove(ctx context.Context, userID, id uint) error
}

type watchlistService struct {
	cfg           *config.Config
	log           *logger.Logger
	watchlistRepo repository.WatchlistRepository
	yahooRepo     repository.YahooFinanceRepository
}

func NewWatchlistService(
	cfg *config.Config,
	log *logger.Logger,
	watchlistRepo repository.WatchlistRepository,
	yahooRepo repository.YahooFinanceRepository,
) WatchlistService {
	return &watchlistService{
		cfg:           cfg,
		log:           log,
		watchlistRepo: watchlistRepo,
		yahooRepo:     yahooRepo,
	}
}

// List enriches each entry with its live quote. A failed quote is reported
// on the entry instead of failing the whole list.
func (s *watchlistService) List(ctx context.Context, userID uint) ([]dto.WatchlistItem, error) {
	entries, err := s.watchlistRepo.ListByUser(ctx, userID)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list watchlist", logger.UintField("user_id", userID), logger.ErrorField(err))
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}

	items := make([]dto.WatchlistItem, len(entries))
	limit := s.cfg.Portfolio.MaxConcurrency
	if limit <= 0 {
		limit = 5
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, entry := range entries {
		items[i] = dto.WatchlistItem{ID: entry.ID, Symbol: entry.Symbol, CreatedAt: entry.CreatedAt}
		g.Go(func() error {
			quote, err := s.yahooRepo.GetQuote(gctx, entry.Symbol)
			if err != nil {
				s.log.WarnContext(gctx, "Failed to fetch watchlist quote", logger.StringField("symbol", entry.Symbol), logger.ErrorField(err))
				items[i].Error = watchlistQuoteError
				return nil
			}
			items[i].Quote = quote
			return nil
		})
	}
	_ = g.Wait()

	return items, nil
}

func (s *watchlistService) Add(ctx context.Context, userID uint, symbol string) (*model.WatchlistEntry, error) {
	if symbol == "" {
		return nil, apperror.Validation("Stock symbol is required")
	}
	symbol, err := resolveSymbol(ctx, s.log, s.yahooRepo, symbol)
	if err != nil {
		return nil, err
	}

	entry := &model.WatchlistEntry{UserID: userID, Symbol: symbol}
	if err := s.watchlistRepo.Create(ctx, entry); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperror.Conflict("Stock already in watchlist")
		}
		s.log.ErrorContext(ctx, "Failed to add watchlist entry", logger.UintField("user_id", userID), logger.StringField("symbol", symbol), logger.ErrorField(err))
		return nil, fmt.Errorf("failed to add to watchlist: %w", err)
	}
	return entry, nil
}

func (s *watchlistService) Remove(ctx context.Context, userID, id uint) error {
	if err := s.watchlistRepo.Delete(ctx, userID, id); err != nil {
		if repository.IsNotFound(err) {
			return apperror.New(apperror.CodeNotFound, "Stock not found in watchlist")
		}
		return fmt.Errorf("failed to remove from watchlist: %w", err)
	}
	return nil
}
