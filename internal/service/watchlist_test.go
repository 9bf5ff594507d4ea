package service

import (
	"context"
	"errors"
	"testing"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/internal/repository/mocks"
	"golang-stock-tracker/pkg/apperror"
	"golang-stock-tracker/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newWatchlistFixture() (WatchlistService, *mocks.WatchlistRepository, *mocks.YahooFinanceRepository) {
	watchlistRepo := &mocks.WatchlistRepository{}
	yahooRepo := &mocks.YahooFinanceRepository{}
	cfg := &config.Config{Portfolio: config.Portfolio{MaxConcurrency: 2}}
	return NewWatchlistService(cfg, logger.NewNop(), watchlistRepo, yahooRepo), watchlistRepo, yahooRepo
}

func TestWatchlistService_List_QuoteFailureIsPerEntry(t *testing.T) {
	svc, watchlistRepo, yahooRepo := newWatchlistFixture()
	watchlistRepo.On("ListByUser", mock.Anything, uint(7)).Return([]model.WatchlistEntry{
		{ID: 1, UserID: 7, Symbol: "AAPL"},
		{ID: 2, UserID: 7, Symbol: "MSFT"},
		{ID: 3, UserID: 7, Symbol: "NVDA"},
	}, nil)
	yahooRepo.On("GetQuote", mock.Anything, "AAPL").Return(&dto.Quote{Symbol: "AAPL", Price: 190, HasPrice: true}, nil)
	yahooRepo.On("GetQuote", mock.Anything, "MSFT").Return(nil, errors.New("timeout"))
	yahooRepo.On("GetQuote", mock.Anything, "NVDA").Return(&dto.Quote{Symbol: "NVDA", Price: 120, HasPrice: true}, nil)

	items, err := svc.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "AAPL", items[0].Symbol)
	require.NotNil(t, items[0].Quote)
	assert.Equal(t, 190.0, items[0].Quote.Price)

	assert.Equal(t, "MSFT", items[1].Symbol)
	assert.Nil(t, items[1].Quote)
	assert.Equal(t, "Failed to fetch current price", items[1].Error)

	assert.Equal(t, uint(3), items[2].ID)
	assert.Empty(t, items[2].Error)
}

func TestWatchlistService_Add(t *testing.T) {
	t.Run("empty symbol", func(t *testing.T) {
		svc, _, _ := newWatchlistFixture()
		_, err := svc.Add(context.Background(), 7, "")
		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, "Stock symbol is required", appErr.Message)
	})

	t.Run("duplicate", func(t *testing.T) {
		svc, watchlistRepo, yahooRepo := newWatchlistFixture()
		yahooRepo.On("GetQuote", mock.Anything, "AAPL").Return(&dto.Quote{Symbol: "AAPL", Price: 190, HasPrice: true}, nil)
		watchlistRepo.On("Create", mock.Anything, mock.Anything).Return(gorm.ErrDuplicatedKey)

		_, err := svc.Add(context.Background(), 7, "aapl")
		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeConflict, appErr.Code)
		assert.Equal(t, "Stock already in watchlist", appErr.Message)
	})

	t.Run("quote without price", func(t *testing.T) {
		svc, watchlistRepo, yahooRepo := newWatchlistFixture()
		yahooRepo.On("GetQuote", mock.Anything, "DELISTED").Return(&dto.Quote{Symbol: "DELISTED"}, nil)

		_, err := svc.Add(context.Background(), 7, "delisted")
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
		watchlistRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("added", func(t *testing.T) {
		svc, watchlistRepo, yahooRepo := newWatchlistFixture()
		yahooRepo.On("GetQuote", mock.Anything, "AAPL").Return(&dto.Quote{Symbol: "AAPL", Price: 190, HasPrice: true}, nil)
		watchlistRepo.On("Create", mock.Anything, mock.MatchedBy(func(e *model.WatchlistEntry) bool {
			return e.UserID == 7 && e.Symbol == "AAPL"
		})).Return(nil)

		entry, err := svc.Add(context.Background(), 7, " aapl")
		require.NoError(t, err)
		assert.Equal(t, "AAPL", entry.Symbol)
	})
}

func TestWatchlistService_Remove_NotFound(t *testing.T) {
	svc, watchlistRepo, _ := newWatchlistFixture()
	watchlistRepo.On("Delete", mock.Anything, uint(7), uint(5)).Return(gorm.ErrRecordNotFound)

	err := svc.Remove(context.Background(), 7, 5)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "Stock not found in watchlist", appErr.Message)
}
