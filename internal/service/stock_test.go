package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/internal/repository/mocks"
	"golang-stock-tracker/pkg/apperror"
	"golang-stock-tracker/pkg/cache"
	"golang-stock-tracker/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestStockService(yahooRepo *mocks.YahooFinanceRepository, aiRepo repository.AIRepository) StockService {
	cfg := &config.Config{Cache: config.Cache{DefaultExpiration: time.Hour}}
	return NewStockService(cfg, logger.NewNop(), yahooRepo, aiRepo, cache.NewCache(time.Hour, time.Hour))
}

func TestStockService_GetQuote(t *testing.T) {
	yahooRepo := &mocks.YahooFinanceRepository{}
	yahooRepo.On("GetQuote", mock.Anything, "AAPL").Return(&dto.Quote{Symbol: "AAPL", Price: 190, HasPrice: true}, nil)
	yahooRepo.On("GetQuote", mock.Anything, "NOPE").Return(nil, fmt.Errorf("%w: NOPE", repository.ErrSymbolNotFound))
	yahooRepo.On("GetQuote", mock.Anything, "MSFT").Return(nil, errors.New("connection reset"))
	svc := newTestStockService(yahooRepo, nil)

	quote, err := svc.GetQuote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, 190.0, quote.Price)

	_, err = svc.GetQuote(context.Background(), "nope")
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
	assert.Equal(t, "Stock symbol not found", appErr.Message)

	_, err = svc.GetQuote(context.Background(), "bad symbol!")
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))

	_, err = svc.GetQuote(context.Background(), "MSFT")
	assert.True(t, apperror.IsCode(err, apperror.CodeInternal))
}

func TestStockService_GetHistory(t *testing.T) {
	yahooRepo := &mocks.YahooFinanceRepository{}
	yahooRepo.On("GetHistory", mock.Anything, "AAPL", dto.Range1Month).Return([]dto.HistoricalPoint{{Date: day(2), Close: 190}}, nil)
	svc := newTestStockService(yahooRepo, nil)

	points, err := svc.GetHistory(context.Background(), "aapl", "")
	require.NoError(t, err)
	assert.Len(t, points, 1)

	points, err = svc.GetHistory(context.Background(), "not valid", dto.Range1Year)
	require.NoError(t, err)
	assert.NotNil(t, points)
	assert.Empty(t, points)
}

func TestStockService_GetInsight(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		svc := newTestStockService(&mocks.YahooFinanceRepository{}, nil)
		_, err := svc.GetInsight(context.Background(), "AAPL")
		assert.True(t, apperror.IsCode(err, apperror.CodeServiceUnavailable))
	})

	t.Run("cached after first call", func(t *testing.T) {
		yahooRepo := &mocks.YahooFinanceRepository{}
		aiRepo := &mocks.AIRepository{}
		quote := &dto.Quote{Symbol: "AAPL", Price: 190, HasPrice: true}
		closes := []dto.HistoricalPoint{{Date: day(2), Close: 185}}
		yahooRepo.On("GetQuote", mock.Anything, "AAPL").Return(quote, nil)
		yahooRepo.On("GetHistory", mock.Anything, "AAPL", dto.Range1Month).Return(closes, nil)
		aiRepo.On("StockInsight", mock.Anything, dto.AIInsightParam{Quote: *quote, Closes: closes}).
			Return(&dto.StockInsight{Symbol: "AAPL", Sentiment: "NEUTRAL"}, nil).Once()
		svc := newTestStockService(yahooRepo, aiRepo)

		first, err := svc.GetInsight(context.Background(), "aapl")
		require.NoError(t, err)
		second, err := svc.GetInsight(context.Background(), "AAPL")
		require.NoError(t, err)
		assert.Same(t, first, second)
		aiRepo.AssertNumberOfCalls(t, "StockInsight", 1)
	})

	t.Run("provider failure", func(t *testing.T) {
		yahooRepo := &mocks.YahooFinanceRepository{}
		aiRepo := &mocks.AIRepository{}
		yahooRepo.On("GetQuote", mock.Anything, "AAPL").Return(&dto.Quote{Symbol: "AAPL", Price: 190, HasPrice: true}, nil)
		yahooRepo.On("GetHistory", mock.Anything, "AAPL", dto.Range1Month).Return([]dto.HistoricalPoint{}, nil)
		aiRepo.On("StockInsight", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))
		svc := newTestStockService(yahooRepo, aiRepo)

		_, err := svc.GetInsight(context.Background(), "AAPL")
		assert.True(t, apperror.IsCode(err, apperror.CodeServiceUnavailable))
	})
}
