package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/repository/mocks"
	"golang-stock-tracker/pkg/cache"
	"golang-stock-tracker/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestPriceCache(yahooRepo *mocks.YahooFinanceRepository, clock *time.Time) *priceCache {
	cfg := &config.Config{Cache: config.Cache{PriceTTL: time.Minute}}
	p := NewPriceCache(cfg, logger.NewNop(), cache.NewCache(time.Hour, time.Hour), yahooRepo).(*priceCache)
	p.now = func() time.Time { return *clock }
	return p
}

func TestPriceCache_FreshHitSkipsProvider(t *testing.T) {
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	yahooRepo := &mocks.YahooFinanceRepository{}
	p := newTestPriceCache(yahooRepo, &clock)

	p.Prime("aapl", 190.25)
	clock = clock.Add(30 * time.Second)

	assert.Equal(t, 190.25, p.GetPrice(context.Background(), "AAPL"))
	yahooRepo.AssertNotCalled(t, "GetQuote", mock.Anything, mock.Anything)
}

func TestPriceCache_ExpiredEntryRefetches(t *testing.T) {
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	yahooRepo := &mocks.YahooFinanceRepository{}
	yahooRepo.On("GetQuote", mock.Anything, "AAPL").Return(&dto.Quote{Symbol: "AAPL", Price: 195, HasPrice: true}, nil).Once()
	p := newTestPriceCache(yahooRepo, &clock)

	p.Prime("AAPL", 190)
	clock = clock.Add(2 * time.Minute)

	assert.Equal(t, 195.0, p.GetPrice(context.Background(), "AAPL"))
	assert.Equal(t, 195.0, p.GetPrice(context.Background(), "AAPL"))
	yahooRepo.AssertNumberOfCalls(t, "GetQuote", 1)
}

func TestPriceCache_StaleFallback(t *testing.T) {
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	yahooRepo := &mocks.YahooFinanceRepository{}
	yahooRepo.On("GetQuote", mock.Anything, "AAPL").Return(nil, errors.New("timeout"))
	p := newTestPriceCache(yahooRepo, &clock)

	p.Prime("AAPL", 190)
	clock = clock.Add(time.Hour)

	assert.Equal(t, 190.0, p.GetPrice(context.Background(), "AAPL"))
}

func TestPriceCache_NoPriceAvailable(t *testing.T) {
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	yahooRepo := &mocks.YahooFinanceRepository{}
	yahooRepo.On("GetQuote", mock.Anything, "NOPE").Return(nil, errors.New("symbol not found"))
	p := newTestPriceCache(yahooRepo, &clock)

	assert.Zero(t, p.GetPrice(context.Background(), "nope"))
}
