package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/internal/repository/mocks"
	"golang-stock-tracker/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func flatCloses(n int, price float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return closes
}

func TestEvaluateDailyMove(t *testing.T) {
	tests := []struct {
		name          string
		changePercent float64
		triggered     bool
		message       string
	}{
		{name: "up at threshold", changePercent: 5, triggered: true, message: "Price moved significantly (5.00%) within the trading day."},
		{name: "down past threshold", changePercent: -6.5, triggered: true, message: "Price moved significantly (-6.50%) within the trading day."},
		{name: "up short of threshold", changePercent: 4.99},
		{name: "down short of threshold", changePercent: -4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateDailyMove(dto.Quote{Symbol: "AAPL", ChangePercent: tt.changePercent}, 5)
			assert.Equal(t, tt.triggered, got.Triggered)
			assert.Equal(t, tt.message, got.Message)
		})
	}
}

func TestEvaluateMovingAverageTrend(t *testing.T) {
	tests := []struct {
		name      string
		quote     dto.Quote
		closes    []float64
		triggered bool
		message   string
	}{
		{
			name:      "bullish above average on an up day",
			quote:     dto.Quote{Price: 106, ChangePercent: 1},
			closes:    flatCloses(20, 100),
			triggered: true,
			message:   "Bullish Trend: Price is 6.0% above the 20-day Moving Average ($100.00).",
		},
		{
			name:   "above average on a down day",
			quote:  dto.Quote{Price: 106, ChangePercent: -1},
			closes: flatCloses(20, 100),
		},
		{
			name:      "bearish below average on a down day",
			quote:     dto.Quote{Price: 94, ChangePercent: -2},
			closes:    flatCloses(20, 100),
			triggered: true,
			message:   "Bearish Trend: Price is 6.0% below the 20-day Moving Average ($100.00).",
		},
		{
			name:   "below average on an up day",
			quote:  dto.Quote{Price: 94, ChangePercent: 2},
			closes: flatCloses(20, 100),
		},
		{
			name:   "inside the deviation band",
			quote:  dto.Quote{Price: 104, ChangePercent: 1},
			closes: flatCloses(20, 100),
		},
		{
			name:   "not enough history",
			quote:  dto.Quote{Price: 150, ChangePercent: 3},
			closes: flatCloses(19, 100),
		},
		{
			name:      "only the most recent closes count",
			quote:     dto.Quote{Price: 110, ChangePercent: 2},
			closes:    append(flatCloses(5, 50), flatCloses(20, 100)...),
			triggered: true,
			message:   "Bullish Trend: Price is 10.0% above the 20-day Moving Average ($100.00).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateMovingAverageTrend(tt.quote, tt.closes, 20, 5)
			assert.Equal(t, tt.triggered, got.Triggered)
			assert.Equal(t, tt.message, got.Message)
		})
	}
}

func TestSimpleMovingAverage(t *testing.T) {
	avg, ok := SimpleMovingAverage([]float64{1, 2, 3, 4}, 2)
	require.True(t, ok)
	assert.Equal(t, 3.5, avg)

	_, ok = SimpleMovingAverage([]float64{1}, 2)
	assert.False(t, ok)
}

type watchlistAlertsFixture struct {
	watchlistRepo *mocks.WatchlistRepository
	recordRepo    *mocks.AlertRecordRepository
	yahooRepo     *mocks.YahooFinanceRepository
	primer        *recordingPrimer
	notifier      *recordingNotifier
	job           *WatchlistAlertsStrategy
}

func newWatchlistAlertsFixture() *watchlistAlertsFixture {
	f := &watchlistAlertsFixture{
		watchlistRepo: &mocks.WatchlistRepository{},
		recordRepo:    &mocks.AlertRecordRepository{},
		yahooRepo:     &mocks.YahooFinanceRepository{},
		primer:        &recordingPrimer{},
		notifier:      &recordingNotifier{},
	}
	cfg := &config.Config{AlertEngine: config.AlertEngine{
		WatchlistMovePercent:  5,
		WatchlistSMAPeriod:    20,
		WatchlistSMADeviation: 5,
	}}
	f.job = NewWatchlistAlertsStrategy(cfg, logger.NewNop(), f.watchlistRepo, f.recordRepo, f.yahooRepo, f.primer, f.notifier)
	return f
}

func historyOf(closes []float64) []dto.HistoricalPoint {
	points := make([]dto.HistoricalPoint, 0, len(closes))
	for _, c := range closes {
		points = append(points, dto.HistoricalPoint{Close: c})
	}
	return points
}

func TestWatchlistAlertsStrategy_Execute(t *testing.T) {
	f := newWatchlistAlertsFixture()
	owner := &model.User{ID: 7, Email: "owner@example.com"}

	f.watchlistRepo.On("ListAll", mock.Anything).Return([]model.WatchlistEntry{
		{ID: 1, UserID: 7, Symbol: "AAPL", User: owner},
		{ID: 2, UserID: 8, Symbol: "AAPL"},
		{ID: 3, UserID: 7, Symbol: "MSFT", User: owner},
		{ID: 4, UserID: 9, Symbol: "TSLA"},
		{ID: 5, UserID: 7, Symbol: "KO", User: owner},
	}, nil)
	f.yahooRepo.On("GetQuote", mock.Anything, "AAPL").Return(&dto.Quote{Symbol: "AAPL", Price: 212, ChangePercent: 6, HasPrice: true}, nil).Once()
	f.yahooRepo.On("GetQuote", mock.Anything, "MSFT").Return(&dto.Quote{Symbol: "MSFT", Price: 110, ChangePercent: 1, HasPrice: true}, nil).Once()
	f.yahooRepo.On("GetQuote", mock.Anything, "TSLA").Return(nil, errors.New("provider down")).Once()
	f.yahooRepo.On("GetQuote", mock.Anything, "KO").Return(&dto.Quote{Symbol: "KO", Price: 60, ChangePercent: 0.5, HasPrice: true}, nil).Once()
	f.yahooRepo.On("GetHistory", mock.Anything, "MSFT", dto.Range1Month).Return(historyOf(flatCloses(21, 100)), nil).Once()
	f.yahooRepo.On("GetHistory", mock.Anything, "KO", dto.Range1Month).Return(historyOf(flatCloses(21, 60)), nil).Once()

	var created []*model.AlertRecord
	f.recordRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.AlertRecord")).
		Run(func(args mock.Arguments) { created = append(created, args.Get(1).(*model.AlertRecord)) }).
		Return(nil)

	result, err := f.job.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(JOB_EXIT_CODE_PARTIAL_SUCCESS), result.ExitCode)

	var output WatchlistAlertsResult
	require.NoError(t, json.Unmarshal([]byte(result.Output), &output))
	assert.Equal(t, 5, output.EntriesEvaluated)
	assert.Equal(t, 3, output.SymbolsProcessed)
	assert.Equal(t, 1, output.SymbolsFailed)
	assert.Equal(t, 3, output.AlertsTriggered)

	f.yahooRepo.AssertNotCalled(t, "GetHistory", mock.Anything, "AAPL", mock.Anything)
	f.yahooRepo.AssertExpectations(t)

	require.Len(t, created, 3)
	assert.Equal(t, uint(7), created[0].UserID)
	assert.Equal(t, uint(8), created[1].UserID)
	assert.Equal(t, "AAPL moved 6.00%", created[0].Message)
	assert.Equal(t, "Price moved significantly (6.00%) within the trading day.", created[0].Reason)
	assert.Equal(t, model.AlertTypeWatchlist, created[0].AlertType)
	assert.Equal(t, "MSFT moved 1.00%", created[2].Message)
	assert.Equal(t, "Bullish Trend: Price is 10.0% above the 20-day Moving Average ($100.00).", created[2].Reason)

	assert.Equal(t, map[string]float64{"AAPL": 212, "MSFT": 110, "KO": 60}, f.primer.prices)

	require.Len(t, f.notifier.sent, 2, "entries without a loaded owner are not notified")
	assert.Equal(t, "owner@example.com", f.notifier.sent[0].Email)
	assert.Equal(t, "AAPL", f.notifier.sent[0].Symbol)
	assert.Equal(t, "MSFT", f.notifier.sent[1].Symbol)
}

func TestWatchlistAlertsStrategy_UnpricedQuoteSkipsTrend(t *testing.T) {
	f := newWatchlistAlertsFixture()
	f.watchlistRepo.On("ListAll", mock.Anything).Return([]model.WatchlistEntry{{ID: 1, UserID: 7, Symbol: "HALT"}}, nil)
	f.yahooRepo.On("GetQuote", mock.Anything, "HALT").Return(&dto.Quote{Symbol: "HALT", ChangePercent: -1}, nil)

	result, err := f.job.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(JOB_EXIT_CODE_SUCCESS), result.ExitCode)
	f.yahooRepo.AssertNotCalled(t, "GetHistory", mock.Anything, mock.Anything, mock.Anything)
	f.recordRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWatchlistAlertsStrategy_SkipsWhileRunning(t *testing.T) {
	f := newWatchlistAlertsFixture()
	f.job.running.Store(true)

	result, err := f.job.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(JOB_EXIT_CODE_SKIPPED), result.ExitCode)
	f.watchlistRepo.AssertNotCalled(t, "ListAll", mock.Anything)
}

func TestWatchlistAlertsStrategy_LoadFailure(t *testing.T) {
	f := newWatchlistAlertsFixture()
	f.watchlistRepo.On("ListAll", mock.Anything).Return(nil, errors.New("db down"))

	result, err := f.job.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(JOB_EXIT_CODE_FAILED), result.ExitCode)
	assert.False(t, f.job.running.Load())
}
