package service

import (
	"testing"
	"time"

	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateHoldingMetrics(t *testing.T) {
	tests := []struct {
		name    string
		holding model.Holding
		price   float64
		want    dto.HoldingMetrics
	}{
		{
			name:    "gain",
			holding: model.Holding{Symbol: "AAPL", Quantity: 10, BuyPrice: 100, BuyDate: day(1)},
			price:   110,
			want:    dto.HoldingMetrics{CurrentPrice: 110, TotalInvestment: 1000, CurrentValue: 1100, ProfitLoss: 100, ProfitLossPercent: 10},
		},
		{
			name:    "missing price",
			holding: model.Holding{Symbol: "AAPL", Quantity: 10, BuyPrice: 100, BuyDate: day(1)},
			price:   0,
			want:    dto.HoldingMetrics{CurrentPrice: 0, TotalInvestment: 1000, CurrentValue: 0, ProfitLoss: -1000, ProfitLossPercent: -100},
		},
		{
			name:    "rounded to cents",
			holding: model.Holding{Symbol: "MSFT", Quantity: 3, BuyPrice: 33.333, BuyDate: day(1)},
			price:   33.337,
			want:    dto.HoldingMetrics{CurrentPrice: 33.337, TotalInvestment: 100, CurrentValue: 100.01, ProfitLoss: 0.01, ProfitLossPercent: 0.01},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateHoldingMetrics(tt.holding, tt.price)
			assert.Equal(t, tt.want, got.HoldingMetrics)
			assert.Equal(t, tt.holding.Symbol, got.Symbol)
			assert.Equal(t, "2024-01-01", got.BuyDate)
		})
	}
}

func TestSummarizeHoldings(t *testing.T) {
	holdings := []model.Holding{
		{Symbol: "AAPL", Quantity: 10, BuyPrice: 100},
		{Symbol: "MSFT", Quantity: 5, BuyPrice: 200},
	}
	prices := map[string]float64{"AAPL": 110, "MSFT": 150}

	got := SummarizeHoldings(holdings, prices)
	assert.Equal(t, 2, got.TotalHoldings)
	assert.Equal(t, 2000.0, got.TotalInvestment)
	assert.Equal(t, 1850.0, got.TotalCurrentValue)
	assert.Equal(t, -150.0, got.TotalProfitLoss)
	assert.Equal(t, -7.5, got.TotalProfitLossPercent)

	empty := SummarizeHoldings(nil, nil)
	assert.Equal(t, dto.PortfolioSummary{}, empty)
}

func TestAllocateHoldings(t *testing.T) {
	holdings := []model.Holding{
		{Symbol: "AAPL", Quantity: 10, BuyPrice: 100},
		{Symbol: "MSFT", Quantity: 5, BuyPrice: 200},
		{Symbol: "DEAD", Quantity: 5, BuyPrice: 10},
	}
	prices := map[string]float64{"AAPL": 90, "MSFT": 220}

	got := AllocateHoldings(holdings, prices)
	assert.Equal(t, []dto.AllocationItem{
		{Symbol: "AAPL", CurrentValue: 900, Percentage: 45},
		{Symbol: "MSFT", CurrentValue: 1100, Percentage: 55},
		{Symbol: "DEAD", CurrentValue: 0, Percentage: 0},
	}, got)

	zero := AllocateHoldings(holdings, map[string]float64{})
	for _, item := range zero {
		assert.Zero(t, item.Percentage)
	}
}

func TestReturnPercent(t *testing.T) {
	assert.Equal(t, 0.0, ReturnPercent(100, 100))
	assert.Equal(t, 12.35, ReturnPercent(112.345, 100))
	assert.Equal(t, -50.0, ReturnPercent(50, 100))
	assert.Equal(t, 0.0, ReturnPercent(50, 0))
}

func TestBuildPortfolioHistory(t *testing.T) {
	holdings := []model.Holding{
		{Symbol: "AAA", Quantity: 2, BuyPrice: 10, BuyDate: day(1)},
		{Symbol: "BBB", Quantity: 1, BuyPrice: 50, BuyDate: day(3)},
	}
	histories := map[string][]dto.HistoricalPoint{
		"AAA": {
			{Date: day(2), Close: 11},
			{Date: day(3), Close: 0},
			{Date: day(4), Close: 12},
		},
		"BBB": {
			{Date: day(3), Close: 55},
		},
	}

	got := BuildPortfolioHistory(holdings, histories)
	assert.Equal(t, []dto.PortfolioHistoryPoint{
		{Date: "2024-01-02", Value: 22},
		{Date: "2024-01-03", Value: 77},
		{Date: "2024-01-04", Value: 79},
	}, got)
}

func TestBuildPortfolioHistory_FallsBackToBuyPrice(t *testing.T) {
	holdings := []model.Holding{
		{Symbol: "AAA", Quantity: 2, BuyPrice: 10, BuyDate: day(1)},
		{Symbol: "CCC", Quantity: 4, BuyPrice: 5, BuyDate: day(1)},
	}
	histories := map[string][]dto.HistoricalPoint{
		"AAA": {{Date: day(2), Close: 15}},
		"CCC": {},
	}

	got := BuildPortfolioHistory(holdings, histories)
	assert.Equal(t, []dto.PortfolioHistoryPoint{{Date: "2024-01-02", Value: 50}}, got)
}

func TestBuildPortfolioHistory_NoSeries(t *testing.T) {
	holdings := []model.Holding{{Symbol: "AAA", Quantity: 2, BuyPrice: 10, BuyDate: day(1)}}

	got := BuildPortfolioHistory(holdings, map[string][]dto.HistoricalPoint{"AAA": nil})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
