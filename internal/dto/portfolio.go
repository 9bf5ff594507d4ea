package dto

import "time"

type AddHoldingRequest struct {
	Symbol   string  `json:"symbol" validate:"required,max=16"`
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
	BuyPrice float64 `json:"buy_price" validate:"required,gt=0"`
	BuyDate  string  `json:"buy_date" validate:"required,datetime=2006-01-02"`
}

// UpdateHoldingRequest carries only the fields to change.
type UpdateHoldingRequest struct {
	Symbol   *string  `json:"symbol" validate:"omitempty,max=16"`
	Quantity *float64 `json:"quantity" validate:"omitempty,gt=0"`
	BuyPrice *float64 `json:"buy_price" validate:"omitempty,gt=0"`
	BuyDate  *string  `json:"buy_date" validate:"omitempty,datetime=2006-01-02"`
}

func (r UpdateHoldingRequest) IsEmpty() bool {
	return r.Symbol == nil && r.Quantity == nil && r.BuyPrice == nil && r.BuyDate == nil
}

// HoldingMetrics are the derived valuation figures of a holding, rounded to 2 decimals.
type HoldingMetrics struct {
	CurrentPrice      float64 `json:"current_price"`
	TotalInvestment   float64 `json:"total_investment"`
	CurrentValue      float64 `json:"current_value"`
	ProfitLoss        float64 `json:"profit_loss"`
	ProfitLossPercent float64 `json:"profit_loss_percent"`
}

type EnrichedHolding struct {
	ID        uint      `json:"id"`
	Symbol    string    `json:"symbol"`
	Quantity  float64   `json:"quantity"`
	BuyPrice  float64   `json:"buy_price"`
	BuyDate   string    `json:"buy_date"`
	CreatedAt time.Time `json:"created_at"`
	HoldingMetrics
}

type PortfolioSummary struct {
	TotalHoldings          int     `json:"total_holdings"`
	TotalInvestment        float64 `json:"total_investment"`
	TotalCurrentValue      float64 `json:"total_current_value"`
	TotalProfitLoss        float64 `json:"total_profit_loss"`
	TotalProfitLossPercent float64 `json:"total_profit_loss_percent"`
}

type AllocationItem struct {
	Symbol       string  `json:"symbol"`
	CurrentValue float64 `json:"current_value"`
	Percentage   float64 `json:"percentage"`
}

type PortfolioHistoryPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type PerformancePoint struct {
	Date      string  `json:"date"`
	ReturnPct float64 `json:"return_pct"`
}

type PerformanceSeries struct {
	Symbol string             `json:"symbol"`
	Data   []PerformancePoint `json:"data"`
}
