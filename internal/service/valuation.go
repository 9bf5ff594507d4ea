package service

import (
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/pkg/utils"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// holdingValue is the unrounded valuation of one holding.
type holdingValue struct {
	investment decimal.Decimal
	current    decimal.Decimal
}

func valueHolding(quantity, buyPrice, currentPrice float64) holdingValue {
	qty := decimal.NewFromFloat(quantity)
	return holdingValue{
		investment: qty.Mul(decimal.NewFromFloat(buyPrice)),
		current:    qty.Mul(decimal.NewFromFloat(currentPrice)),
	}
}

// percentOf returns part / whole * 100, or 0 when whole is zero.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// CalculateHoldingMetrics derives the valuation figures of a holding at currentPrice.
func CalculateHoldingMetrics(holding model.Holding, currentPrice float64) dto.EnrichedHolding {
	v := valueHolding(holding.Quantity, holding.BuyPrice, currentPrice)
	profitLoss := v.current.Sub(v.investment)

	return dto.EnrichedHolding{
		ID:        holding.ID,
		Symbol:    holding.Symbol,
		Quantity:  holding.Quantity,
		BuyPrice:  holding.BuyPrice,
		BuyDate:   utils.DateKey(holding.BuyDate),
		CreatedAt: holding.CreatedAt,
		HoldingMetrics: dto.HoldingMetrics{
			CurrentPrice:      currentPrice,
			TotalInvestment:   round2(v.investment),
			CurrentValue:      round2(v.current),
			ProfitLoss:        round2(profitLoss),
			ProfitLossPercent: round2(percentOf(profitLoss, v.investment)),
		},
	}
}

// SummarizeHoldings aggregates unrounded values and rounds once.
func SummarizeHoldings(holdings []model.Holding, prices map[string]float64) dto.PortfolioSummary {
	totalInvestment := decimal.Zero
	totalCurrent := decimal.Zero
	for _, h := range holdings {
		v := valueHolding(h.Quantity, h.BuyPrice, prices[h.Symbol])
		totalInvestment = totalInvestment.Add(v.investment)
		totalCurrent = totalCurrent.Add(v.current)
	}
	profitLoss := totalCurrent.Sub(totalInvestment)

	return dto.PortfolioSummary{
		TotalHoldings:          len(holdings),
		TotalInvestment:        round2(totalInvestment),
		TotalCurrentValue:      round2(totalCurrent),
		TotalProfitLoss:        round2(profitLoss),
		TotalProfitLossPercent: round2(percentOf(profitLoss, totalInvestment)),
	}
}

// AllocateHoldings returns each holding's share of total current value in
// input order. Callers sort.
func AllocateHoldings(holdings []model.Holding, prices map[string]float64) []dto.AllocationItem {
	values := make([]decimal.Decimal, len(holdings))
	total := decimal.Zero
	for i, h := range holdings {
		values[i] = valueHolding(h.Quantity, h.BuyPrice, prices[h.Symbol]).current
		total = total.Add(values[i])
	}

	items := make([]dto.AllocationItem, 0, len(holdings))
	for i, h := range holdings {
		items = append(items, dto.AllocationItem{
			Symbol:       h.Symbol,
			CurrentValue: round2(values[i]),
			Percentage:   round2(percentOf(values[i], total)),
		})
	}
	return items
}

// ReturnPercent is (price - base) / base * 100 rounded to 2 decimals.
func ReturnPercent(price, base float64) float64 {
	b := decimal.NewFromFloat(base)
	return round2(percentOf(decimal.NewFromFloat(price).Sub(b), b))
}
