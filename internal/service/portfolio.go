package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/pkg/apperror"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"

	"golang.org/x/sync/errgroup"
)

type PortfolioService interface {
	GetPortfolio(ctx context.Context, userID uint) ([]dto.EnrichedHolding, error)
	GetPortfolioSummary(ctx context.Context, userID uint) (*dto.PortfolioSummary, error)
	GetPortfolioAllocation(ctx context.Context, userID uint) ([]dto.AllocationItem, error)
	GetPortfolioHistory(ctx context.Context, userID uint, historyRange string) ([]dto.PortfolioHistoryPoint, error)
	GetPortfolioPerformance(ctx context.Context, userID uint, historyRange string) ([]dto.PerformanceSeries, error)
	ValidateSymbol(ctx context.Context, symbol string) bool

	GetHolding(ctx context.Context, userID, id uint) (*model.Holding, error)
	AddHolding(ctx context.Context, userID uint, req dto.AddHoldingRequest) (*model.Holding, error)
	UpdateHolding(ctx context.Context, userID, id uint, req dto.UpdateHoldingRequest) (*model.Holding, error)
	DeleteHolding(ctx context.Context, userID, id uint) error
	ExportPortfolioCSV(ctx context.Context, userID uint) ([]byte, error)
}

type portfolioService struct {
	cfg         *config.Config
	log         *logger.Logger
	holdingRepo repository.HoldingRepository
	yahooRepo   repository.YahooFinanceRepository
	priceCache  PriceCache
	now         func() time.Time
}

func NewPortfolioService(
	cfg *config.Config,
	log *logger.Logger,
	holdingRepo repository.HoldingRepository,
	yahooRepo repository.YahooFinanceRepository,
	priceCache PriceCache,
) PortfolioService {
	return &portfolioService{
		cfg:         cfg,
		log:         log,
		holdingRepo: holdingRepo,
		yahooRepo:   yahooRepo,
		priceCache:  priceCache,
		now:         utils.TimeNowUTC,
	}
}

func (s *portfolioService) maxConcurrency() int {
	if s.cfg.Portfolio.MaxConcurrency > 0 {
		return s.cfg.Portfolio.MaxConcurrency
	}
	return 5
}

func distinctSymbols(holdings []model.Holding) []string {
	seen := make(map[string]struct{}, len(holdings))
	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		if _, ok := seen[h.Symbol]; ok {
			continue
		}
		seen[h.Symbol] = struct{}{}
		symbols = append(symbols, h.Symbol)
	}
	return symbols
}

// resolvePrices looks up one price per distinct symbol concurrently.
// Failed lookups resolve to 0 inside the price cache.
func (s *portfolioService) resolvePrices(ctx context.Context, holdings []model.Holding) map[string]float64 {
	var (
		mu     sync.Mutex
		prices = make(map[string]float64)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency())
	for _, symbol := range distinctSymbols(holdings) {
		g.Go(func() error {
			price := s.priceCache.GetPrice(gctx, symbol)
			mu.Lock()
			prices[symbol] = price
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return prices
}

// fetchHistories loads the series of every symbol concurrently. A failed
// series is empty.
func (s *portfolioService) fetchHistories(ctx context.Context, symbols []string, historyRange string) map[string][]dto.HistoricalPoint {
	var (
		mu        sync.Mutex
		histories = make(map[string][]dto.HistoricalPoint, len(symbols))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency())
	for _, symbol := range symbols {
		g.Go(func() error {
			points, err := s.yahooRepo.GetHistory(gctx, symbol, historyRange)
			if err != nil {
				s.log.WarnContext(gctx, "Failed to fetch history", logger.StringField("symbol", symbol), logger.ErrorField(err))
				points = nil
			}
			mu.Lock()
			histories[symbol] = points
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return histories
}

func (s *portfolioService) listHoldings(ctx context.Context, userID uint) ([]model.Holding, error) {
	holdings, err := s.holdingRepo.ListByUser(ctx, userID)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list holdings", logger.UintField("user_id", userID), logger.ErrorField(err))
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	return holdings, nil
}

func (s *portfolioService) GetPortfolio(ctx context.Context, userID uint) ([]dto.EnrichedHolding, error) {
	holdings, err := s.listHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return []dto.EnrichedHolding{}, nil
	}

	prices := s.resolvePrices(ctx, holdings)
	enriched := make([]dto.EnrichedHolding, 0, len(holdings))
	for _, h := range holdings {
		enriched = append(enriched, CalculateHoldingMetrics(h, prices[h.Symbol]))
	}
	return enriched, nil
}

func (s *portfolioService) GetPortfolioSummary(ctx context.Context, userID uint) (*dto.PortfolioSummary, error) {
	holdings, err := s.listHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return &dto.PortfolioSummary{}, nil
	}

	summary := SummarizeHoldings(holdings, s.resolvePrices(ctx, holdings))
	return &summary, nil
}

func (s *portfolioService) GetPortfolioAllocation(ctx context.Context, userID uint) ([]dto.AllocationItem, error) {
	holdings, err := s.listHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return []dto.AllocationItem{}, nil
	}

	items := AllocateHoldings(holdings, s.resolvePrices(ctx, holdings))
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Percentage > items[j].Percentage
	})
	return items, nil
}

func (s *portfolioService) GetPortfolioHistory(ctx context.Context, userID uint, historyRange string) ([]dto.PortfolioHistoryPoint, error) {
	holdings, err := s.listHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return []dto.PortfolioHistoryPoint{}, nil
	}

	histories := s.fetchHistories(ctx, distinctSymbols(holdings), historyRange)
	return BuildPortfolioHistory(holdings, histories), nil
}

// BuildPortfolioHistory values the holdings on every date present in any
// series. A holding without a close on a date uses its latest earlier close,
// else its buy price. Holdings bought after a date do not count towards it.
func BuildPortfolioHistory(holdings []model.Holding, histories map[string][]dto.HistoricalPoint) []dto.PortfolioHistoryPoint {
	priceByDate := make(map[string]map[string]float64, len(histories))
	dateSet := make(map[string]struct{})
	for symbol, points := range histories {
		byDate := make(map[string]float64, len(points))
		for _, p := range points {
			key := utils.DateKey(p.Date)
			byDate[key] = p.Close
			dateSet[key] = struct{}{}
		}
		priceByDate[symbol] = byDate
	}
	if len(dateSet) == 0 {
		return []dto.PortfolioHistoryPoint{}
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	lastKnown := make(map[string]float64)
	points := make([]dto.PortfolioHistoryPoint, 0, len(dates))
	for _, date := range dates {
		for symbol, byDate := range priceByDate {
			if price, ok := byDate[date]; ok && price > 0 {
				lastKnown[symbol] = price
			}
		}

		values := make([]holdingValue, 0, len(holdings))
		for _, h := range holdings {
			if utils.DateKey(h.BuyDate) > date {
				continue
			}
			price, ok := lastKnown[h.Symbol]
			if !ok {
				price = h.BuyPrice
			}
			values = append(values, valueHolding(h.Quantity, h.BuyPrice, price))
		}
		if len(values) == 0 {
			continue
		}

		total := values[0].current
		for _, v := range values[1:] {
			total = total.Add(v.current)
		}
		if !total.IsPositive() {
			continue
		}
		points = append(points, dto.PortfolioHistoryPoint{Date: date, Value: round2(total)})
	}
	return points
}

func (s *portfolioService) GetPortfolioPerformance(ctx context.Context, userID uint, historyRange string) ([]dto.PerformanceSeries, error) {
	holdings, err := s.listHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return []dto.PerformanceSeries{}, nil
	}

	prices := s.resolvePrices(ctx, holdings)
	ranked := make([]model.Holding, len(holdings))
	copy(ranked, holdings)
	sort.SliceStable(ranked, func(i, j int) bool {
		vi := valueHolding(ranked[i].Quantity, 0, prices[ranked[i].Symbol]).current
		vj := valueHolding(ranked[j].Quantity, 0, prices[ranked[j].Symbol]).current
		return vi.GreaterThan(vj)
	})

	topN := s.cfg.Portfolio.PerformanceTopN
	if topN <= 0 {
		topN = 5
	}
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	histories := s.fetchHistories(ctx, distinctSymbols(ranked), historyRange)
	series := make([]dto.PerformanceSeries, 0, len(ranked))
	for _, h := range ranked {
		points := histories[h.Symbol]
		if len(points) == 0 || points[0].Close == 0 {
			continue
		}
		base := points[0].Close
		data := make([]dto.PerformancePoint, 0, len(points))
		for _, p := range points {
			data = append(data, dto.PerformancePoint{
				Date:      utils.DateKey(p.Date),
				ReturnPct: ReturnPercent(p.Close, base),
			})
		}
		series = append(series, dto.PerformanceSeries{Symbol: h.Symbol, Data: data})
	}
	return series, nil
}

func (s *portfolioService) ValidateSymbol(ctx context.Context, symbol string) bool {
	return validateSymbol(ctx, s.log, s.yahooRepo, utils.NormalizeSymbol(symbol))
}

func (s *portfolioService) GetHolding(ctx context.Context, userID, id uint) (*model.Holding, error) {
	holding, err := s.holdingRepo.GetByID(ctx, userID, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("Holding")
		}
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return holding, nil
}

// checkSymbol normalizes a symbol and confirms the provider knows it.
func (s *portfolioService) checkSymbol(ctx context.Context, symbol string) (string, error) {
	return resolveSymbol(ctx, s.log, s.yahooRepo, symbol)
}

func (s *portfolioService) parseBuyDate(value string) (time.Time, error) {
	date, err := utils.ParseDate(value)
	if err != nil {
		return time.Time{}, apperror.Validation("Buy date must be in YYYY-MM-DD format")
	}
	if date.After(utils.StartOfDay(s.now())) {
		return time.Time{}, apperror.Validation("Buy date cannot be in the future")
	}
	return date, nil
}

func (s *portfolioService) AddHolding(ctx context.Context, userID uint, req dto.AddHoldingRequest) (*model.Holding, error) {
	buyDate, err := s.parseBuyDate(req.BuyDate)
	if err != nil {
		return nil, err
	}
	symbol, err := s.checkSymbol(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}

	holding := &model.Holding{
		UserID:   userID,
		Symbol:   symbol,
		Quantity: req.Quantity,
		BuyPrice: req.BuyPrice,
		BuyDate:  buyDate,
	}
	if err := s.holdingRepo.Create(ctx, holding); err != nil {
		s.log.ErrorContext(ctx, "Failed to create holding", logger.UintField("user_id", userID), logger.StringField("symbol", symbol), logger.ErrorField(err))
		return nil, fmt.Errorf("failed to create holding: %w", err)
	}

	s.log.InfoContext(ctx, "Holding added", logger.UintField("user_id", userID), logger.UintField("holding_id", holding.ID), logger.StringField("symbol", symbol))
	return holding, nil
}

func (s *portfolioService) UpdateHolding(ctx context.Context, userID, id uint, req dto.UpdateHoldingRequest) (*model.Holding, error) {
	if req.IsEmpty() {
		return nil, apperror.Validation("At least one field must be provided")
	}

	holding, err := s.GetHolding(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Symbol != nil && utils.NormalizeSymbol(*req.Symbol) != holding.Symbol {
		symbol, err := s.checkSymbol(ctx, *req.Symbol)
		if err != nil {
			return nil, err
		}
		holding.Symbol = symbol
	}
	if req.Quantity != nil {
		holding.Quantity = *req.Quantity
	}
	if req.BuyPrice != nil {
		holding.BuyPrice = *req.BuyPrice
	}
	if req.BuyDate != nil {
		buyDate, err := s.parseBuyDate(*req.BuyDate)
		if err != nil {
			return nil, err
		}
		holding.BuyDate = buyDate
	}

	if err := s.holdingRepo.Update(ctx, holding); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("Holding")
		}
		s.log.ErrorContext(ctx, "Failed to update holding", logger.UintField("holding_id", id), logger.ErrorField(err))
		return nil, fmt.Errorf("failed to update holding: %w", err)
	}
	return holding, nil
}

func (s *portfolioService) DeleteHolding(ctx context.Context, userID, id uint) error {
	if err := s.holdingRepo.Delete(ctx, userID, id); err != nil {
		if repository.IsNotFound(err) {
			return apperror.NotFound("Holding")
		}
		s.log.ErrorContext(ctx, "Failed to delete holding", logger.UintField("holding_id", id), logger.ErrorField(err))
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return nil
}

var csvHeader = []string{
	"Symbol", "Quantity", "Buy Price", "Buy Date", "Current Price",
	"Total Investment", "Current Value", "Profit/Loss", "Profit/Loss %",
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s *portfolioService) ExportPortfolioCSV(ctx context.Context, userID uint) ([]byte, error) {
	holdings, err := s.listHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	rows := [][]string{csvHeader}

	if len(holdings) == 0 {
		rows = append(rows, []string{"No holdings found"})
	} else {
		prices := s.resolvePrices(ctx, holdings)
		for _, h := range holdings {
			e := CalculateHoldingMetrics(h, prices[h.Symbol])
			rows = append(rows, []string{
				e.Symbol,
				formatNumber(e.Quantity),
				formatNumber(e.BuyPrice),
				e.BuyDate,
				formatNumber(e.CurrentPrice),
				formatNumber(e.TotalInvestment),
				formatNumber(e.CurrentValue),
				formatNumber(e.ProfitLoss),
				formatNumber(e.ProfitLossPercent) + "%",
			})
		}

		summary := SummarizeHoldings(holdings, prices)
		rows = append(rows,
			[]string{""},
			[]string{
				"TOTAL", strconv.Itoa(summary.TotalHoldings), "", "", "",
				formatNumber(summary.TotalInvestment),
				formatNumber(summary.TotalCurrentValue),
				formatNumber(summary.TotalProfitLoss),
				formatNumber(summary.TotalProfitLossPercent) + "%",
			},
		)
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}
