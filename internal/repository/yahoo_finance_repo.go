package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/pkg/httpclient"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"

	"golang.org/x/time/rate"
)

// ErrSymbolNotFound is returned when the provider does not know the symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

type YahooFinanceRepository interface {
	GetQuote(ctx context.Context, symbol string) (*dto.Quote, error)
	// GetHistory degrades provider failures to an empty series; only a
	// cancelled context is reported as an error.
	GetHistory(ctx context.Context, symbol, historyRange string) ([]dto.HistoricalPoint, error)
}

type yahooFinanceRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	now            func() time.Time
}

var yahooHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "en-US,en;q=0.9",
	"Referer":         "https://finance.yahoo.com/",
}

// NewYahooFinanceRepository creates a new instance of yahooFinanceRepository.
func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) YahooFinanceRepository {
	client := httpclient.New(log, cfg.YahooFinance.BaseURL, cfg.YahooFinance.Timeout, "",
		httpclient.WithRetry(cfg.YahooFinance.RetryCount, 300*time.Millisecond))
	return newYahooFinanceRepository(cfg, log, client)
}

func newYahooFinanceRepository(cfg *config.Config, log *logger.Logger, client httpclient.HTTPClient) *yahooFinanceRepository {
	perRequest := time.Minute / time.Duration(cfg.YahooFinance.MaxRequestPerMinute)
	return &yahooFinanceRepository{
		httpClient:     client,
		cfg:            cfg,
		logger:         log,
		requestLimiter: rate.NewLimiter(rate.Every(perRequest), cfg.YahooFinance.MaxRequestPerMinute/10+1),
		now:            utils.TimeNowUTC,
	}
}

func (r *yahooFinanceRepository) wait(ctx context.Context) error {
	if r.requestLimiter.Tokens() < 1 {
		r.logger.WarnContext(ctx, "Yahoo Finance request budget exhausted, waiting",
			logger.IntField("max_request_per_minute", r.cfg.YahooFinance.MaxRequestPerMinute),
		)
	}
	return r.requestLimiter.Wait(ctx)
}

func (r *yahooFinanceRepository) fetchChart(ctx context.Context, symbol string, queryParams map[string]string) (*dto.YahooChartResult, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}

	var yahooResp dto.YahooChartResponse
	endpoint := "/v8/finance/chart/" + symbol
	resp, err := r.httpClient.Get(ctx, endpoint, queryParams, yahooHeaders, &yahooResp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data from yahoo finance: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		r.logger.WarnContext(ctx, "Yahoo Finance API returned non-OK status",
			logger.StringField("symbol", symbol),
			logger.IntField("status_code", resp.StatusCode),
		)
		return nil, fmt.Errorf("yahoo finance api returned status: %d", resp.StatusCode)
	}

	if yahooResp.Chart.Error != nil {
		if strings.EqualFold(yahooResp.Chart.Error.Code, "Not Found") {
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
		}
		return nil, fmt.Errorf("yahoo finance api error: %s: %s", yahooResp.Chart.Error.Code, yahooResp.Chart.Error.Description)
	}
	if len(yahooResp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	return &yahooResp.Chart.Result[0], nil
}

type dailyBar struct {
	ts     time.Time
	close  *float64
	volume *int64
}

func bars(result *dto.YahooChartResult) []dailyBar {
	var out []dailyBar
	var closes []*float64
	var volumes []*int64
	if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
		volumes = result.Indicators.Quote[0].Volume
	}
	for i, ts := range result.Timestamp {
		bar := dailyBar{ts: time.Unix(ts, 0).UTC()}
		if i < len(closes) {
			bar.close = closes[i]
		}
		if i < len(volumes) {
			bar.volume = volumes[i]
		}
		out = append(out, bar)
	}
	return out
}

func averageVolume(volumes []int64) int64 {
	if len(volumes) == 0 {
		return 0
	}
	var sum int64
	for _, v := range volumes {
		sum += v
	}
	return sum / int64(len(volumes))
}

// GetQuote derives a quote from three months of daily bars plus the chart meta block.
func (r *yahooFinanceRepository) GetQuote(ctx context.Context, symbol string) (*dto.Quote, error) {
	symbol = utils.NormalizeSymbol(symbol)
	result, err := r.fetchChart(ctx, symbol, map[string]string{
		"range":          dto.Range3Month,
		"interval":       dto.Interval1Day,
		"includePrePost": "false",
	})
	if err != nil {
		return nil, err
	}

	meta := result.Meta
	marketDay := utils.DateKey(r.now())
	if meta.RegularMarketTime > 0 {
		marketDay = utils.DateKey(time.Unix(meta.RegularMarketTime, 0))
	}

	var (
		lastClose     *float64
		previousClose float64
		volumes       []int64
		todayVolume   int64
	)
	for _, bar := range bars(result) {
		sameDay := utils.DateKey(bar.ts) == marketDay
		if bar.close != nil {
			if !sameDay {
				previousClose = *bar.close
			}
			lastClose = bar.close
		}
		if bar.volume != nil {
			if sameDay {
				todayVolume = *bar.volume
			} else {
				volumes = append(volumes, *bar.volume)
			}
		}
	}

	quote := &dto.Quote{
		Symbol:              symbol,
		Name:                meta.LongName,
		Currency:            meta.Currency,
		Exchange:            meta.ExchangeName,
		DayHigh:             meta.RegularMarketDayHigh,
		DayLow:              meta.RegularMarketDayLow,
		Volume:              meta.RegularMarketVolume,
		AverageVolume3Month: averageVolume(volumes),
		FiftyTwoWeekHigh:    meta.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:     meta.FiftyTwoWeekLow,
	}
	if quote.Name == "" {
		quote.Name = meta.ShortName
	}
	if len(volumes) > 10 {
		quote.AverageVolume10Day = averageVolume(volumes[len(volumes)-10:])
	} else {
		quote.AverageVolume10Day = averageVolume(volumes)
	}
	if quote.Volume == 0 {
		quote.Volume = todayVolume
	}

	switch {
	case meta.RegularMarketPrice != nil:
		quote.Price = *meta.RegularMarketPrice
		quote.HasPrice = true
	case lastClose != nil:
		quote.Price = *lastClose
		quote.HasPrice = true
	}

	if previousClose == 0 {
		previousClose = meta.PreviousClose
	}
	if previousClose == 0 {
		previousClose = meta.ChartPreviousClose
	}
	quote.PreviousClose = previousClose
	if previousClose > 0 && quote.HasPrice {
		quote.Change = quote.Price - previousClose
		quote.ChangePercent = quote.Change / previousClose * 100
	}

	return quote, nil
}

// HistoryWindow maps a named range to its start time and bar interval.
func HistoryWindow(historyRange string, now time.Time) (time.Time, string) {
	now = now.UTC()
	switch historyRange {
	case dto.Range1Day:
		return now.AddDate(0, 0, -1), dto.Interval5Min
	case dto.Range5Day:
		return now.AddDate(0, 0, -5), dto.Interval15Min
	case dto.Range1Month:
		return now.AddDate(0, -1, 0), dto.Interval1Day
	case dto.Range3Month:
		return now.AddDate(0, -3, 0), dto.Interval1Day
	case dto.RangeYTD:
		return utils.StartOfYear(now), dto.Interval1Day
	case dto.Range1Year:
		return now.AddDate(-1, 0, 0), dto.Interval1Day
	case dto.RangeMax:
		return time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC), dto.Interval1Mo
	default:
		return now.AddDate(0, -1, 0), dto.Interval1Day
	}
}

func (r *yahooFinanceRepository) fetchHistory(ctx context.Context, param dto.GetHistoryParam) ([]dto.HistoricalPoint, error) {
	result, err := r.fetchChart(ctx, param.Symbol, map[string]string{
		"period1":        strconv.FormatInt(param.Period1.Unix(), 10),
		"period2":        strconv.FormatInt(param.Period2.Unix(), 10),
		"interval":       param.Interval,
		"includePrePost": "false",
	})
	if err != nil {
		return nil, err
	}

	points := make([]dto.HistoricalPoint, 0, len(result.Timestamp))
	for _, bar := range bars(result) {
		if bar.close == nil {
			continue
		}
		points = append(points, dto.HistoricalPoint{Date: bar.ts, Close: *bar.close})
	}
	return points, nil
}

func (r *yahooFinanceRepository) GetHistory(ctx context.Context, symbol, historyRange string) ([]dto.HistoricalPoint, error) {
	now := r.now()
	period1, interval := HistoryWindow(historyRange, now)
	param := dto.GetHistoryParam{
		Symbol:   utils.NormalizeSymbol(symbol),
		Range:    historyRange,
		Interval: interval,
		Period1:  period1,
		Period2:  now,
	}

	points, err := r.fetchHistory(ctx, param)
	if (err != nil || len(points) == 0) && interval != dto.Interval1Day && ctx.Err() == nil {
		r.logger.DebugContext(ctx, "Retrying history with daily interval",
			logger.StringField("symbol", param.Symbol),
			logger.StringField("range", historyRange),
			logger.StringField("interval", interval),
		)
		param.Interval = dto.Interval1Day
		points, err = r.fetchHistory(ctx, param)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.WarnContext(ctx, "Failed to fetch history, returning empty series",
			logger.StringField("symbol", param.Symbol),
			logger.StringField("range", historyRange),
			logger.ErrorField(err),
		)
		return []dto.HistoricalPoint{}, nil
	}
	return points, nil
}
