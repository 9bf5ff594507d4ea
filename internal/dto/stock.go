package dto

import "time"

// Quote is a point-in-time market snapshot for one symbol.
type Quote struct {
	Symbol              string  `json:"symbol"`
	Name                string  `json:"name,omitempty"`
	Currency            string  `json:"currency,omitempty"`
	Exchange            string  `json:"exchange,omitempty"`
	Price               float64 `json:"price"`
	PreviousClose       float64 `json:"previous_close"`
	DayHigh             float64 `json:"day_high"`
	DayLow              float64 `json:"day_low"`
	Change              float64 `json:"change"`
	ChangePercent       float64 `json:"change_percent"`
	Volume              int64   `json:"volume"`
	AverageVolume10Day  int64   `json:"average_volume_10_day"`
	AverageVolume3Month int64   `json:"average_volume_3_month"`
	FiftyTwoWeekHigh    float64 `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekLow     float64 `json:"fifty_two_week_low,omitempty"`
	HasPrice            bool    `json:"-"`
}

type HistoricalPoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

type GetHistoryParam struct {
	Symbol   string
	Range    string
	Interval string
	Period1  time.Time
	Period2  time.Time
}

// YahooChartResponse is the subset of /v8/finance/chart used here.
// Null values in indicator series decode to nil pointers.
type YahooChartResponse struct {
	Chart struct {
		Result []YahooChartResult `json:"result"`
		Error  *YahooChartError   `json:"error"`
	} `json:"chart"`
}

type YahooChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type YahooChartResult struct {
	Meta struct {
		Symbol               string   `json:"symbol"`
		Currency             string   `json:"currency"`
		ExchangeName         string   `json:"exchangeName"`
		LongName             string   `json:"longName"`
		ShortName            string   `json:"shortName"`
		RegularMarketPrice   *float64 `json:"regularMarketPrice"`
		RegularMarketTime    int64    `json:"regularMarketTime"`
		ChartPreviousClose   float64  `json:"chartPreviousClose"`
		PreviousClose        float64  `json:"previousClose"`
		RegularMarketDayHigh float64  `json:"regularMarketDayHigh"`
		RegularMarketDayLow  float64  `json:"regularMarketDayLow"`
		RegularMarketVolume  int64    `json:"regularMarketVolume"`
		FiftyTwoWeekHigh     float64  `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow      float64  `json:"fiftyTwoWeekLow"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// StockInsight is a short AI-generated note on a symbol.
type StockInsight struct {
	Symbol      string    `json:"symbol"`
	Summary     string    `json:"summary"`
	Sentiment   string    `json:"sentiment"`
	KeyPoints   []string  `json:"key_points"`
	Price       float64   `json:"price"`
	GeneratedAt time.Time `json:"generated_at"`
}
