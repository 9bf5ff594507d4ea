package dto

// AIInsightParam is the market context handed to the insight prompt.
type AIInsightParam struct {
	Quote  Quote             `json:"quote"`
	Closes []HistoricalPoint `json:"closes"`
}

// AIInsightResponse is the JSON shape the model is asked to return.
type AIInsightResponse struct {
	Summary   string   `json:"summary"`
	Sentiment string   `json:"sentiment"`
	KeyPoints []string `json:"key_points"`
}
