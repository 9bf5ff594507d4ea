package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/ratelimit"
	"golang-stock-tracker/pkg/utils"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

type AIRepository interface {
	StockInsight(ctx context.Context, param dto.AIInsightParam) (*dto.StockInsight, error)
}

// geminiAIRepository generates stock insights with the Google Gemini API.
type geminiAIRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiAIRepository returns nil, nil when no API key is configured.
func NewGeminiAIRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (AIRepository, error) {
	if cfg.Gemini.APIKey == "" {
		log.Info("Gemini API key not set, stock insight disabled")
		return nil, nil
	}

	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	genAiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiAIRepository{
		cfg:            cfg,
		logger:         log,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		tokenLimiter:   ratelimit.NewTokenLimiter(cfg.Gemini.MaxTokenPerMinute),
		genAiClient:    genAiClient,
	}, nil
}

func (r *geminiAIRepository) StockInsight(ctx context.Context, param dto.AIInsightParam) (*dto.StockInsight, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Gemini.Timeout)
	defer cancel()

	prompt, err := promptStockInsight(param)
	if err != nil {
		return nil, fmt.Errorf("failed to build insight prompt: %w", err)
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, "user")}
	tokenResp, err := r.genAiClient.Models.CountTokens(ctx, r.cfg.Gemini.BaseModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count tokens: %w", err)
	}
	if err := r.tokenLimiter.Wait(ctx, int(tokenResp.TotalTokens)); err != nil {
		return nil, fmt.Errorf("failed to wait for gemini token limit: %w", err)
	}
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for gemini request limit: %w", err)
	}

	r.logger.DebugContext(ctx, "Requesting stock insight",
		logger.StringField("symbol", param.Quote.Symbol),
		logger.IntField("prompt_tokens", int(tokenResp.TotalTokens)),
		logger.IntField("remaining_tokens", r.tokenLimiter.GetRemaining()),
	)

	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.BaseModel, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      utils.ToPointer[float32](0.2),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	var out dto.AIInsightResponse
	if err := parseInsight(resp.Text(), &out); err != nil {
		return nil, fmt.Errorf("failed to parse response from gemini: %w", err)
	}

	return &dto.StockInsight{
		Symbol:      param.Quote.Symbol,
		Summary:     out.Summary,
		Sentiment:   strings.ToUpper(out.Sentiment),
		KeyPoints:   out.KeyPoints,
		Price:       param.Quote.Price,
		GeneratedAt: utils.TimeNowUTC(),
	}, nil
}

func parseInsight(text string, dest *dto.AIInsightResponse) error {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	if text == "" {
		return fmt.Errorf("empty response")
	}
	return json.Unmarshal([]byte(strings.TrimSpace(text)), dest)
}

func promptStockInsight(param dto.AIInsightParam) (string, error) {
	data, err := json.Marshal(param)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a concise equity analyst. Summarise the recent price action of %s for a retail investor.\n\n", param.Quote.Symbol)
	sb.WriteString(`Rules:
- Use only the data provided below, do not invent news or fundamentals.
- "summary" is at most 3 sentences.
- "sentiment" is one of BULLISH, BEARISH, NEUTRAL.
- "key_points" has 2 to 5 short bullet strings, each under 120 characters.
- This is not financial advice; do not recommend buying or selling.

Reply with JSON only, in this shape:
{"summary": "...", "sentiment": "NEUTRAL", "key_points": ["..."]}

Data:
`)
	sb.Write(data)
	return sb.String(), nil
}
