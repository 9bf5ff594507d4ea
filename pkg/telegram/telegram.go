package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang-stock-tracker/config"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/ratelimit"
	"golang-stock-tracker/pkg/utils"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// Messenger is the part of *telebot.Bot used for outbound messages.
type Messenger interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// NewBot creates a telebot client. Updates are long polled only when
// cfg.Polling is set; otherwise the bot is used for sending alone.
func NewBot(cfg *config.TelegramConfig, log *logger.Logger) (*telebot.Bot, error) {
	settings := telebot.Settings{
		Token:  cfg.BotToken,
		Client: &http.Client{Timeout: cfg.TimeoutDuration + 10*time.Second},
		OnError: func(err error, c telebot.Context) {
			log.Error("Telegram bot error", logger.ErrorField(err))
		},
	}
	if cfg.Polling {
		settings.Poller = &telebot.LongPoller{Timeout: cfg.TimeoutDuration}
	}
	bot, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return bot, nil
}

// TelegramRateLimiter sends HTML messages while respecting the global and
// per-chat limits of the Bot API.
type TelegramRateLimiter struct {
	cfg           *config.TelegramConfig
	log           *logger.Logger
	bot           Messenger
	globalLimiter *rate.Limiter
	chatLimiters  *ratelimit.LimiterStore
	wg            sync.WaitGroup
}

func NewTelegramRateLimiter(cfg *config.TelegramConfig, log *logger.Logger, bot Messenger) *TelegramRateLimiter {
	return &TelegramRateLimiter{
		cfg:           cfg,
		log:           log,
		bot:           bot,
		globalLimiter: rate.NewLimiter(rate.Limit(cfg.MaxGlobalRequestPerSecond), cfg.MaxGlobalRequestPerSecond),
		chatLimiters:  ratelimit.NewLimiterStore(rate.Limit(cfg.MaxUserRequestPerSecond), cfg.MaxUserRequestPerSecond),
	}
}

// SendMessage delivers an HTML formatted message to a chat.
func (t *TelegramRateLimiter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := t.checkRateLimit(ctx, chatID); err != nil {
		return err
	}
	if _, err := t.bot.Send(telebot.ChatID(chatID), text, telebot.ModeHTML, telebot.NoPreview); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// SendOpsAlert delivers text to the operator chat. It is a no-op when no
// operator chat is configured.
func (t *TelegramRateLimiter) SendOpsAlert(ctx context.Context, text string) error {
	if t.cfg.OpsChatID == 0 {
		return nil
	}
	return t.SendMessage(ctx, t.cfg.OpsChatID, text)
}

func (t *TelegramRateLimiter) checkRateLimit(ctx context.Context, chatID int64) error {
	chatLimiter := t.chatLimiters.GetLimiter(strconv.FormatInt(chatID, 10))

	if err := t.globalLimiter.Wait(ctx); err != nil {
		t.log.ErrorContext(ctx, "Failed to wait for global rate limit", logger.ErrorField(err))
		return err
	}
	if err := chatLimiter.Wait(ctx); err != nil {
		t.log.ErrorContext(ctx, "Failed to wait for chat rate limit", logger.ErrorField(err))
		return err
	}
	return nil
}

// StartCleanupExpired periodically drops idle per-chat limiters until ctx is done.
func (t *TelegramRateLimiter) StartCleanupExpired(ctx context.Context) {
	t.wg.Add(1)
	utils.GoSafe(t.log, func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.cfg.RateLimitCleanupDuration)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				t.log.Info("Received signal to stop Telegram rate limiter cleanup expired")
				return
			case <-ticker.C:
				if evicted := t.chatLimiters.Evict(t.cfg.RatelimitExpireDuration); evicted > 0 {
					t.log.Debug("Evicted idle telegram chat limiters", logger.IntField("count", evicted))
				}
			}
		}
	})
}

func (t *TelegramRateLimiter) StopCleanupExpired() {
	t.wg.Wait()
	t.log.Info("Telegram rate limiter stopped")
}
