package telegram

import (
	"context"
	"time"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/service"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/telegram"

	"gopkg.in/telebot.v3"
)

// TelegramBotHandler answers bot commands so users can discover their chat id
// and look up quotes from Telegram.
type TelegramBotHandler struct {
	ctx      context.Context
	cfg      *config.Config
	bot      *telebot.Bot
	log      *logger.Logger
	telegram *telegram.TelegramRateLimiter
	service  *service.Service
}

func NewTelegramBotHandler(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
	bot *telebot.Bot,
	telegram *telegram.TelegramRateLimiter,
	service *service.Service) *TelegramBotHandler {
	return &TelegramBotHandler{
		ctx:      ctx,
		cfg:      cfg,
		log:      log,
		bot:      bot,
		telegram: telegram,
		service:  service,
	}
}

// Start registers the command handlers and begins long polling. It blocks
// until Stop is called.
func (t *TelegramBotHandler) Start() {
	t.log.Info("Starting Telegram bot...")
	t.RegisterHandlers()
	t.bot.Start()
}

func (t *TelegramBotHandler) Stop() {
	t.log.Info("Stopping Telegram bot...")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(t.ctx), 10*time.Second)
	defer cancel()

	stopDone := make(chan struct{})
	go func() {
		t.bot.Stop()
		close(stopDone)
	}()

	select {
	case <-stopDone:
		t.log.Info("Telegram bot stopped successfully")
	case <-ctx.Done():
		t.log.Warn("Timeout while stopping bot, forcing shutdown")
	}
}
