package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"golang-stock-tracker/pkg/apperror"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/middleware"

	"gopkg.in/telebot.v3"
)

const commandTimeout = 30 * time.Second

func (t *TelegramBotHandler) RegisterHandlers() {
	t.bot.Handle("/start", middleware.WithContext(t.ctx, commandTimeout, t.handleStart))
	t.bot.Handle("/help", middleware.WithContext(t.ctx, commandTimeout, t.handleHelp))
	t.bot.Handle("/chatid", middleware.WithContext(t.ctx, commandTimeout, t.handleChatID))
	t.bot.Handle("/quote", middleware.WithContext(t.ctx, commandTimeout, t.handleQuote))
	t.bot.Handle(telebot.OnText, middleware.WithContext(t.ctx, commandTimeout, t.handleText))
}

func (t *TelegramBotHandler) reply(ctx context.Context, c telebot.Context, text string) error {
	if err := t.telegram.SendMessage(ctx, c.Chat().ID, text); err != nil {
		t.log.WarnContext(ctx, "Failed to reply on telegram", logger.Int64Field("chat_id", c.Chat().ID), logger.ErrorField(err))
		return err
	}
	return nil
}

func (t *TelegramBotHandler) handleStart(ctx context.Context, c telebot.Context) error {
	message := fmt.Sprintf(`👋 <b>Welcome to Stock Tracker alerts!</b>

Your chat id is <code>%d</code>.
Save it on your profile (PUT /api/auth/me/telegram) to receive alert notifications here.

Send /help to see what else I can do.`, c.Chat().ID)
	return t.reply(ctx, c, message)
}

func (t *TelegramBotHandler) handleHelp(ctx context.Context, c telebot.Context) error {
	message := `❓ <b>Commands</b>

/start - Welcome message and your chat id
/chatid - Show your chat id
/quote SYMBOL - Latest quote, e.g. <code>/quote AAPL</code>
/help - Show this message`
	return t.reply(ctx, c, message)
}

func (t *TelegramBotHandler) handleChatID(ctx context.Context, c telebot.Context) error {
	return t.reply(ctx, c, fmt.Sprintf("Your chat id is <code>%d</code>", c.Chat().ID))
}

func (t *TelegramBotHandler) handleQuote(ctx context.Context, c telebot.Context) error {
	args := c.Args()
	if len(args) == 0 {
		return t.reply(ctx, c, "Usage: <code>/quote SYMBOL</code>")
	}

	quote, err := t.service.StockService.GetQuote(ctx, args[0])
	if err != nil {
		if apperror.IsCode(err, apperror.CodeNotFound) {
			return t.reply(ctx, c, fmt.Sprintf("Symbol <b>%s</b> not found", html.EscapeString(strings.ToUpper(args[0]))))
		}
		return t.reply(ctx, c, "Failed to fetch quote, please try again later")
	}

	arrow := "🔺"
	if quote.Change < 0 {
		arrow = "🔻"
	}
	message := fmt.Sprintf("📈 <b>%s</b> %s\n💰 Price: <b>%.2f %s</b>\n%s Change: %.2f (%.2f%%)\n📊 Volume: %d",
		html.EscapeString(quote.Symbol),
		html.EscapeString(quote.Name),
		quote.Price,
		html.EscapeString(quote.Currency),
		arrow,
		quote.Change,
		quote.ChangePercent,
		quote.Volume,
	)
	return t.reply(ctx, c, message)
}

func (t *TelegramBotHandler) handleText(ctx context.Context, c telebot.Context) error {
	if strings.HasPrefix(c.Text(), "/") {
		return t.reply(ctx, c, "Unknown command. Send /help to see the available commands.")
	}
	return nil
}
