package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"math"
	"sync"
	"time"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/mailer"
	"golang-stock-tracker/pkg/telegram"
	"golang-stock-tracker/pkg/utils"
)

var (
	// ErrQueueFull is returned by Dispatch when the notification queue has no room.
	ErrQueueFull   = errors.New("notification queue is full")
	ErrQueueClosed = errors.New("notification queue is closed")
)

// NotificationSender delivers one notification over one channel.
type NotificationSender interface {
	Name() string
	// Accepts reports whether the notification has an address on this channel.
	Accepts(n dto.AlertNotification) bool
	Send(ctx context.Context, n dto.AlertNotification) error
}

// NotificationService queues alert notifications and delivers them from a
// pool of workers. Delivery failures are logged and never surface to callers.
type NotificationService interface {
	Dispatch(n dto.AlertNotification) error
	Start(ctx context.Context)
	Stop()
}

type notificationService struct {
	cfg     config.Notification
	log     *logger.Logger
	senders []NotificationSender
	queue   chan dto.AlertNotification
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

func NewNotificationService(cfg *config.Config, log *logger.Logger, senders ...NotificationSender) NotificationService {
	queueSize := cfg.Notification.QueueSize
	if queueSize <= 0 {
		queueSize = 1
	}
	return &notificationService{
		cfg:     cfg.Notification,
		log:     log,
		senders: senders,
		queue:   make(chan dto.AlertNotification, queueSize),
	}
}

func (s *notificationService) Dispatch(n dto.AlertNotification) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrQueueClosed
	}

	select {
	case s.queue <- n:
		return nil
	default:
		s.log.Warn("Dropping notification, queue is full",
			logger.UintField("user_id", n.UserID),
			logger.StringField("symbol", n.Symbol),
		)
		return ErrQueueFull
	}
}

func (s *notificationService) Start(ctx context.Context) {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		utils.GoSafe(s.log, func() {
			defer s.wg.Done()
			s.work(ctx)
		})
	}
	s.log.Info("Notification workers started", logger.IntField("workers", workers), logger.IntField("senders", len(s.senders)))
}

func (s *notificationService) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-s.queue:
			if !ok {
				return
			}
			s.deliver(ctx, n)
		}
	}
}

// Stop closes the queue and waits for queued notifications to drain.
func (s *notificationService) Stop() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("Notification workers stopped")
}

func (s *notificationService) deliver(ctx context.Context, n dto.AlertNotification) {
	for _, sender := range s.senders {
		if !sender.Accepts(n) {
			continue
		}
		if err := s.sendWithRetry(ctx, sender, n); err != nil {
			s.log.ErrorContext(ctx, "Failed to deliver notification",
				logger.StringField("channel", sender.Name()),
				logger.UintField("user_id", n.UserID),
				logger.StringField("symbol", n.Symbol),
				logger.ErrorField(err),
			)
		}
	}
}

func (s *notificationService) sendWithRetry(ctx context.Context, sender NotificationSender, n dto.AlertNotification) error {
	attempts := s.cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout())
		err = sender.Send(sendCtx, n)
		cancel()
		if err == nil {
			s.log.DebugContext(ctx, "Notification delivered",
				logger.StringField("channel", sender.Name()),
				logger.StringField("symbol", n.Symbol),
				logger.IntField("attempt", attempt),
			)
			return nil
		}
		if attempt == attempts {
			break
		}

		s.log.WarnContext(ctx, "Notification attempt failed",
			logger.StringField("channel", sender.Name()),
			logger.IntField("attempt", attempt),
			logger.ErrorField(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.RetryBackoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}

func (s *notificationService) sendTimeout() time.Duration {
	if s.cfg.SendTimeout > 0 {
		return s.cfg.SendTimeout
	}
	return 15 * time.Second
}

type emailSender struct {
	mailer mailer.Mailer
	now    func() time.Time
}

func NewEmailSender(m mailer.Mailer) NotificationSender {
	return &emailSender{mailer: m, now: utils.TimeNowUTC}
}

func (e *emailSender) Name() string { return "email" }

func (e *emailSender) Accepts(n dto.AlertNotification) bool {
	return n.Email != ""
}

func (e *emailSender) Send(ctx context.Context, n dto.AlertNotification) error {
	return e.mailer.Send(ctx, n.Email, AlertEmailSubject(n), AlertEmailBody(n, e.now()))
}

// AlertEmailSubject is "Stock Alert: <SYM> rose|fell <abs%>%".
func AlertEmailSubject(n dto.AlertNotification) string {
	direction := "rose"
	if n.Change < 0 {
		direction = "fell"
	}
	return fmt.Sprintf("Stock Alert: %s %s %.2f%%", n.Symbol, direction, math.Abs(n.ChangePercent))
}

func AlertEmailBody(n dto.AlertNotification, at time.Time) string {
	color, arrow := "green", "↑"
	if n.Change < 0 {
		color, arrow = "red", "↓"
	}
	symbol := html.EscapeString(n.Symbol)

	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e0e0e0; border-radius: 8px;">
<h2 style="color: #333;">Stock Alert: %s</h2>
<p style="font-size: 16px;">%s</p>
<div style="background-color: #f9f9f9; padding: 15px; border-radius: 5px; margin: 20px 0;">
<p style="margin: 5px 0; font-size: 18px;">Current Price: <strong>$%.2f</strong></p>
<p style="margin: 5px 0; font-size: 18px; color: %s;">Change: <strong>%s %.2f (%.2f%%)</strong></p>
</div>
<p style="font-style: italic; color: #666;">%s</p>
<p style="font-size: 12px; color: #999; margin-top: 30px;">Time: %s</p>
</div>`,
		symbol,
		html.EscapeString(n.Message),
		n.Price,
		color, arrow, math.Abs(n.Change), math.Abs(n.ChangePercent),
		html.EscapeString(n.Reason),
		at.UTC().Format("2006-01-02 15:04:05 UTC"),
	)
}

// TelegramMessenger is the part of the telegram client used for user notifications.
type TelegramMessenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type telegramSender struct {
	client TelegramMessenger
	now    func() time.Time
}

func NewTelegramSender(client TelegramMessenger) NotificationSender {
	return &telegramSender{client: client, now: utils.TimeNowUTC}
}

func (t *telegramSender) Name() string { return "telegram" }

func (t *telegramSender) Accepts(n dto.AlertNotification) bool {
	return n.TelegramChatID != nil && *n.TelegramChatID != 0
}

func (t *telegramSender) Send(ctx context.Context, n dto.AlertNotification) error {
	return t.client.SendMessage(ctx, *n.TelegramChatID, telegram.FormatPriceAlert(telegram.PriceAlert{
		Symbol:        n.Symbol,
		Message:       n.Message,
		Reason:        n.Reason,
		Priority:      n.Priority,
		Price:         n.Price,
		Change:        n.Change,
		ChangePercent: n.ChangePercent,
		Time:          t.now(),
	}))
}
