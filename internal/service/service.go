package service

import (
	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/internal/strategy"
	"golang-stock-tracker/pkg/cache"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/mailer"
	"golang-stock-tracker/pkg/telegram"
)

type Service struct {
	AuthService         AuthService
	AuditService        AuditService
	PortfolioService    PortfolioService
	WatchlistService    WatchlistService
	AlertService        AlertService
	StockService        StockService
	NotificationService NotificationService
	SchedulerService    SchedulerService
	TaskExecutor        TaskExecutor
}

// NewService wires every service. telegramClient may be nil when the bot is disabled.
func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	inmemoryCache cache.Cache,
	telegramClient *telegram.TelegramRateLimiter,
) *Service {
	var senders []NotificationSender
	if cfg.Email.Enabled {
		senders = append(senders, NewEmailSender(mailer.NewSMTPMailer(cfg.Email)))
	}
	if telegramClient != nil {
		senders = append(senders, NewTelegramSender(telegramClient))
	}
	notificationService := NewNotificationService(cfg, log, senders...)

	priceCache := NewPriceCache(cfg, log, inmemoryCache, repo.YahooFinanceRepo)
	auditService := NewAuditService(log, repo.AuditLogRepo)

	alertRulesStrategy := strategy.NewAlertRulesStrategy(cfg, log, repo.AlertRuleRepo, repo.AlertRecordRepo, repo.YahooFinanceRepo, priceCache, notificationService)
	watchlistAlertsStrategy := strategy.NewWatchlistAlertsStrategy(cfg, log, repo.WatchlistRepo, repo.AlertRecordRepo, repo.YahooFinanceRepo, priceCache, notificationService)
	dataCleanUpStrategy := strategy.NewDataCleanUpStrategy(cfg, log, repo.LoginAttemptRepo, repo.RefreshTokenRepo, repo.AuditLogRepo, repo.JobRepo)

	taskExecutor := NewTaskExecutor(cfg, log, repo.JobRepo, alertRulesStrategy, watchlistAlertsStrategy, dataCleanUpStrategy)
	schedulerService := NewSchedulerService(cfg, log, repo.JobRepo, taskExecutor)

	return &Service{
		AuthService:         NewAuthService(cfg, log, repo.UserRepo, repo.LoginAttemptRepo, repo.RefreshTokenRepo, repo.UnitOfWork, auditService),
		AuditService:        auditService,
		PortfolioService:    NewPortfolioService(cfg, log, repo.HoldingRepo, repo.YahooFinanceRepo, priceCache),
		WatchlistService:    NewWatchlistService(cfg, log, repo.WatchlistRepo, repo.YahooFinanceRepo),
		AlertService:        NewAlertService(log, repo.AlertRecordRepo, repo.AlertRuleRepo, repo.YahooFinanceRepo),
		StockService:        NewStockService(cfg, log, repo.YahooFinanceRepo, repo.GeminiAIRepo, inmemoryCache),
		NotificationService: notificationService,
		SchedulerService:    schedulerService,
		TaskExecutor:        taskExecutor,
	}
}
