package repository

import (
	"context"

	"golang-stock-tracker/config"
	"golang-stock-tracker/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	UserRepo         UserRepository
	HoldingRepo      HoldingRepository
	WatchlistRepo    WatchlistRepository
	AlertRuleRepo    AlertRuleRepository
	AlertRecordRepo  AlertRecordRepository
	LoginAttemptRepo LoginAttemptRepository
	RefreshTokenRepo RefreshTokenRepository
	AuditLogRepo     AuditLogRepository
	JobRepo          JobRepository
	YahooFinanceRepo YahooFinanceRepository
	// GeminiAIRepo is nil when no Gemini API key is configured.
	GeminiAIRepo AIRepository
	UnitOfWork   UnitOfWork
}

func NewRepository(ctx context.Context, cfg *config.Config, db *gorm.DB, log *logger.Logger) (*Repository, error) {
	geminiAIRepo, err := NewGeminiAIRepository(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return &Repository{
		UserRepo:         NewUserRepository(db),
		HoldingRepo:      NewHoldingRepository(db),
		WatchlistRepo:    NewWatchlistRepository(db),
		AlertRuleRepo:    NewAlertRuleRepository(db),
		AlertRecordRepo:  NewAlertRecordRepository(db),
		LoginAttemptRepo: NewLoginAttemptRepository(db),
		RefreshTokenRepo: NewRefreshTokenRepository(db),
		AuditLogRepo:     NewAuditLogRepository(db),
		JobRepo:          NewJobRepository(db),
		YahooFinanceRepo: NewYahooFinanceRepository(cfg, log),
		GeminiAIRepo:     geminiAIRepo,
		UnitOfWork:       NewUnitOfWork(db),
	}, nil
}
