// Package mocks holds testify mocks of the repository interfaces.
// Variadic DB options are not part of the recorded call arguments.
package mocks

import (
	"context"
	"time"

	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/pkg/utils"

	"github.com/stretchr/testify/mock"
)

type UserRepository struct{ mock.Mock }

func (m *UserRepository) GetByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string, opts ...utils.DBOption) (*model.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *UserRepository) Create(ctx context.Context, user *model.User, opts ...utils.DBOption) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) UpdateTelegramChatID(ctx context.Context, userID uint, chatID *int64, opts ...utils.DBOption) error {
	return m.Called(ctx, userID, chatID).Error(0)
}

type HoldingRepository struct{ mock.Mock }

func (m *HoldingRepository) ListByUser(ctx context.Context, userID uint, opts ...utils.DBOption) ([]model.Holding, error) {
	args := m.Called(ctx, userID)
	holdings, _ := args.Get(0).([]model.Holding)
	return holdings, args.Error(1)
}

func (m *HoldingRepository) GetByID(ctx context.Context, userID, id uint, opts ...utils.DBOption) (*model.Holding, error) {
	args := m.Called(ctx, userID, id)
	holding, _ := args.Get(0).(*model.Holding)
	return holding, args.Error(1)
}

func (m *HoldingRepository) Create(ctx context.Context, holding *model.Holding, opts ...utils.DBOption) error {
	return m.Called(ctx, holding).Error(0)
}

func (m *HoldingRepository) Update(ctx context.Context, holding *model.Holding, opts ...utils.DBOption) error {
	return m.Called(ctx, holding).Error(0)
}

func (m *HoldingRepository) Delete(ctx context.Context, userID, id uint, opts ...utils.DBOption) error {
	return m.Called(ctx, userID, id).Error(0)
}

type WatchlistRepository struct{ mock.Mock }

func (m *WatchlistRepository) ListByUser(ctx context.Context, userID uint, opts ...utils.DBOption) ([]model.WatchlistEntry, error) {
	args := m.Called(ctx, userID)
	entries, _ := args.Get(0).([]model.WatchlistEntry)
	return entries, args.Error(1)
}

func (m *WatchlistRepository) ListAll(ctx context.Context, opts ...utils.DBOption) ([]model.WatchlistEntry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]model.WatchlistEntry)
	return entries, args.Error(1)
}

func (m *WatchlistRepository) Create(ctx context.Context, entry *model.WatchlistEntry, opts ...utils.DBOption) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *WatchlistRepository) Delete(ctx context.Context, userID, id uint, opts ...utils.DBOption) error {
	return m.Called(ctx, userID, id).Error(0)
}

type AlertRuleRepository struct{ mock.Mock }

func (m *AlertRuleRepository) Get(ctx context.Context, param dto.GetAlertRulesParam, opts ...utils.DBOption) ([]model.AlertRule, error) {
	args := m.Called(ctx, param)
	rules, _ := args.Get(0).([]model.AlertRule)
	return rules, args.Error(1)
}

func (m *AlertRuleRepository) GetByID(ctx context.Context, userID, id uint, opts ...utils.DBOption) (*model.AlertRule, error) {
	args := m.Called(ctx, userID, id)
	rule, _ := args.Get(0).(*model.AlertRule)
	return rule, args.Error(1)
}

func (m *AlertRuleRepository) Create(ctx context.Context, rule *model.AlertRule, opts ...utils.DBOption) error {
	return m.Called(ctx, rule).Error(0)
}

func (m *AlertRuleRepository) Update(ctx context.Context, rule *model.AlertRule, opts ...utils.DBOption) error {
	return m.Called(ctx, rule).Error(0)
}

func (m *AlertRuleRepository) UpdateLastTriggered(ctx context.Context, id uint, triggeredAt time.Time, opts ...utils.DBOption) error {
	return m.Called(ctx, id, triggeredAt).Error(0)
}

func (m *AlertRuleRepository) Delete(ctx context.Context, userID, id uint, opts ...utils.DBOption) error {
	return m.Called(ctx, userID, id).Error(0)
}

type AlertRecordRepository struct{ mock.Mock }

func (m *AlertRecordRepository) Create(ctx context.Context, record *model.AlertRecord, opts ...utils.DBOption) error {
	return m.Called(ctx, record).Error(0)
}

func (m *AlertRecordRepository) List(ctx context.Context, param dto.GetAlertRecordsParam, opts ...utils.DBOption) ([]model.AlertRecord, int64, error) {
	args := m.Called(ctx, param)
	records, _ := args.Get(0).([]model.AlertRecord)
	total, _ := args.Get(1).(int64)
	return records, total, args.Error(2)
}

func (m *AlertRecordRepository) Delete(ctx context.Context, userID, id uint, opts ...utils.DBOption) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *AlertRecordRepository) DeleteAllByUser(ctx context.Context, userID uint, opts ...utils.DBOption) (int64, error) {
	args := m.Called(ctx, userID)
	deleted, _ := args.Get(0).(int64)
	return deleted, args.Error(1)
}

type LoginAttemptRepository struct{ mock.Mock }

func (m *LoginAttemptRepository) Create(ctx context.Context, attempt *model.LoginAttempt, opts ...utils.DBOption) error {
	return m.Called(ctx, attempt).Error(0)
}

func (m *LoginAttemptRepository) Count(ctx context.Context, param dto.GetLoginAttemptsParam, opts ...utils.DBOption) (int64, error) {
	args := m.Called(ctx, param)
	count, _ := args.Get(0).(int64)
	return count, args.Error(1)
}

func (m *LoginAttemptRepository) DeleteFailed(ctx context.Context, email string, opts ...utils.DBOption) error {
	return m.Called(ctx, email).Error(0)
}

func (m *LoginAttemptRepository) DeleteOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error) {
	args := m.Called(ctx, date)
	deleted, _ := args.Get(0).(int64)
	return deleted, args.Error(1)
}

type RefreshTokenRepository struct{ mock.Mock }

func (m *RefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken, opts ...utils.DBOption) error {
	return m.Called(ctx, token).Error(0)
}

func (m *RefreshTokenRepository) GetActiveByHash(ctx context.Context, tokenHash string, now time.Time, opts ...utils.DBOption) (*model.RefreshToken, error) {
	args := m.Called(ctx, tokenHash, now)
	token, _ := args.Get(0).(*model.RefreshToken)
	return token, args.Error(1)
}

func (m *RefreshTokenRepository) RevokeByHash(ctx context.Context, tokenHash string, opts ...utils.DBOption) error {
	return m.Called(ctx, tokenHash).Error(0)
}

func (m *RefreshTokenRepository) DeleteExpiredOrRevoked(ctx context.Context, now time.Time, opts ...utils.DBOption) (int64, error) {
	args := m.Called(ctx, now)
	deleted, _ := args.Get(0).(int64)
	return deleted, args.Error(1)
}

type AuditLogRepository struct{ mock.Mock }

func (m *AuditLogRepository) Create(ctx context.Context, entry *model.SecurityAuditLog, opts ...utils.DBOption) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *AuditLogRepository) DeleteOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error) {
	args := m.Called(ctx, date)
	deleted, _ := args.Get(0).(int64)
	return deleted, args.Error(1)
}

type JobRepository struct{ mock.Mock }

func (m *JobRepository) CreateJobRun(ctx context.Context, run *model.JobRun, opts ...utils.DBOption) error {
	return m.Called(ctx, run).Error(0)
}

func (m *JobRepository) UpdateJobRun(ctx context.Context, run *model.JobRun, opts ...utils.DBOption) error {
	return m.Called(ctx, run).Error(0)
}

func (m *JobRepository) GetJobRuns(ctx context.Context, param dto.GetJobRunsParam, opts ...utils.DBOption) ([]model.JobRun, error) {
	args := m.Called(ctx, param)
	runs, _ := args.Get(0).([]model.JobRun)
	return runs, args.Error(1)
}

func (m *JobRepository) DeleteJobRunsOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error) {
	args := m.Called(ctx, date)
	deleted, _ := args.Get(0).(int64)
	return deleted, args.Error(1)
}

type YahooFinanceRepository struct{ mock.Mock }

func (m *YahooFinanceRepository) GetQuote(ctx context.Context, symbol string) (*dto.Quote, error) {
	args := m.Called(ctx, symbol)
	quote, _ := args.Get(0).(*dto.Quote)
	return quote, args.Error(1)
}

func (m *YahooFinanceRepository) GetHistory(ctx context.Context, symbol, historyRange string) ([]dto.HistoricalPoint, error) {
	args := m.Called(ctx, symbol, historyRange)
	points, _ := args.Get(0).([]dto.HistoricalPoint)
	return points, args.Error(1)
}

type AIRepository struct{ mock.Mock }

func (m *AIRepository) StockInsight(ctx context.Context, param dto.AIInsightParam) (*dto.StockInsight, error) {
	args := m.Called(ctx, param)
	insight, _ := args.Get(0).(*dto.StockInsight)
	return insight, args.Error(1)
}

// UnitOfWork runs fn directly, without a transaction.
type UnitOfWork struct{}

func (UnitOfWork) Run(fn func(opts ...utils.DBOption) error) error {
	return fn()
}
