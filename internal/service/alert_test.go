package service

import (
	"context"
	"testing"

	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/internal/repository/mocks"
	"golang-stock-tracker/pkg/apperror"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type alertFixture struct {
	service         AlertService
	alertRecordRepo *mocks.AlertRecordRepository
	alertRuleRepo   *mocks.AlertRuleRepository
	yahooRepo       *mocks.YahooFinanceRepository
}

func newAlertFixture() alertFixture {
	f := alertFixture{
		alertRecordRepo: &mocks.AlertRecordRepository{},
		alertRuleRepo:   &mocks.AlertRuleRepository{},
		yahooRepo:       &mocks.YahooFinanceRepository{},
	}
	f.service = NewAlertService(logger.NewNop(), f.alertRecordRepo, f.alertRuleRepo, f.yahooRepo)
	return f
}

func TestClampAlertLimit(t *testing.T) {
	assert.Equal(t, 50, ClampAlertLimit(0))
	assert.Equal(t, 50, ClampAlertLimit(-3))
	assert.Equal(t, 10, ClampAlertLimit(10))
	assert.Equal(t, 200, ClampAlertLimit(200))
	assert.Equal(t, 200, ClampAlertLimit(1000))
}

func TestAlertService_ListAlerts(t *testing.T) {
	f := newAlertFixture()
	f.alertRecordRepo.On("List", mock.Anything, dto.GetAlertRecordsParam{UserID: 7, Symbol: "AAPL", Limit: 200, Offset: 0}).
		Return(nil, int64(0), nil)

	page, err := f.service.ListAlerts(context.Background(), 7, dto.ListAlertsParam{Limit: 500, Offset: -1, Symbol: "aapl"})
	require.NoError(t, err)
	assert.Equal(t, 200, page.Limit)
	assert.Equal(t, 0, page.Offset)
	assert.Equal(t, []model.AlertRecord{}, page.Items)
}

func TestAlertService_CreateManualAlert(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		f := newAlertFixture()
		f.alertRecordRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		record, err := f.service.CreateManualAlert(context.Background(), 7, dto.CreateAlertRequest{Symbol: "msft", Message: " Earnings call "})
		require.NoError(t, err)
		assert.Equal(t, "MSFT", record.Symbol)
		assert.Equal(t, "Earnings call", record.Message)
		assert.Equal(t, model.AlertTypeManual, record.AlertType)
		assert.Equal(t, model.PriorityMedium, record.Priority)
	})

	t.Run("missing message", func(t *testing.T) {
		f := newAlertFixture()
		_, err := f.service.CreateManualAlert(context.Background(), 7, dto.CreateAlertRequest{Symbol: "MSFT", Message: "  "})
		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, "Symbol and message are required", appErr.Message)
	})
}

func TestAlertService_DeleteAlert_NotFound(t *testing.T) {
	f := newAlertFixture()
	f.alertRecordRepo.On("Delete", mock.Anything, uint(7), uint(3)).Return(gorm.ErrRecordNotFound)

	err := f.service.DeleteAlert(context.Background(), 7, 3)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
	assert.Equal(t, "Alert not found", appErr.Message)
}

func TestAlertService_ClearHistory(t *testing.T) {
	f := newAlertFixture()
	f.alertRecordRepo.On("DeleteAllByUser", mock.Anything, uint(7)).Return(int64(12), nil)

	deleted, err := f.service.ClearHistory(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(12), deleted)
}

func TestAlertService_CreateRule_Validation(t *testing.T) {
	valid := dto.CreateAlertRuleRequest{Symbol: "AAPL", TemplateType: "TARGET_PRICE", ConditionOperator: "ABOVE", ConditionValue: 200}

	tests := []struct {
		name    string
		mutate  func(r *dto.CreateAlertRuleRequest)
		message string
	}{
		{
			name:    "template",
			mutate:  func(r *dto.CreateAlertRuleRequest) { r.TemplateType = "RSI" },
			message: "Template type must be one of PERCENTAGE_CHANGE, TARGET_PRICE, VOLUME_SPIKE",
		},
		{
			name:    "operator",
			mutate:  func(r *dto.CreateAlertRuleRequest) { r.ConditionOperator = "EQUAL" },
			message: "Condition operator must be ABOVE or BELOW",
		},
		{
			name:    "value",
			mutate:  func(r *dto.CreateAlertRuleRequest) { r.ConditionValue = 0 },
			message: "Condition value must be greater than 0",
		},
		{
			name:    "priority",
			mutate:  func(r *dto.CreateAlertRuleRequest) { r.Priority = "URGENT" },
			message: "Priority must be one of LOW, MEDIUM, HIGH, CRITICAL",
		},
		{
			name:    "symbol format",
			mutate:  func(r *dto.CreateAlertRuleRequest) { r.Symbol = "NOT A SYMBOL" },
			message: "Invalid stock symbol: NOT A SYMBOL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAlertFixture()
			req := valid
			tt.mutate(&req)

			_, err := f.service.CreateRule(context.Background(), 7, req)
			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.message, appErr.Message)
			f.alertRuleRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestAlertService_CreateRule(t *testing.T) {
	f := newAlertFixture()
	f.yahooRepo.On("GetQuote", mock.Anything, "AAPL").Return(&dto.Quote{Symbol: "AAPL", Price: 190, HasPrice: true}, nil)
	f.alertRuleRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	rule, err := f.service.CreateRule(context.Background(), 7, dto.CreateAlertRuleRequest{
		Symbol: "aapl", TemplateType: "percentage_change", ConditionOperator: "below", ConditionValue: 5, IsActive: utils.ToPointer(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", rule.Symbol)
	assert.Equal(t, model.RuleTemplatePercentageChange, rule.TemplateType)
	assert.Equal(t, model.OperatorBelow, rule.ConditionOperator)
	assert.Equal(t, model.PriorityMedium, rule.Priority)
	assert.False(t, rule.IsActive)
}

func TestAlertService_UpdateRule(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		f := newAlertFixture()
		_, err := f.service.UpdateRule(context.Background(), 7, 1, dto.UpdateAlertRuleRequest{})
		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, "At least one field must be provided", appErr.Message)
	})

	t.Run("not found", func(t *testing.T) {
		f := newAlertFixture()
		f.alertRuleRepo.On("GetByID", mock.Anything, uint(7), uint(1)).Return(nil, gorm.ErrRecordNotFound)

		_, err := f.service.UpdateRule(context.Background(), 7, 1, dto.UpdateAlertRuleRequest{IsActive: utils.ToPointer(false)})
		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, "Alert rule not found", appErr.Message)
	})

	t.Run("partial", func(t *testing.T) {
		f := newAlertFixture()
		f.alertRuleRepo.On("GetByID", mock.Anything, uint(7), uint(1)).Return(&model.AlertRule{
			ID: 1, UserID: 7, Symbol: "AAPL", TemplateType: model.RuleTemplateTargetPrice,
			ConditionOperator: model.OperatorAbove, ConditionValue: 200, Priority: model.PriorityMedium, IsActive: true,
		}, nil)
		f.alertRuleRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

		rule, err := f.service.UpdateRule(context.Background(), 7, 1, dto.UpdateAlertRuleRequest{
			ConditionValue: utils.ToPointer(250.0),
			Priority:       utils.ToPointer("HIGH"),
		})
		require.NoError(t, err)
		assert.Equal(t, 250.0, rule.ConditionValue)
		assert.Equal(t, model.PriorityHigh, rule.Priority)
		assert.Equal(t, model.RuleTemplateTargetPrice, rule.TemplateType)
		f.yahooRepo.AssertNotCalled(t, "GetQuote", mock.Anything, mock.Anything)
	})
}

func TestAlertService_DeleteRule_NotFound(t *testing.T) {
	f := newAlertFixture()
	f.alertRuleRepo.On("Delete", mock.Anything, uint(7), uint(1)).Return(gorm.ErrRecordNotFound)

	err := f.service.DeleteRule(context.Background(), 7, 1)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}
