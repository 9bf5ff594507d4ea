package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/internal/service"
	"golang-stock-tracker/pkg/apperror"
	"golang-stock-tracker/pkg/logger"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	service.AuthService
	registered []dto.RegisterRequest
}

func (f *fakeAuth) ValidateAccessToken(token string) (*dto.AccessClaims, error) {
	if token != "good-token" {
		return nil, apperror.New(apperror.CodeInvalidToken, "Invalid or expired token")
	}
	return &dto.AccessClaims{UserID: 7, Email: "jane@example.com"}, nil
}

func (f *fakeAuth) Register(_ context.Context, req dto.RegisterRequest, _ dto.ClientInfo) (*dto.UserResponse, error) {
	f.registered = append(f.registered, req)
	return &dto.UserResponse{ID: 1, Email: req.Email}, nil
}

type fakeWatchlist struct {
	service.WatchlistService
	userID uint
}

func (f *fakeWatchlist) List(_ context.Context, userID uint) ([]dto.WatchlistItem, error) {
	f.userID = userID
	return []dto.WatchlistItem{{ID: 1, Symbol: "AAPL", Error: "Failed to fetch current price"}}, nil
}

func (f *fakeWatchlist) Remove(_ context.Context, _, _ uint) error {
	return apperror.New(apperror.CodeNotFound, "Stock not found in watchlist")
}

type fakeAudit struct {
	mu     sync.Mutex
	events []service.AuditEvent
}

func (f *fakeAudit) Log(_ context.Context, event service.AuditEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeAudit) types() []model.AuditEventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.AuditEventType
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeDB struct{ err error }

func (f fakeDB) Ping() error { return f.err }

type apiFixture struct {
	echo      *echo.Echo
	auth      *fakeAuth
	watchlist *fakeWatchlist
	audit     *fakeAudit
}

func testValidator() *goValidator.Validate {
	v := goValidator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

func newAPIFixture(t *testing.T, env string, db HealthChecker) *apiFixture {
	t.Helper()
	cfg := &config.Config{
		App: config.App{Name: "stock-tracker", Env: env},
		API: config.API{
			RateLimit:      config.RateLimit{RequestPerMinute: 600},
			AuthRateLimit:  config.RateLimit{RequestPerMinute: 60, Burst: 2},
			StockRateLimit: config.RateLimit{RequestPerMinute: 600},
		},
	}
	f := &apiFixture{
		echo:      echo.New(),
		auth:      &fakeAuth{},
		watchlist: &fakeWatchlist{},
		audit:     &fakeAudit{},
	}
	svc := &service.Service{
		AuthService:      f.auth,
		AuditService:     f.audit,
		WatchlistService: f.watchlist,
	}
	NewHttpAPIHandler(context.Background(), cfg, logger.NewNop(), f.echo, testValidator(), svc, db).SetupRoutes()
	return f
}

func (f *apiFixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorBody {
	t.Helper()
	var resp struct {
		Error struct {
			Code    string           `json:"code"`
			Message string           `json:"message"`
			Details []dto.FieldError `json:"details"`
			Path    string           `json:"path"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return dto.ErrorBody{Code: resp.Error.Code, Message: resp.Error.Message, Details: resp.Error.Details, Path: resp.Error.Path}
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t, "development", fakeDB{})
	rec := f.do(http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	down := newAPIFixture(t, "development", fakeDB{err: errors.New("connection refused")})
	rec = down.do(http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, rec).Code)
}

func TestProtectedRoutes_RequireBearerToken(t *testing.T) {
	f := newAPIFixture(t, "development", nil)

	rec := f.do(http.MethodGet, "/api/watchlist", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "UNAUTHORIZED", body.Code)
	assert.Equal(t, "Access token required", body.Message)
	assert.Equal(t, "/api/watchlist", body.Path)

	rec = f.do(http.MethodGet, "/api/watchlist", "", "forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", decodeError(t, rec).Code)

	assert.Equal(t, []model.AuditEventType{model.AuditUnauthorizedAccess, model.AuditUnauthorizedAccess}, f.audit.types())
}

func TestWatchlist_ListUsesAuthenticatedUser(t *testing.T) {
	f := newAPIFixture(t, "development", nil)

	rec := f.do(http.MethodGet, "/api/watchlist", "", "good-token")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(7), f.watchlist.userID)

	var resp struct {
		Data []dto.WatchlistItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Failed to fetch current price", resp.Data[0].Error)
}

func TestWatchlist_RemoveErrors(t *testing.T) {
	f := newAPIFixture(t, "development", nil)

	rec := f.do(http.MethodDelete, "/api/watchlist/abc", "", "good-token")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid id", decodeError(t, rec).Message)

	rec = f.do(http.MethodDelete, "/api/watchlist/3", "", "good-token")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Stock not found in watchlist", decodeError(t, rec).Message)
}

func TestRegister_ValidationDetails(t *testing.T) {
	f := newAPIFixture(t, "development", nil)

	rec := f.do(http.MethodPost, "/api/auth/register", `{"email":"not-an-email"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.ElementsMatch(t, []dto.FieldError{
		{Field: "email", Message: "Invalid email format"},
		{Field: "password", Message: "password is required"},
	}, body.Details)
	assert.Empty(t, f.auth.registered)
}

func TestAuthRoutes_RateLimited(t *testing.T) {
	f := newAPIFixture(t, "development", nil)
	payload := `{"email":"jane@example.com","password":"Secret123"}`

	assert.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/api/auth/register", payload, "").Code)
	assert.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/api/auth/register", payload, "").Code)

	rec := f.do(http.MethodPost, "/api/auth/register", payload, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", decodeError(t, rec).Code)
	assert.Contains(t, f.audit.types(), model.AuditRateLimitHit)
}

func TestUnknownRoute(t *testing.T) {
	f := newAPIFixture(t, "development", nil)

	rec := f.do(http.MethodGet, "/api/nothing-here", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/nothing-here", "", "good-token")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func TestErrorHandler_MasksInternalErrorsInProduction(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		t.Run(env, func(t *testing.T) {
			e := echo.New()
			cfg := &config.Config{App: config.App{Env: env}}
			e.HTTPErrorHandler = NewHTTPErrorHandler(cfg, logger.NewNop())
			e.GET("/boom", func(c echo.Context) error {
				return apperror.Internal("pq: relation \"users\" does not exist", errors.New("sql"))
			})

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
			assert.Equal(t, http.StatusInternalServerError, rec.Code)

			body := decodeError(t, rec)
			assert.Equal(t, "INTERNAL_ERROR", body.Code)
			if env == "production" {
				assert.Equal(t, "An unexpected error occurred", body.Message)
			} else {
				assert.Contains(t, body.Message, "relation")
			}
		})
	}
}
