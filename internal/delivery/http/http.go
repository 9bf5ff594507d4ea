package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/internal/model"
	"golang-stock-tracker/internal/service"
	"golang-stock-tracker/pkg/apperror"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/middleware"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Ping() error
}

type HttpAPIHandler struct {
	ctx       context.Context
	cfg       *config.Config
	log       *logger.Logger
	echo      *echo.Echo
	validator *goValidator.Validate
	service   *service.Service
	db        HealthChecker
}

func NewHttpAPIHandler(ctx context.Context, cfg *config.Config, log *logger.Logger, echo *echo.Echo, validator *goValidator.Validate, service *service.Service, db HealthChecker) *HttpAPIHandler {
	return &HttpAPIHandler{
		ctx:       ctx,
		cfg:       cfg,
		log:       log,
		echo:      echo,
		validator: validator,
		service:   service,
		db:        db,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	h.echo.HideBanner = true
	h.echo.HTTPErrorHandler = NewHTTPErrorHandler(h.cfg, h.log)

	h.echo.Use(echoMiddleware.Recover())
	h.echo.Use(echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	h.echo.Use(middleware.RequestContext(h.log))
	h.echo.Use(middleware.RequestLogger(h.log))
	h.echo.Use(echoMiddleware.SecureWithConfig(echoMiddleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	h.echo.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins:     h.cfg.API.CORSOrigins,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	h.echo.Use(echoMiddleware.BodyLimit("1M"))

	base := h.echo.Group("/api")
	base.GET("/health", h.health)

	auth := base.Group("/auth", middleware.NewRateLimiterMiddleware(h.cfg.API.AuthRateLimit, h.auditRateLimit))
	h.SetupAuth(auth)

	protected := base.Group("",
		middleware.NewRateLimiterMiddleware(h.cfg.API.RateLimit, h.auditRateLimit),
		middleware.JWTAuth(h.validateToken, h.auditUnauthorized),
	)
	h.SetupMe(protected)
	h.SetupWatchlist(protected)
	h.SetupPortfolio(protected)
	h.SetupAlerts(protected)
	h.SetupStock(protected.Group("/stock", middleware.NewRateLimiterMiddleware(h.cfg.API.StockRateLimit, h.auditRateLimit)))
	h.SetupJobs(protected)
}

func (h *HttpAPIHandler) health(c echo.Context) error {
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			return apperror.Wrap(apperror.CodeServiceUnavailable, "Database unavailable", err)
		}
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	}))
}

func (h *HttpAPIHandler) validateToken(token string) (uint, string, error) {
	claims, err := h.service.AuthService.ValidateAccessToken(token)
	if err != nil {
		return 0, "", err
	}
	return claims.UserID, claims.Email, nil
}

func (h *HttpAPIHandler) auditRateLimit(c echo.Context, identifier string) {
	h.service.AuditService.Log(c.Request().Context(), service.AuditEvent{
		Type:    model.AuditRateLimitHit,
		Client:  clientInfo(c),
		Message: "Rate limit exceeded for " + identifier,
	})
}

func (h *HttpAPIHandler) auditUnauthorized(c echo.Context, reason string) {
	h.service.AuditService.Log(c.Request().Context(), service.AuditEvent{
		Type:    model.AuditUnauthorizedAccess,
		Client:  clientInfo(c),
		Message: reason,
	})
}

func clientInfo(c echo.Context) dto.ClientInfo {
	return dto.ClientInfo{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		Path:      c.Request().URL.Path,
	}
}

// bindAndValidate decodes the request into req and runs its validate tags.
func (h *HttpAPIHandler) bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperror.Wrap(apperror.CodeValidation, "Invalid request body", err)
	}
	return h.validator.Struct(req)
}

func currentUserID(c echo.Context) (uint, error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		return 0, apperror.New(apperror.CodeUnauthorized, "Access token required")
	}
	return userID, nil
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Newf(apperror.CodeValidation, "Invalid %s", name)
	}
	return uint(id), nil
}
