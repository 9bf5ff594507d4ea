package middleware

import (
	"time"

	"golang-stock-tracker/config"
	"golang-stock-tracker/pkg/apperror"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// DenyHook observes rejected requests, e.g. to write a security audit entry.
type DenyHook func(c echo.Context, identifier string)

// NewRateLimiterMiddleware limits requests per client IP using a token bucket
// refilled at cfg.RequestPerMinute.
func NewRateLimiterMiddleware(cfg config.RateLimit, onDeny DenyHook) echo.MiddlewareFunc {
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RequestPerMinute
	}
	expiresIn := cfg.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3 * time.Minute
	}

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(float64(cfg.RequestPerMinute) / 60),
				Burst:     burst,
				ExpiresIn: expiresIn,
			},
		),

		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},

		ErrorHandler: func(c echo.Context, err error) error {
			return apperror.Wrap(apperror.CodeRateLimitExceeded, "Unable to identify client for rate limiting", err)
		},

		DenyHandler: func(c echo.Context, identifier string, err error) error {
			if onDeny != nil {
				onDeny(c, identifier)
			}
			return apperror.New(apperror.CodeRateLimitExceeded, "Too many requests, please try again later")
		},
	}

	return middleware.RateLimiterWithConfig(limiterConfig)
}
