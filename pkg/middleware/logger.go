package middleware

import (
	"net/http"

	"golang-stock-tracker/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// RequestContext attaches a request scoped logger carrying the request id,
// so service logs can be correlated with the access log.
func RequestContext(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = c.Request().Header.Get(echo.HeaderXRequestID)
			}
			reqLog := log.With(logger.StringField("request_id", requestID))
			ctx := logger.NewContext(c.Request().Context(), reqLog)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequestLogger writes one access log line per request.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				logger.StringField("method", v.Method),
				logger.StringField("uri", v.URI),
				logger.IntField("status", v.Status),
				logger.DurationField("latency", v.Latency),
				logger.StringField("remote_ip", v.RemoteIP),
				logger.StringField("request_id", v.RequestID),
			}
			switch {
			case v.Status >= http.StatusInternalServerError:
				if v.Error != nil {
					fields = append(fields, logger.ErrorField(v.Error))
				}
				log.Error("Request failed", fields...)
			case v.Status >= http.StatusBadRequest:
				log.Warn("Request rejected", fields...)
			default:
				log.Info("Request handled", fields...)
			}
			return nil
		},
	})
}
