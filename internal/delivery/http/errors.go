package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang-stock-tracker/config"
	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/pkg/apperror"
	"golang-stock-tracker/pkg/logger"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const internalErrorMessage = "An unexpected error occurred"

var codeByStatus = map[int]apperror.Code{
	http.StatusBadRequest:            apperror.CodeValidation,
	http.StatusUnauthorized:          apperror.CodeUnauthorized,
	http.StatusNotFound:              apperror.CodeNotFound,
	http.StatusConflict:              apperror.CodeConflict,
	http.StatusRequestEntityTooLarge: apperror.CodeValidation,
	http.StatusTooManyRequests:       apperror.CodeRateLimitExceeded,
	http.StatusServiceUnavailable:    apperror.CodeServiceUnavailable,
}

// NewHTTPErrorHandler renders every error as {"error": {...}}. In production
// internal error messages and details are withheld.
func NewHTTPErrorHandler(cfg *config.Config, log *logger.Logger) echo.HTTPErrorHandler {
	production := cfg.App.IsProduction()

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := toErrorBody(err)
		body.Timestamp = time.Now().UTC()
		body.Path = c.Request().URL.Path

		if status >= http.StatusInternalServerError {
			log.ErrorContext(c.Request().Context(), "Request error",
				logger.StringField("path", body.Path),
				logger.StringField("method", c.Request().Method),
				logger.IntField("status", status),
				logger.ErrorField(err),
			)
			if production && status == http.StatusInternalServerError {
				body.Message = internalErrorMessage
				body.Details = nil
			}
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, dto.ErrorResponse{Error: body})
		}
		if writeErr != nil {
			log.ErrorContext(c.Request().Context(), "Failed to write error response", logger.ErrorField(writeErr))
		}
	}
}

func toErrorBody(err error) (int, dto.ErrorBody) {
	var validationErrs goValidator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusBadRequest, dto.ErrorBody{
			Code:    string(apperror.CodeValidation),
			Message: "Validation failed",
			Details: fieldErrors(validationErrs),
		}
	}

	if appErr, ok := apperror.As(err); ok {
		return appErr.Status(), dto.ErrorBody{
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code, ok := codeByStatus[httpErr.Code]
		if !ok {
			code = apperror.CodeInternal
		}
		return httpErr.Code, dto.ErrorBody{
			Code:    string(code),
			Message: fmt.Sprint(httpErr.Message),
		}
	}

	return http.StatusInternalServerError, dto.ErrorBody{
		Code:    string(apperror.CodeInternal),
		Message: err.Error(),
	}
}

func fieldErrors(errs goValidator.ValidationErrors) []dto.FieldError {
	out := make([]dto.FieldError, 0, len(errs))
	for _, fe := range errs {
		out = append(out, dto.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func fieldMessage(fe goValidator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Invalid email format"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be in YYYY-MM-DD format", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
