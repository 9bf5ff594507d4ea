package middleware

import (
	"strings"

	"golang-stock-tracker/pkg/apperror"
	"golang-stock-tracker/pkg/common"

	"github.com/labstack/echo/v4"
)

// TokenValidator resolves a bearer token to the user it was issued for.
type TokenValidator func(token string) (userID uint, email string, err error)

// UnauthorizedHook observes rejected requests.
type UnauthorizedHook func(c echo.Context, reason string)

// JWTAuth requires an "Authorization: Bearer <token>" header and stores the
// caller's identity on the echo context.
func JWTAuth(validate TokenValidator, onReject UnauthorizedHook) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, found := strings.CutPrefix(header, "Bearer ")
			token = strings.TrimSpace(token)
			if !found || token == "" {
				if onReject != nil {
					onReject(c, "missing bearer token")
				}
				return apperror.New(apperror.CodeUnauthorized, "Access token required")
			}

			userID, email, err := validate(token)
			if err != nil {
				if onReject != nil {
					onReject(c, "invalid bearer token")
				}
				return apperror.Wrap(apperror.CodeInvalidToken, "Invalid or expired token", err)
			}

			c.Set(common.CTX_KEY_USER_ID, userID)
			c.Set(common.CTX_KEY_USER_EMAIL, email)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id set by JWTAuth.
func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(common.CTX_KEY_USER_ID).(uint)
	return id, ok && id != 0
}
