package http

import (
	"net/http"

	"golang-stock-tracker/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupAuth(auth *echo.Group) {
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.POST("/refresh", h.refresh)
	auth.POST("/logout", h.logout)
}

func (h *HttpAPIHandler) SetupMe(protected *echo.Group) {
	protected.GET("/auth/me", h.me)
	protected.PUT("/auth/me/telegram", h.updateTelegram)
}

func (h *HttpAPIHandler) register(c echo.Context) error {
	req := new(dto.RegisterRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	user, err := h.service.AuthService.Register(c.Request().Context(), *req, clientInfo(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.NewCreatedResponse("User registered successfully", user))
}

func (h *HttpAPIHandler) login(c echo.Context) error {
	req := new(dto.LoginRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	result, err := h.service.AuthService.Login(c.Request().Context(), *req, clientInfo(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Login successful", result))
}

func (h *HttpAPIHandler) refresh(c echo.Context) error {
	req := new(dto.RefreshRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	result, err := h.service.AuthService.Refresh(c.Request().Context(), req.RefreshToken, clientInfo(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Token refreshed", result))
}

func (h *HttpAPIHandler) logout(c echo.Context) error {
	req := new(dto.RefreshRequest)
	_ = c.Bind(req)

	if err := h.service.AuthService.Logout(c.Request().Context(), req.RefreshToken, clientInfo(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Logged out successfully", nil))
}

func (h *HttpAPIHandler) me(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	user, err := h.service.AuthService.Me(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", user))
}

func (h *HttpAPIHandler) updateTelegram(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	req := new(dto.UpdateTelegramRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	user, err := h.service.AuthService.SetTelegramChat(c.Request().Context(), userID, req.ChatID, clientInfo(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Telegram chat updated", user))
}
