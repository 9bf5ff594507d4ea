package http

import (
	"net/http"

	"golang-stock-tracker/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupAlerts(protected *echo.Group) {
	alerts := protected.Group("/alerts")
	alerts.GET("", h.listAlerts)
	alerts.POST("", h.createAlert)
	alerts.DELETE("/history/clear", h.clearAlertHistory)
	alerts.DELETE("/:id", h.deleteAlert)

	rules := alerts.Group("/rules")
	rules.GET("", h.listAlertRules)
	rules.POST("", h.createAlertRule)
	rules.PUT("/:id", h.updateAlertRule)
	rules.DELETE("/:id", h.deleteAlertRule)
}

func (h *HttpAPIHandler) listAlerts(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	param := new(dto.ListAlertsParam)
	if err := h.bindAndValidate(c, param); err != nil {
		return err
	}

	page, err := h.service.AlertService.ListAlerts(c.Request().Context(), userID, *param)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", page))
}

func (h *HttpAPIHandler) createAlert(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	req := new(dto.CreateAlertRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	record, err := h.service.AlertService.CreateManualAlert(c.Request().Context(), userID, *req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.NewCreatedResponse("Alert created", record))
}

func (h *HttpAPIHandler) deleteAlert(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.AlertService.DeleteAlert(c.Request().Context(), userID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Alert deleted", nil))
}

func (h *HttpAPIHandler) clearAlertHistory(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	deleted, err := h.service.AlertService.ClearHistory(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Alert history cleared", dto.ClearAlertsResponse{Deleted: deleted}))
}

func (h *HttpAPIHandler) listAlertRules(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	rules, err := h.service.AlertService.ListRules(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", rules))
}

func (h *HttpAPIHandler) createAlertRule(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	req := new(dto.CreateAlertRuleRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	rule, err := h.service.AlertService.CreateRule(c.Request().Context(), userID, *req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.NewCreatedResponse("Alert rule created", rule))
}

func (h *HttpAPIHandler) updateAlertRule(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	req := new(dto.UpdateAlertRuleRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	rule, err := h.service.AlertService.UpdateRule(c.Request().Context(), userID, id, *req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Alert rule updated", rule))
}

func (h *HttpAPIHandler) deleteAlertRule(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.AlertService.DeleteRule(c.Request().Context(), userID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Alert rule deleted", nil))
}
