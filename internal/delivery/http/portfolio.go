package http

import (
	"fmt"
	"net/http"
	"time"

	"golang-stock-tracker/internal/dto"
	"golang-stock-tracker/pkg/common"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupPortfolio(protected *echo.Group) {
	portfolio := protected.Group("/portfolio")
	portfolio.GET("", h.getPortfolio)
	portfolio.POST("", h.addHolding)
	portfolio.GET("/summary", h.getPortfolioSummary)
	portfolio.GET("/allocation", h.getPortfolioAllocation)
	portfolio.GET("/history", h.getPortfolioHistory)
	portfolio.GET("/performance", h.getPortfolioPerformance)
	portfolio.GET("/export", h.exportPortfolio)
	portfolio.GET("/:id", h.getHolding)
	portfolio.PUT("/:id", h.updateHolding)
	portfolio.DELETE("/:id", h.deleteHolding)
}

func historyRange(c echo.Context) string {
	r := c.QueryParam("range")
	if !dto.IsValidRange(r) {
		return dto.Range1Month
	}
	return r
}

func (h *HttpAPIHandler) getPortfolio(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	holdings, err := h.service.PortfolioService.GetPortfolio(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", holdings))
}

func (h *HttpAPIHandler) getPortfolioSummary(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	summary, err := h.service.PortfolioService.GetPortfolioSummary(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", summary))
}

func (h *HttpAPIHandler) getPortfolioAllocation(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	allocation, err := h.service.PortfolioService.GetPortfolioAllocation(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", allocation))
}

func (h *HttpAPIHandler) getPortfolioHistory(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	history, err := h.service.PortfolioService.GetPortfolioHistory(c.Request().Context(), userID, historyRange(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", history))
}

func (h *HttpAPIHandler) getPortfolioPerformance(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	performance, err := h.service.PortfolioService.GetPortfolioPerformance(c.Request().Context(), userID, historyRange(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", performance))
}

func (h *HttpAPIHandler) exportPortfolio(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	data, err := h.service.PortfolioService.ExportPortfolioCSV(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("portfolio_%s.csv", time.Now().UTC().Format(common.DATE_LAYOUT))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (h *HttpAPIHandler) getHolding(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	holding, err := h.service.PortfolioService.GetHolding(c.Request().Context(), userID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", holding))
}

func (h *HttpAPIHandler) addHolding(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	req := new(dto.AddHoldingRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	holding, err := h.service.PortfolioService.AddHolding(c.Request().Context(), userID, *req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.NewCreatedResponse("Holding added", holding))
}

func (h *HttpAPIHandler) updateHolding(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	req := new(dto.UpdateHoldingRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	holding, err := h.service.PortfolioService.UpdateHolding(c.Request().Context(), userID, id, *req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Holding updated", holding))
}

func (h *HttpAPIHandler) deleteHolding(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.PortfolioService.DeleteHolding(c.Request().Context(), userID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Holding deleted", nil))
}
