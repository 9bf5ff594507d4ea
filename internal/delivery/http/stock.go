package http

import (
	"net/http"

	"golang-stock-tracker/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupStock(stock *echo.Group) {
	stock.GET("/:symbol", h.getStockQuote)
	stock.GET("/:symbol/history", h.getStockHistory)
	stock.GET("/:symbol/insight", h.getStockInsight)
}

func (h *HttpAPIHandler) getStockQuote(c echo.Context) error {
	quote, err := h.service.StockService.GetQuote(c.Request().Context(), c.Param("symbol"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", quote))
}

func (h *HttpAPIHandler) getStockHistory(c echo.Context) error {
	points, err := h.service.StockService.GetHistory(c.Request().Context(), c.Param("symbol"), historyRange(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", points))
}

func (h *HttpAPIHandler) getStockInsight(c echo.Context) error {
	insight, err := h.service.StockService.GetInsight(c.Request().Context(), c.Param("symbol"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", insight))
}
