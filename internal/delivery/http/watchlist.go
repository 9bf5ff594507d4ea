package http

import (
	"net/http"

	"golang-stock-tracker/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupWatchlist(protected *echo.Group) {
	watchlist := protected.Group("/watchlist")
	watchlist.GET("", h.listWatchlist)
	watchlist.POST("", h.addToWatchlist)
	watchlist.DELETE("/:id", h.removeFromWatchlist)
}

func (h *HttpAPIHandler) listWatchlist(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	items, err := h.service.WatchlistService.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", items))
}

func (h *HttpAPIHandler) addToWatchlist(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	req := new(dto.AddWatchlistRequest)
	if err := h.bindAndValidate(c, req); err != nil {
		return err
	}

	entry, err := h.service.WatchlistService.Add(c.Request().Context(), userID, req.Symbol)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.NewCreatedResponse("Stock added to watchlist", entry))
}

func (h *HttpAPIHandler) removeFromWatchlist(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.WatchlistService.Remove(c.Request().Context(), userID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Stock removed from watchlist", nil))
}
