package http

import (
	"net/http"
	"strconv"

	"golang-stock-tracker/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupJobs(protected *echo.Group) {
	v1 := protected.Group("/v1/jobs")
	{
		v1.GET("/runs", h.listJobRuns)
		v1.POST("/:name/run", h.runJob)
	}
}

func (h *HttpAPIHandler) runJob(c echo.Context) error {
	name := c.Param("name")
	if err := h.service.SchedulerService.RunJob(c.Request().Context(), name); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, dto.NewBaseResponse(http.StatusAccepted, "Job started", map[string]string{"job": name}))
}

func (h *HttpAPIHandler) listJobRuns(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	runs, err := h.service.SchedulerService.GetJobRuns(c.Request().Context(), c.QueryParam("job"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", runs))
}
