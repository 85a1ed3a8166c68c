package handler

import (
	"net/http"
	"time"

	"sosach/internal/middleware"
	"sosach/internal/model"
	"sosach/internal/service"
	"sosach/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	auth              gin.HandlerFunc
}

func NewStatisticsHandler(statisticsService service.StatisticsService, auth gin.HandlerFunc) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService, auth: auth}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports", h.auth, middleware.RequireRole(model.RoleAdmin, model.RoleCommander))
	{
		reports.GET("/statistics", h.GetStatistics)
	}
}

// GetStatistics aggregates activity in a date range, defaulting to the last 30 days
// @Summary      Activity statistics
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "YYYY-MM-DD"
// @Param        end_date    query     string  false  "YYYY-MM-DD"
// @Success      200         {object}  response.Response{data=service.StatisticsResponse}
// @Router       /api/reports/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -30)

	if v := c.Query("start_date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD"))
			return
		}
		startDate = parsed
	}
	if v := c.Query("end_date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid end_date, expected YYYY-MM-DD"))
			return
		}
		// include the whole end day
		endDate = parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	stats, err := h.statisticsService.GetStatistics(c.Request.Context(), startDate, endDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
