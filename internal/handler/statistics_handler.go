package handler

import (
	"net/http"

	"erp/internal/middleware"
	"erp/internal/service"
	"erp/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	revenueService    service.RevenueService
}

func NewStatisticsHandler(statisticsService service.StatisticsService, revenueService service.RevenueService) *StatisticsHandler {
	return &StatisticsHandler{
		statisticsService: statisticsService,
		revenueService:    revenueService,
	}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	stats := router.Group("/api/statistics")
	stats.Use(middleware.RequirePermission(middleware.PermFinanceRead))
	{
		stats.GET("", h.GetStatistics)
		stats.GET("/revenue", h.GetRevenueStatistics)
	}
}

// GetStatistics returns the dashboard summary for a period
// @Summary      Get dashboard statistics
// @Description  Revenue, collections, GST, purchases, expenses, profit, top stocks and low-stock alerts
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Param        date_range   query     string  false  "today, yesterday, this_week, last_week, this_month, last_month, this_year, custom (default: all)"
// @Param        custom_date  query     string  false  "YYYY-MM-DD when date_range=custom"
// @Success      200          {object}  response.Response{data=service.StatisticsResponse}
// @Failure      400          {object}  response.Response
// @Router       /api/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	stats, err := h.statisticsService.GetStatistics(c.Request.Context(), service.StatisticsQuery{
		DateRange:  c.Query("date_range"),
		CustomDate: c.Query("custom_date"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// GetRevenueStatistics returns revenue data grouped by period
// @Summary      Get revenue statistics
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Param        group_by     query     string  false  "week, month, quarter, year (default: month)"
// @Param        date_range   query     string  false  "today, this_week, this_month, this_year, custom, ..."
// @Param        custom_date  query     string  false  "YYYY-MM-DD when date_range=custom"
// @Success      200          {object}  response.Response{data=[]service.RevenueDataPoint}
// @Failure      400          {object}  response.Response
// @Router       /api/statistics/revenue [get]
func (h *StatisticsHandler) GetRevenueStatistics(c *gin.Context) {
	data, err := h.revenueService.GetRevenueStatistics(c.Request.Context(), service.RevenueFilter{
		GroupBy:    c.Query("group_by"),
		DateRange:  c.Query("date_range"),
		CustomDate: c.Query("custom_date"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, data))
}
