package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAnalyticsStats handles GET /analytics/stats.
func (h *Handler) GetAnalyticsStats(c *gin.Context) {
	stats, err := h.engine.CurrentStats(c.Request.Context())
	if err != nil {
		h.analyticsError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetAnalyticsMonthly handles GET /analytics/monthly.
func (h *Handler) GetAnalyticsMonthly(c *gin.Context) {
	entries, err := h.engine.MonthlyHours(c.Request.Context())
	if err != nil {
		h.analyticsError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetAnalyticsHourly handles GET /analytics/hourly.
func (h *Handler) GetAnalyticsHourly(c *gin.Context) {
	points, err := h.engine.HourlyOccupancy(c.Request.Context())
	if err != nil {
		h.analyticsError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

// GetAnalyticsWeekly handles GET /analytics/weekly.
func (h *Handler) GetAnalyticsWeekly(c *gin.Context) {
	heatmap, err := h.engine.WeeklyHeatmap(c.Request.Context())
	if err != nil {
		h.analyticsError(c, err)
		return
	}
	c.JSON(http.StatusOK, heatmap)
}

// GetAnalyticsBestTimes handles GET /analytics/best-times.
func (h *Handler) GetAnalyticsBestTimes(c *gin.Context) {
	report, err := h.engine.BestTimes(c.Request.Context())
	if err != nil {
		h.analyticsError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// analyticsError surfaces any store failure as a single endpoint-level
// error. Partial results are never merged with fallbacks.
func (h *Handler) analyticsError(c *gin.Context, err error) {
	log.Printf("Analytics computation failed: %v", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "analytics computation failed"})
}
