package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slotted-need/slotted-need-api/config"
	"github.com/slotted-need/slotted-need-api/services"
)

// ProductRevenueData handles GET /api/v1/analytics/product-revenue - chart
// data of total revenue per product. Query parameters: revenue_min,
// revenue_max (numeric) and date_from, date_to (YYYY-MM-DD).
func ProductRevenueData(c *gin.Context) {
	var filter services.RevenueFilter

	if raw := c.Query("revenue_min"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Invalid revenue_min or revenue_max. Must be numeric.",
				},
			})
			return
		}
		filter.RevenueMin = &value
	}
	if raw := c.Query("revenue_max"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Invalid revenue_min or revenue_max. Must be numeric.",
				},
			})
			return
		}
		filter.RevenueMax = &value
	}
	if raw := c.Query("date_from"); raw != "" {
		value, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Invalid date_from or date_to. Expected format: YYYY-MM-DD.",
				},
			})
			return
		}
		filter.DateFrom = &value
	}
	if raw := c.Query("date_to"); raw != "" {
		value, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Invalid date_from or date_to. Expected format: YYYY-MM-DD.",
				},
			})
			return
		}
		filter.DateTo = &value
	}

	data, err := services.NewAnalyticsService(config.GetDB()).ProductRevenue(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to aggregate product revenue",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// DebtorBalancesData handles GET /api/v1/analytics/debtor-balances - chart
// data of outstanding balances per client
func DebtorBalancesData(c *gin.Context) {
	data, err := services.NewAnalyticsService(config.GetDB()).DebtorBalances(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to aggregate debtor balances",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// ItemStatusData handles GET /api/v1/analytics/item-status - item counts
// per status, excluding archived orders
func ItemStatusData(c *gin.Context) {
	data, err := services.NewAnalyticsService(config.GetDB()).ItemStatusCounts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to aggregate item statuses",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// ItemStatusConfigData handles GET /api/v1/analytics/item-status-config -
// counts of open items grouped by their exact configuration
func ItemStatusConfigData(c *gin.Context) {
	data, err := services.NewAnalyticsService(config.GetDB()).ConfigurationCounts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to aggregate item configurations",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}
