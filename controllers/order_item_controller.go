package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/slotted-need/slotted-need-api/config"
	"github.com/slotted-need/slotted-need-api/models"
	"github.com/slotted-need/slotted-need-api/services"
	"gorm.io/gorm"
)

// itemPreloads loads the item graph needed for tracker rows
func itemPreloads(db *gorm.DB) *gorm.DB {
	return db.Preload("Order.Client").
		Preload("Product").
		Preload("OptionValues").
		Preload("ProductFinish").
		Preload("ComponentFinishes.Component").
		Preload("ComponentFinishes.FinishOption")
}

// ListOrderItems handles GET /api/v1/order-items - lists line items for the
// item tracker. Filters: id, order_id, client_name, product, price_min,
// price_max, item_status, priority_level, payment_status.
func ListOrderItems(c *gin.Context) {
	db := config.GetDB()
	query := itemPreloads(db).
		Select("order_items.*").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("LEFT JOIN clients ON clients.id = orders.client_id")

	if id := c.Query("id"); id != "" {
		query = query.Where("order_items.id = ?", id)
	}
	if orderID := c.Query("order_id"); orderID != "" {
		query = query.Where("order_items.order_id = ?", orderID)
	}
	if clientName := c.Query("client_name"); clientName != "" {
		query = query.Where("clients.client_name LIKE ?", "%"+clientName+"%")
	}
	if product := c.Query("product"); product != "" {
		query = query.Where("products.name LIKE ?", "%"+product+"%")
	}
	if priceMin := c.Query("price_min"); priceMin != "" {
		value, err := strconv.ParseFloat(priceMin, 64)
		if err != nil {
			respondInvalidFilter(c, "price_min")
			return
		}
		query = query.Where("order_items.item_value >= ?", value)
	}
	if priceMax := c.Query("price_max"); priceMax != "" {
		value, err := strconv.ParseFloat(priceMax, 64)
		if err != nil {
			respondInvalidFilter(c, "price_max")
			return
		}
		query = query.Where("order_items.item_value <= ?", value)
	}
	if itemStatus := c.Query("item_status"); itemStatus != "" {
		code, err := strconv.Atoi(itemStatus)
		if err != nil || !models.Status(code).Valid() {
			respondInvalidFilter(c, "item_status")
			return
		}
		query = query.Where("order_items.item_status = ?", code)
	}
	if priority := c.Query("priority_level"); priority != "" {
		code, err := strconv.Atoi(priority)
		if err != nil || !models.Priority(code).Valid() {
			respondInvalidFilter(c, "priority_level")
			return
		}
		query = query.Where("order_items.priority_level = ?", code)
	}
	if paymentStatus := c.Query("payment_status"); paymentStatus != "" {
		code, err := strconv.Atoi(paymentStatus)
		if err != nil || !models.Paid(code).Valid() {
			respondInvalidFilter(c, "payment_status")
			return
		}
		query = query.Where("orders.paid = ?", code)
	}

	var items []models.OrderItem
	if err := query.Order("order_items.id ASC").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch order items",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
	})
}

// UpdateOrderItemRequest represents the request body for an item update;
// omitted fields are left unchanged
type UpdateOrderItemRequest struct {
	ItemStatus    *models.Status   `json:"item_status"`
	PriorityLevel *models.Priority `json:"priority_level"`
	BasePrice     *float64         `json:"base_price" binding:"omitempty,gte=0"`
	Discount      *float64         `json:"discount" binding:"omitempty,gte=0"`
}

// UpdateOrderItem handles PATCH /api/v1/order-items/:id - updates an item's
// status, priority or pricing; derived fields and the parent order are
// recomputed before the call returns
func UpdateOrderItem(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Invalid order item ID",
			},
		})
		return
	}

	var req UpdateOrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB()
	update := services.OrderItemUpdate{
		ItemStatus:    req.ItemStatus,
		PriorityLevel: req.PriorityLevel,
		BasePrice:     req.BasePrice,
		Discount:      req.Discount,
	}
	if _, err := services.NewOrderService(db).UpdateOrderItem(c.Request.Context(), uint(itemID), update); err != nil {
		respondServiceError(c, err)
		return
	}

	// Reload with the full graph to return complete data
	var item models.OrderItem
	if err := itemPreloads(db).First(&item, itemID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load order item details",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}

// DeleteOrderItem handles DELETE /api/v1/order-items/:id - removes a line
// item and recomputes the parent order's aggregates and status
func DeleteOrderItem(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Invalid order item ID",
			},
		})
		return
	}

	db := config.GetDB()
	if err := services.NewOrderService(db).DeleteOrderItem(c.Request.Context(), uint(itemID)); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order item deleted",
	})
}

// respondInvalidFilter rejects a non-numeric or out-of-range filter value
func respondInvalidFilter(c *gin.Context, name string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid " + name + " filter value",
		},
	})
}
