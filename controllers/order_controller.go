package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/slotted-need/slotted-need-api/config"
	"github.com/slotted-need/slotted-need-api/models"
	"github.com/slotted-need/slotted-need-api/services"
	"gorm.io/gorm"
)

// NewClientRequest carries the details of a client created with an order
type NewClientRequest struct {
	ClientName  string `json:"client_name" binding:"required"`
	ClientPhone string `json:"client_phone"`
	ClientEmail string `json:"client_email" binding:"required,email"`
}

// ComponentFinishRequest selects a finish for one component of an item
type ComponentFinishRequest struct {
	ComponentID    uint `json:"component_id" binding:"required"`
	FinishOptionID uint `json:"finish_option_id" binding:"required"`
}

// OrderItemRequest represents one line item in an order submission
type OrderItemRequest struct {
	ProductID         uint                     `json:"product_id" binding:"required"`
	BasePrice         float64                  `json:"base_price" binding:"gte=0"`
	Discount          *float64                 `json:"discount" binding:"omitempty,gte=0"`
	OptionValueIDs    []uint                   `json:"option_value_ids"`
	ProductFinishID   *uint                    `json:"product_finish_id"`
	ComponentFinishes []ComponentFinishRequest `json:"component_finishes" binding:"omitempty,dive"`
	PriorityLevel     models.Priority          `json:"priority_level"`
}

// CreateOrderRequest represents the request body for submitting an order
type CreateOrderRequest struct {
	ClientID  *uint              `json:"client_id"`
	NewClient *NewClientRequest  `json:"new_client"`
	Deposit   float64            `json:"deposit" binding:"gte=0"`
	Items     []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// orderPreloads loads the full order graph for API responses
func orderPreloads(db *gorm.DB) *gorm.DB {
	return db.Preload("Client").
		Preload("Items.Product").
		Preload("Items.OptionValues").
		Preload("Items.ProductFinish").
		Preload("Items.ComponentFinishes.Component").
		Preload("Items.ComponentFinishes.FinishOption")
}

// respondServiceError maps order service errors to HTTP responses
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": err.Error(),
			},
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": err.Error(),
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Operation failed",
			},
		})
	}
}

// CreateOrder handles POST /api/v1/orders - submits a new order with its
// items and their option/finish selections in one atomic operation
func CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
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

	input := services.SubmitOrderInput{
		Client:  services.ClientInput{ClientID: req.ClientID},
		Deposit: req.Deposit,
	}
	if req.NewClient != nil {
		input.Client.ClientName = req.NewClient.ClientName
		input.Client.ClientPhone = req.NewClient.ClientPhone
		input.Client.ClientEmail = req.NewClient.ClientEmail
	}
	for _, item := range req.Items {
		itemInput := services.OrderItemInput{
			ProductID:       item.ProductID,
			BasePrice:       item.BasePrice,
			Discount:        item.Discount,
			OptionValueIDs:  item.OptionValueIDs,
			ProductFinishID: item.ProductFinishID,
			PriorityLevel:   item.PriorityLevel,
		}
		for _, cf := range item.ComponentFinishes {
			itemInput.ComponentFinishes = append(itemInput.ComponentFinishes,
				services.ComponentFinishInput{
					ComponentID:    cf.ComponentID,
					FinishOptionID: cf.FinishOptionID,
				})
		}
		input.Items = append(input.Items, itemInput)
	}

	db := config.GetDB()
	order, err := services.NewOrderService(db).SubmitOrder(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Load the full order graph to return complete data
	var created models.Order
	if err := orderPreloads(db).First(&created, order.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load order details",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    created,
	})
}

// ListOrders handles GET /api/v1/orders - lists orders, newest first.
// Supports ?archived=true|false and page/page_size pagination.
func ListOrders(c *gin.Context) {
	db := config.GetDB()
	query := orderPreloads(db)

	if archived := c.Query("archived"); archived != "" {
		value, err := strconv.ParseBool(archived)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Invalid archived parameter. Must be true or false.",
				},
			})
			return
		}
		query = query.Where("archived = ?", value)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch orders",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// GetOrder handles GET /api/v1/orders/:id - fetches one order with its full
// item graph
func GetOrder(c *gin.Context) {
	db := config.GetDB()

	var order models.Order
	if err := orderPreloads(db).First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateOrderPaidRequest represents the request body for a payment update
type UpdateOrderPaidRequest struct {
	Paid models.Paid `json:"paid" binding:"required"`
}

// UpdateOrderPaid handles PATCH /api/v1/orders/:id/paid - changes the
// payment status and re-evaluates every item's completed flag atomically
func UpdateOrderPaid(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Invalid order ID",
			},
		})
		return
	}

	var req UpdateOrderPaidRequest
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
	order, err := services.NewOrderService(db).SetOrderPaid(c.Request.Context(), uint(orderID), req.Paid)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// ArchiveOrderRequest represents the request body for archiving an order
type ArchiveOrderRequest struct {
	Archived *bool `json:"archived" binding:"required"`
}

// ArchiveOrder handles PATCH /api/v1/orders/:id/archive - flags or unflags
// an order as archived
func ArchiveOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Invalid order ID",
			},
		})
		return
	}

	var req ArchiveOrderRequest
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
	order, err := services.NewOrderService(db).SetOrderArchived(c.Request.Context(), uint(orderID), *req.Archived)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// DeleteOrder handles DELETE /api/v1/orders/:id - deletes an order and
// cascades to its items
func DeleteOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Invalid order ID",
			},
		})
		return
	}

	db := config.GetDB()
	if err := services.NewOrderService(db).DeleteOrder(c.Request.Context(), uint(orderID)); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order deleted",
	})
}
