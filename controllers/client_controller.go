package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slotted-need/slotted-need-api/config"
	"github.com/slotted-need/slotted-need-api/models"
	"gorm.io/gorm"
)

// CreateClientRequest represents the request body for creating a client
type CreateClientRequest struct {
	ClientName  string `json:"client_name" binding:"required"`
	ClientPhone string `json:"client_phone"`
	ClientEmail string `json:"client_email" binding:"required,email"`
}

// CreateClient handles POST /api/v1/clients - registers a new client
func CreateClient(c *gin.Context) {
	var req CreateClientRequest
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
	client := models.Client{
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		ClientEmail: req.ClientEmail,
	}
	if err := db.Create(&client).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create client",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    client,
	})
}

// ListClients handles GET /api/v1/clients - lists all clients
func ListClients(c *gin.Context) {
	db := config.GetDB()

	var clients []models.Client
	if err := db.Order("client_name ASC").Find(&clients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch clients",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    clients,
	})
}

// GetClient handles GET /api/v1/clients/:id - fetches one client with orders
func GetClient(c *gin.Context) {
	db := config.GetDB()

	var client models.Client
	if err := db.Preload("Orders").First(&client, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CLIENT_NOT_FOUND",
				"message": "Client not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    client,
	})
}

// DeleteClient handles DELETE /api/v1/clients/:id - deletes a client.
// The client's orders survive with their client reference cleared.
func DeleteClient(c *gin.Context) {
	db := config.GetDB()

	var client models.Client
	if err := db.First(&client, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CLIENT_NOT_FOUND",
				"message": "Client not found",
			},
		})
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		// Detach orders before removing the client so they survive
		if err := tx.Model(&models.Order{}).
			Where("client_id = ?", client.ID).
			Update("client_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&client).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete client",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Client deleted",
	})
}
