package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slotted-need/slotted-need-api/config"
	"github.com/slotted-need/slotted-need-api/models"
	"github.com/slotted-need/slotted-need-api/services"
)

// ListProducts handles GET /api/v1/products - lists the product catalog
func ListProducts(c *gin.Context) {
	db := config.GetDB()

	var products []models.Product
	if err := db.Order("name ASC").Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch products",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    products,
	})
}

// GetProduct handles GET /api/v1/products/:id - fetches one product with
// its options, finishes and components so the order form can render the
// selectable configuration
func GetProduct(c *gin.Context) {
	db := config.GetDB()

	var product models.Product
	err := db.Preload("Options.Values").
		Preload("Finishes.Options").
		Preload("Components").
		First(&product, c.Param("id")).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PRODUCT_NOT_FOUND",
				"message": "Product not found",
			},
		})
		return
	}

	// Attach a presigned URL when a reference photo exists
	if product.ImageS3Key != nil {
		if imageService := services.GetImageService(); imageService != nil {
			if url, err := imageService.GetImageURL(*product.ImageS3Key); err == nil && url != "" {
				product.ImageURL = &url
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    product,
	})
}

// UploadProductImage handles POST /api/v1/products/:id/image - uploads a
// PNG reference photo for a product
func UploadProductImage(c *gin.Context) {
	db := config.GetDB()

	var product models.Product
	if err := db.First(&product, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PRODUCT_NOT_FOUND",
				"message": "Product not found",
			},
		})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "An image file is required",
			},
		})
		return
	}

	imageService := services.GetImageService()
	if imageService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_UNAVAILABLE",
				"message": "Image storage is not configured",
			},
		})
		return
	}

	imageKey, err := imageService.UploadImage(fileHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	// Replace any previous photo
	oldKey := product.ImageS3Key
	if err := db.Model(&product).Update("image_s3_key", imageKey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to save product image",
			},
		})
		return
	}
	if oldKey != nil && *oldKey != imageKey {
		// Old photo cleanup is best-effort
		_ = imageService.DeleteImage(*oldKey)
	}

	url, _ := imageService.GetImageURL(imageKey)
	if url != "" {
		product.ImageURL = &url
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    product,
	})
}

// DeleteProductImage handles DELETE /api/v1/products/:id/image - removes a
// product's reference photo
func DeleteProductImage(c *gin.Context) {
	db := config.GetDB()

	var product models.Product
	if err := db.First(&product, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PRODUCT_NOT_FOUND",
				"message": "Product not found",
			},
		})
		return
	}

	if product.ImageS3Key == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "IMAGE_NOT_FOUND",
				"message": "Product has no image",
			},
		})
		return
	}

	if imageService := services.GetImageService(); imageService != nil {
		if err := imageService.DeleteImage(*product.ImageS3Key); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "STORAGE_ERROR",
					"message": "Failed to delete product image",
				},
			})
			return
		}
	}

	if err := db.Model(&product).Update("image_s3_key", nil).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to clear product image",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product image deleted",
	})
}
