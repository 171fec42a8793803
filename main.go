package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/slotted-need/slotted-need-api/config"
	"github.com/slotted-need/slotted-need-api/controllers"
	"github.com/slotted-need/slotted-need-api/middleware"
	"github.com/slotted-need/slotted-need-api/models"
	"github.com/slotted-need/slotted-need-api/services"
)

func main() {
	// Basic logging
	log.Println("Starting Slotted Need API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.Client{},
		&models.Product{},
		&models.Component{},
		&models.Option{},
		&models.OptionValue{},
		&models.Finish{},
		&models.FinishOption{},
		&models.Order{},
		&models.OrderItem{},
		&models.ComponentFinish{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Initialize S3-backed image storage when a bucket is configured
	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service()
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		services.InitImageService(s3Service)
		log.Printf("Product image storage enabled on bucket %s", cfg.AWSS3Bucket)
	} else {
		log.Println("AWS_S3_BUCKET not set, product image storage disabled")
	}

	// Initialize the Kafka order event publisher when brokers are configured
	if cfg.KafkaEnabled() {
		events := services.InitOrderEvents(cfg)
		defer func() {
			if err := events.Close(); err != nil {
				log.Printf("Failed to close order event publisher: %v", err)
			}
		}()
		log.Printf("Order events enabled on topic %s", cfg.KafkaOrderTopic)
	} else {
		log.Println("KAFKA_BROKERS not set, order events disabled")
	}

	router := setupRouter(cfg)

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter builds the Gin engine with all routes registered
func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)
	}

	// Staff endpoints require a valid token when Auth0 is configured.
	// Destructive operations additionally require the manage:orders scope.
	authEnabled := cfg != nil && cfg.Auth0Domain != ""
	manageScope := func() gin.HandlerFunc {
		if authEnabled {
			return middleware.RequireScope("manage:orders")
		}
		return func(c *gin.Context) { c.Next() }
	}()

	api := router.Group("/api/v1")
	if authEnabled {
		api.Use(middleware.EnsureValidToken(cfg))
	}
	{
		api.POST("/clients", controllers.CreateClient)
		api.GET("/clients", controllers.ListClients)
		api.GET("/clients/:id", controllers.GetClient)
		api.DELETE("/clients/:id", manageScope, controllers.DeleteClient)

		api.GET("/products", controllers.ListProducts)
		api.GET("/products/:id", controllers.GetProduct)
		api.POST("/products/:id/image", controllers.UploadProductImage)
		api.DELETE("/products/:id/image", controllers.DeleteProductImage)

		api.POST("/orders", controllers.CreateOrder)
		api.GET("/orders", controllers.ListOrders)
		api.GET("/orders/:id", controllers.GetOrder)
		api.PATCH("/orders/:id/paid", controllers.UpdateOrderPaid)
		api.PATCH("/orders/:id/archive", controllers.ArchiveOrder)
		api.DELETE("/orders/:id", manageScope, controllers.DeleteOrder)

		api.GET("/order-items", controllers.ListOrderItems)
		api.PATCH("/order-items/:id", controllers.UpdateOrderItem)
		api.DELETE("/order-items/:id", manageScope, controllers.DeleteOrderItem)

		api.GET("/analytics/product-revenue", controllers.ProductRevenueData)
		api.GET("/analytics/debtor-balances", controllers.DebtorBalancesData)
		api.GET("/analytics/item-status", controllers.ItemStatusData)
		api.GET("/analytics/item-status-config", controllers.ItemStatusConfigData)
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Slotted Need API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
