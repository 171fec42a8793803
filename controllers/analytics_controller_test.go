package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/slotted-need/slotted-need-api/config"
	"github.com/slotted-need/slotted-need-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// AnalyticsControllerTestSuite defines the test suite for the dashboard
// chart endpoints
type AnalyticsControllerTestSuite struct {
	suite.Suite
	router *gin.Engine
	db     *gorm.DB
}

// SetupTest runs before each test
func (suite *AnalyticsControllerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.NoError(err)
	suite.db = db

	err = db.AutoMigrate(
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
	)
	suite.NoError(err)

	config.SetDB(db)

	suite.router = gin.New()
	v1 := suite.router.Group("/api/v1")
	{
		v1.GET("/analytics/product-revenue", ProductRevenueData)
		v1.GET("/analytics/debtor-balances", DebtorBalancesData)
		v1.GET("/analytics/item-status", ItemStatusData)
		v1.GET("/analytics/item-status-config", ItemStatusConfigData)
	}
}

// TearDownTest runs after each test
func (suite *AnalyticsControllerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// get performs a GET request and decodes the JSON response
func (suite *AnalyticsControllerTestSuite) get(path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	suite.router.ServeHTTP(w, req)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	return w, response
}

// seedRevenue creates a client with two orders across two products
func (suite *AnalyticsControllerTestSuite) seedRevenue() {
	client := models.Client{ClientName: "Ada Lovelace", ClientEmail: "ada@example.com"}
	suite.NoError(suite.db.Create(&client).Error)

	table := models.Product{Name: "Side Table", Slug: "side-table", BasePrice: 120}
	shelf := models.Product{Name: "Shelf", Slug: "shelf", BasePrice: 90}
	suite.NoError(suite.db.Create(&table).Error)
	suite.NoError(suite.db.Create(&shelf).Error)

	order := models.Order{ClientID: &client.ID, OrderStatus: models.StatusInProgress, Paid: models.PaidNotPaid, OrderValue: 290}
	suite.NoError(suite.db.Create(&order).Error)

	items := []models.OrderItem{
		{OrderID: order.ID, ProductID: table.ID, BasePrice: 200, ItemValue: 200, ItemStatus: models.StatusInProgress, PriorityLevel: models.PriorityLow},
		{OrderID: order.ID, ProductID: shelf.ID, BasePrice: 90, ItemValue: 90, ItemStatus: models.StatusDelivered, PriorityLevel: models.PriorityLow},
	}
	for i := range items {
		suite.NoError(suite.db.Create(&items[i]).Error)
	}
}

// TestProductRevenue tests the revenue chart endpoint
func (suite *AnalyticsControllerTestSuite) TestProductRevenue() {
	suite.seedRevenue()

	w, response := suite.get("/api/v1/analytics/product-revenue")

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.True(suite.T(), response["success"].(bool))

	data := response["data"].(map[string]interface{})
	labels := data["labels"].([]interface{})
	values := data["values"].([]interface{})
	assert.Equal(suite.T(), []interface{}{"Side Table", "Shelf"}, labels)
	assert.Equal(suite.T(), 200.0, values[0])
	assert.Equal(suite.T(), 90.0, values[1])
}

// TestProductRevenue_RevenueFilter tests the revenue_min bound
func (suite *AnalyticsControllerTestSuite) TestProductRevenue_RevenueFilter() {
	suite.seedRevenue()

	w, response := suite.get("/api/v1/analytics/product-revenue?revenue_min=100")

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	data := response["data"].(map[string]interface{})
	labels := data["labels"].([]interface{})
	assert.Equal(suite.T(), []interface{}{"Side Table"}, labels)
}

// TestProductRevenue_InvalidRevenueFilter tests non-numeric bounds
func (suite *AnalyticsControllerTestSuite) TestProductRevenue_InvalidRevenueFilter() {
	w, response := suite.get("/api/v1/analytics/product-revenue?revenue_min=abc")

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	errorData := response["error"].(map[string]interface{})
	assert.Equal(suite.T(), "VALIDATION_ERROR", errorData["code"])
	assert.Equal(suite.T(), "Invalid revenue_min or revenue_max. Must be numeric.", errorData["message"])
}

// TestProductRevenue_InvalidDateFilter tests malformed dates
func (suite *AnalyticsControllerTestSuite) TestProductRevenue_InvalidDateFilter() {
	for _, param := range []string{"date_from=2024-13-45", "date_to=notadate", "date_from=01/02/2024"} {
		w, response := suite.get("/api/v1/analytics/product-revenue?" + param)

		assert.Equal(suite.T(), http.StatusBadRequest, w.Code, "Expected 400 for %s", param)

		errorData := response["error"].(map[string]interface{})
		assert.Equal(suite.T(), "VALIDATION_ERROR", errorData["code"])
		assert.Equal(suite.T(), "Invalid date_from or date_to. Expected format: YYYY-MM-DD.", errorData["message"])
	}
}

// TestDebtorBalances tests the outstanding balances endpoint
func (suite *AnalyticsControllerTestSuite) TestDebtorBalances() {
	ada := models.Client{ClientName: "Ada Lovelace", ClientEmail: "ada@example.com"}
	grace := models.Client{ClientName: "Grace Hopper", ClientEmail: "grace@example.com"}
	suite.NoError(suite.db.Create(&ada).Error)
	suite.NoError(suite.db.Create(&grace).Error)

	orders := []models.Order{
		{ClientID: &ada.ID, OrderStatus: models.StatusInProgress, Paid: models.PaidNotPaid, OrderValue: 150},
		{ClientID: &grace.ID, OrderStatus: models.StatusMade, Paid: models.PaidNotPaid, OrderValue: 500},
		{ClientID: &ada.ID, OrderStatus: models.StatusDelivered, Paid: models.PaidFullyPaid, OrderValue: 999},
	}
	for i := range orders {
		suite.NoError(suite.db.Create(&orders[i]).Error)
	}

	w, response := suite.get("/api/v1/analytics/debtor-balances")

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	data := response["data"].(map[string]interface{})
	labels := data["labels"].([]interface{})
	values := data["values"].([]interface{})
	assert.Equal(suite.T(), []interface{}{"Grace Hopper", "Ada Lovelace"}, labels)
	assert.Equal(suite.T(), 500.0, values[0])
	assert.Equal(suite.T(), 150.0, values[1])
}

// TestItemStatus tests the status-count endpoint returns all four buckets
func (suite *AnalyticsControllerTestSuite) TestItemStatus() {
	suite.seedRevenue()

	w, response := suite.get("/api/v1/analytics/item-status")

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	data := response["data"].(map[string]interface{})
	labels := data["labels"].([]interface{})
	values := data["values"].([]interface{})
	assert.Equal(suite.T(), []interface{}{"Not Started", "In Progress", "Made", "Delivered"}, labels)
	assert.Equal(suite.T(), []interface{}{0.0, 1.0, 0.0, 1.0}, values)
}

// TestItemStatusConfig tests the per-configuration counts endpoint
func (suite *AnalyticsControllerTestSuite) TestItemStatusConfig() {
	suite.seedRevenue()

	w, response := suite.get("/api/v1/analytics/item-status-config")

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	data := response["data"].(map[string]interface{})
	labels := data["labels"].([]interface{})
	values := data["values"].([]interface{})
	// The delivered shelf is unpaid, so it still counts as open work
	assert.ElementsMatch(suite.T(), []interface{}{"Side Table", "Shelf"}, labels)
	assert.Len(suite.T(), values, 2)
}

// TestAnalyticsControllerSuite runs the test suite
func TestAnalyticsControllerSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsControllerTestSuite))
}
