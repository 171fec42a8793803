package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/slotted-need/slotted-need-api/config"
	"github.com/slotted-need/slotted-need-api/models"
	"github.com/slotted-need/slotted-need-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OrderItemControllerTestSuite defines the test suite for the order item
// tracker endpoints
type OrderItemControllerTestSuite struct {
	suite.Suite
	router *gin.Engine
	db     *gorm.DB

	table models.Product
	shelf models.Product
	ada   models.Client
	grace models.Client
}

// SetupTest runs before each test
func (suite *OrderItemControllerTestSuite) SetupTest() {
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

	events := services.NewMockOrderEvents()
	events.SetAsMockForTesting()

	suite.table = models.Product{Name: "Side Table", Slug: "side-table", BasePrice: 120}
	suite.NoError(suite.db.Create(&suite.table).Error)
	suite.shelf = models.Product{Name: "Shelf", Slug: "shelf", BasePrice: 200}
	suite.NoError(suite.db.Create(&suite.shelf).Error)

	suite.ada = models.Client{ClientName: "Ada Lovelace", ClientEmail: "ada@example.com"}
	suite.NoError(suite.db.Create(&suite.ada).Error)
	suite.grace = models.Client{ClientName: "Grace Hopper", ClientEmail: "grace@example.com"}
	suite.NoError(suite.db.Create(&suite.grace).Error)

	suite.router = gin.New()
	v1 := suite.router.Group("/api/v1")
	{
		v1.GET("/order-items", ListOrderItems)
		v1.PATCH("/order-items/:id", UpdateOrderItem)
		v1.DELETE("/order-items/:id", DeleteOrderItem)
	}
}

// TearDownTest runs after each test
func (suite *OrderItemControllerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

func (suite *OrderItemControllerTestSuite) createOrder(client models.Client, paid models.Paid) models.Order {
	order := models.Order{ClientID: &client.ID, Paid: paid}
	suite.NoError(suite.db.Create(&order).Error)
	return order
}

func (suite *OrderItemControllerTestSuite) createItem(order models.Order, product models.Product, value float64, status models.Status, priority models.Priority) models.OrderItem {
	item := models.OrderItem{
		OrderID:       order.ID,
		ProductID:     product.ID,
		BasePrice:     value,
		ItemValue:     value,
		ItemStatus:    status,
		PriorityLevel: priority,
	}
	suite.NoError(suite.db.Create(&item).Error)
	return item
}

func (suite *OrderItemControllerTestSuite) get(path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	suite.router.ServeHTTP(w, req)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	return w, response
}

func (suite *OrderItemControllerTestSuite) seedTrackerRows() {
	unpaid := suite.createOrder(suite.ada, models.PaidNotPaid)
	paid := suite.createOrder(suite.grace, models.PaidFullyPaid)

	suite.createItem(unpaid, suite.table, 100, models.StatusNotStarted, models.PriorityLow)
	suite.createItem(unpaid, suite.shelf, 250, models.StatusInProgress, models.PriorityHigh)
	suite.createItem(paid, suite.table, 80, models.StatusDelivered, models.PriorityMedium)
}

// TestListOrderItems_All tests the unfiltered tracker listing
func (suite *OrderItemControllerTestSuite) TestListOrderItems_All() {
	suite.seedTrackerRows()

	w, response := suite.get("/api/v1/order-items")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.True(suite.T(), response["success"].(bool))

	items := response["data"].([]interface{})
	assert.Len(suite.T(), items, 3)

	// The product graph is loaded for each row
	first := items[0].(map[string]interface{})
	product := first["product"].(map[string]interface{})
	assert.Equal(suite.T(), "Side Table", product["name"])
}

// TestListOrderItems_Filters tests each tracker filter
func (suite *OrderItemControllerTestSuite) TestListOrderItems_Filters() {
	suite.seedTrackerRows()

	tests := []struct {
		name     string
		query    string
		expected int
	}{
		{"by client name fragment", "client_name=Lovelace", 2},
		{"by product fragment", "product=Shelf", 1},
		{"by item status", fmt.Sprintf("item_status=%d", models.StatusDelivered), 1},
		{"by priority", fmt.Sprintf("priority_level=%d", models.PriorityHigh), 1},
		{"by payment status", fmt.Sprintf("payment_status=%d", models.PaidFullyPaid), 1},
		{"by price min", "price_min=100", 2},
		{"by price max", "price_max=100", 2},
		{"by price range", "price_min=90&price_max=150", 1},
		{"no matches", "client_name=Nobody", 0},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w, response := suite.get("/api/v1/order-items?" + tt.query)
			assert.Equal(suite.T(), http.StatusOK, w.Code)
			assert.Len(suite.T(), response["data"].([]interface{}), tt.expected)
		})
	}
}

// TestListOrderItems_ByOrderID tests the order scoping filter
func (suite *OrderItemControllerTestSuite) TestListOrderItems_ByOrderID() {
	unpaid := suite.createOrder(suite.ada, models.PaidNotPaid)
	other := suite.createOrder(suite.ada, models.PaidNotPaid)
	suite.createItem(unpaid, suite.table, 100, models.StatusNotStarted, models.PriorityLow)
	suite.createItem(other, suite.table, 50, models.StatusNotStarted, models.PriorityLow)

	w, response := suite.get(fmt.Sprintf("/api/v1/order-items?order_id=%d", unpaid.ID))
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	items := response["data"].([]interface{})
	assert.Len(suite.T(), items, 1)
	assert.Equal(suite.T(), float64(unpaid.ID), items[0].(map[string]interface{})["order_id"])
}

// TestListOrderItems_InvalidFilters tests filter validation
func (suite *OrderItemControllerTestSuite) TestListOrderItems_InvalidFilters() {
	queries := []string{
		"item_status=99",
		"item_status=abc",
		"priority_level=0",
		"payment_status=7",
		"price_min=abc",
		"price_max=abc",
	}

	for _, query := range queries {
		w, response := suite.get("/api/v1/order-items?" + query)
		assert.Equal(suite.T(), http.StatusBadRequest, w.Code, "Query %q should be rejected", query)
		errorData := response["error"].(map[string]interface{})
		assert.Equal(suite.T(), "VALIDATION_ERROR", errorData["code"])
	}
}

// TestUpdateOrderItem_StatusAndOrderRecompute tests that a status patch
// recomputes the parent order
func (suite *OrderItemControllerTestSuite) TestUpdateOrderItem_StatusAndOrderRecompute() {
	order := suite.createOrder(suite.ada, models.PaidNotPaid)
	item := suite.createItem(order, suite.table, 100, models.StatusNotStarted, models.PriorityLow)

	body, _ := json.Marshal(map[string]interface{}{"item_status": models.StatusDelivered})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/v1/order-items/%d", item.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	data := response["data"].(map[string]interface{})
	assert.Equal(suite.T(), float64(models.StatusDelivered), data["item_status"])

	var reloaded models.Order
	suite.NoError(suite.db.First(&reloaded, order.ID).Error)
	assert.Equal(suite.T(), models.StatusDelivered, reloaded.OrderStatus)
}

// TestUpdateOrderItem_PriceChange tests a pricing patch
func (suite *OrderItemControllerTestSuite) TestUpdateOrderItem_PriceChange() {
	order := suite.createOrder(suite.ada, models.PaidNotPaid)
	item := suite.createItem(order, suite.table, 100, models.StatusNotStarted, models.PriorityLow)

	body, _ := json.Marshal(map[string]interface{}{"base_price": 150, "discount": 30})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/v1/order-items/%d", item.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	data := response["data"].(map[string]interface{})
	assert.Equal(suite.T(), 120.0, data["item_value"])

	var reloaded models.Order
	suite.NoError(suite.db.First(&reloaded, order.ID).Error)
	assert.Equal(suite.T(), 120.0, reloaded.OrderValue)
	assert.Equal(suite.T(), 30.0, reloaded.Discount)
}

// TestUpdateOrderItem_InvalidStatus tests rejecting an unknown status code
func (suite *OrderItemControllerTestSuite) TestUpdateOrderItem_InvalidStatus() {
	order := suite.createOrder(suite.ada, models.PaidNotPaid)
	item := suite.createItem(order, suite.table, 100, models.StatusNotStarted, models.PriorityLow)

	body, _ := json.Marshal(map[string]interface{}{"item_status": 42})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/v1/order-items/%d", item.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestUpdateOrderItem_NotFound tests 404 mapping for a missing item
func (suite *OrderItemControllerTestSuite) TestUpdateOrderItem_NotFound() {
	body, _ := json.Marshal(map[string]interface{}{"item_status": models.StatusMade})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/order-items/9999", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

// TestDeleteOrderItem tests deletion with parent order recompute
func (suite *OrderItemControllerTestSuite) TestDeleteOrderItem() {
	order := suite.createOrder(suite.ada, models.PaidNotPaid)
	keep := suite.createItem(order, suite.table, 100, models.StatusDelivered, models.PriorityLow)
	remove := suite.createItem(order, suite.shelf, 250, models.StatusNotStarted, models.PriorityLow)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/order-items/%d", remove.ID), nil)
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.OrderItem{}).Count(&count)
	assert.Equal(suite.T(), int64(1), count)

	// Only the delivered item remains, so the order reads Delivered
	var reloaded models.Order
	suite.NoError(suite.db.First(&reloaded, order.ID).Error)
	assert.Equal(suite.T(), models.StatusDelivered, reloaded.OrderStatus)
	assert.Equal(suite.T(), 100.0, reloaded.OrderValue)

	var survivor models.OrderItem
	suite.NoError(suite.db.First(&survivor, keep.ID).Error)
}

// TestOrderItemControllerSuite runs the test suite
func TestOrderItemControllerSuite(t *testing.T) {
	suite.Run(t, new(OrderItemControllerTestSuite))
}
