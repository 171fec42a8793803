package services

import (
	"context"
	"sync"

	"github.com/slotted-need/slotted-need-api/models"
)

// MockOrderEvents is a mock implementation of OrderEvents for testing
type MockOrderEvents struct {
	published []OrderEvent
	mu        sync.RWMutex
}

// NewMockOrderEvents creates a new mock order event publisher
func NewMockOrderEvents() *MockOrderEvents {
	return &MockOrderEvents{}
}

// SetAsMockForTesting sets this mock as the global order event publisher
func (m *MockOrderEvents) SetAsMockForTesting() {
	SetOrderEvents(m)
}

// PublishOrderSubmitted records an order submitted event
func (m *MockOrderEvents) PublishOrderSubmitted(ctx context.Context, order models.Order) error {
	m.record(EventOrderSubmitted, order)
	return nil
}

// PublishOrderStatusChanged records an order status change event
func (m *MockOrderEvents) PublishOrderStatusChanged(ctx context.Context, order models.Order) error {
	m.record(EventOrderStatusChanged, order)
	return nil
}

// PublishOrderPaidChanged records a payment status change event
func (m *MockOrderEvents) PublishOrderPaidChanged(ctx context.Context, order models.Order) error {
	m.record(EventOrderPaidChanged, order)
	return nil
}

// Close is a no-op for the mock
func (m *MockOrderEvents) Close() error {
	return nil
}

func (m *MockOrderEvents) record(eventType string, order models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		OrderStatus: order.OrderStatus,
		Paid:        order.Paid,
		OrderValue:  order.OrderValue,
	})
}

// Published returns a copy of all recorded events (for testing assertions)
func (m *MockOrderEvents) Published() []OrderEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	events := make([]OrderEvent, len(m.published))
	copy(events, m.published)
	return events
}

// Clear removes all recorded events
func (m *MockOrderEvents) Clear() {
	m.mu.Lock()
	m.published = nil
	m.mu.Unlock()
}
