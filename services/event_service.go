package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/slotted-need/slotted-need-api/config"
	"github.com/slotted-need/slotted-need-api/models"
)

// Order event types published to the order topic
const (
	EventOrderSubmitted     = "order_submitted"
	EventOrderStatusChanged = "order_status_changed"
	EventOrderPaidChanged   = "order_paid_changed"
)

// OrderEvent is the JSON payload published for every order mutation
type OrderEvent struct {
	Type        string        `json:"type"`
	OrderID     uint          `json:"order_id"`
	OrderStatus models.Status `json:"order_status"`
	Paid        models.Paid   `json:"paid"`
	OrderValue  float64       `json:"order_value"`
	OccurredAt  time.Time     `json:"occurred_at"`
}

// OrderEvents publishes order lifecycle events for downstream consumers.
// Publishing is best-effort: callers log failures but never fail the
// request over them.
type OrderEvents interface {
	PublishOrderSubmitted(ctx context.Context, order models.Order) error
	PublishOrderStatusChanged(ctx context.Context, order models.Order) error
	PublishOrderPaidChanged(ctx context.Context, order models.Order) error
	Close() error
}

// KafkaOrderEvents implements OrderEvents on a Kafka topic
type KafkaOrderEvents struct {
	writer *kafka.Writer
}

var orderEventsInstance OrderEvents

// InitOrderEvents initializes the Kafka-backed order event publisher
func InitOrderEvents(cfg *config.Config) OrderEvents {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaOrderTopic,
	})

	orderEventsInstance = &KafkaOrderEvents{writer: writer}
	return orderEventsInstance
}

// GetOrderEvents returns the order event publisher, or nil when none is
// configured
func GetOrderEvents() OrderEvents {
	return orderEventsInstance
}

// SetOrderEvents sets the order event publisher (primarily for testing)
func SetOrderEvents(events OrderEvents) {
	orderEventsInstance = events
}

// PublishOrderSubmitted streams an order creation event
func (k *KafkaOrderEvents) PublishOrderSubmitted(ctx context.Context, order models.Order) error {
	return k.publish(ctx, EventOrderSubmitted, order)
}

// PublishOrderStatusChanged streams an order status change event
func (k *KafkaOrderEvents) PublishOrderStatusChanged(ctx context.Context, order models.Order) error {
	return k.publish(ctx, EventOrderStatusChanged, order)
}

// PublishOrderPaidChanged streams a payment status change event
func (k *KafkaOrderEvents) PublishOrderPaidChanged(ctx context.Context, order models.Order) error {
	return k.publish(ctx, EventOrderPaidChanged, order)
}

// Close flushes and closes the underlying Kafka writer
func (k *KafkaOrderEvents) Close() error {
	return k.writer.Close()
}

func (k *KafkaOrderEvents) publish(ctx context.Context, eventType string, order models.Order) error {
	event := OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		OrderStatus: order.OrderStatus,
		Paid:        order.Paid,
		OrderValue:  order.OrderValue,
		OccurredAt:  time.Now().UTC(),
	}

	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("order-%d", order.ID)),
		Value: msgBytes,
	})
}
