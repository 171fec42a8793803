package models

import (
	"sort"
	"strings"
	"time"
)

// Status is a lifecycle stage shared by orders and order items.
// The integer codes are part of the persisted schema and must not be
// renumbered.
type Status int

const (
	StatusNotStarted Status = 1
	StatusInProgress Status = 2
	StatusMade       Status = 3
	StatusDelivered  Status = 4
)

// StatusCodes lists the status codes in display order
var StatusCodes = []Status{StatusNotStarted, StatusInProgress, StatusMade, StatusDelivered}

// Label returns the human-readable label for a status code
func (s Status) Label() string {
	switch s {
	case StatusNotStarted:
		return "Not Started"
	case StatusInProgress:
		return "In Progress"
	case StatusMade:
		return "Made"
	case StatusDelivered:
		return "Delivered"
	}
	return "Unknown"
}

// Valid reports whether s is a known status code
func (s Status) Valid() bool {
	return s >= StatusNotStarted && s <= StatusDelivered
}

// Paid is an order's payment state. Codes are persisted, do not renumber.
type Paid int

const (
	PaidNotPaid   Paid = 1
	PaidFullyPaid Paid = 2
)

// Label returns the human-readable label for a paid code
func (p Paid) Label() string {
	if p == PaidFullyPaid {
		return "Fully Paid"
	}
	return "Not Paid"
}

// Valid reports whether p is a known paid code
func (p Paid) Valid() bool {
	return p == PaidNotPaid || p == PaidFullyPaid
}

// Priority is an order item's priority level. Codes are persisted.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

// Valid reports whether p is a known priority code
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

// Order represents a client's order of one or more configured items.
// Discount, OrderValue and OrderStatus are derived from the child items and
// must only be written through the order service recompute pipeline.
type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	ClientID    *uint       `gorm:"index" json:"client_id"` // nullable, orders survive client deletion
	Client      *Client     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Discount    float64     `gorm:"not null;default:0" json:"discount"`    // derived, sum of item discounts
	Deposit     float64     `gorm:"not null;default:0" json:"deposit"`     // user-entered
	OrderValue  float64     `gorm:"not null;default:0" json:"order_value"` // derived, sum of item values
	OrderStatus Status      `gorm:"not null;default:1" json:"order_status"`
	Paid        Paid        `gorm:"not null;default:1" json:"paid"`
	Archived    bool        `gorm:"not null;default:false" json:"archived"`
	Items       []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem represents a single configured product within an order
type OrderItem struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	OrderID           uint              `gorm:"not null;index" json:"order_id"`
	Order             *Order            `gorm:"foreignKey:OrderID" json:"-"`
	ProductID         uint              `gorm:"not null;index" json:"product_id"`
	Product           Product           `gorm:"foreignKey:ProductID" json:"product"`
	BasePrice         float64           `gorm:"not null;check:base_price >= 0" json:"base_price"`
	Discount          *float64          `json:"discount"`                   // nullable, treated as zero
	ItemValue         float64           `gorm:"not null" json:"item_value"` // derived: base_price - discount
	OptionValues      []OptionValue     `gorm:"many2many:order_item_option_values" json:"option_values"`
	ProductFinishID   *uint             `gorm:"index" json:"product_finish_id"`
	ProductFinish     *FinishOption     `gorm:"foreignKey:ProductFinishID;constraint:OnDelete:SET NULL" json:"product_finish,omitempty"`
	ItemStatus        Status            `gorm:"not null;default:1" json:"item_status"`
	PriorityLevel     Priority          `gorm:"not null;default:1" json:"priority_level"`
	Completed         bool              `gorm:"not null;default:false" json:"completed"` // derived: delivered and fully paid
	ComponentFinishes []ComponentFinish `gorm:"constraint:OnDelete:CASCADE" json:"component_finishes"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// ConfigurationSignature builds the canonical string identifying this item's
// product + options + finishes combination, used to group identical
// configurations across orders. Option values and finish names are sorted so
// the result does not depend on attachment order. The product-level finish
// is sorted together with the component finishes, so it does not necessarily
// lead the finish segment.
//
// Product, OptionValues, ProductFinish and ComponentFinishes (with their
// FinishOption) must be loaded before calling.
func (item *OrderItem) ConfigurationSignature() string {
	config := item.Product.Name

	values := make([]string, 0, len(item.OptionValues))
	for _, ov := range item.OptionValues {
		values = append(values, ov.Value)
	}
	sort.Strings(values)
	if len(values) > 0 {
		config += " | " + strings.Join(values, ", ")
	}

	var finishes []string
	if item.ProductFinish != nil {
		finishes = append(finishes, item.ProductFinish.Name)
	}
	for _, cf := range item.ComponentFinishes {
		finishes = append(finishes, cf.FinishOption.Name)
	}
	sort.Strings(finishes)
	if len(finishes) > 0 {
		config += " | " + strings.Join(finishes, ", ")
	}

	return config
}

// ComponentFinish records the finish chosen for one component of an item
type ComponentFinish struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	OrderItemID    uint         `gorm:"not null;index" json:"order_item_id"`
	ComponentID    uint         `gorm:"not null;index" json:"component_id"`
	Component      Component    `gorm:"foreignKey:ComponentID" json:"component"`
	FinishOptionID uint         `gorm:"not null;index" json:"finish_option_id"`
	FinishOption   FinishOption `gorm:"foreignKey:FinishOptionID" json:"finish_option"`
}

// TableName specifies the table name for the ComponentFinish model
func (ComponentFinish) TableName() string {
	return "component_finishes"
}
