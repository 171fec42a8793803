package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/slotted-need/slotted-need-api/models"
)

// Sentinel errors mapped to HTTP status codes by the controllers
var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

// ClientInput identifies the client an order belongs to: either an existing
// client by ID or a new client to create with the order.
type ClientInput struct {
	ClientID    *uint
	ClientName  string
	ClientPhone string
	ClientEmail string
}

// ComponentFinishInput selects a finish for one component of an item
type ComponentFinishInput struct {
	ComponentID    uint
	FinishOptionID uint
}

// OrderItemInput describes one configured line item of a submission
type OrderItemInput struct {
	ProductID         uint
	BasePrice         float64
	Discount          *float64
	OptionValueIDs    []uint
	ProductFinishID   *uint
	ComponentFinishes []ComponentFinishInput
	PriorityLevel     models.Priority
}

// SubmitOrderInput is the full payload of an order submission
type SubmitOrderInput struct {
	Client  ClientInput
	Deposit float64
	Items   []OrderItemInput
}

// OrderItemUpdate carries the editable fields of a line item; nil fields are
// left unchanged.
type OrderItemUpdate struct {
	ItemStatus    *models.Status
	PriorityLevel *models.Priority
	BasePrice     *float64
	Discount      *float64
}

// OrderService runs every order mutation as an explicit pipeline: persist
// scalar rows first, attach associations once rows have identity, then
// recompute the parent order's aggregates and status. All derived fields
// (item_value, completed, discount, order_value, order_status) are correct
// and persisted by the time a method returns.
type OrderService struct {
	db     *gorm.DB
	events OrderEvents
}

// NewOrderService creates an order service on the given database handle
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db, events: GetOrderEvents()}
}

// SubmitOrder creates a client (when needed), an order and its line items
// with their option and finish associations in a single transaction. Any
// validation or referential failure rolls back every row written by the
// request.
func (s *OrderService) SubmitOrder(ctx context.Context, input SubmitOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one order item is required", ErrValidation)
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clientID, err := s.resolveClient(tx, input.Client)
		if err != nil {
			return err
		}

		// Persist the order scalar fields first so items can reference it
		order = models.Order{
			ClientID: &clientID,
			Deposit:  input.Deposit,
			Paid:     models.PaidNotPaid,
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range input.Items {
			if _, err := s.createItem(tx, &order, input.Items[i]); err != nil {
				return err
			}
		}

		if _, err := s.recomputeOrder(tx, order.ID); err != nil {
			return err
		}

		return tx.First(&order, order.ID).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, order, EventOrderSubmitted)
	return &order, nil
}

// AddOrderItem appends a line item to an existing order and recomputes the
// order's aggregates and status.
func (s *OrderService) AddOrderItem(ctx context.Context, orderID uint, input OrderItemInput) (*models.OrderItem, error) {
	var item *models.OrderItem
	var statusChanged bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}

		var err error
		if item, err = s.createItem(tx, &order, input); err != nil {
			return err
		}

		statusChanged, err = s.recomputeOrder(tx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if statusChanged {
		s.publishByID(ctx, orderID, EventOrderStatusChanged)
	}
	return item, nil
}

// UpdateOrderItem applies the given changes to a line item, rederives its
// value and completed flag, and recomputes the parent order.
func (s *OrderService) UpdateOrderItem(ctx context.Context, itemID uint, update OrderItemUpdate) (*models.OrderItem, error) {
	if err := validateItemUpdate(update); err != nil {
		return nil, err
	}

	var item models.OrderItem
	var statusChanged bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Order").First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order item %d", ErrNotFound, itemID)
			}
			return err
		}

		if update.ItemStatus != nil {
			item.ItemStatus = *update.ItemStatus
		}
		if update.PriorityLevel != nil {
			item.PriorityLevel = *update.PriorityLevel
		}
		if update.BasePrice != nil {
			item.BasePrice = *update.BasePrice
		}
		if update.Discount != nil {
			item.Discount = update.Discount
		}

		item.ItemValue = ItemValue(item.BasePrice, item.Discount)
		item.Completed = ItemCompleted(item.ItemStatus, item.Order.Paid)

		if err := tx.Model(&item).
			Select("item_status", "priority_level", "base_price", "discount", "item_value", "completed").
			Updates(&item).Error; err != nil {
			return fmt.Errorf("failed to update order item: %w", err)
		}

		var err error
		statusChanged, err = s.recomputeOrder(tx, item.OrderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if statusChanged {
		s.publishByID(ctx, item.OrderID, EventOrderStatusChanged)
	}
	return &item, nil
}

// DeleteOrderItem removes a line item together with its option and finish
// associations, then recomputes the parent order captured before deletion.
func (s *OrderService) DeleteOrderItem(ctx context.Context, itemID uint) error {
	var orderID uint
	var statusChanged bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.OrderItem
		if err := tx.First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order item %d", ErrNotFound, itemID)
			}
			return err
		}

		// Keep a reference to the order before the item disappears
		orderID = item.OrderID

		if err := s.deleteItem(tx, &item); err != nil {
			return err
		}

		var err error
		statusChanged, err = s.recomputeOrder(tx, orderID)
		return err
	})
	if err != nil {
		return err
	}

	if statusChanged {
		s.publishByID(ctx, orderID, EventOrderStatusChanged)
	}
	return nil
}

// SetOrderPaid changes an order's payment status and re-evaluates every
// item's completed flag in the same transaction, so no reader observes a
// paid order with stale completed flags.
func (s *OrderService) SetOrderPaid(ctx context.Context, orderID uint, paid models.Paid) (*models.Order, error) {
	if !paid.Valid() {
		return nil, fmt.Errorf("%w: invalid paid status %d", ErrValidation, paid)
	}

	var order models.Order
	var changed bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}

		if order.Paid == paid {
			return nil
		}
		changed = true

		if err := tx.Model(&order).Update("paid", paid).Error; err != nil {
			return fmt.Errorf("failed to update paid status: %w", err)
		}

		// Bulk re-evaluation: completed holds only for delivered items on a
		// fully paid order
		if err := tx.Model(&models.OrderItem{}).
			Where("order_id = ?", order.ID).
			UpdateColumn("completed", false).Error; err != nil {
			return fmt.Errorf("failed to reset completed flags: %w", err)
		}
		if paid == models.PaidFullyPaid {
			if err := tx.Model(&models.OrderItem{}).
				Where("order_id = ? AND item_status = ?", order.ID, models.StatusDelivered).
				UpdateColumn("completed", true).Error; err != nil {
				return fmt.Errorf("failed to update completed flags: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publish(ctx, order, EventOrderPaidChanged)
	}
	return &order, nil
}

// SetOrderArchived flags or unflags an order as archived
func (s *OrderService) SetOrderArchived(ctx context.Context, orderID uint, archived bool) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&order).Update("archived", archived).Error; err != nil {
		return nil, fmt.Errorf("failed to update archived flag: %w", err)
	}
	return &order, nil
}

// DeleteOrder removes an order and cascades to its items and their
// associations.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}

		for i := range order.Items {
			if err := s.deleteItem(tx, &order.Items[i]); err != nil {
				return err
			}
		}

		if err := tx.Delete(&order).Error; err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return nil
	})
}

// resolveClient returns the ID of the referenced client, creating a new
// client row when no existing one is given.
func (s *OrderService) resolveClient(tx *gorm.DB, input ClientInput) (uint, error) {
	if input.ClientID != nil {
		var client models.Client
		if err := tx.First(&client, *input.ClientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, fmt.Errorf("%w: client %d does not exist", ErrValidation, *input.ClientID)
			}
			return 0, err
		}
		return client.ID, nil
	}

	if input.ClientName == "" || input.ClientEmail == "" {
		return 0, fmt.Errorf("%w: a client or a new client name and email is required", ErrValidation)
	}

	client := models.Client{
		ClientName:  input.ClientName,
		ClientPhone: input.ClientPhone,
		ClientEmail: input.ClientEmail,
	}
	if err := tx.Create(&client).Error; err != nil {
		return 0, fmt.Errorf("failed to create client: %w", err)
	}
	return client.ID, nil
}

// createItem validates one item input against its product, persists the item
// row, then attaches the option and finish associations. Associations need
// the item's primary key, so the row is always created first.
func (s *OrderService) createItem(tx *gorm.DB, order *models.Order, input OrderItemInput) (*models.OrderItem, error) {
	product, err := loadProductForValidation(tx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if err := validateItemInput(product, input); err != nil {
		return nil, err
	}

	item := models.OrderItem{
		OrderID:         order.ID,
		ProductID:       product.ID,
		BasePrice:       input.BasePrice,
		Discount:        input.Discount,
		ItemValue:       ItemValue(input.BasePrice, input.Discount),
		ProductFinishID: input.ProductFinishID,
		ItemStatus:      models.StatusNotStarted,
		PriorityLevel:   input.PriorityLevel,
		Completed:       ItemCompleted(models.StatusNotStarted, order.Paid),
	}
	if item.PriorityLevel == 0 {
		item.PriorityLevel = models.PriorityLow
	}

	if err := tx.Omit(clause.Associations).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to create order item: %w", err)
	}

	// The row has an ID now, attach the many-to-many option values
	if len(input.OptionValueIDs) > 0 {
		var optionValues []models.OptionValue
		if err := tx.Find(&optionValues, input.OptionValueIDs).Error; err != nil {
			return nil, err
		}
		if err := tx.Model(&item).Association("OptionValues").Append(optionValues); err != nil {
			return nil, fmt.Errorf("failed to attach option values: %w", err)
		}
	}

	for _, cf := range input.ComponentFinishes {
		row := models.ComponentFinish{
			OrderItemID:    item.ID,
			ComponentID:    cf.ComponentID,
			FinishOptionID: cf.FinishOptionID,
		}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return nil, fmt.Errorf("failed to create component finish: %w", err)
		}
	}

	return &item, nil
}

// deleteItem removes an item row together with its association rows
func (s *OrderService) deleteItem(tx *gorm.DB, item *models.OrderItem) error {
	if err := tx.Model(item).Association("OptionValues").Clear(); err != nil {
		return fmt.Errorf("failed to clear option values: %w", err)
	}
	if err := tx.Where("order_item_id = ?", item.ID).Delete(&models.ComponentFinish{}).Error; err != nil {
		return fmt.Errorf("failed to delete component finishes: %w", err)
	}
	if err := tx.Delete(item).Error; err != nil {
		return fmt.Errorf("failed to delete order item: %w", err)
	}
	return nil
}

// recomputeOrder brings the parent order's derived fields back in line with
// its current items. Totals are skipped for an empty item set; the status is
// persisted through a narrow single-column update and only when it actually
// changed, so the write triggers no further side effects. Returns whether
// the order status changed.
func (s *OrderService) recomputeOrder(tx *gorm.DB, orderID uint) (bool, error) {
	var order models.Order
	if err := tx.First(&order, orderID).Error; err != nil {
		return false, err
	}

	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return false, err
	}

	if len(items) > 0 {
		ApplyOrderTotals(&order, items)
		if err := tx.Model(&order).
			Select("discount", "order_value").
			Updates(map[string]interface{}{
				"discount":    order.Discount,
				"order_value": order.OrderValue,
			}).Error; err != nil {
			return false, fmt.Errorf("failed to update order totals: %w", err)
		}
	}

	statuses := make([]models.Status, len(items))
	for i := range items {
		statuses[i] = items[i].ItemStatus
	}

	newStatus := DeriveOrderStatus(statuses)
	if newStatus == order.OrderStatus {
		return false, nil
	}
	if err := tx.Model(&order).UpdateColumn("order_status", newStatus).Error; err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	return true, nil
}

// loadProductForValidation loads a product with every association needed to
// validate an item input against it.
func loadProductForValidation(tx *gorm.DB, productID uint) (*models.Product, error) {
	if productID == 0 {
		return nil, fmt.Errorf("%w: product is required", ErrValidation)
	}

	var product models.Product
	err := tx.Preload("Options.Values").
		Preload("Finishes.Options").
		Preload("Components").
		First(&product, productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d does not exist", ErrValidation, productID)
		}
		return nil, err
	}
	return &product, nil
}

// validateItemInput checks value ranges and that every referenced option
// value, finish option and component belongs to the item's product.
func validateItemInput(product *models.Product, input OrderItemInput) error {
	if input.BasePrice < 0 {
		return fmt.Errorf("%w: base_price must not be negative", ErrValidation)
	}
	if input.Discount != nil && *input.Discount < 0 {
		return fmt.Errorf("%w: discount must not be negative", ErrValidation)
	}
	if input.PriorityLevel != 0 && !input.PriorityLevel.Valid() {
		return fmt.Errorf("%w: invalid priority level %d", ErrValidation, input.PriorityLevel)
	}

	optionValueIDs := make(map[uint]bool)
	for _, opt := range product.Options {
		for _, v := range opt.Values {
			optionValueIDs[v.ID] = true
		}
	}
	finishOptionIDs := make(map[uint]bool)
	for _, f := range product.Finishes {
		for _, fo := range f.Options {
			finishOptionIDs[fo.ID] = true
		}
	}
	componentIDs := make(map[uint]bool)
	for _, c := range product.Components {
		componentIDs[c.ID] = true
	}

	for _, id := range input.OptionValueIDs {
		if !optionValueIDs[id] {
			return fmt.Errorf("%w: option value %d does not belong to product %q",
				ErrValidation, id, product.Name)
		}
	}
	if input.ProductFinishID != nil && !finishOptionIDs[*input.ProductFinishID] {
		return fmt.Errorf("%w: finish option %d does not belong to product %q",
			ErrValidation, *input.ProductFinishID, product.Name)
	}
	for _, cf := range input.ComponentFinishes {
		if !componentIDs[cf.ComponentID] {
			return fmt.Errorf("%w: component %d does not belong to product %q",
				ErrValidation, cf.ComponentID, product.Name)
		}
		if !finishOptionIDs[cf.FinishOptionID] {
			return fmt.Errorf("%w: finish option %d does not belong to product %q",
				ErrValidation, cf.FinishOptionID, product.Name)
		}
	}

	return nil
}

// validateItemUpdate checks value ranges on a partial item update
func validateItemUpdate(update OrderItemUpdate) error {
	if update.ItemStatus != nil && !update.ItemStatus.Valid() {
		return fmt.Errorf("%w: invalid item status %d", ErrValidation, *update.ItemStatus)
	}
	if update.PriorityLevel != nil && !update.PriorityLevel.Valid() {
		return fmt.Errorf("%w: invalid priority level %d", ErrValidation, *update.PriorityLevel)
	}
	if update.BasePrice != nil && *update.BasePrice < 0 {
		return fmt.Errorf("%w: base_price must not be negative", ErrValidation)
	}
	if update.Discount != nil && *update.Discount < 0 {
		return fmt.Errorf("%w: discount must not be negative", ErrValidation)
	}
	return nil
}

// publish sends an event for an already loaded order, best-effort
func (s *OrderService) publish(ctx context.Context, order models.Order, eventType string) {
	if s.events == nil {
		return
	}

	var err error
	switch eventType {
	case EventOrderSubmitted:
		err = s.events.PublishOrderSubmitted(ctx, order)
	case EventOrderStatusChanged:
		err = s.events.PublishOrderStatusChanged(ctx, order)
	case EventOrderPaidChanged:
		err = s.events.PublishOrderPaidChanged(ctx, order)
	}
	if err != nil {
		log.Printf("failed to publish %s event for order %d: %v", eventType, order.ID, err)
	}
}

// publishByID reloads the order before publishing, best-effort
func (s *OrderService) publishByID(ctx context.Context, orderID uint, eventType string) {
	if s.events == nil {
		return
	}

	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		log.Printf("failed to load order %d for %s event: %v", orderID, eventType, err)
		return
	}
	s.publish(ctx, order, eventType)
}
