package services

import (
	"github.com/slotted-need/slotted-need-api/models"
)

// ItemValue computes a line item's monetary value from its base price and
// discount. A nil discount counts as zero. The result is not clamped, so a
// discount larger than the base price yields a negative value; inputs are
// validated non-negative before persistence.
func ItemValue(basePrice float64, discount *float64) float64 {
	if discount == nil {
		return basePrice
	}
	return basePrice - *discount
}

// ApplyOrderTotals recalculates order.Discount and order.OrderValue from the
// given items. With no items the stored totals are left untouched so that
// totals are not zeroed while items are still mid-creation.
func ApplyOrderTotals(order *models.Order, items []models.OrderItem) {
	if len(items) == 0 {
		return
	}

	var discount, value float64
	for i := range items {
		if items[i].Discount != nil {
			discount += *items[i].Discount
		}
		value += items[i].ItemValue
	}

	order.Discount = discount
	order.OrderValue = value
}
