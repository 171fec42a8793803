package services

import (
	"github.com/slotted-need/slotted-need-api/models"
)

// ItemCompleted derives an item's completed flag: an item is completed only
// when it has been delivered and its order has been fully paid.
func ItemCompleted(itemStatus models.Status, paid models.Paid) bool {
	return itemStatus == models.StatusDelivered && paid == models.PaidFullyPaid
}

// DeriveOrderStatus derives an order's aggregate status from its items'
// statuses. The branches are priority-ordered and the first match wins:
//
//  1. no items               -> Not Started
//  2. all items Not Started  -> Not Started
//  3. all items Delivered    -> Delivered
//  4. all items Made         -> Made
//  5. any item In Progress   -> In Progress
//  6. any other mixture      -> In Progress
//
// This is not a minimum- or maximum-status rule: only an all-same item set
// reports that status, and a mixture without any In Progress item (say Not
// Started plus Made) still reports In Progress through the final branch.
// Callers must not "simplify" the precedence.
func DeriveOrderStatus(statuses []models.Status) models.Status {
	if len(statuses) == 0 {
		return models.StatusNotStarted
	}

	switch {
	case allStatus(statuses, models.StatusNotStarted):
		return models.StatusNotStarted
	case allStatus(statuses, models.StatusDelivered):
		return models.StatusDelivered
	case allStatus(statuses, models.StatusMade):
		return models.StatusMade
	case anyStatus(statuses, models.StatusInProgress):
		return models.StatusInProgress
	default:
		return models.StatusInProgress
	}
}

func allStatus(statuses []models.Status, want models.Status) bool {
	for _, s := range statuses {
		if s != want {
			return false
		}
	}
	return true
}

func anyStatus(statuses []models.Status, want models.Status) bool {
	for _, s := range statuses {
		if s == want {
			return true
		}
	}
	return false
}
