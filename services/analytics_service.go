package services

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/slotted-need/slotted-need-api/models"
)

// ChartData is the label/value pairing the dashboard charts consume
type ChartData struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// RevenueFilter narrows the product revenue aggregation
type RevenueFilter struct {
	RevenueMin *float64
	RevenueMax *float64
	DateFrom   *time.Time
	DateTo     *time.Time
}

// AnalyticsService aggregates order item data for the dashboard
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService creates an analytics service on the given database
// handle
func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

type chartRow struct {
	Label string
	Value float64
}

// ProductRevenue sums item values per product, descending by revenue.
// Products without matching items are listed with zero revenue; the revenue
// bounds are applied to the aggregated value.
func (s *AnalyticsService) ProductRevenue(ctx context.Context, filter RevenueFilter) (*ChartData, error) {
	query := s.db.WithContext(ctx).Table("products").
		Joins("LEFT JOIN order_items ON order_items.product_id = products.id").
		Joins("LEFT JOIN orders ON orders.id = order_items.order_id").
		Group("products.id, products.name").
		Order("value DESC, products.name ASC")

	// Date bounds go into the aggregate itself so out-of-range products
	// still appear with zero revenue
	switch {
	case filter.DateFrom != nil && filter.DateTo != nil:
		query = query.Select(
			"products.name AS label, COALESCE(SUM(CASE WHEN orders.created_at >= ? AND orders.created_at <= ? THEN order_items.item_value END), 0) AS value",
			*filter.DateFrom, *filter.DateTo)
	case filter.DateFrom != nil:
		query = query.Select(
			"products.name AS label, COALESCE(SUM(CASE WHEN orders.created_at >= ? THEN order_items.item_value END), 0) AS value",
			*filter.DateFrom)
	case filter.DateTo != nil:
		query = query.Select(
			"products.name AS label, COALESCE(SUM(CASE WHEN orders.created_at <= ? THEN order_items.item_value END), 0) AS value",
			*filter.DateTo)
	default:
		query = query.Select("products.name AS label, COALESCE(SUM(order_items.item_value), 0) AS value")
	}

	var rows []chartRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	data := &ChartData{Labels: []string{}, Values: []float64{}}
	for _, row := range rows {
		if filter.RevenueMin != nil && row.Value < *filter.RevenueMin {
			continue
		}
		if filter.RevenueMax != nil && row.Value > *filter.RevenueMax {
			continue
		}
		data.Labels = append(data.Labels, row.Label)
		data.Values = append(data.Values, row.Value)
	}
	return data, nil
}

// DebtorBalances sums outstanding order values per client across orders that
// are not fully paid, descending by balance.
func (s *AnalyticsService) DebtorBalances(ctx context.Context) (*ChartData, error) {
	var rows []chartRow
	err := s.db.WithContext(ctx).Table("clients").
		Select("clients.client_name AS label, COALESCE(SUM(orders.order_value), 0) AS value").
		Joins("JOIN orders ON orders.client_id = clients.id").
		Where("orders.paid = ?", models.PaidNotPaid).
		Group("clients.id, clients.client_name").
		Order("value DESC, clients.client_name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	data := &ChartData{Labels: []string{}, Values: []float64{}}
	for _, row := range rows {
		data.Labels = append(data.Labels, row.Label)
		data.Values = append(data.Values, row.Value)
	}
	return data, nil
}

// ItemStatusCounts counts items per status, excluding items on archived
// orders. Every status is present in the result, zero counts included.
func (s *AnalyticsService) ItemStatusCounts(ctx context.Context) (*ChartData, error) {
	type statusCount struct {
		ItemStatus models.Status
		Count      int64
	}

	var counts []statusCount
	err := s.db.WithContext(ctx).Table("order_items").
		Select("order_items.item_status AS item_status, COUNT(order_items.id) AS count").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.archived = ?", false).
		Group("order_items.item_status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	byStatus := make(map[models.Status]int64, len(counts))
	for _, c := range counts {
		byStatus[c.ItemStatus] = c.Count
	}

	data := &ChartData{Labels: []string{}, Values: []float64{}}
	for _, code := range models.StatusCodes {
		data.Labels = append(data.Labels, code.Label())
		data.Values = append(data.Values, float64(byStatus[code]))
	}
	return data, nil
}

// ConfigurationCounts groups items that are not completed by their
// configuration signature, descending by count. Two items count together
// only when their product, option values and finishes are identical.
func (s *AnalyticsService) ConfigurationCounts(ctx context.Context) (*ChartData, error) {
	var items []models.OrderItem
	err := s.db.WithContext(ctx).
		Where("completed = ?", false).
		Preload("Product").
		Preload("OptionValues").
		Preload("ProductFinish").
		Preload("ComponentFinishes.FinishOption").
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]float64)
	for i := range items {
		counts[items[i].ConfigurationSignature()]++
	}

	signatures := make([]string, 0, len(counts))
	for sig := range counts {
		signatures = append(signatures, sig)
	}
	sort.Slice(signatures, func(i, j int) bool {
		if counts[signatures[i]] != counts[signatures[j]] {
			return counts[signatures[i]] > counts[signatures[j]]
		}
		return signatures[i] < signatures[j]
	})

	data := &ChartData{Labels: []string{}, Values: []float64{}}
	for _, sig := range signatures {
		data.Labels = append(data.Labels, sig)
		data.Values = append(data.Values, counts[sig])
	}
	return data, nil
}
