package models

import (
	"context"

	"bitbucket.org/mmdatafocus/orders_backend/config"
	"github.com/shopspring/decimal"
)

// OrderStatistics is the aggregate picture the dashboard shows: how many
// orders sit in each status and the combined value of the fulfilled ones.
type OrderStatistics struct {
	SalesOrderCounts    []StatusCount   `json:"sales_order_counts"`
	PurchaseOrderCounts []StatusCount   `json:"purchase_order_counts"`
	FulfilledValue      decimal.Decimal `json:"fulfilled_value"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// CustomerOrderValue is one row of the per-customer breakdown of fulfilled
// order value.
type CustomerOrderValue struct {
	CustomerId   int             `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	OrderCount   int64           `json:"order_count"`
	TotalValue   decimal.Decimal `json:"total_value"`
}

// SumFulfilledSalesOrderValue totals quantity x latest unit price over the
// latest-state lines of every sales order whose history ends in Fulfilled.
// Lines whose part never got a price contribute zero.
func SumFulfilledSalesOrderValue(ctx context.Context) (decimal.Decimal, error) {
	db := config.GetDB()

	var row struct {
		Total decimal.Decimal
	}
	err := db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(sp.quantity_ordered * pp.unit_price), 0) AS total
		FROM sales_orders so
		JOIN sales_order_states st
			ON st.sales_order_id = so.id
			AND st.state_index = (
				SELECT MAX(s2.state_index)
				FROM sales_order_states s2
				WHERE s2.sales_order_id = so.id)
		JOIN sales_order_state_parts sp ON sp.state_id = st.id
		LEFT JOIN part_prices pp
			ON pp.id = (
				SELECT MAX(p2.id)
				FROM part_prices p2
				WHERE p2.part_id = sp.part_id)
		WHERE so.latest_status = ?`, SalesOrderStatusFulfilled).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// GetOrderStatistics derives everything from live rows; nothing here is a
// stored total that could drift from the histories.
func GetOrderStatistics(ctx context.Context) (*OrderStatistics, error) {
	db := config.GetDB()

	var stats OrderStatistics
	err := db.WithContext(ctx).Raw(`
		SELECT latest_status AS status, COUNT(*) AS count
		FROM sales_orders
		GROUP BY latest_status`).Scan(&stats.SalesOrderCounts).Error
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Raw(`
		SELECT latest_status AS status, COUNT(*) AS count
		FROM purchase_orders
		GROUP BY latest_status`).Scan(&stats.PurchaseOrderCounts).Error
	if err != nil {
		return nil, err
	}

	stats.FulfilledValue, err = SumFulfilledSalesOrderValue(ctx)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// GetCustomerOrderValues breaks fulfilled value down by customer, largest
// first. Feeds the exported report.
func GetCustomerOrderValues(ctx context.Context) ([]CustomerOrderValue, error) {
	db := config.GetDB()

	var rows []CustomerOrderValue
	err := db.WithContext(ctx).Raw(`
		SELECT so.customer_id AS customer_id,
			COALESCE(c.name, '') AS customer_name,
			COUNT(DISTINCT so.id) AS order_count,
			COALESCE(SUM(sp.quantity_ordered * pp.unit_price), 0) AS total_value
		FROM sales_orders so
		JOIN sales_order_states st
			ON st.sales_order_id = so.id
			AND st.state_index = (
				SELECT MAX(s2.state_index)
				FROM sales_order_states s2
				WHERE s2.sales_order_id = so.id)
		JOIN sales_order_state_parts sp ON sp.state_id = st.id
		LEFT JOIN part_prices pp
			ON pp.id = (
				SELECT MAX(p2.id)
				FROM part_prices p2
				WHERE p2.part_id = sp.part_id)
		LEFT JOIN customers c ON c.id = so.customer_id
		WHERE so.latest_status = ?
		GROUP BY so.customer_id, c.name
		ORDER BY total_value DESC`, SalesOrderStatusFulfilled).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
