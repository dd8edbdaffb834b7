package validate

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/datakite/olist-warehouse/pkg/db"
)

// Stats is a financial summary of the built marts. Monetary columns scan
// into decimals so CLI output never shows float artifacts.
type Stats struct {
	Orders          int64
	DeliveredOrders int64
	Customers       int64
	ScoredCustomers int64
	Products        int64
	Sellers         int64
	TotalRevenue    decimal.Decimal
	TotalFreight    decimal.Decimal
	AvgOrderValue   decimal.Decimal
}

// CollectStats summarizes the mart layer after a successful build.
func CollectStats(ctx context.Context, client *db.Client) (*Stats, error) {
	stats := &Stats{}

	var counts struct {
		Orders          int64
		DeliveredOrders int64
	}
	if err := client.Raw(ctx, `
		SELECT
		    COUNT(*) AS orders,
		    SUM(CASE WHEN order_status = 'delivered' THEN 1 ELSE 0 END) AS delivered_orders
		FROM fct_orders`).Scan(&counts).Error; err != nil {
		return nil, db.ClassifyError(err, "fct_orders")
	}
	stats.Orders = counts.Orders
	stats.DeliveredOrders = counts.DeliveredOrders

	var customers struct {
		Customers       int64
		ScoredCustomers int64
	}
	if err := client.Raw(ctx, `
		SELECT
		    COUNT(*) AS customers,
		    SUM(CASE WHEN customer_segment IS NOT NULL THEN 1 ELSE 0 END) AS scored_customers
		FROM dim_customers`).Scan(&customers).Error; err != nil {
		return nil, db.ClassifyError(err, "dim_customers")
	}
	stats.Customers = customers.Customers
	stats.ScoredCustomers = customers.ScoredCustomers

	if err := client.Raw(ctx,
		"SELECT COUNT(*) FROM dim_products").Scan(&stats.Products).Error; err != nil {
		return nil, db.ClassifyError(err, "dim_products")
	}
	if err := client.Raw(ctx,
		"SELECT COUNT(*) FROM dim_sellers").Scan(&stats.Sellers).Error; err != nil {
		return nil, db.ClassifyError(err, "dim_sellers")
	}

	var money struct {
		TotalRevenue  decimal.NullDecimal
		TotalFreight  decimal.NullDecimal
		AvgOrderValue decimal.NullDecimal
	}
	if err := client.Raw(ctx, `
		SELECT
		    SUM(CASE WHEN order_status = 'delivered' THEN order_revenue ELSE 0 END) AS total_revenue,
		    SUM(CASE WHEN order_status = 'delivered' THEN order_freight ELSE 0 END) AS total_freight,
		    AVG(CASE WHEN order_status = 'delivered' THEN order_revenue END) AS avg_order_value
		FROM fct_orders`).Scan(&money).Error; err != nil {
		return nil, db.ClassifyError(err, "fct_orders")
	}
	stats.TotalRevenue = money.TotalRevenue.Decimal
	stats.TotalFreight = money.TotalFreight.Decimal
	stats.AvgOrderValue = money.AvgOrderValue.Decimal

	return stats, nil
}
