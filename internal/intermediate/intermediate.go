// Package intermediate defines the aggregation layer: persisted tables built
// over the staging views. Every unit aggregates from a driving relation with
// left joins so entities without children still appear with zero or null
// aggregates.
package intermediate

import (
	"github.com/datakite/olist-warehouse/internal/staging"
	"github.com/datakite/olist-warehouse/internal/warehouse"
	"github.com/datakite/olist-warehouse/pkg/enums"
)

// Relation names produced by this layer.
const (
	CustomerOrders     = "int_customer_orders"
	SellerPerformance  = "int_seller_performance"
	ProductPerformance = "int_product_performance"
	RFMScores          = "int_rfm_scores"
)

// Units returns the intermediate layer's transformation units.
func Units() []warehouse.Unit {
	return []warehouse.Unit{
		{
			Name:            CustomerOrders,
			Layer:           enums.LayerIntermediate,
			Materialization: enums.MaterializationTable,
			DependsOn: []string{
				staging.Customers,
				staging.Orders,
				staging.OrderItems,
				staging.Payments,
				staging.Reviews,
			},
			SQL: customerOrdersSQL,
		},
		{
			Name:            SellerPerformance,
			Layer:           enums.LayerIntermediate,
			Materialization: enums.MaterializationTable,
			DependsOn: []string{
				staging.Sellers,
				staging.Orders,
				staging.OrderItems,
				staging.Reviews,
			},
			SQL: func(warehouse.BuildContext) string { return sellerPerformanceSQL },
		},
		{
			Name:            ProductPerformance,
			Layer:           enums.LayerIntermediate,
			Materialization: enums.MaterializationTable,
			DependsOn: []string{
				staging.Products,
				staging.Orders,
				staging.OrderItems,
				staging.Reviews,
			},
			SQL: func(warehouse.BuildContext) string { return productPerformanceSQL },
		},
		{
			Name:            RFMScores,
			Layer:           enums.LayerIntermediate,
			Materialization: enums.MaterializationTable,
			DependsOn:       []string{CustomerOrders},
			SQL:             func(warehouse.BuildContext) string { return rfmScoresSQL },
		},
	}
}
