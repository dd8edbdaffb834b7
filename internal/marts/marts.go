// Package marts defines the star schema consumed by dashboards and
// downstream scoring: three dimensions and two facts, each a persisted table
// stamped with a materialization timestamp and ordered on its stable key so
// rebuilds from unchanged inputs are byte-identical.
package marts

import (
	"github.com/datakite/olist-warehouse/internal/intermediate"
	"github.com/datakite/olist-warehouse/internal/staging"
	"github.com/datakite/olist-warehouse/internal/warehouse"
	"github.com/datakite/olist-warehouse/pkg/enums"
)

// Relation names produced by this layer.
const (
	DimCustomers  = "dim_customers"
	DimProducts   = "dim_products"
	DimSellers    = "dim_sellers"
	FctOrders     = "fct_orders"
	FctOrderItems = "fct_order_items"
)

// Units returns the mart layer's transformation units.
func Units() []warehouse.Unit {
	return []warehouse.Unit{
		{
			Name:            DimCustomers,
			Layer:           enums.LayerMart,
			Materialization: enums.MaterializationTable,
			DependsOn: []string{
				staging.Customers,
				intermediate.CustomerOrders,
				intermediate.RFMScores,
			},
			SQL: func(warehouse.BuildContext) string { return dimCustomersSQL },
		},
		{
			Name:            DimProducts,
			Layer:           enums.LayerMart,
			Materialization: enums.MaterializationTable,
			DependsOn:       []string{intermediate.ProductPerformance},
			SQL:             func(warehouse.BuildContext) string { return dimProductsSQL },
		},
		{
			Name:            DimSellers,
			Layer:           enums.LayerMart,
			Materialization: enums.MaterializationTable,
			DependsOn:       []string{intermediate.SellerPerformance},
			SQL:             func(warehouse.BuildContext) string { return dimSellersSQL },
		},
		{
			Name:            FctOrders,
			Layer:           enums.LayerMart,
			Materialization: enums.MaterializationTable,
			DependsOn: []string{
				staging.Orders,
				staging.Customers,
				staging.OrderItems,
				staging.Payments,
				staging.Reviews,
			},
			SQL: fctOrdersSQL,
		},
		{
			Name:            FctOrderItems,
			Layer:           enums.LayerMart,
			Materialization: enums.MaterializationTable,
			DependsOn: []string{
				staging.OrderItems,
				staging.Orders,
				staging.Customers,
			},
			SQL: func(warehouse.BuildContext) string { return fctOrderItemsSQL },
		},
	}
}
