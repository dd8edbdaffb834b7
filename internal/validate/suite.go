package validate

import (
	"github.com/datakite/olist-warehouse/internal/intermediate"
	"github.com/datakite/olist-warehouse/internal/marts"
	"github.com/datakite/olist-warehouse/pkg/enums"
)

// DefaultChecks is the standing data-quality suite run after a full build:
// primary-key uniqueness, label-set membership, RFM arithmetic, delivery
// invariants and fact-to-dimension referential integrity.
func DefaultChecks() []Check {
	segments := make([]string, len(enums.CustomerSegments))
	for i, s := range enums.CustomerSegments {
		segments[i] = string(s)
	}
	sellerTiers := make([]string, len(enums.SellerSalesTiers))
	for i, s := range enums.SellerSalesTiers {
		sellerTiers[i] = string(s)
	}
	productTiers := make([]string, len(enums.ProductSalesTiers))
	for i, s := range enums.ProductSalesTiers {
		productTiers[i] = string(s)
	}
	reviewTiers := make([]string, len(enums.ReviewTiers))
	for i, s := range enums.ReviewTiers {
		reviewTiers[i] = string(s)
	}

	return []Check{
		{
			Name:     "dim_customers_key_unique",
			Relation: marts.DimCustomers,
			Kind:     KindUnique,
			Column:   "customer_key",
		},
		{
			Name:     "dim_customers_key_not_null",
			Relation: marts.DimCustomers,
			Kind:     KindNotNull,
			Column:   "customer_key",
		},
		{
			Name:     "dim_products_key_unique",
			Relation: marts.DimProducts,
			Kind:     KindUnique,
			Column:   "product_key",
		},
		{
			Name:     "dim_sellers_key_unique",
			Relation: marts.DimSellers,
			Kind:     KindUnique,
			Column:   "seller_key",
		},
		{
			Name:     "fct_orders_key_unique",
			Relation: marts.FctOrders,
			Kind:     KindUnique,
			Column:   "order_key",
		},
		{
			Name:     "customer_segment_label_set",
			Relation: marts.DimCustomers,
			Kind:     KindAcceptedValues,
			Column:   "customer_segment",
			Values:   segments,
		},
		{
			Name:     "order_status_label_set",
			Relation: marts.FctOrders,
			Kind:     KindAcceptedValues,
			Column:   "order_status",
			Values: []string{
				string(enums.OrderStatusCreated),
				string(enums.OrderStatusApproved),
				string(enums.OrderStatusInvoiced),
				string(enums.OrderStatusProcessing),
				string(enums.OrderStatusShipped),
				string(enums.OrderStatusDelivered),
				string(enums.OrderStatusCanceled),
				string(enums.OrderStatusUnavailable),
			},
		},
		{
			Name:     "customer_tier_label_set",
			Relation: marts.DimCustomers,
			Kind:     KindAcceptedValues,
			Column:   "customer_tier",
			Values: []string{
				string(enums.CustomerTierHigh),
				string(enums.CustomerTierMedium),
				string(enums.CustomerTierLow),
			},
		},
		{
			Name:     "seller_sales_tier_label_set",
			Relation: marts.DimSellers,
			Kind:     KindAcceptedValues,
			Column:   "sales_tier",
			Values:   sellerTiers,
		},
		{
			Name:     "product_sales_tier_label_set",
			Relation: marts.DimProducts,
			Kind:     KindAcceptedValues,
			Column:   "sales_tier",
			Values:   productTiers,
		},
		{
			Name:     "seller_review_tier_label_set",
			Relation: marts.DimSellers,
			Kind:     KindAcceptedValues,
			Column:   "review_tier",
			Values:   reviewTiers,
		},
		{
			Name:     "product_review_tier_label_set",
			Relation: marts.DimProducts,
			Kind:     KindAcceptedValues,
			Column:   "review_tier",
			Values:   reviewTiers,
		},
		{
			Name:     "review_sentiment_label_set",
			Relation: marts.FctOrders,
			Kind:     KindAcceptedValues,
			Column:   "review_sentiment",
			Values: []string{
				string(enums.SentimentPositive),
				string(enums.SentimentNeutral),
				string(enums.SentimentNegative),
			},
		},
		{
			Name:       "rfm_score_is_component_sum",
			Relation:   intermediate.RFMScores,
			Kind:       KindExpression,
			Expression: "recency_score + frequency_score + monetary_score <> rfm_score",
		},
		{
			Name:     "rfm_string_is_score_concat",
			Relation: intermediate.RFMScores,
			Kind:     KindExpression,
			Expression: "rfm_string <> CAST(recency_score AS TEXT) " +
				"|| CAST(frequency_score AS TEXT) || CAST(monetary_score AS TEXT)",
		},
		{
			Name:       "rfm_only_positive_revenue",
			Relation:   intermediate.RFMScores,
			Kind:       KindExpression,
			Expression: "total_revenue <= 0",
		},
		{
			Name:       "delivered_orders_have_delivery_timestamp",
			Relation:   marts.FctOrders,
			Kind:       KindExpression,
			Expression: "order_status = 'delivered' AND delivered_at IS NULL",
		},
		{
			Name:       "delivery_not_before_purchase",
			Relation:   marts.FctOrders,
			Kind:       KindExpression,
			Expression: "delivered_at IS NOT NULL AND delivered_at < purchased_at",
		},
		{
			Name:       "fct_orders_customer_fk",
			Relation:   marts.FctOrders,
			Kind:       KindRelationship,
			Column:     "customer_key",
			ToRelation: marts.DimCustomers,
			ToColumn:   "customer_key",
		},
		{
			Name:       "fct_order_items_product_fk",
			Relation:   marts.FctOrderItems,
			Kind:       KindRelationship,
			Column:     "product_key",
			ToRelation: marts.DimProducts,
			ToColumn:   "product_key",
		},
		{
			Name:       "fct_order_items_seller_fk",
			Relation:   marts.FctOrderItems,
			Kind:       KindRelationship,
			Column:     "seller_key",
			ToRelation: marts.DimSellers,
			ToColumn:   "seller_key",
		},
	}
}
