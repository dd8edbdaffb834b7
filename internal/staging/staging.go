// Package staging defines the first transformation layer: one view per raw
// table, normalizing names and types and deriving per-row flags. Row
// cardinality is preserved everywhere except geolocation, which collapses
// repeated coordinate observations.
package staging

import (
	"fmt"

	"github.com/datakite/olist-warehouse/internal/warehouse"
	"github.com/datakite/olist-warehouse/pkg/enums"
)

// Relation names produced by this layer.
const (
	Customers   = "stg_customers"
	Orders      = "stg_orders"
	OrderItems  = "stg_order_items"
	Payments    = "stg_payments"
	Reviews     = "stg_reviews"
	Products    = "stg_products"
	Sellers     = "stg_sellers"
	Geolocation = "stg_geolocation"
)

// Raw contract relations this layer reads.
const (
	rawCustomers           = "raw_customers"
	rawOrders              = "raw_orders"
	rawOrderItems          = "raw_order_items"
	rawOrderPayments       = "raw_order_payments"
	rawOrderReviews        = "raw_order_reviews"
	rawProducts            = "raw_products"
	rawSellers             = "raw_sellers"
	rawGeolocation         = "raw_geolocation"
	rawCategoryTranslation = "raw_category_translation"
)

// Units returns the staging layer's transformation units.
func Units() []warehouse.Unit {
	return []warehouse.Unit{
		{
			Name:            Customers,
			Layer:           enums.LayerStaging,
			Materialization: enums.MaterializationView,
			DependsOn:       []string{rawCustomers},
			SQL:             func(warehouse.BuildContext) string { return customersSQL },
		},
		{
			Name:            Orders,
			Layer:           enums.LayerStaging,
			Materialization: enums.MaterializationView,
			DependsOn:       []string{rawOrders},
			SQL:             ordersSQL,
		},
		{
			Name:            OrderItems,
			Layer:           enums.LayerStaging,
			Materialization: enums.MaterializationView,
			DependsOn:       []string{rawOrderItems},
			SQL:             func(warehouse.BuildContext) string { return orderItemsSQL },
		},
		{
			Name:            Payments,
			Layer:           enums.LayerStaging,
			Materialization: enums.MaterializationView,
			DependsOn:       []string{rawOrderPayments},
			SQL:             func(warehouse.BuildContext) string { return paymentsSQL },
		},
		{
			Name:            Reviews,
			Layer:           enums.LayerStaging,
			Materialization: enums.MaterializationView,
			DependsOn:       []string{rawOrderReviews},
			SQL:             func(warehouse.BuildContext) string { return reviewsSQL },
		},
		{
			Name:            Products,
			Layer:           enums.LayerStaging,
			Materialization: enums.MaterializationView,
			DependsOn:       []string{rawProducts, rawCategoryTranslation},
			SQL:             func(warehouse.BuildContext) string { return productsSQL },
		},
		{
			Name:            Sellers,
			Layer:           enums.LayerStaging,
			Materialization: enums.MaterializationView,
			DependsOn:       []string{rawSellers},
			SQL:             func(warehouse.BuildContext) string { return sellersSQL },
		},
		{
			Name:            Geolocation,
			Layer:           enums.LayerStaging,
			Materialization: enums.MaterializationView,
			DependsOn:       []string{rawGeolocation},
			SQL:             func(warehouse.BuildContext) string { return geolocationSQL },
		},
	}
}

const customersSQL = `
SELECT
    customer_id,
    customer_unique_id,
    customer_zip_code_prefix,
    customer_city,
    customer_state
FROM raw_customers`

// ordersSQL derives the delivery delay as estimated minus actual delivery,
// so a negative delay means the order arrived after the promised date. Both
// the delay and the late flag stay null/false until the order is delivered.
func ordersSQL(bc warehouse.BuildContext) string {
	delay := bc.Dialect.DateDiffDays("order_estimated_delivery_date", "order_delivered_customer_date")
	return fmt.Sprintf(`
SELECT
    order_id,
    customer_id,
    order_status,
    order_purchase_timestamp AS purchased_at,
    order_approved_at AS approved_at,
    order_delivered_carrier_date AS delivered_to_carrier_at,
    order_delivered_customer_date AS delivered_at,
    order_estimated_delivery_date AS estimated_delivery_at,
    CASE
        WHEN order_delivered_customer_date IS NULL THEN NULL
        ELSE %s
    END AS delivery_delay_days,
    CASE
        WHEN order_delivered_customer_date IS NULL THEN FALSE
        WHEN %s < 0 THEN TRUE
        ELSE FALSE
    END AS is_late_delivery
FROM raw_orders`, delay, delay)
}

const orderItemsSQL = `
SELECT
    order_id,
    order_item_id,
    product_id,
    seller_id,
    shipping_limit_date,
    price,
    freight_value,
    price + freight_value AS total_item_value
FROM raw_order_items`

const paymentsSQL = `
SELECT
    order_id,
    payment_sequential,
    payment_type,
    payment_installments,
    payment_value,
    CASE WHEN payment_installments > 1 THEN TRUE ELSE FALSE END AS is_installment
FROM raw_order_payments`

const reviewsSQL = `
SELECT
    review_id,
    order_id,
    review_score,
    review_comment_title,
    review_comment_message,
    review_creation_date AS review_created_at,
    review_answer_timestamp AS review_answered_at,
    CASE
        WHEN review_score >= 4 THEN 'Positive'
        WHEN review_score = 3 THEN 'Neutral'
        ELSE 'Negative'
    END AS review_sentiment,
    CASE
        WHEN review_comment_message IS NOT NULL
             AND TRIM(review_comment_message) <> '' THEN TRUE
        ELSE FALSE
    END AS has_comment
FROM raw_order_reviews`

// productsSQL resolves the category through the translation lookup; rows with
// no category or no translation surface as 'Unknown'. Volume multiplication
// propagates null when any dimension is missing.
const productsSQL = `
SELECT
    p.product_id,
    p.product_category_name,
    COALESCE(t.product_category_name_english, 'Unknown') AS product_category,
    CASE
        WHEN t.product_category_name_english IS NULL THEN TRUE
        ELSE FALSE
    END AS is_missing_category,
    p.product_name_lenght AS product_name_length,
    p.product_description_lenght AS product_description_length,
    p.product_photos_qty,
    p.product_weight_g,
    p.product_length_cm,
    p.product_height_cm,
    p.product_width_cm,
    p.product_length_cm * p.product_height_cm * p.product_width_cm AS product_volume_cm3
FROM raw_products p
LEFT JOIN raw_category_translation t
    ON p.product_category_name = t.product_category_name`

const sellersSQL = `
SELECT
    seller_id,
    seller_zip_code_prefix,
    seller_city,
    seller_state
FROM raw_sellers`

// geolocationSQL keeps city and state in the grouping key, so one zip prefix
// with several spellings yields several rows.
const geolocationSQL = `
SELECT
    geolocation_zip_code_prefix AS zip_code_prefix,
    geolocation_city AS city,
    geolocation_state AS state,
    AVG(geolocation_lat) AS latitude,
    AVG(geolocation_lng) AS longitude,
    COUNT(*) AS observation_count
FROM raw_geolocation
GROUP BY geolocation_zip_code_prefix, geolocation_city, geolocation_state`
