package marts

import (
	"fmt"

	"github.com/datakite/olist-warehouse/internal/warehouse"
)

// fctOrdersSQL assembles one row per order. Leg durations are plain date
// differences that stay null whenever an input timestamp is null, so
// undelivered orders never read as zero-day deliveries. An order's review is
// the latest by creation timestamp with review_id as the tie-break.
func fctOrdersSQL(bc warehouse.BuildContext) string {
	daysToCarrier := bc.Dialect.DateDiffDays("o.delivered_to_carrier_at", "o.purchased_at")
	daysInTransit := bc.Dialect.DateDiffDays("o.delivered_at", "o.delivered_to_carrier_at")
	daysToCustomer := bc.Dialect.DateDiffDays("o.delivered_at", "o.purchased_at")

	return fmt.Sprintf(`
WITH order_items_agg AS (
    SELECT
        order_id,
        COUNT(*) AS total_items,
        COUNT(DISTINCT seller_id) AS distinct_sellers,
        SUM(price) AS order_revenue,
        SUM(freight_value) AS order_freight
    FROM stg_order_items
    GROUP BY order_id
),

order_payments_agg AS (
    SELECT
        order_id,
        SUM(payment_value) AS payment_total,
        MAX(payment_installments) AS max_installments,
        COUNT(*) AS payment_count
    FROM stg_payments
    GROUP BY order_id
),

order_latest_review AS (
    SELECT order_id, review_score, review_sentiment
    FROM (
        SELECT
            order_id,
            review_score,
            review_sentiment,
            ROW_NUMBER() OVER (
                PARTITION BY order_id
                ORDER BY review_created_at DESC, review_id DESC
            ) AS review_rank
        FROM stg_reviews
    ) ranked
    WHERE review_rank = 1
)

SELECT
    o.order_id AS order_key,
    c.customer_unique_id AS customer_key,
    o.customer_id,
    o.order_status,
    o.purchased_at,
    o.approved_at,
    o.delivered_to_carrier_at,
    o.delivered_at,
    o.estimated_delivery_at,
    o.delivery_delay_days,
    o.is_late_delivery,
    %s AS days_to_carrier,
    %s AS days_in_transit,
    %s AS days_to_customer,
    COALESCE(i.total_items, 0) AS total_items,
    CASE
        WHEN COALESCE(i.distinct_sellers, 0) > 1 THEN TRUE
        ELSE FALSE
    END AS is_multi_seller,
    COALESCE(i.order_revenue, 0) AS order_revenue,
    COALESCE(i.order_freight, 0) AS order_freight,
    COALESCE(i.order_revenue, 0) + COALESCE(i.order_freight, 0) AS total_order_value,
    COALESCE(p.payment_total, 0) AS payment_total,
    p.max_installments,
    COALESCE(p.payment_count, 0) AS payment_count,
    r.review_score,
    r.review_sentiment,
    CURRENT_TIMESTAMP AS materialized_at
FROM stg_orders o
INNER JOIN stg_customers c ON o.customer_id = c.customer_id
LEFT JOIN order_items_agg i ON o.order_id = i.order_id
LEFT JOIN order_payments_agg p ON o.order_id = p.order_id
LEFT JOIN order_latest_review r ON o.order_id = r.order_id
ORDER BY o.order_id`, daysToCarrier, daysInTransit, daysToCustomer)
}

// fctOrderItemsSQL keeps one row per line item at display grain, with the
// parent order's status and timestamps denormalized onto every line.
const fctOrderItemsSQL = `
SELECT
    i.order_id AS order_key,
    i.order_item_id,
    i.product_id AS product_key,
    i.seller_id AS seller_key,
    c.customer_unique_id AS customer_key,
    i.price,
    i.freight_value,
    i.total_item_value,
    i.shipping_limit_date,
    o.order_status,
    o.purchased_at,
    o.delivered_at,
    o.estimated_delivery_at,
    o.is_late_delivery,
    CURRENT_TIMESTAMP AS materialized_at
FROM stg_order_items i
INNER JOIN stg_orders o ON i.order_id = o.order_id
INNER JOIN stg_customers c ON o.customer_id = c.customer_id
ORDER BY i.order_id, i.order_item_id`
