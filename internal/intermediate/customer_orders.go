package intermediate

import (
	"fmt"

	"github.com/datakite/olist-warehouse/internal/warehouse"
)

// customerOrdersSQL rolls orders up to the stable customer identity
// (customer_unique_id). Monetary and delivery aggregates count delivered
// orders only; order counts and recency run over every order regardless of
// status. An order's review is the latest one by creation timestamp, with
// review_id as the deterministic tie-break. Display location uses MAX() so
// reruns pick the same row.
func customerOrdersSQL(bc warehouse.BuildContext) string {
	reference := fmt.Sprintf("'%s'", bc.ReferenceDate)
	daysSinceLast := bc.Dialect.DateDiffDays(reference, "MAX(purchased_at)")

	return fmt.Sprintf(`
WITH order_items_agg AS (
    SELECT
        order_id,
        SUM(price) AS items_revenue,
        SUM(freight_value) AS items_freight,
        COUNT(*) AS item_count
    FROM stg_order_items
    GROUP BY order_id
),

order_payments_agg AS (
    SELECT
        order_id,
        SUM(payment_value) AS payment_total,
        MAX(payment_installments) AS max_installments
    FROM stg_payments
    GROUP BY order_id
),

order_latest_review AS (
    SELECT order_id, review_score
    FROM (
        SELECT
            order_id,
            review_score,
            ROW_NUMBER() OVER (
                PARTITION BY order_id
                ORDER BY review_created_at DESC, review_id DESC
            ) AS review_rank
        FROM stg_reviews
    ) ranked
    WHERE review_rank = 1
),

orders_enriched AS (
    SELECT
        o.order_id,
        o.order_status,
        o.purchased_at,
        o.delivery_delay_days,
        o.is_late_delivery,
        c.customer_unique_id,
        c.customer_city,
        c.customer_state,
        c.customer_zip_code_prefix,
        COALESCE(i.items_revenue, 0) AS order_revenue,
        COALESCE(i.items_freight, 0) AS order_freight,
        COALESCE(i.item_count, 0) AS order_item_count,
        COALESCE(p.payment_total, 0) AS payment_total,
        r.review_score
    FROM stg_orders o
    INNER JOIN stg_customers c ON o.customer_id = c.customer_id
    LEFT JOIN order_items_agg i ON o.order_id = i.order_id
    LEFT JOIN order_payments_agg p ON o.order_id = p.order_id
    LEFT JOIN order_latest_review r ON o.order_id = r.order_id
)

SELECT
    customer_unique_id,
    MAX(customer_city) AS customer_city,
    MAX(customer_state) AS customer_state,
    MAX(customer_zip_code_prefix) AS customer_zip_code_prefix,
    COUNT(*) AS total_orders,
    SUM(CASE WHEN order_status = 'delivered' THEN 1 ELSE 0 END) AS delivered_orders,
    SUM(CASE WHEN order_status = 'canceled' THEN 1 ELSE 0 END) AS canceled_orders,
    SUM(CASE WHEN order_status = 'delivered' THEN order_revenue ELSE 0 END) AS total_revenue,
    SUM(CASE WHEN order_status = 'delivered' THEN order_freight ELSE 0 END) AS total_freight,
    SUM(CASE WHEN order_status = 'delivered' THEN payment_total ELSE 0 END) AS total_payment_value,
    SUM(CASE WHEN order_status = 'delivered' THEN order_item_count ELSE 0 END) AS total_items,
    AVG(CASE WHEN order_status = 'delivered' THEN order_revenue END) AS avg_order_value,
    AVG(CASE WHEN order_status = 'delivered' THEN delivery_delay_days END) AS avg_delivery_delay_days,
    SUM(CASE WHEN order_status = 'delivered' AND is_late_delivery THEN 1 ELSE 0 END) AS late_deliveries,
    AVG(review_score) AS avg_review_score,
    MIN(purchased_at) AS first_order_at,
    MAX(purchased_at) AS last_order_at,
    %s AS days_since_last_order
FROM orders_enriched
GROUP BY customer_unique_id
ORDER BY customer_unique_id`, daysSinceLast)
}
