package marts

// dimCustomersSQL carries every known customer identity, scored or not.
// Customers without positive delivered revenue have no RFM row, so their
// segment columns stay null. Display attributes come from the surface record
// with the maximum customer_id, an approximation of "latest" since surface
// records carry no timestamp.
const dimCustomersSQL = `
WITH latest_surface AS (
    SELECT customer_unique_id, customer_id, customer_city, customer_state,
           customer_zip_code_prefix
    FROM (
        SELECT
            customer_unique_id,
            customer_id,
            customer_city,
            customer_state,
            customer_zip_code_prefix,
            ROW_NUMBER() OVER (
                PARTITION BY customer_unique_id
                ORDER BY customer_id DESC
            ) AS surface_rank
        FROM stg_customers
    ) ranked
    WHERE surface_rank = 1
)

SELECT
    co.customer_unique_id AS customer_key,
    ls.customer_id AS latest_customer_id,
    ls.customer_city,
    ls.customer_state,
    ls.customer_zip_code_prefix,
    co.total_orders,
    co.delivered_orders,
    co.canceled_orders,
    co.total_revenue,
    co.total_freight,
    co.avg_order_value,
    co.avg_delivery_delay_days,
    co.late_deliveries,
    co.avg_review_score,
    co.first_order_at,
    co.last_order_at,
    co.days_since_last_order,
    rfm.recency_score,
    rfm.frequency_score,
    rfm.monetary_score,
    rfm.rfm_score,
    rfm.rfm_string,
    rfm.customer_segment,
    rfm.customer_tier,
    CURRENT_TIMESTAMP AS materialized_at
FROM int_customer_orders co
LEFT JOIN int_rfm_scores rfm ON co.customer_unique_id = rfm.customer_unique_id
LEFT JOIN latest_surface ls ON co.customer_unique_id = ls.customer_unique_id
ORDER BY co.customer_unique_id`

const dimProductsSQL = `
SELECT
    product_id AS product_key,
    product_category,
    is_missing_category,
    product_weight_g,
    product_volume_cm3,
    total_orders,
    total_items_sold,
    total_revenue,
    total_freight,
    avg_item_price,
    avg_review_score,
    review_count,
    sales_tier,
    review_tier,
    CURRENT_TIMESTAMP AS materialized_at
FROM int_product_performance
ORDER BY product_id`

const dimSellersSQL = `
SELECT
    seller_id AS seller_key,
    seller_city,
    seller_state,
    seller_zip_code_prefix,
    total_orders,
    total_items_sold,
    total_revenue,
    total_freight,
    avg_item_price,
    avg_review_score,
    review_count,
    sales_tier,
    review_tier,
    CURRENT_TIMESTAMP AS materialized_at
FROM int_seller_performance
ORDER BY seller_id`
