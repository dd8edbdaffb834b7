package intermediate

// Seller and product performance share a shape: the dimension's own staging
// relation drives the query so zero-sales entities still appear, and metrics
// come only from line items of delivered orders. Review attribution fans an
// order's reviews out to every line item's seller/product; an order with
// items from several sellers counts its review toward each of them. Known
// double-counting across sellers/products, kept for output parity.

// Seller sales tiers use higher absolute revenue thresholds than products.
const sellerPerformanceSQL = `
WITH delivered_items AS (
    SELECT i.order_id, i.seller_id, i.price, i.freight_value
    FROM stg_order_items i
    INNER JOIN stg_orders o ON i.order_id = o.order_id
    WHERE o.order_status = 'delivered'
),

seller_sales AS (
    SELECT
        seller_id,
        COUNT(DISTINCT order_id) AS total_orders,
        COUNT(*) AS total_items_sold,
        SUM(price) AS total_revenue,
        SUM(freight_value) AS total_freight,
        AVG(price) AS avg_item_price
    FROM delivered_items
    GROUP BY seller_id
),

seller_reviews AS (
    SELECT
        i.seller_id,
        AVG(r.review_score) AS avg_review_score,
        COUNT(*) AS review_count
    FROM delivered_items i
    INNER JOIN stg_reviews r ON i.order_id = r.order_id
    GROUP BY i.seller_id
)

SELECT
    s.seller_id,
    s.seller_city,
    s.seller_state,
    s.seller_zip_code_prefix,
    COALESCE(sales.total_orders, 0) AS total_orders,
    COALESCE(sales.total_items_sold, 0) AS total_items_sold,
    COALESCE(sales.total_revenue, 0) AS total_revenue,
    COALESCE(sales.total_freight, 0) AS total_freight,
    sales.avg_item_price,
    rv.avg_review_score,
    COALESCE(rv.review_count, 0) AS review_count,
    CASE
        WHEN COALESCE(sales.total_revenue, 0) >= 50000 THEN 'Top Seller'
        WHEN COALESCE(sales.total_revenue, 0) >= 10000 THEN 'High Performer'
        WHEN COALESCE(sales.total_revenue, 0) >= 1000 THEN 'Medium Performer'
        WHEN COALESCE(sales.total_revenue, 0) > 0 THEN 'Low Performer'
        ELSE 'No Sales'
    END AS sales_tier,
    CASE
        WHEN rv.avg_review_score IS NULL THEN 'No Reviews'
        WHEN rv.avg_review_score >= 4.5 THEN 'Excellent'
        WHEN rv.avg_review_score >= 4.0 THEN 'Good'
        WHEN rv.avg_review_score >= 3.0 THEN 'Average'
        ELSE 'Poor'
    END AS review_tier
FROM stg_sellers s
LEFT JOIN seller_sales sales ON s.seller_id = sales.seller_id
LEFT JOIN seller_reviews rv ON s.seller_id = rv.seller_id
ORDER BY s.seller_id`

const productPerformanceSQL = `
WITH delivered_items AS (
    SELECT i.order_id, i.product_id, i.price, i.freight_value
    FROM stg_order_items i
    INNER JOIN stg_orders o ON i.order_id = o.order_id
    WHERE o.order_status = 'delivered'
),

product_sales AS (
    SELECT
        product_id,
        COUNT(DISTINCT order_id) AS total_orders,
        COUNT(*) AS total_items_sold,
        SUM(price) AS total_revenue,
        SUM(freight_value) AS total_freight,
        AVG(price) AS avg_item_price
    FROM delivered_items
    GROUP BY product_id
),

product_reviews AS (
    SELECT
        i.product_id,
        AVG(r.review_score) AS avg_review_score,
        COUNT(*) AS review_count
    FROM delivered_items i
    INNER JOIN stg_reviews r ON i.order_id = r.order_id
    GROUP BY i.product_id
)

SELECT
    p.product_id,
    p.product_category,
    p.is_missing_category,
    p.product_weight_g,
    p.product_volume_cm3,
    COALESCE(sales.total_orders, 0) AS total_orders,
    COALESCE(sales.total_items_sold, 0) AS total_items_sold,
    COALESCE(sales.total_revenue, 0) AS total_revenue,
    COALESCE(sales.total_freight, 0) AS total_freight,
    sales.avg_item_price,
    rv.avg_review_score,
    COALESCE(rv.review_count, 0) AS review_count,
    CASE
        WHEN COALESCE(sales.total_revenue, 0) >= 10000 THEN 'Top Seller'
        WHEN COALESCE(sales.total_revenue, 0) >= 1000 THEN 'Good Seller'
        WHEN COALESCE(sales.total_revenue, 0) > 0 THEN 'Low Performer'
        ELSE 'No Sales'
    END AS sales_tier,
    CASE
        WHEN rv.avg_review_score IS NULL THEN 'No Reviews'
        WHEN rv.avg_review_score >= 4.5 THEN 'Excellent'
        WHEN rv.avg_review_score >= 4.0 THEN 'Good'
        WHEN rv.avg_review_score >= 3.0 THEN 'Average'
        ELSE 'Poor'
    END AS review_tier
FROM stg_products p
LEFT JOIN product_sales sales ON p.product_id = sales.product_id
LEFT JOIN product_reviews rv ON p.product_id = rv.product_id
ORDER BY p.product_id`
