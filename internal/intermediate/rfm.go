package intermediate

// rfmScoresSQL scores every customer with positive delivered revenue on
// recency, frequency and monetary value via population-wide quintiles.
// Recency quintiles run over days_since_last_order ascending, so bucket 1
// holds the most recent customers and the score inverts to 6 - bucket;
// higher is better on all three axes. NTILE ties break on
// customer_unique_id so reruns bucket identically.
//
// The segment cascade evaluates top to bottom, first match wins. Rule 8
// (Cannot Lose Them) is shadowed by rules 1 and 7 and can never fire; it is
// kept in place so the label set and rule order stay stable for consumers.
const rfmScoresSQL = `
WITH scored_customers AS (
    SELECT
        customer_unique_id,
        days_since_last_order,
        total_orders,
        total_revenue,
        6 - NTILE(5) OVER (
            ORDER BY days_since_last_order ASC, customer_unique_id ASC
        ) AS recency_score,
        NTILE(5) OVER (
            ORDER BY total_orders ASC, customer_unique_id ASC
        ) AS frequency_score,
        NTILE(5) OVER (
            ORDER BY total_revenue ASC, customer_unique_id ASC
        ) AS monetary_score
    FROM int_customer_orders
    WHERE total_revenue > 0
)

SELECT
    customer_unique_id,
    days_since_last_order,
    total_orders,
    total_revenue,
    recency_score,
    frequency_score,
    monetary_score,
    recency_score + frequency_score + monetary_score AS rfm_score,
    CAST(recency_score AS TEXT)
        || CAST(frequency_score AS TEXT)
        || CAST(monetary_score AS TEXT) AS rfm_string,
    CASE
        WHEN recency_score >= 4 AND frequency_score >= 4 AND monetary_score >= 4 THEN 'Champions'
        WHEN frequency_score >= 4 AND monetary_score >= 4 THEN 'Loyal Customers'
        WHEN recency_score >= 4 AND frequency_score >= 2 AND monetary_score >= 2 THEN 'Potential Loyalists'
        WHEN recency_score >= 4 THEN 'Recent Customers'
        WHEN recency_score >= 3 AND monetary_score >= 3 THEN 'Promising'
        WHEN recency_score >= 2 AND frequency_score >= 2 AND monetary_score >= 2 THEN 'Need Attention'
        WHEN recency_score <= 2 AND frequency_score >= 3 AND monetary_score >= 3 THEN 'At Risk'
        WHEN recency_score <= 2 AND frequency_score >= 4 AND monetary_score >= 4 THEN 'Cannot Lose Them'
        WHEN recency_score <= 2 AND frequency_score >= 2 THEN 'Hibernating'
        ELSE 'Lost'
    END AS customer_segment,
    CASE
        WHEN recency_score + frequency_score + monetary_score >= 12 THEN 'High Value'
        WHEN recency_score + frequency_score + monetary_score >= 8 THEN 'Medium Value'
        ELSE 'Low Value'
    END AS customer_tier
FROM scored_customers
ORDER BY customer_unique_id`
