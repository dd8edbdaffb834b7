package intermediate_test

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datakite/olist-warehouse/internal/intermediate"
	"github.com/datakite/olist-warehouse/internal/staging"
	"github.com/datakite/olist-warehouse/internal/warehouse"
	"github.com/datakite/olist-warehouse/pkg/config"
	"github.com/datakite/olist-warehouse/pkg/db"
	"github.com/datakite/olist-warehouse/pkg/logger"
	"github.com/datakite/olist-warehouse/pkg/metrics"
)

const referenceDate = "2018-10-17"

var rawDDL = []string{
	`CREATE TABLE raw_customers (
		customer_id TEXT, customer_unique_id TEXT,
		customer_zip_code_prefix TEXT, customer_city TEXT, customer_state TEXT)`,
	`CREATE TABLE raw_orders (
		order_id TEXT, customer_id TEXT, order_status TEXT,
		order_purchase_timestamp TEXT, order_approved_at TEXT,
		order_delivered_carrier_date TEXT, order_delivered_customer_date TEXT,
		order_estimated_delivery_date TEXT)`,
	`CREATE TABLE raw_order_items (
		order_id TEXT, order_item_id INTEGER, product_id TEXT, seller_id TEXT,
		shipping_limit_date TEXT, price REAL, freight_value REAL)`,
	`CREATE TABLE raw_order_payments (
		order_id TEXT, payment_sequential INTEGER, payment_type TEXT,
		payment_installments INTEGER, payment_value REAL)`,
	`CREATE TABLE raw_order_reviews (
		review_id TEXT, order_id TEXT, review_score INTEGER,
		review_comment_title TEXT, review_comment_message TEXT,
		review_creation_date TEXT, review_answer_timestamp TEXT)`,
	`CREATE TABLE raw_products (
		product_id TEXT, product_category_name TEXT,
		product_name_lenght INTEGER, product_description_lenght INTEGER,
		product_photos_qty INTEGER, product_weight_g REAL,
		product_length_cm REAL, product_height_cm REAL, product_width_cm REAL)`,
	`CREATE TABLE raw_sellers (
		seller_id TEXT, seller_zip_code_prefix TEXT,
		seller_city TEXT, seller_state TEXT)`,
	`CREATE TABLE raw_geolocation (
		geolocation_zip_code_prefix TEXT, geolocation_lat REAL,
		geolocation_lng REAL, geolocation_city TEXT, geolocation_state TEXT)`,
	`CREATE TABLE raw_category_translation (
		product_category_name TEXT, product_category_name_english TEXT)`,
}

func newFixture(t *testing.T) *db.Client {
	t.Helper()
	ctx := context.Background()
	cfg := config.DBConfig{
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		Driver: config.DriverSQLite,
	}
	client, err := db.New(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	for _, ddl := range rawDDL {
		require.NoError(t, client.Exec(ctx, ddl).Error)
	}
	return client
}

func buildUnits(t *testing.T, client *db.Client, selected ...string) {
	t.Helper()
	reg := warehouse.NewRegistry()
	require.NoError(t, reg.Register(staging.Units()...))
	require.NoError(t, reg.Register(intermediate.Units()...))

	logg := logger.New(logger.Options{ServiceName: "intermediate-test", Output: io.Discard})
	runner, err := warehouse.NewRunner(client, reg, logg, metrics.NewBuildMetrics(nil), referenceDate)
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), selected)
	require.NoError(t, err)
}

// seedOrder inserts one customer surface row, one order and one line item.
func seedOrder(t *testing.T, client *db.Client, orderID, uniqueID, status, purchasedAt string, price float64) {
	t.Helper()
	ctx := context.Background()
	customerID := "c_" + orderID
	delivered := "NULL"
	if status == "delivered" {
		delivered = fmt.Sprintf("'%s'", purchasedAt)
	}
	require.NoError(t, client.Exec(ctx, fmt.Sprintf(`INSERT INTO raw_customers VALUES
		('%s', '%s', '01037', 'sao paulo', 'SP')`, customerID, uniqueID)).Error)
	require.NoError(t, client.Exec(ctx, fmt.Sprintf(`INSERT INTO raw_orders VALUES
		('%s', '%s', '%s', '%s', '%s', '%s', %s, '2018-12-31')`,
		orderID, customerID, status, purchasedAt, purchasedAt, purchasedAt, delivered)).Error)
	require.NoError(t, client.Exec(ctx, fmt.Sprintf(`INSERT INTO raw_order_items VALUES
		('%s', 1, 'p1', 's1', '2018-12-31', %f, 0.0)`, orderID, price)).Error)
}

func TestCustomerOrdersAggregatesDeliveredOnly(t *testing.T) {
	client := newFixture(t)

	seedOrder(t, client, "o1", "u1", "delivered", "2018-10-01 09:00:00", 100)
	seedOrder(t, client, "o2", "u1", "delivered", "2018-10-10 09:00:00", 300)
	seedOrder(t, client, "o3", "u1", "canceled", "2018-10-05 09:00:00", 50)

	buildUnits(t, client, intermediate.CustomerOrders)

	type row struct {
		CustomerUniqueID   string
		TotalOrders        int
		DeliveredOrders    int
		CanceledOrders     int
		TotalRevenue       float64
		AvgOrderValue      float64
		DaysSinceLastOrder int
	}
	var got row
	require.NoError(t, client.Raw(context.Background(), `
		SELECT customer_unique_id, total_orders, delivered_orders, canceled_orders,
		       total_revenue, avg_order_value, days_since_last_order
		FROM int_customer_orders WHERE customer_unique_id = 'u1'`).Scan(&got).Error)

	assert.Equal(t, 3, got.TotalOrders)
	assert.Equal(t, 2, got.DeliveredOrders)
	assert.Equal(t, 1, got.CanceledOrders)
	assert.InDelta(t, 400.0, got.TotalRevenue, 0.001)
	assert.InDelta(t, 200.0, got.AvgOrderValue, 0.001)
	// Recency counts from the latest purchase of any status.
	assert.Equal(t, 7, got.DaysSinceLastOrder)
}

func TestCustomerOrdersAttachesLatestReviewPerOrder(t *testing.T) {
	client := newFixture(t)
	ctx := context.Background()

	seedOrder(t, client, "o1", "u1", "delivered", "2018-10-01 09:00:00", 100)
	require.NoError(t, client.Exec(ctx, `INSERT INTO raw_order_reviews VALUES
		('rev_old', 'o1', 5, NULL, NULL, '2018-10-02', '2018-10-03'),
		('rev_new', 'o1', 2, NULL, NULL, '2018-10-05', '2018-10-06')`).Error)

	buildUnits(t, client, intermediate.CustomerOrders)

	var avgReview float64
	require.NoError(t, client.Raw(ctx, `
		SELECT avg_review_score FROM int_customer_orders
		WHERE customer_unique_id = 'u1'`).Scan(&avgReview).Error)
	assert.InDelta(t, 2.0, avgReview, 0.001, "only the latest review counts")
}

func TestRFMScoresQuintilesAndSegments(t *testing.T) {
	client := newFixture(t)

	// Customer k has k delivered orders of 10 each (10*k total revenue) and
	// is more recent the higher k is. With five customers NTILE(5) gives
	// each its own bucket, so uk scores (k, k, k).
	purchases := map[int]string{
		1: "2018-06-17 09:00:00",
		2: "2018-08-17 09:00:00",
		3: "2018-09-17 09:00:00",
		4: "2018-10-10 09:00:00",
		5: "2018-10-16 09:00:00",
	}
	for k := 1; k <= 5; k++ {
		for n := 1; n <= k; n++ {
			orderID := fmt.Sprintf("o%d_%d", k, n)
			seedOrder(t, client, orderID, fmt.Sprintf("u%d", k), "delivered",
				purchases[k], 10.0)
		}
	}
	// A customer with no delivered revenue never enters scoring.
	seedOrder(t, client, "o_zero", "u_zero", "canceled", "2018-10-01 09:00:00", 999)

	buildUnits(t, client, intermediate.RFMScores)

	type row struct {
		CustomerUniqueID string
		RecencyScore     int
		FrequencyScore   int
		MonetaryScore    int
		RFMScore         int
		RFMString        string
		CustomerSegment  string
		CustomerTier     string
	}
	var rows []row
	require.NoError(t, client.Raw(context.Background(), `
		SELECT customer_unique_id, recency_score, frequency_score, monetary_score,
		       rfm_score, rfm_string, customer_segment, customer_tier
		FROM int_rfm_scores ORDER BY customer_unique_id`).Scan(&rows).Error)
	require.Len(t, rows, 5, "zero-revenue customers are excluded")

	expected := []struct {
		id      string
		scores  [3]int
		segment string
		tier    string
	}{
		{"u1", [3]int{1, 1, 1}, "Lost", "Low Value"},
		{"u2", [3]int{2, 2, 2}, "Need Attention", "Low Value"},
		{"u3", [3]int{3, 3, 3}, "Promising", "Medium Value"},
		{"u4", [3]int{4, 4, 4}, "Champions", "High Value"},
		{"u5", [3]int{5, 5, 5}, "Champions", "High Value"},
	}
	for i, want := range expected {
		got := rows[i]
		assert.Equal(t, want.id, got.CustomerUniqueID)
		assert.Equal(t, want.scores[0], got.RecencyScore, "%s recency", want.id)
		assert.Equal(t, want.scores[1], got.FrequencyScore, "%s frequency", want.id)
		assert.Equal(t, want.scores[2], got.MonetaryScore, "%s monetary", want.id)
		assert.Equal(t, got.RecencyScore+got.FrequencyScore+got.MonetaryScore, got.RFMScore)
		assert.Equal(t, fmt.Sprintf("%d%d%d",
			got.RecencyScore, got.FrequencyScore, got.MonetaryScore), got.RFMString)
		assert.Equal(t, want.segment, got.CustomerSegment, want.id)
		assert.Equal(t, want.tier, got.CustomerTier, want.id)
	}
}

func TestRFMScoresInvertedRecency(t *testing.T) {
	client := newFixture(t)

	// Most recent and least-spending vs oldest and biggest-spending.
	seedOrder(t, client, "oa1", "u_recent", "delivered", "2018-10-16 09:00:00", 10)
	seedOrder(t, client, "ob1", "u_mid_a", "delivered", "2018-09-01 09:00:00", 20)
	seedOrder(t, client, "oc1", "u_mid_b", "delivered", "2018-08-01 09:00:00", 30)
	seedOrder(t, client, "od1", "u_mid_c", "delivered", "2018-07-01 09:00:00", 40)
	seedOrder(t, client, "oe1", "u_old", "delivered", "2018-06-01 09:00:00", 50)

	buildUnits(t, client, intermediate.RFMScores)

	type row struct {
		RecencyScore  int
		MonetaryScore int
	}
	var recent, old row
	ctx := context.Background()
	require.NoError(t, client.Raw(ctx, `
		SELECT recency_score, monetary_score FROM int_rfm_scores
		WHERE customer_unique_id = 'u_recent'`).Scan(&recent).Error)
	require.NoError(t, client.Raw(ctx, `
		SELECT recency_score, monetary_score FROM int_rfm_scores
		WHERE customer_unique_id = 'u_old'`).Scan(&old).Error)

	assert.Equal(t, 5, recent.RecencyScore, "most recent customer scores highest")
	assert.Equal(t, 1, recent.MonetaryScore)
	assert.Equal(t, 1, old.RecencyScore)
	assert.Equal(t, 5, old.MonetaryScore)
}

func TestSellerPerformanceZeroSalesAndReviewFanOut(t *testing.T) {
	client := newFixture(t)
	ctx := context.Background()

	require.NoError(t, client.Exec(ctx, `INSERT INTO raw_sellers VALUES
		('s_active', '01037', 'sao paulo', 'SP'),
		('s_partner', '02000', 'campinas', 'SP'),
		('s_idle', '20000', 'rio de janeiro', 'RJ')`).Error)
	require.NoError(t, client.Exec(ctx, `INSERT INTO raw_customers VALUES
		('c1', 'u1', '01037', 'sao paulo', 'SP')`).Error)
	require.NoError(t, client.Exec(ctx, `INSERT INTO raw_orders VALUES
		('o_multi', 'c1', 'delivered', '2018-10-01 09:00:00', '2018-10-01 10:00:00',
		 '2018-10-02 09:00:00', '2018-10-05 09:00:00', '2018-10-10 00:00:00')`).Error)
	require.NoError(t, client.Exec(ctx, `INSERT INTO raw_order_items VALUES
		('o_multi', 1, 'p1', 's_active', '2018-10-03', 1200.0, 20.0),
		('o_multi', 2, 'p2', 's_partner', '2018-10-03', 80.0, 10.0)`).Error)
	require.NoError(t, client.Exec(ctx, `INSERT INTO raw_order_reviews VALUES
		('r1', 'o_multi', 4, NULL, NULL, '2018-10-06', '2018-10-07')`).Error)

	buildUnits(t, client, intermediate.SellerPerformance)

	type row struct {
		SellerID       string
		TotalRevenue   float64
		SalesTier      string
		AvgReviewScore *float64
		ReviewTier     string
	}
	var rows []row
	require.NoError(t, client.Raw(ctx, `
		SELECT seller_id, total_revenue, sales_tier, avg_review_score, review_tier
		FROM int_seller_performance ORDER BY seller_id`).Scan(&rows).Error)
	require.Len(t, rows, 3)

	active, idle, partner := rows[0], rows[1], rows[2]

	assert.InDelta(t, 1200.0, active.TotalRevenue, 0.001)
	assert.Equal(t, "Medium Performer", active.SalesTier)
	require.NotNil(t, active.AvgReviewScore)
	assert.InDelta(t, 4.0, *active.AvgReviewScore, 0.001)
	assert.Equal(t, "Good", active.ReviewTier)

	// The shared order's review reaches both sellers.
	require.NotNil(t, partner.AvgReviewScore)
	assert.InDelta(t, 4.0, *partner.AvgReviewScore, 0.001)
	assert.Equal(t, "Low Performer", partner.SalesTier)

	assert.Zero(t, idle.TotalRevenue)
	assert.Equal(t, "No Sales", idle.SalesTier)
	assert.Nil(t, idle.AvgReviewScore)
	assert.Equal(t, "No Reviews", idle.ReviewTier)
}

func TestProductPerformanceTiers(t *testing.T) {
	client := newFixture(t)
	ctx := context.Background()

	require.NoError(t, client.Exec(ctx, `INSERT INTO raw_products VALUES
		('p_top', 'cat', 10, 100, 1, 100, 10, 10, 10),
		('p_good', 'cat', 10, 100, 1, 100, 10, 10, 10),
		('p_low', 'cat', 10, 100, 1, 100, 10, 10, 10),
		('p_none', 'cat', 10, 100, 1, 100, 10, 10, 10)`).Error)
	require.NoError(t, client.Exec(ctx, `INSERT INTO raw_customers VALUES
		('c1', 'u1', '01037', 'sao paulo', 'SP')`).Error)
	require.NoError(t, client.Exec(ctx, `INSERT INTO raw_orders VALUES
		('o1', 'c1', 'delivered', '2018-10-01 09:00:00', '2018-10-01 10:00:00',
		 '2018-10-02 09:00:00', '2018-10-05 09:00:00', '2018-10-10 00:00:00')`).Error)
	require.NoError(t, client.Exec(ctx, `INSERT INTO raw_order_items VALUES
		('o1', 1, 'p_top', 's1', '2018-10-03', 12000.0, 0.0),
		('o1', 2, 'p_good', 's1', '2018-10-03', 1500.0, 0.0),
		('o1', 3, 'p_low', 's1', '2018-10-03', 200.0, 0.0)`).Error)

	buildUnits(t, client, intermediate.ProductPerformance)

	var rows []struct {
		ProductID string
		SalesTier string
	}
	require.NoError(t, client.Raw(ctx, `
		SELECT product_id, sales_tier FROM int_product_performance
		ORDER BY product_id`).Scan(&rows).Error)
	require.Len(t, rows, 4)

	tiers := map[string]string{}
	for _, r := range rows {
		tiers[r.ProductID] = r.SalesTier
	}
	assert.Equal(t, "Top Seller", tiers["p_top"])
	assert.Equal(t, "Good Seller", tiers["p_good"])
	assert.Equal(t, "Low Performer", tiers["p_low"])
	assert.Equal(t, "No Sales", tiers["p_none"])
}
