package enums

// SellerSalesTier buckets sellers by delivered revenue. Thresholds:
// >=50000 Top Seller, >=10000 High Performer, >=1000 Medium Performer,
// >0 Low Performer, else No Sales.
type SellerSalesTier string

const (
	SellerTierTop    SellerSalesTier = "Top Seller"
	SellerTierHigh   SellerSalesTier = "High Performer"
	SellerTierMedium SellerSalesTier = "Medium Performer"
	SellerTierLow    SellerSalesTier = "Low Performer"
	SellerTierNone   SellerSalesTier = "No Sales"
)

// SellerSalesTiers lists every seller tier label.
var SellerSalesTiers = []SellerSalesTier{
	SellerTierTop,
	SellerTierHigh,
	SellerTierMedium,
	SellerTierLow,
	SellerTierNone,
}

// ProductSalesTier buckets products by delivered revenue. Products use their
// own absolute thresholds: >=10000 Top Seller, >=1000 Good Seller,
// >0 Low Performer, else No Sales.
type ProductSalesTier string

const (
	ProductTierTop  ProductSalesTier = "Top Seller"
	ProductTierGood ProductSalesTier = "Good Seller"
	ProductTierLow  ProductSalesTier = "Low Performer"
	ProductTierNone ProductSalesTier = "No Sales"
)

// ProductSalesTiers lists every product tier label.
var ProductSalesTiers = []ProductSalesTier{
	ProductTierTop,
	ProductTierGood,
	ProductTierLow,
	ProductTierNone,
}

// ReviewTier buckets average review scores; shared by sellers and products.
type ReviewTier string

const (
	ReviewTierExcellent ReviewTier = "Excellent"
	ReviewTierGood      ReviewTier = "Good"
	ReviewTierAverage   ReviewTier = "Average"
	ReviewTierPoor      ReviewTier = "Poor"
	ReviewTierNone      ReviewTier = "No Reviews"
)

// ReviewTiers lists every review tier label.
var ReviewTiers = []ReviewTier{
	ReviewTierExcellent,
	ReviewTierGood,
	ReviewTierAverage,
	ReviewTierPoor,
	ReviewTierNone,
}

// ReviewSentiment buckets individual review scores at staging time.
type ReviewSentiment string

const (
	SentimentPositive ReviewSentiment = "Positive"
	SentimentNeutral  ReviewSentiment = "Neutral"
	SentimentNegative ReviewSentiment = "Negative"
)
