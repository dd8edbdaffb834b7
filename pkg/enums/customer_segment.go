package enums

import "fmt"

// CustomerSegment is the label assigned by the RFM rule cascade.
type CustomerSegment string

const (
	SegmentChampions          CustomerSegment = "Champions"
	SegmentLoyalCustomers     CustomerSegment = "Loyal Customers"
	SegmentPotentialLoyalists CustomerSegment = "Potential Loyalists"
	SegmentRecentCustomers    CustomerSegment = "Recent Customers"
	SegmentPromising          CustomerSegment = "Promising"
	SegmentNeedAttention      CustomerSegment = "Need Attention"
	SegmentAtRisk             CustomerSegment = "At Risk"
	SegmentCannotLoseThem     CustomerSegment = "Cannot Lose Them"
	SegmentHibernating        CustomerSegment = "Hibernating"
	SegmentLost               CustomerSegment = "Lost"
)

// CustomerSegments lists every label the cascade can emit, in cascade order.
// Downstream consumers depend on these exact strings.
var CustomerSegments = []CustomerSegment{
	SegmentChampions,
	SegmentLoyalCustomers,
	SegmentPotentialLoyalists,
	SegmentRecentCustomers,
	SegmentPromising,
	SegmentNeedAttention,
	SegmentAtRisk,
	SegmentCannotLoseThem,
	SegmentHibernating,
	SegmentLost,
}

// IsValid reports whether the value matches a cascade label.
func (s CustomerSegment) IsValid() bool {
	for _, candidate := range CustomerSegments {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCustomerSegment converts the raw string to CustomerSegment.
func ParseCustomerSegment(value string) (CustomerSegment, error) {
	for _, candidate := range CustomerSegments {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer segment %q", value)
}

// CustomerTier is the coarse bucket derived from the summed RFM score.
type CustomerTier string

const (
	CustomerTierHigh   CustomerTier = "High Value"
	CustomerTierMedium CustomerTier = "Medium Value"
	CustomerTierLow    CustomerTier = "Low Value"
)

var validCustomerTiers = []CustomerTier{
	CustomerTierHigh,
	CustomerTierMedium,
	CustomerTierLow,
}

// IsValid reports whether the value matches a customer tier.
func (t CustomerTier) IsValid() bool {
	for _, candidate := range validCustomerTiers {
		if candidate == t {
			return true
		}
	}
	return false
}
