// Package plan provides the static plan catalog: tier definitions,
// per-feature limits, and plan/feature name normalization. It is pure
// lookup with no I/O; every other component assumes the canonical ids
// produced here.
package plan

// Limit expresses a per-feature entitlement on a plan tier.
// Non-negative values are finite per-cycle quotas. Two sentinel values
// cover the remaining cases.
type Limit int

const (
	// Unlimited means the feature has no per-cycle quota on this tier.
	Unlimited Limit = -1
	// CreditOnly means the tier offers no plan quota for the feature;
	// usage is payable from the purchased credit balance only.
	CreditOnly Limit = -2
)

// IsUnlimited reports whether the limit is the unlimited sentinel.
func (l Limit) IsUnlimited() bool {
	return l == Unlimited
}

// IsCreditOnly reports whether the limit is the credit-only sentinel.
func (l Limit) IsCreditOnly() bool {
	return l == CreditOnly
}

// IsFinite reports whether the limit is a finite quota (zero included).
func (l Limit) IsFinite() bool {
	return l >= 0
}

// IsValid reports whether the limit is one of the allowed forms.
func (l Limit) IsValid() bool {
	return l >= CreditOnly
}

// Int returns the raw limit value.
func (l Limit) Int() int {
	return int(l)
}

// FeatureLimits maps canonical feature keys to their limits on a tier.
// A feature absent from the map is not offered on that tier.
type FeatureLimits map[string]Limit
