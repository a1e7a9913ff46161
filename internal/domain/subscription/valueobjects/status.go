// Package valueobjects contains value objects for the subscription domain.
package valueobjects

// SubscriptionStatus represents the provider-reported lifecycle state of a
// subscription. Access decisions never trust it alone; the entitlement
// expiry timestamp on the aggregate overrides it when in the past.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusTrialing SubscriptionStatus = "trialing"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusExpired  SubscriptionStatus = "expired"
	StatusPaused   SubscriptionStatus = "paused"
)

// ValidStatuses is the set of all recognized subscription statuses.
var ValidStatuses = map[SubscriptionStatus]bool{
	StatusActive:   true,
	StatusTrialing: true,
	StatusPastDue:  true,
	StatusCanceled: true,
	StatusExpired:  true,
	StatusPaused:   true,
}

// IsValid checks if the status is a recognized value.
func (s SubscriptionStatus) IsValid() bool {
	return ValidStatuses[s]
}

// String returns the string representation of the status.
func (s SubscriptionStatus) String() string {
	return string(s)
}

// GrantsAccess reports whether the status alone keeps paid entitlements
// alive. past_due is included: a card retry window must not hard-block a
// paying user.
func (s SubscriptionStatus) GrantsAccess() bool {
	switch s {
	case StatusActive, StatusTrialing, StatusPastDue:
		return true
	default:
		return false
	}
}
