// Package dto provides data transfer objects for subscription use cases.
package dto

import "time"

// BillingEvent is the normalized form of one provider webhook event, as
// produced by the webhook handler after signature verification.
type BillingEvent struct {
	UserID                 uint
	EventType              string
	PlanID                 string
	Status                 string
	ProviderCustomerID     string
	ProviderSubscriptionID string
	CurrentPeriodStart     time.Time
	CurrentPeriodEnd       time.Time
	RenewsAt               *time.Time
	EndsAt                 *time.Time
	Immediate              bool
}

// ActivePlanResponse is the API shape of a user's effective plan.
type ActivePlanResponse struct {
	PlanID               string     `json:"plan_id"`
	Status               string     `json:"status"`
	CurrentPeriodStart   *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `json:"cancel_at_period_end"`
	EntitlementExpiresAt *time.Time `json:"entitlement_expires_at,omitempty"`
}
