// Package dto provides data transfer objects for entitlement use cases.
package dto

import "time"

// ConsumeSource identifies which pool satisfied a consume request.
type ConsumeSource string

const (
	// SourcePlan means a finite plan quota unit was consumed.
	SourcePlan ConsumeSource = "plan"

	// SourceUnlimited means the feature is unlimited on the plan.
	SourceUnlimited ConsumeSource = "unlimited"

	// SourceCredit means credits covered the request after the plan
	// quota was exhausted or absent.
	SourceCredit ConsumeSource = "credit"
)

// Decision is the outcome of a gate check for one feature request.
type Decision struct {
	Allowed     bool          `json:"allowed"`
	Feature     string        `json:"feature"`
	Source      ConsumeSource `json:"source,omitempty"`
	Remaining   int           `json:"remaining"`
	Unlimited   bool          `json:"unlimited"`
	CostCharged int64         `json:"cost_charged,omitempty"`
}

// Eligibility is a read-only answer to "could this user use the feature
// right now"; it never consumes anything.
type Eligibility struct {
	Feature   string `json:"feature"`
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
	Unlimited bool   `json:"unlimited"`
}

// FeatureRightsResponse is the API shape of one feature's rights.
type FeatureRightsResponse struct {
	Limit     int  `json:"limit"`
	Used      int  `json:"used"`
	Remaining int  `json:"remaining"`
	Unlimited bool `json:"unlimited"`
	Enabled   bool `json:"enabled"`
}

// SnapshotResponse is the API shape of a user's entitlement snapshot.
type SnapshotResponse struct {
	PlanID        string                           `json:"plan_id"`
	Features      map[string]FeatureRightsResponse `json:"features"`
	CycleStart    time.Time                        `json:"cycle_start"`
	CycleEnd      time.Time                        `json:"cycle_end"`
	RebuildStatus string                           `json:"rebuild_status"`
	LastRebuiltAt time.Time                        `json:"last_rebuilt_at"`
}
