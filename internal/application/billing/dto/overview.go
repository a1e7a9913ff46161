// Package dto provides data transfer objects for the billing overview.
package dto

import (
	"time"

	creditdto "github.com/clawncore/colabwize-backend/internal/application/credit/dto"
	entitlementdto "github.com/clawncore/colabwize-backend/internal/application/entitlement/dto"
	subscriptiondto "github.com/clawncore/colabwize-backend/internal/application/subscription/dto"
)

// UsageEntry is one recent usage counter row in the overview.
type UsageEntry struct {
	Feature     string    `json:"feature"`
	PeriodStart time.Time `json:"period_start"`
	Count       int64     `json:"count"`
}

// OverviewResponse aggregates a user's billing standing in one read. Any
// section whose backing dependency timed out is served with defaults and
// listed under Degraded.
type OverviewResponse struct {
	Plan         *subscriptiondto.ActivePlanResponse `json:"plan"`
	Entitlements *entitlementdto.SnapshotResponse    `json:"entitlements,omitempty"`
	Credits      *creditdto.BalanceResponse          `json:"credits"`
	RecentUsage  []UsageEntry                        `json:"recent_usage"`
	Degraded     []string                            `json:"degraded,omitempty"`
	GeneratedAt  time.Time                           `json:"generated_at"`
}
