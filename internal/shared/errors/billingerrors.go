package errors

import (
	"fmt"
	"net/http"
)

// Billing and entitlement error types. Feature routes branch on these to
// produce the right user-facing status and upsell payload, so the codes
// must stay stable and distinguishable from each other.
const (
	ErrorTypeFeatureNotOnPlan      ErrorType = "feature_not_on_plan"
	ErrorTypePlanLimitReached      ErrorType = "plan_limit_reached"
	ErrorTypeInsufficientCredits   ErrorType = "insufficient_credits"
	ErrorTypeSnapshotRebuildFailed ErrorType = "snapshot_rebuild_failed"
)

// NewFeatureNotOnPlanError is returned when the resolved plan does not
// offer the requested feature, even after snapshot self-heal. Not
// retryable without a plan change.
func NewFeatureNotOnPlanError(feature, plan string) *AppError {
	return &AppError{
		Type:    ErrorTypeFeatureNotOnPlan,
		Message: "This feature is not included in your current plan",
		Code:    http.StatusForbidden,
		Details: "feature=" + feature + " plan=" + plan,
	}
}

// NewPlanLimitReachedError is returned when the plan quota is exhausted
// and the credit fallback is disabled or yields no cost.
func NewPlanLimitReachedError(feature string) *AppError {
	return &AppError{
		Type:    ErrorTypePlanLimitReached,
		Message: "You have reached your plan limit for this feature. Enable auto-use of credits or upgrade your plan to continue",
		Code:    http.StatusPaymentRequired,
		Details: "feature=" + feature,
	}
}

// NewInsufficientCreditsError is returned when the quota is exhausted,
// the credit fallback was attempted, and the balance is too low. Kept
// distinct from plan_limit_reached so clients can render a top-up flow.
func NewInsufficientCreditsError(required, balance int64) *AppError {
	return &AppError{
		Type:    ErrorTypeInsufficientCredits,
		Message: "Not enough credits to complete this action. Purchase more credits to continue",
		Code:    http.StatusPaymentRequired,
		Details: fmt.Sprintf("required=%d balance=%d", required, balance),
	}
}

// NewSnapshotRebuildFailedError is internal only; it is never surfaced to
// end users directly, only logged and handled by the safe-allow path.
func NewSnapshotRebuildFailedError(details string) *AppError {
	return &AppError{
		Type:    ErrorTypeSnapshotRebuildFailed,
		Message: "entitlement snapshot rebuild failed",
		Code:    http.StatusInternalServerError,
		Details: details,
	}
}

// IsBillingError reports whether the error carries one of the
// user-visible billing codes.
func IsBillingError(err error) bool {
	appErr := GetAppError(err)
	if appErr == nil {
		return false
	}
	switch appErr.Type {
	case ErrorTypeFeatureNotOnPlan, ErrorTypePlanLimitReached, ErrorTypeInsufficientCredits:
		return true
	default:
		return false
	}
}
