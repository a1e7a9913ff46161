// Package constants defines shared constant values used across layers.
package constants

// Database table names
const (
	TableSubscriptions        = "subscriptions"
	TableEntitlementSnapshots = "entitlement_snapshots"
	TableCreditBalances       = "credit_balances"
	TableCreditTransactions   = "credit_transactions"
	TableUsageTracking        = "usage_tracking"
)

// Gin context keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUserEmail = "user_email"
)
