// Package dto provides data transfer objects for credit ledger use cases.
package dto

import "time"

// AddCreditsCommand grants credits to a user. PURCHASE grants carry the
// external payment reference used for idempotent replay protection.
type AddCreditsCommand struct {
	UserID      uint
	Amount      int64
	Type        string
	ReferenceID *string
	Description string
	Email       string
}

// BalanceResponse is the API shape of a user's credit standing.
type BalanceResponse struct {
	Balance           int64 `json:"balance"`
	LifetimePurchased int64 `json:"lifetime_purchased"`
	LifetimeUsed      int64 `json:"lifetime_used"`
	AutoUseCredits    bool  `json:"auto_use_credits"`
}

// TransactionResponse is the API shape of one ledger entry.
type TransactionResponse struct {
	ID          string    `json:"id"`
	Amount      int64     `json:"amount"`
	Type        string    `json:"type"`
	ReferenceID *string   `json:"reference_id,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
