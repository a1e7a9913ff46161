package models

import (
	"time"

	"github.com/clawncore/colabwize-backend/internal/shared/constants"
)

// CreditBalanceModel represents the database persistence model for credit
// balances. Balance mutations happen through conditional single-statement
// updates, never read-modify-write.
type CreditBalanceModel struct {
	ID                uint  `gorm:"primarykey"`
	UserID            uint  `gorm:"uniqueIndex;not null"`
	Balance           int64 `gorm:"not null;default:0"`
	LifetimePurchased int64 `gorm:"not null;default:0"`
	LifetimeUsed      int64 `gorm:"not null;default:0"`
	AutoUseCredits    bool  `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName specifies the table name for GORM
func (CreditBalanceModel) TableName() string {
	return constants.TableCreditBalances
}

// CreditTransactionModel represents the database persistence model for
// credit ledger entries. Rows are append-only; the partial unique index
// on (reference_id) for PURCHASE rows enforces idempotent grants at the
// storage layer.
type CreditTransactionModel struct {
	ID          uint   `gorm:"primarykey"`
	SID         string `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: ctx_xxx"`
	UserID      uint   `gorm:"not null;index:idx_user_created,priority:1"`
	Amount      int64  `gorm:"not null"`
	Type        string `gorm:"not null;size:20"`
	ReferenceID *string `gorm:"size:100;index:idx_reference"`
	Description string  `gorm:"size:500"`
	CreatedAt   time.Time `gorm:"index:idx_user_created,priority:2"`
}

// TableName specifies the table name for GORM
func (CreditTransactionModel) TableName() string {
	return constants.TableCreditTransactions
}
