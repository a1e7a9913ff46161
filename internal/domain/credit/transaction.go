package credit

import (
	"fmt"
	"time"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TypePurchase TransactionType = "PURCHASE"
	TypeBonus    TransactionType = "BONUS"
	TypeRefund   TransactionType = "REFUND"
	TypeUsage    TransactionType = "USAGE"
)

// IsValid checks if the transaction type is recognized.
func (t TransactionType) IsValid() bool {
	switch t {
	case TypePurchase, TypeBonus, TypeRefund, TypeUsage:
		return true
	default:
		return false
	}
}

// IsGrant reports whether the type adds credits to the balance.
func (t TransactionType) IsGrant() bool {
	return t == TypePurchase || t == TypeBonus || t == TypeRefund
}

// String returns the string representation of the type.
func (t TransactionType) String() string {
	return string(t)
}

// Transaction is one append-only ledger row. Amount is signed: positive
// for grants, negative for usage. For PURCHASE entries the reference id
// is the idempotency key; at most one PURCHASE may ever exist per
// reference.
type Transaction struct {
	id          uint
	sid         string // Stripe-style ID: ctx_xxx
	userID      uint
	amount      int64
	txType      TransactionType
	referenceID *string
	description string
	createdAt   time.Time
}

// NewGrantTransaction creates a credit-adding ledger entry.
func NewGrantTransaction(sid string, userID uint, amount int64, txType TransactionType, referenceID *string, description string) (*Transaction, error) {
	if sid == "" {
		return nil, fmt.Errorf("transaction SID is required")
	}
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !txType.IsGrant() {
		return nil, fmt.Errorf("transaction type %s is not a grant", txType)
	}
	if txType == TypePurchase && (referenceID == nil || *referenceID == "") {
		return nil, fmt.Errorf("purchase transactions require a reference ID")
	}

	return &Transaction{
		sid:         sid,
		userID:      userID,
		amount:      amount,
		txType:      txType,
		referenceID: referenceID,
		description: description,
		createdAt:   time.Now(),
	}, nil
}

// NewUsageTransaction creates a credit-consuming ledger entry. The stored
// amount is negative.
func NewUsageTransaction(sid string, userID uint, amount int64, referenceID *string, description string) (*Transaction, error) {
	if sid == "" {
		return nil, fmt.Errorf("transaction SID is required")
	}
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	return &Transaction{
		sid:         sid,
		userID:      userID,
		amount:      -amount,
		txType:      TypeUsage,
		referenceID: referenceID,
		description: description,
		createdAt:   time.Now(),
	}, nil
}

// ReconstructTransaction reconstructs a ledger entry from persistence.
func ReconstructTransaction(
	id uint,
	sid string,
	userID uint,
	amount int64,
	txType TransactionType,
	referenceID *string,
	description string,
	createdAt time.Time,
) (*Transaction, error) {
	if id == 0 {
		return nil, fmt.Errorf("transaction ID cannot be zero")
	}
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if !txType.IsValid() {
		return nil, fmt.Errorf("invalid transaction type: %s", txType)
	}

	return &Transaction{
		id:          id,
		sid:         sid,
		userID:      userID,
		amount:      amount,
		txType:      txType,
		referenceID: referenceID,
		description: description,
		createdAt:   createdAt,
	}, nil
}

// ID returns the transaction row ID.
func (t *Transaction) ID() uint { return t.id }

// SID returns the Stripe-style transaction identifier.
func (t *Transaction) SID() string { return t.sid }

// UserID returns the owning user ID.
func (t *Transaction) UserID() uint { return t.userID }

// Amount returns the signed credit delta.
func (t *Transaction) Amount() int64 { return t.amount }

// Type returns the transaction type.
func (t *Transaction) Type() TransactionType { return t.txType }

// ReferenceID returns the external order/invoice id, if any.
func (t *Transaction) ReferenceID() *string { return t.referenceID }

// Description returns the human-readable description.
func (t *Transaction) Description() string { return t.description }

// CreatedAt returns when the entry was appended.
func (t *Transaction) CreatedAt() time.Time { return t.createdAt }

// SetID sets the transaction ID (only for persistence layer use).
func (t *Transaction) SetID(id uint) error {
	if t.id != 0 {
		return fmt.Errorf("transaction ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("transaction ID cannot be zero")
	}
	t.id = id
	return nil
}
