// Package db carries the transaction plumbing shared by the billing
// repositories. The credit ledger in particular writes a balance row and
// its transaction row as one unit, so repositories must be able to join
// a transaction opened at the use case layer.
package db

import (
	"context"

	"gorm.io/gorm"
)

// txKey keys the ambient *gorm.DB transaction in a context.
type txKey struct{}

// TransactionManager opens transactions at the use case layer and hands
// them to repositories through the context.
type TransactionManager struct {
	db *gorm.DB
}

// NewTransactionManager creates a new TransactionManager.
func NewTransactionManager(db *gorm.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// RunInTransaction runs fn inside a transaction and stashes the handle
// in the derived context. Repositories called with that context join the
// transaction; fn returning an error rolls everything back, so a ledger
// entry never lands without its balance update.
func (tm *TransactionManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// GetTx returns the transaction carried by ctx, or the base connection
// when the caller runs outside one.
func (tm *TransactionManager) GetTx(ctx context.Context) *gorm.DB {
	return GetTxFromContext(ctx, tm.db)
}

// GetTxFromContext is the repository-side accessor: it picks up the
// ambient transaction when one was opened upstream and otherwise falls
// back to the given connection.
func GetTxFromContext(ctx context.Context, defaultDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return defaultDB.WithContext(ctx)
}
