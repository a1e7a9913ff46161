package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/clawncore/colabwize-backend/internal/domain/credit"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/persistence/mappers"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/persistence/models"
	"github.com/clawncore/colabwize-backend/internal/shared/db"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
)

// CreditRepositoryImpl implements the credit.Repository interface. All
// methods participate in an ambient transaction when one is carried in
// the context, so the ledger entry and its balance mutation commit
// atomically.
type CreditRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.CreditMapper
	logger logger.Interface
}

// NewCreditRepository creates a new credit repository instance
func NewCreditRepository(db *gorm.DB, logger logger.Interface) credit.Repository {
	return &CreditRepositoryImpl{
		db:     db,
		mapper: mappers.NewCreditMapper(),
		logger: logger,
	}
}

// GetBalanceByUserID retrieves the balance row for a user, or nil if none exists
func (r *CreditRepositoryImpl) GetBalanceByUserID(ctx context.Context, userID uint) (*credit.Balance, error) {
	var model models.CreditBalanceModel
	err := db.GetTxFromContext(ctx, r.db).WithContext(ctx).
		Where("user_id = ?", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get credit balance", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get credit balance: %w", err)
	}

	return r.mapper.ToBalanceEntity(&model)
}

// CreateBalance inserts a new balance row
func (r *CreditRepositoryImpl) CreateBalance(ctx context.Context, b *credit.Balance) error {
	model, err := r.mapper.ToBalanceModel(b)
	if err != nil {
		return fmt.Errorf("failed to map credit balance entity: %w", err)
	}

	if err := db.GetTxFromContext(ctx, r.db).WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create credit balance", "user_id", b.UserID(), "error", err)
		return fmt.Errorf("failed to create credit balance: %w", err)
	}
	return nil
}

// FindPurchaseByReference returns the PURCHASE ledger entry for an
// external reference id, or nil if none exists
func (r *CreditRepositoryImpl) FindPurchaseByReference(ctx context.Context, referenceID string) (*credit.Transaction, error) {
	var model models.CreditTransactionModel
	err := db.GetTxFromContext(ctx, r.db).WithContext(ctx).
		Where("type = ? AND reference_id = ?", credit.TypePurchase.String(), referenceID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to find purchase by reference", "reference_id", referenceID, "error", err)
		return nil, fmt.Errorf("failed to find purchase by reference: %w", err)
	}

	return r.mapper.ToTransactionEntity(&model)
}

// CreateTransaction appends a ledger entry
func (r *CreditRepositoryImpl) CreateTransaction(ctx context.Context, t *credit.Transaction) error {
	model, err := r.mapper.ToTransactionModel(t)
	if err != nil {
		return fmt.Errorf("failed to map credit transaction entity: %w", err)
	}

	if err := db.GetTxFromContext(ctx, r.db).WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create credit transaction",
			"user_id", t.UserID(),
			"type", t.Type().String(),
			"error", err)
		return fmt.Errorf("failed to create credit transaction: %w", err)
	}

	if err := t.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set credit transaction ID: %w", err)
	}
	return nil
}

// AddToBalance atomically increments the balance in one statement
func (r *CreditRepositoryImpl) AddToBalance(ctx context.Context, userID uint, amount int64, countAsPurchased bool) error {
	updates := map[string]interface{}{
		"balance": gorm.Expr("balance + ?", amount),
	}
	if countAsPurchased {
		updates["lifetime_purchased"] = gorm.Expr("lifetime_purchased + ?", amount)
	}

	result := db.GetTxFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.CreditBalanceModel{}).
		Where("user_id = ?", userID).
		Updates(updates)
	if result.Error != nil {
		r.logger.Errorw("failed to add to credit balance", "user_id", userID, "amount", amount, "error", result.Error)
		return fmt.Errorf("failed to add to credit balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return credit.ErrBalanceNotFound
	}
	return nil
}

// DeductFromBalance decrements the balance only when it covers the
// amount. The floor lives in the WHERE clause, so two racing deductions
// can never drive the balance negative.
func (r *CreditRepositoryImpl) DeductFromBalance(ctx context.Context, userID uint, amount int64) error {
	result := db.GetTxFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.CreditBalanceModel{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Updates(map[string]interface{}{
			"balance":       gorm.Expr("balance - ?", amount),
			"lifetime_used": gorm.Expr("lifetime_used + ?", amount),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to deduct from credit balance", "user_id", userID, "amount", amount, "error", result.Error)
		return fmt.Errorf("failed to deduct from credit balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return credit.ErrInsufficientCredits
	}
	return nil
}

// SetAutoUse toggles the auto-use-credits preference
func (r *CreditRepositoryImpl) SetAutoUse(ctx context.Context, userID uint, enabled bool) error {
	err := db.GetTxFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.CreditBalanceModel{}).
		Where("user_id = ?", userID).
		Update("auto_use_credits", enabled).Error
	if err != nil {
		r.logger.Errorw("failed to set auto-use preference", "user_id", userID, "error", err)
		return fmt.Errorf("failed to set auto-use preference: %w", err)
	}
	return nil
}

// ListTransactions returns the most recent ledger entries for a user
func (r *CreditRepositoryImpl) ListTransactions(ctx context.Context, userID uint, limit, offset int) ([]*credit.Transaction, error) {
	var txModels []*models.CreditTransactionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&txModels).Error
	if err != nil {
		r.logger.Errorw("failed to list credit transactions", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list credit transactions: %w", err)
	}

	return r.mapper.ToTransactionEntities(txModels)
}
