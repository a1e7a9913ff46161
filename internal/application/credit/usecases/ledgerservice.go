// Package usecases provides application-level use cases for the credit
// ledger: grants, deductions, balance reads and preferences.
package usecases

import (
	"context"
	"fmt"

	"github.com/clawncore/colabwize-backend/internal/application/credit/dto"
	"github.com/clawncore/colabwize-backend/internal/domain/credit"
	"github.com/clawncore/colabwize-backend/internal/shared/db"
	apperrors "github.com/clawncore/colabwize-backend/internal/shared/errors"
	"github.com/clawncore/colabwize-backend/internal/shared/goroutine"
	"github.com/clawncore/colabwize-backend/internal/shared/id"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
)

// transactionSIDLength is the random part length of ledger entry SIDs.
const transactionSIDLength = 16

// ReceiptNotifier sends a confirmation when credits land on an account.
// Implementations must be safe for concurrent use.
type ReceiptNotifier interface {
	SendCreditGrantReceipt(email string, amount, balance int64, grantType string) error
}

// LedgerService is the only writer of credit balances and ledger entries.
// Grant and deduction paths run inside one storage transaction so the
// balance row and its ledger entry can never diverge.
type LedgerService struct {
	creditRepo credit.Repository
	txManager  *db.TransactionManager
	notifier   ReceiptNotifier
	logger     logger.Interface
}

// NewLedgerService creates a new LedgerService instance. notifier may be
// nil when receipt delivery is disabled.
func NewLedgerService(
	creditRepo credit.Repository,
	txManager *db.TransactionManager,
	notifier ReceiptNotifier,
	logger logger.Interface,
) *LedgerService {
	return &LedgerService{
		creditRepo: creditRepo,
		txManager:  txManager,
		notifier:   notifier,
		logger:     logger,
	}
}

// AddCredits grants credits to a user. A PURCHASE replay (same external
// reference id) is a no-op returning the current balance, so webhook
// redelivery can never double-grant.
func (s *LedgerService) AddCredits(ctx context.Context, cmd dto.AddCreditsCommand) (*credit.Balance, error) {
	txType := credit.TransactionType(cmd.Type)
	if !txType.IsGrant() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid grant type: %s", cmd.Type))
	}
	if cmd.Amount <= 0 {
		return nil, apperrors.NewValidationError("grant amount must be positive")
	}

	var replayed bool
	err := s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if txType == credit.TypePurchase && cmd.ReferenceID != nil {
			existing, err := s.creditRepo.FindPurchaseByReference(txCtx, *cmd.ReferenceID)
			if err != nil {
				return err
			}
			if existing != nil {
				replayed = true
				return nil
			}
		}

		if err := s.ensureBalance(txCtx, cmd.UserID); err != nil {
			return err
		}

		sid := id.MustGenerateWithPrefix(id.PrefixCreditTransaction, transactionSIDLength)
		tx, err := credit.NewGrantTransaction(sid, cmd.UserID, cmd.Amount, txType, cmd.ReferenceID, cmd.Description)
		if err != nil {
			return apperrors.NewValidationError(err.Error())
		}
		if err := s.creditRepo.CreateTransaction(txCtx, tx); err != nil {
			return err
		}

		return s.creditRepo.AddToBalance(txCtx, cmd.UserID, cmd.Amount, true)
	})
	if err != nil {
		return nil, err
	}

	balance, err := s.creditRepo.GetBalanceByUserID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	if replayed {
		s.logger.Infow("credit grant replay ignored",
			"user_id", cmd.UserID,
			"reference_id", cmd.ReferenceID,
		)
		return balance, nil
	}

	s.logger.Infow("credits granted",
		"user_id", cmd.UserID,
		"amount", cmd.Amount,
		"type", cmd.Type,
	)
	s.sendReceipt(cmd, balance)
	return balance, nil
}

// Deduct atomically charges credits for metered usage. The conditional
// balance decrement and the USAGE ledger entry commit together or not at
// all; an uncovered balance returns credit.ErrInsufficientCredits with no
// effect.
func (s *LedgerService) Deduct(ctx context.Context, userID uint, amount int64, referenceID *string, description string) error {
	if amount <= 0 {
		return apperrors.NewValidationError("deduction amount must be positive")
	}

	return s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		balance, err := s.creditRepo.GetBalanceByUserID(txCtx, userID)
		if err != nil {
			return err
		}
		if balance == nil {
			return credit.ErrInsufficientCredits
		}

		if err := s.creditRepo.DeductFromBalance(txCtx, userID, amount); err != nil {
			return err
		}

		sid := id.MustGenerateWithPrefix(id.PrefixCreditTransaction, transactionSIDLength)
		tx, err := credit.NewUsageTransaction(sid, userID, amount, referenceID, description)
		if err != nil {
			return apperrors.NewValidationError(err.Error())
		}
		return s.creditRepo.CreateTransaction(txCtx, tx)
	})
}

// GetBalance returns the user's balance row, or nil when the user has
// never held credits.
func (s *LedgerService) GetBalance(ctx context.Context, userID uint) (*credit.Balance, error) {
	return s.creditRepo.GetBalanceByUserID(ctx, userID)
}

// GetBalanceResponse returns the API view of a user's credit standing.
// Users with no balance row read as an empty, auto-use-on account.
func (s *LedgerService) GetBalanceResponse(ctx context.Context, userID uint) (*dto.BalanceResponse, error) {
	balance, err := s.creditRepo.GetBalanceByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return &dto.BalanceResponse{AutoUseCredits: true}, nil
	}
	return &dto.BalanceResponse{
		Balance:           balance.Current(),
		LifetimePurchased: balance.LifetimePurchased(),
		LifetimeUsed:      balance.LifetimeUsed(),
		AutoUseCredits:    balance.AutoUseCredits(),
	}, nil
}

// SetAutoUse toggles whether the gate engine may fall back to credits
// when plan quota runs out.
func (s *LedgerService) SetAutoUse(ctx context.Context, userID uint, enabled bool) error {
	if err := s.ensureBalance(ctx, userID); err != nil {
		return err
	}
	return s.creditRepo.SetAutoUse(ctx, userID, enabled)
}

// ListTransactions returns a page of the user's ledger history, newest
// first.
func (s *LedgerService) ListTransactions(ctx context.Context, userID uint, limit, offset int) ([]*dto.TransactionResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	txs, err := s.creditRepo.ListTransactions(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		responses = append(responses, &dto.TransactionResponse{
			ID:          tx.SID(),
			Amount:      tx.Amount(),
			Type:        tx.Type().String(),
			ReferenceID: tx.ReferenceID(),
			Description: tx.Description(),
			CreatedAt:   tx.CreatedAt(),
		})
	}
	return responses, nil
}

func (s *LedgerService) ensureBalance(ctx context.Context, userID uint) error {
	balance, err := s.creditRepo.GetBalanceByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if balance != nil {
		return nil
	}

	balance, err = credit.NewBalance(userID)
	if err != nil {
		return err
	}
	return s.creditRepo.CreateBalance(ctx, balance)
}

func (s *LedgerService) sendReceipt(cmd dto.AddCreditsCommand, balance *credit.Balance) {
	if s.notifier == nil || cmd.Email == "" || balance == nil {
		return
	}
	current := balance.Current()
	goroutine.SafeGo(s.logger, "credit-receipt", func() {
		if err := s.notifier.SendCreditGrantReceipt(cmd.Email, cmd.Amount, current, cmd.Type); err != nil {
			s.logger.Warnw("failed to send credit receipt",
				"user_id", cmd.UserID,
				"error", err,
			)
		}
	})
}
