package mappers

import (
	"fmt"

	"github.com/clawncore/colabwize-backend/internal/domain/credit"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/persistence/models"
)

// CreditMapper handles the conversion between domain entities and persistence models
type CreditMapper interface {
	// ToBalanceEntity converts a balance persistence model to a domain entity
	ToBalanceEntity(model *models.CreditBalanceModel) (*credit.Balance, error)

	// ToBalanceModel converts a balance domain entity to a persistence model
	ToBalanceModel(entity *credit.Balance) (*models.CreditBalanceModel, error)

	// ToTransactionEntity converts a transaction persistence model to a domain entity
	ToTransactionEntity(model *models.CreditTransactionModel) (*credit.Transaction, error)

	// ToTransactionModel converts a transaction domain entity to a persistence model
	ToTransactionModel(entity *credit.Transaction) (*models.CreditTransactionModel, error)

	// ToTransactionEntities converts multiple transaction models to domain entities
	ToTransactionEntities(models []*models.CreditTransactionModel) ([]*credit.Transaction, error)
}

type creditMapper struct{}

// NewCreditMapper creates a new credit mapper
func NewCreditMapper() CreditMapper {
	return &creditMapper{}
}

// ToBalanceEntity converts a balance persistence model to a domain entity
func (m *creditMapper) ToBalanceEntity(model *models.CreditBalanceModel) (*credit.Balance, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := credit.ReconstructBalance(
		model.ID,
		model.UserID,
		model.Balance,
		model.LifetimePurchased,
		model.LifetimeUsed,
		model.AutoUseCredits,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct credit balance entity: %w", err)
	}

	return entity, nil
}

// ToBalanceModel converts a balance domain entity to a persistence model
func (m *creditMapper) ToBalanceModel(entity *credit.Balance) (*models.CreditBalanceModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.CreditBalanceModel{
		ID:                entity.ID(),
		UserID:            entity.UserID(),
		Balance:           entity.Current(),
		LifetimePurchased: entity.LifetimePurchased(),
		LifetimeUsed:      entity.LifetimeUsed(),
		AutoUseCredits:    entity.AutoUseCredits(),
		UpdatedAt:         entity.UpdatedAt(),
	}, nil
}

// ToTransactionEntity converts a transaction persistence model to a domain entity
func (m *creditMapper) ToTransactionEntity(model *models.CreditTransactionModel) (*credit.Transaction, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := credit.ReconstructTransaction(
		model.ID,
		model.SID,
		model.UserID,
		model.Amount,
		credit.TransactionType(model.Type),
		model.ReferenceID,
		model.Description,
		model.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct credit transaction entity: %w", err)
	}

	return entity, nil
}

// ToTransactionModel converts a transaction domain entity to a persistence model
func (m *creditMapper) ToTransactionModel(entity *credit.Transaction) (*models.CreditTransactionModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.CreditTransactionModel{
		ID:          entity.ID(),
		SID:         entity.SID(),
		UserID:      entity.UserID(),
		Amount:      entity.Amount(),
		Type:        entity.Type().String(),
		ReferenceID: entity.ReferenceID(),
		Description: entity.Description(),
		CreatedAt:   entity.CreatedAt(),
	}, nil
}

// ToTransactionEntities converts multiple transaction models to domain entities
func (m *creditMapper) ToTransactionEntities(txModels []*models.CreditTransactionModel) ([]*credit.Transaction, error) {
	entities := make([]*credit.Transaction, 0, len(txModels))
	for _, model := range txModels {
		entity, err := m.ToTransactionEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
