// Package mappers converts between domain aggregates and persistence
// models.
package mappers

import (
	"fmt"

	"github.com/clawncore/colabwize-backend/internal/domain/subscription"
	vo "github.com/clawncore/colabwize-backend/internal/domain/subscription/valueobjects"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/persistence/models"
)

// SubscriptionMapper handles the conversion between domain entities and persistence models
type SubscriptionMapper interface {
	// ToEntity converts a persistence model to a domain entity
	ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error)

	// ToModel converts a domain entity to a persistence model
	ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error)

	// ToEntities converts multiple persistence models to domain entities
	ToEntities(models []*models.SubscriptionModel) ([]*subscription.Subscription, error)
}

type subscriptionMapper struct{}

// NewSubscriptionMapper creates a new subscription mapper
func NewSubscriptionMapper() SubscriptionMapper {
	return &subscriptionMapper{}
}

// ToEntity converts a persistence model to a domain entity
func (m *subscriptionMapper) ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := subscription.ReconstructSubscription(
		model.ID,
		model.SID,
		model.UserID,
		model.PlanID,
		vo.SubscriptionStatus(model.Status),
		model.ProviderCustomerID,
		model.ProviderSubscriptionID,
		model.CurrentPeriodStart,
		model.CurrentPeriodEnd,
		model.RenewsAt,
		model.EndsAt,
		model.CancelAtPeriodEnd,
		model.EntitlementExpiresAt,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct subscription entity: %w", err)
	}

	return entity, nil
}

// ToModel converts a domain entity to a persistence model
func (m *subscriptionMapper) ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.SubscriptionModel{
		ID:                     entity.ID(),
		SID:                    entity.SID(),
		UserID:                 entity.UserID(),
		PlanID:                 entity.PlanID(),
		Status:                 entity.Status().String(),
		ProviderCustomerID:     entity.ProviderCustomerID(),
		ProviderSubscriptionID: entity.ProviderSubscriptionID(),
		CurrentPeriodStart:     entity.CurrentPeriodStart(),
		CurrentPeriodEnd:       entity.CurrentPeriodEnd(),
		RenewsAt:               entity.RenewsAt(),
		EndsAt:                 entity.EndsAt(),
		CancelAtPeriodEnd:      entity.CancelAtPeriodEnd(),
		EntitlementExpiresAt:   entity.EntitlementExpiresAt(),
		Version:                entity.Version(),
		CreatedAt:              entity.CreatedAt(),
		UpdatedAt:              entity.UpdatedAt(),
	}, nil
}

// ToEntities converts multiple persistence models to domain entities
func (m *subscriptionMapper) ToEntities(subModels []*models.SubscriptionModel) ([]*subscription.Subscription, error) {
	entities := make([]*subscription.Subscription, 0, len(subModels))
	for _, model := range subModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
