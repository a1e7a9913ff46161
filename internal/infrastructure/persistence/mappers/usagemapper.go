package mappers

import (
	"fmt"

	"github.com/clawncore/colabwize-backend/internal/domain/usage"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/persistence/models"
)

// UsageMapper handles the conversion between domain entities and persistence models
type UsageMapper interface {
	// ToEntity converts a persistence model to a domain entity
	ToEntity(model *models.UsageTrackingModel) (*usage.Record, error)

	// ToEntities converts multiple persistence models to domain entities
	ToEntities(models []*models.UsageTrackingModel) ([]*usage.Record, error)
}

type usageMapper struct{}

// NewUsageMapper creates a new usage mapper
func NewUsageMapper() UsageMapper {
	return &usageMapper{}
}

// ToEntity converts a persistence model to a domain entity
func (m *usageMapper) ToEntity(model *models.UsageTrackingModel) (*usage.Record, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := usage.ReconstructRecord(
		model.ID,
		model.UserID,
		model.Feature,
		model.PeriodStart,
		model.Count,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct usage record entity: %w", err)
	}

	return entity, nil
}

// ToEntities converts multiple persistence models to domain entities
func (m *usageMapper) ToEntities(usageModels []*models.UsageTrackingModel) ([]*usage.Record, error) {
	entities := make([]*usage.Record, 0, len(usageModels))
	for _, model := range usageModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
