package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/clawncore/colabwize-backend/internal/domain/entitlement"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/persistence/models"
)

// SnapshotMapper handles the conversion between domain entities and persistence models
type SnapshotMapper interface {
	// ToEntity converts a persistence model to a domain entity
	ToEntity(model *models.EntitlementSnapshotModel) (*entitlement.Snapshot, error)

	// ToModel converts a domain entity to a persistence model
	ToModel(entity *entitlement.Snapshot) (*models.EntitlementSnapshotModel, error)
}

type snapshotMapper struct{}

// NewSnapshotMapper creates a new snapshot mapper
func NewSnapshotMapper() SnapshotMapper {
	return &snapshotMapper{}
}

// ToEntity converts a persistence model to a domain entity
func (m *snapshotMapper) ToEntity(model *models.EntitlementSnapshotModel) (*entitlement.Snapshot, error) {
	if model == nil {
		return nil, nil
	}

	features := make(map[string]entitlement.FeatureRights)
	if len(model.Features) > 0 {
		if err := json.Unmarshal(model.Features, &features); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot features: %w", err)
		}
	}

	entity, err := entitlement.ReconstructSnapshot(
		model.ID,
		model.UserID,
		model.PlanID,
		features,
		model.CycleStart,
		model.CycleEnd,
		entitlement.RebuildStatus(model.RebuildStatus),
		model.LastRebuiltAt,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct snapshot entity: %w", err)
	}

	return entity, nil
}

// ToModel converts a domain entity to a persistence model
func (m *snapshotMapper) ToModel(entity *entitlement.Snapshot) (*models.EntitlementSnapshotModel, error) {
	if entity == nil {
		return nil, nil
	}

	features, err := json.Marshal(entity.Features())
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot features: %w", err)
	}

	return &models.EntitlementSnapshotModel{
		ID:            entity.ID(),
		UserID:        entity.UserID(),
		PlanID:        entity.PlanID(),
		Features:      datatypes.JSON(features),
		CycleStart:    entity.CycleStart(),
		CycleEnd:      entity.CycleEnd(),
		RebuildStatus: entity.RebuildStatus().String(),
		LastRebuiltAt: entity.LastRebuiltAt(),
		Version:       entity.Version(),
		CreatedAt:     entity.CreatedAt(),
		UpdatedAt:     entity.UpdatedAt(),
	}, nil
}
