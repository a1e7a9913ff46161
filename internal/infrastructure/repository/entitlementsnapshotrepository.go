package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/clawncore/colabwize-backend/internal/domain/entitlement"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/persistence/mappers"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/persistence/models"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
)

// EntitlementSnapshotRepositoryImpl implements the entitlement.SnapshotRepository interface
type EntitlementSnapshotRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SnapshotMapper
	logger logger.Interface
}

// NewEntitlementSnapshotRepository creates a new entitlement snapshot repository instance
func NewEntitlementSnapshotRepository(db *gorm.DB, logger logger.Interface) entitlement.SnapshotRepository {
	return &EntitlementSnapshotRepositoryImpl{
		db:     db,
		mapper: mappers.NewSnapshotMapper(),
		logger: logger,
	}
}

// GetByUserID retrieves the snapshot for a user, or nil if none exists
func (r *EntitlementSnapshotRepositoryImpl) GetByUserID(ctx context.Context, userID uint) (*entitlement.Snapshot, error) {
	var model models.EntitlementSnapshotModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get entitlement snapshot", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get entitlement snapshot: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// Create inserts a new snapshot row
func (r *EntitlementSnapshotRepositoryImpl) Create(ctx context.Context, s *entitlement.Snapshot) error {
	model, err := r.mapper.ToModel(s)
	if err != nil {
		return fmt.Errorf("failed to map snapshot entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create entitlement snapshot",
			"user_id", s.UserID(),
			"error", err)
		return fmt.Errorf("failed to create entitlement snapshot: %w", err)
	}

	if err := s.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set snapshot ID: %w", err)
	}

	return nil
}

// UpdateWithVersion persists the snapshot guarded by the version the
// aggregate was loaded with. Zero rows affected means a concurrent writer
// advanced the version first; the caller re-reads and retries.
func (r *EntitlementSnapshotRepositoryImpl) UpdateWithVersion(ctx context.Context, s *entitlement.Snapshot) error {
	model, err := r.mapper.ToModel(s)
	if err != nil {
		return fmt.Errorf("failed to map snapshot entity: %w", err)
	}

	result := r.db.WithContext(ctx).Model(&models.EntitlementSnapshotModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]interface{}{
			"plan_id":         model.PlanID,
			"features":        model.Features,
			"cycle_start":     model.CycleStart,
			"cycle_end":       model.CycleEnd,
			"rebuild_status":  model.RebuildStatus,
			"last_rebuilt_at": model.LastRebuiltAt,
			"version":         model.Version,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update entitlement snapshot",
			"user_id", s.UserID(),
			"version", model.Version,
			"error", result.Error)
		return fmt.Errorf("failed to update entitlement snapshot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return entitlement.ErrVersionConflict
	}

	return nil
}

// ListCycleExpired returns the user ids of snapshots whose cycle ended
// before now
func (r *EntitlementSnapshotRepositoryImpl) ListCycleExpired(ctx context.Context, now time.Time, limit int) ([]uint, error) {
	var userIDs []uint
	err := r.db.WithContext(ctx).Model(&models.EntitlementSnapshotModel{}).
		Where("cycle_end < ?", now).
		Order("cycle_end ASC").
		Limit(limit).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		r.logger.Errorw("failed to list cycle-expired snapshots", "error", err)
		return nil, fmt.Errorf("failed to list cycle-expired snapshots: %w", err)
	}
	return userIDs, nil
}

// SetRebuildStatus updates only the rebuild status column, outside the
// version guard, so the failed marker survives even when the rebuild's
// main write never happened
func (r *EntitlementSnapshotRepositoryImpl) SetRebuildStatus(ctx context.Context, userID uint, status entitlement.RebuildStatus) error {
	err := r.db.WithContext(ctx).Model(&models.EntitlementSnapshotModel{}).
		Where("user_id = ?", userID).
		Update("rebuild_status", status.String()).Error
	if err != nil {
		r.logger.Errorw("failed to set snapshot rebuild status",
			"user_id", userID,
			"status", status.String(),
			"error", err)
		return fmt.Errorf("failed to set snapshot rebuild status: %w", err)
	}
	return nil
}
