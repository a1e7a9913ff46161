package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clawncore/colabwize-backend/internal/domain/usage"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/persistence/mappers"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/persistence/models"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
)

// UsageRepositoryImpl implements the usage.Repository interface
type UsageRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.UsageMapper
	logger logger.Interface
}

// NewUsageRepository creates a new usage repository instance
func NewUsageRepository(db *gorm.DB, logger logger.Interface) usage.Repository {
	return &UsageRepositoryImpl{
		db:     db,
		mapper: mappers.NewUsageMapper(),
		logger: logger,
	}
}

// Increment adds delta to the (user, feature, period) counter through an
// upsert, so the first use in a period creates the row
func (r *UsageRepositoryImpl) Increment(ctx context.Context, userID uint, feature string, periodStart time.Time, delta int64) error {
	model := &models.UsageTrackingModel{
		UserID:      userID,
		Feature:     feature,
		PeriodStart: periodStart,
		Count:       delta,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "feature"},
			{Name: "period_start"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("count + ?", delta),
			"updated_at": time.Now(),
		}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to increment usage counter",
			"user_id", userID,
			"feature", feature,
			"error", err)
		return fmt.Errorf("failed to increment usage counter: %w", err)
	}
	return nil
}

// GetCount returns the counter value for one feature in a period
func (r *UsageRepositoryImpl) GetCount(ctx context.Context, userID uint, feature string, periodStart time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UsageTrackingModel{}).
		Where("user_id = ? AND feature = ? AND period_start = ?", userID, feature, periodStart).
		Select("COALESCE(SUM(count), 0)").
		Scan(&count).Error
	if err != nil {
		r.logger.Errorw("failed to get usage count",
			"user_id", userID,
			"feature", feature,
			"error", err)
		return 0, fmt.Errorf("failed to get usage count: %w", err)
	}
	return count, nil
}

// GetCountsForPeriod returns all feature counters for a user in a period
func (r *UsageRepositoryImpl) GetCountsForPeriod(ctx context.Context, userID uint, periodStart time.Time) (map[string]int64, error) {
	var rows []struct {
		Feature string
		Count   int64
	}
	err := r.db.WithContext(ctx).Model(&models.UsageTrackingModel{}).
		Where("user_id = ? AND period_start = ?", userID, periodStart).
		Select("feature, count").
		Scan(&rows).Error
	if err != nil {
		r.logger.Errorw("failed to get usage counts for period",
			"user_id", userID,
			"period_start", periodStart,
			"error", err)
		return nil, fmt.Errorf("failed to get usage counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Feature] = row.Count
	}
	return counts, nil
}

// ListForUser returns the most recent counter rows for a user
func (r *UsageRepositoryImpl) ListForUser(ctx context.Context, userID uint, limit int) ([]*usage.Record, error) {
	var usageModels []*models.UsageTrackingModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("period_start DESC, updated_at DESC").
		Limit(limit).
		Find(&usageModels).Error
	if err != nil {
		r.logger.Errorw("failed to list usage records", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}

	return r.mapper.ToEntities(usageModels)
}
