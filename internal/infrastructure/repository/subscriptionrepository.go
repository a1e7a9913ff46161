// Package repository provides GORM-backed implementations of the domain
// repository interfaces.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/clawncore/colabwize-backend/internal/domain/subscription"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/persistence/mappers"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/persistence/models"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
)

// SubscriptionRepositoryImpl implements the subscription.Repository interface
type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SubscriptionMapper
	logger logger.Interface
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB, logger logger.Interface) subscription.Repository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mappers.NewSubscriptionMapper(),
		logger: logger,
	}
}

// GetByUserID retrieves the subscription for a user, or nil if none exists
func (r *SubscriptionRepositoryImpl) GetByUserID(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	var model models.SubscriptionModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get subscription", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// Create inserts a new subscription row
func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, sub *subscription.Subscription) error {
	model, err := r.mapper.ToModel(sub)
	if err != nil {
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create subscription",
			"user_id", sub.UserID(),
			"plan_id", sub.PlanID(),
			"error", err)
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	if err := sub.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set subscription ID: %w", err)
	}

	r.logger.Infow("subscription created",
		"id", model.ID,
		"sid", model.SID,
		"user_id", model.UserID,
		"plan_id", model.PlanID)
	return nil
}

// Update persists the subscription under its optimistic lock. The guard
// matches the version the aggregate was loaded with, since applying one
// billing event can bump the version more than once.
func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, sub *subscription.Subscription) error {
	model, err := r.mapper.ToModel(sub)
	if err != nil {
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	result := r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
		Where("id = ? AND version = ?", model.ID, sub.LoadedVersion()).
		Updates(map[string]interface{}{
			"plan_id":                  model.PlanID,
			"status":                   model.Status,
			"provider_customer_id":     model.ProviderCustomerID,
			"provider_subscription_id": model.ProviderSubscriptionID,
			"current_period_start":     model.CurrentPeriodStart,
			"current_period_end":       model.CurrentPeriodEnd,
			"renews_at":                model.RenewsAt,
			"ends_at":                  model.EndsAt,
			"cancel_at_period_end":     model.CancelAtPeriodEnd,
			"entitlement_expires_at":   model.EntitlementExpiresAt,
			"version":                  model.Version,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update subscription", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return subscription.ErrVersionConflict
	}

	return nil
}

// ListEntitlementExpired returns subscriptions whose entitlement cutoff has
// passed but whose status was never downgraded
func (r *SubscriptionRepositoryImpl) ListEntitlementExpired(ctx context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	var subModels []*models.SubscriptionModel
	err := r.db.WithContext(ctx).
		Where("entitlement_expires_at IS NOT NULL AND entitlement_expires_at <= ? AND status <> ?", now, "expired").
		Limit(limit).
		Find(&subModels).Error
	if err != nil {
		r.logger.Errorw("failed to list expired subscriptions", "error", err)
		return nil, fmt.Errorf("failed to list expired subscriptions: %w", err)
	}

	return r.mapper.ToEntities(subModels)
}
