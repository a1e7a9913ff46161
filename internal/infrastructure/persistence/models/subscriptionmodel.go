package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/clawncore/colabwize-backend/internal/shared/constants"
)

// SubscriptionModel represents the database persistence model for subscriptions
// This is the anti-corruption layer between domain and database
type SubscriptionModel struct {
	ID                     uint   `gorm:"primarykey"`
	SID                    string `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: sub_xxx"`
	UserID                 uint   `gorm:"uniqueIndex;not null"`
	PlanID                 string `gorm:"not null;size:50;index:idx_plan"`
	Status                 string `gorm:"not null;size:20;index:idx_status"`
	ProviderCustomerID     string `gorm:"size:100;index:idx_provider_customer"`
	ProviderSubscriptionID string `gorm:"size:100;index:idx_provider_subscription"`
	CurrentPeriodStart     time.Time
	CurrentPeriodEnd       time.Time
	RenewsAt               *time.Time
	EndsAt                 *time.Time
	CancelAtPeriodEnd      bool       `gorm:"default:false"`
	EntitlementExpiresAt   *time.Time `gorm:"index:idx_entitlement_expires"`
	Version                int        `gorm:"not null;default:1"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
	DeletedAt              gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

// BeforeCreate hook for GORM
func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
