package models

import (
	"time"

	"github.com/clawncore/colabwize-backend/internal/shared/constants"
)

// UsageTrackingModel represents the database persistence model for
// per-period usage counters. One row per (user, feature, period_start),
// incremented atomically.
type UsageTrackingModel struct {
	ID          uint      `gorm:"primarykey"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_user_feature_period,priority:1"`
	Feature     string    `gorm:"not null;size:50;uniqueIndex:idx_user_feature_period,priority:2"`
	PeriodStart time.Time `gorm:"not null;uniqueIndex:idx_user_feature_period,priority:3"`
	Count       int64     `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for GORM
func (UsageTrackingModel) TableName() string {
	return constants.TableUsageTracking
}
