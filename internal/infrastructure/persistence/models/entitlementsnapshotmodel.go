package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/clawncore/colabwize-backend/internal/shared/constants"
)

// EntitlementSnapshotModel represents the database persistence model for
// entitlement snapshots. Features is a JSON map keyed by canonical
// feature name; the version column backs the optimistic-lock consume path.
type EntitlementSnapshotModel struct {
	ID            uint           `gorm:"primarykey"`
	UserID        uint           `gorm:"uniqueIndex;not null"`
	PlanID        string         `gorm:"not null;size:50"`
	Features      datatypes.JSON `gorm:"not null"`
	CycleStart    time.Time
	CycleEnd      time.Time `gorm:"index:idx_cycle_end"`
	RebuildStatus string    `gorm:"not null;size:20;default:idle"`
	LastRebuiltAt time.Time
	Version       int `gorm:"not null;default:1"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName specifies the table name for GORM
func (EntitlementSnapshotModel) TableName() string {
	return constants.TableEntitlementSnapshots
}

// BeforeCreate hook for GORM
func (s *EntitlementSnapshotModel) BeforeCreate(tx *gorm.DB) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
