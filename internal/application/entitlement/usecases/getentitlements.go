package usecases

import (
	"context"

	"github.com/clawncore/colabwize-backend/internal/application/entitlement/dto"
	"github.com/clawncore/colabwize-backend/internal/domain/entitlement"
)

// GetEntitlementsUseCase returns the caller's full entitlement snapshot,
// self-healed on the way out.
type GetEntitlementsUseCase struct {
	snapshots *SnapshotManager
}

// NewGetEntitlementsUseCase creates a new GetEntitlementsUseCase instance.
func NewGetEntitlementsUseCase(snapshots *SnapshotManager) *GetEntitlementsUseCase {
	return &GetEntitlementsUseCase{snapshots: snapshots}
}

// Execute loads (and if stale, rebuilds) the user's snapshot.
func (uc *GetEntitlementsUseCase) Execute(ctx context.Context, userID uint) (*dto.SnapshotResponse, error) {
	snap, err := uc.snapshots.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toSnapshotResponse(snap), nil
}

func toSnapshotResponse(snap *entitlement.Snapshot) *dto.SnapshotResponse {
	features := make(map[string]dto.FeatureRightsResponse, len(snap.Features()))
	for key, rights := range snap.Features() {
		features[key] = dto.FeatureRightsResponse{
			Limit:     rights.Limit,
			Used:      rights.Used,
			Remaining: rights.Remaining,
			Unlimited: rights.Unlimited,
			Enabled:   rights.Enabled,
		}
	}
	return &dto.SnapshotResponse{
		PlanID:        snap.PlanID(),
		Features:      features,
		CycleStart:    snap.CycleStart(),
		CycleEnd:      snap.CycleEnd(),
		RebuildStatus: snap.RebuildStatus().String(),
		LastRebuiltAt: snap.LastRebuiltAt(),
	}
}
