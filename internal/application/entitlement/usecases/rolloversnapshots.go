package usecases

import (
	"context"

	"github.com/clawncore/colabwize-backend/internal/domain/entitlement"
	"github.com/clawncore/colabwize-backend/internal/shared/biztime"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
)

// rolloverBatchSize bounds how many snapshots one sweep pass rebuilds.
const rolloverBatchSize = 200

// RolloverSnapshotsUseCase is the scheduled sweep that rebuilds snapshots
// whose billing cycle has ended. Reads self-heal on their own, so this
// only keeps idle accounts from serving a stale cycle on their first
// request of the new period.
type RolloverSnapshotsUseCase struct {
	snapshotRepo entitlement.SnapshotRepository
	snapshots    *SnapshotManager
	logger       logger.Interface
}

// NewRolloverSnapshotsUseCase creates a new RolloverSnapshotsUseCase instance.
func NewRolloverSnapshotsUseCase(
	snapshotRepo entitlement.SnapshotRepository,
	snapshots *SnapshotManager,
	logger logger.Interface,
) *RolloverSnapshotsUseCase {
	return &RolloverSnapshotsUseCase{
		snapshotRepo: snapshotRepo,
		snapshots:    snapshots,
		logger:       logger,
	}
}

// Execute rebuilds all snapshots whose cycle ended before now. Returns
// the number of snapshots rolled over; users that fail are logged and
// left for the next sweep (or for the self-heal on their next read).
func (uc *RolloverSnapshotsUseCase) Execute(ctx context.Context) (int, error) {
	now := biztime.NowUTC()
	userIDs, err := uc.snapshotRepo.ListCycleExpired(ctx, now, rolloverBatchSize)
	if err != nil {
		return 0, err
	}

	rolled := 0
	for _, userID := range userIDs {
		if _, err := uc.snapshots.Rebuild(ctx, userID); err != nil {
			uc.logger.Errorw("cycle rollover rebuild failed",
				"user_id", userID,
				"error", err,
			)
			continue
		}
		rolled++
	}

	if rolled > 0 {
		uc.logger.Infow("rolled over expired billing cycles", "count", rolled)
	}
	return rolled, nil
}
