package usecases

import (
	"context"
	"testing"

	"github.com/clawncore/colabwize-backend/internal/application/entitlement/testutil"
	"github.com/clawncore/colabwize-backend/internal/domain/entitlement"
	"github.com/clawncore/colabwize-backend/internal/domain/plan"
	"github.com/clawncore/colabwize-backend/internal/shared/biztime"
)

// TestRolloverSnapshots verifies the sweep rebuilds only snapshots whose
// cycle has ended and leaves current ones alone.
func TestRolloverSnapshots(t *testing.T) {
	f := newSnapshotFixture(t)
	uc := NewRolloverSnapshotsUseCase(f.snapRepo, f.manager, testutil.NewMockLogger())
	ctx := context.Background()

	now := biztime.NowUTC()
	cycleStart, cycleEnd := biztime.CalendarMonthWindow(now)

	stale, err := entitlement.ReconstructSnapshot(
		1, 1, plan.FreePlanID,
		map[string]entitlement.FeatureRights{
			plan.FeatureScansPerMonth: {Limit: 3, Used: 3, Remaining: 0, Enabled: true},
		},
		now.AddDate(0, -2, 0), now.AddDate(0, -1, 0),
		entitlement.RebuildStatusIdle, now.AddDate(0, -1, 0), 1, now, now,
	)
	if err != nil {
		t.Fatalf("ReconstructSnapshot() error = %v", err)
	}
	if err := f.snapRepo.Create(ctx, stale); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	fresh, err := entitlement.ReconstructSnapshot(
		2, 2, plan.FreePlanID,
		map[string]entitlement.FeatureRights{
			plan.FeatureScansPerMonth: {Limit: 3, Used: 2, Remaining: 1, Enabled: true},
		},
		cycleStart, cycleEnd,
		entitlement.RebuildStatusIdle, now, 1, now, now,
	)
	if err != nil {
		t.Fatalf("ReconstructSnapshot() error = %v", err)
	}
	if err := f.snapRepo.Create(ctx, fresh); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rolled, err := uc.Execute(ctx)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if rolled != 1 {
		t.Errorf("Execute() = %d, want 1", rolled)
	}

	snap, err := f.snapRepo.GetByUserID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByUserID(1) error = %v", err)
	}
	if !snap.CycleStart().Equal(cycleStart) {
		t.Errorf("rolled snapshot cycle start = %v, want %v", snap.CycleStart(), cycleStart)
	}
	rights, _ := snap.Feature(plan.FeatureScansPerMonth)
	if rights.Used != 0 || rights.Remaining != 3 {
		t.Errorf("rolled rights = %+v, want reset quota", rights)
	}

	untouched, err := f.snapRepo.GetByUserID(ctx, 2)
	if err != nil {
		t.Fatalf("GetByUserID(2) error = %v", err)
	}
	if got, _ := untouched.Feature(plan.FeatureScansPerMonth); got.Used != 2 {
		t.Errorf("current-cycle snapshot was rebuilt, used = %d, want 2", got.Used)
	}

	// A second pass finds nothing left to roll.
	rolled, err = uc.Execute(ctx)
	if err != nil {
		t.Fatalf("Execute() second pass error = %v", err)
	}
	if rolled != 0 {
		t.Errorf("Execute() second pass = %d, want 0", rolled)
	}
}
