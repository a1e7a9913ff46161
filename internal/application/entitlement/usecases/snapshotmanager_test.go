package usecases

import (
	"context"
	"testing"

	"github.com/clawncore/colabwize-backend/internal/application/entitlement/testutil"
	"github.com/clawncore/colabwize-backend/internal/domain/entitlement"
	"github.com/clawncore/colabwize-backend/internal/domain/plan"
	"github.com/clawncore/colabwize-backend/internal/shared/biztime"
)

type snapshotFixture struct {
	manager   *SnapshotManager
	snapRepo  *testutil.MockSnapshotRepository
	subRepo   *testutil.MockSubscriptionRepository
	usageRepo *testutil.MockUsageRepository
}

func newSnapshotFixture(t *testing.T) *snapshotFixture {
	t.Helper()
	snapRepo := testutil.NewMockSnapshotRepository()
	subRepo := testutil.NewMockSubscriptionRepository()
	usageRepo := testutil.NewMockUsageRepository()
	manager := NewSnapshotManager(snapRepo, subRepo, usageRepo, plan.DefaultCatalog(), testutil.NewMockLogger())
	return &snapshotFixture{manager: manager, snapRepo: snapRepo, subRepo: subRepo, usageRepo: usageRepo}
}

// TestSnapshotManager_Get_ColdStart verifies the first Get creates and
// rebuilds a free-tier snapshot seeded from usage counters.
func TestSnapshotManager_Get_ColdStart(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()

	periodStart, _ := biztime.CalendarMonthWindow(biztime.NowUTC())
	f.usageRepo.Seed(1, plan.FeatureScansPerMonth, periodStart, 2)

	snap, err := f.manager.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if snap.PlanID() != plan.FreePlanID {
		t.Errorf("PlanID() = %q, want free", snap.PlanID())
	}
	if snap.RebuildStatus() != entitlement.RebuildStatusIdle {
		t.Errorf("RebuildStatus() = %s, want idle", snap.RebuildStatus())
	}

	rights, ok := snap.Feature(plan.FeatureScansPerMonth)
	if !ok {
		t.Fatal("scans feature missing from rebuilt snapshot")
	}
	if rights.Limit != 3 || rights.Used != 2 || rights.Remaining != 1 {
		t.Errorf("rights = %+v, want limit=3 used=2 remaining=1", rights)
	}
	if !snap.CycleStart().Equal(periodStart) {
		t.Errorf("CycleStart() = %v, want %v", snap.CycleStart(), periodStart)
	}
}

// TestSnapshotManager_Get_CycleRollover verifies a snapshot whose cycle
// has ended is rebuilt with a fresh window and reset counters.
func TestSnapshotManager_Get_CycleRollover(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()

	now := biztime.NowUTC()
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

	snap, err := f.manager.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	cycleStart, _ := biztime.CalendarMonthWindow(now)
	if !snap.CycleStart().Equal(cycleStart) {
		t.Errorf("CycleStart() = %v, want current month %v", snap.CycleStart(), cycleStart)
	}
	rights, _ := snap.Feature(plan.FeatureScansPerMonth)
	if rights.Used != 0 || rights.Remaining != 3 {
		t.Errorf("rights after rollover = %+v, want reset quota", rights)
	}
}

// TestSnapshotManager_Get_LimitDriftSelfHeal verifies a stable snapshot
// whose critical-feature limits no longer match the catalog is rebuilt.
func TestSnapshotManager_Get_LimitDriftSelfHeal(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()

	now := biztime.NowUTC()
	cycleStart, cycleEnd := biztime.CalendarMonthWindow(now)
	drifted, err := entitlement.ReconstructSnapshot(
		1, 1, plan.FreePlanID,
		map[string]entitlement.FeatureRights{
			plan.FeatureScansPerMonth: {Limit: 999, Used: 0, Remaining: 999, Enabled: true},
			plan.FeatureAIChat:        {Limit: 20, Used: 0, Remaining: 20, Enabled: true},
		},
		cycleStart, cycleEnd,
		entitlement.RebuildStatusIdle, now, 1, now, now,
	)
	if err != nil {
		t.Fatalf("ReconstructSnapshot() error = %v", err)
	}
	if err := f.snapRepo.Create(ctx, drifted); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	snap, err := f.manager.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	rights, _ := snap.Feature(plan.FeatureScansPerMonth)
	if rights.Limit != 3 {
		t.Errorf("scans limit after self-heal = %d, want 3", rights.Limit)
	}
}

// TestSnapshotManager_Get_RetriesFailedRebuild verifies a snapshot left
// in the failed state by a transient error is rebuilt on the next read
// instead of serving stale rights until cycle rollover.
func TestSnapshotManager_Get_RetriesFailedRebuild(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()

	now := biztime.NowUTC()
	cycleStart, cycleEnd := biztime.CalendarMonthWindow(now)
	failed, err := entitlement.ReconstructSnapshot(
		1, 1, plan.FreePlanID,
		map[string]entitlement.FeatureRights{
			plan.FeatureScansPerMonth: {Limit: 999, Used: 0, Remaining: 999, Enabled: true},
		},
		cycleStart, cycleEnd,
		entitlement.RebuildStatusFailed, now, 1, now, now,
	)
	if err != nil {
		t.Fatalf("ReconstructSnapshot() error = %v", err)
	}
	if err := f.snapRepo.Create(ctx, failed); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	snap, err := f.manager.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if snap.RebuildStatus() != entitlement.RebuildStatusIdle {
		t.Errorf("RebuildStatus() = %s, want idle after retry", snap.RebuildStatus())
	}
	rights, _ := snap.Feature(plan.FeatureScansPerMonth)
	if rights.Limit != 3 {
		t.Errorf("scans limit = %d, want catalog limit 3", rights.Limit)
	}
}

// TestSnapshotManager_Get_ServesLastGoodWhenRetryFails verifies the read
// path degrades to the stored snapshot, not an error, when the retried
// rebuild fails again.
func TestSnapshotManager_Get_ServesLastGoodWhenRetryFails(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()

	now := biztime.NowUTC()
	cycleStart, cycleEnd := biztime.CalendarMonthWindow(now)
	failed, err := entitlement.ReconstructSnapshot(
		1, 1, plan.FreePlanID,
		map[string]entitlement.FeatureRights{
			plan.FeatureScansPerMonth: {Limit: 3, Used: 1, Remaining: 2, Enabled: true},
		},
		cycleStart, cycleEnd,
		entitlement.RebuildStatusFailed, now, 1, now, now,
	)
	if err != nil {
		t.Fatalf("ReconstructSnapshot() error = %v", err)
	}
	if err := f.snapRepo.Create(ctx, failed); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	f.snapRepo.ConflictNext = maxConsumeRetries
	snap, err := f.manager.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error = %v, want last-good snapshot", err)
	}
	if snap.RebuildStatus() != entitlement.RebuildStatusFailed {
		t.Errorf("RebuildStatus() = %s, want failed", snap.RebuildStatus())
	}
	rights, _ := snap.Feature(plan.FeatureScansPerMonth)
	if rights.Used != 1 || rights.Remaining != 2 {
		t.Errorf("rights = %+v, want stored last-good values", rights)
	}
}

// TestSnapshotManager_Consume verifies sequential consumption depletes
// the quota and reports exhaustion without error.
func TestSnapshotManager_Consume(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		consumed, err := f.manager.Consume(ctx, 1, plan.FeatureScansPerMonth)
		if err != nil {
			t.Fatalf("Consume() #%d error = %v", i+1, err)
		}
		if !consumed {
			t.Fatalf("Consume() #%d = false, want true", i+1)
		}
	}

	consumed, err := f.manager.Consume(ctx, 1, plan.FeatureScansPerMonth)
	if err != nil {
		t.Fatalf("Consume() over quota error = %v", err)
	}
	if consumed {
		t.Error("Consume() = true on exhausted quota, want false")
	}

	snap, err := f.snapRepo.GetByUserID(ctx, 1)
	if err != nil || snap == nil {
		t.Fatalf("GetByUserID() = (%v, %v)", snap, err)
	}
	rights, _ := snap.Feature(plan.FeatureScansPerMonth)
	if rights.Used != 3 || rights.Remaining != 0 {
		t.Errorf("persisted rights = %+v, want used=3 remaining=0", rights)
	}
}

// TestSnapshotManager_Consume_RetriesVersionConflict verifies a lost
// optimistic-lock race is retried against a fresh read and still secures
// exactly one unit.
func TestSnapshotManager_Consume_RetriesVersionConflict(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()

	if _, err := f.manager.Get(ctx, 1); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	f.snapRepo.ConflictNext = 1
	consumed, err := f.manager.Consume(ctx, 1, plan.FeatureScansPerMonth)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if !consumed {
		t.Fatal("Consume() = false after retry, want true")
	}

	snap, err := f.snapRepo.GetByUserID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}
	rights, _ := snap.Feature(plan.FeatureScansPerMonth)
	if rights.Used != 1 {
		t.Errorf("persisted used = %d, want exactly 1", rights.Used)
	}
}

// TestSnapshotManager_Consume_GivesUpAfterMaxRetries verifies the retry
// loop is bounded.
func TestSnapshotManager_Consume_GivesUpAfterMaxRetries(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()

	if _, err := f.manager.Get(ctx, 1); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	f.snapRepo.ConflictNext = maxConsumeRetries + 1
	_, err := f.manager.Consume(ctx, 1, plan.FeatureScansPerMonth)
	if err != entitlement.ErrVersionConflict {
		t.Errorf("Consume() error = %v, want ErrVersionConflict", err)
	}
}

// TestSnapshotManager_Consume_UnlimitedNeverWrites verifies unlimited
// features never enter the version-guarded write path.
func TestSnapshotManager_Consume_UnlimitedNeverWrites(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()

	f.subRepo.AddSubscription(paidSubscription(t, 1, plan.PlanResearcher))
	if _, err := f.manager.Get(ctx, 1); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	// With all writes poisoned, an unlimited consume must still succeed.
	f.snapRepo.ConflictNext = 100
	consumed, err := f.manager.Consume(ctx, 1, plan.FeatureAIChat)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if !consumed {
		t.Error("Consume() = false for unlimited feature, want true")
	}
}

// TestSnapshotManager_Rebuild_PaidPlanUsesProviderPeriod verifies the
// snapshot covers the provider billing period for paid users.
func TestSnapshotManager_Rebuild_PaidPlanUsesProviderPeriod(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()

	sub := paidSubscription(t, 1, plan.PlanStudent)
	f.subRepo.AddSubscription(sub)

	snap, err := f.manager.Rebuild(ctx, 1)
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if snap.PlanID() != plan.PlanStudent {
		t.Errorf("PlanID() = %q, want student", snap.PlanID())
	}
	if !snap.CycleStart().Equal(sub.CurrentPeriodStart()) || !snap.CycleEnd().Equal(sub.CurrentPeriodEnd()) {
		t.Errorf("cycle = [%v, %v], want provider period [%v, %v]",
			snap.CycleStart(), snap.CycleEnd(), sub.CurrentPeriodStart(), sub.CurrentPeriodEnd())
	}
	rights, _ := snap.Feature(plan.FeatureScansPerMonth)
	if rights.Limit != 25 {
		t.Errorf("scans limit = %d, want 25", rights.Limit)
	}
}
