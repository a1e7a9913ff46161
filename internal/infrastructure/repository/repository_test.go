package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clawncore/colabwize-backend/internal/application/entitlement/testutil"
	"github.com/clawncore/colabwize-backend/internal/domain/credit"
	"github.com/clawncore/colabwize-backend/internal/domain/entitlement"
	"github.com/clawncore/colabwize-backend/internal/domain/plan"
	"github.com/clawncore/colabwize-backend/internal/domain/subscription"
	vo "github.com/clawncore/colabwize-backend/internal/domain/subscription/valueobjects"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/persistence/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.SubscriptionModel{},
		&models.EntitlementSnapshotModel{},
		&models.CreditBalanceModel{},
		&models.CreditTransactionModel{},
		&models.UsageTrackingModel{},
	)
	require.NoError(t, err)

	return db
}

func TestCreditRepository_BalanceLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCreditRepository(db, testutil.NewMockLogger())
	ctx := context.Background()

	t.Run("missing balance reads as nil", func(t *testing.T) {
		balance, err := repo.GetBalanceByUserID(ctx, 1)
		assert.NoError(t, err)
		assert.Nil(t, balance)
	})

	t.Run("create and read back", func(t *testing.T) {
		balance, err := credit.NewBalance(1)
		require.NoError(t, err)
		require.NoError(t, repo.CreateBalance(ctx, balance))

		found, err := repo.GetBalanceByUserID(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, int64(0), found.Current())
		assert.True(t, found.AutoUseCredits())
	})

	t.Run("add to balance", func(t *testing.T) {
		require.NoError(t, repo.AddToBalance(ctx, 1, 100, true))

		found, err := repo.GetBalanceByUserID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(100), found.Current())
		assert.Equal(t, int64(100), found.LifetimePurchased())
	})

	t.Run("add to missing balance fails", func(t *testing.T) {
		err := repo.AddToBalance(ctx, 999, 100, true)
		assert.ErrorIs(t, err, credit.ErrBalanceNotFound)
	})
}

func TestCreditRepository_DeductFromBalance(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCreditRepository(db, testutil.NewMockLogger())
	ctx := context.Background()

	balance, err := credit.NewBalance(1)
	require.NoError(t, err)
	require.NoError(t, repo.CreateBalance(ctx, balance))
	require.NoError(t, repo.AddToBalance(ctx, 1, 10, true))

	t.Run("deduct within balance", func(t *testing.T) {
		require.NoError(t, repo.DeductFromBalance(ctx, 1, 7))

		found, err := repo.GetBalanceByUserID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(3), found.Current())
		assert.Equal(t, int64(7), found.LifetimeUsed())
	})

	t.Run("deduct over balance has no effect", func(t *testing.T) {
		err := repo.DeductFromBalance(ctx, 1, 4)
		assert.ErrorIs(t, err, credit.ErrInsufficientCredits)

		found, err := repo.GetBalanceByUserID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(3), found.Current())
		assert.Equal(t, int64(7), found.LifetimeUsed())
	})

	t.Run("deduct exact balance reaches zero", func(t *testing.T) {
		require.NoError(t, repo.DeductFromBalance(ctx, 1, 3))

		found, err := repo.GetBalanceByUserID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(0), found.Current())
	})
}

func TestCreditRepository_Transactions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCreditRepository(db, testutil.NewMockLogger())
	ctx := context.Background()

	ref := "order_123"
	purchase, err := credit.NewGrantTransaction("ctx_p1", 1, 100, credit.TypePurchase, &ref, "credit pack")
	require.NoError(t, err)
	require.NoError(t, repo.CreateTransaction(ctx, purchase))
	assert.NotZero(t, purchase.ID())

	usage, err := credit.NewUsageTransaction("ctx_u1", 1, 3, nil, "scan usage")
	require.NoError(t, err)
	require.NoError(t, repo.CreateTransaction(ctx, usage))

	t.Run("find purchase by reference", func(t *testing.T) {
		found, err := repo.FindPurchaseByReference(ctx, ref)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "ctx_p1", found.SID())
		assert.Equal(t, int64(100), found.Amount())
	})

	t.Run("unknown reference reads as nil", func(t *testing.T) {
		found, err := repo.FindPurchaseByReference(ctx, "order_999")
		assert.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("list newest first", func(t *testing.T) {
		txs, err := repo.ListTransactions(ctx, 1, 10, 0)
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, "ctx_u1", txs[0].SID())
		assert.Equal(t, int64(-3), txs[0].Amount())
		assert.Equal(t, "ctx_p1", txs[1].SID())
	})

	t.Run("offset pages through history", func(t *testing.T) {
		txs, err := repo.ListTransactions(ctx, 1, 1, 1)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, "ctx_p1", txs[0].SID())
	})
}

func TestCreditRepository_SetAutoUse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCreditRepository(db, testutil.NewMockLogger())
	ctx := context.Background()

	balance, err := credit.NewBalance(1)
	require.NoError(t, err)
	require.NoError(t, repo.CreateBalance(ctx, balance))

	require.NoError(t, repo.SetAutoUse(ctx, 1, false))
	found, err := repo.GetBalanceByUserID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found.AutoUseCredits())

	// Toggling to the current value is a no-op, not an error.
	require.NoError(t, repo.SetAutoUse(ctx, 1, false))
}

func TestEntitlementSnapshotRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntitlementSnapshotRepository(db, testutil.NewMockLogger())
	ctx := context.Background()

	newSnapshot := func(t *testing.T, userID uint) *entitlement.Snapshot {
		t.Helper()
		snap, err := entitlement.NewSnapshot(userID)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, snap))
		return snap
	}

	t.Run("missing snapshot reads as nil", func(t *testing.T) {
		snap, err := repo.GetByUserID(ctx, 999)
		assert.NoError(t, err)
		assert.Nil(t, snap)
	})

	t.Run("feature map survives the round trip", func(t *testing.T) {
		snap := newSnapshot(t, 1)

		now := time.Now().UTC().Truncate(time.Second)
		features := map[string]entitlement.FeatureRights{
			plan.FeatureScansPerMonth: {Limit: 25, Used: 5, Remaining: 20, Enabled: true},
			plan.FeatureAIChat:        {Limit: -1, Remaining: -1, Unlimited: true, Enabled: true},
		}
		snap.CompleteRebuild(plan.PlanStudent, features, now, now.AddDate(0, 1, 0), now)
		require.NoError(t, repo.UpdateWithVersion(ctx, snap))

		found, err := repo.GetByUserID(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, plan.PlanStudent, found.PlanID())
		assert.Equal(t, snap.Version(), found.Version())

		rights, ok := found.Feature(plan.FeatureScansPerMonth)
		require.True(t, ok)
		assert.Equal(t, entitlement.FeatureRights{Limit: 25, Used: 5, Remaining: 20, Enabled: true}, rights)

		chat, ok := found.Feature(plan.FeatureAIChat)
		require.True(t, ok)
		assert.True(t, chat.Unlimited)
	})

	t.Run("stale version loses the write", func(t *testing.T) {
		newSnapshot(t, 2)

		first, err := repo.GetByUserID(ctx, 2)
		require.NoError(t, err)
		second, err := repo.GetByUserID(ctx, 2)
		require.NoError(t, err)

		now := time.Now().UTC()
		first.CompleteRebuild(plan.FreePlanID, map[string]entitlement.FeatureRights{}, now, now.AddDate(0, 1, 0), now)
		require.NoError(t, repo.UpdateWithVersion(ctx, first))

		second.CompleteRebuild(plan.PlanStudent, map[string]entitlement.FeatureRights{}, now, now.AddDate(0, 1, 0), now)
		err = repo.UpdateWithVersion(ctx, second)
		assert.ErrorIs(t, err, entitlement.ErrVersionConflict)

		found, err := repo.GetByUserID(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, plan.FreePlanID, found.PlanID())
	})

	t.Run("set rebuild status outside the version guard", func(t *testing.T) {
		newSnapshot(t, 3)
		require.NoError(t, repo.SetRebuildStatus(ctx, 3, entitlement.RebuildStatusFailed))

		found, err := repo.GetByUserID(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, entitlement.RebuildStatusFailed, found.RebuildStatus())
	})

	t.Run("list cycle expired finds only ended cycles", func(t *testing.T) {
		snap := newSnapshot(t, 4)
		now := time.Now().UTC()
		snap.CompleteRebuild(plan.FreePlanID, map[string]entitlement.FeatureRights{},
			now.AddDate(0, -2, 0), now.AddDate(0, -1, 0), now.AddDate(0, -1, 0))
		require.NoError(t, repo.UpdateWithVersion(ctx, snap))

		userIDs, err := repo.ListCycleExpired(ctx, now, 10)
		require.NoError(t, err)
		assert.Contains(t, userIDs, uint(4))
		assert.NotContains(t, userIDs, uint(1), "current cycle must not be swept")
		assert.NotContains(t, userIDs, uint(2))
	})
}

func TestSubscriptionRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepository(db, testutil.NewMockLogger())
	ctx := context.Background()

	createSubscription := func(t *testing.T, userID uint, sid string) *subscription.Subscription {
		t.Helper()
		now := time.Now().UTC()
		start, end := now.AddDate(0, 0, -5), now.AddDate(0, 0, 25)
		sub, err := subscription.NewFreeSubscription(userID, sid, start, end)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, sub))
		return sub
	}

	t.Run("missing subscription reads as nil", func(t *testing.T) {
		sub, err := repo.GetByUserID(ctx, 999)
		assert.NoError(t, err)
		assert.Nil(t, sub)
	})

	t.Run("create and update round trip", func(t *testing.T) {
		sub := createSubscription(t, 1, "sub_a")

		now := time.Now().UTC()
		require.NoError(t, sub.UpdateFromProvider(
			"student", vo.StatusActive, "cus_1", "psub_1",
			now, now.AddDate(0, 1, 0), nil, nil,
		))
		require.NoError(t, repo.Update(ctx, sub))

		found, err := repo.GetByUserID(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "student", found.PlanID())
		assert.Equal(t, vo.StatusActive, found.Status())
		assert.Equal(t, sub.Version(), found.Version())
	})

	t.Run("multiple mutations persist under one guard", func(t *testing.T) {
		createSubscription(t, 5, "sub_e")

		sub, err := repo.GetByUserID(ctx, 5)
		require.NoError(t, err)

		// A renewal event both updates provider state and clears the
		// entitlement cutoff, bumping the version twice before the write.
		now := time.Now().UTC()
		require.NoError(t, sub.UpdateFromProvider(
			"researcher", vo.StatusActive, "cus_5", "psub_5",
			now, now.AddDate(0, 1, 0), nil, nil,
		))
		sub.ClearEntitlementExpiry()
		require.NoError(t, repo.Update(ctx, sub))

		found, err := repo.GetByUserID(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, "researcher", found.PlanID())
		assert.Equal(t, sub.Version(), found.Version())
	})

	t.Run("stale version loses the write", func(t *testing.T) {
		createSubscription(t, 2, "sub_b")

		first, err := repo.GetByUserID(ctx, 2)
		require.NoError(t, err)
		second, err := repo.GetByUserID(ctx, 2)
		require.NoError(t, err)

		first.Pause()
		require.NoError(t, repo.Update(ctx, first))

		second.Pause()
		err = repo.Update(ctx, second)
		assert.ErrorIs(t, err, subscription.ErrVersionConflict)
	})

	t.Run("list entitlement expired", func(t *testing.T) {
		now := time.Now().UTC()

		overdue := createSubscription(t, 3, "sub_c")
		overdue.ScheduleCancellation(now.Add(-time.Hour))
		require.NoError(t, repo.Update(ctx, overdue))

		pending := createSubscription(t, 4, "sub_d")
		pending.ScheduleCancellation(now.Add(time.Hour))
		require.NoError(t, repo.Update(ctx, pending))

		expired, err := repo.ListEntitlementExpired(ctx, now, 10)
		require.NoError(t, err)
		require.Len(t, expired, 1)
		assert.Equal(t, uint(3), expired[0].UserID())

		// Once downgraded, the row leaves the sweep result.
		require.True(t, expired[0].MarkExpired(now))
		require.NoError(t, repo.Update(ctx, expired[0]))

		expired, err = repo.ListEntitlementExpired(ctx, now, 10)
		require.NoError(t, err)
		assert.Empty(t, expired)
	})
}

func TestUsageRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUsageRepository(db, testutil.NewMockLogger())
	ctx := context.Background()

	period := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	t.Run("increment upserts the counter row", func(t *testing.T) {
		require.NoError(t, repo.Increment(ctx, 1, plan.FeatureScansPerMonth, period, 1))
		require.NoError(t, repo.Increment(ctx, 1, plan.FeatureScansPerMonth, period, 1))
		require.NoError(t, repo.Increment(ctx, 1, plan.FeatureScansPerMonth, period, 3))

		count, err := repo.GetCount(ctx, 1, plan.FeatureScansPerMonth, period)
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)
	})

	t.Run("counters are scoped per feature and period", func(t *testing.T) {
		otherPeriod := period.AddDate(0, 1, 0)
		require.NoError(t, repo.Increment(ctx, 1, plan.FeatureAIChat, period, 2))
		require.NoError(t, repo.Increment(ctx, 1, plan.FeatureScansPerMonth, otherPeriod, 1))

		counts, err := repo.GetCountsForPeriod(ctx, 1, period)
		require.NoError(t, err)
		assert.Equal(t, int64(5), counts[plan.FeatureScansPerMonth])
		assert.Equal(t, int64(2), counts[plan.FeatureAIChat])
		assert.NotContains(t, counts, plan.FeatureOriginalityScan)

		count, err := repo.GetCount(ctx, 1, plan.FeatureScansPerMonth, otherPeriod)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("missing counter reads as zero", func(t *testing.T) {
		count, err := repo.GetCount(ctx, 42, plan.FeatureAIChat, period)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("list newest period first", func(t *testing.T) {
		records, err := repo.ListForUser(ctx, 1, 10)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.True(t, records[0].PeriodStart().Equal(period.AddDate(0, 1, 0)),
			"newest period first, got %v", records[0].PeriodStart())
	})
}
