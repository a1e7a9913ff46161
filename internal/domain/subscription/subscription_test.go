package subscription

import (
	"testing"
	"time"

	"github.com/clawncore/colabwize-backend/internal/domain/plan"
	vo "github.com/clawncore/colabwize-backend/internal/domain/subscription/valueobjects"
)

func testSubscription(t *testing.T, planID string, status vo.SubscriptionStatus, expiresAt *time.Time) *Subscription {
	t.Helper()
	now := time.Now()
	sub, err := ReconstructSubscription(
		1, "sub_test", 1, planID, status,
		"cus_test", "psub_test",
		now.AddDate(0, 0, -10), now.AddDate(0, 0, 20),
		nil, nil, false, expiresAt, 1, now, now,
	)
	if err != nil {
		t.Fatalf("ReconstructSubscription() error = %v", err)
	}
	return sub
}

// TestEffectivePlanID verifies the resolution order: past expiry forces
// free, status access next, then a future expiry keeping access alive.
func TestEffectivePlanID(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		planID    string
		status    vo.SubscriptionStatus
		expiresAt *time.Time
		expected  string
	}{
		{"active paid plan", "student", vo.StatusActive, nil, "student"},
		{"trialing grants access", "student_pro", vo.StatusTrialing, nil, "student_pro"},
		{"past_due keeps access", "researcher", vo.StatusPastDue, nil, "researcher"},
		{"past expiry overrides active status", "student", vo.StatusActive, &past, plan.FreePlanID},
		{"canceled with future expiry keeps access", "student", vo.StatusCanceled, &future, "student"},
		{"canceled without expiry is free", "student", vo.StatusCanceled, nil, plan.FreePlanID},
		{"expired status is free", "student", vo.StatusExpired, nil, plan.FreePlanID},
		{"paused without expiry is free", "student", vo.StatusPaused, nil, plan.FreePlanID},
		{"plan id normalized", "Student-Pro", vo.StatusActive, nil, "student_pro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := testSubscription(t, tt.planID, tt.status, tt.expiresAt)
			if got := sub.EffectivePlanID(now); got != tt.expected {
				t.Errorf("EffectivePlanID() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// TestHasPaidAccess verifies paid-access detection across the cutoff.
func TestHasPaidAccess(t *testing.T) {
	now := time.Now()
	cutoff := now.Add(time.Minute)

	sub := testSubscription(t, "student", vo.StatusCanceled, &cutoff)
	if !sub.HasPaidAccess(now) {
		t.Error("HasPaidAccess() before cutoff = false, want true")
	}
	if sub.HasPaidAccess(cutoff.Add(time.Second)) {
		t.Error("HasPaidAccess() after cutoff = true, want false")
	}

	free := testSubscription(t, plan.FreePlanID, vo.StatusActive, nil)
	if free.HasPaidAccess(now) {
		t.Error("free subscription must not report paid access")
	}
}

// TestScheduleCancellation verifies access continues until exactly the
// scheduled cutoff.
func TestScheduleCancellation(t *testing.T) {
	now := time.Now()
	periodEnd := now.AddDate(0, 0, 14)

	sub := testSubscription(t, "student", vo.StatusActive, nil)
	sub.ScheduleCancellation(periodEnd)

	if !sub.CancelAtPeriodEnd() {
		t.Error("CancelAtPeriodEnd() = false after scheduling")
	}
	if sub.Status() != vo.StatusCanceled {
		t.Errorf("Status() = %s, want canceled", sub.Status())
	}
	if sub.EntitlementExpiresAt() == nil || !sub.EntitlementExpiresAt().Equal(periodEnd) {
		t.Errorf("EntitlementExpiresAt() = %v, want %v", sub.EntitlementExpiresAt(), periodEnd)
	}
	if got := sub.EffectivePlanID(now); got != "student" {
		t.Errorf("EffectivePlanID() before cutoff = %q, want student", got)
	}
	if got := sub.EffectivePlanID(periodEnd.Add(time.Second)); got != plan.FreePlanID {
		t.Errorf("EffectivePlanID() after cutoff = %q, want free", got)
	}
}

// TestCancelImmediately verifies immediate revocation.
func TestCancelImmediately(t *testing.T) {
	now := time.Now()
	sub := testSubscription(t, "student", vo.StatusActive, nil)
	sub.CancelImmediately(now)

	if sub.HasPaidAccess(now) {
		t.Error("HasPaidAccess() after immediate cancel = true, want false")
	}
	if sub.Status() != vo.StatusCanceled {
		t.Errorf("Status() = %s, want canceled", sub.Status())
	}
}

// TestMarkExpired_OutOfOrderReplay verifies a stale expired event is
// ignored when the stored expiry is still in the future, protecting a
// user who already renewed.
func TestMarkExpired_OutOfOrderReplay(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)

	sub := testSubscription(t, "student", vo.StatusActive, &future)
	if applied := sub.MarkExpired(now); applied {
		t.Error("MarkExpired() applied a stale event over a future expiry")
	}
	if sub.Status() != vo.StatusActive {
		t.Errorf("Status() after ignored event = %s, want active", sub.Status())
	}

	past := now.Add(-time.Hour)
	lapsed := testSubscription(t, "student", vo.StatusCanceled, &past)
	if applied := lapsed.MarkExpired(now); !applied {
		t.Error("MarkExpired() should apply when the stored expiry has passed")
	}
	if lapsed.Status() != vo.StatusExpired {
		t.Errorf("Status() = %s, want expired", lapsed.Status())
	}

	// No stored expiry at all: the event applies and sets one.
	open := testSubscription(t, "student", vo.StatusActive, nil)
	if applied := open.MarkExpired(now); !applied {
		t.Error("MarkExpired() should apply when no expiry is stored")
	}
	if open.EntitlementExpiresAt() == nil {
		t.Error("MarkExpired() should set the expiry when none was stored")
	}
}

// TestResume verifies resume restores access and clears the cutoff.
func TestResume(t *testing.T) {
	now := time.Now()
	cutoff := now.Add(time.Hour)
	sub := testSubscription(t, "student", vo.StatusCanceled, &cutoff)

	sub.Resume()
	if sub.Status() != vo.StatusActive {
		t.Errorf("Status() = %s, want active", sub.Status())
	}
	if sub.EntitlementExpiresAt() != nil {
		t.Error("EntitlementExpiresAt() should be cleared on resume")
	}
	if sub.CancelAtPeriodEnd() {
		t.Error("CancelAtPeriodEnd() should be cleared on resume")
	}
}

// TestUpdateFromProvider verifies provider state application and the
// version bump.
func TestUpdateFromProvider(t *testing.T) {
	sub := testSubscription(t, plan.FreePlanID, vo.StatusActive, nil)
	versionBefore := sub.Version()

	periodStart := time.Now()
	periodEnd := periodStart.AddDate(0, 1, 0)
	if err := sub.UpdateFromProvider("Student", vo.StatusActive, "cus_new", "psub_new", periodStart, periodEnd, nil, nil); err != nil {
		t.Fatalf("UpdateFromProvider() error = %v", err)
	}

	if sub.PlanID() != "student" {
		t.Errorf("PlanID() = %q, want normalized student", sub.PlanID())
	}
	if sub.ProviderCustomerID() != "cus_new" {
		t.Errorf("ProviderCustomerID() = %q, want cus_new", sub.ProviderCustomerID())
	}
	if sub.Version() != versionBefore+1 {
		t.Errorf("Version() = %d, want %d", sub.Version(), versionBefore+1)
	}

	if err := sub.UpdateFromProvider("", vo.StatusActive, "", "", time.Time{}, time.Time{}, nil, nil); err == nil {
		t.Error("expected error for empty plan id")
	}
	if err := sub.UpdateFromProvider("student", vo.SubscriptionStatus("bogus"), "", "", time.Time{}, time.Time{}, nil, nil); err == nil {
		t.Error("expected error for invalid status")
	}
}

// TestGrantsAccess verifies the status-level access table.
func TestGrantsAccess(t *testing.T) {
	tests := []struct {
		status   vo.SubscriptionStatus
		expected bool
	}{
		{vo.StatusActive, true},
		{vo.StatusTrialing, true},
		{vo.StatusPastDue, true},
		{vo.StatusCanceled, false},
		{vo.StatusExpired, false},
		{vo.StatusPaused, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := tt.status.GrantsAccess(); got != tt.expected {
				t.Errorf("GrantsAccess() = %v, want %v", got, tt.expected)
			}
		})
	}
}
