// Package testutil provides hand-rolled mocks for billing use case tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/clawncore/colabwize-backend/internal/domain/credit"
	"github.com/clawncore/colabwize-backend/internal/domain/entitlement"
	"github.com/clawncore/colabwize-backend/internal/domain/subscription"
	"github.com/clawncore/colabwize-backend/internal/domain/usage"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
)

// MockLogger is a no-op logger for tests.
type MockLogger struct{}

// NewMockLogger creates a new MockLogger.
func NewMockLogger() logger.Interface { return &MockLogger{} }

func (l *MockLogger) Debug(msg string, args ...any)                      {}
func (l *MockLogger) Info(msg string, args ...any)                       {}
func (l *MockLogger) Warn(msg string, args ...any)                       {}
func (l *MockLogger) Error(msg string, args ...any)                      {}
func (l *MockLogger) With(args ...any) logger.Interface                  { return l }
func (l *MockLogger) Named(name string) logger.Interface                 { return l }
func (l *MockLogger) Debugw(msg string, keysAndValues ...interface{})    {}
func (l *MockLogger) Infow(msg string, keysAndValues ...interface{})     {}
func (l *MockLogger) Warnw(msg string, keysAndValues ...interface{})     {}
func (l *MockLogger) Errorw(msg string, keysAndValues ...interface{})    {}

// MockSnapshotRepository is an in-memory snapshot store with real
// version-guard semantics, so consume races can be simulated.
type MockSnapshotRepository struct {
	mu        sync.Mutex
	snapshots map[uint]*entitlement.Snapshot
	versions  map[uint]int
	nextID    uint

	// ConflictNext makes the next N UpdateWithVersion calls fail with
	// ErrVersionConflict without touching the store.
	ConflictNext int
}

// NewMockSnapshotRepository creates a new MockSnapshotRepository.
func NewMockSnapshotRepository() *MockSnapshotRepository {
	return &MockSnapshotRepository{
		snapshots: make(map[uint]*entitlement.Snapshot),
		versions:  make(map[uint]int),
		nextID:    1,
	}
}

func (r *MockSnapshotRepository) GetByUserID(ctx context.Context, userID uint) (*entitlement.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, ok := r.snapshots[userID]
	if !ok {
		return nil, nil
	}
	return copySnapshot(snap)
}

func (r *MockSnapshotRepository) Create(ctx context.Context, s *entitlement.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID() == 0 {
		if err := s.SetID(r.nextID); err != nil {
			return err
		}
		r.nextID++
	}
	stored, err := copySnapshot(s)
	if err != nil {
		return err
	}
	r.snapshots[s.UserID()] = stored
	r.versions[s.UserID()] = s.Version()
	return nil
}

func (r *MockSnapshotRepository) UpdateWithVersion(ctx context.Context, s *entitlement.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ConflictNext > 0 {
		r.ConflictNext--
		return entitlement.ErrVersionConflict
	}
	stored, ok := r.versions[s.UserID()]
	if !ok {
		return entitlement.ErrSnapshotNotFound
	}
	if stored != s.Version()-1 {
		return entitlement.ErrVersionConflict
	}
	copied, err := copySnapshot(s)
	if err != nil {
		return err
	}
	r.snapshots[s.UserID()] = copied
	r.versions[s.UserID()] = s.Version()
	return nil
}

func (r *MockSnapshotRepository) ListCycleExpired(ctx context.Context, now time.Time, limit int) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var userIDs []uint
	for userID, snap := range r.snapshots {
		if snap.CycleEnd().Before(now) {
			userIDs = append(userIDs, userID)
			if len(userIDs) == limit {
				break
			}
		}
	}
	return userIDs, nil
}

func (r *MockSnapshotRepository) SetRebuildStatus(ctx context.Context, userID uint, status entitlement.RebuildStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, ok := r.snapshots[userID]
	if !ok {
		return nil
	}
	rebuilt, err := entitlement.ReconstructSnapshot(
		snap.ID(), snap.UserID(), snap.PlanID(), snap.Features(),
		snap.CycleStart(), snap.CycleEnd(), status, snap.LastRebuiltAt(),
		snap.Version(), snap.CreatedAt(), snap.UpdatedAt(),
	)
	if err != nil {
		return err
	}
	r.snapshots[userID] = rebuilt
	return nil
}

func copySnapshot(s *entitlement.Snapshot) (*entitlement.Snapshot, error) {
	features := make(map[string]entitlement.FeatureRights, len(s.Features()))
	for k, v := range s.Features() {
		features[k] = v
	}
	return entitlement.ReconstructSnapshot(
		s.ID(), s.UserID(), s.PlanID(), features,
		s.CycleStart(), s.CycleEnd(), s.RebuildStatus(), s.LastRebuiltAt(),
		s.Version(), s.CreatedAt(), s.UpdatedAt(),
	)
}

// MockSubscriptionRepository is an in-memory subscription store with the
// same optimistic-lock semantics as the real repository: reads hand out
// fresh copies and updates guard on the version the copy was loaded with.
type MockSubscriptionRepository struct {
	mu            sync.Mutex
	subscriptions map[uint]*subscription.Subscription
	versions      map[uint]int
	nextID        uint
}

// NewMockSubscriptionRepository creates a new MockSubscriptionRepository.
func NewMockSubscriptionRepository() *MockSubscriptionRepository {
	return &MockSubscriptionRepository{
		subscriptions: make(map[uint]*subscription.Subscription),
		versions:      make(map[uint]int),
		nextID:        1,
	}
}

// AddSubscription seeds the store.
func (r *MockSubscriptionRepository) AddSubscription(sub *subscription.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub.ID() == 0 {
		_ = sub.SetID(r.nextID)
		r.nextID++
	}
	r.subscriptions[sub.UserID()] = sub
	r.versions[sub.UserID()] = sub.Version()
}

func (r *MockSubscriptionRepository) GetByUserID(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subscriptions[userID]
	if !ok {
		return nil, nil
	}
	return copySubscription(sub)
}

func (r *MockSubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	r.AddSubscription(sub)
	return nil
}

func (r *MockSubscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.versions[sub.UserID()]
	if !ok || stored != sub.LoadedVersion() {
		return subscription.ErrVersionConflict
	}
	r.subscriptions[sub.UserID()] = sub
	r.versions[sub.UserID()] = sub.Version()
	return nil
}

func (r *MockSubscriptionRepository) ListEntitlementExpired(ctx context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []*subscription.Subscription
	for _, sub := range r.subscriptions {
		if sub.EntitlementExpiresAt() != nil && !sub.EntitlementExpiresAt().After(now) && sub.Status().String() != "expired" {
			copied, err := copySubscription(sub)
			if err != nil {
				return nil, err
			}
			expired = append(expired, copied)
			if len(expired) == limit {
				break
			}
		}
	}
	return expired, nil
}

func copySubscription(sub *subscription.Subscription) (*subscription.Subscription, error) {
	return subscription.ReconstructSubscription(
		sub.ID(), sub.SID(), sub.UserID(), sub.PlanID(), sub.Status(),
		sub.ProviderCustomerID(), sub.ProviderSubscriptionID(),
		sub.CurrentPeriodStart(), sub.CurrentPeriodEnd(),
		sub.RenewsAt(), sub.EndsAt(),
		sub.CancelAtPeriodEnd(), sub.EntitlementExpiresAt(),
		sub.Version(), sub.CreatedAt(), sub.UpdatedAt(),
	)
}

// MockUsageRepository is an in-memory usage counter store.
type MockUsageRepository struct {
	mu     sync.Mutex
	counts map[usageKey]int64
}

type usageKey struct {
	userID      uint
	feature     string
	periodStart time.Time
}

// NewMockUsageRepository creates a new MockUsageRepository.
func NewMockUsageRepository() *MockUsageRepository {
	return &MockUsageRepository{counts: make(map[usageKey]int64)}
}

// Seed sets a counter directly.
func (r *MockUsageRepository) Seed(userID uint, feature string, periodStart time.Time, count int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[usageKey{userID, feature, periodStart}] = count
}

func (r *MockUsageRepository) Increment(ctx context.Context, userID uint, feature string, periodStart time.Time, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[usageKey{userID, feature, periodStart}] += delta
	return nil
}

func (r *MockUsageRepository) GetCount(ctx context.Context, userID uint, feature string, periodStart time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[usageKey{userID, feature, periodStart}], nil
}

func (r *MockUsageRepository) GetCountsForPeriod(ctx context.Context, userID uint, periodStart time.Time) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for key, count := range r.counts {
		if key.userID == userID && key.periodStart.Equal(periodStart) {
			counts[key.feature] = count
		}
	}
	return counts, nil
}

func (r *MockUsageRepository) ListForUser(ctx context.Context, userID uint, limit int) ([]*usage.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var records []*usage.Record
	id := uint(1)
	for key, count := range r.counts {
		if key.userID != userID || len(records) == limit {
			continue
		}
		record, err := usage.ReconstructRecord(id, key.userID, key.feature, key.periodStart, count, time.Now())
		if err != nil {
			return nil, err
		}
		records = append(records, record)
		id++
	}
	return records, nil
}

// MockCreditService is an in-memory credit ledger for engine tests.
type MockCreditService struct {
	mu      sync.Mutex
	balance *credit.Balance

	// Deductions records every successful deduction amount.
	Deductions []int64
}

// NewMockCreditService creates a MockCreditService holding the given
// balance; pass nil for a user who never held credits.
func NewMockCreditService(balance *credit.Balance) *MockCreditService {
	return &MockCreditService{balance: balance}
}

func (s *MockCreditService) GetBalance(ctx context.Context, userID uint) (*credit.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance, nil
}

func (s *MockCreditService) Deduct(ctx context.Context, userID uint, amount int64, referenceID *string, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balance == nil || s.balance.Current() < amount {
		return credit.ErrInsufficientCredits
	}
	updated, err := credit.ReconstructBalance(
		s.balance.ID(), s.balance.UserID(),
		s.balance.Current()-amount,
		s.balance.LifetimePurchased(),
		s.balance.LifetimeUsed()+amount,
		s.balance.AutoUseCredits(),
		time.Now(),
	)
	if err != nil {
		return err
	}
	s.balance = updated
	s.Deductions = append(s.Deductions, amount)
	return nil
}
