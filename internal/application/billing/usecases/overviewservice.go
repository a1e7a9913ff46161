// Package usecases provides the aggregated billing overview read model.
package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/clawncore/colabwize-backend/internal/application/billing/dto"
	creditdto "github.com/clawncore/colabwize-backend/internal/application/credit/dto"
	entitlementdto "github.com/clawncore/colabwize-backend/internal/application/entitlement/dto"
	subscriptiondto "github.com/clawncore/colabwize-backend/internal/application/subscription/dto"
	"github.com/clawncore/colabwize-backend/internal/domain/credit"
	"github.com/clawncore/colabwize-backend/internal/domain/entitlement"
	"github.com/clawncore/colabwize-backend/internal/domain/plan"
	"github.com/clawncore/colabwize-backend/internal/domain/usage"
	"github.com/clawncore/colabwize-backend/internal/shared/biztime"
	"github.com/clawncore/colabwize-backend/internal/shared/goroutine"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
)

// dependencyTimeout bounds each backing read. The overview is a
// dashboard surface; a slow dependency degrades its own section instead
// of holding the whole response.
const dependencyTimeout = 2 * time.Second

// recentUsageLimit is how many usage counter rows the overview shows.
const recentUsageLimit = 10

// OverviewCache caches assembled overviews. Get returns (nil, nil) on a
// miss. Implementations decide TTL.
type OverviewCache interface {
	Get(ctx context.Context, userID uint) (*dto.OverviewResponse, error)
	Set(ctx context.Context, userID uint, overview *dto.OverviewResponse) error
	Invalidate(ctx context.Context, userID uint) error
}

// ActivePlanReader resolves a user's effective plan standing.
type ActivePlanReader interface {
	Execute(ctx context.Context, userID uint) (*subscriptiondto.ActivePlanResponse, error)
}

// OverviewService assembles the billing overview from the subscription,
// snapshot, credit and usage stores, each read under its own deadline.
type OverviewService struct {
	planReader   ActivePlanReader
	snapshotRepo entitlement.SnapshotRepository
	creditRepo   credit.Repository
	usageRepo    usage.Repository
	cache        OverviewCache
	logger       logger.Interface
}

// NewOverviewService creates a new OverviewService instance. cache may
// be nil when caching is disabled.
func NewOverviewService(
	planReader ActivePlanReader,
	snapshotRepo entitlement.SnapshotRepository,
	creditRepo credit.Repository,
	usageRepo usage.Repository,
	cache OverviewCache,
	logger logger.Interface,
) *OverviewService {
	return &OverviewService{
		planReader:   planReader,
		snapshotRepo: snapshotRepo,
		creditRepo:   creditRepo,
		usageRepo:    usageRepo,
		cache:        cache,
		logger:       logger,
	}
}

// GetOverview returns the cached overview when fresh, otherwise fans out
// to the four backing stores and assembles one. Sections whose read
// fails or times out fall back to defaults and are named in Degraded;
// degraded responses are never cached.
func (s *OverviewService) GetOverview(ctx context.Context, userID uint) (*dto.OverviewResponse, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.logger.Warnw("overview cache read failed", "user_id", userID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	overview := &dto.OverviewResponse{
		RecentUsage: []dto.UsageEntry{},
		GeneratedAt: biztime.NowUTC(),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	degrade := func(section string, err error) {
		mu.Lock()
		overview.Degraded = append(overview.Degraded, section)
		mu.Unlock()
		s.logger.Warnw("overview section degraded",
			"user_id", userID,
			"section", section,
			"error", err,
		)
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		depCtx, cancel := context.WithTimeout(ctx, dependencyTimeout)
		defer cancel()
		planResp, err := s.planReader.Execute(depCtx, userID)
		if err != nil {
			degrade("plan", err)
			return
		}
		mu.Lock()
		overview.Plan = planResp
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		depCtx, cancel := context.WithTimeout(ctx, dependencyTimeout)
		defer cancel()
		snap, err := s.snapshotRepo.GetByUserID(depCtx, userID)
		if err != nil {
			degrade("entitlements", err)
			return
		}
		if snap == nil {
			return
		}
		mu.Lock()
		overview.Entitlements = toSnapshotSection(snap)
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		depCtx, cancel := context.WithTimeout(ctx, dependencyTimeout)
		defer cancel()
		balance, err := s.creditRepo.GetBalanceByUserID(depCtx, userID)
		if err != nil {
			degrade("credits", err)
			return
		}
		section := &creditdto.BalanceResponse{AutoUseCredits: true}
		if balance != nil {
			section = &creditdto.BalanceResponse{
				Balance:           balance.Current(),
				LifetimePurchased: balance.LifetimePurchased(),
				LifetimeUsed:      balance.LifetimeUsed(),
				AutoUseCredits:    balance.AutoUseCredits(),
			}
		}
		mu.Lock()
		overview.Credits = section
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		depCtx, cancel := context.WithTimeout(ctx, dependencyTimeout)
		defer cancel()
		records, err := s.usageRepo.ListForUser(depCtx, userID, recentUsageLimit)
		if err != nil {
			degrade("usage", err)
			return
		}
		entries := make([]dto.UsageEntry, 0, len(records))
		for _, r := range records {
			entries = append(entries, dto.UsageEntry{
				Feature:     r.Feature(),
				PeriodStart: r.PeriodStart(),
				Count:       r.Count(),
			})
		}
		mu.Lock()
		overview.RecentUsage = entries
		mu.Unlock()
	}()
	wg.Wait()

	s.applyDefaults(overview)

	if s.cache != nil && len(overview.Degraded) == 0 {
		snapshot := *overview
		goroutine.SafeGo(s.logger, "overview-cache-set", func() {
			if err := s.cache.Set(context.Background(), userID, &snapshot); err != nil {
				s.logger.Warnw("overview cache write failed", "user_id", userID, "error", err)
			}
		})
	}

	return overview, nil
}

// InvalidateOverview drops the cached overview after a billing mutation.
func (s *OverviewService) InvalidateOverview(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warnw("overview cache invalidation failed", "user_id", userID, "error", err)
	}
}

// applyDefaults fills degraded sections with the safe zero view: free
// plan with unknown status, empty auto-use-on credit account.
func (s *OverviewService) applyDefaults(overview *dto.OverviewResponse) {
	if overview.Plan == nil {
		overview.Plan = &subscriptiondto.ActivePlanResponse{
			PlanID: plan.FreePlanID,
			Status: "unknown",
		}
	}
	if overview.Credits == nil {
		overview.Credits = &creditdto.BalanceResponse{AutoUseCredits: true}
	}
}

func toSnapshotSection(snap *entitlement.Snapshot) *entitlementdto.SnapshotResponse {
	features := make(map[string]entitlementdto.FeatureRightsResponse, len(snap.Features()))
	for key, rights := range snap.Features() {
		features[key] = entitlementdto.FeatureRightsResponse{
			Limit:     rights.Limit,
			Used:      rights.Used,
			Remaining: rights.Remaining,
			Unlimited: rights.Unlimited,
			Enabled:   rights.Enabled,
		}
	}
	return &entitlementdto.SnapshotResponse{
		PlanID:        snap.PlanID(),
		Features:      features,
		CycleStart:    snap.CycleStart(),
		CycleEnd:      snap.CycleEnd(),
		RebuildStatus: snap.RebuildStatus().String(),
		LastRebuiltAt: snap.LastRebuiltAt(),
	}
}
