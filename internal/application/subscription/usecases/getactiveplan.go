package usecases

import (
	"context"

	"github.com/clawncore/colabwize-backend/internal/application/subscription/dto"
	"github.com/clawncore/colabwize-backend/internal/domain/plan"
	"github.com/clawncore/colabwize-backend/internal/domain/subscription"
	vo "github.com/clawncore/colabwize-backend/internal/domain/subscription/valueobjects"
	"github.com/clawncore/colabwize-backend/internal/shared/biztime"
)

// GetActivePlanUseCase resolves the plan that governs a user's access
// right now. Users without a subscription row read as free.
type GetActivePlanUseCase struct {
	subscriptionRepo subscription.Repository
}

// NewGetActivePlanUseCase creates a new GetActivePlanUseCase instance.
func NewGetActivePlanUseCase(subscriptionRepo subscription.Repository) *GetActivePlanUseCase {
	return &GetActivePlanUseCase{subscriptionRepo: subscriptionRepo}
}

// Execute returns the effective plan and subscription standing for a user.
func (uc *GetActivePlanUseCase) Execute(ctx context.Context, userID uint) (*dto.ActivePlanResponse, error) {
	sub, err := uc.subscriptionRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return &dto.ActivePlanResponse{
			PlanID: plan.FreePlanID,
			Status: vo.StatusActive.String(),
		}, nil
	}

	now := biztime.NowUTC()
	resp := &dto.ActivePlanResponse{
		PlanID:               sub.EffectivePlanID(now),
		Status:               sub.Status().String(),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd(),
		EntitlementExpiresAt: sub.EntitlementExpiresAt(),
	}
	if !sub.CurrentPeriodStart().IsZero() {
		start := sub.CurrentPeriodStart()
		resp.CurrentPeriodStart = &start
	}
	if !sub.CurrentPeriodEnd().IsZero() {
		end := sub.CurrentPeriodEnd()
		resp.CurrentPeriodEnd = &end
	}
	return resp, nil
}
