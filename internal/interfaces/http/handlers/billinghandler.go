package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	billingUsecases "github.com/clawncore/colabwize-backend/internal/application/billing/usecases"
	subscriptionUsecases "github.com/clawncore/colabwize-backend/internal/application/subscription/usecases"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
	"github.com/clawncore/colabwize-backend/internal/shared/utils"
)

// BillingHandler handles HTTP requests for aggregated billing reads.
type BillingHandler struct {
	overviewService *billingUsecases.OverviewService
	getActivePlanUC *subscriptionUsecases.GetActivePlanUseCase
	logger          logger.Interface
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(
	overviewService *billingUsecases.OverviewService,
	getActivePlanUC *subscriptionUsecases.GetActivePlanUseCase,
	logger logger.Interface,
) *BillingHandler {
	return &BillingHandler{
		overviewService: overviewService,
		getActivePlanUC: getActivePlanUC,
		logger:          logger,
	}
}

// GetOverview handles GET /billing/overview
// One aggregated read of plan, entitlements, credits and recent usage
func (h *BillingHandler) GetOverview(c *gin.Context) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	overview, err := h.overviewService.GetOverview(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorw("failed to get billing overview", "user_id", userID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, overview)
}

// GetActivePlan handles GET /billing/plan
func (h *BillingHandler) GetActivePlan(c *gin.Context) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	activePlan, err := h.getActivePlanUC.Execute(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorw("failed to get active plan", "user_id", userID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, activePlan)
}
