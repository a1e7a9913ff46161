// Package handlers provides the HTTP handlers of the billing API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clawncore/colabwize-backend/internal/application/entitlement/usecases"
	"github.com/clawncore/colabwize-backend/internal/domain/credit"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
	"github.com/clawncore/colabwize-backend/internal/shared/utils"
)

// EntitlementHandler handles HTTP requests for entitlement reads and the
// consume gate.
type EntitlementHandler struct {
	engine            *usecases.Engine
	getEntitlementsUC *usecases.GetEntitlementsUseCase
	logger            logger.Interface
}

// NewEntitlementHandler creates a new entitlement handler
func NewEntitlementHandler(
	engine *usecases.Engine,
	getEntitlementsUC *usecases.GetEntitlementsUseCase,
	logger logger.Interface,
) *EntitlementHandler {
	return &EntitlementHandler{
		engine:            engine,
		getEntitlementsUC: getEntitlementsUC,
		logger:            logger,
	}
}

// ConsumeRequest is the payload of POST /entitlements/consume.
type ConsumeRequest struct {
	Feature     string `json:"feature" binding:"required"`
	WordCount   int    `json:"word_count"`
	InputWords  int    `json:"input_words"`
	OutputWords int    `json:"output_words"`
}

// Consume handles POST /entitlements/consume
// Gates one unit of feature usage: plan quota first, credits as fallback
func (h *EntitlementHandler) Consume(c *gin.Context) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req ConsumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	meta := &credit.CostMetadata{
		WordCount:   req.WordCount,
		InputWords:  req.InputWords,
		OutputWords: req.OutputWords,
	}

	decision, err := h.engine.AssertCanUse(c.Request.Context(), userID, req.Feature, meta)
	if err != nil {
		h.logger.Warnw("consume denied",
			"user_id", userID,
			"feature", req.Feature,
			"error", err,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, decision)
}

// GetEntitlements handles GET /entitlements
// Returns the caller's full entitlement snapshot
func (h *EntitlementHandler) GetEntitlements(c *gin.Context) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	snapshot, err := h.getEntitlementsUC.Execute(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorw("failed to get entitlements", "user_id", userID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, snapshot)
}

// CheckEligibility handles GET /entitlements/eligibility/:feature
// Read-only answer to "could this user use the feature right now"
func (h *EntitlementHandler) CheckEligibility(c *gin.Context) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	feature := c.Param("feature")
	eligibility, err := h.engine.CheckEligibility(c.Request.Context(), userID, feature)
	if err != nil {
		h.logger.Errorw("failed to check eligibility",
			"user_id", userID,
			"feature", feature,
			"error", err,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, eligibility)
}
