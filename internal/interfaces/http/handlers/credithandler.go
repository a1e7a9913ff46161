package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/clawncore/colabwize-backend/internal/application/credit/usecases"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
	"github.com/clawncore/colabwize-backend/internal/shared/utils"
)

// CreditHandler handles HTTP requests for the credit ledger.
type CreditHandler struct {
	ledger *usecases.LedgerService
	logger logger.Interface
}

// NewCreditHandler creates a new credit handler
func NewCreditHandler(ledger *usecases.LedgerService, logger logger.Interface) *CreditHandler {
	return &CreditHandler{
		ledger: ledger,
		logger: logger,
	}
}

// GetBalance handles GET /credits/balance
func (h *CreditHandler) GetBalance(c *gin.Context) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	balance, err := h.ledger.GetBalanceResponse(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorw("failed to get credit balance", "user_id", userID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, balance)
}

// ListTransactions handles GET /credits/transactions
// Query parameters:
//   - limit: page size (default 20, max 100)
//   - offset: rows to skip
func (h *CreditHandler) ListTransactions(c *gin.Context) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	transactions, err := h.ledger.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Errorw("failed to list credit transactions", "user_id", userID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, gin.H{
		"transactions": transactions,
	})
}

// AutoUseRequest is the payload of PUT /credits/auto-use.
type AutoUseRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SetAutoUse handles PUT /credits/auto-use
// Toggles whether exhausted plan quotas fall back to credits
func (h *CreditHandler) SetAutoUse(c *gin.Context) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req AutoUseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.ledger.SetAutoUse(c.Request.Context(), userID, *req.Enabled); err != nil {
		h.logger.Errorw("failed to set auto-use preference", "user_id", userID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, gin.H{
		"auto_use_credits": *req.Enabled,
	})
}
