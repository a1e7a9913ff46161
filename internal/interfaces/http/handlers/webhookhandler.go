package handlers

import (
	"crypto/hmac"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	creditDTO "github.com/clawncore/colabwize-backend/internal/application/credit/dto"
	creditUsecases "github.com/clawncore/colabwize-backend/internal/application/credit/usecases"
	subscriptionDTO "github.com/clawncore/colabwize-backend/internal/application/subscription/dto"
	subscriptionUsecases "github.com/clawncore/colabwize-backend/internal/application/subscription/usecases"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
	"github.com/clawncore/colabwize-backend/internal/shared/utils"
)

// webhookSecretHeader carries the shared secret agreed with the billing
// provider. The provider's full signature scheme terminates upstream;
// this service only checks the forwarded secret.
const webhookSecretHeader = "X-Webhook-Secret"

// CreditGrantEvent is the webhook event type for credit purchases and
// other grants, as opposed to subscription lifecycle events.
const CreditGrantEvent = "credit_granted"

// WebhookHandler ingests normalized billing provider events.
type WebhookHandler struct {
	upsertSubscriptionUC *subscriptionUsecases.UpsertSubscriptionUseCase
	ledger               *creditUsecases.LedgerService
	secret               string
	logger               logger.Interface
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(
	upsertSubscriptionUC *subscriptionUsecases.UpsertSubscriptionUseCase,
	ledger *creditUsecases.LedgerService,
	secret string,
	logger logger.Interface,
) *WebhookHandler {
	return &WebhookHandler{
		upsertSubscriptionUC: upsertSubscriptionUC,
		ledger:               ledger,
		secret:               secret,
		logger:               logger,
	}
}

// WebhookEvent is the normalized provider event payload.
type WebhookEvent struct {
	EventType              string     `json:"event_type" binding:"required"`
	UserID                 uint       `json:"user_id" binding:"required"`
	PlanID                 string     `json:"plan_id"`
	Status                 string     `json:"status"`
	ProviderCustomerID     string     `json:"provider_customer_id"`
	ProviderSubscriptionID string     `json:"provider_subscription_id"`
	CurrentPeriodStart     *time.Time `json:"current_period_start"`
	CurrentPeriodEnd       *time.Time `json:"current_period_end"`
	RenewsAt               *time.Time `json:"renews_at"`
	EndsAt                 *time.Time `json:"ends_at"`
	Immediate              bool       `json:"immediate"`

	// Credit grant fields, used when event_type is credit_granted.
	Amount      int64   `json:"amount"`
	GrantType   string  `json:"grant_type"`
	ReferenceID *string `json:"reference_id"`
	Description string  `json:"description"`
	Email       string  `json:"email"`
}

// Handle handles POST /webhooks/billing
// Applies one provider event: subscription lifecycle or credit grant
func (h *WebhookHandler) Handle(c *gin.Context) {
	if h.secret == "" || !hmac.Equal([]byte(c.GetHeader(webhookSecretHeader)), []byte(h.secret)) {
		h.logger.Warnw("webhook rejected: bad secret", "client_ip", c.ClientIP())
		utils.ErrorResponse(c, http.StatusUnauthorized, "invalid webhook secret")
		return
	}

	var event WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid webhook payload: "+err.Error())
		return
	}

	if event.EventType == CreditGrantEvent {
		h.handleCreditGrant(c, event)
		return
	}

	billingEvent := subscriptionDTO.BillingEvent{
		UserID:                 event.UserID,
		EventType:              event.EventType,
		PlanID:                 event.PlanID,
		Status:                 event.Status,
		ProviderCustomerID:     event.ProviderCustomerID,
		ProviderSubscriptionID: event.ProviderSubscriptionID,
		RenewsAt:               event.RenewsAt,
		EndsAt:                 event.EndsAt,
		Immediate:              event.Immediate,
	}
	if event.CurrentPeriodStart != nil {
		billingEvent.CurrentPeriodStart = *event.CurrentPeriodStart
	}
	if event.CurrentPeriodEnd != nil {
		billingEvent.CurrentPeriodEnd = *event.CurrentPeriodEnd
	}

	if err := h.upsertSubscriptionUC.Execute(c.Request.Context(), billingEvent); err != nil {
		h.logger.Errorw("failed to apply billing event",
			"user_id", event.UserID,
			"event_type", event.EventType,
			"error", err,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, gin.H{"received": true})
}

func (h *WebhookHandler) handleCreditGrant(c *gin.Context, event WebhookEvent) {
	grantType := event.GrantType
	if grantType == "" {
		grantType = "PURCHASE"
	}

	balance, err := h.ledger.AddCredits(c.Request.Context(), creditDTO.AddCreditsCommand{
		UserID:      event.UserID,
		Amount:      event.Amount,
		Type:        grantType,
		ReferenceID: event.ReferenceID,
		Description: event.Description,
		Email:       event.Email,
	})
	if err != nil {
		h.logger.Errorw("failed to apply credit grant",
			"user_id", event.UserID,
			"reference_id", event.ReferenceID,
			"error", err,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, gin.H{
		"received": true,
		"balance":  balance.Current(),
	})
}
