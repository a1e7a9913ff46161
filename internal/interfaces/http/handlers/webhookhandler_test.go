package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	creditUsecases "github.com/clawncore/colabwize-backend/internal/application/credit/usecases"
	"github.com/clawncore/colabwize-backend/internal/application/entitlement/testutil"
	subscriptionUsecases "github.com/clawncore/colabwize-backend/internal/application/subscription/usecases"
	"github.com/clawncore/colabwize-backend/internal/domain/entitlement"
	vo "github.com/clawncore/colabwize-backend/internal/domain/subscription/valueobjects"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/persistence/models"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/repository"
	"github.com/clawncore/colabwize-backend/internal/shared/db"
)

const testWebhookSecret = "test-secret"

type noopRebuilder struct{}

func (noopRebuilder) Rebuild(ctx context.Context, userID uint) (*entitlement.Snapshot, error) {
	return nil, nil
}

type webhookFixture struct {
	router  *gin.Engine
	subRepo *testutil.MockSubscriptionRepository
}

func setupWebhookHandler(t *testing.T) *webhookFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(
		&models.CreditBalanceModel{},
		&models.CreditTransactionModel{},
	))

	log := testutil.NewMockLogger()
	subRepo := testutil.NewMockSubscriptionRepository()
	upsertUC := subscriptionUsecases.NewUpsertSubscriptionUseCase(subRepo, noopRebuilder{}, log)
	ledger := creditUsecases.NewLedgerService(
		repository.NewCreditRepository(gormDB, log),
		db.NewTransactionManager(gormDB),
		nil,
		log,
	)

	handler := NewWebhookHandler(upsertUC, ledger, testWebhookSecret, log)
	router := gin.New()
	router.POST("/webhooks/billing", handler.Handle)

	return &webhookFixture{router: router, subRepo: subRepo}
}

func postWebhook(t *testing.T, router *gin.Engine, secret string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookHandler_SecretCheck(t *testing.T) {
	f := setupWebhookHandler(t)

	t.Run("missing secret rejected", func(t *testing.T) {
		w := postWebhook(t, f.router, "", gin.H{"event_type": "created", "user_id": 1})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		w := postWebhook(t, f.router, "wrong", gin.H{"event_type": "created", "user_id": 1})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unconfigured secret rejects everything", func(t *testing.T) {
		log := testutil.NewMockLogger()
		handler := NewWebhookHandler(nil, nil, "", log)
		router := gin.New()
		router.POST("/webhooks/billing", handler.Handle)

		w := postWebhook(t, router, "", gin.H{"event_type": "created", "user_id": 1})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestWebhookHandler_SubscriptionEvent(t *testing.T) {
	f := setupWebhookHandler(t)
	now := time.Now().UTC()

	w := postWebhook(t, f.router, testWebhookSecret, gin.H{
		"event_type":               "created",
		"user_id":                  1,
		"plan_id":                  "student",
		"status":                   "active",
		"provider_customer_id":     "cus_1",
		"provider_subscription_id": "psub_1",
		"current_period_start":     now.Format(time.RFC3339),
		"current_period_end":       now.AddDate(0, 1, 0).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, w.Code)

	sub, err := f.subRepo.GetByUserID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "student", sub.PlanID())
	assert.Equal(t, vo.StatusActive, sub.Status())
}

func TestWebhookHandler_CreditGrantEvent(t *testing.T) {
	f := setupWebhookHandler(t)

	payload := gin.H{
		"event_type":   "credit_granted",
		"user_id":      1,
		"amount":       100,
		"grant_type":   "PURCHASE",
		"reference_id": "order_1",
	}

	w := postWebhook(t, f.router, testWebhookSecret, payload)
	require.Equal(t, http.StatusOK, w.Code)

	// Redelivery of the same reference must not double-grant.
	w = postWebhook(t, f.router, testWebhookSecret, payload)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Balance int64 `json:"balance"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(100), resp.Data.Balance)
}

func TestWebhookHandler_BadPayload(t *testing.T) {
	f := setupWebhookHandler(t)

	w := postWebhook(t, f.router, testWebhookSecret, gin.H{"user_id": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
