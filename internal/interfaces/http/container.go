// Package http wires the billing API: repositories, use cases, handlers
// and routes.
package http

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	billingUsecases "github.com/clawncore/colabwize-backend/internal/application/billing/usecases"
	creditUsecases "github.com/clawncore/colabwize-backend/internal/application/credit/usecases"
	entitlementUsecases "github.com/clawncore/colabwize-backend/internal/application/entitlement/usecases"
	subscriptionUsecases "github.com/clawncore/colabwize-backend/internal/application/subscription/usecases"
	"github.com/clawncore/colabwize-backend/internal/domain/plan"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/auth"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/cache"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/config"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/email"
	"github.com/clawncore/colabwize-backend/internal/infrastructure/repository"
	"github.com/clawncore/colabwize-backend/internal/interfaces/http/handlers"
	"github.com/clawncore/colabwize-backend/internal/interfaces/http/middleware"
	"github.com/clawncore/colabwize-backend/internal/shared/db"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
)

// Container holds the wired application graph and the gin engine serving
// it.
type Container struct {
	engine *gin.Engine
	cfg    *config.Config
	log    logger.Interface

	// Exposed for the scheduler wiring in the server command.
	ExpireSubscriptionsUC *subscriptionUsecases.ExpireSubscriptionsUseCase
	RolloverSnapshotsUC   *entitlementUsecases.RolloverSnapshotsUseCase
}

// NewContainer wires every layer together. redisClient may be nil when
// Redis is disabled; caching is skipped in that case.
func NewContainer(cfg *config.Config, gormDB *gorm.DB, redisClient *redis.Client, log logger.Interface) (*Container, error) {
	// Plan catalog: compiled-in default unless an override file is set.
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	// Repositories
	subscriptionRepo := repository.NewSubscriptionRepository(gormDB, log)
	snapshotRepo := repository.NewEntitlementSnapshotRepository(gormDB, log)
	creditRepo := repository.NewCreditRepository(gormDB, log)
	usageRepo := repository.NewUsageRepository(gormDB, log)
	txManager := db.NewTransactionManager(gormDB)

	// Notifications
	var notifier creditUsecases.ReceiptNotifier
	if cfg.Email.Enabled {
		notifier = email.NewSMTPReceiptNotifier(&cfg.Email, log)
	}

	// Use cases
	ledger := creditUsecases.NewLedgerService(creditRepo, txManager, notifier, log)
	snapshots := entitlementUsecases.NewSnapshotManager(snapshotRepo, subscriptionRepo, usageRepo, catalog, log)
	engine := entitlementUsecases.NewEngine(snapshots, subscriptionRepo, usageRepo, ledger, catalog, log)
	getEntitlementsUC := entitlementUsecases.NewGetEntitlementsUseCase(snapshots)
	upsertSubscriptionUC := subscriptionUsecases.NewUpsertSubscriptionUseCase(subscriptionRepo, snapshots, log)
	getActivePlanUC := subscriptionUsecases.NewGetActivePlanUseCase(subscriptionRepo)
	expireSubscriptionsUC := subscriptionUsecases.NewExpireSubscriptionsUseCase(subscriptionRepo, snapshots, log)
	rolloverSnapshotsUC := entitlementUsecases.NewRolloverSnapshotsUseCase(snapshotRepo, snapshots, log)

	var overviewCache billingUsecases.OverviewCache
	if redisClient != nil {
		overviewCache = cache.NewRedisOverviewCache(redisClient, log)
	}
	overviewService := billingUsecases.NewOverviewService(getActivePlanUC, snapshotRepo, creditRepo, usageRepo, overviewCache, log)

	// Handlers
	entitlementHandler := handlers.NewEntitlementHandler(engine, getEntitlementsUC, log)
	creditHandler := handlers.NewCreditHandler(ledger, log)
	billingHandler := handlers.NewBillingHandler(overviewService, getActivePlanUC, log)
	webhookHandler := handlers.NewWebhookHandler(upsertSubscriptionUC, ledger, cfg.Billing.WebhookSecret, log)

	// Router
	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)
	authMiddleware := middleware.NewAuthMiddleware(jwtService, log)

	ginEngine := gin.New()
	ginEngine.Use(middleware.Recovery())
	ginEngine.Use(middleware.Logger(log))
	ginEngine.Use(middleware.CORS([]string{"*"}))

	registerRoutes(ginEngine, authMiddleware, entitlementHandler, creditHandler, billingHandler, webhookHandler)

	return &Container{
		engine:                ginEngine,
		cfg:                   cfg,
		log:                   log,
		ExpireSubscriptionsUC: expireSubscriptionsUC,
		RolloverSnapshotsUC:   rolloverSnapshotsUC,
	}, nil
}

// Engine returns the configured gin engine.
func (c *Container) Engine() *gin.Engine {
	return c.engine
}

func loadCatalog(cfg *config.Config) (*plan.Catalog, error) {
	if cfg.Billing.PlanCatalogPath != "" {
		catalog, err := plan.LoadCatalog(cfg.Billing.PlanCatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load plan catalog from %s: %w", cfg.Billing.PlanCatalogPath, err)
		}
		return catalog, nil
	}
	return plan.DefaultCatalog(), nil
}

func registerRoutes(
	engine *gin.Engine,
	authMiddleware *middleware.AuthMiddleware,
	entitlementHandler *handlers.EntitlementHandler,
	creditHandler *handlers.CreditHandler,
	billingHandler *handlers.BillingHandler,
	webhookHandler *handlers.WebhookHandler,
) {
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")

	// Provider webhooks authenticate with the shared secret, not JWT.
	v1.POST("/webhooks/billing", webhookHandler.Handle)

	authed := v1.Group("")
	authed.Use(authMiddleware.RequireAuth())
	{
		authed.POST("/entitlements/consume", entitlementHandler.Consume)
		authed.GET("/entitlements", entitlementHandler.GetEntitlements)
		authed.GET("/entitlements/eligibility/:feature", entitlementHandler.CheckEligibility)

		authed.GET("/credits/balance", creditHandler.GetBalance)
		authed.GET("/credits/transactions", creditHandler.ListTransactions)
		authed.PUT("/credits/auto-use", creditHandler.SetAutoUse)

		authed.GET("/billing/overview", billingHandler.GetOverview)
		authed.GET("/billing/plan", billingHandler.GetActivePlan)
	}
}
