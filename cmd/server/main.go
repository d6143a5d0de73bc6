package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	advisorapp "github.com/sellerdesk/backend/internal/application/advisor"
	reconcileapp "github.com/sellerdesk/backend/internal/application/reconcile"
	syncapp "github.com/sellerdesk/backend/internal/application/sync"
	"github.com/sellerdesk/backend/internal/domain/marketplace"
	"github.com/sellerdesk/backend/internal/domain/sales"
	"github.com/sellerdesk/backend/internal/infrastructure/cache"
	"github.com/sellerdesk/backend/internal/infrastructure/config"
	"github.com/sellerdesk/backend/internal/infrastructure/logger"
	marketplaceinfra "github.com/sellerdesk/backend/internal/infrastructure/marketplace"
	"github.com/sellerdesk/backend/internal/infrastructure/persistence"
	"github.com/sellerdesk/backend/internal/interfaces/http/handler"
	"github.com/sellerdesk/backend/internal/interfaces/http/router"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	log.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	runRepo := persistence.NewGormRunRepository(db.DB)
	catalogRepo := persistence.NewGormCatalogItemRepository(db.DB)
	inventoryRepo := persistence.NewGormInventoryRepository(db.DB)

	// Marketplace sync pipeline
	client := marketplaceinfra.NewHTTPClient(&cfg.Sync, log)
	fetcher := syncapp.NewPaginatedFetcher(client, log)
	writer := syncapp.NewUpsertWriter(db, cfg.Sync.SubBatchSize, log)
	bridge := syncapp.NewInventoryBridge(catalogRepo, inventoryRepo, map[marketplace.AccountType]string{
		marketplace.AccountTypeMain: cfg.Sync.Main.WarehouseCode,
		marketplace.AccountTypeFBE:  cfg.Sync.FBE.WarehouseCode,
	}, log)
	orchestrator := syncapp.NewOrchestrator(runRepo, fetcher, writer, bridge, &cfg.Sync, log)

	// Duplicate reconciliation
	reconcileEngine := reconcileapp.NewEngine(db, &cfg.Reconcile, log)

	// Sales velocity and reorder advisor
	sources := []sales.Source{
		persistence.NewMarketplaceOrderSource(db.DB),
		persistence.NewSalesOrderSource(db.DB),
		persistence.NewInternalOrderSource(db.DB),
	}
	velocityCache := cache.NewVelocityCache(cfg.Redis, log)
	aggregator := advisorapp.NewAggregator(sources, velocityCache, &cfg.Advisor, log)
	advisor := advisorapp.NewAdvisor(inventoryRepo, aggregator, log)

	// HTTP layer
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(logger.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	handler.NewSystemHandler(db).RegisterHealthRoutes(engine)

	router.NewRouter(engine).
		Register(handler.NewSyncHandler(orchestrator)).
		Register(handler.NewReconcileHandler(reconcileEngine)).
		Register(handler.NewAdvisorHandler(aggregator, advisor)).
		Setup()

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()
	log.Info("server listening", zap.String("addr", server.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}

	// Let in-flight sync runs finalize their status rows before exit
	orchestrator.Wait()
	log.Info("server stopped")
}
