package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	inventoryapp "github.com/marketplace/inventory/internal/application/inventory"
	"github.com/marketplace/inventory/internal/infrastructure/auth"
	"github.com/marketplace/inventory/internal/infrastructure/cache"
	"github.com/marketplace/inventory/internal/infrastructure/config"
	"github.com/marketplace/inventory/internal/infrastructure/event"
	"github.com/marketplace/inventory/internal/infrastructure/logger"
	"github.com/marketplace/inventory/internal/infrastructure/migration"
	"github.com/marketplace/inventory/internal/infrastructure/persistence"
	"github.com/marketplace/inventory/internal/infrastructure/persistence/memory"
	"github.com/marketplace/inventory/internal/infrastructure/telemetry"
	"github.com/marketplace/inventory/internal/interfaces/http/handler"
	"github.com/marketplace/inventory/internal/interfaces/http/middleware"
	"github.com/marketplace/inventory/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	// Log export is built first so the service logger can tee into it
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	})
	if err != nil {
		panic("Failed to initialize log exporter: " + err.Error())
	}

	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}, logProvider.ZapCore(logger.ParseLevel(cfg.Log.Level)))
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting inventory service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("database_driver", cfg.Database.Driver),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServer,
		ApplicationName: cfg.Telemetry.ServiceName,
		Tags:            map[string]string{"env": cfg.App.Env},
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if cfg.Telemetry.SpanProfiles && profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	defer func() {
		shutdownCtx := context.Background()
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
		if err := logProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down log provider", zap.Error(err))
		}
	}()

	health := handler.NewHealthHandler(version)

	// Storage
	var scope inventoryapp.TransactionScope
	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn("Using in-memory storage, stock is lost on restart")
		scope = memory.NewStore()
	default:
		db, err := openDatabase(cfg, log)
		if err != nil {
			log.Fatal("Failed to open database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()
		health.AddCheck("database", func(context.Context) error { return db.Ping() })
		scope = persistence.NewGormTransactionScope(db.DB)
	}
	scope = telemetry.NewTracedTransactionScope(scope, tracerProvider.Tracer("inventory"))

	// Idempotency store, Redis when reachable
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(inventoryapp.NewLowStockAlertHandler(log).
		WithNotifier(inventoryapp.NewLoggingLowStockNotifier(log)))
	if redisStore, ok := idempotencyStore.(*cache.RedisIdempotencyStore); ok {
		client := redisStore.Client()
		eventBus.Subscribe(event.NewRedisForwarder(client, event.DefaultEventChannel, event.NewInventoryEventSerializer()))
		health.AddCheck("redis", func(ctx context.Context) error { return client.Ping(ctx).Err() })
		log.Info("Forwarding inventory events to Redis", zap.String("channel", event.DefaultEventChannel))
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	stockMetrics, err := telemetry.NewStockMetrics(meterProvider.Meter("inventory"))
	if err != nil {
		log.Fatal("Failed to create stock metrics", zap.Error(err))
	}

	monitor := inventoryapp.NewLowStockMonitor(scope, cfg.Inventory.DefaultLowStockThreshold, log)
	monitor.SetEventPublisher(eventBus)
	monitor.SetRecorder(stockMetrics)

	stockService := inventoryapp.NewStockAccountService(scope, monitor, log)
	stockService.SetEventPublisher(eventBus)
	stockService.SetRecorder(stockMetrics)
	stockService.SetMaxConflictRetries(cfg.Inventory.MaxConflictRetries)

	queryService := inventoryapp.NewQueryService(scope, monitor)
	queryService.SetDefaultRecentLimit(cfg.Inventory.RecentLedgerLimit)

	handlers := router.InventoryHandlers{
		Stock:        handler.NewStockHandler(stockService, inventoryapp.NewAdjustmentService(stockService), queryService),
		Reservations: handler.NewReservationHandler(inventoryapp.NewReservationService(stockService, log)),
		Sales:        handler.NewSaleHandler(inventoryapp.NewDeductionService(stockService, log)),
		Ledger:       handler.NewLedgerHandler(queryService),
		Alerts:       handler.NewAlertHandler(monitor),
	}

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	httpMetrics, err := middleware.HTTPMetrics(meterProvider.Meter("inventory.http"))
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	var jwtService *auth.JWTService
	if cfg.JWT.Secret != "" {
		jwtService = auth.NewJWTService(cfg.JWT)
	}

	// Middleware order: request id and logging wrap everything, so recovered
	// panics and rejected requests are still logged with their id.
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Tracing(cfg.Telemetry.ServiceName, tracerProvider.IsEnabled()),
		httpMetrics,
		middleware.Profiling(profiler.IsEnabled()),
	)

	engine.GET("/health", health.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(
		middleware.Actor(middleware.ActorConfig{
			JWTService:  jwtService,
			RequireAuth: cfg.HTTP.RequireAuth,
			Logger:      log,
		}),
		middleware.SpanEnricher(),
	)
	r.Register(router.NewInventoryRoutes(handlers,
		middleware.Idempotency(idempotencyStore, cfg.Inventory.IdempotencyTTL, log)))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}

// openDatabase connects to the configured SQL database, traces it and brings the
// schema up to date: SQL migrations on postgres, AutoMigrate on sqlite.
func openDatabase(cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		return nil, err
	}

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem:        cfg.Database.Driver,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := migrateSchema(db, log); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	log.Info("Database connected", zap.String("driver", db.Driver))
	return db, nil
}

func migrateSchema(db *persistence.Database, log *zap.Logger) error {
	if db.Driver == config.DriverSQLite {
		return db.AutoMigrate()
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		return err
	}
	// Closing the migrator would close the shared sql.DB, so it is left open.
	return m.Up()
}

