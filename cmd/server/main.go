package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tradeapp "github.com/erp/orderflow/internal/application/trade"
	"github.com/erp/orderflow/internal/domain/shared"
	"github.com/erp/orderflow/internal/infrastructure/cache"
	"github.com/erp/orderflow/internal/infrastructure/config"
	"github.com/erp/orderflow/internal/infrastructure/idgen"
	"github.com/erp/orderflow/internal/infrastructure/logger"
	"github.com/erp/orderflow/internal/infrastructure/persistence"
	"github.com/erp/orderflow/internal/infrastructure/telemetry"
	"github.com/erp/orderflow/internal/interfaces/http/handler"
	"github.com/erp/orderflow/internal/interfaces/http/middleware"
	"github.com/erp/orderflow/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxRequestBodyBytes = 1 << 20

func main() {
	configPath := flag.String("config", "", "Path to config file (default: search ./config.toml, ./config, /etc/orderflow)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry providers; the level was validated by logger.New
	logLevel, _ := logger.ParseLevel(cfg.Log.Level)
	tel, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:     cfg.Telemetry.ServiceName,
		Endpoint:        cfg.Telemetry.CollectorEndpoint,
		Insecure:        cfg.Telemetry.Insecure,
		Traces:          cfg.Telemetry.Enabled,
		Metrics:         cfg.Telemetry.MetricsEnabled,
		Logs:            cfg.Telemetry.LogsEnabled,
		SamplingRatio:   cfg.Telemetry.SamplingRatio,
		MetricsInterval: cfg.Telemetry.MetricsInterval,
		LogLevel:        logLevel,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log = tel.BridgeLogger(log, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting order engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger: log,
		Tracing: telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        dbSystem(cfg.Database.Driver),
		},
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to prepare schema", zap.Error(err))
	}

	// Cascade rules
	numbers := idgen.NewULIDGenerator()
	rules := []tradeapp.CascadeRule{tradeapp.NewRefundOnReturnCompleted(numbers)}
	if cfg.Cascade.ReceivableOnShipmentCompleted {
		rules = append(rules, tradeapp.NewReceivableOnShipmentCompleted(numbers, nil))
	}

	transitionService := tradeapp.NewOrderTransitionService(
		persistence.NewGormTransactionScope(db.DB),
		tradeapp.NewCascadeResolver(rules...),
		log,
	)

	meter := tel.Meter("orderflow")
	transitionMetrics, err := telemetry.NewTransitionMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create transition metrics", zap.Error(err))
	}
	transitionService.SetTransitionMetrics(transitionMetrics)

	var idempotencyStore shared.IdempotencyStore
	if cfg.Idempotency.Enabled {
		idempotencyStore, err = cache.OpenIdempotencyStore(ctx, cfg.Idempotency, cfg.Redis,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(!cfg.IsProduction()),
		)
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
		defer func() {
			_ = idempotencyStore.Close()
		}()
		transitionService.SetIdempotencyStore(idempotencyStore, cfg.Idempotency.TTL)
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log, (&handler.BaseHandler{}).InternalError),
		logger.AccessLog(log),
		middleware.Secure(),
		middleware.BodyLimit(maxRequestBodyBytes),
	)

	health := handler.NewHealthHandler(map[string]handler.HealthCheck{
		"database": db.PingContext,
	})

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithHealth(health),
		router.WithAPIMiddleware(
			middleware.Tracing(middleware.TracingConfig{
				ServiceName: cfg.Telemetry.ServiceName,
				Enabled:     cfg.Telemetry.Enabled,
			}),
			middleware.SpanDecorator(),
			httpMetrics,
		),
	)
	r.Register(handler.NewOrderTransitionHandler(transitionService))
	r.Setup()
	log.Debug("Routes mounted", zap.Strings("routes", r.Routes()))

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Warn("Telemetry shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func dbSystem(driver string) string {
	if driver == "sqlite" {
		return "sqlite"
	}
	return "postgresql"
}
