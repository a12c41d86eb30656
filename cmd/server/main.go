package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/career-assessment-service/internal/cache"
	"github.com/SAP-F-2025/career-assessment-service/internal/config"
	"github.com/SAP-F-2025/career-assessment-service/internal/events"
	"github.com/SAP-F-2025/career-assessment-service/internal/handlers"
	"github.com/SAP-F-2025/career-assessment-service/internal/middleware"
	"github.com/SAP-F-2025/career-assessment-service/internal/monitoring"
	"github.com/SAP-F-2025/career-assessment-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/career-assessment-service/internal/services"
	"github.com/SAP-F-2025/career-assessment-service/internal/storage"
	"github.com/SAP-F-2025/career-assessment-service/internal/utils"
	"github.com/SAP-F-2025/career-assessment-service/internal/validator"
	"github.com/SAP-F-2025/career-assessment-service/pkg"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger := utils.NewLogger(cfg.Environment, os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.LogError(err, "Server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger utils.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slogger := logger.Slog()

	// Storage
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if err := pkg.Migrate(db); err != nil {
		return err
	}
	repos := postgres.NewRepositories(db)

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	zapLogger, err := pkg.NewZapLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = zapLogger.Sync() }()
	cacheService := cache.NewRedisCache(redisClient, zapLogger)

	resumeStore, err := storage.NewMinioStore(cfg.Storage)
	if err != nil {
		return err
	}
	if err := resumeStore.EnsureBucket(ctx); err != nil {
		return err
	}

	// Events
	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.LogError(err, "Failed to create event publisher, falling back to in-process")
		publisher = events.NewInProcessEventPublisher(cfg.Events.NotificationTopic, slogger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.LogError(err, "Failed to close event publisher")
		}
	}()

	gateway, err := services.NewLLMGateway(ctx, cfg.LLM, slogger)
	if err != nil {
		return err
	}
	defer func() { _ = gateway.Close() }()

	// Services
	metrics := monitoring.NewMetrics()
	v := validator.New()

	catalogService := services.NewCatalogService(repos.Catalog, cacheService, cfg.CatalogCacheTTL, metrics, slogger)
	sessionService := services.NewSessionService(repos, catalogService, publisher, v, metrics, slogger)
	accessService := services.NewToolAccessService(repos.ToolPurchase, publisher, v, metrics, slogger)
	toolService := services.NewToolService(accessService, gateway, resumeStore, publisher, v, metrics, slogger)
	reportService := services.NewReportService(repos, catalogService, slogger)

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		utils.RequestID(),
		utils.LoggerMiddleware(logger),
		middleware.Secure(),
		metrics.Middleware(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	manager := handlers.NewHandlerManager(handlers.Services{
		Catalog:    catalogService,
		Sessions:   sessionService,
		ToolAccess: accessService,
		Tools:      toolService,
		Reports:    reportService,
	}, handlers.RouteMiddleware{
		Admin:     middleware.AdminAuth(middleware.NewCasdoorParser(cfg.Auth), slogger),
		RateLimit: middleware.RateLimiter(ctx, cfg.RateLimit),
		Metrics:   metrics.Handler(),
	}, logger)
	manager.SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
