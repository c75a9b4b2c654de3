package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gipoly/gipoly-engine/pkg/audit"
	"github.com/gipoly/gipoly-engine/pkg/auth"
	"github.com/gipoly/gipoly-engine/pkg/config"
	"github.com/gipoly/gipoly-engine/pkg/database"
	"github.com/gipoly/gipoly-engine/pkg/handlers"
	"github.com/gipoly/gipoly-engine/pkg/llm"
	"github.com/gipoly/gipoly-engine/pkg/mcp"
	mcpauth "github.com/gipoly/gipoly-engine/pkg/mcp/auth"
	"github.com/gipoly/gipoly-engine/pkg/mcp/tools"
	"github.com/gipoly/gipoly-engine/pkg/metrics"
	"github.com/gipoly/gipoly-engine/pkg/middleware"
	"github.com/gipoly/gipoly-engine/pkg/repositories"
	"github.com/gipoly/gipoly-engine/pkg/services"
	"github.com/gipoly/gipoly-engine/pkg/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)),
		zap.String("redis", cfg.Redis.Addr()),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.Int("quota_per_tool", cfg.Quota.MaxAnalysesPerTool))

	// Database
	if err := migrate(cfg, logger); err != nil {
		return err
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	engineMetrics := metrics.New()

	// External AI and storage
	aiClient, closeAI, err := llm.NewClientFromConfig(ctx, cfg, logger.Named("llm"))
	if err != nil {
		return fmt.Errorf("configure AI client: %w", err)
	}
	defer closeAI()
	aiClient.WithObserver(engineMetrics)

	blobStore, closeStore := newBlobStore(ctx, cfg, logger)
	defer closeStore()

	// Services
	auditor := audit.NewSecurityAuditor(logger)
	analysisRepo := repositories.NewAnalysisRepository()
	workspaceRepo := repositories.NewWorkspaceRepository()

	fetcher := services.NewHTTPPageFetcher(cfg.Env == "local")
	analysisService := services.NewAnalysisService(
		services.NewTrendAgent(aiClient, engineMetrics, logger),
		services.NewSEOStrategist(aiClient, fetcher, engineMetrics, logger),
		services.NewAdCreativeAgent(aiClient, blobStore, engineMetrics, logger),
		services.NewQuotaGuard(analysisRepo, cfg.Quota.MaxAnalysesPerTool, logger),
		analysisRepo,
		auditor,
		logger,
	)
	workspaceService := services.NewWorkspaceService(db, workspaceRepo, logger)

	// Auth
	tokenValidator, err := auth.NewTokenValidator(ctx, cfg.Auth)
	if err != nil {
		return fmt.Errorf("configure token validation: %w", err)
	}
	defer tokenValidator.Close()

	authService := auth.NewAuthService(tokenValidator, cfg.Auth.CookieName, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)

	routes := handlers.ToolRoutes{
		Auth:      authMiddleware,
		Workspace: authMiddleware.RequireWorkspace(workspaceService, "slug"),
		Tenant:    database.WithTenantContext(db, logger),
		RateLimit: middleware.RateLimit(newRateLimitStore(redisClient), cfg.RateLimit, engineMetrics, logger),
	}

	// MCP
	mcpAudit := mcp.NewAuditLogger(engineMetrics, logger)
	mcpServer := mcp.NewServer("gipoly-engine", cfg.Version, mcpAudit.Hooks(), logger)
	tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version)
	tools.RegisterMarketingTools(mcpServer.MCP(), &tools.MarketingToolDeps{
		AnalysisService: analysisService,
		Logger:          logger.Named("mcp"),
	})

	// Routes
	mux := http.NewServeMux()

	checks := map[string]handlers.HealthCheck{"database": db.Ping}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	handlers.NewHealthHandler(cfg, checks, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", engineMetrics.Handler())

	handlers.NewToolsHandler(analysisService, logger).RegisterRoutes(mux, routes)
	handlers.NewAnalysesHandler(analysisService, logger).RegisterRoutes(mux, routes)
	handlers.NewMCPHandler(mcpServer, logger).RegisterRoutes(mux, mcpauth.NewMiddleware(authService, logger), routes)

	handler := middleware.RequestLogger(logger)(middleware.Metrics(engineMetrics)(mux))

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting gipoly-engine",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// migrate applies pending migrations over a short-lived database/sql handle.
func migrate(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// newBlobStore uses Cloud Storage when a project is configured. Without one
// there is nowhere to publish images, so the store is nil and ad creatives
// report models.ImageGenerationFailed.
func newBlobStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.BlobStore, func()) {
	if cfg.GCP.ProjectID == "" {
		logger.Warn("GOOGLE_CLOUD_PROJECT_ID not set; ad creatives will have no image")
		return nil, func() {}
	}

	uploader, err := storage.NewGCSUploader(ctx, storage.GCSConfig{
		Bucket:          cfg.GCP.Bucket,
		CredentialsFile: cfg.GCP.CredentialsFile,
		Prefix:          "adcreative",
	}, logger)
	if err != nil {
		logger.Warn("Cloud Storage unavailable; ad creatives will have no image", zap.Error(err))
		return nil, func() {}
	}
	return uploader, func() {
		if err := uploader.Close(); err != nil {
			logger.Warn("Failed to close storage client", zap.Error(err))
		}
	}
}

func newRateLimitStore(client *redis.Client) middleware.RateLimitStore {
	if client == nil {
		return middleware.NewMemoryRateLimitStore()
	}
	return middleware.NewRedisRateLimitStore(client, "gipoly:ratelimit")
}
