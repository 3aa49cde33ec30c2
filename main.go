package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/apimesh/apimesh-engine/pkg/auth"
	"github.com/apimesh/apimesh-engine/pkg/config"
	"github.com/apimesh/apimesh-engine/pkg/database"
	"github.com/apimesh/apimesh-engine/pkg/handlers"
	"github.com/apimesh/apimesh-engine/pkg/llm"
	"github.com/apimesh/apimesh-engine/pkg/logging"
	"github.com/apimesh/apimesh-engine/pkg/middleware"
	"github.com/apimesh/apimesh-engine/pkg/repositories"
	"github.com/apimesh/apimesh-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

	ctx := context.Background()

	// Apply migrations before opening the pool.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	operationRepo := repositories.NewOperationRepository(db)
	contextRepo := repositories.NewContextRepository(db)
	programRepo := repositories.NewProgramRepository(db)

	// LLM client is optional; enrichment endpoints reject requests when it
	// is not configured.
	var llmClient llm.LLMClient
	if cfg.AI.IsAvailable() {
		llmClient, err = llm.NewClient(&cfg.AI, logger)
		if err != nil {
			logger.Fatal("Failed to create LLM client", zap.Error(err))
		}
	} else {
		logger.Info("AI endpoint not configured; enrichment disabled")
	}

	// Services
	analyzer := services.NewDuplicateAnalyzer(operationRepo, logger)
	dedupService := services.NewDedupService(operationRepo, logger)
	operationService := services.NewOperationService(operationRepo, logger)
	enrichmentService := services.NewEnrichmentService(operationRepo, llmClient, logger)
	searchService := services.NewSearchService(operationRepo, llmClient, logger)
	docsService := services.NewDocsService(programRepo, operationRepo, logger)

	// Auth
	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()
	authMiddleware := auth.NewMiddleware(jwksClient, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewDedupHandler(analyzer, dedupService, cfg.Dedup.DefaultStrategy, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewOperationsHandler(operationService, enrichmentService, searchService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewContextsHandler(contextRepo, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewProgramsHandler(programRepo, docsService, logger).RegisterRoutes(mux, authMiddleware)

	handler := middleware.RequestLogger(logger)(mux)
	addr := cfg.BindAddr + ":" + cfg.Port

	logger.Info("Starting apimesh-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))

	if cfg.TLSCertPath != "" {
		err = http.ListenAndServeTLS(addr, cfg.TLSCertPath, cfg.TLSKeyPath, handler)
	} else {
		err = http.ListenAndServe(addr, handler)
	}
	if err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
