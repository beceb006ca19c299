package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/copyforge/copyforge-backend/internal/clients/redis"
	"github.com/copyforge/copyforge-backend/internal/db"
	httpx "github.com/copyforge/copyforge-backend/internal/http"
	httpH "github.com/copyforge/copyforge-backend/internal/http/handlers"
	"github.com/copyforge/copyforge-backend/internal/logger"
	"github.com/copyforge/copyforge-backend/internal/observability"
	"github.com/copyforge/copyforge-backend/internal/platform/openai"
	"github.com/copyforge/copyforge-backend/internal/platform/qdrant"
	"github.com/copyforge/copyforge-backend/internal/repos"
	"github.com/copyforge/copyforge-backend/internal/services"
	"github.com/copyforge/copyforge-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Tracing
	shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "copyforge",
		Environment: os.Getenv("APP_ENV"),
	})

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Qdrant
	qdrantCfg, err := qdrant.ResolveConfigFromEnv()
	if err != nil {
		log.Error("Could not resolve qdrant config", "error", err)
		os.Exit(1)
	}
	vectorStore, err := qdrant.NewVectorStore(log, qdrantCfg)
	if err != nil {
		log.Error("Could not init qdrant vector store", "error", err)
		os.Exit(1)
	}
	if err := vectorStore.EnsureCollection(ctx); err != nil {
		log.Error("Could not ensure qdrant collection", "error", err)
		os.Exit(1)
	}

	// OpenAI
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Error("Could not init OpenAI client", "error", err)
		os.Exit(1)
	}

	// Redis embedding cache (optional)
	var embedCache redis.EmbedCache
	if os.Getenv("REDIS_ADDR") != "" {
		embedCache, err = redis.NewEmbedCache(log)
		if err != nil {
			log.Warn("Could not init redis embed cache, continuing without", "error", err)
			embedCache = nil
		}
	}

	// Repos
	log.Info("Setting up repos...")
	documentRepo := repos.NewSourceDocumentRepo(thePG, log)
	elementRepo := repos.NewElementRepo(thePG, log)
	scenarioRepo := repos.NewScenarioRepo(thePG, log)
	generatedRepo := repos.NewGeneratedCopyRepo(thePG, log)
	feedbackRepo := repos.NewFeedbackRecordRepo(thePG, log)

	// Services
	log.Info("Setting up services...")
	embeddingService, err := services.NewEmbeddingService(log, openaiClient, vectorStore, embedCache)
	if err != nil {
		log.Error("Could not init EmbeddingService", "error", err)
		os.Exit(1)
	}
	retrieverService, err := services.NewRetrieverService(log, documentRepo, embeddingService)
	if err != nil {
		log.Error("Could not init RetrieverService", "error", err)
		os.Exit(1)
	}
	generatorService, err := services.NewGeneratorService(log, openaiClient, retrieverService, scenarioRepo, generatedRepo)
	if err != nil {
		log.Error("Could not init GeneratorService", "error", err)
		os.Exit(1)
	}
	scenarioService, err := services.NewScenarioService(log, scenarioRepo)
	if err != nil {
		log.Error("Could not init ScenarioService", "error", err)
		os.Exit(1)
	}
	feedbackService, err := services.NewFeedbackService(log, thePG, feedbackRepo, generatedRepo, documentRepo)
	if err != nil {
		log.Error("Could not init FeedbackService", "error", err)
		os.Exit(1)
	}
	documentService, err := services.NewDocumentService(log, documentRepo, elementRepo, embeddingService)
	if err != nil {
		log.Error("Could not init DocumentService", "error", err)
		os.Exit(1)
	}
	nameService, err := services.NewNameService(log, openaiClient)
	if err != nil {
		log.Error("Could not init NameService", "error", err)
		os.Exit(1)
	}

	// Scenario seeds
	seedPath := utils.GetEnv("SCENARIO_SEED_PATH", "configs/scenarios.yaml", log)
	if seedPath != "" {
		if _, err := scenarioService.SeedFromFile(ctx, seedPath); err != nil {
			log.Warn("Scenario seeding failed", "error", err, "path", seedPath)
		}
	}

	// Handlers
	log.Info("Setting up handlers...")
	server := httpx.NewServer(httpx.RouterConfig{
		Log:               log,
		GenerationHandler: httpH.NewGenerationHandler(generatorService),
		ScenarioHandler:   httpH.NewScenarioHandler(scenarioService),
		FeedbackHandler:   httpH.NewFeedbackHandler(feedbackService),
		DocumentHandler:   httpH.NewDocumentHandler(documentService),
		GeneratorsHandler: httpH.NewGeneratorsHandler(nameService),
		HealthHandler:     httpH.NewHealthHandler(),
	})

	port := utils.GetEnv("PORT", "8080", log)
	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", "port", port)
		errCh <- server.Run(":" + port)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server stopped", "error", err)
		}
	case sig := <-stop:
		log.Info("Shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("Server shutdown failed", "error", err)
		}
		if embedCache != nil {
			if err := embedCache.Close(); err != nil {
				log.Warn("Embed cache close failed", "error", err)
			}
		}
		if err := shutdownOtel(shutdownCtx); err != nil {
			log.Warn("Tracer shutdown failed", "error", err)
		}
	}
}
