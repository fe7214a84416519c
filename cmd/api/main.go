package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/nutritionist/backend/config"
	"github.com/pageza/nutritionist/backend/internal/api"
	"github.com/pageza/nutritionist/backend/internal/database"
	"github.com/pageza/nutritionist/backend/internal/logger"
	"github.com/pageza/nutritionist/backend/internal/metrics"
	"github.com/pageza/nutritionist/backend/internal/router"
	"github.com/pageza/nutritionist/backend/internal/server"
	"github.com/pageza/nutritionist/backend/internal/service"
)

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Development: cfg.Environment.Verbose(),
	})
	defer log.Sync()

	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *zap.Logger) error {
	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if cfg.AutoMigrate {
		if err := database.RunMigrations(db, cfg.Migrations, log); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Redis backs the embedding cache and consultations. Both are optional.
	redisClient, err := database.NewRedisClient(cfg, log)
	if err != nil {
		log.Warn("redis unavailable, running without embedding cache and consultation storage", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	m := metrics.New()
	svc, err := buildServices(cfg, db, redisClient, m, log)
	if err != nil {
		return err
	}

	srv := server.New(cfg, router.SetupRouter(cfg, svc, m, log), log)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		log.Info("received signal", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// buildServices wires the pipeline. Every component gets its dependencies
// explicitly; nothing is constructed lazily.
func buildServices(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, m *metrics.Metrics, log *zap.Logger) (api.Services, error) {
	embedCfg := service.EmbedderConfig{
		Provider:   cfg.EmbeddingProvider,
		APIKey:     cfg.EmbeddingAPIKey,
		APIURL:     cfg.EmbeddingAPIURL,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
		Timeout:    cfg.LLMTimeout,
	}
	embedder, err := service.NewEmbedder(embedCfg)
	if err != nil {
		return api.Services{}, err
	}

	var consultations service.ConsultationStore
	if redisClient != nil {
		embedder = service.NewCachedEmbedder(embedder, redisClient, embedCfg.Space(), cfg.EmbeddingCacheTTL, log)
		consultations = service.NewRedisConsultationStore(redisClient)
	}

	llm := service.NewLLMClient(service.LLMConfig{
		APIKey:      cfg.LLMAPIKey,
		APIURL:      cfg.LLMAPIURL,
		Model:       cfg.LLMModel,
		VisionModel: cfg.VisionModel,
		Timeout:     cfg.LLMTimeout,
	}, log)
	if cfg.LLMAPIKey == "" {
		log.Warn("LLM_API_KEY is not set, recommendations and image analysis are disabled")
	}

	usda := service.NewUSDAClient(cfg.USDAAPIURL, cfg.USDAAPIKey, cfg.USDATimeout, log)
	nutrition := service.NewNutritionService(database.NewNutritionStore(db), usda, m, log)
	meals := service.NewMealAnalyzer(nutrition, cfg.LookupConcurrency, log)
	recipeStore := database.NewRecipeStore(db)
	if count, err := recipeStore.CountRecipes(context.Background()); err != nil {
		log.Warn("failed to count indexed recipes", zap.Error(err))
	} else if count == 0 {
		log.Warn("recipe index is empty, run cmd/ingest_recipes to populate it")
	} else {
		log.Info("recipe index ready", zap.Int64("recipes", count))
	}
	recipes := service.NewRecipeSearchService(recipeStore, embedder, m, log)
	input := service.NewInputProcessor(llm, log)

	return api.Services{
		Meals:        meals,
		Input:        input,
		Recipes:      recipes,
		Nutritionist: service.NewNutritionist(input, meals, recipes, llm, consultations, cfg.RecipeTopK, m, log),
		RecipeTopK:   cfg.RecipeTopK,
	}, nil
}
