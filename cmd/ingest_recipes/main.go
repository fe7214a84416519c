package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/pageza/nutritionist/backend/config"
	"github.com/pageza/nutritionist/backend/internal/database"
	"github.com/pageza/nutritionist/backend/internal/logger"
	"github.com/pageza/nutritionist/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	source := flag.String("source", "dataset/full_dataset.csv", "Recipe CSV as a local path or s3://bucket/key")
	batch := flag.Int("batch", cfg.IngestBatchSize, "Recipes per embedding call and upsert")
	s3Key := flag.String("s3-key", "", "Object key in S3_BUCKET_NAME, overrides -source")
	maxRecords := flag.Int("max", cfg.IngestMaxRecords, "Maximum recipes to index, 0 for all")
	start := flag.Int("start", 0, "Resume from this recipe index")
	flag.Parse()

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := *source
	if *s3Key != "" {
		src = fmt.Sprintf("s3://%s/%s", cfg.S3BucketName, *s3Key)
	}

	opts := service.IngestionOptions{BatchSize: *batch, MaxRecords: *maxRecords, StartIndex: *start}
	if err := run(ctx, cfg, src, opts, log); err != nil {
		log.Fatal("ingestion failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, source string, opts service.IngestionOptions, log *zap.Logger) error {
	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.RunMigrations(db, cfg.Migrations, log); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	embedder, err := service.NewEmbedder(service.EmbedderConfig{
		Provider:   cfg.EmbeddingProvider,
		APIKey:     cfg.EmbeddingAPIKey,
		APIURL:     cfg.EmbeddingAPIURL,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
		Timeout:    cfg.LLMTimeout,
	})
	if err != nil {
		return err
	}

	r, err := openSource(ctx, cfg, source)
	if err != nil {
		return err
	}
	defer r.Close()

	log.Info("starting recipe ingestion",
		zap.String("source", source),
		zap.Int("batch", opts.BatchSize),
		zap.Int("max", opts.MaxRecords),
		zap.Int("start", opts.StartIndex))

	stats, err := service.NewIngestionService(database.NewRecipeStore(db), embedder, opts, log).Ingest(ctx, r)
	if err != nil {
		return err
	}
	log.Info("recipes indexed", zap.Int("ingested", stats.Ingested), zap.Int("batches", stats.Batches))
	return nil
}

// openSource opens a local file or streams an s3:// object
func openSource(ctx context.Context, cfg *config.Config, source string) (io.ReadCloser, error) {
	bucket, key, ok := config.ParseS3URI(source)
	if !ok {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open dataset: %w", err)
		}
		return f, nil
	}

	s3cfg, err := config.NewS3Config(ctx, bucket, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	return s3cfg.OpenObject(ctx, key)
}
