package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/customer-pipeline/internal/config"
	"github.com/Sternrassler/customer-pipeline/pkg/cache"
	"github.com/Sternrassler/customer-pipeline/pkg/client"
	"github.com/Sternrassler/customer-pipeline/pkg/exporter"
	"github.com/Sternrassler/customer-pipeline/pkg/logging"
	"github.com/Sternrassler/customer-pipeline/pkg/metrics"
	"github.com/Sternrassler/customer-pipeline/pkg/pipeline"
	"github.com/Sternrassler/customer-pipeline/pkg/processor"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "customer-pipeline: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, loaded, err := config.Load(getEnv("PIPELINE_CONFIG_PATH", "."))
	if err != nil {
		return err
	}

	root := logging.WithRunID(logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	}), uuid.NewString())
	logger := logging.NewLogger(root, "main")

	logger.Info().
		Bool("config_file", loaded).
		Str("base_url", cfg.API.BaseURL).
		Msg("Starting customer pipeline")

	pageCache, closeCache, err := newCache(ctx, cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	clientCfg := client.DefaultConfig(cfg.API.BaseURL)
	clientCfg.APIKey = cfg.API.Key
	clientCfg.UserAgent = cfg.API.UserAgent
	clientCfg.Timeout = cfg.API.Timeout
	clientCfg.Retry.MaxAttempts = cfg.Retry.MaxAttempts
	clientCfg.Retry.InitialBackoff = cfg.Retry.InitialBackoff
	clientCfg.Cache = pageCache
	clientCfg.Logger = root

	apiClient, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	sink, err := buildSink(ctx, cfg.Export, newS3Client)
	if err != nil {
		return err
	}

	report, err := pipeline.Run(ctx, pipeline.Config{
		Fetcher:   apiClient,
		Processor: newProcessor(cfg.Processor),
		Exporter:  exporter.New(sink, root),
		Logger:    root,
	})
	if err != nil {
		return err
	}

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn().Err(err).Str("path", cfg.Metrics.Textfile).Msg("Failed to write metrics textfile")
		}
	}

	fmt.Printf("Total customers: %d\n", report.TotalCustomers)
	fmt.Printf("Average quality score: %.1f\n", report.AverageQualityScore)
	return nil
}

// newCache connects the Redis page cache. An empty address disables it and
// returns a nil manager.
func newCache(ctx context.Context, cfg config.CacheConfig, logger zerolog.Logger) (*cache.Manager, func(), error) {
	if cfg.RedisAddr == "" {
		return nil, func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	logger.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.TTL).Msg("Page cache enabled")

	return cache.NewManager(redisClient, cfg.TTL), func() { _ = redisClient.Close() }, nil
}

type s3Factory func(ctx context.Context, region string) (exporter.PutObjectAPI, error)

func newS3Client(ctx context.Context, region string) (exporter.PutObjectAPI, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// buildSink always writes the local file and adds an S3 copy when a bucket
// is configured.
func buildSink(ctx context.Context, cfg config.ExportConfig, newS3 s3Factory) (exporter.Sink, error) {
	file := exporter.FileSink{Path: cfg.OutputPath}
	if cfg.S3.Bucket == "" {
		return file, nil
	}

	api, err := newS3(ctx, cfg.S3.Region)
	if err != nil {
		return nil, err
	}
	return exporter.MultiSink{
		file,
		exporter.S3Sink{Client: api, Bucket: cfg.S3.Bucket, Key: cfg.S3.Key},
	}, nil
}

func newProcessor(cfg config.ProcessorConfig) *processor.Processor {
	if cfg.Seed != 0 {
		return processor.New(processor.WithSeed(cfg.Seed))
	}
	return processor.New()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
