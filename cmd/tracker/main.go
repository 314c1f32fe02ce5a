package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"brainlift_tracker/internal/classifier"
	"brainlift_tracker/internal/compose"
	"brainlift_tracker/internal/config"
	"brainlift_tracker/internal/diff"
	"brainlift_tracker/internal/locator"
	"brainlift_tracker/internal/orchestrator"
	"brainlift_tracker/internal/poster"
	"brainlift_tracker/internal/publisher"
	"brainlift_tracker/internal/scheduler"
	"brainlift_tracker/internal/service"
	"brainlift_tracker/internal/source/workflowy"
	"brainlift_tracker/internal/storage/minioblob"
	"brainlift_tracker/internal/storage/postgres"
	"brainlift_tracker/internal/storage/redisstate"
	"brainlift_tracker/internal/twitter"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one tracking cycle and exit")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	stateStore, err := redisstate.New(cfg.Redis.URL)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer stateStore.Close()
	logger.Info("connected to redis")

	snapshots, err := minioblob.New(ctx, minioblob.Config{
		Endpoint:  cfg.Blob.Endpoint,
		AccessKey: cfg.Blob.AccessKey,
		SecretKey: cfg.Blob.SecretKey,
		Bucket:    cfg.Blob.Bucket,
		UseSSL:    cfg.Blob.UseSSL,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to blob storage", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to blob storage", "bucket", cfg.Blob.Bucket)

	// The classifier is opportunistic: without an API key the locator runs
	// on its deterministic fallback matcher alone.
	var sectionClassifier locator.Classifier
	if cfg.Classifier.APIKey != "" {
		gemini, err := classifier.NewGemini(ctx, classifier.Config{
			APIKey: cfg.Classifier.APIKey,
			Model:  cfg.Classifier.Model,
		}, logger)
		if err != nil {
			logger.Warn("classifier unavailable, using fallback matcher only", "error", err)
		} else {
			sectionClassifier = gemini
		}
	}

	var events service.EventPublisher
	if cfg.RabbitMQ.Enabled {
		rabbit, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbit.Close()
		events = rabbit
	}

	source := workflowy.New(workflowy.Config{
		BaseURL:        cfg.Source.BaseURL,
		Username:       cfg.Source.Username,
		Password:       cfg.Source.Password,
		Timeout:        cfg.Source.Timeout,
		MaxAttempts:    cfg.Source.Retry.MaxAttempts,
		InitialBackoff: cfg.Source.Retry.InitialBackoff,
		MaxBackoff:     cfg.Source.Retry.MaxBackoff,
	}, logger)

	postingAPI := twitter.New(twitter.Config{
		BaseURL: cfg.Twitter.BaseURL,
		APIKey:  cfg.Twitter.APIKey,
		Timeout: cfg.Twitter.Timeout,
	}, logger)

	limiter := poster.NewAccountLimiter(cfg.Batch.RateLimitRequests, cfg.Batch.RateLimitWindow)
	sequencer := poster.NewSequencer(postingAPI, limiter, logger)

	registry := postgres.NewProjectStore(db)

	pipeline := service.NewPipeline(
		source,
		locator.New(sectionClassifier, logger),
		stateStore,
		snapshots,
		sequencer,
		events,
		diff.New(diff.Options{MaxReconcileProduct: cfg.Batch.MaxReconcileProduct}, logger),
		compose.New(cfg.Batch.CharBudget),
		logger,
		service.PipelineConfig{StateTTL: cfg.Batch.StateTTL},
	)

	orch := orchestrator.New(pipeline, registry, snapshots, logger, orchestrator.Config{
		BatchSize:           cfg.Batch.Size,
		DelayBetweenBatches: cfg.Batch.DelayBetweenBatches,
		SnapshotRetention:   cfg.Batch.SnapshotRetention,
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if *once {
		if _, err := orch.RunCycle(ctx); err != nil {
			logger.Error("tracking cycle failed", "error", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("starting brainlift tracker",
		"interval", cfg.Batch.Interval,
		"batch_size", cfg.Batch.Size,
	)

	sched := scheduler.NewScheduler(orch, cfg.Batch.Interval, cfg.Batch.CycleTimeout, logger)
	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
