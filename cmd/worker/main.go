package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/parakeep/organizer/internal/analyzer"
	"github.com/parakeep/organizer/internal/config"
	"github.com/parakeep/organizer/internal/database"
	"github.com/parakeep/organizer/internal/decision"
	"github.com/parakeep/organizer/internal/dedupe"
	"github.com/parakeep/organizer/internal/logger"
	"github.com/parakeep/organizer/internal/naming"
	"github.com/parakeep/organizer/internal/pipeline"
	"github.com/parakeep/organizer/internal/queue"
	"github.com/parakeep/organizer/internal/services/ai"
	"github.com/parakeep/organizer/internal/vault"
	"github.com/parakeep/organizer/internal/vectordb"
	"github.com/parakeep/organizer/internal/weights"
	"github.com/parakeep/organizer/internal/workers"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("vault_root", cfg.VaultRoot),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
	)

	heuristics, err := config.LoadHeuristics(cfg.HeuristicsFile)
	if err != nil {
		zapLogger.Fatal("failed_to_load_heuristics", zap.Error(err))
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_parse_redis_url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()

	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq",
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	// Repositories
	recordRepo := database.NewClassificationRecordRepository(db)
	statsRepo := database.NewVaultStatisticsRepository(db)
	coherence := database.NewStatisticsCoherence(statsRepo, cfg.VaultRoot)

	// Vault and classification pipeline
	noteVault, err := vault.New(cfg.VaultRoot, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_open_vault", zap.Error(err))
	}

	contentAnalyzer := analyzer.NewAnalyzer(zapLogger)

	chromaSearcher := vectordb.NewChromaSearcher(cfg.VectorDBURL, cfg.VectorCollection, zapLogger)
	cachedSearcher := vectordb.NewCachedSearcher(chromaSearcher, redisClient, zapLogger)
	suggester := vectordb.NewSuggester(cachedSearcher, zapLogger)

	var classifier ai.Classifier
	if cfg.OpenAIKey != "" && cfg.AIProvider == "openai" {
		provider := ai.NewOpenAIProviderWithLogger(
			cfg.OpenAIKey,
			cfg.AIBaseURL,
			cfg.AIModel,
			zapLogger,
			debugMode,
		)
		provider.SetPromptLimit(heuristics.Prompt.MaxPromptChars)
		provider.SetRequestTimeout(time.Duration(heuristics.Prompt.RequestTimeout) * time.Second)
		provider.SetOverallTimeout(time.Duration(heuristics.Prompt.OverallTimeout) * time.Second)
		classifier = provider
		zapLogger.Info("initialized_llm_classifier",
			zap.String("provider", cfg.AIProvider),
			zap.String("model", cfg.AIModel),
		)
	} else {
		zapLogger.Warn("llm_classifier_not_configured_semantic_only")
	}

	calculator := weights.NewCalculator(heuristics.Weights, coherence, zapLogger)
	maker := decision.NewMaker(heuristics.Decision, heuristics.Archive, zapLogger)
	resolver := dedupe.NewResolver(heuristics.Dedupe.SimilarityThreshold, zapLogger)
	namer := naming.NewNamer(heuristics.Naming.MaxNameLength, resolver, zapLogger)

	engine := pipeline.NewEngine(
		noteVault,
		contentAnalyzer,
		suggester,
		classifier,
		calculator,
		maker,
		namer,
		recordRepo,
		zapLogger,
	)

	organizer := workers.NewNoteOrganizer(engine, jobQueue, zapLogger)
	statsAnalyzer := workers.NewStatsAnalyzer(noteVault, contentAnalyzer, statsRepo, zapLogger)
	scheduler := workers.NewScheduler(jobQueue, cfg.VaultRoot, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Schedule the twice-daily statistics refresh, then re-arm every day
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			if err := scheduler.ScheduleStatisticsJobs(ctx); err != nil {
				zapLogger.Error("failed_to_schedule_statistics_jobs", zap.Error(err))
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	zapLogger.Info("worker_started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("message_channel_closed")
					return
				}

				job := msg.GetJob()
				var procErr error
				if job != nil && job.Type == queue.JobTypeAnalyzeStatistics {
					procErr = statsAnalyzer.ProcessJob(ctx, msg)
				} else {
					procErr = organizer.ProcessJob(ctx, msg)
				}
				if procErr != nil {
					fields := []zap.Field{zap.Error(procErr)}
					if job != nil {
						fields = append(fields,
							zap.String("job_id", job.ID.String()),
							zap.String("job_type", string(job.Type)),
						)
					}
					zapLogger.Error("failed_to_process_job", fields...)
				}
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	<-sigChan
	zapLogger.Info("shutdown_signal_received")

	cancel()

	zapLogger.Info("worker_stopped")
}
