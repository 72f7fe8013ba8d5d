package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/parakeep/organizer/internal/analyzer"
	"github.com/parakeep/organizer/internal/config"
	"github.com/parakeep/organizer/internal/database"
	"github.com/parakeep/organizer/internal/decision"
	"github.com/parakeep/organizer/internal/dedupe"
	"github.com/parakeep/organizer/internal/handlers"
	"github.com/parakeep/organizer/internal/logger"
	"github.com/parakeep/organizer/internal/middleware"
	"github.com/parakeep/organizer/internal/naming"
	"github.com/parakeep/organizer/internal/pipeline"
	"github.com/parakeep/organizer/internal/queue"
	"github.com/parakeep/organizer/internal/services/ai"
	"github.com/parakeep/organizer/internal/telemetry"
	"github.com/parakeep/organizer/internal/vault"
	"github.com/parakeep/organizer/internal/vectordb"
	"github.com/parakeep/organizer/internal/weights"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("vault_root", cfg.VaultRoot),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// Initialize OpenTelemetry if enabled
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "note-organizer-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized",
					zap.String("endpoint", cfg.OTELEndpoint),
				)
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

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

	// Redis backs both the neighbor-search cache and rate limiting
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
	zapLogger.Info("connected_to_redis")

	jobQueue := connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

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

	classifier, err := createClassifier(cfg, heuristics.Prompt, zapLogger, debugMode)
	if err != nil {
		zapLogger.Warn("failed_to_create_llm_classifier_semantic_only", zap.Error(err))
		classifier = nil
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

	// Handlers
	classifyHandler := handlers.NewClassifyHandler(engine)
	organizeHandler := handlers.NewOrganizeHandler(jobQueue, cfg.VaultRoot)
	decisionsHandler := handlers.NewDecisionsHandler(recordRepo)
	healthChecker := handlers.NewHealthChecker(db, jobQueue, redisClient)

	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RatelimitRate)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Router and middleware
	r := mux.NewRouter()

	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware("note-organizer-api"))
		zapLogger.Info("otel_middleware_enabled")
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORSFromConfig(cfg.CORSOrigins))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	// Health endpoint stays unmetered
	r.HandleFunc("/health", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(rateLimitMW)
	classifyHandler.RegisterRoutes(apiRouter)
	organizeHandler.RegisterRoutes(apiRouter)
	decisionsHandler.RegisterRoutes(apiRouter)

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   90 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Start DLQ garbage collector if the queue implementation supports it
	// Run every hour, retain messages for 24 hours
	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		dlqGC := queue.NewGarbageCollector(dlqPurger, 1*time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := dlqGC.Start(bgCtx); err != nil && err != context.Canceled {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", 1*time.Hour),
			zap.Duration("retention", 24*time.Hour),
		)
	}

	go func() {
		zapLogger.Info("server_starting",
			zap.String("port", cfg.ServerPort),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	bgCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectRabbitMQ connects to RabbitMQ, retrying with exponential backoff
// to ride out broker startup delays.
func connectRabbitMQ(amqpURL string, zapLogger *zap.Logger) queue.JobQueue {
	const maxRetries = 10
	const initialDelay = 2 * time.Second
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return jobQueue
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt)) // #nosec G115 - attempt < 10
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
		zap.Int("max_retries", maxRetries),
		zap.Error(lastErr),
	)
	return nil
}

// createClassifier creates an LLM classifier based on configuration
func createClassifier(cfg *config.Config, tuning config.PromptTuning, logger *zap.Logger, debugMode bool) (ai.Classifier, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}

	providerType := cfg.AIProvider
	if providerType == "" {
		providerType = "openai"
	}

	// Create provider directly with logger support
	if providerType == "openai" {
		provider := ai.NewOpenAIProviderWithLogger(
			cfg.OpenAIKey,
			cfg.AIBaseURL,
			cfg.AIModel,
			logger,
			debugMode,
		)
		applyPromptTuning(provider, tuning)
		return provider, nil
	}

	// Fallback to registry for other providers (without logger)
	registry := ai.NewProviderRegistry()
	ai.RegisterOpenAI(registry)

	providerConfig := map[string]string{
		"api_key":  cfg.OpenAIKey,
		"model":    cfg.AIModel,
		"base_url": cfg.AIBaseURL,
	}

	classifier, err := registry.GetProvider(providerType, providerConfig)
	if err != nil {
		return nil, err
	}
	if provider, ok := classifier.(*ai.OpenAIProvider); ok {
		applyPromptTuning(provider, tuning)
	}
	return classifier, nil
}

// applyPromptTuning pushes the heuristics file's prompt limits onto the
// provider, keeping the built-in defaults for any zero value.
func applyPromptTuning(provider *ai.OpenAIProvider, tuning config.PromptTuning) {
	provider.SetPromptLimit(tuning.MaxPromptChars)
	provider.SetRequestTimeout(time.Duration(tuning.RequestTimeout) * time.Second)
	provider.SetOverallTimeout(time.Duration(tuning.OverallTimeout) * time.Second)
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	// Only expose minimal version info
	if _, err := fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = err
	}
}
