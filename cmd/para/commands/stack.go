package commands

import (
	"fmt"
	"os"
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
	"github.com/parakeep/organizer/internal/services/ai"
	"github.com/parakeep/organizer/internal/vault"
	"github.com/parakeep/organizer/internal/vectordb"
	"github.com/parakeep/organizer/internal/weights"
)

// stack bundles everything a CLI command may need, with a cleanup func
// that closes whatever was opened.
type stack struct {
	cfg        *config.Config
	logger     *zap.Logger
	vault      *vault.Vault
	engine     *pipeline.Engine
	resolver   *dedupe.Resolver
	recordRepo database.ClassificationRecordRepositoryInterface
	cleanup    func()
}

// buildStack wires the classification pipeline for local CLI use. The
// database and Redis are optional: without DATABASE_URL the audit trail
// and tag-coherence factor are skipped, without Redis the neighbor
// search runs uncached.
func buildStack(debugMode bool) (*stack, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	zapLogger, err := logger.NewDevelopmentLogger(debugMode)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		_ = zapLogger.Sync()
	}

	var recordRepo database.ClassificationRecordRepositoryInterface
	var coherence weights.CoherenceSource
	if cfg.DatabaseURL != "" {
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		closers = append(closers, func() {
			if err := db.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		})
		recordRepo = database.NewClassificationRecordRepository(db)
		statsRepo := database.NewVaultStatisticsRepository(db)
		coherence = database.NewStatisticsCoherence(statsRepo, cfg.VaultRoot)
	}

	noteVault, err := vault.New(cfg.VaultRoot, zapLogger)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}

	heuristics, err := config.LoadHeuristics(cfg.HeuristicsFile)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to load heuristics: %w", err)
	}

	contentAnalyzer := analyzer.NewAnalyzer(zapLogger)

	var searcher vectordb.NeighborSearcher = vectordb.NewChromaSearcher(cfg.VectorDBURL, cfg.VectorCollection, zapLogger)
	if redisOpts, err := redis.ParseURL(cfg.RedisURL); err == nil {
		redisClient := redis.NewClient(redisOpts)
		closers = append(closers, func() { _ = redisClient.Close() })
		searcher = vectordb.NewCachedSearcher(searcher, redisClient, zapLogger)
	}
	suggester := vectordb.NewSuggester(searcher, zapLogger)

	var classifier ai.Classifier
	if cfg.OpenAIKey != "" {
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

	return &stack{
		cfg:        cfg,
		logger:     zapLogger,
		vault:      noteVault,
		engine:     engine,
		resolver:   resolver,
		recordRepo: recordRepo,
		cleanup:    cleanup,
	}, nil
}
