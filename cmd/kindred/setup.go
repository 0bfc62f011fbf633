package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/kindred/internal/config"
	"github.com/sandevgo/kindred/internal/core"
	"github.com/sandevgo/kindred/internal/providers/embed"
	"github.com/sandevgo/kindred/internal/providers/llm"
	"github.com/sandevgo/kindred/internal/service/engine"
	"github.com/sandevgo/kindred/internal/service/memory"
	"github.com/sandevgo/kindred/internal/service/prompt"
	"github.com/sandevgo/kindred/internal/service/style"
	"github.com/sandevgo/kindred/internal/storage/sqlite"
	"github.com/sandevgo/kindred/internal/transport/telegram"
	"github.com/sandevgo/kindred/pkg/log"
	"github.com/sandevgo/kindred/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	engineCfg := config.NewEngineConfig(ctx)
	providerCfg := config.NewProviderConfig(ctx)
	embedCfg := config.NewEmbeddingConfig(ctx)

	// 2. Storage
	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	memoryRepo := sqlite.NewMemoryRepo(db)
	topicRepo := sqlite.NewTopicRepo(db)
	styleRepo := sqlite.NewStyleRepo(db)
	cultureRepo := sqlite.NewCultureRepo(db)
	companionRepo := sqlite.NewCompanionRepo(db)
	profileRepo := sqlite.NewProfileRepo(db)

	if err := companionRepo.Seed(ctx, core.Companion{
		ID:          appCfg.DefaultCompanionID,
		Name:        core.KindredName,
		Personality: "warm, curious, a little playful",
	}); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed default companion")
	}

	// 3. LLM gateway with fallback cascade
	gateway, err := llm.NewGatewayFromConfig(providerCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM gateway")
	}

	// 4. Semantic index; absent embedding config means relational-only recall
	var embedder core.Embedder
	if embedCfg.Enabled() {
		embedder = embed.NewClient(embedCfg)
	} else {
		logger.Info().Msg("no embedding provider configured, semantic recall disabled")
	}
	index := memory.NewSemanticIndex(embedder)

	// 5. Memory store + background consolidation
	store := memory.NewStore(memoryRepo, index, engineCfg.ImportanceThreshold)
	extractor := memory.NewExtractor(gateway)

	maintenance := memory.NewMaintenance(store, memoryRepo, engineCfg.ConsolidationSchedule)
	services = append(services, maintenance)

	// 6. The engine
	eng := engine.NewEngine(
		appCfg,
		engineCfg,
		store,
		extractor,
		prompt.NewAssembler(engineCfg),
		style.NewProcessor(engineCfg),
		style.NewLearner(styleRepo),
		gateway,
		companionRepo,
		profileRepo,
		styleRepo,
		cultureRepo,
		topicRepo,
		engine.NewSessionCache(engineCfg.CacheMaxSize, engineCfg.CacheTTL),
	)

	// 7. Transports
	transports, err := initTransports(ctx, appCfg, eng)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transports")
	}
	services = append(services, transports...)

	return services
}

func initTransports(ctx context.Context, cfg *config.AppConfig, eng *engine.Engine) ([]srv.Service, error) {
	var services []srv.Service

	if cfg.IsTelegramSelected() {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, eng, cfg.DefaultCompanionID)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	return services, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
