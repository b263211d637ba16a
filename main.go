package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sales-assistant/agent"
	"sales-assistant/audit"
	"sales-assistant/config"
	"sales-assistant/database"
	"sales-assistant/facts"
	"sales-assistant/llmclient"
	"sales-assistant/rag"
	"sales-assistant/report"
	"sales-assistant/stats"
	"sales-assistant/web"
	"sales-assistant/web/middleware"
	"sales-assistant/web/services"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Load config (which includes log level setting)
	cfg := config.Load(tempLogger)

	// Re-initialize logger with configured level
	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to re-initialize logger with configured level: %v\n", err)
		os.Exit(1)
	}
	defer config.Cleanup()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	loc := cfg.Location()
	calendar := stats.Calendar{Location: loc, WeekStart: cfg.WeekStartDay()}
	recorder := audit.NewRecorder(store, cfg.StorageTimeout, logger)
	llm := llmclient.New(cfg, logger)

	factService, err := facts.NewService(store, cfg.FactCacheSize, cfg.StorageTimeout, logger)
	if err != nil {
		logger.Fatal("Failed to initialize fact resolver", zap.Error(err))
	}

	var embedder rag.Embedder
	if cfg.VectorSearch {
		cached, err := rag.NewCachedEmbedder(llm, cfg.EmbeddingCacheSize, logger)
		if err != nil {
			logger.Fatal("Failed to initialize embedding cache", zap.Error(err))
		}
		embedder = cached
	}
	retriever := rag.New(store, embedder, rag.OptionsFromConfig(cfg), logger)

	statsService := stats.NewService(store, stats.Options{
		Calendar:          calendar,
		DefaultPlanTarget: cfg.DefaultPlanTarget,
		TopBottomN:        cfg.TopBottomN,
		Timeout:           cfg.StorageTimeout,
	}, logger)

	var classifier agent.Classifier = agent.KeywordClassifier{}
	if cfg.UseLLMClassifier {
		classifier = agent.NewLLMClassifier(llm, logger)
	}
	assembler := agent.NewAssembler(factService, retriever, statsService, store, agent.AssemblerOptions{
		RecentTurns:  cfg.RecentTurns,
		Notes:        cfg.ContextNotes,
		PassageLimit: cfg.PassageLimit,
		CharBudget:   cfg.ContextCharBudget,
	}, logger)
	assistant := agent.NewAssistant(classifier, assembler, llm, store, recorder, statsService.Today, agent.Options{
		LLMTimeout:     cfg.LLMRequestTimeout,
		StorageTimeout: cfg.StorageTimeout,
	}, logger)

	notifier := report.Notifiers{report.LogNotifier{Logger: logger}, report.TurnNotifier{Store: store}}
	runner := report.NewRunner(store, statsService, notifier, recorder, report.Options{
		Workers:         cfg.SummaryWorkers,
		TopBottomN:      cfg.TopBottomN,
		StorageTimeout:  cfg.StorageTimeout,
		EmployeeTimeout: cfg.SummaryRunTimeout,
	}, logger)

	limiter := middleware.NewEmployeeRateLimiter(middleware.RateLimiterConfig{
		RequestsPerMinute: cfg.RateLimitRequestsPerMin,
		BurstSize:         cfg.RateLimitBurstSize,
		CleanupInterval:   cfg.RateLimitCleanup,
	}, logger)
	defer limiter.Stop()

	webServer := web.NewServer(web.Dependencies{
		Employees: services.NewEmployeeService(store, recorder, cfg.StorageTimeout, logger),
		Activity:  services.NewActivityService(store, recorder, statsService.Today, cfg.StorageTimeout, logger),
		Plans:     services.NewPlanService(store, recorder, cfg.StorageTimeout, logger),
		Notes:     services.NewNoteService(store, recorder, cfg.NotesListLimit, cfg.StorageTimeout, logger),
		Knowledge: services.NewKnowledgeService(store, cfg.StorageTimeout, logger),
		Facts:     factService,
		Passages:  retriever,
		Assistant: assistant,
		Sessions:  agent.NewSessions(),
		Summaries: runner,
		Limiter:   limiter,
		Today:     statsService.Today,
		Location:  loc,
	}, logger, cfg)

	// Create context that listens for interrupt signals
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.NotifyEnabled {
		scheduler := report.NewScheduler(runner, loc, cfg.SummaryHour, cfg.SummaryMinute, cfg.SummaryRunTimeout, logger)
		go scheduler.Start(ctx)
	}

	port := fmt.Sprintf(":%d", cfg.WebPort)
	logger.Info("Starting sales assistant",
		zap.String("port", port),
		zap.String("store", cfg.StoreDriver),
		zap.Bool("vector_search", retriever.VectorEnabled()),
		zap.String("timezone", loc.String()))
	if err := webServer.Start(ctx, port); err != nil {
		logger.Error("Web server error", zap.Error(err))
		os.Exit(1)
	}
}

// openStore connects to Postgres and ensures the schema, or returns the
// in-memory store when STORE_DRIVER=memory.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (database.Store, error) {
	if cfg.StoreDriver == "memory" {
		logger.Warn("Using in-memory store; data is lost on restart")
		return database.NewMemoryStore(), nil
	}
	store, err := database.NewPostgresStore(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	return store, nil
}
