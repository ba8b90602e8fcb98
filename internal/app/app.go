package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/lectorhq/lector/internal/common"
	"github.com/lectorhq/lector/internal/handlers"
	"github.com/lectorhq/lector/internal/interfaces"
	"github.com/lectorhq/lector/internal/services/events"
	"github.com/lectorhq/lector/internal/services/gitrepo"
	"github.com/lectorhq/lector/internal/services/llm"
	"github.com/lectorhq/lector/internal/services/report"
	"github.com/lectorhq/lector/internal/services/reviewer"
	"github.com/lectorhq/lector/internal/services/scanner"
	"github.com/lectorhq/lector/internal/services/scheduler"
	"github.com/lectorhq/lector/internal/services/websearch"
	"github.com/lectorhq/lector/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	EventService   interfaces.EventService

	// Pipeline services
	LLMService      interfaces.LLMService
	SearchService   *websearch.Service
	RepoService     interfaces.RepoService
	Scanner         interfaces.DocumentScanner
	ReviewerService *reviewer.Service
	ReportGenerator *report.Generator
	Scheduler       *scheduler.Scheduler

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	TutorialHandler *handlers.TutorialHandler
	IssueHandler    *handlers.IssueHandler
	WSHandler       *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Bool("search_enabled", cfg.Search.Enabled && app.SearchService != nil).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Str("default_provider", string(cfg.LLM.DefaultProvider)).
		Msg("Application initialization complete")

	return app, nil
}

func (a *App) initStorage() error {
	manager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}

	a.StorageManager = manager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")
	return nil
}

// initServices initializes all business services in dependency order
func (a *App) initServices() error {
	a.EventService = events.NewService(a.Logger)

	a.LLMService = llm.NewService(a.Config, a.Logger)

	// Grounded web search needs a Gemini key regardless of the default
	// evaluation provider. Without one, evaluation runs reference-free.
	if a.Config.Search.Enabled && a.Config.Gemini.APIKey != "" {
		a.SearchService = websearch.NewService(&a.Config.Gemini, a.Logger)
		a.Logger.Debug().Msg("Web search service initialized")
	} else if a.Config.Search.Enabled {
		a.Logger.Warn().Msg("Search enabled but no Gemini API key configured, evaluating without references")
	}

	repoService, err := gitrepo.NewService(a.Config.Storage.Repos.Dir, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize repo service: %w", err)
	}
	a.RepoService = repoService

	a.Scanner = scanner.NewService(a.Logger)

	var searchSvc interfaces.WebSearchService
	if a.SearchService != nil {
		searchSvc = a.SearchService
	}
	a.ReviewerService = reviewer.NewService(
		a.Config,
		a.StorageManager,
		a.RepoService,
		a.Scanner,
		a.LLMService,
		searchSvc,
		a.EventService,
		a.Logger,
	)

	a.ReportGenerator = report.NewGenerator(a.StorageManager, a.Logger)

	a.Scheduler = scheduler.NewScheduler(&a.Config.Scheduler, a.StorageManager, a.ReviewerService, a.Logger)
	if err := a.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, a.Logger, &a.Config.WebSocket)
	a.TutorialHandler = handlers.NewTutorialHandler(
		a.StorageManager,
		a.RepoService,
		a.ReviewerService,
		a.ReportGenerator,
		a.EventService,
		a.Logger,
	)
	a.IssueHandler = handlers.NewIssueHandler(a.StorageManager, a.Logger)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
		a.Logger.Info().Msg("Scheduler stopped")
	}

	if a.SearchService != nil {
		if err := a.SearchService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close search service")
		}
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
