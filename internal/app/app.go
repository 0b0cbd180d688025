// Package app wires configuration, storage, clients and services into the
// shared core used by cmd/investflow-server and cmd/investflow.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/investflow/internal/clients/gemini"
	"github.com/bobmcallan/investflow/internal/clients/trading212"
	"github.com/bobmcallan/investflow/internal/common"
	"github.com/bobmcallan/investflow/internal/interfaces"
	"github.com/bobmcallan/investflow/internal/models"
	"github.com/bobmcallan/investflow/internal/services/auth"
	"github.com/bobmcallan/investflow/internal/services/insight"
	"github.com/bobmcallan/investflow/internal/services/portfolio"
	"github.com/bobmcallan/investflow/internal/storage/surrealdb"
)

// App holds all initialized services and clients.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	PositionFeed     interfaces.PositionFeed
	GeminiClient     interfaces.GeminiClient
	PortfolioService interfaces.PortfolioService
	InsightService   interfaces.InsightService
	AuthService      interfaces.AuthService
	StartupTime      time.Time

	events    <-chan models.SessionEvent
	closeAuth func()
}

// Deps are the boundary collaborators of an App. GeminiClient may be nil,
// in which case insights fall back to a fixed message.
type Deps struct {
	Storage      interfaces.StorageManager
	PositionFeed interfaces.PositionFeed
	GeminiClient interfaces.GeminiClient
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath returns configPath if set, else INVESTFLOW_CONFIG, else
// investflow.toml next to the binary, else config/investflow.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("INVESTFLOW_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "investflow.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/investflow.toml"
		}
	}
	return configPath
}

// NewApp loads configuration and initializes storage, clients and services.
// configPath may be empty, in which case ResolveConfigPath applies.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := surrealdb.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	t212 := config.Clients.Trading212
	feed := trading212.NewClient(
		trading212.WithLogger(logger),
		trading212.WithBaseURLs(t212.LiveURL, t212.DemoURL),
		trading212.WithRateLimit(t212.RateLimit),
		trading212.WithTimeout(t212.GetTimeout()),
		trading212.WithRetry(t212.MaxRetries, 0),
	)

	deps := Deps{Storage: storageManager, PositionFeed: feed}

	geminiKey, err := common.ResolveAPIKey("gemini_api_key", config.Clients.Gemini.APIKey)
	if err != nil {
		logger.Warn().Msg("Gemini API key not configured - insights will use fallback text")
	} else {
		gc := config.Clients.Gemini
		client, err := gemini.NewClient(context.Background(), geminiKey,
			gemini.WithLogger(logger),
			gemini.WithModel(gc.Model),
			gemini.WithTemperature(gc.Temperature),
			gemini.WithTimeout(gc.GetTimeout()),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client")
		} else {
			deps.GeminiClient = client
		}
	}

	return New(config, logger, deps), nil
}

// New assembles an App from already constructed collaborators.
func New(config *common.Config, logger *common.Logger, deps Deps) *App {
	start := time.Now()

	authService := auth.NewService(deps.Storage.UserStore(), config.Auth, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          deps.Storage,
		PositionFeed:     deps.PositionFeed,
		GeminiClient:     deps.GeminiClient,
		PortfolioService: portfolio.NewService(deps.Storage.HoldingStore(), deps.PositionFeed, config.Currency(), logger),
		InsightService:   insight.NewService(deps.GeminiClient, logger),
		AuthService:      authService,
		StartupTime:      start,
		closeAuth:        authService.Close,
	}
	// Subscribe before any request can sign someone in.
	a.events = authService.Subscribe()

	logger.Info().Dur("startup", time.Since(start)).Msg("App initialized")
	return a
}

// RunSessionEvents consumes sign-in and sign-out events until ctx is done
// or the event stream closes. A sign-in loads the owner's workspace; a
// sign-out clears it.
func (a *App) RunSessionEvents(ctx context.Context) error {
	events := a.events
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			a.handleSessionEvent(ctx, ev.UserID, ev.SignedIn())
		}
	}
}

func (a *App) handleSessionEvent(ctx context.Context, userID string, signedIn bool) {
	if userID == "" {
		return
	}
	if !signedIn {
		a.PortfolioService.Clear(userID)
		a.Logger.Debug().Str("user_id", userID).Msg("Workspace cleared on sign-out")
		return
	}
	holdings, err := a.PortfolioService.Load(ctx, userID)
	if err != nil {
		a.Logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to load workspace on sign-in")
		return
	}
	a.Logger.Debug().Str("user_id", userID).Int("holdings", len(holdings)).Msg("Workspace loaded on sign-in")
}

// Close releases all resources held by the App.
// Shutdown order: close the session stream, then storage.
func (a *App) Close() {
	if a.closeAuth != nil {
		a.closeAuth()
		a.closeAuth = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
