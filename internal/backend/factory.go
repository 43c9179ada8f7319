// Package backend assembles the storage, services and integrations shared by
// the server, the worker and the CLI.
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"waist/internal/ai"
	"waist/internal/amqp"
	"waist/internal/auth"
	"waist/internal/cache"
	"waist/internal/config"
	"waist/internal/log"
	"waist/internal/metrics"
	"waist/internal/services"
	"waist/internal/sheets"
	gsheet "waist/internal/sheets/google"
	"waist/internal/storage"
)

// CleanupFunc releases one resource.
type CleanupFunc func() error

// App holds the wired dependencies. Close releases them in reverse order of
// creation.
type App struct {
	Config       *config.Config
	Repo         *storage.SQLiteRepository
	Transactions *services.TransactionService
	Analytics    *services.Analytics
	Credentials  *auth.CredentialStore
	Tokens       *auth.TokenManager
	Advisor      *ai.Advisor
	Metrics      *metrics.Metrics
	Logger       *log.Logger

	cleanups []CleanupFunc
}

func (a *App) addCleanup(fn CleanupFunc) {
	a.cleanups = append(a.cleanups, fn)
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanups = nil
	return errors.Join(errs...)
}

type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Factory{logger: logger}
}

// Build opens the database and wires the services. The AMQP publisher is
// optional: a broker that cannot be reached is logged and skipped so the
// store stays usable.
func (f *Factory) Build(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	app := &App{
		Config:  cfg,
		Repo:    repo,
		Metrics: metrics.New(),
		Logger:  f.logger,
	}

	var events services.EventPublisher
	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WithComponent(log.ComponentAMQP).Warn("Failed to initialize AMQP client, continuing without change events",
				log.FieldError, err)
		} else {
			events = client
			f.logger.WithComponent(log.ComponentAMQP).Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	// The service owns the repository and the publisher from here on.
	app.Transactions = services.NewTransactionService(repo, events, app.Metrics, f.logger)
	app.addCleanup(app.Transactions.Close)
	app.Analytics = services.NewAnalytics(app.Transactions)

	app.Credentials = auth.NewCredentialStore(repo)
	app.Tokens = auth.NewTokenManager(cfg.SessionSecret, cfg.SessionTTL, cfg.ResetTokenTTL)

	suggestions := cache.NewLRUCache[string](cfg.SuggestCacheSize, cfg.SuggestCacheTTL)
	if cfg.SuggestCacheTTL > 0 {
		janitor := cache.NewJanitor(f.logger.WithComponent(log.ComponentAI))
		janitor.Register(suggestions)
		janitor.Start(max(cfg.SuggestCacheTTL/2, time.Minute))
		app.addCleanup(func() error {
			janitor.Stop()
			return nil
		})
	}

	app.Advisor = ai.NewAdvisor(ai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), ai.Options{
		Model:    cfg.OpenAIModel,
		Timeout:  cfg.AITimeout,
		Cache:    suggestions,
		Logger:   f.logger,
		Fallback: app.Metrics.AIFallback,
	})

	f.logger.Info("Initialized backend",
		"db_path", cfg.SQLiteDBPath,
		"events_enabled", events != nil,
		"ai_enabled", app.Advisor.Enabled())

	return app, nil
}

// Sheet connects to the configured Google spreadsheet.
func (f *Factory) Sheet(ctx context.Context, cfg *config.Config) (sheets.Writer, error) {
	if !cfg.SheetsEnabled() {
		return nil, errors.New("sheets mirror is not configured (set GOOGLE_SPREADSHEET_ID)")
	}
	client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, gsheet.Credentials{
		JSON: cfg.GoogleServiceAccountJSON,
		File: cfg.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.WithComponent(log.ComponentSheets).Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
