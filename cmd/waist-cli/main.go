package main

import (
	"context"
	"os"

	"waist/internal/backend"
	"waist/internal/cli"
	"waist/internal/cli/commands"
	"waist/internal/log"
	"waist/internal/sheets"
)

func main() {
	cli.LoadEnvFile()
	// Log lines would interleave with tables, so only warnings and up by
	// default.
	if os.Getenv("LOG_LEVEL") == "" {
		os.Setenv("LOG_LEVEL", "warn")
	}
	logger := cli.SetupLogger(log.ComponentCLI)

	var app *backend.App
	factory := backend.NewFactory(logger)

	open := func(ctx context.Context, dbPath string) (*commands.Env, error) {
		if dbPath != "" {
			os.Setenv("SQLITE_DB_PATH", dbPath)
		}
		cfg := cli.LoadAndValidateConfig(logger, nil)
		var err error
		app, err = factory.Build(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &commands.Env{
			Transactions: app.Transactions,
			Analytics:    app.Analytics,
			Credentials:  app.Credentials,
			Advisor:      app.Advisor,
			Sheet: func(ctx context.Context) (sheets.Writer, error) {
				return factory.Sheet(ctx, cfg)
			},
		}, nil
	}

	err := commands.NewRootCommand(open).ExecuteContext(context.Background())
	if app != nil {
		if cerr := app.Close(); cerr != nil {
			logger.Warn("Failed to release resources", log.FieldError, cerr)
		}
	}
	if err != nil {
		os.Exit(1)
	}
}
