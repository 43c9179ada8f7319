package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"waist/internal/backend"
	"waist/internal/cli"
	"waist/internal/config"
	apphttp "waist/internal/http"
	"waist/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	logger.Info("Starting waist server")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateServer)

	app, err := backend.NewFactory(logger).Build(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions:  app.Transactions,
		Analytics:     app.Analytics,
		Credentials:   app.Credentials,
		Tokens:        app.Tokens,
		Advisor:       app.Advisor,
		Metrics:       app.Metrics,
		Logger:        logger,
		RateLimit:     cfg.RateLimitPerMinute,
		SecureCookies: cfg.SecureCookies,
	})

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := app.Close(); err != nil {
			logger.Error("Failed to release resources", log.FieldError, err)
		}
	})

	logger.Info("Listening", "port", cfg.Port, "ai_enabled", app.Advisor.Enabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		_ = app.Close()
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
