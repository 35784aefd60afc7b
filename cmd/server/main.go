package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/form1099/internal/config"
	"github.com/JonMunkholm/form1099/internal/core"
	_ "github.com/JonMunkholm/form1099/internal/core/forms" // Register all form types
	"github.com/JonMunkholm/form1099/internal/logging"
	"github.com/JonMunkholm/form1099/internal/store"
	"github.com/JonMunkholm/form1099/internal/web"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store", store.Backend(cfg.Database.URL),
		"rate_limit_enabled", cfg.Rate.Enabled,
		"jwt_auth", cfg.Auth.Enabled(),
	)

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Database.URL, store.Options{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		slog.Error("failed to open form store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	service := core.NewService(st, core.ServiceOptions{SummaryTTL: cfg.Cache.SummaryTTL})

	slog.Info("form types registered", "count", core.FormCount())
	for _, def := range service.FormTypes() {
		slog.Debug("form type", "type", def.Info.Type, "fields", len(def.FieldSpecs), "rules", len(def.Rules))
	}

	server := web.NewServer(cfg, service)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		st.Close()
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// loadConfig reads FORM1099_ENV_FILE when set. Otherwise a .env in the
// working directory, if any, is merged over the process environment.
func loadConfig() (*config.Config, error) {
	if path := os.Getenv("FORM1099_ENV_FILE"); path != "" {
		slog.Info("loading configuration file", "path", path)
		return config.LoadFile(path)
	}

	// Overload overwrites existing env vars
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}
	return config.Load()
}
