package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"tourvisto/internal/catalog"
	"tourvisto/internal/httpapi"
	"tourvisto/internal/nav"
	"tourvisto/internal/tripform"
	"tourvisto/pkg/config"
	"tourvisto/pkg/db"
	"tourvisto/pkg/identity"
	"tourvisto/pkg/restcountries"
	"tourvisto/pkg/tripapi"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Auth.SessionSecret == "" {
		fatal(logger, "SESSION_SECRET is required", nil)
	}

	options, err := tripform.LoadOptionSet(cfg.TripOptionsPath)
	if err != nil {
		fatal(logger, "load trip options", err)
	}
	sidebar, err := nav.LoadSidebar(cfg.SidebarPath)
	if err != nil {
		fatal(logger, "load sidebar", err)
	}

	var pool *pgxpool.Pool
	if cfg.HasDatabase() {
		pool, err = db.Open(ctx, cfg)
		if err != nil {
			fatal(logger, "db open", err)
		}
		defer pool.Close()

		if cfg.MigrationsPath != "" {
			if err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
				fatal(logger, "migrate", err)
			}
		}
	} else {
		logger.Warn("no database configured, trip attempt log disabled")
	}

	loader := catalog.NewLoader(
		restcountries.NewClient(cfg.Countries.SourceURL, cfg.Countries.Timeout),
		catalog.LoaderConfig{
			TTL:         cfg.Countries.TTL,
			FallbackCSV: cfg.Countries.FallbackCSV,
			Logger:      logger.With("component", "catalog"),
		},
	)
	// Warm the catalog so the first page view does not wait on the source.
	go loader.Load(ctx)

	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:     cfg,
		Logger:  logger,
		DB:      pool,
		Catalog: loader,
		Options: options,
		Sidebar: sidebar,
		Creator: tripapi.NewClient(cfg.TripAPI.BaseURL, cfg.TripAPI.SigningSecret, cfg.TripAPI.Timeout),
		Accounts: identity.Client{
			HTTPClient: &http.Client{Timeout: 10 * time.Second},
			Endpoint:   cfg.Auth.Endpoint,
			ProjectID:  cfg.Auth.ProjectID,
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "http serve", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	opts.Level = slog.LevelDebug
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
