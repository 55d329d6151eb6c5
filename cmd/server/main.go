package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webAdapter "procurement-backoffice/internal/adapters/web"
	"procurement-backoffice/internal/app"
	"procurement-backoffice/internal/config"
	"procurement-backoffice/internal/core"
	"procurement-backoffice/internal/db"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profiles, err := config.LoadProfiles(cfg.ProfilesFile)
	if err != nil {
		logger.WithError(err).Fatal("load document profiles")
	}

	// Without a database the server still answers stateless calculations.
	var store core.DocumentStore
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	switch {
	case errors.Is(err, db.ErrNoDatabaseURL):
		logger.Warn("DATABASE_URL is not set; document endpoints are disabled")
	case err != nil:
		logger.WithError(err).Fatal("database")
	default:
		defer pool.Close()
		store = core.NewDocumentStore(pool, core.NewSanitizer())
	}

	svc := app.NewAppService(store, profiles, logger)
	handler := webAdapter.NewHandler(svc, logger, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.WithField("port", cfg.Port).Info("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("server")
	}
	logger.Info("server stopped")
}
