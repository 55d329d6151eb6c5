package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"procurement-backoffice/internal/adapters/cli"
	"procurement-backoffice/internal/app"
	"procurement-backoffice/internal/config"
	"procurement-backoffice/internal/core"
	"procurement-backoffice/internal/db"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg)
	ctx := context.Background()

	profiles, err := config.LoadProfiles(cfg.ProfilesFile)
	if err != nil {
		logger.WithError(err).Fatal("load document profiles")
	}

	// calc and schema work without a database.
	var store core.DocumentStore
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil && !errors.Is(err, db.ErrNoDatabaseURL) {
		logger.WithError(err).Fatal("Unable to connect to database")
	}
	if pool != nil {
		defer pool.Close()
		store = core.NewDocumentStore(pool, core.NewSanitizer())
	}

	svc := app.NewAppService(store, profiles, logger)
	if err := cli.Run(ctx, svc, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if pool != nil {
			pool.Close()
		}
		os.Exit(1)
	}
}
