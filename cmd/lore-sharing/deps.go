package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ersonp/lore-sharing/internal/infrastructure/config"
	"github.com/ersonp/lore-sharing/internal/infrastructure/relationaldb/sqlite"
)

// Deps holds the dependencies commands run against.
type Deps struct {
	Config *config.Config
	Log    *slog.Logger
	DB     *sqlite.Repository
}

// withDeps loads config and builds dependencies, then calls the provided
// function. It handles cleanup automatically.
func withDeps(fn func(*Deps) error) error {
	cfg, err := config.Load(globalConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer db.Close()

	return fn(&Deps{
		Config: cfg,
		Log:    log,
		DB:     db,
	})
}
