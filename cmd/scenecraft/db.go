package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"scenecraft/internal/config"
	"scenecraft/internal/scene"
	"scenecraft/internal/store"
	"scenecraft/internal/store/postgres"
	"scenecraft/internal/store/sqlite"
)

func loadConfig() (*config.ProjectConfig, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}
	if chatOverride != "" {
		cfg.Chat = chatOverride
	}
	return cfg, nil
}

func openDB(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	dsn := cfg.Database.DSN
	switch {
	case sqlite.IsDSN(dsn):
		return sqlite.New(ctx, dsn)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.New(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database dsn %q: expected sqlite:// or postgres://", dsn)
	}
}

func newLogger() *log.Logger {
	return log.New(os.Stderr, "scenecraft: ", 0)
}

// openSession loads the configured chat. The caller closes the returned store.
func openSession(ctx context.Context, cfg *config.ProjectConfig) (*scene.Session, store.Store, error) {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, nil, err
	}
	sess, err := scene.Open(ctx, db, cfg.Chat, scene.OptionsFromConfig(cfg), newLogger())
	if err != nil {
		db.Close(ctx)
		return nil, nil, err
	}
	return sess, db, nil
}
