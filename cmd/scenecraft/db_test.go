package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"scenecraft/internal/config"
)

func TestParseParamPairs(t *testing.T) {
	params, err := parseParamPairs([]string{"1=tavern-night", " 2 = 3 ", ""})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if params["1"] != "tavern-night" || params["2"] != 3 || len(params) != 2 {
		t.Fatalf("unexpected params: %#v", params)
	}

	for _, bad := range []string{"novalue", "=x"} {
		if _, err := parseParamPairs([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestOpenDB(t *testing.T) {
	ctx := context.Background()

	cfg := &config.ProjectConfig{Database: config.DatabaseConfig{DSN: "sqlite://:memory:"}}
	db, err := openDB(ctx, cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close(ctx)

	cfg.Database.DSN = "mysql://localhost/scenes"
	if _, err := openDB(ctx, cfg); err == nil {
		t.Fatalf("expected error for unsupported dsn")
	}
}

func TestOpenSession(t *testing.T) {
	ctx := context.Background()
	cfg := &config.ProjectConfig{
		Chat:     "tavern-night",
		Database: config.DatabaseConfig{DSN: "sqlite://:memory:"},
	}
	sess, db, err := openSession(ctx, cfg)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	defer db.Close(ctx)
	if sess.ChatID() != "tavern-night" || sess.LastTurn() != -1 {
		t.Fatalf("unexpected session: chat=%s last=%d", sess.ChatID(), sess.LastTurn())
	}
}

func TestInitWritesLoadableConfig(t *testing.T) {
	dir := t.TempDir()
	previous := configPath
	configPath = filepath.Join(dir, "scenecraft.yaml")
	t.Cleanup(func() { configPath = previous })

	if err := runInit("tavern", "night: one", "sqlite://:memory:"); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		t.Fatalf("load scaffolded config: %v", err)
	}
	if cfg.Database.DSN != "sqlite://:memory:" || cfg.Chat != "night: one" {
		t.Fatalf("dsn = %q, chat = %q", cfg.Database.DSN, cfg.Chat)
	}
	if _, ok := cfg.StepStrategy("outfits"); !ok {
		t.Fatalf("scaffolded steps missing")
	}
	if info, err := os.Stat(filepath.Join(dir, "events")); err != nil || !info.IsDir() {
		t.Fatalf("events directory not created: %v", err)
	}
	if err := runInit("tavern", "main", "sqlite://:memory:"); err == nil {
		t.Fatalf("expected error when config already exists")
	}
}
