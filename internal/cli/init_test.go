package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"despesas/internal/backend"
	"despesas/internal/config"
)

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, "test")
	if logger.Component() != "test" {
		t.Fatalf("component = %q", logger.Component())
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug level not enabled")
	}

	logger = SetupLogger(nil, "test")
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("default level should be info")
	}
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "8081")
	if _, err := LoadAndValidateConfig(); err != nil {
		t.Fatalf("LoadAndValidateConfig: %v", err)
	}

	t.Setenv("PORT", "not-a-port")
	if _, err := LoadAndValidateConfig(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestInitBackend(t *testing.T) {
	logger := SetupLogger(nil, "test")
	cfg := &config.Config{DataBackend: config.BackendSQLite, SQLiteDBPath: filepath.Join(t.TempDir(), "db", "despesas.db")}

	res, err := InitBackend(context.Background(), logger, cfg)
	if err != nil {
		t.Fatalf("InitBackend: %v", err)
	}
	defer res.Close()
	if res.Type != backend.SQLiteBackend {
		t.Fatalf("type = %s", res.Type)
	}
	if err := res.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if _, err := InitBackend(context.Background(), logger, &config.Config{DataBackend: "nope"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
