package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"koafrail/internal/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "GIN_MODE", "MODEL_FILE", "DATABASE_URL",
		"DB_MAX_CONNS", "DB_CONN_LIFETIME", "BATCH_WORKERS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Server.Port != "8080" {
		t.Errorf("Port = %s", config.Server.Port)
	}
	if config.Model.File != "" {
		t.Errorf("Model file should default to embedded artifact, got %s", config.Model.File)
	}
	if config.Database.Enabled {
		t.Error("Database should be disabled without DATABASE_URL")
	}
	if config.Batch.Workers != 8 {
		t.Errorf("Workers = %d", config.Batch.Workers)
	}
	if config.Database.ConnMaxLifetime != 30*time.Minute {
		t.Errorf("ConnMaxLifetime = %v", config.Database.ConnMaxLifetime)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://localhost/koafrail")
	t.Setenv("BATCH_WORKERS", "4")
	t.Setenv("DB_CONN_LIFETIME", "5m")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Server.Port != "9000" {
		t.Errorf("Port = %s", config.Server.Port)
	}
	if !config.Database.Enabled {
		t.Error("Database should be enabled with DATABASE_URL set")
	}
	if config.Batch.Workers != 4 {
		t.Errorf("Workers = %d", config.Batch.Workers)
	}
	if config.Database.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("ConnMaxLifetime = %v", config.Database.ConnMaxLifetime)
	}
}

func TestLoad_ModelFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("Failed to write model file: %v", err)
	}
	t.Setenv("MODEL_FILE", path)

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Model.File != path {
		t.Errorf("Model file = %s", config.Model.File)
	}
}

func TestLoad_ModelFileMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODEL_FILE", "/nonexistent/model.json")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected an error for a missing model file")
	}
	if errors.GetCode(err) != errors.CodeConfigInvalid {
		t.Errorf("Expected CONFIG_INVALID, got %s", errors.GetCode(err))
	}
}

func TestLoad_BadWorkers(t *testing.T) {
	clearEnv(t)
	t.Setenv("BATCH_WORKERS", "0")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected an error for zero workers")
	}
	if errors.GetCode(err) != errors.CodeConfigInvalid {
		t.Errorf("Expected CONFIG_INVALID, got %s", errors.GetCode(err))
	}
}
