package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediasort/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Mode != "copy" {
		t.Errorf("default mode = %q", cfg.Mode)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("file should not exist")
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Mode != "copy" || !cfg.CompareContent || cfg.CompareChunkKiB != 64 {
		t.Errorf("defaults not applied: %+v", cfg.Transfer)
	}
	if cfg.HistoryLimit != 10 || cfg.CheckpointEvery != 10 {
		t.Errorf("defaults not applied: history=%d checkpoint=%d", cfg.HistoryLimit, cfg.CheckpointEvery)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := strings.Join([]string{
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		`mode = "MOVE"`,
		`compare_content = false`,
		`compare_chunk_kib = 0`,
		`history_limit = 5`,
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Mode != "move" {
		t.Errorf("mode = %q, want move", cfg.Mode)
	}
	if cfg.CompareContent {
		t.Error("compare_content should be false")
	}
	if cfg.CompareChunkKiB != 64 {
		t.Errorf("zero chunk size should fall back to default, got %d", cfg.CompareChunkKiB)
	}
	if cfg.HistoryLimit != 5 {
		t.Errorf("history_limit = %d, want 5", cfg.HistoryLimit)
	}
}

func TestLoadRejectsBadMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`mode = "sync"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unsupported mode")
	}
}

func TestCreateSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.LogDir = filepath.Join(dir, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, d := range []string{cfg.DataDir, cfg.LogDir} {
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			t.Errorf("directory %s missing", d)
		}
	}
}
