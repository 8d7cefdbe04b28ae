package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "visaingest.yaml")
	content := `
baseURL: https://portal.example.gov
seeds:
  - https://portal.example.gov/visas
maxDepth: 2
minDelayMs: 100
maxDelayMs: 200
honorRobots: false
threshold: 60
allowKeywords:
  - visa
  - permit
dbDir: /tmp/visaingest-test
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cf, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}

	cfg := NewConfig()
	cf.Apply(cfg)

	if cfg.BaseURL != "https://portal.example.gov" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if len(cfg.Seeds) != 1 {
		t.Errorf("Seeds = %v, want one entry", cfg.Seeds)
	}
	if cfg.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", cfg.MaxDepth)
	}
	if cfg.MinDelay != 100*time.Millisecond || cfg.MaxDelay != 200*time.Millisecond {
		t.Errorf("delays = %v/%v, want 100ms/200ms", cfg.MinDelay, cfg.MaxDelay)
	}
	if cfg.HonorRobots {
		t.Error("HonorRobots should be false after overlay")
	}
	if cfg.Threshold != 60 {
		t.Errorf("Threshold = %d, want 60", cfg.Threshold)
	}
	if len(cfg.AllowKeywords) != 2 {
		t.Errorf("AllowKeywords = %v, want two entries", cfg.AllowKeywords)
	}
	if cfg.DBDir != "/tmp/visaingest-test" {
		t.Errorf("DBDir = %q", cfg.DBDir)
	}

	// Fields the file never mentioned keep their defaults.
	if cfg.MaxPages != DefaultMaxPages {
		t.Errorf("MaxPages = %d, want default %d", cfg.MaxPages, DefaultMaxPages)
	}
	if cfg.MaxRetries != DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want default %d", cfg.MaxRetries, DefaultMaxRetries)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	t.Parallel()

	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigFileInvalidYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("baseURL: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfigFile(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "explicit.yaml")
	if err := os.WriteFile(path, []byte("maxDepth: 1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if got := FindConfigFile(path); got != path {
		t.Errorf("FindConfigFile(explicit) = %q, want %q", got, path)
	}
	if got := FindConfigFile(filepath.Join(dir, "missing.yaml")); got != "" {
		t.Errorf("FindConfigFile(missing explicit) = %q, want empty", got)
	}
}
