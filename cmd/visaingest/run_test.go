package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dohadev/visaingest/internal/config"
)

// buildConfigFromArgs parses args on a fresh run command and returns
// the resulting configuration without executing the ingestion.
func buildConfigFromArgs(t *testing.T, args []string) (*config.Config, error) {
	t.Helper()
	cmd := NewRunCmd()
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatal(err)
	}
	return buildConfig(cmd)
}

func TestBuildConfigDefaults(t *testing.T) {
	cfg, err := buildConfigFromArgs(t, nil)
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}
	if cfg.MaxDepth != config.DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want default %d", cfg.MaxDepth, config.DefaultMaxDepth)
	}
	if cfg.Threshold != config.DefaultThreshold {
		t.Errorf("Threshold = %d, want default %d", cfg.Threshold, config.DefaultThreshold)
	}
	if !cfg.HonorRobots {
		t.Error("robots.txt should be honored by default")
	}
}

func TestBuildConfigFlagOverrides(t *testing.T) {
	cfg, err := buildConfigFromArgs(t, []string{
		"--base-url", "https://portal.example.gov",
		"--seed", "https://portal.example.gov/visas",
		"--max-depth", "1",
		"--min-delay", "2s",
		"--threshold", "60",
		"--no-robots",
	})
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}

	if cfg.BaseURL != "https://portal.example.gov" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if len(cfg.Seeds) != 1 || cfg.Seeds[0] != "https://portal.example.gov/visas" {
		t.Errorf("Seeds = %v", cfg.Seeds)
	}
	if cfg.MaxDepth != 1 {
		t.Errorf("MaxDepth = %d, want 1", cfg.MaxDepth)
	}
	if cfg.MinDelay != 2*time.Second {
		t.Errorf("MinDelay = %v, want 2s", cfg.MinDelay)
	}
	if cfg.Threshold != 60 {
		t.Errorf("Threshold = %d, want 60", cfg.Threshold)
	}
	if cfg.HonorRobots {
		t.Error("--no-robots should disable robots.txt")
	}
}

func TestBuildConfigFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	content := `baseURL: https://portal.example.gov
seeds:
  - https://portal.example.gov/visas
maxDepth: 4
threshold: 55
minDelayMs: 250
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := buildConfigFromArgs(t, []string{"-c", path})
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}
	if cfg.BaseURL != "https://portal.example.gov" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.MaxDepth != 4 {
		t.Errorf("MaxDepth = %d, want 4", cfg.MaxDepth)
	}
	if cfg.Threshold != 55 {
		t.Errorf("Threshold = %d, want 55", cfg.Threshold)
	}
	if cfg.MinDelay != 250*time.Millisecond {
		t.Errorf("MinDelay = %v, want 250ms", cfg.MinDelay)
	}
}

func TestBuildConfigFlagBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	if err := os.WriteFile(path, []byte("threshold: 55\nmaxDepth: 4\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := buildConfigFromArgs(t, []string{"-c", path, "--threshold", "70"})
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}
	if cfg.Threshold != 70 {
		t.Errorf("Threshold = %d, explicit flag should win over the file", cfg.Threshold)
	}
	if cfg.MaxDepth != 4 {
		t.Errorf("MaxDepth = %d, file value should survive unset flags", cfg.MaxDepth)
	}
}

func TestBuildConfigMissingExplicitFile(t *testing.T) {
	_, err := buildConfigFromArgs(t, []string{"-c", filepath.Join(t.TempDir(), "absent.yaml")})
	if err == nil {
		t.Fatal("an explicitly named missing config file must be an error")
	}
}

func TestBuildConfigInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	if err := os.WriteFile(path, []byte("threshold: [not an int\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := buildConfigFromArgs(t, []string{"-c", path}); err == nil {
		t.Fatal("malformed YAML must be an error")
	}
}
