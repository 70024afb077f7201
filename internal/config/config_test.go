package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "shotbox.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
vault_root: /tmp/vault
provider: openai
confidence_threshold: 0.8
research:
  max_results: 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.VaultRoot != "/tmp/vault" {
		t.Errorf("vault_root = %q", cfg.VaultRoot)
	}
	if cfg.Provider != "openai" {
		t.Errorf("provider = %q", cfg.Provider)
	}
	if cfg.ConfidenceThreshold != 0.8 {
		t.Errorf("confidence_threshold = %v", cfg.ConfidenceThreshold)
	}
	if cfg.Research.MaxResults != 3 {
		t.Errorf("max_results = %d", cfg.Research.MaxResults)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "vault_root: /tmp/vault\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("default provider = %q, want anthropic", cfg.Provider)
	}
	if cfg.ConfidenceThreshold != DefaultConfidenceThreshold {
		t.Errorf("default confidence_threshold = %v", cfg.ConfidenceThreshold)
	}
	if cfg.Research.MaxResults != DefaultMaxResults {
		t.Errorf("default max_results = %d", cfg.Research.MaxResults)
	}
	if cfg.Research.RelevanceThreshold != DefaultRelevanceThreshold {
		t.Errorf("default relevance_threshold = %v", cfg.Research.RelevanceThreshold)
	}
	if !cfg.Research.EnabledOrDefault() {
		t.Error("research should default to enabled")
	}
	if cfg.Folders.Resources != "03-Resources" {
		t.Errorf("default resources folder = %q", cfg.Folders.Resources)
	}
}

func TestLoadResearchDisabled(t *testing.T) {
	path := writeConfig(t, `
vault_root: /tmp/vault
research:
  enabled: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Research.EnabledOrDefault() {
		t.Error("research should be disabled when enabled: false")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadOrDefaultNoFile(t *testing.T) {
	// Run from an empty directory so no shotbox.yaml is picked up.
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(oldWD); err != nil {
			t.Fatal(err)
		}
	})
	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("provider = %q", cfg.Provider)
	}
	if !filepath.IsAbs(cfg.VaultRoot) {
		t.Errorf("vault_root should be absolute, got %q", cfg.VaultRoot)
	}
}
