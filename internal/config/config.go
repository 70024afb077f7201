// Package config loads the shotbox configuration file and applies defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default thresholds for routing and research filtering.
const (
	DefaultConfidenceThreshold = 0.7
	DefaultRelevanceThreshold  = 0.6
	DefaultMaxResults          = 5
)

// Config holds all configuration for the application.
type Config struct {
	Debug               bool           `yaml:"debug"`
	VaultRoot           string         `yaml:"vault_root"`
	WatchDir            string         `yaml:"watch_dir"`
	Provider            string         `yaml:"provider"`
	ConfidenceThreshold float64        `yaml:"confidence_threshold"`
	Research            ResearchConfig `yaml:"research"`
	Folders             FoldersConfig  `yaml:"folders"`
}

// ResearchConfig holds enrichment settings.
type ResearchConfig struct {
	Enabled            *bool   `yaml:"enabled"`
	MaxResults         int     `yaml:"max_results"`
	RelevanceThreshold float64 `yaml:"relevance_threshold"`
}

// EnabledOrDefault returns whether enrichment runs; defaults to true when unset.
func (r *ResearchConfig) EnabledOrDefault() bool {
	if r.Enabled != nil {
		return *r.Enabled
	}
	return true
}

// FoldersConfig names the PARA folders under the vault root.
type FoldersConfig struct {
	Inbox     string `yaml:"inbox"`
	Projects  string `yaml:"projects"`
	Areas     string `yaml:"areas"`
	Resources string `yaml:"resources"`
	Archives  string `yaml:"archives"`
}

// Load reads and parses the config file at path, applies defaults, and
// expands paths. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	cfg.VaultRoot = expandPath(cfg.VaultRoot)
	if cfg.WatchDir != "" {
		cfg.WatchDir = expandPath(cfg.WatchDir)
	}

	return &cfg, nil
}

// LoadOrDefault loads the config at path, or, when path is empty, the first
// of ./shotbox.yaml and ~/.shotbox/config.yaml that exists. When no file is
// found it returns the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	candidates := []string{"shotbox.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".shotbox", "config.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return Load(c)
		}
	}
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.VaultRoot = expandPath(cfg.VaultRoot)
	return cfg, nil
}

// ApplyDefaults fills in zero-valued fields.
func ApplyDefaults(cfg *Config) {
	if cfg.VaultRoot == "" {
		cfg.VaultRoot = "~/vault"
	}
	if cfg.Provider == "" {
		cfg.Provider = "anthropic"
	}
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.Research.MaxResults == 0 {
		cfg.Research.MaxResults = DefaultMaxResults
	}
	if cfg.Research.RelevanceThreshold == 0 {
		cfg.Research.RelevanceThreshold = DefaultRelevanceThreshold
	}
	if cfg.Folders.Inbox == "" {
		cfg.Folders.Inbox = "00-Inbox"
	}
	if cfg.Folders.Projects == "" {
		cfg.Folders.Projects = "01-Projects"
	}
	if cfg.Folders.Areas == "" {
		cfg.Folders.Areas = "02-Areas"
	}
	if cfg.Folders.Resources == "" {
		cfg.Folders.Resources = "03-Resources"
	}
	if cfg.Folders.Archives == "" {
		cfg.Folders.Archives = "04-Archives"
	}
}

// expandPath converts a path to absolute, resolving a leading "~".
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
		}
	}
	if filepath.IsAbs(path) {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
