// Package config resolves run configuration: built-in defaults, overridden
// by a .coderecall.yml in the repository root, overridden by environment
// variables. CLI flags layer on top of the result in cmd.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Abraxas-365/coderecall/pkg/errx"
)

// FileName is the per-repository config file.
const FileName = ".coderecall.yml"

var (
	errorRegistry = errx.NewRegistry("CONFIG")

	ErrInvalidFile = errorRegistry.Register(
		"INVALID_FILE",
		errx.TypeValidation,
		"Config file could not be parsed",
	)
)

// Config is the resolved run configuration.
type Config struct {
	// Budgets
	Headroom       float64 `yaml:"headroom"`
	SelectorTokens int     `yaml:"selector_tokens"`
	AnalyzerTokens int     `yaml:"analyzer_tokens"`
	PromptOverhead int     `yaml:"prompt_overhead"`

	// Selection loop
	MaxRounds   int    `yaml:"max_rounds"`
	MaxInFlight int    `yaml:"max_in_flight"`
	Truncation  string `yaml:"truncation"`

	// Repository scan
	FileCapBytes int64    `yaml:"file_cap_bytes"`
	AllowSecrets bool     `yaml:"allow_secrets"`
	Excludes     []string `yaml:"excludes"`

	// Overview
	TreeDepth        int `yaml:"tree_depth"`
	OverviewMaxLines int `yaml:"overview_max_lines"`

	// Oracles
	Provider      string        `yaml:"provider"`
	SelectorModel string        `yaml:"selector_model"`
	AnalyzerModel string        `yaml:"analyzer_model"`
	CallTimeout   time.Duration `yaml:"call_timeout"`
	MaxAttempts   int           `yaml:"max_attempts"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Headroom:         0.15,
		SelectorTokens:   1_000_000,
		AnalyzerTokens:   1_000_000,
		PromptOverhead:   256,
		MaxRounds:        8,
		MaxInFlight:      4,
		Truncation:       "oversized-last",
		FileCapBytes:     512 * 1024,
		AllowSecrets:     false,
		Excludes:         nil, // nil means the scanner's defaults
		TreeDepth:        4,
		OverviewMaxLines: 2000,
		Provider:         "gemini",
		SelectorModel:    "", // provider default
		AnalyzerModel:    "",
		CallTimeout:      2 * time.Minute,
		MaxAttempts:      3,
	}
}

// Load resolves configuration for a repository root.
func Load(root string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errorRegistry.NewWithCause(ErrInvalidFile, err).
				WithDetail("path", path)
		}
	} else if !os.IsNotExist(err) {
		return nil, errorRegistry.NewWithCause(ErrInvalidFile, err).
			WithDetail("path", path)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Provider = getEnv("CODERECALL_PROVIDER", c.Provider)
	c.SelectorModel = getEnv("CODERECALL_SELECTOR_MODEL", c.SelectorModel)
	c.AnalyzerModel = getEnv("CODERECALL_ANALYZER_MODEL", c.AnalyzerModel)
	c.Headroom = getEnvFloat("CODERECALL_HEADROOM", c.Headroom)
	c.SelectorTokens = getEnvInt("CODERECALL_SELECTOR_TOKENS", c.SelectorTokens)
	c.AnalyzerTokens = getEnvInt("CODERECALL_ANALYZER_TOKENS", c.AnalyzerTokens)
	c.MaxInFlight = getEnvInt("CODERECALL_MAX_IN_FLIGHT", c.MaxInFlight)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
