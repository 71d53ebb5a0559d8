package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vindicatenyc/vindicate-app/internal/faults"
	"github.com/vindicatenyc/vindicate-app/internal/standards"
)

// FileName is the conventional config file name in a case directory.
const FileName = "vindicate.yaml"

// Config represents the top-level vindicate.yaml configuration.
type Config struct {
	Standards  StandardsConfig  `yaml:"standards"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Extraction ExtractionConfig `yaml:"extraction"`
	AI         AIConfig         `yaml:"ai"`
	Budget     BudgetConfig     `yaml:"budget"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// StandardsConfig pins the standards release.
type StandardsConfig struct {
	Version string `yaml:"version"`
}

// ThresholdsConfig holds eligibility and review thresholds.
type ThresholdsConfig struct {
	CNCEquityExemption    decimal.Decimal `yaml:"cnc_equity_exemption"`
	LowConfidence         float64         `yaml:"low_confidence"`
	DedupeAcrossDocuments bool            `yaml:"dedupe_across_documents"`
}

// ExtractionConfig controls the statement extraction pipeline.
type ExtractionConfig struct {
	Workers int `yaml:"workers"`
	// BracketOverridesCredit treats a parenthesized amount as a debit even
	// when a credit keyword matches.
	BracketOverridesCredit bool `yaml:"bracket_overrides_credit"`
	// TextFallbackOnMalformedTable lets a page whose tables yield no rows
	// also try line-pattern parsing.
	TextFallbackOnMalformedTable bool `yaml:"text_fallback_on_malformed_table"`
}

// AIConfig controls the optional model-based extractor.
type AIConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Model            string        `yaml:"model"`
	Timeout          time.Duration `yaml:"timeout"`
	APIKeyEnv        string        `yaml:"api_key_env"`
	MaxDocumentChars int           `yaml:"max_document_chars"`
}

// BudgetConfig controls budget summaries.
type BudgetConfig struct {
	TopCategories int `yaml:"top_categories"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// Load reads a vindicate.yaml file from disk. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the current contractual policies.
func Default() *Config {
	return &Config{
		Standards: StandardsConfig{
			Version: standards.DefaultVersion,
		},
		Thresholds: ThresholdsConfig{
			CNCEquityExemption:    decimal.NewFromInt(1000),
			LowConfidence:         0.70,
			DedupeAcrossDocuments: true,
		},
		Extraction: ExtractionConfig{
			Workers:                      4,
			BracketOverridesCredit:       true,
			TextFallbackOnMalformedTable: false,
		},
		AI: AIConfig{
			Enabled:          false,
			Model:            "gemini-2.5-flash",
			Timeout:          60 * time.Second,
			APIKeyEnv:        "GEMINI_API_KEY",
			MaxDocumentChars: 50000,
		},
		Budget: BudgetConfig{
			TopCategories: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	const component = "config"
	switch {
	case c.Standards.Version == "":
		return faults.Configf(component, "standards.version", "must not be empty")
	case c.Thresholds.CNCEquityExemption.IsNegative():
		return faults.Configf(component, "thresholds.cnc_equity_exemption", "must not be negative")
	case c.Thresholds.LowConfidence < 0 || c.Thresholds.LowConfidence > 1:
		return faults.Configf(component, "thresholds.low_confidence", "must be between 0 and 1, got %v", c.Thresholds.LowConfidence)
	case c.Extraction.Workers < 1:
		return faults.Configf(component, "extraction.workers", "must be at least 1, got %d", c.Extraction.Workers)
	case c.AI.Enabled && c.AI.Timeout <= 0:
		return faults.Configf(component, "ai.timeout", "must be positive when ai is enabled")
	case c.AI.Enabled && c.AI.Model == "":
		return faults.Configf(component, "ai.model", "must be set when ai is enabled")
	case c.Budget.TopCategories < 0:
		return faults.Configf(component, "budget.top_categories", "must not be negative")
	}
	return nil
}
