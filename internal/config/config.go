package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/ludo-technologies/dupscan/internal/constants"
)

// Config represents the main configuration structure
type Config struct {
	// Analysis holds duplicate detection configuration
	Analysis AnalysisConfig `mapstructure:"analysis" toml:"analysis" yaml:"analysis"`

	// Filtering holds record filtering configuration
	Filtering FilteringConfig `mapstructure:"filtering" toml:"filtering" yaml:"filtering"`

	// Input holds file collection configuration
	Input InputConfig `mapstructure:"input" toml:"input" yaml:"input"`

	// Output holds output formatting configuration
	Output OutputConfig `mapstructure:"output" toml:"output" yaml:"output"`

	// Storage holds record persistence configuration
	Storage StorageConfig `mapstructure:"storage" toml:"storage" yaml:"storage"`
}

// AnalysisConfig holds duplicate detection settings
type AnalysisConfig struct {
	// SimilarityThreshold is the minimum similarity for a duplicate pair
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" toml:"similarity_threshold" yaml:"similarity_threshold"`

	// HammingThreshold is the fingerprint distance bound for fast search
	HammingThreshold int `mapstructure:"hamming_threshold" toml:"hamming_threshold" yaml:"hamming_threshold"`

	// UseFastMode selects index-backed candidate generation
	UseFastMode bool `mapstructure:"use_fast_mode" toml:"use_fast_mode" yaml:"use_fast_mode"`

	// TopPercent selects the top fraction of pairs instead of a threshold.
	// Zero disables it.
	TopPercent float64 `mapstructure:"top_percent" toml:"top_percent" yaml:"top_percent"`
}

// FilteringConfig holds record filtering settings
type FilteringConfig struct {
	// MinTokens is the minimum token signature length for a record
	MinTokens int `mapstructure:"min_tokens" toml:"min_tokens" yaml:"min_tokens"`

	// IncludeTrivial keeps trivial and test records in the analysis
	IncludeTrivial bool `mapstructure:"include_trivial" toml:"include_trivial" yaml:"include_trivial"`
}

// InputConfig holds file collection settings
type InputConfig struct {
	Paths           []string `mapstructure:"paths" toml:"paths" yaml:"paths"`
	Recursive       bool     `mapstructure:"recursive" toml:"recursive" yaml:"recursive"`
	IncludePatterns []string `mapstructure:"include_patterns" toml:"include_patterns" yaml:"include_patterns"`
	ExcludePatterns []string `mapstructure:"exclude_patterns" toml:"exclude_patterns" yaml:"exclude_patterns"`
}

// OutputConfig holds output formatting settings
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml
	Format string `mapstructure:"format" toml:"format" yaml:"format"`

	// ShowDetails controls whether pair locations are printed
	ShowDetails bool `mapstructure:"show_details" toml:"show_details" yaml:"show_details"`
}

// StorageConfig holds record persistence settings
type StorageConfig struct {
	// DatabasePath is the SQLite database file; empty keeps the session
	// in memory only
	DatabasePath string `mapstructure:"database_path" toml:"database_path" yaml:"database_path"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			SimilarityThreshold: constants.DefaultSimilarityThreshold,
			HammingThreshold:    constants.DefaultHammingThreshold,
			UseFastMode:         true,
		},
		Filtering: FilteringConfig{
			MinTokens:      constants.DefaultMinTokens,
			IncludeTrivial: false,
		},
		Input: InputConfig{
			Paths:           []string{"."},
			Recursive:       true,
			IncludePatterns: []string{"*.py"},
			ExcludePatterns: []string{},
		},
		Output: OutputConfig{
			Format:      "text",
			ShowDetails: false,
		},
		Storage: StorageConfig{},
	}
}

// LoadConfig loads configuration with the following precedence:
// explicit path, .dupscan.toml, pyproject.toml [tool.dupscan], defaults.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		return loadFile(configPath)
	}

	if cwd, err := os.Getwd(); err == nil {
		loader := NewTomlConfigLoader()
		if config, err := loader.LoadConfig(cwd); err == nil {
			return config, nil
		}
	}

	return DefaultConfig(), nil
}

// loadFile reads one explicit config file through viper, so yaml, json
// and toml all work.
func loadFile(configPath string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Analysis.SimilarityThreshold < 0.0 || c.Analysis.SimilarityThreshold > 1.0 {
		return fmt.Errorf("analysis.similarity_threshold must be between 0.0 and 1.0, got %f", c.Analysis.SimilarityThreshold)
	}
	if c.Analysis.HammingThreshold < 0 || c.Analysis.HammingThreshold > constants.FingerprintBits {
		return fmt.Errorf("analysis.hamming_threshold must be between 0 and %d, got %d", constants.FingerprintBits, c.Analysis.HammingThreshold)
	}
	if c.Analysis.TopPercent != 0 && (c.Analysis.TopPercent <= 0.0 || c.Analysis.TopPercent > 100.0) {
		return fmt.Errorf("analysis.top_percent must be in (0, 100], got %f", c.Analysis.TopPercent)
	}
	if c.Filtering.MinTokens < 0 {
		return fmt.Errorf("filtering.min_tokens must be >= 0, got %d", c.Filtering.MinTokens)
	}
	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("output.format must be text, json or yaml, got %q", c.Output.Format)
	}
	return nil
}

// findUp walks up from startDir looking for a file name; empty when not
// found.
func findUp(startDir, name string) string {
	dir := startDir
	for {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
