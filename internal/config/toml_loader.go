package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DupscanTomlConfig represents the structure of .dupscan.toml
type DupscanTomlConfig struct {
	Analysis  TomlAnalysisConfig  `toml:"analysis"`
	Filtering TomlFilteringConfig `toml:"filtering"`
	Input     TomlInputConfig     `toml:"input"`
	Output    TomlOutputConfig    `toml:"output"`
	Storage   TomlStorageConfig   `toml:"storage"`
}

// pyprojectToml represents the slice of pyproject.toml we care about:
// the [tool.dupscan] table.
type pyprojectToml struct {
	Tool struct {
		Dupscan DupscanTomlConfig `toml:"dupscan"`
	} `toml:"tool"`
}

type TomlAnalysisConfig struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	HammingThreshold    int     `toml:"hamming_threshold"`
	UseFastMode         *bool   `toml:"use_fast_mode"` // pointer to detect unset
	TopPercent          float64 `toml:"top_percent"`
}

type TomlFilteringConfig struct {
	MinTokens      int   `toml:"min_tokens"`
	IncludeTrivial *bool `toml:"include_trivial"` // pointer to detect unset
}

type TomlInputConfig struct {
	Paths           []string `toml:"paths"`
	Recursive       *bool    `toml:"recursive"` // pointer to detect unset
	IncludePatterns []string `toml:"include_patterns"`
	ExcludePatterns []string `toml:"exclude_patterns"`
}

type TomlOutputConfig struct {
	Format      string `toml:"format"`
	ShowDetails *bool  `toml:"show_details"` // pointer to detect unset
}

type TomlStorageConfig struct {
	DatabasePath string `toml:"database_path"`
}

// TomlConfigLoader handles TOML-only configuration loading
type TomlConfigLoader struct{}

// NewTomlConfigLoader creates a new TOML configuration loader
func NewTomlConfigLoader() *TomlConfigLoader {
	return &TomlConfigLoader{}
}

// LoadConfig loads configuration from TOML files with ruff-like priority:
// 1. .dupscan.toml (dedicated config file)
// 2. pyproject.toml (with [tool.dupscan] section)
// 3. defaults
func (l *TomlConfigLoader) LoadConfig(startDir string) (*Config, error) {
	if config, err := l.loadFromDupscanToml(startDir); err == nil {
		return config, nil
	}

	if config, err := l.loadFromPyprojectToml(startDir); err == nil {
		return config, nil
	}

	return DefaultConfig(), nil
}

// GetSupportedConfigFiles returns the supported TOML config files in
// order of precedence
func (l *TomlConfigLoader) GetSupportedConfigFiles() []string {
	return []string{
		".dupscan.toml",  // dedicated config file (highest priority)
		"pyproject.toml", // with [tool.dupscan] section
	}
}

func (l *TomlConfigLoader) loadFromDupscanToml(startDir string) (*Config, error) {
	configPath := findUp(startDir, ".dupscan.toml")
	if configPath == "" {
		return nil, os.ErrNotExist
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var parsed DupscanTomlConfig
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}

	defaults := DefaultConfig()
	mergeTomlConfig(defaults, &parsed)
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	return defaults, nil
}

func (l *TomlConfigLoader) loadFromPyprojectToml(startDir string) (*Config, error) {
	configPath := findUp(startDir, "pyproject.toml")
	if configPath == "" {
		return nil, os.ErrNotExist
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var parsed pyprojectToml
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}

	defaults := DefaultConfig()
	mergeTomlConfig(defaults, &parsed.Tool.Dupscan)
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	return defaults, nil
}

// mergeTomlConfig merges parsed TOML values into defaults. Zero numeric
// values and nil boolean pointers mean unset and keep the default.
func mergeTomlConfig(defaults *Config, parsed *DupscanTomlConfig) {
	if parsed.Analysis.SimilarityThreshold > 0 {
		defaults.Analysis.SimilarityThreshold = parsed.Analysis.SimilarityThreshold
	}
	if parsed.Analysis.HammingThreshold > 0 {
		defaults.Analysis.HammingThreshold = parsed.Analysis.HammingThreshold
	}
	if parsed.Analysis.UseFastMode != nil {
		defaults.Analysis.UseFastMode = *parsed.Analysis.UseFastMode
	}
	if parsed.Analysis.TopPercent > 0 {
		defaults.Analysis.TopPercent = parsed.Analysis.TopPercent
	}

	if parsed.Filtering.MinTokens > 0 {
		defaults.Filtering.MinTokens = parsed.Filtering.MinTokens
	}
	if parsed.Filtering.IncludeTrivial != nil {
		defaults.Filtering.IncludeTrivial = *parsed.Filtering.IncludeTrivial
	}

	if len(parsed.Input.Paths) > 0 {
		defaults.Input.Paths = parsed.Input.Paths
	}
	if parsed.Input.Recursive != nil {
		defaults.Input.Recursive = *parsed.Input.Recursive
	}
	if len(parsed.Input.IncludePatterns) > 0 {
		defaults.Input.IncludePatterns = parsed.Input.IncludePatterns
	}
	if len(parsed.Input.ExcludePatterns) > 0 {
		defaults.Input.ExcludePatterns = parsed.Input.ExcludePatterns
	}

	if parsed.Output.Format != "" {
		defaults.Output.Format = parsed.Output.Format
	}
	if parsed.Output.ShowDetails != nil {
		defaults.Output.ShowDetails = *parsed.Output.ShowDetails
	}

	if parsed.Storage.DatabasePath != "" {
		defaults.Storage.DatabasePath = parsed.Storage.DatabasePath
	}
}
