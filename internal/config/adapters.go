package config

import (
	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/constants"
)

// ToDuplicateRequest builds a duplicate request carrying the configured
// values. Callers overlay command-line flags on top.
func (c *Config) ToDuplicateRequest() *domain.DuplicateRequest {
	return &domain.DuplicateRequest{
		Paths:               c.Input.Paths,
		Recursive:           c.Input.Recursive,
		IncludePatterns:     c.Input.IncludePatterns,
		ExcludePatterns:     c.Input.ExcludePatterns,
		SimilarityThreshold: c.Analysis.SimilarityThreshold,
		HammingThreshold:    c.Analysis.HammingThreshold,
		UseFastMode:         c.Analysis.UseFastMode,
		IncludeTrivial:      c.Filtering.IncludeTrivial,
		MinTokens:           c.Filtering.MinTokens,
		TopPercent:          c.Analysis.TopPercent,
		OutputFormat:        domain.OutputFormat(c.Output.Format),
		ShowDetails:         c.Output.ShowDetails,
	}
}

// ToGraphRequest builds a graph request carrying the configured values.
func (c *Config) ToGraphRequest() *domain.GraphRequest {
	return &domain.GraphRequest{
		Paths:               c.Input.Paths,
		Recursive:           c.Input.Recursive,
		IncludePatterns:     c.Input.IncludePatterns,
		ExcludePatterns:     c.Input.ExcludePatterns,
		SimilarityThreshold: c.Analysis.SimilarityThreshold,
		MinThreshold:        constants.DefaultMinThreshold,
		MaxThreshold:        constants.DefaultMaxThreshold,
		UseFastMode:         c.Analysis.UseFastMode,
		IncludeTrivial:      c.Filtering.IncludeTrivial,
		MinTokens:           c.Filtering.MinTokens,
		OutputFormat:        domain.OutputFormat(c.Output.Format),
	}
}
