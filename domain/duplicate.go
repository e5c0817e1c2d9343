package domain

import (
	"context"
	"io"
	"time"
)

// SearchMode selects the duplicate search strategy
type SearchMode string

const (
	// SearchModeFast prefilters candidate pairs through the fingerprint index
	SearchModeFast SearchMode = "fast"
	// SearchModeExhaustive scores every unordered pair directly
	SearchModeExhaustive SearchMode = "exhaustive"
)

// String returns string representation of SearchMode
func (m SearchMode) String() string {
	return string(m)
}

// DuplicateRequest represents a request for duplicate detection
type DuplicateRequest struct {
	// Input parameters
	Paths           []string `json:"paths"`
	Recursive       bool     `json:"recursive"`
	IncludePatterns []string `json:"include_patterns"`
	ExcludePatterns []string `json:"exclude_patterns"`

	// Analysis configuration
	SimilarityThreshold float64 `json:"similarity_threshold"`
	HammingThreshold    int     `json:"hamming_threshold"`
	UseFastMode         bool    `json:"use_fast_mode"`
	IncludeTrivial      bool    `json:"include_trivial"`
	MinTokens           int     `json:"min_tokens"`

	// TopPercent selects the top fraction (0-100] of most similar pairs
	// instead of an explicit threshold. Zero means disabled.
	TopPercent float64 `json:"top_percent"`

	// Output configuration
	OutputFormat OutputFormat `json:"output_format"`
	OutputWriter io.Writer    `json:"-"`
	ShowDetails  bool         `json:"show_details"`

	// Configuration file
	ConfigPath string `json:"config_path"`
}

// Mode returns the search mode implied by the request flags.
func (req *DuplicateRequest) Mode() SearchMode {
	if req.UseFastMode {
		return SearchModeFast
	}
	return SearchModeExhaustive
}

// Validate validates a duplicate request
func (req *DuplicateRequest) Validate() error {
	if len(req.Paths) == 0 {
		return NewValidationError("paths cannot be empty")
	}

	if req.SimilarityThreshold < 0.0 || req.SimilarityThreshold > 1.0 {
		return NewValidationError("similarity_threshold must be between 0.0 and 1.0")
	}

	if req.HammingThreshold < 0 || req.HammingThreshold > 64 {
		return NewValidationError("hamming_threshold must be between 0 and 64")
	}

	if req.TopPercent != 0 && (req.TopPercent <= 0.0 || req.TopPercent > 100.0) {
		return NewValidationError("top_percent must be in (0, 100]")
	}

	if req.MinTokens < 0 {
		return NewValidationError("min_tokens must be >= 0")
	}

	return nil
}

// DefaultDuplicateRequest returns a default duplicate request
func DefaultDuplicateRequest() *DuplicateRequest {
	return &DuplicateRequest{
		Paths:               []string{"."},
		Recursive:           true,
		IncludePatterns:     []string{},
		ExcludePatterns:     []string{},
		SimilarityThreshold: 0.7,
		HammingThreshold:    10,
		UseFastMode:         true,
		IncludeTrivial:      false,
		MinTokens:           5,
		OutputFormat:        OutputFormatText,
		ShowDetails:         false,
	}
}

// DuplicateStatistics provides statistics about a duplicate search
type DuplicateStatistics struct {
	TotalRecords      int     `json:"total_records" yaml:"total_records"`
	FilteredRecords   int     `json:"filtered_records" yaml:"filtered_records"`
	TotalPairs        int     `json:"total_pairs" yaml:"total_pairs"`
	AverageSimilarity float64 `json:"average_similarity" yaml:"average_similarity"`
	FilesAnalyzed     int     `json:"files_analyzed" yaml:"files_analyzed"`
	IndexSize         int     `json:"index_size" yaml:"index_size"`
	IndexDepth        int     `json:"index_depth" yaml:"index_depth"`
	CacheHit          bool    `json:"cache_hit" yaml:"cache_hit"`
}

// DuplicateResponse represents the response from duplicate detection
type DuplicateResponse struct {
	Pairs      []*DuplicatePair     `json:"pairs" yaml:"pairs"`
	Statistics *DuplicateStatistics `json:"statistics" yaml:"statistics"`

	Duration    int64     `json:"duration_ms" yaml:"duration_ms"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Success     bool      `json:"success" yaml:"success"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// GraphRequest represents a request for similarity graph construction
type GraphRequest struct {
	// Input parameters
	Paths           []string `json:"paths"`
	Recursive       bool     `json:"recursive"`
	IncludePatterns []string `json:"include_patterns"`
	ExcludePatterns []string `json:"exclude_patterns"`

	// Fixed-threshold graph construction
	SimilarityThreshold float64 `json:"similarity_threshold"`

	// Adaptive threshold search; enabled when TargetEdges > 0
	TargetEdges  int     `json:"target_edges"`
	MaxEdges     int     `json:"max_edges"`
	MinThreshold float64 `json:"min_threshold"`
	MaxThreshold float64 `json:"max_threshold"`

	UseFastMode    bool `json:"use_fast_mode"`
	IncludeTrivial bool `json:"include_trivial"`
	MinTokens      int  `json:"min_tokens"`

	// Output configuration
	OutputFormat OutputFormat `json:"output_format"`
	OutputWriter io.Writer    `json:"-"`

	// Configuration file
	ConfigPath string `json:"config_path"`
}

// Validate validates a graph request
func (req *GraphRequest) Validate() error {
	if len(req.Paths) == 0 {
		return NewValidationError("paths cannot be empty")
	}

	if req.SimilarityThreshold < 0.0 || req.SimilarityThreshold > 1.0 {
		return NewValidationError("similarity_threshold must be between 0.0 and 1.0")
	}

	if req.TargetEdges < 0 {
		return NewValidationError("target_edges must be >= 0")
	}

	if req.TargetEdges > 0 {
		if req.MaxEdges < req.TargetEdges {
			return NewValidationError("max_edges must be >= target_edges")
		}
		if req.MinThreshold < 0.0 || req.MaxThreshold > 1.0 || req.MinThreshold >= req.MaxThreshold {
			return NewValidationError("threshold bounds must satisfy 0 <= min < max <= 1")
		}
	}

	return nil
}

// DefaultGraphRequest returns a default graph request
func DefaultGraphRequest() *GraphRequest {
	return &GraphRequest{
		Paths:               []string{"."},
		Recursive:           true,
		SimilarityThreshold: 0.7,
		TargetEdges:         0,
		MaxEdges:            0,
		MinThreshold:        0.3,
		MaxThreshold:        0.95,
		UseFastMode:         true,
		IncludeTrivial:      false,
		MinTokens:           5,
		OutputFormat:        OutputFormatText,
	}
}

// GraphResponse represents the response from similarity graph construction
type GraphResponse struct {
	Graph     SimilarityGraph `json:"graph" yaml:"graph"`
	Threshold float64         `json:"threshold" yaml:"threshold"`
	EdgeCount int             `json:"edge_count" yaml:"edge_count"`

	Duration    int64     `json:"duration_ms" yaml:"duration_ms"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Success     bool      `json:"success" yaml:"success"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// DuplicateService defines the interface for duplicate detection services
type DuplicateService interface {
	// FindDuplicates performs duplicate detection on the given request
	FindDuplicates(ctx context.Context, req *DuplicateRequest) (*DuplicateResponse, error)
}

// GraphService defines the interface for similarity graph services
type GraphService interface {
	// BuildGraph builds a similarity graph on the given request
	BuildGraph(ctx context.Context, req *GraphRequest) (*GraphResponse, error)
}

// StructuralExtractor extracts code units with structural token
// signatures from source files.
type StructuralExtractor interface {
	// ExtractFile parses a single source file and returns its code units
	ExtractFile(ctx context.Context, filePath string, source []byte) ([]*CodeUnit, error)
}

// RecordStore is the persistence boundary for code records.
// Implementations must be tolerant of re-saving an existing hash.
type RecordStore interface {
	// Save persists a record, replacing any record with the same content hash
	Save(ctx context.Context, record *CodeRecord) error

	// Load retrieves a record by content hash; (nil, nil) when absent
	Load(ctx context.Context, contentHash string) (*CodeRecord, error)

	// LoadAll retrieves every stored record
	LoadAll(ctx context.Context) ([]*CodeRecord, error)

	// Delete removes a record by content hash
	Delete(ctx context.Context, contentHash string) error

	// Close releases any resources held by the store
	Close() error
}

// FileReader abstracts source file collection and reading
type FileReader interface {
	// CollectPythonFiles recursively finds Python files in the given paths
	CollectPythonFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error)

	// ReadFile reads the content of a file
	ReadFile(path string) ([]byte, error)
}

// OutputFormatter formats analysis responses for a destination writer
type OutputFormatter interface {
	// FormatDuplicateResponse writes a duplicate response in the given format
	FormatDuplicateResponse(response *DuplicateResponse, format OutputFormat, writer io.Writer) error

	// FormatGraphResponse writes a graph response in the given format
	FormatGraphResponse(response *GraphResponse, format OutputFormat, writer io.Writer) error
}
