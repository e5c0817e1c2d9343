package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/analyzer"
	"github.com/ludo-technologies/dupscan/internal/config"
	"github.com/ludo-technologies/dupscan/internal/extractor"
	"github.com/ludo-technologies/dupscan/internal/store"
	"github.com/ludo-technologies/dupscan/service"
)

// ScanCommand handles the duplicate detection CLI command
type ScanCommand struct {
	// Input parameters
	recursive       bool
	configFile      string
	includePatterns []string
	excludePatterns []string

	// Analysis configuration
	similarityThreshold float64
	hammingThreshold    int
	exhaustive          bool
	includeTrivial      bool
	minTokens           int
	topPercent          float64

	// Output format flags (only one should be true)
	json bool
	yaml bool

	// Output options
	showDetails bool

	// Storage
	dbPath string
}

// NewScanCommand creates a new scan command
func NewScanCommand() *ScanCommand {
	return &ScanCommand{
		recursive:           true,
		similarityThreshold: 0.7,
		hammingThreshold:    10,
		exhaustive:          false,
		includeTrivial:      false,
		minTokens:           5,
		topPercent:          0,
	}
}

// CreateCobraCommand creates the Cobra command for duplicate detection
func (c *ScanCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Find near-duplicate code using SimHash fingerprints",
		Long: `Find near-duplicate Python code units using SimHash fingerprints.

Functions, classes and module-level code are tokenized into structural
token streams, fingerprinted, and compared with an exact weighted
similarity score. Identifier names never affect the result, so renamed
copies are still found.

Examples:
  # Scan the current directory
  dupscan scan .

  # Require a higher similarity
  dupscan scan --similarity-threshold 0.9 src/

  # Score every pair instead of using the fingerprint index
  dupscan scan --exhaustive src/

  # Report the top 5% most similar pairs regardless of threshold
  dupscan scan --top-percent 5 src/

  # Output results as JSON
  dupscan scan --json src/ > duplicates.json`,
		RunE: c.runScan,
	}

	// Input flags
	cmd.Flags().BoolVarP(&c.recursive, "recursive", "r", c.recursive,
		"Recursively analyze directories")
	cmd.Flags().StringVarP(&c.configFile, "config", "c", c.configFile,
		"Path to configuration file")
	cmd.Flags().StringSliceVar(&c.includePatterns, "include", nil,
		"File patterns to include")
	cmd.Flags().StringSliceVar(&c.excludePatterns, "exclude", nil,
		"File patterns to exclude")

	// Analysis configuration flags
	cmd.Flags().Float64VarP(&c.similarityThreshold, "similarity-threshold", "s", c.similarityThreshold,
		"Minimum similarity for a duplicate pair (0.0-1.0)")
	cmd.Flags().IntVar(&c.hammingThreshold, "hamming-threshold", c.hammingThreshold,
		"Fingerprint distance bound for fast mode candidate retrieval (0-64)")
	cmd.Flags().BoolVar(&c.exhaustive, "exhaustive", c.exhaustive,
		"Score every pair instead of consulting the fingerprint index")
	cmd.Flags().BoolVar(&c.includeTrivial, "include-trivial", c.includeTrivial,
		"Include trivial and test records")
	cmd.Flags().IntVar(&c.minTokens, "min-tokens", c.minTokens,
		"Minimum token count for duplicate candidates")
	cmd.Flags().Float64Var(&c.topPercent, "top-percent", c.topPercent,
		"Report the top fraction (0-100] of most similar pairs")

	// Output flags
	cmd.Flags().BoolVar(&c.json, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&c.yaml, "yaml", false, "Output results as YAML")
	cmd.Flags().BoolVarP(&c.showDetails, "details", "d", c.showDetails,
		"Show file locations for each pair")

	// Storage flags
	cmd.Flags().StringVar(&c.dbPath, "db", c.dbPath,
		"SQLite database for persisting fingerprint records")

	_ = cmd.Flags().MarkHidden("hamming-threshold")

	return cmd
}

// runScan executes the duplicate detection command
func (c *ScanCommand) runScan(cmd *cobra.Command, args []string) error {
	request, recordStore, err := c.createScanRequest(cmd, args)
	if err != nil {
		return err
	}
	if recordStore != nil {
		defer recordStore.Close()
	}

	svc := service.NewDuplicateService(
		service.NewFileReader(),
		extractor.New(),
		analyzer.NewEngine(recordStore),
		service.NewProgressManager(),
	)

	response, err := svc.FindDuplicates(context.Background(), request)
	if err != nil {
		return fmt.Errorf("duplicate detection failed: %w", err)
	}

	formatter := service.NewOutputFormatter(request.ShowDetails)
	return formatter.FormatDuplicateResponse(response, request.OutputFormat, os.Stdout)
}

// createScanRequest builds the request from configuration with CLI
// flags layered on top.
func (c *ScanCommand) createScanRequest(cmd *cobra.Command, paths []string) (*domain.DuplicateRequest, domain.RecordStore, error) {
	cfg, err := config.LoadConfig(c.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	request := cfg.ToDuplicateRequest()
	if len(paths) > 0 {
		request.Paths = paths
	}
	request.ConfigPath = c.configFile

	explicit := explicitFlags(cmd)
	if explicit["recursive"] {
		request.Recursive = c.recursive
	}
	if explicit["include"] {
		request.IncludePatterns = c.includePatterns
	}
	if explicit["exclude"] {
		request.ExcludePatterns = c.excludePatterns
	}
	if explicit["similarity-threshold"] {
		request.SimilarityThreshold = c.similarityThreshold
	}
	if explicit["hamming-threshold"] {
		request.HammingThreshold = c.hammingThreshold
	}
	if explicit["exhaustive"] {
		request.UseFastMode = !c.exhaustive
	}
	if explicit["include-trivial"] {
		request.IncludeTrivial = c.includeTrivial
	}
	if explicit["min-tokens"] {
		request.MinTokens = c.minTokens
	}
	if explicit["top-percent"] {
		request.TopPercent = c.topPercent
	}
	if explicit["details"] {
		request.ShowDetails = c.showDetails
	}
	request.OutputFormat = determineOutputFormat(request.OutputFormat, c.json, c.yaml)

	if err := request.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid request: %w", err)
	}

	recordStore, err := openRecordStore(explicit, c.dbPath, cfg.Storage.DatabasePath)
	if err != nil {
		return nil, nil, err
	}

	return request, recordStore, nil
}

// determineOutputFormat resolves the format flags against the
// configured default. The last explicit flag wins.
func determineOutputFormat(configured domain.OutputFormat, json, yaml bool) domain.OutputFormat {
	switch {
	case json:
		return domain.OutputFormatJSON
	case yaml:
		return domain.OutputFormatYAML
	default:
		return configured
	}
}

// openRecordStore opens the SQLite record store when a database path is
// given on the command line or in configuration.
func openRecordStore(explicit map[string]bool, flagPath, configPath string) (domain.RecordStore, error) {
	dbPath := configPath
	if explicit["db"] {
		dbPath = flagPath
	}
	if dbPath == "" {
		return nil, nil
	}

	recordStore, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}
	return recordStore, nil
}
