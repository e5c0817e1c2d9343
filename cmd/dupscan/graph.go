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
	"github.com/ludo-technologies/dupscan/service"
)

// GraphCommand handles the similarity graph CLI command
type GraphCommand struct {
	// Input parameters
	recursive       bool
	configFile      string
	includePatterns []string
	excludePatterns []string

	// Fixed-threshold construction
	similarityThreshold float64

	// Adaptive threshold search
	targetEdges  int
	maxEdges     int
	minThreshold float64
	maxThreshold float64

	exhaustive     bool
	includeTrivial bool
	minTokens      int

	// Output format flags
	json bool
	yaml bool

	// Storage
	dbPath string
}

// NewGraphCommand creates a new graph command
func NewGraphCommand() *GraphCommand {
	return &GraphCommand{
		recursive:           true,
		similarityThreshold: 0.7,
		targetEdges:         0,
		maxEdges:            0,
		minThreshold:        0.3,
		maxThreshold:        0.95,
		exhaustive:          false,
		includeTrivial:      false,
		minTokens:           5,
	}
}

// CreateCobraCommand creates the Cobra command for graph construction
func (c *GraphCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph [paths...]",
		Short: "Build a similarity graph over code units",
		Long: `Build a similarity graph where nodes are code units and edges
connect units whose similarity meets the threshold.

With --target-edges the threshold is found adaptively by binary search
so the graph lands between the target and --max-edges.

Examples:
  # Graph at a fixed threshold
  dupscan graph --similarity-threshold 0.8 src/

  # Find a threshold yielding roughly 50 edges
  dupscan graph --target-edges 50 --max-edges 200 src/

  # Output the graph as JSON
  dupscan graph --json src/ > graph.json`,
		RunE: c.runGraph,
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
		"Fixed similarity threshold for graph edges (0.0-1.0)")
	cmd.Flags().IntVar(&c.targetEdges, "target-edges", c.targetEdges,
		"Desired edge count; enables adaptive threshold search")
	cmd.Flags().IntVar(&c.maxEdges, "max-edges", c.maxEdges,
		"Upper edge bound for the adaptive search (default: 10x target)")
	cmd.Flags().Float64Var(&c.minThreshold, "min-threshold", c.minThreshold,
		"Lower bound for the adaptive threshold search")
	cmd.Flags().Float64Var(&c.maxThreshold, "max-threshold", c.maxThreshold,
		"Upper bound for the adaptive threshold search")
	cmd.Flags().BoolVar(&c.exhaustive, "exhaustive", c.exhaustive,
		"Score every pair instead of consulting the fingerprint index")
	cmd.Flags().BoolVar(&c.includeTrivial, "include-trivial", c.includeTrivial,
		"Include trivial and test records")
	cmd.Flags().IntVar(&c.minTokens, "min-tokens", c.minTokens,
		"Minimum token count for graph nodes")

	// Output flags
	cmd.Flags().BoolVar(&c.json, "json", false, "Output the graph as JSON")
	cmd.Flags().BoolVar(&c.yaml, "yaml", false, "Output the graph as YAML")

	// Storage flags
	cmd.Flags().StringVar(&c.dbPath, "db", c.dbPath,
		"SQLite database for persisting fingerprint records")

	_ = cmd.Flags().MarkHidden("min-threshold")
	_ = cmd.Flags().MarkHidden("max-threshold")

	return cmd
}

// runGraph executes the similarity graph command
func (c *GraphCommand) runGraph(cmd *cobra.Command, args []string) error {
	request, recordStore, err := c.createGraphRequest(cmd, args)
	if err != nil {
		return err
	}
	if recordStore != nil {
		defer recordStore.Close()
	}

	svc := service.NewGraphService(
		service.NewFileReader(),
		extractor.New(),
		analyzer.NewEngine(recordStore),
		service.NewProgressManager(),
	)

	response, err := svc.BuildGraph(context.Background(), request)
	if err != nil {
		return fmt.Errorf("graph construction failed: %w", err)
	}

	formatter := service.NewOutputFormatter(false)
	return formatter.FormatGraphResponse(response, request.OutputFormat, os.Stdout)
}

// createGraphRequest builds the request from configuration with CLI
// flags layered on top.
func (c *GraphCommand) createGraphRequest(cmd *cobra.Command, paths []string) (*domain.GraphRequest, domain.RecordStore, error) {
	cfg, err := config.LoadConfig(c.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	request := cfg.ToGraphRequest()
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
	if explicit["target-edges"] {
		request.TargetEdges = c.targetEdges
		request.MaxEdges = c.targetEdges * 10
	}
	if explicit["max-edges"] {
		request.MaxEdges = c.maxEdges
	}
	if explicit["min-threshold"] {
		request.MinThreshold = c.minThreshold
	}
	if explicit["max-threshold"] {
		request.MaxThreshold = c.maxThreshold
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
