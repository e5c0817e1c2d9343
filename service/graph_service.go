package service

import (
	"context"
	"time"

	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/analyzer"
)

// GraphServiceImpl implements the GraphService interface
type GraphServiceImpl struct {
	reader    domain.FileReader
	extractor domain.StructuralExtractor
	engine    *analyzer.Engine
	progress  domain.ProgressManager
}

// NewGraphService creates a new similarity graph service
func NewGraphService(reader domain.FileReader, extractor domain.StructuralExtractor, engine *analyzer.Engine, progress domain.ProgressManager) *GraphServiceImpl {
	return &GraphServiceImpl{
		reader:    reader,
		extractor: extractor,
		engine:    engine,
		progress:  progress,
	}
}

// BuildGraph builds a similarity graph on the given request. When
// TargetEdges is set the threshold is found adaptively; otherwise the
// fixed SimilarityThreshold is used.
func (s *GraphServiceImpl) BuildGraph(ctx context.Context, req *domain.GraphRequest) (*domain.GraphResponse, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := loadSources(ctx, s.reader, s.extractor, s.engine, s.progress,
		req.Paths, req.Recursive, req.IncludePatterns, req.ExcludePatterns); err != nil {
		return nil, err
	}

	mode := domain.SearchModeExhaustive
	if req.UseFastMode {
		mode = domain.SearchModeFast
	}
	opts := analyzer.SearchOptions{
		Mode:           mode,
		IncludeTrivial: req.IncludeTrivial,
		MinTokens:      req.MinTokens,
	}
	if s.progress != nil {
		opts.Progress = s.progress.Update
	}

	var graph domain.SimilarityGraph
	threshold := req.SimilarityThreshold

	if req.TargetEdges > 0 {
		result, err := s.engine.FindAdaptiveThreshold(req.TargetEdges, req.MaxEdges, req.MinThreshold, req.MaxThreshold, opts)
		if err != nil {
			return nil, err
		}
		graph = result.Graph
		threshold = result.Threshold
	} else {
		opts.Threshold = threshold
		graph = s.engine.BuildGraph(opts)
	}

	if s.progress != nil {
		s.progress.Complete(true)
	}

	return &domain.GraphResponse{
		Graph:       graph,
		Threshold:   threshold,
		EdgeCount:   graph.EdgeCount(),
		Duration:    time.Since(start).Milliseconds(),
		GeneratedAt: time.Now(),
		Success:     true,
	}, nil
}
