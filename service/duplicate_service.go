package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/analyzer"
)

// DuplicateServiceImpl implements the DuplicateService interface
type DuplicateServiceImpl struct {
	reader    domain.FileReader
	extractor domain.StructuralExtractor
	engine    *analyzer.Engine
	progress  domain.ProgressManager
}

// NewDuplicateService creates a new duplicate detection service
func NewDuplicateService(reader domain.FileReader, extractor domain.StructuralExtractor, engine *analyzer.Engine, progress domain.ProgressManager) *DuplicateServiceImpl {
	return &DuplicateServiceImpl{
		reader:    reader,
		extractor: extractor,
		engine:    engine,
		progress:  progress,
	}
}

// FindDuplicates performs duplicate detection on the given request
func (s *DuplicateServiceImpl) FindDuplicates(ctx context.Context, req *domain.DuplicateRequest) (*domain.DuplicateResponse, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	filesAnalyzed, err := loadSources(ctx, s.reader, s.extractor, s.engine, s.progress,
		req.Paths, req.Recursive, req.IncludePatterns, req.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	opts := analyzer.SearchOptions{
		Threshold:      req.SimilarityThreshold,
		Mode:           req.Mode(),
		IncludeTrivial: req.IncludeTrivial,
		MinTokens:      req.MinTokens,
		HammingBound:   req.HammingThreshold,
	}
	if s.progress != nil {
		opts.Progress = s.progress.Update
	}

	var pairs []*domain.DuplicatePair
	var cacheHit bool
	if req.TopPercent > 0 {
		pairs, err = s.engine.FindTopPercent(req.TopPercent, opts)
		if err != nil {
			return nil, err
		}
	} else {
		pairs, cacheHit = s.engine.FindDuplicates(opts)
	}

	if s.progress != nil {
		s.progress.Complete(true)
	}

	stats := s.buildStatistics(pairs, filesAnalyzed, opts, cacheHit)

	return &domain.DuplicateResponse{
		Pairs:       pairs,
		Statistics:  stats,
		Duration:    time.Since(start).Milliseconds(),
		GeneratedAt: time.Now(),
		Success:     true,
	}, nil
}

func (s *DuplicateServiceImpl) buildStatistics(pairs []*domain.DuplicatePair, filesAnalyzed int, opts analyzer.SearchOptions, cacheHit bool) *domain.DuplicateStatistics {
	filtered := analyzer.FilterEntries(s.engine.Entries(), opts.IncludeTrivial, opts.MinTokens)
	indexStats := s.engine.IndexStats()

	var totalSimilarity float64
	for _, pair := range pairs {
		totalSimilarity += pair.Similarity
	}
	average := 0.0
	if len(pairs) > 0 {
		average = totalSimilarity / float64(len(pairs))
	}

	return &domain.DuplicateStatistics{
		TotalRecords:      s.engine.Size(),
		FilteredRecords:   len(filtered),
		TotalPairs:        len(pairs),
		AverageSimilarity: average,
		FilesAnalyzed:     filesAnalyzed,
		IndexSize:         indexStats.Size,
		IndexDepth:        indexStats.Depth,
		CacheHit:          cacheHit,
	}
}

// loadSources collects the source files for a request, extracts their
// code units and registers them with the engine. Unparseable files are
// skipped with a warning; they never abort the scan.
func loadSources(ctx context.Context, reader domain.FileReader, extractor domain.StructuralExtractor, engine *analyzer.Engine, progress domain.ProgressManager, paths []string, recursive bool, includePatterns, excludePatterns []string) (int, error) {
	files, err := reader.CollectPythonFiles(paths, recursive, includePatterns, excludePatterns)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, domain.NewInvalidInputError("no Python files found in the specified paths", nil)
	}

	if progress != nil {
		progress.Initialize(len(files))
		progress.Start()
	}

	analyzed := 0
	for i, filePath := range files {
		select {
		case <-ctx.Done():
			return analyzed, ctx.Err()
		default:
		}

		source, err := reader.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to read %s: %v\n", filePath, err)
			continue
		}

		units, err := extractor.ExtractFile(ctx, filePath, source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping %s: %v\n", filePath, err)
			continue
		}

		for _, unit := range units {
			if _, err := engine.Register(ctx, unit); err != nil {
				return analyzed, err
			}
		}
		analyzed++

		if progress != nil {
			progress.Update(i+1, len(files))
		}
	}

	return analyzed, nil
}
