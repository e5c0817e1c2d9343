package service

import (
	"context"
	"testing"

	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/analyzer"
	"github.com/ludo-technologies/dupscan/internal/extractor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGraphService() *GraphServiceImpl {
	return NewGraphService(NewFileReader(), extractor.New(), analyzer.NewEngine(nil), nil)
}

func graphRequest(dir string) *domain.GraphRequest {
	req := domain.DefaultGraphRequest()
	req.Paths = []string{dir}
	return req
}

func TestGraphService_FixedThreshold(t *testing.T) {
	dir := writeSourceDir(t, map[string]string{
		"alpha.py": duplicateSourceA,
		"beta.py":  duplicateSourceB,
		"gamma.py": distinctSource,
	})
	svc := newGraphService()

	req := graphRequest(dir)
	req.SimilarityThreshold = 0.9

	response, err := svc.BuildGraph(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, response.Success)
	assert.Equal(t, 0.9, response.Threshold)
	assert.Equal(t, 3, response.Graph.NodeCount(), "Every record appears as a node")
	assert.Equal(t, 1, response.EdgeCount, "Only the twin functions connect above 0.9")

	// The isolated record keeps an empty adjacency list.
	isolated := 0
	for _, edges := range response.Graph {
		if len(edges) == 0 {
			isolated++
		}
	}
	assert.Equal(t, 1, isolated)
}

func TestGraphService_AdaptiveThreshold(t *testing.T) {
	dir := writeSourceDir(t, map[string]string{
		"alpha.py": duplicateSourceA,
		"beta.py":  duplicateSourceB,
		"gamma.py": distinctSource,
	})
	svc := newGraphService()

	req := graphRequest(dir)
	req.TargetEdges = 1
	req.MaxEdges = 5

	response, err := svc.BuildGraph(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 1, response.EdgeCount)
	assert.GreaterOrEqual(t, response.Threshold, req.MinThreshold)
	assert.LessOrEqual(t, response.Threshold, req.MaxThreshold)
}

func TestGraphService_InvalidRequest(t *testing.T) {
	svc := newGraphService()

	req := domain.DefaultGraphRequest()
	req.Paths = nil
	_, err := svc.BuildGraph(context.Background(), req)
	assert.Error(t, err)

	req = graphRequest(t.TempDir())
	req.TargetEdges = 10
	req.MaxEdges = 5
	_, err = svc.BuildGraph(context.Background(), req)
	assert.Error(t, err, "max_edges below target_edges must be rejected before any IO")
}
