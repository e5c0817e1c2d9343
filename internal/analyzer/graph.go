package analyzer

import (
	"math/rand"
	"sort"

	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/constants"
)

// GraphBuilder constructs similarity graphs over record sets using the
// same candidate generation as duplicate search, keeping every
// qualifying edge instead of collapsing to a top list.
type GraphBuilder struct {
	search *DuplicateSearch
}

// NewGraphBuilder creates a graph builder over the given search.
func NewGraphBuilder(search *DuplicateSearch) *GraphBuilder {
	return &GraphBuilder{search: search}
}

// AdaptiveResult is the outcome of an adaptive threshold search.
type AdaptiveResult struct {
	Graph     domain.SimilarityGraph
	Threshold float64
	EdgeCount int
}

// BuildGraph builds a bidirectional adjacency-list graph of all record
// pairs at or above the threshold. Every filtered record appears as a
// node, isolated records with an empty adjacency list.
func (g *GraphBuilder) BuildGraph(entries []*RecordEntry, opts SearchOptions) domain.SimilarityGraph {
	filtered := FilterEntries(entries, opts.IncludeTrivial, opts.MinTokens)

	graph := make(domain.SimilarityGraph, len(filtered))
	for _, entry := range filtered {
		graph[entry.Record.ContentHash] = []domain.GraphEdge{}
	}

	inner := opts
	inner.IncludeTrivial = true // already filtered
	for _, pair := range g.search.FindDuplicates(filtered, inner) {
		a := pair.RecordA.ContentHash
		b := pair.RecordB.ContentHash
		graph[a] = append(graph[a], domain.GraphEdge{NeighborHash: b, Similarity: pair.Similarity})
		graph[b] = append(graph[b], domain.GraphEdge{NeighborHash: a, Similarity: pair.Similarity})
	}

	for hash := range graph {
		sortEdges(graph[hash])
	}

	return graph
}

// FindAdaptiveThreshold binary-searches a similarity threshold within
// [minThreshold, maxThreshold] aiming for an edge count between
// targetEdges and maxEdges. The edge-count-vs-threshold function is not
// perfectly monotonic, so the search is a bounded heuristic: after the
// iteration cap it settles on the probed threshold whose edge count came
// closest to the target.
func (g *GraphBuilder) FindAdaptiveThreshold(entries []*RecordEntry, targetEdges, maxEdges int, minThreshold, maxThreshold float64, opts SearchOptions) (*AdaptiveResult, error) {
	if targetEdges <= 0 {
		return nil, domain.NewInvalidInputError("target_edges must be > 0", nil)
	}
	if maxEdges < targetEdges {
		return nil, domain.NewInvalidInputError("max_edges must be >= target_edges", nil)
	}
	if minThreshold < 0 || maxThreshold > 1 || minThreshold >= maxThreshold {
		return nil, domain.NewInvalidInputError("threshold bounds must satisfy 0 <= min < max <= 1", nil)
	}

	filtered := FilterEntries(entries, opts.IncludeTrivial, opts.MinTokens)
	inner := opts
	inner.IncludeTrivial = true

	low, high := minThreshold, maxThreshold
	best := maxThreshold
	bestGap := -1

search:
	for i := 0; i < constants.AdaptiveMaxIterations; i++ {
		mid := (low + high) / 2
		inner.Threshold = mid
		edges := g.estimateEdgeCount(filtered, inner)

		if gap := absInt(edges - targetEdges); bestGap < 0 || gap < bestGap {
			bestGap = gap
			best = mid
		}

		switch {
		case edges > maxEdges:
			// Too dense: raise the threshold.
			low = mid
		case edges < targetEdges:
			// Too sparse: lower the threshold.
			high = mid
		default:
			best = mid
			break search
		}
	}

	inner.Threshold = best
	graph := g.BuildGraph(filtered, inner)
	return &AdaptiveResult{
		Graph:     graph,
		Threshold: best,
		EdgeCount: graph.EdgeCount(),
	}, nil
}

// estimateEdgeCount counts graph edges at a threshold. Large record sets
// are estimated from a random sample with quadratic extrapolation
// (sampleEdges * (n/sampleSize)^2) to avoid repeated full scans inside
// the binary search.
func (g *GraphBuilder) estimateEdgeCount(filtered []*RecordEntry, opts SearchOptions) int {
	n := len(filtered)
	if n <= constants.AdaptiveSampleTrigger {
		return g.BuildGraph(filtered, opts).EdgeCount()
	}

	sample := sampleEntries(filtered, constants.AdaptiveSampleSize)
	sampleEdges := g.BuildGraph(sample, opts).EdgeCount()
	scale := float64(n) / float64(len(sample))
	return int(float64(sampleEdges) * scale * scale)
}

// sampleEntries picks k entries without replacement. The generator is
// seeded from the set size so repeated probes within one search see the
// same sample.
func sampleEntries(entries []*RecordEntry, k int) []*RecordEntry {
	if len(entries) <= k {
		return entries
	}

	rng := rand.New(rand.NewSource(int64(len(entries))))
	perm := rng.Perm(len(entries))
	sample := make([]*RecordEntry, k)
	for i := 0; i < k; i++ {
		sample[i] = entries[perm[i]]
	}
	return sample
}

func sortEdges(edges []domain.GraphEdge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Similarity != edges[j].Similarity {
			return edges[i].Similarity > edges[j].Similarity
		}
		return edges[i].NeighborHash < edges[j].NeighborHash
	})
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
