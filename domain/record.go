package domain

import (
	"fmt"
	"time"
)

// UnitKind identifies the syntactic kind of an extracted code unit
type UnitKind string

const (
	UnitKindFunction UnitKind = "function"
	UnitKindClass    UnitKind = "class"
	UnitKindModule   UnitKind = "module"
)

// UnitLocation represents the source location of a code unit
type UnitLocation struct {
	FilePath  string `json:"file_path" yaml:"file_path"`
	StartLine int    `json:"start_line" yaml:"start_line"`
	EndLine   int    `json:"end_line" yaml:"end_line"`
}

// String returns string representation of UnitLocation
func (l *UnitLocation) String() string {
	return fmt.Sprintf("%s:%d-%d", l.FilePath, l.StartLine, l.EndLine)
}

// LineCount returns the number of lines in this location
func (l *UnitLocation) LineCount() int {
	return l.EndLine - l.StartLine + 1
}

// CodeUnit is a single extracted unit of source code (function, class, module)
// together with its structural token signature. Units are produced by the
// structural extractor and are immutable afterwards.
type CodeUnit struct {
	Name         string       `json:"name" yaml:"name"`
	Kind         UnitKind     `json:"kind" yaml:"kind"`
	Tokens       []string     `json:"tokens" yaml:"tokens"`
	Location     UnitLocation `json:"location" yaml:"location"`
	Dependencies []string     `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Complexity   int          `json:"complexity" yaml:"complexity"`
}

// String returns string representation of CodeUnit
func (u *CodeUnit) String() string {
	return fmt.Sprintf("%s %s (%s, %d tokens)", u.Kind, u.Name, u.Location.String(), len(u.Tokens))
}

// CodeRecord is the persisted identity of a registered CodeUnit.
// ContentHash is unique per logically distinct unit; re-registering
// identical content yields the existing record.
type CodeRecord struct {
	ContentHash    string         `json:"content_hash" yaml:"content_hash"`
	Fingerprint    uint64         `json:"fingerprint" yaml:"fingerprint"`
	HasFingerprint bool           `json:"has_fingerprint" yaml:"has_fingerprint"`
	Name           string         `json:"name" yaml:"name"`
	FilePath       string         `json:"file_path" yaml:"file_path"`
	StartLine      int            `json:"start_line" yaml:"start_line"`
	EndLine        int            `json:"end_line" yaml:"end_line"`
	CreatedAt      time.Time      `json:"created_at" yaml:"created_at"`
	Metadata       map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// String returns string representation of CodeRecord
func (r *CodeRecord) String() string {
	return fmt.Sprintf("CodeRecord{%s %s:%d-%d hash=%.12s}",
		r.Name, r.FilePath, r.StartLine, r.EndLine, r.ContentHash)
}

// SameLocation reports whether two records refer to the same source span.
func (r *CodeRecord) SameLocation(other *CodeRecord) bool {
	return r.FilePath == other.FilePath &&
		r.StartLine == other.StartLine &&
		r.EndLine == other.EndLine
}

// DuplicatePair is a pair of records considered near-duplicates.
// RecordA always orders before RecordB by content hash so that
// pair deduplication is well defined.
type DuplicatePair struct {
	RecordA    *CodeRecord `json:"record_a" yaml:"record_a"`
	RecordB    *CodeRecord `json:"record_b" yaml:"record_b"`
	Similarity float64     `json:"similarity" yaml:"similarity"`
}

// String returns string representation of DuplicatePair
func (p *DuplicatePair) String() string {
	return fmt.Sprintf("%s <-> %s (similarity: %.3f)",
		p.RecordA.Name, p.RecordB.Name, p.Similarity)
}

// NewDuplicatePair builds a pair in canonical content-hash order.
func NewDuplicatePair(a, b *CodeRecord, similarity float64) *DuplicatePair {
	if b.ContentHash < a.ContentHash {
		a, b = b, a
	}
	return &DuplicatePair{RecordA: a, RecordB: b, Similarity: similarity}
}

// PairKey returns the canonical dedup key for an unordered record pair.
func PairKey(a, b *CodeRecord) string {
	if b.ContentHash < a.ContentHash {
		a, b = b, a
	}
	return a.ContentHash + "|" + b.ContentHash
}

// GraphEdge is one adjacency entry in a similarity graph.
type GraphEdge struct {
	NeighborHash string  `json:"neighbor_hash" yaml:"neighbor_hash"`
	Similarity   float64 `json:"similarity" yaml:"similarity"`
}

// SimilarityGraph maps content hashes to neighbors sorted by descending
// similarity. The exhaustive builder produces symmetric adjacency; the
// fast builder is symmetric only over the edges it discovers.
type SimilarityGraph map[string][]GraphEdge

// EdgeCount returns the number of undirected edges in the graph.
func (g SimilarityGraph) EdgeCount() int {
	total := 0
	for _, edges := range g {
		total += len(edges)
	}
	return total / 2
}

// NodeCount returns the number of nodes with at least one adjacency entry slot.
func (g SimilarityGraph) NodeCount() int {
	return len(g)
}
