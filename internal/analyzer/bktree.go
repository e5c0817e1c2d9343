package analyzer

import (
	"github.com/ludo-technologies/dupscan/domain"
)

// bkNode is a single node of the BK-tree. Records with an identical
// fingerprint share one node. Children are keyed by the Hamming distance
// between their fingerprint and this node's fingerprint, which is what
// makes triangle-inequality pruning valid during search.
type bkNode struct {
	fingerprint uint64
	records     []*domain.CodeRecord
	children    map[int]*bkNode
}

// BKTree indexes (fingerprint, record) pairs in Hamming space and
// answers range queries sub-linearly.
//
// The tree is append-only: insertion never rebalances existing edges.
// Removal is a soft delete. Dropping a record empties its node's record
// list but keeps the node as a routing entry, so child placement stays
// consistent with the triangle inequality. Rebuild compacts the tree
// when tombstoned routing nodes accumulate.
type BKTree struct {
	root  *bkNode
	size  int // live records
	nodes int // structural nodes including empty routing nodes
}

// SearchResult is one record found within the query radius.
type SearchResult struct {
	Record   *domain.CodeRecord
	Distance int
}

// IndexStats describes the shape of the tree.
type IndexStats struct {
	Size  int // live records
	Nodes int // structural nodes
	Depth int // max root-to-leaf edge count
}

// NewBKTree creates an empty index.
func NewBKTree() *BKTree {
	return &BKTree{}
}

// Insert adds a record under the given fingerprint. The first insertion
// becomes the root; later insertions descend along existing edges and
// attach a new leaf at the first free distance slot.
func (t *BKTree) Insert(fingerprint uint64, record *domain.CodeRecord) {
	t.size++

	if t.root == nil {
		t.root = newBKNode(fingerprint, record)
		t.nodes = 1
		return
	}

	node := t.root
	for {
		d := HammingDistance(node.fingerprint, fingerprint)
		if d == 0 {
			node.records = append(node.records, record)
			return
		}

		child, ok := node.children[d]
		if !ok {
			node.children[d] = newBKNode(fingerprint, record)
			t.nodes++
			return
		}
		node = child
	}
}

// Search returns every live record whose fingerprint lies within
// maxDistance of the query. Results are unordered; callers sort as
// needed. Searching an empty tree returns an empty result.
func (t *BKTree) Search(query uint64, maxDistance int) []SearchResult {
	if t.root == nil || maxDistance < 0 {
		return nil
	}

	var results []SearchResult
	t.searchNode(t.root, query, maxDistance, &results)
	return results
}

func (t *BKTree) searchNode(node *bkNode, query uint64, maxDistance int, results *[]SearchResult) {
	d := HammingDistance(node.fingerprint, query)

	if d <= maxDistance {
		for _, record := range node.records {
			*results = append(*results, SearchResult{Record: record, Distance: d})
		}
	}

	// Triangle inequality: a child on edge e can only hold fingerprints
	// within maxDistance of the query when |e - d| <= maxDistance.
	for e, child := range node.children {
		if e >= d-maxDistance && e <= d+maxDistance {
			t.searchNode(child, query, maxDistance, results)
		}
	}
}

// Remove drops the record with the given fingerprint and content hash.
// The node itself is retained as a routing entry (soft delete) because
// re-parenting a BK-tree subtree cannot preserve edge distances.
// Returns true if a record was removed.
func (t *BKTree) Remove(fingerprint uint64, contentHash string) bool {
	node := t.root
	for node != nil {
		d := HammingDistance(node.fingerprint, fingerprint)
		if d == 0 {
			for i, record := range node.records {
				if record.ContentHash == contentHash {
					node.records = append(node.records[:i], node.records[i+1:]...)
					t.size--
					return true
				}
			}
			return false
		}
		node = node.children[d]
	}
	return false
}

// Rebuild reconstructs a compact tree from the live records, discarding
// empty routing nodes left behind by Remove.
func (t *BKTree) Rebuild() {
	var live []SearchResult
	if t.root != nil {
		collectLive(t.root, &live)
	}

	t.root = nil
	t.size = 0
	t.nodes = 0
	for _, entry := range live {
		if entry.Record.HasFingerprint {
			t.Insert(entry.Record.Fingerprint, entry.Record)
		}
	}
}

func collectLive(node *bkNode, out *[]SearchResult) {
	for _, record := range node.records {
		*out = append(*out, SearchResult{Record: record})
	}
	for _, child := range node.children {
		collectLive(child, out)
	}
}

// Clear resets the index to empty.
func (t *BKTree) Clear() {
	t.root = nil
	t.size = 0
	t.nodes = 0
}

// Size returns the number of live records in the index.
func (t *BKTree) Size() int {
	return t.size
}

// Stats returns size and depth diagnostics. A depth close to the record
// count indicates pathological clustering of fingerprints.
func (t *BKTree) Stats() IndexStats {
	stats := IndexStats{Size: t.size, Nodes: t.nodes}
	if t.root != nil {
		stats.Depth = depthOf(t.root)
	}
	return stats
}

func depthOf(node *bkNode) int {
	deepest := 0
	for _, child := range node.children {
		if d := depthOf(child) + 1; d > deepest {
			deepest = d
		}
	}
	return deepest
}

func newBKNode(fingerprint uint64, record *domain.CodeRecord) *bkNode {
	return &bkNode{
		fingerprint: fingerprint,
		records:     []*domain.CodeRecord{record},
		children:    make(map[int]*bkNode),
	}
}
