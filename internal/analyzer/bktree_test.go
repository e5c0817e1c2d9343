package analyzer

import (
	"fmt"
	"testing"

	"github.com/ludo-technologies/dupscan/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(id string) *domain.CodeRecord {
	return &domain.CodeRecord{
		ContentHash:    id,
		Name:           id,
		FilePath:       id + ".py",
		HasFingerprint: true,
	}
}

func TestBKTree_EmptySearch(t *testing.T) {
	tree := NewBKTree()

	results := tree.Search(0xABC, 64)

	assert.Empty(t, results, "Searching an empty tree should return no results")
	assert.Equal(t, 0, tree.Size())
}

func TestBKTree_InsertAndExactSearch(t *testing.T) {
	tree := NewBKTree()
	record := testRecord("r1")
	tree.Insert(0b1010, record)

	results := tree.Search(0b1010, 0)

	require.Len(t, results, 1, "Exact search should find the inserted record")
	assert.Equal(t, record, results[0].Record)
	assert.Equal(t, 0, results[0].Distance)
}

func TestBKTree_DistanceBoundCorrectness(t *testing.T) {
	// For any fingerprints a, b: search(a, d) with d >= hamming(a, b)
	// must include b; with d < hamming(a, b) it must not.
	fingerprints := []uint64{0, 1, 0b11, 0b111, 0xFF, 0xFF00, 0xDEADBEEF, ^uint64(0)}

	tree := NewBKTree()
	records := make(map[uint64]*domain.CodeRecord)
	for i, fp := range fingerprints {
		record := testRecord(fmt.Sprintf("r%d", i))
		record.Fingerprint = fp
		records[fp] = record
		tree.Insert(fp, record)
	}

	for _, query := range fingerprints {
		for _, target := range fingerprints {
			d := HammingDistance(query, target)

			found := searchContains(tree, query, d, records[target].ContentHash)
			assert.True(t, found, "search(%#x, %d) must include fingerprint %#x", query, d, target)

			if d > 0 {
				found = searchContains(tree, query, d-1, records[target].ContentHash)
				assert.False(t, found, "search(%#x, %d) must not include fingerprint %#x", query, d-1, target)
			}
		}
	}
}

func searchContains(tree *BKTree, query uint64, maxDistance int, contentHash string) bool {
	for _, result := range tree.Search(query, maxDistance) {
		if result.Record.ContentHash == contentHash {
			return true
		}
	}
	return false
}

func TestBKTree_IdenticalFingerprintsShareNode(t *testing.T) {
	tree := NewBKTree()
	tree.Insert(0xCAFE, testRecord("r1"))
	tree.Insert(0xCAFE, testRecord("r2"))

	results := tree.Search(0xCAFE, 0)

	assert.Len(t, results, 2, "Both records under the same fingerprint should be found")
	assert.Equal(t, 2, tree.Size())
	assert.Equal(t, 1, tree.Stats().Nodes, "Identical fingerprints should share a structural node")
}

func TestBKTree_Remove(t *testing.T) {
	tree := NewBKTree()
	// 0b1001 routes through the 0b0011 node: both lie at distance 1
	// from the root, so it lands in that node's subtree.
	tree.Insert(0b0001, testRecord("r1"))
	tree.Insert(0b0011, testRecord("r2"))
	tree.Insert(0b1001, testRecord("r3"))

	removed := tree.Remove(0b0011, "r2")

	assert.True(t, removed, "Remove should report success for a present record")
	assert.Equal(t, 2, tree.Size())
	assert.False(t, searchContains(tree, 0b0011, 0, "r2"), "Removed record must not be returned")

	// Records below the tombstoned routing node stay reachable.
	assert.True(t, searchContains(tree, 0b1001, 0, "r3"), "Descendants of a removed node must stay reachable")
}

func TestBKTree_RemoveMissing(t *testing.T) {
	tree := NewBKTree()
	tree.Insert(0b0001, testRecord("r1"))

	assert.False(t, tree.Remove(0b0001, "unknown"), "Removing an unknown record id should fail")
	assert.False(t, tree.Remove(0xFFFF, "r1"), "Removing an unknown fingerprint should fail")
	assert.Equal(t, 1, tree.Size())
}

func TestBKTree_Rebuild(t *testing.T) {
	tree := NewBKTree()
	for i, fp := range []uint64{0b0001, 0b0011, 0b0111, 0b1111} {
		record := testRecord(fmt.Sprintf("r%d", i))
		record.Fingerprint = fp
		tree.Insert(fp, record)
	}

	tree.Remove(0b0011, "r1")
	require.Equal(t, 3, tree.Size())
	nodesBefore := tree.Stats().Nodes

	tree.Rebuild()

	assert.Equal(t, 3, tree.Size(), "Rebuild must keep all live records")
	assert.Less(t, tree.Stats().Nodes, nodesBefore, "Rebuild should drop empty routing nodes")
	assert.True(t, searchContains(tree, 0b0111, 0, "r2"), "Live records must survive a rebuild")
	assert.False(t, searchContains(tree, 0b0011, 0, "r1"), "Removed records must not reappear after rebuild")
}

func TestBKTree_Stats(t *testing.T) {
	tree := NewBKTree()
	assert.Equal(t, IndexStats{}, tree.Stats(), "Empty tree stats should be zero")

	tree.Insert(0b0000, testRecord("root"))
	tree.Insert(0b0001, testRecord("d1"))
	tree.Insert(0b0011, testRecord("d2"))

	stats := tree.Stats()
	assert.Equal(t, 3, stats.Size)
	assert.GreaterOrEqual(t, stats.Depth, 1, "Depth should count root-to-leaf edges")
	assert.LessOrEqual(t, stats.Depth, 2)
}

func TestBKTree_Clear(t *testing.T) {
	tree := NewBKTree()
	tree.Insert(0b0001, testRecord("r1"))

	tree.Clear()

	assert.Equal(t, 0, tree.Size())
	assert.Empty(t, tree.Search(0b0001, 64))
}

func TestBKTree_SearchWithFingerprints(t *testing.T) {
	// End to end with real fingerprints: near-identical token sequences
	// must be retrievable within a small radius.
	hasher := NewSimHasher()
	tree := NewBKTree()

	base := similarTokenSet()
	mutated := append([]string(nil), base...)
	mutated[3] = "CALL:changed"

	recordA := testRecord("a")
	recordA.Fingerprint = hasher.Fingerprint(base)
	recordB := testRecord("b")
	recordB.Fingerprint = hasher.Fingerprint(mutated)
	recordC := testRecord("c")
	recordC.Fingerprint = hasher.Fingerprint(dissimilarTokenSet())

	tree.Insert(recordA.Fingerprint, recordA)
	tree.Insert(recordB.Fingerprint, recordB)
	tree.Insert(recordC.Fingerprint, recordC)

	assert.True(t, searchContains(tree, recordA.Fingerprint, 12, "b"),
		"A near-identical record should fall within a small Hamming radius")
	assert.False(t, searchContains(tree, recordA.Fingerprint, 12, "c"),
		"A structurally unrelated record should stay outside a small radius")
}
