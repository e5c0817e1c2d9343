package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ludo-technologies/dupscan/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStore captures store calls for assertions.
type recordingStore struct {
	saved   []*domain.CodeRecord
	deleted []string
	failing bool
}

func (s *recordingStore) Save(ctx context.Context, record *domain.CodeRecord) error {
	if s.failing {
		return errors.New("disk full")
	}
	s.saved = append(s.saved, record)
	return nil
}

func (s *recordingStore) Load(ctx context.Context, contentHash string) (*domain.CodeRecord, error) {
	for _, record := range s.saved {
		if record.ContentHash == contentHash {
			return record, nil
		}
	}
	return nil, nil
}

func (s *recordingStore) LoadAll(ctx context.Context) ([]*domain.CodeRecord, error) {
	return s.saved, nil
}

func (s *recordingStore) Delete(ctx context.Context, contentHash string) error {
	if s.failing {
		return errors.New("disk full")
	}
	s.deleted = append(s.deleted, contentHash)
	return nil
}

func (s *recordingStore) Close() error { return nil }

func testUnit(name, path string, startLine int, tokens []string) *domain.CodeUnit {
	return &domain.CodeUnit{
		Name:   name,
		Kind:   domain.UnitKindFunction,
		Tokens: tokens,
		Location: domain.UnitLocation{
			FilePath:  path,
			StartLine: startLine,
			EndLine:   startLine + 10,
		},
		Complexity: 2,
	}
}

func specExampleUnits() []*domain.CodeUnit {
	return []*domain.CodeUnit{
		testUnit("alpha", "a.py", 1, []string{"FUNC:1", "CALL:print"}),
		testUnit("beta", "b.py", 1, []string{"FUNC:1", "CALL:print"}),
		testUnit("gamma", "c.py", 1, []string{"FUNC:3", "CALL:open", "CALL:close"}),
	}
}

func registerAll(t *testing.T, engine *Engine, units []*domain.CodeUnit) []*domain.CodeRecord {
	t.Helper()
	records := make([]*domain.CodeRecord, 0, len(units))
	for _, unit := range units {
		record, err := engine.Register(context.Background(), unit)
		require.NoError(t, err)
		records = append(records, record)
	}
	return records
}

func TestEngine_Register(t *testing.T) {
	engine := NewEngine(nil)
	unit := testUnit("alpha", "a.py", 1, []string{"FUNC:1", "CALL:print", "RET"})

	record, err := engine.Register(context.Background(), unit)

	require.NoError(t, err)
	assert.NotEmpty(t, record.ContentHash)
	assert.True(t, record.HasFingerprint)
	assert.NotZero(t, record.Fingerprint)
	assert.Equal(t, "alpha", record.Name)
	assert.Equal(t, "a.py", record.FilePath)
	assert.False(t, record.CreatedAt.IsZero())
	assert.Equal(t, string(domain.UnitKindFunction), record.Metadata["kind"])
	assert.Equal(t, 1, engine.Size())
	assert.Equal(t, 1, engine.IndexStats().Size, "Registration must insert into the index")
}

func TestEngine_RegisterNil(t *testing.T) {
	engine := NewEngine(nil)

	_, err := engine.Register(context.Background(), nil)

	assert.Error(t, err)
}

func TestEngine_RegisterDeduplicates(t *testing.T) {
	engine := NewEngine(nil)
	unit := testUnit("alpha", "a.py", 1, []string{"FUNC:1", "CALL:print"})

	first, err := engine.Register(context.Background(), unit)
	require.NoError(t, err)
	second, err := engine.Register(context.Background(), unit)
	require.NoError(t, err)

	assert.Same(t, first, second, "Re-registering identical content must return the existing record")
	assert.Equal(t, 1, engine.Size())
}

func TestEngine_RegisterDistinctLocations(t *testing.T) {
	engine := NewEngine(nil)
	tokens := []string{"FUNC:1", "CALL:print"}

	a, err := engine.Register(context.Background(), testUnit("alpha", "a.py", 1, tokens))
	require.NoError(t, err)
	b, err := engine.Register(context.Background(), testUnit("beta", "b.py", 1, tokens))
	require.NoError(t, err)

	assert.NotEqual(t, a.ContentHash, b.ContentHash,
		"Structurally identical units at different locations stay distinct records")
	assert.Equal(t, a.Fingerprint, b.Fingerprint,
		"Identical token signatures share a fingerprint")
}

func TestEngine_RegisterPersists(t *testing.T) {
	store := &recordingStore{}
	engine := NewEngine(store)

	record, err := engine.Register(context.Background(),
		testUnit("alpha", "a.py", 1, []string{"FUNC:1", "RET"}))

	require.NoError(t, err)
	require.Len(t, store.saved, 1)
	assert.Equal(t, record, store.saved[0])
}

func TestEngine_RegisterStoreFailureNonFatal(t *testing.T) {
	engine := NewEngine(&recordingStore{failing: true})

	record, err := engine.Register(context.Background(),
		testUnit("alpha", "a.py", 1, []string{"FUNC:1", "RET"}))

	require.NoError(t, err, "A failing store must not fail registration")
	assert.NotNil(t, engine.Entry(record.ContentHash), "The record must stay usable in memory")
}

func TestEngine_FindDuplicates(t *testing.T) {
	engine := NewEngine(nil)
	records := registerAll(t, engine, specExampleUnits())

	pairs, cacheHit := engine.FindDuplicates(SearchOptions{
		Threshold: 0.9,
		Mode:      domain.SearchModeFast,
		MinTokens: 0,
	})

	assert.False(t, cacheHit, "The first query must compute")
	require.Len(t, pairs, 1)
	assert.Equal(t, 1.0, pairs[0].Similarity)
	hashes := []string{pairs[0].RecordA.ContentHash, pairs[0].RecordB.ContentHash}
	assert.Contains(t, hashes, records[0].ContentHash)
	assert.Contains(t, hashes, records[1].ContentHash)
}

func TestEngine_FindDuplicatesCached(t *testing.T) {
	engine := NewEngine(nil)
	registerAll(t, engine, specExampleUnits())
	opts := SearchOptions{Threshold: 0.9, Mode: domain.SearchModeFast, MinTokens: 0}

	first, cacheHit := engine.FindDuplicates(opts)
	assert.False(t, cacheHit)

	second, cacheHit := engine.FindDuplicates(opts)
	assert.True(t, cacheHit, "An unchanged record set must serve from cache")
	assert.Equal(t, first, second)
}

func TestEngine_CacheInvalidatedByNewerRecord(t *testing.T) {
	engine := NewEngine(nil)
	records := registerAll(t, engine, specExampleUnits())
	opts := SearchOptions{Threshold: 0.9, Mode: domain.SearchModeFast, MinTokens: 0}

	_, cacheHit := engine.FindDuplicates(opts)
	require.False(t, cacheHit)

	// Same key, newer data: bump one record's timestamp without changing
	// the record count.
	records[0].CreatedAt = records[0].CreatedAt.Add(time.Second)

	_, cacheHit = engine.FindDuplicates(opts)
	assert.False(t, cacheHit, "A newer record timestamp must invalidate the cached result")
}

func TestEngine_CacheDiscriminatesMinTokens(t *testing.T) {
	engine := NewEngine(nil)
	registerAll(t, engine, specExampleUnits())
	opts := SearchOptions{Threshold: 0.9, Mode: domain.SearchModeFast, MinTokens: 100}

	strict, cacheHit := engine.FindDuplicates(opts)
	require.False(t, cacheHit)
	require.Empty(t, strict, "Every record is shorter than 100 tokens")

	opts.MinTokens = 0
	relaxed, cacheHit := engine.FindDuplicates(opts)
	assert.False(t, cacheHit, "A different min-token filter must not share a cache slot")
	require.Len(t, relaxed, 1)
	assert.Equal(t, 1.0, relaxed[0].Similarity)
}

func TestEngine_FindTopPercent(t *testing.T) {
	engine := NewEngine(nil)
	registerAll(t, engine, specExampleUnits())

	pairs, err := engine.FindTopPercent(100, SearchOptions{
		Mode: domain.SearchModeExhaustive, MinTokens: 0,
	})
	require.NoError(t, err)
	assert.Len(t, pairs, 3, "100 percent over 3 records yields every pair")

	_, err = engine.FindTopPercent(0, SearchOptions{MinTokens: 0})
	assert.Error(t, err)
}

func TestEngine_BuildGraph(t *testing.T) {
	engine := NewEngine(nil)
	records := registerAll(t, engine, specExampleUnits())

	graph := engine.BuildGraph(SearchOptions{
		Threshold: 0.9,
		Mode:      domain.SearchModeExhaustive,
		MinTokens: 0,
	})

	assert.Equal(t, 3, graph.NodeCount())
	assert.Equal(t, 1, graph.EdgeCount())
	assert.Empty(t, graph[records[2].ContentHash])
}

func TestEngine_FindAdaptiveThreshold(t *testing.T) {
	engine := NewEngine(nil)
	registerAll(t, engine, specExampleUnits())

	result, err := engine.FindAdaptiveThreshold(1, 5, 0.3, 0.95, SearchOptions{
		Mode: domain.SearchModeExhaustive, MinTokens: 0,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.EdgeCount, "Only the identical pair can form an edge above 0.3")
	assert.GreaterOrEqual(t, result.Threshold, 0.3)
	assert.LessOrEqual(t, result.Threshold, 0.95)
}

func TestEngine_Remove(t *testing.T) {
	store := &recordingStore{}
	engine := NewEngine(store)
	records := registerAll(t, engine, specExampleUnits())

	err := engine.Remove(context.Background(), records[0].ContentHash)

	require.NoError(t, err)
	assert.Equal(t, 2, engine.Size())
	assert.Nil(t, engine.Entry(records[0].ContentHash))
	assert.Equal(t, []string{records[0].ContentHash}, store.deleted)

	pairs, _ := engine.FindDuplicates(SearchOptions{
		Threshold: 0.9, Mode: domain.SearchModeFast, MinTokens: 0,
	})
	assert.Empty(t, pairs, "Removing one half of the duplicate pair must drop the pair")
}

func TestEngine_RemoveUnknown(t *testing.T) {
	engine := NewEngine(nil)

	err := engine.Remove(context.Background(), "missing")

	assert.Error(t, err)
}

func TestEngine_Clear(t *testing.T) {
	engine := NewEngine(nil)
	registerAll(t, engine, specExampleUnits())
	_, _ = engine.FindDuplicates(SearchOptions{Threshold: 0.9, Mode: domain.SearchModeFast, MinTokens: 0})

	engine.Clear()

	assert.Equal(t, 0, engine.Size())
	assert.Equal(t, 0, engine.IndexStats().Size)
	_, cacheHit := engine.FindDuplicates(SearchOptions{Threshold: 0.9, Mode: domain.SearchModeFast, MinTokens: 0})
	assert.False(t, cacheHit)
}

func TestEngine_Entries(t *testing.T) {
	engine := NewEngine(nil)
	registerAll(t, engine, specExampleUnits())

	entries := engine.Entries()

	require.Len(t, entries, 3)
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Record.ContentHash, entries[i].Record.ContentHash,
			"Entries must come back in deterministic hash order")
	}
}

func TestEngine_MaxTimestamp(t *testing.T) {
	engine := NewEngine(nil)
	assert.True(t, engine.MaxTimestamp().IsZero(), "An empty session has the zero max timestamp")

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(time.Hour), base.Add(time.Minute)}
	i := 0
	engine.now = func() time.Time {
		t := times[i]
		i++
		return t
	}
	registerAll(t, engine, specExampleUnits())

	assert.Equal(t, base.Add(time.Hour), engine.MaxTimestamp())
}

func TestContentHash_Stable(t *testing.T) {
	unit := testUnit("alpha", "a.py", 1, []string{"FUNC:1", "CALL:print"})

	assert.Equal(t, ContentHash(unit), ContentHash(unit), "Content hashing must be deterministic")
	assert.Len(t, ContentHash(unit), 64, "SHA-256 hex digest length")
}

func TestContentHash_Discriminates(t *testing.T) {
	base := testUnit("alpha", "a.py", 1, []string{"FUNC:1", "CALL:print"})

	otherTokens := testUnit("alpha", "a.py", 1, []string{"FUNC:1", "CALL:log"})
	otherName := testUnit("beta", "a.py", 1, []string{"FUNC:1", "CALL:print"})
	otherPlace := testUnit("alpha", "a.py", 50, []string{"FUNC:1", "CALL:print"})
	otherKind := testUnit("alpha", "a.py", 1, []string{"FUNC:1", "CALL:print"})
	otherKind.Kind = domain.UnitKindClass

	for _, unit := range []*domain.CodeUnit{otherTokens, otherName, otherPlace, otherKind} {
		assert.NotEqual(t, ContentHash(base), ContentHash(unit),
			"Any identity component change must change the hash")
	}
}
