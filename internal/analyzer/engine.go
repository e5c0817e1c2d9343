package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ludo-technologies/dupscan/domain"
)

// Engine owns the session state of the detector: the record table, the
// fingerprint index and the result cache. It is constructed once per
// session and passed by reference; there is no ambient global state.
//
// The engine is single-writer: one caller registers records, then
// queries. Only the result cache is safe for concurrent access.
type Engine struct {
	hasher  *SimHasher
	index   *BKTree
	cache   *ResultCache
	records map[string]*RecordEntry
	store   domain.RecordStore

	now func() time.Time
}

// NewEngine creates an engine. store may be nil for purely in-memory
// sessions; persistence failures are never fatal to the session.
func NewEngine(store domain.RecordStore) *Engine {
	return &Engine{
		hasher:  NewSimHasher(),
		index:   NewBKTree(),
		cache:   NewResultCache(),
		records: make(map[string]*RecordEntry),
		store:   store,
		now:     time.Now,
	}
}

// Register adds a code unit to the session. Identical content (same
// kind and token signature) returns the already registered record. The
// fingerprint is computed synchronously and the record is inserted into
// the index before returning. Persisting to the record store is
// best-effort: on failure the record stays usable in memory and the
// error is reported as a warning.
func (e *Engine) Register(ctx context.Context, unit *domain.CodeUnit) (*domain.CodeRecord, error) {
	if unit == nil {
		return nil, domain.NewInvalidInputError("code unit cannot be nil", nil)
	}

	hash := ContentHash(unit)
	if existing, ok := e.records[hash]; ok {
		return existing.Record, nil
	}

	record := &domain.CodeRecord{
		ContentHash:    hash,
		Fingerprint:    e.hasher.Fingerprint(unit.Tokens),
		HasFingerprint: true,
		Name:           unit.Name,
		FilePath:       unit.Location.FilePath,
		StartLine:      unit.Location.StartLine,
		EndLine:        unit.Location.EndLine,
		CreatedAt:      e.now(),
		Metadata: map[string]any{
			"kind":       string(unit.Kind),
			"complexity": unit.Complexity,
		},
	}
	if len(unit.Dependencies) > 0 {
		record.Metadata["dependencies"] = unit.Dependencies
	}

	e.records[hash] = &RecordEntry{Record: record, Tokens: unit.Tokens}
	e.index.Insert(record.Fingerprint, record)

	if e.store != nil {
		if err := e.store.Save(ctx, record); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to persist record %s: %v\n", record.Name, err)
		}
	}

	return record, nil
}

// Remove deletes a record from the session and the index. The store is
// updated best-effort. Cached results invalidate on their own through
// the timestamp check, so they are left in place.
func (e *Engine) Remove(ctx context.Context, contentHash string) error {
	entry, ok := e.records[contentHash]
	if !ok {
		return domain.NewInvalidInputError(fmt.Sprintf("unknown record: %s", contentHash), nil)
	}

	delete(e.records, contentHash)
	e.index.Remove(entry.Record.Fingerprint, contentHash)

	if e.store != nil {
		if err := e.store.Delete(ctx, contentHash); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to delete record %s: %v\n", contentHash, err)
		}
	}

	return nil
}

// Clear resets the session: records, index and cache.
func (e *Engine) Clear() {
	e.records = make(map[string]*RecordEntry)
	e.index.Clear()
	e.cache.Clear()
}

// FindDuplicates runs a duplicate search over the registered records,
// serving from the cache when no record is newer than the cached entry.
func (e *Engine) FindDuplicates(opts SearchOptions) ([]*domain.DuplicatePair, bool) {
	key := CacheKey{
		Threshold:      opts.Threshold,
		Mode:           opts.Mode,
		IncludeTrivial: opts.IncludeTrivial,
		MinTokens:      opts.MinTokens,
		RecordCount:    len(e.records),
		HammingBound:   opts.HammingBound,
	}

	maxTimestamp := e.MaxTimestamp()
	if pairs, ok := e.cache.Get(key, maxTimestamp); ok {
		return pairs, true
	}

	search := NewDuplicateSearch(e.index)
	pairs := search.FindDuplicates(e.Entries(), opts)
	e.cache.Put(key, pairs, maxTimestamp)
	return pairs, false
}

// FindTopPercent returns the top fraction of most similar pairs over
// the registered records. Not cached: the sweep makes the cache key
// ambiguous.
func (e *Engine) FindTopPercent(percent float64, opts SearchOptions) ([]*domain.DuplicatePair, error) {
	search := NewDuplicateSearch(e.index)
	return search.FindTopPercent(e.Entries(), percent, opts)
}

// BuildGraph builds a similarity graph over the registered records.
func (e *Engine) BuildGraph(opts SearchOptions) domain.SimilarityGraph {
	builder := NewGraphBuilder(NewDuplicateSearch(e.index))
	return builder.BuildGraph(e.Entries(), opts)
}

// FindAdaptiveThreshold runs the adaptive threshold search over the
// registered records.
func (e *Engine) FindAdaptiveThreshold(targetEdges, maxEdges int, minThreshold, maxThreshold float64, opts SearchOptions) (*AdaptiveResult, error) {
	builder := NewGraphBuilder(NewDuplicateSearch(e.index))
	return builder.FindAdaptiveThreshold(e.Entries(), targetEdges, maxEdges, minThreshold, maxThreshold, opts)
}

// Entries returns the registered records in deterministic content-hash
// order.
func (e *Engine) Entries() []*RecordEntry {
	entries := make([]*RecordEntry, 0, len(e.records))
	for _, entry := range e.records {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Record.ContentHash < entries[j].Record.ContentHash
	})
	return entries
}

// Entry returns the entry for a content hash, or nil.
func (e *Engine) Entry(contentHash string) *RecordEntry {
	return e.records[contentHash]
}

// Size returns the number of registered records.
func (e *Engine) Size() int {
	return len(e.records)
}

// IndexStats exposes the fingerprint index shape for diagnostics.
func (e *Engine) IndexStats() IndexStats {
	return e.index.Stats()
}

// MaxTimestamp returns the newest record creation time, or the zero
// time for an empty session.
func (e *Engine) MaxTimestamp() time.Time {
	var newest time.Time
	for _, entry := range e.records {
		if entry.Record.CreatedAt.After(newest) {
			newest = entry.Record.CreatedAt
		}
	}
	return newest
}

// ContentHash computes the stable content-addressed identity of a code
// unit: SHA-256 over its kind, name, location and token signature.
// Location and name participate so two structurally identical units in
// different places stay logically distinct records (and can therefore
// be reported as duplicates of each other), while re-registering the
// same unit returns the existing record.
func ContentHash(unit *domain.CodeUnit) string {
	h := sha256.New()
	for _, part := range []string{
		string(unit.Kind),
		unit.Name,
		unit.Location.String(),
		strings.Join(unit.Tokens, "\x1f"),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
