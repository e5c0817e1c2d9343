package store

import (
	"context"
	"sort"
	"sync"

	"github.com/ludo-technologies/dupscan/domain"
)

// MemoryStore is an in-process record store for sessions that do not
// persist across runs. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*domain.CodeRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*domain.CodeRecord)}
}

// Save stores a record, replacing any record with the same content hash.
func (s *MemoryStore) Save(ctx context.Context, record *domain.CodeRecord) error {
	if record == nil {
		return domain.NewStorageError("cannot save nil record", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ContentHash] = record
	return nil
}

// Load retrieves a record by content hash; (nil, nil) when absent.
func (s *MemoryStore) Load(ctx context.Context, contentHash string) (*domain.CodeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[contentHash], nil
}

// LoadAll retrieves every stored record in content-hash order.
func (s *MemoryStore) LoadAll(ctx context.Context) ([]*domain.CodeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*domain.CodeRecord, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ContentHash < records[j].ContentHash
	})
	return records, nil
}

// Delete removes a record by content hash. Deleting an absent hash is
// not an error.
func (s *MemoryStore) Delete(ctx context.Context, contentHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, contentHash)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
