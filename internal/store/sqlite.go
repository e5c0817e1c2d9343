// Package store provides persistence backends for code records.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ludo-technologies/dupscan/domain"
)

// SQLiteStore persists code records in a SQLite database. Safe for
// concurrent use via an internal mutex.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates a SQLite store at the given path, creating the schema if
// needed. Pass ":memory:" for an ephemeral database.
func Open(dbPath string) (*SQLiteStore, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, domain.NewStorageError("open database", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, domain.NewStorageError("ping database", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, domain.NewStorageError("enable WAL mode", err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		content_hash TEXT PRIMARY KEY,
		fingerprint INTEGER NOT NULL,
		has_fingerprint INTEGER NOT NULL DEFAULT 0,
		name TEXT NOT NULL,
		file_path TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		metadata TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_records_file_path ON records(file_path);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return domain.NewStorageError("create schema", err)
	}
	return nil
}

// Save persists a record, replacing any record with the same content
// hash.
func (s *SQLiteStore) Save(ctx context.Context, record *domain.CodeRecord) error {
	if record == nil {
		return domain.NewStorageError("cannot save nil record", nil)
	}

	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return domain.NewStorageError("encode metadata", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO records
		(content_hash, fingerprint, has_fingerprint, name, file_path, start_line, end_line, created_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ContentHash,
		int64(record.Fingerprint),
		record.HasFingerprint,
		record.Name,
		record.FilePath,
		record.StartLine,
		record.EndLine,
		record.CreatedAt.UnixNano(),
		string(metadata),
	)
	if err != nil {
		return domain.NewStorageError(fmt.Sprintf("save record %s", record.ContentHash), err)
	}
	return nil
}

// Load retrieves a record by content hash; (nil, nil) when absent.
func (s *SQLiteStore) Load(ctx context.Context, contentHash string) (*domain.CodeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT content_hash, fingerprint, has_fingerprint, name, file_path, start_line, end_line, created_at, metadata
		FROM records WHERE content_hash = ?`, contentHash)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStorageError(fmt.Sprintf("load record %s", contentHash), err)
	}
	return record, nil
}

// LoadAll retrieves every stored record in content-hash order.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]*domain.CodeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT content_hash, fingerprint, has_fingerprint, name, file_path, start_line, end_line, created_at, metadata
		FROM records ORDER BY content_hash`)
	if err != nil {
		return nil, domain.NewStorageError("load records", err)
	}
	defer rows.Close()

	var records []*domain.CodeRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, domain.NewStorageError("scan record", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate records", err)
	}
	return records, nil
}

// Delete removes a record by content hash. Deleting an absent hash is
// not an error.
func (s *SQLiteStore) Delete(ctx context.Context, contentHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE content_hash = ?", contentHash); err != nil {
		return domain.NewStorageError(fmt.Sprintf("delete record %s", contentHash), err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.CodeRecord, error) {
	var record domain.CodeRecord
	var fingerprint int64
	var createdAt int64
	var metadata sql.NullString

	err := row.Scan(
		&record.ContentHash,
		&fingerprint,
		&record.HasFingerprint,
		&record.Name,
		&record.FilePath,
		&record.StartLine,
		&record.EndLine,
		&createdAt,
		&metadata,
	)
	if err != nil {
		return nil, err
	}

	record.Fingerprint = uint64(fingerprint)
	record.CreatedAt = time.Unix(0, createdAt)
	if metadata.Valid && metadata.String != "" && metadata.String != "null" {
		if err := json.Unmarshal([]byte(metadata.String), &record.Metadata); err != nil {
			return nil, err
		}
	}
	return &record, nil
}
