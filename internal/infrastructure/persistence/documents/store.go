// Package documents provides the key/value document store behind visitor
// profile persistence. One JSON document per storage key.
package documents

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/persistence/database"
)

// Store is the minimal persistence contract the profile layer needs.
type Store interface {
	// Get returns the document for a key. The bool reports presence;
	// a missing key is not an error.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// SQLStore persists documents in a single key/value table, served by
// sqlite locally or libsql remotely.
type SQLStore struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLStore creates the store and ensures its schema exists.
func NewSQLStore(db *database.DB, logger *logging.ChanneledLogger) (*SQLStore, error) {
	store := &SQLStore{db: db, logger: logger}
	if err := store.ensureSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize documents schema: %w", err)
	}
	return store, nil
}

func (s *SQLStore) ensureSchema() error {
	query := `CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	)`
	_, err := s.db.Exec(query)
	return err
}

// Get fetches a document by key.
func (s *SQLStore) Get(key string) (string, bool, error) {
	start := time.Now()

	var value string
	err := s.db.QueryRow(`SELECT value FROM documents WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		s.logger.LogStorageOperation("get", key, false, time.Since(start))
		return "", false, nil
	}
	if err != nil {
		s.logger.Storage().Error("Document read failed", "key", key, "error", err.Error())
		return "", false, err
	}

	s.logger.LogStorageOperation("get", key, true, time.Since(start))
	return value, true, nil
}

// Set writes a document, replacing any previous value for the key.
func (s *SQLStore) Set(key, value string) error {
	start := time.Now()

	_, err := s.db.Exec(
		`INSERT INTO documents (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		s.logger.Storage().Error("Document write failed", "key", key, "error", err.Error())
		return err
	}

	s.logger.LogStorageOperation("set", key, true, time.Since(start))
	return nil
}

// Remove deletes a document. Removing a missing key is a no-op.
func (s *SQLStore) Remove(key string) error {
	_, err := s.db.Exec(`DELETE FROM documents WHERE key = ?`, key)
	if err != nil {
		s.logger.Storage().Error("Document delete failed", "key", key, "error", err.Error())
		return err
	}
	s.logger.Storage().Debug("Document removed", "key", key)
	return nil
}

// MemoryStore is an in-process Store used in tests and as the degraded
// fallback when the database is unavailable.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return value, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}
