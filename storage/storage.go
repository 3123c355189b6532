// Package storage implements ConstructStorage: actor-wrapped persistence
// with an abstract load/save(persistence_id, json) interface plus two
// concrete backends (in-memory, for tests; SQLite, for real programs).
//
// Grounded on pumped-go/examples/health-monitor's repository pattern and
// examples/cli-tasks/storage/storage.go's Storage-interface +
// MemoryStorage/FileStorage pair, which supplies the abstract-interface-
// plus-test-double shape spec.md §6 requires.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/boonlang/boon-runtime/actor"
	_ "github.com/mattn/go-sqlite3"
)

// Backend is the abstract persistence interface: load(id) -> json or
// absent, save(id, json) acknowledged on completion, per spec.md §6.
type Backend interface {
	Load(ctx context.Context, id string) (json.RawMessage, bool, error)
	Save(ctx context.Context, id string, v json.RawMessage) error
}

type loadRequest struct {
	id    string
	reply chan loadReply
}

type loadReply struct {
	v     json.RawMessage
	found bool
	err   error
}

type saveRequest struct {
	id    string
	v     json.RawMessage
	reply chan error
}

// ConstructStorage is the actor that wraps a Backend: reads are async
// request/reply, writes are acknowledged so the caller observes save
// completion, per spec.md §6.
type ConstructStorage struct {
	backend Backend
	loadCh  chan loadRequest
	saveCh  chan saveRequest
	loop    *actor.ActorLoop
}

// New starts a ConstructStorage actor wrapping backend.
func New(ctx context.Context, backend Backend) *ConstructStorage {
	s := &ConstructStorage{
		backend: backend,
		loadCh:  make(chan loadRequest),
		saveCh:  make(chan saveRequest),
	}
	s.loop = actor.NewActorLoop(ctx, "construct-storage", nil, s.run)
	return s
}

func (s *ConstructStorage) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.loadCh:
			v, found, err := s.backend.Load(ctx, req.id)
			req.reply <- loadReply{v: v, found: found, err: err}
		case req := <-s.saveCh:
			err := s.backend.Save(ctx, req.id, req.v)
			req.reply <- err
		}
	}
}

// Load returns the stored JSON for id, or found=false if nothing has been
// saved under that key.
func (s *ConstructStorage) Load(ctx context.Context, id string) (json.RawMessage, bool, error) {
	reply := make(chan loadReply, 1)
	select {
	case s.loadCh <- loadRequest{id: id, reply: reply}:
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.v, r.found, r.err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Save persists v under id, acknowledged on completion.
func (s *ConstructStorage) Save(ctx context.Context, id string, v json.RawMessage) error {
	reply := make(chan error, 1)
	select {
	case s.saveCh <- saveRequest{id: id, v: v, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels the storage actor's loop.
func (s *ConstructStorage) Stop() { s.loop.Stop() }

// MemoryBackend is an in-memory Backend, for tests and the cmd/boonrun
// smoke harness.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

// NewMemoryBackend constructs an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]json.RawMessage)}
}

func (m *MemoryBackend) Load(ctx context.Context, id string) (json.RawMessage, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[id]
	return v, ok, nil
}

func (m *MemoryBackend) Save(ctx context.Context, id string, v json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = v
	return nil
}

// SQLiteBackend is a concrete Backend keyed by persistence-id string,
// backed by github.com/mattn/go-sqlite3, grounded on
// pumped-go/examples/health-monitor/database.go's schema-on-connect
// pattern.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLiteBackend opens (creating if needed) a SQLite-backed Backend at
// dsn, ensuring the persisted_state table exists.
func OpenSQLiteBackend(dsn string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite3: %w", err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS persisted_state (
		id TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (s *SQLiteBackend) Load(ctx context.Context, id string) (json.RawMessage, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM persisted_state WHERE id = ?`, id)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("storage: load %q: %w", id, err)
	}
	return json.RawMessage(raw), true, nil
}

func (s *SQLiteBackend) Save(ctx context.Context, id string, v json.RawMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO persisted_state (id, value) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET value = excluded.value`, id, string(v))
	if err != nil {
		return fmt.Errorf("storage: save %q: %w", id, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteBackend) Close() error { return s.db.Close() }
