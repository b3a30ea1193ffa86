// Package store keeps machine snapshots in a SQLite database so that a
// suspended program can be resumed by a later process.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chazu/intcode/pkg/intcode"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"
)

var log = commonlog.GetLogger("intcode.store")

// ErrNotFound indicates the requested snapshot doesn't exist.
var ErrNotFound = errors.New("store: snapshot not found")

// Entry describes a stored snapshot without its data.
type Entry struct {
	ID      string
	Name    string
	State   string
	Steps   uint64
	Created time.Time
}

// Store handles SQLite storage for snapshots.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		state TEXT NOT NULL,
		steps INTEGER NOT NULL,
		data BLOB NOT NULL,
		created INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	log.Debugf("opened %s", path)
	return &Store{db: db, path: path}, nil
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores a snapshot of m under a fresh id.
func (s *Store) Save(ctx context.Context, m *intcode.Machine) (string, error) {
	snap := m.Snapshot()
	if snap.State == intcode.StateFaulted {
		return "", fmt.Errorf("saving %s: machine is faulted: %w", m.Name(), m.Err())
	}
	data, err := intcode.MarshalSnapshot(snap)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO snapshots (id, name, state, steps, data, created) VALUES (?, ?, ?, ?, ?, ?)",
		id, snap.Name, snap.State.String(), int64(snap.Steps), data, time.Now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("saving snapshot: %w", err)
	}
	log.Infof("saved %s as %s (%s, %d steps)", snap.Name, id, snap.State, snap.Steps)
	return id, nil
}

// Load rebuilds the machine stored under id.
func (s *Store) Load(ctx context.Context, id string, opts ...intcode.Option) (*intcode.Machine, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM snapshots WHERE id = ?", id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}

	snap, err := intcode.UnmarshalSnapshot(data)
	if err != nil {
		return nil, err
	}
	m, err := intcode.Restore(snap, opts...)
	if err != nil {
		return nil, fmt.Errorf("restoring snapshot %s: %w", id, err)
	}
	return m, nil
}

// List returns all snapshots, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, state, steps, created FROM snapshots ORDER BY created DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			steps   int64
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.State, &steps, &created); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		e.Steps = uint64(steps)
		e.Created = time.Unix(0, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the snapshot stored under id.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
