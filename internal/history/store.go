// Package history persists calculator runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"neptune/internal/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a store that lives only as long as the process.
const MemoryPath = ":memory:"

// Entry is one recorded calculation. Error is empty on success.
type Entry struct {
	ID         string
	Expression string
	Value      float64
	Error      string
	CreatedAt  time.Time
}

// Failed reports whether the calculation ended in an error.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Store is a SQLite backed calculation history.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if path != MemoryPath && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every new connection to :memory: is a new, empty database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, dbPath: path}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Get(logging.CategoryHistory).Debug("history opened", zap.String("path", path))
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS calculations (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		expression TEXT NOT NULL,
		value REAL NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_calculations_created ON calculations(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores e. A missing ID or timestamp is filled in; the stored entry
// is returned.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO calculations (id, expression, value, error, created_at) VALUES (?, ?, ?, ?, ?)",
		e.ID, e.Expression, e.Value, e.Error, e.CreatedAt.UnixNano(),
	)
	if err != nil {
		logging.Get(logging.CategoryHistory).Error("failed to record calculation",
			zap.String("expression", e.Expression), zap.Error(err))
		return e, fmt.Errorf("failed to record calculation: %w", err)
	}
	return e, nil
}

// Recent returns up to n entries, newest first. n <= 0 returns everything.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		n = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, expression, value, error, created_at
		 FROM calculations
		 ORDER BY seq DESC
		 LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e  Entry
			ns int64
		)
		if err := rows.Scan(&e.ID, &e.Expression, &e.Value, &e.Error, &ns); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		e.CreatedAt = time.Unix(0, ns)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return entries, nil
}

// Count returns the number of recorded entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM calculations").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

// Clear deletes every entry.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM calculations"); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	logging.Get(logging.CategoryHistory).Info("history cleared")
	return nil
}
