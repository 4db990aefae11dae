package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// SQLiteStore keeps the collection as one row of a key/value table.
type SQLiteStore struct {
	db   *sql.DB
	opts options
}

// NewSQLite opens (or creates) the database at path.
func NewSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty database path", ErrWrite)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create directory: %w", ErrWrite, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", ErrRead, err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create schema: %w", ErrWrite, err)
	}
	return &SQLiteStore{db: db, opts: buildOptions(opts)}, nil
}

// LoadAll implements Store.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]model.Evaluation, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, Key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.Evaluation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return decode(ctx, s.opts.log, "sqlite", []byte(raw)), nil
}

// SaveAll implements Store.
func (s *SQLiteStore) SaveAll(ctx context.Context, records []model.Evaluation) (err error) {
	defer func() { recordSave(err) }()

	b, err := encode(records)
	if err != nil {
		return err
	}
	if err := s.putRaw(ctx, string(b)); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// putRaw stores an arbitrary value under Key.
func (s *SQLiteStore) putRaw(ctx context.Context, raw string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, Key, raw)
	return err
}

// Close implements Store.
func (s *SQLiteStore) Close() error { return s.db.Close() }
