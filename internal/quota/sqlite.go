package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists daily counts in a SQLite file so limits survive
// restarts. Safe for concurrent use.
type SQLiteStore struct {
	db    *sql.DB
	limit int
	now   func() time.Time
}

// OpenSQLite opens (or creates) the usage database at path and prunes
// counts from earlier days. A limit of zero or less disables the check.
func OpenSQLite(path string, limit int, opts ...Option) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating quota dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening quota db: %w", err)
	}
	// One connection serializes writers; SQLite locks the file anyway.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS usage (
		day   TEXT    NOT NULL,
		key   TEXT    NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (day, key)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating usage table: %w", err)
	}

	o := buildOptions(opts)
	s := &SQLiteStore{db: db, limit: limit, now: o.now}
	if _, err := s.Prune(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Used returns today's count for key.
func (s *SQLiteStore) Used(ctx context.Context, key string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT count FROM usage WHERE day = ? AND key = ?`,
		dayKey(s.now()), key,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading usage: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) Check(ctx context.Context, key string) error {
	if s.limit <= 0 {
		return ctx.Err()
	}
	used, err := s.Used(ctx, key)
	if err != nil {
		return err
	}
	if used >= s.limit {
		return exceeded(s.limit)
	}
	return nil
}

func (s *SQLiteStore) Increment(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage (day, key, count) VALUES (?, ?, 1)
		 ON CONFLICT (day, key) DO UPDATE SET count = count + 1`,
		dayKey(s.now()), key,
	)
	if err != nil {
		return fmt.Errorf("recording usage: %w", err)
	}
	return nil
}

// Prune deletes counts older than the current day.
func (s *SQLiteStore) Prune(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM usage WHERE day < ?`, dayKey(s.now()))
	if err != nil {
		return 0, fmt.Errorf("pruning usage: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
