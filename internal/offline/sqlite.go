package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/koinecards/internal/apperr"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS caches (
	name       TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS entries (
	cache     TEXT NOT NULL REFERENCES caches(name) ON DELETE CASCADE,
	url       TEXT NOT NULL,
	status    INTEGER NOT NULL,
	header    TEXT NOT NULL DEFAULT '{}',
	body      BLOB,
	stored_at DATETIME NOT NULL,
	PRIMARY KEY (cache, url)
);
`

var errEmptyKey = errors.New("offline: put: empty request key")

// SQLiteStore is a Store kept in a single SQLite database file.
type SQLiteStore struct {
	conn *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the cache database at path and applies the
// schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("offline: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("offline: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("offline: apply schema: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// Open creates the named cache if needed.
func (s *SQLiteStore) Open(ctx context.Context, name string) error {
	if _, err := s.conn.ExecContext(ctx, `INSERT OR IGNORE INTO caches (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("offline: open cache %s: %w", name, err)
	}
	return nil
}

// Keys returns every cache name in creation order.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT name FROM caches ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("offline: keys: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Delete removes the named cache; its entries go with it.
func (s *SQLiteStore) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM caches WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("offline: delete cache %s: %w", name, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Match looks up key in the named cache.
func (s *SQLiteStore) Match(ctx context.Context, name, key string) (*Snapshot, error) {
	var (
		snap   Snapshot
		header string
	)
	err := s.conn.QueryRowContext(ctx, `
		SELECT url, status, header, body, stored_at
		FROM entries
		WHERE cache = ? AND url = ?
	`, name, key).Scan(&snap.URL, &snap.Status, &header, &snap.Body, &snap.StoredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("offline: match %s: %w", key, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("offline: match %s: %w", key, err)
	}
	snap.Header = make(http.Header)
	if err := json.Unmarshal([]byte(header), &snap.Header); err != nil {
		return nil, fmt.Errorf("offline: decode header %s: %w", key, err)
	}
	return &snap, nil
}

// Put stores snap under key in a single transaction.
func (s *SQLiteStore) Put(ctx context.Context, name, key string, snap *Snapshot) error {
	stored := *snap
	stored.URL = key
	return s.PutAll(ctx, name, []*Snapshot{&stored})
}

// PutAll stores every snapshot under its URL in one transaction, creating
// the named cache when needed. Either all snapshots are stored or none.
func (s *SQLiteStore) PutAll(ctx context.Context, name string, snaps []*Snapshot) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("offline: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO caches (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("offline: open cache %s: %w", name, err)
	}
	for _, snap := range snaps {
		if err := putTx(ctx, tx, name, snap); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func putTx(ctx context.Context, tx *sql.Tx, name string, snap *Snapshot) error {
	if snap.URL == "" {
		return errEmptyKey
	}
	header, _ := json.Marshal(snap.Header)
	storedAt := snap.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO entries (cache, url, status, header, body, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache, url) DO UPDATE SET
			status    = excluded.status,
			header    = excluded.header,
			body      = excluded.body,
			stored_at = excluded.stored_at
	`, name, snap.URL, snap.Status, string(header), snap.Body, storedAt)
	if err != nil {
		return fmt.Errorf("offline: put %s: %w", snap.URL, err)
	}
	return nil
}

// Len returns the number of entries in the named cache.
func (s *SQLiteStore) Len(ctx context.Context, name string) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT count(*) FROM entries WHERE cache = ?`, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("offline: count %s: %w", name, err)
	}
	return n, nil
}
