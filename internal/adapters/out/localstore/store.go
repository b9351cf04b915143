// internal/adapters/out/localstore/store.go
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Slot keys. They match the names the storefront has always used in the
// browser, so a dump of the table reads like a localStorage export.
const (
	KeyCart            = "brihaspatiCart"
	KeyIsLoggedIn      = "isLoggedIn"
	KeyUserName        = "userName"
	KeyUserEmail       = "userEmail"
	KeyProviderSession = "firebaseSession"
)

// TableDDL is the SQLite schema of the local slot store.
const TableDDL = `
CREATE TABLE IF NOT EXISTS local_storage (
  session_id TEXT NOT NULL,
  key        TEXT NOT NULL,
  value      TEXT NOT NULL,
  updated_at INTEGER NOT NULL,
  PRIMARY KEY (session_id, key)
);
CREATE INDEX IF NOT EXISTS idx_local_storage_updated ON local_storage(updated_at);
`

var ErrClosed = errors.New("localstore: store is closed")

// Store keeps one key/value slot per storefront session in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path. ":memory:" gives a private
// in-memory store, which is what tests use.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("localstore: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("localstore: open database: %w", err)
	}
	// one connection: every write is a whole-value overwrite and an
	// in-memory database only exists on its own connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if _, err := db.Exec(TableDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("localstore: create table: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Slot returns the slot of one session. Slots are cheap views; nothing is
// written until a value is set.
func (s *Store) Slot(sessionID string) *Slot {
	return &Slot{store: s, sessionID: strings.TrimSpace(sessionID)}
}

// Prune removes every value not written since before. It returns the number
// of rows deleted.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrClosed
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM local_storage WHERE updated_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("localstore: prune: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) get(ctx context.Context, sessionID, key string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, ErrClosed
	}
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM local_storage WHERE session_id = ? AND key = ?`,
		sessionID, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("localstore: get %s: %w", key, err)
	}
	return v, true, nil
}

// set writes every pair of kv in one transaction; a nil value deletes the key.
func (s *Store) set(ctx context.Context, sessionID string, kv map[string]*string) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("localstore: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now().UnixMilli()
	for k, v := range kv {
		if v == nil {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM local_storage WHERE session_id = ? AND key = ?`, sessionID, k); err != nil {
				return fmt.Errorf("localstore: delete %s: %w", k, err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO local_storage (session_id, key, value, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			sessionID, k, *v, now); err != nil {
			return fmt.Errorf("localstore: set %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("localstore: commit: %w", err)
	}
	return nil
}
