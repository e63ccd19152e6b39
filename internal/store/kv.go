// Package store provides the durable key-value store behind the ledger.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNoRevision is returned by Undo when no earlier value is retained.
var ErrNoRevision = errors.New("no earlier revision")

// keepRevisions bounds how many replaced values are retained per key.
const keepRevisions = 20

// Revision is a value that was replaced or deleted.
type Revision struct {
	ID         int64
	Key        string
	Value      string
	ReplacedAt time.Time
}

// KV is a SQLite-backed key-value store.
type KV struct {
	db *sql.DB
}

// Open opens or creates the database at dbPath and applies pending migrations.
func Open(dbPath string) (*KV, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	return &KV{db: db}, nil
}

// Close closes the database.
func (k *KV) Close() error {
	return k.db.Close()
}

// Get returns the value stored under key and whether it exists.
func (k *KV) Get(key string) (string, bool, error) {
	var value string
	err := k.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores value under key, keeping the replaced value as a revision.
func (k *KV) Set(key, value string) error {
	tx, err := k.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)

	if err := archive(tx, key, now); err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes key. Deleting a missing key is not an error.
func (k *KV) Delete(key string) error {
	tx, err := k.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := archive(tx, key, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return err
	}
	return tx.Commit()
}

// Revisions returns the retained previous values of key, newest first.
func (k *KV) Revisions(key string) ([]Revision, error) {
	rows, err := k.db.Query(`SELECT id, key, value, replaced_at FROM kv_history
		WHERE key = ? ORDER BY id DESC`, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var revs []Revision
	for rows.Next() {
		var r Revision
		var at string
		if err := rows.Scan(&r.ID, &r.Key, &r.Value, &at); err != nil {
			return nil, err
		}
		r.ReplacedAt, _ = time.Parse(time.RFC3339Nano, at)
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

// Undo restores the newest retained revision of key and drops it from the
// history, so repeated calls step further back. The value being replaced is
// not archived.
func (k *KV) Undo(key string) (Revision, error) {
	tx, err := k.db.Begin()
	if err != nil {
		return Revision{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var r Revision
	var at string
	err = tx.QueryRow(`SELECT id, key, value, replaced_at FROM kv_history
		WHERE key = ? ORDER BY id DESC LIMIT 1`, key).Scan(&r.ID, &r.Key, &r.Value, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, ErrNoRevision
	}
	if err != nil {
		return Revision{}, err
	}
	r.ReplacedAt, _ = time.Parse(time.RFC3339Nano, at)

	_, err = tx.Exec(`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, r.Value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return Revision{}, err
	}
	if _, err := tx.Exec("DELETE FROM kv_history WHERE id = ?", r.ID); err != nil {
		return Revision{}, err
	}
	return r, tx.Commit()
}

// archive copies the current value of key, if any, into kv_history and trims
// the history to keepRevisions entries.
func archive(tx *sql.Tx, key, now string) error {
	_, err := tx.Exec(`INSERT INTO kv_history (key, value, replaced_at)
		SELECT key, value, ? FROM kv WHERE key = ?`, now, key)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`DELETE FROM kv_history WHERE key = ? AND id NOT IN (
		SELECT id FROM kv_history WHERE key = ? ORDER BY id DESC LIMIT ?)`,
		key, key, keepRevisions)
	return err
}
