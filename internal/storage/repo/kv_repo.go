package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repo is the key/value repository backing the store adapter. It works on
// both SQLite and PostgreSQL; queries are written with '?' and rebound per driver.
type Repo struct {
	db *sqlx.DB
}

// NewRepo constructs a new Repo with an existing *sqlx.DB connection.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// Get returns the raw value stored at key. A missing key yields (nil, false, nil).
func (r *Repo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	q := r.db.Rebind(`SELECT value FROM kv_entries WHERE key = ?`)
	if err := r.db.GetContext(ctx, &value, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return []byte(value), true, nil
}

// Set inserts or overwrites the value at key.
func (r *Repo) Set(ctx context.Context, key string, value []byte) error {
	q := r.db.Rebind(`
		INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if _, err := r.db.ExecContext(ctx, q, key, string(value)); err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *Repo) Delete(ctx context.Context, key string) error {
	q := r.db.Rebind(`DELETE FROM kv_entries WHERE key = ?`)
	if _, err := r.db.ExecContext(ctx, q, key); err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}

// Keys lists all stored keys in ascending order.
func (r *Repo) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := r.db.SelectContext(ctx, &keys, `SELECT key FROM kv_entries ORDER BY key`); err != nil {
		return nil, fmt.Errorf("failed to list kv keys: %w", err)
	}
	return keys, nil
}

// Entry summarises one stored key.
type Entry struct {
	Key  string `db:"key"`
	Size int64  `db:"size"`
}

// Entries lists every key with the length of its stored value.
func (r *Repo) Entries(ctx context.Context) ([]Entry, error) {
	var out []Entry
	if err := r.db.SelectContext(ctx, &out, `SELECT key, LENGTH(value) AS size FROM kv_entries ORDER BY key`); err != nil {
		return nil, fmt.Errorf("failed to list kv entries: %w", err)
	}
	return out, nil
}
