package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// KV implements the namespaced key/value contract over the kv_entries table.
// Expired rows are treated as absent on read and reaped opportunistically.
type KV struct{ db *DB }

// NewKV constructs a key/value store around an open pool.
func NewKV(db *DB) *KV { return &KV{db: db} }

// Get returns the stored value and whether a live entry exists.
func (k *KV) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	const q = `
		SELECT value FROM kv_entries
		WHERE namespace=$1 AND key=$2 AND (expires_at IS NULL OR expires_at > now())`
	var value []byte
	err := k.db.Pool.QueryRow(ctx, q, namespace, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set writes a value, replacing any previous entry under the same key.
func (k *KV) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	const q = `
		INSERT INTO kv_entries (namespace, key, value, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (namespace, key) DO UPDATE SET value=$3, expires_at=$4`
	var expires *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expires = &t
	}
	_, err := k.db.Pool.Exec(ctx, q, namespace, key, value, expires)
	return err
}

// Delete removes a single entry. Deleting a missing key is not an error.
func (k *KV) Delete(ctx context.Context, namespace, key string) error {
	const q = `DELETE FROM kv_entries WHERE namespace=$1 AND key=$2`
	_, err := k.db.Pool.Exec(ctx, q, namespace, key)
	return err
}

// Flush removes every entry in the namespace.
func (k *KV) Flush(ctx context.Context, namespace string) error {
	const q = `DELETE FROM kv_entries WHERE namespace=$1`
	_, err := k.db.Pool.Exec(ctx, q, namespace)
	return err
}
