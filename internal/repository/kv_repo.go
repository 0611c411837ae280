package repository

import (
	"context"
	"database/sql"
	"errors"

	"hanzidrill/internal/database"
	"hanzidrill/internal/storage"
)

// KVRepository stores opaque string values in the kv_store table
type KVRepository struct {
	db database.DBTX
}

func NewKVRepository(db database.DBTX) *KVRepository {
	return &KVRepository{db: db}
}

// Get retrieves a value by key, returning storage.ErrNotFound when absent
func (r *KVRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	query := `SELECT store_value FROM kv_store WHERE store_key = ?`
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	return value, err
}

// Set updates or inserts a value
func (r *KVRepository) Set(ctx context.Context, key, value string) error {
	query := r.db.GetDialect().UpsertKVQuery()
	_, err := r.db.ExecContext(ctx, query, key, value)
	return err
}

// Delete removes a key; deleting a missing key is not an error
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kv_store WHERE store_key = ?`, key)
	return err
}

// Close is a no-op; the connection is owned by whoever opened it
func (r *KVRepository) Close() error {
	return nil
}
