// Package storage holds the key-value slot the review snapshot is written to.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written
var ErrNotFound = errors.New("storage: key not found")

// KV is a durable string slot addressed by key.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
