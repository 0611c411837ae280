// Package storagetest holds the behaviour every storage.KV backend must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hanzidrill/internal/storage"
)

// Run exercises kv against the storage.KV contract. Keys are prefixed with
// the test name so a shared backend can be reused.
func Run(t *testing.T, kv storage.KV) {
	t.Helper()
	ctx := context.Background()
	key := t.Name() + "/snapshot"

	t.Run("missing key", func(t *testing.T) {
		_, err := kv.Get(ctx, key+"/missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, key, `{"history":{}}`))
		got, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `{"history":{}}`, got)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, key, "one"))
		require.NoError(t, kv.Set(ctx, key, "two"))
		got, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "two", got)
	})

	t.Run("unicode value", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, key, `{"你":[0,"s"]}`))
		got, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `{"你":[0,"s"]}`, got)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, key, "gone soon"))
		require.NoError(t, kv.Delete(ctx, key))
		_, err := kv.Get(ctx, key)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.NoError(t, kv.Delete(ctx, key), "deleting a missing key")
	})
}
