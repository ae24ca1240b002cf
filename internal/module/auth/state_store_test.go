package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		store := NewMemoryStateStore(time.Minute)
		require.NoError(t, store.Set(ctx, "state-1", "google"))

		data, err := store.Get(ctx, "state-1")
		require.NoError(t, err)
		assert.Equal(t, "google", data)
	})

	t.Run("missing state", func(t *testing.T) {
		store := NewMemoryStateStore(time.Minute)
		_, err := store.Get(ctx, "nope")
		assert.Error(t, err)
	})

	t.Run("expired state", func(t *testing.T) {
		store := NewMemoryStateStore(time.Minute)
		require.NoError(t, store.Set(ctx, "state-1", "github"))
		store.states["state-1"].expiresAt = time.Now().Add(-time.Second)

		_, err := store.Get(ctx, "state-1")
		assert.Error(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		store := NewMemoryStateStore(time.Minute)
		require.NoError(t, store.Set(ctx, "state-1", "google"))
		require.NoError(t, store.Delete(ctx, "state-1"))

		_, err := store.Get(ctx, "state-1")
		assert.Error(t, err)
	})
}
