//go:build integration

package rotation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weaveid/pkg/testutil/containers"
)

func TestRedisStore_Integration(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client)

	t.Run("first use wins, reuse detected", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		used, err := store.MarkUsed(ctx, "jti-1", time.Minute)
		require.NoError(t, err)
		assert.False(t, used)

		used, err = store.MarkUsed(ctx, "jti-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, used)
	})

	t.Run("expired marks are forgotten", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		used, err := store.MarkUsed(ctx, "jti-2", 100*time.Millisecond)
		require.NoError(t, err)
		assert.False(t, used)

		time.Sleep(200 * time.Millisecond)

		used, err = store.MarkUsed(ctx, "jti-2", time.Minute)
		require.NoError(t, err)
		assert.False(t, used)
	})
}
