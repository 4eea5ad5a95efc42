package rotation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_MarkUsed(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	used, err := store.MarkUsed(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, used)

	used, err = store.MarkUsed(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, used)

	used, err = store.MarkUsed(ctx, "jti-2", time.Hour)
	require.NoError(t, err)
	assert.False(t, used)
}

func TestMemoryStore_ExpiredEntriesForgotten(t *testing.T) {
	now := time.Now()
	store := NewMemoryStore().WithClock(func() time.Time { return now })
	ctx := context.Background()

	used, err := store.MarkUsed(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, used)

	now = now.Add(2 * time.Hour)
	used, err = store.MarkUsed(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, used, "entry past its ttl no longer counts as used")
}

func TestMemoryStore_EmptyJTI(t *testing.T) {
	store := NewMemoryStore()
	used, err := store.MarkUsed(context.Background(), "", time.Hour)
	require.NoError(t, err)
	assert.False(t, used)
}
