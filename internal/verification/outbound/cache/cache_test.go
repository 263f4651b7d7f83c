package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dwapor/storefront/internal/pkg/instrument"
	"github.com/dwapor/storefront/internal/verification/entity"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(client, instrument.NewNoop()), mr
}

func TestRecordMismatchLocksAfterMaxAttempts(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for i := 1; i < 5; i++ {
		locked, err := c.RecordMismatch(ctx, "alice", entity.PurposeSignup, 5, 15*time.Minute)
		require.NoError(t, err)
		assert.False(t, locked, "attempt %d", i)
	}

	locked, err := c.IsLocked(ctx, "alice", entity.PurposeSignup)
	require.NoError(t, err)
	assert.False(t, locked)

	locked, err = c.RecordMismatch(ctx, "alice", entity.PurposeSignup, 5, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = c.IsLocked(ctx, "alice", entity.PurposeSignup)
	require.NoError(t, err)
	assert.True(t, locked)
	assert.False(t, mr.Exists(attemptsKey("alice", entity.PurposeSignup)))

	locked, err = c.IsLocked(ctx, "alice", entity.PurposePasswordReset)
	require.NoError(t, err)
	assert.False(t, locked, "lock is scoped to the purpose")

	mr.FastForward(16 * time.Minute)

	locked, err = c.IsLocked(ctx, "alice", entity.PurposeSignup)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestResetMismatches(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, err := c.RecordMismatch(ctx, "bob", entity.PurposeSignup, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists(attemptsKey("bob", entity.PurposeSignup)))

	require.NoError(t, c.ResetMismatches(ctx, "bob", entity.PurposeSignup))
	assert.False(t, mr.Exists(attemptsKey("bob", entity.PurposeSignup)))

	require.NoError(t, c.ResetMismatches(ctx, "nobody", entity.PurposeSignup))
}

func TestCounterExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, err := c.RecordMismatch(ctx, "carol", entity.PurposeSignup, 2, time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	locked, err := c.RecordMismatch(ctx, "carol", entity.PurposeSignup, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, locked, "an expired counter starts over")
}

func TestRedisUnavailable(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, err := c.IsLocked(context.Background(), "alice", entity.PurposeSignup)
	require.Error(t, err)
}
