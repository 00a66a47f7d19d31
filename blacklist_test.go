package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/ytcsp/go-auth-module"
)

func TestTokenBlacklistStore(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	store := auth.NewTokenBlacklist(db)

	now := time.Now().UTC().Truncate(time.Second)

	t.Run("lookup misses return no entry and no error", func(t *testing.T) {
		entry, err := store.Lookup(ctx, "unknown-jti")
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("add then lookup round trip", func(t *testing.T) {
		entry := &auth.BlacklistEntry{
			JTI:            "jti-1",
			BlacklistedAt:  now,
			GracePeriodEnd: now.Add(30 * time.Second),
			ExpiresAt:      now.Add(time.Hour),
		}
		require.NoError(t, store.Add(ctx, entry))

		found, err := store.Lookup(ctx, "jti-1")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "jti-1", found.JTI)
		assert.WithinDuration(t, entry.GracePeriodEnd, found.GracePeriodEnd, time.Second)

		assert.False(t, found.Revoked(now))
		assert.True(t, found.Revoked(now.Add(31*time.Second)))
	})

	t.Run("re-adding the same jti keeps the earliest grace end", func(t *testing.T) {
		first := &auth.BlacklistEntry{
			JTI:            "jti-2",
			BlacklistedAt:  now,
			GracePeriodEnd: now.Add(10 * time.Minute),
			ExpiresAt:      now.Add(time.Hour),
		}
		require.NoError(t, store.Add(ctx, first))

		// An earlier grace end tightens the stored window.
		second := &auth.BlacklistEntry{
			JTI:            "jti-2",
			BlacklistedAt:  now.Add(time.Minute),
			GracePeriodEnd: now,
			ExpiresAt:      now.Add(time.Hour),
		}
		require.NoError(t, store.Add(ctx, second))

		found, err := store.Lookup(ctx, "jti-2")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.WithinDuration(t, now, found.GracePeriodEnd, time.Second)

		// A later grace end does not loosen it back.
		third := &auth.BlacklistEntry{
			JTI:            "jti-2",
			BlacklistedAt:  now.Add(2 * time.Minute),
			GracePeriodEnd: now.Add(20 * time.Minute),
			ExpiresAt:      now.Add(time.Hour),
		}
		require.NoError(t, store.Add(ctx, third))

		found, err = store.Lookup(ctx, "jti-2")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.WithinDuration(t, now, found.GracePeriodEnd, time.Second)
	})

	t.Run("rejects an entry without a jti", func(t *testing.T) {
		assert.Error(t, store.Add(ctx, &auth.BlacklistEntry{}))
		assert.Error(t, store.Add(ctx, nil))
	})

	t.Run("remove reports whether a row existed", func(t *testing.T) {
		entry := &auth.BlacklistEntry{
			JTI:            "jti-3",
			BlacklistedAt:  now,
			GracePeriodEnd: now,
			ExpiresAt:      now.Add(time.Hour),
		}
		require.NoError(t, store.Add(ctx, entry))

		removed, err := store.Remove(ctx, "jti-3")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = store.Remove(ctx, "jti-3")
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("cleanup sweeps only entries past their token expiry", func(t *testing.T) {
		stale := &auth.BlacklistEntry{
			JTI:            "jti-stale",
			BlacklistedAt:  now.Add(-2 * time.Hour),
			GracePeriodEnd: now.Add(-2 * time.Hour),
			ExpiresAt:      now.Add(-time.Hour),
		}
		live := &auth.BlacklistEntry{
			JTI:            "jti-live",
			BlacklistedAt:  now,
			GracePeriodEnd: now,
			ExpiresAt:      now.Add(time.Hour),
		}
		require.NoError(t, store.Add(ctx, stale))
		require.NoError(t, store.Add(ctx, live))

		swept, err := store.CleanupExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), swept)

		entry, err := store.Lookup(ctx, "jti-stale")
		require.NoError(t, err)
		assert.Nil(t, entry)

		entry, err = store.Lookup(ctx, "jti-live")
		require.NoError(t, err)
		assert.NotNil(t, entry)
	})
}
