package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(&Options{
		DefaultTTL:      time.Minute,
		MaxEntries:      100,
		CleanupInterval: 10 * time.Millisecond,
	})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "token:contoso", []byte("abc"), time.Minute))

	val, err := c.Get(ctx, "token:contoso")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), val)

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryCache_GetReturnsCopy(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("value"), time.Minute))

	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	val[0] = 'X'

	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), again)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), 20*time.Millisecond))

	time.Sleep(40 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryCache_GetWithTTL(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	val, ttl, err := c.GetWithTTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
	assert.Greater(t, ttl, 30*time.Second)
}

func TestMemoryCache_DeleteAndExists(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "k"))

	ok, err = c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_EvictsLRU(t *testing.T) {
	c := NewMemoryCache(&Options{
		DefaultTTL: time.Minute,
		MaxEntries: 2,
	})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	time.Sleep(time.Millisecond)
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Minute))
	time.Sleep(time.Millisecond)

	// Touch "a" so "b" becomes the eviction candidate.
	_, err := c.Get(ctx, "a")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Minute))

	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, err = c.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestMemoryCache_Closed(t *testing.T) {
	c := NewMemoryCache(nil)
	require.NoError(t, c.Close())

	ctx := context.Background()
	assert.ErrorIs(t, c.Set(ctx, "k", []byte("v"), time.Minute), ErrCacheClosed)
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheClosed)

	// Second close is a no-op
	assert.NoError(t, c.Close())
}

func TestNew_BackendSelection(t *testing.T) {
	c, err := New(&Options{Backend: BackendMemory})
	require.NoError(t, err)
	defer c.Close()
	assert.IsType(t, &MemoryCache{}, c)

	_, err = New(&Options{Backend: "memcached"})
	assert.Error(t, err)
}
