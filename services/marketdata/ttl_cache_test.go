package marketdata

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache_PutGet(t *testing.T) {
	cache := NewTTLCache(10, time.Minute)

	cache.Put("quote:AAPL", 185.32)

	value, ok := cache.Get("quote:AAPL")
	require.True(t, ok)
	assert.Equal(t, 185.32, value)

	_, ok = cache.Get("quote:MSFT")
	assert.False(t, ok)
}

func TestTTLCache_ExpiredEntryIsAMiss(t *testing.T) {
	cache := NewTTLCache(10, 20*time.Millisecond)

	cache.Put("quote:AAPL", 185.32)
	time.Sleep(40 * time.Millisecond)

	_, ok := cache.Get("quote:AAPL")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len(), "expired entry should be removed on access")
}

func TestTTLCache_EvictsOldestWhenFull(t *testing.T) {
	cache := NewTTLCache(3, time.Minute)

	for i := 0; i < 3; i++ {
		cache.Put(fmt.Sprintf("key%d", i), i)
	}
	cache.Put("key3", 3)

	assert.Equal(t, 3, cache.Len())

	_, ok := cache.Get("key0")
	assert.False(t, ok, "oldest entry should have been evicted")
	for i := 1; i <= 3; i++ {
		_, ok := cache.Get(fmt.Sprintf("key%d", i))
		assert.True(t, ok, "key%d should survive eviction", i)
	}
}

func TestTTLCache_OverwriteRefreshesInsertionOrder(t *testing.T) {
	cache := NewTTLCache(2, time.Minute)

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Put("a", 3)
	cache.Put("c", 4)

	// Re-putting "a" made "b" the oldest entry
	_, ok := cache.Get("b")
	assert.False(t, ok)

	value, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, value)
}

func TestTTLCache_Clear(t *testing.T) {
	cache := NewTTLCache(10, time.Minute)

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Clear()

	assert.Equal(t, 0, cache.Len())
	_, ok := cache.Get("a")
	assert.False(t, ok)
}

func TestNewTTLCache_Defaults(t *testing.T) {
	cache := NewTTLCache(0, 0)
	assert.Equal(t, DefaultCacheMaxSize, cache.maxSize)
	assert.Equal(t, DefaultCacheTTL, cache.ttl)
}
