package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	cache := NewCache(time.Minute)
	opts := DefaultOptions()
	result := resultFixture("0xaa", "simple_transfer", 100_000, 0)

	_, ok := cache.Get("0xaa", opts)
	assert.False(t, ok)

	cache.Set("0xaa", opts, result)
	got, ok := cache.Get("0xaa", opts)
	require.True(t, ok)
	assert.Equal(t, result, got)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheKeyIncludesOptions(t *testing.T) {
	cache := NewCache(time.Minute)
	result := resultFixture("0xaa", "simple_transfer", 100_000, 0)

	cache.Set("0xaa", Options{AdvancedMev: true, IncludeGraph: true}, result)

	_, ok := cache.Get("0xaa", Options{AdvancedMev: false, IncludeGraph: true})
	assert.False(t, ok, "different options must not share an entry")
	assert.Equal(t, 1, cache.Len())
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := NewCache(time.Minute)
	current := time.Unix(1_700_000_000, 0)
	cache.now = func() time.Time { return current }

	opts := DefaultOptions()
	cache.Set("0xaa", opts, resultFixture("0xaa", "simple_transfer", 100_000, 0))

	current = current.Add(59 * time.Second)
	_, ok := cache.Get("0xaa", opts)
	assert.True(t, ok)

	current = current.Add(2 * time.Second)
	_, ok = cache.Get("0xaa", opts)
	assert.False(t, ok)

	// stale entries linger until the next Set replaces them
	assert.Equal(t, 1, cache.Len())

	cache.Set("0xaa", opts, resultFixture("0xaa", "simple_transfer", 100_000, 0))
	_, ok = cache.Get("0xaa", opts)
	assert.True(t, ok)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheDefaultTTLFallback(t *testing.T) {
	cache := NewCache(0)
	assert.Equal(t, DefaultCacheTTL, cache.ttl)

	cache = NewCache(-time.Second)
	assert.Equal(t, DefaultCacheTTL, cache.ttl)
}
