package nodestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheServesWithoutHittingBackendAfterFirstFetch(t *testing.T) {
	backend, err := NewMemoryBackend(nil)
	require.NoError(t, err)
	require.NoError(t, backend.Open(true))
	defer backend.Close()

	entry := &Entry{Hash: hashOf(1), Data: []byte("cached")}
	require.Equal(t, OK, backend.Store(entry))

	cache := NewCache(backend, 16, time.Hour)

	got, status := cache.Fetch(hashOf(1))
	require.Equal(t, OK, status)
	require.Equal(t, entry.Data, got.Data)
	require.Equal(t, 1, cache.Len())

	// Remove the underlying entry directly from the memory map so a
	// second Fetch can only succeed if it's served from the cache.
	mem := backend.(*MemoryBackend)
	mem.mu.Lock()
	delete(mem.data, hashOf(1))
	mem.mu.Unlock()

	got2, status2 := cache.Fetch(hashOf(1))
	require.Equal(t, OK, status2)
	require.Equal(t, entry.Data, got2.Data)
}

func TestCacheStoreWritesThrough(t *testing.T) {
	backend, err := NewMemoryBackend(nil)
	require.NoError(t, err)
	require.NoError(t, backend.Open(true))
	defer backend.Close()

	cache := NewCache(backend, 16, time.Hour)
	entry := &Entry{Hash: hashOf(2), Data: []byte("written")}
	require.Equal(t, OK, cache.Store(entry))

	got, status := backend.Fetch(hashOf(2))
	require.Equal(t, OK, status)
	require.Equal(t, entry.Data, got.Data)
}

func TestCacheFetchBatchMixesHitsAndMisses(t *testing.T) {
	backend, err := NewMemoryBackend(nil)
	require.NoError(t, err)
	require.NoError(t, backend.Open(true))
	defer backend.Close()

	cache := NewCache(backend, 16, time.Hour)
	require.Equal(t, OK, cache.Store(&Entry{Hash: hashOf(1), Data: []byte("a")}))
	require.Equal(t, OK, backend.Store(&Entry{Hash: hashOf(2), Data: []byte("b")}))

	out, status := cache.FetchBatch([][32]byte{hashOf(1), hashOf(2), hashOf(3)})
	require.Equal(t, OK, status)
	require.Equal(t, []byte("a"), out[0].Data)
	require.Equal(t, []byte("b"), out[1].Data)
	require.Nil(t, out[2])
}
