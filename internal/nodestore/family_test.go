package nodestore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/shamapd/internal/shamap"
)

func TestFamilyStoreThenRetrieve(t *testing.T) {
	backend, err := NewMemoryBackend(nil)
	require.NoError(t, err)
	require.NoError(t, backend.Open(true))
	defer backend.Close()

	family := NewFamily(backend)
	blob := []byte("a serialized node")
	hash := hashOf(5)

	require.NoError(t, family.Store(shamap.ObjectAccountNode, 3, blob, hash))

	got, err := family.Retrieve(hash)
	require.NoError(t, err)
	require.Equal(t, blob, got)
}

func TestFamilyRetrieveMissingReturnsNilNotError(t *testing.T) {
	backend, err := NewMemoryBackend(nil)
	require.NoError(t, err)
	require.NoError(t, backend.Open(true))
	defer backend.Close()

	family := NewFamily(backend)
	got, err := family.Retrieve(hashOf(99))
	require.NoError(t, err)
	require.Nil(t, got)
}
